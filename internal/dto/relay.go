package dto

import (
	"encoding/json"

	"payloadbridge/internal/domain"
)

// DownstreamResult is a RecVue response normalized to a JSON body.
type DownstreamResult struct {
	StatusCode int
	Body       json.RawMessage
	Attempts   int
}

type RelayStage string

const (
	StageValidating     RelayStage = "validating"
	StageAuthenticating RelayStage = "authenticating"
	StageForwarding     RelayStage = "forwarding"
	StageResponding     RelayStage = "responding"
)

// RelayOutcome describes how far one request got through the pipeline.
// Tenant is empty until the identity exchange succeeds.
type RelayOutcome struct {
	Stage  RelayStage
	Tenant string
	Result *DownstreamResult
}

// CreateOrderRequest is one parsed inbound request. RawBody is forwarded
// byte for byte; Payload is what gets validated.
type CreateOrderRequest struct {
	RequestID   string
	AccessToken string
	HostName    string
	Payload     domain.OrderPayload
	RawBody     []byte
}
