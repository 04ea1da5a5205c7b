package dto

import "encoding/json"

// RelayResponse wraps a downstream body for the caller.
type RelayResponse struct {
	Recvue    json.RawMessage `json:"recvue"`
	RequestID string          `json:"request_id"`
	Tenant    *string         `json:"tenant"`
}

// ErrorResponse is returned for every failure produced by the relay itself.
type ErrorResponse struct {
	Error     string  `json:"error"`
	Details   any     `json:"details,omitempty"`
	RequestID string  `json:"request_id"`
	Tenant    *string `json:"tenant"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// TenantRef returns nil for an unresolved tenant so it encodes as null.
func TenantRef(tenant string) *string {
	if tenant == "" {
		return nil
	}
	return &tenant
}
