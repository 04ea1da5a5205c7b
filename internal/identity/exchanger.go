package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"payloadbridge/internal/config"
	"payloadbridge/internal/domain"
	apperrors "payloadbridge/internal/errors"
	"payloadbridge/internal/infrastructure/metrics"

	"go.uber.org/zap"
)

const (
	authorizePath = "/api/v2.0/authorize"
	bearerPrefix  = "Bearer "

	// Identity responses are small; anything larger is not a grant.
	maxResponseBytes = 1 << 20
)

// requiredFields are the identity response keys that become forwarding
// headers, in reporting order.
var requiredFields = []string{
	domain.HeaderForwardedUser,
	domain.HeaderTenantIdentifier,
	domain.HeaderHostName,
}

// Exchanger trades a caller's access token for the forwarding headers of
// one downstream call. It never retries.
type Exchanger struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	metrics    *metrics.Registry
	logger     *zap.Logger
}

func NewExchanger(httpClient *http.Client, cfg config.AuthorizeConfig, metrics *metrics.Registry, logger *zap.Logger) *Exchanger {
	return &Exchanger{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		timeout:    cfg.Timeout,
		metrics:    metrics,
		logger:     logger,
	}
}

func (e *Exchanger) Exchange(ctx context.Context, token, hostName string) (domain.ForwardingHeaders, error) {
	if token == "" {
		return domain.ForwardingHeaders{}, apperrors.NewBadRequestError("Missing access_token header")
	}
	if hostName == "" {
		return domain.ForwardingHeaders{}, apperrors.NewBadRequestError("Missing hostName header")
	}
	if !domain.ValidHostName(hostName) {
		return domain.ForwardingHeaders{}, apperrors.NewBadRequestError("Invalid hostName format")
	}

	headers, err := e.exchange(ctx, token, hostName)
	e.record(err)
	return headers, err
}

func (e *Exchanger) exchange(ctx context.Context, token, hostName string) (domain.ForwardingHeaders, error) {
	reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodGet, e.authorizeURL(hostName), nil)
	if err != nil {
		return domain.ForwardingHeaders{}, serviceError(0, fmt.Errorf("creating authorize request: %w", err))
	}
	httpReq.Header.Set(domain.HeaderAccessToken, token)
	httpReq.Header.Set(domain.HeaderHostName, hostName)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return domain.ForwardingHeaders{}, serviceError(0, fmt.Errorf("calling authorize: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return domain.ForwardingHeaders{}, apperrors.NewAuthError(apperrors.AuthUnauthorized, resp.StatusCode, "Unauthorized: Invalid access_token")
	case resp.StatusCode == http.StatusForbidden:
		return domain.ForwardingHeaders{}, apperrors.NewAuthError(apperrors.AuthForbidden, resp.StatusCode, "Forbidden: Access denied")
	case resp.StatusCode != http.StatusOK:
		return domain.ForwardingHeaders{}, serviceError(resp.StatusCode, nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.ForwardingHeaders{}, serviceError(resp.StatusCode, fmt.Errorf("reading authorize response: %w", err))
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		ae := apperrors.NewAuthError(apperrors.AuthMalformedResponse, resp.StatusCode, "Auth service returned a non-JSON response")
		ae.Cause = err
		return domain.ForwardingHeaders{}, ae
	}

	values := make(map[string]string, len(requiredFields))
	var missing []string
	for _, field := range requiredFields {
		s, ok := data[field].(string)
		if !ok || s == "" {
			missing = append(missing, field)
			continue
		}
		values[field] = s
	}
	if len(missing) > 0 {
		ae := apperrors.NewAuthError(apperrors.AuthMalformedResponse, resp.StatusCode, fmt.Sprintf("Missing headers in auth response: %v", missing))
		ae.Missing = missing
		return domain.ForwardingHeaders{}, ae
	}

	tenant := values[domain.HeaderTenantIdentifier]
	if !domain.ValidHostName(tenant) {
		return domain.ForwardingHeaders{}, apperrors.NewAuthError(apperrors.AuthMalformedResponse, resp.StatusCode, "Invalid tenantIdentifier in auth response")
	}

	return domain.ForwardingHeaders{
		ForwardedUser:    values[domain.HeaderForwardedUser],
		TenantIdentifier: tenant,
		HostName:         values[domain.HeaderHostName],
		Authorization:    bearerPrefix + token,
	}, nil
}

func (e *Exchanger) authorizeURL(hostName string) string {
	if e.baseURL != "" {
		return e.baseURL + authorizePath
	}
	return "https://" + hostName + authorizePath
}

func (e *Exchanger) record(err error) {
	outcome := "ok"
	if ae, ok := apperrors.IsAuthError(err); ok {
		outcome = string(ae.Kind)
	} else if err != nil {
		outcome = "error"
	}
	e.metrics.AuthExchanges.WithLabelValues(outcome).Inc()
	if err != nil {
		e.logger.Debug("identity exchange failed", zap.String("outcome", outcome), zap.Error(err))
	}
}

func serviceError(status int, cause error) *apperrors.AuthError {
	ae := apperrors.NewAuthError(apperrors.AuthServiceError, status, "Auth service error")
	ae.Cause = cause
	return ae
}
