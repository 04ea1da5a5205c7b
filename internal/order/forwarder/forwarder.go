package forwarder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"payloadbridge/internal/config"
	"payloadbridge/internal/domain"
	"payloadbridge/internal/dto"
	apperrors "payloadbridge/internal/errors"
	"payloadbridge/internal/infrastructure/metrics"

	"go.uber.org/zap"
)

const (
	legacyPath = "/invoke_order_creation"

	maxResponseBytes = 10 << 20
)

type nonJSONBody struct {
	Error string `json:"error"`
	Raw   string `json:"raw"`
}

type oversizedBody struct {
	Error      string `json:"error"`
	LimitBytes int    `json:"limitBytes"`
}

type Forwarder struct {
	httpClient *http.Client
	cfg        config.RecvueConfig
	metrics    *metrics.Registry
	logger     *zap.Logger
}

func NewForwarder(httpClient *http.Client, cfg config.RecvueConfig, metrics *metrics.Registry, logger *zap.Logger) *Forwarder {
	return &Forwarder{
		httpClient: httpClient,
		cfg:        cfg,
		metrics:    metrics,
		logger:     logger,
	}
}

// TargetURL is the tenant's order lines endpoint.
func (f *Forwarder) TargetURL(tenant string) string {
	return strings.ReplaceAll(f.cfg.TenantURLTemplate, config.TenantPlaceholder, tenant)
}

// Forward posts body to the tenant endpoint. Transport failures and 5xx
// responses are retried up to MaxRetries times; the last attempt's outcome
// is returned. When no attempt produced a response the error is a
// *apperrors.DownstreamUnreachableError.
func (f *Forwarder) Forward(ctx context.Context, body []byte, headers domain.ForwardingHeaders) (*dto.DownstreamResult, error) {
	target := f.TargetURL(headers.TenantIdentifier)
	maxAttempts := f.cfg.MaxRetries + 1
	logger := f.logger.With(zap.String("tenant", headers.TenantIdentifier))

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := f.wait(ctx, attempt-1); err != nil {
				return nil, apperrors.NewDownstreamUnreachableError(attempt-1, err)
			}
		}

		result, err := f.post(ctx, target, body, headers.Map())
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, apperrors.NewDownstreamUnreachableError(attempt, err)
			}
			logger.Warn("recvue attempt failed", zap.Int("attempt", attempt), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			continue
		}

		result.Attempts = attempt
		if isTransientStatus(result.StatusCode) && attempt < maxAttempts {
			logger.Warn("recvue returned server error, retrying", zap.Int("attempt", attempt), zap.Int("maxAttempts", maxAttempts), zap.Int("status", result.StatusCode))
			continue
		}

		logger.Info("recvue response", zap.Int("status", result.StatusCode), zap.Int("attempt", attempt))
		return result, nil
	}

	return nil, apperrors.NewDownstreamUnreachableError(maxAttempts, lastErr)
}

// ForwardStatic posts body to the configured bridge endpoint with the static
// API token. It makes a single attempt.
func (f *Forwarder) ForwardStatic(ctx context.Context, body []byte) (*dto.DownstreamResult, error) {
	target := f.cfg.APIBaseURL + legacyPath
	headers := map[string]string{
		domain.HeaderAuthorization: "Bearer " + f.cfg.APIToken,
	}

	result, err := f.post(ctx, target, body, headers)
	if err != nil {
		f.logger.Warn("bridge attempt failed", zap.Error(err))
		return nil, apperrors.NewDownstreamUnreachableError(1, err)
	}
	result.Attempts = 1
	return result, nil
}

func (f *Forwarder) post(ctx context.Context, target string, body []byte, headers map[string]string) (*dto.DownstreamResult, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	start := time.Now()
	result, err := f.do(reqCtx, target, body, headers)
	f.metrics.ForwardLatency.Observe(time.Since(start).Seconds())
	f.metrics.ForwardAttempts.WithLabelValues(outcome(result, err)).Inc()

	return result, err
}

func (f *Forwarder) do(ctx context.Context, target string, body []byte, headers map[string]string) (*dto.DownstreamResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if len(raw) > maxResponseBytes {
		f.logger.Warn("recvue response exceeds size limit", zap.String("target", target), zap.Int("status", resp.StatusCode), zap.Int("limitBytes", maxResponseBytes))
		body, _ := json.Marshal(oversizedBody{
			Error:      "RecVue response exceeds size limit",
			LimitBytes: maxResponseBytes,
		})
		return &dto.DownstreamResult{StatusCode: resp.StatusCode, Body: body}, nil
	}

	return &dto.DownstreamResult{
		StatusCode: resp.StatusCode,
		Body:       normalizeBody(raw),
	}, nil
}

// normalizeBody keeps JSON bodies as they are and wraps anything else.
func normalizeBody(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	wrapped, _ := json.Marshal(nonJSONBody{
		Error: "RecVue returned non-JSON response",
		Raw:   string(raw),
	})
	return wrapped
}

func (f *Forwarder) wait(ctx context.Context, retry int) error {
	if f.cfg.RetryBackoff <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(time.Duration(retry) * f.cfg.RetryBackoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isTransientStatus(status int) bool {
	return status >= http.StatusInternalServerError
}

func outcome(result *dto.DownstreamResult, err error) string {
	switch {
	case err != nil:
		return "transport_error"
	case isTransientStatus(result.StatusCode):
		return "server_error"
	case result.StatusCode >= http.StatusBadRequest:
		return "client_error"
	default:
		return "ok"
	}
}
