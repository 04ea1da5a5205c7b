package identity

import (
	"context"
	"net/http"
	"testing"
	"time"

	"payloadbridge/internal/config"
	"payloadbridge/internal/domain"
	apperrors "payloadbridge/internal/errors"
	"payloadbridge/internal/infrastructure/metrics"
	"payloadbridge/internal/testutil"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestExchanger(baseURL string) (*Exchanger, *metrics.Registry) {
	reg := metrics.NewRegistry()
	cfg := config.AuthorizeConfig{BaseURL: baseURL, Timeout: 2 * time.Second}
	return NewExchanger(&http.Client{}, cfg, reg, zap.NewNop()), reg
}

func requireAuthError(t *testing.T, err error, kind apperrors.AuthErrorKind) *apperrors.AuthError {
	t.Helper()
	ae, ok := apperrors.IsAuthError(err)
	require.True(t, ok, "expected AuthError, got %T: %v", err, err)
	assert.Equal(t, kind, ae.Kind)
	return ae
}

func TestExchange_Success(t *testing.T) {
	srv := testutil.NewStubServer(t, testutil.JSONResponse(http.StatusOK, map[string]string{
		"x-forwarded-user": "user1",
		"tenantIdentifier": "acme",
		"hostName":         "h1",
		"internalSecret":   "do-not-forward",
	}))
	ex, reg := newTestExchanger(srv.URL)

	headers, err := ex.Exchange(context.Background(), "t1", "h1")

	require.NoError(t, err)
	assert.Equal(t, domain.ForwardingHeaders{
		ForwardedUser:    "user1",
		TenantIdentifier: "acme",
		HostName:         "h1",
		Authorization:    "Bearer t1",
	}, headers)
	assert.Len(t, headers.Map(), 4)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, "/api/v2.0/authorize", reqs[0].Path)
	assert.Equal(t, "t1", reqs[0].Header.Get("access_token"))
	assert.Equal(t, "h1", reqs[0].Header.Get("hostName"))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(reg.AuthExchanges.WithLabelValues("ok")))
}

func TestExchange_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   apperrors.AuthErrorKind
	}{
		{"unauthorized", http.StatusUnauthorized, apperrors.AuthUnauthorized},
		{"forbidden", http.StatusForbidden, apperrors.AuthForbidden},
		{"server error", http.StatusInternalServerError, apperrors.AuthServiceError},
		{"not found", http.StatusNotFound, apperrors.AuthServiceError},
		{"accepted", http.StatusAccepted, apperrors.AuthServiceError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testutil.NewStubServer(t, testutil.JSONResponse(tt.status, map[string]string{"error": "nope"}))
			ex, _ := newTestExchanger(srv.URL)

			_, err := ex.Exchange(context.Background(), "t1", "h1")

			ae := requireAuthError(t, err, tt.kind)
			assert.Equal(t, tt.status, ae.Status)
			assert.Equal(t, 1, srv.Calls(), "auth must not be retried")
		})
	}
}

func TestExchange_MissingFields(t *testing.T) {
	srv := testutil.NewStubServer(t, testutil.JSONResponse(http.StatusOK, map[string]any{
		"x-forwarded-user": "user1",
		"hostName":         42,
	}))
	ex, reg := newTestExchanger(srv.URL)

	_, err := ex.Exchange(context.Background(), "t1", "h1")

	ae := requireAuthError(t, err, apperrors.AuthMalformedResponse)
	assert.Equal(t, []string{"tenantIdentifier", "hostName"}, ae.Missing)
	assert.Contains(t, ae.Message, "tenantIdentifier")
	assert.Equal(t, 1.0, promtestutil.ToFloat64(reg.AuthExchanges.WithLabelValues("malformed_response")))
}

func TestExchange_NonJSONResponse(t *testing.T) {
	srv := testutil.NewStubServer(t, testutil.TextResponse(http.StatusOK, "<html>login</html>"))
	ex, _ := newTestExchanger(srv.URL)

	_, err := ex.Exchange(context.Background(), "t1", "h1")

	requireAuthError(t, err, apperrors.AuthMalformedResponse)
}

func TestExchange_InvalidTenantIdentifier(t *testing.T) {
	srv := testutil.NewStubServer(t, testutil.JSONResponse(http.StatusOK, testutil.IdentityGrant("user1", "evil.com/x?", "h1")))
	ex, _ := newTestExchanger(srv.URL)

	_, err := ex.Exchange(context.Background(), "t1", "h1")

	requireAuthError(t, err, apperrors.AuthMalformedResponse)
}

func TestExchange_Preconditions(t *testing.T) {
	srv := testutil.NewStubServer(t, testutil.JSONResponse(http.StatusOK, testutil.IdentityGrant("u", "acme", "h1")))
	ex, _ := newTestExchanger(srv.URL)

	tests := []struct {
		token, host, message string
	}{
		{"", "h1", "Missing access_token header"},
		{"t1", "", "Missing hostName header"},
		{"t1", "bad host!", "Invalid hostName format"},
	}

	for _, tt := range tests {
		_, err := ex.Exchange(context.Background(), tt.token, tt.host)

		be, ok := apperrors.IsBadRequestError(err)
		require.True(t, ok)
		assert.Equal(t, tt.message, be.Message)
	}
	assert.Zero(t, srv.Calls())
}

func TestExchange_Unreachable(t *testing.T) {
	srv := testutil.NewStubServer(t, testutil.JSONResponse(http.StatusOK, nil))
	url := srv.URL
	srv.Close()
	ex, _ := newTestExchanger(url)

	_, err := ex.Exchange(context.Background(), "t1", "h1")

	ae := requireAuthError(t, err, apperrors.AuthServiceError)
	assert.Zero(t, ae.Status)
	assert.Error(t, ae.Unwrap())
}

func TestExchange_Timeout(t *testing.T) {
	srv := testutil.NewStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	reg := metrics.NewRegistry()
	ex := NewExchanger(&http.Client{}, config.AuthorizeConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, reg, zap.NewNop())

	start := time.Now()
	_, err := ex.Exchange(context.Background(), "t1", "h1")

	requireAuthError(t, err, apperrors.AuthServiceError)
	assert.Less(t, time.Since(start), time.Second)
}

func TestAuthorizeURL(t *testing.T) {
	ex, _ := newTestExchanger("https://auth.example.com")
	assert.Equal(t, "https://auth.example.com/api/v2.0/authorize", ex.authorizeURL("h1"))

	ex, _ = newTestExchanger("")
	assert.Equal(t, "https://tenant.example.com/api/v2.0/authorize", ex.authorizeURL("tenant.example.com"))
}
