package httpclient

import (
	"net"
	"net/http"
	"time"

	"payloadbridge/internal/config"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// New returns the pooled client shared by every outbound call. Timeouts are
// applied per call through the request context, so the client itself has
// none.
func New(cfg config.HTTPClientConfig) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: otelhttp.NewTransport(transport),
	}
}
