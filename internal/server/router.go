package server

import (
	"net/http"

	"payloadbridge/internal/infrastructure/metrics"
	"payloadbridge/internal/order/controller"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// NewRouter mounts the relay routes. The bridge route is only served when
// bridgeEnabled is set.
func NewRouter(orderCtrl *controller.CreateOrderController, metrics *metrics.Registry, bridgeEnabled bool, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthcheck", HealthHandler)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Post("/invoke_order_creation", orderCtrl.InvokeOrderCreation)
	if bridgeEnabled {
		r.Post("/bridge/invoke_order_creation", orderCtrl.InvokeBridgeOrderCreation)
	}

	return otelhttp.NewHandler(r, "payloadbridge")
}
