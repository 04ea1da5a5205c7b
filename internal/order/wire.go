package order

import (
	"net/http"

	"payloadbridge/internal/config"
	"payloadbridge/internal/identity"
	"payloadbridge/internal/infrastructure/metrics"
	"payloadbridge/internal/order/controller"
	"payloadbridge/internal/order/forwarder"
	"payloadbridge/internal/order/usecase"

	"go.uber.org/zap"
)

func NewModule(httpClient *http.Client, cfg *config.Config, metrics *metrics.Registry, logger *zap.Logger) *controller.CreateOrderController {
	exchanger := identity.NewExchanger(httpClient, cfg.Authorize, metrics, logger)
	fwd := forwarder.NewForwarder(httpClient, cfg.Recvue, metrics, logger)

	uc := usecase.NewCreateOrderUseCase(exchanger, fwd, logger)

	return controller.NewCreateOrderController(uc, metrics, logger)
}
