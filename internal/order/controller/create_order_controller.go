package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"payloadbridge/internal/domain"
	"payloadbridge/internal/dto"
	apperrors "payloadbridge/internal/errors"
	"payloadbridge/internal/infrastructure/logger"
	"payloadbridge/internal/infrastructure/metrics"
	"payloadbridge/internal/order/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RouteInvokeOrderCreation = "invoke_order_creation"
	RouteBridgeOrderCreation = "bridge_invoke_order_creation"

	maxBodyBytes = 5 << 20
)

type CreateOrderUseCase interface {
	CreateOrder(ctx context.Context, req dto.CreateOrderRequest) (*dto.RelayOutcome, error)
	CreateOrderStatic(ctx context.Context, req dto.CreateOrderRequest) (*dto.RelayOutcome, error)
}

type CreateOrderController struct {
	useCase CreateOrderUseCase
	metrics *metrics.Registry
	logger  *zap.Logger
}

func NewCreateOrderController(useCase CreateOrderUseCase, metrics *metrics.Registry, logger *zap.Logger) *CreateOrderController {
	return &CreateOrderController{
		useCase: useCase,
		metrics: metrics,
		logger:  logger,
	}
}

// InvokeOrderCreation handles POST /invoke_order_creation.
func (c *CreateOrderController) InvokeOrderCreation(w http.ResponseWriter, r *http.Request) {
	c.handle(w, r, RouteInvokeOrderCreation)
}

// InvokeBridgeOrderCreation handles POST /bridge/invoke_order_creation.
func (c *CreateOrderController) InvokeBridgeOrderCreation(w http.ResponseWriter, r *http.Request) {
	c.handle(w, r, RouteBridgeOrderCreation)
}

func (c *CreateOrderController) handle(w http.ResponseWriter, r *http.Request, route string) {
	requestID := uuid.New().String()
	log := c.logger.With(zap.String("request_id", requestID), zap.String("route", route))
	w.Header().Set("X-Request-ID", requestID)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic while handling request", zap.Any("panic", rec), zap.Stack("stack"))
			c.writeError(w, route, http.StatusInternalServerError, "Internal server error", nil, requestID, "")
		}
	}()

	// Parse body
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warn("request body too large", zap.Int64("limit", tooLarge.Limit))
			c.writeError(w, route, http.StatusRequestEntityTooLarge, "Request body too large", nil, requestID, "")
			return
		}
		log.Warn("reading request body failed", zap.Error(err))
		c.writeError(w, route, http.StatusBadRequest, "invalid JSON body", nil, requestID, "")
		return
	}

	payload, decodeErr := validation.Decode(body)
	if be, ok := apperrors.IsBadRequestError(decodeErr); ok {
		log.Warn("invalid JSON body", zap.Error(decodeErr))
		c.writeError(w, route, http.StatusBadRequest, be.Message, nil, requestID, "")
		return
	}

	req := dto.CreateOrderRequest{
		RequestID: requestID,
		Payload:   payload,
		RawBody:   body,
	}

	// Validate caller headers
	if route == RouteInvokeOrderCreation {
		req.AccessToken = r.Header.Get(domain.HeaderAccessToken)
		req.HostName = r.Header.Get(domain.HeaderHostName)
		if msg := checkCallerHeaders(req.AccessToken, req.HostName); msg != "" {
			log.Warn("rejected caller headers", zap.String("reason", msg))
			c.writeError(w, route, http.StatusBadRequest, msg, nil, requestID, "")
			return
		}
	}

	// Structural payload errors surface after the header checks
	if decodeErr != nil {
		c.handleUseCaseError(w, route, requestID, "", decodeErr, log)
		return
	}

	var outcome *dto.RelayOutcome
	if route == RouteBridgeOrderCreation {
		outcome, err = c.useCase.CreateOrderStatic(r.Context(), req)
	} else {
		outcome, err = c.useCase.CreateOrder(r.Context(), req)
	}

	tenant := ""
	var stage dto.RelayStage
	if outcome != nil {
		tenant = outcome.Tenant
		stage = outcome.Stage
	}
	if err != nil {
		failLog := logger.WithTenant(log, tenant).With(zap.String("stage", string(stage)))
		failLog.Warn("order relay failed", zap.Error(err))
		c.handleUseCaseError(w, route, requestID, tenant, err, failLog)
		return
	}

	c.writeRelayResponse(w, route, requestID, tenant, outcome.Result)
}

func checkCallerHeaders(accessToken, hostName string) string {
	if accessToken == "" {
		return "Missing access_token header"
	}
	if hostName == "" {
		return "Missing hostName header"
	}
	if !domain.ValidHostName(hostName) {
		return "Invalid hostName format"
	}
	return ""
}

func (c *CreateOrderController) handleUseCaseError(w http.ResponseWriter, route, requestID, tenant string, err error, log *zap.Logger) {
	if be, ok := apperrors.IsBadRequestError(err); ok {
		c.writeError(w, route, http.StatusBadRequest, be.Message, nil, requestID, tenant)
		return
	}

	if ve, ok := apperrors.IsValidationError(err); ok {
		c.writeError(w, route, http.StatusUnprocessableEntity, "Invalid input", ve.Details, requestID, tenant)
		return
	}

	if ae, ok := apperrors.IsAuthError(err); ok {
		c.writeError(w, route, authStatus(ae.Kind), "Auth error", ae.Message, requestID, tenant)
		return
	}

	if _, ok := apperrors.IsDownstreamUnreachableError(err); ok {
		c.writeError(w, route, http.StatusBadGateway, "RecVue unreachable", "Failed to reach RecVue API", requestID, tenant)
		return
	}

	log.Error("unexpected error", zap.Error(err))
	c.writeError(w, route, http.StatusInternalServerError, "Internal server error", nil, requestID, tenant)
}

func authStatus(kind apperrors.AuthErrorKind) int {
	switch kind {
	case apperrors.AuthUnauthorized:
		return http.StatusUnauthorized
	case apperrors.AuthForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (c *CreateOrderController) writeRelayResponse(w http.ResponseWriter, route, requestID, tenant string, result *dto.DownstreamResult) {
	c.writeJSON(w, route, result.StatusCode, dto.RelayResponse{
		Recvue:    result.Body,
		RequestID: requestID,
		Tenant:    dto.TenantRef(tenant),
	})
}

func (c *CreateOrderController) writeError(w http.ResponseWriter, route string, status int, message string, details any, requestID, tenant string) {
	c.writeJSON(w, route, status, dto.ErrorResponse{
		Error:     message,
		Details:   details,
		RequestID: requestID,
		Tenant:    dto.TenantRef(tenant),
	})
}

func (c *CreateOrderController) writeJSON(w http.ResponseWriter, route string, status int, data interface{}) {
	c.metrics.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
