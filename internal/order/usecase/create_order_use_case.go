package usecase

import (
	"context"

	"payloadbridge/internal/domain"
	"payloadbridge/internal/dto"
	apperrors "payloadbridge/internal/errors"
	"payloadbridge/internal/order/validation"

	"go.uber.org/zap"
)

type IdentityExchanger interface {
	Exchange(ctx context.Context, token, hostName string) (domain.ForwardingHeaders, error)
}

type OrderForwarder interface {
	Forward(ctx context.Context, body []byte, headers domain.ForwardingHeaders) (*dto.DownstreamResult, error)
	ForwardStatic(ctx context.Context, body []byte) (*dto.DownstreamResult, error)
}

type CreateOrderUseCase struct {
	exchanger IdentityExchanger
	forwarder OrderForwarder
	logger    *zap.Logger
}

func NewCreateOrderUseCase(exchanger IdentityExchanger, forwarder OrderForwarder, logger *zap.Logger) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		exchanger: exchanger,
		forwarder: forwarder,
		logger:    logger,
	}
}

// CreateOrder runs validation, the identity exchange and the forward in
// order. The returned outcome is never nil: on failure it names the stage
// that failed and the tenant if one had been resolved.
func (uc *CreateOrderUseCase) CreateOrder(ctx context.Context, in dto.CreateOrderRequest) (*dto.RelayOutcome, error) {
	logger := uc.logger.With(zap.String("request_id", in.RequestID))
	outcome := &dto.RelayOutcome{Stage: dto.StageValidating}

	if err := validation.Validate(in.Payload); err != nil {
		logger.Warn("validation failed", zap.Error(err))
		return outcome, err
	}

	outcome.Stage = dto.StageAuthenticating
	headers, err := uc.exchanger.Exchange(ctx, in.AccessToken, in.HostName)
	if err != nil {
		logger.Warn("identity exchange failed", zap.String("hostName", in.HostName), zap.Error(err))
		return outcome, err
	}
	outcome.Tenant = headers.TenantIdentifier
	logger = logger.With(zap.String("tenant", outcome.Tenant))
	logger.Debug("identity exchange succeeded")

	outcome.Stage = dto.StageForwarding
	result, err := uc.forwarder.Forward(ctx, in.RawBody, headers)
	if err != nil {
		logger.Error("forward to recvue failed", zap.Error(err))
		return outcome, err
	}
	if result == nil {
		return outcome, apperrors.NewInternalError("forwarder returned no result", nil)
	}

	outcome.Stage = dto.StageResponding
	outcome.Result = result
	logger.Info("order relayed", zap.Int("status", result.StatusCode), zap.Int("attempts", result.Attempts))
	return outcome, nil
}

// CreateOrderStatic validates the payload and relays it over the
// static-token bridge. There is no identity exchange and no tenant.
func (uc *CreateOrderUseCase) CreateOrderStatic(ctx context.Context, in dto.CreateOrderRequest) (*dto.RelayOutcome, error) {
	logger := uc.logger.With(zap.String("request_id", in.RequestID))
	outcome := &dto.RelayOutcome{Stage: dto.StageValidating}

	if err := validation.Validate(in.Payload); err != nil {
		logger.Warn("validation failed", zap.Error(err))
		return outcome, err
	}

	outcome.Stage = dto.StageForwarding
	result, err := uc.forwarder.ForwardStatic(ctx, in.RawBody)
	if err != nil {
		logger.Error("forward to bridge failed", zap.Error(err))
		return outcome, err
	}
	if result == nil {
		return outcome, apperrors.NewInternalError("forwarder returned no result", nil)
	}

	outcome.Stage = dto.StageResponding
	outcome.Result = result
	logger.Info("order relayed over bridge", zap.Int("status", result.StatusCode))
	return outcome, nil
}
