package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Checker-Finance/basedata-adapter/internal/basedata"
	"github.com/Checker-Finance/basedata-adapter/internal/metrics"
	"github.com/Checker-Finance/basedata-adapter/internal/store"
	"github.com/Checker-Finance/basedata-adapter/pkg/model"
)

// InstrumentService is the extraction operation used by the handler.
type InstrumentService interface {
	ExtractInstrument(ctx context.Context, req basedata.Request) (*model.InstrumentRecord, error)
}

// BaseDataHandler serves instrument base data.
type BaseDataHandler struct {
	logger  *zap.Logger
	service InstrumentService
	cache   store.RecordCache
}

// NewBaseDataHandler creates a new BaseDataHandler.
// cache is optional; if nil, every request is extracted from the provider.
func NewBaseDataHandler(logger *zap.Logger, service InstrumentService, cache store.RecordCache) *BaseDataHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BaseDataHandler{logger: logger, service: service, cache: cache}
}

// GetBaseData handles GET /api/v1/instruments/:identifier/basedata.
func (h *BaseDataHandler) GetBaseData(c *fiber.Ctx) error {
	requestID := requestIDFrom(c)

	req := BaseDataRequest{
		Identifier: c.Params("identifier"),
		AssetClass: c.Query("asset_class"),
		VenueID:    c.Query("venue_id"),
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:     err.Error(),
			Kind:      "invalid_request",
			RequestID: requestID,
		})
	}

	ctx := c.Context()
	key := req.cacheKey()

	if h.cache != nil {
		rec, err := h.cache.GetRecord(ctx, key)
		switch {
		case err != nil:
			metrics.IncError("cache", "get")
			h.logger.Warn("api.cache_get_failed",
				zap.String("request_id", requestID),
				zap.String("key", key.String()),
				zap.Error(err))
		case rec != nil:
			metrics.IncCacheAccess("hit")
			c.Set("X-Cache", "HIT")
			return c.Status(fiber.StatusOK).JSON(rec)
		default:
			metrics.IncCacheAccess("miss")
		}
	}

	rec, err := h.service.ExtractInstrument(ctx, req.toServiceRequest())
	if err != nil {
		status, kind := classify(err)
		h.logger.Error("api.basedata.failed",
			zap.String("request_id", requestID),
			zap.String("identifier", req.Identifier),
			zap.String("kind", kind),
			zap.Int("status", status),
			zap.Error(err))
		return c.Status(status).JSON(ErrorResponse{
			Error:     err.Error(),
			Kind:      kind,
			RequestID: requestID,
		})
	}

	if h.cache != nil {
		if err := h.cache.PutRecord(ctx, key, rec); err != nil {
			metrics.IncError("cache", "put")
			h.logger.Warn("api.cache_put_failed",
				zap.String("request_id", requestID),
				zap.String("key", key.String()),
				zap.Error(err))
		}
		c.Set("X-Cache", "MISS")
	}

	h.logger.Info("api.basedata.served",
		zap.String("request_id", requestID),
		zap.String("identifier", req.Identifier),
		zap.String("asset_class", rec.AssetClass.String()))

	return c.Status(fiber.StatusOK).JSON(rec)
}

// classify maps extraction errors onto HTTP status codes.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, basedata.ErrInvalidRequest):
		return fiber.StatusBadRequest, "invalid_request"
	case errors.Is(err, basedata.ErrAssetClassUnresolved):
		return fiber.StatusNotFound, "asset_class_unresolved"
	case errors.Is(err, basedata.ErrMandatoryFieldMissing):
		return fiber.StatusUnprocessableEntity, "mandatory_field_missing"
	case errors.Is(err, basedata.ErrDocumentFetch):
		return fiber.StatusBadGateway, "document_fetch"
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		return fiber.StatusServiceUnavailable, "cancelled"
	default:
		return fiber.StatusInternalServerError, "internal"
	}
}
