package restapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"blazing_api/internal/app/port"
	"blazing_api/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

const maxBodyBytes = 1 << 20

// TransferHandler serves the collect and disperse endpoints.
type TransferHandler struct {
	transfers port.TransferService
}

// NewTransferHandler creates a new instance of TransferHandler. Failures are
// logged by the service; the handler only maps them onto responses.
func NewTransferHandler(ts port.TransferService) *TransferHandler {
	return &TransferHandler{transfers: ts}
}

// Collect handles POST /collect and answers with the settlement transaction hash.
func (h *TransferHandler) Collect(c *gin.Context) {
	req, ok := decodeCollect(c)
	if !ok {
		return
	}
	txHash, err := h.transfers.Collect(detach(c), req)
	h.respondHash(c, txHash, err)
}

// Disperse handles POST /disperse and answers with the settlement transaction hash.
func (h *TransferHandler) Disperse(c *gin.Context) {
	req, ok := decodeDisperse(c)
	if !ok {
		return
	}
	txHash, err := h.transfers.Disperse(detach(c), req)
	h.respondHash(c, txHash, err)
}

// PreviewCollect handles POST /collect/preview.
func (h *TransferHandler) PreviewCollect(c *gin.Context) {
	req, ok := decodeCollect(c)
	if !ok {
		return
	}
	plan, err := h.transfers.PreviewCollect(c.Request.Context(), req)
	h.respondPlan(c, plan, err)
}

// PreviewDisperse handles POST /disperse/preview.
func (h *TransferHandler) PreviewDisperse(c *gin.Context) {
	req, ok := decodeDisperse(c)
	if !ok {
		return
	}
	plan, err := h.transfers.PreviewDisperse(c.Request.Context(), req)
	h.respondPlan(c, plan, err)
}

func (h *TransferHandler) respondHash(c *gin.Context, txHash common.Hash, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, txHash.Hex())
}

func (h *TransferHandler) respondPlan(c *gin.Context, plan *entity.TransferPlan, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, plan)
}

// detach keeps chain submissions alive after the client goes away.
func detach(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

func decodeCollect(c *gin.Context) (entity.CollectRequest, bool) {
	var body collectBody
	if !decodeBody(c, &body) {
		return entity.CollectRequest{}, false
	}
	req, err := body.toRequest()
	if err != nil {
		respondError(c, err)
		return entity.CollectRequest{}, false
	}
	return req, true
}

func decodeDisperse(c *gin.Context) (entity.DisperseRequest, bool) {
	var body disperseBody
	if !decodeBody(c, &body) {
		return entity.DisperseRequest{}, false
	}
	req, err := body.toRequest()
	if err != nil {
		respondError(c, err)
		return entity.DisperseRequest{}, false
	}
	return req, true
}

func decodeBody(c *gin.Context, dst any) bool {
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		_ = c.Error(err)
		writeJSON(c, http.StatusRequestEntityTooLarge, errorResponse{
			Error:   "request_too_large",
			Message: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
		})
		return false
	}
	if err != nil {
		respondError(c, fmt.Errorf("%w: read body: %w", entity.ErrMalformedRequest, err))
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		respondError(c, fmt.Errorf("%w: %w", entity.ErrMalformedRequest, err))
		return false
	}
	return true
}

// statusFor maps a pipeline error onto its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrMalformedRequest):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrArithmeticOverflow), errors.Is(err, entity.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

// respondError answers with a coarse reason. Details stay in the logs.
func respondError(c *gin.Context, err error) {
	code := entity.ErrorCode(err)
	message := strings.ReplaceAll(code, "_", " ")

	var transferErr *entity.TransferError
	switch {
	case errors.As(err, &transferErr) && transferErr.Kind != entity.ErrMalformedRequest:
		message = fmt.Sprintf("%v while %s", transferErr.Kind, strings.ReplaceAll(string(transferErr.Stage), "_", " "))
	case errors.As(err, &transferErr) && transferErr.Err != nil:
		message = transferErr.Err.Error()
	case errors.Is(err, entity.ErrMalformedRequest):
		message = err.Error()
	}
	_ = c.Error(err)
	writeJSON(c, statusFor(err), errorResponse{Error: code, Message: message})
}

func writeJSON(c *gin.Context, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(status, "application/json; charset=utf-8", data)
}

// ChainIDReader is the part of the chain client the health check needs.
type ChainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// HealthHandler reports whether the node answers.
type HealthHandler struct {
	chain   ChainIDReader
	timeout time.Duration
	logger  port.Logger
}

// NewHealthHandler creates a new instance of HealthHandler.
func NewHealthHandler(chain ChainIDReader, timeout time.Duration, l port.Logger) *HealthHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HealthHandler{chain: chain, timeout: timeout, logger: l}
}

// Healthz handles GET /healthz.
func (h *HealthHandler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()
	chainID, err := h.chain.ChainID(ctx)
	if err != nil {
		h.logger.Warn("Health check failed", "error", err)
		writeJSON(c, http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "ok", "chainId": chainID.String()})
}
