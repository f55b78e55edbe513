package restapi

import (
	"fmt"
	"net/http"
	"strings"

	"blazing_api/internal/app/port"
	"blazing_api/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// BalanceHandler serves holder balance snapshots.
type BalanceHandler struct {
	balances port.BalanceService
	logger   port.Logger
}

// NewBalanceHandler creates a new instance of BalanceHandler.
func NewBalanceHandler(bs port.BalanceService, l port.Logger) *BalanceHandler {
	return &BalanceHandler{balances: bs, logger: l}
}

// GetHolderBalances handles GET /balances/:holder?tokens=0x..,0x..
// Repeated tokens parameters are accepted as well.
func (h *BalanceHandler) GetHolderBalances(c *gin.Context) {
	holderParam := c.Param("holder")
	if !common.IsHexAddress(holderParam) {
		respondError(c, fmt.Errorf("%w: invalid holder address %q", entity.ErrMalformedRequest, holderParam))
		return
	}

	var tokens []common.Address
	for _, param := range c.QueryArray("tokens") {
		for _, raw := range strings.Split(param, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			if !common.IsHexAddress(raw) {
				respondError(c, fmt.Errorf("%w: invalid token address %q", entity.ErrMalformedRequest, raw))
				return
			}
			tokens = append(tokens, common.HexToAddress(raw))
		}
	}

	holder := common.HexToAddress(holderParam)
	result, err := h.balances.HolderBalances(c.Request.Context(), holder, tokens)
	if err != nil {
		h.logger.Warn("Failed to read holder balances", "holder", holder.Hex(), "error", err)
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, result)
}
