package restapi

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"

	"blazing_api/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// wireAmount decodes a JSON number, a decimal string or a 0x-prefixed hex
// string into a 256-bit unsigned amount.
type wireAmount struct {
	value *uint256.Int
}

func (a *wireAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("amount is null")
	}
	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid amount %s: %w", raw, err)
		}
		raw = strings.TrimSpace(s)
	}

	value := new(big.Int)
	ok := false
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		_, ok = value.SetString(raw[2:], 16)
	} else {
		_, ok = value.SetString(raw, 10)
	}
	if !ok || raw == "" {
		return fmt.Errorf("invalid amount %q: expected an unsigned integer", raw)
	}
	if value.Sign() < 0 {
		return fmt.Errorf("invalid amount %q: negative", raw)
	}
	amount, overflow := uint256.FromBig(value)
	if overflow {
		return fmt.Errorf("invalid amount %q: exceeds 256 bits", raw)
	}
	a.value = amount
	return nil
}

// percentage reads the flag under either spelling; camelCase wins when both are set.
func percentage(camel, snake *bool) bool {
	if camel != nil {
		return *camel
	}
	return snake != nil && *snake
}

// collectBody is the POST /collect payload.
type collectBody struct {
	Recipient *common.Address  `json:"recipient"`
	Senders   []common.Address `json:"senders"`
	Tokens    []common.Address `json:"tokens"`
	Amounts   [][]wireAmount   `json:"amounts"`

	IsPercentage      *bool `json:"isPercentage"`
	IsPercentageSnake *bool `json:"is_percentage"`
}

// disperseBody is the POST /disperse payload.
type disperseBody struct {
	Sender     *common.Address  `json:"sender"`
	Recipients []common.Address `json:"recipients"`
	Tokens     []common.Address `json:"tokens"`
	Amounts    [][]wireAmount   `json:"amounts"`

	IsPercentage      *bool `json:"isPercentage"`
	IsPercentageSnake *bool `json:"is_percentage"`
}

func (b collectBody) toRequest() (entity.CollectRequest, error) {
	if b.Recipient == nil {
		return entity.CollectRequest{}, fmt.Errorf("%w: recipient is required", entity.ErrMalformedRequest)
	}
	return entity.CollectRequest{
		Recipient:    *b.Recipient,
		Senders:      b.Senders,
		Tokens:       b.Tokens,
		Amounts:      toAmounts(b.Amounts),
		IsPercentage: percentage(b.IsPercentage, b.IsPercentageSnake),
	}, nil
}

func (b disperseBody) toRequest() (entity.DisperseRequest, error) {
	if b.Sender == nil {
		return entity.DisperseRequest{}, fmt.Errorf("%w: sender is required", entity.ErrMalformedRequest)
	}
	return entity.DisperseRequest{
		Sender:       *b.Sender,
		Recipients:   b.Recipients,
		Tokens:       b.Tokens,
		Amounts:      toAmounts(b.Amounts),
		IsPercentage: percentage(b.IsPercentage, b.IsPercentageSnake),
	}, nil
}

func toAmounts(rows [][]wireAmount) [][]*uint256.Int {
	out := make([][]*uint256.Int, len(rows))
	for i, row := range rows {
		out[i] = make([]*uint256.Int, len(row))
		for j, amount := range row {
			out[i][j] = amount.value
		}
	}
	return out
}

// errorResponse is the body of every rejected request.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
