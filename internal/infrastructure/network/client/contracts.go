package client

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const erc20ABIJSON = `[
 {"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"stateMutability":"view","type":"function"},
 {"constant":true,"inputs":[{"name":"_owner","type":"address"},{"name":"_spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
 {"constant":false,"inputs":[{"name":"_spender","type":"address"},{"name":"_value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
 {"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
 {"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"}
]`

const settlementABIJSON = `[
 {"inputs":[{"name":"recipient","type":"address"},{"name":"senders","type":"address[]"},{"name":"amounts","type":"uint256[][]"},{"name":"tokens","type":"address[]"}],"name":"collect","outputs":[],"stateMutability":"nonpayable","type":"function"},
 {"inputs":[{"name":"sender","type":"address"},{"name":"recipients","type":"address[]"},{"name":"amounts","type":"uint256[][]"},{"name":"tokens","type":"address[]"}],"name":"disperse","outputs":[],"stateMutability":"nonpayable","type":"function"},
 {"stateMutability":"payable","type":"receive"}
]`

var (
	parsedERC20ABI      abi.ABI
	parsedSettlementABI abi.ABI
	parseABIOnce        sync.Once
)

func initParsedABIs() {
	parseABIOnce.Do(func() {
		var err error
		parsedERC20ABI, err = abi.JSON(strings.NewReader(erc20ABIJSON))
		if err != nil {
			panic(fmt.Sprintf("failed to parse ERC20 ABI: %v", err))
		}
		parsedSettlementABI, err = abi.JSON(strings.NewReader(settlementABIJSON))
		if err != nil {
			panic(fmt.Sprintf("failed to parse settlement ABI: %v", err))
		}
	})
}
