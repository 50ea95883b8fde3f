package chain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Schema identifies the token standard of an asset
type Schema string

const (
	SchemaERC20   Schema = "ERC20"
	SchemaERC721  Schema = "ERC721"
	SchemaERC1155 Schema = "ERC1155"
)

// Asset is the on-chain description of one transferable unit of value.
type Asset struct {
	Schema   Schema
	Address  common.Address
	TokenID  *big.Int
	Quantity *big.Int
}

// Order is the typed order record as the settlement contract sees it.
// All fields participate in the canonical content hash.
type Order struct {
	Exchange           common.Address
	Maker              common.Address
	Taker              common.Address
	MakerRelayerFee    *big.Int
	TakerRelayerFee    *big.Int
	MakerProtocolFee   *big.Int
	TakerProtocolFee   *big.Int
	FeeRecipient       common.Address
	FeeMethod          uint8
	Side               uint8
	SaleKind           uint8
	Target             common.Address
	HowToCall          uint8
	Calldata           []byte
	ReplacementPattern []byte
	StaticTarget       common.Address
	StaticExtradata    []byte
	PaymentToken       common.Address
	BasePrice          *big.Int
	Extra              *big.Int
	ListingTime        *big.Int
	ExpirationTime     *big.Int
	Salt               *big.Int
}

// ERC20 ABI JSON for transferFrom and decimals
const erc20ABIJSON = `[
	{
		"constant": false,
		"inputs": [
			{"name": "from", "type": "address"},
			{"name": "to", "type": "address"},
			{"name": "value", "type": "uint256"}
		],
		"name": "transferFrom",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [],
		"name": "decimals",
		"outputs": [{"name": "", "type": "uint8"}],
		"type": "function"
	}
]`

// ERC721 ABI JSON for transferFrom
const erc721ABIJSON = `[
	{
		"constant": false,
		"inputs": [
			{"name": "from", "type": "address"},
			{"name": "to", "type": "address"},
			{"name": "tokenId", "type": "uint256"}
		],
		"name": "transferFrom",
		"outputs": [],
		"type": "function"
	}
]`

// ERC1155 ABI JSON for safeTransferFrom
const erc1155ABIJSON = `[
	{
		"constant": false,
		"inputs": [
			{"name": "from", "type": "address"},
			{"name": "to", "type": "address"},
			{"name": "id", "type": "uint256"},
			{"name": "amount", "type": "uint256"},
			{"name": "data", "type": "bytes"}
		],
		"name": "safeTransferFrom",
		"outputs": [],
		"type": "function"
	}
]`

// Atomicizer ABI JSON for the multi-call proxy used by bundle orders
const atomicizerABIJSON = `[
	{
		"constant": false,
		"inputs": [
			{"name": "addrs", "type": "address[]"},
			{"name": "values", "type": "uint256[]"},
			{"name": "calldataLengths", "type": "uint256[]"},
			{"name": "calldatas", "type": "bytes"}
		],
		"name": "atomicize",
		"outputs": [],
		"type": "function"
	}
]`

// Exchange ABI JSON for the read-only match compatibility check
const exchangeABIJSON = `[
	{
		"constant": true,
		"inputs": [
			{"name": "addrs", "type": "address[14]"},
			{"name": "uints", "type": "uint256[18]"},
			{"name": "feeMethodsSidesKindsHowToCalls", "type": "uint8[8]"},
			{"name": "calldataBuy", "type": "bytes"},
			{"name": "calldataSell", "type": "bytes"},
			{"name": "replacementPatternBuy", "type": "bytes"},
			{"name": "replacementPatternSell", "type": "bytes"},
			{"name": "staticExtradataBuy", "type": "bytes"},
			{"name": "staticExtradataSell", "type": "bytes"}
		],
		"name": "ordersCanMatch_",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	}
]`

// GetERC20ABI returns the parsed ERC20 ABI
func GetERC20ABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		panic("failed to parse ERC20 ABI: " + err.Error())
	}
	return parsed
}

// GetERC721ABI returns the parsed ERC721 ABI
func GetERC721ABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc721ABIJSON))
	if err != nil {
		panic("failed to parse ERC721 ABI: " + err.Error())
	}
	return parsed
}

// GetERC1155ABI returns the parsed ERC1155 ABI
func GetERC1155ABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc1155ABIJSON))
	if err != nil {
		panic("failed to parse ERC1155 ABI: " + err.Error())
	}
	return parsed
}

// GetAtomicizerABI returns the parsed atomicizer ABI
func GetAtomicizerABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(atomicizerABIJSON))
	if err != nil {
		panic("failed to parse atomicizer ABI: " + err.Error())
	}
	return parsed
}

// GetExchangeABI returns the parsed exchange ABI
func GetExchangeABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(exchangeABIJSON))
	if err != nil {
		panic("failed to parse exchange ABI: " + err.Error())
	}
	return parsed
}
