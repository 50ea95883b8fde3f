package chain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// EncodedCall is the call target, calldata, and byte-mask replacement
// pattern for one order. The replacement pattern marks the bytes the
// settlement contract substitutes from the counter-order at match
// time: 0xff marks a replaceable byte, 0x00 a fixed one.
type EncodedCall struct {
	Target             common.Address
	Calldata           []byte
	ReplacementPattern []byte
}

// Codec encodes transfer calls and replacement patterns for assets
// under each supported token standard, and composes per-asset calls
// into a single atomicized call for bundle orders.
type Codec struct {
	atomicizer    common.Address
	erc20ABI      abi.ABI
	erc721ABI     abi.ABI
	erc1155ABI    abi.ABI
	atomicizerABI abi.ABI
}

// NewCodec creates a Codec bound to an atomicizer proxy address.
func NewCodec(atomicizer common.Address) *Codec {
	return &Codec{
		atomicizer:    atomicizer,
		erc20ABI:      GetERC20ABI(),
		erc721ABI:     GetERC721ABI(),
		erc1155ABI:    GetERC1155ABI(),
		atomicizerABI: GetAtomicizerABI(),
	}
}

// Transfer argument positions inside the encoded calldata. Every
// supported transfer method takes (from, to, ...) so the slots are
// stable across standards.
const (
	fromArgIndex = 0
	toArgIndex   = 1
)

// EncodeSell encodes the maker-to-buyer transfer for a sell order. The
// buyer is unknown until settlement, so the `to` slot holds the zero
// placeholder and is marked replaceable.
func (c *Codec) EncodeSell(asset Asset, maker common.Address) (*EncodedCall, error) {
	calldata, err := c.encodeTransfer(asset, maker, common.Address{})
	if err != nil {
		return nil, err
	}
	return &EncodedCall{
		Target:             asset.Address,
		Calldata:           calldata,
		ReplacementPattern: replacementMask(len(calldata), toArgIndex),
	}, nil
}

// EncodeBuy encodes the seller-to-recipient transfer for a buy order.
// The seller is unknown until settlement, so the `from` slot holds the
// zero placeholder and is marked replaceable.
func (c *Codec) EncodeBuy(asset Asset, recipient common.Address) (*EncodedCall, error) {
	calldata, err := c.encodeTransfer(asset, common.Address{}, recipient)
	if err != nil {
		return nil, err
	}
	return &EncodedCall{
		Target:             asset.Address,
		Calldata:           calldata,
		ReplacementPattern: replacementMask(len(calldata), fromArgIndex),
	}, nil
}

// EncodeAtomicizedSell composes per-asset sell transfers into one
// atomicized multi-call for a bundle sell order.
func (c *Codec) EncodeAtomicizedSell(assets []Asset, maker common.Address) (*EncodedCall, error) {
	return c.encodeAtomicized(assets, maker, common.Address{}, toArgIndex)
}

// EncodeAtomicizedBuy composes per-asset buy transfers into one
// atomicized multi-call for a bundle buy order.
func (c *Codec) EncodeAtomicizedBuy(assets []Asset, recipient common.Address) (*EncodedCall, error) {
	return c.encodeAtomicized(assets, common.Address{}, recipient, fromArgIndex)
}

func (c *Codec) encodeTransfer(asset Asset, from, to common.Address) ([]byte, error) {
	quantity := asset.Quantity
	if quantity == nil {
		quantity = big.NewInt(1)
	}

	switch asset.Schema {
	case SchemaERC20:
		return c.erc20ABI.Pack("transferFrom", from, to, quantity)
	case SchemaERC721:
		if asset.TokenID == nil {
			return nil, fmt.Errorf("ERC721 asset %s requires a token id", asset.Address.Hex())
		}
		return c.erc721ABI.Pack("transferFrom", from, to, asset.TokenID)
	case SchemaERC1155:
		if asset.TokenID == nil {
			return nil, fmt.Errorf("ERC1155 asset %s requires a token id", asset.Address.Hex())
		}
		return c.erc1155ABI.Pack("safeTransferFrom", from, to, asset.TokenID, quantity, []byte{})
	default:
		return nil, fmt.Errorf("unsupported token standard: %s", asset.Schema)
	}
}

func (c *Codec) encodeAtomicized(assets []Asset, from, to common.Address, maskArg int) (*EncodedCall, error) {
	if len(assets) == 0 {
		return nil, fmt.Errorf("atomicized call requires at least one asset")
	}

	addrs := make([]common.Address, 0, len(assets))
	values := make([]*big.Int, 0, len(assets))
	lengths := make([]*big.Int, 0, len(assets))
	var calldatas []byte
	var masks []byte

	for _, asset := range assets {
		calldata, err := c.encodeTransfer(asset, from, to)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, asset.Address)
		values = append(values, big.NewInt(0))
		lengths = append(lengths, big.NewInt(int64(len(calldata))))
		calldatas = append(calldatas, calldata...)
		masks = append(masks, replacementMask(len(calldata), maskArg)...)
	}

	packed, err := c.atomicizerABI.Pack("atomicize", addrs, values, lengths, calldatas)
	if err != nil {
		return nil, fmt.Errorf("failed to encode atomicized call: %w", err)
	}

	// The bytes argument is packed last, so its data occupies the
	// final padded region. The mask is zero everywhere except that
	// region, which carries the concatenated per-call masks at the
	// same offsets as their calldatas.
	mask := make([]byte, len(packed))
	dataStart := len(packed) - pad32(len(calldatas))
	copy(mask[dataStart:], masks)

	return &EncodedCall{
		Target:             c.atomicizer,
		Calldata:           packed,
		ReplacementPattern: mask,
	}, nil
}

// replacementMask returns a mask the same length as the calldata with
// the 32-byte word of one static argument marked replaceable.
func replacementMask(calldataLen, argIndex int) []byte {
	mask := make([]byte, calldataLen)
	start := 4 + 32*argIndex
	for i := start; i < start+32 && i < calldataLen; i++ {
		mask[i] = 0xff
	}
	return mask
}

func pad32(n int) int {
	return (n + 31) / 32 * 32
}
