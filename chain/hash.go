package chain

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ethereum/go-ethereum/common"
)

// signedMessagePrefix is the prefix wallets apply before signing a
// 32-byte digest.
var signedMessagePrefix = []byte("\x19Ethereum Signed Message:\n32")

var orderHashArguments = buildOrderHashArguments()

func buildOrderHashArguments() abi.Arguments {
	addressType, _ := abi.NewType("address", "", nil)
	uint256Type, _ := abi.NewType("uint256", "", nil)
	uint8Type, _ := abi.NewType("uint8", "", nil)
	bytes32Type, _ := abi.NewType("bytes32", "", nil)

	return abi.Arguments{
		{Type: addressType}, // exchange
		{Type: addressType}, // maker
		{Type: addressType}, // taker
		{Type: uint256Type}, // makerRelayerFee
		{Type: uint256Type}, // takerRelayerFee
		{Type: uint256Type}, // makerProtocolFee
		{Type: uint256Type}, // takerProtocolFee
		{Type: addressType}, // feeRecipient
		{Type: uint8Type},   // feeMethod
		{Type: uint8Type},   // side
		{Type: uint8Type},   // saleKind
		{Type: addressType}, // target
		{Type: uint8Type},   // howToCall
		{Type: bytes32Type}, // keccak256(calldata)
		{Type: bytes32Type}, // keccak256(replacementPattern)
		{Type: addressType}, // staticTarget
		{Type: bytes32Type}, // keccak256(staticExtradata)
		{Type: addressType}, // paymentToken
		{Type: uint256Type}, // basePrice
		{Type: uint256Type}, // extra
		{Type: uint256Type}, // listingTime
		{Type: uint256Type}, // expirationTime
		{Type: uint256Type}, // salt
	}
}

// HashOrder computes the canonical content hash over every
// economically significant order field. Variable-length byte fields
// are folded in by their own keccak so the encoding stays fixed-width.
func HashOrder(o *Order) common.Hash {
	encoded, err := orderHashArguments.Pack(
		o.Exchange,
		o.Maker,
		o.Taker,
		o.MakerRelayerFee,
		o.TakerRelayerFee,
		o.MakerProtocolFee,
		o.TakerProtocolFee,
		o.FeeRecipient,
		o.FeeMethod,
		o.Side,
		o.SaleKind,
		o.Target,
		o.HowToCall,
		crypto.Keccak256Hash(o.Calldata),
		crypto.Keccak256Hash(o.ReplacementPattern),
		o.StaticTarget,
		crypto.Keccak256Hash(o.StaticExtradata),
		o.PaymentToken,
		o.BasePrice,
		o.Extra,
		o.ListingTime,
		o.ExpirationTime,
		o.Salt,
	)
	if err != nil {
		panic("failed to encode order for hashing: " + err.Error())
	}

	return crypto.Keccak256Hash(encoded)
}

// HashToSign derives the digest the maker signs: the content hash with
// the signed-message prefix applied.
func HashToSign(o *Order) common.Hash {
	orderHash := HashOrder(o)

	data := make([]byte, 0, len(signedMessagePrefix)+32)
	data = append(data, signedMessagePrefix...)
	data = append(data, orderHash.Bytes()...)

	return crypto.Keccak256Hash(data)
}
