package wyvernexchange

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/wyvernlabs/wyvern-exchange-sdk-go/chain"
)

// Side represents the side of an order
type Side int

const (
	SideBuy Side = iota
	SideSell
)

// SaleKind represents the pricing mode of an order
type SaleKind int

const (
	SaleKindFixedPrice SaleKind = iota
	SaleKindDutchAuction
)

// FeeMethod represents how fees are charged at settlement
type FeeMethod int

const (
	FeeMethodProtocolFee FeeMethod = iota
	FeeMethodSplitFee
)

// HowToCall represents the call convention used for the transfer
type HowToCall int

const (
	HowToCallCall HowToCall = iota
	HowToCallDelegateCall
)

// TokenStandard identifies the token standard of an asset
type TokenStandard string

const (
	StandardERC20   TokenStandard = "ERC20"
	StandardERC721  TokenStandard = "ERC721"
	StandardERC1155 TokenStandard = "ERC1155"
)

// AssetDescriptor identifies a fungible or non-fungible unit of value.
// Build one per trade request and treat it as immutable.
type AssetDescriptor struct {
	Standard TokenStandard
	Address  string
	TokenID  *big.Int // nil for fungible tokens
	Decimals int
	Quantity *big.Int

	// LastTransferFee and TransferFeeToken hold the orderbook's last
	// reported fee-on-transfer for the asset, used as the best-effort
	// fallback when a live lookup fails.
	LastTransferFee  *big.Int
	TransferFeeToken string
}

// NewAssetDescriptor builds an AssetDescriptor with a canonical
// lower-cased address and a default quantity of one.
func NewAssetDescriptor(standard TokenStandard, address string, tokenID, quantity *big.Int) *AssetDescriptor {
	if quantity == nil {
		quantity = big.NewInt(1)
	}
	return &AssetDescriptor{
		Standard: standard,
		Address:  normalizeAddress(address),
		TokenID:  tokenID,
		Quantity: quantity,
	}
}

func (a *AssetDescriptor) chainAsset() chain.Asset {
	return chain.Asset{
		Schema:   chain.Schema(a.Standard),
		Address:  common.HexToAddress(a.Address),
		TokenID:  a.TokenID,
		Quantity: a.Quantity,
	}
}

// PaymentToken describes an accepted payment token. The zero address
// denotes the chain's native currency.
type PaymentToken struct {
	Address  string
	Decimals int
	Symbol   string
}

// IsNative reports whether the token is the native-currency sentinel.
func (t PaymentToken) IsNative() bool {
	return t.Address == "" || normalizeAddress(t.Address) == NullAddress
}

// NativePaymentToken is the sentinel for paying in the chain's native
// currency.
var NativePaymentToken = PaymentToken{Address: NullAddress, Decimals: NativeTokenDecimals}

// FeeSchedule holds a collection's fee configuration in basis points,
// sourced from collection metadata. Read-only input.
type FeeSchedule struct {
	PlatformBuyerBPS    int64
	PlatformSellerBPS   int64
	CollectionBuyerBPS  int64
	CollectionSellerBPS int64
}

// ComputedFees is the fee outcome of one order build.
type ComputedFees struct {
	TotalBuyerBPS       int64
	TotalSellerBPS      int64
	PlatformBuyerBPS    int64
	PlatformSellerBPS   int64
	CollectionBuyerBPS  int64
	CollectionSellerBPS int64
	SellerBountyBPS     int64
	TransferFee         *big.Int
	TransferFeeToken    string
}

// PriceParameters holds the fixed-point price fields the settlement
// contract expects, in the payment token's smallest unit.
type PriceParameters struct {
	BasePrice    *big.Int
	Extra        *big.Int
	ReservePrice *big.Int // nil unless an English-auction reserve was set
	PaymentToken string
}

// TimeWindow is a validated listing/expiration pair in Unix seconds.
// ExpirationTime zero means open-ended and is only produced for
// synthesized matching orders.
type TimeWindow struct {
	ListingTime    int64
	ExpirationTime int64
}

// OrderMetadata carries the off-chain description of what an order
// trades: a single asset or a bundle.
type OrderMetadata struct {
	Asset  *AssetDescriptor
	Bundle *Bundle
}

// Signature holds the secp256k1 signature components of a signed
// order.
type Signature struct {
	V uint8
	R string
	S string
}

// Order is an unsigned, unhashed order record: every economically
// significant field of the settlement contract's order struct plus the
// off-chain metadata needed to re-encode transfers. An order is
// immutable once hashed; any field change requires rebuilding with a
// fresh salt.
type Order struct {
	Exchange           string
	Maker              string
	Taker              string
	MakerRelayerFee    *big.Int
	TakerRelayerFee    *big.Int
	MakerProtocolFee   *big.Int
	TakerProtocolFee   *big.Int
	MakerReferrerFee   *big.Int
	FeeRecipient       string
	FeeMethod          FeeMethod
	Side               Side
	SaleKind           SaleKind
	Target             string
	HowToCall          HowToCall
	Calldata           []byte
	ReplacementPattern []byte
	StaticTarget       string
	StaticExtradata    []byte
	PaymentToken       string
	BasePrice          *big.Int
	Extra              *big.Int
	ListingTime        int64
	ExpirationTime     int64
	Salt               *big.Int

	Metadata                   OrderMetadata
	WaitingForBestCounterOrder bool
	EnglishAuctionReservePrice *big.Int
}

// HashedOrder is an Order plus its canonical content hash. The hash is
// the order's identity and the payload that gets signed.
type HashedOrder struct {
	Order
	Hash string
}

// SignedOrder is a HashedOrder plus its signature, ready for
// submission to the orderbook.
type SignedOrder struct {
	HashedOrder
	Signature Signature
}

// MatchResult is the outcome of one offline match-compatibility check.
// Ephemeral, never persisted.
type MatchResult struct {
	Compatible bool
	Reason     MatchReason
	Detail     string
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

// chainOrder converts the order into the chain package's typed struct
// for hashing and contract calls.
func (o *Order) chainOrder() *chain.Order {
	return &chain.Order{
		Exchange:           common.HexToAddress(o.Exchange),
		Maker:              common.HexToAddress(o.Maker),
		Taker:              common.HexToAddress(o.Taker),
		MakerRelayerFee:    orZero(o.MakerRelayerFee),
		TakerRelayerFee:    orZero(o.TakerRelayerFee),
		MakerProtocolFee:   orZero(o.MakerProtocolFee),
		TakerProtocolFee:   orZero(o.TakerProtocolFee),
		FeeRecipient:       common.HexToAddress(o.FeeRecipient),
		FeeMethod:          uint8(o.FeeMethod),
		Side:               uint8(o.Side),
		SaleKind:           uint8(o.SaleKind),
		Target:             common.HexToAddress(o.Target),
		HowToCall:          uint8(o.HowToCall),
		Calldata:           o.Calldata,
		ReplacementPattern: o.ReplacementPattern,
		StaticTarget:       common.HexToAddress(o.StaticTarget),
		StaticExtradata:    o.StaticExtradata,
		PaymentToken:       common.HexToAddress(o.PaymentToken),
		BasePrice:          orZero(o.BasePrice),
		Extra:              orZero(o.Extra),
		ListingTime:        big.NewInt(o.ListingTime),
		ExpirationTime:     big.NewInt(o.ExpirationTime),
		Salt:               orZero(o.Salt),
	}
}

// HashOrder computes the canonical content hash of an order and
// returns the hashed variant. Two orders with identical economic
// content hash identically regardless of address casing or the wire
// representation they came from.
func HashOrder(o *Order) (*HashedOrder, error) {
	if o == nil {
		return nil, constructionErrorf(CodeInvalidOrder, "order is nil")
	}
	h := chain.HashOrder(o.chainOrder())
	return &HashedOrder{Order: *o, Hash: normalizeHash(h.Hex())}, nil
}

// SignHash returns the hash the maker actually signs, derived from the
// content hash with the signed-message prefix applied.
func (o *HashedOrder) SignHash() common.Hash {
	return chain.HashToSign(o.chainOrder())
}
