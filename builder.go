package wyvernexchange

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/wyvernlabs/wyvern-exchange-sdk-go/chain"
)

// TokenRegistry resolves a payment token's decimal precision.
// Implemented by the orderbook API client.
type TokenRegistry interface {
	PaymentToken(ctx context.Context, address string) (*PaymentToken, error)
}

// SellOrderRequest describes a listing in human units.
type SellOrderRequest struct {
	Asset  *AssetDescriptor
	Bundle *Bundle

	Maker string

	// Taker restricts the listing to one buyer; empty means public.
	Taker string

	StartAmount decimal.Decimal
	EndAmount   *decimal.Decimal

	// PaymentTokenAddress empty or zero means the native currency.
	PaymentTokenAddress string

	ListingTime    *time.Time
	ExpirationTime time.Time

	WaitingForBestCounterOrder bool
	ReservePrice               *decimal.Decimal

	// ExtraBountyBPS is the referral bounty carved out of the seller
	// fee.
	ExtraBountyBPS int64
}

// BuyOrderRequest describes an offer in human units.
type BuyOrderRequest struct {
	Asset  *AssetDescriptor
	Bundle *Bundle

	Maker string

	// SellOrder, when set, marks this buy as a response to an existing
	// listing: fee fields are copied from it so both sides agree
	// byte-for-byte.
	SellOrder *Order

	StartAmount decimal.Decimal
	EndAmount   *decimal.Decimal

	PaymentTokenAddress string

	ListingTime    *time.Time
	ExpirationTime time.Time
}

// OrderBuilder composes pricing, fees, time windows, and transfer
// encoding into complete unsigned order records.
type OrderBuilder struct {
	policy  Policy
	pricer  *Pricer
	fees    *FeeCalculator
	windows *TimeWindowValidator
	codec   *chain.Codec
	tokens  TokenRegistry
}

// NewOrderBuilder creates an OrderBuilder. The token registry may be
// nil, in which case non-native payment tokens must carry their
// decimals in the request via the native default.
func NewOrderBuilder(policy Policy, fees *FeeCalculator, tokens TokenRegistry) *OrderBuilder {
	return &OrderBuilder{
		policy:  policy,
		pricer:  NewPricer(policy),
		fees:    fees,
		windows: NewTimeWindowValidator(policy),
		codec:   chain.NewCodec(common.HexToAddress(policy.Atomicizer)),
		tokens:  tokens,
	}
}

// BuildSellOrder builds an unsigned sell order from a listing request.
func (b *OrderBuilder) BuildSellOrder(ctx context.Context, req *SellOrderRequest) (*Order, error) {
	if err := validateSubject(req.Asset, req.Bundle); err != nil {
		return nil, err
	}

	token, err := b.resolvePaymentToken(ctx, req.PaymentTokenAddress)
	if err != nil {
		return nil, err
	}

	fees, err := b.fees.ComputeFees(ctx, feeContext(req.Asset, req.Bundle), SideSell, req.ExtraBountyBPS)
	if err != nil {
		return nil, err
	}

	expiration := int64(0)
	if !req.ExpirationTime.IsZero() {
		expiration = req.ExpirationTime.Unix()
	}
	price, err := b.pricer.PriceParameters(PriceRequest{
		Side:                       SideSell,
		PaymentToken:               *token,
		StartAmount:                req.StartAmount,
		EndAmount:                  req.EndAmount,
		ExpirationTime:             expiration,
		WaitingForBestCounterOrder: req.WaitingForBestCounterOrder,
		ReservePrice:               req.ReservePrice,
	})
	if err != nil {
		return nil, err
	}

	window, err := b.windows.Validate(TimeWindowRequest{
		ListingTime:                req.ListingTime,
		ExpirationTime:             req.ExpirationTime,
		WaitingForBestCounterOrder: req.WaitingForBestCounterOrder,
	})
	if err != nil {
		return nil, err
	}

	maker := normalizeAddress(req.Maker)
	call, howToCall, err := b.encodeSide(SideSell, req.Asset, req.Bundle, maker)
	if err != nil {
		return nil, err
	}

	makerRelayerFee, takerRelayerFee := applyAuctionFeeConvention(
		fees.TotalSellerBPS, fees.TotalBuyerBPS, req.WaitingForBestCounterOrder)

	// The settlement contract treats a null fee recipient as the
	// signal that this order is still open for competing bids.
	feeRecipient := b.policy.FeeRecipient
	if req.WaitingForBestCounterOrder {
		feeRecipient = NullAddress
	}

	taker := NullAddress
	if req.Taker != "" {
		taker = normalizeAddress(req.Taker)
	}

	return &Order{
		Exchange:                   b.policy.Exchange,
		Maker:                      maker,
		Taker:                      taker,
		MakerRelayerFee:            makerRelayerFee,
		TakerRelayerFee:            takerRelayerFee,
		MakerProtocolFee:           big.NewInt(0),
		TakerProtocolFee:           big.NewInt(0),
		MakerReferrerFee:           bps(fees.SellerBountyBPS),
		FeeRecipient:               feeRecipient,
		FeeMethod:                  FeeMethodSplitFee,
		Side:                       SideSell,
		SaleKind:                   saleKindFor(price),
		Target:                     normalizeAddress(call.Target.Hex()),
		HowToCall:                  howToCall,
		Calldata:                   call.Calldata,
		ReplacementPattern:         call.ReplacementPattern,
		StaticTarget:               NullAddress,
		StaticExtradata:            []byte{},
		PaymentToken:               price.PaymentToken,
		BasePrice:                  price.BasePrice,
		Extra:                      price.Extra,
		ListingTime:                window.ListingTime,
		ExpirationTime:             window.ExpirationTime,
		Salt:                       generateSalt(),
		Metadata:                   OrderMetadata{Asset: req.Asset, Bundle: req.Bundle},
		WaitingForBestCounterOrder: req.WaitingForBestCounterOrder,
		EnglishAuctionReservePrice: price.ReservePrice,
	}, nil
}

// BuildBuyOrder builds an unsigned buy order. When req.SellOrder is
// set the buy order's relayer fees and fee recipient are derived from
// the sell order rather than recomputed, a precondition for matching.
func (b *OrderBuilder) BuildBuyOrder(ctx context.Context, req *BuyOrderRequest) (*Order, error) {
	if err := validateSubject(req.Asset, req.Bundle); err != nil {
		return nil, err
	}

	paymentTokenAddress := req.PaymentTokenAddress
	if paymentTokenAddress == "" && req.SellOrder != nil {
		paymentTokenAddress = req.SellOrder.PaymentToken
	}
	token, err := b.resolvePaymentToken(ctx, paymentTokenAddress)
	if err != nil {
		return nil, err
	}

	fees, err := b.fees.ComputeFees(ctx, feeContext(req.Asset, req.Bundle), SideBuy, 0)
	if err != nil {
		return nil, err
	}

	expiration := int64(0)
	if !req.ExpirationTime.IsZero() {
		expiration = req.ExpirationTime.Unix()
	}
	price, err := b.pricer.PriceParameters(PriceRequest{
		Side:           SideBuy,
		PaymentToken:   *token,
		StartAmount:    req.StartAmount,
		EndAmount:      req.EndAmount,
		ExpirationTime: expiration,
	})
	if err != nil {
		return nil, err
	}

	window, err := b.windows.Validate(TimeWindowRequest{
		ListingTime:    req.ListingTime,
		ExpirationTime: req.ExpirationTime,
	})
	if err != nil {
		return nil, err
	}

	maker := normalizeAddress(req.Maker)
	call, howToCall, err := b.encodeSide(SideBuy, req.Asset, req.Bundle, maker)
	if err != nil {
		return nil, err
	}

	var makerRelayerFee, takerRelayerFee *big.Int
	feeRecipient := b.policy.FeeRecipient
	taker := NullAddress
	if req.SellOrder != nil {
		// Copy the sell order's fees so both sides agree
		// byte-for-byte. English auctions already carry the swapped
		// convention, so their fields copy straight across.
		if req.SellOrder.WaitingForBestCounterOrder {
			makerRelayerFee = orZero(req.SellOrder.MakerRelayerFee)
			takerRelayerFee = orZero(req.SellOrder.TakerRelayerFee)
		} else {
			makerRelayerFee = orZero(req.SellOrder.TakerRelayerFee)
			takerRelayerFee = orZero(req.SellOrder.MakerRelayerFee)
		}
		if req.SellOrder.FeeRecipient != NullAddress {
			feeRecipient = NullAddress
		}
		taker = normalizeAddress(req.SellOrder.Maker)
	} else {
		makerRelayerFee = bps(fees.TotalBuyerBPS)
		takerRelayerFee = bps(fees.TotalSellerBPS)
	}

	return &Order{
		Exchange:           b.policy.Exchange,
		Maker:              maker,
		Taker:              taker,
		MakerRelayerFee:    makerRelayerFee,
		TakerRelayerFee:    takerRelayerFee,
		MakerProtocolFee:   big.NewInt(0),
		TakerProtocolFee:   big.NewInt(0),
		MakerReferrerFee:   big.NewInt(0),
		FeeRecipient:       feeRecipient,
		FeeMethod:          FeeMethodSplitFee,
		Side:               SideBuy,
		SaleKind:           saleKindFor(price),
		Target:             normalizeAddress(call.Target.Hex()),
		HowToCall:          howToCall,
		Calldata:           call.Calldata,
		ReplacementPattern: call.ReplacementPattern,
		StaticTarget:       NullAddress,
		StaticExtradata:    []byte{},
		PaymentToken:       price.PaymentToken,
		BasePrice:          price.BasePrice,
		Extra:              price.Extra,
		ListingTime:        window.ListingTime,
		ExpirationTime:     window.ExpirationTime,
		Salt:               generateSalt(),
		Metadata:           OrderMetadata{Asset: req.Asset, Bundle: req.Bundle},
	}, nil
}

// applyAuctionFeeConvention assigns the relayer fee fields for a sell
// order. English auctions swap the maker/taker fields relative to a
// normal sell order: the maker economically plays the taker role in
// the protocol's matching semantics. The swap is load-bearing and this
// function is the single place it happens.
func applyAuctionFeeConvention(totalSellerBPS, totalBuyerBPS int64, waitingForBestCounterOrder bool) (makerRelayerFee, takerRelayerFee *big.Int) {
	if waitingForBestCounterOrder {
		return bps(totalBuyerBPS), bps(totalSellerBPS)
	}
	return bps(totalSellerBPS), bps(totalBuyerBPS)
}

func validateSubject(asset *AssetDescriptor, bundle *Bundle) error {
	if asset == nil && bundle == nil {
		return constructionErrorf(CodeInvalidAsset, "an asset or bundle is required")
	}
	if asset != nil && bundle != nil {
		return constructionErrorf(CodeInvalidAsset, "an order trades either one asset or one bundle, not both")
	}
	if bundle != nil && len(bundle.Assets) == 0 {
		return constructionErrorf(CodeEmptyBundle, "a bundle requires at least one asset")
	}
	return nil
}

// feeContext picks the asset used for collection fee lookup: the
// single asset, or the bundle's collection when every asset shares
// one. Heterogeneous bundles have no collection context.
func feeContext(asset *AssetDescriptor, bundle *Bundle) *AssetDescriptor {
	if asset != nil {
		return asset
	}
	first := bundle.Assets[0]
	for _, a := range bundle.Assets[1:] {
		if a.Address != first.Address {
			return nil
		}
	}
	return first
}

func saleKindFor(price *PriceParameters) SaleKind {
	if price.Extra.Sign() > 0 {
		return SaleKindDutchAuction
	}
	return SaleKindFixedPrice
}

// encodeSide fans out to the transfer codec: one call per single
// asset, or the atomicized composition for bundles. Bundles settle
// through the atomicizer proxy, which requires a delegate call.
func (b *OrderBuilder) encodeSide(side Side, asset *AssetDescriptor, bundle *Bundle, account string) (*chain.EncodedCall, HowToCall, error) {
	accountAddr := common.HexToAddress(account)

	if asset != nil {
		var call *chain.EncodedCall
		var err error
		if side == SideSell {
			call, err = b.codec.EncodeSell(asset.chainAsset(), accountAddr)
		} else {
			call, err = b.codec.EncodeBuy(asset.chainAsset(), accountAddr)
		}
		if err != nil {
			return nil, HowToCallCall, constructionErrorf(CodeInvalidAsset, "%v", err)
		}
		return call, HowToCallCall, nil
	}

	chainAssets := make([]chain.Asset, len(bundle.Assets))
	for i, a := range bundle.Assets {
		chainAssets[i] = a.chainAsset()
	}
	var call *chain.EncodedCall
	var err error
	if side == SideSell {
		call, err = b.codec.EncodeAtomicizedSell(chainAssets, accountAddr)
	} else {
		call, err = b.codec.EncodeAtomicizedBuy(chainAssets, accountAddr)
	}
	if err != nil {
		return nil, HowToCallDelegateCall, constructionErrorf(CodeInvalidAsset, "%v", err)
	}
	return call, HowToCallDelegateCall, nil
}

func (b *OrderBuilder) resolvePaymentToken(ctx context.Context, address string) (*PaymentToken, error) {
	if address == "" || normalizeAddress(address) == NullAddress {
		return &NativePaymentToken, nil
	}
	if b.tokens == nil {
		return nil, collaboratorError("payment token lookup",
			fmt.Errorf("no token registry configured for token %s", address))
	}
	token, err := b.tokens.PaymentToken(ctx, address)
	if err != nil {
		return nil, collaboratorError("payment token lookup", err)
	}
	return token, nil
}
