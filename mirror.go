package wyvernexchange

import (
	"math/big"
	"time"
)

// MirrorRequest describes the counter-order to synthesize for an
// existing order.
type MirrorRequest struct {
	// Counterparty becomes the mirror's maker.
	Counterparty string

	// Recipient optionally receives the asset instead of the
	// counterparty (only meaningful when mirroring a sell order).
	Recipient string

	// ListingTime, when set, pins the mirror's listing time, used to
	// simulate whether a bid can settle at a given moment.
	ListingTime *time.Time
}

// MirrorOrder synthesizes the complementary order needed to settle a
// trade against an existing order: opposite side, swapped accounts,
// re-encoded transfer with the recipient swapped in, and fee fields
// copied so the pair agrees byte-for-byte. The mirror's window is
// open-ended; it inherits the counter-order's real window at
// settlement time.
func (b *OrderBuilder) MirrorOrder(order *Order, req *MirrorRequest) (*Order, error) {
	if order == nil {
		return nil, constructionErrorf(CodeInvalidOrder, "order is nil")
	}
	if order.Metadata.Asset == nil && order.Metadata.Bundle == nil {
		return nil, constructionErrorf(CodeInvalidOrder,
			"order metadata carries neither an asset nor a bundle")
	}

	counterparty := normalizeAddress(req.Counterparty)
	recipient := counterparty
	if req.Recipient != "" {
		recipient = normalizeAddress(req.Recipient)
	}

	mirrorSide := SideBuy
	transferAccount := recipient
	if order.Side == SideBuy {
		mirrorSide = SideSell
		transferAccount = counterparty
	}

	call, howToCall, err := b.encodeSide(mirrorSide, order.Metadata.Asset, order.Metadata.Bundle, transferAccount)
	if err != nil {
		return nil, err
	}

	window, err := b.windows.Validate(TimeWindowRequest{
		ListingTime:     req.ListingTime,
		IsMatchingOrder: true,
	})
	if err != nil {
		return nil, err
	}

	// The original already carries the auction fee convention, so the
	// fee fields copy straight across; the fee recipient flips to keep
	// exactly one side as the public maker order.
	feeRecipient := NullAddress
	if order.FeeRecipient == NullAddress {
		feeRecipient = b.policy.FeeRecipient
	}

	return &Order{
		Exchange:           order.Exchange,
		Maker:              counterparty,
		Taker:              normalizeAddress(order.Maker),
		MakerRelayerFee:    orZero(order.MakerRelayerFee),
		TakerRelayerFee:    orZero(order.TakerRelayerFee),
		MakerProtocolFee:   orZero(order.MakerProtocolFee),
		TakerProtocolFee:   orZero(order.TakerProtocolFee),
		MakerReferrerFee:   big.NewInt(0),
		FeeRecipient:       feeRecipient,
		FeeMethod:          order.FeeMethod,
		Side:               mirrorSide,
		SaleKind:           SaleKindFixedPrice,
		Target:             normalizeAddress(call.Target.Hex()),
		HowToCall:          howToCall,
		Calldata:           call.Calldata,
		ReplacementPattern: call.ReplacementPattern,
		StaticTarget:       NullAddress,
		StaticExtradata:    []byte{},
		PaymentToken:       normalizeAddress(order.PaymentToken),
		BasePrice:          orZero(order.BasePrice),
		Extra:              big.NewInt(0),
		ListingTime:        window.ListingTime,
		ExpirationTime:     window.ExpirationTime,
		Salt:               generateSalt(),
		Metadata:           order.Metadata,
	}, nil
}
