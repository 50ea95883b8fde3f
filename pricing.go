package wyvernexchange

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// PriceRequest describes trade pricing intent in human units.
type PriceRequest struct {
	Side         Side
	PaymentToken PaymentToken

	// StartAmount is the price at listing time, in the payment token's
	// major denomination.
	StartAmount decimal.Decimal

	// EndAmount, when set and different from StartAmount, makes the
	// order a declining (sell) or rising (buy) Dutch auction ending at
	// this price.
	EndAmount *decimal.Decimal

	// ExpirationTime is the order's expiration in Unix seconds; zero
	// means none was requested.
	ExpirationTime int64

	// WaitingForBestCounterOrder marks an English auction: the order
	// stays open for competing bids until expiration.
	WaitingForBestCounterOrder bool

	// ReservePrice is the English auction's minimum settlement price.
	ReservePrice *decimal.Decimal
}

// Pricer converts human-readable prices into the protocol's
// fixed-point basePrice/extra/reservePrice fields.
type Pricer struct {
	policy Policy
}

// NewPricer creates a Pricer bound to a policy.
func NewPricer(policy Policy) *Pricer {
	return &Pricer{policy: policy}
}

// PriceParameters validates a price request and converts it to
// fixed-point integers in the payment token's smallest unit. Native
// currency uses the chain's fixed 18-decimal convention.
func (p *Pricer) PriceParameters(req PriceRequest) (*PriceParameters, error) {
	if req.StartAmount.IsNegative() {
		return nil, constructionErrorf(CodeInvalidPrice,
			"start amount must be >= 0, got %s", req.StartAmount.String())
	}

	isNative := req.PaymentToken.IsNative()
	decimals := req.PaymentToken.Decimals
	if isNative {
		decimals = NativeTokenDecimals
	}

	var priceDiff decimal.Decimal
	if req.EndAmount != nil {
		end := *req.EndAmount
		if end.IsNegative() {
			return nil, constructionErrorf(CodeInvalidPrice,
				"end amount must be >= 0, got %s", end.String())
		}
		switch req.Side {
		case SideSell:
			// Sell prices may only decay.
			if end.GreaterThan(req.StartAmount) {
				return nil, constructionErrorf(CodeInvalidPriceRange,
					"sell end amount %s must not exceed start amount %s", end.String(), req.StartAmount.String())
			}
			priceDiff = req.StartAmount.Sub(end)
		case SideBuy:
			// Buy offers may only escalate.
			if end.LessThan(req.StartAmount) {
				return nil, constructionErrorf(CodeInvalidPriceRange,
					"buy end amount %s must not undercut start amount %s", end.String(), req.StartAmount.String())
			}
			priceDiff = end.Sub(req.StartAmount)
		}
		if !priceDiff.IsZero() && req.ExpirationTime == 0 {
			return nil, constructionErrorf(CodeMissingExpirationForPriceChange,
				"an order with a changing price requires an expiration time")
		}
	}

	if req.WaitingForBestCounterOrder && isNative {
		return nil, constructionErrorf(CodeInvalidAuctionPaymentToken,
			"English auctions must use a non-native payment token")
	}
	if req.Side == SideBuy && isNative {
		return nil, constructionErrorf(CodeOffersRequireToken,
			"offers must use a non-native payment token")
	}

	if req.ReservePrice != nil {
		if !req.WaitingForBestCounterOrder {
			return nil, constructionErrorf(CodeInvalidReservePrice,
				"reserve prices are only valid for English auctions")
		}
		if req.ReservePrice.LessThan(req.StartAmount) {
			return nil, constructionErrorf(CodeInvalidReservePrice,
				"reserve price %s must be at least the start amount %s",
				req.ReservePrice.String(), req.StartAmount.String())
		}
	}

	basePrice, err := toBaseUnits(req.StartAmount, decimals)
	if err != nil {
		return nil, err
	}
	extra, err := toBaseUnits(priceDiff, decimals)
	if err != nil {
		return nil, err
	}

	var reserve *big.Int
	if req.ReservePrice != nil {
		reserve, err = toBaseUnits(*req.ReservePrice, decimals)
		if err != nil {
			return nil, err
		}
	}

	paymentToken := NullAddress
	if !isNative {
		paymentToken = normalizeAddress(req.PaymentToken.Address)
	}

	return &PriceParameters{
		BasePrice:    basePrice,
		Extra:        extra,
		ReservePrice: reserve,
		PaymentToken: paymentToken,
	}, nil
}
