package wyvernexchange

import (
	"math/big"
	"time"
)

// PriceRounding selects how the estimated price is rounded after the
// buyer-fee markup.
type PriceRounding int

const (
	// RoundCeil never lets the displayed price undershoot what
	// settlement will actually charge.
	RoundCeil PriceRounding = iota
	RoundFloor
)

// EstimateCurrentPrice computes the effective price of a live order at
// a point in time, in the payment token's smallest unit. Fixed-price
// orders return basePrice unchanged; Dutch orders interpolate linearly
// across the window, decaying on the sell side and escalating on the
// buy side. backtrackSeconds shifts the evaluation point into the past
// to tolerate propagation delay.
func EstimateCurrentPrice(order *Order, at time.Time, backtrackSeconds int64, rounding PriceRounding) (*big.Int, error) {
	if order == nil {
		return nil, constructionErrorf(CodeInvalidOrder, "order is nil")
	}

	price := new(big.Int).Set(orZero(order.BasePrice))

	if order.SaleKind == SaleKindDutchAuction && order.ExpirationTime > order.ListingTime {
		elapsed := at.Unix() - backtrackSeconds - order.ListingTime
		total := order.ExpirationTime - order.ListingTime
		if elapsed < 0 {
			elapsed = 0
		}
		if elapsed > total {
			elapsed = total
		}

		diff := new(big.Int).Mul(orZero(order.Extra), big.NewInt(elapsed))
		diff.Quo(diff, big.NewInt(total))

		if order.Side == SideSell {
			price.Sub(price, diff)
		} else {
			price.Add(price, diff)
		}
	}

	if order.Side == SideSell {
		// The buyer-side fee markup. Non-public sell orders carry the
		// swapped fee convention, so the buyer fee lives in the maker
		// field.
		feeBPS := orZero(order.TakerRelayerFee)
		if order.WaitingForBestCounterOrder {
			feeBPS = orZero(order.MakerRelayerFee)
		}
		markup := new(big.Int).Add(big.NewInt(BasisPointDenominator), feeBPS)
		price.Mul(price, markup)
		if rounding == RoundCeil {
			price = ceilDiv(price, big.NewInt(BasisPointDenominator))
		} else {
			price.Quo(price, big.NewInt(BasisPointDenominator))
		}
	}

	return price, nil
}
