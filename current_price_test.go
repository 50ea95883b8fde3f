package wyvernexchange

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dutchSellOrder(basePrice, extra int64, listing, expiration int64) *Order {
	return &Order{
		Side:            SideSell,
		SaleKind:        SaleKindDutchAuction,
		BasePrice:       big.NewInt(basePrice),
		Extra:           big.NewInt(extra),
		ListingTime:     listing,
		ExpirationTime:  expiration,
		MakerRelayerFee: big.NewInt(250),
		TakerRelayerFee: big.NewInt(0),
	}
}

func TestEstimateCurrentPriceFixed(t *testing.T) {
	order := &Order{
		Side:            SideSell,
		SaleKind:        SaleKindFixedPrice,
		BasePrice:       big.NewInt(1000000),
		MakerRelayerFee: big.NewInt(250),
		TakerRelayerFee: big.NewInt(0),
	}

	price, err := EstimateCurrentPrice(order, time.Unix(1700000000, 0), 0, RoundCeil)
	require.NoError(t, err)
	assert.Equal(t, "1000000", price.String())
}

func TestEstimateCurrentPriceDutchEndpoints(t *testing.T) {
	listing := int64(1700000000)
	expiration := listing + 3600
	order := dutchSellOrder(1000000, 400000, listing, expiration)

	atListing, err := EstimateCurrentPrice(order, time.Unix(listing, 0), 0, RoundCeil)
	require.NoError(t, err)
	assert.Equal(t, "1000000", atListing.String())

	atExpiration, err := EstimateCurrentPrice(order, time.Unix(expiration, 0), 0, RoundCeil)
	require.NoError(t, err)
	assert.Equal(t, "600000", atExpiration.String())

	halfway, err := EstimateCurrentPrice(order, time.Unix(listing+1800, 0), 0, RoundCeil)
	require.NoError(t, err)
	assert.Equal(t, "800000", halfway.String())
}

func TestEstimateCurrentPriceDutchMonotonic(t *testing.T) {
	listing := int64(1700000000)
	expiration := listing + 3600
	order := dutchSellOrder(1000000, 400000, listing, expiration)

	prev := new(big.Int).Set(order.BasePrice)
	for ts := listing; ts <= expiration; ts += 300 {
		price, err := EstimateCurrentPrice(order, time.Unix(ts, 0), 0, RoundCeil)
		require.NoError(t, err)
		assert.LessOrEqual(t, price.Cmp(prev), 0, "price rose at t=%d", ts)
		prev = price
	}
}

func TestEstimateCurrentPriceClampsOutsideWindow(t *testing.T) {
	listing := int64(1700000000)
	expiration := listing + 3600
	order := dutchSellOrder(1000000, 400000, listing, expiration)

	before, err := EstimateCurrentPrice(order, time.Unix(listing-500, 0), 0, RoundCeil)
	require.NoError(t, err)
	assert.Equal(t, "1000000", before.String())

	after, err := EstimateCurrentPrice(order, time.Unix(expiration+500, 0), 0, RoundCeil)
	require.NoError(t, err)
	assert.Equal(t, "600000", after.String())
}

func TestEstimateCurrentPriceBacktrack(t *testing.T) {
	listing := int64(1700000000)
	expiration := listing + 3600
	order := dutchSellOrder(1000000, 400000, listing, expiration)

	// Backtracking shifts the evaluation point into the past.
	price, err := EstimateCurrentPrice(order, time.Unix(listing+1800, 0), 1800, RoundCeil)
	require.NoError(t, err)
	assert.Equal(t, "1000000", price.String())
}

func TestEstimateCurrentPriceBuySideEscalates(t *testing.T) {
	listing := int64(1700000000)
	expiration := listing + 3600
	order := &Order{
		Side:           SideBuy,
		SaleKind:       SaleKindDutchAuction,
		BasePrice:      big.NewInt(1000000),
		Extra:          big.NewInt(400000),
		ListingTime:    listing,
		ExpirationTime: expiration,
	}

	price, err := EstimateCurrentPrice(order, time.Unix(expiration, 0), 0, RoundCeil)
	require.NoError(t, err)
	assert.Equal(t, "1400000", price.String())
}

func TestEstimateCurrentPriceBuyerFeeMarkup(t *testing.T) {
	order := &Order{
		Side:            SideSell,
		SaleKind:        SaleKindFixedPrice,
		BasePrice:       big.NewInt(1000000),
		MakerRelayerFee: big.NewInt(250),
		TakerRelayerFee: big.NewInt(100),
	}

	// Public sell order: the buyer fee lives in the taker field.
	price, err := EstimateCurrentPrice(order, time.Unix(1700000000, 0), 0, RoundCeil)
	require.NoError(t, err)
	assert.Equal(t, "1010000", price.String())

	// English auction: the swapped convention puts it in the maker
	// field.
	order.WaitingForBestCounterOrder = true
	price, err = EstimateCurrentPrice(order, time.Unix(1700000000, 0), 0, RoundCeil)
	require.NoError(t, err)
	assert.Equal(t, "1025000", price.String())
}

func TestEstimateCurrentPriceRounding(t *testing.T) {
	order := &Order{
		Side:            SideSell,
		SaleKind:        SaleKindFixedPrice,
		BasePrice:       big.NewInt(3),
		TakerRelayerFee: big.NewInt(250),
	}

	// 3 * 10250 / 10000 = 3.075
	ceil, err := EstimateCurrentPrice(order, time.Unix(1700000000, 0), 0, RoundCeil)
	require.NoError(t, err)
	assert.Equal(t, "4", ceil.String())

	order.BasePrice = big.NewInt(3)
	floor, err := EstimateCurrentPrice(order, time.Unix(1700000000, 0), 0, RoundFloor)
	require.NoError(t, err)
	assert.Equal(t, "3", floor.String())
}

func TestEstimateCurrentPriceNilOrder(t *testing.T) {
	_, err := EstimateCurrentPrice(nil, time.Unix(1700000000, 0), 0, RoundCeil)
	requireConstructionCode(t, err, CodeInvalidOrder)
}
