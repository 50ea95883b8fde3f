package wyvernexchange

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSimulator struct {
	canMatch bool
	err      error
	calls    int
}

func (s *stubSimulator) OrdersCanMatch(_ context.Context, _, _ *HashedOrder) (bool, error) {
	s.calls++
	return s.canMatch, s.err
}

// matchedPair builds a listing and its honest mirror, hashed.
func matchedPair(t *testing.T) (*HashedOrder, *HashedOrder) {
	t.Helper()
	b := testBuilder()

	sell, err := b.BuildSellOrder(context.Background(), &SellOrderRequest{
		Asset:          testAsset(1),
		Maker:          testMaker,
		StartAmount:    dec("1"),
		ExpirationTime: futureExpiration(),
	})
	require.NoError(t, err)

	buy, err := b.MirrorOrder(sell, &MirrorRequest{Counterparty: testTaker})
	require.NoError(t, err)

	hashedSell, err := HashOrder(sell)
	require.NoError(t, err)
	hashedBuy, err := HashOrder(buy)
	require.NoError(t, err)
	return hashedBuy, hashedSell
}

func TestValidateMatchCompatiblePair(t *testing.T) {
	buy, sell := matchedPair(t)
	mv := NewMatchValidator(nil)

	result, err := mv.ValidateMatch(context.Background(), buy, sell)
	require.NoError(t, err)
	assert.True(t, result.Compatible)
	assert.Equal(t, ReasonNone, result.Reason)
}

func TestValidateMatchWrongSides(t *testing.T) {
	buy, sell := matchedPair(t)
	mv := NewMatchValidator(nil)

	result, err := mv.ValidateMatch(context.Background(), sell, buy)
	require.NoError(t, err)
	assert.False(t, result.Compatible)
	assert.Equal(t, ReasonWrongSides, result.Reason)
}

func TestValidateMatchFeeMethodMismatch(t *testing.T) {
	buy, sell := matchedPair(t)
	buy.FeeMethod = FeeMethodProtocolFee
	mv := NewMatchValidator(nil)

	result, err := mv.ValidateMatch(context.Background(), buy, sell)
	require.NoError(t, err)
	assert.Equal(t, ReasonFeeMethodMismatch, result.Reason)
}

func TestValidateMatchPaymentTokenMismatch(t *testing.T) {
	buy, sell := matchedPair(t)
	buy.PaymentToken = normalizeAddress(testERC20.Address)
	mv := NewMatchValidator(nil)

	result, err := mv.ValidateMatch(context.Background(), buy, sell)
	require.NoError(t, err)
	assert.Equal(t, ReasonPaymentTokenMismatch, result.Reason)
}

func TestValidateMatchSellTakerMismatch(t *testing.T) {
	buy, sell := matchedPair(t)
	sell.Taker = "0x9999999999999999999999999999999999999999"
	mv := NewMatchValidator(nil)

	result, err := mv.ValidateMatch(context.Background(), buy, sell)
	require.NoError(t, err)
	assert.Equal(t, ReasonSellTakerMismatch, result.Reason)
}

func TestValidateMatchBuyTakerMismatch(t *testing.T) {
	buy, sell := matchedPair(t)
	buy.Taker = "0x9999999999999999999999999999999999999999"
	mv := NewMatchValidator(nil)

	result, err := mv.ValidateMatch(context.Background(), buy, sell)
	require.NoError(t, err)
	assert.Equal(t, ReasonBuyTakerMismatch, result.Reason)
}

func TestValidateMatchFeeRecipientAmbiguous(t *testing.T) {
	buy, sell := matchedPair(t)

	// Both carrying a recipient is ambiguous.
	buy.FeeRecipient = sell.FeeRecipient
	mv := NewMatchValidator(nil)
	result, err := mv.ValidateMatch(context.Background(), buy, sell)
	require.NoError(t, err)
	assert.Equal(t, ReasonFeeRecipientAmbiguous, result.Reason)

	// Neither carrying one is equally ambiguous.
	buy.FeeRecipient = NullAddress
	sell.FeeRecipient = NullAddress
	result, err = mv.ValidateMatch(context.Background(), buy, sell)
	require.NoError(t, err)
	assert.Equal(t, ReasonFeeRecipientAmbiguous, result.Reason)
}

func TestValidateMatchTargetMismatch(t *testing.T) {
	buy, sell := matchedPair(t)
	buy.Target = "0x9999999999999999999999999999999999999999"
	mv := NewMatchValidator(nil)

	result, err := mv.ValidateMatch(context.Background(), buy, sell)
	require.NoError(t, err)
	assert.Equal(t, ReasonTargetMismatch, result.Reason)
}

func TestValidateMatchCallConventionMismatch(t *testing.T) {
	buy, sell := matchedPair(t)
	buy.HowToCall = HowToCallDelegateCall
	mv := NewMatchValidator(nil)

	result, err := mv.ValidateMatch(context.Background(), buy, sell)
	require.NoError(t, err)
	assert.Equal(t, ReasonCallConventionMismatch, result.Reason)
}

func TestValidateMatchLiveness(t *testing.T) {
	buy, sell := matchedPair(t)
	mv := NewMatchValidator(nil)

	sell.ListingTime = time.Now().Add(time.Hour).Unix()
	result, err := mv.ValidateMatch(context.Background(), buy, sell)
	require.NoError(t, err)
	assert.Equal(t, ReasonOrderNotYetListed, result.Reason)

	sell.ListingTime = time.Now().Add(-2 * time.Hour).Unix()
	sell.ExpirationTime = time.Now().Add(-time.Hour).Unix()
	result, err = mv.ValidateMatch(context.Background(), buy, sell)
	require.NoError(t, err)
	assert.Equal(t, ReasonOrderExpired, result.Reason)
}

func TestValidateMatchOpenEndedNeverExpires(t *testing.T) {
	buy, sell := matchedPair(t)
	mv := NewMatchValidator(nil)

	// The mirror has expiration zero; it must not register as expired.
	require.Equal(t, int64(0), buy.ExpirationTime)
	result, err := mv.ValidateMatch(context.Background(), buy, sell)
	require.NoError(t, err)
	assert.True(t, result.Compatible)
}

func TestValidateMatchSimulator(t *testing.T) {
	buy, sell := matchedPair(t)

	sim := &stubSimulator{canMatch: true}
	mv := NewMatchValidator(sim)
	result, err := mv.ValidateMatch(context.Background(), buy, sell)
	require.NoError(t, err)
	assert.True(t, result.Compatible)
	assert.Equal(t, 1, sim.calls)

	sim = &stubSimulator{canMatch: false}
	mv = NewMatchValidator(sim)
	result, err = mv.ValidateMatch(context.Background(), buy, sell)
	require.NoError(t, err)
	assert.False(t, result.Compatible)
	assert.Equal(t, ReasonClockSkewOrUnknown, result.Reason)
	assert.Contains(t, result.Detail, buy.Hash)
	assert.Contains(t, result.Detail, sell.Hash)

	sim = &stubSimulator{err: fmt.Errorf("rpc unavailable")}
	mv = NewMatchValidator(sim)
	_, err = mv.ValidateMatch(context.Background(), buy, sell)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCollaborator)

	// The simulator is never consulted when a pure check already
	// failed.
	sim = &stubSimulator{canMatch: true}
	mv = NewMatchValidator(sim)
	buy.Target = "0x9999999999999999999999999999999999999999"
	result, err = mv.ValidateMatch(context.Background(), buy, sell)
	require.NoError(t, err)
	assert.False(t, result.Compatible)
	assert.Equal(t, 0, sim.calls)
}

func TestCalldataCompatible(t *testing.T) {
	buy, sell := matchedPair(t)
	assert.True(t, CalldataCompatible(&buy.Order, &sell.Order))

	tampered := *buy
	tampered.Calldata = append([]byte{}, buy.Calldata...)
	// Flip a byte outside any replaceable region (the method selector).
	tampered.Calldata[0] ^= 0xff
	assert.False(t, CalldataCompatible(&tampered.Order, &sell.Order))
}

func TestMirrorOrderShape(t *testing.T) {
	b := testBuilder()

	sell, err := b.BuildSellOrder(context.Background(), &SellOrderRequest{
		Asset:          testAsset(1),
		Maker:          testMaker,
		StartAmount:    dec("1"),
		ExpirationTime: futureExpiration(),
	})
	require.NoError(t, err)

	buy, err := b.MirrorOrder(sell, &MirrorRequest{Counterparty: testTaker})
	require.NoError(t, err)

	assert.Equal(t, SideBuy, buy.Side)
	assert.Equal(t, testTaker, buy.Maker)
	assert.Equal(t, sell.Maker, buy.Taker)
	assert.Equal(t, sell.Target, buy.Target)
	assert.Equal(t, sell.PaymentToken, buy.PaymentToken)
	assert.Equal(t, sell.BasePrice.String(), buy.BasePrice.String())
	assert.Equal(t, "0", buy.Extra.String())
	assert.Equal(t, SaleKindFixedPrice, buy.SaleKind)

	// Fee fields copy straight across; the recipient flips.
	assert.Equal(t, sell.MakerRelayerFee.String(), buy.MakerRelayerFee.String())
	assert.Equal(t, sell.TakerRelayerFee.String(), buy.TakerRelayerFee.String())
	assert.Equal(t, NullAddress, buy.FeeRecipient)

	// Open-ended window.
	assert.Equal(t, int64(0), buy.ExpirationTime)
}

func TestMirrorOrderRecipientAndPinnedListingTime(t *testing.T) {
	b := testBuilder()

	sell, err := b.BuildSellOrder(context.Background(), &SellOrderRequest{
		Asset:          testAsset(1),
		Maker:          testMaker,
		StartAmount:    dec("1"),
		ExpirationTime: futureExpiration(),
	})
	require.NoError(t, err)

	recipient := "0x3333333333333333333333333333333333333333"
	pinned := time.Unix(1800000000, 0)
	buy, err := b.MirrorOrder(sell, &MirrorRequest{
		Counterparty: testTaker,
		Recipient:    recipient,
		ListingTime:  &pinned,
	})
	require.NoError(t, err)

	// The pinned time lands in the listing field; the window stays
	// open-ended.
	assert.Equal(t, pinned.Unix(), buy.ListingTime)
	assert.Equal(t, int64(0), buy.ExpirationTime)

	// The counterparty still makes the order, but the asset is
	// delivered to the recipient: transferFrom's second argument.
	assert.Equal(t, testTaker, buy.Maker)
	require.GreaterOrEqual(t, len(buy.Calldata), 68)
	toWord := buy.Calldata[36:68]
	assert.Equal(t, common.HexToAddress(recipient).Bytes(), toWord[12:])
}

func TestMirrorOrderOfBuyOrder(t *testing.T) {
	b := testBuilder()

	buy, err := b.BuildBuyOrder(context.Background(), &BuyOrderRequest{
		Asset:               testAsset(1),
		Maker:               testTaker,
		StartAmount:         dec("0.5"),
		PaymentTokenAddress: testERC20.Address,
		ExpirationTime:      futureExpiration(),
	})
	require.NoError(t, err)

	sell, err := b.MirrorOrder(buy, &MirrorRequest{Counterparty: testMaker})
	require.NoError(t, err)

	assert.Equal(t, SideSell, sell.Side)
	assert.Equal(t, testMaker, sell.Maker)
	assert.Equal(t, buy.Maker, sell.Taker)
	assert.Equal(t, NullAddress, sell.FeeRecipient)

	mv := NewMatchValidator(nil)
	hashedBuy, err := HashOrder(buy)
	require.NoError(t, err)
	hashedSell, err := HashOrder(sell)
	require.NoError(t, err)
	result, err := mv.ValidateMatch(context.Background(), hashedBuy, hashedSell)
	require.NoError(t, err)
	assert.True(t, result.Compatible, "reason: %s (%s)", result.Reason, result.Detail)
}

func TestMirrorOrderRequiresMetadata(t *testing.T) {
	b := testBuilder()

	_, err := b.MirrorOrder(&Order{}, &MirrorRequest{Counterparty: testTaker})
	requireConstructionCode(t, err, CodeInvalidOrder)
}
