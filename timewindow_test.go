package wyvernexchange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWindowValidator(now time.Time) *TimeWindowValidator {
	v := NewTimeWindowValidator(DefaultPolicy(ChainIDEthereumMainnet))
	v.now = func() time.Time { return now }
	return v
}

func timePtr(t time.Time) *time.Time { return &t }

func TestValidateDefaultListingBackdated(t *testing.T) {
	now := time.Unix(1700000000, 0)
	v := testWindowValidator(now)

	window, err := v.Validate(TimeWindowRequest{
		ExpirationTime: now.Add(24 * time.Hour),
	})
	require.NoError(t, err)

	// The default listing time is backdated by the clock-skew offset so
	// a fresh order is immediately live.
	assert.Equal(t, now.Unix()-60, window.ListingTime)
	assert.Equal(t, now.Add(24*time.Hour).Unix(), window.ExpirationTime)
}

func TestValidateExpirationRequired(t *testing.T) {
	v := testWindowValidator(time.Unix(1700000000, 0))

	_, err := v.Validate(TimeWindowRequest{})
	requireConstructionCode(t, err, CodeExpirationRequired)
}

func TestValidateMatchingOrderMayBeOpenEnded(t *testing.T) {
	now := time.Unix(1700000000, 0)
	v := testWindowValidator(now)

	window, err := v.Validate(TimeWindowRequest{IsMatchingOrder: true})
	require.NoError(t, err)
	assert.Equal(t, int64(0), window.ExpirationTime)
	assert.Less(t, window.ListingTime, now.Unix())
}

func TestValidateListingInPast(t *testing.T) {
	now := time.Unix(1700000000, 0)
	v := testWindowValidator(now)

	_, err := v.Validate(TimeWindowRequest{
		ListingTime:    timePtr(now.Add(-6 * time.Minute)),
		ExpirationTime: now.Add(24 * time.Hour),
	})
	requireConstructionCode(t, err, CodeListingInPast)

	// Within the tolerance it is accepted.
	window, err := v.Validate(TimeWindowRequest{
		ListingTime:    timePtr(now.Add(-4 * time.Minute)),
		ExpirationTime: now.Add(24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, now.Add(-4*time.Minute).Unix(), window.ListingTime)
}

func TestValidateListingAfterExpiration(t *testing.T) {
	now := time.Unix(1700000000, 0)
	v := testWindowValidator(now)

	_, err := v.Validate(TimeWindowRequest{
		ListingTime:    timePtr(now.Add(48 * time.Hour)),
		ExpirationTime: now.Add(24 * time.Hour),
	})
	requireConstructionCode(t, err, CodeListingAfterExpiration)
}

func TestValidateCannotScheduleAuction(t *testing.T) {
	now := time.Unix(1700000000, 0)
	v := testWindowValidator(now)

	_, err := v.Validate(TimeWindowRequest{
		ListingTime:                timePtr(now.Add(1 * time.Hour)),
		ExpirationTime:             now.Add(24 * time.Hour),
		WaitingForBestCounterOrder: true,
	})
	requireConstructionCode(t, err, CodeCannotScheduleAuction)
}

func TestValidateNonIntegerExpiration(t *testing.T) {
	now := time.Unix(1700000000, 0)
	v := testWindowValidator(now)

	_, err := v.Validate(TimeWindowRequest{
		ExpirationTime: now.Add(24*time.Hour + 500*time.Millisecond),
	})
	requireConstructionCode(t, err, CodeNonIntegerExpiration)
}

func TestValidateExpirationTooFar(t *testing.T) {
	now := time.Unix(1700000000, 0)
	v := testWindowValidator(now)

	_, err := v.Validate(TimeWindowRequest{
		ExpirationTime: now.Add(181 * 24 * time.Hour),
	})
	requireConstructionCode(t, err, CodeExpirationTooFar)
}

func TestValidateExpirationTooSoon(t *testing.T) {
	now := time.Unix(1700000000, 0)
	v := testWindowValidator(now)

	_, err := v.Validate(TimeWindowRequest{
		ListingTime:    timePtr(now),
		ExpirationTime: now.Add(10 * time.Minute),
	})
	requireConstructionCode(t, err, CodeExpirationTooSoon)

	window, err := v.Validate(TimeWindowRequest{
		ListingTime:    timePtr(now),
		ExpirationTime: now.Add(15 * time.Minute),
	})
	require.NoError(t, err)
	assert.Equal(t, now.Unix(), window.ListingTime)
}

func TestValidateEnglishAuctionWindowRewrite(t *testing.T) {
	now := time.Unix(1700000000, 0)
	v := testWindowValidator(now)

	requested := now.Add(24 * time.Hour)
	window, err := v.Validate(TimeWindowRequest{
		ExpirationTime:             requested,
		WaitingForBestCounterOrder: true,
	})
	require.NoError(t, err)

	// Bidding closes at the requested expiration; the order itself
	// stays matchable through the settlement-latency allowance.
	assert.Equal(t, requested.Unix(), window.ListingTime)
	assert.Equal(t, requested.Add(7*24*time.Hour).Unix(), window.ExpirationTime)
}
