package wyvernexchange

import (
	"time"
)

// TimeWindowRequest describes the requested listing/expiration pair
// before validation.
type TimeWindowRequest struct {
	// ListingTime is optional; when nil the listing time defaults to
	// now minus the policy's clock-skew offset.
	ListingTime *time.Time

	// ExpirationTime's zero value requests an open-ended order, which
	// is only permitted for synthesized matching orders.
	ExpirationTime time.Time

	WaitingForBestCounterOrder bool

	// IsMatchingOrder marks a synthesized counter-order, which
	// inherits the counterparty's real window at settlement time.
	IsMatchingOrder bool
}

// TimeWindowValidator validates and normalizes listing/expiration
// timestamps against policy.
type TimeWindowValidator struct {
	policy Policy
	now    func() time.Time
}

// NewTimeWindowValidator creates a validator bound to a policy.
func NewTimeWindowValidator(policy Policy) *TimeWindowValidator {
	return &TimeWindowValidator{policy: policy, now: time.Now}
}

// Validate checks a requested window against policy and returns the
// effective TimeWindow in Unix seconds.
func (v *TimeWindowValidator) Validate(req TimeWindowRequest) (*TimeWindow, error) {
	now := v.now()

	listing := now.Add(-v.policy.ListingClockSkewOffset)
	if req.ListingTime != nil {
		listing = *req.ListingTime
	}
	listingUnix := listing.Unix()

	if req.ExpirationTime.IsZero() {
		if !req.IsMatchingOrder {
			return nil, constructionErrorf(CodeExpirationRequired,
				"an expiration time is required")
		}
		// Matching orders inherit the counter-order's real window, so
		// open-endedness is allowed.
		return &TimeWindow{ListingTime: listingUnix, ExpirationTime: 0}, nil
	}

	if listing.Before(now.Add(-v.policy.ListingPastTolerance)) {
		return nil, constructionErrorf(CodeListingInPast,
			"listing time %d is too far in the past", listingUnix)
	}

	expirationUnix := req.ExpirationTime.Unix()
	if listingUnix >= expirationUnix {
		return nil, constructionErrorf(CodeListingAfterExpiration,
			"listing time %d must precede expiration time %d", listingUnix, expirationUnix)
	}

	if req.WaitingForBestCounterOrder && req.ListingTime != nil && listing.After(now) {
		return nil, constructionErrorf(CodeCannotScheduleAuction,
			"English auctions cannot be scheduled for a future listing time")
	}

	if req.ExpirationTime.Nanosecond() != 0 {
		return nil, constructionErrorf(CodeNonIntegerExpiration,
			"expiration time must be a whole number of seconds")
	}

	if req.ExpirationTime.After(now.Add(v.policy.MaxOrderDuration)) {
		return nil, constructionErrorf(CodeExpirationTooFar,
			"expiration time %d is more than %s in the future", expirationUnix, v.policy.MaxOrderDuration)
	}

	minWindow := int64(v.policy.MinOrderWindow / time.Second)

	if req.WaitingForBestCounterOrder {
		// For matching purposes the auction "starts" when bidding
		// closes, and the orderbook needs the settlement-latency
		// allowance to match the winning bid.
		effectiveListing := expirationUnix
		effectiveExpiration := expirationUnix + int64(v.policy.AuctionSettlementLatency/time.Second)
		if effectiveExpiration < effectiveListing+minWindow {
			return nil, constructionErrorf(CodeExpirationTooSoon,
				"auction settlement window must be at least %s", v.policy.MinOrderWindow)
		}
		return &TimeWindow{ListingTime: effectiveListing, ExpirationTime: effectiveExpiration}, nil
	}

	if expirationUnix < listingUnix+minWindow {
		return nil, constructionErrorf(CodeExpirationTooSoon,
			"expiration time must be at least %s past the listing time", v.policy.MinOrderWindow)
	}

	return &TimeWindow{ListingTime: listingUnix, ExpirationTime: expirationUnix}, nil
}
