package wyvernexchange

import (
	"bytes"
	"context"
	"fmt"
	"time"
)

// MatchSimulator is the read-only settlement contract call used as the
// final authority on match compatibility.
type MatchSimulator interface {
	OrdersCanMatch(ctx context.Context, buy, sell *HashedOrder) (bool, error)
}

// MatchValidator is an offline replica of the settlement contract's
// pairwise compatibility gate, run before spending gas on a real
// transaction attempt. All checks are pure; the optional simulator is
// consulted last.
type MatchValidator struct {
	simulator MatchSimulator
	now       func() time.Time
}

// NewMatchValidator creates a MatchValidator. A nil simulator skips
// the final on-chain check.
func NewMatchValidator(simulator MatchSimulator) *MatchValidator {
	return &MatchValidator{simulator: simulator, now: time.Now}
}

func incompatible(reason MatchReason, detail string) *MatchResult {
	return &MatchResult{Compatible: false, Reason: reason, Detail: detail}
}

// ValidateMatch checks whether a buy and a sell order would be
// accepted by the settlement contract's matching rules. An
// incompatibility is reported in the result, not as an error; the
// error return is reserved for simulator failures.
func (mv *MatchValidator) ValidateMatch(ctx context.Context, buy, sell *HashedOrder) (*MatchResult, error) {
	if buy == nil || sell == nil {
		return nil, constructionErrorf(CodeInvalidOrder, "both orders are required")
	}

	if buy.Side != SideBuy || sell.Side != SideSell {
		return incompatible(ReasonWrongSides,
			fmt.Sprintf("buy side=%d sell side=%d", buy.Side, sell.Side)), nil
	}
	if buy.FeeMethod != sell.FeeMethod {
		return incompatible(ReasonFeeMethodMismatch,
			fmt.Sprintf("buy=%d sell=%d", buy.FeeMethod, sell.FeeMethod)), nil
	}
	if normalizeAddress(buy.PaymentToken) != normalizeAddress(sell.PaymentToken) {
		return incompatible(ReasonPaymentTokenMismatch,
			fmt.Sprintf("buy=%s sell=%s", buy.PaymentToken, sell.PaymentToken)), nil
	}
	if sellTaker := normalizeAddress(sell.Taker); sellTaker != NullAddress && sellTaker != normalizeAddress(buy.Maker) {
		return incompatible(ReasonSellTakerMismatch,
			fmt.Sprintf("sell order is reserved for %s", sellTaker)), nil
	}
	if buyTaker := normalizeAddress(buy.Taker); buyTaker != NullAddress && buyTaker != normalizeAddress(sell.Maker) {
		return incompatible(ReasonBuyTakerMismatch,
			fmt.Sprintf("buy order is reserved for %s", buyTaker)), nil
	}
	buyHasRecipient := normalizeAddress(buy.FeeRecipient) != NullAddress
	sellHasRecipient := normalizeAddress(sell.FeeRecipient) != NullAddress
	if buyHasRecipient == sellHasRecipient {
		return incompatible(ReasonFeeRecipientAmbiguous,
			fmt.Sprintf("buy recipient=%s sell recipient=%s", buy.FeeRecipient, sell.FeeRecipient)), nil
	}
	if normalizeAddress(buy.Target) != normalizeAddress(sell.Target) {
		return incompatible(ReasonTargetMismatch,
			fmt.Sprintf("buy=%s sell=%s", buy.Target, sell.Target)), nil
	}
	if buy.HowToCall != sell.HowToCall {
		return incompatible(ReasonCallConventionMismatch,
			fmt.Sprintf("buy=%d sell=%d", buy.HowToCall, sell.HowToCall)), nil
	}

	now := mv.now().Unix()
	if result := checkLiveness(&buy.Order, "buy", now); result != nil {
		return result, nil
	}
	if result := checkLiveness(&sell.Order, "sell", now); result != nil {
		return result, nil
	}

	if mv.simulator != nil {
		canMatch, err := mv.simulator.OrdersCanMatch(ctx, buy, sell)
		if err != nil {
			return nil, collaboratorError("match simulation", err)
		}
		if !canMatch {
			// Every explicit check passed but the contract disagrees,
			// usually clock skew between the client and the node.
			return incompatible(ReasonClockSkewOrUnknown,
				fmt.Sprintf("all client-side checks passed but on-chain simulation rejected the pair (buy=%s sell=%s)",
					buy.Hash, sell.Hash)), nil
		}
	}

	return &MatchResult{Compatible: true}, nil
}

// checkLiveness verifies an order's own window is currently open:
// listed in the past and not yet expired (zero expiration never
// expires).
func checkLiveness(o *Order, side string, now int64) *MatchResult {
	if o.ListingTime >= now {
		return incompatible(ReasonOrderNotYetListed,
			fmt.Sprintf("%s order lists at %d", side, o.ListingTime))
	}
	if o.ExpirationTime != 0 && now >= o.ExpirationTime {
		return incompatible(ReasonOrderExpired,
			fmt.Sprintf("%s order expired at %d", side, o.ExpirationTime))
	}
	return nil
}

// CalldataCompatible reports whether two calldatas can be merged under
// their replacement patterns: every differing byte must be replaceable
// on at least one side. Exposed for pre-flight diagnostics; the
// settlement contract performs the authoritative merge.
func CalldataCompatible(buy, sell *Order) bool {
	if len(buy.Calldata) != len(sell.Calldata) {
		return false
	}
	merged := make([]byte, len(buy.Calldata))
	copy(merged, buy.Calldata)
	applyMask(merged, sell.Calldata, buy.ReplacementPattern)

	theirs := make([]byte, len(sell.Calldata))
	copy(theirs, sell.Calldata)
	applyMask(theirs, buy.Calldata, sell.ReplacementPattern)

	return bytes.Equal(merged, theirs)
}

func applyMask(dst, src, mask []byte) {
	for i := 0; i < len(dst) && i < len(src) && i < len(mask); i++ {
		if mask[i] != 0 {
			dst[i] = src[i]
		}
	}
}
