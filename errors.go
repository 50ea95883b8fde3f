package wyvernexchange

import (
	"errors"
	"fmt"
)

var (
	// ErrConstruction is the class sentinel for caller-fixable order
	// construction failures; match with errors.Is.
	ErrConstruction = errors.New("order construction error")

	// ErrCollaborator is the class sentinel for failures of an external
	// dependency (lookup, signing, submission).
	ErrCollaborator = errors.New("collaborator error")
)

// ConstructionCode identifies the rejected invariant of a
// ConstructionError so callers can switch on it instead of matching
// message text.
type ConstructionCode int

const (
	CodeInvalidPrice ConstructionCode = iota + 1
	CodeInvalidPriceRange
	CodeMissingExpirationForPriceChange
	CodeInvalidAuctionPaymentToken
	CodeOffersRequireToken
	CodeInvalidReservePrice
	CodeBountyExceedsMaximum
	CodeInvalidFeeSchedule
	CodeExpirationRequired
	CodeListingInPast
	CodeListingAfterExpiration
	CodeCannotScheduleAuction
	CodeNonIntegerExpiration
	CodeExpirationTooFar
	CodeExpirationTooSoon
	CodeEmptyBundle
	CodeDuplicateBundleAsset
	CodeInvalidAsset
	CodeInvalidOrder
)

// ConstructionError represents invalid price/time/fee/bundle input.
// It is always synchronous and never retried: it indicates a caller
// input problem, surfaced with the offending constraint named.
type ConstructionError struct {
	Code    ConstructionCode
	Message string
}

func (e *ConstructionError) Error() string { return e.Message }

// Is lets errors.Is(err, ErrConstruction) match any construction error.
func (e *ConstructionError) Is(target error) bool { return target == ErrConstruction }

func constructionErrorf(code ConstructionCode, format string, args ...interface{}) *ConstructionError {
	return &ConstructionError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CollaboratorError wraps a failure from an external dependency with
// the operation that failed, without reinterpreting it. Callers may
// retry with backoff.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *CollaboratorError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrCollaborator) match any collaborator error.
func (e *CollaboratorError) Is(target error) bool { return target == ErrCollaborator }

func collaboratorError(op string, err error) *CollaboratorError {
	return &CollaboratorError{Op: op, Err: err}
}

// MatchReason identifies why two orders cannot settle together. The
// values mirror the settlement contract's pairwise compatibility gate,
// in check order.
type MatchReason int

const (
	ReasonNone MatchReason = iota
	ReasonWrongSides
	ReasonFeeMethodMismatch
	ReasonPaymentTokenMismatch
	ReasonSellTakerMismatch
	ReasonBuyTakerMismatch
	ReasonFeeRecipientAmbiguous
	ReasonTargetMismatch
	ReasonCallConventionMismatch
	ReasonOrderNotYetListed
	ReasonOrderExpired
	ReasonClockSkewOrUnknown
)

var matchReasonNames = map[MatchReason]string{
	ReasonNone:                   "",
	ReasonWrongSides:             "orders must be one buy and one sell",
	ReasonFeeMethodMismatch:      "fee methods differ",
	ReasonPaymentTokenMismatch:   "payment tokens differ",
	ReasonSellTakerMismatch:      "sell order is reserved for a different buyer",
	ReasonBuyTakerMismatch:       "buy order is reserved for a different seller",
	ReasonFeeRecipientAmbiguous:  "exactly one order must carry the fee recipient",
	ReasonTargetMismatch:         "call targets differ",
	ReasonCallConventionMismatch: "call conventions differ",
	ReasonOrderNotYetListed:      "order is not yet listed",
	ReasonOrderExpired:           "order has expired",
	ReasonClockSkewOrUnknown:     "orders could not be matched, likely due to clock skew between client and chain",
}

func (r MatchReason) String() string { return matchReasonNames[r] }
