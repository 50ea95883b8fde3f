package wyvernexchange

import (
	"context"
	"math/big"
)

// FeeScheduleSource looks up a collection's fee schedule. Implemented
// by the orderbook API client.
type FeeScheduleSource interface {
	FeeSchedule(ctx context.Context, collection string) (*FeeSchedule, error)
}

// TransferFeeSource looks up a token-level fee-on-transfer for an
// asset, for the rare standards that charge one.
type TransferFeeSource interface {
	TransferFee(ctx context.Context, asset *AssetDescriptor) (*big.Int, string, error)
}

// FeeCalculator computes buyer/seller fee basis points, the optional
// referral bounty, and validates them against protocol bounds.
type FeeCalculator struct {
	policy       Policy
	schedules    FeeScheduleSource
	transferFees TransferFeeSource
}

// NewFeeCalculator creates a FeeCalculator. Both sources may be nil,
// in which case protocol defaults apply and transfer fees are taken
// from the asset's last server-reported value.
func NewFeeCalculator(policy Policy, schedules FeeScheduleSource, transferFees TransferFeeSource) *FeeCalculator {
	return &FeeCalculator{policy: policy, schedules: schedules, transferFees: transferFees}
}

// ComputeFees derives the fee fields for one order build. A nil asset
// (heterogeneous bundle) falls back to protocol-wide defaults.
func (fc *FeeCalculator) ComputeFees(ctx context.Context, asset *AssetDescriptor, side Side, extraBountyBPS int64) (*ComputedFees, error) {
	schedule := &FeeSchedule{
		PlatformBuyerBPS:  fc.policy.DefaultBuyerFeeBPS,
		PlatformSellerBPS: fc.policy.DefaultSellerFeeBPS,
	}
	if asset != nil && fc.schedules != nil {
		looked, err := fc.schedules.FeeSchedule(ctx, asset.Address)
		if err != nil {
			return nil, collaboratorError("fee schedule lookup", err)
		}
		schedule = looked
	}

	fees := &ComputedFees{
		PlatformBuyerBPS:    schedule.PlatformBuyerBPS,
		PlatformSellerBPS:   schedule.PlatformSellerBPS,
		CollectionBuyerBPS:  schedule.CollectionBuyerBPS,
		CollectionSellerBPS: schedule.CollectionSellerBPS,
		TotalBuyerBPS:       schedule.PlatformBuyerBPS + schedule.CollectionBuyerBPS,
		TotalSellerBPS:      schedule.PlatformSellerBPS + schedule.CollectionSellerBPS,
	}
	if fees.TotalBuyerBPS < 0 || fees.TotalBuyerBPS > BasisPointDenominator ||
		fees.TotalSellerBPS < 0 || fees.TotalSellerBPS > BasisPointDenominator {
		return nil, constructionErrorf(CodeInvalidFeeSchedule,
			"total fees must stay within 0-%d basis points, got buyer %d / seller %d",
			BasisPointDenominator, fees.TotalBuyerBPS, fees.TotalSellerBPS)
	}

	if side == SideSell {
		fees.SellerBountyBPS = extraBountyBPS
	}

	// Referral bounties come out of the platform's seller fee, so the
	// collection's platform seller fee is the ceiling. The bound only
	// applies when a bounty is actually requested.
	if fees.SellerBountyBPS > 0 {
		maxBountyBPS := schedule.PlatformSellerBPS
		if fees.SellerBountyBPS+fc.policy.PlatformBountyFloorBPS > maxBountyBPS {
			return nil, constructionErrorf(CodeBountyExceedsMaximum,
				"bounty of %d basis points exceeds the maximum of %d for this collection",
				fees.SellerBountyBPS, maxBountyBPS-fc.policy.PlatformBountyFloorBPS)
		}
	}

	if side == SideSell && asset != nil {
		fees.TransferFee, fees.TransferFeeToken = fc.lookupTransferFee(ctx, asset)
	}

	return fees, nil
}

// lookupTransferFee is best-effort: a failed live lookup degrades to
// the asset's last server-reported value rather than failing the whole
// fee computation.
func (fc *FeeCalculator) lookupTransferFee(ctx context.Context, asset *AssetDescriptor) (*big.Int, string) {
	if fc.transferFees != nil {
		fee, token, err := fc.transferFees.TransferFee(ctx, asset)
		if err == nil {
			return fee, token
		}
	}
	return asset.LastTransferFee, asset.TransferFeeToken
}
