package wyvernexchange

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScheduleSource struct {
	schedule *FeeSchedule
	err      error
}

func (s *stubScheduleSource) FeeSchedule(_ context.Context, _ string) (*FeeSchedule, error) {
	return s.schedule, s.err
}

type stubTransferFeeSource struct {
	fee   *big.Int
	token string
	err   error
}

func (s *stubTransferFeeSource) TransferFee(_ context.Context, _ *AssetDescriptor) (*big.Int, string, error) {
	return s.fee, s.token, s.err
}

func testAsset(tokenID int64) *AssetDescriptor {
	return NewAssetDescriptor(StandardERC721,
		"0x06012c8cf97BEaD5deAe237070F9587f8E7A266d", big.NewInt(tokenID), nil)
}

func TestComputeFeesDefaults(t *testing.T) {
	fc := NewFeeCalculator(DefaultPolicy(ChainIDEthereumMainnet), nil, nil)

	fees, err := fc.ComputeFees(context.Background(), testAsset(1), SideSell, 0)
	require.NoError(t, err)

	assert.Equal(t, int64(250), fees.TotalSellerBPS)
	assert.Equal(t, int64(0), fees.TotalBuyerBPS)
	assert.Equal(t, int64(0), fees.SellerBountyBPS)
}

func TestComputeFeesNoAssetContext(t *testing.T) {
	schedules := &stubScheduleSource{schedule: &FeeSchedule{
		PlatformBuyerBPS:  100,
		PlatformSellerBPS: 500,
	}}
	fc := NewFeeCalculator(DefaultPolicy(ChainIDEthereumMainnet), schedules, nil)

	// A heterogeneous bundle carries no collection context, so the
	// schedule source must not be consulted.
	fees, err := fc.ComputeFees(context.Background(), nil, SideSell, 0)
	require.NoError(t, err)

	assert.Equal(t, int64(250), fees.TotalSellerBPS)
	assert.Equal(t, int64(0), fees.TotalBuyerBPS)
}

func TestComputeFeesCollectionSchedule(t *testing.T) {
	schedules := &stubScheduleSource{schedule: &FeeSchedule{
		PlatformBuyerBPS:    50,
		PlatformSellerBPS:   250,
		CollectionBuyerBPS:  100,
		CollectionSellerBPS: 300,
	}}
	fc := NewFeeCalculator(DefaultPolicy(ChainIDEthereumMainnet), schedules, nil)

	fees, err := fc.ComputeFees(context.Background(), testAsset(1), SideSell, 0)
	require.NoError(t, err)

	assert.Equal(t, int64(150), fees.TotalBuyerBPS)
	assert.Equal(t, int64(550), fees.TotalSellerBPS)
	assert.Equal(t, int64(250), fees.PlatformSellerBPS)
	assert.Equal(t, int64(300), fees.CollectionSellerBPS)
}

func TestComputeFeesScheduleLookupFailure(t *testing.T) {
	schedules := &stubScheduleSource{err: fmt.Errorf("metadata service unavailable")}
	fc := NewFeeCalculator(DefaultPolicy(ChainIDEthereumMainnet), schedules, nil)

	_, err := fc.ComputeFees(context.Background(), testAsset(1), SideSell, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCollaborator)
}

func TestComputeFeesInvalidSchedule(t *testing.T) {
	schedules := &stubScheduleSource{schedule: &FeeSchedule{
		PlatformSellerBPS:   9000,
		CollectionSellerBPS: 2000,
	}}
	fc := NewFeeCalculator(DefaultPolicy(ChainIDEthereumMainnet), schedules, nil)

	_, err := fc.ComputeFees(context.Background(), testAsset(1), SideSell, 0)
	requireConstructionCode(t, err, CodeInvalidFeeSchedule)
}

func TestComputeFeesBountyOnlyOnSellSide(t *testing.T) {
	fc := NewFeeCalculator(DefaultPolicy(ChainIDEthereumMainnet), nil, nil)

	fees, err := fc.ComputeFees(context.Background(), testAsset(1), SideBuy, 150)
	require.NoError(t, err)
	assert.Equal(t, int64(0), fees.SellerBountyBPS)
}

func TestComputeFeesBountyBound(t *testing.T) {
	policy := DefaultPolicy(ChainIDEthereumMainnet)
	fc := NewFeeCalculator(policy, nil, nil)

	// Default platform seller fee 250 minus the 100 floor leaves a
	// ceiling of 150.
	fees, err := fc.ComputeFees(context.Background(), testAsset(1), SideSell, 150)
	require.NoError(t, err)
	assert.Equal(t, int64(150), fees.SellerBountyBPS)

	_, err = fc.ComputeFees(context.Background(), testAsset(1), SideSell, 151)
	requireConstructionCode(t, err, CodeBountyExceedsMaximum)
	assert.Contains(t, err.Error(), "150")
}

func TestComputeFeesZeroBountySkipsBound(t *testing.T) {
	// A collection whose platform seller fee sits below the bounty
	// floor must still accept plain sells with no bounty requested.
	schedules := &stubScheduleSource{schedule: &FeeSchedule{
		PlatformSellerBPS: 50,
	}}
	fc := NewFeeCalculator(DefaultPolicy(ChainIDEthereumMainnet), schedules, nil)

	fees, err := fc.ComputeFees(context.Background(), testAsset(1), SideSell, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), fees.SellerBountyBPS)

	_, err = fc.ComputeFees(context.Background(), testAsset(1), SideSell, 1)
	requireConstructionCode(t, err, CodeBountyExceedsMaximum)
}

func TestComputeFeesBountyBoundFollowsCollection(t *testing.T) {
	schedules := &stubScheduleSource{schedule: &FeeSchedule{
		PlatformSellerBPS: 600,
	}}
	fc := NewFeeCalculator(DefaultPolicy(ChainIDEthereumMainnet), schedules, nil)

	fees, err := fc.ComputeFees(context.Background(), testAsset(1), SideSell, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(500), fees.SellerBountyBPS)

	_, err = fc.ComputeFees(context.Background(), testAsset(1), SideSell, 501)
	requireConstructionCode(t, err, CodeBountyExceedsMaximum)
}

func TestComputeFeesTransferFee(t *testing.T) {
	source := &stubTransferFeeSource{
		fee:   big.NewInt(777),
		token: "0x6b175474e89094c44da98b954eedeac495271d0f",
	}
	fc := NewFeeCalculator(DefaultPolicy(ChainIDEthereumMainnet), nil, source)

	fees, err := fc.ComputeFees(context.Background(), testAsset(1), SideSell, 0)
	require.NoError(t, err)
	assert.Equal(t, "777", fees.TransferFee.String())
	assert.Equal(t, source.token, fees.TransferFeeToken)

	// Not consulted on the buy side.
	fees, err = fc.ComputeFees(context.Background(), testAsset(1), SideBuy, 0)
	require.NoError(t, err)
	assert.Nil(t, fees.TransferFee)
}

func TestComputeFeesTransferFeeLookupDegrades(t *testing.T) {
	source := &stubTransferFeeSource{err: fmt.Errorf("lookup timeout")}
	fc := NewFeeCalculator(DefaultPolicy(ChainIDEthereumMainnet), nil, source)

	asset := testAsset(1)
	asset.LastTransferFee = big.NewInt(42)
	asset.TransferFeeToken = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"

	fees, err := fc.ComputeFees(context.Background(), asset, SideSell, 0)
	require.NoError(t, err)
	assert.Equal(t, "42", fees.TransferFee.String())
	assert.Equal(t, asset.TransferFeeToken, fees.TransferFeeToken)
}
