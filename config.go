package wyvernexchange

import "time"

// ChainID represents a blockchain chain ID
type ChainID int

const (
	ChainIDEthereumMainnet ChainID = 1
	ChainIDPolygonMainnet  ChainID = 137
)

// SupportedChainIDs lists all supported chain IDs
var SupportedChainIDs = []ChainID{ChainIDEthereumMainnet, ChainIDPolygonMainnet}

// ContractAddresses holds contract addresses for each chain
type ContractAddresses struct {
	Exchange      string
	Atomicizer    string
	WrappedNative string
	FeeRecipient  string
}

// DefaultContractAddresses maps chain IDs to their contract addresses
var DefaultContractAddresses = map[ChainID]ContractAddresses{
	ChainIDEthereumMainnet: {
		Exchange:      "0x7Be8076f4EA4A4AD08075C2508e481d6C946D12b",
		Atomicizer:    "0xC99f70bFD82fb7c8f8191fdfbFB735606b15e5c5",
		WrappedNative: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		FeeRecipient:  "0x5b3256965e7C3cF26E11FCAf296DfC8807C01073",
	},
	ChainIDPolygonMainnet: {
		Exchange:      "0x58807baD0B376efc12F5AD86aAc70E78ed67deaE",
		Atomicizer:    "0xE2d12A1715403B8c3B62acE43A1dabc45Ca254c3",
		WrappedNative: "0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619",
		FeeRecipient:  "0x5b3256965e7C3cF26E11FCAf296DfC8807C01073",
	},
}

const (
	// NullAddress is the zero address, used as the "no account"
	// sentinel for takers and fee recipients, and as the
	// native-currency payment token sentinel.
	NullAddress = "0x0000000000000000000000000000000000000000"

	// NativeTokenDecimals is the fixed decimal convention for the
	// chain's native currency.
	NativeTokenDecimals = 18

	// BasisPointDenominator is the fee denominator: 10000 bps == 100%.
	BasisPointDenominator = 10000
)

// Policy holds the protocol-enforced order construction constants.
// It is frozen at client construction time and passed into each
// component constructor, so tests can vary policy without touching
// logic.
type Policy struct {
	// DefaultBuyerFeeBPS and DefaultSellerFeeBPS apply when no
	// collection fee schedule is available.
	DefaultBuyerFeeBPS  int64
	DefaultSellerFeeBPS int64

	// PlatformBountyFloorBPS is the share of the seller fee the
	// platform always keeps; referral bounties come out of the rest.
	PlatformBountyFloorBPS int64

	// MinOrderWindow is the shortest allowed listing-to-expiration
	// window for immediate (non-auction) orders.
	MinOrderWindow time.Duration

	// MaxOrderDuration bounds how far in the future an order may
	// expire.
	MaxOrderDuration time.Duration

	// ListingClockSkewOffset is subtracted from "now" when no listing
	// time is requested, so fresh orders are live despite small clock
	// skew between client and orderbook.
	ListingClockSkewOffset time.Duration

	// ListingPastTolerance is how far in the past an explicit listing
	// time may be before it is rejected.
	ListingPastTolerance time.Duration

	// AuctionSettlementLatency is added to an English auction's
	// expiration so the orderbook has time to match the winning bid.
	AuctionSettlementLatency time.Duration

	// FeeRecipient is the platform account that collects relayer fees
	// on public orders.
	FeeRecipient string

	// Exchange is the settlement contract address orders are bound to.
	Exchange string

	// Atomicizer is the multi-call proxy used for bundle orders.
	Atomicizer string
}

// DefaultPolicy returns the protocol policy for a chain.
func DefaultPolicy(chainID ChainID) Policy {
	contracts := DefaultContractAddresses[chainID]
	return Policy{
		DefaultBuyerFeeBPS:       0,
		DefaultSellerFeeBPS:      250,
		PlatformBountyFloorBPS:   100,
		MinOrderWindow:           15 * time.Minute,
		MaxOrderDuration:         180 * 24 * time.Hour,
		ListingClockSkewOffset:   1 * time.Minute,
		ListingPastTolerance:     5 * time.Minute,
		AuctionSettlementLatency: 7 * 24 * time.Hour,
		FeeRecipient:             normalizeAddress(contracts.FeeRecipient),
		Exchange:                 normalizeAddress(contracts.Exchange),
		Atomicizer:               normalizeAddress(contracts.Atomicizer),
	}
}
