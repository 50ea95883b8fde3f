package wyvernexchange

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/wyvernlabs/wyvern-exchange-sdk-go/chain"
)

// Client is the main SDK client. It composes the orderbook API, the
// on-chain caller, and the order construction engine, and caches the
// slow-moving metadata (payment tokens, collection fee schedules)
// between calls.
type Client struct {
	apiClient      *APIClient
	contractCaller *chain.ContractCaller
	chainID        ChainID
	policy         Policy

	builder   *OrderBuilder
	validator *MatchValidator

	tokenCache       map[string]tokenCacheEntry
	tokenCacheTTL    time.Duration
	scheduleCache    map[string]scheduleCacheEntry
	scheduleCacheTTL time.Duration
	cacheMutex       sync.RWMutex
}

type tokenCacheEntry struct {
	token     *PaymentToken
	timestamp time.Time
}

type scheduleCacheEntry struct {
	schedule  *FeeSchedule
	timestamp time.Time
}

// ClientConfig holds configuration for creating a Client
type ClientConfig struct {
	Host   string
	APIKey string

	ChainID ChainID

	// RPCURL and PrivateKey enable on-chain features: signing and
	// settlement-contract match simulation. Leave both empty for
	// offline order construction.
	RPCURL     string
	PrivateKey string

	// ExchangeAddr, AtomicizerAddr and FeeRecipientAddr default to the
	// chain's deployed contracts.
	ExchangeAddr     string
	AtomicizerAddr   string
	FeeRecipientAddr string

	TokenCacheTTL    time.Duration
	ScheduleCacheTTL time.Duration
}

// NewClient creates a new exchange SDK client
func NewClient(config ClientConfig) (*Client, error) {
	isSupported := false
	for _, supportedID := range SupportedChainIDs {
		if config.ChainID == supportedID {
			isSupported = true
			break
		}
	}
	if !isSupported {
		return nil, constructionErrorf(CodeInvalidOrder, "chain_id must be one of %v", SupportedChainIDs)
	}

	contracts := DefaultContractAddresses[config.ChainID]
	if config.ExchangeAddr == "" {
		config.ExchangeAddr = contracts.Exchange
	}
	if config.AtomicizerAddr == "" {
		config.AtomicizerAddr = contracts.Atomicizer
	}
	if config.FeeRecipientAddr == "" {
		config.FeeRecipientAddr = contracts.FeeRecipient
	}

	if config.TokenCacheTTL == 0 {
		config.TokenCacheTTL = 1 * time.Hour
	}
	if config.ScheduleCacheTTL == 0 {
		config.ScheduleCacheTTL = 5 * time.Minute
	}

	policy := DefaultPolicy(config.ChainID)
	policy.Exchange = normalizeAddress(config.ExchangeAddr)
	policy.Atomicizer = normalizeAddress(config.AtomicizerAddr)
	policy.FeeRecipient = normalizeAddress(config.FeeRecipientAddr)

	apiClient := NewAPIClient(config.Host, config.APIKey, config.ChainID)

	c := &Client{
		apiClient:        apiClient,
		chainID:          config.ChainID,
		policy:           policy,
		tokenCache:       make(map[string]tokenCacheEntry),
		tokenCacheTTL:    config.TokenCacheTTL,
		scheduleCache:    make(map[string]scheduleCacheEntry),
		scheduleCacheTTL: config.ScheduleCacheTTL,
	}

	if config.RPCURL != "" {
		contractCaller, err := chain.NewContractCaller(config.RPCURL, config.PrivateKey, config.ExchangeAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to create contract caller: %w", err)
		}
		c.contractCaller = contractCaller
	}

	// The client itself is the fee schedule and token source seen by
	// the builder, so every lookup goes through the caches.
	fees := NewFeeCalculator(policy, c, apiClient)
	c.builder = NewOrderBuilder(policy, fees, c)

	if c.contractCaller != nil {
		c.validator = NewMatchValidator(c)
	} else {
		c.validator = NewMatchValidator(nil)
	}

	return c, nil
}

// Close closes the client and cleans up resources
func (c *Client) Close() {
	if c.contractCaller != nil {
		c.contractCaller.Close()
	}
}

// Policy returns the construction policy the client was built with.
func (c *Client) Policy() Policy {
	return c.policy
}

// API exposes the underlying orderbook API client.
func (c *Client) API() *APIClient {
	return c.apiClient
}

// PaymentToken resolves a payment token, caching results for the
// configured TTL. Implements TokenRegistry.
func (c *Client) PaymentToken(ctx context.Context, address string) (*PaymentToken, error) {
	key := normalizeAddress(address)
	if key == NullAddress {
		return &NativePaymentToken, nil
	}

	c.cacheMutex.RLock()
	entry, ok := c.tokenCache[key]
	c.cacheMutex.RUnlock()
	if ok && time.Since(entry.timestamp) < c.tokenCacheTTL {
		return entry.token, nil
	}

	token, err := c.apiClient.PaymentToken(ctx, key)
	if err != nil {
		// The API does not know every ERC20; fall back to the on-chain
		// decimals() call when an RPC endpoint is available.
		if c.contractCaller == nil {
			return nil, err
		}
		token, err = c.paymentTokenFromChain(ctx, key)
		if err != nil {
			return nil, err
		}
	}

	c.cacheMutex.Lock()
	c.tokenCache[key] = tokenCacheEntry{token: token, timestamp: time.Now()}
	c.cacheMutex.Unlock()
	return token, nil
}

func (c *Client) paymentTokenFromChain(ctx context.Context, address string) (*PaymentToken, error) {
	decimals, err := c.contractCaller.TokenDecimals(ctx, common.HexToAddress(address))
	if err != nil {
		return nil, err
	}
	return &PaymentToken{Address: address, Decimals: decimals}, nil
}

// FeeSchedule resolves a collection's fee schedule, caching results
// for the configured TTL. Implements FeeScheduleSource.
func (c *Client) FeeSchedule(ctx context.Context, collection string) (*FeeSchedule, error) {
	key := normalizeAddress(collection)

	c.cacheMutex.RLock()
	entry, ok := c.scheduleCache[key]
	c.cacheMutex.RUnlock()
	if ok && time.Since(entry.timestamp) < c.scheduleCacheTTL {
		return entry.schedule, nil
	}

	schedule, err := c.apiClient.FeeSchedule(ctx, key)
	if err != nil {
		return nil, err
	}

	c.cacheMutex.Lock()
	c.scheduleCache[key] = scheduleCacheEntry{schedule: schedule, timestamp: time.Now()}
	c.cacheMutex.Unlock()
	return schedule, nil
}

// OrdersCanMatch implements MatchSimulator by asking the settlement
// contract directly.
func (c *Client) OrdersCanMatch(ctx context.Context, buy, sell *HashedOrder) (bool, error) {
	if c.contractCaller == nil {
		return false, &CollaboratorError{Op: "ordersCanMatch", Err: fmt.Errorf("no RPC endpoint configured")}
	}
	return c.contractCaller.OrdersCanMatch(ctx, buy.Order.chainOrder(), sell.Order.chainOrder())
}

// BuildSellOrder builds an unsigned sell order from a listing request.
func (c *Client) BuildSellOrder(ctx context.Context, req *SellOrderRequest) (*Order, error) {
	return c.builder.BuildSellOrder(ctx, req)
}

// BuildBuyOrder builds an unsigned buy order from an offer request.
func (c *Client) BuildBuyOrder(ctx context.Context, req *BuyOrderRequest) (*Order, error) {
	return c.builder.BuildBuyOrder(ctx, req)
}

// MirrorOrder builds the unsigned counter-order that fills an existing
// order.
func (c *Client) MirrorOrder(order *Order, req *MirrorRequest) (*Order, error) {
	return c.builder.MirrorOrder(order, req)
}

// HashOrder computes an order's canonical hash.
func (c *Client) HashOrder(order *Order) (*HashedOrder, error) {
	return HashOrder(order)
}

// SignOrder hashes an order and signs it with the configured key.
func (c *Client) SignOrder(order *Order) (*SignedOrder, error) {
	if c.contractCaller == nil {
		return nil, &CollaboratorError{Op: "signOrder", Err: fmt.Errorf("no signing key configured")}
	}
	hashed, err := HashOrder(order)
	if err != nil {
		return nil, err
	}
	v, r, s, err := c.contractCaller.SignHash(hashed.SignHash())
	if err != nil {
		return nil, &CollaboratorError{Op: "signOrder", Err: err}
	}
	return &SignedOrder{
		HashedOrder: *hashed,
		Signature: Signature{
			V: v,
			R: hexutil.Encode(r[:]),
			S: hexutil.Encode(s[:]),
		},
	}, nil
}

// ValidateMatch checks whether a buy/sell pair would settle.
func (c *Client) ValidateMatch(ctx context.Context, buy, sell *HashedOrder) (*MatchResult, error) {
	return c.validator.ValidateMatch(ctx, buy, sell)
}

// EstimateCurrentPrice reports an order's current price, fee-adjusted
// for sell orders.
func (c *Client) EstimateCurrentPrice(order *Order, backtrackSeconds int64, rounding PriceRounding) (*big.Int, error) {
	return EstimateCurrentPrice(order, time.Now(), backtrackSeconds, rounding)
}

// PostOrder signs an order and submits it to the orderbook.
func (c *Client) PostOrder(ctx context.Context, order *Order) (*SignedOrder, error) {
	signed, err := c.SignOrder(order)
	if err != nil {
		return nil, err
	}
	if _, err := c.apiClient.PostOrder(ctx, signed.ToJSON()); err != nil {
		return nil, &CollaboratorError{Op: "postOrder", Err: err}
	}
	return signed, nil
}
