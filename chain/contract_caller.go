package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ContractCaller handles read-only settlement contract interactions
// and order signing.
type ContractCaller struct {
	client             *ethclient.Client
	privateKey         *ecdsa.PrivateKey
	exchangeAddr       common.Address
	exchangeABI        abi.ABI
	erc20ABI           abi.ABI
	tokenDecimalsCache map[string]int
}

// NewContractCaller creates a new ContractCaller instance. The private
// key is optional; without one the caller is read-only.
func NewContractCaller(rpcURL, privateKeyHex, exchangeAddr string) (*ContractCaller, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	var privateKey *ecdsa.PrivateKey
	if privateKeyHex != "" {
		privateKey, err = crypto.HexToECDSA(privateKeyHex)
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
	}

	return &ContractCaller{
		client:             client,
		privateKey:         privateKey,
		exchangeAddr:       common.HexToAddress(exchangeAddr),
		exchangeABI:        GetExchangeABI(),
		erc20ABI:           GetERC20ABI(),
		tokenDecimalsCache: make(map[string]int),
	}, nil
}

// Close releases the underlying RPC connection
func (cc *ContractCaller) Close() {
	if cc.client != nil {
		cc.client.Close()
	}
}

// SignerAddress returns the address of the signing key, or the zero
// address when no key is configured.
func (cc *ContractCaller) SignerAddress() common.Address {
	if cc.privateKey == nil {
		return common.Address{}
	}
	publicKey := cc.privateKey.Public()
	publicKeyECDSA, _ := publicKey.(*ecdsa.PublicKey)
	return crypto.PubkeyToAddress(*publicKeyECDSA)
}

// SignHash signs a 32-byte digest and returns the signature with the
// legacy +27 recovery id convention the settlement contract expects.
func (cc *ContractCaller) SignHash(hash common.Hash) (v uint8, r, s common.Hash, err error) {
	if cc.privateKey == nil {
		return 0, common.Hash{}, common.Hash{}, fmt.Errorf("no signing key configured")
	}
	signature, err := crypto.Sign(hash.Bytes(), cc.privateKey)
	if err != nil {
		return 0, common.Hash{}, common.Hash{}, fmt.Errorf("failed to sign hash: %w", err)
	}

	v = signature[64] + 27
	copy(r[:], signature[0:32])
	copy(s[:], signature[32:64])
	return v, r, s, nil
}

// OrdersCanMatch asks the settlement contract whether two orders would
// be accepted for matching, without submitting a transaction.
func (cc *ContractCaller) OrdersCanMatch(ctx context.Context, buy, sell *Order) (bool, error) {
	addrs := [14]common.Address{
		buy.Exchange, buy.Maker, buy.Taker, buy.FeeRecipient, buy.Target, buy.StaticTarget, buy.PaymentToken,
		sell.Exchange, sell.Maker, sell.Taker, sell.FeeRecipient, sell.Target, sell.StaticTarget, sell.PaymentToken,
	}
	uints := [18]*big.Int{
		buy.MakerRelayerFee, buy.TakerRelayerFee, buy.MakerProtocolFee, buy.TakerProtocolFee,
		buy.BasePrice, buy.Extra, buy.ListingTime, buy.ExpirationTime, buy.Salt,
		sell.MakerRelayerFee, sell.TakerRelayerFee, sell.MakerProtocolFee, sell.TakerProtocolFee,
		sell.BasePrice, sell.Extra, sell.ListingTime, sell.ExpirationTime, sell.Salt,
	}
	feeMethodsSidesKindsHowToCalls := [8]uint8{
		buy.FeeMethod, buy.Side, buy.SaleKind, buy.HowToCall,
		sell.FeeMethod, sell.Side, sell.SaleKind, sell.HowToCall,
	}

	input, err := cc.exchangeABI.Pack("ordersCanMatch_",
		addrs,
		uints,
		feeMethodsSidesKindsHowToCalls,
		buy.Calldata,
		sell.Calldata,
		buy.ReplacementPattern,
		sell.ReplacementPattern,
		buy.StaticExtradata,
		sell.StaticExtradata,
	)
	if err != nil {
		return false, fmt.Errorf("failed to encode ordersCanMatch_ call: %w", err)
	}

	output, err := cc.client.CallContract(ctx, ethereum.CallMsg{
		To:   &cc.exchangeAddr,
		Data: input,
	}, nil)
	if err != nil {
		return false, fmt.Errorf("ordersCanMatch_ call failed: %w", err)
	}

	results, err := cc.exchangeABI.Unpack("ordersCanMatch_", output)
	if err != nil {
		return false, fmt.Errorf("failed to decode ordersCanMatch_ result: %w", err)
	}
	canMatch, ok := results[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected ordersCanMatch_ result type %T", results[0])
	}

	return canMatch, nil
}

// TokenDecimals reads a token's decimals() with caching
func (cc *ContractCaller) TokenDecimals(ctx context.Context, tokenAddr common.Address) (int, error) {
	tokenKey := tokenAddr.Hex()

	if decimals, ok := cc.tokenDecimalsCache[tokenKey]; ok {
		return decimals, nil
	}

	input, err := cc.erc20ABI.Pack("decimals")
	if err != nil {
		return 0, fmt.Errorf("failed to encode decimals call: %w", err)
	}

	output, err := cc.client.CallContract(ctx, ethereum.CallMsg{
		To:   &tokenAddr,
		Data: input,
	}, nil)
	if err != nil {
		return 0, fmt.Errorf("decimals call failed for %s: %w", tokenKey, err)
	}

	results, err := cc.erc20ABI.Unpack("decimals", output)
	if err != nil {
		return 0, fmt.Errorf("failed to decode decimals result: %w", err)
	}
	raw, ok := results[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals result type %T", results[0])
	}

	decimals := int(raw)
	cc.tokenDecimalsCache[tokenKey] = decimals
	return decimals, nil
}
