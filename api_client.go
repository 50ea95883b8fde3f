package wyvernexchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"time"
)

// APIClient handles HTTP requests to the exchange orderbook and
// metadata API. It implements FeeScheduleSource, TransferFeeSource
// and TokenRegistry.
type APIClient struct {
	host    string
	apiKey  string
	chainID ChainID
	client  *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(host, apiKey string, chainID ChainID) *APIClient {
	return &APIClient{
		host:    host,
		apiKey:  apiKey,
		chainID: chainID,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// doRequest performs an HTTP request
func (c *APIClient) doRequest(ctx context.Context, method, endpoint string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	url := fmt.Sprintf("%s%s", c.host, endpoint)
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

// decodeJSONResponse reads the response body, checks HTTP status, and decodes JSON
func (c *APIClient) decodeJSONResponse(resp *http.Response, result interface{}) error {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		bodyStr := string(bodyBytes)
		if bodyStr == "" {
			bodyStr = resp.Status
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, bodyStr)
	}

	if err := json.Unmarshal(bodyBytes, result); err != nil {
		bodyStr := string(bodyBytes)
		if len(bodyStr) > 200 {
			bodyStr = bodyStr[:200] + "..."
		}
		return fmt.Errorf("failed to decode JSON response: %w (body: %s)", err, bodyStr)
	}

	return nil
}

// CollectionJSON is the metadata API's view of a collection's fee
// configuration, all in basis points.
type CollectionJSON struct {
	Slug                         string `json:"slug"`
	Address                      string `json:"address"`
	PlatformBuyerFeeBasisPoints  int64  `json:"platformBuyerFeeBasisPoints"`
	PlatformSellerFeeBasisPoints int64  `json:"platformSellerFeeBasisPoints"`
	DevBuyerFeeBasisPoints       int64  `json:"devBuyerFeeBasisPoints"`
	DevSellerFeeBasisPoints      int64  `json:"devSellerFeeBasisPoints"`
}

// PaymentTokenJSON is the metadata API's view of an accepted payment
// token.
type PaymentTokenJSON struct {
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
	Symbol   string `json:"symbol"`
}

// AssetJSONDetail carries per-asset metadata, including the optional
// fee-on-transfer configuration some tokens enforce.
type AssetJSONDetail struct {
	Address                 string `json:"address"`
	TokenID                 string `json:"id"`
	Schema                  string `json:"schema"`
	Decimals                int    `json:"decimals"`
	TransferFee             string `json:"transferFee,omitempty"`
	TransferFeePaymentToken string `json:"transferFeePaymentToken,omitempty"`
}

// OrderQuery filters orderbook queries.
type OrderQuery struct {
	Maker        string
	Target       string
	TokenID      string
	Side         *Side
	SaleKind     *SaleKind
	PaymentToken string
	Limit        int
	Offset       int
}

func (q OrderQuery) encode(chainID ChainID) string {
	v := url.Values{}
	v.Set("chainId", fmt.Sprintf("%d", chainID))
	if q.Maker != "" {
		v.Set("maker", normalizeAddress(q.Maker))
	}
	if q.Target != "" {
		v.Set("target", normalizeAddress(q.Target))
	}
	if q.TokenID != "" {
		v.Set("tokenId", q.TokenID)
	}
	if q.Side != nil {
		v.Set("side", fmt.Sprintf("%d", *q.Side))
	}
	if q.SaleKind != nil {
		v.Set("saleKind", fmt.Sprintf("%d", *q.SaleKind))
	}
	if q.PaymentToken != "" {
		v.Set("paymentToken", normalizeAddress(q.PaymentToken))
	}
	if q.Limit > 0 {
		v.Set("limit", fmt.Sprintf("%d", q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", fmt.Sprintf("%d", q.Offset))
	}
	return v.Encode()
}

// GetCollection fetches fee configuration for a collection contract.
func (c *APIClient) GetCollection(ctx context.Context, address string) (*CollectionJSON, error) {
	endpoint := fmt.Sprintf("/v1/collection/%s?chainId=%d", normalizeAddress(address), c.chainID)
	resp, err := c.doRequest(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result CollectionJSON
	if err := c.decodeJSONResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FeeSchedule implements FeeScheduleSource against the metadata API.
func (c *APIClient) FeeSchedule(ctx context.Context, collection string) (*FeeSchedule, error) {
	coll, err := c.GetCollection(ctx, collection)
	if err != nil {
		return nil, err
	}
	return &FeeSchedule{
		PlatformBuyerBPS:    coll.PlatformBuyerFeeBasisPoints,
		PlatformSellerBPS:   coll.PlatformSellerFeeBasisPoints,
		CollectionBuyerBPS:  coll.DevBuyerFeeBasisPoints,
		CollectionSellerBPS: coll.DevSellerFeeBasisPoints,
	}, nil
}

// GetPaymentToken fetches a payment token by contract address.
func (c *APIClient) GetPaymentToken(ctx context.Context, address string) (*PaymentTokenJSON, error) {
	endpoint := fmt.Sprintf("/v1/tokens/%s?chainId=%d", normalizeAddress(address), c.chainID)
	resp, err := c.doRequest(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result PaymentTokenJSON
	if err := c.decodeJSONResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PaymentToken implements TokenRegistry against the metadata API.
func (c *APIClient) PaymentToken(ctx context.Context, address string) (*PaymentToken, error) {
	tok, err := c.GetPaymentToken(ctx, address)
	if err != nil {
		return nil, err
	}
	return &PaymentToken{
		Address:  normalizeAddress(tok.Address),
		Decimals: tok.Decimals,
		Symbol:   tok.Symbol,
	}, nil
}

// GetAsset fetches per-asset metadata.
func (c *APIClient) GetAsset(ctx context.Context, address, tokenID string) (*AssetJSONDetail, error) {
	endpoint := fmt.Sprintf("/v1/asset/%s/%s?chainId=%d", normalizeAddress(address), tokenID, c.chainID)
	resp, err := c.doRequest(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result AssetJSONDetail
	if err := c.decodeJSONResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TransferFee implements TransferFeeSource against the metadata API.
// A zero return with no token means the asset charges no fee on
// transfer.
func (c *APIClient) TransferFee(ctx context.Context, asset *AssetDescriptor) (*big.Int, string, error) {
	if asset == nil || asset.TokenID == nil {
		return nil, "", nil
	}
	detail, err := c.GetAsset(ctx, asset.Address, asset.TokenID.String())
	if err != nil {
		return nil, "", err
	}
	if detail.TransferFee == "" {
		return nil, "", nil
	}
	fee, ok := new(big.Int).SetString(detail.TransferFee, 10)
	if !ok {
		return nil, "", fmt.Errorf("invalid transfer fee %q for asset %s/%s",
			detail.TransferFee, asset.Address, asset.TokenID)
	}
	return fee, normalizeAddress(detail.TransferFeePaymentToken), nil
}

// PostOrder submits a signed order to the orderbook and returns the
// stored copy.
func (c *APIClient) PostOrder(ctx context.Context, order *OrderJSON) (*OrderJSON, error) {
	resp, err := c.doRequest(ctx, "POST", fmt.Sprintf("/v1/orders?chainId=%d", c.chainID), order)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result OrderJSON
	if err := c.decodeJSONResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetOrder fetches a single order by hash.
func (c *APIClient) GetOrder(ctx context.Context, hash string) (*OrderJSON, error) {
	endpoint := fmt.Sprintf("/v1/orders/%s?chainId=%d", normalizeHash(hash), c.chainID)
	resp, err := c.doRequest(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result OrderJSON
	if err := c.decodeJSONResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetOrders fetches orderbook entries matching the query.
func (c *APIClient) GetOrders(ctx context.Context, query OrderQuery) ([]*OrderJSON, error) {
	endpoint := "/v1/orders?" + query.encode(c.chainID)
	resp, err := c.doRequest(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result struct {
		Orders []*OrderJSON `json:"orders"`
	}
	if err := c.decodeJSONResponse(resp, &result); err != nil {
		return nil, err
	}
	return result.Orders, nil
}

var _ FeeScheduleSource = (*APIClient)(nil)
var _ TransferFeeSource = (*APIClient)(nil)
var _ TokenRegistry = (*APIClient)(nil)
