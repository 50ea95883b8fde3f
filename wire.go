package wyvernexchange

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// OrderJSON is the canonical wire representation of an order: a flat
// JSON object with big integers as decimal strings, byte fields as
// 0x-prefixed hex, and addresses lower-cased. It round-trips
// losslessly through HashOrder.
type OrderJSON struct {
	Exchange                   string             `json:"exchange"`
	Maker                      string             `json:"maker"`
	Taker                      string             `json:"taker"`
	MakerRelayerFee            string             `json:"makerRelayerFee"`
	TakerRelayerFee            string             `json:"takerRelayerFee"`
	MakerProtocolFee           string             `json:"makerProtocolFee"`
	TakerProtocolFee           string             `json:"takerProtocolFee"`
	MakerReferrerFee           string             `json:"makerReferrerFee"`
	FeeRecipient               string             `json:"feeRecipient"`
	FeeMethod                  int                `json:"feeMethod"`
	Side                       int                `json:"side"`
	SaleKind                   int                `json:"saleKind"`
	Target                     string             `json:"target"`
	HowToCall                  int                `json:"howToCall"`
	Calldata                   string             `json:"calldata"`
	ReplacementPattern         string             `json:"replacementPattern"`
	StaticTarget               string             `json:"staticTarget"`
	StaticExtradata            string             `json:"staticExtradata"`
	PaymentToken               string             `json:"paymentToken"`
	BasePrice                  string             `json:"basePrice"`
	Extra                      string             `json:"extra"`
	ListingTime                string             `json:"listingTime"`
	ExpirationTime             string             `json:"expirationTime"`
	Salt                       string             `json:"salt"`
	Metadata                   *OrderMetadataJSON `json:"metadata,omitempty"`
	WaitingForBestCounterOrder bool               `json:"waitingForBestCounterOrder,omitempty"`
	EnglishAuctionReservePrice string             `json:"englishAuctionReservePrice,omitempty"`
	Hash                       string             `json:"hash,omitempty"`
	V                          uint8              `json:"v,omitempty"`
	R                          string             `json:"r,omitempty"`
	S                          string             `json:"s,omitempty"`
}

// AssetJSON is the wire representation of an asset descriptor.
type AssetJSON struct {
	Standard string `json:"schema"`
	Address  string `json:"address"`
	TokenID  string `json:"id,omitempty"`
	Quantity string `json:"quantity"`
	Decimals int    `json:"decimals,omitempty"`
}

// OrderMetadataJSON is the wire representation of order metadata.
type OrderMetadataJSON struct {
	Asset  *AssetJSON   `json:"asset,omitempty"`
	Bundle []*AssetJSON `json:"bundle,omitempty"`
}

func bigString(v *big.Int) string {
	return orZero(v).String()
}

func parseTimestamp(s, field string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, constructionErrorf(CodeInvalidOrder, "invalid %s: %q", field, s)
	}
	return v, nil
}

func parseBig(s, field string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, constructionErrorf(CodeInvalidOrder, "invalid %s: %q", field, s)
	}
	return v, nil
}

func parseBytes(s, field string) ([]byte, error) {
	if s == "" || s == "0x" {
		return []byte{}, nil
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, constructionErrorf(CodeInvalidOrder, "invalid %s: %v", field, err)
	}
	return b, nil
}

func assetToJSON(a *AssetDescriptor) *AssetJSON {
	j := &AssetJSON{
		Standard: string(a.Standard),
		Address:  a.Address,
		Quantity: bigString(a.Quantity),
		Decimals: a.Decimals,
	}
	if a.TokenID != nil {
		j.TokenID = a.TokenID.String()
	}
	return j
}

func assetFromJSON(j *AssetJSON) (*AssetDescriptor, error) {
	quantity, err := parseBig(j.Quantity, "asset quantity")
	if err != nil {
		return nil, err
	}
	var tokenID *big.Int
	if j.TokenID != "" {
		tokenID, err = parseBig(j.TokenID, "asset token id")
		if err != nil {
			return nil, err
		}
	}
	asset := NewAssetDescriptor(TokenStandard(j.Standard), j.Address, tokenID, quantity)
	asset.Decimals = j.Decimals
	return asset, nil
}

// ToJSON converts an order to its wire representation.
func (o *Order) ToJSON() *OrderJSON {
	j := &OrderJSON{
		Exchange:                   normalizeAddress(o.Exchange),
		Maker:                      normalizeAddress(o.Maker),
		Taker:                      normalizeAddress(o.Taker),
		MakerRelayerFee:            bigString(o.MakerRelayerFee),
		TakerRelayerFee:            bigString(o.TakerRelayerFee),
		MakerProtocolFee:           bigString(o.MakerProtocolFee),
		TakerProtocolFee:           bigString(o.TakerProtocolFee),
		MakerReferrerFee:           bigString(o.MakerReferrerFee),
		FeeRecipient:               normalizeAddress(o.FeeRecipient),
		FeeMethod:                  int(o.FeeMethod),
		Side:                       int(o.Side),
		SaleKind:                   int(o.SaleKind),
		Target:                     normalizeAddress(o.Target),
		HowToCall:                  int(o.HowToCall),
		Calldata:                   hexutil.Encode(o.Calldata),
		ReplacementPattern:         hexutil.Encode(o.ReplacementPattern),
		StaticTarget:               normalizeAddress(o.StaticTarget),
		StaticExtradata:            hexutil.Encode(o.StaticExtradata),
		PaymentToken:               normalizeAddress(o.PaymentToken),
		BasePrice:                  bigString(o.BasePrice),
		Extra:                      bigString(o.Extra),
		ListingTime:                strconv.FormatInt(o.ListingTime, 10),
		ExpirationTime:             strconv.FormatInt(o.ExpirationTime, 10),
		Salt:                       bigString(o.Salt),
		WaitingForBestCounterOrder: o.WaitingForBestCounterOrder,
	}
	if o.EnglishAuctionReservePrice != nil {
		j.EnglishAuctionReservePrice = o.EnglishAuctionReservePrice.String()
	}
	if o.Metadata.Asset != nil || o.Metadata.Bundle != nil {
		j.Metadata = &OrderMetadataJSON{}
		if o.Metadata.Asset != nil {
			j.Metadata.Asset = assetToJSON(o.Metadata.Asset)
		}
		if o.Metadata.Bundle != nil {
			for _, a := range o.Metadata.Bundle.Assets {
				j.Metadata.Bundle = append(j.Metadata.Bundle, assetToJSON(a))
			}
		}
	}
	return j
}

// ToJSON converts a hashed order to its wire representation.
func (o *HashedOrder) ToJSON() *OrderJSON {
	j := o.Order.ToJSON()
	j.Hash = o.Hash
	return j
}

// ToJSON converts a signed order to its wire representation, the
// payload submitted to the orderbook.
func (o *SignedOrder) ToJSON() *OrderJSON {
	j := o.HashedOrder.ToJSON()
	j.V = o.Signature.V
	j.R = o.Signature.R
	j.S = o.Signature.S
	return j
}

// OrderFromJSON reconstructs an order from its wire representation.
// Hash and signature fields are ignored; rehash with HashOrder.
func OrderFromJSON(j *OrderJSON) (*Order, error) {
	if j == nil {
		return nil, constructionErrorf(CodeInvalidOrder, "order JSON is nil")
	}

	o := &Order{
		Exchange:                   normalizeAddress(j.Exchange),
		Maker:                      normalizeAddress(j.Maker),
		Taker:                      normalizeAddress(j.Taker),
		FeeRecipient:               normalizeAddress(j.FeeRecipient),
		FeeMethod:                  FeeMethod(j.FeeMethod),
		Side:                       Side(j.Side),
		SaleKind:                   SaleKind(j.SaleKind),
		Target:                     normalizeAddress(j.Target),
		HowToCall:                  HowToCall(j.HowToCall),
		StaticTarget:               normalizeAddress(j.StaticTarget),
		PaymentToken:               normalizeAddress(j.PaymentToken),
		WaitingForBestCounterOrder: j.WaitingForBestCounterOrder,
	}

	var err error
	if o.ListingTime, err = parseTimestamp(j.ListingTime, "listingTime"); err != nil {
		return nil, err
	}
	if o.ExpirationTime, err = parseTimestamp(j.ExpirationTime, "expirationTime"); err != nil {
		return nil, err
	}
	if o.MakerRelayerFee, err = parseBig(j.MakerRelayerFee, "makerRelayerFee"); err != nil {
		return nil, err
	}
	if o.TakerRelayerFee, err = parseBig(j.TakerRelayerFee, "takerRelayerFee"); err != nil {
		return nil, err
	}
	if o.MakerProtocolFee, err = parseBig(j.MakerProtocolFee, "makerProtocolFee"); err != nil {
		return nil, err
	}
	if o.TakerProtocolFee, err = parseBig(j.TakerProtocolFee, "takerProtocolFee"); err != nil {
		return nil, err
	}
	if o.MakerReferrerFee, err = parseBig(j.MakerReferrerFee, "makerReferrerFee"); err != nil {
		return nil, err
	}
	if o.BasePrice, err = parseBig(j.BasePrice, "basePrice"); err != nil {
		return nil, err
	}
	if o.Extra, err = parseBig(j.Extra, "extra"); err != nil {
		return nil, err
	}
	if o.Salt, err = parseBig(j.Salt, "salt"); err != nil {
		return nil, err
	}
	if j.EnglishAuctionReservePrice != "" {
		if o.EnglishAuctionReservePrice, err = parseBig(j.EnglishAuctionReservePrice, "englishAuctionReservePrice"); err != nil {
			return nil, err
		}
	}
	if o.Calldata, err = parseBytes(j.Calldata, "calldata"); err != nil {
		return nil, err
	}
	if o.ReplacementPattern, err = parseBytes(j.ReplacementPattern, "replacementPattern"); err != nil {
		return nil, err
	}
	if o.StaticExtradata, err = parseBytes(j.StaticExtradata, "staticExtradata"); err != nil {
		return nil, err
	}

	if j.Metadata != nil {
		if j.Metadata.Asset != nil {
			if o.Metadata.Asset, err = assetFromJSON(j.Metadata.Asset); err != nil {
				return nil, err
			}
		}
		if len(j.Metadata.Bundle) > 0 {
			assets := make([]*AssetDescriptor, 0, len(j.Metadata.Bundle))
			for _, aj := range j.Metadata.Bundle {
				a, err := assetFromJSON(aj)
				if err != nil {
					return nil, err
				}
				assets = append(assets, a)
			}
			if o.Metadata.Bundle, err = NewBundle(assets); err != nil {
				return nil, err
			}
		}
	}

	return o, nil
}

// SignedOrderFromJSON reconstructs a signed order from the wire,
// recomputing and verifying the declared hash.
func SignedOrderFromJSON(j *OrderJSON) (*SignedOrder, error) {
	o, err := OrderFromJSON(j)
	if err != nil {
		return nil, err
	}
	hashed, err := HashOrder(o)
	if err != nil {
		return nil, err
	}
	if j.Hash != "" && normalizeHash(j.Hash) != hashed.Hash {
		return nil, constructionErrorf(CodeInvalidOrder,
			"declared hash %s does not match computed hash %s", j.Hash, hashed.Hash)
	}
	return &SignedOrder{
		HashedOrder: *hashed,
		Signature:   Signature{V: j.V, R: j.R, S: j.S},
	}, nil
}
