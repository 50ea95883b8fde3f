package wyvernexchange

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// normalizeAddress canonicalizes an address to its lower-case hex
// form. Content-hash stability requires every address field to carry
// canonical casing.
func normalizeAddress(addr string) string {
	if addr == "" {
		return NullAddress
	}
	return strings.ToLower(common.HexToAddress(addr).Hex())
}

func normalizeHash(h string) string {
	return strings.ToLower(h)
}

// generateSalt returns a random 256-bit salt. A fresh salt is drawn on
// every build so rebuilt orders never collide with their predecessors.
func generateSalt() *big.Int {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic("failed to read random salt: " + err.Error())
	}
	return new(big.Int).SetBytes(buf)
}

// toBaseUnits converts a human-unit amount into the token's smallest
// unit. The conversion is exact: amounts with more fractional digits
// than the token's declared precision are rejected rather than
// rounded.
func toBaseUnits(amount decimal.Decimal, decimals int) (*big.Int, error) {
	shifted := amount.Shift(int32(decimals))
	if !shifted.IsInteger() {
		return nil, constructionErrorf(CodeInvalidPrice,
			"amount %s has more than %d decimal places", amount.String(), decimals)
	}
	return shifted.BigInt(), nil
}

// bps converts a basis-point count to a big integer order field.
func bps(v int64) *big.Int {
	return big.NewInt(v)
}

// ceilDiv divides a by b, rounding up. b must be positive.
func ceilDiv(a, b *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(a, b, new(big.Int))
	if r.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}
