package wyvernexchange

import (
	"sort"
)

// Bundle is a single order covering multiple distinct assets
// transferred atomically. Assets are kept in a deterministic sort
// order so two independently constructed bundles over the same asset
// set hash identically.
type Bundle struct {
	Assets []*AssetDescriptor
}

// NewBundle validates and sorts a bundle's assets. Duplicate
// (contract, token id) pairs are rejected rather than silently
// deduplicated.
func NewBundle(assets []*AssetDescriptor) (*Bundle, error) {
	if len(assets) == 0 {
		return nil, constructionErrorf(CodeEmptyBundle, "a bundle requires at least one asset")
	}

	sorted := make([]*AssetDescriptor, len(assets))
	copy(sorted, assets)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Address != sorted[j].Address {
			return sorted[i].Address < sorted[j].Address
		}
		return compareTokenIDs(sorted[i], sorted[j]) < 0
	})

	seen := make(map[string]bool, len(sorted))
	for _, asset := range sorted {
		key := asset.Address + "/" + tokenIDString(asset)
		if seen[key] {
			return nil, constructionErrorf(CodeDuplicateBundleAsset,
				"duplicate asset %s in bundle", key)
		}
		seen[key] = true
	}

	return &Bundle{Assets: sorted}, nil
}

func compareTokenIDs(a, b *AssetDescriptor) int {
	switch {
	case a.TokenID == nil && b.TokenID == nil:
		return 0
	case a.TokenID == nil:
		return -1
	case b.TokenID == nil:
		return 1
	default:
		return a.TokenID.Cmp(b.TokenID)
	}
}

func tokenIDString(asset *AssetDescriptor) string {
	if asset.TokenID == nil {
		return ""
	}
	return asset.TokenID.String()
}
