package types

import "github.com/shopspring/decimal"

// Balance is one asset's holding on an exchange account.
type Balance struct {
	// Free is available for new orders
	Free decimal.Decimal `json:"free"`
	// Used is locked in open orders
	Used decimal.Decimal `json:"used"`
	// Total is Free + Used
	Total decimal.Decimal `json:"total"`
}

// Balances maps asset symbol to holding.
type Balances map[string]Balance

// FreeOf returns the free amount of asset, zero when the asset is not held.
func (b Balances) FreeOf(asset string) decimal.Decimal {
	if bal, ok := b[asset]; ok {
		return bal.Free
	}

	return decimal.Zero
}
