package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-bots/pkg/errors"
)

// Pair is a base/quote trading pair such as ETH/USDT.
type Pair struct {
	Base  string `json:"base" yaml:"base"`
	Quote string `json:"quote" yaml:"quote"`
}

// ParsePair parses "BASE/QUOTE".
func ParsePair(s string) (Pair, error) {
	base, quote, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || base == "" || quote == "" {
		return Pair{}, errors.Newf(errors.ErrCodeInvalidParameter, "invalid pair %q, expected BASE/QUOTE", s)
	}

	return Pair{Base: strings.ToUpper(base), Quote: strings.ToUpper(quote)}, nil
}

func (p Pair) String() string {
	return fmt.Sprintf("%s/%s", p.Base, p.Quote)
}

// OrderBookTop is the best bid and ask of a book.
type OrderBookTop struct {
	BestBid decimal.Decimal `json:"best_bid"`
	BestAsk decimal.Decimal `json:"best_ask"`
}

// Mid returns the midpoint between the best bid and best ask.
func (o OrderBookTop) Mid() (decimal.Decimal, error) {
	if !o.BestBid.IsPositive() || !o.BestAsk.IsPositive() {
		return decimal.Zero, errors.New(errors.ErrCodeMarketDataMissing, "order book has an empty side")
	}

	return o.BestBid.Add(o.BestAsk).Div(decimal.NewFromInt(2)), nil
}
