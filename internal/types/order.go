package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-bots/pkg/errors"
)

type Side string

type OrderType string

type OrderStatus string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

const (
	OrderStatusOpen            OrderStatus = "open"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusRejected        OrderStatus = "rejected"
)

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}

	return SideBuy
}

// Valid reports whether s is buy or sell.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// IsTerminal reports whether an order in this status can no longer fill.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusFilled || s == OrderStatusCancelled || s == OrderStatusRejected
}

// MarketOrderResult is what an exchange reports for an executed market order.
type MarketOrderResult struct {
	OrderID      string          `json:"order_id" validate:"required"`
	FilledPrice  decimal.Decimal `json:"filled_price"`
	FilledAmount decimal.Decimal `json:"filled_amount"`
	ExecutedAt   time.Time       `json:"executed_at"`
}

// LimitOrderResult identifies a resting limit order.
type LimitOrderResult struct {
	OrderID string          `json:"order_id" validate:"required"`
	Side    Side            `json:"side" validate:"required,oneof=buy sell"`
	Price   decimal.Decimal `json:"price"`
	Amount  decimal.Decimal `json:"amount"`
}

// OrderStatusResult is a point-in-time view of an order on the exchange.
type OrderStatusResult struct {
	OrderID      string          `json:"order_id"`
	Side         Side            `json:"side"`
	Status       OrderStatus     `json:"status"`
	Price        decimal.Decimal `json:"price"`
	Amount       decimal.Decimal `json:"amount"`
	FilledAmount decimal.Decimal `json:"filled_amount"`
	// AvgPrice is the average execution price, zero when nothing filled.
	AvgPrice decimal.Decimal `json:"avg_price"`
}

// HasFill reports whether any part of the order executed.
func (r OrderStatusResult) HasFill() bool {
	return r.FilledAmount.IsPositive()
}

// FillPrice returns the average execution price, falling back to the limit price.
func (r OrderStatusResult) FillPrice() decimal.Decimal {
	if r.AvgPrice.IsPositive() {
		return r.AvgPrice
	}

	return r.Price
}

// Validate checks the result carries an order id and a positive fill.
func (r *MarketOrderResult) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeOrderFailed, "invalid market order result", err)
	}

	if !r.FilledAmount.IsPositive() || !r.FilledPrice.IsPositive() {
		return errors.Newf(errors.ErrCodeOrderFailed,
			"market order %s reported no fill (amount %s, price %s)",
			r.OrderID, r.FilledAmount, r.FilledPrice)
	}

	return nil
}
