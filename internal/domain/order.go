package domain

import "time"

// OrderSide indicates whether this is a buy or sell.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderType distinguishes priced from at-market orders.
type OrderType string

const (
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeMarket OrderType = "MARKET"
)

// OrderStatus tracks the order lifecycle. Transitions are monotonic: an order
// never re-enters Pending, and Filled, Cancelled, and Rejected are terminal.
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusRejected        OrderStatus = "rejected"
)

// Terminal reports whether no further transitions are allowed from s.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected:
		return true
	default:
		return false
	}
}

// Order is the local record of an exchange order. It lives only in process
// memory; there is no persistence across restarts.
type Order struct {
	ID             uint64 // exchange-assigned
	Symbol         Symbol
	Side           OrderSide
	Type           OrderType
	Price          float64
	Quantity       float64
	FilledQuantity float64
	Status         OrderStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ExecStatus is the coarse outcome of a submission or status query.
type ExecStatus int

const (
	ExecFailed ExecStatus = iota
	ExecSuccess
	ExecPartial
)

// String returns the lowercase name of the execution status.
func (s ExecStatus) String() string {
	switch s {
	case ExecSuccess:
		return "success"
	case ExecPartial:
		return "partial"
	default:
		return "failed"
	}
}

// ExecResult wraps the outcome of an order operation against the venue.
type ExecResult struct {
	Status         ExecStatus
	OrderID        uint64
	FilledQuantity float64
	AveragePrice   float64
	Message        string
}
