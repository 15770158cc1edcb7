package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrNotConnected  = errors.New("not connected to exchange")
	ErrUnauthorized  = errors.New("missing or rejected credentials")
	ErrRiskRejected  = errors.New("rejected by risk limits")
	ErrExchange      = errors.New("exchange error")
	ErrParse         = errors.New("malformed response")
	ErrFeedClosed    = errors.New("market data feed closed")
	ErrNoStrategy    = errors.New("no strategy set")
	ErrInvalidRecord = errors.New("invalid wire record")
)
