package binance

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/quantfall/quantbot/internal/domain"
)

// depthResponse is the REST orderbook payload: price/quantity pairs encoded
// as decimal strings.
type depthResponse struct {
	LastUpdateID int64       `json:"lastUpdateId"`
	Bids         [][2]string `json:"bids"`
	Asks         [][2]string `json:"asks"`
}

// streamEnvelope is the combined-stream message wrapper.
type streamEnvelope struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// depthData is the depth-stream payload inside the envelope.
type depthData struct {
	Bids [][2]string `json:"bids"`
	Asks [][2]string `json:"asks"`
}

// apiError is the well-formed error payload the exchange returns alongside a
// non-2xx (and sometimes 2xx) response.
type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e apiError) Error() string {
	return fmt.Sprintf("binance: api error %d: %s", e.Code, e.Msg)
}

// AccountInfo carries the fields of GET /api/v3/account that the gateway
// consumes: the connectivity-probe marker and spot balances.
type AccountInfo struct {
	AccountType string    `json:"accountType"`
	Balances    []Balance `json:"balances"`
}

// Balance is one asset's spot balance.
type Balance struct {
	Asset string `json:"asset"`
	Free  string `json:"free"`
}

// Free returns the free balance of the asset, or 0 when absent or
// unparseable.
func (a AccountInfo) Free(asset string) float64 {
	for _, b := range a.Balances {
		if b.Asset == asset {
			v, _ := strconv.ParseFloat(b.Free, 64)
			return v
		}
	}
	return 0
}

// OrderResponse is the subset of the order endpoints' payload the gateway
// interprets.
type OrderResponse struct {
	OrderID     uint64 `json:"orderId"`
	Status      string `json:"status"`
	ExecutedQty string `json:"executedQty"`
	Price       string `json:"price"`
}

// ExecutedQuantity parses the executed quantity, returning 0 on absence.
func (r OrderResponse) ExecutedQuantity() float64 {
	v, _ := strconv.ParseFloat(r.ExecutedQty, 64)
	return v
}

// PriceValue parses the order price, returning 0 on absence.
func (r OrderResponse) PriceValue() float64 {
	v, _ := strconv.ParseFloat(r.Price, 64)
	return v
}

// parseLevels converts string price/quantity pairs into price levels,
// dropping entries that fail to parse and clamping at domain.DepthLimit.
func parseLevels(raw [][2]string, ts uint64) []domain.PriceLevel {
	n := len(raw)
	if n > domain.DepthLimit {
		n = domain.DepthLimit
	}
	levels := make([]domain.PriceLevel, 0, n)
	for _, pair := range raw[:n] {
		price, err := strconv.ParseFloat(pair[0], 64)
		if err != nil {
			continue
		}
		qty, err := strconv.ParseFloat(pair[1], 64)
		if err != nil {
			continue
		}
		levels = append(levels, domain.PriceLevel{Price: price, Quantity: qty, Timestamp: ts})
	}
	return levels
}

// nowMillis returns the current epoch time in milliseconds.
func nowMillis() int64 {
	return time.Now().UnixMilli()
}
