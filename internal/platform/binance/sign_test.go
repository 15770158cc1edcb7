package binance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Key pair, payload, and expected signature from the exchange's public API
// documentation (the SIGNED endpoint example).
const (
	docsSecret    = "NhqPtmdSJYdKjVHjA7PZj4Mge3R5YNiP1e3UZjInClVN65XAbvqqM6A7H5fATj0j"
	docsPayload   = "symbol=LTCBTC&side=BUY&type=LIMIT&timeInForce=GTC&quantity=1&price=0.1&recvWindow=5000&timestamp=1499827319559"
	docsSignature = "c8db56825ae71d6d79447849e617115f4a920fa2acdcab2b053c4b2838bd6b71"
)

func TestSignMatchesDocumentedVector(t *testing.T) {
	assert.Equal(t, docsSignature, Sign(docsSecret, docsPayload))
}

func TestQueryBuilderPreservesInsertionOrder(t *testing.T) {
	q := &queryBuilder{}
	q.add("symbol", "BTCUSDT")
	q.add("side", "BUY")
	q.add("type", "MARKET")
	q.addPrice("quantity", 1.0)

	assert.Equal(t, "symbol=BTCUSDT&side=BUY&type=MARKET&quantity=1.00000000", q.String())
}

func TestSignedQueryAppendsTimestampThenSignature(t *testing.T) {
	q := &queryBuilder{}
	q.add("symbol", "LTCBTC")
	q.add("side", "BUY")
	q.add("type", "LIMIT")
	q.add("timeInForce", "GTC")
	q.add("quantity", "1")
	q.add("price", "0.1")
	q.add("recvWindow", "5000")

	got := signedQuery(q, docsSecret, 1499827319559)
	assert.Equal(t, docsPayload+"&signature="+docsSignature, got)
}
