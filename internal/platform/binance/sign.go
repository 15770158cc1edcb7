package binance

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// queryBuilder assembles a request query string preserving insertion order.
// Binance signs the exact byte sequence sent on the wire, so the usual
// url.Values (which sorts keys on Encode) cannot be used here.
type queryBuilder struct {
	parts []string
}

func (q *queryBuilder) add(key, value string) *queryBuilder {
	q.parts = append(q.parts, key+"="+value)
	return q
}

func (q *queryBuilder) addInt(key string, value int64) *queryBuilder {
	return q.add(key, strconv.FormatInt(value, 10))
}

func (q *queryBuilder) addPrice(key string, value float64) *queryBuilder {
	return q.add(key, strconv.FormatFloat(value, 'f', 8, 64))
}

func (q *queryBuilder) String() string {
	return strings.Join(q.parts, "&")
}

// Sign computes the lowercase hex HMAC-SHA256 of payload keyed with secret.
// This is the signature scheme for all authenticated endpoints.
func Sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// signedQuery appends the timestamp (ms) and the signature over the resulting
// string, producing the final query to send. The timestamp is always the last
// signed parameter and the signature itself is appended after it, unsigned.
func signedQuery(q *queryBuilder, secret string, tsMillis int64) string {
	q.addInt("timestamp", tsMillis)
	payload := q.String()
	return payload + "&signature=" + Sign(secret, payload)
}
