package domain

import "strings"

// Symbol is a compact identifier for a tracked trading pair. The numeric
// value doubles as the wire encoding and as an array index, so it must stay
// dense starting at zero.
type Symbol uint8

const (
	SymbolBTCUSDT Symbol = iota
	SymbolETHUSDT
	SymbolBTCETH

	// NumSymbols is the number of tracked pairs.
	NumSymbols = 3
)

// String returns the exchange pair name, e.g. "BTCUSDT".
func (s Symbol) String() string {
	switch s {
	case SymbolBTCUSDT:
		return "BTCUSDT"
	case SymbolETHUSDT:
		return "ETHUSDT"
	case SymbolBTCETH:
		return "BTCETH"
	default:
		return "UNKNOWN"
	}
}

// StreamName returns the lowercase pair name used in stream paths.
func (s Symbol) StreamName() string {
	return strings.ToLower(s.String())
}

// BaseAsset returns the asset being bought or sold, e.g. "BTC" for BTCUSDT.
func (s Symbol) BaseAsset() string {
	switch s {
	case SymbolBTCUSDT, SymbolBTCETH:
		return "BTC"
	case SymbolETHUSDT:
		return "ETH"
	default:
		return "USDT"
	}
}

// Valid reports whether s names a tracked pair.
func (s Symbol) Valid() bool {
	return s < NumSymbols
}

// ParseSymbol resolves a pair name to its Symbol. Both the exchange form
// ("BTCUSDT") and the underscored form ("BTC_USDT") are accepted, case
// insensitively.
func ParseSymbol(pair string) (Symbol, bool) {
	normalized := strings.ToUpper(strings.ReplaceAll(pair, "_", ""))
	for s := Symbol(0); s < NumSymbols; s++ {
		if s.String() == normalized {
			return s, true
		}
	}
	return 0, false
}

// SymbolFromStream resolves a stream name like "btcusdt@depth20@100ms" to its
// Symbol.
func SymbolFromStream(stream string) (Symbol, bool) {
	name := stream
	if i := strings.IndexByte(stream, '@'); i >= 0 {
		name = stream[:i]
	}
	return ParseSymbol(name)
}
