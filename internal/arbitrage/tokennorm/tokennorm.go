// Package tokennorm normalizes chain-specific token symbols to a
// canonical cross-chain form and extracts the token legs of an
// internal pair key.
package tokennorm

import "strings"

// InternalSeparator joins the DEX/token components of a pairKey, e.g.
// "uniswap_v3_WETH_USDC".
const InternalSeparator = "_"

// aliases maps a chain-specific symbol to its canonical cross-chain
// symbol. Matching is exact, never substring.
var aliases = map[string]string{
	"WETH.E": "WETH",
	"ETH":    "WETH",
	"WETH":   "WETH",
	"FUSDT":  "USDT",
	"USDT.E": "USDT",
	"BTCB":   "WBTC",
	"WBTC.E": "WBTC",
	"BTC":    "WBTC",
	"USDC.E": "USDC",
	"MATIC":  "WMATIC",
	"BNB":    "WBNB",
	"AVAX":   "WAVAX",
}

// Normalize returns the canonical cross-chain symbol for a token. It is
// idempotent: normalizing an already-normalized symbol is a fixed point.
func Normalize(symbol string) string {
	key := strings.ToUpper(strings.TrimSpace(symbol))
	if canonical, ok := aliases[key]; ok {
		return canonical
	}
	return key
}

// PairLegs returns the last two "_"-separated components of a pairKey,
// e.g. "uniswap_v3_WETH_USDC" -> ("WETH", "USDC"). ok is false if the
// pairKey does not have at least two components.
func PairLegs(pairKey string) (base, quote string, ok bool) {
	parts := strings.Split(pairKey, InternalSeparator)
	if len(parts) < 2 {
		return "", "", false
	}
	return parts[len(parts)-2], parts[len(parts)-1], true
}

// NormalizedPairKey returns the pairKey's two trailing legs normalized
// and rejoined, used as the byToken index key in IndexedSnapshot. It is
// a fixed point under repeated application.
func NormalizedPairKey(pairKey string) (string, bool) {
	base, quote, ok := PairLegs(pairKey)
	if !ok {
		return "", false
	}
	return Normalize(base) + InternalSeparator + Normalize(quote), true
}

// DisplayToken formats a (base, quote) pair in "BASE/QUOTE" display form.
func DisplayToken(base, quote string) string {
	return Normalize(base) + "/" + Normalize(quote)
}

// MatchesToken reports whether pairKey's normalized legs contain the
// normalized form of token, using exact part equality — never substring.
func MatchesToken(pairKey, token string) bool {
	base, quote, ok := PairLegs(pairKey)
	if !ok {
		return false
	}
	want := Normalize(token)
	return Normalize(base) == want || Normalize(quote) == want
}
