package refresh

import "strings"

// defaultExchangeSuffix is the Yahoo Finance suffix for B3-listed symbols.
// The asset catalog stores raw local tickers (PETR4, VALE3).
const defaultExchangeSuffix = ".SA"

// NormalizeTicker maps a raw ticker to the provider-qualified symbol:
// uppercase and trim, then append the local-exchange suffix when the
// symbol does not already carry it and is short enough to be a local
// ticker. Longer or already-qualified symbols pass through unchanged.
func NormalizeTicker(raw string) string {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	if symbol == "" {
		return symbol
	}

	if strings.HasSuffix(symbol, defaultExchangeSuffix) {
		return symbol
	}

	if len(symbol) <= 6 {
		return symbol + defaultExchangeSuffix
	}

	return symbol
}
