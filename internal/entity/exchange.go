// Package entity defines core data structures shared by the vault, the
// exchange gateway, the aggregation engine and the history store.
package entity

import "github.com/pkg/errors"

// Exchange identifies one of the supported providers. Declaration order is
// the canonical display and sort order for accounts.
type Exchange string

const (
	ExchangeBinance Exchange = "binance"
	ExchangeBybit   Exchange = "bybit"
	ExchangeBingx   Exchange = "bingx"
	ExchangeOkx     Exchange = "okx"
	ExchangeGateio  Exchange = "gateio"
)

// AllExchanges lists every supported provider in canonical order.
var AllExchanges = []Exchange{
	ExchangeBinance,
	ExchangeBybit,
	ExchangeBingx,
	ExchangeOkx,
	ExchangeGateio,
}

// String returns the string representation.
func (e Exchange) String() string {
	return string(e)
}

// DisplayName returns the provider's branded name for presentation.
func (e Exchange) DisplayName() string {
	switch e {
	case ExchangeBinance:
		return "Binance"
	case ExchangeBybit:
		return "Bybit"
	case ExchangeBingx:
		return "BingX"
	case ExchangeOkx:
		return "OKX"
	case ExchangeGateio:
		return "Gate.io"
	default:
		return string(e)
	}
}

// IsValid checks if the Exchange value is one of the supported providers.
func (e Exchange) IsValid() bool {
	for _, known := range AllExchanges {
		if e == known {
			return true
		}
	}
	return false
}

// SortIndex returns the position of the exchange in the canonical order.
func (e Exchange) SortIndex() int {
	for i, known := range AllExchanges {
		if e == known {
			return i
		}
	}
	return 0
}

// RequiresPassphrase reports whether the provider needs an API passphrase
// in addition to the key pair.
func (e Exchange) RequiresPassphrase() bool {
	return e == ExchangeOkx
}

// ParseExchange converts a string to an Exchange.
func ParseExchange(s string) (Exchange, error) {
	e := Exchange(s)
	if !e.IsValid() {
		return "", errors.Errorf("unknown exchange: %q", s)
	}
	return e, nil
}
