package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceSnapshot is one observed quote-currency balance for a scope.
// Snapshots are appended by the history store and never mutated, except
// for the coalescing of rapid successive refreshes into a single point.
type BalanceSnapshot struct {
	Scope     BalanceScope    `json:"scope"`
	Timestamp time.Time       `json:"ts"`
	Balance   decimal.Decimal `json:"balanceUSDT"`
}

// NewBalanceSnapshot creates a new BalanceSnapshot.
func NewBalanceSnapshot(scope BalanceScope, ts time.Time, balance decimal.Decimal) BalanceSnapshot {
	return BalanceSnapshot{Scope: scope, Timestamp: ts, Balance: balance}
}
