package entity

import "github.com/shopspring/decimal"

// DetailRow is one line inside a wallet-type section of the normalized
// view. Rows that could not be valued in USDT carry a human-readable
// ValueText fallback instead; USDT and ValueText are never both absent.
type DetailRow struct {
	Title     string
	Subtitle  string
	USDT      *decimal.Decimal
	ValueText string
}

// NewValuedRow builds a row with a computed USDT value.
func NewValuedRow(title, subtitle string, usdt decimal.Decimal) DetailRow {
	return DetailRow{Title: title, Subtitle: subtitle, USDT: &usdt}
}

// NewTextRow builds a row whose value could not be expressed in USDT.
func NewTextRow(title, subtitle, valueText string) DetailRow {
	if valueText == "" {
		valueText = "value unavailable"
	}
	return DetailRow{Title: title, Subtitle: subtitle, ValueText: valueText}
}

// WalletSection groups detail rows of one wallet type (Spot, Futures,
// Earn, Funding and so on) with an optional subtotal.
type WalletSection struct {
	ID    string
	Title string
	Total *decimal.Decimal
	Rows  []DetailRow
}

// BalanceView is the normalized per-account output of an aggregation
// pass: the account's USDT-equivalent total plus its detail sections in
// display order.
type BalanceView struct {
	Total    decimal.Decimal
	Sections []WalletSection
}
