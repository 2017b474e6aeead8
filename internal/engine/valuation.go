package engine

import (
	"github.com/shopspring/decimal"

	"github.com/TimofiiShkabrov/AirCapital/internal/gateway"
)

// parseDecimal tolerates the empty and malformed numeric strings some
// exchange payloads carry, reading them as zero.
func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// impliedPrices derives a per-coin USDT price map from the unified
// wallet's coin entries as usdValue / equity, wherever equity is
// positive. Earn positions are valued through this map since Bybit does
// not quote them in USDT.
func impliedPrices(wallets []gateway.BybitWallet) map[string]decimal.Decimal {
	prices := make(map[string]decimal.Decimal)
	for _, w := range wallets {
		for _, c := range w.Coins {
			equity := parseDecimal(c.Equity)
			if !equity.IsPositive() {
				continue
			}
			prices[c.Coin] = parseDecimal(c.UsdValue).Div(equity)
		}
	}
	return prices
}

// valuePosition computes the USDT value of one earn position. Stable
// coins are taken at face value; anything else needs an implied price.
// A coin absent from the price map cannot be valued.
func valuePosition(coin string, amount decimal.Decimal, prices map[string]decimal.Decimal) (decimal.Decimal, bool) {
	if coin == "USDT" || coin == "USDC" {
		return amount, true
	}
	price, ok := prices[coin]
	if !ok {
		return decimal.Zero, false
	}
	return amount.Mul(price), true
}
