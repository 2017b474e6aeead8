package engine

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/TimofiiShkabrov/AirCapital/internal/entity"
	"github.com/TimofiiShkabrov/AirCapital/internal/gateway"
)

func (e *Engine) fetchBinance(ctx context.Context, creds entity.Credentials) (entity.BalanceView, error) {
	wallets, err := e.gateway.BinanceWalletBalances(ctx, creds)
	if err != nil {
		return entity.BalanceView{}, err
	}
	return normalizeBinance(wallets), nil
}

// normalizeBinance builds the account view from the per-wallet balances.
// The API reports USDT-denominated amounts; only activated wallets with
// a non-zero balance contribute.
func normalizeBinance(wallets []gateway.BinanceWalletBalance) entity.BalanceView {
	total := decimal.Zero
	var rows []entity.DetailRow

	for _, w := range wallets {
		balance := parseDecimal(w.Balance)
		if !w.Activate || balance.IsZero() {
			continue
		}
		total = total.Add(balance)
		rows = append(rows, entity.NewValuedRow(w.WalletName, "", balance))
	}

	view := entity.BalanceView{Total: total}
	if len(rows) > 0 {
		sectionTotal := total
		view.Sections = append(view.Sections, entity.WalletSection{
			ID:    "binance-wallets",
			Title: "Wallets",
			Total: &sectionTotal,
			Rows:  rows,
		})
	}
	return view
}
