package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/TimofiiShkabrov/AirCapital/internal/entity"
	"github.com/TimofiiShkabrov/AirCapital/internal/gateway"
)

func (e *Engine) fetchGateio(ctx context.Context, creds entity.Credentials) (entity.BalanceView, error) {
	resp, err := e.gateway.GateioTotalBalance(ctx, creds)
	if err != nil {
		return entity.BalanceView{}, err
	}
	return normalizeGateio(resp), nil
}

// normalizeGateio builds the account view from the wallet-wide summary:
// the reported total plus one row per account kind, sorted by kind name
// since the payload is a map.
func normalizeGateio(resp *gateway.GateioTotalBalanceResponse) entity.BalanceView {
	view := entity.BalanceView{Total: parseDecimal(resp.Total.Amount)}

	kinds := make([]string, 0, len(resp.Details))
	for kind := range resp.Details {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	var rows []entity.DetailRow
	for _, kind := range kinds {
		detail := resp.Details[kind]
		amount := parseDecimal(detail.Amount)
		if amount.IsZero() {
			continue
		}
		if detail.Currency == "USDT" {
			rows = append(rows, entity.NewValuedRow(kind, "", amount))
			continue
		}
		rows = append(rows, entity.NewTextRow(kind, "",
			fmt.Sprintf("%s %s", detail.Amount, detail.Currency)))
	}

	if len(rows) > 0 {
		sectionTotal := view.Total
		view.Sections = append(view.Sections, entity.WalletSection{
			ID:    "gateio-accounts",
			Title: "Accounts",
			Total: &sectionTotal,
			Rows:  rows,
		})
	}
	return view
}
