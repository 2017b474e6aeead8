package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TimofiiShkabrov/AirCapital/internal/entity"
	"github.com/TimofiiShkabrov/AirCapital/internal/gateway"
)

// fetchBingx runs the spot and futures calls concurrently. Spot is the
// primary call; a futures failure degrades to a zero contribution.
func (e *Engine) fetchBingx(ctx context.Context, creds entity.Credentials) (entity.BalanceView, error) {
	var (
		spot    []gateway.BingxSpotBalance
		spotErr error
		futures []gateway.BingxFuturesBalance
	)

	var wg errgroup.Group
	wg.Go(func() error {
		spot, spotErr = e.gateway.BingxSpotBalances(ctx, creds)
		return nil
	})
	wg.Go(func() error {
		balances, err := e.gateway.BingxFuturesBalances(ctx, creds)
		if err != nil {
			e.logger.Debug("bingx futures balances unavailable", zap.Error(err))
			return nil
		}
		futures = balances
		return nil
	})
	_ = wg.Wait()

	if spotErr != nil {
		return entity.BalanceView{}, spotErr
	}
	return normalizeBingx(spot, futures), nil
}

// normalizeBingx builds the account view from the spot wallet (USDT
// valued as free+locked) and the perpetual futures equity.
func normalizeBingx(spot []gateway.BingxSpotBalance, futures []gateway.BingxFuturesBalance) entity.BalanceView {
	var view entity.BalanceView

	spotTotal := decimal.Zero
	var spotRows []entity.DetailRow
	for _, b := range spot {
		free := parseDecimal(b.Free)
		locked := parseDecimal(b.Locked)
		amount := free.Add(locked)
		if amount.IsZero() {
			continue
		}
		if b.Asset == "USDT" {
			spotTotal = spotTotal.Add(amount)
			spotRows = append(spotRows, entity.NewValuedRow(b.Asset, "", amount))
			continue
		}
		spotRows = append(spotRows, entity.NewTextRow(b.Asset, "",
			fmt.Sprintf("%s free, %s locked", b.Free, b.Locked)))
	}
	if len(spotRows) > 0 {
		section := entity.WalletSection{ID: "bingx-spot", Title: "Spot", Rows: spotRows}
		if spotTotal.IsPositive() {
			sectionTotal := spotTotal
			section.Total = &sectionTotal
		}
		view.Sections = append(view.Sections, section)
	}

	futuresTotal := decimal.Zero
	var futuresRows []entity.DetailRow
	for _, b := range futures {
		equity := parseDecimal(b.Equity)
		if equity.IsZero() {
			continue
		}
		if b.Asset == "USDT" {
			futuresTotal = futuresTotal.Add(equity)
			futuresRows = append(futuresRows, entity.NewValuedRow(b.Asset, "", equity))
			continue
		}
		futuresRows = append(futuresRows, entity.NewTextRow(b.Asset, "",
			fmt.Sprintf("%s %s", b.Equity, b.Asset)))
	}
	if len(futuresRows) > 0 {
		section := entity.WalletSection{ID: "bingx-futures", Title: "Futures", Rows: futuresRows}
		if futuresTotal.IsPositive() {
			sectionTotal := futuresTotal
			section.Total = &sectionTotal
		}
		view.Sections = append(view.Sections, section)
	}

	view.Total = spotTotal.Add(futuresTotal)
	return view
}
