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

// fetchOkx runs the trading-account and funding-wallet calls
// concurrently. Trading is the primary call; a funding failure degrades
// to a zero contribution.
func (e *Engine) fetchOkx(ctx context.Context, creds entity.Credentials) (entity.BalanceView, error) {
	var (
		trading    []gateway.OkxAccountBalance
		tradingErr error
		funding    []gateway.OkxFundingBalance
	)

	var wg errgroup.Group
	wg.Go(func() error {
		trading, tradingErr = e.gateway.OkxTradingBalance(ctx, creds)
		return nil
	})
	wg.Go(func() error {
		balances, err := e.gateway.OkxFundingBalances(ctx, creds)
		if err != nil {
			e.logger.Debug("okx funding balances unavailable", zap.Error(err))
			return nil
		}
		funding = balances
		return nil
	})
	_ = wg.Wait()

	if tradingErr != nil {
		return entity.BalanceView{}, tradingErr
	}
	return normalizeOkx(trading, funding), nil
}

// normalizeOkx builds the account view: trading equity summed across
// sub-accounts plus the funding wallet's USDT balance.
func normalizeOkx(trading []gateway.OkxAccountBalance, funding []gateway.OkxFundingBalance) entity.BalanceView {
	var view entity.BalanceView

	tradingTotal := decimal.Zero
	var tradingRows []entity.DetailRow
	for _, account := range trading {
		tradingTotal = tradingTotal.Add(parseDecimal(account.TotalEq))
		for _, d := range account.Details {
			eqUsd := parseDecimal(d.EqUsd)
			if eqUsd.IsZero() {
				continue
			}
			tradingRows = append(tradingRows, entity.NewValuedRow(d.Ccy, "", eqUsd))
		}
	}
	if len(tradingRows) > 0 || tradingTotal.IsPositive() {
		sectionTotal := tradingTotal
		view.Sections = append(view.Sections, entity.WalletSection{
			ID:    "okx-trading",
			Title: "Trading",
			Total: &sectionTotal,
			Rows:  tradingRows,
		})
	}

	fundingTotal := decimal.Zero
	var fundingRows []entity.DetailRow
	for _, b := range funding {
		balance := parseDecimal(b.Bal)
		if balance.IsZero() {
			continue
		}
		if b.Ccy == "USDT" {
			fundingTotal = fundingTotal.Add(balance)
			fundingRows = append(fundingRows, entity.NewValuedRow(b.Ccy, "", balance))
			continue
		}
		fundingRows = append(fundingRows, entity.NewTextRow(b.Ccy, "",
			fmt.Sprintf("%s %s", b.Bal, b.Ccy)))
	}
	if len(fundingRows) > 0 {
		section := entity.WalletSection{ID: "okx-funding", Title: "Funding", Rows: fundingRows}
		if fundingTotal.IsPositive() {
			sectionTotal := fundingTotal
			section.Total = &sectionTotal
		}
		view.Sections = append(view.Sections, section)
	}

	view.Total = tradingTotal.Add(fundingTotal)
	return view
}
