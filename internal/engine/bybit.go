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

// fetchBybit runs the seven Bybit calls concurrently: the unified wallet
// (primary), one coin-balance call per extra account type and one earn
// call per category. Only the primary failure propagates; the auxiliary
// calls degrade to a zero contribution.
func (e *Engine) fetchBybit(ctx context.Context, creds entity.Credentials) (entity.BalanceView, error) {
	var (
		wallets   []gateway.BybitWallet
		walletErr error
		extras    = make([][]gateway.BybitCoinBalance, len(gateway.BybitExtraAccountTypes))
		earns     = make([][]gateway.BybitEarnPosition, len(gateway.BybitEarnCategories))
	)

	var wg errgroup.Group
	wg.Go(func() error {
		wallets, walletErr = e.gateway.BybitWalletBalance(ctx, creds)
		return nil
	})
	for i, accountType := range gateway.BybitExtraAccountTypes {
		i, accountType := i, accountType
		wg.Go(func() error {
			balances, err := e.gateway.BybitCoinBalances(ctx, creds, accountType)
			if err != nil {
				e.logger.Debug("bybit coin balances unavailable",
					zap.String("accountType", accountType), zap.Error(err))
				return nil
			}
			extras[i] = balances
			return nil
		})
	}
	for i, category := range gateway.BybitEarnCategories {
		i, category := i, category
		wg.Go(func() error {
			positions, err := e.gateway.BybitEarnPositions(ctx, creds, category)
			if err != nil {
				e.logger.Debug("bybit earn positions unavailable",
					zap.String("category", category), zap.Error(err))
				return nil
			}
			earns[i] = positions
			return nil
		})
	}
	_ = wg.Wait()

	if walletErr != nil {
		return entity.BalanceView{}, walletErr
	}
	return normalizeBybit(wallets, extras, earns), nil
}

// normalizeBybit builds the account view: the unified wallet section,
// one section per extra account type holding anything, and the earn
// section valued through the implied price map.
func normalizeBybit(wallets []gateway.BybitWallet, extras [][]gateway.BybitCoinBalance, earns [][]gateway.BybitEarnPosition) entity.BalanceView {
	var view entity.BalanceView
	prices := impliedPrices(wallets)

	unifiedTotal := decimal.Zero
	var unifiedRows []entity.DetailRow
	for _, w := range wallets {
		unifiedTotal = unifiedTotal.Add(parseDecimal(w.TotalEquity))
		for _, c := range w.Coins {
			usd := parseDecimal(c.UsdValue)
			if usd.IsZero() {
				continue
			}
			unifiedRows = append(unifiedRows, entity.NewValuedRow(c.Coin, "", usd))
		}
	}
	if len(unifiedRows) > 0 || unifiedTotal.IsPositive() {
		sectionTotal := unifiedTotal
		view.Sections = append(view.Sections, entity.WalletSection{
			ID:    "bybit-unified",
			Title: "Unified",
			Total: &sectionTotal,
			Rows:  unifiedRows,
		})
	}

	extrasTotal := decimal.Zero
	for i, balances := range extras {
		accountType := gateway.BybitExtraAccountTypes[i]
		sectionUSDT := decimal.Zero
		var rows []entity.DetailRow
		for _, b := range balances {
			amount := parseDecimal(b.WalletBalance)
			if amount.IsZero() {
				continue
			}
			if b.Coin == "USDT" {
				sectionUSDT = sectionUSDT.Add(amount)
				rows = append(rows, entity.NewValuedRow(b.Coin, "", amount))
				continue
			}
			rows = append(rows, entity.NewTextRow(b.Coin, "", fmt.Sprintf("%s %s", b.WalletBalance, b.Coin)))
		}
		if len(rows) == 0 {
			continue
		}
		extrasTotal = extrasTotal.Add(sectionUSDT)
		section := entity.WalletSection{
			ID:    "bybit-" + accountType,
			Title: accountType,
			Rows:  rows,
		}
		if sectionUSDT.IsPositive() {
			sectionTotal := sectionUSDT
			section.Total = &sectionTotal
		}
		view.Sections = append(view.Sections, section)
	}

	earnTotal := decimal.Zero
	var earnRows []entity.DetailRow
	for i, positions := range earns {
		category := gateway.BybitEarnCategories[i]
		for _, p := range positions {
			amount := parseDecimal(p.Amount)
			if amount.IsZero() {
				continue
			}
			value, ok := valuePosition(p.Coin, amount, prices)
			if !ok {
				earnRows = append(earnRows, entity.NewTextRow(p.Coin, category, ""))
				continue
			}
			earnTotal = earnTotal.Add(value)
			earnRows = append(earnRows, entity.NewValuedRow(p.Coin, category, value))
		}
	}
	if len(earnRows) > 0 {
		section := entity.WalletSection{
			ID:    "bybit-earn",
			Title: "Earn",
			Rows:  earnRows,
		}
		if earnTotal.IsPositive() {
			sectionTotal := earnTotal
			section.Total = &sectionTotal
		}
		view.Sections = append(view.Sections, section)
	}

	view.Total = unifiedTotal.Add(extrasTotal).Add(earnTotal)
	return view
}
