package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/TimofiiShkabrov/AirCapital/internal/engine"
	"github.com/TimofiiShkabrov/AirCapital/internal/entity"
	"github.com/TimofiiShkabrov/AirCapital/internal/storage/history"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			MarginBottom(1)

	totalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}).
			Bold(true)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"})

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 1)
)

func renderUSDT(d decimal.Decimal) string {
	return d.StringFixed(2) + " USDT"
}

func renderAccounts(accounts []entity.ExchangeAccount) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("ACCOUNTS") + "\n")

	if len(accounts) == 0 {
		b.WriteString(dimStyle.Render("no accounts yet, run with -add") + "\n")
		return b.String()
	}

	for _, a := range accounts {
		b.WriteString(fmt.Sprintf("%s  %s  %s\n",
			a.Exchange.DisplayName(),
			a.DisplayName(),
			dimStyle.Render(a.ID.String())))
	}
	return b.String()
}

func renderHistory(scope entity.BalanceScope, store *history.Store, chartRange history.Range) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("HISTORY "+scope.String()) + "\n")

	snapshots := store.SnapshotsSince(scope, chartRange.Start(time.Now()))
	if len(snapshots) == 0 {
		b.WriteString(dimStyle.Render("no snapshots in range") + "\n")
		return b.String()
	}

	for _, s := range snapshots {
		b.WriteString(fmt.Sprintf("%s  %s\n",
			s.Timestamp.Local().Format("2006-01-02 15:04"),
			renderUSDT(s.Balance)))
	}
	return b.String()
}

func renderPortfolio(eng *engine.Engine) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("PORTFOLIO") + "\n")

	if msg, ok := eng.LastError(); ok {
		b.WriteString(errorStyle.Render("! "+msg) + "\n\n")
	}

	accounts := eng.Accounts()
	if len(accounts) == 0 {
		b.WriteString(dimStyle.Render("no accounts yet, run with -add") + "\n")
		return b.String()
	}

	b.WriteString(totalStyle.Render("Total: "+renderUSDT(eng.TotalBalance())) + "\n\n")

	for _, exchange := range entity.AllExchanges {
		var block strings.Builder
		found := false
		for _, account := range accounts {
			if account.Exchange != exchange {
				continue
			}
			if found {
				block.WriteString("\n")
			}
			found = true
			block.WriteString(renderAccount(eng, account))
		}
		if !found {
			continue
		}

		header := fmt.Sprintf("%s  %s",
			exchange.DisplayName(),
			renderUSDT(eng.ExchangeBalance(exchange)))
		b.WriteString(boxStyle.Render(sectionStyle.Render(header)+"\n"+strings.TrimRight(block.String(), "\n")) + "\n")
	}

	return b.String()
}

func renderAccount(eng *engine.Engine, account entity.ExchangeAccount) string {
	var b strings.Builder

	view, ok := eng.AccountView(account.ID)
	if !ok {
		b.WriteString(fmt.Sprintf("%s  %s\n", account.DisplayName(), dimStyle.Render("unavailable")))
		return b.String()
	}

	b.WriteString(fmt.Sprintf("%s  %s\n", account.DisplayName(), renderUSDT(view.Total)))
	for _, section := range view.Sections {
		header := "  " + section.Title
		if section.Total != nil {
			header += "  " + renderUSDT(*section.Total)
		}
		b.WriteString(sectionStyle.Render(header) + "\n")

		for _, row := range section.Rows {
			title := row.Title
			if row.Subtitle != "" {
				title += " " + dimStyle.Render("("+row.Subtitle+")")
			}
			value := row.ValueText
			if row.USDT != nil {
				value = renderUSDT(*row.USDT)
			}
			b.WriteString(fmt.Sprintf("    %s  %s\n", title, value))
		}
	}
	return b.String()
}
