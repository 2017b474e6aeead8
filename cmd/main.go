// Command aircapital aggregates account balances across Binance, Bybit,
// BingX, OKX and Gate.io into one USDT-denominated portfolio view.
//
// Usage:
//
//	aircapital                     refresh once and render the portfolio
//	aircapital -add                add an exchange account
//	aircapital -accounts           list stored accounts
//	aircapital -history total      print the balance history of a scope
//	aircapital -history total -range 1w
//	aircapital -config config.yaml
//
// A history scope is "total", an exchange name (binance, bybit, bingx,
// okx, gateio) or an account id.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TimofiiShkabrov/AirCapital/config"
	"github.com/TimofiiShkabrov/AirCapital/internal/engine"
	"github.com/TimofiiShkabrov/AirCapital/internal/entity"
	"github.com/TimofiiShkabrov/AirCapital/internal/gateway"
	"github.com/TimofiiShkabrov/AirCapital/internal/setup"
	"github.com/TimofiiShkabrov/AirCapital/internal/storage/history"
	"github.com/TimofiiShkabrov/AirCapital/internal/storage/secrets"
	"github.com/TimofiiShkabrov/AirCapital/internal/vault"
)

func main() {
	configPath := flag.String("config", "", "path to yaml config")
	add := flag.Bool("add", false, "add an exchange account")
	listAccounts := flag.Bool("accounts", false, "list stored accounts")
	historyScope := flag.String("history", "", "print balance history for a scope")
	rangeStr := flag.String("range", "1m", "history range: 1d, 1w or 1m")
	flag.Parse()

	cfg, err := config.Get(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	secretStore, err := secrets.NewFileSecretStore(filepath.Join(cfg.DataDir, "secrets.json"))
	if err != nil {
		log.Fatal(err)
	}
	kvStore, err := secrets.NewFileKVStore(filepath.Join(cfg.DataDir, "store.json"))
	if err != nil {
		log.Fatal(err)
	}
	accountVault := vault.New(secretStore, kvStore, logger)

	if *add {
		if err := setup.RunTUI(accountVault); err != nil {
			log.Fatal(err)
		}
		return
	}

	if *listAccounts {
		fmt.Print(renderAccounts(accountVault.ListAccounts()))
		return
	}

	store, err := history.NewStore(history.Options{
		Dir:            cfg.HistoryDir,
		ZeroTolerance:  cfg.ZeroTolerance,
		CoalesceWindow: cfg.CoalesceWindow,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	if *historyScope != "" {
		scope, err := parseScope(*historyScope)
		if err != nil {
			log.Fatal(err)
		}
		chartRange, err := history.ParseRange(*rangeStr)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Print(renderHistory(scope, store, chartRange))
		return
	}

	gatewayOpts := []gateway.Option{
		gateway.WithHTTPTimeout(cfg.HTTPTimeout),
		gateway.WithTransientRetries(cfg.TransientRetries),
	}
	for exchange, base := range cfg.BaseURLs {
		gatewayOpts = append(gatewayOpts, gateway.WithBaseURL(exchange, base))
	}
	gw := gateway.New(logger, gatewayOpts...)

	eng := engine.New(accountVault, gw, store, logger)
	eng.Refresh(context.Background())
	fmt.Print(renderPortfolio(eng))
}

// parseScope reads a history scope: the portfolio total, an exchange
// name or an account id.
func parseScope(s string) (entity.BalanceScope, error) {
	if s == "total" {
		return entity.TotalScope(), nil
	}
	if exchange, err := entity.ParseExchange(s); err == nil {
		return entity.ExchangeScope(exchange), nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return entity.BalanceScope{}, fmt.Errorf("unknown scope %q: want total, an exchange name or an account id", s)
	}
	return entity.AccountScope(id), nil
}
