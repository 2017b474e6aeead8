// Package engine runs aggregation passes over every stored exchange
// account: it fans out the per-exchange balance calls concurrently,
// normalizes the responses into per-account views, derives the totals
// and feeds the history store. The engine owns all result state; tasks
// never write to it directly, their outcomes are folded in under the
// engine mutex.
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TimofiiShkabrov/AirCapital/internal/entity"
	"github.com/TimofiiShkabrov/AirCapital/internal/gateway"
)

// BalanceGateway is the slice of the exchange gateway the engine calls.
type BalanceGateway interface {
	BinanceWalletBalances(ctx context.Context, creds entity.Credentials) ([]gateway.BinanceWalletBalance, error)
	BybitWalletBalance(ctx context.Context, creds entity.Credentials) ([]gateway.BybitWallet, error)
	BybitCoinBalances(ctx context.Context, creds entity.Credentials, accountType string) ([]gateway.BybitCoinBalance, error)
	BybitEarnPositions(ctx context.Context, creds entity.Credentials, category string) ([]gateway.BybitEarnPosition, error)
	BingxSpotBalances(ctx context.Context, creds entity.Credentials) ([]gateway.BingxSpotBalance, error)
	BingxFuturesBalances(ctx context.Context, creds entity.Credentials) ([]gateway.BingxFuturesBalance, error)
	GateioTotalBalance(ctx context.Context, creds entity.Credentials) (*gateway.GateioTotalBalanceResponse, error)
	OkxTradingBalance(ctx context.Context, creds entity.Credentials) ([]gateway.OkxAccountBalance, error)
	OkxFundingBalances(ctx context.Context, creds entity.Credentials) ([]gateway.OkxFundingBalance, error)
}

// AccountVault is the slice of the credential vault the engine uses.
type AccountVault interface {
	ListAccounts() []entity.ExchangeAccount
	LoadCredentials(account entity.ExchangeAccount) (entity.Credentials, bool)
	DeleteAccount(account entity.ExchangeAccount) error
}

// HistoryStore receives the snapshots written at the end of a pass.
type HistoryStore interface {
	Append(scope entity.BalanceScope, value decimal.Decimal) error
}

// Engine aggregates balances across all stored accounts.
type Engine struct {
	vault            AccountVault
	gateway          BalanceGateway
	history          HistoryStore
	logger           *zap.Logger
	invalidationHook func(account entity.ExchangeAccount)

	loading atomic.Bool

	mu         sync.Mutex
	generation uint64
	accounts   []entity.ExchangeAccount
	views      map[uuid.UUID]entity.BalanceView
	lastError  string
}

// Option configures optional Engine behavior.
type Option func(*Engine)

// WithInvalidationHook registers a callback invoked after the engine
// deletes an account whose credentials the exchange rejected.
func WithInvalidationHook(hook func(account entity.ExchangeAccount)) Option {
	return func(e *Engine) {
		e.invalidationHook = hook
	}
}

// New creates an Engine.
func New(vault AccountVault, gw BalanceGateway, history HistoryStore, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		vault:   vault,
		gateway: gw,
		history: history,
		logger:  logger,
		views:   make(map[uuid.UUID]entity.BalanceView),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type fetchOutcome struct {
	account entity.ExchangeAccount
	view    entity.BalanceView
	err     error
}

// Refresh runs one aggregation pass and reports whether it actually
// ran. A call made while another pass is in flight is dropped: two
// passes never write into the same result generation.
func (e *Engine) Refresh(ctx context.Context) bool {
	if !e.loading.CompareAndSwap(false, true) {
		e.logger.Debug("refresh already in flight, trigger dropped")
		return false
	}
	defer e.loading.Store(false)

	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	accounts := e.vault.ListAccounts()
	if len(accounts) == 0 {
		e.commit(gen, nil, map[uuid.UUID]entity.BalanceView{}, "")
		return true
	}

	// accounts with unloadable credentials are removed, never called
	jobs := make([]entity.ExchangeAccount, 0, len(accounts))
	creds := make(map[uuid.UUID]entity.Credentials, len(accounts))
	for _, account := range accounts {
		c, ok := e.vault.LoadCredentials(account)
		if !ok {
			e.logger.Warn("credentials missing, removing account",
				zap.String("exchange", account.Exchange.String()),
				zap.String("account", account.ID.String()))
			if err := e.vault.DeleteAccount(account); err != nil {
				e.logger.Warn("failed to remove account", zap.Error(err))
			}
			continue
		}
		jobs = append(jobs, account)
		creds[account.ID] = c
	}

	outcomes := make([]fetchOutcome, len(jobs))
	var wg errgroup.Group
	for i, account := range jobs {
		i, account := i, account
		wg.Go(func() error {
			view, err := e.fetchAccount(ctx, account, creds[account.ID])
			// failures settle like successes, the pass joins on all of them
			outcomes[i] = fetchOutcome{account: account, view: view, err: err}
			return nil
		})
	}
	_ = wg.Wait()

	e.resolve(gen, outcomes)
	return true
}

// resolve folds the settled outcomes into a new result generation:
// applies the invalidation policy, carries over stale views of accounts
// that failed transiently, commits and writes the snapshots.
func (e *Engine) resolve(gen uint64, outcomes []fetchOutcome) {
	kept := make([]entity.ExchangeAccount, 0, len(outcomes))
	views := make(map[uuid.UUID]entity.BalanceView, len(outcomes))
	lastError := ""

	for _, out := range outcomes {
		if out.err == nil {
			kept = append(kept, out.account)
			views[out.account.ID] = out.view
			continue
		}

		if gateway.Classify(out.err) == gateway.ClassMalformedRequest {
			e.invalidate(out.account, out.err)
			lastError = fmt.Sprintf("%s rejected the stored API keys, the account was removed",
				out.account.Exchange)
			continue
		}

		e.logger.Warn("balance fetch failed",
			zap.String("exchange", out.account.Exchange.String()),
			zap.String("account", out.account.ID.String()),
			zap.Error(out.err))
		lastError = fmt.Sprintf("%s: %s", out.account.Exchange, gateway.Message(out.err))

		// transient failure keeps the account and its previous view
		kept = append(kept, out.account)
		e.mu.Lock()
		if view, ok := e.views[out.account.ID]; ok {
			views[out.account.ID] = view
		}
		e.mu.Unlock()
	}

	if !e.commit(gen, kept, views, lastError) {
		return
	}
	e.writeSnapshots(kept, views)
}

// invalidate handles an exchange rejecting the account's credentials:
// the account is deleted along with its cached results.
func (e *Engine) invalidate(account entity.ExchangeAccount, cause error) {
	e.logger.Warn("credentials rejected, removing account",
		zap.String("exchange", account.Exchange.String()),
		zap.String("account", account.ID.String()),
		zap.Error(cause))

	if err := e.vault.DeleteAccount(account); err != nil {
		e.logger.Warn("failed to remove invalidated account", zap.Error(err))
	}
	if e.invalidationHook != nil {
		e.invalidationHook(account)
	}
}

// commit installs a completed generation's results. A stale generation
// (a newer pass already bumped the counter) is discarded.
func (e *Engine) commit(gen uint64, accounts []entity.ExchangeAccount, views map[uuid.UUID]entity.BalanceView, lastError string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.generation {
		e.logger.Debug("stale pass discarded", zap.Uint64("generation", gen))
		return false
	}

	e.accounts = accounts
	e.views = views
	e.lastError = lastError
	return true
}

// writeSnapshots records the pass outcome: one snapshot for the
// portfolio total, one per account and one per exchange kind.
func (e *Engine) writeSnapshots(accounts []entity.ExchangeAccount, views map[uuid.UUID]entity.BalanceView) {
	total := decimal.Zero
	byExchange := make(map[entity.Exchange]decimal.Decimal)

	for _, account := range accounts {
		view, ok := views[account.ID]
		if !ok {
			continue
		}
		total = total.Add(view.Total)
		byExchange[account.Exchange] = byExchange[account.Exchange].Add(view.Total)

		e.appendSnapshot(entity.AccountScope(account.ID), view.Total)
	}

	e.appendSnapshot(entity.TotalScope(), total)
	for exchange, sum := range byExchange {
		e.appendSnapshot(entity.ExchangeScope(exchange), sum)
	}
}

func (e *Engine) appendSnapshot(scope entity.BalanceScope, value decimal.Decimal) {
	if err := e.history.Append(scope, value); err != nil {
		e.logger.Warn("failed to record balance snapshot",
			zap.String("scope", scope.String()), zap.Error(err))
	}
}

func (e *Engine) fetchAccount(ctx context.Context, account entity.ExchangeAccount, creds entity.Credentials) (entity.BalanceView, error) {
	switch account.Exchange {
	case entity.ExchangeBinance:
		return e.fetchBinance(ctx, creds)
	case entity.ExchangeBybit:
		return e.fetchBybit(ctx, creds)
	case entity.ExchangeBingx:
		return e.fetchBingx(ctx, creds)
	case entity.ExchangeOkx:
		return e.fetchOkx(ctx, creds)
	case entity.ExchangeGateio:
		return e.fetchGateio(ctx, creds)
	default:
		return entity.BalanceView{}, errors.Errorf("unsupported exchange %q", account.Exchange)
	}
}

// Loading reports whether a pass is in flight.
func (e *Engine) Loading() bool {
	return e.loading.Load()
}

// Accounts returns the account list of the last completed pass.
func (e *Engine) Accounts() []entity.ExchangeAccount {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]entity.ExchangeAccount, len(e.accounts))
	copy(out, e.accounts)
	return out
}

// TotalBalance returns the portfolio USDT total across all accounts.
func (e *Engine) TotalBalance() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()

	total := decimal.Zero
	for _, view := range e.views {
		total = total.Add(view.Total)
	}
	return total
}

// AccountBalance returns one account's USDT total.
func (e *Engine) AccountBalance(id uuid.UUID) (decimal.Decimal, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	view, ok := e.views[id]
	if !ok {
		return decimal.Zero, false
	}
	return view.Total, true
}

// ExchangeBalance returns the USDT total summed over the exchange's
// accounts.
func (e *Engine) ExchangeBalance(exchange entity.Exchange) decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()

	total := decimal.Zero
	for _, account := range e.accounts {
		if account.Exchange != exchange {
			continue
		}
		if view, ok := e.views[account.ID]; ok {
			total = total.Add(view.Total)
		}
	}
	return total
}

// AccountView returns one account's normalized detail view.
func (e *Engine) AccountView(id uuid.UUID) (entity.BalanceView, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	view, ok := e.views[id]
	return view, ok
}

// LastError returns the user-facing message of the most recent failure
// in the last pass, if any. When several accounts failed, the last one
// wins.
func (e *Engine) LastError() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.lastError, e.lastError != ""
}
