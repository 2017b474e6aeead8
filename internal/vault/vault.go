// Package vault manages named exchange accounts and their API
// credentials. Credentials live in a secret store keyed per account; the
// account index and the one-time migration flag live in a key-value
// store. The vault is the only component that ever holds key material.
package vault

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/TimofiiShkabrov/AirCapital/internal/entity"
	"github.com/TimofiiShkabrov/AirCapital/internal/storage/secrets"
)

const (
	accountsIndexKey = "aircapital.exchangeAccounts.v1"
	migrationDoneKey = "aircapital.exchangeAccounts.migrated.v1"
)

// Vault stores, lists and deletes exchange accounts.
type Vault struct {
	secretStore secrets.SecretStore
	kvStore     secrets.KVStore
	logger      *zap.Logger
	clock       func() time.Time
	newID       func() uuid.UUID

	mu sync.Mutex
}

// Option configures optional Vault behavior.
type Option func(*Vault)

// WithClock overrides the time source, used by tests.
func WithClock(clock func() time.Time) Option {
	return func(v *Vault) {
		v.clock = clock
	}
}

// WithIDGenerator overrides account id generation, used by tests.
func WithIDGenerator(gen func() uuid.UUID) Option {
	return func(v *Vault) {
		v.newID = gen
	}
}

// New creates a Vault over the given stores.
func New(secretStore secrets.SecretStore, kvStore secrets.KVStore, logger *zap.Logger, opts ...Option) *Vault {
	v := &Vault{
		secretStore: secretStore,
		kvStore:     kvStore,
		logger:      logger,
		clock:       time.Now,
		newID:       uuid.New,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ListAccounts returns every stored account ordered by exchange (canonical
// order), then by creation time ascending. The one-time legacy migration
// runs before the first listing.
func (v *Vault) ListAccounts() []entity.ExchangeAccount {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.migrateLegacyKeysLocked()

	accounts := v.loadIndexLocked()
	sortAccounts(accounts)
	return accounts
}

// AccountsFor returns the stored accounts of one exchange, ordered by
// creation time ascending.
func (v *Vault) AccountsFor(exchange entity.Exchange) []entity.ExchangeAccount {
	all := v.ListAccounts()
	filtered := make([]entity.ExchangeAccount, 0, len(all))
	for _, a := range all {
		if a.Exchange == exchange {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

// SaveAccount creates a new account for the exchange, persists its
// credentials and appends it to the index. Labels are trimmed; a label
// that is empty after trimming is stored as absent.
func (v *Vault) SaveAccount(creds entity.Credentials, exchange entity.Exchange, label string) (entity.ExchangeAccount, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.migrateLegacyKeysLocked()

	account := entity.ExchangeAccount{
		ID:        v.newID(),
		Exchange:  exchange,
		Label:     strings.TrimSpace(label),
		CreatedAt: v.clock(),
	}

	if err := v.saveCredentialsLocked(account, creds); err != nil {
		return entity.ExchangeAccount{}, errors.Wrap(err, "persist credentials")
	}

	accounts := v.loadIndexLocked()
	accounts = append(accounts, account)
	if err := v.storeIndexLocked(accounts); err != nil {
		return entity.ExchangeAccount{}, errors.Wrap(err, "persist account index")
	}

	v.logger.Info("account saved",
		zap.String("exchange", account.Exchange.String()),
		zap.String("account", account.ID.String()))

	return account, nil
}

// LoadCredentials returns the credentials of an account, or false when the
// secret store is missing the api key or secret key. A missing passphrase
// is tolerated independently.
func (v *Vault) LoadCredentials(account entity.ExchangeAccount) (entity.Credentials, bool) {
	apiKey, okKey := v.secretStore.Get(accountKey(account.ID, "apiKey"))
	secretKey, okSecret := v.secretStore.Get(accountKey(account.ID, "secretKey"))
	if !okKey || !okSecret {
		return entity.Credentials{}, false
	}

	passphrase, _ := v.secretStore.Get(accountKey(account.ID, "passphrase"))

	return entity.Credentials{
		APIKey:     apiKey,
		SecretKey:  secretKey,
		Passphrase: passphrase,
	}, true
}

// DeleteAccount removes the account from the index and purges its
// credential entries. Deleting an unknown account is a no-op.
func (v *Vault) DeleteAccount(account entity.ExchangeAccount) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	accounts := v.loadIndexLocked()
	kept := accounts[:0]
	for _, a := range accounts {
		if a.ID != account.ID {
			kept = append(kept, a)
		}
	}
	if err := v.storeIndexLocked(kept); err != nil {
		return errors.Wrap(err, "persist account index")
	}

	for _, field := range []string{"apiKey", "secretKey", "passphrase"} {
		if err := v.secretStore.Delete(accountKey(account.ID, field)); err != nil {
			v.logger.Warn("failed to purge credential entry",
				zap.String("account", account.ID.String()),
				zap.String("field", field),
				zap.Error(err))
		}
	}

	v.logger.Info("account deleted",
		zap.String("exchange", account.Exchange.String()),
		zap.String("account", account.ID.String()))

	return nil
}

// migrateLegacyKeysLocked moves pre-multi-account credentials stored under
// kind-scoped keys into synthesized accounts. Gated by a persisted flag so
// it runs at most once; callers hold the vault mutex.
func (v *Vault) migrateLegacyKeysLocked() {
	if v.kvStore.GetBool(migrationDoneKey) {
		return
	}

	accounts := v.loadIndexLocked()
	for _, exchange := range entity.AllExchanges {
		creds, ok := v.loadLegacyCredentials(exchange)
		if !ok {
			continue
		}

		account := entity.ExchangeAccount{
			ID:        v.newID(),
			Exchange:  exchange,
			CreatedAt: v.clock(),
		}
		if err := v.saveCredentialsLocked(account, creds); err != nil {
			v.logger.Warn("legacy credential migration failed",
				zap.String("exchange", exchange.String()), zap.Error(err))
			continue
		}
		accounts = append(accounts, account)
		v.deleteLegacyCredentials(exchange)

		v.logger.Info("migrated legacy account", zap.String("exchange", exchange.String()))
	}

	if err := v.storeIndexLocked(accounts); err != nil {
		v.logger.Warn("failed to persist migrated account index", zap.Error(err))
		return
	}
	if err := v.kvStore.SetBool(migrationDoneKey, true); err != nil {
		v.logger.Warn("failed to persist migration flag", zap.Error(err))
	}
}

func (v *Vault) saveCredentialsLocked(account entity.ExchangeAccount, creds entity.Credentials) error {
	if err := v.secretStore.Set(accountKey(account.ID, "apiKey"), creds.APIKey); err != nil {
		return err
	}
	if err := v.secretStore.Set(accountKey(account.ID, "secretKey"), creds.SecretKey); err != nil {
		return err
	}
	if creds.Passphrase != "" {
		if err := v.secretStore.Set(accountKey(account.ID, "passphrase"), creds.Passphrase); err != nil {
			return err
		}
	}
	return nil
}

func (v *Vault) loadLegacyCredentials(exchange entity.Exchange) (entity.Credentials, bool) {
	apiKey, okKey := v.secretStore.Get(legacyKey(exchange, "apiKey"))
	secretKey, okSecret := v.secretStore.Get(legacyKey(exchange, "secretKey"))
	if !okKey || !okSecret {
		return entity.Credentials{}, false
	}

	passphrase, _ := v.secretStore.Get(legacyKey(exchange, "passphrase"))

	return entity.Credentials{
		APIKey:     apiKey,
		SecretKey:  secretKey,
		Passphrase: passphrase,
	}, true
}

func (v *Vault) deleteLegacyCredentials(exchange entity.Exchange) {
	for _, field := range []string{"apiKey", "secretKey", "passphrase"} {
		if err := v.secretStore.Delete(legacyKey(exchange, field)); err != nil {
			v.logger.Warn("failed to delete legacy credential entry",
				zap.String("exchange", exchange.String()),
				zap.String("field", field),
				zap.Error(err))
		}
	}
}

// loadIndexLocked degrades to an empty list when the index is missing or
// unreadable; the vault never fails a read for a missing key.
func (v *Vault) loadIndexLocked() []entity.ExchangeAccount {
	payload, ok := v.kvStore.GetBytes(accountsIndexKey)
	if !ok || len(payload) == 0 {
		return nil
	}

	var accounts []entity.ExchangeAccount
	if err := json.Unmarshal(payload, &accounts); err != nil {
		v.logger.Warn("unreadable account index, treating as empty", zap.Error(err))
		return nil
	}
	return accounts
}

func (v *Vault) storeIndexLocked(accounts []entity.ExchangeAccount) error {
	payload, err := json.Marshal(accounts)
	if err != nil {
		return errors.Wrap(err, "encode account index")
	}
	return v.kvStore.SetBytes(accountsIndexKey, payload)
}

func sortAccounts(accounts []entity.ExchangeAccount) {
	sort.SliceStable(accounts, func(i, j int) bool {
		if accounts[i].Exchange == accounts[j].Exchange {
			return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
		}
		return accounts[i].Exchange.SortIndex() < accounts[j].Exchange.SortIndex()
	})
}

func accountKey(id uuid.UUID, field string) string {
	return fmt.Sprintf("account_%s_%s", id, field)
}

func legacyKey(exchange entity.Exchange, field string) string {
	return fmt.Sprintf("%s_%s", exchange, field)
}
