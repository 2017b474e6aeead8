package vault

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TimofiiShkabrov/AirCapital/internal/entity"
)

type memSecretStore struct {
	values map[string]string
}

func newMemSecretStore() *memSecretStore {
	return &memSecretStore{values: map[string]string{}}
}

func (s *memSecretStore) Set(key, value string) error {
	s.values[key] = value
	return nil
}

func (s *memSecretStore) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *memSecretStore) Delete(key string) error {
	delete(s.values, key)
	return nil
}

type memKVStore struct {
	bytes map[string][]byte
	flags map[string]bool
}

func newMemKVStore() *memKVStore {
	return &memKVStore{bytes: map[string][]byte{}, flags: map[string]bool{}}
}

func (s *memKVStore) SetBytes(key string, value []byte) error {
	s.bytes[key] = value
	return nil
}

func (s *memKVStore) GetBytes(key string) ([]byte, bool) {
	v, ok := s.bytes[key]
	return v, ok
}

func (s *memKVStore) SetBool(key string, value bool) error {
	s.flags[key] = value
	return nil
}

func (s *memKVStore) GetBool(key string) bool {
	return s.flags[key]
}

func newTestVault(t *testing.T, opts ...Option) (*Vault, *memSecretStore, *memKVStore) {
	t.Helper()
	ss := newMemSecretStore()
	kv := newMemKVStore()
	return New(ss, kv, zap.NewNop(), opts...), ss, kv
}

func TestSaveAndLoadCredentials(t *testing.T) {
	v, _, _ := newTestVault(t)

	creds := entity.Credentials{APIKey: "key", SecretKey: "secret", Passphrase: "phrase"}
	account, err := v.SaveAccount(creds, entity.ExchangeOkx, "  main  ")
	require.NoError(t, err)

	assert.Equal(t, entity.ExchangeOkx, account.Exchange)
	assert.Equal(t, "main", account.Label)

	loaded, ok := v.LoadCredentials(account)
	require.True(t, ok)
	assert.Equal(t, creds, loaded)
}

func TestSaveAccountBlankLabelBecomesAbsent(t *testing.T) {
	v, _, _ := newTestVault(t)

	account, err := v.SaveAccount(entity.Credentials{APIKey: "k", SecretKey: "s"}, entity.ExchangeBinance, "   ")
	require.NoError(t, err)
	assert.Empty(t, account.Label)
	assert.Equal(t, "Binance", account.DisplayName())
}

func TestLoadCredentialsMissingSecretFailsSoft(t *testing.T) {
	v, ss, _ := newTestVault(t)

	account, err := v.SaveAccount(entity.Credentials{APIKey: "k", SecretKey: "s"}, entity.ExchangeBybit, "")
	require.NoError(t, err)

	require.NoError(t, ss.Delete("account_"+account.ID.String()+"_secretKey"))

	_, ok := v.LoadCredentials(account)
	assert.False(t, ok)
}

func TestDeleteAccountIsIdempotent(t *testing.T) {
	v, ss, _ := newTestVault(t)

	account, err := v.SaveAccount(entity.Credentials{APIKey: "k", SecretKey: "s"}, entity.ExchangeGateio, "gate")
	require.NoError(t, err)

	require.NoError(t, v.DeleteAccount(account))
	require.NoError(t, v.DeleteAccount(account))

	assert.Empty(t, v.ListAccounts())
	_, ok := v.LoadCredentials(account)
	assert.False(t, ok)
	assert.Empty(t, ss.values)
}

func TestListAccountsOrdering(t *testing.T) {
	now := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	clock := now
	v, _, _ := newTestVault(t, WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))

	creds := entity.Credentials{APIKey: "k", SecretKey: "s"}
	gate, err := v.SaveAccount(creds, entity.ExchangeGateio, "")
	require.NoError(t, err)
	bybitOld, err := v.SaveAccount(creds, entity.ExchangeBybit, "first")
	require.NoError(t, err)
	binance, err := v.SaveAccount(creds, entity.ExchangeBinance, "")
	require.NoError(t, err)
	bybitNew, err := v.SaveAccount(creds, entity.ExchangeBybit, "second")
	require.NoError(t, err)

	got := v.ListAccounts()
	require.Len(t, got, 4)

	// canonical exchange order first, creation time within an exchange
	assert.Equal(t, binance.ID, got[0].ID)
	assert.Equal(t, bybitOld.ID, got[1].ID)
	assert.Equal(t, bybitNew.ID, got[2].ID)
	assert.Equal(t, gate.ID, got[3].ID)
}

func TestAccountsFor(t *testing.T) {
	v, _, _ := newTestVault(t)

	creds := entity.Credentials{APIKey: "k", SecretKey: "s"}
	_, err := v.SaveAccount(creds, entity.ExchangeBinance, "")
	require.NoError(t, err)
	bybit, err := v.SaveAccount(creds, entity.ExchangeBybit, "")
	require.NoError(t, err)

	got := v.AccountsFor(entity.ExchangeBybit)
	require.Len(t, got, 1)
	assert.Equal(t, bybit.ID, got[0].ID)
}

func TestLegacyMigrationRunsOnce(t *testing.T) {
	v, ss, kv := newTestVault(t)

	require.NoError(t, ss.Set("bybit_apiKey", "legacy-key"))
	require.NoError(t, ss.Set("bybit_secretKey", "legacy-secret"))

	accounts := v.ListAccounts()
	require.Len(t, accounts, 1)
	assert.Equal(t, entity.ExchangeBybit, accounts[0].Exchange)
	assert.Empty(t, accounts[0].Label)

	creds, ok := v.LoadCredentials(accounts[0])
	require.True(t, ok)
	assert.Equal(t, "legacy-key", creds.APIKey)
	assert.Equal(t, "legacy-secret", creds.SecretKey)

	// legacy keys are purged and the flag is set
	_, ok = ss.Get("bybit_apiKey")
	assert.False(t, ok)
	assert.True(t, kv.GetBool("aircapital.exchangeAccounts.migrated.v1"))

	// second listing must not synthesize another account
	require.NoError(t, ss.Set("bybit_apiKey", "stray"))
	require.NoError(t, ss.Set("bybit_secretKey", "stray"))
	assert.Len(t, v.ListAccounts(), 1)
}

func TestMigrationSkipsIncompleteLegacyEntries(t *testing.T) {
	v, ss, _ := newTestVault(t)

	// api key without a secret key must not produce an account
	require.NoError(t, ss.Set("okx_apiKey", "half"))

	assert.Empty(t, v.ListAccounts())
}
