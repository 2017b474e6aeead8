// Package secrets provides the storage capabilities consumed by the
// credential vault: a secret store for API key material and a key-value
// store for the account index and migration flag. The production
// implementations are file-backed; the vault itself only depends on the
// interfaces.
package secrets

// SecretStore holds credential fields keyed by opaque string keys.
// Get reports absence via the boolean, never via an error.
type SecretStore interface {
	Set(key, value string) error
	Get(key string) (string, bool)
	Delete(key string) error
}

// KVStore holds small serialized documents (the account index) and flags.
type KVStore interface {
	SetBytes(key string, value []byte) error
	GetBytes(key string) ([]byte, bool)
	SetBool(key string, value bool) error
	GetBool(key string) bool
}
