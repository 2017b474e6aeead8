package entity

import (
	"time"

	"github.com/google/uuid"
)

// ExchangeAccount is one user-added API connection to a provider. Several
// accounts may point at the same exchange. The ID never changes once an
// account is created.
type ExchangeAccount struct {
	ID        uuid.UUID `json:"id"`
	Exchange  Exchange  `json:"exchange"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// DisplayName returns the label when the user set one, otherwise the
// exchange name.
func (a ExchangeAccount) DisplayName() string {
	if a.Label != "" {
		return a.Label
	}
	return a.Exchange.DisplayName()
}

// Credentials holds the API key material for one account. Passphrase is
// used by OKX only and may be empty everywhere else. Credentials are owned
// by the vault and must not be retained past a single request-building
// call.
type Credentials struct {
	APIKey     string
	SecretKey  string
	Passphrase string
}
