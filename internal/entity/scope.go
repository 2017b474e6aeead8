package entity

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ScopeType discriminates the BalanceScope variants.
type ScopeType string

const (
	ScopeTypeTotal    ScopeType = "total"
	ScopeTypeAccount  ScopeType = "account"
	ScopeTypeExchange ScopeType = "exchange"
)

// BalanceScope is the axis along which a balance is tracked: the whole
// portfolio, one account, or one exchange aggregated across its accounts.
// The zero uuid / empty exchange fields of inactive variants make scopes
// structurally comparable and usable as map keys.
type BalanceScope struct {
	Type      ScopeType `json:"type"`
	AccountID uuid.UUID `json:"accountId,omitempty"`
	Exchange  Exchange  `json:"exchange,omitempty"`
}

// TotalScope tracks the whole portfolio.
func TotalScope() BalanceScope {
	return BalanceScope{Type: ScopeTypeTotal}
}

// AccountScope tracks a single account.
func AccountScope(id uuid.UUID) BalanceScope {
	return BalanceScope{Type: ScopeTypeAccount, AccountID: id}
}

// ExchangeScope tracks one exchange summed across its accounts.
func ExchangeScope(e Exchange) BalanceScope {
	return BalanceScope{Type: ScopeTypeExchange, Exchange: e}
}

// String renders the scope for logs and CLI output.
func (s BalanceScope) String() string {
	switch s.Type {
	case ScopeTypeAccount:
		return "account:" + s.AccountID.String()
	case ScopeTypeExchange:
		return "exchange:" + s.Exchange.String()
	default:
		return "total"
	}
}

// MarshalJSON keeps inactive variant fields out of the stored document.
func (s BalanceScope) MarshalJSON() ([]byte, error) {
	type doc struct {
		Type      ScopeType `json:"type"`
		AccountID string    `json:"accountId,omitempty"`
		Exchange  Exchange  `json:"exchange,omitempty"`
	}
	d := doc{Type: s.Type}
	switch s.Type {
	case ScopeTypeAccount:
		d.AccountID = s.AccountID.String()
	case ScopeTypeExchange:
		d.Exchange = s.Exchange
	}
	return json.Marshal(d)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (s *BalanceScope) UnmarshalJSON(data []byte) error {
	var d struct {
		Type      ScopeType `json:"type"`
		AccountID string    `json:"accountId,omitempty"`
		Exchange  Exchange  `json:"exchange,omitempty"`
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}

	switch d.Type {
	case ScopeTypeTotal:
		*s = TotalScope()
	case ScopeTypeAccount:
		id, err := uuid.Parse(d.AccountID)
		if err != nil {
			return errors.Wrap(err, "parse scope account id")
		}
		*s = AccountScope(id)
	case ScopeTypeExchange:
		if !d.Exchange.IsValid() {
			return errors.Errorf("unknown exchange in scope: %q", d.Exchange)
		}
		*s = ExchangeScope(d.Exchange)
	default:
		return errors.Errorf("unknown scope type: %q", d.Type)
	}
	return nil
}
