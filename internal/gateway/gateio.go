package gateway

import (
	"context"
	"fmt"
	"strconv"

	"github.com/TimofiiShkabrov/AirCapital/internal/entity"
	"github.com/TimofiiShkabrov/AirCapital/pkg/signer"
)

// GateioTotalBalanceResponse is the wallet total balance payload: the
// overall amount plus a per-account-kind breakdown keyed by kind name.
type GateioTotalBalanceResponse struct {
	Details map[string]GateioAccount `json:"details"`
	Total   GateioAccount            `json:"total"`
}

// GateioAccount is one balance entry quoted in the reported currency.
type GateioAccount struct {
	Currency      string `json:"currency"`
	Amount        string `json:"amount"`
	UnrealisedPnl string `json:"unrealised_pnl"`
	Borrowed      string `json:"borrowed"`
}

// GateioTotalBalance fetches the account-wide balance summary. The sign
// string is METHOD, path, query, SHA-512 of the body and the unix
// timestamp joined by newlines, signed with HMAC-SHA512 into the SIGN
// header.
func (g *Gateway) GateioTotalBalance(ctx context.Context, creds entity.Credentials) (*GateioTotalBalanceResponse, error) {
	const path = "/api/v4/wallet/total_balance"

	ts := strconv.FormatInt(g.clock().Unix(), 10)
	bodyHash := signer.SHA512Hex("")
	signString := fmt.Sprintf("GET\n%s\n%s\n%s\n%s", path, "", bodyHash, ts)
	signature := signer.HmacSHA512Hex(signString, creds.SecretKey)

	rawURL := g.baseURL(entity.ExchangeGateio) + path

	var resp GateioTotalBalanceResponse
	if err := g.doGet(ctx, entity.ExchangeGateio, rawURL, map[string]string{
		"KEY":       creds.APIKey,
		"Timestamp": ts,
		"SIGN":      signature,
	}, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}
