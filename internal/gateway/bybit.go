package gateway

import (
	"context"
	"fmt"

	"github.com/TimofiiShkabrov/AirCapital/internal/entity"
	"github.com/TimofiiShkabrov/AirCapital/pkg/signer"
)

// Bybit v5 account types queried in addition to the unified wallet.
var BybitExtraAccountTypes = []string{"FUND", "SPOT", "CONTRACT", "OPTION"}

// BybitEarnCategories are the yield product categories queried per pass.
var BybitEarnCategories = []string{"FlexibleSaving", "OnChain"}

// BybitWalletResponse is the v5 wallet-balance envelope.
type BybitWalletResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List []BybitWallet `json:"list"`
	} `json:"result"`
}

// BybitWallet is one unified-account entry with its per-coin breakdown.
type BybitWallet struct {
	AccountType        string      `json:"accountType"`
	TotalEquity        string      `json:"totalEquity"`
	TotalWalletBalance string      `json:"totalWalletBalance"`
	Coins              []BybitCoin `json:"coin"`
}

// BybitCoin is one coin row of the unified wallet. Equity and UsdValue
// together yield the implied price used to value earn positions.
type BybitCoin struct {
	Coin          string `json:"coin"`
	Equity        string `json:"equity"`
	UsdValue      string `json:"usdValue"`
	WalletBalance string `json:"walletBalance"`
	Locked        string `json:"locked"`
}

// BybitCoinBalancesResponse is the per-account-type coin balance envelope.
type BybitCoinBalancesResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		AccountType string             `json:"accountType"`
		Balance     []BybitCoinBalance `json:"balance"`
	} `json:"result"`
}

// BybitCoinBalance is one coin entry of a non-unified account type.
type BybitCoinBalance struct {
	Coin            string `json:"coin"`
	WalletBalance   string `json:"walletBalance"`
	TransferBalance string `json:"transferBalance"`
}

// BybitEarnResponse is the earn position envelope.
type BybitEarnResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List []BybitEarnPosition `json:"list"`
	} `json:"result"`
}

// BybitEarnPosition is one yield position.
type BybitEarnPosition struct {
	Coin   string `json:"coin"`
	Amount string `json:"amount"`
	Status string `json:"status"`
}

// BybitWalletBalance fetches the unified wallet balance.
func (g *Gateway) BybitWalletBalance(ctx context.Context, creds entity.Credentials) ([]BybitWallet, error) {
	var resp BybitWalletResponse
	if err := g.bybitGet(ctx, creds, "/v5/account/wallet-balance", "accountType=UNIFIED", &resp); err != nil {
		return nil, err
	}
	if err := g.bybitRetCode(resp.RetCode, resp.RetMsg); err != nil {
		return nil, err
	}
	return resp.Result.List, nil
}

// BybitCoinBalances fetches the coin balances of one extra account type
// (FUND, SPOT, CONTRACT or OPTION).
func (g *Gateway) BybitCoinBalances(ctx context.Context, creds entity.Credentials, accountType string) ([]BybitCoinBalance, error) {
	var resp BybitCoinBalancesResponse
	query := "accountType=" + accountType
	if err := g.bybitGet(ctx, creds, "/v5/asset/transfer/query-account-coins-balance", query, &resp); err != nil {
		return nil, err
	}
	if err := g.bybitRetCode(resp.RetCode, resp.RetMsg); err != nil {
		return nil, err
	}
	return resp.Result.Balance, nil
}

// BybitEarnPositions fetches one yield category's positions.
func (g *Gateway) BybitEarnPositions(ctx context.Context, creds entity.Credentials, category string) ([]BybitEarnPosition, error) {
	var resp BybitEarnResponse
	if err := g.bybitGet(ctx, creds, "/v5/earn/position", "category="+category, &resp); err != nil {
		return nil, err
	}
	if err := g.bybitRetCode(resp.RetCode, resp.RetMsg); err != nil {
		return nil, err
	}
	return resp.Result.List, nil
}

// bybitGet signs and executes one v5 GET request. The sign payload is the
// concatenation timestamp + apiKey + recvWindow + query, hex-encoded into
// the X-BAPI-SIGN header.
func (g *Gateway) bybitGet(ctx context.Context, creds entity.Credentials, path, query string, out any) error {
	ts := g.timestampMillis()
	payload := ts + creds.APIKey + g.recvWindow + query
	signature := signer.HmacSHA256Hex(payload, creds.SecretKey)

	rawURL := fmt.Sprintf("%s%s?%s", g.baseURL(entity.ExchangeBybit), path, query)

	return g.doGet(ctx, entity.ExchangeBybit, rawURL, map[string]string{
		"X-BAPI-API-KEY":     creds.APIKey,
		"X-BAPI-TIMESTAMP":   ts,
		"X-BAPI-RECV-WINDOW": g.recvWindow,
		"X-BAPI-SIGN":        signature,
	}, out)
}

// bybitRetCode rejects provider-level failures reported inside a 2xx
// envelope; they indicate a request the exchange refused to serve.
func (g *Gateway) bybitRetCode(retCode int, retMsg string) error {
	if retCode == 0 {
		return nil
	}
	return newAPIError(entity.ExchangeBybit, ClassMalformedRequest, 0,
		fmt.Errorf("retCode %d: %s", retCode, retMsg))
}
