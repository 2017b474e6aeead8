package gateway

import (
	"context"
	"fmt"

	"github.com/TimofiiShkabrov/AirCapital/internal/entity"
	"github.com/TimofiiShkabrov/AirCapital/pkg/signer"
)

// okxTimestampLayout is the ISO-8601 fractional-seconds format OKX signs
// over and expects in OK-ACCESS-TIMESTAMP.
const okxTimestampLayout = "2006-01-02T15:04:05.000Z"

// OkxTradingResponse is the trading-account balance envelope.
type OkxTradingResponse struct {
	Code string              `json:"code"`
	Msg  string              `json:"msg"`
	Data []OkxAccountBalance `json:"data"`
}

// OkxAccountBalance is one sub-account with its per-currency details.
type OkxAccountBalance struct {
	TotalEq string      `json:"totalEq"`
	AdjEq   string      `json:"adjEq"`
	Details []OkxDetail `json:"details"`
}

// OkxDetail is one currency row of the trading account.
type OkxDetail struct {
	Ccy     string `json:"ccy"`
	Eq      string `json:"eq"`
	EqUsd   string `json:"eqUsd"`
	CashBal string `json:"cashBal"`
	AvailEq string `json:"availEq"`
}

// OkxFundingResponse is the funding-wallet balance envelope.
type OkxFundingResponse struct {
	Code string              `json:"code"`
	Msg  string              `json:"msg"`
	Data []OkxFundingBalance `json:"data"`
}

// OkxFundingBalance is one funding-wallet currency row.
type OkxFundingBalance struct {
	Ccy       string `json:"ccy"`
	Bal       string `json:"bal"`
	AvailBal  string `json:"availBal"`
	FrozenBal string `json:"frozenBal"`
}

// OkxTradingBalance fetches the trading-account balances.
func (g *Gateway) OkxTradingBalance(ctx context.Context, creds entity.Credentials) ([]OkxAccountBalance, error) {
	var resp OkxTradingResponse
	if err := g.okxGet(ctx, creds, "/api/v5/account/balance", &resp); err != nil {
		return nil, err
	}
	if err := g.okxCode(resp.Code, resp.Msg); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// OkxFundingBalances fetches the funding-wallet balances.
func (g *Gateway) OkxFundingBalances(ctx context.Context, creds entity.Credentials) ([]OkxFundingBalance, error) {
	var resp OkxFundingResponse
	if err := g.okxGet(ctx, creds, "/api/v5/asset/balances", &resp); err != nil {
		return nil, err
	}
	if err := g.okxCode(resp.Code, resp.Msg); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// okxGet signs the prehash timestamp + method + request path with
// HMAC-SHA256, base64-encodes the digest into OK-ACCESS-SIGN and sends
// the passphrase alongside.
func (g *Gateway) okxGet(ctx context.Context, creds entity.Credentials, path string, out any) error {
	ts := g.clock().UTC().Format(okxTimestampLayout)
	prehash := ts + "GET" + path
	signature := signer.HmacSHA256Base64(prehash, creds.SecretKey)

	rawURL := g.baseURL(entity.ExchangeOkx) + path

	return g.doGet(ctx, entity.ExchangeOkx, rawURL, map[string]string{
		"OK-ACCESS-KEY":        creds.APIKey,
		"OK-ACCESS-SIGN":       signature,
		"OK-ACCESS-TIMESTAMP":  ts,
		"OK-ACCESS-PASSPHRASE": creds.Passphrase,
	}, out)
}

func (g *Gateway) okxCode(code, msg string) error {
	if code == "" || code == "0" {
		return nil
	}
	return newAPIError(entity.ExchangeOkx, ClassMalformedRequest, 0,
		fmt.Errorf("code %s: %s", code, msg))
}
