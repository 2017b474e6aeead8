package gateway

import (
	"context"
	"fmt"

	"github.com/TimofiiShkabrov/AirCapital/internal/entity"
	"github.com/TimofiiShkabrov/AirCapital/pkg/signer"
)

// BingxSpotResponse is the spot account balance envelope.
type BingxSpotResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Balances []BingxSpotBalance `json:"balances"`
	} `json:"data"`
}

// BingxSpotBalance is one spot asset row.
type BingxSpotBalance struct {
	Asset  string `json:"asset"`
	Free   string `json:"free"`
	Locked string `json:"locked"`
}

// BingxFuturesResponse is the perpetual futures balance envelope.
type BingxFuturesResponse struct {
	Code int                   `json:"code"`
	Msg  string                `json:"msg"`
	Data []BingxFuturesBalance `json:"data"`
}

// BingxFuturesBalance is one futures asset row.
type BingxFuturesBalance struct {
	Asset            string `json:"asset"`
	Balance          string `json:"balance"`
	Equity           string `json:"equity"`
	UnrealizedProfit string `json:"unrealizedProfit"`
	AvailableMargin  string `json:"availableMargin"`
	UsedMargin       string `json:"usedMargin"`
}

// BingxSpotBalances fetches the spot wallet of a BingX account.
func (g *Gateway) BingxSpotBalances(ctx context.Context, creds entity.Credentials) ([]BingxSpotBalance, error) {
	var resp BingxSpotResponse
	if err := g.bingxGet(ctx, creds, "/openApi/spot/v1/account/balance", &resp); err != nil {
		return nil, err
	}
	if err := g.bingxCode(resp.Code, resp.Msg); err != nil {
		return nil, err
	}
	return resp.Data.Balances, nil
}

// BingxFuturesBalances fetches the perpetual futures wallet.
func (g *Gateway) BingxFuturesBalances(ctx context.Context, creds entity.Credentials) ([]BingxFuturesBalance, error) {
	var resp BingxFuturesResponse
	if err := g.bingxGet(ctx, creds, "/openApi/swap/v3/user/balance", &resp); err != nil {
		return nil, err
	}
	if err := g.bingxCode(resp.Code, resp.Msg); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// bingxGet signs the query string with HMAC-SHA256 (same scheme as
// Binance) and places the key in the X-BX-APIKEY header.
func (g *Gateway) bingxGet(ctx context.Context, creds entity.Credentials, path string, out any) error {
	query := "timestamp=" + g.timestampMillis()
	signature := signer.HmacSHA256Hex(query, creds.SecretKey)

	rawURL := fmt.Sprintf("%s%s?%s&signature=%s", g.baseURL(entity.ExchangeBingx), path, query, signature)

	return g.doGet(ctx, entity.ExchangeBingx, rawURL, map[string]string{
		"X-BX-APIKEY": creds.APIKey,
	}, out)
}

func (g *Gateway) bingxCode(code int, msg string) error {
	if code == 0 {
		return nil
	}
	return newAPIError(entity.ExchangeBingx, ClassMalformedRequest, 0,
		fmt.Errorf("code %d: %s", code, msg))
}
