package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TimofiiShkabrov/AirCapital/internal/entity"
	"github.com/TimofiiShkabrov/AirCapital/pkg/signer"
)

var testCreds = entity.Credentials{
	APIKey:     "test-api-key",
	SecretKey:  "test-secret-key",
	Passphrase: "test-passphrase",
}

var testClock = func() time.Time {
	return time.Date(2026, 2, 2, 9, 8, 57, 715_000_000, time.UTC)
}

func newTestGateway(t *testing.T, exchange entity.Exchange, handler http.HandlerFunc) *Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(zap.NewNop(),
		WithBaseURL(exchange, srv.URL),
		WithClock(testClock),
		WithTransientRetries(0),
	)
}

func TestBinanceWalletBalancesSignsQuery(t *testing.T) {
	g := newTestGateway(t, entity.ExchangeBinance, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sapi/v1/asset/wallet/balance", r.URL.Path)
		assert.Equal(t, testCreds.APIKey, r.Header.Get("X-MBX-APIKEY"))

		q := r.URL.Query()
		ts := q.Get("timestamp")
		assert.Equal(t, "5000", q.Get("recvWindow"))

		expected := signer.HmacSHA256Hex(
			fmt.Sprintf("timestamp=%s&recvWindow=5000", ts), testCreds.SecretKey)
		assert.Equal(t, expected, q.Get("signature"))

		fmt.Fprint(w, `[{"activate":true,"balance":"120.5","walletName":"Spot"},
			{"activate":false,"balance":"0","walletName":"Funding"}]`)
	})

	wallets, err := g.BinanceWalletBalances(context.Background(), testCreds)
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	assert.Equal(t, "Spot", wallets[0].WalletName)
	assert.Equal(t, "120.5", wallets[0].Balance)
	assert.True(t, wallets[0].Activate)
}

func TestBybitWalletBalanceSignsHeaders(t *testing.T) {
	g := newTestGateway(t, entity.ExchangeBybit, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/account/wallet-balance", r.URL.Path)
		assert.Equal(t, "accountType=UNIFIED", r.URL.RawQuery)
		assert.Equal(t, testCreds.APIKey, r.Header.Get("X-BAPI-API-KEY"))
		assert.Equal(t, "5000", r.Header.Get("X-BAPI-RECV-WINDOW"))

		ts := r.Header.Get("X-BAPI-TIMESTAMP")
		expected := signer.HmacSHA256Hex(ts+testCreds.APIKey+"5000"+"accountType=UNIFIED", testCreds.SecretKey)
		assert.Equal(t, expected, r.Header.Get("X-BAPI-SIGN"))

		fmt.Fprint(w, `{"retCode":0,"retMsg":"OK","result":{"list":[
			{"accountType":"UNIFIED","totalEquity":"1500.25","coin":[
				{"coin":"BTC","equity":"0.02","usdValue":"1300.25","walletBalance":"0.02"},
				{"coin":"USDT","equity":"200","usdValue":"200","walletBalance":"200"}]}]}}`)
	})

	wallets, err := g.BybitWalletBalance(context.Background(), testCreds)
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	assert.Equal(t, "1500.25", wallets[0].TotalEquity)
	require.Len(t, wallets[0].Coins, 2)
	assert.Equal(t, "BTC", wallets[0].Coins[0].Coin)
}

func TestBybitCoinBalancesQueriesAccountType(t *testing.T) {
	g := newTestGateway(t, entity.ExchangeBybit, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/asset/transfer/query-account-coins-balance", r.URL.Path)
		assert.Equal(t, "accountType=FUND", r.URL.RawQuery)

		fmt.Fprint(w, `{"retCode":0,"retMsg":"success","result":{"accountType":"FUND",
			"balance":[{"coin":"USDT","walletBalance":"42.5","transferBalance":"42.5"}]}}`)
	})

	balances, err := g.BybitCoinBalances(context.Background(), testCreds, "FUND")
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "USDT", balances[0].Coin)
	assert.Equal(t, "42.5", balances[0].WalletBalance)
}

func TestBybitEarnPositions(t *testing.T) {
	g := newTestGateway(t, entity.ExchangeBybit, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/earn/position", r.URL.Path)
		assert.Equal(t, "category=FlexibleSaving", r.URL.RawQuery)

		fmt.Fprint(w, `{"retCode":0,"retMsg":"success","result":{"list":[
			{"coin":"BTC","amount":"0.5","status":"Active"}]}}`)
	})

	positions, err := g.BybitEarnPositions(context.Background(), testCreds, "FlexibleSaving")
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "0.5", positions[0].Amount)
}

func TestBybitRetCodeClassifiesAsMalformed(t *testing.T) {
	g := newTestGateway(t, entity.ExchangeBybit, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"retCode":10003,"retMsg":"API key is invalid","result":{}}`)
	})

	_, err := g.BybitWalletBalance(context.Background(), testCreds)
	require.Error(t, err)
	assert.Equal(t, ClassMalformedRequest, Classify(err))
}

func TestBingxSpotBalances(t *testing.T) {
	g := newTestGateway(t, entity.ExchangeBingx, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openApi/spot/v1/account/balance", r.URL.Path)
		assert.Equal(t, testCreds.APIKey, r.Header.Get("X-BX-APIKEY"))

		q := r.URL.Query()
		expected := signer.HmacSHA256Hex("timestamp="+q.Get("timestamp"), testCreds.SecretKey)
		assert.Equal(t, expected, q.Get("signature"))

		fmt.Fprint(w, `{"code":0,"data":{"balances":[{"asset":"USDT","free":"10","locked":"2"}]}}`)
	})

	balances, err := g.BingxSpotBalances(context.Background(), testCreds)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "USDT", balances[0].Asset)
}

func TestBingxFuturesBalances(t *testing.T) {
	g := newTestGateway(t, entity.ExchangeBingx, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openApi/swap/v3/user/balance", r.URL.Path)

		fmt.Fprint(w, `{"code":0,"msg":"","data":[
			{"asset":"USDT","balance":"55","equity":"57.5","unrealizedProfit":"2.5"}]}`)
	})

	balances, err := g.BingxFuturesBalances(context.Background(), testCreds)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "57.5", balances[0].Equity)
}

func TestGateioTotalBalanceSignsRequest(t *testing.T) {
	g := newTestGateway(t, entity.ExchangeGateio, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v4/wallet/total_balance", r.URL.Path)
		assert.Equal(t, testCreds.APIKey, r.Header.Get("KEY"))

		ts := r.Header.Get("Timestamp")
		signString := fmt.Sprintf("GET\n/api/v4/wallet/total_balance\n\n%s\n%s", signer.SHA512Hex(""), ts)
		assert.Equal(t, signer.HmacSHA512Hex(signString, testCreds.SecretKey), r.Header.Get("SIGN"))

		fmt.Fprint(w, `{"details":{"spot":{"currency":"USDT","amount":"88.2"}},
			"total":{"currency":"USDT","amount":"88.2","borrowed":"0"}}`)
	})

	resp, err := g.GateioTotalBalance(context.Background(), testCreds)
	require.NoError(t, err)
	assert.Equal(t, "88.2", resp.Total.Amount)
	assert.Equal(t, "88.2", resp.Details["spot"].Amount)
}

func TestOkxTradingBalanceSignsRequest(t *testing.T) {
	g := newTestGateway(t, entity.ExchangeOkx, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v5/account/balance", r.URL.Path)
		assert.Equal(t, testCreds.APIKey, r.Header.Get("OK-ACCESS-KEY"))
		assert.Equal(t, testCreds.Passphrase, r.Header.Get("OK-ACCESS-PASSPHRASE"))
		assert.Equal(t, "2026-02-02T09:08:57.715Z", r.Header.Get("OK-ACCESS-TIMESTAMP"))

		prehash := "2026-02-02T09:08:57.715Z" + "GET" + "/api/v5/account/balance"
		assert.Equal(t, signer.HmacSHA256Base64(prehash, testCreds.SecretKey), r.Header.Get("OK-ACCESS-SIGN"))

		fmt.Fprint(w, `{"code":"0","msg":"","data":[{"totalEq":"420.7","details":[
			{"ccy":"USDT","eq":"300","eqUsd":"300"},{"ccy":"ETH","eq":"0.05","eqUsd":"120.7"}]}]}`)
	})

	data, err := g.OkxTradingBalance(context.Background(), testCreds)
	require.NoError(t, err)
	require.Len(t, data, 1)
	assert.Equal(t, "420.7", data[0].TotalEq)
	require.Len(t, data[0].Details, 2)
}

func TestOkxFundingBalances(t *testing.T) {
	g := newTestGateway(t, entity.ExchangeOkx, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v5/asset/balances", r.URL.Path)

		fmt.Fprint(w, `{"code":"0","msg":"","data":[{"ccy":"USDT","bal":"15","availBal":"15","frozenBal":"0"}]}`)
	})

	balances, err := g.OkxFundingBalances(context.Background(), testCreds)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "15", balances[0].Bal)
}

func TestOkxCodeClassifiesAsMalformed(t *testing.T) {
	g := newTestGateway(t, entity.ExchangeOkx, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":"50111","msg":"Invalid OK-ACCESS-KEY","data":[]}`)
	})

	_, err := g.OkxTradingBalance(context.Background(), testCreds)
	require.Error(t, err)
	assert.Equal(t, ClassMalformedRequest, Classify(err))
}

func TestStatusClassification(t *testing.T) {
	cases := []struct {
		status int
		want   Classification
	}{
		{http.StatusTooManyRequests, ClassTooManyRequests},
		{http.StatusForbidden, ClassLimitWAF},
		{http.StatusConflict, ClassCancelReplace},
		{http.StatusTeapot, ClassBannedIP},
		{http.StatusBadRequest, ClassMalformedRequest},
		{http.StatusUnauthorized, ClassMalformedRequest},
		{http.StatusNotFound, ClassMalformedRequest},
		{451, ClassMalformedRequest},
		{http.StatusInternalServerError, ClassExchangeError},
		{http.StatusBadGateway, ClassExchangeError},
		{306, ClassUnknownError},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("status_%d", tc.status), func(t *testing.T) {
			g := newTestGateway(t, entity.ExchangeBinance, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})

			_, err := g.BinanceWalletBalances(context.Background(), testCreds)
			require.Error(t, err)
			assert.Equal(t, tc.want, Classify(err))

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tc.status, apiErr.Status)
			assert.NotEmpty(t, apiErr.Message())
		})
	}
}

func TestDecodeFailureClassification(t *testing.T) {
	g := newTestGateway(t, entity.ExchangeBinance, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json at all`)
	})

	_, err := g.BinanceWalletBalances(context.Background(), testCreds)
	require.Error(t, err)
	assert.Equal(t, ClassDecodingError, Classify(err))
}

func TestTransportFailureClassifiesAsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	g := New(zap.NewNop(),
		WithBaseURL(entity.ExchangeBinance, srv.URL),
		WithTransientRetries(0),
	)

	_, err := g.BinanceWalletBalances(context.Background(), testCreds)
	require.Error(t, err)
	assert.Equal(t, ClassNoData, Classify(err))
}

func TestUnparseableURLClassification(t *testing.T) {
	g := New(zap.NewNop(),
		WithBaseURL(entity.ExchangeBinance, "://not-a-url"),
		WithTransientRetries(0),
	)

	_, err := g.BinanceWalletBalances(context.Background(), testCreds)
	require.Error(t, err)
	assert.Equal(t, ClassIncorrectURL, Classify(err))
}

func TestTransientRetrySucceedsOnSecondAttempt(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `[]`)
	}))
	t.Cleanup(srv.Close)

	g := New(zap.NewNop(),
		WithBaseURL(entity.ExchangeBinance, srv.URL),
		WithTransientRetries(1),
	)

	_, err := g.BinanceWalletBalances(context.Background(), testCreds)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestNonTransientFailureIsNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	g := New(zap.NewNop(),
		WithBaseURL(entity.ExchangeBinance, srv.URL),
		WithTransientRetries(3),
	)

	_, err := g.BinanceWalletBalances(context.Background(), testCreds)
	require.Error(t, err)
	assert.Equal(t, ClassMalformedRequest, Classify(err))
	assert.Equal(t, 1, calls)
}
