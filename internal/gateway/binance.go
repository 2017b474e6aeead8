package gateway

import (
	"context"
	"fmt"

	"github.com/TimofiiShkabrov/AirCapital/internal/entity"
	"github.com/TimofiiShkabrov/AirCapital/pkg/signer"
)

// BinanceWalletBalance is one entry of the asset wallet balance response.
// The balance field is already USDT-denominated.
type BinanceWalletBalance struct {
	Activate   bool   `json:"activate"`
	Balance    string `json:"balance"`
	WalletName string `json:"walletName"`
}

// BinanceWalletBalances fetches the per-wallet balances of a Binance
// account. The query string (timestamp + recvWindow) is signed with
// HMAC-SHA256 and the signature travels as an extra query parameter.
func (g *Gateway) BinanceWalletBalances(ctx context.Context, creds entity.Credentials) ([]BinanceWalletBalance, error) {
	query := fmt.Sprintf("timestamp=%s&recvWindow=%s", g.timestampMillis(), g.recvWindow)
	signature := signer.HmacSHA256Hex(query, creds.SecretKey)

	rawURL := fmt.Sprintf("%s/sapi/v1/asset/wallet/balance?%s&signature=%s",
		g.baseURL(entity.ExchangeBinance), query, signature)

	var wallets []BinanceWalletBalance
	if err := g.doGet(ctx, entity.ExchangeBinance, rawURL, map[string]string{
		"X-MBX-APIKEY": creds.APIKey,
	}, &wallets); err != nil {
		return nil, err
	}

	return wallets, nil
}
