// Package signer implements the request-signing primitives used by the
// exchange gateways. Every function is a pure transformation of
// (message, secret) and is verified byte-for-byte against published
// reference vectors.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
)

// HmacSHA256Hex signs message with secret using HMAC-SHA256 and returns the
// lowercase hex digest. Binance, Bybit and BingX query-string signing.
func HmacSHA256Hex(message, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// SHA512Hex returns the lowercase hex SHA-512 digest of input. Gate.io
// hashes the request body with it before signing.
func SHA512Hex(input string) string {
	sum := sha512.Sum512([]byte(input))
	return hex.EncodeToString(sum[:])
}

// HmacSHA512Hex signs message with secret using HMAC-SHA512 and returns the
// lowercase hex digest. Gate.io request signing.
func HmacSHA512Hex(message, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// HmacSHA256Base64 signs message with secret using HMAC-SHA256 and returns
// the standard base64 digest. OKX request signing.
func HmacSHA256Base64(message, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
