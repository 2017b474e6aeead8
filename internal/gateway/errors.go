package gateway

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/TimofiiShkabrov/AirCapital/internal/entity"
)

// Classification is the closed failure taxonomy attached to every failed
// gateway call. The engine keys its credential-invalidation policy on it.
type Classification string

const (
	ClassDecodingError    Classification = "decodingError"
	ClassNoData           Classification = "noData"
	ClassTooManyRequests  Classification = "tooManyRequests"
	ClassLimitWAF         Classification = "limitWAF"
	ClassCancelReplace    Classification = "cancelReplace"
	ClassBannedIP         Classification = "bannedIP"
	ClassMalformedRequest Classification = "malformedRequests"
	ClassExchangeError    Classification = "exchangeError"
	ClassIncorrectURL     Classification = "incorrectURL"
	ClassUnknownError     Classification = "unknownError"
)

// APIError is the only error type gateway methods return. It carries the
// classification, the exchange and the HTTP status when one was received.
type APIError struct {
	Exchange entity.Exchange
	Class    Classification
	Status   int
	cause    error
}

func newAPIError(exchange entity.Exchange, class Classification, status int, cause error) *APIError {
	return &APIError{Exchange: exchange, Class: class, Status: status, cause: cause}
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Exchange, e.Class)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// Message returns the user-facing description of the failure.
func (e *APIError) Message() string {
	switch e.Class {
	case ClassTooManyRequests:
		return "Too many requests"
	case ClassNoData:
		return "No data"
	case ClassDecodingError:
		return "Decoding error"
	case ClassLimitWAF:
		return "WAF Limit (Web Application Firewall)"
	case ClassCancelReplace:
		return "cancelReplace order partially succeeds (e.g. the cancellation of the order fails but the new order placement succeeds)."
	case ClassBannedIP:
		return "IP has been auto-banned for continuing to send requests after receiving 429 codes."
	case ClassMalformedRequest:
		return "Malformed request; problem occurred on the sender's side."
	case ClassExchangeError:
		return "The issue occurred on the exchange's side. The execution status is unknown and the request could have been successful."
	case ClassIncorrectURL:
		return "Incorrect API URL"
	default:
		return "Unknown error"
	}
}

// Classify extracts the classification from an error returned by a
// gateway call. Non-gateway errors classify as unknownError.
func Classify(err error) Classification {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Class
	}
	return ClassUnknownError
}

// Message returns the user-facing description of an error returned by a
// gateway call.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message()
	}
	return "Unknown error"
}

// classifyStatus maps a non-2xx HTTP status to the taxonomy.
func classifyStatus(status int) Classification {
	switch {
	case status == 429:
		return ClassTooManyRequests
	case status == 403:
		return ClassLimitWAF
	case status == 409:
		return ClassCancelReplace
	case status == 418:
		return ClassBannedIP
	case status >= 400 && status <= 428:
		return ClassMalformedRequest
	case status >= 430 && status <= 499:
		return ClassMalformedRequest
	case status >= 500 && status <= 599:
		return ClassExchangeError
	default:
		return ClassUnknownError
	}
}

// transient reports whether the failure is worth one more attempt.
func transient(err error) bool {
	switch Classify(err) {
	case ClassNoData, ClassTooManyRequests:
		return true
	default:
		return false
	}
}
