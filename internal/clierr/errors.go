// Package clierr defines the error taxonomy surfaced by the CLI: every
// failure carries a stable code, a human message and a remediation hint.
package clierr

import (
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// Code identifies a failure kind. Callers switch on the code rather than on
// concrete error types.
type Code string

const (
	CodeAPIKeyNotFound      Code = "API_KEY_NOT_FOUND"
	CodeDuplicateAccount    Code = "DUPLICATE_ACCOUNT"
	CodeAccountNotFound     Code = "ACCOUNT_NOT_FOUND"
	CodeDecryptFailed       Code = "DECRYPT_FAILED"
	CodeAuthError           Code = "AUTH_ERROR"
	CodeRateLimit           Code = "RATE_LIMIT"
	CodeInvalidSymbol       Code = "INVALID_SYMBOL"
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"
	CodeGeoBlocked          Code = "GEO_BLOCKED"
	CodeNetworkError        Code = "NETWORK_ERROR"
	CodeAPIError            Code = "API_ERROR"
	CodeHTTPError           Code = "HTTP_ERROR"
	CodeUnknown             Code = "UNKNOWN"
)

// Error is the single error type used at the presentation boundary.
type Error struct {
	Code       Code   `json:"code"`
	Message    string `json:"error"`
	Suggestion string `json:"suggestion"`
}

func (e *Error) Error() string {
	return e.Message
}

// New creates an Error with an explicit code, message and remediation hint.
func New(code Code, message, suggestion string) *Error {
	return &Error{Code: code, Message: message, Suggestion: suggestion}
}

// APIKeyNotFound is returned when no account is configured and none was named.
func APIKeyNotFound() *Error {
	return New(
		CodeAPIKeyNotFound,
		"No account configured. Run 'bb account add' first.",
		"Run 'bb account add' to set up an account.",
	)
}

// DuplicateAccount is returned when an account name collides on add.
func DuplicateAccount(name string) *Error {
	return New(
		CodeDuplicateAccount,
		fmt.Sprintf("Account %q already exists", name),
		"Pick a different account name, or remove the existing one first.",
	)
}

// AccountNotFound is returned when a named account does not exist.
func AccountNotFound(name string) *Error {
	return New(
		CodeAccountNotFound,
		fmt.Sprintf("Account %q not found", name),
		"List configured accounts with: bb account ls",
	)
}

// DecryptFailed is returned when a stored secret cannot be decrypted.
// Retrying cannot succeed without a key change, so this is fatal for
// the affected record.
func DecryptFailed() *Error {
	return New(
		CodeDecryptFailed,
		"Failed to decrypt stored API secret (wrong encryption key or corrupted data).",
		"Check BYBIT_CLI_ENCRYPTION_KEY, or re-add the account with 'bb account add'.",
	)
}

func authError(msg string) *Error {
	if msg == "" {
		msg = "Authentication failed: invalid API key or secret."
	}
	return New(
		CodeAuthError,
		msg,
		"Verify your API key and secret with 'bb account ls', or re-add with 'bb account add'.",
	)
}

func rateLimit() *Error {
	return New(
		CodeRateLimit,
		"API rate limit exceeded.",
		"Please wait a moment and try again.",
	)
}

func invalidSymbol(msg string) *Error {
	return New(
		CodeInvalidSymbol,
		fmt.Sprintf("Invalid or unsupported symbol: %s", msg),
		"View available symbols with: bb markets ls",
	)
}

func insufficientBalance(msg string) *Error {
	if msg == "" {
		msg = "Insufficient balance for this operation."
	}
	return New(
		CodeInsufficientBalance,
		msg,
		"Check your balance with: bb account balances",
	)
}

// NetworkError wraps a transport-level failure reaching the exchange.
func NetworkError(msg string) *Error {
	if msg == "" {
		msg = "Network error: unable to reach Bybit API."
	}
	return New(
		CodeNetworkError,
		msg,
		"Check your internet connection and try again.",
	)
}

// FromRetCode maps a Bybit v5 response code to a typed error.
func FromRetCode(retCode int, retMsg string) *Error {
	switch retCode {
	case 10003, 10004, 10005:
		return authError(retMsg)
	case 10006:
		return rateLimit()
	case 110001:
		return invalidSymbol(retMsg)
	case 110007:
		return insufficientBalance(retMsg)
	default:
		return New(
			CodeAPIError,
			fmt.Sprintf("API error (%d): %s", retCode, retMsg),
			"Check the Bybit API documentation or try again.",
		)
	}
}

// FromHTTPStatus maps an HTTP-level failure (reached before any API envelope)
// to a typed error.
func FromHTTPStatus(status int, msg string) *Error {
	switch status {
	case 403:
		return New(
			CodeGeoBlocked,
			"HTTP 403 Forbidden: API access blocked (possible geo-restriction).",
			"Check if a VPN/proxy is required for your region, or use --testnet.",
		)
	case 429:
		return rateLimit()
	default:
		return New(
			CodeHTTPError,
			fmt.Sprintf("HTTP %d: %s", status, msg),
			"Check your network connection and Bybit API status.",
		)
	}
}

// AsError converts any error into an *Error, preserving typed errors and
// wrapping everything else as UNKNOWN.
func AsError(err error) *Error {
	var cliErr *Error
	if errors.As(err, &cliErr) {
		return cliErr
	}
	return New(CodeUnknown, err.Error(), "An unexpected error occurred.")
}

const redactMaxDepth = 5

// sensitiveKeys lists field names whose values must never be echoed in any
// error or log output, even when relaying an opaque upstream object.
var sensitiveKeys = map[string]struct{}{
	"secret":    {},
	"apiSecret": {},
	"key":       {},
	"apiKey":    {},
	"password":  {},
	"token":     {},
}

// Redact walks a decoded JSON value and replaces the values of credential
// fields with "[REDACTED]", recursively, to a bounded depth.
func Redact(v interface{}) interface{} {
	return redact(v, 0)
}

func redact(v interface{}, depth int) interface{} {
	if depth > redactMaxDepth || v == nil {
		return v
	}

	switch value := v.(type) {
	case map[string]interface{}:
		clean := make(map[string]interface{}, len(value))
		for k, inner := range value {
			if isSensitiveKey(k) {
				clean[k] = "[REDACTED]"
			} else {
				clean[k] = redact(inner, depth+1)
			}
		}
		return clean
	case []interface{}:
		clean := make([]interface{}, len(value))
		for i, inner := range value {
			clean[i] = redact(inner, depth+1)
		}
		return clean
	default:
		return v
	}
}

// RedactJSON redacts credential fields inside a JSON document before it is
// echoed in an error message. Input that is not valid JSON passes through
// unchanged.
func RedactJSON(data string) string {
	var v interface{}
	if err := jsoniter.UnmarshalFromString(data, &v); err != nil {
		return data
	}

	clean, err := jsoniter.MarshalToString(Redact(v))
	if err != nil {
		return data
	}
	return clean
}

func isSensitiveKey(key string) bool {
	if _, ok := sensitiveKeys[key]; ok {
		return true
	}
	_, ok := sensitiveKeys[strings.ToLower(key)]
	return ok
}
