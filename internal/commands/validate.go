package commands

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/kmandrev/bybit-cli/internal/clierr"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9]+$`)

// ValidateSymbol normalizes a user-supplied symbol: trimmed, uppercased, and
// restricted to alphanumeric characters.
func ValidateSymbol(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", clierr.New(
			clierr.CodeInvalidSymbol,
			"Symbol cannot be empty",
			"Pass a symbol like BTCUSDT; list symbols with 'bb markets ls'.",
		)
	}

	upper := strings.ToUpper(trimmed)
	if !symbolPattern.MatchString(upper) {
		return "", clierr.New(
			clierr.CodeInvalidSymbol,
			fmt.Sprintf("Symbol %q must contain only alphanumeric characters", input),
			"Pass a symbol like BTCUSDT; list symbols with 'bb markets ls'.",
		)
	}

	return upper, nil
}

// ValidatePositiveNumber rejects quantities and prices that are empty,
// unparsable, non-finite or not strictly positive. The string itself is what
// goes on the wire; parsing here is for validation only.
func ValidatePositiveNumber(input, name string) error {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return fmt.Errorf("%s must be a valid number", name)
	}

	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return fmt.Errorf("%s must be a valid number", name)
	}
	if parsed <= 0 {
		return fmt.Errorf("%s must be a positive number", name)
	}

	return nil
}
