package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownSymbol indicates a symbol with no configured strike step.
var ErrUnknownSymbol = errors.New("unknown symbol")

// strikeSteps maps each supported symbol to its strike spacing.
var strikeSteps = map[string]float64{
	"SPX": 25,
	"NDX": 25,
	"RUT": 10,
	"SPY": 1,
	"QQQ": 1,
	"IWM": 1,
}

// DefaultSymbols returns the symbols served when none are configured.
func DefaultSymbols() []string {
	return []string{"SPX", "NDX", "RUT", "SPY", "QQQ", "IWM"}
}

// StrikeStepFor returns the strike spacing for a symbol.
func StrikeStepFor(symbol string) (float64, error) {
	step, ok := strikeSteps[strings.ToUpper(symbol)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return step, nil
}

// IsKnownSymbol reports whether a symbol has a configured strike step.
func IsKnownSymbol(symbol string) bool {
	_, ok := strikeSteps[strings.ToUpper(symbol)]
	return ok
}

// ValidationErrors collects all symbol validation errors
type ValidationErrors struct {
	InvalidSymbols []string
}

// HasErrors returns true if any validation errors exist
func (e *ValidationErrors) HasErrors() bool {
	return len(e.InvalidSymbols) > 0
}

// Error formats all validation errors into a clear message
func (e *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")

	if len(e.InvalidSymbols) > 0 {
		sb.WriteString("\nInvalid symbols:\n")
		for _, s := range e.InvalidSymbols {
			sb.WriteString(fmt.Sprintf("  - %s\n", s))
		}
		sb.WriteString(fmt.Sprintf("\nValid symbols: %s\n", validSymbolsList()))
	}

	return sb.String()
}

// ValidateSymbols checks every configured symbol against the strike-step table.
func ValidateSymbols(symbols []string) error {
	errs := &ValidationErrors{}

	for _, symbol := range symbols {
		if !IsKnownSymbol(symbol) {
			errs.InvalidSymbols = append(errs.InvalidSymbols, symbol)
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validSymbolsList() string {
	symbols := make([]string, 0, len(strikeSteps))
	for s := range strikeSteps {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return strings.Join(symbols, ", ")
}
