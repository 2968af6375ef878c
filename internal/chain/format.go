package chain

import (
	"fmt"
	"math"
	"strconv"
)

// NonFinitePlaceholder is rendered for any non-finite cell value.
const NonFinitePlaceholder = "—"

type formatFunc func(float64) string

// formatters maps field names to their display rules. Fields absent from the
// registry fall back to plain stringification.
var formatters = map[string]formatFunc{
	FieldStrike:   formatPrice,
	FieldCeLTP:    formatPrice,
	FieldPeLTP:    formatPrice,
	FieldCeLTPChg: formatPrice,
	FieldPeLTPChg: formatPrice,
	FieldCeIV:     formatIV,
	FieldPeIV:     formatIV,
	FieldCeDelta:  formatDelta,
	FieldPeDelta:  formatDelta,
	FieldCeTheta:  formatPrice,
	FieldPeTheta:  formatPrice,
	FieldCeVega:   formatPrice,
	FieldPeVega:   formatPrice,
	FieldCeGamma:  formatGamma,
	FieldPeGamma:  formatGamma,
	FieldCeOIChg:  formatSigned,
	FieldPeOIChg:  formatSigned,
	FieldCeOI:     formatCompact,
	FieldPeOI:     formatCompact,
	FieldCeVolume: formatCompact,
	FieldPeVolume: formatCompact,
}

// Format renders a cell value for display. Non-finite values render as the
// placeholder dash regardless of field; unknown fields render the plain
// numeric form.
func Format(field string, v float64) string {
	if !isFinite(v) {
		return NonFinitePlaceholder
	}
	if fn, ok := formatters[field]; ok {
		return fn(v)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FormatStrike renders a strike without a trailing ".0" for whole values.
// Flash keys and leg keys both embed strikes in this form.
func FormatStrike(strike float64) string {
	if strike == math.Trunc(strike) {
		return strconv.FormatInt(int64(strike), 10)
	}
	return strconv.FormatFloat(strike, 'f', -1, 64)
}

func formatPrice(v float64) string { return fmt.Sprintf("%.2f", v) }

func formatIV(v float64) string { return fmt.Sprintf("%.1f%%", v) }

func formatDelta(v float64) string { return fmt.Sprintf("%.3f", v) }

func formatGamma(v float64) string { return fmt.Sprintf("%.4f", v) }

// formatSigned renders OI changes with an explicit sign so a flat or
// positive change reads "+0" / "+1500".
func formatSigned(v float64) string { return fmt.Sprintf("%+.0f", v) }

// formatCompact abbreviates large magnitudes: 1.5K, 2.3M, 1.1B. The rule is
// deterministic and preserves ordering across the thresholds.
func formatCompact(v float64) string {
	neg := ""
	if v < 0 {
		neg = "-"
		v = -v
	}
	switch {
	case v >= 1e9:
		return neg + trimZero(fmt.Sprintf("%.2f", v/1e9)) + "B"
	case v >= 1e6:
		return neg + trimZero(fmt.Sprintf("%.2f", v/1e6)) + "M"
	case v >= 1e3:
		return neg + trimZero(fmt.Sprintf("%.2f", v/1e3)) + "K"
	default:
		return neg + fmt.Sprintf("%.0f", v)
	}
}

func trimZero(s string) string {
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}
