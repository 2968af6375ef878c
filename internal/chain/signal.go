package chain

// Signal classifies open-interest change against price change for one strike.
type Signal string

const (
	SignalLongBuildup   Signal = "long_buildup"
	SignalShortBuildup  Signal = "short_buildup"
	SignalShortCovering Signal = "short_covering"
	SignalLongUnwinding Signal = "long_unwinding"
	SignalNeutral       Signal = "neutral"
)

// DefaultOIChangeNoise is the minimum absolute OI change considered
// meaningful; smaller moves classify as neutral.
const DefaultOIChangeNoise = 100.0

// Classify maps an (OI change, price change) pair onto the 2x2 buildup
// matrix. Non-finite inputs and sub-threshold OI moves are neutral.
// Zero price change counts as non-positive, so (OI up, price flat) is
// short_buildup and (OI down, price flat) is long_unwinding.
func Classify(oiChg, priceChg, threshold float64) Signal {
	if !isFinite(oiChg) || !isFinite(priceChg) {
		return SignalNeutral
	}
	if abs(oiChg) < threshold {
		return SignalNeutral
	}

	oiUp := oiChg > 0
	priceUp := priceChg > 0

	switch {
	case oiUp && priceUp:
		return SignalLongBuildup
	case oiUp && !priceUp:
		return SignalShortBuildup
	case !oiUp && priceUp:
		return SignalShortCovering
	default:
		return SignalLongUnwinding
	}
}

// Eligible reports whether side carries both inputs the classifier needs.
// Rows without a price-change feed degrade to neutral without invoking
// Classify.
func Eligible(side Side) bool {
	return side.LTPChg != nil
}

// ClassifySide classifies one leg of a row, degrading to neutral when the
// leg is not eligible.
func ClassifySide(side Side, threshold float64) Signal {
	if !Eligible(side) {
		return SignalNeutral
	}
	return Classify(side.OIChg, *side.LTPChg, threshold)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
