package chain

import "math"

// Get returns the named numeric field of row, or 0 when the field is unknown
// or its value is non-finite. This is the single guard that keeps NaN out of
// aggregation and sorting.
func Get(row Row, field string) float64 {
	v, ok := lookup(row, field)
	if !ok || !isFinite(v) {
		return 0
	}
	return v
}

func lookup(row Row, field string) (float64, bool) {
	switch field {
	case FieldStrike:
		return row.Strike, true
	case FieldCeOI:
		return row.CE.OI, true
	case FieldCeOIChg:
		return row.CE.OIChg, true
	case FieldCeVolume:
		return row.CE.Volume, true
	case FieldCeIV:
		return row.CE.IV, true
	case FieldCeLTP:
		return row.CE.LTP, true
	case FieldCeLTPChg:
		if row.CE.LTPChg == nil {
			return 0, false
		}
		return *row.CE.LTPChg, true
	case FieldCeDelta:
		return row.CE.Delta, true
	case FieldCeTheta:
		return row.CE.Theta, true
	case FieldCeGamma:
		return row.CE.Gamma, true
	case FieldCeVega:
		return row.CE.Vega, true
	case FieldPeOI:
		return row.PE.OI, true
	case FieldPeOIChg:
		return row.PE.OIChg, true
	case FieldPeVolume:
		return row.PE.Volume, true
	case FieldPeIV:
		return row.PE.IV, true
	case FieldPeLTP:
		return row.PE.LTP, true
	case FieldPeLTPChg:
		if row.PE.LTPChg == nil {
			return 0, false
		}
		return *row.PE.LTPChg, true
	case FieldPeDelta:
		return row.PE.Delta, true
	case FieldPeTheta:
		return row.PE.Theta, true
	case FieldPeGamma:
		return row.PE.Gamma, true
	case FieldPeVega:
		return row.PE.Vega, true
	}
	return 0, false
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
