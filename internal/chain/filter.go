package chain

import "math"

// FilterByRange keeps rows within rng strike steps on each side of the
// at-the-money strike (spot rounded to the nearest step). A rng <= 0 means
// no filtering; in that case, and for an empty chain, the identical input
// slice is returned so callers can cheaply detect that nothing was filtered.
func FilterByRange(rows []Row, rng int, spot, step float64) []Row {
	if rng <= 0 || len(rows) == 0 {
		return rows
	}
	if step <= 0 || !isFinite(spot) || !isFinite(step) {
		return rows
	}

	atm := math.Round(spot/step) * step
	lo := atm - float64(rng)*step
	hi := atm + float64(rng)*step

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.Strike >= lo && r.Strike <= hi {
			out = append(out, r)
		}
	}
	return out
}
