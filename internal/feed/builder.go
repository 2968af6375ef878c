package feed

import (
	"math"
	"sort"

	"github.com/marketlens/optionchain/internal/chain"
)

// Rows assembles the store's legs into strike-sorted chain rows.
// The row at the strike nearest round(spot/step)*step is flagged ATM;
// with no spot or a bad step, no row is flagged.
func (s *TickStore) Rows(step float64) []chain.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byStrike := make(map[float64]*chain.Row)
	strikes := make([]float64, 0, len(s.legs)/2)

	for _, leg := range s.legs {
		row, ok := byStrike[leg.strike]
		if !ok {
			row = &chain.Row{Strike: leg.strike}
			byStrike[leg.strike] = row
			strikes = append(strikes, leg.strike)
		}
		switch leg.right {
		case RightCall:
			row.CE = leg.side
		case RightPut:
			row.PE = leg.side
		}
	}

	sort.Float64s(strikes)

	rows := make([]chain.Row, 0, len(strikes))
	for _, strike := range strikes {
		rows = append(rows, *byStrike[strike])
	}

	markATM(rows, s.spot, step)
	return rows
}

func markATM(rows []chain.Row, spot, step float64) {
	if len(rows) == 0 || step <= 0 || spot <= 0 || math.IsNaN(spot) || math.IsInf(spot, 0) {
		return
	}

	atm := math.Round(spot/step) * step
	best := 0
	bestDist := math.Abs(rows[0].Strike - atm)
	for i := 1; i < len(rows); i++ {
		if d := math.Abs(rows[i].Strike - atm); d < bestDist {
			best = i
			bestDist = d
		}
	}
	rows[best].IsATM = true
}
