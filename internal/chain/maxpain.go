package chain

// MaxPain returns the settlement strike that minimizes the total payout to
// option holders. For each candidate strike S the payout is the sum over all
// strikes K of ce_oi(K)*(S-K) for S>K plus pe_oi(K)*(K-S) for K>S; both legs
// expire worthless at S==K. Ties resolve to the first strike encountered.
//
// O(n^2) over the chain, which stays trivial at realistic chain sizes
// (tens to low hundreds of strikes). Note this deliberately is not
// "round spot to the nearest step": under asymmetric OI the two diverge.
func MaxPain(rows []Row) float64 {
	if len(rows) == 0 {
		return 0
	}

	best := rows[0].Strike
	bestPayout := totalPayout(rows, rows[0].Strike)

	for _, candidate := range rows[1:] {
		payout := totalPayout(rows, candidate.Strike)
		if payout < bestPayout {
			bestPayout = payout
			best = candidate.Strike
		}
	}
	return best
}

func totalPayout(rows []Row, settle float64) float64 {
	var payout float64
	for _, r := range rows {
		if settle > r.Strike {
			payout += Get(r, FieldCeOI) * (settle - r.Strike)
		} else if r.Strike > settle {
			payout += Get(r, FieldPeOI) * (r.Strike - settle)
		}
	}
	return payout
}
