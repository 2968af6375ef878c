package chain

// Stats are the aggregate chain statistics recomputed on every refresh.
// Every field is zero-valued for an empty chain; none are partial.
type Stats struct {
	TotalCeOI     float64 `json:"total_ce_oi"`
	TotalPeOI     float64 `json:"total_pe_oi"`
	TotalCeVolume float64 `json:"total_ce_volume"`
	TotalPeVolume float64 `json:"total_pe_volume"`

	// PCR is totalPeOI/totalCeOI. PCRDefined is false when totalCeOI is
	// zero, in which case the presentation layer renders "N/A".
	PCR        float64 `json:"pcr"`
	PCRDefined bool    `json:"pcr_defined"`

	MaxCeOIStrike float64 `json:"max_ce_oi_strike"`
	MaxPeOIStrike float64 `json:"max_pe_oi_strike"`
	// MaxOI is the largest single-side OI in the chain, used for bar scaling.
	MaxOI float64 `json:"max_oi"`

	MaxPain float64 `json:"max_pain"`

	// ATM is a reference into the input chain, nil when no row is flagged.
	ATM             *Row    `json:"atm,omitempty"`
	StraddlePremium float64 `json:"straddle_premium"`
	ExpectedMovePct float64 `json:"expected_move_pct"`
}

// ComputeStats aggregates the full (unfiltered) chain in a single forward
// pass, then derives PCR, max pain, and the ATM straddle figures.
func ComputeStats(rows []Row, spot float64) Stats {
	var s Stats
	if len(rows) == 0 {
		return s
	}

	var maxCeOI, maxPeOI float64
	for i := range rows {
		r := &rows[i]
		ceOI := Get(*r, FieldCeOI)
		peOI := Get(*r, FieldPeOI)

		s.TotalCeOI += ceOI
		s.TotalPeOI += peOI
		s.TotalCeVolume += Get(*r, FieldCeVolume)
		s.TotalPeVolume += Get(*r, FieldPeVolume)

		if ceOI > maxCeOI {
			maxCeOI = ceOI
			s.MaxCeOIStrike = r.Strike
		}
		if peOI > maxPeOI {
			maxPeOI = peOI
			s.MaxPeOIStrike = r.Strike
		}
		if ceOI > s.MaxOI {
			s.MaxOI = ceOI
		}
		if peOI > s.MaxOI {
			s.MaxOI = peOI
		}

		if r.IsATM && s.ATM == nil {
			s.ATM = r
		}
	}

	if s.TotalCeOI > 0 {
		s.PCR = s.TotalPeOI / s.TotalCeOI
		s.PCRDefined = true
	}

	s.MaxPain = MaxPain(rows)

	if s.ATM != nil {
		s.StraddlePremium = Get(*s.ATM, FieldCeLTP) + Get(*s.ATM, FieldPeLTP)
		if spot > 0 && isFinite(spot) {
			s.ExpectedMovePct = s.StraddlePremium / spot * 100
		}
	}

	return s
}
