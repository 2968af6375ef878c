package chain

import (
	"math"
	"testing"
)

func statsChain() []Row {
	return []Row{
		{Strike: 21500, CE: Side{OI: 100, Volume: 1000, LTP: 820}, PE: Side{OI: 50000, Volume: 4000, LTP: 12}},
		{Strike: 22000, IsATM: true, CE: Side{OI: 1000, Volume: 9000, LTP: 310}, PE: Side{OI: 1000, Volume: 8000, LTP: 290}},
		{Strike: 22500, CE: Side{OI: 50000, Volume: 3000, LTP: 45}, PE: Side{OI: 100, Volume: 900, LTP: 560}},
	}
}

func TestComputeStatsEmptyChain(t *testing.T) {
	s := ComputeStats(nil, 22000)

	if s.TotalCeOI != 0 || s.TotalPeOI != 0 || s.TotalCeVolume != 0 || s.TotalPeVolume != 0 {
		t.Error("empty chain: totals must be zero")
	}
	if s.PCRDefined {
		t.Error("empty chain: PCR must be undefined")
	}
	if s.ATM != nil {
		t.Error("empty chain: ATM must be nil")
	}
	if s.MaxPain != 0 || s.StraddlePremium != 0 || s.ExpectedMovePct != 0 {
		t.Error("empty chain: derived fields must be zero")
	}
}

func TestComputeStatsTotals(t *testing.T) {
	s := ComputeStats(statsChain(), 22000)

	if s.TotalCeOI != 51100 {
		t.Errorf("TotalCeOI = %v, want 51100", s.TotalCeOI)
	}
	if s.TotalPeOI != 51100 {
		t.Errorf("TotalPeOI = %v, want 51100", s.TotalPeOI)
	}
	if s.TotalCeVolume != 13000 {
		t.Errorf("TotalCeVolume = %v, want 13000", s.TotalCeVolume)
	}
	if s.TotalPeVolume != 12900 {
		t.Errorf("TotalPeVolume = %v, want 12900", s.TotalPeVolume)
	}
	if !s.PCRDefined || s.PCR != 1 {
		t.Errorf("PCR = %v (defined=%v), want 1 (defined)", s.PCR, s.PCRDefined)
	}
}

func TestComputeStatsMaxima(t *testing.T) {
	s := ComputeStats(statsChain(), 22000)

	if s.MaxCeOIStrike != 22500 {
		t.Errorf("MaxCeOIStrike = %v, want 22500", s.MaxCeOIStrike)
	}
	if s.MaxPeOIStrike != 21500 {
		t.Errorf("MaxPeOIStrike = %v, want 21500", s.MaxPeOIStrike)
	}
	if s.MaxOI != 50000 {
		t.Errorf("MaxOI = %v, want 50000", s.MaxOI)
	}
}

func TestComputeStatsATMAndStraddle(t *testing.T) {
	s := ComputeStats(statsChain(), 22000)

	if s.ATM == nil || s.ATM.Strike != 22000 {
		t.Fatalf("ATM = %+v, want row at 22000", s.ATM)
	}
	if s.StraddlePremium != 600 {
		t.Errorf("StraddlePremium = %v, want 600", s.StraddlePremium)
	}
	want := 600.0 / 22000 * 100
	if math.Abs(s.ExpectedMovePct-want) > 1e-9 {
		t.Errorf("ExpectedMovePct = %v, want %v", s.ExpectedMovePct, want)
	}
}

func TestComputeStatsNoATMRow(t *testing.T) {
	rows := statsChain()
	rows[1].IsATM = false

	s := ComputeStats(rows, 22000)
	if s.ATM != nil {
		t.Fatal("ATM must be nil when no row is flagged")
	}
	if s.StraddlePremium != 0 || s.ExpectedMovePct != 0 {
		t.Error("straddle figures must be zero without an ATM row")
	}
}

func TestComputeStatsNonPositiveSpot(t *testing.T) {
	for _, spot := range []float64{0, -1, math.NaN()} {
		s := ComputeStats(statsChain(), spot)
		if s.ExpectedMovePct != 0 {
			t.Errorf("spot %v: ExpectedMovePct = %v, want 0", spot, s.ExpectedMovePct)
		}
		if s.StraddlePremium != 600 {
			t.Errorf("spot %v: StraddlePremium = %v, want 600 (independent of spot)", spot, s.StraddlePremium)
		}
	}
}

func TestComputeStatsZeroCeOIUndefinedPCR(t *testing.T) {
	rows := []Row{
		{Strike: 100, CE: Side{OI: 0}, PE: Side{OI: 5000}},
		{Strike: 110, CE: Side{OI: 0}, PE: Side{OI: 2000}},
	}
	s := ComputeStats(rows, 105)
	if s.PCRDefined {
		t.Error("PCR must be undefined when total CE OI is zero")
	}
	if s.PCR != 0 {
		t.Errorf("undefined PCR value = %v, want 0", s.PCR)
	}
}

func TestComputeStatsMalformedValues(t *testing.T) {
	rows := statsChain()
	rows[0].CE.OI = math.NaN()
	rows[2].PE.Volume = math.Inf(1)

	s := ComputeStats(rows, 22000)
	if s.TotalCeOI != 51000 {
		t.Errorf("TotalCeOI = %v, want 51000 (NaN treated as absent)", s.TotalCeOI)
	}
	if s.TotalPeVolume != 12000 {
		t.Errorf("TotalPeVolume = %v, want 12000 (Inf treated as absent)", s.TotalPeVolume)
	}
}
