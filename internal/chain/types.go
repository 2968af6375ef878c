package chain

// Side holds one option leg's market data for a strike.
type Side struct {
	OI     float64 `json:"oi"`
	OIChg  float64 `json:"oi_chg"`
	Volume float64 `json:"volume"`
	IV     float64 `json:"iv"`
	LTP    float64 `json:"ltp"`
	Delta  float64 `json:"delta"`
	Theta  float64 `json:"theta"`
	Gamma  float64 `json:"gamma"`
	Vega   float64 `json:"vega"`
	// LTPChg is the change in last-traded-price since the previous snapshot.
	// Nil when the source does not supply it.
	LTPChg *float64 `json:"ltp_chg,omitempty"`
}

// Row is one strike's quote pair within a snapshot. Strike is the natural key;
// at most one row per snapshot may have IsATM set.
type Row struct {
	Strike float64 `json:"strike"`
	IsATM  bool    `json:"is_atm"`
	CE     Side    `json:"ce"`
	PE     Side    `json:"pe"`
}

// Field names accepted by Get and Format.
const (
	FieldStrike   = "strike"
	FieldCeOI     = "ce_oi"
	FieldCeOIChg  = "ce_oi_chg"
	FieldCeVolume = "ce_volume"
	FieldCeIV     = "ce_iv"
	FieldCeLTP    = "ce_ltp"
	FieldCeLTPChg = "ce_ltp_chg"
	FieldCeDelta  = "ce_delta"
	FieldCeTheta  = "ce_theta"
	FieldCeGamma  = "ce_gamma"
	FieldCeVega   = "ce_vega"
	FieldPeOI     = "pe_oi"
	FieldPeOIChg  = "pe_oi_chg"
	FieldPeVolume = "pe_volume"
	FieldPeIV     = "pe_iv"
	FieldPeLTP    = "pe_ltp"
	FieldPeLTPChg = "pe_ltp_chg"
	FieldPeDelta  = "pe_delta"
	FieldPeTheta  = "pe_theta"
	FieldPeGamma  = "pe_gamma"
	FieldPeVega   = "pe_vega"
)
