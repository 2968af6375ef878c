// Package export renders a chain snapshot as a CSV document for download.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/marketlens/optionchain/internal/chain"
)

// ErrEmptyChain is returned instead of producing an empty file; callers must
// not create any output at all for an empty chain.
var ErrEmptyChain = errors.New("empty chain, nothing to export")

// utf8BOM lets spreadsheet apps detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// header is the fixed column set, calls on the left mirroring puts on the
// right around the strike.
var header = []string{
	"CE_OI", "CE_OI_Chg", "CE_Volume", "CE_IV", "CE_Delta", "CE_Theta", "CE_Gamma", "CE_Vega", "CE_LTP",
	"Strike", "Is_ATM",
	"PE_LTP", "PE_IV", "PE_Delta", "PE_Theta", "PE_Gamma", "PE_Vega", "PE_Volume", "PE_OI_Chg", "PE_OI",
}

// Metadata describes the exported snapshot for the leading comment line.
type Metadata struct {
	Symbol     string
	Expiry     string
	Spot       float64
	Filtered   bool
	ExportedAt time.Time
}

// WriteCSV writes the snapshot to w: UTF-8 BOM, a '#' metadata comment, the
// fixed header, then one line per row. Field escaping is RFC 4180 via
// encoding/csv. Nothing is written for an empty chain.
func WriteCSV(w io.Writer, rows []chain.Row, meta Metadata) error {
	if len(rows) == 0 {
		return ErrEmptyChain
	}

	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}

	symbol := meta.Symbol
	if meta.Filtered {
		symbol += " (filtered)"
	}
	comment := fmt.Sprintf("# Symbol: %s | Expiry: %s | Spot: %s | Rows: %d | Exported: %s\n",
		symbol, meta.Expiry, num(meta.Spot), len(rows),
		meta.ExportedAt.UTC().Format(time.RFC3339))
	if _, err := io.WriteString(w, comment); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, r := range rows {
		if err := cw.Write(record(r)); err != nil {
			return fmt.Errorf("writing row %v: %w", r.Strike, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

func record(r chain.Row) []string {
	atm := ""
	if r.IsATM {
		atm = "Y"
	}
	return []string{
		cell(r, chain.FieldCeOI),
		cell(r, chain.FieldCeOIChg),
		cell(r, chain.FieldCeVolume),
		cell(r, chain.FieldCeIV),
		cell(r, chain.FieldCeDelta),
		cell(r, chain.FieldCeTheta),
		cell(r, chain.FieldCeGamma),
		cell(r, chain.FieldCeVega),
		cell(r, chain.FieldCeLTP),
		num(r.Strike),
		atm,
		cell(r, chain.FieldPeLTP),
		cell(r, chain.FieldPeIV),
		cell(r, chain.FieldPeDelta),
		cell(r, chain.FieldPeTheta),
		cell(r, chain.FieldPeGamma),
		cell(r, chain.FieldPeVega),
		cell(r, chain.FieldPeVolume),
		cell(r, chain.FieldPeOIChg),
		cell(r, chain.FieldPeOI),
	}
}

// cell goes through the row accessor so malformed values export as 0.
func cell(r chain.Row, field string) string {
	return num(chain.Get(r, field))
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
