package chain

import "sort"

// SortDirection is the tri-state column sort cycle.
type SortDirection string

const (
	SortNone SortDirection = ""
	SortDesc SortDirection = "desc"
	SortAsc  SortDirection = "asc"
)

// Sorter cycles a single sortable column through unsorted -> desc -> asc and
// resets itself whenever the chain identity (symbol, expiry) changes, so a
// sort order never silently carries over to another instrument.
type Sorter struct {
	column    string
	direction SortDirection
	symbol    string
	expiry    string
}

// NewSorter returns an unsorted Sorter bound to the given chain identity.
func NewSorter(symbol, expiry string) *Sorter {
	return &Sorter{symbol: symbol, expiry: expiry}
}

// Column returns the active sort column, "" when unsorted.
func (s *Sorter) Column() string { return s.column }

// Direction returns the active sort direction.
func (s *Sorter) Direction() SortDirection { return s.direction }

// SetInstrument resets the sorter to unsorted when the identity differs from
// the one it was bound to.
func (s *Sorter) SetInstrument(symbol, expiry string) {
	if s.symbol == symbol && s.expiry == expiry {
		return
	}
	s.symbol = symbol
	s.expiry = expiry
	s.column = ""
	s.direction = SortNone
}

// Toggle advances the sort state for field. Toggling the active field steps
// desc -> asc -> unsorted; toggling a different field jumps straight to desc.
func (s *Sorter) Toggle(field string) {
	if s.column != field {
		s.column = field
		s.direction = SortDesc
		return
	}
	switch s.direction {
	case SortDesc:
		s.direction = SortAsc
	case SortAsc:
		s.column = ""
		s.direction = SortNone
	default:
		s.direction = SortDesc
	}
}

// Apply returns a sorted copy of rows, leaving the input untouched. The sort
// is stable and keys through Get, so missing or NaN fields order as zero.
// When unsorted the input slice is returned as-is.
func (s *Sorter) Apply(rows []Row) []Row {
	if s.column == "" || s.direction == SortNone || len(rows) == 0 {
		return rows
	}

	out := make([]Row, len(rows))
	copy(out, rows)

	col := s.column
	asc := s.direction == SortAsc
	sort.SliceStable(out, func(i, j int) bool {
		a, b := Get(out[i], col), Get(out[j], col)
		if asc {
			return a < b
		}
		return a > b
	})
	return out
}
