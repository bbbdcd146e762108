package domain

import "strings"

// RawTable is an untyped tabular snapshot as returned by a source.
// Cells are strings or numbers; a nil cell is an empty value.
type RawTable struct {
	Columns []string
	Rows    [][]any
}

// ColumnIndex returns the position of the named column, comparing headers
// with surrounding whitespace removed. Returns -1 when absent.
func (t RawTable) ColumnIndex(name string) int {
	want := strings.TrimSpace(name)
	for i, c := range t.Columns {
		if strings.TrimSpace(c) == want {
			return i
		}
	}
	return -1
}

// Cell returns the cell at row i, column idx. Short rows yield nil.
func (t RawTable) Cell(i, idx int) any {
	if idx < 0 || i < 0 || i >= len(t.Rows) {
		return nil
	}
	row := t.Rows[i]
	if idx >= len(row) {
		return nil
	}
	return row[idx]
}

// TableFromRows builds a RawTable from a header row followed by data rows,
// the layout every spreadsheet source returns.
func TableFromRows(rows [][]any) RawTable {
	if len(rows) == 0 {
		return RawTable{}
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		if s, ok := h.(string); ok {
			header[i] = s
		}
	}
	return RawTable{Columns: header, Rows: rows[1:]}
}

// ColumnMapping names the external columns carrying each snapshot field.
type ColumnMapping struct {
	Name              string `yaml:"name"`
	SalePrice         string `yaml:"salePrice"`
	LeasePrice        string `yaml:"leasePrice"`
	UnitCount         string `yaml:"unitCount"`
	PreviousPeakPrice string `yaml:"previousPeakPrice"`
}

// DefaultColumnMapping matches the headers of the tracked price sheets.
var DefaultColumnMapping = ColumnMapping{
	Name:              "단지명",
	SalePrice:         "매매가",
	LeasePrice:        "전세가",
	UnitCount:         "총세대수",
	PreviousPeakPrice: "전고점",
}

// WithDefaults fills empty entries from DefaultColumnMapping.
func (m ColumnMapping) WithDefaults() ColumnMapping {
	if m.Name == "" {
		m.Name = DefaultColumnMapping.Name
	}
	if m.SalePrice == "" {
		m.SalePrice = DefaultColumnMapping.SalePrice
	}
	if m.LeasePrice == "" {
		m.LeasePrice = DefaultColumnMapping.LeasePrice
	}
	if m.UnitCount == "" {
		m.UnitCount = DefaultColumnMapping.UnitCount
	}
	if m.PreviousPeakPrice == "" {
		m.PreviousPeakPrice = DefaultColumnMapping.PreviousPeakPrice
	}
	return m
}
