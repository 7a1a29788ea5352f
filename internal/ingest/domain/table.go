package ingest

// Kind identifies one of the five input file kinds.
type Kind string

const (
	KindDemand          Kind = "demand"
	KindDataCenter      Kind = "data_center"
	KindCapacity        Kind = "capacity"
	KindTechnologies    Kind = "technologies"
	KindCapacityFactors Kind = "capacity_factors"
)

// Kinds lists every input kind in load order.
var Kinds = []Kind{KindDemand, KindDataCenter, KindCapacity, KindTechnologies, KindCapacityFactors}

// RawTable is a parsed file before typing. Cells are strings, except where
// the source format carries native values (time.Time from spreadsheets).
type RawTable struct {
	Columns []string
	Rows    [][]any
}

// ColumnIndex returns the position of name, or -1.
func (t RawTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns all cells of the column at idx.
func (t RawTable) Column(idx int) []any {
	out := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		if idx < len(row) {
			out[i] = row[idx]
		}
	}
	return out
}

// Len returns the number of data rows.
func (t RawTable) Len() int { return len(t.Rows) }
