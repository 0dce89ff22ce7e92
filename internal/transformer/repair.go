// Package transformer turns raw source rows into the rows handed to the bulk
// importer: file-specific row repair, primary-key deduplication and the
// normalized scratch file that ties them together.
package transformer

// Column positions merged by RepairRow. The customer file carries a free-text
// address whose embedded delimiter splits it across these two fields.
const (
	repairLeft  = 10
	repairRight = 11
)

// RepairApplies reports whether a header with headerLen columns is one the
// repair rule knows about (12 or 13 columns).
func RepairApplies(headerLen int) bool {
	return headerLen == 12 || headerLen == 13
}

// RepairRow coerces a row that has exactly one field too many.
//
// When RepairApplies(headerLen) and len(row) == headerLen+1, fields 10 and 11
// are joined with ", " into field 10 and field 11 is dropped. Every other row
// is returned unchanged (the same slice).
func RepairRow(headerLen int, row []string) []string {
	if !RepairApplies(headerLen) || len(row) != headerLen+1 {
		return row
	}

	out := make([]string, 0, headerLen)
	out = append(out, row[:repairLeft]...)
	out = append(out, row[repairLeft]+", "+row[repairRight])
	out = append(out, row[repairRight+1:]...)
	return out
}
