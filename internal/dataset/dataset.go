package dataset

import (
	"fmt"
	"strings"
)

// Dataset is a snapshot of tabular data: ordered column names plus rows.
// A Dataset is never mutated in place; operations that change shape return
// a new value so earlier snapshots stay valid.
type Dataset struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// internalColumns is the fixed deny-list of identifier and bookkeeping
// columns stripped from fetched data before analysis. Surrogate keys and
// foreign keys carry no analytical signal and would leak into model prompts.
var internalColumns = map[string]struct{}{
	"id": {}, "batchId": {}, "bookId": {}, "businessId": {}, "counterId": {},
	"customerId": {}, "employeeId": {}, "hsnCode": {}, "itemGroupId": {},
	"itemId": {}, "locationId": {}, "posId": {}, "posTxnNo": {}, "refTxId": {},
	"refTxnNo": {}, "sessionBaseTxnNo": {}, "sessionId": {}, "sku": {},
	"taxId": {}, "supplierId": {}, "taxType": {},
}

// New creates a Dataset from columns and rows.
func New(columns []string, rows [][]any) Dataset {
	return Dataset{Columns: columns, Rows: rows}
}

// NumRows returns the number of rows.
func (d Dataset) NumRows() int {
	return len(d.Rows)
}

// NumColumns returns the number of columns.
func (d Dataset) NumColumns() int {
	return len(d.Columns)
}

// Empty reports whether the dataset has no rows.
func (d Dataset) Empty() bool {
	return len(d.Rows) == 0
}

// Prune returns a copy of the dataset with internal identifier columns
// removed. The relative order of the remaining columns is preserved.
func (d Dataset) Prune() Dataset {
	keep := make([]int, 0, len(d.Columns))
	columns := make([]string, 0, len(d.Columns))
	for i, col := range d.Columns {
		if _, denied := internalColumns[col]; denied {
			continue
		}
		keep = append(keep, i)
		columns = append(columns, col)
	}

	if len(keep) == len(d.Columns) {
		return d
	}

	rows := make([][]any, len(d.Rows))
	for r, row := range d.Rows {
		pruned := make([]any, 0, len(keep))
		for _, i := range keep {
			if i < len(row) {
				pruned = append(pruned, row[i])
			} else {
				pruned = append(pruned, nil)
			}
		}
		rows[r] = pruned
	}

	return Dataset{Columns: columns, Rows: rows}
}

// Sample returns a copy limited to at most n rows. Column order and row
// order are preserved.
func (d Dataset) Sample(n int) Dataset {
	if n < 0 || n >= len(d.Rows) {
		return d
	}
	return Dataset{Columns: d.Columns, Rows: d.Rows[:n]}
}

// Profile renders a compact schema summary for model prompting: per
// column its name, the Go type of its values, and the non-null count.
func (d Dataset) Profile() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d rows, %d columns\n", len(d.Rows), len(d.Columns))
	for i, col := range d.Columns {
		typeName := "unknown"
		nonNull := 0
		for _, row := range d.Rows {
			if i >= len(row) || row[i] == nil {
				continue
			}
			nonNull++
			if typeName == "unknown" {
				typeName = fmt.Sprintf("%T", row[i])
			}
		}
		fmt.Fprintf(&b, "%s: %s, %d non-null\n", col, typeName, nonNull)
	}
	return b.String()
}
