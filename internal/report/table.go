package report

import (
	"fmt"
	"io"
	"strings"
)

// Alignment controls how a column's content is justified.
type Alignment int

const (
	// AlignLeft pads on the right (default).
	AlignLeft Alignment = iota
	// AlignRight pads on the left.
	AlignRight
)

// ColorFunc maps a cell value to a colored string. If nil, no color is applied.
type ColorFunc func(value string) string

// Column describes a single table column.
type Column struct {
	Header   string
	Align    Alignment
	Color    ColorFunc // optional per-cell color function
	MaxWidth int       // clip cells longer than this; 0 means unlimited
}

// Table renders aligned text tables for the scan command's findings and
// tool summary listings.
type Table struct {
	columns []Column
	rows    [][]string
}

// NewTable creates a table with the given column definitions.
func NewTable(columns ...Column) *Table {
	return &Table{columns: columns}
}

// AddRow appends a row. Values beyond the column count are silently ignored;
// missing values are treated as empty strings. Cells are clipped to their
// column's MaxWidth here so width computation sees the display value.
func (t *Table) AddRow(values ...string) {
	row := make([]string, len(t.columns))
	for i := range row {
		if i < len(values) {
			row[i] = clip(values[i], t.columns[i].MaxWidth)
		}
	}
	t.rows = append(t.rows, row)
}

// Render writes the table to w with computed column widths.
func (t *Table) Render(w io.Writer) error {
	if len(t.columns) == 0 {
		return nil
	}

	widths := t.columnWidths()

	header := make([]string, len(t.columns))
	rule := make([]string, len(t.columns))
	for i, col := range t.columns {
		header[i] = pad(col.Header, colorBold.Sprint(col.Header), widths[i], col.Align)
		rule[i] = strings.Repeat("-", widths[i])
	}
	if err := writeRow(w, header); err != nil {
		return err
	}
	if err := writeRow(w, rule); err != nil {
		return err
	}

	for _, row := range t.rows {
		cells := make([]string, len(t.columns))
		for i, col := range t.columns {
			display := row[i]
			if col.Color != nil {
				display = col.Color(row[i])
			}
			cells[i] = pad(row[i], display, widths[i], col.Align)
		}
		if err := writeRow(w, cells); err != nil {
			return err
		}
	}

	return nil
}

// columnWidths computes the display width of each column from its header
// and every cell added so far.
func (t *Table) columnWidths() []int {
	widths := make([]int, len(t.columns))
	for i, col := range t.columns {
		widths[i] = len(col.Header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	return widths
}

// pad justifies display within width. Padding is computed from the raw
// value so ANSI color codes do not skew alignment.
func pad(raw, display string, width int, align Alignment) string {
	fill := width - len(raw)
	if fill < 0 {
		fill = 0
	}
	if align == AlignRight {
		return strings.Repeat(" ", fill) + display
	}
	return display + strings.Repeat(" ", fill)
}

// writeRow emits one table line with the standard two-space indent and
// two-space column gutters.
func writeRow(w io.Writer, cells []string) error {
	if _, err := fmt.Fprintf(w, "  %s\n", strings.Join(cells, "  ")); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	return nil
}

// clip shortens s to max bytes, marking the cut with "...". A max of 3 or
// less disables clipping rather than producing an all-ellipsis cell.
func clip(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
