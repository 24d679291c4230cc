package display

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const indent = "  "

// Table renders an aligned, borderless text table.
type Table struct {
	theme   Theme
	headers []string
	rows    [][]string
	// highlightRow is the 0-based row to highlight (the next prayer). -1 = none.
	highlightRow int
}

// NewTable creates a new table with the given column headers.
func NewTable(th Theme, headers []string) *Table {
	return &Table{
		theme:        th,
		headers:      headers,
		highlightRow: -1,
	}
}

// AddRow appends a row of values.
func (t *Table) AddRow(values []string) {
	t.rows = append(t.rows, values)
}

// SetHighlightRow sets which row index (0-based) should be highlighted.
func (t *Table) SetHighlightRow(idx int) {
	t.highlightRow = idx
}

// Render produces the formatted table, each line indented.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	w := table.NewWriter()
	w.SetStyle(t.style())

	header := make(table.Row, len(t.headers))
	for i, h := range t.headers {
		header[i] = h
	}
	w.AppendHeader(header)

	for i, values := range t.rows {
		row := make(table.Row, len(t.headers))
		for j := range row {
			cell := ""
			if j < len(values) {
				cell = values[j]
			}
			if i == t.highlightRow {
				cell = t.theme.Accent(cell)
			}
			row[j] = cell
		}
		w.AppendRow(row)
	}

	var sb strings.Builder
	for _, line := range strings.Split(w.Render(), "\n") {
		sb.WriteString(indent + strings.TrimRight(line, " ") + "\n")
	}
	return sb.String()
}

func (t *Table) style() table.Style {
	s := table.StyleLight
	s.Name = "mosque-times"
	s.Box.PaddingLeft = ""
	s.Box.PaddingRight = ""
	s.Box.MiddleVertical = "  "
	s.Box.MiddleSeparator = "  "
	s.Options = table.Options{
		DrawBorder:      false,
		SeparateColumns: true,
		SeparateHeader:  true,
		SeparateRows:    false,
	}
	s.Format.Header = text.FormatDefault
	s.Color = table.ColorOptions{}
	if t.theme.Color {
		s.Color.Header = text.Colors{text.Bold}
		s.Color.Border = text.Colors{text.Faint}
		s.Color.Separator = text.Colors{text.Faint}
	}
	return s
}
