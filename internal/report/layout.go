package report

// LineKind tells writers how to style a laid-out line.
type LineKind int

const (
	LineTitle LineKind = iota
	LinePeriod
	LineSummary
	LineColumns
	LineRow
	LineNote
	LineFooter
	LineBlank
)

// Line is one row of the printed statement.
type Line struct {
	Kind  LineKind
	Cells []string
	// Page is the 1-based page the line belongs to.
	Page int
}

// Layout flattens the statement into printed lines. Every page starts with
// the title, period and column header and ends with a "Page i of n" footer.
// The summary goes on the first page and notes on the last.
func (s Statement) Layout(rowsPerPage int) []Line {
	pages := s.Paginate(rowsPerPage)
	var out []Line
	for _, p := range pages {
		add := func(kind LineKind, cells ...string) {
			out = append(out, Line{Kind: kind, Cells: cells, Page: p.Number})
		}
		add(LineTitle, s.Title)
		add(LinePeriod, s.Period, s.GeneratedLabel())
		if p.Number == 1 && len(s.Summary) > 0 {
			for _, sl := range s.Summary {
				add(LineSummary, sl.Label, sl.Value)
			}
			add(LineBlank)
		}
		add(LineColumns, s.Columns...)
		for _, r := range p.Rows {
			add(LineRow, r...)
		}
		if p.Number == p.Of && len(s.Notes) > 0 {
			add(LineBlank)
			for _, n := range s.Notes {
				add(LineNote, n)
			}
		}
		add(LineFooter, p.Footer())
	}
	return out
}
