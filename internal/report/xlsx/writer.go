// Package xlsx renders statements as Excel workbooks.
package xlsx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"khata/internal/log"
	"khata/internal/report"
)

// SheetName is the single worksheet every statement is written to.
const SheetName = "Statement"

// Writer renders a statement onto one worksheet, with a page break after
// every page's footer and the title repeated in the print header.
type Writer struct {
	RowsPerPage int
}

func New(rowsPerPage int) *Writer {
	return &Writer{RowsPerPage: rowsPerPage}
}

// Render builds the workbook. The caller must Close it.
func (w *Writer) Render(st report.Statement) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := w.fill(f, st); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func (w *Writer) fill(f *excelize.File, st report.Statement) error {
	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	cols := max(len(st.Columns), 2)
	for i := 1; i <= cols; i++ {
		name, _ := excelize.ColumnNumberToName(i)
		width := 16.0
		if i == 2 {
			width = 40
		}
		if err := f.SetColWidth(SheetName, name, name, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	lines := st.Layout(w.RowsPerPage)
	for i, line := range lines {
		row := i + 1
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := make([]any, len(line.Cells))
		for j, c := range line.Cells {
			values[j] = c
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		if style, ok := styles[line.Kind]; ok && len(line.Cells) > 0 {
			last, _ := excelize.CoordinatesToCellName(max(len(line.Cells), 1), row)
			if err := f.SetCellStyle(SheetName, cell, last, style); err != nil {
				return fmt.Errorf("style row %d: %w", row, err)
			}
		}
		if line.Kind == report.LineFooter && i < len(lines)-1 {
			next, _ := excelize.CoordinatesToCellName(1, row+1)
			if err := f.InsertPageBreak(SheetName, next); err != nil {
				return fmt.Errorf("insert page break: %w", err)
			}
		}
	}

	return f.SetHeaderFooter(SheetName, &excelize.HeaderFooterOptions{
		OddHeader: "&C&B" + escapeHeader(st.Heading()),
		OddFooter: "&L" + escapeHeader(st.GeneratedLabel()) + "&RPage &P of &N",
	})
}

func newStyles(f *excelize.File) (map[report.LineKind]int, error) {
	title, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F1F5F9"}},
	})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	footer, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Italic: true, Color: "94A3B8"}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	return map[report.LineKind]int{
		report.LineTitle:   title,
		report.LineColumns: header,
		report.LineFooter:  footer,
	}, nil
}

// escapeHeader doubles '&', which starts a control code in print headers.
func escapeHeader(s string) string {
	return strings.ReplaceAll(s, "&", "&&")
}

// Write renders st and streams the workbook to out.
func (w *Writer) Write(out io.Writer, st report.Statement) error {
	f, err := w.Render(st)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// FileExporter saves statements as "<period> <title>.xlsx" under Dir.
type FileExporter struct {
	Dir    string
	Writer *Writer
}

func (e *FileExporter) Export(ctx context.Context, st report.Statement) error {
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	path := e.Path(st)
	f, err := e.Writer.Render(st)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	slog.InfoContext(ctx, "Exported statement",
		log.FieldComponent, log.ComponentReport,
		log.FieldTarget, path,
		log.FieldCount, len(st.Rows))
	return nil
}

// Path is where Export writes st.
func (e *FileExporter) Path(st report.Statement) string {
	name := st.Heading()
	if st.Account != "" {
		name = st.Account + " " + name
	}
	return filepath.Join(e.Dir, FileName(name))
}

// FileName turns a heading into a safe .xlsx file name.
func FileName(heading string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, strings.TrimSpace(heading))
	return clean + ".xlsx"
}
