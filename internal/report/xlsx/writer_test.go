package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"khata/internal/report"
)

func sample(rows int) report.Statement {
	st := report.Statement{
		Title:       "Monthly Financial Statement",
		Period:      "March 2024",
		GeneratedAt: time.Date(2024, 3, 31, 10, 0, 0, 0, time.UTC),
		Summary:     []report.SummaryLine{{Label: "Total Received", Value: "PKR 10,000"}},
		Columns:     []string{"Date", "Description", "Type", "Amount"},
	}
	for i := 0; i < rows; i++ {
		st.Rows = append(st.Rows, report.Row{"2024-03-01", fmt.Sprintf("row %d", i), "Expense", "100"})
	}
	return st
}

func TestWriteProducesReadableWorkbook(t *testing.T) {
	var buf bytes.Buffer
	if err := New(2).Write(&buf, sample(3)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}

	if rows[0][0] != "Monthly Financial Statement" {
		t.Errorf("title cell = %q", rows[0][0])
	}
	if want := []string{"Total Received", "PKR 10,000"}; !slices.Equal(rows[2], want) {
		t.Errorf("summary row = %v, want %v", rows[2], want)
	}

	var footers []string
	for _, r := range rows {
		if len(r) > 0 && len(r[0]) > 4 && r[0][:4] == "Page" {
			footers = append(footers, r[0])
		}
	}
	if want := []string{"Page 1 of 2", "Page 2 of 2"}; !slices.Equal(footers, want) {
		t.Errorf("footers = %v, want %v", footers, want)
	}
}

func TestRenderUsesOneSheet(t *testing.T) {
	f, err := New(10).Render(sample(0))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); !slices.Equal(got, []string{SheetName}) {
		t.Errorf("sheets = %v, want [%s]", got, SheetName)
	}
}

func TestEscapeHeader(t *testing.T) {
	if got := escapeHeader("Tori & Wanda"); got != "Tori && Wanda" {
		t.Errorf("escapeHeader() = %q", got)
	}
}

func TestFileExporter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	exp := &FileExporter{Dir: dir, Writer: New(40)}
	st := sample(1)
	st.Account = "acc-1"

	if err := exp.Export(context.Background(), st); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "acc-1 March 2024 Monthly Financial Statement.xlsx")); err != nil {
		t.Errorf("expected workbook file: %v", err)
	}
}

func TestFileName(t *testing.T) {
	if got := FileName(" 05 March 2024 Daily/Expense "); got != "05 March 2024 Daily-Expense.xlsx" {
		t.Errorf("FileName() = %q", got)
	}
}
