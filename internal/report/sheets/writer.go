// Package sheets publishes statements to a Google spreadsheet, one tab per
// statement named "<period> <title>".
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"khata/internal/log"
	"khata/internal/report"
)

// maxTabName is the Sheets limit on tab titles.
const maxTabName = 100

type Writer struct {
	svc           *gsheet.Service
	spreadsheetID string
	rowsPerPage   int
}

var _ report.Exporter = (*Writer)(nil)

// New creates a writer authenticated with service account credentials.
func New(ctx context.Context, spreadsheetID string, credentialsJSON []byte, rowsPerPage int) (*Writer, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created",
		log.FieldComponent, log.ComponentReport,
		"credentials_size", len(credentialsJSON))
	return NewWithService(svc, spreadsheetID, rowsPerPage), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gsheet.Service, spreadsheetID string, rowsPerPage int) *Writer {
	return &Writer{svc: svc, spreadsheetID: spreadsheetID, rowsPerPage: rowsPerPage}
}

// LoadCredentials returns inline JSON when given, otherwise the contents of
// file, otherwise of GOOGLE_APPLICATION_CREDENTIALS.
func LoadCredentials(inlineJSON, file string) ([]byte, error) {
	inlineJSON = strings.TrimSpace(inlineJSON)
	file = strings.TrimSpace(file)
	if inlineJSON == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case inlineJSON != "":
		return []byte(inlineJSON), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// Export replaces the contents of the statement's tab, creating the tab
// when it does not exist yet.
func (w *Writer) Export(ctx context.Context, st report.Statement) error {
	if w.svc == nil {
		return errors.New("sheets service not initialized")
	}
	tab := TabName(st)
	if err := w.ensureTab(ctx, tab); err != nil {
		return err
	}

	rng := a1(tab, "A:Z")
	if _, err := w.svc.Spreadsheets.Values.Clear(w.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}

	lines := st.Layout(w.rowsPerPage)
	values := make([][]any, len(lines))
	for i, l := range lines {
		row := make([]any, len(l.Cells))
		for j, c := range l.Cells {
			row[j] = c
		}
		values[i] = row
	}
	rng = a1(tab, "A1")
	if _, err := w.svc.Spreadsheets.Values.Update(w.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}

	slog.InfoContext(ctx, "Exported statement to Google Sheets",
		log.FieldComponent, log.ComponentReport,
		log.FieldTarget, tab,
		log.FieldCount, len(values))
	return nil
}

func (w *Writer) ensureTab(ctx context.Context, tab string) error {
	ss, err := w.svc.Spreadsheets.Get(w.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == tab {
			return nil
		}
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: tab}},
		}},
	}
	if _, err := w.svc.Spreadsheets.BatchUpdate(w.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %q: %w", tab, err)
	}
	return nil
}

// TabName is "<period> <title>", prefixed by the account when set.
func TabName(st report.Statement) string {
	name := st.Heading()
	if st.Account != "" {
		name = st.Account + " " + name
	}
	if len(name) > maxTabName {
		name = name[:maxTabName]
	}
	return name
}

// a1 quotes the tab name for A1 notation.
func a1(tab, cells string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'!" + cells
}
