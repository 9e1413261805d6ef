// Package sheets reads the invoice ledger from Google Sheets, writes payment
// status changes back to it and appends imported invoice lines.
//
// Environment Variables:
//   - GOOGLE_APPLICATION_CREDENTIALS: path to a service account JSON file
//   - GOOGLE_CREDENTIALS: service account JSON, used when no file is set
//   - GOOGLE_SHEET_URL: URL of the spreadsheet holding the ledger
//   - GOOGLE_SHEET_WORKSHEET: worksheet (tab) name of the ledger
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"invoiceqa/internal/ledger"
	"invoiceqa/internal/logger"
)

// DefaultWorksheet is the tab exported by the accounting system
const DefaultWorksheet = "Invoice Detail Listing"

var (
	// ErrInvalidSheetURL is returned when a URL carries no spreadsheet ID.
	ErrInvalidSheetURL = errors.New("invalid Google Sheets URL format")

	// ErrMissingCredentials is returned when neither credentials variable is set.
	ErrMissingCredentials = errors.New("neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set")
)

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// Service handles Google Sheets operations on one worksheet
type Service struct {
	sheetsService *sheets.Service
	spreadsheetID string
	worksheet     string
	log           zerolog.Logger
}

// NewSheetsService creates a Service for the worksheet of the spreadsheet at sheetURL
func NewSheetsService(ctx context.Context, sheetURL, worksheet string) (*Service, error) {
	const op = "NewSheetsService"

	spreadsheetID, err := extractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to extract spreadsheet ID: %w", op, err)
	}

	creds, err := credentials()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	config, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	sheetsService, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return newService(sheetsService, spreadsheetID, worksheet), nil
}

func newService(svc *sheets.Service, spreadsheetID, worksheet string) *Service {
	if worksheet == "" {
		worksheet = DefaultWorksheet
	}
	log := logger.WithComponent("sheets")
	log.Debug().
		Str("spreadsheet_id", spreadsheetID).
		Str("worksheet", worksheet).
		Msg("Sheets service ready")

	return &Service{
		sheetsService: svc,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
		log:           log,
	}
}

func credentials() ([]byte, error) {
	if credsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credsFile != "" {
		creds, err := os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		return creds, nil
	}
	if credsJSON := os.Getenv("GOOGLE_CREDENTIALS"); credsJSON != "" {
		return []byte(credsJSON), nil
	}
	return nil, ErrMissingCredentials
}

// extractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
func extractSpreadsheetID(url string) (string, error) {
	matches := spreadsheetIDPattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", ErrInvalidSheetURL
	}
	return matches[1], nil
}

// Worksheet returns the name of the worksheet the Service reads
func (s *Service) Worksheet() string {
	return s.worksheet
}

// ReadRange reads values from a specified range in the spreadsheet
func (s *Service) ReadRange(ctx context.Context, rangeSpec string) ([][]interface{}, error) {
	const op = "ReadRange"

	s.log.Debug().
		Str("range", rangeSpec).
		Msg("Reading range from spreadsheet")

	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, rangeSpec).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read range %s: %w", op, rangeSpec, err)
	}

	s.log.Debug().
		Int("rows", len(resp.Values)).
		Str("range", rangeSpec).
		Msg("Successfully read range from spreadsheet")

	return resp.Values, nil
}

// ReadTable reads the whole worksheet as a ledger table
func (s *Service) ReadTable(ctx context.Context) (ledger.Table, error) {
	const op = "ReadTable"

	start := time.Now()
	values, err := s.ReadRange(ctx, quoteSheet(s.worksheet))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	table := ledger.FromValues(values)
	s.log.Info().
		Str("worksheet", s.worksheet).
		Int("rows", len(table)).
		Dur("duration", time.Since(start)).
		Msg("Ledger read from Google Sheet")

	return table, nil
}

// WriteCells overwrites single cells of the worksheet in one batch request
func (s *Service) WriteCells(ctx context.Context, updates []ledger.CellUpdate) error {
	const op = "WriteCells"

	if len(updates) == 0 {
		return nil
	}

	data := make([]*sheets.ValueRange, 0, len(updates))
	for _, u := range updates {
		data = append(data, &sheets.ValueRange{
			Range:  cellRange(s.worksheet, u.Row, u.Column),
			Values: [][]interface{}{{u.Value}},
		})
	}

	req := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}
	resp, err := s.sheetsService.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to update %d cells: %w", op, len(updates), err)
	}

	s.log.Info().
		Str("worksheet", s.worksheet).
		Int64("cells_updated", resp.TotalUpdatedCells).
		Msg("Successfully updated cells")

	return nil
}

// AppendRows appends rows after the last row of the worksheet
func (s *Service) AppendRows(ctx context.Context, rows [][]string) error {
	const op = "AppendRows"

	if len(rows) == 0 {
		return nil
	}

	values := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		cells := make([]interface{}, len(row))
		for i, v := range row {
			cells[i] = v
		}
		values = append(values, cells)
	}

	_, err := s.sheetsService.Spreadsheets.Values.Append(
		s.spreadsheetID,
		quoteSheet(s.worksheet),
		&sheets.ValueRange{Values: values},
	).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to append values to sheet: %w", op, err)
	}

	s.log.Info().
		Str("worksheet", s.worksheet).
		Int("rows_written", len(values)).
		Msg("Successfully appended rows")

	return nil
}

// EnsureWorksheet creates the worksheet when it is missing and writes header
// to an empty first row.
func (s *Service) EnsureWorksheet(ctx context.Context, header []string) error {
	const op = "EnsureWorksheet"

	spreadsheet, err := s.sheetsService.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get spreadsheet: %w", op, err)
	}

	var (
		exists  bool
		sheetID int64
	)
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == s.worksheet {
			exists = true
			sheetID = sheet.Properties.SheetId
			break
		}
	}

	if !exists {
		s.log.Info().Str("worksheet", s.worksheet).Msg("Creating worksheet")

		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: s.worksheet}},
			}},
		}
		resp, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to create worksheet: %w", op, err)
		}
		if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil {
			sheetID = resp.Replies[0].AddSheet.Properties.SheetId
		}
	}

	headerRange := fmt.Sprintf("%s!A1:%s1", quoteSheet(s.worksheet), columnLetter(len(header)-1))
	existing, err := s.ReadRange(ctx, headerRange)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(existing) > 0 && len(existing[0]) > 0 {
		return nil
	}

	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	_, err = s.sheetsService.Spreadsheets.Values.Update(
		s.spreadsheetID,
		headerRange,
		&sheets.ValueRange{Values: [][]interface{}{row}},
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to add headers: %w", op, err)
	}

	if err := s.formatHeader(ctx, sheetID, len(header)); err != nil {
		s.log.Warn().Err(err).Msg("Failed to format headers, continuing anyway")
	}
	return nil
}

// formatHeader makes the header row bold and resizes its columns
func (s *Service) formatHeader(ctx context.Context, sheetID int64, columns int) error {
	const op = "formatHeader"

	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   int64(columns),
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat:      &sheets.TextFormat{Bold: true},
						BackgroundColor: &sheets.Color{Red: 0.9, Green: 0.9, Blue: 0.9},
					},
				},
				Fields: "userEnteredFormat(textFormat,backgroundColor)",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   int64(columns),
				},
			},
		},
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}
	if _, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("%s: failed to format headers: %w", op, err)
	}
	return nil
}

// quoteSheet quotes a worksheet name for A1 notation
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// cellRange returns the A1 range of one cell, e.g. 'Ledger'!M12
func cellRange(worksheet string, row, column int) string {
	return fmt.Sprintf("%s!%s%d", quoteSheet(worksheet), columnLetter(column), row)
}

// columnLetter converts a 0-based column index to its letters: 0 is A, 26 is AA
func columnLetter(index int) string {
	var letters []byte
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		letters = append([]byte{byte('A' + (n-1)%26)}, letters...)
	}
	return string(letters)
}
