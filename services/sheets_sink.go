package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"attendance/constants"
	"attendance/models"
	"attendance/services/logger"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// number of leading key columns (FirstName, LastName, Date)
const sheetKeyColumns = 3

// GoogleSheetSink mirrors rows into a Google spreadsheet.
type GoogleSheetSink struct {
	svc           *sheets.Service
	spreadsheetID string
	logger        logger.Logger

	mu        sync.Mutex
	sheetName string
}

type GoogleSheetSinkOptions struct {
	SpreadsheetID   string
	SheetName       string // empty: first sheet of the spreadsheet
	CredentialsFile string
	Logger          logger.Logger
	// ClientOptions replace the credentials file when set
	ClientOptions []option.ClientOption
}

func NewGoogleSheetSink(ctx context.Context, opts GoogleSheetSinkOptions) (*GoogleSheetSink, error) {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}

	clientOpts := opts.ClientOptions
	if len(clientOpts) == 0 {
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("missing Google Sheets credentials file at %s: %w", opts.CredentialsFile, err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("parse Google Sheets credentials: %w", err)
		}
		clientOpts = []option.ClientOption{option.WithCredentials(creds)}
	}

	svc, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	opts.Logger.Info("✅ Connected to Google Sheets %s", opts.SpreadsheetID)
	return &GoogleSheetSink{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		sheetName:     opts.SheetName,
		logger:        opts.Logger,
	}, nil
}

func (s *GoogleSheetSink) resolveSheet(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sheetName != "" {
		return s.sheetName, nil
	}
	doc, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("load spreadsheet info: %w", err)
	}
	if len(doc.Sheets) == 0 || doc.Sheets[0].Properties == nil {
		return "", fmt.Errorf("spreadsheet %s has no sheets", s.spreadsheetID)
	}
	s.sheetName = doc.Sheets[0].Properties.Title
	return s.sheetName, nil
}

// UpsertRows loads the sheet once, overwrites the non-empty cells of rows
// that already exist and appends the rest in a single request.
func (s *GoogleSheetSink) UpsertRows(ctx context.Context, rows []SheetRow) error {
	if len(rows) == 0 {
		return nil
	}
	sheet, err := s.resolveSheet(ctx)
	if err != nil {
		return err
	}
	prefix := quoteSheetName(sheet)

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, prefix+"!A:H").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read sheet rows: %w", err)
	}

	var appends [][]interface{}
	if len(resp.Values) == 0 {
		appends = append(appends, toInterfaces(constants.SheetColumns))
	}

	// sheet row number (1-based) per identity; header occupies row 1
	existing := make(map[string]int, len(resp.Values))
	for i, values := range resp.Values {
		if i == 0 || len(values) < sheetKeyColumns {
			continue
		}
		id := models.Identity{
			FirstName: fmt.Sprint(values[0]),
			LastName:  fmt.Sprint(values[1]),
			Date:      fmt.Sprint(values[2]),
		}
		if _, dup := existing[id.Key()]; !dup {
			existing[id.Key()] = i + 1
		}
	}

	var updates []*sheets.ValueRange
	added := make(map[string]int)
	for _, row := range rows {
		key := models.Identity{FirstName: row.FirstName, LastName: row.LastName, Date: row.Date}.Key()
		values := row.Values()

		if rowNum, ok := existing[key]; ok {
			for col := sheetKeyColumns; col < len(values); col++ {
				if values[col] == "" {
					continue
				}
				updates = append(updates, &sheets.ValueRange{
					Range:  fmt.Sprintf("%s!%s%d", prefix, columnLetter(col), rowNum),
					Values: [][]interface{}{{values[col]}},
				})
			}
			continue
		}

		// same identity twice in one batch: fold into the pending append
		if idx, ok := added[key]; ok {
			for col := sheetKeyColumns; col < len(values); col++ {
				if values[col] != "" {
					appends[idx][col] = values[col]
				}
			}
			continue
		}
		added[key] = len(appends)
		appends = append(appends, toInterfaces(values))
	}

	if len(updates) > 0 {
		_, err := s.svc.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateValuesRequest{
			ValueInputOption: "RAW",
			Data:             updates,
		}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update sheet rows: %w", err)
		}
	}

	if len(appends) > 0 {
		_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, prefix+"!A:H", &sheets.ValueRange{
			Values: appends,
		}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("append sheet rows: %w", err)
		}
	}

	s.logger.Debug("Sheet %s: %d cells updated, %d rows appended", sheet, len(updates), len(appends))
	return nil
}

func quoteSheetName(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// columnLetter maps a zero-based column index to A, B, ... Z, AA, ...
func columnLetter(col int) string {
	letters := ""
	for col >= 0 {
		letters = string(rune('A'+col%26)) + letters
		col = col/26 - 1
	}
	return letters
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
