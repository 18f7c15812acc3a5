// Package sheets wraps the Google Sheets v4 API as a plain row store. The
// order sheet is the system's only persistence; appends must be safe under
// concurrent writers, which the Sheets append semantics provide.
package sheets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"

	"github.com/cw-satou/astral-backend/internal/pkg/ctxutil"
	"github.com/cw-satou/astral-backend/internal/pkg/logger"
)

// RowStore is the tabular surface the repos build on.
type RowStore interface {
	AppendRow(ctx context.Context, values []any) error
	HeaderRow(ctx context.Context) ([]string, error)
	ColumnValues(ctx context.Context, column string) ([]string, error)
	Row(ctx context.Context, rowIndex int) ([]string, error)
}

type Config struct {
	SpreadsheetID string
	SheetName     string
}

func ConfigFromEnv() Config {
	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Sheet1"
	}
	return Config{
		SpreadsheetID: strings.TrimSpace(os.Getenv("GOOGLE_SHEET_ID")),
		SheetName:     sheetName,
	}
}

func NewFromEnv(ctx context.Context, log *logger.Logger) (RowStore, error) {
	return New(ctx, log, ConfigFromEnv())
}

func New(ctx context.Context, log *logger.Logger, cfg Config) (RowStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, fmt.Errorf("missing GOOGLE_SHEET_ID")
	}
	if strings.TrimSpace(cfg.SheetName) == "" {
		cfg.SheetName = "Sheet1"
	}

	svc, err := sheetsv4.NewService(ctxutil.Default(ctx), clientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("init sheets service: %w", err)
	}

	return &client{
		log: log.With("client", "SheetsClient"),
		cfg: cfg,
		svc: svc,
	}, nil
}

// clientOptionsFromEnv resolves the service-account credential: inline JSON
// first, then a file path, else ambient application-default credentials.
func clientOptionsFromEnv() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

type client struct {
	log *logger.Logger
	cfg Config
	svc *sheetsv4.Service
}

func (c *client) AppendRow(ctx context.Context, values []any) error {
	if c == nil || c.svc == nil {
		return fmt.Errorf("sheets client unavailable")
	}
	vr := &sheetsv4.ValueRange{Values: [][]any{values}}
	_, err := c.svc.Spreadsheets.Values.
		Append(c.cfg.SpreadsheetID, c.cfg.SheetName, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctxutil.Default(ctx)).
		Do()
	if err != nil {
		return fmt.Errorf("sheets append: %w", err)
	}
	return nil
}

func (c *client) HeaderRow(ctx context.Context) ([]string, error) {
	return c.Row(ctx, 1)
}

// ColumnValues fetches a single column (for example "A") top to bottom.
func (c *client) ColumnValues(ctx context.Context, column string) ([]string, error) {
	if c == nil || c.svc == nil {
		return nil, fmt.Errorf("sheets client unavailable")
	}
	rangeRef := fmt.Sprintf("%s!%s:%s", c.cfg.SheetName, column, column)
	resp, err := c.svc.Spreadsheets.Values.
		Get(c.cfg.SpreadsheetID, rangeRef).
		Context(ctxutil.Default(ctx)).
		Do()
	if err != nil {
		return nil, fmt.Errorf("sheets get column %s: %w", column, err)
	}
	out := make([]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		if len(row) == 0 {
			out = append(out, "")
			continue
		}
		out = append(out, cellString(row[0]))
	}
	return out, nil
}

// Row fetches one row by 1-based index.
func (c *client) Row(ctx context.Context, rowIndex int) ([]string, error) {
	if c == nil || c.svc == nil {
		return nil, fmt.Errorf("sheets client unavailable")
	}
	if rowIndex < 1 {
		return nil, fmt.Errorf("row index %d out of range", rowIndex)
	}
	rangeRef := fmt.Sprintf("%s!%d:%d", c.cfg.SheetName, rowIndex, rowIndex)
	resp, err := c.svc.Spreadsheets.Values.
		Get(c.cfg.SpreadsheetID, rangeRef).
		Context(ctxutil.Default(ctx)).
		Do()
	if err != nil {
		return nil, fmt.Errorf("sheets get row %d: %w", rowIndex, err)
	}
	if len(resp.Values) == 0 {
		return []string{}, nil
	}
	row := resp.Values[0]
	out := make([]string, 0, len(row))
	for _, cell := range row {
		out = append(out, cellString(cell))
	}
	return out, nil
}

func cellString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
