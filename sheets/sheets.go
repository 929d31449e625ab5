// Package sheets records leads as rows of a shared Google Sheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	leadform "github.com/phbpx/leadform"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// DefaultName is the spreadsheet title used when Config.Name is empty.
const DefaultName = "Lead Tracker"

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// Scopes requested for every append.
var Scopes = []string{
	"https://spreadsheets.google.com/feeds",
	"https://www.googleapis.com/auth/drive",
}

var ErrSpreadsheetNotFound = errors.New("spreadsheet not found")

// Config is the required properties to write to the ledger sheet.
type Config struct {
	// Credentials is a service-account key file in JSON form.
	Credentials []byte
	Name        string
}

// Ledger implements leadform.Ledger. Every Append authorises from scratch
// and resolves the spreadsheet by title.
type Ledger struct {
	name      string
	authorize func(ctx context.Context) ([]option.ClientOption, error)

	driveOpts  []option.ClientOption
	sheetsOpts []option.ClientOption
}

// New creates a Ledger. Credentials are parsed on each Append, not here.
func New(cfg Config) *Ledger {
	name := cfg.Name
	if name == "" {
		name = DefaultName
	}

	creds := cfg.Credentials
	return &Ledger{
		name: name,
		authorize: func(ctx context.Context) ([]option.ClientOption, error) {
			return serviceAccount(ctx, creds)
		},
	}
}

func serviceAccount(ctx context.Context, creds []byte) ([]option.ClientOption, error) {
	if len(creds) == 0 {
		return nil, errors.New("sheets credentials are not configured")
	}

	jwt, err := google.JWTConfigFromJSON(creds, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing sheets credentials: %w", err)
	}
	return []option.ClientOption{option.WithTokenSource(jwt.TokenSource(ctx))}, nil
}

// Append writes entry as a new row at the bottom of the first worksheet.
func (l *Ledger) Append(ctx context.Context, entry leadform.Entry) error {
	auth, err := l.authorize(ctx)
	if err != nil {
		return err
	}

	driveSrv, err := drive.NewService(ctx, append(auth, l.driveOpts...)...)
	if err != nil {
		return fmt.Errorf("creating drive client: %w", err)
	}

	sheetsSrv, err := sheetsapi.NewService(ctx, append(auth, l.sheetsOpts...)...)
	if err != nil {
		return fmt.Errorf("creating sheets client: %w", err)
	}

	id, err := l.resolve(ctx, driveSrv)
	if err != nil {
		return err
	}

	tab, err := firstWorksheet(ctx, sheetsSrv, id)
	if err != nil {
		return err
	}

	row := entry.Row()
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}

	_, err = sheetsSrv.Spreadsheets.Values.
		Append(id, a1Range(tab), &sheetsapi.ValueRange{Values: [][]interface{}{cells}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("appending row to %q: %w", l.name, err)
	}
	return nil
}

// resolve finds the spreadsheet id for the configured title.
func (l *Ledger) resolve(ctx context.Context, srv *drive.Service) (string, error) {
	list, err := srv.Files.List().
		Q(titleQuery(l.name)).
		Fields("files(id,name)").
		PageSize(1).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("looking up spreadsheet %q: %w", l.name, err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("%w: %q", ErrSpreadsheetNotFound, l.name)
	}
	return list.Files[0].Id, nil
}

func firstWorksheet(ctx context.Context, srv *sheetsapi.Service, id string) (string, error) {
	ss, err := srv.Spreadsheets.Get(id).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("reading spreadsheet %s: %w", id, err)
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return "", fmt.Errorf("spreadsheet %s has no worksheets", id)
	}
	return ss.Sheets[0].Properties.Title, nil
}

var queryEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func titleQuery(name string) string {
	return fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		queryEscaper.Replace(name), spreadsheetMimeType)
}

func a1Range(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'!A1"
}
