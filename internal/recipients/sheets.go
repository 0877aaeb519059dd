package recipients

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var _ Store = (*SheetsStore)(nil)

// SheetsStore reads subscribers from a Google Sheets form-responses tab.
type SheetsStore struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	tab           string
	column        int
}

// NewSheetsStore authenticates with service account credentials JSON.
func NewSheetsStore(ctx context.Context, credentialsJSON []byte, spreadsheetID, tab string, column int) (*SheetsStore, error) {
	jwtConfig, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("sheets: failed to parse credentials: %w", err)
	}
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("sheets: failed to create service: %w", err)
	}
	return newSheetsStore(svc, spreadsheetID, tab, column), nil
}

func newSheetsStore(svc *sheets.Service, spreadsheetID, tab string, column int) *SheetsStore {
	return &SheetsStore{
		values:        sheets.NewSpreadsheetsValuesService(svc),
		spreadsheetID: spreadsheetID,
		tab:           tab,
		column:        column,
	}
}

// ListRecipients reads every row of the tab and returns the email column.
func (s *SheetsStore) ListRecipients(ctx context.Context) ([]string, error) {
	resp, err := s.values.Get(s.spreadsheetID, tabRange(s.tab)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets: read %q: %w", s.tab, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, r := range resp.Values {
		row := make([]string, len(r))
		for i, v := range r {
			row[i] = cellString(v)
		}
		rows = append(rows, row)
	}
	return EmailsFromRows(rows, s.column), nil
}

// tabRange quotes a sheet name as an A1 range covering the whole tab.
func tabRange(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}
