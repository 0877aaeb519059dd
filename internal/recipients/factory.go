package recipients

import (
	"context"
	"fmt"
	"os"

	"ratebot/internal/config"
)

// NewStore builds the recipient store selected by cfg.Store.
func NewStore(ctx context.Context, cfg config.RecipientsConfig) (Store, error) {
	switch cfg.Store {
	case config.StoreStatic:
		return NewStaticStore(cfg.Static), nil
	case config.StoreSheets:
		creds, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read sheets credentials: %w", err)
		}
		s, err := NewSheetsStore(ctx, creds, cfg.SpreadsheetID, cfg.Tab, cfg.EmailColumn)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown recipient store %q", cfg.Store)
	}
}
