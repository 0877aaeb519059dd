package report

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultPreviewPath is where the rendered report is saved for manual inspection.
const DefaultPreviewPath = "preview.html"

// WritePreview overwrites path with the UTF-8 encoded document.
func WritePreview(path, document string) error {
	if path == "" {
		path = DefaultPreviewPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create preview dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(document), 0o644); err != nil { //nolint:gosec // preview is meant to be readable
		return fmt.Errorf("write preview %s: %w", path, err)
	}
	return nil
}

// SampleEntries are the fixed example rates used to preview the layout without scraping.
func SampleEntries() []Entry {
	return []Entry{
		{SourceName: "Banco Popular", Buy: "$57.50", Sell: "$60.50"},
		{SourceName: "Banreservas", Buy: "$58.40", Sell: "$60.25"},
		{SourceName: "Banco BHD León", Buy: "$57.60", Sell: "$60.25"},
	}
}
