// Package recipients lists the newsletter subscribers.
package recipients

import (
	"context"
	"fmt"
	"strings"
)

// Store returns subscriber email addresses in their stored order.
type Store interface {
	ListRecipients(ctx context.Context) ([]string, error)
}

// StaticStore serves a fixed list, used for development and tests.
type StaticStore struct {
	emails []string
}

// NewStaticStore creates a StaticStore. Entries are cleaned like sheet rows.
func NewStaticStore(emails []string) *StaticStore {
	rows := make([][]string, 0, len(emails)+1)
	rows = append(rows, nil)
	for _, e := range emails {
		rows = append(rows, []string{e})
	}
	return &StaticStore{emails: EmailsFromRows(rows, 1)}
}

// ListRecipients returns a copy of the configured list.
func (s *StaticStore) ListRecipients(_ context.Context) ([]string, error) {
	return append([]string(nil), s.emails...), nil
}

// EmailsFromRows picks the 1-based column of every row after the header, keeping
// trimmed values that contain '@'. Short rows are skipped.
func EmailsFromRows(rows [][]string, column int) []string {
	idx := column - 1
	if idx < 0 || len(rows) < 2 {
		return nil
	}
	var emails []string
	for _, row := range rows[1:] {
		if len(row) <= idx {
			continue
		}
		if v := strings.TrimSpace(row[idx]); strings.Contains(v, "@") {
			emails = append(emails, v)
		}
	}
	return emails
}

func cellString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
