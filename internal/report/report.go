// Package report renders the daily USD/DOP rate table as a standalone HTML document.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

// Unavailable is shown in both rate columns when a source could not be scraped.
const Unavailable = "No disponible"

// Default texts of the newsletter.
const (
	DefaultTitle       = "Tasas USD/DOP hoy"
	DefaultFooter      = "Enviado automáticamente por tu bot de tasas USD/DOP."
	DefaultUnsubscribe = "Para dejar de recibir este correo, responde con UNSUBSCRIBE."
)

var spanishMonths = [12]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

//go:embed templates/report.html.tmpl
var templatesFS embed.FS

var reportTmpl = template.Must(template.ParseFS(templatesFS, "templates/report.html.tmpl"))

// Entry is one table row. Buy and Sell hold Unavailable when scraping failed.
type Entry struct {
	SourceName string `json:"source"`
	Buy        string `json:"buy"`
	Sell       string `json:"sell"`
}

// UnavailableEntry returns the placeholder row for a source that failed.
func UnavailableEntry(source string) Entry {
	return Entry{SourceName: source, Buy: Unavailable, Sell: Unavailable}
}

// IsAvailable reports whether the entry carries scraped rates.
func (e Entry) IsAvailable() bool {
	return e.Buy != Unavailable && e.Sell != Unavailable
}

// Options tunes the rendered document.
type Options struct {
	Title       string
	Footer      string
	Unsubscribe string
	// LegacyUnescaped writes source names and rates verbatim, without HTML escaping.
	LegacyUnescaped bool
}

// Renderer turns rate entries into HTML. It holds no mutable state.
type Renderer struct {
	opts Options
}

// NewRenderer creates a Renderer, filling empty texts with the defaults.
func NewRenderer(opts Options) *Renderer {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.Footer == "" {
		opts.Footer = DefaultFooter
	}
	if opts.Unsubscribe == "" {
		opts.Unsubscribe = DefaultUnsubscribe
	}
	return &Renderer{opts: opts}
}

type row struct {
	Name any
	Buy  any
	Sell any
}

type view struct {
	Title       string
	Date        string
	Rows        []row
	Footer      string
	Unsubscribe string
}

// Render produces the full HTML document for entries, in the given order, dated date.
func (r *Renderer) Render(entries []Entry, date time.Time) (string, error) {
	if date.IsZero() {
		return "", fmt.Errorf("render report: zero date")
	}

	v := view{
		Title:       r.opts.Title,
		Date:        FormatDate(date),
		Rows:        make([]row, 0, len(entries)),
		Footer:      r.opts.Footer,
		Unsubscribe: r.opts.Unsubscribe,
	}
	for _, e := range entries {
		v.Rows = append(v.Rows, r.row(e))
	}

	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

func (r *Renderer) row(e Entry) row {
	if r.opts.LegacyUnescaped {
		//nolint:gosec // legacy output is unescaped on purpose
		return row{Name: template.HTML(e.SourceName), Buy: template.HTML(e.Buy), Sell: template.HTML(e.Sell)}
	}
	return row{Name: e.SourceName, Buy: e.Buy, Sell: e.Sell}
}

// FormatDate formats date as "5 de marzo de 2024".
func FormatDate(date time.Time) string {
	return fmt.Sprintf("%d de %s de %04d", date.Day(), spanishMonths[date.Month()-1], date.Year())
}
