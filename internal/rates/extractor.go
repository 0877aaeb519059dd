// Package rates extracts buy/sell exchange rates from bank rate listing pages.
package rates

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ErrNotFound is returned when a page does not contain a usable rate row.
var ErrNotFound = errors.New("rates not found")

// minDataCells is the number of <td> cells a row needs to be taken as the data row:
// label, buy, sell.
const minDataCells = 3

// Confidence describes how the data row was located.
type Confidence string

// Confidence values reported by Extractor.
const (
	// ConfidenceHeuristic means no anchor was configured and the first row with
	// enough cells in the first table was used.
	ConfidenceHeuristic Confidence = "heuristic"
	// ConfidenceAnchored means the row was found right after the configured anchor cell.
	ConfidenceAnchored Confidence = "anchored"
	// ConfidenceLow means an anchor was configured but not found, and the heuristic was used.
	ConfidenceLow Confidence = "low"
)

// Pair is a buy/sell rate pair as scraped, e.g. "$57.50" / "$60.50".
type Pair struct {
	Buy  string
	Sell string
}

// Result is a Pair plus how it was located.
type Result struct {
	Pair
	Confidence Confidence
}

// Extractor locates the rate row in a page.
//
// With an empty Anchor the first table's first row with at least three cells is the
// data row. A non-empty Anchor names a cell text (for example "Compra") marking the
// header row; the data row is the first qualifying row after it.
type Extractor struct {
	Anchor string
}

// NewExtractor creates an Extractor. anchor may be empty.
func NewExtractor(anchor string) *Extractor {
	return &Extractor{Anchor: strings.TrimSpace(anchor)}
}

// Extract parses markup and returns the buy/sell pair, or ErrNotFound.
func (e *Extractor) Extract(markup string) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return Result{}, ErrNotFound
	}

	if e.Anchor != "" {
		if pair, ok := anchoredPair(doc, e.Anchor); ok {
			return Result{Pair: pair, Confidence: ConfidenceAnchored}, nil
		}
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return Result{}, ErrNotFound
	}
	pair, ok := firstDataRow(table.Find("tr"))
	if !ok {
		return Result{}, ErrNotFound
	}

	confidence := ConfidenceHeuristic
	if e.Anchor != "" {
		confidence = ConfidenceLow
	}
	return Result{Pair: pair, Confidence: confidence}, nil
}

// Extract runs the heuristic extraction with no anchor.
func Extract(markup string) (Pair, error) {
	res, err := (&Extractor{}).Extract(markup)
	if err != nil {
		return Pair{}, err
	}
	return res.Pair, nil
}

// ExtractFirstAmount keeps the text before the first '=' of a cell such as
// "$57.50= $0.00", trimmed of surrounding whitespace.
func ExtractFirstAmount(cell string) string {
	first, _, _ := strings.Cut(cell, "=")
	return strings.TrimSpace(first)
}

func anchoredPair(doc *goquery.Document, anchor string) (Pair, bool) {
	var (
		pair  Pair
		found bool
	)
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := table.Find("tr")
		anchorIdx := -1
		rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
			row.Find("th, td").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
				if cellText(cell) == anchor {
					anchorIdx = i
				}
				return anchorIdx < 0
			})
			return anchorIdx < 0
		})
		if anchorIdx < 0 {
			return true
		}
		pair, found = firstDataRow(rows.Slice(anchorIdx+1, rows.Length()))
		return false
	})
	return pair, found
}

// firstDataRow scans rows in order and reads the first one with enough cells.
// Both amounts must be non-empty; there is no partial result.
func firstDataRow(rows *goquery.Selection) (Pair, bool) {
	var (
		pair  Pair
		found bool
	)
	rows.EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < minDataCells {
			return true
		}
		pair = Pair{
			Buy:  ExtractFirstAmount(cellText(cells.Eq(1))),
			Sell: ExtractFirstAmount(cellText(cells.Eq(2))),
		}
		found = pair.Buy != "" && pair.Sell != ""
		return false
	})
	return pair, found
}

// cellText joins the trimmed, non-empty text fragments under the selection, so
// "<td> $57.50 <br/> = $0.00 </td>" reads as "$57.50= $0.00".
func cellText(s *goquery.Selection) string {
	var b strings.Builder
	for _, n := range s.Nodes {
		collectText(n, &b)
	}
	return b.String()
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			b.WriteString(t)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
