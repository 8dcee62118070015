package insider

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Layout of Table I (non-derivative securities) in the SEC HTML rendering
// of Forms 3/4/5. These indexes are only valid for rows that passed the
// cell-count threshold.
const (
	ColSecurityTitle = iota
	ColTransactionDate
	ColDeemedExecutionDate
	ColTransactionCode
	ColCodeQualifier
	ColShares
	ColAcquiredDisposed
	ColPrice
	ColSharesFollowing
	ColOwnershipForm
	ColIndirectNature

	// TransactionColumnCount is the number of columns the indexes above assume
	TransactionColumnCount
)

const (
	// TransactionRowMinCells excludes header, spacer and narrower layout rows.
	// Candidate transaction rows have strictly more cells than this.
	TransactionRowMinCells = 10

	// LooseRowMinCells is the lower bound (exclusive) of the low-confidence
	// candidate set used by the loose buy signal.
	LooseRowMinCells = 7
)

// TableFingerprint identifies a table by its presentation attributes.
// Empty fields are not checked.
type TableFingerprint struct {
	Width       string
	Border      string
	CellSpacing string
	CellPadding string
}

// FilerFingerprint matches the reporting-person box of the SEC rendering
var FilerFingerprint = TableFingerprint{
	Width:       "100%",
	Border:      "1",
	CellSpacing: "0",
	CellPadding: "4",
}

// Matches reports whether the table carries every attribute of the fingerprint
func (fp TableFingerprint) Matches(table *goquery.Selection) bool {
	checks := []struct{ attr, want string }{
		{"width", fp.Width},
		{"border", fp.Border},
		{"cellspacing", fp.CellSpacing},
		{"cellpadding", fp.CellPadding},
	}
	for _, c := range checks {
		if c.want == "" {
			continue
		}
		got, ok := table.Attr(c.attr)
		if !ok || !strings.EqualFold(strings.TrimSpace(got), c.want) {
			return false
		}
	}
	return true
}

// Document is a parsed filing ready for table location
type Document struct {
	doc *goquery.Document
}

// LoadDocument parses filing markup. Empty or unparseable content yields an
// empty document, which simply has no tables.
func LoadDocument(content []byte) *Document {
	root, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		root, _ = html.Parse(strings.NewReader(""))
	}
	return &Document{doc: goquery.NewDocumentFromNode(root)}
}

// CandidateRow is one physical table row selected by cell count
type CandidateRow struct {
	Index     int      // position among all <tr> elements in the document
	Cells     []string // normalized text of each direct <td>
	Footnotes []string // footnote ids referenced by <sup> markers in the row
}

// LocateFilerTable returns the reporting-person table
func LocateFilerTable(d *Document) (*goquery.Selection, error) {
	table := d.doc.Find("table").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return FilerFingerprint.Matches(s)
	}).First()

	if table.Length() == 0 {
		return nil, ErrTableNotFound
	}
	return table, nil
}

// FilerName returns the text of the first hyperlink in the filer table.
// The name is nil when the table or the link is missing.
func FilerName(d *Document) (*string, error) {
	table, err := LocateFilerTable(d)
	if err != nil {
		return nil, err
	}

	link := table.Find("a").First()
	if link.Length() == 0 {
		return nil, fmt.Errorf("%w: no name link in filer table", ErrTableNotFound)
	}

	name := NormalizeCellText(link.Text())
	if name == "" {
		return nil, fmt.Errorf("%w: empty name link in filer table", ErrTableNotFound)
	}
	return &name, nil
}

// LocateTransactionRows returns every row with more than TransactionRowMinCells cells
func LocateTransactionRows(d *Document) []CandidateRow {
	return locateRows(d, func(n int) bool {
		return n > TransactionRowMinCells
	})
}

// LocateLooseRows returns rows with more than LooseRowMinCells but at most
// TransactionRowMinCells cells
func LocateLooseRows(d *Document) []CandidateRow {
	return locateRows(d, func(n int) bool {
		return n > LooseRowMinCells && n <= TransactionRowMinCells
	})
}

func locateRows(d *Document, keep func(cellCount int) bool) []CandidateRow {
	var rows []CandidateRow

	d.doc.Find("tr").Each(func(i int, tr *goquery.Selection) {
		// Direct children only: a nested table must not inflate the count
		cells := tr.ChildrenFiltered("td")
		if !keep(cells.Length()) {
			return
		}

		row := CandidateRow{Index: i}
		cells.Each(func(_ int, td *goquery.Selection) {
			text, notes := cellText(td.Get(0))
			row.Cells = append(row.Cells, text)
			row.Footnotes = appendUnique(row.Footnotes, notes...)
		})
		rows = append(rows, row)
	})

	return rows
}

var reFootnoteMarker = regexp.MustCompile(`\d+`)

// cellText extracts the normalized text of a cell. <sup> footnote markers are
// returned separately instead of being mixed into the value.
func cellText(n *html.Node) (string, []string) {
	var buf strings.Builder
	var notes []string

	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			case "sup":
				notes = append(notes, reFootnoteMarker.FindAllString(nodeText(n), -1)...)
				return
			}
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)

	return NormalizeCellText(buf.String()), notes
}

// nodeText extracts all text content below a node
func nodeText(n *html.Node) string {
	var buf strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return buf.String()
}

// Layout describes which rendering of an ownership form a document is
type Layout struct {
	FormType            string `json:"formType"`            // "3", "4" or "5"; empty if no banner was found
	Stylesheet          string `json:"stylesheet"`          // e.g. "xslF345X05", from the source URL
	HasTransactionTable bool   `json:"hasTransactionTable"` // Table I heading present
}

// Recognized reports whether the column mapping can be trusted for this document
func (l Layout) Recognized() bool {
	return l.HasTransactionTable
}

var (
	reFormBanner  = regexp.MustCompile(`\bFORM\s+([345])\b`)
	reStylesheet  = regexp.MustCompile(`xslF345X\d+`)
	reTableITitle = regexp.MustCompile(`(?i)Table\s+I\s*[-–]\s*Non-Derivative\s+Securities`)
)

// DetectLayout inspects the document banner, Table I heading and source URL
func DetectLayout(d *Document, sourceURL string) Layout {
	// Adjacent cells must not run together ("FORM 4UNITED STATES")
	var text string
	if root := d.doc.Get(0); root != nil {
		text, _ = cellText(root)
	}

	layout := Layout{
		Stylesheet:          reStylesheet.FindString(sourceURL),
		HasTransactionTable: reTableITitle.MatchString(text),
	}
	if m := reFormBanner.FindStringSubmatch(text); m != nil {
		layout.FormType = m[1]
	}
	return layout
}

// Footnote is one numbered entry of the "Explanation of Responses" section
type Footnote struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

var reFootnoteEntry = regexp.MustCompile(`^\(?(\d+)[.)]\s*(.+)$`)

// ExplanationText returns the numbered footnotes of the filing
func ExplanationText(d *Document) []Footnote {
	var notes []Footnote
	seen := make(map[string]bool)

	d.doc.Find("td.FootnoteData, td.footnoteData").Each(func(_ int, td *goquery.Selection) {
		m := reFootnoteEntry.FindStringSubmatch(NormalizeCellText(td.Text()))
		if m == nil || seen[m[1]] {
			return
		}
		seen[m[1]] = true
		notes = append(notes, Footnote{ID: m[1], Text: m[2]})
	})

	return notes
}

// appendUnique appends ids not already present
func appendUnique(dst []string, ids ...string) []string {
	for _, id := range ids {
		dup := false
		for _, have := range dst {
			if have == id {
				dup = true
				break
			}
		}
		if !dup && id != "" {
			dst = append(dst, id)
		}
	}
	return dst
}
