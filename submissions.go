package insider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
)

var (
	// SubmissionsBaseURL serves CIK{cik}.json and its paginated files
	SubmissionsBaseURL = "https://data.sec.gov/submissions"

	// ArchivesBaseURL is the root of filing documents
	ArchivesBaseURL = "https://www.sec.gov/Archives/edgar/data"

	// CompanyTickersURL lists every ticker with its CIK
	CompanyTickersURL = "https://www.sec.gov/files/company_tickers.json"
)

// Getter retrieves a URL. *Fetcher implements it.
type Getter interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Submissions represents the SEC submissions data for a CIK
type Submissions struct {
	CIK                               string      `json:"cik"`
	EntityType                        string      `json:"entityType"`
	SIC                               string      `json:"sic"`
	SICDescription                    string      `json:"sicDescription"`
	Name                              string      `json:"name"`
	Ticker                            []string    `json:"tickers"`
	Exchanges                         []string    `json:"exchanges"`
	FiscalYearEnd                     string      `json:"fiscalYearEnd"`
	Filings                           FilingsData `json:"filings"`
	InsiderTransactionForOwnerExists  int         `json:"insiderTransactionForOwnerExists"`  // 0 or 1
	InsiderTransactionForIssuerExists int         `json:"insiderTransactionForIssuerExists"` // 0 or 1
}

// FilingsData contains recent and paginated filings information
type FilingsData struct {
	Recent FilingArrays `json:"recent"`
	Files  []FilingFile `json:"files"`
}

// FilingFile represents a paginated file containing older filings
type FilingFile struct {
	Name        string `json:"name"`
	FilingCount int    `json:"filingCount"`
	FilingFrom  string `json:"filingFrom"`
	FilingTo    string `json:"filingTo"`
}

// FilingArrays contains parallel arrays of filing data.
// Each index in the arrays represents one filing.
type FilingArrays struct {
	AccessionNumber       []string `json:"accessionNumber"`
	FilingDate            []string `json:"filingDate"`
	ReportDate            []string `json:"reportDate"`
	AcceptanceDateTime    []string `json:"acceptanceDateTime"`
	Form                  []string `json:"form"`
	PrimaryDocument       []string `json:"primaryDocument"`
	PrimaryDocDescription []string `json:"primaryDocDescription"`
}

// Filing represents a single filing with its metadata
type Filing struct {
	AccessionNumber       string
	FilingDate            string
	ReportDate            string
	AcceptanceDateTime    string
	Form                  string
	PrimaryDocument       string
	PrimaryDocDescription string
	// Derived fields
	CIK string
	URL string // HTML rendering for ownership forms
}

// Meta returns the engine metadata of the filing
func (f Filing) Meta() FilingMeta {
	return FilingMeta{CIK: f.CIK, FilingDate: f.FilingDate}
}

// FetchSubmissions fetches and parses the submissions JSON of a CIK
func FetchSubmissions(ctx context.Context, g Getter, cik string) (*Submissions, error) {
	url := fmt.Sprintf("%s/CIK%s.json", SubmissionsBaseURL, PadCIK(cik))

	body, err := g.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submissions: %w", err)
	}
	return ParseSubmissions(bytes.NewReader(body))
}

// ParseSubmissions parses a submissions JSON from a reader (for local files or testing)
func ParseSubmissions(r io.Reader) (*Submissions, error) {
	var subs Submissions
	if err := json.NewDecoder(r).Decode(&subs); err != nil {
		return nil, fmt.Errorf("failed to parse submissions JSON: %w", err)
	}
	return &subs, nil
}

// GetFilings converts the parallel arrays into Filing structs
func (fa *FilingArrays) GetFilings(cik string) []Filing {
	count := len(fa.AccessionNumber)
	filings := make([]Filing, 0, count)

	at := func(s []string, i int) string {
		if i < len(s) {
			return s[i]
		}
		return ""
	}

	for i := 0; i < count; i++ {
		filing := Filing{
			CIK:                   cik,
			AccessionNumber:       fa.AccessionNumber[i],
			FilingDate:            at(fa.FilingDate, i),
			ReportDate:            at(fa.ReportDate, i),
			AcceptanceDateTime:    at(fa.AcceptanceDateTime, i),
			Form:                  at(fa.Form, i),
			PrimaryDocument:       at(fa.PrimaryDocument, i),
			PrimaryDocDescription: at(fa.PrimaryDocDescription, i),
		}
		filing.URL = filing.BuildURL()
		filings = append(filings, filing)
	}

	return filings
}

// BuildURL constructs the document URL of this filing.
// For ownership forms primaryDocument already points at the HTML rendering
// ("xslF345X05/doc4.xml"); the stylesheet prefix is kept so the HTML, not
// the raw XML, is fetched.
func (f *Filing) BuildURL() string {
	accessionPath := strings.ReplaceAll(f.AccessionNumber, "-", "")

	// https://www.sec.gov/Archives/edgar/data/{CIK}/{ACCESSION}/{PRIMARY_DOCUMENT}
	return fmt.Sprintf("%s/%s/%s/%s",
		ArchivesBaseURL,
		NormalizeCIK(f.CIK),
		accessionPath,
		strings.TrimLeft(f.PrimaryDocument, "/"),
	)
}

// GetRecentFilings returns all recent filings as a slice
func (s *Submissions) GetRecentFilings() []Filing {
	return s.Filings.Recent.GetFilings(s.CIK)
}

// GetAllFilings returns recent filings followed by every paginated file
func (s *Submissions) GetAllFilings(ctx context.Context, g Getter) ([]Filing, error) {
	allFilings := s.GetRecentFilings()

	for _, fileInfo := range s.Filings.Files {
		body, err := g.Fetch(ctx, fmt.Sprintf("%s/%s", SubmissionsBaseURL, fileInfo.Name))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", fileInfo.Name, err)
		}

		// Paginated files only contain the FilingArrays
		var page FilingArrays
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to parse paginated filings %s: %w", fileInfo.Name, err)
		}
		allFilings = append(allFilings, page.GetFilings(s.CIK)...)
	}

	return allFilings, nil
}

// FilterByForm keeps filings of the given form type. Ownership forms match
// exactly: "4" does not include "4/A", which must be requested explicitly.
func FilterByForm(filings []Filing, formType string) []Filing {
	formType = strings.TrimSpace(formType)
	return lo.Filter(filings, func(f Filing, _ int) bool {
		return f.Form == formType
	})
}

// FilterByDateRange filters filings by filing date, inclusive.
// Dates are YYYY-MM-DD; an empty bound is open.
func FilterByDateRange(filings []Filing, from, to string) []Filing {
	return lo.Filter(filings, func(f Filing, _ int) bool {
		if from != "" && f.FilingDate < from {
			return false
		}
		if to != "" && f.FilingDate > to {
			return false
		}
		return true
	})
}

// FetchCompanyTickers downloads SEC's ticker directory
func FetchCompanyTickers(ctx context.Context, g Getter) (*Directory, error) {
	body, err := g.Fetch(ctx, CompanyTickersURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch company tickers: %w", err)
	}
	return LoadCompanyTickers(bytes.NewReader(body))
}
