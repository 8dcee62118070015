package insider

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// SymbolResolver maps between CIKs and ticker symbols.
// Implementations must be safe for concurrent reads.
type SymbolResolver interface {
	ResolveSymbol(cik string) (string, bool)
	ResolveCIK(symbol string) (string, bool)
}

// Company is one entry of the ticker directory
type Company struct {
	CIK    string `json:"cik"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// Directory is an in-memory SymbolResolver. It is read-only after construction.
type Directory struct {
	byCIK    map[string]Company
	byTicker map[string]Company
}

// NewDirectory indexes companies by CIK and ticker. When a CIK lists several
// tickers the first one is its primary symbol.
func NewDirectory(companies ...Company) *Directory {
	d := &Directory{
		byCIK:    make(map[string]Company, len(companies)),
		byTicker: make(map[string]Company, len(companies)),
	}
	for _, c := range companies {
		c.CIK = NormalizeCIK(c.CIK)
		c.Ticker = strings.ToUpper(strings.TrimSpace(c.Ticker))
		if c.CIK == "" || c.Ticker == "" {
			continue
		}
		if _, ok := d.byCIK[c.CIK]; !ok {
			d.byCIK[c.CIK] = c
		}
		if _, ok := d.byTicker[c.Ticker]; !ok {
			d.byTicker[c.Ticker] = c
		}
	}
	return d
}

// ResolveSymbol returns the primary ticker for a CIK (leading zeros ignored)
func (d *Directory) ResolveSymbol(cik string) (string, bool) {
	c, ok := d.byCIK[NormalizeCIK(cik)]
	return c.Ticker, ok
}

// ResolveCIK returns the 10-digit CIK for a ticker (case-insensitive)
func (d *Directory) ResolveCIK(symbol string) (string, bool) {
	c, ok := d.byTicker[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return "", false
	}
	return PadCIK(c.CIK), true
}

// Len returns the number of CIKs in the directory
func (d *Directory) Len() int {
	return len(d.byCIK)
}

// NormalizeCIK strips whitespace and leading zeros
func NormalizeCIK(cik string) string {
	return strings.TrimLeft(strings.TrimSpace(cik), "0")
}

// PadCIK returns the 10-digit zero-padded form used in SEC URLs
func PadCIK(cik string) string {
	return fmt.Sprintf("%010s", NormalizeCIK(cik))
}

// companyTickerEntry is one value of SEC's company_tickers.json
type companyTickerEntry struct {
	CIK    json.Number `json:"cik_str"`
	Ticker string      `json:"ticker"`
	Title  string      `json:"title"`
}

// LoadCompanyTickers reads SEC's company_tickers.json
// ({"0":{"cik_str":320193,"ticker":"AAPL","title":"Apple Inc."},...})
func LoadCompanyTickers(r io.Reader) (*Directory, error) {
	var raw map[string]companyTickerEntry
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse company tickers JSON: %w", err)
	}

	// Keys are positions; keep SEC's order so primary tickers win
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})

	companies := make([]Company, 0, len(raw))
	for _, k := range keys {
		e := raw[k]
		companies = append(companies, Company{CIK: e.CIK.String(), Ticker: e.Ticker, Title: e.Title})
	}
	return NewDirectory(companies...), nil
}

// LoadTickerFile reads the flat "index,ticker,cik,title" file format.
// Titles may contain commas; malformed lines are skipped.
func LoadTickerFile(r io.Reader) (*Directory, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	var companies []Company
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read ticker file: %w", err)
		}
		if len(record) < 3 {
			continue
		}

		c := Company{Ticker: record[1], CIK: record[2]}
		if len(record) > 3 {
			c.Title = strings.Join(record[3:], ",")
		}
		if _, err := strconv.Atoi(NormalizeCIK(c.CIK)); err != nil {
			continue
		}
		companies = append(companies, c)
	}

	return NewDirectory(companies...), nil
}
