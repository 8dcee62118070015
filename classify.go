package insider

import (
	"fmt"
	"strings"
)

// Classification is the outcome of classifying one candidate row
type Classification int

const (
	Malformed Classification = iota
	NonQualifying
	Qualifying
)

func (c Classification) String() string {
	switch c {
	case Qualifying:
		return "qualifying"
	case NonQualifying:
		return "non-qualifying"
	default:
		return "malformed"
	}
}

// MarshalText renders the classification by name in JSON output
func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses a classification name
func (c *Classification) UnmarshalText(text []byte) error {
	for _, v := range []Classification{Malformed, NonQualifying, Qualifying} {
		if v.String() == string(text) {
			*c = v
			return nil
		}
	}
	return fmt.Errorf("unknown classification %q", text)
}

// Only open-market purchases of common stock by the insider qualify
const (
	QualifyingSecurityTitle = "Common Stock"
	PurchaseCode            = "P"
	AcquiredCode            = "A"
)

// TransactionRow is one parsed row of Table I
type TransactionRow struct {
	Index                int              `json:"index"`
	SecurityType         string           `json:"securityType"`
	TransactionDate      string           `json:"transactionDate"`
	DeemedExecutionDate  string           `json:"deemedExecutionDate,omitempty"`
	Code                 string           `json:"code"`
	CodeQualifier        string           `json:"codeQualifier,omitempty"`
	SharesTransacted     float64          `json:"sharesTransacted"`
	AcquiredDisposed     AcquiredDisposed `json:"acquiredDisposed"`
	PricePerShare        *float64         `json:"pricePerShare"` // nil when the cell is blank
	SharesOwnedFollowing float64          `json:"sharesOwnedFollowing"`
	OwnershipForm        OwnershipForm    `json:"ownershipForm"`
	IndirectNature       string           `json:"indirectNature,omitempty"`
	Footnotes            []string         `json:"footnotes"`
}

// ClassifyRow parses the cells of a candidate row and decides whether it is
// a qualifying purchase. Malformed rows return a nil row and the parse error;
// the caller skips them and continues with the document.
func ClassifyRow(cells []string) (Classification, *TransactionRow, error) {
	// Never index past the layout we know
	if len(cells) < TransactionColumnCount {
		return Malformed, nil, fmt.Errorf("%w: row has %d cells, layout expects %d",
			ErrMalformedValue, len(cells), TransactionColumnCount)
	}

	shares, err := ParseNumber(cells[ColShares])
	if err != nil {
		return Malformed, nil, fmt.Errorf("shares transacted: %w", err)
	}
	if shares < 0 {
		return Malformed, nil, fmt.Errorf("%w: negative shares transacted %q", ErrMalformedValue, cells[ColShares])
	}

	row := &TransactionRow{
		SecurityType:        NormalizeCellText(cells[ColSecurityTitle]),
		TransactionDate:     dateOrRaw(cells[ColTransactionDate]),
		DeemedExecutionDate: dateOrRaw(cells[ColDeemedExecutionDate]),
		Code:                cellCode(cells[ColTransactionCode]),
		CodeQualifier:       cellCode(cells[ColCodeQualifier]),
		SharesTransacted:    shares,
		IndirectNature:      strings.TrimSpace(reParenthetical.ReplaceAllString(NormalizeCellText(cells[ColIndirectNature]), "")),
		Footnotes:           []string{},
	}
	row.AcquiredDisposed, _ = ParseAcquiredDisposed(cells[ColAcquiredDisposed])
	row.OwnershipForm, _ = ParseOwnershipForm(cells[ColOwnershipForm])

	qualifying := row.SecurityType == QualifyingSecurityTitle &&
		row.Code == PurchaseCode &&
		cellCode(cells[ColAcquiredDisposed]) == AcquiredCode

	if !qualifying {
		// Best effort only: these fields are never read for non-qualifying rows
		row.PricePerShare, _ = optionalPrice(cells[ColPrice])
		row.SharesOwnedFollowing, _ = ParseNumber(cells[ColSharesFollowing])
		return NonQualifying, row, nil
	}

	price, err := optionalPrice(cells[ColPrice])
	if err != nil {
		return Malformed, nil, fmt.Errorf("price per share: %w", err)
	}
	row.PricePerShare = price

	following, err := ParseNumber(cells[ColSharesFollowing])
	if err != nil {
		return Malformed, nil, fmt.Errorf("shares owned following: %w", err)
	}
	if following < 0 {
		return Malformed, nil, fmt.Errorf("%w: negative shares owned following %q", ErrMalformedValue, cells[ColSharesFollowing])
	}
	row.SharesOwnedFollowing = following

	return Qualifying, row, nil
}

// IsLoosePurchase is the low-confidence buy check used on rows too narrow to
// be transaction rows. It only looks at the title, code and (A)/(D) columns.
func IsLoosePurchase(cells []string) bool {
	if len(cells) <= ColAcquiredDisposed {
		return false
	}
	return NormalizeCellText(cells[ColSecurityTitle]) == QualifyingSecurityTitle &&
		cellCode(cells[ColTransactionCode]) == PurchaseCode &&
		cellCode(cells[ColAcquiredDisposed]) == AcquiredCode
}

// optionalPrice parses a price cell; a blank cell is nil rather than zero
func optionalPrice(text string) (*float64, error) {
	stripped, _ := stripFootnotes(text)
	if strings.Trim(stripped, "$, ") == "" {
		return nil, nil
	}

	f, err := ParseCurrency(text, false)
	if err != nil {
		return nil, err
	}
	if f < 0 {
		return nil, fmt.Errorf("%w: negative price %q", ErrMalformedValue, text)
	}
	return &f, nil
}

// dateOrRaw returns the ISO date when the cell parses, the cleaned text otherwise
func dateOrRaw(text string) string {
	if iso, err := ParseDate(text); err == nil {
		return iso
	}
	raw, _ := stripFootnotes(text)
	return raw
}

// TransactionCodeDescription returns human-readable transaction code
func TransactionCodeDescription(code string) string {
	descriptions := map[string]string{
		"P": "Open Market Purchase",
		"S": "Open Market Sale",
		"A": "Grant, Award or Other Acquisition",
		"D": "Disposition to the Issuer",
		"F": "Payment of Exercise Price or Tax Liability",
		"G": "Gift",
		"M": "Exercise or Conversion of Derivative Security",
		"C": "Conversion of Derivative Security",
		"E": "Expiration of Short Derivative Position",
		"H": "Expiration of Long Derivative Position",
		"I": "Discretionary Transaction",
		"O": "Exercise of Out-of-the-Money Derivative Security",
		"U": "Disposition Pursuant to a Tender",
		"X": "Exercise of In-the-Money or At-the-Money Derivative Security",
		"Z": "Deposit into or Withdrawal from Voting Trust",
	}
	return descriptions[code]
}
