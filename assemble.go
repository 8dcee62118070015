package insider

import (
	"fmt"

	"github.com/google/uuid"
)

// InsiderEvent is one reported open-market purchase
type InsiderEvent struct {
	ID                    string        `json:"id"` // stable across re-parses of the same filing
	Ticker                string        `json:"ticker"`
	CIK                   string        `json:"cik"`
	FilingDate            string        `json:"filingDate"`
	TransactionDate       string        `json:"transactionDate"`
	InsiderName           *string       `json:"insiderName"` // "First Middle Last"; null when the filer table is missing
	SharesBought          float64       `json:"sharesBought"`
	Price                 string        `json:"price"` // display form, e.g. "$28.04"
	PricePerShare         *float64      `json:"pricePerShare"`
	CashSpent             float64       `json:"cashSpent"`
	PercentIncrease       float64       `json:"percentIncrease"` // rounded to 2 decimals
	SharesOwnedBefore     float64       `json:"sharesOwnedBefore"`
	SharesOwnedFollowing  float64       `json:"sharesOwnedFollowing"`
	OwnershipForm         OwnershipForm `json:"ownershipForm"`
	Is10b51Plan           bool          `json:"is10b51Plan"`
	Plan10b51AdoptionDate *string       `json:"plan10b51AdoptionDate"`
	Source                string        `json:"source"`
}

// AssembleInput is everything merged into one event
type AssembleInput struct {
	FilerName        *string
	CIK              string
	FilingDate       string
	Source           string
	Row              *TransactionRow
	Metrics          DerivedMetrics
	Is10b51Plan      bool
	PlanAdoptionDate *string
}

// eventNamespace scopes event ids generated by this package
var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://www.sec.gov/insider-purchase-event"))

// EventID derives a deterministic id for the row of a filing
func EventID(source, cik, filingDate string, rowIndex int) string {
	key := fmt.Sprintf("%s|%s|%s|%d", source, NormalizeCIK(cik), filingDate, rowIndex)
	return uuid.NewSHA1(eventNamespace, []byte(key)).String()
}

// Assemble builds the output record for a qualifying row. It fails with
// ErrUnknownSymbol when the CIK has no ticker; a nil resolver knows no CIKs.
func Assemble(in AssembleInput, symbols SymbolResolver) (InsiderEvent, error) {
	var ticker string
	var ok bool
	if symbols != nil {
		ticker, ok = symbols.ResolveSymbol(in.CIK)
	}
	if !ok {
		return InsiderEvent{}, fmt.Errorf("%w: no ticker for CIK %s", ErrUnknownSymbol, in.CIK)
	}

	var name *string
	if in.FilerName != nil {
		reformatted := ReformatPersonName(*in.FilerName)
		name = &reformatted
	}

	var price float64
	if in.Row.PricePerShare != nil {
		price = *in.Row.PricePerShare
	}

	return InsiderEvent{
		ID:                    EventID(in.Source, in.CIK, in.FilingDate, in.Row.Index),
		Ticker:                ticker,
		CIK:                   PadCIK(in.CIK),
		FilingDate:            in.FilingDate,
		TransactionDate:       in.Row.TransactionDate,
		InsiderName:           name,
		SharesBought:          in.Row.SharesTransacted,
		Price:                 FormatUSD(price),
		PricePerShare:         in.Row.PricePerShare,
		CashSpent:             in.Metrics.CashSpent,
		PercentIncrease:       roundTo(in.Metrics.PercentIncrease, 2),
		SharesOwnedBefore:     in.Metrics.SharesBefore,
		SharesOwnedFollowing:  in.Row.SharesOwnedFollowing,
		OwnershipForm:         in.Row.OwnershipForm,
		Is10b51Plan:           in.Is10b51Plan,
		Plan10b51AdoptionDate: in.PlanAdoptionDate,
		Source:                in.Source,
	}, nil
}
