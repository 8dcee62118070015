package insider

// FromZeroPercentIncrease is reported when the insider held no shares before
// the purchase. A from-zero stake has no meaningful ratio; 100 is a
// heuristic observed on real filings, not a general rule.
const FromZeroPercentIncrease = 100.0

// DerivedMetrics are the quantities computed from a qualifying row
type DerivedMetrics struct {
	SharesBefore    float64 `json:"sharesBefore"`
	PercentIncrease float64 `json:"percentIncrease"` // unrounded
	CashSpent       float64 `json:"cashSpent"`       // unrounded
}

// Derive computes prior holdings, percent increase and cash consideration.
// It never fails: zero prior holdings yield FromZeroPercentIncrease and a
// missing price yields zero cash.
func Derive(row *TransactionRow) DerivedMetrics {
	before := row.SharesOwnedFollowing - row.SharesTransacted

	// (following - before) / before reduces to transacted / before
	percent := FromZeroPercentIncrease
	if before != 0 {
		percent = row.SharesTransacted / before * 100
	}

	var cash float64
	if row.PricePerShare != nil {
		cash = row.SharesTransacted * *row.PricePerShare
	}

	return DerivedMetrics{
		SharesBefore:    before,
		PercentIncrease: percent,
		CashSpent:       cash,
	}
}
