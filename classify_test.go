package insider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func purchaseCells() []string {
	return []string{"Common Stock", "03/14/2025", "", "P", "", "500", "A", "$10.00", "1,500", "D", ""}
}

func TestClassifyRow_Qualifying(t *testing.T) {
	class, row, err := ClassifyRow(purchaseCells())
	require.NoError(t, err)
	assert.Equal(t, Qualifying, class)

	require.NotNil(t, row.PricePerShare)
	assert.Equal(t, 10.0, *row.PricePerShare)
	assert.Equal(t, 500.0, row.SharesTransacted)
	assert.Equal(t, 1500.0, row.SharesOwnedFollowing)
	assert.Equal(t, "2025-03-14", row.TransactionDate)
	assert.Equal(t, Acquired, row.AcquiredDisposed)
	assert.Equal(t, Direct, row.OwnershipForm)
}

func TestClassifyRow_NeverQualifies(t *testing.T) {
	tests := []struct {
		name  string
		index int
		value string
	}{
		{"preferred stock", ColSecurityTitle, "Preferred Stock"},
		{"sale", ColTransactionCode, "S"},
		{"grant", ColTransactionCode, "A"},
		{"disposed", ColAcquiredDisposed, "D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cells := purchaseCells()
			cells[tt.index] = tt.value

			class, row, err := ClassifyRow(cells)
			require.NoError(t, err)
			assert.Equal(t, NonQualifying, class)
			require.NotNil(t, row, "non-qualifying rows are still populated")
			assert.Equal(t, 500.0, row.SharesTransacted)
		})
	}
}

func TestClassifyRow_Pure(t *testing.T) {
	cells := purchaseCells()
	c1, r1, _ := ClassifyRow(cells)
	c2, r2, _ := ClassifyRow(cells)
	assert.Equal(t, c1, c2)
	assert.Equal(t, r1, r2)
	assert.Equal(t, purchaseCells(), cells, "input must not be modified")
}

func TestClassifyRow_FootnotedCodes(t *testing.T) {
	cells := purchaseCells()
	cells[ColTransactionCode] = "P(1)"
	cells[ColAcquiredDisposed] = "A (2)"
	cells[ColPrice] = "$28.0407(3)"

	class, row, err := ClassifyRow(cells)
	require.NoError(t, err)
	assert.Equal(t, Qualifying, class)
	assert.Equal(t, 28.0407, *row.PricePerShare)
}

func TestClassifyRow_BlankPrice(t *testing.T) {
	cells := purchaseCells()
	cells[ColPrice] = ""

	class, row, err := ClassifyRow(cells)
	require.NoError(t, err)
	assert.Equal(t, Qualifying, class)
	assert.Nil(t, row.PricePerShare)
}

func TestClassifyRow_FootnoteOnlyPrice(t *testing.T) {
	cells := purchaseCells()
	cells[ColPrice] = "(1)"

	class, row, err := ClassifyRow(cells)
	require.NoError(t, err)
	assert.Equal(t, Qualifying, class)
	assert.Nil(t, row.PricePerShare)
}

func TestClassifyRow_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		index int
		value string
	}{
		{"non-numeric shares", ColShares, "N/A"},
		{"blank shares", ColShares, ""},
		{"negative shares", ColShares, "(1,500)"},
		{"non-numeric price", ColPrice, "see note"},
		{"negative price", ColPrice, "($1.00)"},
		{"blank following", ColSharesFollowing, ""},
		{"negative following", ColSharesFollowing, "(10.0)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cells := purchaseCells()
			cells[tt.index] = tt.value

			class, row, err := ClassifyRow(cells)
			assert.Equal(t, Malformed, class)
			assert.Nil(t, row)
			assert.ErrorIs(t, err, ErrMalformedValue)
		})
	}
}

func TestClassifyRow_TooFewCells(t *testing.T) {
	class, row, err := ClassifyRow(purchaseCells()[:TransactionColumnCount-1])
	assert.Equal(t, Malformed, class)
	assert.Nil(t, row)
	assert.ErrorIs(t, err, ErrMalformedValue)
}

// Price and holdings are only required once the row qualifies
func TestClassifyRow_NonQualifyingToleratesBadPrice(t *testing.T) {
	cells := purchaseCells()
	cells[ColTransactionCode] = "S"
	cells[ColPrice] = "see note"

	class, row, err := ClassifyRow(cells)
	require.NoError(t, err)
	assert.Equal(t, NonQualifying, class)
	assert.Nil(t, row.PricePerShare)
}

func TestIsLoosePurchase(t *testing.T) {
	assert.True(t, IsLoosePurchase([]string{"Common Stock", "09/02/2025", "", "P", "400", "", "A", "$8.00", "4,400"}))
	assert.False(t, IsLoosePurchase([]string{"Common Stock", "09/02/2025", "", "S", "400", "", "D", "$8.00", "4,400"}))
	assert.False(t, IsLoosePurchase([]string{"Common Stock", "P"}))
}

func TestClassificationText(t *testing.T) {
	for _, c := range []Classification{Malformed, NonQualifying, Qualifying} {
		text, err := c.MarshalText()
		require.NoError(t, err)

		var back Classification
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, c, back)
	}

	var c Classification
	assert.Error(t, c.UnmarshalText([]byte("maybe")))
}

func TestTransactionCodeDescription(t *testing.T) {
	assert.Equal(t, "Open Market Purchase", TransactionCodeDescription(PurchaseCode))
	assert.Equal(t, "Gift", TransactionCodeDescription("G"))
	assert.Equal(t, "", TransactionCodeDescription("Q"))
}
