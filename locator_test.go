package insider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const filerBox = `<table width="100%" border="1" cellspacing="0" cellpadding="4"><tr><td>
<table border="0"><tr><td><a href="/cgi-bin/browse-edgar?CIK=1">Doe Jane</a></td></tr></table>
</td></tr></table>`

func TestLocateFilerTable(t *testing.T) {
	d := LoadDocument([]byte(`<table width="100%" border="0" cellspacing="0" cellpadding="4"><tr><td><a>Not Me</a></td></tr></table>` + filerBox))

	name, err := FilerName(d)
	require.NoError(t, err)
	assert.Equal(t, "Doe Jane", *name)
}

func TestFilerName_Missing(t *testing.T) {
	t.Run("no table", func(t *testing.T) {
		name, err := FilerName(LoadDocument([]byte(`<p>nothing here</p>`)))
		assert.ErrorIs(t, err, ErrTableNotFound)
		assert.Nil(t, name)
	})

	t.Run("no link", func(t *testing.T) {
		d := LoadDocument([]byte(`<table width="100%" border="1" cellspacing="0" cellpadding="4"><tr><td>Doe Jane</td></tr></table>`))
		_, err := LocateFilerTable(d)
		require.NoError(t, err)

		name, err := FilerName(d)
		assert.ErrorIs(t, err, ErrTableNotFound)
		assert.Nil(t, name)
	})

	t.Run("empty content", func(t *testing.T) {
		_, err := LocateFilerTable(LoadDocument(nil))
		assert.ErrorIs(t, err, ErrTableNotFound)
	})
}

func TestTableFingerprint(t *testing.T) {
	d := LoadDocument([]byte(`<table WIDTH="100%" Border="1" cellspacing=" 0 " cellpadding="4"><tr><td>x</td></tr></table>`))
	table := d.doc.Find("table").First()

	assert.True(t, FilerFingerprint.Matches(table))
	assert.True(t, TableFingerprint{}.Matches(table), "empty fingerprint matches anything")
	assert.False(t, TableFingerprint{Border: "0"}.Matches(table))
}

func tableRow(n int, text string) string {
	s := "<tr>"
	for i := 0; i < n; i++ {
		s += "<td>" + text + "</td>"
	}
	return s + "</tr>"
}

func TestLocateRows_CellCountThresholds(t *testing.T) {
	html := "<table>" + tableRow(2, "h") + tableRow(7, "a") + tableRow(8, "b") + tableRow(10, "c") + tableRow(11, "d") + tableRow(12, "e") + "</table>"
	d := LoadDocument([]byte(html))

	tx := LocateTransactionRows(d)
	require.Len(t, tx, 2)
	assert.Equal(t, 4, tx[0].Index)
	assert.Equal(t, "d", tx[0].Cells[0])
	assert.Len(t, tx[1].Cells, 12)

	loose := LocateLooseRows(d)
	require.Len(t, loose, 2)
	assert.Equal(t, []int{2, 3}, []int{loose[0].Index, loose[1].Index})
}

func TestLocateRows_NestedTableDoesNotInflateCount(t *testing.T) {
	nested := "<table>" + tableRow(11, "inner") + "</table>"
	html := "<table><tr><td>Common Stock</td><td>" + nested + "</td></tr></table>"

	rows := LocateTransactionRows(LoadDocument([]byte(html)))
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Index, "only the inner row has eleven direct cells")
}

func TestCellText_FootnoteMarkers(t *testing.T) {
	html := "<table><tr>" +
		`<td><span>$28.04</span><sup><span class="FootnoteData">(1)</span></sup></td>` +
		`<td>P<sup>(2)(3)</sup></td>` +
		"<td>&nbsp;</td><td>1,000</td><td></td><td></td><td></td><td></td><td></td><td></td><td></td>" +
		"</tr></table>"

	rows := LocateTransactionRows(LoadDocument([]byte(html)))
	require.Len(t, rows, 1)
	assert.Equal(t, "$28.04", rows[0].Cells[0])
	assert.Equal(t, "P", rows[0].Cells[1])
	assert.Equal(t, "", rows[0].Cells[2])
	assert.Equal(t, []string{"1", "2", "3"}, rows[0].Footnotes)
}

func TestDetectLayout(t *testing.T) {
	html := `<table><tr><td>FORM 4</td><td>UNITED STATES SECURITIES AND EXCHANGE COMMISSION</td></tr></table>
<table><tr><th>Table I - Non-Derivative Securities Acquired, Disposed of, or Beneficially Owned</th></tr></table>`

	layout := DetectLayout(LoadDocument([]byte(html)), "https://www.sec.gov/Archives/edgar/data/1/000000000025000001/xslF345X05/doc4.xml")
	assert.Equal(t, Layout{FormType: "4", Stylesheet: "xslF345X05", HasTransactionTable: true}, layout)
	assert.True(t, layout.Recognized())

	layout = DetectLayout(LoadDocument([]byte("<p>FORM 10-K</p>")), "")
	assert.Equal(t, Layout{}, layout)
	assert.False(t, layout.Recognized())
}

func TestExplanationText(t *testing.T) {
	html := `<table>
<tr><td class="FootnoteData">1. Weighted average price.</td></tr>
<tr><td class="FootnoteData">(2) Purchased under a Rule 10b5-1 plan.</td></tr>
<tr><td class="FootnoteData">1. Duplicate id is ignored.</td></tr>
<tr><td class="FootnoteData">Remarks without a number</td></tr>
</table>`

	notes := ExplanationText(LoadDocument([]byte(html)))
	assert.Equal(t, []Footnote{
		{ID: "1", Text: "Weighted average price."},
		{ID: "2", Text: "Purchased under a Rule 10b5-1 plan."},
	}, notes)
}
