package insider

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMetadataFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want *FilingMetadata
	}{
		{
			"https://www.sec.gov/Archives/edgar/data/1631574/000119312525314736/xslF345X05/doc4.xml",
			&FilingMetadata{CIK: "1631574", Accession: "0001193125-25-314736", Stylesheet: "xslF345X05"},
		},
		{
			"https://www.sec.gov/Archives/edgar/data/78003/000007800325000010/form4.xml",
			&FilingMetadata{CIK: "78003", Accession: "0000078003-25-000010"},
		},
	}

	for _, tt := range tests {
		meta, err := ExtractMetadataFromURL(tt.url)
		require.NoError(t, err)
		assert.Equal(t, tt.want, meta)
	}

	_, err := ExtractMetadataFromURL("https://example.com/form4.html")
	assert.Error(t, err)
}

func TestGenerateFilename(t *testing.T) {
	assert.Equal(t, "1631574-0001193125-25-314736_form4.html",
		GenerateFilename(&FilingMetadata{CIK: "1631574", Accession: "0001193125-25-314736"}, "html"))
	assert.Equal(t, "1631574_form4.json", GenerateFilename(&FilingMetadata{CIK: "1631574"}, "json"))
	assert.Equal(t, "form4.json", GenerateFilename(&FilingMetadata{}, "json"))
	assert.Equal(t, "form4.html", GenerateFilename(nil, "html"))
}

func TestSaveFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	doc := RawDocument{URL: acmeURLMarch, Content: []byte("<html>form</html>")}
	result := &FilingResult{Source: acmeURLMarch, Events: []InsiderEvent{{Ticker: "ACME", SharesBought: 500}}}
	meta, err := ExtractMetadataFromURL(acmeURLMarch)
	require.NoError(t, err)

	saved, err := SaveFiles(doc, result, meta, SaveOptions{
		SaveOriginal: true,
		OutputPath:   "result.json",
		OutputDir:    dir,
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "1234567-0001234567-25-000001_form4.html"), saved.OriginalPath)
	original, err := os.ReadFile(saved.OriginalPath)
	require.NoError(t, err)
	assert.Equal(t, doc.Content, original)

	assert.Equal(t, filepath.Join(dir, "result.json"), saved.OutputPath)
	data, err := os.ReadFile(saved.OutputPath)
	require.NoError(t, err)

	var got FilingResult
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got.Events, 1)
	assert.Equal(t, "ACME", got.Events[0].Ticker)
	assert.Equal(t, 500.0, got.Events[0].SharesBought)
}

func TestSaveFiles_Nothing(t *testing.T) {
	saved, err := SaveFiles(RawDocument{}, &FilingResult{}, nil, SaveOptions{})
	require.NoError(t, err)
	assert.Equal(t, &SaveResult{}, saved)
}
