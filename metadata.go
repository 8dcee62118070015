package insider

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// FilingMetadata contains information extracted from SEC URLs
type FilingMetadata struct {
	CIK        string
	Accession  string
	Stylesheet string // e.g. "xslF345X05" for an HTML rendering
}

var reArchivePath = regexp.MustCompile(`/edgar/data/(\d+)/(\d+)/`)

// ExtractMetadataFromURL parses SEC EDGAR URLs to extract CIK and accession number
// Example URL: https://www.sec.gov/Archives/edgar/data/1631574/000119312525314736/xslF345X05/doc4.xml
func ExtractMetadataFromURL(url string) (*FilingMetadata, error) {
	matches := reArchivePath.FindStringSubmatch(url)
	if len(matches) < 3 {
		return nil, fmt.Errorf("could not extract CIK and accession from URL")
	}

	// Format accession number: 0001193125-25-314736
	accession := matches[2]
	if len(accession) == 18 {
		accession = accession[:10] + "-" + accession[10:12] + "-" + accession[12:]
	}

	return &FilingMetadata{
		CIK:        matches[1],
		Accession:  accession,
		Stylesheet: reStylesheet.FindString(url),
	}, nil
}

// GenerateFilename creates a filename based on metadata
// Format: {CIK}-{accession}_form4.{ext}
// Falls back to form4.{ext} if metadata is incomplete
func GenerateFilename(meta *FilingMetadata, ext string) string {
	if meta == nil {
		return fmt.Sprintf("form4.%s", ext)
	}
	if meta.CIK != "" && meta.Accession != "" {
		return fmt.Sprintf("%s-%s_form4.%s", meta.CIK, meta.Accession, ext)
	}
	if meta.CIK != "" {
		return fmt.Sprintf("%s_form4.%s", meta.CIK, ext)
	}
	return fmt.Sprintf("form4.%s", ext)
}

// SaveOptions configures how files should be saved
type SaveOptions struct {
	SaveOriginal bool
	OriginalPath string // If empty, uses generated naming
	OutputPath   string // If empty, the JSON is not written
	OutputDir    string // Directory for output files (default: current dir)
}

// SaveResult contains paths to saved files
type SaveResult struct {
	OriginalPath string
	OutputPath   string
}

// SaveFiles saves the original HTML and/or the JSON result based on options
func SaveFiles(doc RawDocument, result *FilingResult, meta *FilingMetadata, opts SaveOptions) (*SaveResult, error) {
	saved := &SaveResult{}

	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if opts.SaveOriginal {
		originalPath := opts.OriginalPath
		if originalPath == "" {
			originalPath = GenerateFilename(meta, "html")
		}
		if opts.OutputDir != "" && !filepath.IsAbs(originalPath) {
			originalPath = filepath.Join(opts.OutputDir, originalPath)
		}

		if err := os.WriteFile(originalPath, doc.Content, 0644); err != nil {
			return nil, fmt.Errorf("failed to save original HTML: %w", err)
		}
		saved.OriginalPath = originalPath
	}

	if opts.OutputPath != "" {
		outputPath := opts.OutputPath
		if opts.OutputDir != "" && !filepath.IsAbs(outputPath) {
			outputPath = filepath.Join(opts.OutputDir, outputPath)
		}

		jsonData, err := FormatJSON(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		if err := os.WriteFile(outputPath, jsonData, 0644); err != nil {
			return nil, fmt.Errorf("failed to save JSON output: %w", err)
		}
		saved.OutputPath = outputPath
	}

	return saved, nil
}

// FormatJSON returns pretty-printed JSON for a value (a FilingResult, a
// ScanResult's events)
func FormatJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
