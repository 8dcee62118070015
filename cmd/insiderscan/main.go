package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	insider "github.com/RxDataLab/go-insider"
	"github.com/RxDataLab/go-insider/internal/config"
	"github.com/RxDataLab/go-insider/internal/logger"
	"github.com/RxDataLab/go-insider/internal/store"
)

type options struct {
	email        string
	cik          string
	since        string
	filingDate   string
	tickersPath  string
	dbPath       string
	outputPath   string
	saveOriginal bool
	interval     time.Duration
	paginated    bool
	resume       bool
	trace        bool
}

func main() {
	var opts options

	flag.StringVar(&opts.email, "email", "", "Email for SEC User-Agent header (or use SEC_EMAIL env var)")
	flag.StringVar(&opts.email, "e", "", "Email for SEC User-Agent (shorthand)")
	flag.StringVar(&opts.cik, "cik", "", "Company CIK; without a source argument, scan its filings")
	flag.StringVar(&opts.since, "since", "", "Scan filings filed on or after this date (YYYY-MM-DD)")
	flag.StringVar(&opts.filingDate, "filing-date", "", "Filing date of a single source (YYYY-MM-DD)")
	flag.StringVar(&opts.tickersPath, "tickers", "", "Local company_tickers.json or ticker,cik file (or use TICKERS_FILE)")
	flag.StringVar(&opts.dbPath, "db", "", "SQLite database for events and scan state (or use INSIDER_DB_PATH)")
	flag.StringVar(&opts.outputPath, "output", "", "Output JSON file path (default: stdout)")
	flag.StringVar(&opts.outputPath, "o", "", "Output JSON file path (shorthand)")
	flag.BoolVar(&opts.saveOriginal, "save-original", false, "Save the original HTML file")
	flag.BoolVar(&opts.saveOriginal, "s", false, "Save the original HTML file (shorthand)")
	flag.DurationVar(&opts.interval, "interval", 0, "Minimum delay between SEC requests (default 110ms or MIN_REQUEST_INTERVAL_MS)")
	flag.BoolVar(&opts.paginated, "paginated", false, "Also scan older, paginated filings (slow)")
	flag.BoolVar(&opts.resume, "resume", true, "Resume a scan from the last filing date stored in -db")
	flag.BoolVar(&opts.trace, "trace", false, "Write scan trace spans to stderr")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: insiderscan [options] <source>\n")
		fmt.Fprintf(os.Stderr, "       insiderscan -cik <cik> [-since YYYY-MM-DD] [options]\n\n")
		fmt.Fprintf(os.Stderr, "Extract insider open-market purchases from SEC Form 4 HTML filings.\n\n")
		fmt.Fprintf(os.Stderr, "Arguments:\n")
		fmt.Fprintf(os.Stderr, "  <source>    URL or file path of a Form 4 HTML rendering\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  insiderscan https://www.sec.gov/Archives/edgar/data/.../xslF345X05/doc4.xml\n")
		fmt.Fprintf(os.Stderr, "  insiderscan -cik 320193 -filing-date 2025-01-02 ./doc4.html\n")
		fmt.Fprintf(os.Stderr, "  insiderscan -cik 320193 -since 2024-01-01 -db insider.db\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment:\n")
		fmt.Fprintf(os.Stderr, "  SEC_EMAIL    Email for SEC User-Agent header (required for fetching)\n")
	}

	flag.Parse()

	if flag.NArg() < 1 && opts.cik == "" {
		fmt.Fprintf(os.Stderr, "Error: source URL, file path or -cik required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, flag.Arg(0), opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, source string, opts options) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.Init(cfg.LogLevel, os.Stderr)

	if opts.email != "" {
		cfg.SecEmail = opts.email
	}
	if opts.interval > 0 {
		cfg.MinInterval = opts.interval
	}
	if opts.tickersPath != "" {
		cfg.TickersFile = opts.tickersPath
	}
	if opts.dbPath != "" {
		cfg.DatabasePath = opts.dbPath
	}

	isURL := strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
	needsNetwork := isURL || source == "" || cfg.TickersFile == ""

	var fetcher *insider.Fetcher
	if needsNetwork {
		if err := cfg.RequireEmail(); err != nil {
			return err
		}
		fetcher, err = insider.NewFetcher(cfg.SecEmail,
			insider.WithMinInterval(cfg.MinInterval),
			insider.WithMaxRetries(cfg.MaxRetries),
			insider.WithCacheTTL(cfg.CacheTTL),
			insider.WithFetchLogger(log),
			insider.WithHTTPClient(httpClient(cfg.HTTPTimeout)),
		)
		if err != nil {
			return err
		}
	}

	symbols, err := loadSymbols(ctx, cfg.TickersFile, fetcher)
	if err != nil {
		return err
	}
	log.Info("ticker directory loaded", "companies", symbols.Len())

	engine := insider.NewEngine(symbols, insider.WithLogger(log))

	if source == "" {
		return scan(ctx, cfg, fetcher, engine, opts)
	}
	return parseOne(ctx, source, isURL, fetcher, engine, opts)
}

func loadSymbols(ctx context.Context, path string, fetcher *insider.Fetcher) (*insider.Directory, error) {
	if path == "" {
		return insider.FetchCompanyTickers(ctx, fetcher)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tickers file: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return insider.LoadCompanyTickers(f)
	}
	return insider.LoadTickerFile(f)
}

func parseOne(ctx context.Context, source string, isURL bool, fetcher *insider.Fetcher, engine *insider.Engine, opts options) error {
	var doc insider.RawDocument
	var err error

	if isURL {
		fmt.Fprintf(os.Stderr, "Fetching from SEC: %s\n", source)
		doc, err = fetcher.FetchDocument(ctx, source)
		if err != nil {
			return fmt.Errorf("failed to fetch filing: %w", err)
		}
	} else {
		fmt.Fprintf(os.Stderr, "Reading from file: %s\n", source)
		content, err := os.ReadFile(source)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		doc = insider.RawDocument{URL: source, Content: content}
	}

	meta, metaErr := insider.ExtractMetadataFromURL(source)
	if metaErr != nil {
		meta = &insider.FilingMetadata{}
	}
	if opts.cik != "" {
		meta.CIK = opts.cik
	}
	if meta.CIK == "" {
		return fmt.Errorf("CIK unknown: pass -cik for %s", source)
	}

	result, err := engine.ParseFiling(doc, insider.FilingMeta{CIK: meta.CIK, FilingDate: opts.filingDate})
	if errors.Is(err, insider.ErrUnknownSymbol) {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	} else if err != nil {
		return err
	}

	if result.LooseSignal && len(result.Events) == 0 {
		fmt.Fprintf(os.Stderr, "Note: a narrow row looks like a purchase, check the filing by hand\n")
	}

	saveOpts := insider.SaveOptions{
		SaveOriginal: opts.saveOriginal,
		OutputDir:    "./output",
		OutputPath:   opts.outputPath,
	}
	if saveOpts.OutputPath == "" && opts.saveOriginal {
		saveOpts.OutputPath = insider.GenerateFilename(meta, "json")
	}

	if opts.saveOriginal || opts.outputPath != "" {
		saved, err := insider.SaveFiles(doc, result, meta, saveOpts)
		if err != nil {
			return fmt.Errorf("failed to save files: %w", err)
		}
		if saved.OriginalPath != "" {
			fmt.Fprintf(os.Stderr, "Saved original HTML: %s\n", saved.OriginalPath)
		}
		if saved.OutputPath != "" {
			fmt.Fprintf(os.Stderr, "Saved JSON output: %s\n", saved.OutputPath)
		}
		return nil
	}

	jsonData, err := insider.FormatJSON(result)
	if err != nil {
		return fmt.Errorf("failed to format JSON: %w", err)
	}
	fmt.Println(string(jsonData))
	return nil
}

func scan(ctx context.Context, cfg *config.Config, fetcher *insider.Fetcher, engine *insider.Engine, opts options) error {
	scannerOpts := []insider.ScannerOption{insider.WithScanLogger(logger.L)}

	if opts.trace {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
		defer tp.Shutdown(context.WithoutCancel(ctx))
		scannerOpts = append(scannerOpts, insider.WithTracerProvider(tp))
	}

	if cfg.DatabasePath != "" {
		db, err := store.Open(ctx, cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()
		scannerOpts = append(scannerOpts, insider.WithSink(db), insider.WithScanState(db))
	}

	scanner := insider.NewScanner(fetcher, engine, scannerOpts...)
	result, err := scanner.Scan(ctx, insider.ScanOptions{
		CIK:              opts.cik,
		Since:            opts.since,
		IncludePaginated: opts.paginated,
		Resume:           opts.resume,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Parsed %d/%d filings, found %d purchases\n",
		result.Parsed, result.TotalFound, len(result.Events))
	for _, url := range result.LooseSignals {
		fmt.Fprintf(os.Stderr, "Someone may be buying, check by hand: %s\n", url)
	}
	if len(result.Errors) > 0 {
		fmt.Fprintf(os.Stderr, "Encountered %d errors during processing\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "  %v\n", e)
		}
	}

	jsonData, err := insider.FormatJSON(result.Events)
	if err != nil {
		return fmt.Errorf("failed to format JSON: %w", err)
	}
	if opts.outputPath != "" {
		return os.WriteFile(opts.outputPath, jsonData, 0644)
	}
	fmt.Println(string(jsonData))
	return nil
}

func httpClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = insider.DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
