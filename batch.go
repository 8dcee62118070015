package insider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/RxDataLab/go-insider"

// EventSink persists extracted events. Saving the same event twice must not
// duplicate it.
type EventSink interface {
	SaveEvents(ctx context.Context, events []InsiderEvent) error
}

// ScanState remembers how far each company has been scanned
type ScanState interface {
	LastScanned(ctx context.Context, cik string) (string, error) // "" when never scanned
	MarkScanned(ctx context.Context, cik, filingDate string) error
}

// ScanOptions configures one company scan
type ScanOptions struct {
	CIK              string // Required
	FormType         string // Defaults to "4"
	Since            string // Optional: first filing date (YYYY-MM-DD)
	Until            string // Optional: last filing date (YYYY-MM-DD)
	IncludePaginated bool   // Also walk the paginated submissions files (slow)
	Resume           bool   // Start from the last scanned filing date when later than Since
}

// ScanResult contains the results of a scan
type ScanResult struct {
	CIK          string
	Events       []InsiderEvent
	TotalFound   int      // Filings matching the criteria
	Parsed       int      // Filings fetched and parsed
	LooseSignals []string // Sources where only a narrow row looked like a purchase
	Errors       []error  // Per-filing failures; the scan continues past them
}

// Err joins the per-filing errors, nil when there were none
func (r *ScanResult) Err() error {
	return errors.Join(r.Errors...)
}

// Scanner walks a company's filings and feeds each one to the engine
type Scanner struct {
	getter Getter
	engine *Engine
	sink   EventSink
	state  ScanState
	logger *slog.Logger
	tracer trace.Tracer
}

// ScannerOption configures a Scanner
type ScannerOption func(*Scanner)

// WithSink stores every extracted event
func WithSink(sink EventSink) ScannerOption {
	return func(s *Scanner) {
		s.sink = sink
	}
}

// WithScanState enables resuming scans
func WithScanState(state ScanState) ScannerOption {
	return func(s *Scanner) {
		s.state = state
	}
}

// WithScanLogger sets the logger for scan progress
func WithScanLogger(l *slog.Logger) ScannerOption {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTracerProvider traces scans and filings. The global provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) ScannerOption {
	return func(s *Scanner) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewScanner creates a scanner fetching through g and parsing with engine
func NewScanner(g Getter, engine *Engine, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		getter: g,
		engine: engine,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan lists the company's filings, parses each matching one and returns the
// events found. Failures on individual filings, including unknown symbols,
// are collected in the result rather than aborting the scan.
func (s *Scanner) Scan(ctx context.Context, opts ScanOptions) (_ *ScanResult, err error) {
	if opts.CIK == "" {
		return nil, fmt.Errorf("CIK is required")
	}
	if opts.FormType == "" {
		opts.FormType = "4"
	}

	ctx, span := s.tracer.Start(ctx, "Scanner.Scan", trace.WithAttributes(
		attribute.String("cik", opts.CIK),
		attribute.String("form", opts.FormType),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	log := s.logger.With("cik", opts.CIK)

	from := opts.Since
	if opts.Resume && s.state != nil {
		last, err := s.state.LastScanned(ctx, opts.CIK)
		if err != nil {
			return nil, fmt.Errorf("failed to read scan state: %w", err)
		}
		// Inclusive: filings on the last date may have been published after the scan
		if last > from {
			from = last
		}
	}

	subs, err := FetchSubmissions(ctx, s.getter, opts.CIK)
	if err != nil {
		return nil, err
	}

	allFilings := subs.GetRecentFilings()
	if opts.IncludePaginated {
		if allFilings, err = subs.GetAllFilings(ctx, s.getter); err != nil {
			return nil, err
		}
	}
	filings := FilterByDateRange(FilterByForm(allFilings, opts.FormType), from, opts.Until)
	log.Info("scanning filings", "form", opts.FormType, "from", from, "filings", len(filings))

	result := &ScanResult{
		CIK:        opts.CIK,
		Events:     []InsiderEvent{},
		TotalFound: len(filings),
	}

	var failedDates []string
	for i, filing := range filings {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if (i+1)%10 == 0 {
			log.Info("scan progress", "done", i+1, "total", len(filings))
		}

		if err := s.scanFiling(ctx, filing, result); err != nil {
			log.Warn("skipping filing", "accession", filing.AccessionNumber, "error", err)
			result.Errors = append(result.Errors, err)
			failedDates = append(failedDates, filing.FilingDate)
		}
	}
	span.SetAttributes(
		attribute.Int("filings", result.TotalFound),
		attribute.Int("events", len(result.Events)),
	)

	if s.sink != nil && len(result.Events) > 0 {
		if err := s.sink.SaveEvents(ctx, result.Events); err != nil {
			return result, fmt.Errorf("failed to save events: %w", err)
		}
	}

	if s.state != nil && len(filings) > 0 {
		// A resumed scan starts at the marked date inclusive, so stopping at the
		// earliest failure retries it next time
		mark := lo.Max(lo.Map(filings, func(f Filing, _ int) string { return f.FilingDate }))
		if len(failedDates) > 0 {
			mark = lo.Min(failedDates)
		}
		if err := s.state.MarkScanned(ctx, opts.CIK, mark); err != nil {
			return result, fmt.Errorf("failed to save scan state: %w", err)
		}
	}

	log.Info("scan complete",
		"parsed", result.Parsed,
		"events", len(result.Events),
		"errors", len(result.Errors))
	return result, nil
}

// scanFiling fetches and parses one filing into result
func (s *Scanner) scanFiling(ctx context.Context, filing Filing, result *ScanResult) error {
	ctx, span := s.tracer.Start(ctx, "Scanner.scanFiling", trace.WithAttributes(
		attribute.String("accession", filing.AccessionNumber),
		attribute.String("url", filing.URL),
	))
	defer span.End()

	fail := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	doc, err := s.getter.Fetch(ctx, filing.URL)
	if err != nil {
		return fail(fmt.Errorf("failed to fetch %s: %w", filing.AccessionNumber, err))
	}

	parsed, err := s.engine.ParseFiling(RawDocument{URL: filing.URL, Content: doc}, filing.Meta())
	result.Parsed++
	if parsed.LooseSignal && len(parsed.Events) == 0 {
		result.LooseSignals = append(result.LooseSignals, filing.URL)
	}
	span.SetAttributes(
		attribute.Int("events", len(parsed.Events)),
		attribute.Bool("loose_signal", parsed.LooseSignal),
	)
	if err != nil {
		return fail(fmt.Errorf("failed to parse %s: %w", filing.AccessionNumber, err))
	}
	result.Events = append(result.Events, parsed.Events...)
	return nil
}
