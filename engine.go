package insider

import (
	"log/slog"
)

// RawDocument is the markup of one filing as fetched
type RawDocument struct {
	URL     string
	Content []byte
}

// FilingMeta is the index metadata of a filing
type FilingMeta struct {
	CIK        string // leading zeros allowed
	FilingDate string // YYYY-MM-DD
}

// RowOutcome records how one candidate row was classified
type RowOutcome struct {
	Index          int            `json:"index"`
	Cells          []string       `json:"cells"`
	Classification Classification `json:"classification"`
	Err            string         `json:"error,omitempty"`
}

// FilingResult is everything observed while parsing one filing
type FilingResult struct {
	Source          string         `json:"source"`
	Events          []InsiderEvent `json:"events"`
	FilerName       *string        `json:"filerName"`
	FilerTableFound bool           `json:"filerTableFound"`
	Layout          Layout         `json:"layout"`
	Rows            []RowOutcome   `json:"rows"`
	LooseSignal     bool           `json:"looseSignal"` // a narrow row looked like a purchase
	Has10b51Plan    bool           `json:"has10b51Plan"`
}

// Event returns the first event of the filing, nil when nothing qualified
func (r *FilingResult) Event() *InsiderEvent {
	if r == nil || len(r.Events) == 0 {
		return nil
	}
	return &r.Events[0]
}

// Engine turns filing markup into insider purchase events.
// It holds no per-call state and is safe for concurrent use.
type Engine struct {
	symbols SymbolResolver
	logger  *slog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger used for row and layout diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an engine resolving tickers through symbols
func NewEngine(symbols SymbolResolver, opts ...Option) *Engine {
	e := &Engine{
		symbols: symbols,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ParseFiling extracts one event per qualifying row, in document order.
//
// Malformed rows and a missing filer table never fail the parse; they are
// reported in the result. The only error is ErrUnknownSymbol, returned when
// a row qualifies but the CIK has no ticker. The result is returned with it.
func (e *Engine) ParseFiling(doc RawDocument, meta FilingMeta) (*FilingResult, error) {
	d := LoadDocument(doc.Content)
	log := e.logger.With("source", doc.URL, "cik", meta.CIK)

	result := &FilingResult{
		Source: doc.URL,
		Events: []InsiderEvent{},
		Rows:   []RowOutcome{},
		Layout: DetectLayout(d, doc.URL),
	}

	if _, err := LocateFilerTable(d); err == nil {
		result.FilerTableFound = true
	}
	if name, err := FilerName(d); err == nil {
		result.FilerName = name
	} else {
		log.Debug("filer name not found", "error", err)
	}

	candidates := LocateTransactionRows(d)
	if len(candidates) > 0 && !result.Layout.Recognized() {
		log.Warn("unrecognized filing layout, column mapping may be wrong",
			"form_type", result.Layout.FormType,
			"stylesheet", result.Layout.Stylesheet,
			"rows", len(candidates))
	}

	for _, row := range LocateLooseRows(d) {
		if IsLoosePurchase(row.Cells) {
			result.LooseSignal = true
			log.Info("possible purchase in narrow row", "row", row.Index)
			break
		}
	}

	plans := PlanFootnotes(ExplanationText(d))

	var qualifying []*TransactionRow
	for _, c := range candidates {
		class, row, err := ClassifyRow(c.Cells)
		outcome := RowOutcome{Index: c.Index, Cells: c.Cells, Classification: class}
		if err != nil {
			outcome.Err = err.Error()
			log.Debug("skipping malformed row", "row", c.Index, "error", err)
		}
		result.Rows = append(result.Rows, outcome)

		if class == NonQualifying {
			log.Debug("row is not an open market purchase",
				"row", c.Index, "code", row.Code, "transaction", TransactionCodeDescription(row.Code))
		}
		if class != Qualifying {
			continue
		}
		row.Index = c.Index
		row.Footnotes = appendUnique(row.Footnotes, c.Footnotes...)
		qualifying = append(qualifying, row)
	}

	for _, row := range qualifying {
		isPlan, adopted := rowPlan(row.Footnotes, plans)
		result.Has10b51Plan = result.Has10b51Plan || isPlan

		event, err := Assemble(AssembleInput{
			FilerName:        result.FilerName,
			CIK:              meta.CIK,
			FilingDate:       meta.FilingDate,
			Source:           doc.URL,
			Row:              row,
			Metrics:          Derive(row),
			Is10b51Plan:      isPlan,
			PlanAdoptionDate: adopted,
		}, e.symbols)
		if err != nil {
			// Every row shares the CIK, so none of them can be labeled
			return result, err
		}
		result.Events = append(result.Events, event)
	}

	return result, nil
}
