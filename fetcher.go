package insider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const (
	VERSION = "0.1.0"

	// DefaultMinInterval keeps requests under SEC's 10 requests/second limit
	DefaultMinInterval = 110 * time.Millisecond

	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultCacheTTL   = 10 * time.Minute

	// SecEmailEnvVar is the environment variable name for SEC email
	SecEmailEnvVar = "SEC_EMAIL"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks the contact address SEC requires in the User-Agent
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("SEC email required: set %s environment variable or use --email flag", SecEmailEnvVar)
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	if strings.HasSuffix(email, "example.com") {
		return fmt.Errorf("use a real email address, not example.com: %s", email)
	}
	return nil
}

// BuildUserAgent creates a proper SEC User-Agent string
func BuildUserAgent(email string) string {
	return fmt.Sprintf("go-insider/%s (%s)", VERSION, email)
}

// Fetcher retrieves documents from SEC. It spaces requests by a minimum
// interval, retries transient failures and caches responses by URL.
// A Fetcher is safe for concurrent use; the interval is shared by all callers.
type Fetcher struct {
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries uint64
	retryBase  time.Duration
	cacheTTL   time.Duration
	cache      *cache.Cache
	logger     *slog.Logger
}

// FetcherOption configures a Fetcher
type FetcherOption func(*Fetcher)

// WithMinInterval sets the minimum delay between two requests. Zero disables limiting.
func WithMinInterval(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d <= 0 {
			f.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		f.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithHTTPClient allows custom HTTP client configuration
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.httpClient = c
	}
}

// WithMaxRetries sets how many times a transient failure is retried
func WithMaxRetries(n uint64) FetcherOption {
	return func(f *Fetcher) {
		f.maxRetries = n
	}
}

// WithRetryBase sets the first retry delay; later delays grow exponentially
func WithRetryBase(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.retryBase = d
	}
}

// WithCacheTTL sets how long responses are cached. Zero disables the cache.
func WithCacheTTL(ttl time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.cacheTTL = ttl
	}
}

// WithFetchLogger sets the logger for retry diagnostics
func WithFetchLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFetcher creates a fetcher identifying itself with the given contact email
func NewFetcher(email string, opts ...FetcherOption) (*Fetcher, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	f := &Fetcher{
		userAgent:  BuildUserAgent(email),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Every(DefaultMinInterval), 1),
		maxRetries: DefaultMaxRetries,
		retryBase:  500 * time.Millisecond,
		cacheTTL:   DefaultCacheTTL,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.cacheTTL > 0 {
		f.cache = cache.New(f.cacheTTL, 2*f.cacheTTL)
	}
	return f, nil
}

// Fetch returns the body of url. Failures wrap ErrUpstreamFetch.
// Callers own the returned slice; the cache keeps its own copy.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.cache != nil {
		if body, ok := f.cache.Get(url); ok {
			return bytes.Clone(body.([]byte)), nil
		}
	}

	var body []byte
	operation := func() error {
		var err error
		body, err = f.get(ctx, url)
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.retryBase
	policy := backoff.WithContext(backoff.WithMaxRetries(b, f.maxRetries), ctx)

	err := backoff.RetryNotify(operation, policy, func(err error, d time.Duration) {
		f.logger.Warn("retrying SEC request", "url", url, "after", d, "error", err)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUpstreamFetch, url, err)
	}

	if f.cache != nil {
		f.cache.Set(url, bytes.Clone(body), cache.DefaultExpiration)
	}
	return body, nil
}

// FetchDocument fetches a filing rendering for the engine
func (f *Fetcher) FetchDocument(ctx context.Context, url string) (RawDocument, error) {
	body, err := f.Fetch(ctx, url)
	if err != nil {
		return RawDocument{URL: url}, err
	}
	return RawDocument{URL: url, Content: body}, nil
}

// get performs one rate-limited request. Errors that retrying cannot fix are
// marked permanent.
func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("rate limiter wait: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, backoff.Permanent(err)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("SEC returned status %d", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
