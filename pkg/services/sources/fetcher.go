package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/de-tools/backcountry/pkg/models/domain"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 8 << 20

// ErrOfflineSampleMissing is returned in offline mode when the remote fetch
// failed and no sample exists. It does not wrap the *FetchError, so callers
// cannot mistake it for a plain network failure.
var ErrOfflineSampleMissing = errors.New("offline sample not found")

// ErrBodyTooLarge is returned for responses over maxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

// Page is the text of one fetched document.
type Page struct {
	URL       string
	Text      string
	Status    string
	FetchedAt time.Time

	// SamplePath is set when the text came from an offline sample.
	SamplePath string
}

// PageFetcher loads the document behind url. source and date locate the
// offline sample used when a remote fetch fails.
type PageFetcher interface {
	Fetch(ctx context.Context, source, url string, date domain.Date) (Page, error)
}

// FetchError describes a failed remote request.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type FetcherOptions struct {
	UserAgent         string
	Timeout           time.Duration
	RetryMax          int
	RequestsPerSecond float64
	Offline           bool
	OfflineSampleDir  string

	// HTTPClient replaces the default transport, mostly for tests.
	HTTPClient *http.Client
	Now        func() time.Time
}

// Fetcher reads local paths and file:// URLs from disk and fetches
// everything else over HTTP with retries and a per-host rate limit.
type Fetcher struct {
	client  *retryablehttp.Client
	opts    FetcherOptions
	maxBody int64

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	client := retryablehttp.NewClient()
	if opts.HTTPClient != nil {
		client.HTTPClient = opts.HTTPClient
	}
	client.HTTPClient.Timeout = opts.Timeout
	client.RetryMax = opts.RetryMax
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.Logger = nil
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			zerolog.Ctx(req.Context()).Warn().
				Str("url", req.URL.String()).
				Int("attempt", attempt).
				Msg("retrying request")
		}
	}

	return &Fetcher{
		client:   client,
		opts:     opts,
		maxBody:  maxBodyBytes,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (f *Fetcher) Fetch(ctx context.Context, source, rawURL string, date domain.Date) (Page, error) {
	now := f.opts.Now().UTC()
	if isLocalURL(rawURL) {
		path, err := resolveLocalPath(rawURL)
		if err != nil {
			return Page{}, err
		}
		text, err := loadLocalText(path)
		if err != nil {
			return Page{}, err
		}
		return Page{URL: rawURL, Text: text, Status: domain.RawStatusOK, FetchedAt: now}, nil
	}

	text, err := f.fetchRemote(ctx, rawURL)
	if err == nil {
		return Page{URL: rawURL, Text: text, Status: domain.RawStatusOK, FetchedAt: now}, nil
	}
	if !f.opts.Offline {
		return Page{}, err
	}

	samplePath := f.OfflineSamplePath(source, date)
	text, sampleErr := loadLocalText(samplePath)
	if sampleErr != nil {
		return Page{}, fmt.Errorf("failed to fetch %q (%v) and %w at %s", rawURL, err, ErrOfflineSampleMissing, samplePath)
	}
	zerolog.Ctx(ctx).Warn().
		Err(err).
		Str("source", source).
		Str("sample", samplePath).
		Msg("remote fetch failed, using offline sample")
	return Page{
		URL:        rawURL,
		Text:       text,
		Status:     domain.RawStatusOffline,
		FetchedAt:  now,
		SamplePath: samplePath,
	}, nil
}

// OfflineSamplePath is <offline dir>/<source>_<date>.html.
func (f *Fetcher) OfflineSamplePath(source string, date domain.Date) string {
	return filepath.Join(f.opts.OfflineSampleDir, fmt.Sprintf("%s_%s.html", source, date))
}

func (f *Fetcher) fetchRemote(ctx context.Context, rawURL string) (string, error) {
	logger := zerolog.Ctx(ctx)

	if err := f.wait(ctx, rawURL); err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > f.maxBody {
		return "", &FetchError{URL: rawURL, Err: fmt.Errorf("%w: more than %s", ErrBodyTooLarge, humanize.IBytes(uint64(f.maxBody)))}
	}

	logger.Debug().
		Str("url", rawURL).
		Str("size", humanize.Bytes(uint64(len(body)))).
		Msg("fetched page")

	return decodeRemote(body, resp.Header.Get("Content-Type")), nil
}

func (f *Fetcher) wait(ctx context.Context, rawURL string) error {
	if f.opts.RequestsPerSecond <= 0 {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}

	f.mu.Lock()
	limiter, ok := f.limiters[u.Host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(f.opts.RequestsPerSecond), 1)
		f.limiters[u.Host] = limiter
	}
	f.mu.Unlock()

	return limiter.Wait(ctx)
}

func isLocalURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Scheme == "" || u.Scheme == "file"
}

func resolveLocalPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid local url %q: %w", rawURL, err)
	}

	path := rawURL
	if u.Scheme == "file" {
		path = u.Path
		if u.Host != "" && u.Host != "localhost" {
			path = "//" + u.Host + path
		}
	}

	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolve %q: %w", path, err)
		}
		path = abs
	}
	return path, nil
}

func loadLocalText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return decodeLocal(data), nil
}
