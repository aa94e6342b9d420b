package probe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/cases"
)

// Result is the classified outcome of one connectivity probe.
// Only Online is used for control flow; the other fields feed logs.
type Result struct {
	// Online is true when the probe reached the real target site.
	Online bool

	// StatusCode is the final HTTP status. Zero on network errors.
	StatusCode int

	// FinalURL is the URL after redirects.
	FinalURL string

	// Reason explains an offline verdict.
	Reason string

	// Err is the network-level error, if any.
	Err error
}

// Prober checks internet connectivity through a captive portal.
//
// A captive portal answers plain-HTTP requests itself, usually with
// 200 OK and its own login page, so the status code alone proves nothing.
// A probe is online only when the final response is 200 and either the final
// URL carries a URL marker or the body carries a body marker of the real site.
type Prober struct {
	// client performs the request. Redirects are followed.
	client *http.Client

	// target is the connectivity oracle URL.
	target string

	// urlMarkers are matched against the final URL.
	urlMarkers []string

	// bodyMarkers are matched against the decoded response body.
	bodyMarkers []string

	// timeout bounds one probe including redirects and body read.
	timeout time.Duration

	// maxBodySize limits how much of the body is inspected.
	maxBodySize int64

	// userAgent is sent with the request when non-empty.
	userAgent string

	logger *slog.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithHTTPClient sets the HTTP client. Tests pass the httptest server client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Prober) {
		p.client = client
	}
}

// WithTimeout sets the per-probe timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Prober) {
		p.timeout = timeout
	}
}

// WithURLMarkers sets the substrings expected in the final URL.
func WithURLMarkers(markers ...string) Option {
	return func(p *Prober) {
		p.urlMarkers = markers
	}
}

// WithBodyMarkers sets the substrings expected in the response body.
func WithBodyMarkers(markers ...string) Option {
	return func(p *Prober) {
		p.bodyMarkers = markers
	}
}

// WithMaxBodySize sets the maximum number of body bytes inspected.
func WithMaxBodySize(size int64) Option {
	return func(p *Prober) {
		p.maxBodySize = size
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(p *Prober) {
		p.userAgent = ua
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prober) {
		p.logger = logger
	}
}

// New creates a Prober for target.
// Without options it uses http.DefaultClient, a 10 second timeout and
// no markers, which makes every probe offline.
func New(target string, opts ...Option) *Prober {
	p := &Prober{
		client:      http.DefaultClient,
		target:      target,
		timeout:     10 * time.Second,
		maxBodySize: 2 * 1024 * 1024,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Probe reports whether the network is online.
// It never returns an error: network failures count as offline.
func (p *Prober) Probe(ctx context.Context) bool {
	return p.Check(ctx).Online
}

// Check issues one GET request and classifies the response.
// There are no retries; callers own the retry policy.
func (p *Prober) Check(ctx context.Context) Result {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result, err := p.check(ctx)
	if err != nil {
		result.Err = err
		result.Reason = "request failed"
		p.logger.Warn("connectivity check error", "url", p.target, "error", err)
		return result
	}

	if !result.Online {
		p.logger.Info("connectivity check failed",
			"reason", result.Reason,
			"status", result.StatusCode,
			"final_url", result.FinalURL,
		)
	}
	return result
}

func (p *Prober) check(ctx context.Context) (Result, error) {
	var result Result

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.target, nil)
	if err != nil {
		return result, fmt.Errorf("failed to create request: %w", err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req) //nolint:gosec // Target URL comes from configuration
	if err != nil {
		return result, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	result.StatusCode = resp.StatusCode
	result.FinalURL = resp.Request.URL.String()

	if resp.StatusCode != http.StatusOK {
		result.Reason = fmt.Sprintf("status %d", resp.StatusCode)
		return result, nil
	}

	if containsAny(result.FinalURL, p.urlMarkers) {
		result.Online = true
		return result, nil
	}

	body, err := p.readBody(resp)
	if err != nil {
		return result, err
	}

	if containsAny(body, p.bodyMarkers) {
		result.Online = true
		return result, nil
	}

	result.Reason = "target site marker not found"
	return result, nil
}

// readBody reads up to maxBodySize bytes and decodes them to UTF-8 using the
// charset declared in the Content-Type header or the document itself.
// Campus portal pages are frequently served as GBK.
func (p *Prober) readBody(resp *http.Response) (string, error) {
	limited := io.LimitReader(resp.Body, p.maxBodySize)

	reader, err := charset.NewReader(limited, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return string(decoded), nil
}

// containsAny reports whether s contains any marker, ignoring case.
func containsAny(s string, markers []string) bool {
	if len(markers) == 0 {
		return false
	}
	fold := cases.Fold()
	folded := fold.String(s)
	for _, marker := range markers {
		if marker == "" {
			continue
		}
		if strings.Contains(folded, fold.String(marker)) {
			return true
		}
	}
	return false
}
