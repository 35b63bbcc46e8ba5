// Package jobpost fetches job postings and extracts their readable text.
package jobpost

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	userAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
	acceptLanguage  = "en-US,en;q=0.9"
	contentEncoding = "gzip"

	defaultTimeout = 15 * time.Second
	maxRedirects   = 10
	// MaxChars caps the extracted text so it fits comfortably in a prompt.
	MaxChars = 8000

	truncatedMarker = "\n\n[...page truncated for length...]"
	pasteHint       = "Try pasting the job description instead."
	maxBodyBytes    = 10 << 20
)

var errTooManyRedirects = errors.New("too many redirects")

// FetchError carries a message that can be shown to the user as is.
type FetchError struct {
	Message string
	Cause   error
}

func (e *FetchError) Error() string {
	return e.Message
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

type Client struct {
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	// SearchURL is the search endpoint used by ResearchInterview.
	SearchURL string
}

func New(logger *zap.Logger) *Client {
	return &Client{
		logger: logger,
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return errTooManyRedirects
				}
				return nil
			},
		},
		UserAgent: userAgent,
		SearchURL: DefaultSearchURL,
	}
}

// Fetch downloads rawURL and returns its visible text. Every error is a *FetchError.
func (c *Client) Fetch(ctx context.Context, rawURL string) (string, error) {
	target, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return "", &FetchError{Message: "Enter a full http(s) URL. " + pasteHint, Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return "", &FetchError{Message: fmt.Sprintf("Could not fetch URL: %v. %s", err, pasteHint), Cause: err}
	}
	req = c.setHeaders(req)

	c.logger.Debug("fetch job posting", zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return "", &FetchError{Message: fmt.Sprintf("Access denied (HTTP %d). This site blocks automated access. Please paste the job description instead.", resp.StatusCode)}
		}
		return "", &FetchError{Message: fmt.Sprintf("HTTP %d error fetching the page. %s", resp.StatusCode, pasteHint)}
	}

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", &FetchError{Message: fmt.Sprintf("Could not fetch URL: %v. %s", err, pasteHint), Cause: err}
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	text, err := ExtractText(io.LimitReader(reader, maxBodyBytes))
	if err != nil {
		return "", classify(err)
	}
	if text == "" {
		return "", &FetchError{Message: "Could not extract any text from this page. " + pasteHint}
	}

	c.logger.Debug("job posting fetched", zap.String("url", req.URL.String()), zap.Int("length", len([]rune(text))))

	return Truncate(text, MaxChars), nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Language", acceptLanguage)
	req.Header.Set("Accept-Encoding", contentEncoding)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	return req
}

func classify(err error) *FetchError {
	var urlErr *url.Error
	switch {
	case errors.Is(err, errTooManyRedirects):
		return &FetchError{Message: "Too many redirects. This URL may require a login. " + pasteHint, Cause: err}
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &urlErr) && urlErr.Timeout():
		return &FetchError{Message: fmt.Sprintf("The page took too long to respond (>%s). %s", defaultTimeout, pasteHint), Cause: err}
	default:
		return &FetchError{Message: fmt.Sprintf("Could not fetch URL: %v. %s", err, pasteHint), Cause: err}
	}
}

// Truncate cuts text to limit runes and appends a marker when anything was dropped.
func Truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + truncatedMarker
}
