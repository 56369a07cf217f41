package analyzer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

var (
	// ErrInvalidURL is returned for URLs that are not absolute http(s) URLs
	ErrInvalidURL = errors.New("invalid url")
	// ErrUnsupportedContent is returned when the response is not an HTML document
	ErrUnsupportedContent = errors.New("unsupported content type")
)

const maxPageBytes = 5 << 20

var bufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// Fetcher retrieves and parses a single page
type Fetcher struct {
	Client    *http.Client
	UserAgent string
}

// NewFetcher creates a Fetcher with a pooled transport
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Fetcher{
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		UserAgent: userAgent,
	}
}

// ValidateURL checks that rawURL is an absolute http(s) URL
func ValidateURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return u, nil
}

// Fetch downloads the page and builds a FetchedPage. FetchTime measures the time until
// response headers arrived.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchedPage, error) {
	u, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	start := time.Now()
	resp, err := f.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()
	fetchTime := time.Since(start)

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContent, contentType)
	}

	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	if _, err := io.Copy(buf, io.LimitReader(resp.Body, maxPageBytes)); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	size := buf.Len()

	reader, err := charset.NewReader(bytes.NewReader(buf.Bytes()), contentType)
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	finalURL := u.String()
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &FetchedPage{
		Document:   doc,
		URL:        finalURL,
		StatusCode: resp.StatusCode,
		Headers:    HeadersFromHTTP(resp.Header),
		FetchTime:  fetchTime,
		Size:       size,
	}, nil
}

func (f *Fetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}
