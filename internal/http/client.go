package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/net/publicsuffix"
)

// DefaultUserAgent is a desktop browser identity. Image hosts commonly
// refuse requests without one.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Client wraps HTTP operations with a static client identity.
//
// Client provides:
//   - A configured User-Agent header and a cookie jar shared by every request
//   - A pooled transport sized for many concurrent page downloads
//   - Streaming file downloads with progress tracking
//
// A single Client is safe for concurrent use and is meant to be shared by
// every fetcher of one orchestration run.
//
// Example usage:
//
//	client := NewClient(WithUserAgent("manga-dl"))
//
//	// Fetch a small resource
//	data, err := client.Get(ctx, coverURL)
//
//	// Stream a page to disk
//	n, err := client.DownloadFile(ctx, pageURL, "/manga/Chapter_1/page_001.jpg", nil)
type Client struct {
	httpClient *http.Client
	jar        *cookiejar.Jar
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeout sets an overall per-request timeout on the underlying client.
// By default there is none; callers bound requests through their context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a new HTTP client with a cookie jar and a pooled
// transport.
func NewClient(opts ...Option) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxIdleConnsPerHost = 32
	transport.IdleConnTimeout = 90 * time.Second

	// cookiejar.New only fails on a nil PublicSuffixList.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})

	c := &Client{
		httpClient: &http.Client{
			Transport: transport,
			Jar:       jar,
		},
		jar:       jar,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UserAgent returns the User-Agent sent with every request.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// Jar returns the cookie jar shared with other collectors.
func (c *Client) Jar() *cookiejar.Jar {
	return c.jar
}

// Transport returns the pooled transport so other HTTP stacks can reuse
// its connections.
func (c *Client) Transport() http.RoundTripper {
	return c.httpClient.Transport
}

// ProgressWriter wraps a writer to track download progress.
//
// Example:
//
//	pw := &ProgressWriter{
//	    Writer: file,
//	    Total:  contentLength,
//	    OnUpdate: func(written, total int64) {
//	        fmt.Printf("%d / %d bytes\n", written, total)
//	    },
//	}
//	io.Copy(pw, response.Body)
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length header).
	// It is -1 when the server did not announce a length.
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with current progress.
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

// Get performs a GET request and returns the response body as bytes.
//
// Returns a *StatusError for non-2xx responses.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.do(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// DownloadFile streams url into destPath and returns the number of bytes
// written. Missing parent directories are created. The file is created, or
// truncated if it exists.
//
// Errors are classified so callers can decide whether to retry:
//   - *StatusError: the server answered with a non-2xx status
//   - *FileError: the local file could not be created or written
//   - anything else: a transport failure (timeout, reset, body read error)
//
// On error the destination may hold a partial file.
func (c *Client) DownloadFile(ctx context.Context, url, destPath string, onProgress func(written, total int64)) (int64, error) {
	resp, err := c.do(ctx, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return 0, &FileError{Op: "mkdir", Path: destPath, Err: err}
	}
	file, err := os.Create(destPath)
	if err != nil {
		return 0, &FileError{Op: "create", Path: destPath, Err: err}
	}

	var writer io.Writer = &fileWriter{file: file}
	if onProgress != nil {
		writer = &ProgressWriter{
			Writer:   writer,
			Total:    resp.ContentLength,
			OnUpdate: onProgress,
		}
	}

	n, err := io.Copy(writer, resp.Body)
	if cerr := file.Close(); cerr != nil && err == nil {
		err = &FileError{Op: "close", Path: destPath, Err: cerr}
	}
	return n, err
}

func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{URL: url, Code: resp.StatusCode, Status: resp.Status}
	}
	return resp, nil
}

// fileWriter tags write failures as local errors so they are not mistaken
// for transport failures by the caller.
type fileWriter struct {
	file *os.File
}

func (w *fileWriter) Write(p []byte) (int, error) {
	n, err := w.file.Write(p)
	if err != nil {
		return n, &FileError{Op: "write", Path: w.file.Name(), Err: err}
	}
	return n, nil
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL    string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Status)
}

// FileError reports a local filesystem failure while saving a download.
// Retrying the request cannot fix it.
type FileError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
