// Package http provides the shared HTTP client used for page downloads.
//
// The Client in this package handles:
//   - A static identity (User-Agent header and cookie jar)
//   - Connection pooling across concurrent downloads
//   - Streaming file downloads with progress tracking
//   - Error classification (StatusError, FileError, transport errors)
//
// # Basic Usage
//
//	client := http.NewClient()
//
//	n, err := client.DownloadFile(ctx, pageURL, "/manga/Chapter_1/page_001.jpg", nil)
//	var fe *http.FileError
//	if errors.As(err, &fe) {
//	    // disk problem, retrying will not help
//	}
//
// # Progress Tracking
//
// The ProgressWriter type can be used to wrap any io.Writer for progress tracking:
//
//	pw := &http.ProgressWriter{
//	    Writer:   file,
//	    Total:    contentLength,
//	    OnUpdate: func(written, total int64) { /* update UI */ },
//	}
package http
