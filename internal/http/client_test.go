package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadFile(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("page-bytes"))
	}))
	defer srv.Close()

	client := NewClient(WithUserAgent("test-agent"))
	dest := filepath.Join(t.TempDir(), "nested", "page_001.jpg")

	var last int64
	n, err := client.DownloadFile(context.Background(), srv.URL, dest, func(written, total int64) {
		last = written
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	assert.Equal(t, int64(10), last)
	assert.Equal(t, "test-agent", gotUA)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "page-bytes", string(data))
}

func TestDownloadFile_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient()
	_, err := client.DownloadFile(context.Background(), srv.URL, filepath.Join(t.TempDir(), "x.jpg"), nil)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.Code)
}

func TestDownloadFile_FileError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	// A regular file where the parent directory should be.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	client := NewClient()
	_, err := client.DownloadFile(context.Background(), srv.URL, filepath.Join(blocker, "page.jpg"), nil)

	var fe *FileError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "mkdir", fe.Op)
}

func TestGet_SendsCookiesBack(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err == nil {
			seen = c.Value
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := NewClient()
	_, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	body, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "ok", string(body))
	assert.Equal(t, "abc", seen)
}
