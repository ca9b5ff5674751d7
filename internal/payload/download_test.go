// SPDX-License-Identifier: MPL-2.0

package payload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestDownload(t *testing.T) {
	body := bytes.Repeat([]byte("omoritr"), 1024)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	dest := filepath.Join(t.TempDir(), "package.zip")

	var lastWritten, lastTotal int64
	written, err := Download(context.Background(), nil, srv.URL, dest, func(w, total int64) {
		lastWritten, lastTotal = w, total
	})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}

	if written != int64(len(body)) {
		t.Errorf("written = %d, want %d", written, len(body))
	}
	if lastWritten != int64(len(body)) || lastTotal != int64(len(body)) {
		t.Errorf("final progress = (%d, %d), want (%d, %d)", lastWritten, lastTotal, len(body), len(body))
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Error("downloaded content differs from served content")
	}
}

func TestDownload_HTTPErrorLeavesNoFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	dest := filepath.Join(t.TempDir(), "package.zip")

	_, err := Download(context.Background(), nil, srv.URL, dest, nil)
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("want ErrNetwork on HTTP 404, got %v", err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("no file should exist after a failed download")
	}
}

func TestDownload_TruncatedBodyDiscardsPartialFile(t *testing.T) {
	// Declare more bytes than are sent, then cut the connection.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100000")
		_, _ = w.Write(bytes.Repeat([]byte("x"), 60000))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			_ = conn.Close()
		}
	}))
	t.Cleanup(srv.Close)

	dest := filepath.Join(t.TempDir(), "package.zip")

	_, err := Download(context.Background(), nil, srv.URL, dest, nil)
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("want ErrNetwork for a truncated body, got %v", err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("partial file must be discarded after an interrupted download")
	}
}

func TestDownload_CancellationDiscardsPartialFile(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100000")
		_, _ = w.Write(bytes.Repeat([]byte("x"), 50000))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		// Cancel mid-transfer, then stall so the client sees the cancellation.
		cancel()
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	dest := filepath.Join(t.TempDir(), "package.zip")

	if _, err := Download(ctx, nil, srv.URL, dest, nil); err == nil {
		t.Fatal("Download should fail when the context is canceled")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("partial file must be discarded after cancellation")
	}
}

func TestDownload_UnwritableDestination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "payload")
	}))
	t.Cleanup(srv.Close)

	dest := filepath.Join(t.TempDir(), "missing", "nested", "package.zip")

	_, err := Download(context.Background(), nil, srv.URL, dest, nil)
	if err == nil {
		t.Fatal("Download should fail when the destination cannot be created")
	}
	if errors.Is(err, ErrNetwork) {
		t.Errorf("a local file-system failure must not classify as ErrNetwork: %v", err)
	}
}

func TestFileWriterTagsWriteFailures(t *testing.T) {
	// A closed file stands in for a disk write failure mid-copy.
	f, err := os.Create(filepath.Join(t.TempDir(), "dest"))
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	_, err = io.Copy(&fileWriter{file: f}, bytes.NewReader([]byte("payload")))
	if err == nil {
		t.Fatal("write to a closed file should fail")
	}

	var fwErr *fileWriteError
	if !errors.As(err, &fwErr) {
		t.Errorf("destination write failures must carry the file-write tag, got %T", err)
	}
	if errors.Is(err, ErrNetwork) {
		t.Errorf("destination write failures must not classify as ErrNetwork: %v", err)
	}
}
