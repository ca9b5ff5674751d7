// SPDX-License-Identifier: MPL-2.0

package payload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
)

// ErrNetwork indicates the transfer itself failed: the server was
// unreachable, answered with a non-success status, or the connection was
// cut before the declared length arrived. Download failures without this
// sentinel are local file-system problems.
var ErrNetwork = errors.New("payload transfer failed")

// ProgressFunc receives download progress after each chunk. total is -1
// when the server does not declare a Content-Length. Progress reporting
// is informational only; correctness never depends on it.
type ProgressFunc func(written, total int64)

// progressWriter counts bytes written through it and reports them.
type progressWriter struct {
	written  int64
	total    int64
	progress ProgressFunc
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	if w.progress != nil {
		w.progress(w.written, w.total)
	}
	return len(p), nil
}

// Download streams the archive at url into the file at dest. It returns
// the number of bytes written. On any failure (transport error,
// unexpected HTTP status, write failure, or context cancellation) the
// partially written file is removed before the error is returned.
//
// A nil client falls back to http.DefaultClient; a nil progress function
// disables reporting.
func Download(ctx context.Context, client *http.Client, url, dest string, progress ProgressFunc) (_ int64, err error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("creating download request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: unexpected status %d", ErrNetwork, resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("creating payload file: %w", err)
	}

	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing payload file: %w", closeErr)
		}
		if err != nil {
			// A failed download must not leave a corrupt artifact behind.
			_ = os.Remove(dest)
		}
	}()

	pw := &progressWriter{total: resp.ContentLength, progress: progress}

	written, err := io.Copy(io.MultiWriter(&fileWriter{file: f}, pw), resp.Body)
	if err != nil {
		// Copy surfaces read and write failures alike; only a tagged
		// write failure is a local disk problem.
		var fwErr *fileWriteError
		if errors.As(err, &fwErr) {
			return 0, fmt.Errorf("writing payload: %w", fwErr.err)
		}
		return 0, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	// A short body against a declared Content-Length means the transfer
	// was cut off even though Copy saw a clean EOF.
	if resp.ContentLength >= 0 && written != resp.ContentLength {
		return 0, fmt.Errorf("%w: got %d of %d bytes", ErrNetwork, written, resp.ContentLength)
	}

	return written, nil
}

// fileWriter tags write failures on the destination file so a full disk
// is not reported as a transfer failure.
type fileWriter struct {
	file *os.File
}

func (w *fileWriter) Write(p []byte) (int, error) {
	n, err := w.file.Write(p)
	if err != nil {
		return n, &fileWriteError{err: err}
	}
	return n, nil
}

type fileWriteError struct {
	err error
}

func (e *fileWriteError) Error() string { return e.err.Error() }

func (e *fileWriteError) Unwrap() error { return e.err }
