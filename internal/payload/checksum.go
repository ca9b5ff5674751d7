// SPDX-License-Identifier: MPL-2.0

package payload

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrDigestMismatch indicates the computed SHA256 digest does not match
// the manifest-declared value. Always fatal to the run.
var ErrDigestMismatch = errors.New("payload digest mismatch")

// DigestError provides details about a digest verification failure.
// It wraps ErrDigestMismatch so callers can use errors.Is for
// classification.
type DigestError struct {
	Path     string
	Expected string
	Got      string
}

// Error returns a human-readable description of the mismatch, showing
// both digests for bug reports.
func (e *DigestError) Error() string {
	return fmt.Sprintf("digest verification failed for %s\nExpected: %s\nGot:      %s", e.Path, e.Expected, e.Got)
}

// Unwrap returns ErrDigestMismatch so callers can use errors.Is.
func (e *DigestError) Unwrap() error { return ErrDigestMismatch }

// Verify computes the SHA256 digest of the file at path and compares it
// with expectedHex (case-insensitive). On mismatch the file is removed
// before the *DigestError is returned, so a corrupt payload can never
// reach the deployer.
func Verify(path, expectedHex string) error {
	got, err := FileDigest(path)
	if err != nil {
		return err
	}

	if !strings.EqualFold(got, expectedHex) {
		_ = os.Remove(path)
		return &DigestError{
			Path:     path,
			Expected: strings.ToLower(expectedHex),
			Got:      got,
		}
	}

	return nil
}

// FileDigest computes and returns the lowercase hex-encoded SHA256 digest
// of the file at path, streaming the content through the hash function.
func FileDigest(path string) (_ string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		// Read-only file handle; close errors are exotic.
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing file %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
