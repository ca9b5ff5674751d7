// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewContext().
		WithOperation("fetch manifest").
		WithResource("https://example.com/manifest.json").
		Wrap(cause)

	got := err.Error()
	want := "failed to fetch manifest: https://example.com/manifest.json: connection refused"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestActionableError_ErrorWithoutResourceOrCause(t *testing.T) {
	err := NewContext().WithOperation("acquire lock").Wrap(nil)

	if got, want := err.Error(), "failed to acquire lock"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := NewContext().WithOperation("deploy").Wrap(fmt.Errorf("writing file: %w", sentinel))

	if !errors.Is(err, sentinel) {
		t.Error("errors.Is could not reach the wrapped sentinel")
	}
}

func TestActionableError_FormatSuggestions(t *testing.T) {
	err := NewContext().
		WithOperation("locate game directory").
		WithSuggestion("Verify that OMORI is installed via Steam").
		WithSuggestion("Pass the install folder with --game-dir").
		Wrap(errors.New("no candidates"))

	out := err.Format(false)
	if !strings.Contains(out, "Verify that OMORI is installed") {
		t.Errorf("Format missing first suggestion:\n%s", out)
	}
	if !strings.Contains(out, "--game-dir") {
		t.Errorf("Format missing second suggestion:\n%s", out)
	}
	if strings.Contains(out, "no candidates") {
		t.Errorf("non-verbose Format should not include the cause:\n%s", out)
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "no candidates") {
		t.Errorf("verbose Format should include the cause:\n%s", verbose)
	}
}
