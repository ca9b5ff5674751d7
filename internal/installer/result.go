// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"errors"
	"fmt"

	"github.com/emreozcan/omoritr-installer/internal/deploy"
	"github.com/emreozcan/omoritr-installer/internal/gamedir"
	"github.com/emreozcan/omoritr-installer/internal/manifest"
	"github.com/emreozcan/omoritr-installer/internal/payload"
)

// Outcome says what a successful run actually did.
type Outcome int

const (
	// OutcomeInstalled means the package was deployed and committed.
	OutcomeInstalled Outcome = iota

	// OutcomeAlreadyUpToDate means the installed version already matches
	// the manifest and nothing was written.
	OutcomeAlreadyUpToDate
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case OutcomeInstalled:
		return "installed"
	case OutcomeAlreadyUpToDate:
		return "already up to date"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result summarizes a successful run.
type Result struct {
	// Outcome says whether anything was deployed.
	Outcome Outcome

	// Version is the package version the game directory now carries.
	Version string

	// GameDir is the resolved game installation directory.
	GameDir string

	// FilesWritten counts the files the deploy wrote. Zero when the
	// installation was already up to date.
	FilesWritten int

	// FilesBackedUp counts the pre-existing files preserved before
	// being overwritten.
	FilesBackedUp int
}

// ErrorKind classifies a failed run by which stage broke and why, so the
// CLI can choose an exit code and remediation text without string
// matching.
type ErrorKind int

const (
	// KindIO covers local filesystem failures with no more specific kind.
	KindIO ErrorKind = iota

	// KindNetwork covers transport failures fetching the manifest or
	// downloading the payload.
	KindNetwork

	// KindParse covers malformed or unsupported manifest documents.
	KindParse

	// KindIntegrity means the downloaded payload failed digest
	// verification.
	KindIntegrity

	// KindNotFound means no game installation could be located.
	KindNotFound

	// KindAmbiguous means multiple game installations were found and no
	// explicit choice was given.
	KindAmbiguous

	// KindNotWritable means the game directory was found but cannot be
	// written to.
	KindNotWritable

	// KindBackup means the pre-write backup phase failed; nothing was
	// changed.
	KindBackup

	// KindDeploy means the write or verify phase failed; the target was
	// rolled back.
	KindDeploy

	// KindLock means another run holds the game directory lock.
	KindLock
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindNetwork:
		return "network"
	case KindParse:
		return "parse"
	case KindIntegrity:
		return "integrity"
	case KindNotFound:
		return "not-found"
	case KindAmbiguous:
		return "ambiguous"
	case KindNotWritable:
		return "not-writable"
	case KindBackup:
		return "backup"
	case KindDeploy:
		return "deploy"
	case KindLock:
		return "locked"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is the failure type every Run error is wrapped in. Kind drives
// presentation; Err carries the full cause chain.
type Error struct {
	Kind ErrorKind
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Err.Error()
}

// Unwrap exposes the cause chain to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// classify maps a component error onto its ErrorKind by sentinel
// membership. Anything unrecognized from a network stage is KindNetwork;
// everything else falls through to KindIO.
func classify(err error, networkStage bool) ErrorKind {
	var digestErr *payload.DigestError

	switch {
	case errors.Is(err, manifest.ErrInvalid),
		errors.Is(err, manifest.ErrUnsupportedVersion):
		return KindParse
	case errors.Is(err, payload.ErrDigestMismatch), errors.As(err, &digestErr):
		return KindIntegrity
	case errors.Is(err, payload.ErrNetwork):
		return KindNetwork
	case errors.Is(err, gamedir.ErrNotFound):
		return KindNotFound
	case errors.Is(err, gamedir.ErrAmbiguous):
		return KindAmbiguous
	case errors.Is(err, gamedir.ErrNotWritable):
		return KindNotWritable
	case errors.Is(err, deploy.ErrBackup):
		return KindBackup
	case errors.Is(err, deploy.ErrDeploy):
		return KindDeploy
	case errors.Is(err, deploy.ErrLocked):
		return KindLock
	case networkStage:
		return KindNetwork
	default:
		return KindIO
	}
}

// fail wraps err in an *Error with the kind inferred from its sentinels.
func fail(err error, networkStage bool) *Error {
	return &Error{Kind: classify(err, networkStage), Err: err}
}
