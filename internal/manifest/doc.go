// SPDX-License-Identifier: MPL-2.0

// Package manifest fetches and validates the translation package manifest
// from the distribution server. The manifest is a small JSON document
// describing the latest package version, its download URL, its SHA256
// digest, and optionally the file list it will touch.
//
// Transport failures and malformed documents are distinguishable:
// decode and validation failures wrap ErrInvalid (the server published a
// broken manifest), while anything else from Fetch is a network-level
// problem the user can retry.
package manifest
