// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing error values that carry remediation
// guidance. Install failures are almost always fixable by the player
// (wrong game folder, offline machine, full disk), so errors surfaced by
// the CLI name the failed operation and suggest concrete next steps.
package issue
