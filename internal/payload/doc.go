// SPDX-License-Identifier: MPL-2.0

// Package payload downloads the translation package archive and verifies
// its integrity. Downloads stream straight to disk so package size never
// pressures memory, and every failure path removes the partially written
// file: a staging file either holds the complete payload or does not
// exist. Digest verification removes a corrupt payload before reporting
// the mismatch, so the deployer can never see one.
package payload
