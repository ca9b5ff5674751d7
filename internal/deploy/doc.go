// SPDX-License-Identifier: MPL-2.0

// Package deploy applies a verified translation package to the game
// directory with transactional guarantees, and tracks what is installed.
//
// The deployer moves through four phases: planning (enumerate the archive
// and reject entries that would escape the target), backing up (copy
// every file about to be overwritten into a fresh per-run backup set),
// writing (extract all entries over the target), and verifying (confirm
// every expected output exists). A failure in any phase after planning
// rolls the target back: backed-up files are restored and pure additions
// are deleted, so the game directory is always entirely at the new
// version or entirely at the prior one. Backups become disposable only at
// the commit point, when the caller persists the new installation record.
//
// The installation record is a small JSON file in the game directory
// root. Its absence simply means "fresh install". An advisory lock file,
// also in the game directory, refuses concurrent runs instead of letting
// them corrupt each other.
package deploy
