// SPDX-License-Identifier: MPL-2.0

// Package installer orchestrates a full installation run: locating the
// game, fetching the manifest, downloading and verifying the payload,
// and deploying it transactionally. It is the single entry point the
// CLI commands build on.
package installer
