// SPDX-License-Identifier: MPL-2.0

// Package gamedir locates the OMORI installation directory. An explicit
// user-supplied path is validated rather than trusted; otherwise the
// Steam install is discovered through platform conventions (the registry
// on Windows, well-known paths elsewhere) and every configured Steam
// library from steamapps/libraryfolders.vdf is searched. A directory only
// qualifies when the expected marker files are present, and writability
// is probed up front so a deploy never discovers a permission problem
// halfway through.
package gamedir
