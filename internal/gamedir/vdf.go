// SPDX-License-Identifier: MPL-2.0

package gamedir

import (
	"regexp"
	"strings"
)

// pathEntryRe matches `"path"  "<value>"` lines in libraryfolders.vdf.
// The value may contain VDF escape sequences (\\ and \").
var pathEntryRe = regexp.MustCompile(`"path"\s+"((?:[^"\\]|\\.)*)"`)

// parseLibraryFolders extracts the library folder paths from the contents
// of a Steam libraryfolders.vdf file. Steam's VDF format is a nested
// key/value structure; only the "path" entries matter here, so a targeted
// scan is enough.
func parseLibraryFolders(content string) []string {
	var paths []string
	for _, m := range pathEntryRe.FindAllStringSubmatch(content, -1) {
		paths = append(paths, unescapeVDF(m[1]))
	}
	return paths
}

// unescapeVDF resolves the two escape sequences VDF uses in string
// values: `\\` for a backslash and `\"` for a quote.
func unescapeVDF(s string) string {
	r := strings.NewReplacer(`\\`, `\`, `\"`, `"`)
	return r.Replace(s)
}
