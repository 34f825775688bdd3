// Package resources serves the viewer's static assets.
package resources

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
)

// StaticDirectoryPath is the path to static assets from the project root.
const StaticDirectoryPath = "internal/ui/resources/static"

// StaticPath returns the URL of a static asset. Release builds append a
// content hash so the long-lived cache is busted whenever the file changes.
func StaticPath(name string) string {
	if v := assetVersion(name); v != "" {
		return "/static/" + name + "?v=" + v
	}
	return "/static/" + name
}

// contentHash returns a short hash of name within fsys, or "" when the file
// cannot be read.
func contentHash(fsys fs.FS, name string) string {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:4])
}
