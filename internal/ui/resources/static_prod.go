//go:build !dev

package resources

import (
	"embed"
	"io/fs"
	"net/http"
	"sync"
)

// IsDev reports a dev build: assets come from disk and pages hot reload.
const IsDev = false

//go:embed static/*
var staticFS embed.FS

var (
	assetsOnce sync.Once
	assets     fs.FS
	versionsMu sync.Mutex
	versions   = map[string]string{}
)

func embedded() fs.FS {
	assetsOnce.Do(func() {
		assets, _ = fs.Sub(staticFS, "static")
	})
	return assets
}

// assetVersion hashes the embedded file once and remembers the result.
func assetVersion(name string) string {
	versionsMu.Lock()
	defer versionsMu.Unlock()
	v, ok := versions[name]
	if !ok {
		v = contentHash(embedded(), name)
		versions[name] = v
	}
	return v
}

// Handler returns an HTTP handler for serving static files.
// In production mode, files are embedded in the binary.
func Handler() http.Handler {
	fileServer := http.FileServer(http.FS(embedded()))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Embedded assets only change with the binary, and StaticPath
		// versions their URLs.
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		http.StripPrefix("/static/", fileServer).ServeHTTP(w, r)
	})
}
