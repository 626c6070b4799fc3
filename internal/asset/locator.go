package asset

import (
	"net/url"
	"path/filepath"
)

// Locator turns a filesystem path into a file:// URL a renderer can load.
func Locator(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	p := filepath.ToSlash(path)
	if len(p) > 0 && p[0] != '/' {
		// windows volume paths
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String()
}
