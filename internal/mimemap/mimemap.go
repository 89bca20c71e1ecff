// Package mimemap is the MIME-type lookup table spec §1 places out of the
// core's scope: given a served file's extension, return the Content-Type
// HttpResponder should default to when a route handler doesn't set one
// explicitly (spec §4.5 "Content-Type ... defaulting to the configured
// default when absent").
package mimemap

import (
	"mime"
	"path/filepath"
	"strings"
)

// DefaultContentType is used when neither the extension table nor the
// stdlib's own registry recognizes the file, matching fasthttp's
// (the teacher's transport dependency) own FSHandler default.
const DefaultContentType = "application/octet-stream"

// extra holds entries the stdlib mime package's OS-dependent registry may
// be missing on a minimal container image, kept small and literal the way
// teacher-adjacent servers typically do rather than vendoring a generated
// table.
var extra = map[string]string{
	".html": "text/html; charset=utf-8",
	".htm":  "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "text/javascript; charset=utf-8",
	".mjs":  "text/javascript; charset=utf-8",
	".json": "application/json",
	".txt":  "text/plain; charset=utf-8",
	".svg":  "image/svg+xml",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".ico":  "image/x-icon",
	".wasm": "application/wasm",
	".woff": "font/woff",
	".woff2": "font/woff2",
	".pdf":  "application/pdf",
	".xml":  "application/xml",
}

// ForPath resolves the Content-Type for a served file path by extension,
// falling back to the stdlib registry and finally DefaultContentType.
func ForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := extra[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return DefaultContentType
}
