// Package servefolder is the static-folder directory enumeration spec §1
// places out of the core's scope: resolve a request path against a root
// directory, refusing traversal outside it, and produce a response body for
// the route dispatcher to hand back to polyhttp.HttpResponder.
package servefolder

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/domsolutions/polyhttp/internal/mimemap"
)

// ErrForbidden is returned for a request path that would escape root via
// `..` traversal.
var ErrForbidden = errors.New("servefolder: path escapes root")

// ErrNotFound is returned when the resolved path does not exist.
var ErrNotFound = errors.New("servefolder: not found")

// Entry is a Folder.List row.
type Entry struct {
	Name  string
	IsDir bool
	Size  int64
}

// Folder serves files under a fixed root directory.
type Folder struct {
	root        string
	defaultFile string
}

// New creates a Folder rooted at root. defaultFile (e.g. "index.html") is
// served when a directory request resolves to an existing file of that
// name; otherwise the directory is enumerated.
func New(root, defaultFile string) *Folder {
	return &Folder{root: filepath.Clean(root), defaultFile: defaultFile}
}

// resolve joins root and the URL path, rejecting any result that escapes
// root after cleaning (the classic `..`-traversal guard).
func (f *Folder) resolve(urlPath string) (string, error) {
	clean := filepath.Clean("/" + urlPath)
	full := filepath.Join(f.root, clean)
	if full != f.root && !strings.HasPrefix(full, f.root+string(filepath.Separator)) {
		return "", ErrForbidden
	}
	return full, nil
}

// Open resolves urlPath to a file under root and returns its bytes and
// Content-Type. If urlPath names a directory, defaultFile is tried first,
// then the directory is listed as an HTML index.
func (f *Folder) Open(urlPath string) (body []byte, contentType string, err error) {
	full, err := f.resolve(urlPath)
	if err != nil {
		return nil, "", err
	}

	info, err := os.Stat(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}

	if info.IsDir() {
		if f.defaultFile != "" {
			idx := filepath.Join(full, f.defaultFile)
			if st, err := os.Stat(idx); err == nil && !st.IsDir() {
				full = idx
			} else {
				return f.renderIndex(full, urlPath)
			}
		} else {
			return f.renderIndex(full, urlPath)
		}
	}

	b, err := os.ReadFile(full)
	if err != nil {
		return nil, "", err
	}
	return b, mimemap.ForPath(full), nil
}

// List returns the directory's immediate entries, sorted by name, for
// callers that want to build their own index page.
func (f *Folder) List(urlPath string) ([]Entry, error) {
	full, err := f.resolve(urlPath)
	if err != nil {
		return nil, err
	}
	dirents, err := os.ReadDir(full)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(dirents))
	for _, de := range dirents {
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Name: de.Name(), IsDir: de.IsDir(), Size: info.Size()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (f *Folder) renderIndex(full, urlPath string) ([]byte, string, error) {
	entries, err := f.List(urlPath)
	if err != nil {
		return nil, "", err
	}
	var sb strings.Builder
	sb.WriteString("<html><body><ul>\n")
	for _, e := range entries {
		name := e.Name
		if e.IsDir {
			name += "/"
		}
		sb.WriteString("<li><a href=\"" + name + "\">" + name + "</a></li>\n")
	}
	sb.WriteString("</ul></body></html>\n")
	return []byte(sb.String()), "text/html; charset=utf-8", nil
}
