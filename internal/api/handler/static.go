package handler

import (
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/pulseboard/pulseboard/internal/api/response"
)

const indexFile = "index.html"

// StaticHandler serves the built single page app. Paths that do not name a
// file get index.html so client-side routes survive a reload.
type StaticHandler struct {
	files      fs.FS
	fileServer http.Handler
}

// NewStaticHandler creates a StaticHandler over files.
func NewStaticHandler(files fs.FS) *StaticHandler {
	return &StaticHandler{
		files:      files,
		fileServer: http.FileServer(http.FS(files)),
	}
}

// ServeHTTP handles GET /* - static assets with an index.html fallback.
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name != "" {
		if info, err := fs.Stat(h.files, name); err == nil && !info.IsDir() {
			h.fileServer.ServeHTTP(w, r)
			return
		}
	}

	if _, err := fs.Stat(h.files, indexFile); err != nil {
		response.NotFound(w, r, "no frontend bundle is installed")
		return
	}
	http.ServeFileFS(w, r, h.files, indexFile)
}
