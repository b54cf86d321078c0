// Package http adapts the router core's ServiceHandler contract onto
// real filesystem and upstream-proxy I/O: Static serves files off
// disk, Forward proxies to an upstream host.
package http

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/edgerouter/edgerouter/domain/router"
	"github.com/rs/zerolog/log"
)

// Static serves files rooted at SourceDir: a trailing-slash request
// appends FileIndex, and any read failure falls back to File404 (or a
// literal body when that file is itself unreadable).
type Static struct {
	SourceDir string
	FileIndex string
	File404   string
}

// NewStatic constructs a Static handler, defaulting FileIndex/File404
// when the config omits them.
func NewStatic(sourceDir, fileIndex, file404 string) *Static {
	if fileIndex == "" {
		fileIndex = "index.html"
	}
	if file404 == "" {
		file404 = "404.html"
	}
	return &Static{SourceDir: sourceDir, FileIndex: fileIndex, File404: file404}
}

func (s *Static) ServeHTTPService(ctx *router.RouterCtx, req *http.Request) *router.RouterResponse {
	urlPath := ctx.Path

	relPath := urlPath
	if strings.HasSuffix(urlPath, "/") {
		relPath = urlPath + s.FileIndex
	}

	filePath, err := s.resolve(relPath)
	var content []byte
	if err == nil {
		content, err = os.ReadFile(filePath)
	}
	if err == nil {
		return &router.RouterResponse{StatusCode: http.StatusOK, Body: content}
	}

	log.Debug().Str("path", filePath).Err(err).Msg("static file not found")

	notFoundPath := filepath.Join(s.SourceDir, s.File404)
	content404, err404 := os.ReadFile(notFoundPath)
	if err404 != nil {
		content404 = []byte("404 Not Found")
	}
	return &router.RouterResponse{StatusCode: http.StatusNotFound, Body: content404}
}

// resolve joins relPath onto SourceDir and rejects any result that
// escapes the root, so a path like `../../etc/passwd` in the request
// can't read outside the configured directory.
func (s *Static) resolve(relPath string) (string, error) {
	root, err := filepath.Abs(s.SourceDir)
	if err != nil {
		return "", err
	}
	full := filepath.Join(root, filepath.FromSlash(relPath))
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", os.ErrNotExist
	}
	return full, nil
}
