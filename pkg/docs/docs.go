//go:build docs

// Package docs contains an embedded filesystem containing the
// complete copy of the operator handbook that goes with a particular
// release.  It does not include the server because it is expected to
// be served by the dashboard webserver.
package docs

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
)

//go:generate mdbook build mdbook

//go:embed mdbook/book/html/*
var efs embed.FS

// MakeHandler returns the contents of the embedded docs filesystem.
func MakeHandler(path string) http.Handler {
	return func() http.Handler {
		docFS, _ := fs.Sub(efs, "mdbook/book/html")
		if os.Getenv("BASESTATION_DOCS") != "" {
			docFS = os.DirFS(os.Getenv("BASESTATION_DOCS"))
		}
		return http.StripPrefix(path, http.FileServer(http.FS(docFS)))
	}()
}
