// Package site serves the embedded landing page.
package site

import (
	"net/http"
)

// Register serves the landing page at exactly "/". Other unmatched paths
// stay 404.
func Register(mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("GET /{$}", http.FileServer(FS()))
}
