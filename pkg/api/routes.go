package api

import (
	"net/http"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.HandleFiles)
	// Everything else, including other methods on "/", is refused.
	mux.HandleFunc("/", forbidden)
}
