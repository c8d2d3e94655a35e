package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/nagara-network/metaquery/pkg/log"
	"github.com/nagara-network/metaquery/pkg/metadata"
)

// FileQuerier answers file searches for one network.
type FileQuerier interface {
	Files(ctx context.Context, term string, mainnet bool) ([]metadata.NormalizedRecord, error)
}

type Server struct {
	files FileQuerier
	log   *log.Logger
}

func NewServer(files FileQuerier) *Server {
	return &Server{
		files: files,
		log:   log.ForService("api"),
	}
}

// Handler returns the full HTTP stack: routes wrapped in logging, CORS and
// compression.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return GzipMiddleware(CorsMiddleware(s.LoggingMiddleware(mux)))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	response := ErrorResponse{
		Error:   error,
		Message: message,
	}
	s.writeJSON(w, status, response)
}

// forbidden answers every route and method the service does not expose.
func forbidden(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusForbidden)
}
