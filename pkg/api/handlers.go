package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/nagara-network/metaquery/pkg/chain"
	"github.com/nagara-network/metaquery/pkg/identity"
	"github.com/nagara-network/metaquery/pkg/metadata"
	"github.com/nagara-network/metaquery/pkg/search"
)

// HandleFiles serves GET /?search=<term>&mainnet=<bool>.
func (s *Server) HandleFiles(w http.ResponseWriter, r *http.Request) {
	// The GET pattern also matches HEAD.
	if r.Method != http.MethodGet {
		forbidden(w, r)
		return
	}

	params := r.URL.Query()
	if !params.Has("search") {
		s.writeError(w, http.StatusBadRequest, "Missing query parameter", "Query parameter 'search' is required")
		return
	}
	if !params.Has("mainnet") {
		s.writeError(w, http.StatusBadRequest, "Missing query parameter", "Query parameter 'mainnet' is required")
		return
	}
	mainnet, err := strconv.ParseBool(params.Get("mainnet"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid query parameter", "Query parameter 'mainnet' must be true or false")
		return
	}

	records, err := s.files.Files(r.Context(), params.Get("search"), mainnet)
	if err != nil {
		s.log.Errorf("%s query %q (mainnet=%t) failed: %v", failureClass(err), params.Get("search"), mainnet, err)
		s.writeError(w, http.StatusInternalServerError, "Internal server error", "The request could not be completed")
		return
	}

	s.writeJSON(w, http.StatusOK, records)
}

// failureClass names the kind of failure for the log line. Clients always
// see the same 500 response.
func failureClass(err error) string {
	switch {
	case errors.Is(err, search.ErrStoreConnectionBroken):
		return "store"
	case errors.Is(err, metadata.ErrMissingOnchainRecord):
		return "metadata"
	case errors.Is(err, metadata.ErrIncompleteRecord):
		return "metadata"
	case errors.Is(err, chain.ErrDecode), errors.Is(err, identity.ErrInvalidKey):
		return "decode"
	case errors.Is(err, chain.ErrTransport):
		return "chain"
	default:
		return "io"
	}
}
