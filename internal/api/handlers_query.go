package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/docscope/internal/query"
)

const maxQueryBody = 1 << 20

func (s *Server) handlePersonaQuery(w http.ResponseWriter, r *http.Request) {
	var req query.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBody))
	if err := dec.Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.engine.Run(r.Context(), req)
	var ve *query.ValidationError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Error(), "field": ve.Field})
	case errors.Is(err, query.ErrNoData):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, context.DeadlineExceeded):
		jsonError(w, "query timed out", http.StatusGatewayTimeout)
	default:
		s.log.Error("persona query failed", "error", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}
