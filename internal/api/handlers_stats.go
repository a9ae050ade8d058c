package api

import (
	"net/http"

	"github.com/dgallion1/docscope/internal/stats"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	latency := make(map[string]stats.Snapshot, len(s.latency))
	for name, l := range s.latency {
		if l != nil {
			latency[name] = l.Snapshot()
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"queue_depth": s.orchestrator.QueueDepth(),
		"latency":     latency,
	})
}
