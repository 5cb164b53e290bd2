package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vitalmesh/vitalmesh-core/internal/bus"
)

// handleGetMessages returns the bus messages currently visible to a
// device: everything addressed to it plus broadcasts sent since it
// joined. Reads are non-destructive; clients polling this endpoint
// see the same messages again and deduplicate by message_id.
func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !s.registry.Contains(id) {
		writeNotFound(w, "device not found")
		return
	}

	msgs := s.bus.ReceiveFor(id)
	if msgs == nil {
		msgs = []bus.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": id,
		"messages":  msgs,
		"count":     len(msgs),
	})
}
