package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	pending := 0
	if s.scheduler != nil {
		pending = s.scheduler.PendingCount()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"plans":             s.plans.Len(),
		"pending_reminders": pending,
		"whatsapp_enabled":  s.cfg.WhatsAppEnabled(),
		"email_enabled":     s.cfg.EmailEnabled(),
	})
}
