package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dgallion1/studyplan/internal/render"
	"github.com/go-chi/chi/v5"
)

var downloadExt = map[string]string{
	"text/plain; charset=utf-8":    "txt",
	"text/markdown; charset=utf-8": "md",
	"text/html; charset=utf-8":     "html",
}

// handleDownload renders a stored plan as an attachment. The format query
// parameter selects html (default), markdown or text.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	entry := s.plans.Get(chi.URLParam(r, "planID"))
	if entry == nil {
		jsonError(w, "plan not found", http.StatusNotFound)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "html"
	}
	renderer, err := render.ForFormat(format)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ct := renderer.ContentType()
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="study_plan.%s"`, downloadExt[ct]))
	if err := renderer.Render(w, entry.Plan()); err != nil {
		s.log.Error("render failed", "plan_id", entry.ID, "format", format, "error", err)
	}
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	entry := s.plans.Get(chi.URLParam(r, "planID"))
	if entry == nil {
		jsonError(w, "plan not found", http.StatusNotFound)
		return
	}
	resp := map[string]any{
		"plan":       entry.Snapshot(),
		"study_plan": entry.Plan().Days,
	}
	if s.scheduler != nil {
		resp["pending_reminders"] = len(s.scheduler.Pending(entry.ID))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleDeletePlan forgets a plan and cancels its reminders.
func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "planID")
	if s.plans.Get(id) == nil {
		jsonError(w, "plan not found", http.StatusNotFound)
		return
	}
	s.plans.Delete(id)
	cancelled := 0
	if s.scheduler != nil {
		cancelled = s.scheduler.Cancel(id)
	}
	s.log.Info("plan deleted", "plan_id", id, "reminders_cancelled", cancelled)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"plan_id":             id,
		"deleted":             true,
		"reminders_cancelled": cancelled,
	})
}
