package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/dgallion1/studyplan/internal/chat"
	"github.com/dgallion1/studyplan/internal/plan"
)

type chatRequest struct {
	Message   string          `json:"message" validate:"max=2000"`
	PlanID    string          `json:"plan_id" validate:"omitempty,uuid"`
	StudyPlan json.RawMessage `json:"study_plan"`
}

// handleChat applies a chat command to the caller's plan. The plan comes from
// the request body, or from the store when only plan_id is given. A stored
// plan is updated in place when the command changes it, and its pending
// reminders are rebuilt from the new hours.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := s.checkStruct(req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var p *plan.StudyPlan
	raw := bytes.TrimSpace(req.StudyPlan)
	switch {
	case len(raw) > 0 && !bytes.Equal(raw, []byte("null")):
		decoded, err := s.decodePlan(raw)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		p = decoded
	case req.PlanID != "":
		entry := s.plans.Get(req.PlanID)
		if entry == nil {
			jsonError(w, "plan not found", http.StatusNotFound)
			return
		}
		p = entry.Plan()
	}
	if p == nil || len(p.Days) == 0 {
		jsonError(w, "No study plan available", http.StatusBadRequest)
		return
	}

	resp := chat.Interpret(req.Message, p)
	if resp.UpdatedPlan != nil && req.PlanID != "" {
		if entry := s.plans.Get(req.PlanID); entry != nil {
			entry.SetPlan(resp.UpdatedPlan)
			rescheduled := 0
			if s.scheduler != nil {
				rescheduled = s.scheduler.Reschedule(req.PlanID, resp.UpdatedPlan)
			}
			s.log.Info("plan adjusted", "plan_id", req.PlanID, "reminders", rescheduled)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
