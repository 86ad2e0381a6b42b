package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/studyplan/internal/parser"
	"github.com/dgallion1/studyplan/internal/plan"
	"github.com/dgallion1/studyplan/internal/planstore"
	"github.com/dgallion1/studyplan/internal/reminder"
)

type uploadRequest struct {
	Days     int     `validate:"gte=1,lte=365"`
	Hours    float64 `validate:"gt=0,lte=24"`
	Email    string  `validate:"omitempty,email"`
	WhatsApp string  `validate:"omitempty,e164"`
}

type uploadResponse struct {
	PlanID             string         `json:"plan_id"`
	StudyPlan          []plan.DayPlan `json:"study_plan"`
	DownloadURL        string         `json:"download_url"`
	RemindersScheduled int            `json:"reminders_scheduled"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("upload exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	req, err := s.parseUploadForm(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["file[]"]
	if len(files) == 0 {
		files = r.MultipartForm.File["file"]
	}
	if len(files) == 0 {
		jsonError(w, "No file uploaded", http.StatusBadRequest)
		return
	}

	var total int64
	names := make([]string, 0, len(files))
	for _, fh := range files {
		name := sanitizeFilename(fh.Filename)
		if !parser.IsSupportedExtension(name) {
			jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(name)), http.StatusBadRequest)
			return
		}
		total += fh.Size
		names = append(names, name)
	}
	if total > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("upload exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	text, err := s.extractFiles(files, names)
	if err != nil {
		s.log.Error("extraction failed", "files", names, "error", err)
		jsonError(w, "failed to extract text: "+err.Error(), http.StatusInternalServerError)
		return
	}

	p, err := s.generator.Generate(text, req.Days, req.Hours)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, plan.ErrNoTopics) || errors.Is(err, plan.ErrInvalidDays) || errors.Is(err, plan.ErrInvalidHours) {
			status = http.StatusBadRequest
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(plan.NewResult(nil, err))
		return
	}

	entry := planstore.NewEntry(p, names, text, req.Days, req.Hours)
	s.plans.Put(entry)
	log := s.log.With("plan_id", entry.ID)

	scheduled := 0
	if s.scheduler != nil && (req.Email != "" || req.WhatsApp != "") {
		contact := reminder.Contact{Email: req.Email, WhatsApp: req.WhatsApp}
		scheduled = s.scheduler.Schedule(entry.ID, p, contact, s.now())
	}
	log.Info("plan generated",
		"files", names,
		"days", req.Days,
		"hours_per_day", req.Hours,
		"reminders", scheduled,
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(uploadResponse{
		PlanID:             entry.ID,
		StudyPlan:          p.Days,
		DownloadURL:        "/download/" + entry.ID,
		RemindersScheduled: scheduled,
	})
}

// parseUploadForm reads the plan parameters, falling back to the configured
// defaults for blank fields.
func (s *Server) parseUploadForm(r *http.Request) (uploadRequest, error) {
	req := uploadRequest{
		Days:     s.cfg.DefaultDays,
		Hours:    s.cfg.DefaultHoursPerDay,
		Email:    strings.TrimSpace(r.FormValue("email")),
		WhatsApp: strings.TrimPrefix(strings.TrimSpace(r.FormValue("whatsapp_number")), "whatsapp:"),
	}
	if v := strings.TrimSpace(r.FormValue("days")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("days must be a whole number, got %q", v)
		}
		req.Days = n
	}
	if v := strings.TrimSpace(r.FormValue("hours")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, fmt.Errorf("hours must be a number, got %q", v)
		}
		req.Hours = f
	}
	if err := s.checkStruct(req); err != nil {
		return req, err
	}
	return req, nil
}

func (s *Server) extractFiles(files []*multipart.FileHeader, names []string) (string, error) {
	sources := make([]parser.Source, 0, len(files))
	for i, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return "", fmt.Errorf("open %s: %w", names[i], err)
		}
		defer f.Close()
		sources = append(sources, parser.Source{Name: names[i], R: f})
	}
	return parser.ExtractAll(sources, s.parserOpts)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
