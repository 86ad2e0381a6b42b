package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/studyplan/internal/config"
	"github.com/dgallion1/studyplan/internal/plan"
	"github.com/dgallion1/studyplan/internal/planstore"
	"github.com/dgallion1/studyplan/internal/reminder"
)

const syllabus = "Unit I - Sorting Algorithms\n\nBubble sort, Merge sort, Quick sort\n"

var fixedNow = time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC)

type fakeSender struct {
	mu   sync.Mutex
	sent int
}

func (f *fakeSender) Send(context.Context, string, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent++
	return nil
}

func testConfig() config.Config {
	return config.Config{
		Port:               "0",
		MaxUploadBytes:     1 << 20,
		DefaultDays:        7,
		DefaultHoursPerDay: 4,
		WeightStrategy:     "keyword",
		MessageMaxLen:      1600,
	}
}

func newTestServer(t *testing.T, cfg config.Config, withScheduler bool) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	var sched *reminder.Scheduler
	if withScheduler {
		sched = reminder.New(reminder.Config{Timing: reminder.DefaultTiming()}, &fakeSender{}, nil, log,
			reminder.WithClock(func() time.Time { return fixedNow }))
	}
	s := NewServer(plan.NewGenerator(nil, nil), planstore.New(time.Hour), sched, log, cfg)
	s.now = func() time.Time { return fixedNow }
	return s
}

type upload struct {
	fields map[string]string
	files  map[string]string // filename -> content
}

func uploadRequestFor(t *testing.T, u upload) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range u.fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for name, content := range u.files {
		fw, err := mw.CreateFormFile("file[]", name)
		if err != nil {
			t.Fatal(err)
		}
		io.WriteString(fw, content)
	}
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig(), false)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestUpload_GeneratesPlanAndDownload(t *testing.T) {
	s := newTestServer(t, testConfig(), false)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequestFor(t, upload{
		fields: map[string]string{"days": "2", "hours": "3"},
		files:  map[string]string{"syllabus.txt": syllabus},
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp uploadResponse
	decodeBody(t, rec, &resp)
	if resp.PlanID == "" {
		t.Fatal("expected plan_id")
	}
	if len(resp.StudyPlan) != 2 {
		t.Fatalf("expected 2 days, got %d", len(resp.StudyPlan))
	}
	total := 0.0
	for _, d := range resp.StudyPlan {
		total += d.TotalHours()
	}
	if math.Abs(total-6) > 0.05 {
		t.Errorf("expected about 6 hours in total, got %v", total)
	}
	if resp.DownloadURL != "/download/"+resp.PlanID {
		t.Errorf("unexpected download url %q", resp.DownloadURL)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, resp.DownloadURL, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on download, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected html content type, got %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "study_plan.html") {
		t.Errorf("unexpected content disposition %q", cd)
	}
	if !strings.Contains(rec.Body.String(), "Your Study Plan") {
		t.Error("expected rendered plan title")
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, resp.DownloadURL+"?format=md", nil))
	if !strings.Contains(rec.Body.String(), "## Day 1") {
		t.Errorf("expected markdown body, got %q", rec.Body.String())
	}
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name   string
		up     upload
		status int
		errHas string
	}{
		{"no file", upload{fields: map[string]string{"days": "2"}}, http.StatusBadRequest, "No file uploaded"},
		{"unsupported type", upload{files: map[string]string{"run.exe": "x"}}, http.StatusBadRequest, "unsupported file type"},
		{"days not a number", upload{fields: map[string]string{"days": "abc"}, files: map[string]string{"s.txt": syllabus}}, http.StatusBadRequest, "days must be a whole number"},
		{"days zero", upload{fields: map[string]string{"days": "0"}, files: map[string]string{"s.txt": syllabus}}, http.StatusBadRequest, "Days failed on 'gte' tag"},
		{"bad email", upload{fields: map[string]string{"email": "nope"}, files: map[string]string{"s.txt": syllabus}}, http.StatusBadRequest, "Email failed on 'email' tag"},
		{"no topics", upload{files: map[string]string{"s.txt": "UNIT\nCONTENTS\n"}}, http.StatusBadRequest, plan.NoTopicsMessage},
	}
	s := newTestServer(t, testConfig(), false)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, uploadRequestFor(t, tc.up))
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			var body map[string]any
			decodeBody(t, rec, &body)
			if msg, _ := body["error"].(string); !strings.Contains(msg, tc.errHas) {
				t.Errorf("expected error containing %q, got %q", tc.errHas, msg)
			}
		})
	}
	if s.plans.Len() != 0 {
		t.Errorf("expected no stored plans after failures, got %d", s.plans.Len())
	}
}

func TestUpload_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadBytes = 64
	s := newTestServer(t, cfg, false)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequestFor(t, upload{files: map[string]string{"s.txt": strings.Repeat(syllabus, 10)}}))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUpload_SchedulesRemindersAndDeleteCancels(t *testing.T) {
	s := newTestServer(t, testConfig(), true)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequestFor(t, upload{
		fields: map[string]string{"days": "2", "hours": "3", "whatsapp_number": "whatsapp:+15551234567"},
		files:  map[string]string{"syllabus.txt": syllabus},
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp uploadResponse
	decodeBody(t, rec, &resp)
	if resp.RemindersScheduled == 0 {
		t.Fatal("expected reminders to be scheduled")
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	var stats map[string]any
	decodeBody(t, rec, &stats)
	if stats["plans"] != float64(1) || stats["pending_reminders"] != float64(resp.RemindersScheduled) {
		t.Errorf("unexpected stats %v", stats)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/plans/"+resp.PlanID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", rec.Code)
	}
	var del map[string]any
	decodeBody(t, rec, &del)
	if del["reminders_cancelled"] != float64(resp.RemindersScheduled) {
		t.Errorf("expected %d cancelled, got %v", resp.RemindersScheduled, del["reminders_cancelled"])
	}
	if s.scheduler.PendingCount() != 0 {
		t.Errorf("expected no pending reminders, got %d", s.scheduler.PendingCount())
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/"+resp.PlanID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

func chatRequestFor(t *testing.T, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

const chatPlan = `{"study_plan":[{"day":"Day 1","topics":[{"name":"A","hours":1.5},{"name":"B","hours":2.5}]},{"day":"Day 2","topics":[{"name":"B","hours":4}]}]}`

func TestChat_AdjustsClientPlan(t *testing.T) {
	s := newTestServer(t, testConfig(), false)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, chatRequestFor(t, `{"message":"Adjust day 1 to 2 hours","study_plan":`+chatPlan+`}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Response    string          `json:"response"`
		UpdatedPlan *plan.StudyPlan `json:"updated_plan"`
	}
	decodeBody(t, rec, &resp)
	if resp.Response != "Adjusted Day 1 schedule to 2 hours." {
		t.Errorf("unexpected response %q", resp.Response)
	}
	if resp.UpdatedPlan == nil {
		t.Fatal("expected updated plan")
	}
	got := resp.UpdatedPlan.Days[0].Topics
	if got[0].Hours != 0.75 || got[1].Hours != 1.25 {
		t.Errorf("expected 0.75/1.25, got %v/%v", got[0].Hours, got[1].Hours)
	}
}

func TestChat_HelpHasNoUpdatedPlan(t *testing.T) {
	s := newTestServer(t, testConfig(), false)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, chatRequestFor(t, `{"message":"help","study_plan":`+chatPlan+`}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"updated_plan":null`) {
		t.Errorf("expected null updated_plan, got %s", rec.Body.String())
	}
}

func TestChat_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		errHas string
	}{
		{"bad json", `{"message":`, http.StatusBadRequest, "invalid JSON body"},
		{"no plan", `{"message":"help"}`, http.StatusBadRequest, "No study plan available"},
		{"null plan", `{"message":"help","study_plan":null}`, http.StatusBadRequest, "No study plan available"},
		{"empty plan", `{"message":"help","study_plan":{"study_plan":[]}}`, http.StatusBadRequest, "No study plan available"},
		{"schema violation", `{"message":"help","study_plan":{"study_plan":[{"day":"Day 1","topics":[{"name":"A","hours":"two"}]}]}}`, http.StatusBadRequest, "does not match schema"},
		{"bad plan id", `{"message":"help","plan_id":"xyz"}`, http.StatusBadRequest, "PlanID failed on 'uuid' tag"},
		{"unknown plan id", `{"message":"help","plan_id":"6f1c2a8e-8b0e-4c8e-9a56-0d4c8a1e2b3f"}`, http.StatusNotFound, "plan not found"},
	}
	s := newTestServer(t, testConfig(), false)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, chatRequestFor(t, tc.body))
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			var body map[string]string
			decodeBody(t, rec, &body)
			if !strings.Contains(body["error"], tc.errHas) {
				t.Errorf("expected error containing %q, got %q", tc.errHas, body["error"])
			}
		})
	}
}

func TestChat_UpdatesStoredPlan(t *testing.T) {
	s := newTestServer(t, testConfig(), false)
	p := &plan.StudyPlan{Days: []plan.DayPlan{
		{Day: "Day 1", Topics: []plan.TopicAllocation{{Name: "A", Hours: 4}}},
	}}
	entry := planstore.NewEntry(p, []string{"s.txt"}, syllabus, 1, 4)
	s.plans.Put(entry)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, chatRequestFor(t, `{"message":"busy on day 1, available 1.5 hours","plan_id":"`+entry.ID+`"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := s.plans.Get(entry.ID).Plan().Days[0].Topics[0].Hours; got != 1.5 {
		t.Errorf("expected stored plan to be updated to 1.5, got %v", got)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/plans/"+entry.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got map[string]any
	decodeBody(t, rec, &got)
	meta, _ := got["plan"].(map[string]any)
	if meta["plan_id"] != entry.ID || meta["total_hours"] != 1.5 {
		t.Errorf("unexpected plan snapshot %v", meta)
	}
}

func TestChat_StoredPlanEditReschedulesReminders(t *testing.T) {
	s := newTestServer(t, testConfig(), true)
	p := &plan.StudyPlan{Days: []plan.DayPlan{
		{Day: "Day 1", Topics: []plan.TopicAllocation{{Name: "A", Hours: 4}}},
		{Day: "Day 2", Topics: []plan.TopicAllocation{{Name: "B", Hours: 4}}},
	}}
	entry := planstore.NewEntry(p, []string{"s.txt"}, syllabus, 2, 4)
	s.plans.Put(entry)
	s.scheduler.Schedule(entry.ID, p, reminder.Contact{WhatsApp: "whatsapp:+15551234567"}, fixedNow)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, chatRequestFor(t, `{"message":"Adjust day 2 to 1.5 hours","plan_id":"`+entry.ID+`"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var day2 *reminder.Job
	jobs := s.scheduler.Pending(entry.ID)
	for i := range jobs {
		if jobs[i].Kind == reminder.KindTopicWhatsApp && strings.Contains(jobs[i].Body, "study: B") {
			day2 = &jobs[i]
		}
		if jobs[i].Kind == reminder.KindPlanText {
			t.Error("plan text must not be queued again after an edit")
		}
	}
	if day2 == nil || !strings.Contains(day2.Body, "(1.5 hours)") {
		t.Errorf("expected day 2 reminder to quote 1.5 hours, got %+v", day2)
	}
}

func TestAuth(t *testing.T) {
	cfg := testConfig()
	cfg.PlannerAPIKey = "secret"
	s := newTestServer(t, cfg, false)

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"health is public", "/health", "", http.StatusOK},
		{"missing token", "/api/stats", "", http.StatusUnauthorized},
		{"wrong token", "/api/stats", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "/api/stats", "Bearer secret", http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Errorf("expected %d, got %d", tc.status, rec.Code)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"syllabus.pdf", "syllabus.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\notes.txt`, "notes.txt"},
		{"", "unnamed"},
	}
	for _, tc := range tests {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}
