package reminder

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/dgallion1/studyplan/internal/notify"
	"github.com/dgallion1/studyplan/internal/plan"
	"github.com/dgallion1/studyplan/internal/render"
)

// Kind says which transport and template a job uses.
type Kind string

const (
	KindTopicEmail    Kind = "topic_email"
	KindTopicWhatsApp Kind = "topic_whatsapp"
	KindBreak         Kind = "break"
	KindDayComplete   Kind = "day_complete"
	KindPlanText      Kind = "plan_text"
	KindPlanEmail     Kind = "plan_email"
)

// Email reports whether the job goes out by email.
func (k Kind) Email() bool { return k == KindTopicEmail || k == KindPlanEmail }

// Contact is where a plan's reminders go. Empty fields disable that channel.
type Contact struct {
	Email    string
	WhatsApp string
}

// Job is one message due at a point in time.
type Job struct {
	PlanID  string    `json:"plan_id"`
	Kind    Kind      `json:"kind"`
	At      time.Time `json:"at"`
	To      string    `json:"to"`
	Subject string    `json:"subject,omitempty"`
	Body    string    `json:"body"`

	Attachments []notify.Attachment `json:"-"`
}

// Timing controls when daily reminders fire.
type Timing struct {
	Hour int           // local hour the study block starts
	Lead time.Duration // how early topic reminders go out
}

// DefaultTiming starts study at 9 AM with reminders 15 minutes before.
func DefaultTiming() Timing {
	return Timing{Hour: 9, Lead: 15 * time.Minute}
}

const (
	emailSubject   = "Study Reminder"
	planSubject    = "Your Study Plan"
	planEmailBody  = "Here's your study plan! You will receive reminders before each study session."
	planAttachment = "study_plan.html"
	breakMessage   = "⏸️ Time for a short break! Stretch, hydrate, and get ready for the next topic! 🚀"
)

// Build lays out every reminder for p, with day d of the plan falling d
// calendar days after start. The full plan text is due at start itself.
// Jobs are returned in time order.
func Build(planID string, p *plan.StudyPlan, c Contact, start time.Time, t Timing) []Job {
	var jobs []Job
	add := func(k Kind, at time.Time, to, subject, body string) {
		jobs = append(jobs, Job{PlanID: planID, Kind: k, At: at, To: to, Subject: subject, Body: body})
	}

	if c.WhatsApp != "" {
		add(KindPlanText, start, c.WhatsApp, "", render.Text(p))
	}
	if c.Email != "" {
		add(KindPlanEmail, start, c.Email, planSubject, planEmailBody)
		var page bytes.Buffer
		if err := render.HTML(&page, p); err == nil {
			jobs[len(jobs)-1].Attachments = []notify.Attachment{{
				Filename:    planAttachment,
				ContentType: "text/html; charset=utf-8",
				Data:        page.Bytes(),
			}}
		}
	}

	for d, day := range p.Days {
		date := start.AddDate(0, 0, d)
		blockStart := time.Date(date.Year(), date.Month(), date.Day(), t.Hour, 0, 0, 0, start.Location())
		remindAt := blockStart.Add(-t.Lead)

		elapsed := time.Duration(0)
		for i, topic := range day.Topics {
			if c.Email != "" {
				add(KindTopicEmail, remindAt, c.Email, emailSubject, fmt.Sprintf(
					"Reminder: It's time to study %s! Your scheduled study time starts at %s.",
					topic.Name, blockStart.Format("03:04 PM")))
			}
			if c.WhatsApp == "" {
				continue
			}
			add(KindTopicWhatsApp, remindAt, c.WhatsApp, "", fmt.Sprintf(
				"⏰ Reminder!\nToday, study: %s (%s hours).\nYou got this! 💡",
				topic.Name, strconv.FormatFloat(topic.Hours, 'f', -1, 64)))
			elapsed += minutes(topic.Hours)
			if i < len(day.Topics)-1 {
				add(KindBreak, blockStart.Add(elapsed), c.WhatsApp, "", breakMessage)
			}
		}
		if c.WhatsApp != "" {
			add(KindDayComplete, blockStart.Add(minutes(day.TotalHours())), c.WhatsApp, "", fmt.Sprintf(
				"🎉 Congrats! You've completed %s of your study plan! Keep up the great work! 💪", day.Day))
		}
	}

	sortJobs(jobs)
	return jobs
}

// minutes truncates fractional hours to whole minutes.
func minutes(hours float64) time.Duration {
	return time.Duration(math.Floor(hours*60+1e-9)) * time.Minute
}
