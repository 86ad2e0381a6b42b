package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dgallion1/studyplan/internal/notify"
	"github.com/dgallion1/studyplan/internal/plan"
)

// Config controls the dispatch loop.
type Config struct {
	Timing       Timing
	Tick         time.Duration
	Workers      int
	QueueSize    int
	MaxLen       int
	MessageDelay time.Duration
}

// Scheduler owns all pending reminder jobs, keyed by plan ID. Scheduling or
// cancelling one plan never touches another plan's jobs.
type Scheduler struct {
	mu      sync.Mutex
	pending map[string][]Job
	targets map[string]target

	sender notify.Sender
	mailer notify.Mailer
	log    *slog.Logger
	cfg    Config
	now    func() time.Time

	queue  chan Job
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// target is what a plan was scheduled against, kept so it can be rebuilt.
type target struct {
	contact Contact
	start   time.Time
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a Scheduler. sender or mailer may be nil, which drops jobs for
// that channel at scheduling time.
func New(cfg Config, sender notify.Sender, mailer notify.Mailer, log *slog.Logger, opts ...Option) *Scheduler {
	if cfg.Tick <= 0 {
		cfg.Tick = 30 * time.Second
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.MaxLen <= 0 {
		cfg.MaxLen = notify.DefaultMaxLen
	}
	s := &Scheduler{
		pending: make(map[string][]Job),
		targets: make(map[string]target),
		sender:  sender,
		mailer:  mailer,
		log:     log,
		cfg:     cfg,
		now:     time.Now,
		queue:   make(chan Job, cfg.QueueSize),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Schedule replaces any jobs for planID with reminders for p starting at
// start. Jobs already in the past, or for a channel with no transport, are
// dropped. It returns the number of jobs kept.
func (s *Scheduler) Schedule(planID string, p *plan.StudyPlan, c Contact, start time.Time) int {
	return s.schedule(planID, p, c, start, s.now().Add(-time.Second))
}

// Reschedule rebuilds the future jobs of an already scheduled plan from an
// edited copy p, keeping the original contact and start. Jobs due at or
// before now are not sent again. It returns 0 for an unknown plan.
func (s *Scheduler) Reschedule(planID string, p *plan.StudyPlan) int {
	s.mu.Lock()
	t, ok := s.targets[planID]
	s.mu.Unlock()
	if !ok {
		return 0
	}
	return s.schedule(planID, p, t.contact, t.start, s.now())
}

// schedule keeps the jobs due after cutoff.
func (s *Scheduler) schedule(planID string, p *plan.StudyPlan, c Contact, start, cutoff time.Time) int {
	var kept []Job
	for _, j := range Build(planID, p, c, start, s.cfg.Timing) {
		if !j.At.After(cutoff) {
			continue
		}
		if (j.Kind.Email() && s.mailer == nil) || (!j.Kind.Email() && s.sender == nil) {
			continue
		}
		kept = append(kept, j)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets[planID] = target{contact: c, start: start}
	delete(s.pending, planID)
	if len(kept) > 0 {
		s.pending[planID] = kept
	}
	s.log.Info("reminders scheduled", "plan_id", planID, "jobs", len(kept))
	return len(kept)
}

// Cancel drops all pending jobs for planID and returns how many there were.
func (s *Scheduler) Cancel(planID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.pending[planID])
	delete(s.pending, planID)
	delete(s.targets, planID)
	return n
}

// Pending returns a copy of the jobs still waiting for planID.
func (s *Scheduler) Pending(planID string) []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.pending[planID])
}

// PendingCount returns the number of waiting jobs across all plans.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, jobs := range s.pending {
		n += len(jobs)
	}
	return n
}

// takeDue removes and returns every job due at or before now, in time order.
// Plans left with no jobs are forgotten.
func (s *Scheduler) takeDue(now time.Time) []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []Job
	for id, jobs := range s.pending {
		i := 0
		for i < len(jobs) && !jobs[i].At.After(now) {
			i++
		}
		due = append(due, jobs[:i]...)
		if i == len(jobs) {
			delete(s.pending, id)
		} else {
			s.pending[id] = jobs[i:]
		}
	}
	sortJobs(due)
	return due
}

// RunDue delivers every job due at now synchronously and returns how many
// were attempted. Delivery failures are logged.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) int {
	due := s.takeDue(now)
	for _, j := range due {
		s.deliverLogged(ctx, j)
	}
	return len(due)
}

func (s *Scheduler) deliverLogged(ctx context.Context, j Job) {
	log := s.log.With("plan_id", j.PlanID, "kind", string(j.Kind))
	if err := s.deliver(ctx, j); err != nil {
		log.Error("reminder delivery failed", "error", err)
		return
	}
	log.Debug("reminder delivered")
}

func (s *Scheduler) deliver(ctx context.Context, j Job) error {
	switch j.Kind {
	case KindTopicEmail, KindPlanEmail:
		return s.mailer.Mail(ctx, notify.Message{
			To:          []string{j.To},
			Subject:     j.Subject,
			Body:        j.Body,
			Attachments: j.Attachments,
		})
	case KindPlanText:
		return notify.SendChunked(ctx, s.sender, j.To, j.Body, s.cfg.MaxLen, s.cfg.MessageDelay)
	case KindTopicWhatsApp, KindBreak, KindDayComplete:
		return s.sender.Send(ctx, j.To, j.Body)
	default:
		return fmt.Errorf("unknown reminder kind %q", j.Kind)
	}
}

// Start launches delivery workers and the tick loop that hands them due jobs.
func (s *Scheduler) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for range s.cfg.Workers {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-runCtx.Done():
					return
				case j := <-s.queue:
					s.deliverLogged(runCtx, j)
				}
			}
		}()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.Tick)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				for _, j := range s.takeDue(s.now()) {
					select {
					case s.queue <- j:
					case <-runCtx.Done():
						return
					}
				}
			}
		}
	}()
}

// Stop halts the loops and waits for in-flight deliveries to return.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func sortJobs(jobs []Job) {
	slices.SortStableFunc(jobs, func(a, b Job) int {
		return a.At.Compare(b.At)
	})
}
