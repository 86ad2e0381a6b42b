package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/studyplan/internal/api"
	"github.com/dgallion1/studyplan/internal/config"
	"github.com/dgallion1/studyplan/internal/notify"
	"github.com/dgallion1/studyplan/internal/plan"
	"github.com/dgallion1/studyplan/internal/planstore"
	"github.com/dgallion1/studyplan/internal/reminder"
	"github.com/dgallion1/studyplan/internal/segment"
	"github.com/dgallion1/studyplan/internal/weight"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := config.LoadDotEnv(); err != nil {
		log.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		log.Error("invalid rules file", "path", cfg.RulesFile, "error", err)
		os.Exit(1)
	}
	seg, err := segment.New(rules.Segment)
	if err != nil {
		log.Error("invalid segmentation rules", "error", err)
		os.Exit(1)
	}
	strategy, err := weight.ForName(cfg.WeightStrategy, rules.Keywords)
	if err != nil {
		log.Error("invalid weight strategy", "error", err)
		os.Exit(1)
	}
	gen := plan.NewGenerator(seg, strategy)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Outbound channels are optional; a nil transport drops that kind of reminder.
	var sender notify.Sender
	if cfg.WhatsAppEnabled() {
		twilio := notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppNumber, log)
		defer twilio.Close()
		sender = twilio
	}
	var mailer notify.Mailer
	if cfg.EmailEnabled() {
		mailer = notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	}

	sched := reminder.New(reminder.Config{
		Timing:       reminder.Timing{Hour: cfg.ReminderHour, Lead: cfg.ReminderLead},
		Tick:         cfg.ReminderTick,
		Workers:      cfg.ReminderWorker,
		MaxLen:       cfg.MessageMaxLen,
		MessageDelay: cfg.MessageDelay,
	}, sender, mailer, log)
	sched.Start(ctx)

	// Plans stay downloadable while any of their reminders are still due.
	plans := planstore.New(cfg.PlanTTL, planstore.WithRetain(func(id string) bool {
		return len(sched.Pending(id)) > 0
	}))
	go plans.Run(ctx, time.Minute, func(id string) {
		n := sched.Cancel(id)
		log.Info("plan expired", "plan_id", id, "reminders_cancelled", n)
	})

	srv := api.NewServer(gen, plans, sched, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		sched.Stop()
		cancel()
	}()

	log.Info("starting study planner",
		"port", cfg.Port,
		"weight_strategy", cfg.WeightStrategy,
		"whatsapp", cfg.WhatsAppEnabled(),
		"email", cfg.EmailEnabled(),
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
