package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"pennywise/internal/amqp"
	"pennywise/internal/config"
	"pennywise/internal/core"
	"pennywise/internal/jobs"
	"pennywise/internal/log"
	"pennywise/internal/notify"
	"pennywise/internal/services"
	"pennywise/internal/storage"
)

// jobRun is one pending execution of a scheduled job.
type jobRun struct {
	name string
	fn   func(now time.Time)
}

func main() {
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentJobs)
	log.SetDefault(logger)

	logger.Info("Starting jobs-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var publisher notify.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, notifications will be log-only", log.FieldError, err)
			publisher = notify.NewLogPublisher(logger)
		} else {
			defer client.Close()
			publisher = client
		}
	} else {
		publisher = notify.NewLogPublisher(logger)
	}

	processor := services.NewAllowanceProcessor(repo, publisher, logger)
	runner := jobs.NewRunner(repo, publisher, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	runs := make(chan jobRun)

	// Each schedule has one ticker goroutine feeding the shared run
	// channel; JobConcurrency workers drain it. A job never overlaps
	// itself because its next tick cannot fire mid-handoff faster than
	// the interval.
	schedule := func(name string, interval time.Duration, fn func(now time.Time)) {
		g.Go(func() error {
			logger.Info("Job scheduled", "job", name, "interval", interval)
			run := jobRun{name: name, fn: fn}

			// Initial run on startup.
			select {
			case runs <- run:
			case <-ctx.Done():
				return ctx.Err()
			}

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					logger.Info("Job stopped", "job", name)
					return ctx.Err()
				case <-ticker.C:
					select {
					case runs <- run:
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			}
		})
	}

	for i := 0; i < cfg.JobConcurrency; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case r := <-runs:
					r.fn(time.Now())
				}
			}
		})
	}

	schedule("recurring allowances", cfg.AllowanceInterval, func(now time.Time) {
		processed, failed, err := processor.ProcessDueAllowances(ctx, core.DateOf(now))
		if err != nil {
			logger.Error("Allowance processing failed", log.FieldError, err)
			return
		}
		logger.Info("Allowance processing complete",
			log.FieldProcessed, processed, log.FieldFailed, failed)
	})

	schedule("daily spending reminders", cfg.DailyReminderInterval, func(now time.Time) {
		sent, failed, err := runner.DailySpendingReminder(ctx, core.DateOf(now))
		if err != nil {
			logger.Error("Daily reminder run failed", log.FieldError, err)
			return
		}
		logger.Info("Daily reminders sent", log.FieldSent, sent, log.FieldFailed, failed)
	})

	schedule("weekly summaries", cfg.WeeklyReportInterval, func(now time.Time) {
		today := core.DateOf(now)
		childSent, childFailed, err := runner.WeeklyChildSummaries(ctx, today)
		if err != nil {
			logger.Error("Weekly child summaries failed", log.FieldError, err)
		} else {
			logger.Info("Weekly child summaries sent",
				log.FieldSent, childSent, log.FieldFailed, childFailed)
		}
		parentSent, parentFailed, err := runner.WeeklyParentSummaries(ctx, today)
		if err != nil {
			logger.Error("Weekly parent summaries failed", log.FieldError, err)
			return
		}
		logger.Info("Weekly parent summaries sent",
			log.FieldSent, parentSent, log.FieldFailed, parentFailed)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Jobs-worker shutdown complete")
}
