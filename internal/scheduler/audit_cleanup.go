// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/clipshelf/clipshelf/internal/tasks"
)

// AuditCleanupScheduler periodically enqueues audit retention cleanup.
type AuditCleanupScheduler struct {
	tasksClient   *tasks.Client
	cleaner       tasks.AuditEventCleaner
	schedule      string
	retentionDays int

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.Mutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewAuditCleanupScheduler creates a scheduler that fires on the given cron
// schedule. When a tasks client is provided the cleanup runs through the
// queue; otherwise it runs inline against the cleaner.
func NewAuditCleanupScheduler(tasksClient *tasks.Client, cleaner tasks.AuditEventCleaner, schedule string, retentionDays int) *AuditCleanupScheduler {
	return &AuditCleanupScheduler{
		tasksClient:   tasksClient,
		cleaner:       cleaner,
		schedule:      schedule,
		retentionDays: retentionDays,
		cron:          cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler.
func (s *AuditCleanupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.schedule == "" {
		log.Printf("Audit cleanup scheduler: no schedule configured, disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runCleanup()
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Audit cleanup scheduler: started with schedule %q, retention %d days",
		s.schedule, s.retentionDays)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job to finish.
func (s *AuditCleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	log.Printf("Audit cleanup scheduler: stopped")
}

func (s *AuditCleanupScheduler) runCleanup() {
	task := tasks.CleanupAuditEventsTask{RetentionDays: s.retentionDays}

	if s.tasksClient != nil {
		if _, err := s.tasksClient.Add(task).Save(); err != nil {
			log.Printf("Audit cleanup scheduler: failed to enqueue cleanup: %v", err)
		}
		return
	}

	if s.cleaner == nil {
		return
	}
	processor := tasks.CleanupAuditEventsProcessor(s.cleaner)
	if err := processor(context.Background(), task); err != nil {
		log.Printf("Audit cleanup scheduler: cleanup failed: %v", err)
	}
}
