package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/monocle-dev/taskboard/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Broadcaster is told when a sweep changed tasks across projects.
type Broadcaster interface {
	NotifyAll()
}

type nopBroadcaster struct{}

func (nopBroadcaster) NotifyAll() {}

// Sweeper periodically marks past-due unfinished tasks as OVERDUE.
type Sweeper struct {
	db          *gorm.DB
	log         *zap.SugaredLogger
	broadcaster Broadcaster
	interval    time.Duration
	now         func() time.Time

	mu        sync.RWMutex
	cancel    context.CancelFunc
	done      chan struct{}
	lastRun   time.Time
	lastCount int64
	lastErr   error
}

func NewSweeper(db *gorm.DB, log *zap.SugaredLogger, broadcaster Broadcaster, interval time.Duration) *Sweeper {
	if broadcaster == nil {
		broadcaster = nopBroadcaster{}
	}
	return &Sweeper{
		db:          db,
		log:         log,
		broadcaster: broadcaster,
		interval:    interval,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Start runs one sweep right away and then one per interval until Stop is
// called or ctx is cancelled. Calling Start on a running sweeper is a no-op.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	s.log.Infow("starting overdue sweeper", "interval", s.interval.String())

	go func() {
		defer close(done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.run(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.run(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
	s.log.Info("overdue sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	rows, err := s.Sweep(ctx)

	s.mu.Lock()
	s.lastRun, s.lastCount, s.lastErr = s.now(), rows, err
	s.mu.Unlock()

	if err != nil {
		if ctx.Err() == nil {
			s.log.Errorw("overdue sweep failed", "error", err)
		}
		return
	}

	s.log.Infow("overdue sweep finished", "tasks_marked", rows)
	if rows > 0 {
		s.broadcaster.NotifyAll()
	}
}

// Sweep marks every task whose due date has passed and which is neither
// COMPLETED nor already OVERDUE. It bypasses the transition rules and writes
// no activity. Running it twice in a row changes nothing the second time.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	now := s.now()

	res := s.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("due_date < ?", now).
		Where("status NOT IN ?", []models.TaskStatus{models.StatusCompleted, models.StatusOverdue}).
		Updates(map[string]interface{}{
			"status":     models.StatusOverdue,
			"updated_at": now,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("marking overdue tasks: %w", res.Error)
	}

	return res.RowsAffected, nil
}

// Status reports the sweeper state for the health endpoint.
func (s *Sweeper) Status() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := map[string]interface{}{
		"running":  s.cancel != nil,
		"interval": s.interval.String(),
	}
	if !s.lastRun.IsZero() {
		status["last_run"] = s.lastRun
		status["last_marked"] = s.lastCount
	}
	if s.lastErr != nil {
		status["last_error"] = s.lastErr.Error()
	}
	return status
}
