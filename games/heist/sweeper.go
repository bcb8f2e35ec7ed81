package heist

import (
	"fmt"
	"time"

	"heist-bot/utils"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// SessionSweeper periodically drops sessions nobody touched for maxAge
type SessionSweeper struct {
	sessions *SessionManager
	maxAge   time.Duration
	metrics  *utils.HeistMetrics
	cron     *cron.Cron
	now      func() time.Time
}

func NewSessionSweeper(sessions *SessionManager, maxAge time.Duration, metrics *utils.HeistMetrics) *SessionSweeper {
	return &SessionSweeper{
		sessions: sessions,
		maxAge:   maxAge,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Start schedules the sweep on a six-field cron expression (with seconds).
func (w *SessionSweeper) Start(schedule string) error {
	w.cron = cron.New(cron.WithSeconds())
	if _, err := w.cron.AddFunc(schedule, func() { w.RunOnce() }); err != nil {
		return fmt.Errorf("failed to schedule session sweep %q: %w", schedule, err)
	}
	w.cron.Start()
	log.Info().Str("schedule", schedule).Dur("max_age", w.maxAge).Msg("session sweeper started")
	return nil
}

// RunOnce sweeps immediately and returns how many sessions were dropped
func (w *SessionSweeper) RunOnce() int {
	removed := w.sessions.Sweep(w.now(), w.maxAge)
	w.metrics.RecordSwept(removed)
	w.metrics.SetActiveSessions(w.sessions.Count())
	if removed > 0 {
		log.Debug().Int("removed", removed).Int("active", w.sessions.Count()).Msg("swept idle sessions")
	}
	return removed
}

// Stop waits for a running sweep to finish
func (w *SessionSweeper) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
}
