// Package worker reminds the channel shortly before a meeting starts.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/pershin-daniil/CalBridge/pkg/metrics"
	"github.com/pershin-daniil/CalBridge/pkg/models"
	"github.com/sirupsen/logrus"
)

type Store interface {
	List() []models.Meeting
}

type Notifier interface {
	Notify(ctx context.Context, message string) error
}

type Worker struct {
	log      *logrus.Entry
	store    Store
	notifier Notifier
	interval time.Duration
	window   time.Duration
	reminded map[string]bool
}

func New(log *logrus.Logger, store Store, notifier Notifier, interval, window time.Duration) *Worker {
	if interval <= 0 {
		interval = time.Minute
	}
	if window <= 0 {
		window = 10 * time.Minute
	}
	return &Worker{
		log:      log.WithField("component", "worker"),
		store:    store,
		notifier: notifier,
		interval: interval,
		window:   window,
		reminded: make(map[string]bool),
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.log.Infof("reminder worker started, window %v", w.window)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.remind(ctx, time.Now())
		}
	}
}

// remind sends at most one reminder per meeting once its start falls inside
// the window.
func (w *Worker) remind(ctx context.Context, now time.Time) {
	for _, m := range w.store.List() {
		if m.Status == models.MeetingCancelled || w.reminded[m.ID] {
			continue
		}
		until := m.StartTime.Sub(now)
		if until <= 0 || until > w.window {
			continue
		}
		msg := fmt.Sprintf("Reminder: %q starts at %s", m.Title, m.StartTime.Format("15:04"))
		if err := w.notifier.Notify(ctx, msg); err != nil {
			w.log.Errorf("err sending reminder for meeting %s: %v", m.ID, err)
			continue
		}
		w.reminded[m.ID] = true
		metrics.RemindersSent.Inc()
	}
}
