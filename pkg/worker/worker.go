// Package worker runs the retention policy: cancelled meetings older than
// the configured grace period are removed from the store on a fixed
// interval, independent of request handling.
package worker

import (
	"context"
	"time"

	"github.com/pershin-daniil/MeetingPlanner/pkg/metrics"
	"github.com/sirupsen/logrus"
)

type Store interface {
	PurgeCancelled(ctx context.Context, olderThan time.Time) (int64, error)
}

type Worker struct {
	log       *logrus.Entry
	store     Store
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

func New(log *logrus.Logger, store Store, interval, retention time.Duration) *Worker {
	return &Worker{
		log:       log.WithField("component", "worker"),
		store:     store,
		interval:  interval,
		retention: retention,
		now:       time.Now,
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		w.purge(ctx)
	}
}

func (w *Worker) purge(ctx context.Context) {
	cutoff := w.now().Add(-w.retention)
	purged, err := w.store.PurgeCancelled(ctx, cutoff)
	if err != nil {
		w.log.Errorf("err purging cancelled meetings: %v", err)
		return
	}
	if purged > 0 {
		metrics.PurgedMeetings.Add(float64(purged))
		w.log.Infof("purged %d cancelled meetings older than %s", purged, cutoff)
	}
}
