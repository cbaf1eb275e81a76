package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/projectflow/internal/domain"
	"github.com/yourorg/projectflow/internal/lifecycle"
	"github.com/yourorg/projectflow/internal/observability/metrics"
)

// ProjectCache is the slice of the repository the worker drives.
type ProjectCache interface {
	FetchAll(ctx context.Context) error
	Projects() []domain.Project
}

// RefreshWorker periodically refetches the project list for the gateway and
// scans it for derived alerts: deadlines that have passed and renewals
// inside the warning window. All data is pull-driven; this loop is the only
// thing approximating freshness for the tracker.
type RefreshWorker struct {
	cache         ProjectCache
	logger        *slog.Logger
	interval      time.Duration
	renewalWindow time.Duration
	now           func() time.Time
}

// NewRefreshWorker creates a refresh worker.
func NewRefreshWorker(cache ProjectCache, logger *slog.Logger, interval, renewalWindow time.Duration) *RefreshWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if renewalWindow == 0 {
		renewalWindow = lifecycle.DefaultRenewalWindow
	}
	return &RefreshWorker{
		cache:         cache,
		logger:        logger,
		interval:      interval,
		renewalWindow: renewalWindow,
		now:           time.Now,
	}
}

// Start begins the refresh loop. It runs an immediate cycle, then ticks
// until ctx is cancelled.
func (w *RefreshWorker) Start(ctx context.Context) {
	w.logger.Info("refresh worker started",
		slog.Duration("interval", w.interval),
		slog.Duration("renewal_window", w.renewalWindow),
	)

	w.runCycle(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("refresh worker stopped")
			return
		case <-ticker.C:
			w.runCycle(ctx)
		}
	}
}

func (w *RefreshWorker) runCycle(ctx context.Context) {
	if err := w.cache.FetchAll(ctx); err != nil {
		// Stale cache keeps serving; the next tick retries.
		w.logger.Warn("project refresh failed", slog.String("error", err.Error()))
		return
	}
	w.ScanAlerts()
}

// ScanAlerts walks the cached projects and records deadline/renewal alerts.
// Completed projects are past alerting.
func (w *RefreshWorker) ScanAlerts() (overdue, dueSoon int) {
	now := w.now()

	for _, p := range w.cache.Projects() {
		if p.Status == domain.StatusCompleted {
			continue
		}
		if lifecycle.IsDeadlinePassed(&p, now) {
			overdue++
			w.logger.Warn("project deadline passed",
				slog.String("project_id", p.ID),
				slog.String("reference_id", p.ReferenceID),
				slog.Time("deadline", *p.Deadline),
			)
		}
		if lifecycle.IsRenewalDueSoon(&p, now, w.renewalWindow) {
			dueSoon++
			w.logger.Info("project renewal due soon",
				slog.String("project_id", p.ID),
				slog.String("reference_id", p.ReferenceID),
				slog.Time("renewal_date", *p.RenewalDate),
			)
		}
	}

	metrics.SetAlertCounts(overdue, dueSoon)
	return overdue, dueSoon
}
