package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yourorg/projectflow/internal/domain"
	"github.com/yourorg/projectflow/internal/lifecycle"
)

type staticCache struct {
	projects []domain.Project
}

func (s *staticCache) FetchAll(context.Context) error { return nil }
func (s *staticCache) Projects() []domain.Project     { return s.projects }

func timePtr(t time.Time) *time.Time { return &t }

func TestScanAlerts(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	cache := &staticCache{projects: []domain.Project{
		{ID: "overdue", Status: domain.StatusDevelopment, Deadline: timePtr(now.Add(-day))},
		{ID: "on-track", Status: domain.StatusDevelopment, Deadline: timePtr(now.Add(10 * day))},
		{ID: "renewal-soon", Status: domain.StatusCredentials, RenewalDate: timePtr(now.Add(14 * day))},
		{ID: "renewal-far", Status: domain.StatusCredentials, RenewalDate: timePtr(now.Add(16 * day))},
		{ID: "done-overdue", Status: domain.StatusCompleted, Deadline: timePtr(now.Add(-day))},
	}}

	w := NewRefreshWorker(cache, nil, time.Minute, lifecycle.DefaultRenewalWindow)
	w.now = func() time.Time { return now }

	overdue, dueSoon := w.ScanAlerts()

	assert.Equal(t, 1, overdue, "completed projects do not alert")
	assert.Equal(t, 1, dueSoon)
}
