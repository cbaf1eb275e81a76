package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/projectflow/internal/domain"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestLabelIsTotal(t *testing.T) {
	for _, s := range domain.AllStatuses {
		_, ok := statusLabels[s]
		require.True(t, ok, "status %q has no display label", s)
		assert.NotEmpty(t, Label(s))
	}
	assert.Len(t, statusLabels, len(domain.AllStatuses), "label map has entries for unknown statuses")
}

func TestIsDeadlinePassed(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, IsDeadlinePassed(&domain.Project{}, now), "no deadline set")
	assert.True(t, IsDeadlinePassed(&domain.Project{Deadline: timePtr(now.Add(-time.Second))}, now))
	assert.False(t, IsDeadlinePassed(&domain.Project{Deadline: timePtr(now.Add(time.Hour))}, now))
	assert.False(t, IsDeadlinePassed(&domain.Project{Deadline: timePtr(now)}, now), "deadline exactly now is not passed")
}

func TestIsRenewalDueSoon(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	assert.False(t, IsRenewalDueSoon(&domain.Project{}, now, DefaultRenewalWindow), "no renewal date set")
	assert.True(t, IsRenewalDueSoon(&domain.Project{RenewalDate: timePtr(now.Add(14 * day))}, now, DefaultRenewalWindow))
	assert.False(t, IsRenewalDueSoon(&domain.Project{RenewalDate: timePtr(now.Add(16 * day))}, now, DefaultRenewalWindow))
	assert.True(t, IsRenewalDueSoon(&domain.Project{RenewalDate: timePtr(now.Add(-day))}, now, DefaultRenewalWindow), "overdue renewal is due")
}

func TestCanTransition(t *testing.T) {
	from := domain.StatusRequirements

	for _, to := range domain.AllStatuses {
		assert.True(t, CanTransition(from, to, domain.RoleCTO, false), "cto may set %q", to)
		assert.True(t, CanTransition(from, to, domain.RoleDeveloper, true), "assigned developer may set %q", to)
		assert.False(t, CanTransition(from, to, domain.RoleDeveloper, false), "unassigned developer may not set %q", to)
		assert.False(t, CanTransition(from, to, domain.RoleSales, false), "sales may not set %q", to)
	}

	// Backward moves are allowed on purpose.
	assert.True(t, CanTransition(domain.StatusCompleted, domain.StatusRequirements, domain.RoleCTO, false))

	assert.False(t, CanTransition(from, domain.Status("shipped"), domain.RoleCTO, false), "unknown target status")
	assert.False(t, CanTransition(domain.Status(""), from, domain.RoleCTO, false), "unknown source status")
}

func TestPublicViewFiltersPrivateNotes(t *testing.T) {
	p := &domain.Project{
		ReferenceID: "PF-1001",
		ClientName:  "Acme",
		Status:      domain.StatusDevelopment,
		Description: "storefront",
		Notes: []domain.ProjectNote{
			{Content: "visible to client", IsPublic: true},
			{Content: "internal only", IsPublic: false},
		},
		Credentials: []domain.Credential{{Name: "ftp", Value: "hunter2"}},
	}

	pub := PublicView(p)

	require.Len(t, pub.Notes, 1)
	assert.Equal(t, "visible to client", pub.Notes[0].Content)
	assert.Equal(t, "PF-1001", pub.ReferenceID)
	assert.Equal(t, Label(domain.StatusDevelopment), pub.StatusLabel)
}

func TestDashboardAggregation(t *testing.T) {
	dev := &domain.AssignedUser{ID: "dev-1", Name: "Dana"}
	projects := []domain.Project{
		{ID: "p1", Status: domain.StatusCompleted, AssignedTo: dev, Approved: true, CreatedBy: "sales-1"},
		{ID: "p2", Status: domain.StatusCompleted, AssignedTo: &domain.AssignedUser{ID: "dev-2"}, Approved: true},
		{ID: "p3", Status: domain.StatusDevelopment, AssignedTo: dev, Approved: true, CreatedBy: "sales-1"},
		{ID: "p4", Status: domain.StatusRequirements, Approved: false, CreatedBy: "sales-2"},
	}

	counts := CountByStatus(projects)
	assert.Equal(t, 2, counts[domain.StatusCompleted])
	assert.Equal(t, 1, counts[domain.StatusDevelopment])
	assert.Equal(t, 0, counts[domain.StatusPayment], "zero counts are present, not missing")

	assert.Equal(t, 1, CompletedCountFor(projects, "dev-1"))
	assert.Equal(t, 0, CompletedCountFor(projects, "dev-3"))

	queue := Unapproved(projects)
	require.Len(t, queue, 1)
	assert.Equal(t, "p4", queue[0].ID)

	assert.Len(t, AssignedTo(projects, "dev-1"), 2)
	assert.Len(t, CreatedBy(projects, "sales-1"), 2)
}
