package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/projectflow/internal/domain"
	"github.com/yourorg/projectflow/internal/lifecycle"
	"github.com/yourorg/projectflow/internal/repository"
	"github.com/yourorg/projectflow/internal/session"
)

// DashboardHandler renders the role-scoped dashboard: sales see the
// projects they created, developers the projects assigned to them plus
// their completed count, and the CTO a fleet-wide summary.
type DashboardHandler struct {
	sessions      *session.Store
	projects      *repository.ProjectRepository
	renewalWindow time.Duration
	logger        *slog.Logger
}

func NewDashboardHandler(sessions *session.Store, projects *repository.ProjectRepository, renewalWindow time.Duration, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		sessions:      sessions,
		projects:      projects,
		renewalWindow: renewalWindow,
		logger:        logger,
	}
}

type dashboardResponse struct {
	Role           domain.Role           `json:"role"`
	Projects       []projectSummary      `json:"projects"`
	StatusCounts   map[domain.Status]int `json:"statusCounts"`
	OverdueCount   int                   `json:"overdueCount"`
	RenewalsDue    int                   `json:"renewalsDueSoon"`
	CompletedCount *int                  `json:"completedCount,omitempty"`
	PendingCount   *int                  `json:"pendingApprovalCount,omitempty"`
}

type projectSummary struct {
	ID          string  `json:"id"`
	ClientName  string  `json:"clientName"`
	ReferenceID string  `json:"referenceId"`
	Status      string  `json:"status"`
	StatusLabel string  `json:"statusLabel"`
	Deadline    *string `json:"deadline,omitempty"`
	Overdue     bool    `json:"overdue"`
}

// ServeHTTP handles GET /dashboard requests.
func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state := h.sessions.Snapshot()
	if state.User == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	all := h.projects.Projects()
	now := time.Now()

	var scoped []domain.Project
	switch state.User.Role {
	case domain.RoleSales:
		scoped = lifecycle.CreatedBy(all, state.User.ID)
	case domain.RoleDeveloper:
		scoped = lifecycle.AssignedTo(all, state.User.ID)
	default:
		scoped = all
	}

	resp := dashboardResponse{
		Role:         state.User.Role,
		Projects:     summarize(scoped, now),
		StatusCounts: lifecycle.CountByStatus(scoped),
	}
	for i := range scoped {
		if lifecycle.IsDeadlinePassed(&scoped[i], now) {
			resp.OverdueCount++
		}
		if lifecycle.IsRenewalDueSoon(&scoped[i], now, h.renewalWindow) {
			resp.RenewalsDue++
		}
	}

	if state.User.Role == domain.RoleDeveloper {
		completed := lifecycle.CompletedCountFor(all, state.User.ID)
		resp.CompletedCount = &completed
	}
	if state.User.Role == domain.RoleCTO {
		pending := len(lifecycle.Unapproved(all))
		resp.PendingCount = &pending
	}

	writeJSON(w, http.StatusOK, resp)
}

func summarize(projects []domain.Project, now time.Time) []projectSummary {
	items := make([]projectSummary, 0, len(projects))
	for i := range projects {
		p := &projects[i]
		item := projectSummary{
			ID:          p.ID,
			ClientName:  p.ClientName,
			ReferenceID: p.ReferenceID,
			Status:      string(p.Status),
			StatusLabel: lifecycle.Label(p.Status),
			Overdue:     lifecycle.IsDeadlinePassed(p, now),
		}
		if p.Deadline != nil {
			d := p.Deadline.Format(time.RFC3339)
			item.Deadline = &d
		}
		items = append(items, item)
	}
	return items
}
