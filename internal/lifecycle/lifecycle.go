// Package lifecycle holds the pure decision functions of the project
// lifecycle: status labels, transition permissions, derived deadline and
// renewal alerts, and the public projection used by the tracker. Nothing in
// this package performs I/O or mutates shared state.
package lifecycle

import (
	"time"

	"github.com/yourorg/projectflow/internal/domain"
)

// DefaultRenewalWindow is how far ahead a renewal date is flagged as due soon.
const DefaultRenewalWindow = 15 * 24 * time.Hour

// statusLabels must stay total over domain.AllStatuses; the tests enforce it.
var statusLabels = map[domain.Status]string{
	domain.StatusRequirements: "Waiting for Requirements",
	domain.StatusDevelopment:  "Development In Progress",
	domain.StatusPayment:      "Waiting for Payment Gateway",
	domain.StatusCredentials:  "Waiting for Credentials",
	domain.StatusCompleted:    "Completed",
}

// Label returns the display label for a status. An unmapped status is a
// programming defect, so the raw value is returned rather than guessed at.
func Label(s domain.Status) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// IsDeadlinePassed reports whether the project has a deadline strictly in
// the past relative to now.
func IsDeadlinePassed(p *domain.Project, now time.Time) bool {
	return p.Deadline != nil && p.Deadline.Before(now)
}

// IsRenewalDueSoon reports whether the project has a renewal date less than
// window away from now. Pass DefaultRenewalWindow for the standard 15 days.
// A renewal date already in the past also counts as due.
func IsRenewalDueSoon(p *domain.Project, now time.Time, window time.Duration) bool {
	return p.RenewalDate != nil && p.RenewalDate.Sub(now) < window
}

// CanTransition reports whether role may move a project between the two
// statuses. There is deliberately no ordering constraint: the CTO and the
// assigned developer may set any status, matching the backend's behavior.
// assigned is whether the acting user is the developer assigned to the
// project.
func CanTransition(from, to domain.Status, role domain.Role, assigned bool) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	switch role {
	case domain.RoleCTO:
		return true
	case domain.RoleDeveloper:
		return assigned
	default:
		return false
	}
}

// PublicProject is the subset of a project exposed to unauthenticated
// tracker lookups. No other field leaves the authenticated surface.
type PublicProject struct {
	ReferenceID string               `json:"referenceId"`
	ClientName  string               `json:"clientName"`
	Status      domain.Status        `json:"status"`
	StatusLabel string               `json:"statusLabel"`
	Description string               `json:"description"`
	Deadline    *time.Time           `json:"deadline"`
	Notes       []domain.ProjectNote `json:"notes"`
}

// PublicView projects p onto its public tracker representation, keeping
// exactly the notes flagged public.
func PublicView(p *domain.Project) PublicProject {
	notes := make([]domain.ProjectNote, 0, len(p.Notes))
	for _, n := range p.Notes {
		if n.IsPublic {
			notes = append(notes, n)
		}
	}
	return PublicProject{
		ReferenceID: p.ReferenceID,
		ClientName:  p.ClientName,
		Status:      p.Status,
		StatusLabel: Label(p.Status),
		Description: p.Description,
		Deadline:    p.Deadline,
		Notes:       notes,
	}
}

// CountByStatus tallies projects per lifecycle status for the dashboards.
// Every known status appears in the result, zero included.
func CountByStatus(projects []domain.Project) map[domain.Status]int {
	counts := make(map[domain.Status]int, len(domain.AllStatuses))
	for _, s := range domain.AllStatuses {
		counts[s] = 0
	}
	for i := range projects {
		counts[projects[i].Status]++
	}
	return counts
}

// Unapproved filters to the CTO approval queue.
func Unapproved(projects []domain.Project) []domain.Project {
	out := make([]domain.Project, 0)
	for _, p := range projects {
		if !p.Approved {
			out = append(out, p)
		}
	}
	return out
}

// AssignedTo filters to projects assigned to the given developer.
func AssignedTo(projects []domain.Project, developerID string) []domain.Project {
	out := make([]domain.Project, 0)
	for _, p := range projects {
		if p.AssignedToID() == developerID {
			out = append(out, p)
		}
	}
	return out
}

// CreatedBy filters to projects created by the given sales user.
func CreatedBy(projects []domain.Project, userID string) []domain.Project {
	out := make([]domain.Project, 0)
	for _, p := range projects {
		if p.CreatedBy == userID {
			out = append(out, p)
		}
	}
	return out
}

// CompletedCountFor counts completed projects assigned to a developer,
// the number shown on the developer dashboard.
func CompletedCountFor(projects []domain.Project, developerID string) int {
	n := 0
	for _, p := range projects {
		if p.AssignedToID() == developerID && p.Status == domain.StatusCompleted {
			n++
		}
	}
	return n
}
