// Package guard decides, per navigation attempt, whether the current
// session may view a destination. Decisions are pure functions of
// (session state, route); recording metrics and issuing redirects is the
// caller's job.
package guard

import (
	"strings"

	"github.com/yourorg/projectflow/internal/domain"
	"github.com/yourorg/projectflow/internal/session"
)

// DecisionKind is the single outcome of a guard evaluation.
type DecisionKind int

const (
	// Wait: session restore still in flight, render a neutral waiting state.
	Wait DecisionKind = iota
	// RedirectLogin: no valid session; go to the login entry point.
	RedirectLogin
	// RedirectDefault: authenticated but wrong role; go to the role's landing page.
	RedirectDefault
	// Allow: render the destination.
	Allow
)

func (k DecisionKind) String() string {
	switch k {
	case Wait:
		return "wait"
	case RedirectLogin:
		return "redirect_login"
	case RedirectDefault:
		return "redirect_default"
	default:
		return "allow"
	}
}

// Decision carries the outcome plus the redirect target and the originally
// attempted path, so login can return the user where they were headed.
type Decision struct {
	Kind          DecisionKind
	RedirectTo    string
	AttemptedPath string
}

// Route describes one destination on the navigation surface. A nil
// AllowedRoles on a non-public route means any authenticated role.
type Route struct {
	Name         string
	Path         string
	Public       bool
	AllowedRoles []domain.Role
}

// Navigation surface routes. /projects/{id} is matched by prefix after the
// more specific /projects/new and /projects/approval.
const (
	PathTracker   = "/"
	PathTrack     = "/track"
	PathLogin     = "/login"
	PathDenied    = "/unauthorized"
	PathDashboard = "/dashboard"
	PathNewProj   = "/projects/new"
	PathApproval  = "/projects/approval"
	PathAllProj   = "/all-projects"
	PathManageDev = "/manage-developers"
	PathProjects  = "/projects/"
)

var routes = []Route{
	{Name: "tracker", Path: PathTracker, Public: true},
	{Name: "tracker", Path: PathTrack, Public: true},
	{Name: "login", Path: PathLogin, Public: true},
	{Name: "unauthorized", Path: PathDenied, Public: true},
	{Name: "dashboard", Path: PathDashboard},
	{Name: "new-project", Path: PathNewProj, AllowedRoles: []domain.Role{domain.RoleSales}},
	{Name: "approval-queue", Path: PathApproval, AllowedRoles: []domain.Role{domain.RoleCTO}},
	{Name: "all-projects", Path: PathAllProj, AllowedRoles: []domain.Role{domain.RoleCTO}},
	{Name: "manage-developers", Path: PathManageDev, AllowedRoles: []domain.Role{domain.RoleCTO}},
}

// Match resolves a request path to a route. The second return is false for
// unmatched paths, which render the not-found view.
func Match(path string) (Route, bool) {
	for _, r := range routes {
		if r.Path == path {
			return r, true
		}
	}
	// Project detail: /projects/<id>, any authenticated role.
	if strings.HasPrefix(path, PathProjects) && path != PathProjects {
		return Route{Name: "project-detail", Path: path}, true
	}
	// Developer management subpaths, e.g. /manage-developers/<id>/password,
	// carry the same CTO restriction as the listing.
	if strings.HasPrefix(path, PathManageDev+"/") {
		return Route{Name: "manage-developers", Path: path, AllowedRoles: []domain.Role{domain.RoleCTO}}, true
	}
	return Route{}, false
}

// DefaultLanding is the role-appropriate landing page used when a role is
// denied a destination: the CTO lands on the all-projects view, everyone
// else on the general dashboard.
func DefaultLanding(role domain.Role) string {
	if role == domain.RoleCTO {
		return PathAllProj
	}
	return PathDashboard
}

// Decide evaluates one navigation attempt. It re-runs on every navigation,
// not just once, because session state and destination vary independently.
// Exactly one outcome is produced per call.
func Decide(state session.AuthState, route Route) Decision {
	if route.Public {
		return Decision{Kind: Allow}
	}
	if state.Loading {
		return Decision{Kind: Wait, AttemptedPath: route.Path}
	}
	if !state.Authenticated || state.User == nil {
		return Decision{Kind: RedirectLogin, RedirectTo: PathLogin, AttemptedPath: route.Path}
	}
	if len(route.AllowedRoles) == 0 {
		return Decision{Kind: Allow}
	}
	for _, r := range route.AllowedRoles {
		if state.User.Role == r {
			return Decision{Kind: Allow}
		}
	}
	return Decision{
		Kind:          RedirectDefault,
		RedirectTo:    DefaultLanding(state.User.Role),
		AttemptedPath: route.Path,
	}
}
