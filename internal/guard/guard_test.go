package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/projectflow/internal/domain"
	"github.com/yourorg/projectflow/internal/session"
)

func authed(role domain.Role) session.AuthState {
	return session.AuthState{
		User:          &domain.User{ID: "u1", Role: role},
		Token:         "tok",
		Authenticated: true,
	}
}

func mustMatch(t *testing.T, path string) Route {
	t.Helper()
	route, ok := Match(path)
	require.True(t, ok, "path %q should match a route", path)
	return route
}

func TestMatch(t *testing.T) {
	assert.Equal(t, "tracker", mustMatch(t, "/").Name)
	assert.Equal(t, "tracker", mustMatch(t, "/track").Name)
	assert.Equal(t, "new-project", mustMatch(t, "/projects/new").Name)
	assert.Equal(t, "approval-queue", mustMatch(t, "/projects/approval").Name)
	assert.Equal(t, "project-detail", mustMatch(t, "/projects/abc123").Name)
	assert.Equal(t, "manage-developers", mustMatch(t, "/manage-developers/dev-42").Name)
	assert.Equal(t, "manage-developers", mustMatch(t, "/manage-developers/dev-42/password").Name)

	_, ok := Match("/no-such-page")
	assert.False(t, ok)
	_, ok = Match("/projects/")
	assert.False(t, ok)
}

// Every (session state, route) pair yields exactly one of the four outcomes;
// the table sweeps the full decision surface.
func TestDecideTotalOrdering(t *testing.T) {
	loading := session.AuthState{Loading: true}
	anonymous := session.AuthState{}

	cases := []struct {
		name     string
		state    session.AuthState
		path     string
		want     DecisionKind
		redirect string
	}{
		{"public while loading", loading, "/", Allow, ""},
		{"public while anonymous", anonymous, "/track", Allow, ""},
		{"protected while loading", loading, "/dashboard", Wait, ""},
		{"protected while anonymous", anonymous, "/dashboard", RedirectLogin, PathLogin},
		{"role-gated while anonymous", anonymous, "/all-projects", RedirectLogin, PathLogin},
		{"unrestricted for sales", authed(domain.RoleSales), "/dashboard", Allow, ""},
		{"detail for developer", authed(domain.RoleDeveloper), "/projects/p1", Allow, ""},
		{"sales route for sales", authed(domain.RoleSales), "/projects/new", Allow, ""},
		{"sales route for cto", authed(domain.RoleCTO), "/projects/new", RedirectDefault, PathAllProj},
		{"cto route for cto", authed(domain.RoleCTO), "/projects/approval", Allow, ""},
		{"cto route for sales", authed(domain.RoleSales), "/projects/approval", RedirectDefault, PathDashboard},
		{"cto route for developer", authed(domain.RoleDeveloper), "/manage-developers", RedirectDefault, PathDashboard},
		{"cto subpath for anonymous", anonymous, "/manage-developers/dev-42", RedirectLogin, PathLogin},
		{"cto subpath for sales", authed(domain.RoleSales), "/manage-developers/dev-42", RedirectDefault, PathDashboard},
		{"cto subpath for cto", authed(domain.RoleCTO), "/manage-developers/dev-42/password", Allow, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Decide(tc.state, mustMatch(t, tc.path))
			assert.Equal(t, tc.want, d.Kind)
			assert.Equal(t, tc.redirect, d.RedirectTo)
			if d.Kind == RedirectLogin || d.Kind == RedirectDefault {
				assert.Equal(t, tc.path, d.AttemptedPath, "attempted path must be remembered")
			}
		})
	}
}

func TestDecideReRunsFreshEachNavigation(t *testing.T) {
	route := mustMatch(t, "/dashboard")

	// Same destination, changing session: the decision follows the session.
	assert.Equal(t, Wait, Decide(session.AuthState{Loading: true}, route).Kind)
	assert.Equal(t, RedirectLogin, Decide(session.AuthState{}, route).Kind)
	assert.Equal(t, Allow, Decide(authed(domain.RoleDeveloper), route).Kind)
	assert.Equal(t, RedirectLogin, Decide(session.AuthState{}, route).Kind)
}

func TestDefaultLanding(t *testing.T) {
	assert.Equal(t, PathAllProj, DefaultLanding(domain.RoleCTO))
	assert.Equal(t, PathDashboard, DefaultLanding(domain.RoleSales))
	assert.Equal(t, PathDashboard, DefaultLanding(domain.RoleDeveloper))
}
