package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/projectflow/internal/domain"
)

type fakeUserBackend struct {
	users     map[string]domain.User
	listCalls int
}

func (f *fakeUserBackend) CreateUser(_ context.Context, name, email, _ string, role domain.Role) (*domain.User, error) {
	u := domain.User{ID: "u-" + email, Name: name, Email: email, Role: role}
	f.users[u.ID] = u
	return &u, nil
}

func (f *fakeUserBackend) Users(context.Context) ([]domain.User, error) {
	f.listCalls++
	out := make([]domain.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUserBackend) UserByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := f.users[id]; ok {
		return &u, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserBackend) UpdateUserPassword(_ context.Context, id, _ string) (*domain.User, error) {
	if u, ok := f.users[id]; ok {
		return &u, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserBackend) DeleteUser(_ context.Context, id string) error {
	delete(f.users, id)
	return nil
}

func newDirectory() (*UserDirectory, *fakeUserBackend) {
	backend := &fakeUserBackend{users: map[string]domain.User{
		"cto-1": {ID: "cto-1", Name: "Casey", Email: "casey@example.com", Role: domain.RoleCTO},
		"dev-1": {ID: "dev-1", Name: "Dana", Email: "dana@example.com", Role: domain.RoleDeveloper},
	}}
	return NewUserDirectory(backend, nil), backend
}

func TestDevelopersFiltersByRole(t *testing.T) {
	dir, _ := newDirectory()

	devs, err := dir.Developers(context.Background())
	require.NoError(t, err)
	require.Len(t, devs, 1)
	assert.Equal(t, "dev-1", devs[0].ID)
}

func TestDevelopersRosterIsCached(t *testing.T) {
	dir, backend := newDirectory()

	_, err := dir.Developers(context.Background())
	require.NoError(t, err)
	_, err = dir.Developers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, backend.listCalls, "second listing is served from cache")

	_, err = dir.CreateDeveloper(context.Background(), "Nico", "nico@example.com", "pw")
	require.NoError(t, err)

	devs, err := dir.Developers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, backend.listCalls, "mutation invalidates the roster")
	assert.Len(t, devs, 2)
}

func TestDeveloperByIDRejectsOtherRoles(t *testing.T) {
	dir, _ := newDirectory()

	dev, err := dir.DeveloperByID(context.Background(), "dev-1")
	require.NoError(t, err)
	assert.Equal(t, "Dana", dev.Name)

	_, err = dir.DeveloperByID(context.Background(), "cto-1")
	assert.ErrorIs(t, err, domain.ErrNotFound, "a CTO is not a developer")

	_, err = dir.DeveloperByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateDeveloperValidates(t *testing.T) {
	dir, backend := newDirectory()

	_, err := dir.CreateDeveloper(context.Background(), "", "new@example.com", "pw")
	assert.ErrorIs(t, err, domain.ErrEmptyField)

	created, err := dir.CreateDeveloper(context.Background(), "Nico", "nico@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDeveloper, created.Role, "role is always developer")
	assert.Contains(t, backend.users, created.ID)
}

func TestDeleteDeveloper(t *testing.T) {
	dir, backend := newDirectory()

	require.NoError(t, dir.DeleteDeveloper(context.Background(), "dev-1"))
	assert.NotContains(t, backend.users, "dev-1")
}
