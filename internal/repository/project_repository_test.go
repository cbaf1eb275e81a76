package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/projectflow/internal/domain"
)

var errBackendDown = errors.New("backend down")

// fakeBackend mimics the remote API over an in-memory project list.
type fakeBackend struct {
	projects []domain.Project
	fail     bool

	createCalls int
	listCalls   int
}

func (f *fakeBackend) find(id string) *domain.Project {
	for i := range f.projects {
		if f.projects[i].ID == id {
			return &f.projects[i]
		}
	}
	return nil
}

func (f *fakeBackend) Projects(context.Context) ([]domain.Project, error) {
	f.listCalls++
	if f.fail {
		return nil, errBackendDown
	}
	out := make([]domain.Project, len(f.projects))
	copy(out, f.projects)
	return out, nil
}

func (f *fakeBackend) CreateProject(_ context.Context, draft domain.ProjectDraft) (*domain.Project, error) {
	f.createCalls++
	if f.fail {
		return nil, errBackendDown
	}
	p := domain.Project{
		ID:           "p-new",
		ReferenceID:  "PF-9999",
		ClientName:   draft.ClientName,
		ClientEmail:  draft.ClientEmail,
		ClientPhone:  draft.ClientPhone,
		Description:  draft.Description,
		Requirements: draft.Requirements,
		Status:       draft.Status,
		CreatedBy:    draft.CreatedBy,
		CreatedAt:    time.Now().UTC(),
	}
	f.projects = append(f.projects, p)
	return &p, nil
}

func (f *fakeBackend) AssignUser(_ context.Context, id, devID string, deadline time.Time) (*domain.Project, error) {
	if f.fail {
		return nil, errBackendDown
	}
	p := f.find(id)
	if p == nil {
		return nil, domain.ErrNotFound
	}
	p.Approved = true
	p.AssignedTo = &domain.AssignedUser{ID: devID, Name: "Dev " + devID}
	p.Deadline = &deadline
	out := *p
	return &out, nil
}

func (f *fakeBackend) UpdateStatus(_ context.Context, id string, status domain.Status) (*domain.Project, error) {
	if f.fail {
		return nil, errBackendDown
	}
	p := f.find(id)
	if p == nil {
		return nil, domain.ErrNotFound
	}
	p.Status = status
	out := *p
	return &out, nil
}

func (f *fakeBackend) AddNote(_ context.Context, id string, note domain.ProjectNote) (*domain.Project, error) {
	if f.fail {
		return nil, errBackendDown
	}
	p := f.find(id)
	if p == nil {
		return nil, domain.ErrNotFound
	}
	note.ID = "srv-note"
	note.Provisional = false
	p.Notes = append(p.Notes, note)
	out := *p
	return &out, nil
}

func (f *fakeBackend) AddCredential(_ context.Context, id string, cred domain.Credential) (*domain.Project, error) {
	if f.fail {
		return nil, errBackendDown
	}
	p := f.find(id)
	if p == nil {
		return nil, domain.ErrNotFound
	}
	cred.ID = "srv-cred"
	p.Credentials = append(p.Credentials, cred)
	out := *p
	return &out, nil
}

func (f *fakeBackend) UpdateCompletionDate(_ context.Context, id string, date time.Time) (*domain.Project, error) {
	if f.fail {
		return nil, errBackendDown
	}
	p := f.find(id)
	if p == nil {
		return nil, domain.ErrNotFound
	}
	p.CompletionDate = &date
	out := *p
	return &out, nil
}

func (f *fakeBackend) UpdateRenewalDate(_ context.Context, id string, date time.Time) (*domain.Project, error) {
	if f.fail {
		return nil, errBackendDown
	}
	p := f.find(id)
	if p == nil {
		return nil, domain.ErrNotFound
	}
	p.RenewalDate = &date
	out := *p
	return &out, nil
}

func (f *fakeBackend) DeleteProject(_ context.Context, id string) error {
	if f.fail {
		return errBackendDown
	}
	kept := f.projects[:0]
	for _, p := range f.projects {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	f.projects = kept
	return nil
}

func (f *fakeBackend) ProjectsByUser(_ context.Context, userID string) ([]domain.Project, error) {
	if f.fail {
		return nil, errBackendDown
	}
	out := []domain.Project{}
	for _, p := range f.projects {
		if p.CreatedBy == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeBackend) NotesByProject(_ context.Context, id string) ([]domain.ProjectNote, error) {
	if f.fail {
		return nil, errBackendDown
	}
	p := f.find(id)
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p.Notes, nil
}

func seededRepo(t *testing.T) (*ProjectRepository, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{projects: []domain.Project{
		{ID: "p1", ReferenceID: "PF-1001", ClientName: "Acme", Status: domain.StatusRequirements, CreatedBy: "sales-1"},
		{ID: "p2", ReferenceID: "PF-1002", ClientName: "Globex", Status: domain.StatusDevelopment, Approved: true,
			AssignedTo: &domain.AssignedUser{ID: "dev-1", Name: "Dana"}, Deadline: timePtr(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))},
	}}
	repo := NewProjectRepository(backend, nil, nil, nil)
	require.NoError(t, repo.FetchAll(context.Background()))
	return repo, backend
}

// fakeLookup knows a fixed set of developer ids.
type fakeLookup struct {
	known map[string]bool
	calls int
}

func (f *fakeLookup) DeveloperByID(_ context.Context, id string) (*domain.User, error) {
	f.calls++
	if !f.known[id] {
		return nil, domain.ErrNotFound
	}
	return &domain.User{ID: id, Role: domain.RoleDeveloper}, nil
}

func timePtr(t time.Time) *time.Time { return &t }

func TestFetchAllReplacesCache(t *testing.T) {
	repo, backend := seededRepo(t)
	assert.Len(t, repo.Projects(), 2)
	assert.True(t, repo.Loaded())

	backend.projects = backend.projects[:1]
	require.NoError(t, repo.FetchAll(context.Background()))
	assert.Len(t, repo.Projects(), 1)
}

func TestFetchAllFailureLeavesCache(t *testing.T) {
	repo, backend := seededRepo(t)
	backend.fail = true

	err := repo.FetchAll(context.Background())

	require.Error(t, err)
	assert.Len(t, repo.Projects(), 2, "cache unchanged on remote failure")
}

func TestLookupsAreCacheOnly(t *testing.T) {
	repo, backend := seededRepo(t)
	listCallsBefore := backend.listCalls

	p, ok := repo.ByReferenceID("pf-1001")
	require.True(t, ok, "reference lookup is case-insensitive")
	assert.Equal(t, "p1", p.ID)

	_, ok = repo.ByID("does-not-exist")
	assert.False(t, ok, "miss is a legitimate empty result")

	assert.Equal(t, listCallsBefore, backend.listCalls, "lookups must not hit the backend")
}

func TestCreateValidatesAndRefreshes(t *testing.T) {
	repo, backend := seededRepo(t)

	_, err := repo.Create(context.Background(), domain.ProjectDraft{ClientName: "Initech"})
	require.ErrorIs(t, err, domain.ErrEmptyField)
	assert.Equal(t, 0, backend.createCalls, "invalid draft never reaches the backend")

	draft := domain.ProjectDraft{
		ClientName:   "Initech",
		ClientEmail:  "lumbergh@initech.com",
		ClientPhone:  "555-0100",
		Description:  "TPS portal",
		Requirements: "cover sheets",
		CreatedBy:    "sales-1",
	}
	created, err := repo.Create(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRequirements, created.Status, "draft status defaults to requirements")
	assert.NotEmpty(t, created.ReferenceID)

	// The cache holds the refetched list including the new project.
	_, ok := repo.ByID(created.ID)
	assert.True(t, ok)
}

func TestApproveIsAtomicInEffect(t *testing.T) {
	repo, backend := seededRepo(t)
	deadline := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// Failure: none of the three fields change.
	backend.fail = true
	_, err := repo.Approve(context.Background(), "p1", "dev-9", deadline)
	require.Error(t, err)
	p, _ := repo.ByID("p1")
	assert.False(t, p.Approved)
	assert.Nil(t, p.AssignedTo)
	assert.Nil(t, p.Deadline)

	// Success: all three change together.
	backend.fail = false
	updated, err := repo.Approve(context.Background(), "p1", "dev-9", deadline)
	require.NoError(t, err)
	assert.True(t, updated.Approved)
	assert.Equal(t, "dev-9", updated.AssignedTo.ID)
	assert.True(t, updated.Deadline.Equal(deadline))

	p, _ = repo.ByID("p1")
	assert.True(t, p.Approved)
	assert.Equal(t, "dev-9", p.AssignedToID())

	// Approving an approved project is rejected locally.
	_, err = repo.Approve(context.Background(), "p1", "dev-2", deadline)
	assert.ErrorIs(t, err, domain.ErrAlreadyApproved)
}

func TestReassignKeepsDeadline(t *testing.T) {
	repo, _ := seededRepo(t)

	updated, err := repo.Reassign(context.Background(), "p2", "dev-7")
	require.NoError(t, err)
	assert.Equal(t, "dev-7", updated.AssignedTo.ID)
	require.NotNil(t, updated.Deadline)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), updated.Deadline.UTC())

	// Unapproved project has no deadline to carry.
	_, err = repo.Reassign(context.Background(), "p1", "dev-7")
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
}

func TestAssignmentsValidateDeveloper(t *testing.T) {
	backend := &fakeBackend{projects: []domain.Project{
		{ID: "p1", ReferenceID: "PF-1001", ClientName: "Acme", Status: domain.StatusRequirements},
		{ID: "p2", ReferenceID: "PF-1002", ClientName: "Globex", Approved: true,
			AssignedTo: &domain.AssignedUser{ID: "dev-1"}, Deadline: timePtr(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))},
	}}
	lookup := &fakeLookup{known: map[string]bool{"dev-1": true, "dev-2": true}}
	repo := NewProjectRepository(backend, lookup, nil, nil)
	require.NoError(t, repo.FetchAll(context.Background()))

	deadline := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	// An unknown assignee fails before the backend mutation runs.
	_, err := repo.Approve(context.Background(), "p1", "nobody", deadline)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, backend.find("p1").Approved, "rejected approval never reached the backend")

	_, err = repo.Reassign(context.Background(), "p2", "nobody")
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "dev-1", backend.find("p2").AssignedTo.ID)

	// A known developer goes through.
	updated, err := repo.Approve(context.Background(), "p1", "dev-2", deadline)
	require.NoError(t, err)
	assert.Equal(t, "dev-2", updated.AssignedTo.ID)
	assert.Equal(t, 3, lookup.calls)
}

func TestUpdateStatusReplacesStatusOnly(t *testing.T) {
	repo, backend := seededRepo(t)

	_, err := repo.UpdateStatus(context.Background(), "p2", domain.Status("shipped"))
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = repo.UpdateStatus(context.Background(), "p2", domain.StatusCompleted)
	require.NoError(t, err)
	p, _ := repo.ByID("p2")
	assert.Equal(t, domain.StatusCompleted, p.Status)
	assert.Equal(t, "dev-1", p.AssignedToID(), "other fields untouched")

	backend.fail = true
	_, err = repo.UpdateStatus(context.Background(), "p2", domain.StatusPayment)
	require.Error(t, err)
	p, _ = repo.ByID("p2")
	assert.Equal(t, domain.StatusCompleted, p.Status, "cache unchanged on failure")
}

func TestAddNoteReconcilesProvisionalEcho(t *testing.T) {
	repo, _ := seededRepo(t)

	echoed, err := repo.AddNote(context.Background(), "p1", domain.ProjectNote{
		Content: "client signed off", Author: "Ana", IsPublic: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "srv-note", echoed.ID)
	assert.False(t, echoed.Provisional)

	p, _ := repo.ByID("p1")
	require.Len(t, p.Notes, 1, "provisional entry reconciled away, not duplicated")
	assert.Equal(t, "client signed off", p.Notes[0].Content)
	assert.False(t, p.Notes[0].Provisional)
}

func TestAddNoteFailureRemovesProvisional(t *testing.T) {
	repo, backend := seededRepo(t)
	backend.fail = true

	_, err := repo.AddNote(context.Background(), "p1", domain.ProjectNote{Content: "x", Author: "Ana"})

	require.Error(t, err)
	p, _ := repo.ByID("p1")
	assert.Empty(t, p.Notes, "no provisional ghost after a failed call")
}

func TestAddCredentialReplacesSequence(t *testing.T) {
	repo, _ := seededRepo(t)

	_, err := repo.AddCredential(context.Background(), "p2", domain.Credential{Type: "hosting", Name: "cpanel"})
	assert.ErrorIs(t, err, domain.ErrEmptyField)

	updated, err := repo.AddCredential(context.Background(), "p2", domain.Credential{
		Type: "hosting", Name: "cpanel", Value: "hunter2",
	})
	require.NoError(t, err)
	require.Len(t, updated.Credentials, 1)
	assert.False(t, updated.Credentials[0].DateAdded.IsZero())

	p, _ := repo.ByID("p2")
	assert.Len(t, p.Credentials, 1)
}

func TestDatesReplaceEntry(t *testing.T) {
	repo, _ := seededRepo(t)
	done := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	renewal := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	_, err := repo.SetCompletionDate(context.Background(), "p2", done)
	require.NoError(t, err)
	_, err = repo.SetRenewalDate(context.Background(), "p2", renewal)
	require.NoError(t, err)

	p, _ := repo.ByID("p2")
	require.NotNil(t, p.CompletionDate)
	require.NotNil(t, p.RenewalDate)
	assert.Equal(t, done, p.CompletionDate.UTC())
	assert.Equal(t, renewal, p.RenewalDate.UTC())
}

func TestRemovalRequiresConfirmation(t *testing.T) {
	repo, backend := seededRepo(t)

	assert.ErrorIs(t, repo.ConfirmRemoval(context.Background()), domain.ErrNoPendingConfirm)

	require.NoError(t, repo.RequestDelete("p2"))
	id, reject, ok := repo.PendingRemoval()
	require.True(t, ok)
	assert.Equal(t, "p2", id)
	assert.False(t, reject)

	// Nothing removed until confirmed.
	assert.Len(t, repo.Projects(), 2)

	repo.CancelPending()
	_, _, ok = repo.PendingRemoval()
	assert.False(t, ok)
	assert.ErrorIs(t, repo.ConfirmRemoval(context.Background()), domain.ErrNoPendingConfirm)

	require.NoError(t, repo.RequestDelete("p2"))
	require.NoError(t, repo.ConfirmRemoval(context.Background()))
	assert.Len(t, repo.Projects(), 1)
	assert.Nil(t, backend.find("p2"), "removed from the backend store as well")
}

func TestRejectOnlyUnapproved(t *testing.T) {
	repo, _ := seededRepo(t)

	assert.ErrorIs(t, repo.RequestReject("p2"), domain.ErrAlreadyApproved)

	require.NoError(t, repo.RequestReject("p1"))
	_, reject, ok := repo.PendingRemoval()
	require.True(t, ok)
	assert.True(t, reject)

	require.NoError(t, repo.ConfirmRemoval(context.Background()))
	_, found := repo.ByID("p1")
	assert.False(t, found)
}

func TestConfirmRemovalFailureKeepsPending(t *testing.T) {
	repo, backend := seededRepo(t)
	require.NoError(t, repo.RequestDelete("p1"))
	backend.fail = true

	require.Error(t, repo.ConfirmRemoval(context.Background()))

	assert.Len(t, repo.Projects(), 2, "cache unchanged")
	_, _, ok := repo.PendingRemoval()
	assert.True(t, ok, "pending state survives so the user can retry")
}

func TestPassThroughsSkipCache(t *testing.T) {
	repo, backend := seededRepo(t)

	mine, err := repo.ProjectsByUser(context.Background(), "sales-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "p1", mine[0].ID)

	backend.projects[0].Notes = []domain.ProjectNote{{ID: "n1", Content: "kickoff call done"}}
	notes, err := repo.NotesByProject(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, notes, 1, "notes come straight from the backend, not the cache")

	cached, _ := repo.ByID("p1")
	assert.Empty(t, cached.Notes, "pass-through reads leave the cache alone")
}
