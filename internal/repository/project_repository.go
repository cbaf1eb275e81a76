// Package repository mediates all project and user reads/writes against the
// remote backend and owns the in-memory project cache. Every mutation calls
// the backend first and merges the result into the cache keyed by project
// id; on failure the cache is left exactly as it was.
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/projectflow/internal/domain"
	"github.com/yourorg/projectflow/internal/observability/metrics"
)

// ProjectBackend is the slice of the API client the project repository uses.
type ProjectBackend interface {
	Projects(ctx context.Context) ([]domain.Project, error)
	CreateProject(ctx context.Context, draft domain.ProjectDraft) (*domain.Project, error)
	AssignUser(ctx context.Context, projectID, developerID string, deadline time.Time) (*domain.Project, error)
	UpdateStatus(ctx context.Context, projectID string, status domain.Status) (*domain.Project, error)
	AddNote(ctx context.Context, projectID string, note domain.ProjectNote) (*domain.Project, error)
	AddCredential(ctx context.Context, projectID string, cred domain.Credential) (*domain.Project, error)
	UpdateCompletionDate(ctx context.Context, projectID string, date time.Time) (*domain.Project, error)
	UpdateRenewalDate(ctx context.Context, projectID string, date time.Time) (*domain.Project, error)
	DeleteProject(ctx context.Context, projectID string) error
	ProjectsByUser(ctx context.Context, userID string) ([]domain.Project, error)
	NotesByProject(ctx context.Context, projectID string) ([]domain.ProjectNote, error)
}

// DeveloperLookup resolves assignment targets. *UserDirectory satisfies it.
type DeveloperLookup interface {
	DeveloperByID(ctx context.Context, id string) (*domain.User, error)
}

// pendingRemoval tracks a delete or reject awaiting explicit confirmation.
type pendingRemoval struct {
	projectID string
	reject    bool
}

// ProjectRepository exclusively owns the in-memory project list. Mutation is
// always a whole-list or whole-entry replace, never an in-place partial
// update, so concurrent readers see consistent records.
type ProjectRepository struct {
	mu       sync.RWMutex
	projects []domain.Project
	loaded   bool
	pending  *pendingRemoval

	backend   ProjectBackend
	directory DeveloperLookup // optional assignee validation
	snapshots SnapshotStore   // optional warm-start persistence
	logger    *slog.Logger
}

// NewProjectRepository creates the repository. directory and snapshots may
// be nil; without a directory, assignee ids go to the backend unchecked.
func NewProjectRepository(backend ProjectBackend, directory DeveloperLookup, snapshots SnapshotStore, logger *slog.Logger) *ProjectRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectRepository{
		backend:   backend,
		directory: directory,
		snapshots: snapshots,
		logger:    logger,
	}
}

// checkDeveloper rejects an assignment target the directory does not know
// as a developer, before any backend mutation is attempted.
func (r *ProjectRepository) checkDeveloper(ctx context.Context, developerID string) error {
	if r.directory == nil {
		return nil
	}
	_, err := r.directory.DeveloperByID(ctx, developerID)
	return err
}

// Warm seeds the cache from the snapshot store, if one is configured and the
// cache is still empty. A warm cache is stale by definition; FetchAll
// remains the authoritative refresh.
func (r *ProjectRepository) Warm(ctx context.Context) {
	if r.snapshots == nil {
		return
	}
	projects, err := r.snapshots.Load(ctx)
	if err != nil {
		r.logger.Warn("failed to load project snapshot", slog.String("error", err.Error()))
		return
	}
	if projects == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return
	}
	r.projects = projects
	metrics.SetCachedProjects(len(projects))
	r.logger.Info("project cache warmed from snapshot", slog.Int("count", len(projects)))
}

// FetchAll replaces the entire cache with the backend's project list.
func (r *ProjectRepository) FetchAll(ctx context.Context) error {
	projects, err := r.backend.Projects(ctx)
	if err != nil {
		return fmt.Errorf("fetch projects: %w", err)
	}

	r.mu.Lock()
	r.projects = projects
	r.loaded = true
	r.mu.Unlock()
	metrics.SetCachedProjects(len(projects))

	if r.snapshots != nil {
		if err := r.snapshots.Save(ctx, projects); err != nil {
			r.logger.Warn("failed to save project snapshot", slog.String("error", err.Error()))
		}
	}
	return nil
}

// Projects returns a copy of the cached list. Before the first FetchAll it
// is empty, which callers treat as "nothing loaded yet", not an error.
func (r *ProjectRepository) Projects() []domain.Project {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Project, len(r.projects))
	copy(out, r.projects)
	return out
}

// Loaded reports whether the cache has been populated by a FetchAll.
func (r *ProjectRepository) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// ByID looks up a cached project by internal id. Cache-only: a miss is a
// legitimate "no result", possibly because the cache has not loaded.
func (r *ProjectRepository) ByID(id string) (domain.Project, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.projects {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Project{}, false
}

// ByReferenceID looks up a cached project by the client-shareable reference
// id. Cache-only, same staleness contract as ByID.
func (r *ProjectRepository) ByReferenceID(ref string) (domain.Project, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.projects {
		if strings.EqualFold(p.ReferenceID, ref) {
			return p, true
		}
	}
	return domain.Project{}, false
}

// Create validates a sales draft, submits it, then refreshes the full list:
// the backend assigns id and reference id, so there is nothing safe to
// insert optimistically.
func (r *ProjectRepository) Create(ctx context.Context, draft domain.ProjectDraft) (*domain.Project, error) {
	for field, v := range map[string]string{
		"clientName":   draft.ClientName,
		"clientEmail":  draft.ClientEmail,
		"description":  draft.Description,
		"requirements": draft.Requirements,
		"createdBy":    draft.CreatedBy,
	} {
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("%w: %s", domain.ErrEmptyField, field)
		}
	}
	if draft.Status == "" {
		draft.Status = domain.StatusRequirements
	}
	if !draft.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	created, err := r.backend.CreateProject(ctx, draft)
	if err != nil {
		return nil, err
	}

	if err := r.FetchAll(ctx); err != nil {
		// The create succeeded; a failed refresh only leaves the cache stale.
		r.logger.Warn("refresh after create failed", slog.String("error", err.Error()))
	}

	r.logger.Info("project created",
		slog.String("project_id", created.ID),
		slog.String("reference_id", created.ReferenceID),
	)
	return created, nil
}

// Approve assigns a developer and deadline in one step and flips approved.
// All three fields change together or not at all. The project must
// currently be unapproved.
func (r *ProjectRepository) Approve(ctx context.Context, projectID, developerID string, deadline time.Time) (*domain.Project, error) {
	if p, ok := r.ByID(projectID); ok && p.Approved {
		return nil, domain.ErrAlreadyApproved
	}
	if deadline.IsZero() {
		return nil, domain.ErrInvalidDate
	}
	if err := r.checkDeveloper(ctx, developerID); err != nil {
		return nil, err
	}

	updated, err := r.backend.AssignUser(ctx, projectID, developerID, deadline)
	if err != nil {
		return nil, err
	}

	r.replace(*updated)
	r.logger.Info("project approved",
		slog.String("project_id", projectID),
		slog.String("developer_id", developerID),
		slog.Time("deadline", deadline),
	)
	return updated, nil
}

// Reassign moves an approved project to a different developer, keeping its
// existing deadline. The assignment endpoint sets both together, so the
// deadline must already be present in the cache.
func (r *ProjectRepository) Reassign(ctx context.Context, projectID, developerID string) (*domain.Project, error) {
	p, ok := r.ByID(projectID)
	if !ok {
		return nil, fmt.Errorf("project %s: %w", projectID, domain.ErrNotFound)
	}
	if p.Deadline == nil {
		return nil, fmt.Errorf("%w: project has no deadline to carry over", domain.ErrInvalidDate)
	}
	if err := r.checkDeveloper(ctx, developerID); err != nil {
		return nil, err
	}

	updated, err := r.backend.AssignUser(ctx, projectID, developerID, *p.Deadline)
	if err != nil {
		return nil, err
	}

	r.replace(*updated)
	r.logger.Info("project reassigned",
		slog.String("project_id", projectID),
		slog.String("developer_id", developerID),
	)
	return updated, nil
}

// UpdateStatus changes the lifecycle status. Only the status field of the
// cached entry is replaced, mirroring what the backend reports.
func (r *ProjectRepository) UpdateStatus(ctx context.Context, projectID string, status domain.Status) (*domain.Project, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	updated, err := r.backend.UpdateStatus(ctx, projectID, status)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	for i := range r.projects {
		if r.projects[i].ID == projectID {
			p := r.projects[i]
			p.Status = updated.Status
			r.projects[i] = p
			break
		}
	}
	r.mu.Unlock()
	return updated, nil
}

// AddNote appends a note. A provisional entry with a client-generated id is
// inserted immediately, then replaced wholesale by the server's notes once
// the call returns. If a concurrent refetch lands between the insert and
// the replace, the provisional entry may briefly display twice; the next
// reconciliation clears it.
func (r *ProjectRepository) AddNote(ctx context.Context, projectID string, note domain.ProjectNote) (*domain.ProjectNote, error) {
	if strings.TrimSpace(note.Content) == "" {
		return nil, fmt.Errorf("%w: content", domain.ErrEmptyField)
	}

	provisional := note
	provisional.ID = uuid.NewString()
	provisional.CreatedAt = time.Now().UTC()
	provisional.Provisional = true
	note.CreatedAt = provisional.CreatedAt

	r.mu.Lock()
	inserted := false
	for i := range r.projects {
		if r.projects[i].ID == projectID {
			p := r.projects[i]
			p.Notes = append(append([]domain.ProjectNote{}, p.Notes...), provisional)
			r.projects[i] = p
			inserted = true
			break
		}
	}
	r.mu.Unlock()

	updated, err := r.backend.AddNote(ctx, projectID, note)
	if err != nil {
		if inserted {
			r.removeProvisionalNote(projectID, provisional.ID)
		}
		return nil, err
	}

	// Server notes are authoritative; replacing the sequence reconciles the
	// provisional entry away.
	r.mu.Lock()
	for i := range r.projects {
		if r.projects[i].ID == projectID {
			p := r.projects[i]
			p.Notes = updated.Notes
			r.projects[i] = p
			break
		}
	}
	r.mu.Unlock()

	if len(updated.Notes) == 0 {
		return nil, fmt.Errorf("%w: backend echoed no notes", domain.ErrRemoteCall)
	}
	echoed := updated.Notes[len(updated.Notes)-1]
	return &echoed, nil
}

func (r *ProjectRepository) removeProvisionalNote(projectID, noteID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.projects {
		if r.projects[i].ID != projectID {
			continue
		}
		p := r.projects[i]
		notes := make([]domain.ProjectNote, 0, len(p.Notes))
		for _, n := range p.Notes {
			if !(n.Provisional && n.ID == noteID) {
				notes = append(notes, n)
			}
		}
		p.Notes = notes
		r.projects[i] = p
		return
	}
}

// AddCredential appends a credential and replaces the cached entry's
// credentials sequence with the server's.
func (r *ProjectRepository) AddCredential(ctx context.Context, projectID string, cred domain.Credential) (*domain.Project, error) {
	if strings.TrimSpace(cred.Name) == "" || strings.TrimSpace(cred.Value) == "" {
		return nil, fmt.Errorf("%w: name and value", domain.ErrEmptyField)
	}
	if cred.DateAdded.IsZero() {
		cred.DateAdded = time.Now().UTC()
	}

	updated, err := r.backend.AddCredential(ctx, projectID, cred)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	for i := range r.projects {
		if r.projects[i].ID == projectID {
			p := r.projects[i]
			p.Credentials = updated.Credentials
			r.projects[i] = p
			break
		}
	}
	r.mu.Unlock()
	return updated, nil
}

// SetCompletionDate records when the work finished.
func (r *ProjectRepository) SetCompletionDate(ctx context.Context, projectID string, date time.Time) (*domain.Project, error) {
	if date.IsZero() {
		return nil, domain.ErrInvalidDate
	}
	updated, err := r.backend.UpdateCompletionDate(ctx, projectID, date)
	if err != nil {
		return nil, err
	}
	r.replace(*updated)
	return updated, nil
}

// SetRenewalDate records the next renewal for recurring engagements.
func (r *ProjectRepository) SetRenewalDate(ctx context.Context, projectID string, date time.Time) (*domain.Project, error) {
	if date.IsZero() {
		return nil, domain.ErrInvalidDate
	}
	updated, err := r.backend.UpdateRenewalDate(ctx, projectID, date)
	if err != nil {
		return nil, err
	}
	r.replace(*updated)
	return updated, nil
}

// RequestDelete stages a deletion pending explicit confirmation. Only one
// removal can be pending at a time; staging a new one replaces it.
func (r *ProjectRepository) RequestDelete(projectID string) error {
	if _, ok := r.ByID(projectID); !ok {
		return fmt.Errorf("project %s: %w", projectID, domain.ErrNotFound)
	}
	r.mu.Lock()
	r.pending = &pendingRemoval{projectID: projectID}
	r.mu.Unlock()
	return nil
}

// RequestReject stages a rejection (removal of an unapproved project)
// pending explicit confirmation.
func (r *ProjectRepository) RequestReject(projectID string) error {
	p, ok := r.ByID(projectID)
	if !ok {
		return fmt.Errorf("project %s: %w", projectID, domain.ErrNotFound)
	}
	if p.Approved {
		return domain.ErrAlreadyApproved
	}
	r.mu.Lock()
	r.pending = &pendingRemoval{projectID: projectID, reject: true}
	r.mu.Unlock()
	return nil
}

// PendingRemoval returns the project id staged for removal, and whether the
// staged action is a reject. ok is false when nothing is pending.
func (r *ProjectRepository) PendingRemoval() (projectID string, reject, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.pending == nil {
		return "", false, false
	}
	return r.pending.projectID, r.pending.reject, true
}

// CancelPending discards a staged removal.
func (r *ProjectRepository) CancelPending() {
	r.mu.Lock()
	r.pending = nil
	r.mu.Unlock()
}

// ConfirmRemoval executes the staged delete or reject: remove from the
// backend store, then evict the cached entry. On failure the cache and the
// pending state are left unchanged so the caller can retry.
func (r *ProjectRepository) ConfirmRemoval(ctx context.Context) error {
	r.mu.RLock()
	pending := r.pending
	r.mu.RUnlock()
	if pending == nil {
		return domain.ErrNoPendingConfirm
	}

	if err := r.backend.DeleteProject(ctx, pending.projectID); err != nil {
		return err
	}

	r.mu.Lock()
	kept := make([]domain.Project, 0, len(r.projects))
	for _, p := range r.projects {
		if p.ID != pending.projectID {
			kept = append(kept, p)
		}
	}
	r.projects = kept
	r.pending = nil
	r.mu.Unlock()
	metrics.SetCachedProjects(len(kept))

	action := "deleted"
	if pending.reject {
		action = "rejected"
	}
	r.logger.Info("project "+action, slog.String("project_id", pending.projectID))
	return nil
}

// ProjectsByUser lists projects created by a user, straight from the
// backend without touching the cache.
func (r *ProjectRepository) ProjectsByUser(ctx context.Context, userID string) ([]domain.Project, error) {
	return r.backend.ProjectsByUser(ctx, userID)
}

// NotesByProject lists a project's notes straight from the backend.
func (r *ProjectRepository) NotesByProject(ctx context.Context, projectID string) ([]domain.ProjectNote, error) {
	return r.backend.NotesByProject(ctx, projectID)
}

// replace swaps the cached entry matching p's id. A response for a project
// that has since been evicted is discarded, which keeps late responses from
// resurrecting removed entries.
func (r *ProjectRepository) replace(p domain.Project) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.projects {
		if r.projects[i].ID == p.ID {
			r.projects[i] = p
			return
		}
	}
}
