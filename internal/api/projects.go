package api

import (
	"context"
	"net/http"
	"time"

	"github.com/yourorg/projectflow/internal/domain"
)

// Projects lists every project. Read-only; no Authorization required so the
// public tracker can operate before any login.
func (c *Client) Projects(ctx context.Context) ([]domain.Project, error) {
	var out []domain.Project
	if err := c.call(ctx, "listProjects", http.MethodGet, "/projects", nil, &out, false); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateProject submits a sales draft. The backend assigns the id and the
// client-shareable reference id.
func (c *Client) CreateProject(ctx context.Context, draft domain.ProjectDraft) (*domain.Project, error) {
	var out domain.Project
	if err := c.call(ctx, "createProject", http.MethodPost, "/projects/newProject", draft, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// AssignUser approves a project: developer and deadline are set in the same
// request, and the backend flips approved. There is no approval without
// assignment.
func (c *Client) AssignUser(ctx context.Context, projectID, developerID string, deadline time.Time) (*domain.Project, error) {
	body := map[string]string{
		"assignedTo": developerID,
		"deadline":   deadline.UTC().Format(time.RFC3339),
	}
	var out domain.Project
	if err := c.call(ctx, "assignUser", http.MethodPut, "/projects/assignUser/"+projectID, body, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStatus sets the lifecycle status.
func (c *Client) UpdateStatus(ctx context.Context, projectID string, status domain.Status) (*domain.Project, error) {
	body := map[string]string{"status": string(status)}
	var out domain.Project
	if err := c.call(ctx, "updateStatus", http.MethodPut, "/projects/updateStatus/"+projectID, body, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddNote appends a note; the response data is the updated project whose
// notes sequence ends with the server-echoed note.
func (c *Client) AddNote(ctx context.Context, projectID string, note domain.ProjectNote) (*domain.Project, error) {
	var out domain.Project
	if err := c.call(ctx, "addNote", http.MethodPost, "/projects/addNote/"+projectID, note, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddCredential appends a credential; the response data is the updated
// project carrying the full credentials sequence.
func (c *Client) AddCredential(ctx context.Context, projectID string, cred domain.Credential) (*domain.Project, error) {
	var out domain.Project
	if err := c.call(ctx, "addCredential", http.MethodPost, "/projects/addCredential/"+projectID, cred, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCompletionDate sets the completion date.
func (c *Client) UpdateCompletionDate(ctx context.Context, projectID string, date time.Time) (*domain.Project, error) {
	body := map[string]string{"completionDate": date.UTC().Format(time.RFC3339)}
	var out domain.Project
	if err := c.call(ctx, "updateCompletionDate", http.MethodPut, "/projects/updateCompletionDate/"+projectID, body, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRenewalDate sets the renewal date for recurring engagements.
func (c *Client) UpdateRenewalDate(ctx context.Context, projectID string, date time.Time) (*domain.Project, error) {
	body := map[string]string{"renewalDate": date.UTC().Format(time.RFC3339)}
	var out domain.Project
	if err := c.call(ctx, "updateRenewalDate", http.MethodPut, "/projects/updateRenewalDate/"+projectID, body, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProject removes a project from the backend store.
func (c *Client) DeleteProject(ctx context.Context, projectID string) error {
	return c.call(ctx, "deleteProject", http.MethodDelete, "/projects/deleteProject/"+projectID, nil, nil, true)
}

// ProjectsByUser lists projects created by a user.
func (c *Client) ProjectsByUser(ctx context.Context, userID string) ([]domain.Project, error) {
	var out []domain.Project
	if err := c.call(ctx, "projectsByUser", http.MethodGet, "/projects/"+userID, nil, &out, false); err != nil {
		return nil, err
	}
	return out, nil
}

// NotesByProject lists a project's notes. This endpoint is the one place the
// backend answers outside the data field, under "notes".
func (c *Client) NotesByProject(ctx context.Context, projectID string) ([]domain.ProjectNote, error) {
	env, err := c.callEnv(ctx, "getNotes", http.MethodGet, "/projects/getNotes/"+projectID, nil, false)
	if err != nil {
		return nil, err
	}
	return env.Notes, nil
}
