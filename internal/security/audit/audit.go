package audit

import (
	"log/slog"
	"time"
)

// Action identifies an auditable event in the project workflow.
type Action string

const (
	ActionLogin            Action = "login"
	ActionLoginFailed      Action = "login_failed"
	ActionLogout           Action = "logout"
	ActionProjectCreated   Action = "project_created"
	ActionProjectApproved  Action = "project_approved"
	ActionProjectRejected  Action = "project_rejected"
	ActionProjectDeleted   Action = "project_deleted"
	ActionStatusChanged    Action = "status_changed"
	ActionNoteAdded        Action = "note_added"
	ActionCredentialAdded  Action = "credential_added"
	ActionDeveloperCreated Action = "developer_created"
	ActionDeveloperDeleted Action = "developer_deleted"
	ActionAccessDenied     Action = "access_denied"
)

// Logger emits structured audit records alongside regular application logs.
type Logger struct {
	logger *slog.Logger
}

// NewLogger wraps the given slog.Logger for audit output.
func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

// Record logs an audit event. actor is the email of the signed-in user,
// or empty for anonymous actions. subject identifies the affected entity
// (project reference, user id).
func (a *Logger) Record(action Action, actor, subject string, attrs ...slog.Attr) {
	args := []any{
		slog.String("audit_action", string(action)),
		slog.String("actor", actor),
		slog.String("subject", subject),
		slog.Time("at", time.Now().UTC()),
	}
	for _, attr := range attrs {
		args = append(args, attr)
	}
	a.logger.Info("audit", args...)
}

// Denied records an access-denial event with the attempted path.
func (a *Logger) Denied(actor, path, reason string) {
	a.Record(ActionAccessDenied, actor, path, slog.String("reason", reason))
}
