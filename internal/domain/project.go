package domain

import "time"

// Status is the project lifecycle status. The five values are not ordered:
// the backend accepts any transition, and the client preserves that.
type Status string

const (
	StatusRequirements Status = "requirements" // waiting for client requirements
	StatusDevelopment  Status = "development"  // development in progress
	StatusPayment      Status = "payment"      // waiting for payment gateway
	StatusCredentials  Status = "credentials"  // waiting for domain/hosting credentials
	StatusCompleted    Status = "completed"
)

// AllStatuses lists every lifecycle status. Kept in sync with the constants
// above; the lifecycle tests check the label mapping is total over this list.
var AllStatuses = []Status{
	StatusRequirements,
	StatusDevelopment,
	StatusPayment,
	StatusCredentials,
	StatusCompleted,
}

// Valid reports whether s is a known lifecycle status.
func (s Status) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Credential is an access credential attached to a project. Append-only.
// Values are stored and displayed in plaintext by the backend; that is a
// known gap in the system, not something the client can fix.
type Credential struct {
	ID        string    `json:"_id,omitempty"`
	Type      string    `json:"type"` // domain, hosting, database, api, other
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	DateAdded time.Time `json:"dateAdded"`
}

// ProjectNote is a note attached to a project. Append-only; notes with
// IsPublic set are visible on the unauthenticated tracker.
type ProjectNote struct {
	ID          string    `json:"_id,omitempty"`
	Content     string    `json:"content"`
	Author      string    `json:"author"`
	IsPublic    bool      `json:"isPublic"`
	CreatedAt   time.Time `json:"createdAt"`
	Provisional bool      `json:"-"` // local optimistic echo, not yet confirmed by a refetch
}

// Project is a client engagement tracked through the lifecycle.
type Project struct {
	ID             string        `json:"_id"`
	ReferenceID    string        `json:"referenceId"` // immutable, assigned by the backend, client-shareable
	ClientName     string        `json:"clientName"`
	ClientEmail    string        `json:"clientEmail"`
	ClientPhone    string        `json:"clientPhone"`
	Description    string        `json:"description"`
	Requirements   string        `json:"requirements"`
	Status         Status        `json:"status"`
	Approved       bool          `json:"approved"`
	AssignedTo     *AssignedUser `json:"assignedTo"`
	Deadline       *time.Time    `json:"deadline"`
	CreatedBy      string        `json:"createdBy"`
	CreatedAt      time.Time     `json:"createdAt"`
	CompletionDate *time.Time    `json:"completionDate"`
	RenewalDate    *time.Time    `json:"renewalDate"`
	Notes          []ProjectNote `json:"notes"`
	Credentials    []Credential  `json:"credentials"`
}

// AssignedToID returns the assigned developer id, or "" when unassigned.
func (p *Project) AssignedToID() string {
	if p.AssignedTo == nil {
		return ""
	}
	return p.AssignedTo.ID
}

// ProjectDraft is the sales-entered input for a new project. Everything else
// on Project is assigned by the backend or through later workflow steps.
type ProjectDraft struct {
	ClientName   string `json:"clientName"`
	ClientEmail  string `json:"clientEmail"`
	ClientPhone  string `json:"clientPhone"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
	Status       Status `json:"status"`
	CreatedBy    string `json:"createdBy"`
}

// ProjectReader is the read side of the project cache, consumed by the
// gateway handlers and the refresh worker.
type ProjectReader interface {
	Projects() []Project
	ByID(id string) (Project, bool)
	ByReferenceID(ref string) (Project, bool)
}
