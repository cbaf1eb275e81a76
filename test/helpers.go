// Package test hosts end-to-end scenarios running the full client stack
// against a fake ProjectFlow backend.
package test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yourorg/projectflow/internal/domain"
)

// fakeBackend implements just enough of the remote REST API for the
// scenarios: enveloped responses, bearer-token auth on mutations, and
// backend-assigned ids and reference ids.
type fakeBackend struct {
	mu         sync.Mutex
	accounts   map[string]account // keyed by email
	tokens     map[string]string  // token -> user id
	projects   map[string]domain.Project
	refCounter int
	server     *httptest.Server
}

type account struct {
	user     domain.User
	password string
}

func newFakeBackend() *fakeBackend {
	b := &fakeBackend{
		accounts: map[string]account{},
		tokens:   map[string]string{},
		projects: map[string]domain.Project{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", b.login)
	mux.HandleFunc("GET /projects", b.listProjects)
	mux.HandleFunc("POST /projects/newProject", b.authed(b.createProject))
	mux.HandleFunc("PUT /projects/assignUser/{id}", b.authed(b.assignUser))
	mux.HandleFunc("PUT /projects/updateStatus/{id}", b.authed(b.updateStatus))
	mux.HandleFunc("POST /projects/addNote/{id}", b.authed(b.addNote))
	mux.HandleFunc("POST /projects/addCredential/{id}", b.authed(b.addCredential))
	mux.HandleFunc("PUT /projects/updateCompletionDate/{id}", b.authed(b.updateDate("completion")))
	mux.HandleFunc("PUT /projects/updateRenewalDate/{id}", b.authed(b.updateDate("renewal")))
	mux.HandleFunc("DELETE /projects/deleteProject/{id}", b.authed(b.deleteProject))
	mux.HandleFunc("GET /users", b.listUsers)
	mux.HandleFunc("GET /users/{id}", b.getUser)
	mux.HandleFunc("POST /users/newUser", b.authed(b.createUser))
	mux.HandleFunc("DELETE /users/deleteUser/{id}", b.authed(b.deleteUser))
	b.server = httptest.NewServer(mux)
	return b
}

func (b *fakeBackend) Close()      { b.server.Close() }
func (b *fakeBackend) URL() string { return b.server.URL }

// addAccount seeds a staff account and returns its user record.
func (b *fakeBackend) addAccount(name, email, password string, role domain.Role) domain.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := domain.User{ID: "u-" + uuid.NewString()[:8], Name: name, Email: email, Role: role}
	b.accounts[email] = account{user: u, password: password}
	return u
}

func ok(w http.ResponseWriter, data any) {
	raw, _ := json.Marshal(data)
	writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": json.RawMessage(raw)})
}

func fail(w http.ResponseWriter, code int, message string) {
	writeEnvelope(w, code, map[string]any{"success": false, "message": message})
}

func writeEnvelope(w http.ResponseWriter, code int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

// authed enforces a bearer token issued by login.
func (b *fakeBackend) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			fail(w, http.StatusUnauthorized, "missing token")
			return
		}
		b.mu.Lock()
		_, known := b.tokens[token]
		b.mu.Unlock()
		if !known {
			fail(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next(w, r)
	}
}

func (b *fakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "bad request")
		return
	}

	b.mu.Lock()
	acct, exists := b.accounts[req.Email]
	b.mu.Unlock()
	if !exists || acct.password != req.Password {
		fail(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	claims := jwt.RegisteredClaims{
		Subject:   acct.user.ID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("fake-backend-secret"))
	if err != nil {
		fail(w, http.StatusInternalServerError, "token signing failed")
		return
	}

	b.mu.Lock()
	b.tokens[token] = acct.user.ID
	b.mu.Unlock()

	ok(w, map[string]any{"token": token, "user": acct.user})
}

func (b *fakeBackend) listProjects(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	out := make([]domain.Project, 0, len(b.projects))
	for _, p := range b.projects {
		out = append(out, p)
	}
	b.mu.Unlock()
	ok(w, out)
}

func (b *fakeBackend) createProject(w http.ResponseWriter, r *http.Request) {
	var draft domain.ProjectDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		fail(w, http.StatusBadRequest, "bad request")
		return
	}
	if draft.ClientName == "" || draft.ClientEmail == "" {
		fail(w, http.StatusBadRequest, "client name and email are required")
		return
	}

	b.mu.Lock()
	b.refCounter++
	p := domain.Project{
		ID:           "p-" + uuid.NewString()[:8],
		ReferenceID:  fmt.Sprintf("PF-%04d", 1000+b.refCounter),
		ClientName:   draft.ClientName,
		ClientEmail:  draft.ClientEmail,
		ClientPhone:  draft.ClientPhone,
		Description:  draft.Description,
		Requirements: draft.Requirements,
		Status:       draft.Status,
		CreatedBy:    draft.CreatedBy,
		CreatedAt:    time.Now().UTC(),
	}
	if p.Status == "" {
		p.Status = domain.StatusRequirements
	}
	b.projects[p.ID] = p
	b.mu.Unlock()

	ok(w, p)
}

// withProject runs fn against the stored project, writing back the result.
func (b *fakeBackend) withProject(w http.ResponseWriter, r *http.Request, fn func(p *domain.Project) error) {
	id := r.PathValue("id")
	b.mu.Lock()
	p, exists := b.projects[id]
	if !exists {
		b.mu.Unlock()
		fail(w, http.StatusNotFound, "project not found")
		return
	}
	if err := fn(&p); err != nil {
		b.mu.Unlock()
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	b.projects[id] = p
	b.mu.Unlock()
	ok(w, p)
}

func (b *fakeBackend) assignUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AssignedTo string `json:"assignedTo"`
		Deadline   string `json:"deadline"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "bad request")
		return
	}
	deadline, err := time.Parse(time.RFC3339, req.Deadline)
	if err != nil {
		fail(w, http.StatusBadRequest, "bad deadline")
		return
	}

	b.withProject(w, r, func(p *domain.Project) error {
		var dev *domain.User
		for _, acct := range b.accounts {
			if acct.user.ID == req.AssignedTo {
				u := acct.user
				dev = &u
				break
			}
		}
		if dev == nil {
			return fmt.Errorf("unknown developer %s", req.AssignedTo)
		}
		p.AssignedTo = &domain.AssignedUser{ID: dev.ID, Name: dev.Name, Email: dev.Email}
		p.Deadline = &deadline
		p.Approved = true
		return nil
	})
}

func (b *fakeBackend) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status domain.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "bad request")
		return
	}
	b.withProject(w, r, func(p *domain.Project) error {
		if !req.Status.Valid() {
			return fmt.Errorf("unknown status %q", req.Status)
		}
		p.Status = req.Status
		return nil
	})
}

func (b *fakeBackend) addNote(w http.ResponseWriter, r *http.Request) {
	var note domain.ProjectNote
	if err := json.NewDecoder(r.Body).Decode(&note); err != nil {
		fail(w, http.StatusBadRequest, "bad request")
		return
	}
	b.withProject(w, r, func(p *domain.Project) error {
		note.ID = "n-" + uuid.NewString()[:8]
		note.CreatedAt = time.Now().UTC()
		p.Notes = append(p.Notes, note)
		return nil
	})
}

func (b *fakeBackend) addCredential(w http.ResponseWriter, r *http.Request) {
	var cred domain.Credential
	if err := json.NewDecoder(r.Body).Decode(&cred); err != nil {
		fail(w, http.StatusBadRequest, "bad request")
		return
	}
	b.withProject(w, r, func(p *domain.Project) error {
		cred.ID = "c-" + uuid.NewString()[:8]
		p.Credentials = append(p.Credentials, cred)
		return nil
	})
}

func (b *fakeBackend) updateDate(field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			fail(w, http.StatusBadRequest, "bad request")
			return
		}
		key := field + "Date"
		date, err := time.Parse(time.RFC3339, req[key])
		if err != nil {
			fail(w, http.StatusBadRequest, "bad date")
			return
		}
		b.withProject(w, r, func(p *domain.Project) error {
			if field == "completion" {
				p.CompletionDate = &date
			} else {
				p.RenewalDate = &date
			}
			return nil
		})
	}
}

func (b *fakeBackend) deleteProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b.mu.Lock()
	_, exists := b.projects[id]
	delete(b.projects, id)
	b.mu.Unlock()
	if !exists {
		fail(w, http.StatusNotFound, "project not found")
		return
	}
	ok(w, nil)
}

func (b *fakeBackend) listUsers(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	out := make([]domain.User, 0, len(b.accounts))
	for _, acct := range b.accounts {
		out = append(out, acct.user)
	}
	b.mu.Unlock()
	ok(w, out)
}

func (b *fakeBackend) deleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b.mu.Lock()
	var email string
	for e, acct := range b.accounts {
		if acct.user.ID == id {
			email = e
			break
		}
	}
	if email == "" {
		b.mu.Unlock()
		fail(w, http.StatusNotFound, "user not found")
		return
	}
	delete(b.accounts, email)
	b.mu.Unlock()
	ok(w, nil)
}

func (b *fakeBackend) getUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b.mu.Lock()
	var found *domain.User
	for _, acct := range b.accounts {
		if acct.user.ID == id {
			u := acct.user
			found = &u
			break
		}
	}
	b.mu.Unlock()
	if found == nil {
		fail(w, http.StatusNotFound, "user not found")
		return
	}
	ok(w, found)
}

func (b *fakeBackend) createUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string      `json:"name"`
		Email    string      `json:"email"`
		Password string      `json:"password"`
		Role     domain.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "bad request")
		return
	}
	user := b.addAccount(req.Name, req.Email, req.Password, req.Role)
	ok(w, user)
}
