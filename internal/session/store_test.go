package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/projectflow/internal/api"
	"github.com/yourorg/projectflow/internal/domain"
)

type memPersist struct {
	data []byte
	err  error
}

func (m *memPersist) Load(context.Context) ([]byte, error) { return m.data, m.err }
func (m *memPersist) Save(_ context.Context, d []byte) error {
	m.data = d
	return nil
}
func (m *memPersist) Clear(context.Context) error {
	m.data = nil
	return nil
}

type fakeAuth struct {
	result *api.LoginResult
	err    error
}

func (f *fakeAuth) Login(context.Context, string, string) (*api.LoginResult, error) {
	return f.result, f.err
}

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(expiresAt)}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func validPersisted(t *testing.T) []byte {
	t.Helper()
	data, err := json.Marshal(persistedSession{
		Token: signedToken(t, time.Now().Add(time.Hour)),
		User:  domain.User{ID: "u1", Name: "Ana", Email: "ana@example.com", Role: domain.RoleSales},
	})
	require.NoError(t, err)
	return data
}

func TestRestoreValidSession(t *testing.T) {
	persist := &memPersist{data: validPersisted(t)}
	store := NewStore(persist, nil)

	require.NoError(t, store.Restore(context.Background()))

	state := store.Snapshot()
	assert.True(t, state.Authenticated)
	assert.False(t, state.Loading)
	require.NotNil(t, state.User)
	assert.Equal(t, "u1", state.User.ID)
	assert.NotEmpty(t, store.Token())
}

func TestRestoreFailsClosed(t *testing.T) {
	valid := signedToken(t, time.Now().Add(time.Hour))

	cases := []struct {
		name string
		data []byte
	}{
		{"empty store", nil},
		{"undefined literal", []byte("undefined")},
		{"null literal", []byte("null")},
		{"invalid json", []byte("{not json")},
		{"missing token", []byte(`{"user":{"_id":"u1","email":"a@b.c","role":"sales"}}`)},
		{"missing user", []byte(`{"token":"` + valid + `"}`)},
		{"unknown role", []byte(`{"token":"` + valid + `","user":{"_id":"u1","email":"a@b.c","role":"intern"}}`)},
		{"opaque non-jwt token", []byte(`{"token":"abc123","user":{"_id":"u1","email":"a@b.c","role":"sales"}}`)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			persist := &memPersist{data: tc.data}
			store := NewStore(persist, nil)

			_ = store.Restore(context.Background())

			state := store.Snapshot()
			assert.False(t, state.Authenticated, "session must be logged out")
			assert.Nil(t, state.User)
			assert.Empty(t, store.Token())
			assert.False(t, state.Loading, "loading must end even on failure")
			assert.Nil(t, persist.data, "persisted data must be cleared")
		})
	}
}

func TestRestoreExpiredToken(t *testing.T) {
	data, err := json.Marshal(persistedSession{
		Token: signedToken(t, time.Now().Add(-time.Minute)),
		User:  domain.User{ID: "u1", Email: "a@b.c", Role: domain.RoleCTO},
	})
	require.NoError(t, err)

	store := NewStore(&memPersist{data: data}, nil)
	err = store.Restore(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSessionCorrupt)
	assert.False(t, store.Snapshot().Authenticated)
}

func TestRestoreIdempotent(t *testing.T) {
	persist := &memPersist{data: []byte("undefined")}
	store := NewStore(persist, nil)

	for i := 0; i < 3; i++ {
		_ = store.Restore(context.Background())
		assert.False(t, store.Snapshot().Authenticated)
		assert.Nil(t, persist.data)
	}
}

func TestLoginSuccessPersists(t *testing.T) {
	persist := &memPersist{}
	store := NewStore(persist, nil)
	auth := &fakeAuth{result: &api.LoginResult{
		Token: signedToken(t, time.Now().Add(time.Hour)),
		User:  domain.User{ID: "u2", Name: "Drew", Email: "drew@example.com", Role: domain.RoleDeveloper},
	}}

	user, err := store.Login(context.Background(), auth, "drew@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u2", user.ID)
	assert.True(t, store.Snapshot().Authenticated)
	require.NotNil(t, persist.data)

	// A fresh store restores the same session from persistence.
	fresh := NewStore(persist, nil)
	require.NoError(t, fresh.Restore(context.Background()))
	assert.Equal(t, "u2", fresh.Snapshot().User.ID)
}

func TestLoginFailureLeavesSessionUntouched(t *testing.T) {
	persist := &memPersist{data: validPersisted(t)}
	store := NewStore(persist, nil)
	require.NoError(t, store.Restore(context.Background()))
	before := store.Token()

	_, err := store.Login(context.Background(), &fakeAuth{err: errors.New("boom")}, "x@y.z", "bad")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.True(t, store.Snapshot().Authenticated, "prior session must survive a failed login")
	assert.Equal(t, before, store.Token())
}

func TestLogoutClears(t *testing.T) {
	persist := &memPersist{data: validPersisted(t)}
	store := NewStore(persist, nil)
	require.NoError(t, store.Restore(context.Background()))

	store.Logout(context.Background())

	assert.False(t, store.Snapshot().Authenticated)
	assert.Empty(t, store.Token())
	assert.Nil(t, persist.data)
}
