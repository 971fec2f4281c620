package users

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vantage-hq/vantage/internal/platform/httpx"
	"github.com/vantage-hq/vantage/internal/shared"
)

type mockRepository struct {
	users  map[int64]*User
	nextID int64
	roles  map[int64]struct{}
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:  make(map[int64]*User),
		nextID: 1,
		roles:  map[int64]struct{}{1: {}, 2: {}},
	}
}

func (m *mockRepository) List(ctx context.Context, filters ListFilters) ([]User, int, error) {
	out := []User{}
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return *u, nil
}

func (m *mockRepository) Create(ctx context.Context, params CreateParams) (User, error) {
	user := User{
		ID:           m.nextID,
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
	}
	m.nextID++
	m.users[user.ID] = &user
	return user, nil
}

func (m *mockRepository) Update(ctx context.Context, params UpdateParams) (User, error) {
	u, ok := m.users[params.ID]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	u.Name = params.Name
	u.Email = params.Email
	if params.PasswordHash != "" {
		u.PasswordHash = params.PasswordHash
	}
	return *u, nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockRepository) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	for _, u := range m.users {
		if u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) CountRoles(ctx context.Context, ids []int64) (int, error) {
	count := 0
	for _, id := range ids {
		if _, ok := m.roles[id]; ok {
			count++
		}
	}
	return count, nil
}

type recordingDispatcher struct {
	enqueued []int64
	err      error
}

func (d *recordingDispatcher) EnqueueWelcomeEmail(ctx context.Context, userID int64) error {
	if d.err != nil {
		return d.err
	}
	d.enqueued = append(d.enqueued, userID)
	return nil
}

func newTestService(repo *mockRepository, dispatcher WelcomeDispatcher) *Service {
	return NewService(repo, dispatcher, PasswordPolicy{}, slog.Default())
}

func TestCreateUserEnqueuesWelcomeOnce(t *testing.T) {
	repo := newMockRepository()
	dispatcher := &recordingDispatcher{}
	svc := newTestService(repo, dispatcher)

	user, err := svc.Create(context.Background(), "Ada", "Ada@Example.com", "password1", []int64{1})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, []int64{user.ID}, dispatcher.enqueued)
}

func TestCreateUserSurvivesEnqueueFailure(t *testing.T) {
	repo := newMockRepository()
	dispatcher := &recordingDispatcher{err: errors.New("queue down")}
	svc := newTestService(repo, dispatcher)

	user, err := svc.Create(context.Background(), "Ada", "ada@example.com", "password1", []int64{1})
	require.NoError(t, err)
	_, err = repo.Get(context.Background(), user.ID)
	require.NoError(t, err)
}

func TestCreateUserEmailTaken(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &recordingDispatcher{})

	_, err := svc.Create(context.Background(), "Ada", "ada@example.com", "password1", []int64{1})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "Grace", "ADA@example.com", "password1", []int64{1})
	require.Error(t, err)
	var verr *httpx.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields["email"], "The email has already been taken.")
}

func TestCreateUserRequiresRole(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &recordingDispatcher{})

	_, err := svc.Create(context.Background(), "Ada", "ada@example.com", "password1", nil)
	require.Error(t, err)
	var verr *httpx.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields["role_ids"], "At least one role must be assigned to the user.")
}

func TestCreateUserWeakPassword(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &recordingDispatcher{})

	_, err := svc.Create(context.Background(), "Ada", "ada@example.com", "short", []int64{1})
	require.Error(t, err)
	var verr *httpx.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Fields["password"])
}

func TestUpdateUserNeverEnqueues(t *testing.T) {
	repo := newMockRepository()
	dispatcher := &recordingDispatcher{}
	svc := newTestService(repo, dispatcher)

	user, err := svc.Create(context.Background(), "Ada", "ada@example.com", "password1", []int64{1})
	require.NoError(t, err)
	require.Len(t, dispatcher.enqueued, 1)

	_, err = svc.Update(context.Background(), user.ID, "Ada L.", "ada@example.com", "", nil)
	require.NoError(t, err)
	assert.Len(t, dispatcher.enqueued, 1)
}

func TestUpdateUserBlankPasswordKeepsHash(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &recordingDispatcher{})

	user, err := svc.Create(context.Background(), "Ada", "ada@example.com", "password1", []int64{1})
	require.NoError(t, err)
	originalHash := repo.users[user.ID].PasswordHash

	_, err = svc.Update(context.Background(), user.ID, "Ada", "ada@example.com", "", nil)
	require.NoError(t, err)
	assert.Equal(t, originalHash, repo.users[user.ID].PasswordHash)

	_, err = svc.Update(context.Background(), user.ID, "Ada", "ada@example.com", "newpassword1", nil)
	require.NoError(t, err)
	updatedHash := repo.users[user.ID].PasswordHash
	require.NotEqual(t, originalHash, updatedHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(updatedHash), []byte("newpassword1")))
}

func TestDeleteUser(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &recordingDispatcher{})

	user, err := svc.Create(context.Background(), "Ada", "ada@example.com", "password1", []int64{1})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), user.ID))
	err = svc.Delete(context.Background(), user.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}
