package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ritel/internal/core/apperror"
	corectx "ritel/internal/core/context"
)

type fakeUserRepo struct {
	users map[string]*User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, u *User) error {
	r.users[u.Username] = u
	return nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, apperror.NewNotFound("user", username)
	}
	return u, nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	u, ok := r.users[username]
	if !ok {
		return apperror.NewNotFound("user", username)
	}
	u.PasswordHash = passwordHash
	return nil
}

func newAuthService() (*Service, *fakeUserRepo) {
	repo := newFakeUserRepo()
	tokens := NewTokenService(TokenConfig{Secret: "test-secret", TTL: time.Hour})
	return NewService(repo, tokens), repo
}

func TestLogin_RoundTrip(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, "kasir1", "hunter2hunter2", corectx.RoleStaff)
	require.NoError(t, err)

	token, loggedIn, err := svc.Login(ctx, "kasir1", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, u.ID, loggedIn.ID)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "kasir1", claims.Username)
	assert.Equal(t, corectx.RoleStaff, claims.Role)
	assert.Equal(t, u.ID.String(), claims.UserID)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "kasir1", "hunter2hunter2", corectx.RoleStaff)
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "kasir1", "wrong-password")
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))
}

func TestLogin_UnknownUserSameError(t *testing.T) {
	svc, _ := newAuthService()

	_, _, err := svc.Login(context.Background(), "nobody", "whatever")
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))
}

func TestLogin_InactiveUserRejected(t *testing.T) {
	svc, repo := newAuthService()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "kasir1", "hunter2hunter2", corectx.RoleStaff)
	require.NoError(t, err)
	repo.users["kasir1"].Active = false

	_, _, err = svc.Login(ctx, "kasir1", "hunter2hunter2")
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))
}

func TestCreateUser_Validation(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "kasir1", "short", corectx.RoleStaff)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = svc.CreateUser(ctx, "kasir1", "hunter2hunter2", "OWNER")
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = svc.CreateUser(ctx, "kasir1", "hunter2hunter2", corectx.RoleStaff)
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, "kasir1", "hunter2hunter2", corectx.RoleStaff)
	assert.True(t, apperror.IsCode(err, apperror.CodeDuplicate))
}

func TestVerifyToken_Expired(t *testing.T) {
	repo := newFakeUserRepo()
	tokens := NewTokenService(TokenConfig{Secret: "test-secret", TTL: time.Minute})
	svc := NewService(repo, tokens)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "kasir1", "hunter2hunter2", corectx.RoleStaff)
	require.NoError(t, err)
	token, _, err := svc.Login(ctx, "kasir1", "hunter2hunter2")
	require.NoError(t, err)

	tokens.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = svc.VerifyToken(token)
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "kasir1", "hunter2hunter2", corectx.RoleStaff)
	require.NoError(t, err)
	token, _, err := svc.Login(ctx, "kasir1", "hunter2hunter2")
	require.NoError(t, err)

	other := NewTokenService(TokenConfig{Secret: "other-secret"})
	_, err = other.Verify(token)
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))
}
