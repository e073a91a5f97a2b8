package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"barbershop_backend/internal/common"
	"barbershop_backend/internal/config"
	"barbershop_backend/internal/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, u *User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func newTestService(repo Repository) *ServiceImplementation {
	return NewService(repo, &config.Config{BcryptCost: bcrypt.MinCost}, zap.NewNop())
}

func existingUser(email, password string) *User {
	u := &User{Name: "Maria", Email: email}
	u.ID = uuid.New()
	if password != "" {
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		h := string(hash)
		u.PasswordHash = &h
	}
	return u
}

func TestRegister_HashesPasswordAndCreates(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newTestService(repo)
	ctx := context.Background()

	repo.On("FindByEmail", ctx, "ana@example.com").Return(nil, common.ErrNotFound)
	repo.On("Create", ctx, mock.AnythingOfType("*user.User")).Run(func(args mock.Arguments) {
		u := args.Get(1).(*User)
		u.ID = uuid.New()
	}).Return(nil)

	got, err := svc.Register(ctx, CreateUserRequest{
		Name:     "Ana",
		Email:    "ana@example.com",
		Password: "abcd",
		Phone:    "(11)91234-5678",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.True(t, got.HasPassword)

	created := repo.Calls[1].Arguments.Get(1).(*User)
	require.NotNil(t, created.PasswordHash)
	assert.NotEqual(t, "abcd", *created.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*created.PasswordHash), []byte("abcd")))
	repo.AssertExpectations(t)
}

func TestRegister_StripsMarkupFromName(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newTestService(repo)
	ctx := context.Background()

	repo.On("FindByEmail", ctx, "tag@example.com").Return(nil, common.ErrNotFound)
	repo.On("Create", ctx, mock.AnythingOfType("*user.User")).Return(nil)

	got, err := svc.Register(ctx, CreateUserRequest{
		Name:     "  <b>Ana</b><script>alert(1)</script> &lt;img src=x onerror=alert(1)&gt;",
		Email:    "tag@example.com",
		Password: "abcd",
		Phone:    "(11)91234-5678",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Name)

	created := repo.Calls[1].Arguments.Get(1).(*User)
	assert.Equal(t, "Ana", created.Name)
}

func TestRegister_UsesConfiguredCost(t *testing.T) {
	repo := new(MockUserRepository)
	svc := NewService(repo, &config.Config{BcryptCost: 10}, zap.NewNop())
	ctx := context.Background()

	repo.On("FindByEmail", ctx, "cost@example.com").Return(nil, common.ErrNotFound)
	repo.On("Create", ctx, mock.AnythingOfType("*user.User")).Return(nil)

	_, err := svc.Register(ctx, CreateUserRequest{Name: "Cost", Email: "cost@example.com", Password: "abcd", Phone: "(11)91234-5678"})
	require.NoError(t, err)

	created := repo.Calls[1].Arguments.Get(1).(*User)
	cost, err := bcrypt.Cost([]byte(*created.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, 10, cost)
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newTestService(repo)
	ctx := context.Background()

	repo.On("FindByEmail", ctx, "dup@example.com").Return(existingUser("dup@example.com", "abcd"), nil)

	_, err := svc.Register(ctx, CreateUserRequest{Name: "Dup", Email: "dup@example.com", Password: "abcd", Phone: "(11)91234-5678"})
	assert.ErrorIs(t, err, common.ErrEmailAlreadyExists)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_RaceOnUniqueIndexConflicts(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newTestService(repo)
	ctx := context.Background()

	repo.On("FindByEmail", ctx, "race@example.com").Return(nil, common.ErrNotFound)
	repo.On("Create", ctx, mock.AnythingOfType("*user.User")).Return(common.ErrEmailAlreadyExists)

	_, err := svc.Register(ctx, CreateUserRequest{Name: "Race", Email: "race@example.com", Password: "abcd", Phone: "(11)91234-5678"})
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 409, apiErr.StatusCode)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	oauthOnly := existingUser("oauth@example.com", "")

	tests := []struct {
		name     string
		email    string
		password string
		found    *User
		findErr  error
		wantErr  error
	}{
		{name: "valid credentials", email: "ok@example.com", password: "abcd", found: existingUser("ok@example.com", "abcd")},
		{name: "wrong password", email: "ok@example.com", password: "nope", found: existingUser("ok@example.com", "abcd"), wantErr: common.ErrInvalidCredentials},
		{name: "unknown email", email: "ghost@example.com", password: "abcd", findErr: common.ErrNotFound, wantErr: common.ErrInvalidCredentials},
		{name: "account without password", email: "oauth@example.com", password: "abcd", found: oauthOnly, wantErr: common.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			svc := newTestService(repo)
			if tt.found != nil {
				repo.On("FindByEmail", ctx, tt.email).Return(tt.found, nil)
			} else {
				repo.On("FindByEmail", ctx, tt.email).Return(nil, tt.findErr)
			}

			got, err := svc.Authenticate(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.found.ID, got.ID)
		})
	}
}

func TestAuthenticate_RepositoryFailureIsNotUnauthorized(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newTestService(repo)
	ctx := context.Background()
	boom := errors.New("connection reset")

	repo.On("FindByEmail", ctx, "x@example.com").Return(nil, boom)

	_, err := svc.Authenticate(ctx, "x@example.com", "abcd")
	assert.ErrorIs(t, err, boom)
}

func TestFindOrCreateOAuthUser_CreatesPasswordlessUser(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newTestService(repo)
	ctx := context.Background()

	repo.On("FindByEmail", ctx, "new@example.com").Return(nil, common.ErrNotFound)
	repo.On("Create", ctx, mock.AnythingOfType("*user.User")).Return(nil)

	got, created, err := svc.FindOrCreateOAuthUser(ctx, shared.OAuthUserProfile{
		Provider:      "google",
		ProviderID:    "g-1",
		Email:         "New@Example.com",
		Name:          "<i>New Person</i>",
		PictureURL:    "https://example.com/a.png",
		EmailVerified: true,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "New Person", got.Name)
	assert.False(t, got.HasPassword)
	assert.True(t, got.EmailVerified)
	assert.Equal(t, "new@example.com", got.Email)
}

func TestFindOrCreateOAuthUser_ReusesExistingEmail(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newTestService(repo)
	ctx := context.Background()
	existing := existingUser("same@example.com", "abcd")

	repo.On("FindByEmail", ctx, "same@example.com").Return(existing, nil)
	repo.On("Update", ctx, existing).Return(nil)

	got, created, err := svc.FindOrCreateOAuthUser(ctx, shared.OAuthUserProfile{
		Provider:   "google",
		Email:      "same@example.com",
		PictureURL: "https://example.com/b.png",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing.ID, got.ID)
	require.NotNil(t, got.AvatarURL)
	assert.True(t, got.HasPassword)
}

func TestFindOrCreateOAuthUser_RequiresEmail(t *testing.T) {
	svc := newTestService(new(MockUserRepository))

	_, _, err := svc.FindOrCreateOAuthUser(context.Background(), shared.OAuthUserProfile{Provider: "apple"})
	assert.ErrorIs(t, err, common.ErrBadRequest)
}
