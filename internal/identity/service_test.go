package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focustimer/backend/internal/identity"
	"focustimer/backend/internal/store"
	"focustimer/backend/internal/testutil"
)

func newService(t *testing.T) (*identity.Service, *store.UserRepository) {
	t.Helper()
	database := testutil.NewTestDB(t)
	userRepo := store.NewUserRepository(database)
	return identity.NewService(userRepo, "test-secret", 24*time.Hour), userRepo
}

func TestRegister_CreatesUserProfileAndToken(t *testing.T) {
	service, users := newService(t)
	ctx := context.Background()

	result, apiErr := service.Register(ctx, "User@Example.com ", "secret1")
	require.Nil(t, apiErr)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "user@example.com", result.User.Email)
	assert.False(t, result.User.IsAnonymous)
	assert.Empty(t, result.User.PasswordHash)

	hasProfile, err := users.HasProfile(ctx, result.User.ID)
	require.NoError(t, err)
	assert.True(t, hasProfile, "registration guarantees the profile document")

	userID, anonymous, parseErr := service.ParseToken(result.Token)
	require.Nil(t, parseErr)
	assert.Equal(t, result.User.ID, userID)
	assert.False(t, anonymous)
}

func TestRegister_RejectsDuplicateEmail(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	_, apiErr := service.Register(ctx, "dupe@example.com", "secret1")
	require.Nil(t, apiErr)

	_, apiErr = service.Register(ctx, "dupe@example.com", "secret2")
	require.NotNil(t, apiErr)
	assert.Equal(t, "email_exists", apiErr.Code)
}

func TestRegister_ValidatesInput(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	_, apiErr := service.Register(ctx, "  ", "secret1")
	require.NotNil(t, apiErr)
	assert.Equal(t, "invalid_email", apiErr.Code)

	_, apiErr = service.Register(ctx, "short@example.com", "abc")
	require.NotNil(t, apiErr)
	assert.Equal(t, "invalid_password", apiErr.Code)
}

func TestLogin_RoundTrip(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	_, apiErr := service.Register(ctx, "login@example.com", "secret1")
	require.Nil(t, apiErr)

	result, apiErr := service.Login(ctx, "login@example.com", "secret1")
	require.Nil(t, apiErr)
	assert.NotEmpty(t, result.Token)

	_, apiErr = service.Login(ctx, "login@example.com", "wrong")
	require.NotNil(t, apiErr)
	assert.Equal(t, "unauthorized", apiErr.Code)

	_, apiErr = service.Login(ctx, "nobody@example.com", "secret1")
	require.NotNil(t, apiErr)
	assert.Equal(t, "unauthorized", apiErr.Code)
}

func TestSignInAnonymously_TokenCarriesAnonFlag(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	result, apiErr := service.SignInAnonymously(ctx)
	require.Nil(t, apiErr)
	assert.True(t, result.User.IsAnonymous)
	assert.Empty(t, result.User.Email)

	userID, anonymous, parseErr := service.ParseToken(result.Token)
	require.Nil(t, parseErr)
	assert.Equal(t, result.User.ID, userID)
	assert.True(t, anonymous)
}

func TestIsRegistered_Gate(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	registered, apiErr := service.Register(ctx, "gate@example.com", "secret1")
	require.Nil(t, apiErr)
	anonymous, apiErr := service.SignInAnonymously(ctx)
	require.Nil(t, apiErr)

	assert.True(t, service.IsRegistered(ctx, registered.User.ID))
	assert.False(t, service.IsRegistered(ctx, anonymous.User.ID))
	assert.False(t, service.IsRegistered(ctx, ""))
	assert.False(t, service.IsRegistered(ctx, "no-such-user"))
}

func TestParseToken_RejectsGarbage(t *testing.T) {
	service, _ := newService(t)

	_, _, apiErr := service.ParseToken("not-a-token")
	require.NotNil(t, apiErr)
	assert.Equal(t, "unauthorized", apiErr.Code)
}
