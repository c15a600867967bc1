package session

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/approvalflow/workflow-client/internal/gateway"
	"github.com/approvalflow/workflow-client/internal/session/model"
	"github.com/approvalflow/workflow-client/internal/system/error/serviceerror"
)

type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) Login(ctx context.Context, credentials model.Credentials) (*gateway.LoginResult, error) {
	args := m.Called(ctx, credentials)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.LoginResult), args.Error(1)
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, auth Authenticator) (*Service, *FileStore) {
	t.Helper()
	store := newTestStore(t)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	svc := NewService(NewHolder(), store, auth, logger)
	svc.now = func() time.Time { return testNow }
	return svc, store
}

func validCredentials() model.Credentials {
	return model.Credentials{Email: "maria@example.com", Password: "secret"}
}

func TestLogin_PopulatesHolderAndStore(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "m1", "exp": testNow.Add(time.Hour).Unix()})
	auth := &mockAuthenticator{}
	auth.On("Login", mock.Anything, validCredentials()).Return(&gateway.LoginResult{
		Token:    token,
		Identity: model.Identity{ID: "m1", Name: "Maria", Roles: model.RoleSet{"Manager", "Manager"}, Active: true},
	}, nil)

	svc, store := newTestService(t, auth)
	identity, svcErr := svc.Login(context.Background(), validCredentials())

	require.Nil(t, svcErr)
	assert.Equal(t, model.RoleSet{model.RoleManager}, identity.Roles)
	assert.Equal(t, token, svc.Holder().Token())
	assert.True(t, svc.Holder().Capabilities().CanReview)
	assert.True(t, testNow.Add(time.Hour).Equal(svc.Holder().ExpiresAt()))

	snapshot, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, token, snapshot.Token)
	auth.AssertExpectations(t)
}

func TestLogin_Refusals(t *testing.T) {
	tests := []struct {
		name     string
		result   *gateway.LoginResult
		err      error
		expected serviceerror.ServiceError
	}{
		{
			name:     "bad credentials",
			err:      &gateway.StatusError{StatusCode: 401, Message: "Invalid credentials"},
			expected: serviceerror.AuthenticationLostError,
		},
		{
			name:     "inactive",
			result:   &gateway.LoginResult{Token: "tok", Identity: model.Identity{ID: "u1", Roles: model.NewRoleSet("User")}},
			expected: serviceerror.AuthenticationLostError,
		},
		{
			name:     "no role",
			result:   &gateway.LoginResult{Token: "tok", Identity: model.Identity{ID: "u1", Active: true}},
			expected: serviceerror.AuthenticationLostError,
		},
		{
			name:     "remote down",
			err:      errors.Join(gateway.ErrRemote, errors.New("connection refused")),
			expected: serviceerror.RemoteFailureError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &mockAuthenticator{}
			if tt.result != nil {
				auth.On("Login", mock.Anything, mock.Anything).Return(tt.result, nil)
			} else {
				auth.On("Login", mock.Anything, mock.Anything).Return(nil, tt.err)
			}

			svc, store := newTestService(t, auth)
			identity, svcErr := svc.Login(context.Background(), validCredentials())

			assert.Nil(t, identity)
			require.NotNil(t, svcErr)
			assert.True(t, svcErr.Is(tt.expected), svcErr.String())
			assert.Empty(t, svc.Holder().Token())
			_, err := os.Stat(store.Path())
			assert.True(t, os.IsNotExist(err))
		})
	}
}

func TestLogin_MissingCredentials(t *testing.T) {
	auth := &mockAuthenticator{}
	svc, _ := newTestService(t, auth)

	_, svcErr := svc.Login(context.Background(), model.Credentials{Email: "maria@example.com"})

	require.NotNil(t, svcErr)
	assert.True(t, svcErr.Is(serviceerror.ValidationError))
	auth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}

func TestLogout_ClearsHolderAndStore(t *testing.T) {
	auth := &mockAuthenticator{}
	auth.On("Login", mock.Anything, mock.Anything).Return(&gateway.LoginResult{
		Token:    "opaque",
		Identity: model.Identity{ID: "u1", Roles: model.NewRoleSet("User"), Active: true},
	}, nil)
	svc, store := newTestService(t, auth)
	_, svcErr := svc.Login(context.Background(), validCredentials())
	require.Nil(t, svcErr)

	require.Nil(t, svc.Logout(context.Background()))

	assert.Equal(t, model.Capabilities{}, svc.Holder().Capabilities())
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRestore(t *testing.T) {
	svc, store := newTestService(t, &mockAuthenticator{})
	ctx := context.Background()

	_, svcErr := svc.Restore(ctx)
	require.NotNil(t, svcErr)
	assert.True(t, svcErr.Is(serviceerror.AuthenticationLostError))

	require.NoError(t, store.Save(ctx, Snapshot{
		Token:     "opaque",
		Identity:  model.Identity{ID: "u1", Roles: model.NewRoleSet("User"), Active: true},
		ExpiresAt: testNow.Add(time.Hour),
	}))

	identity, svcErr := svc.Restore(ctx)
	require.Nil(t, svcErr)
	assert.Equal(t, "u1", identity.ID)
	assert.Equal(t, "opaque", svc.Holder().Token())
	assert.True(t, svc.Holder().Capabilities().CanSubmit)
}

func TestRestore_ExpiredTokenClearsFile(t *testing.T) {
	svc, store := newTestService(t, &mockAuthenticator{})
	ctx := context.Background()

	token := signedToken(t, jwt.MapClaims{"sub": "u1", "exp": testNow.Add(-time.Minute).Unix()})
	require.NoError(t, store.Save(ctx, Snapshot{
		Token:    token,
		Identity: model.Identity{ID: "u1", Roles: model.NewRoleSet("User"), Active: true},
	}))

	_, svcErr := svc.Restore(ctx)

	require.NotNil(t, svcErr)
	assert.True(t, svcErr.Is(serviceerror.AuthenticationLostError))
	assert.Empty(t, svc.Holder().Token())
	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestActive_ReturnsHeldIdentity(t *testing.T) {
	svc, _ := newTestService(t, &mockAuthenticator{})
	svc.Holder().SetSession("tok", model.Identity{ID: "u1", Roles: model.NewRoleSet("User"), Active: true}, testNow.Add(time.Minute))

	identity, svcErr := svc.Active(context.Background())

	require.Nil(t, svcErr)
	assert.Equal(t, "u1", identity.ID)
	assert.Equal(t, "tok", svc.Holder().Token())
}

func TestActive_NotSignedIn(t *testing.T) {
	svc, _ := newTestService(t, &mockAuthenticator{})

	_, svcErr := svc.Active(context.Background())

	require.NotNil(t, svcErr)
	assert.True(t, svcErr.Is(serviceerror.AuthenticationLostError))
}

func TestActive_ExpiredTokenDropsSession(t *testing.T) {
	svc, store := newTestService(t, &mockAuthenticator{})
	ctx := context.Background()
	identity := model.Identity{ID: "u1", Roles: model.NewRoleSet("User"), Active: true}
	require.NoError(t, store.Save(ctx, Snapshot{Token: "tok", Identity: identity, ExpiresAt: testNow}))
	svc.Holder().SetSession("tok", identity, testNow)

	_, svcErr := svc.Active(ctx)

	require.NotNil(t, svcErr)
	assert.True(t, svcErr.Is(serviceerror.AuthenticationLostError))
	assert.Empty(t, svc.Holder().Token())
	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRestore_CorruptFileIsDiscarded(t *testing.T) {
	svc, store := newTestService(t, &mockAuthenticator{})
	require.NoError(t, store.Save(context.Background(), Snapshot{Token: "tok"}))
	require.NoError(t, os.WriteFile(store.Path(), []byte(":::"), 0o600))

	_, svcErr := svc.Restore(context.Background())

	require.NotNil(t, svcErr)
	assert.True(t, svcErr.Is(serviceerror.AuthenticationLostError))
	_, err := os.Stat(store.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestInvalidate(t *testing.T) {
	svc, store := newTestService(t, &mockAuthenticator{})
	ctx := context.Background()
	identity := model.Identity{ID: "u1", Roles: model.NewRoleSet("User"), Active: true}
	svc.Holder().SetSession("tok", identity, time.Time{})
	require.NoError(t, store.Save(ctx, Snapshot{Token: "tok", Identity: identity}))

	svc.Invalidate(ctx)

	_, ok := svc.Holder().CurrentIdentity()
	assert.False(t, ok)
	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}
