package auth_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/jrsteele09/go-auth-console/apiclient"
	"github.com/jrsteele09/go-auth-console/auth"
	"github.com/jrsteele09/go-auth-console/credentials"
	"github.com/jrsteele09/go-auth-console/internal/fakebackend"
	"github.com/jrsteele09/go-auth-console/session"
	"github.com/jrsteele09/go-auth-console/users"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "dispatch@example.com"
	testPassword = "Secur3!pass"
	newPassword  = "N3w!Secret"
)

// testFixture holds all test dependencies
type testFixture struct {
	backend *fakebackend.Backend
	store   *credentials.MemoryStore
	client  *apiclient.Client
	state   *session.State
	service *auth.Service
}

// setupTestFixture creates a new test fixture with all dependencies
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		backend: fakebackend.New(),
		store:   credentials.NewMemoryStore(),
	}
	t.Cleanup(f.backend.Close)

	f.client = apiclient.New(f.backend.URL, f.store)
	f.state = session.New(f.store, nil)
	f.client.OnSessionExpired(f.state.Expire)
	f.service = auth.NewService(f.client, f.state,
		auth.WithRolesBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
	)

	f.backend.AddUser(testEmail, testPassword, users.RoleCoursier)
	return f
}

func TestService_Login(t *testing.T) {
	f := setupTestFixture(t)

	user, err := f.service.Login(context.Background(), auth.LoginRequest{Email: testEmail, Password: testPassword})
	require.NoError(t, err)
	require.Equal(t, testEmail, user.Email)
	require.Equal(t, users.RoleCoursier, user.Role)

	snap := f.state.Snapshot()
	require.True(t, snap.IsAuthenticated)
	require.False(t, snap.IsLoading)
	require.Equal(t, user.ID, snap.User.ID)

	cred := f.store.Get()
	require.NotNil(t, cred)
	require.NotEmpty(t, cred.AccessToken)
	require.NotEmpty(t, cred.RefreshToken)
}

func TestService_LoginFailures(t *testing.T) {
	tests := []struct {
		name    string
		req     auth.LoginRequest
		field   string
		root    string
		network bool
	}{
		{
			name:    "unknown account",
			req:     auth.LoginRequest{Email: "ghost@example.com", Password: testPassword},
			field:   auth.FieldEmail,
			network: true,
		},
		{
			name:    "wrong password is generic",
			req:     auth.LoginRequest{Email: testEmail, Password: "wrong-password"},
			root:    "Something went wrong. Please try again.",
			network: true,
		},
		{
			name:  "invalid email never reaches the backend",
			req:   auth.LoginRequest{Email: "not-an-email", Password: testPassword},
			field: auth.FieldEmail,
		},
		{
			name:  "short password never reaches the backend",
			req:   auth.LoginRequest{Email: testEmail, Password: "abc"},
			field: auth.FieldPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t)

			_, err := f.service.Login(context.Background(), tt.req)
			require.Error(t, err)
			if tt.field != "" {
				require.Contains(t, auth.FieldErrors(err), tt.field)
			}
			if tt.root != "" {
				require.Equal(t, tt.root, auth.RootError(err))
			}

			if tt.network {
				require.Equal(t, 1, f.backend.LoginCalls())
			} else {
				require.Zero(t, f.backend.LoginCalls())
			}

			snap := f.state.Snapshot()
			require.False(t, snap.IsAuthenticated)
			require.Nil(t, snap.User)
			require.False(t, snap.IsLoading)
			require.Nil(t, f.store.Get())
			require.Zero(t, f.backend.RefreshCalls())
		})
	}
}

func TestService_LoginUnreachable(t *testing.T) {
	f := setupTestFixture(t)
	f.backend.Close()

	_, err := f.service.Login(context.Background(), auth.LoginRequest{Email: testEmail, Password: testPassword})
	require.Error(t, err)
	require.Contains(t, auth.RootError(err), "Unable to reach the server")
	require.Equal(t, apiclient.KindTransport, apiclient.Classify(err))
}

func TestService_Logout(t *testing.T) {
	t.Run("backend accepts", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.Login(context.Background(), auth.LoginRequest{Email: testEmail, Password: testPassword})
		require.NoError(t, err)

		next := f.service.Logout(context.Background())
		require.Equal(t, auth.NavLanding, next)
		require.Equal(t, 1, f.backend.LogoutCalls())
		require.False(t, f.state.Snapshot().IsAuthenticated)
		require.Nil(t, f.state.User())
		require.Empty(t, f.store.RefreshToken())
	})

	t.Run("backend fails", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.Login(context.Background(), auth.LoginRequest{Email: testEmail, Password: testPassword})
		require.NoError(t, err)
		f.backend.LogoutStatus = http.StatusInternalServerError

		require.Equal(t, auth.NavLanding, f.service.Logout(context.Background()))
		require.Equal(t, 1, f.backend.LogoutCalls())
		require.False(t, f.state.Snapshot().IsAuthenticated)
		require.Nil(t, f.store.Get())
	})

	t.Run("backend unreachable", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.Login(context.Background(), auth.LoginRequest{Email: testEmail, Password: testPassword})
		require.NoError(t, err)
		f.backend.Close()

		require.Equal(t, auth.NavLanding, f.service.Logout(context.Background()))
		require.Nil(t, f.state.User())
		require.Nil(t, f.store.Get())
	})

	t.Run("nothing to revoke", func(t *testing.T) {
		f := setupTestFixture(t)
		require.Equal(t, auth.NavLanding, f.service.Logout(context.Background()))
		require.Zero(t, f.backend.LogoutCalls())
	})
}

func TestService_Register(t *testing.T) {
	valid := auth.RegisterRequest{
		FirstName:       "Moussa",
		LastName:        "Sow",
		Email:           "moussa@example.com",
		Phone:           "+221 77 123 45 67",
		Password:        testPassword,
		ConfirmPassword: testPassword,
		RoleID:          fakebackend.RoleID(users.RoleClient),
	}

	t.Run("sends the backend contract", func(t *testing.T) {
		f := setupTestFixture(t)

		_, err := f.service.Register(context.Background(), valid)
		require.NoError(t, err)

		body := f.backend.LastRegisterBody()
		require.Equal(t, "role-client", body["roleId"])
		require.Equal(t, true, body["isActive"])
		require.Equal(t, valid.Phone, body["phone"])
		require.NotContains(t, body, "role")
		require.NotContains(t, body, "confirmPassword")
	})

	t.Run("redirects to login", func(t *testing.T) {
		f := setupTestFixture(t)

		next, err := f.service.Register(context.Background(), valid)
		require.NoError(t, err)
		require.Equal(t, "/login?message=registration-success", next)
		require.False(t, f.state.Snapshot().IsAuthenticated)
		require.Equal(t, testPassword, f.backend.PasswordOf(valid.Email))
	})

	t.Run("auto login when tokens are returned", func(t *testing.T) {
		f := setupTestFixture(t)
		f.backend.RegisterIssuesTokens = true

		next, err := f.service.Register(context.Background(), valid)
		require.NoError(t, err)
		require.Equal(t, auth.NavDashboard, next)
		require.True(t, f.state.Snapshot().IsAuthenticated)
		require.Equal(t, valid.Email, f.state.User().Email)
	})

	t.Run("duplicate email maps to the field", func(t *testing.T) {
		f := setupTestFixture(t)
		dup := valid
		dup.Email = testEmail

		_, err := f.service.Register(context.Background(), dup)
		require.Equal(t, "email already registered", auth.FieldErrors(err)[auth.FieldEmail])
		require.False(t, f.state.Snapshot().IsAuthenticated)
	})

	t.Run("validation", func(t *testing.T) {
		f := setupTestFixture(t)
		bad := valid
		bad.FirstName = "M"
		bad.Password = "weak"
		bad.ConfirmPassword = "different"
		bad.RoleID = ""

		_, err := f.service.Register(context.Background(), bad)
		fields := auth.FieldErrors(err)
		require.Contains(t, fields, auth.FieldFirstName)
		require.Contains(t, fields, auth.FieldPassword)
		require.Contains(t, fields, auth.FieldConfirmPassword)
		require.Contains(t, fields, auth.FieldRole)
		require.Empty(t, f.backend.PasswordOf(valid.Email))
		require.Zero(t, f.backend.RolesCalls())
	})

	t.Run("role must be listed by the backend", func(t *testing.T) {
		f := setupTestFixture(t)
		bad := valid
		bad.RoleID = string(users.RoleClient)

		_, err := f.service.Register(context.Background(), bad)
		require.Equal(t, map[string]string{auth.FieldRole: "Please select a role"}, auth.FieldErrors(err))
		require.Empty(t, f.backend.PasswordOf(valid.Email))
		require.Equal(t, 2, f.backend.RolesCalls(), "a miss refetches once")
	})

	t.Run("role added after the cache filled", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.Roles(context.Background())
		require.NoError(t, err)

		dispatcher := f.backend.AddRole("dispatcher")
		req := valid
		req.RoleID = dispatcher.ID

		_, err = f.service.Register(context.Background(), req)
		require.NoError(t, err)
		require.Equal(t, dispatcher.ID, f.backend.LastRegisterBody()["roleId"])
		require.Equal(t, 2, f.backend.RolesCalls())
	})

	t.Run("roles unavailable", func(t *testing.T) {
		f := setupTestFixture(t)
		f.backend.RolesFailures = 10

		_, err := f.service.Register(context.Background(), valid)
		require.Equal(t, "Something went wrong. Please try again.", auth.RootError(err))
		require.Empty(t, f.backend.PasswordOf(valid.Email))
	})
}

func TestService_PasswordReset(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	t.Run("unknown email", func(t *testing.T) {
		err := f.service.RequestPasswordReset(ctx, "ghost@example.com")
		require.Contains(t, auth.FieldErrors(err), auth.FieldEmail)
	})

	require.NoError(t, f.service.RequestPasswordReset(ctx, testEmail))
	token := f.backend.ResetTokenFor(testEmail)
	require.NotEmpty(t, token)

	t.Run("mismatched confirmation", func(t *testing.T) {
		_, err := f.service.ResetPassword(ctx, auth.ResetPasswordRequest{Token: token, Password: newPassword, PasswordConfirmation: "nope"})
		require.Contains(t, auth.FieldErrors(err), auth.FieldPasswordConfirmation)
	})

	t.Run("invalid token", func(t *testing.T) {
		_, err := f.service.ResetPassword(ctx, auth.ResetPasswordRequest{Token: "bogus", Password: newPassword, PasswordConfirmation: newPassword})
		require.Equal(t, "This reset link is invalid or has expired", auth.RootError(err))
	})

	next, err := f.service.ResetPassword(ctx, auth.ResetPasswordRequest{Token: token, Password: newPassword, PasswordConfirmation: newPassword})
	require.NoError(t, err)
	require.Equal(t, auth.NavLoginAfterPwdReset, next)
	require.Equal(t, newPassword, f.backend.PasswordOf(testEmail))
	require.False(t, f.state.Snapshot().IsAuthenticated, "reset never signs the user in")
}

func TestService_RefreshThroughCurrentUser(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.service.Login(ctx, auth.LoginRequest{Email: testEmail, Password: testPassword})
	require.NoError(t, err)
	first := f.store.Get().AccessToken

	f.backend.ExpireAccessTokens()
	u, err := f.service.CurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, testEmail, u.Email)
	require.NotEqual(t, first, f.store.Get().AccessToken)
	require.True(t, f.state.Snapshot().IsAuthenticated)

	t.Run("rejected refresh clears the session", func(t *testing.T) {
		f.backend.ExpireAccessTokens()
		f.backend.RefreshStatus = http.StatusUnauthorized

		_, err := f.service.CurrentUser(ctx)
		require.ErrorIs(t, err, apiclient.ErrSessionExpired)
		snap := f.state.Snapshot()
		require.False(t, snap.IsAuthenticated)
		require.Nil(t, snap.User)
	})
}
