package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/jrsteele09/go-auth-console/apiclient"
	"github.com/jrsteele09/go-auth-console/credentials"
	"github.com/jrsteele09/go-auth-console/session"
	"github.com/jrsteele09/go-auth-console/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	loginErrors = statusMapping{
		http.StatusNotFound:   fieldError(FieldEmail, "No account found with this email address"),
		http.StatusBadRequest: rootError("Please check your email and password"),
	}
	registerErrors = statusMapping{
		http.StatusBadRequest: backendFields("Please check the highlighted fields"),
		http.StatusConflict:   fieldError(FieldEmail, "An account already exists with this email address"),
	}
	forgotPasswordErrors = statusMapping{
		http.StatusNotFound:   fieldError(FieldEmail, "No account found with this email address"),
		http.StatusBadRequest: fieldError(FieldEmail, "Invalid email address"),
	}
	resetPasswordErrors = statusMapping{
		http.StatusBadRequest: rootError("This reset link is invalid or has expired"),
		http.StatusNotFound:   rootError("This reset link is invalid or has expired"),
	}
)

// Service runs the auth flows for one session
type Service struct {
	client       *apiclient.Client
	session      *session.State
	lifetimes    credentials.Lifetimes
	roles        *RolesCache
	rolesBackOff func() backoff.BackOff
	logger       zerolog.Logger
}

type Option func(*Service)

func WithLifetimes(l credentials.Lifetimes) Option {
	return func(s *Service) { s.lifetimes = l }
}

// WithRolesCache shares one roles cache between services
func WithRolesCache(c *RolesCache) Option {
	return func(s *Service) { s.roles = c }
}

func WithRolesBackOff(fn func() backoff.BackOff) Option {
	return func(s *Service) { s.rolesBackOff = fn }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(client *apiclient.Client, state *session.State, opts ...Option) *Service {
	s := &Service{
		client:       client,
		session:      state,
		lifetimes:    credentials.DefaultLifetimes(),
		rolesBackOff: RolesBackOff,
		logger:       log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.roles == nil {
		s.roles = NewRolesCache(DefaultRolesCacheTTL)
	}
	return s
}

func (s *Service) Session() *session.State {
	return s.session
}

// Login authenticates and, on success, stores the credential and user as
// one unit. On failure the session is left as it was.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*users.UserSummary, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.session.SetLoading(true)
	defer s.session.SetLoading(false)

	var res LoginResponse
	if err := s.client.Post(ctx, PathLogin, req, &res); err != nil {
		s.logger.Debug().Err(err).Msg("login rejected")
		return nil, loginErrors.mapError(err)
	}
	if !res.hasTokens() {
		return nil, &FormError{Root: msgGeneric, Err: fmt.Errorf("[auth Login] response without tokens")}
	}

	return s.authenticate(res)
}

func (s *Service) authenticate(res LoginResponse) (*users.UserSummary, error) {
	summary := res.User.Summary()
	cred := credentials.New(res.AccessToken, res.RefreshToken, s.lifetimes)
	if err := s.session.Login(summary, cred); err != nil {
		return nil, fmt.Errorf("[auth authenticate] %w", err)
	}
	return &summary, nil
}

// Logout tells the backend on a best-effort basis and always clears the
// local session. It returns where to navigate next.
func (s *Service) Logout(ctx context.Context) string {
	store := s.client.Store()
	refreshToken := store.RefreshToken()

	if store.Present() || refreshToken != "" {
		if err := s.client.Post(ctx, PathLogout, LogoutRequest{RefreshToken: refreshToken}, nil); err != nil {
			s.logger.Warn().Err(err).Msg("backend logout failed; clearing local session anyway")
		}
	}

	s.session.Logout()
	return NavLanding
}

// Register creates the account. The session is authenticated only when the
// backend returns a usable credential pair; otherwise the caller is sent to
// login with a success notice.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (string, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return "", err
	}

	// Accounts created from the console start active
	req.IsActive = true

	s.session.SetLoading(true)
	defer s.session.SetLoading(false)

	if err := s.checkRole(ctx, req.RoleID); err != nil {
		return "", err
	}

	var res LoginResponse
	if err := s.client.Post(ctx, PathRegister, req, &res); err != nil {
		return "", registerErrors.mapError(err)
	}

	if res.hasTokens() {
		if _, err := s.authenticate(res); err != nil {
			s.logger.Err(err).Msg("registered but could not start a session")
			return NavLoginAfterRegister, nil
		}
		return NavDashboard, nil
	}
	return NavLoginAfterRegister, nil
}

func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	req := ForgotPasswordRequest{Email: strings.TrimSpace(email)}
	if err := req.Validate(); err != nil {
		return err
	}
	return forgotPasswordErrors.mapError(s.client.Post(ctx, PathForgotPassword, req, nil))
}

func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	if err := resetPasswordErrors.mapError(s.client.Post(ctx, PathResetPassword, req, nil)); err != nil {
		return "", err
	}
	return NavLoginAfterPwdReset, nil
}

// CurrentUser fetches the signed-in user's profile through the refreshing client
func (s *Service) CurrentUser(ctx context.Context) (*users.User, error) {
	var u users.User
	if err := s.client.Get(ctx, PathCurrentUser, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
