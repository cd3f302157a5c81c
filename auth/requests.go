package auth

import "github.com/jrsteele09/go-auth-console/users"

// Backend endpoints
const (
	PathLogin          = "/auth/login"
	PathRegister       = "/auth/register"
	PathLogout         = "/auth/logout"
	PathForgotPassword = "/auth/forgot-password"
	PathResetPassword  = "/auth/reset-password"
	PathRoles          = "/roles"
	PathCurrentUser    = "/users/me"
)

// Navigation targets returned to the caller
const (
	NavLanding              = "/"
	NavDashboard            = "/dashboard"
	NavLoginAfterRegister   = "/login?message=registration-success"
	NavLoginAfterPwdReset   = "/login?message=password-reset"
	RegistrationSuccessCode = "registration-success"
	PasswordResetCode       = "password-reset"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User         users.User `json:"user"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
}

func (r LoginResponse) hasTokens() bool {
	return r.AccessToken != "" && r.RefreshToken != ""
}

type RegisterRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Phone           string `json:"phone,omitempty"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
	RoleID          string `json:"roleId"`
	IsActive        bool   `json:"isActive"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token                string `json:"token"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"passwordConfirmation"`
}
