// Package fakebackend is an in-process stand-in for the logistics API used by
// tests. It issues short JWT access tokens and rotating opaque refresh tokens.
package fakebackend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-console/internal/utils"
	"github.com/jrsteele09/go-auth-console/users"
)

const (
	PathLogin          = "/auth/login"
	PathRegister       = "/auth/register"
	PathRefresh        = "/auth/refresh"
	PathLogout         = "/auth/logout"
	PathForgotPassword = "/auth/forgot-password"
	PathResetPassword  = "/auth/reset-password"
	PathRoles          = "/roles"
	PathMe             = "/users/me"
)

var signingKey = []byte("fakebackend-signing-key")

type account struct {
	password string
	user     users.User
}

type Backend struct {
	*httptest.Server

	mu            sync.Mutex
	accounts      map[string]account // email -> account
	validAccess   map[string]string  // access token -> email
	refreshTokens map[string]string  // refresh token -> email
	resetTokens   map[string]string  // reset token -> email
	roles         []users.Role
	seq           int
	lastRegister  map[string]any // decoded body of the latest register call

	// Behaviour switches, set before the calls they affect
	RefreshGate          chan struct{} // refresh blocks until closed
	RefreshStatus        int           // non-zero forces the refresh response status
	LogoutStatus         int
	RolesFailures        int // initial GET /roles calls answered with 503
	RegisterIssuesTokens bool
	AccessTTL            time.Duration

	refreshCalls atomic.Int32
	rolesCalls   atomic.Int32
	loginCalls   atomic.Int32
	logoutCalls  atomic.Int32
	meCalls      atomic.Int32
}

func New() *Backend {
	b := &Backend{
		accounts:      make(map[string]account),
		validAccess:   make(map[string]string),
		refreshTokens: make(map[string]string),
		resetTokens:   make(map[string]string),
		AccessTTL:     time.Hour,
		roles: []users.Role{
			{ID: RoleID(users.RoleAdmin), Name: users.RoleAdmin},
			{ID: RoleID(users.RoleCoursier), Name: users.RoleCoursier},
			{ID: RoleID(users.RoleClient), Name: users.RoleClient},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+PathLogin, b.handleLogin)
	mux.HandleFunc("POST "+PathRegister, b.handleRegister)
	mux.HandleFunc("POST "+PathRefresh, b.handleRefresh)
	mux.HandleFunc("POST "+PathLogout, b.handleLogout)
	mux.HandleFunc("POST "+PathForgotPassword, b.handleForgotPassword)
	mux.HandleFunc("POST "+PathResetPassword, b.handleResetPassword)
	mux.HandleFunc("GET "+PathRoles, b.handleRoles)
	mux.HandleFunc("GET "+PathMe, counted(&b.meCalls, b.requireAuth(b.handleMe)))
	b.Server = httptest.NewServer(mux)
	return b
}

// RoleID is the ID the backend gives a role name
func RoleID(name users.RoleType) string {
	return "role-" + string(name)
}

// AddUser registers an active account and returns its user record
func (b *Backend) AddUser(email, password string, role users.RoleType) users.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(email, password, "Test", "User", users.RoleRef{ID: RoleID(role), Name: role}, true)
}

// AddRole makes a new role assignable
func (b *Backend) AddRole(name users.RoleType) users.Role {
	b.mu.Lock()
	defer b.mu.Unlock()
	r := users.Role{ID: RoleID(name), Name: name}
	b.roles = append(b.roles, r)
	return r
}

// LastRegisterBody returns the JSON object the latest register call sent
func (b *Backend) LastRegisterBody() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastRegister
}

func (b *Backend) addUserLocked(email, password, first, last string, role users.RoleRef, active bool) users.User {
	b.seq++
	u := users.User{
		ID:        fmt.Sprintf("user-%d", b.seq),
		FirstName: first,
		LastName:  last,
		Email:     email,
		Role:      role,
		IsActive:  active,
	}
	b.accounts[email] = account{password: password, user: u}
	return u
}

// ExpireAccessTokens makes every issued access token answer 401
func (b *Backend) ExpireAccessTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.validAccess = make(map[string]string)
}

// ResetTokenFor returns the reset token issued by forgot-password
func (b *Backend) ResetTokenFor(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	for token, e := range b.resetTokens {
		if e == email {
			return token
		}
	}
	return ""
}

func (b *Backend) PasswordOf(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.accounts[email].password
}

func (b *Backend) RefreshCalls() int { return int(b.refreshCalls.Load()) }
func (b *Backend) RolesCalls() int   { return int(b.rolesCalls.Load()) }
func (b *Backend) LoginCalls() int   { return int(b.loginCalls.Load()) }
func (b *Backend) LogoutCalls() int  { return int(b.logoutCalls.Load()) }
func (b *Backend) MeCalls() int      { return int(b.meCalls.Load()) }

func (b *Backend) issueLocked(email string) (string, string) {
	claims := jwt.RegisteredClaims{
		Subject:   email,
		ID:        uuid.New().String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(b.AccessTTL)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic(err)
	}
	refresh := "refresh-" + uuid.New().String()
	b.validAccess[access] = email
	b.refreshTokens[refresh] = email
	return access, refresh
}

type loginResponse struct {
	User         users.User `json:"user"`
	AccessToken  string     `json:"accessToken,omitempty"`
	RefreshToken string     `json:"refreshToken,omitempty"`
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	b.loginCalls.Add(1)

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required", nil)
		return
	}

	b.mu.Lock()
	acc, ok := b.accounts[req.Email]
	if !ok {
		b.mu.Unlock()
		writeError(w, http.StatusNotFound, "user not found", nil)
		return
	}
	if acc.password != req.Password {
		b.mu.Unlock()
		writeError(w, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	access, refresh := b.issueLocked(req.Email)
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, loginResponse{User: acc.user, AccessToken: access, RefreshToken: refresh})
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body", nil)
		return
	}
	body, _ := json.Marshal(raw)

	var req struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
		Password  string `json:"password"`
		RoleID    string `json:"roleId"`
		IsActive  *bool  `json:"isActive"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body", nil)
		return
	}

	b.mu.Lock()
	b.lastRegister = raw
	fields := make(map[string][]string)
	role, ok := users.FindRole(b.roles, req.RoleID)
	if !ok {
		fields["roleId"] = []string{"unknown role"}
	}
	if req.IsActive == nil {
		fields["isActive"] = []string{"isActive is required"}
	}
	if len(fields) > 0 {
		b.mu.Unlock()
		writeError(w, http.StatusBadRequest, "Validation failed", fields)
		return
	}
	if _, exists := b.accounts[req.Email]; exists {
		b.mu.Unlock()
		writeError(w, http.StatusBadRequest, "Validation failed", map[string][]string{
			"email": {"email already registered"},
		})
		return
	}
	u := b.addUserLocked(req.Email, req.Password, req.FirstName, req.LastName,
		users.RoleRef{ID: role.ID, Name: role.Name}, *req.IsActive)
	if u.Phone = utils.Optional(req.Phone); u.Phone != nil {
		b.accounts[req.Email] = account{password: req.Password, user: u}
	}
	res := loginResponse{User: u}
	if b.RegisterIssuesTokens {
		res.AccessToken, res.RefreshToken = b.issueLocked(req.Email)
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, res)
}

func (b *Backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.refreshCalls.Add(1)

	if b.RefreshGate != nil {
		<-b.RefreshGate
	}
	if b.RefreshStatus != 0 {
		writeError(w, b.RefreshStatus, "refresh rejected", nil)
		return
	}

	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refreshToken is required", nil)
		return
	}

	b.mu.Lock()
	email, ok := b.refreshTokens[req.RefreshToken]
	if !ok {
		b.mu.Unlock()
		writeError(w, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}
	delete(b.refreshTokens, req.RefreshToken)
	access, refresh := b.issueLocked(email)
	u := b.accounts[email].user
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, loginResponse{User: u, AccessToken: access, RefreshToken: refresh})
}

func (b *Backend) handleLogout(w http.ResponseWriter, r *http.Request) {
	b.logoutCalls.Add(1)
	if b.LogoutStatus != 0 {
		writeError(w, b.LogoutStatus, "logout failed", nil)
		return
	}

	b.mu.Lock()
	if email, ok := b.validAccess[bearer(r)]; ok {
		for token, e := range b.refreshTokens {
			if e == email {
				delete(b.refreshTokens, token)
			}
		}
		delete(b.validAccess, bearer(r))
	}
	b.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "email must be an email", nil)
		return
	}

	b.mu.Lock()
	if _, ok := b.accounts[req.Email]; !ok {
		b.mu.Unlock()
		writeError(w, http.StatusNotFound, "user not found", nil)
		return
	}
	b.resetTokens["reset-"+uuid.New().String()] = req.Email
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"message": "reset email sent"})
}

func (b *Backend) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token                string `json:"token"`
		Password             string `json:"password"`
		PasswordConfirmation string `json:"passwordConfirmation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body", nil)
		return
	}

	b.mu.Lock()
	email, ok := b.resetTokens[req.Token]
	if !ok {
		b.mu.Unlock()
		writeError(w, http.StatusBadRequest, "invalid or expired token", nil)
		return
	}
	delete(b.resetTokens, req.Token)
	acc := b.accounts[email]
	acc.password = req.Password
	b.accounts[email] = acc
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

func (b *Backend) handleRoles(w http.ResponseWriter, r *http.Request) {
	n := b.rolesCalls.Add(1)
	if int(n) <= b.RolesFailures {
		writeError(w, http.StatusServiceUnavailable, "roles temporarily unavailable", nil)
		return
	}
	b.mu.Lock()
	roles := append([]users.Role(nil), b.roles...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, roles)
}

func (b *Backend) handleMe(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	u := b.accounts[b.validAccess[bearer(r)]].user
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, u)
}

func (b *Backend) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		_, ok := b.validAccess[bearer(r)]
		b.mu.Unlock()
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized", nil)
			return
		}
		next(w, r)
	}
}

// counted counts every call, including those rejected as unauthorized
func counted(n *atomic.Int32, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n.Add(1)
		next(w, r)
	}
}

func bearer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, details map[string][]string) {
	body := map[string]any{"statusCode": status, "message": message}
	if details != nil {
		body["details"] = details
	}
	writeJSON(w, status, body)
}
