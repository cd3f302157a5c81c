package auth

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/jrsteele09/go-auth-console/users"
)

const (
	minLoginPasswordLength = 6
	minNameLength          = 2
)

var phonePattern = regexp.MustCompile(`^\+?[0-9 ]{8,20}$`)

type fieldChecker struct {
	fields map[string]string
}

func (c *fieldChecker) fail(field, msg string) {
	if c.fields == nil {
		c.fields = make(map[string]string)
	}
	if _, exists := c.fields[field]; !exists {
		c.fields[field] = msg
	}
}

func (c *fieldChecker) err() error {
	if len(c.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: c.fields}
}

func (c *fieldChecker) email(v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		c.fail(FieldEmail, "Email is required")
		return
	}
	if addr, err := mail.ParseAddress(v); err != nil || addr.Address != v || !strings.Contains(v, "@") {
		c.fail(FieldEmail, "Invalid email address")
	}
}

func (c *fieldChecker) strongPassword(field, v string) {
	if err := users.ValidatePasswordStrength(v); err != nil {
		c.fail(field, err.Error())
	}
}

func (c *fieldChecker) confirmation(field, password, confirm string) {
	if confirm == "" {
		c.fail(field, "Please confirm the password")
		return
	}
	if password != confirm {
		c.fail(field, "Passwords do not match")
	}
}

func (r LoginRequest) Validate() error {
	var c fieldChecker
	c.email(r.Email)
	if r.Password == "" {
		c.fail(FieldPassword, "Password is required")
	} else if len(r.Password) < minLoginPasswordLength {
		c.fail(FieldPassword, "Password must be at least 6 characters")
	}
	return c.err()
}

func (r RegisterRequest) Validate() error {
	var c fieldChecker
	if len(strings.TrimSpace(r.FirstName)) < minNameLength {
		c.fail(FieldFirstName, "First name must be at least 2 characters")
	}
	if len(strings.TrimSpace(r.LastName)) < minNameLength {
		c.fail(FieldLastName, "Last name must be at least 2 characters")
	}
	c.email(r.Email)
	if r.Phone != "" && !phonePattern.MatchString(r.Phone) {
		c.fail(FieldPhone, "Invalid phone number")
	}
	c.strongPassword(FieldPassword, r.Password)
	c.confirmation(FieldConfirmPassword, r.Password, r.ConfirmPassword)
	if strings.TrimSpace(r.RoleID) == "" {
		c.fail(FieldRole, msgSelectRole)
	}
	return c.err()
}

func (r ForgotPasswordRequest) Validate() error {
	var c fieldChecker
	c.email(r.Email)
	return c.err()
}

func (r ResetPasswordRequest) Validate() error {
	var c fieldChecker
	if strings.TrimSpace(r.Token) == "" {
		c.fail(FieldToken, "Reset token is missing")
	}
	c.strongPassword(FieldPassword, r.Password)
	c.confirmation(FieldPasswordConfirmation, r.Password, r.PasswordConfirmation)
	return c.err()
}
