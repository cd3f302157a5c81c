package users

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jrsteele09/go-auth-console/internal/utils"
)

// RoleType is the name of a backend role
type RoleType string

const (
	RoleAdmin    RoleType = "admin"    // Back-office administration
	RoleCoursier RoleType = "coursier" // Courier running deliveries
	RoleClient   RoleType = "client"   // Customer placing orders
)

// passwordSpecialChars is the set of characters accepted as "special" by the backend
const passwordSpecialChars = `!@#$%^&*(),.?":{}|<>`

// Role as returned by GET /roles
type Role struct {
	ID          string   `json:"id"`
	Name        RoleType `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// RoleRef is the role embedded in a user record
type RoleRef struct {
	ID   string   `json:"id"`
	Name RoleType `json:"name"`
}

type User struct {
	ID        string  `json:"id"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone,omitempty"`
	Role      RoleRef `json:"role"`
	IsActive  bool    `json:"isActive"`
}

// UserSummary is the read-only identity projection held by a session
type UserSummary struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"displayName"`
	Role        RoleType `json:"role"`
}

func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// PhoneNumber is the phone on file, or empty
func (u User) PhoneNumber() string {
	return utils.Value(u.Phone)
}

func (u User) Summary() UserSummary {
	return UserSummary{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName(),
		Role:        u.Role.Name,
	}
}

func (u UserSummary) HasRole(role RoleType) bool {
	return u.Role == role
}

// FindRole looks a role up by its backend ID
func FindRole(roles []Role, id string) (Role, bool) {
	for _, r := range roles {
		if r.ID == id {
			return r, true
		}
	}
	return Role{}, false
}

// FindRoleByName is FindRole keyed on the role name
func FindRoleByName(roles []Role, name RoleType) (Role, bool) {
	for _, r := range roles {
		if r.Name == name {
			return r, true
		}
	}
	return Role{}, false
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
// - Contains at least one special character
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper   bool
		hasLower   bool
		hasNumber  bool
		hasSpecial bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		case strings.ContainsRune(passwordSpecialChars, char):
			hasSpecial = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}
	if !hasSpecial {
		return fmt.Errorf("password must contain at least one special character")
	}

	return nil
}
