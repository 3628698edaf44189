package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// RoleType represents the role the backend assigned to a user
type RoleType string

const (
	RoleUser  RoleType = "USER"
	RoleAdmin RoleType = "ADMIN"
)

// User is the identity the GraphQL backend returns alongside an access token.
// The web app treats it as opaque beyond display.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      RoleType  `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AuthPayload is returned by login, register and refreshToken
type AuthPayload struct {
	AccessToken string `json:"accessToken"`
	User        User   `json:"user"`
}

func (p AuthPayload) IsEmpty() bool {
	return p.AccessToken == "" || p.User.ID == ""
}

// Account is a user as the development backend stores it
type Account struct {
	User
	PasswordHash string `json:"-"` // never serialize
	Blocked      bool   `json:"blocked,omitempty"`
}

// NormaliseEmail lower-cases and trims an email so lookups are case insensitive
func NormaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains a letter
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasLetter bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsLetter(char) {
			hasLetter = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasLetter {
		return fmt.Errorf("password must contain at least one letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPassword checks a password against the account's hash
func (a *Account) CheckPassword(password string) bool {
	return CheckPasswordHash(password, a.PasswordHash)
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
