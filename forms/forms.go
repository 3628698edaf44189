// Package forms validates the login and registration forms before anything is
// sent to the backend.
package forms

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const MinPasswordLength = 8

// FieldErrors maps a form field name to the message shown next to it
type FieldErrors map[string]string

func (f FieldErrors) Any() bool {
	return len(f) > 0
}

func (f FieldErrors) Get(field string) string {
	return f[field]
}

// ValidateLogin checks the login form
func ValidateLogin(email, password string) FieldErrors {
	errs := FieldErrors{}
	validateEmail(errs, email)
	if password == "" {
		errs["password"] = "Please enter your password"
	}
	return errs
}

// ValidateRegister checks the registration form
func ValidateRegister(email, password, confirmPassword string) FieldErrors {
	errs := FieldErrors{}
	validateEmail(errs, email)

	switch {
	case password == "":
		errs["password"] = "Please enter your password"
	case utf8.RuneCountInString(password) < MinPasswordLength:
		errs["password"] = "Password must be at least 8 characters"
	}

	switch {
	case confirmPassword == "":
		errs["confirmPassword"] = "Please confirm your password"
	case confirmPassword != password:
		errs["confirmPassword"] = "Passwords do not match"
	}
	return errs
}

func validateEmail(errs FieldErrors, email string) {
	email = strings.TrimSpace(email)
	if email == "" {
		errs["email"] = "Please enter your email"
		return
	}
	if !isEmail(email) {
		errs["email"] = "Please enter a valid email"
	}
}

// isEmail accepts a bare address only, "Name <a@b>" forms are rejected
func isEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && strings.Contains(email[at+1:], ".")
}
