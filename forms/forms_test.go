package forms_test

import (
	"testing"

	"github.com/jrsteele09/go-web-template/forms"
	"github.com/stretchr/testify/assert"
)

func TestValidateLogin(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		want     forms.FieldErrors
	}{
		{name: "valid", email: "john.doe@example.com", password: "x", want: forms.FieldErrors{}},
		{name: "empty", want: forms.FieldErrors{"email": "Please enter your email", "password": "Please enter your password"}},
		{name: "bad email", email: "john.doe", password: "x", want: forms.FieldErrors{"email": "Please enter a valid email"}},
		{name: "display name rejected", email: "John <john@example.com>", password: "x", want: forms.FieldErrors{"email": "Please enter a valid email"}},
		{name: "no domain dot", email: "john@localhost", password: "x", want: forms.FieldErrors{"email": "Please enter a valid email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := forms.ValidateLogin(tt.email, tt.password)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.want) > 0, got.Any())
		})
	}
}

func TestValidateRegister(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		confirm  string
		want     forms.FieldErrors
	}{
		{name: "valid", email: "jane@example.com", password: "password123", confirm: "password123", want: forms.FieldErrors{}},
		{name: "short password", email: "jane@example.com", password: "short", confirm: "short",
			want: forms.FieldErrors{"password": "Password must be at least 8 characters"}},
		{name: "mismatch", email: "jane@example.com", password: "password123", confirm: "password124",
			want: forms.FieldErrors{"confirmPassword": "Passwords do not match"}},
		{name: "missing confirmation", email: "jane@example.com", password: "password123",
			want: forms.FieldErrors{"confirmPassword": "Please confirm your password"}},
		{name: "all empty", want: forms.FieldErrors{
			"email":           "Please enter your email",
			"password":        "Please enter your password",
			"confirmPassword": "Please confirm your password",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, forms.ValidateRegister(tt.email, tt.password, tt.confirm))
		})
	}
}
