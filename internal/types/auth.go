package types

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// RegisterRequest represents the request to create a new user account.
type RegisterRequest struct {
	FirstName string `json:"first_name" validate:"required,min=1"`
	LastName  string `json:"last_name" validate:"required,min=1"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Phone     string `json:"phone,omitempty"`
}

// LoginRequest represents the login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// User represents a user account for API responses (avoids import cycle with db package).
type User struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LoginResponse represents the login/register response with user data and token.
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// FieldValidationError reports a validation failure on a specific field.
type FieldValidationError struct {
	Field   string
	Message string
}

func (e *FieldValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate validates the RegisterRequest, including the password policy.
func (r *RegisterRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return err
	}
	return ValidatePassword(r.Password, r.FirstName, r.LastName, r.Email)
}

// Validate validates the LoginRequest using the validator.
func (r *LoginRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ValidatePassword enforces the password policy: minimum 8 characters with
// upper case, lower case and a digit, and no personal information (first
// name, last name, or the local part of the email address).
func ValidatePassword(password, firstName, lastName, email string) error {
	if len(password) < 8 {
		return &FieldValidationError{Field: "password", Message: "must be at least 8 characters"}
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return &FieldValidationError{Field: "password", Message: "must contain upper case, lower case and a digit"}
	}

	lower := strings.ToLower(password)
	personal := []string{strings.ToLower(firstName), strings.ToLower(lastName)}
	if at := strings.IndexByte(email, '@'); at > 0 {
		personal = append(personal, strings.ToLower(email[:at]))
	}
	for _, p := range personal {
		if len(p) >= 3 && strings.Contains(lower, p) {
			return &FieldValidationError{Field: "password", Message: "must not contain personal information"}
		}
	}

	return nil
}
