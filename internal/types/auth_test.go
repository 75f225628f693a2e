package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid password", "Str0ngPass", false},
		{"too short", "Ab1x", true},
		{"no upper case", "weakpass1", true},
		{"no lower case", "WEAKPASS1", true},
		{"no digit", "WeakPassword", true},
		{"contains first name", "JohnRocks1", true},
		{"contains last name", "xDoe12345X", true},
		{"contains email local part", "Xjohn.doe99", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password, "John", "Doe", "john.doe@example.com")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword_ShortNamesIgnored(t *testing.T) {
	// Two-character names are too generic to block.
	err := ValidatePassword("Laughter7", "La", "Te", "lt@example.com")
	assert.NoError(t, err)
}

func TestRegisterRequestValidate(t *testing.T) {
	req := &RegisterRequest{
		FirstName: "Jane",
		LastName:  "Smith",
		Email:     "jane@example.com",
		Password:  "Str0ngPass",
	}
	assert.NoError(t, req.Validate())

	req.Email = "not-an-email"
	assert.Error(t, req.Validate())

	req.Email = "jane@example.com"
	req.Password = "Jane12345"
	err := req.Validate()
	assert.Error(t, err)
	var fieldErr *FieldValidationError
	assert.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "password", fieldErr.Field)
}
