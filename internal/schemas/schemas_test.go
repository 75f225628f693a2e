package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasSchema(t *testing.T) {
	assert.True(t, HasSchema("greenhouse"))
	assert.True(t, HasSchema("lever"))
	assert.True(t, HasSchema("workday"))
	assert.False(t, HasSchema("indeed"))
}

func TestValidateApplicationPayload_Greenhouse(t *testing.T) {
	valid := []byte(`{
		"first_name": "Jane",
		"last_name": "Smith",
		"email": "jane@example.com",
		"job_id": "123",
		"resume_text": "resume"
	}`)
	assert.NoError(t, ValidateApplicationPayload("greenhouse", valid))

	missing := []byte(`{"first_name": "Jane", "email": "jane@example.com"}`)
	err := ValidateApplicationPayload("greenhouse", missing)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "greenhouse", verr.Source)
	assert.NotEmpty(t, verr.Errors)
	assert.Contains(t, err.Error(), "failed schema validation")
}

func TestValidateApplicationPayload_Workday(t *testing.T) {
	valid := []byte(`{
		"candidate": {"first_name": "Jane", "last_name": "Smith", "email": "jane@example.com"},
		"job_requisition_id": "REQ-1"
	}`)
	assert.NoError(t, ValidateApplicationPayload("workday", valid))

	// Candidate object missing required fields.
	invalid := []byte(`{"candidate": {"first_name": "Jane"}, "job_requisition_id": "REQ-1"}`)
	assert.Error(t, ValidateApplicationPayload("workday", invalid))
}

func TestValidateApplicationPayload_UnknownSource(t *testing.T) {
	err := ValidateApplicationPayload("indeed", []byte(`{}`))
	require.Error(t, err)

	// Unknown sources are a caller bug, not a schema violation.
	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))
}
