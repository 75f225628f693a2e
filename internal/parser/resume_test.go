package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResume = `John Doe
john.doe@example.com | +1 415 555 2671

Backend engineer with seven years of experience building distributed systems in Python and Go, with production Kubernetes and PostgreSQL.

Experience
- Built event pipelines on Kafka
- Led a devops migration to AWS
`

func TestParseResume(t *testing.T) {
	parsed := ParseResume(sampleResume)
	require.NotNil(t, parsed)

	assert.Equal(t, "John Doe", parsed.Name)
	assert.Equal(t, "john.doe@example.com", parsed.Email)
	assert.NotEmpty(t, parsed.Phone)

	assert.Contains(t, parsed.Skills, "python")
	assert.Contains(t, parsed.Skills, "kubernetes")
	assert.Contains(t, parsed.Skills, "kafka")

	assert.Contains(t, parsed.SuitedRoles, "Backend Developer")
	assert.Contains(t, parsed.SuitedRoles, "DevOps Engineer")

	assert.Contains(t, parsed.Summary, "Backend engineer")
}

func TestParseResume_NameFromEmail(t *testing.T) {
	parsed := ParseResume("contact: jane.smith@example.com\nskills: python")
	assert.Equal(t, "Jane Smith", parsed.Name)
}

func TestParseResume_Deterministic(t *testing.T) {
	a := ParseResume(sampleResume)
	b := ParseResume(sampleResume)

	assert.Equal(t, a.Skills, b.Skills)
	assert.Equal(t, a.SuitedRoles, b.SuitedRoles)
}

func TestParseResume_Empty(t *testing.T) {
	parsed := ParseResume("")
	assert.Empty(t, parsed.Name)
	assert.Empty(t, parsed.Email)
	assert.Empty(t, parsed.Skills)
}
