package packets

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobpilot/internal/types"
)

func testUser() *types.UserProfile {
	return &types.UserProfile{
		UserID:    1,
		FirstName: "Jane",
		LastName:  "Smith",
		SkillsDetailed: []types.SkillDetail{
			{Name: "Python"}, {Name: "PostgreSQL"}, {Name: "Docker"}, {Name: "Kafka"},
		},
		ResumeText:    "base resume",
		CustomAnswers: map[string]string{"work_authorization": "citizen"},
	}
}

func testJob(source string) *types.JobPosting {
	return &types.JobPosting{
		ID:             uuid.New(),
		Source:         source,
		Title:          "Backend Engineer",
		Company:        "Acme",
		SkillsRequired: []string{"python", "kafka", "docker", "postgresql"},
	}
}

func TestBuild_ReadyPacket(t *testing.T) {
	b := NewBuilder(nil, nil)
	user := testUser()
	job := testJob("greenhouse")

	packet := b.Build(user, job, &types.JobScore{Score: 90})
	require.NotNil(t, packet)

	assert.True(t, packet.PacketReady)
	assert.Empty(t, packet.NotReadyReason)
	assert.Equal(t, types.PriorityHigh, packet.Priority)
	assert.Equal(t, "base resume", packet.ResumeText)
	assert.Equal(t, "citizen", packet.CustomAnswers["work_authorization"])

	// Cover letter names the company and the top-3 matched skills.
	assert.Contains(t, packet.CoverLetterText, "Dear Hiring Team at Acme")
	assert.Contains(t, packet.CoverLetterText, "python, kafka, docker")
	assert.NotContains(t, packet.CoverLetterText, "postgresql")
	assert.Contains(t, packet.CoverLetterText, "Jane Smith")
}

func TestBuild_MissingRequiredAnswers(t *testing.T) {
	b := NewBuilder(nil, nil)
	user := testUser()
	job := testJob("workday") // needs work_authorization and notice_period

	packet := b.Build(user, job, &types.JobScore{Score: 75})

	assert.False(t, packet.PacketReady)
	assert.Equal(t, "missing required answers: notice_period", packet.NotReadyReason)
	assert.Equal(t, types.PriorityMedium, packet.Priority)
}

func TestBuild_NoResume(t *testing.T) {
	b := NewBuilder(nil, nil)
	user := testUser()
	user.ResumeText = ""
	job := testJob("greenhouse")

	packet := b.Build(user, job, &types.JobScore{Score: 60})

	assert.False(t, packet.PacketReady)
	assert.Equal(t, "no resume text on profile", packet.NotReadyReason)
	assert.Equal(t, types.PriorityLow, packet.Priority)
}

func TestBuild_GenericSkillsFallback(t *testing.T) {
	b := NewBuilder(nil, nil)
	user := testUser()
	user.SkillsDetailed = nil
	job := testJob("lever")

	packet := b.Build(user, job, &types.JobScore{Score: 60})

	assert.Contains(t, packet.CoverLetterText, "software engineering")
}

func TestSelectResumeVariant(t *testing.T) {
	user := testUser()
	user.ResumeVariants = []types.ResumeVariant{
		{ID: "general", Text: "general resume", Tags: []string{"java"}},
		{ID: "data", Text: "data resume", Tags: []string{"python", "kafka"}},
	}

	variant := SelectResumeVariant(user, []string{"python", "kafka", "docker"})
	require.NotNil(t, variant)
	assert.Equal(t, "data", variant.ID)

	// Zero overlap falls back to the base resume.
	assert.Nil(t, SelectResumeVariant(user, []string{"rust"}))
}

func TestSelectResumeVariant_TieGoesToEarlier(t *testing.T) {
	user := testUser()
	user.ResumeVariants = []types.ResumeVariant{
		{ID: "first", Tags: []string{"python"}},
		{ID: "second", Tags: []string{"python"}},
	}

	variant := SelectResumeVariant(user, []string{"python"})
	require.NotNil(t, variant)
	assert.Equal(t, "first", variant.ID)
}

func TestBuild_VariantSelected(t *testing.T) {
	b := NewBuilder(nil, nil)
	user := testUser()
	user.ResumeVariants = []types.ResumeVariant{
		{ID: "backend", Text: "backend resume", Tags: []string{"python"}},
	}
	job := testJob("greenhouse")

	packet := b.Build(user, job, &types.JobScore{Score: 90})

	assert.Equal(t, "backend", packet.ResumeVariantID)
	assert.Equal(t, "backend resume", packet.ResumeText)
}
