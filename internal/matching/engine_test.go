package matching

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobpilot/internal/types"
)

func testUser() *types.UserProfile {
	return &types.UserProfile{
		UserID: 1,
		SkillsDetailed: []types.SkillDetail{
			{Name: "Python"}, {Name: "PostgreSQL"}, {Name: "Docker"},
		},
		PreferredRoles:    []string{"Backend Developer"},
		ExperienceYears:   5,
		Locations:         []string{"Bangalore"},
		SalaryExpectation: 100000,
	}
}

func testJob() *types.JobPosting {
	return &types.JobPosting{
		ID:              uuid.New(),
		Title:           "Backend Developer",
		Company:         "Acme",
		Location:        "Bangalore, India",
		SkillsRequired:  []string{"python", "postgresql"},
		SkillsPreferred: []string{"kubernetes"},
		ExperienceMin:   3,
		ExperienceMax:   7,
		Salary:          types.Salary{Min: 90000, Max: 130000},
	}
}

func TestScore_Deterministic(t *testing.T) {
	engine := NewEngine("v1")
	user := testUser()
	job := testJob()

	a := engine.Score(user, job)
	b := engine.Score(user, job)

	assert.Equal(t, a.Score, b.Score)
	assert.Equal(t, a.ComponentScores, b.ComponentScores)
	assert.Equal(t, "v1", a.EngineVersion)
}

func TestScore_StrongMatch(t *testing.T) {
	engine := NewEngine("v1")
	score := engine.Score(testUser(), testJob())

	// role, location, experience and salary are all perfect fits.
	assert.Equal(t, 100.0, score.ComponentScores["role"])
	assert.Equal(t, 100.0, score.ComponentScores["location"])
	assert.Equal(t, 100.0, score.ComponentScores["experience"])
	assert.Equal(t, 100.0, score.ComponentScores["salary"])

	// 2 of 2 required matched, preferred kubernetes missing: 2/2.5.
	assert.InDelta(t, 80.0, score.ComponentScores["skills"], 0.01)

	// weighted total: 80*0.4 + 100*0.6.
	assert.InDelta(t, 92.0, score.Score, 0.01)
}

func TestScore_NeutralOnMissingSignal(t *testing.T) {
	engine := NewEngine("v1")
	user := &types.UserProfile{UserID: 2}
	job := &types.JobPosting{ID: uuid.New(), Title: "Engineer", Company: "Acme", Location: "Pune"}

	score := engine.Score(user, job)

	assert.Equal(t, 50.0, score.ComponentScores["skills"])
	assert.Equal(t, 50.0, score.ComponentScores["role"])
	assert.Equal(t, 50.0, score.ComponentScores["location"])
	assert.Equal(t, 50.0, score.ComponentScores["experience"])
	assert.Equal(t, 50.0, score.ComponentScores["salary"])
	assert.Equal(t, 50.0, score.Score)
}

func TestScoreLocation(t *testing.T) {
	user := testUser()

	remote := testJob()
	remote.Location = "Anywhere"
	remote.EmploymentMode = "remote"
	assert.Equal(t, 100.0, scoreLocation(user, remote))

	elsewhere := testJob()
	elsewhere.Location = "Berlin, Germany"
	assert.Equal(t, 0.0, scoreLocation(user, elsewhere))
}

func TestScoreExperience(t *testing.T) {
	user := testUser() // 5 years
	job := testJob()

	job.ExperienceMin, job.ExperienceMax = 7, 10
	assert.Equal(t, 50.0, scoreExperience(user, job)) // 2 years short

	job.ExperienceMin, job.ExperienceMax = 1, 3
	assert.Equal(t, 80.0, scoreExperience(user, job)) // 2 years over

	job.ExperienceMin, job.ExperienceMax = 5, 0
	assert.Equal(t, 100.0, scoreExperience(user, job)) // open-ended max
}

func TestScoreSalary_AboveRange(t *testing.T) {
	user := testUser()
	user.SalaryExpectation = 200000
	job := testJob() // max 130000

	assert.Equal(t, 65.0, scoreSalary(user, job))
}

func TestSortScores_TieBreaks(t *testing.T) {
	now := time.Now().UTC()
	earlier := now.Add(-24 * time.Hour)

	idA := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000000")
	idB := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000000")

	jobs := []types.JobPosting{
		{ID: idA, QualityScore: 90, PostedAt: &earlier},
		{ID: idB, QualityScore: 90, PostedAt: &now},
	}
	scores := []types.JobScore{
		{JobID: idA, Score: 80},
		{JobID: idB, Score: 80},
	}

	sortScores(scores, jobs)

	// Equal score and quality: newer posting first.
	require.Len(t, scores, 2)
	assert.Equal(t, idB, scores[0].JobID)

	// Equal everything: job id ascending.
	jobs[1].PostedAt = &earlier
	scores = []types.JobScore{{JobID: idB, Score: 80}, {JobID: idA, Score: 80}}
	sortScores(scores, jobs)
	assert.Equal(t, idA, scores[0].JobID)

	// Higher posting quality beats recency.
	jobs[0].QualityScore = 95
	jobs[1].PostedAt = &now
	scores = []types.JobScore{{JobID: idB, Score: 80}, {JobID: idA, Score: 80}}
	sortScores(scores, jobs)
	assert.Equal(t, idA, scores[0].JobID)
}
