package executor

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobpilot/internal/config"
	"github.com/jonathan/jobpilot/internal/types"
)

func quickJob(source string) *types.JobPosting {
	return &types.JobPosting{
		ID:              uuid.New(),
		Source:          source,
		Title:           "Engineer",
		Company:         "Acme",
		URL:             "https://example.com/jobs/1",
		ApplyURL:        "https://example.com/jobs/1/apply",
		ApplicationMode: types.ApplicationModeQuick,
	}
}

func testStrategies(creds *config.ATSCredentials) []Strategy {
	return []Strategy{
		NewAPIStrategy(creds),
		NewBrowserStrategy(true),
		NewRedirectStrategy(),
	}
}

func TestSelectStrategy_OrderPrefersAPI(t *testing.T) {
	creds := &config.ATSCredentials{GreenhouseAPIKey: "key"}
	strategies := testStrategies(creds)

	s, err := SelectStrategy(strategies, quickJob("greenhouse"), "")
	require.NoError(t, err)
	assert.Equal(t, "api", s.Name())
}

func TestSelectStrategy_FallsBackWithoutCredentials(t *testing.T) {
	strategies := testStrategies(&config.ATSCredentials{})

	s, err := SelectStrategy(strategies, quickJob("greenhouse"), "")
	require.NoError(t, err)
	assert.Equal(t, "browser", s.Name())
}

func TestSelectStrategy_RedirectIsLastResort(t *testing.T) {
	strategies := testStrategies(&config.ATSCredentials{})
	job := quickJob("indeed")
	job.URL = ""
	job.ApplyURL = ""

	s, err := SelectStrategy(strategies, job, "")
	require.NoError(t, err)
	assert.Equal(t, "redirect", s.Name())
}

func TestSelectStrategy_Override(t *testing.T) {
	creds := &config.ATSCredentials{GreenhouseAPIKey: "key"}
	strategies := testStrategies(creds)
	job := quickJob("greenhouse")

	s, err := SelectStrategy(strategies, job, "redirect")
	require.NoError(t, err)
	assert.Equal(t, "redirect", s.Name())

	_, err = SelectStrategy(strategies, job, "carrier-pigeon")
	assert.Error(t, err)

	// Override must also apply: api needs credentials for the source.
	_, err = SelectStrategy(testStrategies(&config.ATSCredentials{}), job, "api")
	assert.Error(t, err)
}

func TestRedirectSubmit(t *testing.T) {
	job := quickJob("indeed")
	outcome, err := NewRedirectStrategy().Submit(context.Background(), &SubmitRequest{Job: job})
	require.NoError(t, err)

	assert.Equal(t, types.MethodRedirect, outcome.Method)
	assert.Equal(t, job.ApplyURL, outcome.ApplicationURL)
	require.Len(t, outcome.Steps, 1)
	assert.True(t, outcome.Steps[0].Success)
}

func TestBrowserSubmit_Disabled(t *testing.T) {
	job := quickJob("indeed")
	outcome, err := NewBrowserStrategy(true).Submit(context.Background(), &SubmitRequest{Job: job})
	require.NoError(t, err)

	assert.Equal(t, types.MethodBrowser, outcome.Method)
	assert.Equal(t, "browser automation disabled", outcome.ConfirmationText)
}
