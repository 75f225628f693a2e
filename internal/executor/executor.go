// Package executor submits prepared application packets, exactly once per
// (user, job), through one of three strategies, and records a full audit
// trail on the resulting application.
package executor

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/jobpilot/internal/config"
	"github.com/jonathan/jobpilot/internal/db"
	"github.com/jonathan/jobpilot/internal/events"
	"github.com/jonathan/jobpilot/internal/types"
)

// defaultCheckFrequencyMinutes seeds new tracking rows; the tracking
// service's own configuration overrides it at poll time.
const defaultCheckFrequencyMinutes = 60

// Result is the outcome of an Apply call. AlreadyApplied is true when a
// prior application for the (user, job) pair was returned instead of a new
// submission.
type Result struct {
	Application    *types.Application `json:"application"`
	AlreadyApplied bool               `json:"already_applied"`
	Strategy       string             `json:"strategy,omitempty"`
	FailureClass   FailureClass       `json:"failure_class,omitempty"`
}

// Executor owns submission. Each job flow runs single-threaded end to end;
// the (user, job) pair is guarded by an in-process lock plus a database
// advisory lock so concurrent calls serialize before the unique constraint
// is ever hit.
type Executor struct {
	db         *db.DB
	bus        *events.Bus
	cfg        *config.Config
	strategies []Strategy

	mu       sync.Mutex
	keyLocks map[string]*sync.Mutex
}

// New wires an executor with the standard strategy order: api, browser,
// redirect.
func New(database *db.DB, bus *events.Bus, cfg *config.Config) *Executor {
	return &Executor{
		db:  database,
		bus: bus,
		cfg: cfg,
		strategies: []Strategy{
			NewAPIStrategy(&cfg.ATS),
			NewBrowserStrategy(cfg.DisableBrowserAutomation),
			NewRedirectStrategy(),
		},
		keyLocks: make(map[string]*sync.Mutex),
	}
}

// Strategies exposes the configured strategies in selection order.
func (e *Executor) Strategies() []Strategy { return e.strategies }

// Apply submits the packet for (user, job). A duplicate request returns the
// pre-existing application with AlreadyApplied set and no resubmission.
func (e *Executor) Apply(ctx context.Context, user *types.UserProfile, job *types.JobPosting, packet *types.PreparedJob, overrideStrategy string) (*Result, error) {
	unlockLocal := e.lockKey(user.UserID, job.ID)
	defer unlockLocal()

	release, err := e.db.AcquireAdvisoryLock(ctx, advisoryKey(user.UserID, job.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to acquire submission lock: %w", err)
	}
	defer release()

	if existing, err := e.db.GetApplicationByUserAndJob(ctx, user.UserID, job.ID); err == nil && existing != nil {
		return &Result{Application: existing, AlreadyApplied: true}, nil
	}

	strategy, err := SelectStrategy(e.strategies, job, overrideStrategy)
	if err != nil {
		return nil, err
	}

	app := &types.Application{
		ID:              uuid.New(),
		UserID:          user.UserID,
		JobID:           job.ID,
		Status:          types.StatusPending,
		Method:          methodFor(strategy.Name()),
		ApplicationURL:  job.SubmitURL(),
		ResumeText:      packet.ResumeText,
		CoverLetterText: packet.CoverLetterText,
		CustomAnswers:   packet.CustomAnswers,
	}
	created, err := e.db.CreateApplication(ctx, app)
	if errors.Is(err, db.ErrDuplicateApplication) {
		return &Result{Application: created, AlreadyApplied: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	app = created

	e.bus.Publish(ctx, types.BusEvent{
		Type:    types.BusApplicationCreated,
		Channel: fmt.Sprintf("applications_%d", user.UserID),
		UserID:  user.UserID,
		Payload: map[string]any{"application_id": app.ID, "job_id": job.ID, "status": app.Status},
	})

	return e.submit(ctx, user, job, packet, app, strategy, 0)
}

// submit drives one submission attempt and handles the success and failure
// bookkeeping. attempt counts scheduled retries, not user calls.
func (e *Executor) submit(ctx context.Context, user *types.UserProfile, job *types.JobPosting, packet *types.PreparedJob, app *types.Application, strategy Strategy, attempt int) (*Result, error) {
	outcome, err := strategy.Submit(ctx, &SubmitRequest{User: user, Job: job, Packet: packet})
	if err != nil {
		return e.recordFailure(ctx, user, job, packet, app, strategy, attempt, err)
	}

	if len(outcome.Steps) > 0 {
		if logErr := e.db.AppendAutomationLog(ctx, app.ID, outcome.Steps); logErr != nil {
			log.Printf("[executor] failed to append automation log for %s: %v", app.ID, logErr)
		}
	}
	if outcome.ExternalApplicationID != "" || len(outcome.ATSResponse) > 0 {
		if err := e.db.SetExternalApplicationID(ctx, app.ID, outcome.ExternalApplicationID, outcome.ATSResponse); err != nil {
			log.Printf("[executor] failed to store external id for %s: %v", app.ID, err)
		}
	}
	if err := e.db.UpdateApplicationStatus(ctx, app.ID, types.StatusApplied); err != nil {
		return nil, fmt.Errorf("failed to mark application applied: %w", err)
	}
	app.Status = types.StatusApplied
	app.ExternalApplicationID = outcome.ExternalApplicationID

	event := &types.ApplicationEvent{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		Type:          types.EventApplied,
		Title:         fmt.Sprintf("Applied to %s at %s", job.Title, job.Company),
		Description:   outcome.ConfirmationText,
		Metadata:      map[string]string{"strategy": strategy.Name()},
	}
	if err := e.db.InsertApplicationEvent(ctx, event); err != nil {
		log.Printf("[executor] failed to record applied event for %s: %v", app.ID, err)
	}

	e.registerTracking(ctx, user, job, app, outcome)

	e.bus.Publish(ctx, types.BusEvent{
		Type:    types.BusApplicationUpdate,
		Channel: fmt.Sprintf("applications_%d", user.UserID),
		UserID:  user.UserID,
		Payload: map[string]any{"application_id": app.ID, "status": app.Status, "strategy": strategy.Name()},
	})

	log.Printf("[executor] user %d applied to %s at %s via %s", user.UserID, job.Title, job.Company, strategy.Name())
	return &Result{Application: app, Strategy: strategy.Name()}, nil
}

// recordFailure classifies the error, logs it on the application, marks it
// failed, and schedules a retry when the class allows one.
func (e *Executor) recordFailure(ctx context.Context, user *types.UserProfile, job *types.JobPosting, packet *types.PreparedJob, app *types.Application, strategy Strategy, attempt int, submitErr error) (*Result, error) {
	class := Classify(submitErr)
	log.Printf("[executor] submission failed for application %s (%s, attempt %d): %v", app.ID, class, attempt, submitErr)

	failStep := []types.AutomationStep{{
		Step:      "submit_failed",
		Detail:    string(class) + ": " + submitErr.Error(),
		Success:   false,
		Timestamp: time.Now().UTC(),
	}}
	if err := e.db.AppendAutomationLog(ctx, app.ID, failStep); err != nil {
		log.Printf("[executor] failed to append failure log for %s: %v", app.ID, err)
	}
	if err := e.db.UpdateApplicationStatus(ctx, app.ID, types.StatusFailed); err != nil {
		log.Printf("[executor] failed to mark application failed for %s: %v", app.ID, err)
	}
	app.Status = types.StatusFailed

	event := &types.ApplicationEvent{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		Type:          types.EventStatusChange,
		Title:         "Submission failed",
		Description:   submitErr.Error(),
		Metadata:      map[string]string{"failure_class": string(class), "strategy": strategy.Name()},
	}
	if err := e.db.InsertApplicationEvent(ctx, event); err != nil {
		log.Printf("[executor] failed to record failure event for %s: %v", app.ID, err)
	}

	e.bus.Publish(ctx, types.BusEvent{
		Type:    types.BusApplicationUpdate,
		Channel: fmt.Sprintf("applications_%d", user.UserID),
		UserID:  user.UserID,
		Payload: map[string]any{"application_id": app.ID, "status": app.Status, "failure_class": class},
	})

	var se *SubmitError
	retryable := class.Retryable()
	if errors.As(submitErr, &se) {
		retryable = se.Retryable()
	}
	if retryable && attempt+1 < MaxRetryAttempts {
		e.scheduleRetry(user, job, packet, app, strategy, attempt+1)
	}

	return &Result{Application: app, Strategy: strategy.Name(), FailureClass: class},
		fmt.Errorf("submission failed (%s): %w", class, submitErr)
}

// scheduleRetry re-drives a retryable failure after backoff. The state
// machine requires failed -> pending before resubmission.
func (e *Executor) scheduleRetry(user *types.UserProfile, job *types.JobPosting, packet *types.PreparedJob, app *types.Application, strategy Strategy, attempt int) {
	delay := RetryDelay(attempt - 1)
	log.Printf("[executor] scheduling retry %d/%d for application %s in %s", attempt, MaxRetryAttempts, app.ID, delay)

	time.AfterFunc(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		unlock := e.lockKey(user.UserID, job.ID)
		defer unlock()

		if err := e.db.UpdateApplicationStatus(ctx, app.ID, types.StatusPending); err != nil {
			log.Printf("[executor] retry aborted, cannot reset application %s: %v", app.ID, err)
			return
		}
		app.Status = types.StatusPending
		if _, err := e.submit(ctx, user, job, packet, app, strategy, attempt); err != nil {
			log.Printf("[executor] retry %d failed for application %s: %v", attempt, app.ID, err)
		}
	})
}

// registerTracking creates the 1:1 monitor row after a successful submit.
func (e *Executor) registerTracking(ctx context.Context, user *types.UserProfile, job *types.JobPosting, app *types.Application, outcome *Outcome) {
	next := time.Now().UTC().Add(defaultCheckFrequencyMinutes * time.Minute)
	tracking := &types.ApplicationTracking{
		ApplicationID:          app.ID,
		UserID:                 user.UserID,
		ATSSystem:              job.Source,
		ExternalTrackingID:     outcome.ExternalApplicationID,
		TrackingURL:            outcome.ApplicationURL,
		CheckFrequencyMinutes:  defaultCheckFrequencyMinutes,
		NextCheck:              &next,
		EmailMonitoringEnabled: user.EmailMonitoring,
	}
	if user.EmailMonitoring {
		tracking.EmailKeywords = emailKeywords(job)
	}
	if err := e.db.CreateTracking(ctx, tracking); err != nil {
		log.Printf("[executor] failed to register tracking for %s: %v", app.ID, err)
	}
}

// emailKeywords derives the phrases the email monitor greps confirmation
// mail for.
func emailKeywords(job *types.JobPosting) []string {
	keywords := []string{strings.ToLower(job.Company), strings.ToLower(job.Title)}
	keywords = append(keywords, "application received", "thank you for applying")
	return keywords
}

func (e *Executor) lockKey(userID int64, jobID uuid.UUID) func() {
	key := fmt.Sprintf("%d:%s", userID, jobID)
	e.mu.Lock()
	lock, ok := e.keyLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		e.keyLocks[key] = lock
	}
	e.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

// advisoryKey hashes (user, job) into the signed 64-bit space Postgres
// advisory locks use.
func advisoryKey(userID int64, jobID uuid.UUID) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d:%s", userID, jobID)
	return int64(h.Sum64())
}

func methodFor(strategy string) types.ApplicationMethod {
	switch strategy {
	case "api":
		return types.MethodAPI
	case "browser":
		return types.MethodBrowser
	case "redirect":
		return types.MethodRedirect
	default:
		return types.MethodManual
	}
}
