// Package tracking runs the long-lived monitors that reconcile application
// status from ATS polls and confirmation email, arbitrating conflicting
// signals by source precedence.
package tracking

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/jonathan/jobpilot/internal/config"
	"github.com/jonathan/jobpilot/internal/db"
	"github.com/jonathan/jobpilot/internal/events"
	"github.com/jonathan/jobpilot/internal/types"
)

// perUserBatch caps how many due monitors one user consumes per cycle, so a
// heavy user cannot starve the others.
const perUserBatch = 20

// EmailFetcher abstracts the mailbox integration. Implementations return
// messages received since the given time for the user.
type EmailFetcher interface {
	Fetch(ctx context.Context, userID int64, since time.Time) ([]EmailMessage, error)
}

// Service is the tracking monitor. One cooperative pass per user per cycle,
// round-robin across users, bounded by a global in-flight semaphore.
type Service struct {
	db      *db.DB
	bus     *events.Bus
	cfg     *config.Config
	pollers map[string]Poller
	emails  EmailFetcher

	sem    *semaphore.Weighted
	stop   chan struct{}
	wg     sync.WaitGroup
	offset int
	dryRun bool
}

// NewService wires the monitor. emails may be nil, which disables email
// reconciliation.
func NewService(database *db.DB, bus *events.Bus, cfg *config.Config, emails EmailFetcher) *Service {
	return &Service{
		db:      database,
		bus:     bus,
		cfg:     cfg,
		pollers: NewPollers(&cfg.ATS),
		emails:  emails,
		sem:     semaphore.NewWeighted(int64(cfg.MaxInFlightChecks)),
		stop:    make(chan struct{}),
	}
}

// SetDryRun disables writes. Accepted deltas are logged instead of applied.
func (s *Service) SetDryRun(v bool) { s.dryRun = v }

// ReconcileOnce runs a single reconciliation pass for the given users and
// waits for every in-flight check to finish. source selects which monitors
// run: "ats", "email" or "all". lookback widens the email window; zero
// keeps the default.
func (s *Service) ReconcileOnce(ctx context.Context, userIDs []int64, source string, lookback time.Duration) error {
	if lookback <= 0 {
		lookback = 2 * s.cfg.EmailCheckInterval
	}
	switch source {
	case "ats":
		s.runATSCycle(ctx, userIDs)
	case "email":
		s.runEmailCycleSince(ctx, userIDs, time.Now().UTC().Add(-lookback))
	case "all", "":
		s.runATSCycle(ctx, userIDs)
		s.runEmailCycleSince(ctx, userIDs, time.Now().UTC().Add(-lookback))
	default:
		return fmt.Errorf("unknown source %q (want ats, email or all)", source)
	}
	s.wg.Wait()
	return nil
}

// Run drives the poll loops for the given users until ctx is cancelled or
// Stop is called. In-flight iterations finish before Run returns.
func (s *Service) Run(ctx context.Context, userIDs []int64) {
	log.Printf("[tracking] monitoring %d users (ats every %s, email every %s)",
		len(userIDs), s.cfg.ATSCheckInterval, s.cfg.EmailCheckInterval)

	atsTicker := time.NewTicker(s.cfg.ATSCheckInterval)
	emailTicker := time.NewTicker(s.cfg.EmailCheckInterval)
	defer atsTicker.Stop()
	defer emailTicker.Stop()

	// First pass runs immediately rather than waiting a full interval.
	s.runATSCycle(ctx, userIDs)

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return
		case <-s.stop:
			s.wg.Wait()
			return
		case <-atsTicker.C:
			s.runATSCycle(ctx, userIDs)
		case <-emailTicker.C:
			s.runEmailCycle(ctx, userIDs)
		}
	}
}

// Stop requests a graceful shutdown. In-flight checks complete.
func (s *Service) Stop() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
}

// rotate returns the users in round-robin order, advancing the start point
// each cycle so no user is always served first.
func (s *Service) rotate(userIDs []int64) []int64 {
	if len(userIDs) == 0 {
		return nil
	}
	start := s.offset % len(userIDs)
	s.offset++
	return append(append([]int64(nil), userIDs[start:]...), userIDs[:start]...)
}

func (s *Service) runATSCycle(ctx context.Context, userIDs []int64) {
	for _, userID := range s.rotate(userIDs) {
		rows, err := s.db.ListDueTracking(ctx, []int64{userID}, perUserBatch)
		if err != nil {
			log.Printf("[tracking] failed to list due monitors for user %d: %v", userID, err)
			continue
		}
		for i := range rows {
			if err := s.sem.Acquire(ctx, 1); err != nil {
				return
			}
			s.wg.Add(1)
			go func(t types.ApplicationTracking) {
				defer s.wg.Done()
				defer s.sem.Release(1)
				s.checkOne(ctx, &t)
			}(rows[i])
		}
	}
}

// checkOne polls the ATS for a single tracked application and reschedules
// the next check.
func (s *Service) checkOne(ctx context.Context, t *types.ApplicationTracking) {
	poller, ok := s.pollers[t.ATSSystem]
	if ok {
		delta, err := poller.Check(ctx, t)
		if err != nil {
			log.Printf("[tracking] %s check failed for application %s: %v", t.ATSSystem, t.ApplicationID, err)
		} else if delta != nil {
			delta.ApplicationID = t.ApplicationID
			if _, err := s.ApplyDelta(ctx, t.UserID, delta); err != nil {
				log.Printf("[tracking] failed to apply ats delta for %s: %v", t.ApplicationID, err)
			}
		}
	}

	freq := s.cfg.ATSCheckInterval
	if t.CheckFrequencyMinutes > 0 {
		freq = time.Duration(t.CheckFrequencyMinutes) * time.Minute
	}
	if err := s.db.TouchTracking(ctx, t.ApplicationID, time.Now().UTC().Add(freq)); err != nil {
		log.Printf("[tracking] failed to reschedule %s: %v", t.ApplicationID, err)
	}
}

func (s *Service) runEmailCycle(ctx context.Context, userIDs []int64) {
	s.runEmailCycleSince(ctx, userIDs, time.Now().UTC().Add(-2*s.cfg.EmailCheckInterval))
}

func (s *Service) runEmailCycleSince(ctx context.Context, userIDs []int64, since time.Time) {
	if s.emails == nil {
		return
	}
	for _, userID := range s.rotate(userIDs) {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return
		}
		s.wg.Add(1)
		go func(uid int64) {
			defer s.wg.Done()
			defer s.sem.Release(1)
			if err := s.reconcileEmail(ctx, uid, since); err != nil {
				log.Printf("[tracking] email reconciliation failed for user %d: %v", uid, err)
			}
		}(userID)
	}
}

// reconcileEmail matches recent mail against the user's tracked
// applications and turns recognized messages into email-source deltas.
func (s *Service) reconcileEmail(ctx context.Context, userID int64, since time.Time) error {
	messages, err := s.emails.Fetch(ctx, userID, since)
	if err != nil {
		return fmt.Errorf("failed to fetch mail: %w", err)
	}
	if len(messages) == 0 {
		return nil
	}

	apps, err := s.db.ListApplications(ctx, db.ApplicationFilters{UserID: userID})
	if err != nil {
		return fmt.Errorf("failed to list applications: %w", err)
	}

	for i := range messages {
		msg := &messages[i]
		delta := ParseEmail(msg)
		if delta == nil {
			continue
		}
		for j := range apps {
			app := &apps[j]
			if app.Status.IsTerminal() {
				continue
			}
			t, err := s.db.GetTracking(ctx, app.ID)
			if err != nil || t == nil || !t.EmailMonitoringEnabled {
				continue
			}
			if !MatchesKeywords(msg, t.EmailKeywords) {
				continue
			}
			d := *delta
			d.ApplicationID = app.ID
			if _, err := s.ApplyDelta(ctx, userID, &d); err != nil {
				log.Printf("[tracking] failed to apply email delta for %s: %v", app.ID, err)
			}
			break
		}
	}
	return nil
}

// ApplyDelta arbitrates and applies one status delta. A delta is accepted
// when its status differs from the current one, it wins precedence against
// the last applied delta (ats > manual > email, ties broken by newer
// received_at), and the transition is legal. Accepted deltas are persisted
// as an ApplicationEvent, applied to the application, appended to the
// tracking history, and published.
func (s *Service) ApplyDelta(ctx context.Context, userID int64, delta *types.StatusDelta) (bool, error) {
	app, err := s.db.GetApplication(ctx, delta.ApplicationID)
	if err != nil {
		return false, fmt.Errorf("failed to load application: %w", err)
	}
	if app == nil {
		return false, fmt.Errorf("application %s not found", delta.ApplicationID)
	}

	var last *types.StatusDelta
	tracking, err := s.db.GetTracking(ctx, delta.ApplicationID)
	if err == nil && tracking != nil && len(tracking.StatusHistory) > 0 {
		last = &tracking.StatusHistory[len(tracking.StatusHistory)-1]
	}

	accepted, reason := arbitrate(app.Status, delta, last)
	if !accepted {
		if reason != "" {
			log.Printf("[tracking] rejecting delta for %s: %s (source %s)", app.ID, reason, delta.Source)
		}
		return false, nil
	}

	if s.dryRun {
		log.Printf("[tracking] dry-run: would move %s from %s to %s (source %s)",
			app.ID, app.Status, delta.Status, delta.Source)
		return true, nil
	}

	event := &types.ApplicationEvent{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		Type:          eventTypeFor(delta.Status),
		Title:         fmt.Sprintf("Status changed to %s", delta.Status),
		Description:   delta.Notes,
		Metadata: map[string]string{
			"source":     string(delta.Source),
			"confidence": fmt.Sprintf("%.2f", delta.Confidence),
			"from":       string(app.Status),
		},
	}
	if err := s.db.InsertApplicationEvent(ctx, event); err != nil {
		return false, fmt.Errorf("failed to record status event: %w", err)
	}
	if err := s.db.UpdateApplicationStatus(ctx, app.ID, delta.Status); err != nil {
		return false, fmt.Errorf("failed to update status: %w", err)
	}
	if err := s.db.AppendStatusHistory(ctx, app.ID, *delta); err != nil {
		log.Printf("[tracking] failed to append status history for %s: %v", app.ID, err)
	}

	payload := map[string]any{
		"application_id": app.ID,
		"status":         delta.Status,
		"previous":       app.Status,
		"source":         delta.Source,
	}
	s.bus.Publish(ctx, types.BusEvent{
		Type:    types.BusStatusUpdated,
		Channel: fmt.Sprintf("tracking_%d", userID),
		UserID:  userID,
		Payload: payload,
	})
	s.bus.Publish(ctx, types.BusEvent{
		Type:    types.BusStatusUpdated,
		Channel: fmt.Sprintf("app_tracking_%s", app.ID),
		UserID:  userID,
		Payload: payload,
	})

	log.Printf("[tracking] application %s: %s -> %s (source %s)", app.ID, app.Status, delta.Status, delta.Source)
	return true, nil
}

// arbitrate decides whether an incoming delta supersedes the current status.
// Precedence against the last applied delta is checked first. The transition
// legality gate is then relaxed for a strictly higher-precedence source, so
// an ATS signal can overturn a terminal status that a lower-precedence email
// signal wrote moments earlier.
func arbitrate(current types.ApplicationStatus, incoming, last *types.StatusDelta) (bool, string) {
	if incoming.Status == current {
		return false, ""
	}
	if last != nil && !winsPrecedence(incoming, last) {
		return false, fmt.Sprintf("loses precedence to %s", last.Source)
	}
	if !types.IsTransitionAllowed(current, incoming.Status) {
		if last == nil || incoming.Source.Precedence() <= last.Source.Precedence() {
			return false, fmt.Sprintf("illegal transition %s -> %s", current, incoming.Status)
		}
	}
	return true, ""
}

// winsPrecedence decides whether the incoming delta beats the last applied
// one: higher source precedence wins, equal precedence falls to the newer
// received_at.
func winsPrecedence(incoming, last *types.StatusDelta) bool {
	if incoming.Source.Precedence() != last.Source.Precedence() {
		return incoming.Source.Precedence() > last.Source.Precedence()
	}
	return incoming.ReceivedAt.After(last.ReceivedAt)
}

func eventTypeFor(status types.ApplicationStatus) types.EventType {
	switch status {
	case types.StatusInterview:
		return types.EventInterviewScheduled
	case types.StatusRejected:
		return types.EventRejection
	case types.StatusOffer:
		return types.EventOffer
	case types.StatusWithdrawn:
		return types.EventWithdrawn
	default:
		return types.EventStatusChange
	}
}
