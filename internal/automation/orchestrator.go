// Package automation runs the per-user apply loop: refresh scores, select
// candidates under quota, build packets, and enqueue submissions.
package automation

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/jonathan/jobpilot/internal/config"
	"github.com/jonathan/jobpilot/internal/db"
	"github.com/jonathan/jobpilot/internal/executor"
	"github.com/jonathan/jobpilot/internal/matching"
	"github.com/jonathan/jobpilot/internal/packets"
	"github.com/jonathan/jobpilot/internal/types"
)

// DefaultCronSpec fires the daily tick at 09:00 local time.
const DefaultCronSpec = "0 9 * * *"

// scoreRefreshBatch bounds how many unscored jobs one tick scores per user.
const scoreRefreshBatch = 200

// RunReport summarizes one orchestration pass for one user.
type RunReport struct {
	UserID          int64         `json:"user_id"`
	StartedAt       time.Time     `json:"started_at"`
	Duration        time.Duration `json:"duration"`
	Skipped         string        `json:"skipped,omitempty"`
	ScoresRefreshed int           `json:"scores_refreshed"`
	PacketsBuilt    int           `json:"packets_built"`
	Enqueued        int           `json:"enqueued"`
	Applied         int           `json:"applied"`
	AlreadyApplied  int           `json:"already_applied"`
	Failed          int           `json:"failed"`
	CooledDown      bool          `json:"cooled_down"`
}

// Orchestrator ties matching, packet building and the executor pool together
// under per-user quotas.
type Orchestrator struct {
	db       *db.DB
	matching *matching.Service
	packets  *packets.Builder
	pool     *executor.Pool
	cfg      *config.Config
	redis    *redis.Client
	cron     *cron.Cron

	// local cooldowns back up the redis TTL keys when redis is absent.
	mu        sync.Mutex
	cooldowns map[int64]time.Time
}

// New wires an orchestrator. rdb may be nil; cooldowns then live in process
// memory only.
func New(database *db.DB, matchSvc *matching.Service, builder *packets.Builder, pool *executor.Pool, cfg *config.Config, rdb *redis.Client) *Orchestrator {
	return &Orchestrator{
		db:        database,
		matching:  matchSvc,
		packets:   builder,
		pool:      pool,
		cfg:       cfg,
		redis:     rdb,
		cooldowns: make(map[int64]time.Time),
	}
}

// Start schedules the daily tick. An empty spec uses the default.
func (o *Orchestrator) Start(ctx context.Context, spec string) error {
	if spec == "" {
		spec = DefaultCronSpec
	}
	o.cron = cron.New()
	_, err := o.cron.AddFunc(spec, func() {
		if _, err := o.RunAll(ctx); err != nil {
			log.Printf("[automation] scheduled run failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule automation tick: %w", err)
	}
	o.cron.Start()
	log.Printf("[automation] daily tick scheduled (%s)", spec)
	return nil
}

// Stop halts the scheduler, waiting for a running tick to finish.
func (o *Orchestrator) Stop() {
	if o.cron != nil {
		<-o.cron.Stop().Done()
	}
}

// RunAll runs one pass for every automation-enabled user.
func (o *Orchestrator) RunAll(ctx context.Context) ([]RunReport, error) {
	userIDs, err := o.db.ListAutomationUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list automation users: %w", err)
	}
	reports := make([]RunReport, 0, len(userIDs))
	for _, userID := range userIDs {
		report, err := o.RunForUser(ctx, userID)
		if err != nil {
			log.Printf("[automation] run failed for user %d: %v", userID, err)
			continue
		}
		reports = append(reports, *report)
	}
	return reports, nil
}

// RunForUser executes one orchestration pass for one user.
func (o *Orchestrator) RunForUser(ctx context.Context, userID int64) (*RunReport, error) {
	report := &RunReport{UserID: userID, StartedAt: time.Now().UTC()}
	defer func() { report.Duration = time.Since(report.StartedAt) }()

	if until, ok := o.cooldownUntil(ctx, userID); ok {
		report.Skipped = fmt.Sprintf("cooling down until %s", until.Format(time.RFC3339))
		return report, nil
	}

	user, err := o.db.GetUserProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if !user.AutomationEnabled {
		report.Skipped = "automation disabled"
		return report, nil
	}
	if !user.ApplyOnWeekends && isWeekend(time.Now()) {
		report.Skipped = "weekend applications disabled"
		return report, nil
	}

	remaining, err := o.remainingQuota(ctx, user)
	if err != nil {
		return nil, err
	}
	if remaining <= 0 {
		report.Skipped = "daily application limit reached"
		return report, nil
	}

	scores, err := o.matching.RefreshUserScores(ctx, user, scoreRefreshBatch)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh scores: %w", err)
	}
	report.ScoresRefreshed = len(scores)

	minScore := user.MinScoreThreshold
	if minScore <= 0 {
		minScore = o.cfg.MinScoreThreshold
	}
	built, err := o.packets.BuildForUser(ctx, user, o.matching.Engine().Version, o.cfg.TopKPackets, minScore)
	if err != nil {
		return nil, fmt.Errorf("failed to build packets: %w", err)
	}
	report.PacketsBuilt = len(built)

	for i := range built {
		if report.Enqueued >= remaining {
			break
		}
		packet := &built[i]
		if !packet.PacketReady {
			log.Printf("[automation] skipping job %s for user %d: %s", packet.JobID, userID, packet.NotReadyReason)
			continue
		}
		job, err := o.db.GetJobPosting(ctx, packet.JobID)
		if err != nil {
			log.Printf("[automation] skipping job %s: %v", packet.JobID, err)
			continue
		}
		if job == nil {
			log.Printf("[automation] skipping job %s: posting no longer exists", packet.JobID)
			continue
		}

		done := make(chan executor.TaskResult, 1)
		if !o.pool.Enqueue(ctx, executor.Task{
			User:     user,
			Job:      job,
			Packet:   packet,
			Strategy: user.PreferredStrategy,
			Done:     done,
		}) {
			break
		}
		report.Enqueued++

		result := <-done
		switch {
		case result.Err != nil && result.Result != nil && result.Result.FailureClass == executor.FailureRateLimited:
			report.Failed++
			report.CooledDown = true
			o.startCooldown(ctx, userID)
			log.Printf("[automation] user %d rate limited, pausing for %s", userID, o.cfg.CooldownDuration)
		case result.Err != nil:
			report.Failed++
		case result.Result.AlreadyApplied:
			report.AlreadyApplied++
		default:
			report.Applied++
		}
		if report.CooledDown {
			break
		}
	}

	log.Printf("[automation] user %d: %d scored, %d packets, %d applied, %d already applied, %d failed",
		userID, report.ScoresRefreshed, report.PacketsBuilt, report.Applied, report.AlreadyApplied, report.Failed)
	return report, nil
}

func (o *Orchestrator) remainingQuota(ctx context.Context, user *types.UserProfile) (int, error) {
	limit := user.DailyApplicationLimit
	if limit <= 0 {
		limit = o.cfg.TopKPackets
	}
	today, err := o.db.CountApplicationsToday(ctx, user.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to count today's applications: %w", err)
	}
	return limit - today, nil
}

func cooldownKey(userID int64) string {
	return fmt.Sprintf("automation:cooldown:%d", userID)
}

// startCooldown pauses the user via a redis TTL key, with an in-memory
// fallback when redis is not configured.
func (o *Orchestrator) startCooldown(ctx context.Context, userID int64) {
	until := time.Now().UTC().Add(o.cfg.CooldownDuration)
	if o.redis != nil {
		if err := o.redis.Set(ctx, cooldownKey(userID), until.Format(time.RFC3339), o.cfg.CooldownDuration).Err(); err != nil {
			log.Printf("[automation] failed to set cooldown key for user %d: %v", userID, err)
		}
	}
	o.mu.Lock()
	o.cooldowns[userID] = until
	o.mu.Unlock()
}

func (o *Orchestrator) cooldownUntil(ctx context.Context, userID int64) (time.Time, bool) {
	if o.redis != nil {
		if v, err := o.redis.Get(ctx, cooldownKey(userID)).Result(); err == nil {
			if until, err := time.Parse(time.RFC3339, v); err == nil {
				return until, true
			}
		}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	until, ok := o.cooldowns[userID]
	if ok && time.Now().UTC().Before(until) {
		return until, true
	}
	delete(o.cooldowns, userID)
	return time.Time{}, false
}

func isWeekend(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return false
}
