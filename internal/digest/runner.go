package digest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/conclave-hq/conclave/internal/sink"
)

// scheduleParser accepts standard 5-field cron expressions
// (minute, hour, day-of-month, month, day-of-week).
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// untilNextFire computes how long until the schedule next fires. Returns
// 0 for expressions that fail to parse; NewRunner rejects those before a
// Runner exists, so a running timer never resets to zero.
func untilNextFire(expr string) time.Duration {
	sched, err := scheduleParser.Parse(expr)
	if err != nil {
		return 0
	}
	d := time.Until(sched.Next(time.Now()))
	if d < 0 {
		return 0
	}
	return d
}

// RunnerOpts holds configuration for a digest Runner.
type RunnerOpts struct {
	DB       *gorm.DB
	Sink     sink.Sink
	Schedule string // 5-field cron expression
	// PendingAfter is how long an approval must sit unanswered before it
	// appears in a digest.
	PendingAfter time.Duration
}

// Runner fires pending-approval digests on a cron schedule.
type Runner struct {
	db           *gorm.DB
	sink         sink.Sink
	schedule     string
	pendingAfter time.Duration
}

// NewRunner validates opts and returns a Runner.
func NewRunner(opts RunnerOpts) (*Runner, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("digest: db is required")
	}
	if opts.Sink == nil {
		opts.Sink = sink.Discard{}
	}
	if opts.Schedule == "" {
		return nil, fmt.Errorf("digest: schedule is required")
	}
	if _, err := scheduleParser.Parse(opts.Schedule); err != nil {
		return nil, fmt.Errorf("digest: parse schedule %q: %w", opts.Schedule, err)
	}
	if opts.PendingAfter <= 0 {
		opts.PendingAfter = time.Hour
	}
	return &Runner{
		db:           opts.DB,
		sink:         opts.Sink,
		schedule:     opts.Schedule,
		pendingAfter: opts.PendingAfter,
	}, nil
}

// Run blocks until ctx is cancelled, firing a digest at each cron tick.
func (r *Runner) Run(ctx context.Context) error {
	timer := time.NewTimer(untilNextFire(r.schedule))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			r.Fire(ctx)
			timer.Reset(untilNextFire(r.schedule))
		}
	}
}

// Fire builds one digest and pushes a reminder per session owner. A run
// with no stale approvals sends nothing.
func (r *Runner) Fire(ctx context.Context) {
	report, err := BuildPendingApprovalReport(r.db, r.pendingAfter)
	if err != nil {
		log.Printf("digest: build report: %v", err)
		return
	}
	if report == nil {
		return
	}

	for owner, entries := range report.ByOwner() {
		r.sink.Notify(ctx, sink.Event{
			Name:        EventApprovalDigest,
			OwnerUserID: owner,
			Payload: map[string]any{
				"generated_at": report.GeneratedAt,
				"summary":      FormatReport(entries),
				"approvals":    entries,
			},
		})
	}
}
