// Package consistency finds rows whose status disagrees with their timestamps
// and repairs the ones that have an explicit reconcile job.
package consistency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"prompterly/pkg/db"
	"prompterly/pkg/metrics"
)

// Finding kinds.
const (
	CapsuleLockedPastUnlock          = "capsule_locked_past_unlock"
	CapsuleUnlockedEarly             = "capsule_unlocked_early"
	CapsuleUnlockedWithoutTimestamp  = "capsule_unlocked_without_timestamp"
	SubscriptionCanceledNoTimestamp  = "subscription_canceled_without_timestamp"
	SubscriptionActiveButCanceled    = "subscription_active_but_canceled"
	SubscriptionActivePastRenewal    = "subscription_active_past_renewal"
	NotificationReadWithoutTimestamp = "notification_read_without_timestamp"
	NotificationSentWithoutTimestamp = "notification_sent_without_timestamp"
	MessageSenderMismatch            = "message_sender_mismatch"
)

const DefaultGrace = 72 * time.Hour

type Finding struct {
	Kind   string `json:"kind"`
	Table  string `json:"table"`
	ID     int64  `json:"id"`
	Detail string `json:"detail"`
}

type Report struct {
	CheckedAt time.Time      `json:"checked_at"`
	Findings  []Finding      `json:"findings"`
	Counts    map[string]int `json:"counts"`
}

// Clean reports whether nothing was found.
func (r *Report) Clean() bool { return len(r.Findings) == 0 }

// check selects the ids of offending rows. Placeholders take now, then the
// renewal cutoff when cutoff is set.
type check struct {
	kind   string
	table  string
	detail string
	where  string
	args   func(now, cutoff time.Time) []any
}

func nowArg(now, _ time.Time) []any { return []any{now} }
func cutoffArg(_, cutoff time.Time) []any { return []any{cutoff} }

func subscriptionChecks(table string) []check {
	return []check{
		{
			kind:   SubscriptionCanceledNoTimestamp,
			table:  table,
			detail: "status canceled but canceled_at is null",
			where:  "status = 'canceled' AND canceled_at IS NULL",
		},
		{
			kind:   SubscriptionActiveButCanceled,
			table:  table,
			detail: "status is not canceled but canceled_at is set",
			where:  "status IN ('trialing','active','past_due') AND canceled_at IS NOT NULL",
		},
		{
			kind:   SubscriptionActivePastRenewal,
			table:  table,
			detail: "status active but renews_at is past the grace period",
			where:  "status = 'active' AND renews_at IS NOT NULL AND renews_at < ?",
			args:   cutoffArg,
		},
	}
}

var checks = append(append([]check{
	{
		kind:   CapsuleLockedPastUnlock,
		table:  "time_capsules",
		detail: "locked although unlock_at has passed",
		where:  "status = 'locked' AND unlock_at <= ?",
		args:   nowArg,
	},
	{
		kind:   CapsuleUnlockedEarly,
		table:  "time_capsules",
		detail: "unlocked before unlock_at",
		where:  "status = 'unlocked' AND unlock_at > ?",
		args:   nowArg,
	},
	{
		kind:   CapsuleUnlockedWithoutTimestamp,
		table:  "time_capsules",
		detail: "unlocked but unlocked_at is null",
		where:  "status = 'unlocked' AND unlocked_at IS NULL",
	},
	{
		kind:   NotificationReadWithoutTimestamp,
		table:  "notifications",
		detail: "status read but read_at is null",
		where:  "status = 'read' AND read_at IS NULL",
	},
	{
		kind:   NotificationSentWithoutTimestamp,
		table:  "notifications",
		detail: "email marked sent but sent_at is null",
		where:  "channel = 'email' AND status IN ('sent','read') AND sent_at IS NULL",
	},
	{
		kind:   MessageSenderMismatch,
		table:  "chat_messages",
		detail: "sender_type disagrees with user_id",
		where:  "(sender_type IN ('user','mentor') AND user_id IS NULL) OR (sender_type = 'ai' AND user_id IS NOT NULL)",
	},
}, subscriptionChecks("subscriptions")...), subscriptionChecks("lounge_subscriptions")...)

type Option func(*Checker)

func WithLogger(l zerolog.Logger) Option {
	return func(c *Checker) { c.log = l }
}

// WithGrace sets how long an active subscription may sit past renews_at.
func WithGrace(d time.Duration) Option {
	return func(c *Checker) { c.grace = d }
}

// Checker runs read-only consistency queries.
type Checker struct {
	db     *gorm.DB
	log    zerolog.Logger
	grace  time.Duration
	tracer trace.Tracer
}

func NewChecker(gdb *gorm.DB, opts ...Option) (*Checker, error) {
	if gdb == nil {
		return nil, errors.New("db is required")
	}
	c := &Checker{db: gdb, log: zerolog.Nop(), grace: DefaultGrace, tracer: otel.Tracer("prompterly/consistency")}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run evaluates every check at now. It never writes.
func (c *Checker) Run(ctx context.Context, now time.Time) (*Report, error) {
	now = now.UTC()
	cutoff := now.Add(-c.grace)
	rep := &Report{CheckedAt: now, Findings: []Finding{}, Counts: make(map[string]int)}
	for _, chk := range checks {
		found, err := c.run(ctx, chk, now, cutoff)
		if err != nil {
			return nil, err
		}
		rep.Findings = append(rep.Findings, found...)
		rep.Counts[chk.kind] += len(found)
	}
	for kind, n := range rep.Counts {
		metrics.ConsistencyFindings.WithLabelValues(kind).Set(float64(n))
	}
	c.log.Info().Int("findings", len(rep.Findings)).Msg("consistency check complete")
	return rep, nil
}

func (c *Checker) run(ctx context.Context, chk check, now, cutoff time.Time) (found []Finding, err error) {
	ctx, span := c.tracer.Start(ctx, "consistency.check", trace.WithAttributes(
		attribute.String("check.kind", chk.kind),
		attribute.String("check.table", chk.table),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Int("check.findings", len(found)))
		span.End()
	}()

	var args []any
	if chk.args != nil {
		args = chk.args(now, cutoff)
	}
	q := fmt.Sprintf("SELECT id FROM %s WHERE %s ORDER BY id", chk.table, chk.where)
	var ids []int64
	if err := db.Select(ctx, c.db, &ids, q, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", chk.kind, err)
	}
	for _, id := range ids {
		found = append(found, Finding{Kind: chk.kind, Table: chk.table, ID: id, Detail: chk.detail})
	}
	if len(ids) > 0 {
		c.log.Warn().Str("kind", chk.kind).Str("table", chk.table).Int("rows", len(ids)).Msg("inconsistent rows")
	}
	return found, nil
}
