package consistency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"prompterly/pkg/bus"
	"prompterly/pkg/db/dbtest"
	"prompterly/pkg/models"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type recorder struct {
	subjects []string
	payloads []any
	err      error
}

func (r *recorder) Publish(_ context.Context, subj string, v any) error {
	r.subjects = append(r.subjects, subj)
	r.payloads = append(r.payloads, v)
	return r.err
}

func capsule(t *testing.T, gdb *gorm.DB, title string, status models.CapsuleStatus, unlockAt time.Time, unlockedAt *time.Time) uint64 {
	t.Helper()
	c := &models.TimeCapsule{UserID: 8, Title: title, Content: "dear future me", UnlockAt: unlockAt, Status: status, UnlockedAt: unlockedAt}
	require.NoError(t, gdb.Create(c).Error)
	return c.ID
}

func kinds(rep *Report) map[string][]int64 {
	out := make(map[string][]int64)
	for _, f := range rep.Findings {
		out[f.Kind] = append(out[f.Kind], f.ID)
	}
	return out
}

func TestCheckerReportsWithoutWriting(t *testing.T) {
	gdb := dbtest.Seeded(t)
	ctx := context.Background()

	due := capsule(t, gdb, "due", models.CapsuleLocked, now.Add(-time.Hour), nil)
	capsule(t, gdb, "later", models.CapsuleLocked, now.Add(time.Hour), nil)
	early := now.Add(-time.Minute)
	opened := capsule(t, gdb, "opened early", models.CapsuleUnlocked, now.Add(2*time.Hour), &early)

	renewed := now.Add(-10 * 24 * time.Hour)
	stale := &models.Subscription{UserID: 9, PlanID: 2, Status: models.SubscriptionActive, StartedAt: now.Add(-40 * 24 * time.Hour), RenewsAt: &renewed}
	require.NoError(t, gdb.Create(stale).Error)
	canceled := &models.Subscription{UserID: 10, PlanID: 2, Status: models.SubscriptionCanceled, StartedAt: now.Add(-time.Hour)}
	require.NoError(t, gdb.Create(canceled).Error)

	c, err := NewChecker(gdb, WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	rep, err := c.Run(ctx, now)
	require.NoError(t, err)

	got := kinds(rep)
	assert.Equal(t, []int64{int64(due)}, got[CapsuleLockedPastUnlock])
	assert.Equal(t, []int64{int64(opened)}, got[CapsuleUnlockedEarly])
	assert.Equal(t, []int64{int64(stale.ID)}, got[SubscriptionActivePastRenewal])
	assert.Equal(t, []int64{int64(canceled.ID)}, got[SubscriptionCanceledNoTimestamp])
	assert.Empty(t, got[MessageSenderMismatch])
	assert.Equal(t, 1, rep.Counts[CapsuleLockedPastUnlock])
	assert.False(t, rep.Clean())

	var kept models.TimeCapsule
	require.NoError(t, gdb.First(&kept, "id = ?", due).Error)
	assert.Equal(t, models.CapsuleLocked, kept.Status)
}

func TestCheckerOnSampleDataIsClean(t *testing.T) {
	gdb := dbtest.Seeded(t)
	c, err := NewChecker(gdb)
	require.NoError(t, err)
	rep, err := c.Run(context.Background(), now)
	require.NoError(t, err)
	assert.True(t, rep.Clean(), "%+v", rep.Findings)
}

func TestUnlockDue(t *testing.T) {
	gdb := dbtest.Seeded(t)
	ctx := context.Background()

	due := capsule(t, gdb, "due", models.CapsuleLocked, now.Add(-time.Hour), nil)
	later := capsule(t, gdb, "later", models.CapsuleLocked, now.Add(time.Hour), nil)

	pub := &recorder{}
	r, err := NewReconciler(gdb, pub, zerolog.Nop())
	require.NoError(t, err)

	got, err := r.UnlockDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, due, got[0].CapsuleID)
	assert.NotZero(t, got[0].NotificationID)

	var c models.TimeCapsule
	require.NoError(t, gdb.First(&c, "id = ?", due).Error)
	assert.Equal(t, models.CapsuleUnlocked, c.Status)
	require.NotNil(t, c.UnlockedAt)
	assert.True(t, c.UnlockedAt.Equal(now))

	var pending models.TimeCapsule
	require.NoError(t, gdb.First(&pending, "id = ?", later).Error)
	assert.Equal(t, models.CapsuleLocked, pending.Status)

	var n models.Notification
	require.NoError(t, gdb.First(&n, "id = ?", got[0].NotificationID).Error)
	assert.Equal(t, NotificationCapsuleUnlocked, n.Type)
	assert.Equal(t, uint64(8), n.UserID)

	var audits int64
	require.NoError(t, gdb.Model(&models.AuditLog{}).Where("action = ? AND entity_id = ?", AuditCapsuleUnlocked, due).Count(&audits).Error)
	assert.Equal(t, int64(1), audits)

	assert.Equal(t, []string{bus.SubjectCapsuleUnlocked}, pub.subjects)

	again, err := r.UnlockDue(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, again)

	checker, err := NewChecker(gdb)
	require.NoError(t, err)
	rep, err := checker.Run(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, rep.Counts[CapsuleLockedPastUnlock])
}

func TestUnlockDueKeepsCommitWhenPublishFails(t *testing.T) {
	gdb := dbtest.Seeded(t)
	due := capsule(t, gdb, "due", models.CapsuleLocked, now.Add(-time.Minute), nil)

	r, err := NewReconciler(gdb, &recorder{err: errors.New("nats down")}, zerolog.Nop())
	require.NoError(t, err)
	got, err := r.UnlockDue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, got, 1)

	var c models.TimeCapsule
	require.NoError(t, gdb.First(&c, "id = ?", due).Error)
	assert.Equal(t, models.CapsuleUnlocked, c.Status)
}
