package consistency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"prompterly/pkg/bus"
	"prompterly/pkg/models"
)

const (
	NotificationCapsuleUnlocked = "capsule_unlocked"
	AuditCapsuleUnlocked        = "capsule.unlocked"

	defaultBatch = 100
)

// Reconciler applies explicit repairs. Nothing in the store unlocks capsules
// implicitly; this job is the only writer of the locked to unlocked transition.
type Reconciler struct {
	db    *gorm.DB
	pub   bus.Publisher
	log   zerolog.Logger
	batch int
}

// NewReconciler builds a Reconciler. pub may be nil to skip event publishing.
func NewReconciler(gdb *gorm.DB, pub bus.Publisher, log zerolog.Logger) (*Reconciler, error) {
	if gdb == nil {
		return nil, errors.New("db is required")
	}
	return &Reconciler{db: gdb, pub: pub, log: log, batch: defaultBatch}, nil
}

// Unlocked describes one capsule flipped by UnlockDue.
type Unlocked struct {
	CapsuleID      uint64 `json:"capsule_id"`
	UserID         uint64 `json:"user_id"`
	NotificationID uint64 `json:"notification_id"`
}

// UnlockDue unlocks every locked capsule whose unlock_at is at or before now.
// Each capsule is flipped, notified and audited in its own transaction; the
// unlock event is published only after that transaction commits.
func (r *Reconciler) UnlockDue(ctx context.Context, now time.Time) ([]Unlocked, error) {
	now = now.UTC()
	var due []models.TimeCapsule
	err := r.db.WithContext(ctx).
		Where("status = ? AND unlock_at <= ?", models.CapsuleLocked, now).
		Order("unlock_at ASC, id ASC").
		Limit(r.batch).
		Find(&due).Error
	if err != nil {
		return nil, fmt.Errorf("find due capsules: %w", err)
	}

	out := make([]Unlocked, 0, len(due))
	for _, c := range due {
		u, ok, err := r.unlock(ctx, c, now)
		if err != nil {
			return out, fmt.Errorf("unlock capsule %d: %w", c.ID, err)
		}
		if !ok {
			continue
		}
		out = append(out, u)
		r.publish(ctx, u)
	}
	if len(out) > 0 {
		r.log.Info().Int("unlocked", len(out)).Msg("capsules unlocked")
	}
	return out, nil
}

func (r *Reconciler) unlock(ctx context.Context, c models.TimeCapsule, now time.Time) (Unlocked, bool, error) {
	var u Unlocked
	flipped := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.TimeCapsule{}).
			Where("id = ? AND status = ?", c.ID, models.CapsuleLocked).
			Updates(map[string]any{"status": models.CapsuleUnlocked, "unlocked_at": now, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		flipped = true

		n := &models.Notification{
			UserID:  c.UserID,
			Type:    NotificationCapsuleUnlocked,
			Title:   "Your time capsule is ready",
			Message: fmt.Sprintf("%q is now unlocked.", c.Title),
			Data:    datatypes.JSONMap{"capsule_id": c.ID},
			Channel: models.ChannelInApp,
			Status:  models.NotificationQueued,
		}
		if err := tx.Create(n).Error; err != nil {
			return fmt.Errorf("notify: %w", err)
		}

		entityID := c.ID
		audit := &models.AuditLog{
			UserID:     &c.UserID,
			Action:     AuditCapsuleUnlocked,
			EntityType: "time_capsule",
			EntityID:   &entityID,
			Changes:    datatypes.JSONMap{"status": []string{string(models.CapsuleLocked), string(models.CapsuleUnlocked)}},
			Metadata:   datatypes.JSONMap{"unlock_at": c.UnlockAt.UTC().Format(time.RFC3339), "notification_id": n.ID},
		}
		if err := tx.Create(audit).Error; err != nil {
			return fmt.Errorf("audit: %w", err)
		}
		u = Unlocked{CapsuleID: c.ID, UserID: c.UserID, NotificationID: n.ID}
		return nil
	})
	if err != nil {
		return Unlocked{}, false, err
	}
	return u, flipped, nil
}

func (r *Reconciler) publish(ctx context.Context, u Unlocked) {
	if r.pub == nil {
		return
	}
	evt := bus.CapsuleUnlocked{CapsuleID: u.CapsuleID, UserID: u.UserID, NotificationID: u.NotificationID}
	if err := r.pub.Publish(ctx, bus.SubjectCapsuleUnlocked, evt); err != nil {
		r.log.Warn().Err(err).Uint64("capsule_id", u.CapsuleID).Msg("publish capsule unlocked")
	}
}
