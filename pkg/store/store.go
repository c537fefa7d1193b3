// Package store holds the collaborator-facing queries over lounges,
// memberships and the audit log.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"prompterly/pkg/db"
	"prompterly/pkg/models"
	"prompterly/pkg/schema"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyMember = errors.New("already a member")
	ErrNotMember     = errors.New("not a member")
	ErrLoungeFull    = errors.New("lounge is full")
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Store struct {
	db  *gorm.DB
	log zerolog.Logger
}

func New(gdb *gorm.DB, log zerolog.Logger) (*Store, error) {
	if gdb == nil {
		return nil, errors.New("db is required")
	}
	return &Store{db: gdb, log: log}, nil
}

// ListOptions filters and pages the public lounge directory.
type ListOptions struct {
	CategorySlug string
	Limit        int
	Offset       int
	// OldestFirst flips the default newest-first ordering.
	OldestFirst bool
}

// ListPublicLounges returns lounges flagged for the public directory. Access
// type does not matter; only is_public_listing does.
func (s *Store) ListPublicLounges(ctx context.Context, opts ListOptions) ([]models.Lounge, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	q := s.db.WithContext(ctx).Model(&models.Lounge{}).Where("lounges.is_public_listing = ?", true)
	if opts.CategorySlug != "" {
		q = q.Joins("JOIN categories ON categories.id = lounges.category_id").
			Where("categories.slug = ?", opts.CategorySlug)
	}
	order := "lounges.created_at DESC, lounges.id DESC"
	if opts.OldestFirst {
		order = "lounges.created_at ASC, lounges.id ASC"
	}

	var out []models.Lounge
	if err := q.Order(order).Limit(limit).Offset(opts.Offset).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list public lounges: %w", err)
	}
	return out, nil
}

// JoinLounge adds an active membership. A lounge with max_members set accepts
// no more active members than that.
func (s *Store) JoinLounge(ctx context.Context, userID, loungeID uint64, role models.MembershipRole, now time.Time) (*models.LoungeMembership, error) {
	if role == "" {
		role = models.MembershipMember
	}
	if !slices.Contains(role.Values(), string(role)) {
		return nil, &schema.ConstraintViolation{Kind: schema.KindEnum, Table: "lounge_memberships", Column: "role", Value: string(role), Allowed: role.Values()}
	}

	var joined *models.LoungeMembership
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lounge models.Lounge
		lq := tx
		if db.DriverOf(tx) != db.SQLite {
			lq = lq.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
		}
		switch err := lq.First(&lounge, "id = ?", loungeID).Error; {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("lounge %d: %w", loungeID, ErrNotFound)
		case err != nil:
			return err
		}

		var active int64
		if err := tx.Model(&models.LoungeMembership{}).
			Where("lounge_id = ? AND user_id = ? AND left_at IS NULL", loungeID, userID).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return ErrAlreadyMember
		}

		if lounge.MaxMembers != nil {
			var members int64
			if err := tx.Model(&models.LoungeMembership{}).
				Where("lounge_id = ? AND left_at IS NULL", loungeID).
				Count(&members).Error; err != nil {
				return err
			}
			if members >= int64(*lounge.MaxMembers) {
				return ErrLoungeFull
			}
		}

		m := &models.LoungeMembership{UserID: userID, LoungeID: loungeID, Role: role, JoinedAt: now.UTC()}
		if err := tx.Create(m).Error; err != nil {
			return schema.TranslateError(err)
		}
		joined = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Uint64("user_id", userID).Uint64("lounge_id", loungeID).Msg("joined lounge")
	return joined, nil
}

// LeaveLounge ends the active membership by stamping left_at. The row is kept.
func (s *Store) LeaveLounge(ctx context.Context, userID, loungeID uint64, now time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.LoungeMembership{}).
		Where("lounge_id = ? AND user_id = ? AND left_at IS NULL", loungeID, userID).
		Update("left_at", now.UTC())
	if res.Error != nil {
		return fmt.Errorf("leave lounge: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotMember
	}
	return nil
}

// ActiveMembers lists memberships that have not been left, oldest first.
func (s *Store) ActiveMembers(ctx context.Context, loungeID uint64) ([]models.LoungeMembership, error) {
	var out []models.LoungeMembership
	err := s.db.WithContext(ctx).
		Where("lounge_id = ? AND left_at IS NULL", loungeID).
		Order("joined_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("active members: %w", err)
	}
	return out, nil
}

// AppendAudit records an audit entry. Audit rows are never updated or deleted.
func (s *Store) AppendAudit(ctx context.Context, entry *models.AuditLog) error {
	if entry == nil {
		return errors.New("audit entry is required")
	}
	if entry.ID != 0 {
		return fmt.Errorf("audit entry already has id %d", entry.ID)
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}
