package store

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"prompterly/pkg/db/dbtest"
	"prompterly/pkg/models"
	"prompterly/pkg/schema"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) (*gorm.DB, *Store) {
	t.Helper()
	gdb := dbtest.Seeded(t)
	s, err := New(gdb, zerolog.Nop())
	require.NoError(t, err)
	return gdb, s
}

func loungeIDs(ls []models.Lounge) []uint64 {
	out := make([]uint64, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.ID)
	}
	return out
}

func TestListPublicLounges(t *testing.T) {
	_, s := newStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		opts ListOptions
		want []uint64
	}{
		{name: "all public", opts: ListOptions{OldestFirst: true}, want: []uint64{1, 2, 3, 4, 5, 6, 7, 8}},
		{name: "newest first", opts: ListOptions{Limit: 3}, want: []uint64{8, 7, 6}},
		{name: "second page", opts: ListOptions{Limit: 3, Offset: 3, OldestFirst: true}, want: []uint64{4, 5, 6}},
		{name: "by category", opts: ListOptions{CategorySlug: "career"}, want: []uint64{1}},
		{name: "hidden category", opts: ListOptions{CategorySlug: "finance"}, want: []uint64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListPublicLounges(ctx, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, loungeIDs(got))
		})
	}
}

func TestListPublicLoungesExcludesUnlistedInviteOnly(t *testing.T) {
	_, s := newStore(t)
	got, err := s.ListPublicLounges(context.Background(), ListOptions{Limit: maxPageSize})
	require.NoError(t, err)
	for _, l := range got {
		assert.True(t, l.IsPublicListing, "lounge %d", l.ID)
	}
	assert.NotContains(t, loungeIDs(got), uint64(9))
	assert.Contains(t, loungeIDs(got), uint64(7))
}

func TestJoinAndLeaveLounge(t *testing.T) {
	gdb, s := newStore(t)
	ctx := context.Background()
	require.NoError(t, gdb.Model(&models.Lounge{}).Where("id = ?", 5).Update("max_members", 4).Error)

	before, err := s.ActiveMembers(ctx, 5)
	require.NoError(t, err)
	require.Len(t, before, 3)

	m, err := s.JoinLounge(ctx, 8, 5, "", now)
	require.NoError(t, err)
	assert.Equal(t, models.MembershipMember, m.Role)
	assert.NotZero(t, m.ID)

	_, err = s.JoinLounge(ctx, 8, 5, models.MembershipMember, now)
	assert.ErrorIs(t, err, ErrAlreadyMember)

	_, err = s.JoinLounge(ctx, 9, 5, models.MembershipMember, now)
	assert.ErrorIs(t, err, ErrLoungeFull)

	require.NoError(t, s.LeaveLounge(ctx, 8, 5, now.Add(time.Hour)))
	assert.ErrorIs(t, s.LeaveLounge(ctx, 8, 5, now.Add(time.Hour)), ErrNotMember)

	active, err := s.ActiveMembers(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, active, 3)

	var rows int64
	require.NoError(t, gdb.Model(&models.LoungeMembership{}).Where("user_id = ? AND lounge_id = ?", 8, 5).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	_, err = s.JoinLounge(ctx, 9, 5, models.MembershipCoMentor, now)
	require.NoError(t, err)
}

func TestJoinLoungeRejectsBadInput(t *testing.T) {
	_, s := newStore(t)
	ctx := context.Background()

	_, err := s.JoinLounge(ctx, 8, 999, models.MembershipMember, now)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.JoinLounge(ctx, 8, 1, models.MembershipRole("owner"), now)
	var cv *schema.ConstraintViolation
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, schema.KindEnum, cv.Kind)
}

func TestAuditLogIsAppendOnly(t *testing.T) {
	gdb, s := newStore(t)
	ctx := context.Background()

	userID := uint64(1)
	entityID := uint64(3)
	entry := &models.AuditLog{
		UserID:     &userID,
		Action:     "lounge.updated",
		EntityType: "lounge",
		EntityID:   &entityID,
		Changes:    datatypes.JSONMap{"title": "Applied Data Science"},
	}
	require.NoError(t, s.AppendAudit(ctx, entry))
	require.NotZero(t, entry.ID)
	assert.Error(t, s.AppendAudit(ctx, entry))

	var cv *schema.ConstraintViolation
	err := gdb.Model(entry).Update("action", "lounge.deleted").Error
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, schema.KindAppendOnly, cv.Kind)

	err = gdb.Delete(entry).Error
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, schema.KindAppendOnly, cv.Kind)
}
