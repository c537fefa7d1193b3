package migrate

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"prompterly/pkg/db"
)

type widget struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"size:100;not null"`
}

type gadget struct {
	ID       uint64  `gorm:"primaryKey;autoIncrement"`
	WidgetID uint64  `gorm:"not null"`
	Widget   *widget `gorm:"foreignKey:WidgetID;references:ID;constraint:OnDelete:CASCADE"`
	Label    *string `gorm:"size:50"`
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	h, err := db.Connect(context.Background(), db.Config{
		Driver:   db.SQLite,
		DSN:      filepath.Join(t.TempDir(), "migrate.db"),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h.ORM
}

func session(t *testing.T) (*Session, context.Context) {
	t.Helper()
	gdb := openDB(t)
	s := NewSession(gdb, zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, CreateTables{Models: []any{&widget{}, &gadget{}}}.Apply(ctx, s))
	return s, ctx
}

func columns(t *testing.T, s *Session, table string) []string {
	t.Helper()
	cols, err := Columns(context.Background(), s.DB, table)
	require.NoError(t, err)
	return cols
}

func TestAddAndDropColumnAreIdempotent(t *testing.T) {
	s, ctx := session(t)
	before := columns(t, s, "widgets")

	add := AddColumn{Table: "widgets", Column: Column{Name: "color", Type: String, Size: 7, NotNull: true, Default: "'#9ECCF2'", Index: true}}
	require.NoError(t, add.Apply(ctx, s))
	require.NoError(t, add.Apply(ctx, s))
	assert.Contains(t, columns(t, s, "widgets"), "color")
	assert.True(t, s.DB.Migrator().HasIndex("widgets", "idx_widgets_color"))

	drop := DropColumn{Table: "widgets", Column: "color"}
	require.NoError(t, drop.Apply(ctx, s))
	require.NoError(t, drop.Apply(ctx, s))
	assert.Equal(t, before, columns(t, s, "widgets"))
	assert.False(t, s.DB.Migrator().HasIndex("widgets", "idx_widgets_color"))
}

func TestAddColumnWithReference(t *testing.T) {
	s, ctx := session(t)

	add := AddColumn{Table: "gadgets", Column: Column{
		Name:       "spare_id",
		Type:       Ref,
		References: &Reference{Table: "widgets", OnDelete: "set null"},
	}}
	require.NoError(t, add.Apply(ctx, s))
	require.NoError(t, add.Apply(ctx, s))
	assert.True(t, s.DB.Migrator().HasIndex("gadgets", "idx_gadgets_spare_id"))

	require.NoError(t, s.DB.Exec("INSERT INTO widgets (id, name) VALUES (1, 'a'), (2, 'b')").Error)
	require.NoError(t, s.DB.Exec("INSERT INTO gadgets (id, widget_id, spare_id) VALUES (1, 1, 2)").Error)
	require.NoError(t, s.DB.Exec("DELETE FROM widgets WHERE id = 2").Error)

	var spare sql.NullInt64
	require.NoError(t, db.Get(ctx, s.DB, &spare, "SELECT spare_id FROM gadgets WHERE id = 1"))
	assert.False(t, spare.Valid)

	err := DropColumn{Table: "gadgets", Column: "spare_id"}.Apply(ctx, s)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestRenameColumn(t *testing.T) {
	s, ctx := session(t)

	op := RenameColumn{Table: "gadgets", From: "label", To: "caption"}
	require.NoError(t, op.Apply(ctx, s))
	require.NoError(t, op.Apply(ctx, s))
	cols := columns(t, s, "gadgets")
	assert.Contains(t, cols, "caption")
	assert.NotContains(t, cols, "label")

	err := RenameColumn{Table: "gadgets", From: "missing", To: "other"}.Apply(ctx, s)
	assert.Error(t, err)
}

func TestMoveColumnCopiesOnlyIntoEmptyTargets(t *testing.T) {
	s, ctx := session(t)

	require.NoError(t, s.DB.Exec("INSERT INTO widgets (id, name) VALUES (1, 'one'), (2, 'two'), (3, 'three')").Error)
	require.NoError(t, s.DB.Exec(`INSERT INTO gadgets (id, widget_id, label) VALUES
		(1, 1, NULL), (2, 1, 'first'), (3, 1, 'second'), (4, 2, 'only'), (5, 3, NULL)`).Error)
	require.NoError(t, AddColumn{Table: "widgets", Column: Column{Name: "label", Type: String, Size: 50}}.Apply(ctx, s))
	require.NoError(t, s.DB.Exec("UPDATE widgets SET label = 'kept' WHERE id = 2").Error)

	op := MoveColumn{
		From:      ColumnRef{Table: "gadgets", Column: "label"},
		To:        ColumnRef{Table: "widgets", Column: "label"},
		Column:    Column{Type: String, Size: 50},
		SourceKey: "widget_id",
		TargetKey: "id",
	}
	require.NoError(t, op.Apply(ctx, s))
	require.NoError(t, op.Apply(ctx, s))

	var got []struct {
		ID    int64   `db:"id"`
		Label *string `db:"label"`
	}
	require.NoError(t, db.Select(ctx, s.DB, &got, "SELECT id, label FROM widgets ORDER BY id"))
	require.Len(t, got, 3)
	require.NotNil(t, got[0].Label)
	assert.Equal(t, "first", *got[0].Label)
	require.NotNil(t, got[1].Label)
	assert.Equal(t, "kept", *got[1].Label)
	assert.Nil(t, got[2].Label)
	assert.NotContains(t, columns(t, s, "gadgets"), "label")
}

func TestSQLDescribe(t *testing.T) {
	assert.Equal(t, "lowercase roles", SQL{Label: "lowercase roles", Statement: "UPDATE users SET role = lower(role)"}.Describe())
	assert.Equal(t, "UPDATE users SET role = lower(role)", SQL{Statement: "UPDATE users\n\tSET role = lower(role)"}.Describe())
}

func history() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "widgets",
			Up:      []Operation{CreateTables{Models: []any{&widget{}}}},
			Down:    []Operation{DropTables{Tables: []string{"widgets"}}},
		},
		{
			Version: 2,
			Name:    "gadgets",
			Up:      []Operation{CreateTables{Models: []any{&gadget{}}}},
			Down:    []Operation{DropTables{Tables: []string{"gadgets"}}},
		},
		{
			Version: 3,
			Name:    "widget_color",
			Up:      []Operation{AddColumn{Table: "widgets", Column: Column{Name: "color", Type: String, Size: 7}}},
			Down:    []Operation{DropColumn{Table: "widgets", Column: "color"}},
		},
	}
}

func TestRunnerUpDownStatus(t *testing.T) {
	gdb := openDB(t)
	ctx := context.Background()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r, err := New(gdb, history(), WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)

	marker, err := r.Version(ctx)
	require.NoError(t, err)
	assert.Zero(t, marker.Version)

	res, err := r.Up(ctx)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, "0003_widget_color", res[2].ID())

	marker, err = r.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), marker.Version)
	assert.Equal(t, "widget_color", marker.Name)
	assert.False(t, marker.Dirty)
	assert.True(t, marker.AppliedAt.Equal(fixed))

	res, err = r.Up(ctx)
	require.NoError(t, err)
	assert.Empty(t, res)

	down, err := r.Down(ctx)
	require.NoError(t, err)
	require.NotNil(t, down)
	assert.Equal(t, int64(3), down.Version)
	assert.NotContains(t, columns(t, NewSession(gdb, zerolog.Nop()), "widgets"), "color")

	marker, err = r.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), marker.Version)

	status, err := r.Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, 3)
	assert.True(t, status[0].Applied)
	assert.True(t, status[1].Applied)
	assert.False(t, status[2].Applied)
	assert.Equal(t, "widget_color", status[2].Name)

	_, err = r.DownTo(ctx, 0)
	require.NoError(t, err)
	assert.False(t, gdb.Migrator().HasTable("widgets"))
	down, err = r.Down(ctx)
	require.NoError(t, err)
	assert.Nil(t, down)

	_, err = r.UpTo(ctx, 2)
	require.NoError(t, err)
	marker, err = r.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), marker.Version)
}

func TestRunnerDeclarationErrors(t *testing.T) {
	gdb := openDB(t)
	tests := []struct {
		name       string
		migrations []Migration
	}{
		{"empty", nil},
		{"zero version", []Migration{{Version: 0, Name: "zero"}}},
		{"descending", []Migration{{Version: 2, Name: "b"}, {Version: 1, Name: "a"}}},
		{"duplicate", []Migration{{Version: 1, Name: "a"}, {Version: 1, Name: "b"}}},
		{"unnamed", []Migration{{Version: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(gdb, tt.migrations)
			var seqErr *SequenceError
			require.True(t, errors.As(err, &seqErr), "got %v", err)
			assert.Equal(t, ReasonDeclaration, seqErr.Reason)
		})
	}
	_, err := New(nil, history())
	assert.Error(t, err)
}

func TestRunnerRejectsUnreconcilableHistory(t *testing.T) {
	ctx := context.Background()
	all := history()

	t.Run("unknown applied version", func(t *testing.T) {
		gdb := openDB(t)
		r, err := New(gdb, all)
		require.NoError(t, err)
		_, err = r.Up(ctx)
		require.NoError(t, err)

		short, err := New(gdb, all[:2])
		require.NoError(t, err)
		_, err = short.Up(ctx)
		var seqErr *SequenceError
		require.True(t, errors.As(err, &seqErr), "got %v", err)
		assert.Equal(t, ReasonUnknown, seqErr.Reason)
		assert.Equal(t, int64(3), seqErr.Version)
	})

	t.Run("gap below head", func(t *testing.T) {
		gdb := openDB(t)
		r, err := New(gdb, []Migration{all[0], all[2]})
		require.NoError(t, err)
		_, err = r.Up(ctx)
		require.NoError(t, err)

		full, err := New(gdb, all)
		require.NoError(t, err)
		_, err = full.Up(ctx)
		var seqErr *SequenceError
		require.True(t, errors.As(err, &seqErr), "got %v", err)
		assert.Equal(t, ReasonGap, seqErr.Reason)
		assert.Equal(t, int64(2), seqErr.Version)
	})
}

func TestRunnerFailedMigrationRollsBack(t *testing.T) {
	gdb := openDB(t)
	ctx := context.Background()
	migrations := []Migration{
		history()[0],
		{
			Version: 2,
			Name:    "broken",
			Up: []Operation{
				CreateTables{Models: []any{&gadget{}}},
				SQL{Label: "bad statement", Statement: "UPDATE no_such_table SET x = 1"},
			},
		},
	}
	r, err := New(gdb, migrations)
	require.NoError(t, err)

	_, err = r.Up(ctx)
	var migErr *MigrationError
	require.True(t, errors.As(err, &migErr), "got %v", err)
	assert.Equal(t, int64(2), migErr.Version)
	assert.Equal(t, "broken", migErr.Name)
	assert.Contains(t, err.Error(), "0002_broken")

	assert.False(t, gdb.Migrator().HasTable("gadgets"))
	marker, err := r.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), marker.Version)
	assert.False(t, marker.Dirty)
}

func TestRunnerNoTxPartialStateAndRepair(t *testing.T) {
	gdb := openDB(t)
	ctx := context.Background()
	migrations := []Migration{
		history()[0],
		{
			Version: 2,
			Name:    "two_steps",
			NoTx:    true,
			Up: []Operation{
				AddColumn{Table: "widgets", Column: Column{Name: "weight", Type: Float}},
				SQL{Label: "bad statement", Statement: "UPDATE no_such_table SET x = 1"},
			},
			Down: []Operation{DropColumn{Table: "widgets", Column: "weight"}},
		},
	}
	r, err := New(gdb, migrations)
	require.NoError(t, err)

	_, err = r.Up(ctx)
	var partial *PartialState
	require.True(t, errors.As(err, &partial), "got %v", err)
	assert.Equal(t, int64(2), partial.Version)
	assert.Equal(t, []string{"add column widgets.weight"}, partial.Completed)
	assert.Equal(t, "bad statement", partial.Failed)

	marker, err := r.Version(ctx)
	require.NoError(t, err)
	assert.True(t, marker.Dirty)
	assert.Equal(t, int64(2), marker.Version)

	_, err = r.Up(ctx)
	var seqErr *SequenceError
	require.True(t, errors.As(err, &seqErr), "got %v", err)
	assert.Equal(t, ReasonDirty, seqErr.Reason)

	_, err = r.Quiesce(ctx)
	assert.ErrorIs(t, err, ErrMigrationInProgress)

	// The operator finished the migration by hand.
	require.NoError(t, r.Repair(ctx, 2))
	marker, err = r.Version(ctx)
	require.NoError(t, err)
	assert.False(t, marker.Dirty)
	assert.Equal(t, int64(2), marker.Version)

	res, err := r.Up(ctx)
	require.NoError(t, err)
	assert.Empty(t, res)

	release, err := r.Quiesce(ctx)
	require.NoError(t, err)
	release()
}
