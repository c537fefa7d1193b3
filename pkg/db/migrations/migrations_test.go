package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"prompterly/pkg/db"
	"prompterly/pkg/db/migrate"
	"prompterly/pkg/schema"
)

func openRunner(t *testing.T) (*gorm.DB, *migrate.Runner) {
	t.Helper()
	h, err := db.Connect(context.Background(), db.Config{
		Driver:   db.SQLite,
		DSN:      filepath.Join(t.TempDir(), "history.db"),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	r, err := migrate.New(h.ORM, All(), migrate.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	return h.ORM, r
}

func TestHistoryIsContiguous(t *testing.T) {
	all := All()
	require.NotEmpty(t, all)
	for i, m := range all {
		assert.Equal(t, int64(i+1), m.Version, m.ID())
		assert.NotEmpty(t, m.Name)
		assert.NotEmpty(t, m.Up, m.ID())
	}
	assert.Equal(t, int64(len(all)), Latest())
}

func TestHistoryConvergesOnRegistry(t *testing.T) {
	ctx := context.Background()
	gdb, r := openRunner(t)

	res, err := r.Up(ctx)
	require.NoError(t, err)
	assert.Len(t, res, len(All()))

	reg, err := schema.Canonical()
	require.NoError(t, err)
	drift, err := migrate.CheckDrift(ctx, gdb, reg)
	require.NoError(t, err)
	assert.Empty(t, drift)

	marker, err := r.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, Latest(), marker.Version)
	assert.False(t, marker.Dirty)

	res, err = r.Up(ctx)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestMentorTitleRoundTripRestoresBaseline(t *testing.T) {
	ctx := context.Background()
	gdb, r := openRunner(t)
	_, err := r.UpTo(ctx, 1)
	require.NoError(t, err)

	before, err := migrate.Columns(ctx, gdb, "mentors")
	require.NoError(t, err)

	s := migrate.NewSession(gdb, zerolog.Nop())
	add := migrate.AddColumn{Table: "mentors", Column: ProfileFields[0]}
	require.NoError(t, add.Apply(ctx, s))
	require.NoError(t, add.Apply(ctx, s))

	with, err := migrate.Columns(ctx, gdb, "mentors")
	require.NoError(t, err)
	assert.Contains(t, with, "mentor_title")

	drop := migrate.DropColumn{Table: "mentors", Column: "mentor_title"}
	require.NoError(t, drop.Apply(ctx, s))
	require.NoError(t, drop.Apply(ctx, s))

	after, err := migrate.Columns(ctx, gdb, "mentors")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestEnumValuesAreLowercased(t *testing.T) {
	ctx := context.Background()
	gdb, r := openRunner(t)
	_, err := r.UpTo(ctx, 4)
	require.NoError(t, err)

	require.NoError(t, gdb.Exec(`INSERT INTO users (email, full_name, role, is_active, created_at, updated_at)
		VALUES ('legacy@prompterly.test', 'Legacy', 'MENTOR', 1, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`).Error)

	_, err = r.UpTo(ctx, 5)
	require.NoError(t, err)

	var role string
	require.NoError(t, db.Get(ctx, gdb, &role, "SELECT role FROM users WHERE email = ?", "legacy@prompterly.test"))
	assert.Equal(t, "mentor", role)
}

func TestProfileFieldsMoveToMentors(t *testing.T) {
	ctx := context.Background()
	gdb, r := openRunner(t)
	_, err := r.UpTo(ctx, 13)
	require.NoError(t, err)

	stmts := []string{
		`INSERT INTO users (id, email, full_name, role, is_active, created_at, updated_at)
			VALUES (1, 'coach@prompterly.test', 'Coach', 'mentor', 1, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		`INSERT INTO mentors (id, user_id, status, created_at, updated_at)
			VALUES (1, 1, 'approved', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		`INSERT INTO lounges (id, mentor_id, title, slug, access_type, is_public_listing, mentor_title, created_at, updated_at)
			VALUES (1, 1, 'First', 'first', 'free', 1, NULL, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		`INSERT INTO lounges (id, mentor_id, title, slug, access_type, is_public_listing, mentor_title, created_at, updated_at)
			VALUES (2, 1, 'Second', 'second', 'free', 1, 'Career Coach', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		`INSERT INTO lounges (id, mentor_id, title, slug, access_type, is_public_listing, mentor_title, created_at, updated_at)
			VALUES (3, 1, 'Third', 'third', 'free', 1, 'Life Guide', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
	}
	for _, q := range stmts {
		require.NoError(t, gdb.Exec(q).Error)
	}

	_, err = r.UpTo(ctx, 14)
	require.NoError(t, err)

	var title sql.NullString
	require.NoError(t, db.Get(ctx, gdb, &title, "SELECT mentor_title FROM mentors WHERE id = 1"))
	assert.Equal(t, "Career Coach", title.String)

	lounge, err := migrate.Columns(ctx, gdb, "lounges")
	require.NoError(t, err)
	assert.NotContains(t, lounge, "mentor_title")

	_, err = r.Down(ctx)
	require.NoError(t, err)

	var titles []sql.NullString
	require.NoError(t, db.Select(ctx, gdb, &titles, "SELECT mentor_title FROM lounges ORDER BY id"))
	require.Len(t, titles, 3)
	for _, got := range titles {
		assert.Equal(t, "Career Coach", got.String)
	}
	mentor, err := migrate.Columns(ctx, gdb, "mentors")
	require.NoError(t, err)
	assert.NotContains(t, mentor, "mentor_title")
}

func TestReferenceColumnsCannotBeDroppedOnSQLite(t *testing.T) {
	ctx := context.Background()
	_, r := openRunner(t)
	_, err := r.UpTo(ctx, 3)
	require.NoError(t, err)

	_, err = r.Down(ctx)
	assert.ErrorIs(t, err, migrate.ErrUnsupported)

	marker, err := r.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), marker.Version)
}

func TestPublicChatbotRoundTrip(t *testing.T) {
	ctx := context.Background()
	gdb, r := openRunner(t)
	_, err := r.UpTo(ctx, 16)
	require.NoError(t, err)

	cols, err := migrate.Columns(ctx, gdb, "public_chatbot_config")
	require.NoError(t, err)
	assert.Subset(t, cols, []string{"system_prompt_embedding", "embedding_model", "use_rag", "rag_similarity_threshold"})
	assert.True(t, gdb.Migrator().HasTable("public_chat_messages"))

	require.NoError(t, gdb.Exec(`INSERT INTO public_chatbot_config (welcome_message, input_placeholder, created_at, updated_at)
		VALUES ('Hi!', 'Ask away', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`).Error)
	var row struct {
		Name      string `db:"name"`
		UseRAG    bool   `db:"use_rag"`
		Threshold int    `db:"rag_similarity_threshold"`
	}
	require.NoError(t, db.Get(ctx, gdb, &row, "SELECT name, use_rag, rag_similarity_threshold FROM public_chatbot_config"))
	assert.Equal(t, "Prompterly Assistant", row.Name)
	assert.True(t, row.UseRAG)
	assert.Equal(t, 70, row.Threshold)

	_, err = r.Down(ctx)
	require.NoError(t, err)
	cols, err = migrate.Columns(ctx, gdb, "public_chatbot_config")
	require.NoError(t, err)
	assert.NotContains(t, cols, "use_rag")
	assert.NotContains(t, cols, "system_prompt_embedding")

	_, err = r.Down(ctx)
	require.NoError(t, err)
	assert.False(t, gdb.Migrator().HasTable("public_chatbot_config"))
	assert.False(t, gdb.Migrator().HasTable("public_chat_messages"))
}

func TestEnumChecksAreExactAfterUpgrade(t *testing.T) {
	ctx := context.Background()
	gdb, r := openRunner(t)
	_, err := r.UpTo(ctx, 16)
	require.NoError(t, err)

	insert := func(email, role string) error {
		return gdb.Exec(`INSERT INTO users (email, full_name, role, is_active, created_at, updated_at)
			VALUES (?, 'Raw', ?, 1, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`, email, role).Error
	}
	roleOf := func(email string) string {
		var role string
		require.NoError(t, db.Get(ctx, gdb, &role, "SELECT role FROM users WHERE email = ?", email))
		return role
	}

	// The folded check still admits mixed case.
	require.NoError(t, insert("before@prompterly.test", "ADMIN"))

	_, err = r.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin", roleOf("before@prompterly.test"))

	tests := []struct {
		name string
		run  func() error
	}{
		{"insert upper case", func() error { return insert("upper@prompterly.test", "ADMIN") }},
		{"insert unknown", func() error { return insert("owner@prompterly.test", "owner") }},
		{"update mixed case", func() error {
			return gdb.Exec("UPDATE users SET role = 'Mentor' WHERE email = ?", "before@prompterly.test").Error
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schema.TranslateError(tt.run())
			var cv *schema.ConstraintViolation
			require.ErrorAs(t, err, &cv)
			assert.Equal(t, schema.KindCheck, cv.Kind)
			assert.Equal(t, "chk_users_role", cv.Constraint)
		})
	}
	assert.Equal(t, "admin", roleOf("before@prompterly.test"))

	require.NoError(t, insert("member@prompterly.test", "member"))
	require.NoError(t, gdb.Exec("UPDATE users SET role = 'mentor' WHERE email = ?", "member@prompterly.test").Error)

	_, err = r.Down(ctx)
	require.NoError(t, err)
	require.NoError(t, insert("after@prompterly.test", "Mentor"))
}
