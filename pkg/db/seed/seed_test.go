package seed

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"prompterly/pkg/db"
	"prompterly/pkg/db/migrate"
	"prompterly/pkg/db/migrations"
	"prompterly/pkg/schema"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func openLoader(t *testing.T) (*gorm.DB, *Loader) {
	t.Helper()
	ctx := context.Background()
	h, err := db.Connect(ctx, db.Config{
		Driver:   db.SQLite,
		DSN:      filepath.Join(t.TempDir(), "seed.db"),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	r, err := migrate.New(h.ORM, migrations.All(), migrate.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	_, err = r.Up(ctx)
	require.NoError(t, err)

	reg, err := schema.Canonical()
	require.NoError(t, err)
	l, err := New(h.ORM, reg, WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return h.ORM, l
}

func countRows(t *testing.T, gdb *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Table(table).Count(&n).Error)
	return n
}

func parse(t *testing.T, doc string) *Dataset {
	t.Helper()
	ds, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	return ds
}

func TestSampleDatasetCounts(t *testing.T) {
	ds, err := Sample()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		"users":                 20,
		"mentors":               6,
		"categories":            10,
		"subscription_plans":    3,
		"lounges":               10,
		"lounge_memberships":    24,
		"static_pages":          4,
		"faqs":                  6,
		"system_settings":       5,
		"public_chatbot_config": 1,
	}, ds.Counts())
}

func TestLoadSampleTwiceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	gdb, l := openLoader(t)
	ds, err := Sample()
	require.NoError(t, err)

	first, err := l.Load(ctx, ds)
	require.NoError(t, err)
	assert.Equal(t, 89, first.Inserted())
	assert.Zero(t, first.Skipped())
	assert.Len(t, first.Table("users").IDs, 20)

	counts := make(map[string]int64)
	for _, table := range ds.Tables() {
		counts[table] = countRows(t, gdb, table)
	}

	second, err := l.Load(ctx, ds)
	require.NoError(t, err)
	assert.Zero(t, second.Inserted())
	assert.Equal(t, 89, second.Skipped())
	for table, n := range counts {
		assert.Equal(t, n, countRows(t, gdb, table), table)
	}

	require.NoError(t, gdb.Exec(`INSERT INTO categories (name, slug, sort_order, created_at, updated_at)
		VALUES ('Extra', 'extra', 11, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`).Error)
	var id int64
	require.NoError(t, db.Get(ctx, gdb, &id, "SELECT id FROM categories WHERE slug = 'extra'"))
	assert.Equal(t, int64(11), id)

	var created time.Time
	require.NoError(t, gdb.Raw("SELECT created_at FROM users WHERE id = 1").Row().Scan(&created))
	assert.True(t, created.Equal(fixedNow))
}

func TestLoadRejectsBrokenDatasets(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		check func(t *testing.T, err error)
	}{
		{
			name: "missing parent",
			doc: `
groups:
  - table: users
    key: [email]
    rows:
      - {id: 1, email: a@prompterly.test, full_name: A, role: mentor}
  - table: mentors
    key: [user_id]
    rows:
      - {id: 1, user_id: 7, status: approved}
`,
			check: func(t *testing.T, err error) {
				var ie *IntegrityError
				require.ErrorAs(t, err, &ie)
				assert.Equal(t, "mentors", ie.Table)
				assert.Equal(t, "user_id", ie.Column)
				assert.Equal(t, "users", ie.ParentTable)
				assert.Equal(t, int64(7), ie.ParentID)
			},
		},
		{
			name: "self reference to a later row",
			doc: `
groups:
  - table: users
    key: [email]
    rows:
      - {id: 1, email: a@prompterly.test, full_name: A}
  - table: chat_threads
    rows:
      - {id: 1, user_id: 1}
  - table: chat_messages
    rows:
      - {id: 1, thread_id: 1, sender_type: user, user_id: 1, content: hi, reply_to_id: 2}
      - {id: 2, thread_id: 1, sender_type: ai, content: hello}
`,
			check: func(t *testing.T, err error) {
				var ie *IntegrityError
				require.ErrorAs(t, err, &ie)
				assert.Equal(t, "chat_messages", ie.ParentTable)
				assert.Equal(t, int64(2), ie.ParentID)
			},
		},
		{
			name: "row without id",
			doc: `
groups:
  - table: categories
    rows:
      - {name: Career, slug: career}
`,
			check: func(t *testing.T, err error) {
				var ie *IntegrityError
				require.ErrorAs(t, err, &ie)
				assert.Equal(t, "id", ie.Column)
			},
		},
		{
			name: "unknown table",
			doc: `
groups:
  - table: widgets
    rows:
      - {id: 1}
`,
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "unknown table")
			},
		},
		{
			name: "enum value outside its set",
			doc: `
groups:
  - table: users
    key: [email]
    rows:
      - {id: 1, email: a@prompterly.test, full_name: A, role: owner}
`,
			check: func(t *testing.T, err error) {
				var cv *schema.ConstraintViolation
				require.ErrorAs(t, err, &cv)
				assert.Equal(t, schema.KindEnum, cv.Kind)
				assert.Equal(t, "role", cv.Column)
				var le *LoadError
				require.ErrorAs(t, err, &le)
				assert.Equal(t, int64(1), le.RowID)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gdb, l := openLoader(t)
			_, err := l.Load(context.Background(), parse(t, tt.doc))
			require.Error(t, err)
			tt.check(t, err)
			assert.Zero(t, countRows(t, gdb, "users"))
		})
	}
}

func TestLoadRejectsKeyHeldByAnotherRow(t *testing.T) {
	ctx := context.Background()
	gdb, l := openLoader(t)

	_, err := l.Load(ctx, parse(t, `
groups:
  - table: categories
    key: [slug]
    rows:
      - {id: 1, name: Career, slug: career}
`))
	require.NoError(t, err)

	res, err := l.Load(ctx, parse(t, `
groups:
  - table: categories
    key: [slug]
    rows:
      - {id: 2, name: Design, slug: design}
      - {id: 3, name: Careers, slug: career}
`))
	var ie *IntegrityError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, int64(1), ie.ExistingID)
	assert.Equal(t, int64(3), ie.RowID)

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, []int64{2}, le.Applied.Table("categories").IDs)
	assert.Same(t, res, le.Applied)

	assert.Equal(t, int64(1), countRows(t, gdb, "categories"))
}

func TestConvert(t *testing.T) {
	reg, err := schema.Canonical()
	require.NoError(t, err)
	tbl, ok := reg.Table("subscription_plans")
	require.True(t, ok)

	col := func(name string) *schema.Column {
		c, ok := tbl.Column(name)
		require.True(t, ok, name)
		return c
	}

	v, err := convert(tbl, col("price_cents"), 1900.0)
	require.NoError(t, err)
	assert.Equal(t, int64(1900), v)

	v, err = convert(tbl, col("is_active"), int64(1))
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = convert(tbl, col("features"), []any{"a", "b"})
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b"]`, string(v.(datatypes.JSON)))

	v, err = convert(tbl, col("created_at"), "2024-01-02T09:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), v)

	_, err = convert(tbl, col("billing_interval"), "weekly")
	var cv *schema.ConstraintViolation
	assert.ErrorAs(t, err, &cv)

	_, err = convert(tbl, col("price_cents"), 19.5)
	assert.Error(t, err)
}
