package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"filippo.io/age"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"prompterly/pkg/db"
	"prompterly/pkg/db/dbtest"
	"prompterly/pkg/db/migrate"
	"prompterly/pkg/db/migrations"
	"prompterly/pkg/models"
	"prompterly/pkg/schema"
)

func newSigner(t *testing.T) *Signer {
	t.Helper()
	id, err := age.GenerateX25519Identity()
	require.NoError(t, err)
	s, err := NewSigner(id.String(), "")
	require.NoError(t, err)
	return s
}

func runner(t *testing.T, gdb *gorm.DB) *migrate.Runner {
	t.Helper()
	r, err := migrate.New(gdb, migrations.All(), migrate.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	return r
}

func counts(t *testing.T, gdb *gorm.DB, reg *schema.Registry) map[string]int64 {
	t.Helper()
	out := map[string]int64{}
	for _, name := range reg.TableNames() {
		var n int64
		require.NoError(t, gdb.Table(name).Count(&n).Error)
		out[name] = n
	}
	return out
}

func create(t *testing.T, gdb *gorm.DB, signer *Signer, recipient string) (string, *Manifest) {
	t.Helper()
	out := filepath.Join(t.TempDir(), "snap.tar.zst")
	m, err := Create(context.Background(), CreateConfig{
		DB:        gdb,
		Registry:  dbtest.Registry(t),
		Versioner: runner(t, gdb),
		Output:    out,
		Signer:    signer,
		Recipient: recipient,
		Now:       func() time.Time { return time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return out, m
}

func TestSigner(t *testing.T) {
	s := newSigner(t)
	payload := []byte("manifest")
	sig, err := s.Sign(payload)
	require.NoError(t, err)
	require.NoError(t, s.Verify(payload, sig, s.PublicKeyBase64()))
	assert.Error(t, s.Verify([]byte("tampered"), sig, ""))
	assert.Contains(t, s.Recipient(), "age1")

	verifier, err := NewSigner("", s.PublicKeyBase64())
	require.NoError(t, err)
	require.NoError(t, verifier.Verify(payload, sig, ""))
	_, err = verifier.Sign(payload)
	assert.Error(t, err)

	other := newSigner(t)
	assert.ErrorContains(t, other.Verify(payload, sig, s.PublicKeyBase64()), "unexpected key")

	_, err = NewSigner("", "")
	assert.Error(t, err)
	_, err = NewSigner("AGE-SECRET-KEY-1NOTAKEY", "")
	assert.Error(t, err)
}

func TestCreateAndRestore(t *testing.T) {
	ctx := context.Background()
	reg := dbtest.Registry(t)
	src := dbtest.Seeded(t)
	signer := newSigner(t)

	archive, m := create(t, src, signer, "")
	assert.Equal(t, migrations.Latest(), m.SchemaVersion)
	assert.Equal(t, "sqlite", m.Driver)
	assert.Len(t, m.Tables, len(reg.Tables()))
	assert.Equal(t, reg.TableNames()[0], m.Tables[0].Table)

	want := counts(t, src, reg)
	var total int64
	for _, entry := range m.Tables {
		assert.Equal(t, want[entry.Table], entry.Rows, entry.Table)
		total += entry.Rows
	}
	assert.Equal(t, total, m.Rows())

	dst := dbtest.Open(t)
	var out bytes.Buffer
	got, res, err := Restore(ctx, RestoreConfig{
		DB:        dst,
		Registry:  reg,
		Versioner: runner(t, dst),
		Source:    archive,
		Signer:    signer,
		Stdout:    &out,
	})
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, int(total), res.Inserted())
	assert.Equal(t, want, counts(t, dst, reg))
	assert.Contains(t, out.String(), "verified snapshot "+m.ID)

	var before, after models.Lounge
	require.NoError(t, src.First(&before, 7).Error)
	require.NoError(t, dst.First(&after, 7).Error)
	assert.Equal(t, before.Title, after.Title)
	assert.Equal(t, before.AccessType, after.AccessType)
	assert.True(t, before.CreatedAt.Equal(after.CreatedAt))

	_, res, err = Restore(ctx, RestoreConfig{
		DB:        dst,
		Registry:  reg,
		Versioner: runner(t, dst),
		Source:    archive,
		Signer:    signer,
	})
	require.NoError(t, err)
	assert.Zero(t, res.Inserted())
	assert.Equal(t, int(total), res.Skipped())
}

func TestEncryptedSnapshot(t *testing.T) {
	src := dbtest.Seeded(t)
	signer := newSigner(t)
	archive, m := create(t, src, signer, signer.Recipient())

	raw, err := os.ReadFile(archive)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, ageHeader))

	dst := dbtest.Open(t)
	_, res, err := Restore(context.Background(), RestoreConfig{
		DB:        dst,
		Registry:  dbtest.Registry(t),
		Versioner: runner(t, dst),
		Source:    archive,
		Signer:    signer,
	})
	require.NoError(t, err)
	assert.Equal(t, int(m.Rows()), res.Inserted())

	verifier, err := NewSigner("", signer.PublicKeyBase64())
	require.NoError(t, err)
	_, _, err = Restore(context.Background(), RestoreConfig{
		DB:        dst,
		Registry:  dbtest.Registry(t),
		Versioner: runner(t, dst),
		Source:    archive,
		Signer:    verifier,
	})
	assert.ErrorContains(t, err, "AGE_SECRET_KEY")
}

func TestRestoreRejectsForeignSignature(t *testing.T) {
	src := dbtest.Seeded(t)
	archive, _ := create(t, src, newSigner(t), "")

	dst := dbtest.Open(t)
	_, _, err := Restore(context.Background(), RestoreConfig{
		DB:        dst,
		Registry:  dbtest.Registry(t),
		Versioner: runner(t, dst),
		Source:    archive,
		Signer:    newSigner(t),
	})
	assert.ErrorIs(t, err, ErrCorrupt)

	var n int64
	require.NoError(t, dst.Model(&models.User{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestRestoreRequiresSameSchemaVersion(t *testing.T) {
	ctx := context.Background()
	signer := newSigner(t)
	archive, _ := create(t, dbtest.Seeded(t), signer, "")

	h, err := db.Connect(ctx, db.Config{
		Driver:   db.SQLite,
		DSN:      filepath.Join(t.TempDir(), "older.db"),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	r := runner(t, h.ORM)
	_, err = r.UpTo(ctx, migrations.Latest()-1)
	require.NoError(t, err)

	_, _, err = Restore(ctx, RestoreConfig{
		DB:        h.ORM,
		Registry:  dbtest.Registry(t),
		Versioner: r,
		Source:    archive,
		Signer:    signer,
	})
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

type busyVersioner struct{}

func (busyVersioner) Version(context.Context) (migrate.Marker, error) {
	return migrate.Marker{Version: 3, Name: "kb_lounge_scope", Dirty: true}, nil
}

func (busyVersioner) Quiesce(context.Context) (func(), error) {
	return nil, migrate.ErrMigrationInProgress
}

func TestCreateRefusesDuringMigration(t *testing.T) {
	out := filepath.Join(t.TempDir(), "snap.tar.zst")
	_, err := Create(context.Background(), CreateConfig{
		DB:        dbtest.Open(t),
		Registry:  dbtest.Registry(t),
		Versioner: busyVersioner{},
		Output:    out,
		Signer:    newSigner(t),
	})
	assert.ErrorIs(t, err, migrate.ErrMigrationInProgress)
	assert.NoFileExists(t, out)
}

func TestExportValue(t *testing.T) {
	jsonCol := &schema.Column{Name: "metadata", Type: schema.TypeJSON}
	textCol := &schema.Column{Name: "body", Type: schema.TypeText}
	boolCol := &schema.Column{Name: "is_public_listing", Type: schema.TypeBool}

	assert.Equal(t, json.RawMessage(`{"a":1}`), exportValue(jsonCol, []byte(`{"a":1}`)))
	assert.Equal(t, json.RawMessage(`[1,2]`), exportValue(jsonCol, `[1,2]`))
	assert.Equal(t, "hello", exportValue(textCol, []byte("hello")))
	assert.Equal(t, true, exportValue(boolCol, int64(1)))
	assert.Nil(t, exportValue(textCol, nil))

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	assert.Equal(t, time.UTC, exportValue(textCol, ts).(time.Time).Location())
}
