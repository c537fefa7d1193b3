package migrate

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"prompterly/pkg/db"
)

// MarkerTable holds the single row recording the current schema version.
const MarkerTable = "schema_version"

type versionMarker struct {
	ID        int       `gorm:"primaryKey;autoIncrement:false"`
	Version   int64     `gorm:"not null"`
	Name      string    `gorm:"size:255;not null"`
	Dirty     bool      `gorm:"not null"`
	AppliedAt time.Time `gorm:"not null"`
}

func (versionMarker) TableName() string { return MarkerTable }

// Marker is the recorded schema version. A zero Marker means nothing was applied.
type Marker struct {
	Version   int64     `db:"version"`
	Name      string    `db:"name"`
	Dirty     bool      `db:"dirty"`
	AppliedAt time.Time `db:"applied_at"`
}

func (m Marker) ID() string {
	if m.Version == 0 {
		return "none"
	}
	return migrationID(m.Version, m.Name)
}

func ensureMarker(ctx context.Context, gdb *gorm.DB) error {
	m := gdb.WithContext(ctx).Migrator()
	if m.HasTable(MarkerTable) {
		return nil
	}
	if err := m.CreateTable(&versionMarker{}); err != nil {
		return fmt.Errorf("create %s: %w", MarkerTable, err)
	}
	return nil
}

func writeMarker(tx *gorm.DB, version int64, name string, dirty bool, now time.Time) error {
	row := versionMarker{ID: 1, Version: version, Name: name, Dirty: dirty, AppliedAt: now.UTC()}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("write %s: %w", MarkerTable, err)
	}
	return nil
}

// ReadMarker returns the recorded version, or a zero Marker before the first run.
func ReadMarker(ctx context.Context, gdb *gorm.DB) (Marker, error) {
	if !gdb.WithContext(ctx).Migrator().HasTable(MarkerTable) {
		return Marker{}, nil
	}
	var m Marker
	err := db.Get(ctx, gdb, &m, "SELECT version, name, dirty, applied_at FROM "+MarkerTable+" WHERE id = 1")
	if db.IsNoRows(err) {
		return Marker{}, nil
	}
	if err != nil {
		return Marker{}, fmt.Errorf("read %s: %w", MarkerTable, err)
	}
	return m, nil
}
