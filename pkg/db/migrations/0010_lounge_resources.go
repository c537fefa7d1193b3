package migrations

import (
	"time"

	"prompterly/pkg/db/migrate"
)

type loungeResource struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement"`
	LoungeID         uint64    `gorm:"not null;index"`
	FileID           uint64    `gorm:"not null;index"`
	UploadedByUserID uint64    `gorm:"not null;index"`
	Title            string    `gorm:"size:255;not null"`
	Description      *string   `gorm:"type:text"`
	CreatedAt        time.Time `gorm:"not null;autoCreateTime"`

	Lounge     *lounge `gorm:"foreignKey:LoungeID;references:ID;constraint:OnDelete:CASCADE"`
	File       *file   `gorm:"foreignKey:FileID;references:ID;constraint:OnDelete:CASCADE"`
	UploadedBy *user   `gorm:"foreignKey:UploadedByUserID;references:ID;constraint:OnDelete:CASCADE"`
}

func init() {
	register(migrate.Migration{
		Version: 10,
		Name:    "lounge_resources",
		Up:      []migrate.Operation{migrate.CreateTables{Models: []any{&loungeResource{}}}},
		Down:    []migrate.Operation{migrate.DropTables{Tables: []string{"lounge_resources"}}},
	})
}
