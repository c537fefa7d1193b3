package migrations

import (
	"time"

	"prompterly/pkg/db/migrate"
)

type contactMessage struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"size:255;not null"`
	Email     string    `gorm:"size:255;not null;index"`
	Subject   string    `gorm:"size:255;not null"`
	Message   string    `gorm:"type:text;not null"`
	Status    string    `gorm:"size:20;not null;default:new;check:chk_contact_messages_status,status IN ('new','read','replied')"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`
}

func init() {
	register(migrate.Migration{
		Version: 6,
		Name:    "contact_messages",
		Up:      []migrate.Operation{migrate.CreateTables{Models: []any{&contactMessage{}}}},
		Down:    []migrate.Operation{migrate.DropTables{Tables: []string{"contact_messages"}}},
	})
}
