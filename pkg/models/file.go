package models

import "time"

// File is an object stored outside the database.
type File struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	OwnerID     uint64    `gorm:"not null;index"`
	StoragePath string    `gorm:"size:1000;not null"`
	FileName    string    `gorm:"size:255;not null"`
	MimeType    string    `gorm:"size:255;not null"`
	SizeBytes   int64     `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime"`

	Owner *User `gorm:"foreignKey:OwnerID;references:ID;constraint:OnDelete:CASCADE"`
}
