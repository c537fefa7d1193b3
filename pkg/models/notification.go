package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification is a message delivered to a user by email or in the app.
type Notification struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	UserID    uint64 `gorm:"not null;index"`
	Type      string `gorm:"size:100;not null"`
	Title     string `gorm:"size:255;not null"`
	Message   string `gorm:"type:text;not null"`
	Data      datatypes.JSONMap
	Channel   NotificationChannel `gorm:"size:20;not null;default:in_app;check:chk_notifications_channel,channel IN ('email','in_app')"`
	Status    NotificationStatus  `gorm:"size:20;not null;default:queued;check:chk_notifications_status,status IN ('queued','sent','read')"`
	ActionURL *string             `gorm:"size:500"`
	SentAt    *time.Time
	ReadAt    *time.Time
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`

	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}
