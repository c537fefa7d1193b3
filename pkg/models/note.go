package models

import (
	"time"

	"gorm.io/datatypes"
)

// Note is a private user note, optionally scoped to a lounge.
type Note struct {
	ID              uint64  `gorm:"primaryKey;autoIncrement"`
	UserID          uint64  `gorm:"not null;index"`
	LoungeID        *uint64 `gorm:"index"`
	Title           *string `gorm:"size:255"`
	Content         string  `gorm:"type:text;not null"`
	IsPinned        bool    `gorm:"not null;default:false"`
	IsIncludedInRAG bool    `gorm:"column:is_included_in_rag;not null;default:false"`
	Tags            datatypes.JSONSlice[string]
	CreatedAt       time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"not null;autoUpdateTime"`

	User   *User   `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Lounge *Lounge `gorm:"foreignKey:LoungeID;references:ID;constraint:OnDelete:CASCADE"`
}

// TimeCapsule is a message to oneself that unlocks at UnlockAt.
type TimeCapsule struct {
	ID         uint64        `gorm:"primaryKey;autoIncrement"`
	UserID     uint64        `gorm:"not null;index"`
	Title      string        `gorm:"size:255;not null"`
	Content    string        `gorm:"type:text;not null"`
	UnlockAt   time.Time     `gorm:"not null;index"`
	Status     CapsuleStatus `gorm:"size:20;not null;default:locked;check:chk_time_capsules_status,status IN ('locked','unlocked','expired')"`
	UnlockedAt *time.Time
	CreatedAt  time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"not null;autoUpdateTime"`

	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}
