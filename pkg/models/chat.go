package models

import (
	"time"

	"gorm.io/datatypes"
)

// ChatThread is a conversation owned by a user, optionally inside a lounge.
type ChatThread struct {
	ID        uint64       `gorm:"primaryKey;autoIncrement"`
	UserID    uint64       `gorm:"not null;index"`
	LoungeID  *uint64      `gorm:"index"`
	Title     *string      `gorm:"size:255"`
	Status    ThreadStatus `gorm:"size:20;not null;default:open;check:chk_chat_threads_status,status IN ('open','archived')"`
	CreatedAt time.Time    `gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time    `gorm:"not null;autoUpdateTime"`

	User   *User   `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Lounge *Lounge `gorm:"foreignKey:LoungeID;references:ID;constraint:OnDelete:CASCADE"`
}

// ChatMessage is one message in a thread. UserID is set for user and mentor senders only.
type ChatMessage struct {
	ID              uint64            `gorm:"primaryKey;autoIncrement"`
	ThreadID        uint64            `gorm:"not null;index"`
	SenderType      SenderType        `gorm:"size:20;not null;check:chk_chat_messages_sender_type,sender_type IN ('user','ai','mentor')"`
	UserID          *uint64           `gorm:"index"`
	ReplyToID       *uint64           `gorm:"index"`
	Content         string            `gorm:"type:text;not null"`
	MessageMetadata datatypes.JSONMap `gorm:"column:message_metadata"`
	EditedAt        *time.Time
	CreatedAt       time.Time `gorm:"not null;autoCreateTime"`

	Thread  *ChatThread  `gorm:"foreignKey:ThreadID;references:ID;constraint:OnDelete:CASCADE"`
	User    *User        `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:SET NULL"`
	ReplyTo *ChatMessage `gorm:"foreignKey:ReplyToID;references:ID;constraint:OnDelete:SET NULL"`
}

// MessageAttachment links an uploaded file to a message.
type MessageAttachment struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	MessageID uint64    `gorm:"not null;index"`
	FileID    uint64    `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`

	Message *ChatMessage `gorm:"foreignKey:MessageID;references:ID;constraint:OnDelete:CASCADE"`
	File    *File        `gorm:"foreignKey:FileID;references:ID;constraint:OnDelete:CASCADE"`
}
