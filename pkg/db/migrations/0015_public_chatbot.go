package migrations

import (
	"time"

	"prompterly/pkg/db/migrate"
)

type publicChatbotConfig struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement"`
	Name             string    `gorm:"size:100;not null;default:Prompterly Assistant"`
	WelcomeMessage   string    `gorm:"type:text;not null"`
	SystemPrompt     *string   `gorm:"type:text"`
	InputPlaceholder string    `gorm:"size:255;not null"`
	HeaderSubtitle   *string   `gorm:"type:text"`
	IsEnabled        bool      `gorm:"not null;default:true"`
	AvatarURL        *string   `gorm:"size:500"`
	CreatedAt        time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"not null;autoUpdateTime"`
}

func (publicChatbotConfig) TableName() string { return "public_chatbot_config" }

type publicChatMessage struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	SessionID string    `gorm:"size:100;not null;index"`
	Role      string    `gorm:"size:20;not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
}

func init() {
	register(migrate.Migration{
		Version: 15,
		Name:    "public_chatbot",
		Up: []migrate.Operation{
			migrate.CreateTables{Models: []any{&publicChatbotConfig{}, &publicChatMessage{}}},
		},
		Down: []migrate.Operation{
			migrate.DropTables{Tables: []string{"public_chat_messages", "public_chatbot_config"}},
		},
	})
}
