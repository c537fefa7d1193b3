package models

import "time"

// PublicChatbotConfig configures the assistant on the public website. The
// table holds a single row in practice.
type PublicChatbotConfig struct {
	ID                     uint64  `gorm:"primaryKey;autoIncrement"`
	Name                   string  `gorm:"size:100;not null;default:Prompterly Assistant"`
	WelcomeMessage         string  `gorm:"type:text;not null"`
	SystemPrompt           *string `gorm:"type:text"`
	InputPlaceholder       string  `gorm:"size:255;not null"`
	HeaderSubtitle         *string `gorm:"type:text"`
	IsEnabled              bool    `gorm:"not null;default:true"`
	AvatarURL              *string `gorm:"size:500"`
	SystemPromptEmbedding  Embedding
	EmbeddingModel         *string   `gorm:"size:100"`
	UseRAG                 bool      `gorm:"column:use_rag;not null;default:true"`
	RAGSimilarityThreshold int       `gorm:"column:rag_similarity_threshold;not null;default:70"`
	CreatedAt              time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt              time.Time `gorm:"not null;autoUpdateTime"`
}

func (PublicChatbotConfig) TableName() string { return "public_chatbot_config" }

// PublicChatMessage is one turn of an anonymous website chat.
type PublicChatMessage struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	SessionID string    `gorm:"size:100;not null;index"`
	Role      string    `gorm:"size:20;not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
}
