package models

import (
	"time"

	"gorm.io/datatypes"
)

// Embedding is a vector stored as a JSON array of floats next to the name of the
// model that produced it. Similarity search is not done in the database.
type Embedding = datatypes.JSONSlice[float32]

// KBCategory groups knowledge base content. A nil LoungeID makes it platform-global.
type KBCategory struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	LoungeID    *uint64   `gorm:"index"`
	Name        string    `gorm:"size:255;not null"`
	Slug        string    `gorm:"size:255;not null;index"`
	Description *string   `gorm:"type:text"`
	SortOrder   int       `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime"`

	Lounge *Lounge `gorm:"foreignKey:LoungeID;references:ID;constraint:OnDelete:CASCADE"`
}

func (KBCategory) TableName() string { return "kb_categories" }

type KBPrompt struct {
	ID             uint64  `gorm:"primaryKey;autoIncrement"`
	LoungeID       *uint64 `gorm:"index"`
	CategoryID     *uint64 `gorm:"index"`
	CreatedByID    *uint64 `gorm:"index"`
	Title          string  `gorm:"size:255;not null"`
	PromptText     string  `gorm:"type:text;not null"`
	Description    *string `gorm:"type:text"`
	Embedding      Embedding
	EmbeddingModel *string   `gorm:"size:100"`
	UsageCount     int       `gorm:"not null;default:0"`
	IsActive       bool      `gorm:"not null;default:true"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime"`

	Lounge    *Lounge     `gorm:"foreignKey:LoungeID;references:ID;constraint:OnDelete:CASCADE"`
	Category  *KBCategory `gorm:"foreignKey:CategoryID;references:ID;constraint:OnDelete:SET NULL"`
	CreatedBy *User       `gorm:"foreignKey:CreatedByID;references:ID;constraint:OnDelete:SET NULL"`
}

func (KBPrompt) TableName() string { return "kb_prompts" }

type KBDocument struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	LoungeID    *uint64   `gorm:"index"`
	CategoryID  *uint64   `gorm:"index"`
	CreatedByID *uint64   `gorm:"index"`
	FileID      *uint64   `gorm:"index"`
	Title       string    `gorm:"size:255;not null"`
	Description *string   `gorm:"type:text"`
	Content     *string   `gorm:"type:text"`
	SourceURL   *string   `gorm:"size:1000"`
	ChunkCount  int       `gorm:"not null;default:0"`
	IsActive    bool      `gorm:"not null;default:true"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime"`

	Lounge    *Lounge     `gorm:"foreignKey:LoungeID;references:ID;constraint:OnDelete:CASCADE"`
	Category  *KBCategory `gorm:"foreignKey:CategoryID;references:ID;constraint:OnDelete:SET NULL"`
	CreatedBy *User       `gorm:"foreignKey:CreatedByID;references:ID;constraint:OnDelete:SET NULL"`
	File      *File       `gorm:"foreignKey:FileID;references:ID;constraint:OnDelete:SET NULL"`
}

func (KBDocument) TableName() string { return "kb_documents" }

// KBDocumentChunk is a slice of a document's text with its own embedding.
type KBDocumentChunk struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement"`
	DocumentID     uint64 `gorm:"not null;index"`
	ChunkIndex     int    `gorm:"not null"`
	Content        string `gorm:"type:text;not null"`
	StartOffset    int    `gorm:"not null;default:0"`
	EndOffset      int    `gorm:"not null;default:0"`
	TokenCount     int    `gorm:"not null;default:0"`
	Embedding      Embedding
	EmbeddingModel *string   `gorm:"size:100"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime"`

	Document *KBDocument `gorm:"foreignKey:DocumentID;references:ID;constraint:OnDelete:CASCADE"`
}

func (KBDocumentChunk) TableName() string { return "kb_document_chunks" }

type KBFAQ struct {
	ID             uint64  `gorm:"primaryKey;autoIncrement"`
	LoungeID       *uint64 `gorm:"index"`
	CategoryID     *uint64 `gorm:"index"`
	CreatedByID    *uint64 `gorm:"index"`
	Question       string  `gorm:"type:text;not null"`
	Answer         string  `gorm:"type:text;not null"`
	Embedding      Embedding
	EmbeddingModel *string   `gorm:"size:100"`
	ViewCount      int       `gorm:"not null;default:0"`
	HelpfulCount   int       `gorm:"not null;default:0"`
	IsActive       bool      `gorm:"not null;default:true"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime"`

	Lounge    *Lounge     `gorm:"foreignKey:LoungeID;references:ID;constraint:OnDelete:CASCADE"`
	Category  *KBCategory `gorm:"foreignKey:CategoryID;references:ID;constraint:OnDelete:SET NULL"`
	CreatedBy *User       `gorm:"foreignKey:CreatedByID;references:ID;constraint:OnDelete:SET NULL"`
}

func (KBFAQ) TableName() string { return "kb_faqs" }
