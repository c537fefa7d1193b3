package models

import "time"

// StaticPage is an editable marketing or legal page.
type StaticPage struct {
	ID              uint64  `gorm:"primaryKey;autoIncrement"`
	Slug            string  `gorm:"size:255;uniqueIndex;not null"`
	Title           string  `gorm:"size:255;not null"`
	Content         string  `gorm:"type:text;not null"`
	MetaTitle       *string `gorm:"size:255"`
	MetaDescription *string `gorm:"size:500"`
	IsPublished     bool    `gorm:"not null;default:false"`
	PublishedAt     *time.Time
	CreatedAt       time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"not null;autoUpdateTime"`
}

// FAQ is a public help-center entry.
type FAQ struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	Question     string    `gorm:"type:text;not null"`
	Answer       string    `gorm:"type:text;not null"`
	Category     *string   `gorm:"size:100;index"`
	SortOrder    int       `gorm:"not null;default:0"`
	IsPublished  bool      `gorm:"not null;default:true"`
	ViewCount    int       `gorm:"not null;default:0"`
	HelpfulCount int       `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime"`
}

func (FAQ) TableName() string { return "faqs" }

type ContactMessage struct {
	ID        uint64        `gorm:"primaryKey;autoIncrement"`
	Name      string        `gorm:"size:255;not null"`
	Email     string        `gorm:"size:255;not null;index"`
	Subject   string        `gorm:"size:255;not null"`
	Message   string        `gorm:"type:text;not null"`
	Status    ContactStatus `gorm:"size:20;not null;default:new;check:chk_contact_messages_status,status IN ('new','read','replied')"`
	CreatedAt time.Time     `gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time     `gorm:"not null;autoUpdateTime"`
}

type NewsletterSubscriber struct {
	ID             uint64           `gorm:"primaryKey;autoIncrement"`
	Email          string           `gorm:"size:255;uniqueIndex;not null"`
	Status         SubscriberStatus `gorm:"size:20;not null;default:active;check:chk_newsletter_subscribers_status,status IN ('active','unsubscribed')"`
	Source         string           `gorm:"size:50;not null;default:footer"`
	IPAddress      *string          `gorm:"size:64"`
	SubscribedAt   time.Time        `gorm:"not null"`
	UnsubscribedAt *time.Time
	CreatedAt      time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime"`
}
