// Package models holds the canonical Prompterly data model as gorm structs. The gorm
// tags are the single source of column, key and constraint metadata.
package models

// All returns one zero value per table, parents before children.
func All() []any {
	return []any{
		&User{},
		&OAuthAccount{},
		&UserSession{},
		&EmailOTP{},
		&Mentor{},
		&Category{},
		&SubscriptionPlan{},
		&File{},
		&Lounge{},
		&LoungeMembership{},
		&LoungeSubscription{},
		&LoungeResource{},
		&Subscription{},
		&Payment{},
		&ChatThread{},
		&ChatMessage{},
		&MessageAttachment{},
		&Note{},
		&TimeCapsule{},
		&Notification{},
		&KBCategory{},
		&KBPrompt{},
		&KBDocument{},
		&KBDocumentChunk{},
		&KBFAQ{},
		&StaticPage{},
		&FAQ{},
		&ComplianceRequest{},
		&AuditLog{},
		&SystemSetting{},
		&BackgroundJob{},
		&NewsletterSubscriber{},
		&ContactMessage{},
		&PublicChatbotConfig{},
		&PublicChatMessage{},
	}
}
