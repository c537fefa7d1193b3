package migrations

import (
	"time"

	"gorm.io/datatypes"

	"prompterly/pkg/db/migrate"
)

func init() {
	register(migrate.Migration{
		Version: 1,
		Name:    "baseline",
		Up:      []migrate.Operation{migrate.CreateTables{Models: baselineModels()}},
		Down:    []migrate.Operation{migrate.DropTables{Tables: baselineTablesReversed()}},
	})
}

// The structs below are the first captured schema. They are frozen: later
// changes go into new migrations, never into these definitions. Enum checks
// compare lower() because early rows were written in upper case (see 0005).

type user struct {
	ID              uint64  `gorm:"primaryKey;autoIncrement"`
	Email           string  `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash    *string `gorm:"size:255"`
	FullName        string  `gorm:"size:255;not null"`
	Role            string  `gorm:"size:20;not null;default:member;check:chk_users_role,lower(role) IN ('member','mentor','admin')"`
	AvatarURL       *string `gorm:"size:500"`
	EmailVerifiedAt *time.Time
	IsActive        bool `gorm:"not null;default:true"`
	LastLoginAt     *time.Time
	CreatedAt       time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"not null;autoUpdateTime"`
}

type oauthAccount struct {
	ID             uint64  `gorm:"primaryKey;autoIncrement"`
	UserID         uint64  `gorm:"not null;index"`
	Provider       string  `gorm:"size:20;not null;check:chk_oauth_accounts_provider,lower(provider) IN ('google')"`
	ProviderUserID string  `gorm:"size:255;not null;index"`
	AccessToken    *string `gorm:"type:text"`
	RefreshToken   *string `gorm:"type:text"`
	ExpiresAt      *time.Time
	CreatedAt      time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime"`

	User *user `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

func (oauthAccount) TableName() string { return "oauth_accounts" }

type userSession struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	UserID       uint64    `gorm:"not null;index"`
	RefreshToken string    `gorm:"size:255;uniqueIndex;not null"`
	IPAddress    *string   `gorm:"size:64"`
	UserAgent    *string   `gorm:"size:500"`
	ExpiresAt    time.Time `gorm:"not null"`
	RevokedAt    *time.Time
	CreatedAt    time.Time `gorm:"not null;autoCreateTime"`

	User *user `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

type emailOTP struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	Email      string    `gorm:"size:255;not null;index"`
	CodeHash   string    `gorm:"size:255;not null"`
	Purpose    string    `gorm:"size:30;not null;check:chk_email_otps_purpose,lower(purpose) IN ('registration','password_reset','email_change')"`
	ExpiresAt  time.Time `gorm:"not null"`
	VerifiedAt *time.Time
	Attempts   int       `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime"`
}

func (emailOTP) TableName() string { return "email_otps" }

type mentor struct {
	ID              uint64  `gorm:"primaryKey;autoIncrement"`
	UserID          uint64  `gorm:"not null;uniqueIndex"`
	Headline        *string `gorm:"size:255"`
	Bio             *string `gorm:"type:text"`
	IntroVideoURL   *string `gorm:"size:500"`
	ExperienceYears *int
	Status          string    `gorm:"size:20;not null;default:pending;check:chk_mentors_status,lower(status) IN ('pending','approved','disabled')"`
	CreatedAt       time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"not null;autoUpdateTime"`

	User *user `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

type category struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	Name        string    `gorm:"size:255;not null"`
	Slug        string    `gorm:"size:255;uniqueIndex;not null"`
	Description *string   `gorm:"type:text"`
	SortOrder   int       `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime"`
}

type subscriptionPlan struct {
	ID              uint64  `gorm:"primaryKey;autoIncrement"`
	Name            string  `gorm:"size:255;not null"`
	Slug            string  `gorm:"size:255;uniqueIndex;not null"`
	Description     *string `gorm:"type:text"`
	StripePriceID   *string `gorm:"size:255"`
	PriceCents      int     `gorm:"not null;default:0"`
	Currency        string  `gorm:"size:3;not null;default:USD"`
	BillingInterval string  `gorm:"size:20;not null;default:monthly;check:chk_subscription_plans_billing_interval,lower(billing_interval) IN ('monthly','yearly')"`
	Features        datatypes.JSONSlice[string]
	IsActive        bool      `gorm:"not null;default:true"`
	CreatedAt       time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"not null;autoUpdateTime"`
}

type file struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	OwnerID     uint64    `gorm:"not null;index"`
	StoragePath string    `gorm:"size:1000;not null"`
	FileName    string    `gorm:"size:255;not null"`
	MimeType    string    `gorm:"size:255;not null"`
	SizeBytes   int64     `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime"`

	Owner *user `gorm:"foreignKey:OwnerID;references:ID;constraint:OnDelete:CASCADE"`
}

// Mentor profile fields lived on lounges until 0014.
type lounge struct {
	ID              uint64  `gorm:"primaryKey;autoIncrement"`
	MentorID        uint64  `gorm:"not null;index"`
	CategoryID      *uint64 `gorm:"index"`
	PlanID          *uint64 `gorm:"index"`
	Title           string  `gorm:"size:255;not null"`
	Slug            string  `gorm:"size:255;uniqueIndex;not null"`
	Description     *string `gorm:"type:text"`
	AccessType      string  `gorm:"size:20;not null;default:free;check:chk_lounges_access_type,lower(access_type) IN ('free','paid','invite_only')"`
	MaxMembers      *int
	IsPublicListing bool `gorm:"not null;default:true"`

	MentorTitle     *string                     `gorm:"size:255"`
	Philosophy      *string                     `gorm:"type:text"`
	Hobbies         *string                     `gorm:"type:text"`
	QuickPrompts    datatypes.JSONSlice[string] `gorm:"column:quick_prompts"`
	BookTitle       *string                     `gorm:"size:255"`
	BookDescription *string                     `gorm:"type:text"`
	PodcastRecTitle *string                     `gorm:"size:255"`
	PodcastName     *string                     `gorm:"size:255"`
	PodcastYoutube  *string                     `gorm:"size:500"`
	PodcastSpotify  *string                     `gorm:"size:500"`
	PodcastApple    *string                     `gorm:"size:500"`
	SocialInstagram *string                     `gorm:"size:500"`
	SocialTiktok    *string                     `gorm:"size:500"`
	SocialLinkedin  *string                     `gorm:"size:500"`
	SocialYoutube   *string                     `gorm:"size:500"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`

	Mentor   *mentor           `gorm:"foreignKey:MentorID;references:ID;constraint:OnDelete:CASCADE"`
	Category *category         `gorm:"foreignKey:CategoryID;references:ID;constraint:OnDelete:SET NULL"`
	Plan     *subscriptionPlan `gorm:"foreignKey:PlanID;references:ID;constraint:OnDelete:SET NULL"`
}

type loungeMembership struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"not null;index"`
	LoungeID  uint64    `gorm:"not null;index"`
	Role      string    `gorm:"size:20;not null;default:member;check:chk_lounge_memberships_role,lower(role) IN ('member','co_mentor')"`
	JoinedAt  time.Time `gorm:"not null"`
	LeftAt    *time.Time
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`

	User   *user   `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Lounge *lounge `gorm:"foreignKey:LoungeID;references:ID;constraint:OnDelete:CASCADE"`
}

type subscription struct {
	ID                   uint64    `gorm:"primaryKey;autoIncrement"`
	UserID               uint64    `gorm:"not null;index"`
	PlanID               uint64    `gorm:"not null;index"`
	StripeSubscriptionID *string   `gorm:"size:255;uniqueIndex"`
	Status               string    `gorm:"size:20;not null;default:trialing;check:chk_subscriptions_status,lower(status) IN ('trialing','active','past_due','canceled')"`
	StartedAt            time.Time `gorm:"not null"`
	RenewsAt             *time.Time
	CanceledAt           *time.Time
	CreatedAt            time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt            time.Time `gorm:"not null;autoUpdateTime"`

	User *user             `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Plan *subscriptionPlan `gorm:"foreignKey:PlanID;references:ID;constraint:OnDelete:RESTRICT"`
}

type payment struct {
	ID                uint64    `gorm:"primaryKey;autoIncrement"`
	UserID            uint64    `gorm:"not null;index"`
	SubscriptionID    *uint64   `gorm:"index"`
	Provider          string    `gorm:"size:20;not null;check:chk_payments_provider,lower(provider) IN ('stripe','klarna','afterpay')"`
	ProviderPaymentID string    `gorm:"size:255;uniqueIndex;not null"`
	AmountCents       int       `gorm:"not null"`
	Currency          string    `gorm:"size:3;not null;default:USD"`
	Status            string    `gorm:"size:20;not null;default:pending;check:chk_payments_status,lower(status) IN ('pending','succeeded','failed')"`
	CreatedAt         time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"not null;autoUpdateTime"`

	User         *user         `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Subscription *subscription `gorm:"foreignKey:SubscriptionID;references:ID;constraint:OnDelete:SET NULL"`
}

type chatThread struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"not null;index"`
	LoungeID  *uint64   `gorm:"index"`
	Title     *string   `gorm:"size:255"`
	Status    string    `gorm:"size:20;not null;default:open;check:chk_chat_threads_status,lower(status) IN ('open','archived')"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`

	User   *user   `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Lounge *lounge `gorm:"foreignKey:LoungeID;references:ID;constraint:OnDelete:CASCADE"`
}

type chatMessage struct {
	ID         uint64            `gorm:"primaryKey;autoIncrement"`
	ThreadID   uint64            `gorm:"not null;index"`
	SenderType string            `gorm:"size:20;not null;check:chk_chat_messages_sender_type,lower(sender_type) IN ('user','ai','mentor')"`
	UserID     *uint64           `gorm:"index"`
	Content    string            `gorm:"type:text;not null"`
	Metadata   datatypes.JSONMap `gorm:"column:metadata"`
	EditedAt   *time.Time
	CreatedAt  time.Time `gorm:"not null;autoCreateTime"`

	Thread *chatThread `gorm:"foreignKey:ThreadID;references:ID;constraint:OnDelete:CASCADE"`
	User   *user       `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:SET NULL"`
}

type messageAttachment struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	MessageID uint64    `gorm:"not null;index"`
	FileID    uint64    `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`

	Message *chatMessage `gorm:"foreignKey:MessageID;references:ID;constraint:OnDelete:CASCADE"`
	File    *file        `gorm:"foreignKey:FileID;references:ID;constraint:OnDelete:CASCADE"`
}

type note struct {
	ID              uint64  `gorm:"primaryKey;autoIncrement"`
	UserID          uint64  `gorm:"not null;index"`
	Title           *string `gorm:"size:255"`
	Content         string  `gorm:"type:text;not null"`
	IsPinned        bool    `gorm:"not null;default:false"`
	IsIncludedInRAG bool    `gorm:"column:is_included_in_rag;not null;default:false"`
	Tags            datatypes.JSONSlice[string]
	CreatedAt       time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"not null;autoUpdateTime"`

	User *user `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

type timeCapsule struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	UserID     uint64    `gorm:"not null;index"`
	Title      string    `gorm:"size:255;not null"`
	Content    string    `gorm:"type:text;not null"`
	UnlockAt   time.Time `gorm:"not null;index"`
	Status     string    `gorm:"size:20;not null;default:locked;check:chk_time_capsules_status,lower(status) IN ('locked','unlocked','expired')"`
	UnlockedAt *time.Time
	CreatedAt  time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"not null;autoUpdateTime"`

	User *user `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

type notification struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	UserID    uint64 `gorm:"not null;index"`
	Type      string `gorm:"size:100;not null"`
	Title     string `gorm:"size:255;not null"`
	Message   string `gorm:"type:text;not null"`
	Data      datatypes.JSONMap
	Channel   string  `gorm:"size:20;not null;default:in_app;check:chk_notifications_channel,lower(channel) IN ('email','in_app')"`
	Status    string  `gorm:"size:20;not null;default:queued;check:chk_notifications_status,lower(status) IN ('queued','sent','read')"`
	ActionURL *string `gorm:"size:500"`
	SentAt    *time.Time
	ReadAt    *time.Time
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`

	User *user `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

type kbCategory struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	Name        string    `gorm:"size:255;not null"`
	Slug        string    `gorm:"size:255;not null;index"`
	Description *string   `gorm:"type:text"`
	SortOrder   int       `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime"`
}

func (kbCategory) TableName() string { return "kb_categories" }

type kbPrompt struct {
	ID             uint64  `gorm:"primaryKey;autoIncrement"`
	CategoryID     *uint64 `gorm:"index"`
	CreatedByID    *uint64 `gorm:"index"`
	Title          string  `gorm:"size:255;not null"`
	PromptText     string  `gorm:"type:text;not null"`
	Description    *string `gorm:"type:text"`
	Embedding      datatypes.JSONSlice[float32]
	EmbeddingModel *string   `gorm:"size:100"`
	UsageCount     int       `gorm:"not null;default:0"`
	IsActive       bool      `gorm:"not null;default:true"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime"`

	Category  *kbCategory `gorm:"foreignKey:CategoryID;references:ID;constraint:OnDelete:SET NULL"`
	CreatedBy *user       `gorm:"foreignKey:CreatedByID;references:ID;constraint:OnDelete:SET NULL"`
}

func (kbPrompt) TableName() string { return "kb_prompts" }

type kbDocument struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
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

	Category  *kbCategory `gorm:"foreignKey:CategoryID;references:ID;constraint:OnDelete:SET NULL"`
	CreatedBy *user       `gorm:"foreignKey:CreatedByID;references:ID;constraint:OnDelete:SET NULL"`
	File      *file       `gorm:"foreignKey:FileID;references:ID;constraint:OnDelete:SET NULL"`
}

func (kbDocument) TableName() string { return "kb_documents" }

type kbDocumentChunk struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement"`
	DocumentID     uint64 `gorm:"not null;index"`
	ChunkIndex     int    `gorm:"not null"`
	Content        string `gorm:"type:text;not null"`
	StartOffset    int    `gorm:"not null;default:0"`
	EndOffset      int    `gorm:"not null;default:0"`
	TokenCount     int    `gorm:"not null;default:0"`
	Embedding      datatypes.JSONSlice[float32]
	EmbeddingModel *string   `gorm:"size:100"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime"`

	Document *kbDocument `gorm:"foreignKey:DocumentID;references:ID;constraint:OnDelete:CASCADE"`
}

func (kbDocumentChunk) TableName() string { return "kb_document_chunks" }

type kbFAQ struct {
	ID             uint64  `gorm:"primaryKey;autoIncrement"`
	CategoryID     *uint64 `gorm:"index"`
	CreatedByID    *uint64 `gorm:"index"`
	Question       string  `gorm:"type:text;not null"`
	Answer         string  `gorm:"type:text;not null"`
	Embedding      datatypes.JSONSlice[float32]
	EmbeddingModel *string   `gorm:"size:100"`
	ViewCount      int       `gorm:"not null;default:0"`
	HelpfulCount   int       `gorm:"not null;default:0"`
	IsActive       bool      `gorm:"not null;default:true"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime"`

	Category  *kbCategory `gorm:"foreignKey:CategoryID;references:ID;constraint:OnDelete:SET NULL"`
	CreatedBy *user       `gorm:"foreignKey:CreatedByID;references:ID;constraint:OnDelete:SET NULL"`
}

func (kbFAQ) TableName() string { return "kb_faqs" }

type staticPage struct {
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

type faq struct {
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

func (faq) TableName() string { return "faqs" }

type complianceRequest struct {
	ID             uint64  `gorm:"primaryKey;autoIncrement"`
	UserID         uint64  `gorm:"not null;index"`
	RequestType    string  `gorm:"size:20;not null;check:chk_compliance_requests_request_type,lower(request_type) IN ('export','delete')"`
	Status         string  `gorm:"size:20;not null;default:pending;check:chk_compliance_requests_status,lower(status) IN ('pending','processing','done','rejected')"`
	Reason         *string `gorm:"type:text"`
	ExportFilePath *string `gorm:"size:1000"`
	ProcessedAt    *time.Time
	CreatedAt      time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime"`

	User *user `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

type auditLog struct {
	ID         uint64  `gorm:"primaryKey;autoIncrement"`
	UserID     *uint64 `gorm:"index"`
	Action     string  `gorm:"size:100;not null"`
	EntityType string  `gorm:"size:100;not null;index:idx_audit_logs_entity"`
	EntityID   *uint64 `gorm:"index:idx_audit_logs_entity"`
	IPAddress  *string `gorm:"size:64"`
	UserAgent  *string `gorm:"size:500"`
	Changes    datatypes.JSONMap
	Metadata   datatypes.JSONMap
	CreatedAt  time.Time `gorm:"not null;autoCreateTime"`

	User *user `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:SET NULL"`
}

type systemSetting struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	Key         string    `gorm:"size:255;uniqueIndex;not null"`
	Value       string    `gorm:"type:text;not null"`
	ValueType   string    `gorm:"size:20;not null;default:string;check:chk_system_settings_value_type,lower(value_type) IN ('string','int','bool','json')"`
	Description *string   `gorm:"type:text"`
	IsPublic    bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime"`
}

func baselineModels() []any {
	return []any{
		&user{},
		&oauthAccount{},
		&userSession{},
		&emailOTP{},
		&mentor{},
		&category{},
		&subscriptionPlan{},
		&file{},
		&lounge{},
		&loungeMembership{},
		&subscription{},
		&payment{},
		&chatThread{},
		&chatMessage{},
		&messageAttachment{},
		&note{},
		&timeCapsule{},
		&notification{},
		&kbCategory{},
		&kbPrompt{},
		&kbDocument{},
		&kbDocumentChunk{},
		&kbFAQ{},
		&staticPage{},
		&faq{},
		&complianceRequest{},
		&auditLog{},
		&systemSetting{},
	}
}

var baselineTables = []string{
	"users", "oauth_accounts", "user_sessions", "email_otps", "mentors", "categories",
	"subscription_plans", "files", "lounges", "lounge_memberships", "subscriptions", "payments",
	"chat_threads", "chat_messages", "message_attachments", "notes", "time_capsules", "notifications",
	"kb_categories", "kb_prompts", "kb_documents", "kb_document_chunks", "kb_faqs",
	"static_pages", "faqs", "compliance_requests", "audit_logs", "system_settings",
}

func baselineTablesReversed() []string {
	out := make([]string, len(baselineTables))
	for i, name := range baselineTables {
		out[len(baselineTables)-1-i] = name
	}
	return out
}
