package models

// Enumerated column domains. Each type lists its allowed values through Values so the
// schema registry can enforce them before a write reaches the store.

type UserRole string

const (
	RoleMember UserRole = "member"
	RoleMentor UserRole = "mentor"
	RoleAdmin  UserRole = "admin"
)

func (UserRole) Values() []string { return []string{"member", "mentor", "admin"} }

type OAuthProvider string

const ProviderGoogle OAuthProvider = "google"

func (OAuthProvider) Values() []string { return []string{"google"} }

type OTPPurpose string

const (
	OTPRegistration  OTPPurpose = "registration"
	OTPPasswordReset OTPPurpose = "password_reset"
	OTPEmailChange   OTPPurpose = "email_change"
)

func (OTPPurpose) Values() []string { return []string{"registration", "password_reset", "email_change"} }

type MentorStatus string

const (
	MentorPending  MentorStatus = "pending"
	MentorApproved MentorStatus = "approved"
	MentorDisabled MentorStatus = "disabled"
)

func (MentorStatus) Values() []string { return []string{"pending", "approved", "disabled"} }

type AccessType string

const (
	AccessFree       AccessType = "free"
	AccessPaid       AccessType = "paid"
	AccessInviteOnly AccessType = "invite_only"
)

func (AccessType) Values() []string { return []string{"free", "paid", "invite_only"} }

type MembershipRole string

const (
	MembershipMember   MembershipRole = "member"
	MembershipCoMentor MembershipRole = "co_mentor"
)

func (MembershipRole) Values() []string { return []string{"member", "co_mentor"} }

// BillingInterval is shared by plan cadence and per-lounge subscription cadence.
type BillingInterval string

const (
	IntervalMonthly BillingInterval = "monthly"
	IntervalYearly  BillingInterval = "yearly"
)

func (BillingInterval) Values() []string { return []string{"monthly", "yearly"} }

type SubscriptionStatus string

const (
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

func (SubscriptionStatus) Values() []string {
	return []string{"trialing", "active", "past_due", "canceled"}
}

type PaymentProvider string

const (
	PaymentStripe   PaymentProvider = "stripe"
	PaymentKlarna   PaymentProvider = "klarna"
	PaymentAfterpay PaymentProvider = "afterpay"
)

func (PaymentProvider) Values() []string { return []string{"stripe", "klarna", "afterpay"} }

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
)

func (PaymentStatus) Values() []string { return []string{"pending", "succeeded", "failed"} }

type ThreadStatus string

const (
	ThreadOpen     ThreadStatus = "open"
	ThreadArchived ThreadStatus = "archived"
)

func (ThreadStatus) Values() []string { return []string{"open", "archived"} }

type SenderType string

const (
	SenderUser   SenderType = "user"
	SenderAI     SenderType = "ai"
	SenderMentor SenderType = "mentor"
)

func (SenderType) Values() []string { return []string{"user", "ai", "mentor"} }

type CapsuleStatus string

const (
	CapsuleLocked   CapsuleStatus = "locked"
	CapsuleUnlocked CapsuleStatus = "unlocked"
	CapsuleExpired  CapsuleStatus = "expired"
)

func (CapsuleStatus) Values() []string { return []string{"locked", "unlocked", "expired"} }

type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelInApp NotificationChannel = "in_app"
)

func (NotificationChannel) Values() []string { return []string{"email", "in_app"} }

type NotificationStatus string

const (
	NotificationQueued NotificationStatus = "queued"
	NotificationSent   NotificationStatus = "sent"
	NotificationRead   NotificationStatus = "read"
)

func (NotificationStatus) Values() []string { return []string{"queued", "sent", "read"} }

type ComplianceRequestType string

const (
	ComplianceExport ComplianceRequestType = "export"
	ComplianceDelete ComplianceRequestType = "delete"
)

func (ComplianceRequestType) Values() []string { return []string{"export", "delete"} }

type ComplianceStatus string

const (
	CompliancePending    ComplianceStatus = "pending"
	ComplianceProcessing ComplianceStatus = "processing"
	ComplianceDone       ComplianceStatus = "done"
	ComplianceRejected   ComplianceStatus = "rejected"
)

func (ComplianceStatus) Values() []string {
	return []string{"pending", "processing", "done", "rejected"}
}

type SettingValueType string

const (
	SettingString SettingValueType = "string"
	SettingInt    SettingValueType = "int"
	SettingBool   SettingValueType = "bool"
	SettingJSON   SettingValueType = "json"
)

func (SettingValueType) Values() []string { return []string{"string", "int", "bool", "json"} }

type JobType string

const (
	JobPromptEmbedding    JobType = "prompt_embedding"
	JobDocumentProcessing JobType = "document_processing"
	JobFAQEmbedding       JobType = "faq_embedding"
	JobBulkEmbedding      JobType = "bulk_embedding"
)

func (JobType) Values() []string {
	return []string{"prompt_embedding", "document_processing", "faq_embedding", "bulk_embedding"}
}

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

func (JobStatus) Values() []string { return []string{"pending", "processing", "completed", "failed"} }

type SubscriberStatus string

const (
	SubscriberActive       SubscriberStatus = "active"
	SubscriberUnsubscribed SubscriberStatus = "unsubscribed"
)

func (SubscriberStatus) Values() []string { return []string{"active", "unsubscribed"} }

type ContactStatus string

const (
	ContactNew     ContactStatus = "new"
	ContactRead    ContactStatus = "read"
	ContactReplied ContactStatus = "replied"
)

func (ContactStatus) Values() []string { return []string{"new", "read", "replied"} }
