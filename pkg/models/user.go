package models

import "time"

// User is a platform account. Role gates mentor and admin tooling.
type User struct {
	ID               uint64   `gorm:"primaryKey;autoIncrement"`
	Email            string   `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash     *string  `gorm:"size:255"`
	FullName         string   `gorm:"size:255;not null"`
	Role             UserRole `gorm:"size:20;not null;default:member;check:chk_users_role,role IN ('member','mentor','admin')"`
	AvatarURL        *string  `gorm:"size:500"`
	EmailVerifiedAt  *time.Time
	IsActive         bool    `gorm:"not null;default:true"`
	StripeCustomerID *string `gorm:"size:255;index"`
	LastLoginAt      *time.Time
	CreatedAt        time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"not null;autoUpdateTime"`
}

// OAuthAccount links a user to an external identity provider.
type OAuthAccount struct {
	ID             uint64        `gorm:"primaryKey;autoIncrement"`
	UserID         uint64        `gorm:"not null;index"`
	Provider       OAuthProvider `gorm:"size:20;not null;check:chk_oauth_accounts_provider,provider IN ('google')"`
	ProviderUserID string        `gorm:"size:255;not null;index"`
	AccessToken    *string       `gorm:"type:text"`
	RefreshToken   *string       `gorm:"type:text"`
	ExpiresAt      *time.Time
	CreatedAt      time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime"`

	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

func (OAuthAccount) TableName() string { return "oauth_accounts" }

// UserSession tracks a refresh-token session.
type UserSession struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	UserID       uint64    `gorm:"not null;index"`
	RefreshToken string    `gorm:"size:255;uniqueIndex;not null"`
	IPAddress    *string   `gorm:"size:64"`
	UserAgent    *string   `gorm:"size:500"`
	ExpiresAt    time.Time `gorm:"not null"`
	RevokedAt    *time.Time
	CreatedAt    time.Time `gorm:"not null;autoCreateTime"`

	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

// EmailOTP is a one-time code sent to an address that may not belong to a user yet.
type EmailOTP struct {
	ID         uint64     `gorm:"primaryKey;autoIncrement"`
	Email      string     `gorm:"size:255;not null;index"`
	CodeHash   string     `gorm:"size:255;not null"`
	Purpose    OTPPurpose `gorm:"size:30;not null;check:chk_email_otps_purpose,purpose IN ('registration','password_reset','email_change')"`
	ExpiresAt  time.Time  `gorm:"not null"`
	VerifiedAt *time.Time
	Attempts   int       `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime"`
}

func (EmailOTP) TableName() string { return "email_otps" }
