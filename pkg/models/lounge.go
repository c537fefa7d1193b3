package models

import "time"

// Category groups lounges in the public directory.
type Category struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	Name        string    `gorm:"size:255;not null"`
	Slug        string    `gorm:"size:255;uniqueIndex;not null"`
	Description *string   `gorm:"type:text"`
	SortOrder   int       `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime"`
}

// Lounge is a mentor-owned community space.
type Lounge struct {
	ID                   uint64     `gorm:"primaryKey;autoIncrement"`
	MentorID             uint64     `gorm:"not null;index"`
	CategoryID           *uint64    `gorm:"index"`
	PlanID               *uint64    `gorm:"index"`
	ProfileImageID       *uint64    `gorm:"index"`
	Title                string     `gorm:"size:255;not null"`
	Slug                 string     `gorm:"size:255;uniqueIndex;not null"`
	Description          *string    `gorm:"type:text"`
	About                *string    `gorm:"type:text"`
	BrandColor           string     `gorm:"size:20;not null;default:'#9ECCF2'"`
	AccessType           AccessType `gorm:"size:20;not null;default:free;check:chk_lounges_access_type,access_type IN ('free','paid','invite_only')"`
	MaxMembers           *int
	IsPublicListing      bool      `gorm:"not null;default:true"`
	StripeProductID      *string   `gorm:"size:255"`
	StripeMonthlyPriceID *string   `gorm:"size:255"`
	StripeYearlyPriceID  *string   `gorm:"size:255"`
	CreatedAt            time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt            time.Time `gorm:"not null;autoUpdateTime"`

	Mentor       *Mentor           `gorm:"foreignKey:MentorID;references:ID;constraint:OnDelete:CASCADE"`
	Category     *Category         `gorm:"foreignKey:CategoryID;references:ID;constraint:OnDelete:SET NULL"`
	Plan         *SubscriptionPlan `gorm:"foreignKey:PlanID;references:ID;constraint:OnDelete:SET NULL"`
	ProfileImage *File             `gorm:"foreignKey:ProfileImageID;references:ID;constraint:OnDelete:SET NULL"`
}

// LoungeMembership records a user joining a lounge. Leaving sets LeftAt; rows are kept.
type LoungeMembership struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement"`
	UserID    uint64         `gorm:"not null;index"`
	LoungeID  uint64         `gorm:"not null;index"`
	Role      MembershipRole `gorm:"size:20;not null;default:member;check:chk_lounge_memberships_role,role IN ('member','co_mentor')"`
	JoinedAt  time.Time      `gorm:"not null"`
	LeftAt    *time.Time
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`

	User   *User   `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Lounge *Lounge `gorm:"foreignKey:LoungeID;references:ID;constraint:OnDelete:CASCADE"`
}

// LoungeResource is a file a mentor shares with a lounge.
type LoungeResource struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement"`
	LoungeID         uint64    `gorm:"not null;index"`
	FileID           uint64    `gorm:"not null;index"`
	UploadedByUserID uint64    `gorm:"not null;index"`
	Title            string    `gorm:"size:255;not null"`
	Description      *string   `gorm:"type:text"`
	CreatedAt        time.Time `gorm:"not null;autoCreateTime"`

	Lounge     *Lounge `gorm:"foreignKey:LoungeID;references:ID;constraint:OnDelete:CASCADE"`
	File       *File   `gorm:"foreignKey:FileID;references:ID;constraint:OnDelete:CASCADE"`
	UploadedBy *User   `gorm:"foreignKey:UploadedByUserID;references:ID;constraint:OnDelete:CASCADE"`
}
