package models

import (
	"time"

	"gorm.io/datatypes"
)

// Mentor is the coaching profile attached to a user. The profile fields below the
// status column used to live on lounges.
type Mentor struct {
	ID              uint64  `gorm:"primaryKey;autoIncrement"`
	UserID          uint64  `gorm:"not null;uniqueIndex"`
	Headline        *string `gorm:"size:255"`
	Bio             *string `gorm:"type:text"`
	IntroVideoURL   *string `gorm:"size:500"`
	ExperienceYears *int
	Status          MentorStatus `gorm:"size:20;not null;default:pending;check:chk_mentors_status,status IN ('pending','approved','disabled')"`

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

	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

// MentorProfileColumns lists the profile columns in the order they are moved off lounges.
var MentorProfileColumns = []string{
	"mentor_title", "philosophy", "hobbies", "quick_prompts",
	"book_title", "book_description",
	"podcast_rec_title", "podcast_name", "podcast_youtube", "podcast_spotify", "podcast_apple",
	"social_instagram", "social_tiktok", "social_linkedin", "social_youtube",
}
