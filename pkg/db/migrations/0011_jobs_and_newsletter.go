package migrations

import (
	"time"

	"gorm.io/datatypes"

	"prompterly/pkg/db/migrate"
)

type backgroundJob struct {
	ID           uint64  `gorm:"primaryKey;autoIncrement"`
	JobType      string  `gorm:"size:50;not null;index;check:chk_background_jobs_job_type,job_type IN ('prompt_embedding','document_processing','faq_embedding','bulk_embedding')"`
	Status       string  `gorm:"size:20;not null;default:pending;index;check:chk_background_jobs_status,status IN ('pending','processing','completed','failed')"`
	Progress     int     `gorm:"not null;default:0"`
	TotalSteps   int     `gorm:"not null;default:0"`
	CurrentStep  *string `gorm:"size:255"`
	EntityType   *string `gorm:"size:100"`
	EntityID     *uint64
	Result       datatypes.JSONMap
	ErrorMessage *string `gorm:"type:text"`
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime"`
}

type newsletterSubscriber struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement"`
	Email          string    `gorm:"size:255;uniqueIndex;not null"`
	Status         string    `gorm:"size:20;not null;default:active;check:chk_newsletter_subscribers_status,status IN ('active','unsubscribed')"`
	Source         string    `gorm:"size:50;not null;default:footer"`
	IPAddress      *string   `gorm:"size:64"`
	SubscribedAt   time.Time `gorm:"not null"`
	UnsubscribedAt *time.Time
	CreatedAt      time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime"`
}

func init() {
	register(migrate.Migration{
		Version: 11,
		Name:    "jobs_and_newsletter",
		Up: []migrate.Operation{
			migrate.CreateTables{Models: []any{&backgroundJob{}, &newsletterSubscriber{}}},
		},
		Down: []migrate.Operation{
			migrate.DropTables{Tables: []string{"newsletter_subscribers", "background_jobs"}},
		},
	})
}
