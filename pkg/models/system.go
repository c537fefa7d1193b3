package models

import (
	"time"

	"gorm.io/datatypes"
)

// AppendOnly marks models whose rows may be inserted but never updated or deleted.
type AppendOnly interface {
	AppendOnly()
}

// ComplianceRequest is a GDPR-style export or deletion request.
type ComplianceRequest struct {
	ID             uint64                `gorm:"primaryKey;autoIncrement"`
	UserID         uint64                `gorm:"not null;index"`
	RequestType    ComplianceRequestType `gorm:"size:20;not null;check:chk_compliance_requests_request_type,request_type IN ('export','delete')"`
	Status         ComplianceStatus      `gorm:"size:20;not null;default:pending;check:chk_compliance_requests_status,status IN ('pending','processing','done','rejected')"`
	Reason         *string               `gorm:"type:text"`
	ExportFilePath *string               `gorm:"size:1000"`
	ProcessedAt    *time.Time
	CreatedAt      time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime"`

	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

// AuditLog is an append-only record of a change. EntityType and EntityID point at any
// table and are not a foreign key.
type AuditLog struct {
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

	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:SET NULL"`
}

func (AuditLog) AppendOnly() {}

// SystemSetting is a typed key/value pair. Value is stored as text and parsed by ValueType.
type SystemSetting struct {
	ID          uint64           `gorm:"primaryKey;autoIncrement"`
	Key         string           `gorm:"size:255;uniqueIndex;not null"`
	Value       string           `gorm:"type:text;not null"`
	ValueType   SettingValueType `gorm:"size:20;not null;default:string;check:chk_system_settings_value_type,value_type IN ('string','int','bool','json')"`
	Description *string          `gorm:"type:text"`
	IsPublic    bool             `gorm:"not null;default:false"`
	CreatedAt   time.Time        `gorm:"not null;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"not null;autoUpdateTime"`
}

// BackgroundJob tracks a long-running embedding or document job.
type BackgroundJob struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	JobType      JobType   `gorm:"size:50;not null;index;check:chk_background_jobs_job_type,job_type IN ('prompt_embedding','document_processing','faq_embedding','bulk_embedding')"`
	Status       JobStatus `gorm:"size:20;not null;default:pending;index;check:chk_background_jobs_status,status IN ('pending','processing','completed','failed')"`
	Progress     int       `gorm:"not null;default:0"`
	TotalSteps   int       `gorm:"not null;default:0"`
	CurrentStep  *string   `gorm:"size:255"`
	EntityType   *string   `gorm:"size:100"`
	EntityID     *uint64
	Result       datatypes.JSONMap
	ErrorMessage *string `gorm:"type:text"`
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime"`
}
