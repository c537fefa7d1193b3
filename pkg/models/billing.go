package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubscriptionPlan is a platform-wide billing plan.
type SubscriptionPlan struct {
	ID              uint64          `gorm:"primaryKey;autoIncrement"`
	Name            string          `gorm:"size:255;not null"`
	Slug            string          `gorm:"size:255;uniqueIndex;not null"`
	Description     *string         `gorm:"type:text"`
	StripePriceID   *string         `gorm:"size:255"`
	PriceCents      int             `gorm:"not null;default:0"`
	Currency        string          `gorm:"size:3;not null;default:USD"`
	BillingInterval BillingInterval `gorm:"size:20;not null;default:monthly;check:chk_subscription_plans_billing_interval,billing_interval IN ('monthly','yearly')"`
	Features        datatypes.JSONSlice[string]
	IsActive        bool      `gorm:"not null;default:true"`
	CreatedAt       time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"not null;autoUpdateTime"`
}

// Subscription is a user's platform subscription.
type Subscription struct {
	ID                   uint64             `gorm:"primaryKey;autoIncrement"`
	UserID               uint64             `gorm:"not null;index"`
	PlanID               uint64             `gorm:"not null;index"`
	StripeSubscriptionID *string            `gorm:"size:255;uniqueIndex"`
	Status               SubscriptionStatus `gorm:"size:20;not null;default:trialing;check:chk_subscriptions_status,status IN ('trialing','active','past_due','canceled')"`
	StartedAt            time.Time          `gorm:"not null"`
	RenewsAt             *time.Time
	CanceledAt           *time.Time
	CreatedAt            time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt            time.Time `gorm:"not null;autoUpdateTime"`

	User *User             `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Plan *SubscriptionPlan `gorm:"foreignKey:PlanID;references:ID;constraint:OnDelete:RESTRICT"`
}

// LoungeSubscription is a user's paid subscription to a single lounge.
type LoungeSubscription struct {
	ID                   uint64             `gorm:"primaryKey;autoIncrement"`
	UserID               uint64             `gorm:"not null;index"`
	LoungeID             uint64             `gorm:"not null;index"`
	PlanType             BillingInterval    `gorm:"size:20;not null;check:chk_lounge_subscriptions_plan_type,plan_type IN ('monthly','yearly')"`
	StripeSubscriptionID *string            `gorm:"size:255;uniqueIndex"`
	Status               SubscriptionStatus `gorm:"size:20;not null;default:trialing;check:chk_lounge_subscriptions_status,status IN ('trialing','active','past_due','canceled')"`
	StartedAt            time.Time          `gorm:"not null"`
	RenewsAt             *time.Time
	CanceledAt           *time.Time
	CreatedAt            time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt            time.Time `gorm:"not null;autoUpdateTime"`

	User   *User   `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Lounge *Lounge `gorm:"foreignKey:LoungeID;references:ID;constraint:OnDelete:CASCADE"`
}

// Payment is a single charge attempt with an external provider.
type Payment struct {
	ID                uint64          `gorm:"primaryKey;autoIncrement"`
	UserID            uint64          `gorm:"not null;index"`
	SubscriptionID    *uint64         `gorm:"index"`
	Provider          PaymentProvider `gorm:"size:20;not null;check:chk_payments_provider,provider IN ('stripe','klarna','afterpay')"`
	ProviderPaymentID string          `gorm:"size:255;uniqueIndex;not null"`
	AmountCents       int             `gorm:"not null"`
	Currency          string          `gorm:"size:3;not null;default:USD"`
	Status            PaymentStatus   `gorm:"size:20;not null;default:pending;check:chk_payments_status,status IN ('pending','succeeded','failed')"`
	CreatedAt         time.Time       `gorm:"not null;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"not null;autoUpdateTime"`

	User         *User         `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Subscription *Subscription `gorm:"foreignKey:SubscriptionID;references:ID;constraint:OnDelete:SET NULL"`
}
