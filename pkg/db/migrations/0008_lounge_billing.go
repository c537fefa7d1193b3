package migrations

import (
	"time"

	"prompterly/pkg/db/migrate"
)

type loungeSubscription struct {
	ID                   uint64    `gorm:"primaryKey;autoIncrement"`
	UserID               uint64    `gorm:"not null;index"`
	LoungeID             uint64    `gorm:"not null;index"`
	PlanType             string    `gorm:"size:20;not null;check:chk_lounge_subscriptions_plan_type,plan_type IN ('monthly','yearly')"`
	StripeSubscriptionID *string   `gorm:"size:255;uniqueIndex"`
	Status               string    `gorm:"size:20;not null;default:trialing;check:chk_lounge_subscriptions_status,status IN ('trialing','active','past_due','canceled')"`
	StartedAt            time.Time `gorm:"not null"`
	RenewsAt             *time.Time
	CanceledAt           *time.Time
	CreatedAt            time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt            time.Time `gorm:"not null;autoUpdateTime"`

	User   *user   `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Lounge *lounge `gorm:"foreignKey:LoungeID;references:ID;constraint:OnDelete:CASCADE"`
}

var loungeStripeColumns = []string{"stripe_product_id", "stripe_monthly_price_id", "stripe_yearly_price_id"}

func init() {
	var up, down []migrate.Operation
	for _, name := range loungeStripeColumns {
		up = append(up, migrate.AddColumn{
			Table:  "lounges",
			Column: migrate.Column{Name: name, Type: migrate.String, Size: 255},
		})
	}
	up = append(up, migrate.CreateTables{Models: []any{&loungeSubscription{}}})

	down = append(down, migrate.DropTables{Tables: []string{"lounge_subscriptions"}})
	for i := len(loungeStripeColumns) - 1; i >= 0; i-- {
		down = append(down, migrate.DropColumn{Table: "lounges", Column: loungeStripeColumns[i]})
	}
	register(migrate.Migration{Version: 8, Name: "lounge_billing", Up: up, Down: down})
}
