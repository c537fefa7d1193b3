package migrations

import "prompterly/pkg/db/migrate"

func init() {
	register(migrate.Migration{
		Version: 12,
		Name:    "user_stripe_customer",
		Up: []migrate.Operation{
			migrate.AddColumn{
				Table:  "users",
				Column: migrate.Column{Name: "stripe_customer_id", Type: migrate.String, Size: 255, Index: true},
			},
		},
		Down: []migrate.Operation{
			migrate.DropColumn{Table: "users", Column: "stripe_customer_id"},
		},
	})
}
