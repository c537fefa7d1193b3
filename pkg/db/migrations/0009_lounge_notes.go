package migrations

import "prompterly/pkg/db/migrate"

func init() {
	register(migrate.Migration{
		Version: 9,
		Name:    "lounge_notes",
		Up: []migrate.Operation{
			migrate.AddColumn{
				Table:  "notes",
				Column: migrate.Column{Name: "lounge_id", Type: migrate.Ref, References: cascade("lounges")},
			},
		},
		Down: []migrate.Operation{
			migrate.DropColumn{Table: "notes", Column: "lounge_id"},
		},
	})
}
