package migrations

import "prompterly/pkg/db/migrate"

func init() {
	register(migrate.Migration{
		Version: 4,
		Name:    "lounge_profile_image",
		Up: []migrate.Operation{
			migrate.AddColumn{
				Table:  "lounges",
				Column: migrate.Column{Name: "profile_image_id", Type: migrate.Ref, References: setNull("files")},
			},
		},
		Down: []migrate.Operation{
			migrate.DropColumn{Table: "lounges", Column: "profile_image_id"},
		},
	})
}
