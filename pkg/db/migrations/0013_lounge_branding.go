package migrations

import "prompterly/pkg/db/migrate"

func init() {
	register(migrate.Migration{
		Version: 13,
		Name:    "lounge_branding",
		Up: []migrate.Operation{
			migrate.AddColumn{Table: "lounges", Column: migrate.Column{Name: "about", Type: migrate.Text}},
			migrate.AddColumn{Table: "lounges", Column: migrate.Column{
				Name: "brand_color", Type: migrate.String, Size: 20, NotNull: true, Default: "'#9ECCF2'",
			}},
		},
		Down: []migrate.Operation{
			migrate.DropColumn{Table: "lounges", Column: "brand_color"},
			migrate.DropColumn{Table: "lounges", Column: "about"},
		},
	})
}
