package migrations

import "prompterly/pkg/db/migrate"

// Knowledge base content becomes scoped to a lounge. Existing rows stay
// global (NULL lounge).
var kbTables = []string{"kb_categories", "kb_prompts", "kb_documents", "kb_faqs"}

func init() {
	var up, down []migrate.Operation
	for _, t := range kbTables {
		up = append(up, migrate.AddColumn{
			Table:  t,
			Column: migrate.Column{Name: "lounge_id", Type: migrate.Ref, References: cascade("lounges")},
		})
	}
	for i := len(kbTables) - 1; i >= 0; i-- {
		down = append(down, migrate.DropColumn{Table: kbTables[i], Column: "lounge_id"})
	}
	register(migrate.Migration{Version: 3, Name: "kb_lounge_scope", Up: up, Down: down})
}
