package migrations

import "prompterly/pkg/db/migrate"

func init() {
	register(migrate.Migration{
		Version: 2,
		Name:    "rename_message_metadata",
		Up: []migrate.Operation{
			migrate.RenameColumn{Table: "chat_messages", From: "metadata", To: "message_metadata"},
		},
		Down: []migrate.Operation{
			migrate.RenameColumn{Table: "chat_messages", From: "message_metadata", To: "metadata"},
		},
	})
}
