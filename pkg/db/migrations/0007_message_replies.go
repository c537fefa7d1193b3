package migrations

import "prompterly/pkg/db/migrate"

func init() {
	register(migrate.Migration{
		Version: 7,
		Name:    "message_replies",
		Up: []migrate.Operation{
			migrate.AddColumn{
				Table:  "chat_messages",
				Column: migrate.Column{Name: "reply_to_id", Type: migrate.Ref, References: setNull("chat_messages")},
			},
		},
		Down: []migrate.Operation{
			migrate.DropColumn{Table: "chat_messages", Column: "reply_to_id"},
		},
	})
}
