package migrations

import "prompterly/pkg/db/migrate"

var ragColumns = []migrate.Column{
	{Name: "system_prompt_embedding", Type: migrate.JSON},
	{Name: "embedding_model", Type: migrate.String, Size: 100},
	{Name: "use_rag", Type: migrate.Bool, NotNull: true, Default: "true"},
	{Name: "rag_similarity_threshold", Type: migrate.Int, NotNull: true, Default: "70"},
}

func init() {
	var up, down []migrate.Operation
	for _, c := range ragColumns {
		up = append(up, migrate.AddColumn{Table: "public_chatbot_config", Column: c})
	}
	for i := len(ragColumns) - 1; i >= 0; i-- {
		down = append(down, migrate.DropColumn{Table: "public_chatbot_config", Column: ragColumns[i].Name})
	}
	register(migrate.Migration{Version: 16, Name: "public_chatbot_rag", Up: up, Down: down})
}
