package migrations

import "prompterly/pkg/db/migrate"

// ProfileFields are the mentor profile columns that moved from lounges to
// mentors. A mentor with several lounges keeps the first non-empty value.
var ProfileFields = []migrate.Column{
	{Name: "mentor_title", Type: migrate.String, Size: 255},
	{Name: "philosophy", Type: migrate.Text},
	{Name: "hobbies", Type: migrate.Text},
	{Name: "quick_prompts", Type: migrate.JSON},
	{Name: "book_title", Type: migrate.String, Size: 255},
	{Name: "book_description", Type: migrate.Text},
	{Name: "podcast_rec_title", Type: migrate.String, Size: 255},
	{Name: "podcast_name", Type: migrate.String, Size: 255},
	{Name: "podcast_youtube", Type: migrate.String, Size: 500},
	{Name: "podcast_spotify", Type: migrate.String, Size: 500},
	{Name: "podcast_apple", Type: migrate.String, Size: 500},
	{Name: "social_instagram", Type: migrate.String, Size: 500},
	{Name: "social_tiktok", Type: migrate.String, Size: 500},
	{Name: "social_linkedin", Type: migrate.String, Size: 500},
	{Name: "social_youtube", Type: migrate.String, Size: 500},
}

func init() {
	var up, down []migrate.Operation
	for _, c := range ProfileFields {
		up = append(up, migrate.MoveColumn{
			From:      migrate.ColumnRef{Table: "lounges", Column: c.Name},
			To:        migrate.ColumnRef{Table: "mentors", Column: c.Name},
			Column:    c,
			SourceKey: "mentor_id",
			TargetKey: "id",
		})
		down = append(down, migrate.MoveColumn{
			From:      migrate.ColumnRef{Table: "mentors", Column: c.Name},
			To:        migrate.ColumnRef{Table: "lounges", Column: c.Name},
			Column:    c,
			SourceKey: "id",
			TargetKey: "mentor_id",
		})
	}
	register(migrate.Migration{Version: 14, Name: "mentor_profile", Up: up, Down: down})
}
