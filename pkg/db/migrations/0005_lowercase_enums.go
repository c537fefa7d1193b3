package migrations

import (
	"fmt"

	"prompterly/pkg/db/migrate"
)

// Rows written before the enum values were normalized carry upper case
// labels. Lowering is idempotent; there is nothing to restore on the way down.
var enumColumns = []migrate.ColumnRef{
	{Table: "users", Column: "role"},
	{Table: "oauth_accounts", Column: "provider"},
	{Table: "email_otps", Column: "purpose"},
	{Table: "mentors", Column: "status"},
	{Table: "subscription_plans", Column: "billing_interval"},
	{Table: "lounges", Column: "access_type"},
	{Table: "lounge_memberships", Column: "role"},
	{Table: "subscriptions", Column: "status"},
	{Table: "payments", Column: "provider"},
	{Table: "payments", Column: "status"},
	{Table: "chat_threads", Column: "status"},
	{Table: "chat_messages", Column: "sender_type"},
	{Table: "time_capsules", Column: "status"},
	{Table: "notifications", Column: "channel"},
	{Table: "notifications", Column: "status"},
	{Table: "compliance_requests", Column: "request_type"},
	{Table: "compliance_requests", Column: "status"},
	{Table: "system_settings", Column: "value_type"},
}

func init() {
	up := make([]migrate.Operation, 0, len(enumColumns))
	for _, c := range enumColumns {
		up = append(up, migrate.SQL{
			Label:     "lowercase " + c.String(),
			Statement: fmt.Sprintf("UPDATE %s SET %s = LOWER(%s) WHERE %s <> LOWER(%s)", c.Table, c.Column, c.Column, c.Column, c.Column),
		})
	}
	register(migrate.Migration{Version: 5, Name: "lowercase_enums", Up: up})
}
