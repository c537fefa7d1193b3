package migrations

import (
	"fmt"

	"prompterly/pkg/db/migrate"
)

// The baseline checks compared lower(column), which let writes that bypass the
// registry store mixed-case labels. Values are normalized again before the
// exact checks go in so that rows written since 0005 do not block the upgrade;
// the update is unconditional because mysql's default collation treats 'ADMIN'
// and 'admin' as equal.
var enumDomains = map[migrate.ColumnRef][]string{
	{Table: "users", Column: "role"}:                          {"member", "mentor", "admin"},
	{Table: "oauth_accounts", Column: "provider"}:             {"google"},
	{Table: "email_otps", Column: "purpose"}:                  {"registration", "password_reset", "email_change"},
	{Table: "mentors", Column: "status"}:                      {"pending", "approved", "disabled"},
	{Table: "subscription_plans", Column: "billing_interval"}: {"monthly", "yearly"},
	{Table: "lounges", Column: "access_type"}:                 {"free", "paid", "invite_only"},
	{Table: "lounge_memberships", Column: "role"}:             {"member", "co_mentor"},
	{Table: "subscriptions", Column: "status"}:                {"trialing", "active", "past_due", "canceled"},
	{Table: "payments", Column: "provider"}:                   {"stripe", "klarna", "afterpay"},
	{Table: "payments", Column: "status"}:                     {"pending", "succeeded", "failed"},
	{Table: "chat_threads", Column: "status"}:                 {"open", "archived"},
	{Table: "chat_messages", Column: "sender_type"}:           {"user", "ai", "mentor"},
	{Table: "time_capsules", Column: "status"}:                {"locked", "unlocked", "expired"},
	{Table: "notifications", Column: "channel"}:               {"email", "in_app"},
	{Table: "notifications", Column: "status"}:                {"queued", "sent", "read"},
	{Table: "compliance_requests", Column: "request_type"}:    {"export", "delete"},
	{Table: "compliance_requests", Column: "status"}:          {"pending", "processing", "done", "rejected"},
	{Table: "system_settings", Column: "value_type"}:          {"string", "int", "bool", "json"},
}

func init() {
	var up, down []migrate.Operation
	for _, c := range enumColumns {
		values := enumDomains[c]
		name := fmt.Sprintf("chk_%s_%s", c.Table, c.Column)
		up = append(up,
			migrate.SQL{
				Label:     "lowercase " + c.String(),
				Statement: fmt.Sprintf("UPDATE %s SET %s = LOWER(%s)", c.Table, c.Column, c.Column),
			},
			migrate.EnumCheck{Table: c.Table, Column: c.Column, Name: name, Values: values},
		)
		down = append(down, migrate.EnumCheck{Table: c.Table, Column: c.Column, Name: name, Values: values, Fold: true})
	}
	register(migrate.Migration{Version: 17, Name: "exact_enum_checks", Up: up, Down: down})
}
