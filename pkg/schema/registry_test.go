package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prompterly/pkg/models"
)

func TestCanonicalRegistryOrder(t *testing.T) {
	reg, err := Canonical()
	require.NoError(t, err)

	tables := reg.Tables()
	require.Len(t, tables, len(models.All()))

	pos := make(map[string]int, len(tables))
	for i, tbl := range tables {
		pos[tbl.Name] = i
	}
	for _, tbl := range tables {
		for _, fk := range tbl.ForeignKeys {
			if fk.ParentTable == tbl.Name {
				continue
			}
			assert.Less(t, pos[fk.ParentTable], pos[tbl.Name], "%s must come after %s", tbl.Name, fk.ParentTable)
		}
	}
	assert.Equal(t, "users", tables[0].Name)
}

func TestEnumFor(t *testing.T) {
	reg, err := Canonical()
	require.NoError(t, err)

	tests := []struct {
		table  string
		column string
		want   []string
	}{
		{"users", "role", []string{"member", "mentor", "admin"}},
		{"lounges", "access_type", []string{"free", "paid", "invite_only"}},
		{"lounge_subscriptions", "plan_type", []string{"monthly", "yearly"}},
		{"time_capsules", "status", []string{"locked", "unlocked", "expired"}},
		{"payments", "provider", []string{"stripe", "klarna", "afterpay"}},
		{"email_otps", "purpose", []string{"registration", "password_reset", "email_change"}},
	}
	for _, tt := range tests {
		t.Run(tt.table+"."+tt.column, func(t *testing.T) {
			got, ok := reg.EnumFor(tt.table, tt.column)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := reg.EnumFor("users", "email")
	assert.False(t, ok)
	_, ok = reg.EnumFor("missing", "role")
	assert.False(t, ok)
}

func TestEnumChecksMatchDeclaredValues(t *testing.T) {
	reg, err := Canonical()
	require.NoError(t, err)

	for _, tbl := range reg.Tables() {
		for _, c := range tbl.Columns {
			if c.Enum == nil {
				continue
			}
			require.NotEmpty(t, c.Check, "%s.%s has no check constraint", tbl.Name, c.Name)
			for _, v := range c.Enum {
				assert.Contains(t, c.Check, "'"+v+"'", "%s.%s check", tbl.Name, c.Name)
			}
			assert.Equal(t, len(c.Enum), strings.Count(c.Check, "'")/2, "%s.%s check lists extra values", tbl.Name, c.Name)
		}
	}
}

func TestForeignKeyRules(t *testing.T) {
	reg, err := Canonical()
	require.NoError(t, err)

	tests := []struct {
		table  string
		column string
		parent string
		rule   string
	}{
		{"oauth_accounts", "user_id", "users", Cascade},
		{"mentors", "user_id", "users", Cascade},
		{"lounges", "mentor_id", "mentors", Cascade},
		{"lounges", "category_id", "categories", SetNull},
		{"lounges", "plan_id", "subscription_plans", SetNull},
		{"lounges", "profile_image_id", "files", SetNull},
		{"subscriptions", "plan_id", "subscription_plans", Restrict},
		{"chat_messages", "user_id", "users", SetNull},
		{"chat_messages", "reply_to_id", "chat_messages", SetNull},
		{"kb_prompts", "created_by_id", "users", SetNull},
		{"kb_prompts", "lounge_id", "lounges", Cascade},
		{"notes", "lounge_id", "lounges", Cascade},
		{"audit_logs", "user_id", "users", SetNull},
		{"lounge_resources", "file_id", "files", Cascade},
	}
	for _, tt := range tests {
		t.Run(tt.table+"."+tt.column, func(t *testing.T) {
			tbl, ok := reg.Table(tt.table)
			require.True(t, ok)
			var found *ForeignKey
			for _, fk := range tbl.ForeignKeys {
				if fk.Column == tt.column {
					found = fk
				}
			}
			require.NotNil(t, found, "no foreign key on %s.%s", tt.table, tt.column)
			assert.Equal(t, tt.parent, found.ParentTable)
			assert.Equal(t, "id", found.ParentColumn)
			assert.Equal(t, tt.rule, found.OnDelete)
		})
	}
}

func TestUserForeignKeysCascadeUnlessContentIsKept(t *testing.T) {
	reg, err := Canonical()
	require.NoError(t, err)

	keep := map[string]bool{
		"audit_logs.user_id":         true,
		"chat_messages.user_id":      true,
		"kb_prompts.created_by_id":   true,
		"kb_documents.created_by_id": true,
		"kb_faqs.created_by_id":      true,
	}
	fks := reg.ForeignKeysTo("users")
	require.NotEmpty(t, fks)
	for _, fk := range fks {
		name := fk.Table + "." + fk.Column
		if keep[name] {
			assert.Equal(t, SetNull, fk.OnDelete, name)
			continue
		}
		assert.Equal(t, Cascade, fk.OnDelete, name)
	}
}

func TestUniqueKeys(t *testing.T) {
	reg, err := Canonical()
	require.NoError(t, err)

	for _, name := range []string{"users", "categories", "lounges", "subscription_plans", "static_pages", "system_settings"} {
		tbl, ok := reg.Table(name)
		require.True(t, ok, name)
		assert.NotEmpty(t, tbl.UniqueKeys(), name)
	}
	audit, _ := reg.Table("audit_logs")
	assert.True(t, audit.AppendOnly)
	users, _ := reg.Table("users")
	assert.False(t, users.AppendOnly)
	assert.Equal(t, "id", users.PrimaryKey)
}

type cfgParent struct {
	ID uint64 `gorm:"primaryKey"`
}

type cfgConflicting struct {
	ID       uint64 `gorm:"primaryKey"`
	ParentID *uint64
	Parent   *cfgParent `gorm:"foreignKey:ParentID;references:ID;constraint:OnDelete:CASCADE"`
	Owner    *cfgParent `gorm:"foreignKey:ParentID;references:ID;constraint:OnDelete:SET NULL"`
}

type cfgSetNullRequired struct {
	ID       uint64     `gorm:"primaryKey"`
	ParentID uint64     `gorm:"not null"`
	Parent   *cfgParent `gorm:"foreignKey:ParentID;references:ID;constraint:OnDelete:SET NULL"`
}

type cfgOrphan struct {
	ID       uint64 `gorm:"primaryKey"`
	ParentID *uint64
	Parent   *cfgParent `gorm:"foreignKey:ParentID;references:ID;constraint:OnDelete:CASCADE"`
}

type cfgCycleA struct {
	ID  uint64     `gorm:"primaryKey"`
	BID *uint64    `gorm:"column:b_id"`
	B   *cfgCycleB `gorm:"foreignKey:BID;references:ID;constraint:OnDelete:SET NULL"`
}

type cfgCycleB struct {
	ID  uint64     `gorm:"primaryKey"`
	AID *uint64    `gorm:"column:a_id"`
	A   *cfgCycleA `gorm:"foreignKey:AID;references:ID;constraint:OnDelete:SET NULL"`
}

func TestBuildConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		models []any
		want   string
	}{
		{"conflicting delete rules", []any{&cfgParent{}, &cfgConflicting{}}, "conflicting delete rules"},
		{"set null on not null", []any{&cfgParent{}, &cfgSetNullRequired{}}, "SET NULL"},
		{"cycle", []any{&cfgCycleA{}, &cfgCycleB{}}, "cycle"},
		{"unregistered parent", []any{&cfgOrphan{}}, "unregistered"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.models...)
			require.Error(t, err)
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "got %T: %v", err, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := Build()
	assert.Error(t, err)
}
