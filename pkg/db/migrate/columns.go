package migrate

import (
	"fmt"
	"strings"

	"prompterly/pkg/db"
)

// ColumnType is a dialect independent column type.
type ColumnType int

const (
	Int ColumnType = iota + 1
	BigInt
	// Ref is an integer wide enough to reference a surrogate id.
	Ref
	String
	Text
	Bool
	Time
	JSON
	Float
)

const defaultStringSize = 255

func (t ColumnType) render(d db.Driver, size int) string {
	if size <= 0 {
		size = defaultStringSize
	}
	switch t {
	case Int, BigInt:
		if d == db.SQLite {
			return "integer"
		}
		return "bigint"
	case Ref:
		switch d {
		case db.MySQL:
			return "bigint unsigned"
		case db.SQLite:
			return "integer"
		}
		return "bigint"
	case String:
		if d == db.SQLite {
			return "text"
		}
		return fmt.Sprintf("varchar(%d)", size)
	case Text:
		return "text"
	case Bool:
		if d == db.SQLite {
			return "numeric"
		}
		return "boolean"
	case Time:
		switch d {
		case db.Postgres:
			return "timestamptz"
		case db.MySQL:
			return "datetime(3)"
		}
		return "datetime"
	case JSON:
		if d == db.Postgres {
			return "jsonb"
		}
		return "JSON"
	case Float:
		switch d {
		case db.Postgres:
			return "double precision"
		case db.MySQL:
			return "double"
		}
		return "real"
	}
	return "text"
}

// Column describes a column added by a migration. Default is a SQL literal
// such as 'USD' or false and is written verbatim.
type Column struct {
	Name       string
	Type       ColumnType
	Size       int
	NotNull    bool
	Default    string
	Index      bool
	References *Reference
}

// Reference is an inline foreign key on an added column.
type Reference struct {
	Table    string
	Column   string
	OnDelete string
}

func (r Reference) column() string {
	if r.Column == "" {
		return "id"
	}
	return r.Column
}

func (r Reference) rule() string {
	if r.OnDelete == "" {
		return "NO ACTION"
	}
	return strings.ToUpper(r.OnDelete)
}

func (c Column) definition(d db.Driver) string {
	var b strings.Builder
	b.WriteString(c.Type.render(d, c.Size))
	if c.NotNull {
		b.WriteString(" NOT NULL")
	}
	if c.Default != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(c.Default)
	}
	return b.String()
}

func indexName(table, column string) string {
	return "idx_" + table + "_" + column
}

func foreignKeyName(table, column string) string {
	return "fk_" + table + "_" + column
}
