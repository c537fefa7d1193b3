package schema

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// TranslateError maps a store error to a *ConstraintViolation when it reports a
// unique, foreign key or check failure. Other errors are returned unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	var cv *ConstraintViolation
	if errors.As(err, &cv) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		v := &ConstraintViolation{Table: pgErr.TableName, Column: pgErr.ColumnName, Constraint: pgErr.ConstraintName, Err: err}
		switch pgErr.Code {
		case "23505":
			v.Kind = KindUnique
		case "23503":
			v.Kind = KindForeignKey
		case "23514":
			v.Kind = KindCheck
		default:
			return err
		}
		return v
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1062:
			return &ConstraintViolation{Kind: KindUnique, Err: err}
		case 1451, 1452:
			return &ConstraintViolation{Kind: KindForeignKey, Err: err}
		case 3819:
			return &ConstraintViolation{Kind: KindCheck, Err: err}
		}
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &ConstraintViolation{Kind: KindUnique, Err: err}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &ConstraintViolation{Kind: KindForeignKey, Err: err}
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return &ConstraintViolation{Kind: KindCheck, Err: err}
	}

	return translateSQLite(err)
}

// SQLite reports constraint failures only through the message text, e.g.
// "UNIQUE constraint failed: users.email (2067)".
func translateSQLite(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		table, column := splitQualified(after(msg, "UNIQUE constraint failed: "))
		return &ConstraintViolation{Kind: KindUnique, Table: table, Column: column, Err: err}
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return &ConstraintViolation{Kind: KindForeignKey, Err: err}
	case strings.Contains(msg, "CHECK constraint failed"):
		return &ConstraintViolation{Kind: KindCheck, Constraint: after(msg, "CHECK constraint failed: "), Err: err}
	case strings.Contains(msg, "NOT NULL constraint failed"):
		table, column := splitQualified(after(msg, "NOT NULL constraint failed: "))
		return &ConstraintViolation{Kind: KindCheck, Table: table, Column: column, Constraint: "not_null", Err: err}
	}
	return err
}

func after(msg, marker string) string {
	i := strings.Index(msg, marker)
	if i < 0 {
		return ""
	}
	rest := msg[i+len(marker):]
	if j := strings.IndexAny(rest, " ("); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimRight(rest, ",")
}

func splitQualified(s string) (string, string) {
	table, column, ok := strings.Cut(s, ".")
	if !ok {
		return "", s
	}
	return table, column
}
