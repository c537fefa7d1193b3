package migrate

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gschema "gorm.io/gorm/schema"

	"prompterly/pkg/db"
)

// Operation is one idempotent schema step. Apply inspects the live catalog first
// and does nothing when the change is already in place.
type Operation interface {
	Describe() string
	Apply(ctx context.Context, s *Session) error
}

// Session is the connection a migration runs on: the migration transaction on
// dialects with transactional DDL, the pool otherwise.
type Session struct {
	DB     *gorm.DB
	Driver db.Driver
	Log    zerolog.Logger
}

// NewSession wraps gdb for running operations outside the runner.
func NewSession(gdb *gorm.DB, log zerolog.Logger) *Session {
	return &Session{DB: gdb, Driver: db.DriverOf(gdb), Log: log}
}

func (s *Session) exec(sql string, args ...any) error {
	return s.DB.Exec(sql, args...).Error
}

func (s *Session) quote(name string) string {
	return s.DB.Statement.Quote(name)
}

func (s *Session) hasTable(table string) bool {
	return s.DB.Migrator().HasTable(table)
}

// hasColumn reads pragma_table_info on sqlite; the gorm sqlite migrator matches
// column names against the CREATE statement text and misreports after ALTERs.
func (s *Session) hasColumn(ctx context.Context, table, column string) (bool, error) {
	if s.Driver != db.SQLite {
		return s.DB.Migrator().HasColumn(table, column), nil
	}
	var n int64
	if err := db.Get(ctx, s.DB, &n, "SELECT count(*) FROM pragma_table_info(?) WHERE name = ?", table, column); err != nil {
		return false, fmt.Errorf("inspect %s.%s: %w", table, column, err)
	}
	return n > 0, nil
}

func (s *Session) foreignKeysOn(ctx context.Context, table, column string) ([]string, error) {
	var names []string
	var err error
	switch s.Driver {
	case db.SQLite:
		var n int64
		err = db.Get(ctx, s.DB, &n, `SELECT count(*) FROM pragma_foreign_key_list(?) WHERE "from" = ?`, table, column)
		if n > 0 {
			names = append(names, foreignKeyName(table, column))
		}
	default:
		current := "current_schema()"
		if s.Driver == db.MySQL {
			current = "DATABASE()"
		}
		err = db.Select(ctx, s.DB, &names, `SELECT kcu.constraint_name
FROM information_schema.key_column_usage kcu
JOIN information_schema.table_constraints tc
  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema AND tc.table_name = kcu.table_name
WHERE tc.constraint_type = 'FOREIGN KEY' AND kcu.table_schema = `+current+` AND kcu.table_name = ? AND kcu.column_name = ?`, table, column)
	}
	if err != nil {
		return nil, fmt.Errorf("inspect foreign keys on %s.%s: %w", table, column, err)
	}
	return names, nil
}

// Columns lists the live columns of table in catalog order.
func Columns(ctx context.Context, gdb *gorm.DB, table string) ([]string, error) {
	var names []string
	if db.DriverOf(gdb) == db.SQLite {
		if err := db.Select(ctx, gdb, &names, "SELECT name FROM pragma_table_info(?) ORDER BY cid", table); err != nil {
			return nil, fmt.Errorf("list columns of %s: %w", table, err)
		}
		return names, nil
	}
	types, err := gdb.WithContext(ctx).Migrator().ColumnTypes(table)
	if err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", table, err)
	}
	for _, ct := range types {
		names = append(names, ct.Name())
	}
	return names, nil
}

// CreateTables creates each model's table, with its indexes, checks and foreign
// keys, unless it already exists. Models are created in the order given.
type CreateTables struct {
	Models []any
}

func (op CreateTables) Describe() string {
	names := make([]string, 0, len(op.Models))
	for _, m := range op.Models {
		names = append(names, tableOf(m))
	}
	return "create tables " + strings.Join(names, ", ")
}

func (op CreateTables) Apply(ctx context.Context, s *Session) error {
	m := s.DB.Migrator()
	for _, model := range op.Models {
		name := tableOf(model)
		if m.HasTable(name) {
			s.Log.Debug().Str("table", name).Msg("table exists")
			continue
		}
		if err := m.CreateTable(model); err != nil {
			return fmt.Errorf("create table %s: %w", name, err)
		}
	}
	return nil
}

func tableOf(model any) string {
	if t, ok := model.(gschema.Tabler); ok {
		return t.TableName()
	}
	rt := reflect.TypeOf(model)
	for rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	return gschema.NamingStrategy{}.TableName(rt.Name())
}

// DropTables drops tables in the order given, children first.
type DropTables struct {
	Tables []string
}

func (op DropTables) Describe() string {
	return "drop tables " + strings.Join(op.Tables, ", ")
}

func (op DropTables) Apply(_ context.Context, s *Session) error {
	for _, name := range op.Tables {
		if !s.hasTable(name) {
			continue
		}
		if err := s.exec("DROP TABLE ?", clause.Table{Name: name}); err != nil {
			return fmt.Errorf("drop table %s: %w", name, err)
		}
	}
	return nil
}

// AddColumn adds a column. A referencing column also gets an index and its
// foreign key; sqlite takes the reference inline because it cannot add
// constraints to an existing table.
type AddColumn struct {
	Table  string
	Column Column
}

func (op AddColumn) Describe() string {
	return fmt.Sprintf("add column %s.%s", op.Table, op.Column.Name)
}

func (op AddColumn) Apply(ctx context.Context, s *Session) error {
	if !s.hasTable(op.Table) {
		return fmt.Errorf("add column %s.%s: table does not exist", op.Table, op.Column.Name)
	}
	exists, err := s.hasColumn(ctx, op.Table, op.Column.Name)
	if err != nil {
		return err
	}
	ref := op.Column.References
	if !exists {
		def := op.Column.definition(s.Driver)
		if ref != nil && s.Driver == db.SQLite {
			def += fmt.Sprintf(" REFERENCES %s(%s) ON DELETE %s", s.quote(ref.Table), s.quote(ref.column()), ref.rule())
		}
		if err := s.exec("ALTER TABLE ? ADD COLUMN ? "+def, clause.Table{Name: op.Table}, clause.Column{Name: op.Column.Name}); err != nil {
			return fmt.Errorf("add column %s.%s: %w", op.Table, op.Column.Name, err)
		}
	}
	if op.Column.Index || ref != nil {
		idx := CreateIndex{Table: op.Table, Name: indexName(op.Table, op.Column.Name), Columns: []string{op.Column.Name}}
		if err := idx.Apply(ctx, s); err != nil {
			return err
		}
	}
	if ref != nil && s.Driver != db.SQLite {
		fk := AddForeignKey{Table: op.Table, Column: op.Column.Name, References: *ref}
		if err := fk.Apply(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// DropColumn drops a column together with its foreign key and index.
type DropColumn struct {
	Table  string
	Column string
}

func (op DropColumn) Describe() string {
	return fmt.Sprintf("drop column %s.%s", op.Table, op.Column)
}

func (op DropColumn) Apply(ctx context.Context, s *Session) error {
	if !s.hasTable(op.Table) {
		return nil
	}
	exists, err := s.hasColumn(ctx, op.Table, op.Column)
	if err != nil || !exists {
		return err
	}
	fks, err := s.foreignKeysOn(ctx, op.Table, op.Column)
	if err != nil {
		return err
	}
	if len(fks) > 0 && s.Driver == db.SQLite {
		return fmt.Errorf("drop column %s.%s: foreign key column: %w", op.Table, op.Column, ErrUnsupported)
	}
	for _, name := range fks {
		if err := (DropForeignKey{Table: op.Table, Name: name}).Apply(ctx, s); err != nil {
			return err
		}
	}
	if err := (DropIndex{Table: op.Table, Name: indexName(op.Table, op.Column)}).Apply(ctx, s); err != nil {
		return err
	}
	if err := s.exec("ALTER TABLE ? DROP COLUMN ?", clause.Table{Name: op.Table}, clause.Column{Name: op.Column}); err != nil {
		return fmt.Errorf("drop column %s.%s: %w", op.Table, op.Column, err)
	}
	return nil
}

// RenameColumn is a no-op once To exists and From is gone.
type RenameColumn struct {
	Table string
	From  string
	To    string
}

func (op RenameColumn) Describe() string {
	return fmt.Sprintf("rename column %s.%s to %s", op.Table, op.From, op.To)
}

func (op RenameColumn) Apply(ctx context.Context, s *Session) error {
	from, err := s.hasColumn(ctx, op.Table, op.From)
	if err != nil {
		return err
	}
	to, err := s.hasColumn(ctx, op.Table, op.To)
	if err != nil {
		return err
	}
	switch {
	case !from && to:
		return nil
	case from && to:
		return fmt.Errorf("rename column %s.%s: %s already exists", op.Table, op.From, op.To)
	case !from:
		return fmt.Errorf("rename column %s.%s: column does not exist", op.Table, op.From)
	}
	if err := s.exec("ALTER TABLE ? RENAME COLUMN ? TO ?", clause.Table{Name: op.Table}, clause.Column{Name: op.From}, clause.Column{Name: op.To}); err != nil {
		return fmt.Errorf("rename column %s.%s: %w", op.Table, op.From, err)
	}
	return nil
}

// AddForeignKey adds a named constraint to an existing column. Name defaults
// to fk_<table>_<column>. Not available on sqlite.
type AddForeignKey struct {
	Table      string
	Column     string
	Name       string
	References Reference
}

func (op AddForeignKey) name() string {
	if op.Name != "" {
		return op.Name
	}
	return foreignKeyName(op.Table, op.Column)
}

func (op AddForeignKey) Describe() string {
	return fmt.Sprintf("add foreign key %s (%s.%s -> %s.%s)", op.name(), op.Table, op.Column, op.References.Table, op.References.column())
}

func (op AddForeignKey) Apply(_ context.Context, s *Session) error {
	if s.Driver == db.SQLite {
		return fmt.Errorf("add foreign key %s: %w", op.name(), ErrUnsupported)
	}
	if s.DB.Migrator().HasConstraint(op.Table, op.name()) {
		return nil
	}
	sql := "ALTER TABLE ? ADD CONSTRAINT ? FOREIGN KEY (?) REFERENCES ?(?) ON DELETE " + op.References.rule()
	err := s.exec(sql,
		clause.Table{Name: op.Table},
		clause.Column{Name: op.name()},
		clause.Column{Name: op.Column},
		clause.Table{Name: op.References.Table},
		clause.Column{Name: op.References.column()},
	)
	if err != nil {
		return fmt.Errorf("add foreign key %s: %w", op.name(), err)
	}
	return nil
}

type DropForeignKey struct {
	Table string
	Name  string
}

func (op DropForeignKey) Describe() string {
	return fmt.Sprintf("drop foreign key %s on %s", op.Name, op.Table)
}

func (op DropForeignKey) Apply(_ context.Context, s *Session) error {
	if s.Driver == db.SQLite {
		return fmt.Errorf("drop foreign key %s: %w", op.Name, ErrUnsupported)
	}
	if !s.DB.Migrator().HasConstraint(op.Table, op.Name) {
		return nil
	}
	sql := "ALTER TABLE ? DROP CONSTRAINT ?"
	if s.Driver == db.MySQL {
		sql = "ALTER TABLE ? DROP FOREIGN KEY ?"
	}
	if err := s.exec(sql, clause.Table{Name: op.Table}, clause.Column{Name: op.Name}); err != nil {
		return fmt.Errorf("drop foreign key %s: %w", op.Name, err)
	}
	return nil
}

type CreateIndex struct {
	Table   string
	Name    string
	Columns []string
	Unique  bool
}

func (op CreateIndex) Describe() string {
	return fmt.Sprintf("create index %s on %s (%s)", op.Name, op.Table, strings.Join(op.Columns, ", "))
}

func (op CreateIndex) Apply(_ context.Context, s *Session) error {
	if len(op.Columns) == 0 {
		return fmt.Errorf("create index %s: no columns", op.Name)
	}
	if s.DB.Migrator().HasIndex(op.Table, op.Name) {
		return nil
	}
	cols := make([]string, len(op.Columns))
	for i, c := range op.Columns {
		cols[i] = s.quote(c)
	}
	kind := "INDEX"
	if op.Unique {
		kind = "UNIQUE INDEX"
	}
	sql := fmt.Sprintf("CREATE %s ? ON ? (%s)", kind, strings.Join(cols, ", "))
	if err := s.exec(sql, clause.Column{Name: op.Name}, clause.Table{Name: op.Table}); err != nil {
		return fmt.Errorf("create index %s: %w", op.Name, err)
	}
	return nil
}

type DropIndex struct {
	Table string
	Name  string
}

func (op DropIndex) Describe() string {
	return fmt.Sprintf("drop index %s on %s", op.Name, op.Table)
}

func (op DropIndex) Apply(_ context.Context, s *Session) error {
	m := s.DB.Migrator()
	if !m.HasIndex(op.Table, op.Name) {
		return nil
	}
	if err := m.DropIndex(op.Table, op.Name); err != nil {
		return fmt.Errorf("drop index %s: %w", op.Name, err)
	}
	return nil
}

// SQL runs a data statement. It must be safe to run more than once.
type SQL struct {
	Label     string
	Statement string
	Args      []any
}

func (op SQL) Describe() string {
	if op.Label != "" {
		return op.Label
	}
	stmt := strings.Join(strings.Fields(op.Statement), " ")
	if len(stmt) > 60 {
		stmt = stmt[:57] + "..."
	}
	return stmt
}

func (op SQL) Apply(_ context.Context, s *Session) error {
	if strings.TrimSpace(op.Statement) == "" {
		return nil
	}
	if err := s.exec(op.Statement, op.Args...); err != nil {
		return fmt.Errorf("%s: %w", op.Describe(), err)
	}
	return nil
}

// EnumCheck pins Column to exactly Values under the check named Name. Postgres
// and mysql drop and recreate the check. SQLite cannot alter a check in place,
// so insert and update triggers raise the same failure instead. Fold restores
// the case-insensitive lower(column) form, which on sqlite means dropping the
// triggers and leaving the table's own check.
type EnumCheck struct {
	Table  string
	Column string
	Name   string
	Values []string
	Fold   bool
}

func (op EnumCheck) Describe() string {
	if op.Fold {
		return fmt.Sprintf("fold check %s on %s.%s", op.Name, op.Table, op.Column)
	}
	return fmt.Sprintf("exact check %s on %s.%s", op.Name, op.Table, op.Column)
}

// expr renders the check. MySQL compares strings case-insensitively under its
// default collations, so the exact form casts to binary there.
func (op EnumCheck) expr(d db.Driver, column string) string {
	quoted := make([]string, len(op.Values))
	for i, v := range op.Values {
		quoted[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	switch {
	case op.Fold:
		column = "lower(" + column + ")"
	case d == db.MySQL:
		column = "CAST(" + column + " AS BINARY)"
	}
	return column + " IN (" + strings.Join(quoted, ",") + ")"
}

func (op EnumCheck) Apply(ctx context.Context, s *Session) error {
	if len(op.Values) == 0 {
		return fmt.Errorf("%s: no values", op.Describe())
	}
	table, column := s.quote(op.Table), s.quote(op.Column)
	switch s.Driver {
	case db.SQLite:
		for _, event := range []string{"insert", "update"} {
			trigger := s.quote(op.Name + "_" + event)
			if err := s.exec("DROP TRIGGER IF EXISTS " + trigger); err != nil {
				return fmt.Errorf("%s: %w", op.Describe(), err)
			}
			if op.Fold {
				continue
			}
			on := "INSERT ON " + table
			if event == "update" {
				on = "UPDATE OF " + column + " ON " + table
			}
			stmt := fmt.Sprintf("CREATE TRIGGER %s BEFORE %s FOR EACH ROW WHEN NOT (%s) BEGIN SELECT RAISE(ABORT, 'CHECK constraint failed: %s'); END",
				trigger, on, op.expr(s.Driver, "NEW."+column), op.Name)
			if err := s.exec(stmt); err != nil {
				return fmt.Errorf("%s: %w", op.Describe(), err)
			}
		}
		return nil
	case db.MySQL:
		var n int64
		err := db.Get(ctx, s.DB, &n, `SELECT count(*) FROM information_schema.table_constraints
WHERE constraint_type = 'CHECK' AND table_schema = DATABASE() AND table_name = ? AND constraint_name = ?`, op.Table, op.Name)
		if err != nil {
			return fmt.Errorf("%s: %w", op.Describe(), err)
		}
		if n > 0 {
			if err := s.exec("ALTER TABLE " + table + " DROP CHECK " + s.quote(op.Name)); err != nil {
				return fmt.Errorf("%s: %w", op.Describe(), err)
			}
		}
	default:
		if err := s.exec("ALTER TABLE " + table + " DROP CONSTRAINT IF EXISTS " + s.quote(op.Name)); err != nil {
			return fmt.Errorf("%s: %w", op.Describe(), err)
		}
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s)", table, s.quote(op.Name), op.expr(s.Driver, column))
	if err := s.exec(stmt); err != nil {
		return fmt.Errorf("%s: %w", op.Describe(), err)
	}
	return nil
}

// ColumnRef names a column by table.
type ColumnRef struct {
	Table  string
	Column string
}

func (c ColumnRef) String() string { return c.Table + "." + c.Column }

// MoveColumn relocates a column between tables. The target column is added,
// values are copied where the target is still NULL, then the source column is
// dropped. Rows are matched on From.Table.SourceKey = To.Table.TargetKey; when
// several source rows match, the non-NULL value with the lowest source id wins.
// Every step is skipped once done, so a half-applied move resumes cleanly.
type MoveColumn struct {
	From      ColumnRef
	To        ColumnRef
	Column    Column
	SourceKey string
	TargetKey string
}

func (op MoveColumn) Describe() string {
	return fmt.Sprintf("move column %s -> %s", op.From, op.To)
}

func (op MoveColumn) Apply(ctx context.Context, s *Session) error {
	col := op.Column
	col.Name = op.To.Column
	if err := (AddColumn{Table: op.To.Table, Column: col}).Apply(ctx, s); err != nil {
		return err
	}

	exists, err := s.hasColumn(ctx, op.From.Table, op.From.Column)
	if err != nil || !exists {
		return err
	}

	target, dst := s.quote(op.To.Table), s.quote(op.To.Column)
	src := s.quote(op.From.Column)
	copySQL := fmt.Sprintf(
		"UPDATE %s SET %s = (SELECT src.%s FROM %s src WHERE src.%s = %s.%s AND src.%s IS NOT NULL ORDER BY src.%s LIMIT 1) WHERE %s IS NULL",
		target, dst,
		src, s.quote(op.From.Table), s.quote(op.SourceKey), target, s.quote(op.TargetKey), src, s.quote("id"),
		dst,
	)
	res := s.DB.Exec(copySQL)
	if res.Error != nil {
		return fmt.Errorf("copy %s -> %s: %w", op.From, op.To, res.Error)
	}
	s.Log.Debug().Str("from", op.From.String()).Str("to", op.To.String()).Int64("rows", res.RowsAffected).Msg("column copied")

	return (DropColumn{Table: op.From.Table, Column: op.From.Column}).Apply(ctx, s)
}
