// Package schema builds the schema definition registry from the gorm models in
// pkg/models and enforces its rules on writes made through gorm.
package schema

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	gschema "gorm.io/gorm/schema"

	"prompterly/pkg/models"
)

// ColumnType is the abstract storage type of a column.
type ColumnType string

const (
	TypeBool   ColumnType = "bool"
	TypeInt    ColumnType = "int"
	TypeFloat  ColumnType = "float"
	TypeString ColumnType = "string"
	TypeText   ColumnType = "text"
	TypeTime   ColumnType = "time"
	TypeJSON   ColumnType = "json"
	TypeBytes  ColumnType = "bytes"
)

// Delete rules as written in constraint tags.
const (
	Cascade  = "CASCADE"
	SetNull  = "SET NULL"
	Restrict = "RESTRICT"
	NoAction = "NO ACTION"
)

// Enumerated is implemented by named string types with a closed set of values.
type Enumerated interface {
	Values() []string
}

type Column struct {
	Name          string
	Field         string
	Type          ColumnType
	Size          int
	Nullable      bool
	PrimaryKey    bool
	AutoIncrement bool
	Unique        bool
	HasDefault    bool
	Default       string
	Enum          []string
	Check         string
}

type ForeignKey struct {
	Name         string
	Table        string
	Column       string
	ParentTable  string
	ParentColumn string
	OnDelete     string
	OnUpdate     string
}

func (fk *ForeignKey) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", fk.Table, fk.Column, fk.ParentTable, fk.ParentColumn)
}

type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// Table is the registry view of one model.
type Table struct {
	Name        string
	Model       string
	PrimaryKey  string
	Columns     []*Column
	Indexes     []Index
	ForeignKeys []*ForeignKey
	AppendOnly  bool

	columns map[string]*Column
	fields  map[string]*Column
	parsed  *gschema.Schema
}

// Column returns the column with the given name. Go field names are accepted too.
func (t *Table) Column(name string) (*Column, bool) {
	if c, ok := t.columns[name]; ok {
		return c, true
	}
	c, ok := t.fields[name]
	return c, ok
}

func (t *Table) ColumnNames() []string {
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		out = append(out, c.Name)
	}
	return out
}

// UniqueKeys lists single and composite unique keys, primary key excluded.
func (t *Table) UniqueKeys() [][]string {
	var keys [][]string
	for _, c := range t.Columns {
		if c.Unique {
			keys = append(keys, []string{c.Name})
		}
	}
	for _, idx := range t.Indexes {
		if idx.Unique && !(len(idx.Columns) == 1 && t.columns[idx.Columns[0]].Unique) {
			keys = append(keys, idx.Columns)
		}
	}
	return keys
}

// Schema returns the parsed gorm schema backing the table.
func (t *Table) Schema() *gschema.Schema { return t.parsed }

// Registry holds the parsed tables in foreign key dependency order.
type Registry struct {
	order    []*Table
	tables   map[string]*Table
	children map[string][]*ForeignKey
}

var canonical = sync.OnceValues(func() (*Registry, error) {
	return Build(models.All()...)
})

// Canonical returns the registry for the Prompterly data model.
func Canonical() (*Registry, error) {
	return canonical()
}

// Build parses each model and validates the resulting set.
func Build(defs ...any) (*Registry, error) {
	if len(defs) == 0 {
		return nil, errors.New("at least one model is required")
	}
	cache := &sync.Map{}
	namer := gschema.NamingStrategy{}
	r := &Registry{
		tables:   make(map[string]*Table, len(defs)),
		children: make(map[string][]*ForeignKey),
	}
	declared := make([]*Table, 0, len(defs))
	for _, m := range defs {
		s, err := gschema.Parse(m, cache, namer)
		if err != nil {
			return nil, fmt.Errorf("parse %T: %w", m, err)
		}
		if _, dup := r.tables[s.Table]; dup {
			return nil, &ConfigError{Table: s.Table, Reason: "declared twice"}
		}
		t, err := buildTable(m, s)
		if err != nil {
			return nil, err
		}
		r.tables[t.Name] = t
		declared = append(declared, t)
	}
	for _, t := range declared {
		for _, fk := range t.ForeignKeys {
			if _, ok := r.tables[fk.ParentTable]; !ok {
				return nil, &ConfigError{Table: t.Name, Column: fk.Column, Reason: "references unregistered table " + fk.ParentTable}
			}
			r.children[fk.ParentTable] = append(r.children[fk.ParentTable], fk)
		}
	}
	order, err := sortTables(declared)
	if err != nil {
		return nil, err
	}
	r.order = order
	return r, nil
}

func buildTable(model any, s *gschema.Schema) (*Table, error) {
	t := &Table{
		Name:    s.Table,
		Model:   s.Name,
		columns: make(map[string]*Column),
		fields:  make(map[string]*Column),
		parsed:  s,
	}
	if _, ok := model.(models.AppendOnly); ok {
		t.AppendOnly = true
	}
	if s.PrioritizedPrimaryField != nil {
		t.PrimaryKey = s.PrioritizedPrimaryField.DBName
	}

	checks := make(map[string]gschema.CheckConstraint)
	for name, chk := range s.ParseCheckConstraints() {
		chk.Name = name
		checks[chk.Field.DBName] = chk
	}

	for _, f := range s.Fields {
		if f.DBName == "" {
			continue
		}
		c := &Column{
			Name:          f.DBName,
			Field:         f.Name,
			Type:          columnType(f),
			Size:          f.Size,
			Nullable:      !f.NotNull && !f.PrimaryKey,
			PrimaryKey:    f.PrimaryKey,
			AutoIncrement: f.AutoIncrement,
			Unique:        f.Unique,
			HasDefault:    f.HasDefaultValue && f.DefaultValue != "",
			Default:       f.DefaultValue,
			Enum:          enumValues(f.FieldType),
		}
		if chk, ok := checks[f.DBName]; ok {
			c.Check = chk.Constraint
		}
		t.Columns = append(t.Columns, c)
		t.columns[c.Name] = c
		t.fields[c.Field] = c
	}

	for _, idx := range s.ParseIndexes() {
		ix := Index{Name: idx.Name, Unique: idx.Class == "UNIQUE"}
		for _, opt := range idx.Fields {
			ix.Columns = append(ix.Columns, opt.DBName)
		}
		t.Indexes = append(t.Indexes, ix)
	}
	sort.Slice(t.Indexes, func(i, j int) bool { return t.Indexes[i].Name < t.Indexes[j].Name })

	edges := make(map[string]*ForeignKey)
	names := make([]string, 0, len(s.Relationships.Relations))
	for name := range s.Relationships.Relations {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rel := s.Relationships.Relations[name]
		if rel.Type != gschema.BelongsTo {
			continue
		}
		con := rel.ParseConstraint()
		if con == nil || con.Schema != s || len(con.ForeignKeys) != 1 {
			continue
		}
		fk := &ForeignKey{
			Name:         con.Name,
			Table:        t.Name,
			Column:       con.ForeignKeys[0].DBName,
			ParentTable:  con.ReferenceSchema.Table,
			ParentColumn: con.References[0].DBName,
			OnDelete:     normalizeRule(con.OnDelete),
			OnUpdate:     normalizeRule(con.OnUpdate),
		}
		key := fk.Column + "->" + fk.ParentTable
		if prev, ok := edges[key]; ok {
			if prev.OnDelete != fk.OnDelete {
				return nil, &ConfigError{Table: t.Name, Column: fk.Column, Reason: fmt.Sprintf("conflicting delete rules %q and %q for %s", prev.OnDelete, fk.OnDelete, fk)}
			}
			continue
		}
		if fk.OnDelete == SetNull {
			if col := t.columns[fk.Column]; col != nil && !col.Nullable {
				return nil, &ConfigError{Table: t.Name, Column: fk.Column, Reason: "SET NULL delete rule on a NOT NULL column"}
			}
		}
		edges[key] = fk
		t.ForeignKeys = append(t.ForeignKeys, fk)
	}
	return t, nil
}

func normalizeRule(rule string) string {
	rule = strings.ToUpper(strings.Join(strings.Fields(rule), " "))
	if rule == "" {
		return NoAction
	}
	return rule
}

func columnType(f *gschema.Field) ColumnType {
	if strings.Contains(strings.ToLower(string(f.DataType)), "json") {
		return TypeJSON
	}
	switch f.DataType {
	case gschema.Bool:
		return TypeBool
	case gschema.Int, gschema.Uint:
		return TypeInt
	case gschema.Float:
		return TypeFloat
	case gschema.Time:
		return TypeTime
	case gschema.Bytes:
		return TypeBytes
	case gschema.String:
		if strings.EqualFold(f.TagSettings["TYPE"], "text") {
			return TypeText
		}
		return TypeString
	}
	return TypeString
}

var enumType = reflect.TypeOf((*Enumerated)(nil)).Elem()

func enumValues(t reflect.Type) []string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.String || !t.Implements(enumType) {
		return nil
	}
	return reflect.Zero(t).Interface().(Enumerated).Values()
}

// sortTables orders tables parents first, keeping declaration order among peers.
// Self references do not count as dependencies.
func sortTables(declared []*Table) ([]*Table, error) {
	placed := make(map[string]bool, len(declared))
	order := make([]*Table, 0, len(declared))
	for len(order) < len(declared) {
		progressed := false
		for _, t := range declared {
			if placed[t.Name] || !ready(t, placed) {
				continue
			}
			placed[t.Name] = true
			order = append(order, t)
			progressed = true
		}
		if !progressed {
			var stuck []string
			for _, t := range declared {
				if !placed[t.Name] {
					stuck = append(stuck, t.Name)
				}
			}
			return nil, &ConfigError{Reason: "foreign key cycle between " + strings.Join(stuck, ", ")}
		}
	}
	return order, nil
}

func ready(t *Table, placed map[string]bool) bool {
	for _, fk := range t.ForeignKeys {
		if fk.ParentTable != t.Name && !placed[fk.ParentTable] {
			return false
		}
	}
	return true
}

// Tables returns every table, parents before children.
func (r *Registry) Tables() []*Table {
	out := make([]*Table, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) TableNames() []string {
	out := make([]string, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, t.Name)
	}
	return out
}

func (r *Registry) Table(name string) (*Table, bool) {
	t, ok := r.tables[name]
	return t, ok
}

// ForeignKeysTo returns the foreign keys whose parent is the given table.
func (r *Registry) ForeignKeysTo(parent string) []*ForeignKey {
	return append([]*ForeignKey(nil), r.children[parent]...)
}

// EnumFor returns the allowed values of an enumerated column.
func (r *Registry) EnumFor(table, column string) ([]string, bool) {
	t, ok := r.tables[table]
	if !ok {
		return nil, false
	}
	c, ok := t.Column(column)
	if !ok || c.Enum == nil {
		return nil, false
	}
	return c.Enum, true
}
