package render

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"prompterly/pkg/schema"
)

const schemaTemplate = "schema.md.tmpl"

// SchemaDoc is the serialisable view of a registry used by schema dumps.
type SchemaDoc struct {
	Version   int64      `yaml:"version,omitempty"`
	Migration string     `yaml:"migration,omitempty"`
	Tables    []TableDoc `yaml:"tables"`
}

type TableDoc struct {
	Name          string      `yaml:"name"`
	AppendOnly    bool        `yaml:"append_only,omitempty"`
	Columns       []ColumnDoc `yaml:"columns"`
	ForeignKeys   []RefDoc    `yaml:"foreign_keys,omitempty"`
	CompositeKeys [][]string  `yaml:"composite_unique,omitempty,flow"`
}

type ColumnDoc struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Nullable bool     `yaml:"nullable,omitempty"`
	Default  string   `yaml:"default,omitempty"`
	Enum     []string `yaml:"enum,omitempty,flow"`
	Check    string   `yaml:"check,omitempty"`
	Notes    []string `yaml:"-"`
}

type RefDoc struct {
	Column     string `yaml:"column"`
	References string `yaml:"references"`
	OnDelete   string `yaml:"on_delete"`
}

// Describe flattens the registry into a SchemaDoc. Tables keep dependency order.
func Describe(reg *schema.Registry) SchemaDoc {
	var doc SchemaDoc
	for _, t := range reg.Tables() {
		td := TableDoc{Name: t.Name, AppendOnly: t.AppendOnly}
		for _, c := range t.Columns {
			td.Columns = append(td.Columns, describeColumn(c))
		}
		for _, fk := range t.ForeignKeys {
			td.ForeignKeys = append(td.ForeignKeys, RefDoc{
				Column:     fk.Column,
				References: fk.ParentTable + "." + fk.ParentColumn,
				OnDelete:   onDelete(fk.OnDelete),
			})
		}
		for _, key := range t.UniqueKeys() {
			if len(key) > 1 {
				td.CompositeKeys = append(td.CompositeKeys, key)
			}
		}
		doc.Tables = append(doc.Tables, td)
	}
	return doc
}

func describeColumn(c *schema.Column) ColumnDoc {
	typ := string(c.Type)
	if c.Size > 0 {
		typ = fmt.Sprintf("%s(%d)", typ, c.Size)
	}
	cd := ColumnDoc{
		Name:     c.Name,
		Type:     typ,
		Nullable: c.Nullable,
		Default:  c.Default,
		Enum:     c.Enum,
		Check:    c.Check,
	}
	if c.PrimaryKey {
		cd.Notes = append(cd.Notes, "primary key")
	}
	if c.Unique {
		cd.Notes = append(cd.Notes, "unique")
	}
	if len(c.Enum) > 0 {
		cd.Notes = append(cd.Notes, "one of "+strings.Join(c.Enum, "|"))
	}
	if c.Check != "" {
		cd.Notes = append(cd.Notes, "check "+c.Check)
	}
	return cd
}

func onDelete(rule string) string {
	if rule == "" {
		return strings.ToLower(schema.NoAction)
	}
	return strings.ToLower(rule)
}

// Markdown renders the document through the embedded schema template.
func (e *Engine) Markdown(doc SchemaDoc) (string, error) {
	return e.Render(schemaTemplate, doc)
}

// YAML renders the document as YAML.
func YAML(doc SchemaDoc) ([]byte, error) {
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return out, nil
}
