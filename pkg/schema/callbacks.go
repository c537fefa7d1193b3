package schema

import (
	"errors"
	"reflect"

	"gorm.io/gorm"
)

const callbackPrefix = "prompterly:"

// Register installs the registry rules as gorm callbacks on db:
// enum domains are checked before create and update, append-only tables reject
// update and delete, and store errors are translated after every write.
func (r *Registry) Register(db *gorm.DB) error {
	if db == nil {
		return errors.New("db is required")
	}
	cb := db.Callback()
	steps := []struct {
		name string
		err  error
	}{
		{"enum_create", cb.Create().Before("gorm:create").Register(callbackPrefix+"enum_create", r.checkEnums(false))},
		{"enum_update", cb.Update().Before("gorm:update").Register(callbackPrefix+"enum_update", r.checkEnums(true))},
		{"append_only_update", cb.Update().Before("gorm:update").Register(callbackPrefix+"append_only_update", r.rejectAppendOnly)},
		{"append_only_delete", cb.Delete().Before("gorm:delete").Register(callbackPrefix+"append_only_delete", r.rejectAppendOnly)},
		{"translate_create", cb.Create().After("gorm:create").Register(callbackPrefix+"translate_create", translateCallback)},
		{"translate_update", cb.Update().After("gorm:update").Register(callbackPrefix+"translate_update", translateCallback)},
		{"translate_delete", cb.Delete().After("gorm:delete").Register(callbackPrefix+"translate_delete", translateCallback)},
		{"translate_raw", cb.Raw().After("gorm:raw").Register(callbackPrefix+"translate_raw", translateCallback)},
	}
	for _, s := range steps {
		if s.err != nil {
			return s.err
		}
	}
	return nil
}

func (r *Registry) tableFor(db *gorm.DB) *Table {
	name := db.Statement.Table
	if name == "" && db.Statement.Schema != nil {
		name = db.Statement.Schema.Table
	}
	t, ok := r.tables[name]
	if !ok {
		return nil
	}
	return t
}

func (r *Registry) checkEnums(update bool) func(*gorm.DB) {
	return func(db *gorm.DB) {
		if db.Error != nil || db.Statement.Dest == nil {
			return
		}
		t := r.tableFor(db)
		if t == nil {
			return
		}
		if v := validateDest(db, t, reflect.ValueOf(db.Statement.Dest), update); v != nil {
			_ = db.AddError(v)
		}
	}
}

func validateDest(db *gorm.DB, t *Table, rv reflect.Value, update bool) *ConstraintViolation {
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		iter := rv.MapRange()
		for iter.Next() {
			c, ok := t.Column(iter.Key().String())
			if !ok || c.Enum == nil {
				continue
			}
			if v := checkValue(t, c, iter.Value(), false); v != nil {
				return v
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if v := validateDest(db, t, rv.Index(i), update); v != nil {
				return v
			}
		}
	case reflect.Struct:
		s := db.Statement.Schema
		if s == nil || s.ModelType != rv.Type() {
			return nil
		}
		for _, c := range t.Columns {
			if c.Enum == nil {
				continue
			}
			f := s.LookUpField(c.Name)
			if f == nil {
				continue
			}
			val, zero := f.ValueOf(db.Statement.Context, rv)
			if zero && (update || c.HasDefault) {
				continue
			}
			if v := checkValue(t, c, reflect.ValueOf(val), zero && c.Nullable); v != nil {
				return v
			}
		}
	}
	return nil
}

// checkValue validates one candidate value. Nil pointers pass when the column is
// nullable; non-string values such as SQL expressions are left to the store.
func checkValue(t *Table, c *Column, v reflect.Value, allowEmpty bool) *ConstraintViolation {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			if c.Nullable {
				return nil
			}
			return &ConstraintViolation{Kind: KindEnum, Table: t.Name, Column: c.Name, Allowed: c.Enum}
		}
		v = v.Elem()
	}
	if !v.IsValid() || v.Kind() != reflect.String {
		return nil
	}
	s := v.String()
	if s == "" && allowEmpty {
		return nil
	}
	for _, allowed := range c.Enum {
		if s == allowed {
			return nil
		}
	}
	return &ConstraintViolation{Kind: KindEnum, Table: t.Name, Column: c.Name, Value: s, Allowed: c.Enum}
}

func (r *Registry) rejectAppendOnly(db *gorm.DB) {
	if db.Error != nil {
		return
	}
	if t := r.tableFor(db); t != nil && t.AppendOnly {
		_ = db.AddError(&ConstraintViolation{Kind: KindAppendOnly, Table: t.Name})
	}
}

func translateCallback(db *gorm.DB) {
	if db.Error != nil {
		db.Error = TranslateError(db.Error)
	}
}
