package migrate

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"prompterly/pkg/schema"
)

// Drift lists the differences between a registry table and the live store.
type Drift struct {
	Table        string
	MissingTable bool
	Missing      []string
	Extra        []string
}

// CheckDrift compares every registry table with the live catalog. An empty
// result means the store matches the registry column for column.
func CheckDrift(ctx context.Context, gdb *gorm.DB, reg *schema.Registry) ([]Drift, error) {
	var out []Drift
	m := gdb.WithContext(ctx).Migrator()
	for _, tbl := range reg.Tables() {
		if !m.HasTable(tbl.Name) {
			out = append(out, Drift{Table: tbl.Name, MissingTable: true})
			continue
		}
		live, err := Columns(ctx, gdb, tbl.Name)
		if err != nil {
			return nil, err
		}
		d := diffColumns(tbl.Name, tbl.ColumnNames(), live)
		if len(d.Missing) > 0 || len(d.Extra) > 0 {
			out = append(out, d)
		}
	}
	return out, nil
}

func diffColumns(table string, declared, live []string) Drift {
	d := Drift{Table: table}
	have := make(map[string]bool, len(live))
	for _, c := range live {
		have[c] = true
	}
	want := make(map[string]bool, len(declared))
	for _, c := range declared {
		want[c] = true
		if !have[c] {
			d.Missing = append(d.Missing, c)
		}
	}
	for _, c := range live {
		if !want[c] {
			d.Extra = append(d.Extra, c)
		}
	}
	sort.Strings(d.Missing)
	sort.Strings(d.Extra)
	return d
}
