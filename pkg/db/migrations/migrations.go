// Package migrations declares the ordered schema history of the Prompterly
// store. Each file registers one version; applying all of them in order yields
// the schema described by pkg/models.
package migrations

import (
	"sort"

	"prompterly/pkg/db/migrate"
)

var registered []migrate.Migration

func register(m migrate.Migration) {
	registered = append(registered, m)
}

// All returns the declared history in version order.
func All() []migrate.Migration {
	out := append([]migrate.Migration(nil), registered...)
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}

// Latest is the highest declared version.
func Latest() int64 {
	all := All()
	if len(all) == 0 {
		return 0
	}
	return all[len(all)-1].Version
}

func cascade(table string) *migrate.Reference {
	return &migrate.Reference{Table: table, OnDelete: "CASCADE"}
}

func setNull(table string) *migrate.Reference {
	return &migrate.Reference{Table: table, OnDelete: "SET NULL"}
}
