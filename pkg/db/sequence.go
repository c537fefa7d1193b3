package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// AdvanceSequence moves the identity counter of table past its largest id so that
// rows inserted with explicit ids do not collide with later generated ones.
func AdvanceSequence(ctx context.Context, gdb *gorm.DB, table string) error {
	var maxID int64
	q := fmt.Sprintf("SELECT COALESCE(MAX(id), 0) FROM %s", gdb.Statement.Quote(table))
	if err := Get(ctx, gdb, &maxID, q); err != nil {
		return fmt.Errorf("max id of %s: %w", table, err)
	}
	if maxID == 0 {
		return nil
	}

	tx := gdb.WithContext(ctx)
	var err error
	switch DriverOf(gdb) {
	case Postgres:
		err = tx.Exec("SELECT setval(pg_get_serial_sequence(?, 'id'), ?)", table, maxID).Error
	case MySQL:
		err = tx.Exec(fmt.Sprintf("ALTER TABLE %s AUTO_INCREMENT = %d", gdb.Statement.Quote(table), maxID+1)).Error
	case SQLite:
		err = tx.Exec("UPDATE sqlite_sequence SET seq = ? WHERE name = ? AND seq < ?", maxID, table, maxID).Error
	}
	if err != nil {
		return fmt.Errorf("advance sequence of %s: %w", table, err)
	}
	return nil
}
