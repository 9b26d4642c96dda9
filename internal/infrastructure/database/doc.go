// Package database provides SQLite connectivity for the catalogue audit log.
//
// The device catalogue itself is read from a JSON source and never stored
// here; the database only records what happened to it (loads, violation
// counts) so operators can see history across restarts.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{
//	    Path:        cfg.Database.Path,
//	    WALMode:     cfg.Database.WALMode,
//	    BusyTimeout: cfg.Database.BusyTimeout,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are forward-only *.up.sql files applied in version order.
// The matching .down.sql files are kept for manual rollback.
package database
