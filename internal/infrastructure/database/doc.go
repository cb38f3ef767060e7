// Package database provides SQLite connectivity for ledd.
//
// This package manages:
//   - Database connection with WAL mode
//   - Embedded schema migrations (see the migrations package)
//   - Connection lifecycle and health checks
//
// The database holds the device-number reservations made while the
// endpoint is live and the LED event history. It never stores the output
// level for restoration; the LED always starts OFF.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
