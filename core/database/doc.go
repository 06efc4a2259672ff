// Package database handles database connections and schema inspection.
//
// It wraps GORM to configure MySQL (production) or sqlite (local runs and tests) connections from
// the application's configuration. When tracing is enabled the otelgorm plugin is installed so
// synchronization spans include their SQL.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns let the `migrate --check` command verify that the ticketing
// tables carry every column the store writes, without migrating anything.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
