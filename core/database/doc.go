// Package database handles database connections and schema inspection.
//
// It wraps GORM to configure MySQL (production) or SQLite (tests, local demos)
// connections based on the application's configuration. The reference players
// backend is its only consumer.
//
// # Schema Inspection
//
// Columns and MissingColumns let the backend verify at startup that the
// players table carries every column the wire contract needs.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "players", "id", "name", "age")
package database
