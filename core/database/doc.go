// Package database opens the local database through GORM.
//
// sqlite is the default driver and keeps the whole local store in one file;
// mysql is supported for shared deployments. Tests use sqlite with the
// ":memory:" name.
//
// # Schema Inspection
//
// GetTableColumns lists the columns of a table for both dialects. The
// integrity checks use it to verify the local store schema.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    return err
//	}
//
//	columns, err := database.GetTableColumns(db, "log_records")
package database
