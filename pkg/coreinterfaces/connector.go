package coreinterfaces

import "context"

/// Connector is the interface for Data Warehouse connector
/// Every operation opens and closes its own connection, nothing is shared
/// between calls.
/// Any data warehouse should implement this interface.

type Connector interface {
	// CheckExistence reports whether a schema-qualified table exists and how
	// many catalog rows matched
	CheckExistence(ctx context.Context, tableFQN string) (bool, int, error)
	// CreateTable executes the given DDL and commits it
	CreateTable(ctx context.Context, ddl string) error
	// BulkLoad copies an uploaded object into the table and returns the
	// notices raised by the warehouse
	BulkLoad(ctx context.Context, table, objectPath string) ([]string, error)
}
