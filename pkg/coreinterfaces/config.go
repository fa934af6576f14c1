package coreinterfaces

import (
	"context"
	"database/sql"
)

/// Config is the interface for warehouse connection parameters

type Config interface {
	// OpenDB opens a connection to the database. Server notices raised on the
	// connection are passed to onNotice when it is not nil.
	OpenDB(ctx context.Context, onNotice func(string)) (*sql.DB, error)
}
