package redshiftsql

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/pingcap-inc/dwloader/pkg/coreinterfaces"
	"github.com/pingcap-inc/dwloader/pkg/errs"
	"github.com/pingcap-inc/dwloader/pkg/metrics"
	"github.com/pingcap-inc/dwloader/pkg/objstore"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// DBOpener opens a connection for a single operation. Notices raised by the
// server on that connection are passed to onNotice.
type DBOpener func(ctx context.Context, onNotice func(string)) (*sql.DB, error)

// RedshiftConnector runs existence checks, table creation and bulk loads.
// Each call opens and closes its own connection.
type RedshiftConnector struct {
	openDB      DBOpener
	locator     objstore.Locator
	credentials *credentials.Credentials
	metrics     *metrics.Metrics
}

var _ coreinterfaces.Connector = (*RedshiftConnector)(nil)

func NewRedshiftConnector(rsConfig coreinterfaces.Config, locator objstore.Locator, creds *credentials.Credentials, m *metrics.Metrics) *RedshiftConnector {
	return NewRedshiftConnectorWithOpener(rsConfig.OpenDB, locator, creds, m)
}

func NewRedshiftConnectorWithOpener(openDB DBOpener, locator objstore.Locator, creds *credentials.Credentials, m *metrics.Metrics) *RedshiftConnector {
	return &RedshiftConnector{
		openDB:      openDB,
		locator:     locator,
		credentials: creds,
		metrics:     m,
	}
}

// CheckExistence reports whether tableFQN, given as schema.table, exists.
// Names are matched in their catalog form, see CatalogName.
func (rc *RedshiftConnector) CheckExistence(ctx context.Context, tableFQN string) (bool, int, error) {
	table, err := ParseQualifiedTableName(tableFQN)
	if err != nil {
		return false, 0, err
	}
	db, err := rc.openDB(ctx, nil)
	if err != nil {
		rc.metrics.Error("check")
		return false, 0, errors.Trace(err)
	}
	defer db.Close()

	var count int
	schema, name := table.CatalogName()
	row := db.QueryRowContext(ctx, tableExistsQuery, schema, name)
	if err := row.Scan(&count); err != nil {
		rc.metrics.Error("check")
		return false, 0, errs.SQL("check existence", tableExistsQuery, err)
	}
	rc.metrics.StatementExecuted("check")
	log.Info("Checked table existence", zap.String("table", tableFQN), zap.Int("count", count))
	return count > 0, count, nil
}

// CreateTable executes a CREATE TABLE statement and commits it.
func (rc *RedshiftConnector) CreateTable(ctx context.Context, ddl string) error {
	if strings.TrimSpace(ddl) == "" {
		return errs.Newf(errs.KindSchema, "create table", "table definition is empty")
	}
	log.Info("Creating table in Redshift", zap.String("query", ddl))
	if _, err := rc.execInTx(ctx, "create table", ddl); err != nil {
		return err
	}
	rc.metrics.StatementExecuted("create")
	log.Info("Successfully created table")
	return nil
}

// BulkLoad copies the csv object at objectPath into table and returns the
// notices the server raised while loading.
func (rc *RedshiftConnector) BulkLoad(ctx context.Context, table, objectPath string) ([]string, error) {
	if strings.TrimSpace(table) == "" {
		return nil, errs.Newf(errs.KindSchema, "bulk load", "target table is empty")
	}
	credential, err := rc.credentials.GetWithContext(ctx)
	if err != nil {
		return nil, errs.New(errs.KindConfiguration, "bulk load",
			errors.Annotate(err, "Failed to get storage credentials"))
	}
	objectURI := rc.locator.Resolve(objectPath)
	stmt, err := GenCopyStatement(ParseTableName(table), objectURI, credential)
	if err != nil {
		return nil, errs.New(errs.KindSQL, "bulk load", err)
	}
	masked := MaskCredentials(stmt, credential)
	log.Info("Loading data from object store", zap.String("query", masked))

	// The statement carries its own COMMIT, so it must not run inside a
	// database/sql transaction.
	notices, err := rc.execOnConn(ctx, "bulk load", stmt)
	if err != nil {
		if e, ok := err.(*errs.Error); ok {
			e.Statement = masked
		}
		return notices, err
	}
	rc.metrics.StatementExecuted("copy")
	log.Info("Successfully loaded data", zap.String("object", objectURI), zap.Strings("notices", notices))
	return notices, nil
}

type noticeLog struct {
	mu      sync.Mutex
	notices []string
}

func (l *noticeLog) add(msg string) {
	l.mu.Lock()
	l.notices = append(l.notices, msg)
	l.mu.Unlock()
}

func (l *noticeLog) collect() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.notices...)
}

func (rc *RedshiftConnector) execInTx(ctx context.Context, op, stmt string) ([]string, error) {
	var notices noticeLog
	db, err := rc.openDB(ctx, notices.add)
	if err != nil {
		rc.metrics.Error(op)
		return nil, errors.Trace(err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		rc.metrics.Error(op)
		return notices.collect(), errs.SQL(op, stmt, err)
	}
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Warn("Failed to rollback", zap.String("op", op), zap.Error(rbErr))
		}
		rc.metrics.Error(op)
		return notices.collect(), errs.SQL(op, stmt, err)
	}
	if err := tx.Commit(); err != nil {
		rc.metrics.Error(op)
		return notices.collect(), errs.SQL(op, stmt, err)
	}
	return notices.collect(), nil
}

// execOnConn runs stmt in autocommit mode on a single session. Use it for
// statements that manage their own transaction.
func (rc *RedshiftConnector) execOnConn(ctx context.Context, op, stmt string) ([]string, error) {
	var notices noticeLog
	db, err := rc.openDB(ctx, notices.add)
	if err != nil {
		rc.metrics.Error(op)
		return nil, errors.Trace(err)
	}
	defer db.Close()

	conn, err := db.Conn(ctx)
	if err != nil {
		rc.metrics.Error(op)
		return notices.collect(), errs.SQL(op, stmt, err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, stmt); err != nil {
		rc.metrics.Error(op)
		return notices.collect(), errs.SQL(op, stmt, err)
	}
	return notices.collect(), nil
}
