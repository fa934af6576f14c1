package redshiftsql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pingcap-inc/dwloader/config"
	"github.com/pingcap-inc/dwloader/pkg/errs"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

type RedshiftConfig struct {
	Host     string
	Port     int
	User     string
	Pass     string
	Database string
	SSLMode  string
}

func NewRedshiftConfig(cfg config.RedshiftCfg) *RedshiftConfig {
	return &RedshiftConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Pass:     cfg.Password,
		Database: cfg.Database,
		SSLMode:  cfg.SSLMode,
	}
}

// DSN renders the key/value connection string understood by lib/pq.
func (config *RedshiftConfig) DSN() string {
	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dsnValue(config.Host), config.Port, dsnValue(config.User), dsnValue(config.Pass),
		dsnValue(config.Database), dsnValue(sslMode))
}

func dsnValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// OpenDB opens a single-connection handle to Redshift. Server notices raised
// on the connection are passed to onNotice when it is not nil.
func (config *RedshiftConfig) OpenDB(ctx context.Context, onNotice func(string)) (*sql.DB, error) {
	base, err := pq.NewConnector(config.DSN())
	if err != nil {
		return nil, errs.New(errs.KindConfiguration, "open redshift",
			errors.Annotate(err, "Failed to parse Redshift connection parameters"))
	}
	var connector driver.Connector = base
	if onNotice != nil {
		connector = pq.ConnectorWithNoticeHandler(base, func(notice *pq.Error) {
			onNotice(notice.Message)
		})
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(1)
	// make sure the connection is available
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errs.New(errs.KindConfiguration, "open redshift",
			errors.Annotate(err, "Failed to ping Redshift"))
	}
	log.Info("Redshift connection established", zap.String("host", config.Host), zap.String("database", config.Database))
	return db, nil
}
