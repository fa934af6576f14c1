package pipeline

import (
	"context"
	"os"

	"github.com/pingcap-inc/dwloader/config"
	"github.com/pingcap-inc/dwloader/pkg/coreinterfaces"
	"github.com/pingcap-inc/dwloader/pkg/errs"
	"github.com/pingcap-inc/dwloader/pkg/metrics"
	"github.com/pingcap-inc/dwloader/pkg/objstore"
	"github.com/pingcap-inc/dwloader/pkg/redshiftsql"
	"github.com/pingcap-inc/dwloader/pkg/schemainfer"
	"github.com/pingcap-inc/dwloader/pkg/upload"
	"github.com/pingcap/errors"
)

// ConnectorFactory builds a warehouse connector from the config current at
// the time of the call.
type ConnectorFactory func(cfg config.Config, m *metrics.Metrics) (coreinterfaces.Connector, error)

// NewRedshiftConnector is the ConnectorFactory for Amazon Redshift.
func NewRedshiftConnector(cfg config.Config, m *metrics.Metrics) (coreinterfaces.Connector, error) {
	if err := cfg.ValidateRedshift(); err != nil {
		return nil, err
	}
	creds, err := objstore.CopyCredentials(cfg.S3)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return redshiftsql.NewRedshiftConnector(
		redshiftsql.NewRedshiftConfig(cfg.Redshift),
		objstore.NewLocator(cfg.S3),
		creds,
		m,
	), nil
}

// Pipeline exposes the file to warehouse operations over one config store.
type Pipeline struct {
	cfg          *config.Store
	uploads      *upload.Coordinator
	newConnector ConnectorFactory
	metrics      *metrics.Metrics
}

func New(cfg *config.Store, uploads *upload.Coordinator, newConnector ConnectorFactory, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		cfg:          cfg,
		uploads:      uploads,
		newConnector: newConnector,
		metrics:      m,
	}
}

// NewDefault wires the pipeline to S3 and Redshift.
func NewDefault(cfg *config.Store, m *metrics.Metrics) *Pipeline {
	return New(cfg, upload.NewCoordinator(cfg, upload.NewS3ObjectStore, m), NewRedshiftConnector, m)
}

// Upload starts uploading the local file at path, declaring its current size.
func (p *Pipeline) Upload(ctx context.Context, path string) (*upload.Job, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, errs.New(errs.KindSchema, "start upload", errors.Annotatef(err, "stat %s", path))
	}
	if fi.IsDir() {
		return nil, errs.Newf(errs.KindSchema, "start upload", "%s is a directory", path)
	}
	return p.uploads.StartUpload(ctx, path, fi.Size())
}

// Progress reads the job identified by id, or the most recent job when id is
// empty. With no job yet it reports a zero, pending job.
func (p *Pipeline) Progress(id string) (upload.JobInfo, error) {
	if id == "" {
		job := p.uploads.Current()
		if job == nil {
			return upload.JobInfo{Status: upload.StatusPending.String()}, nil
		}
		return job.Info(), nil
	}
	job, err := p.uploads.Job(id)
	if err != nil {
		return upload.JobInfo{}, err
	}
	return job.Info(), nil
}

// InferSchema proposes the DDL for loading path into tableName.
func (p *Pipeline) InferSchema(path, tableName string) (string, error) {
	return schemainfer.InferSchema(path, tableName)
}

func (p *Pipeline) CheckExistence(ctx context.Context, tableFQN string) (bool, int, error) {
	conn, err := p.connector()
	if err != nil {
		return false, 0, err
	}
	return conn.CheckExistence(ctx, tableFQN)
}

func (p *Pipeline) CreateTable(ctx context.Context, ddl string) error {
	conn, err := p.connector()
	if err != nil {
		return err
	}
	return conn.CreateTable(ctx, ddl)
}

func (p *Pipeline) BulkLoad(ctx context.Context, table, objectPath string) ([]string, error) {
	conn, err := p.connector()
	if err != nil {
		return nil, err
	}
	return conn.BulkLoad(ctx, table, objectPath)
}

// ConfigJSON returns the current config as JSON, secrets included.
func (p *Pipeline) ConfigJSON() ([]byte, error) {
	return p.cfg.JSON()
}

func (p *Pipeline) SaveConfig(raw []byte) error {
	return p.cfg.Save(raw)
}

// Wait blocks until the running upload, if any, has finished.
func (p *Pipeline) Wait() {
	p.uploads.Wait()
}

func (p *Pipeline) connector() (coreinterfaces.Connector, error) {
	return p.newConnector(p.cfg.Snapshot(), p.metrics)
}
