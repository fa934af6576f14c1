package upload

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"sync"

	"github.com/pingcap-inc/dwloader/config"
	"github.com/pingcap-inc/dwloader/pkg/errs"
	"github.com/pingcap-inc/dwloader/pkg/metrics"
	"github.com/pingcap-inc/dwloader/pkg/objstore"
	"github.com/pingcap-inc/dwloader/pkg/tabular"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// ObjectStore is the object storage the coordinator uploads to.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) error
	// Upload calls onSent with the size of each chunk once the store has
	// acknowledged it.
	Upload(ctx context.Context, bucket, key string, body io.Reader, onSent func(n int64)) (string, error)
}

// ObjectStoreFactory builds an ObjectStore for the s3 config of one job.
type ObjectStoreFactory func(cfg config.S3Cfg) (ObjectStore, error)

// NewS3ObjectStore is the ObjectStoreFactory backed by AWS S3.
func NewS3ObjectStore(cfg config.S3Cfg) (ObjectStore, error) {
	client, err := objstore.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Coordinator runs upload jobs in the background, one at a time. A start
// request while a job is active is rejected with ErrUploadInProgress.
type Coordinator struct {
	cfg      *config.Store
	newStore ObjectStoreFactory
	metrics  *metrics.Metrics

	// slot holds a token while a job is active.
	slot    chan struct{}
	current atomic.Pointer[Job]
	wg      sync.WaitGroup
}

func NewCoordinator(cfg *config.Store, newStore ObjectStoreFactory, m *metrics.Metrics) *Coordinator {
	return &Coordinator{
		cfg:      cfg,
		newStore: newStore,
		metrics:  m,
		slot:     make(chan struct{}, 1),
	}
}

func (c *Coordinator) tryAcquire() bool {
	select {
	case c.slot <- struct{}{}:
		return true
	default:
		return false
	}
}

func (c *Coordinator) release() {
	<-c.slot
}

// StartUpload validates the destination and starts uploading path in the
// background. size is the declared number of bytes; a converted spreadsheet
// re-declares it from the csv it produces. On rejection no job is created and
// the previous job stays readable.
func (c *Coordinator) StartUpload(ctx context.Context, path string, size int64) (*Job, error) {
	cfg := c.cfg.Snapshot()
	if err := cfg.ValidateS3(); err != nil {
		return nil, err
	}
	if !c.tryAcquire() {
		active := ""
		if cur := c.current.Load(); cur != nil {
			active = cur.ID
		}
		log.Warn("Rejected upload, another job is active", zap.String("file", path), zap.String("active", active))
		return nil, errs.New(errs.KindCapacity, "start upload", errs.ErrUploadInProgress)
	}
	started := false
	defer func() {
		if !started {
			c.release()
		}
	}()

	store, err := c.newStore(cfg.S3)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := store.BucketExists(ctx, cfg.S3.Bucket); err != nil {
		log.Error("Bucket does not exist", zap.String("bucket", cfg.S3.Bucket), zap.Error(err))
		c.metrics.Error("probe")
		return nil, err
	}

	job := newJob(path, size)
	c.current.Store(job)
	c.metrics.SetProgress(0)
	c.wg.Add(1)
	started = true
	go c.run(job, store, cfg)

	log.Info("Started upload", zap.String("job", job.ID), zap.String("file", path), zap.Int64("size", size))
	return job, nil
}

func (c *Coordinator) run(job *Job, store ObjectStore, cfg config.Config) {
	logger := log.L().With(zap.String("job", job.ID), zap.String("file", job.SourcePath))
	defer c.wg.Done()
	defer c.release()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Upload job panicked", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			c.fail(job, logger, errors.Errorf("upload job panicked: %v", r))
		}
	}()

	if err := c.upload(context.Background(), job, store, cfg, logger); err != nil {
		c.fail(job, logger, err)
		return
	}
	job.setStatus(StatusCompleted)
	c.metrics.JobFinished(StatusCompleted.String())
	logger.Info("Upload completed", zap.String("destination", job.Destination()), zap.Int64("bytes", job.progress.Sent()))
}

func (c *Coordinator) upload(ctx context.Context, job *Job, store ObjectStore, cfg config.Config, logger *zap.Logger) error {
	path := job.SourcePath
	converted := false
	if tabular.KindOf(path) == tabular.KindSpreadsheet {
		job.setStatus(StatusConverting)
		res, err := tabular.Normalize(path, cfg.ScratchDir)
		if err != nil {
			return err
		}
		path, converted = res.Path, res.Converted
		fi, err := os.Stat(path)
		if err != nil {
			return errors.Annotatef(err, "stat converted file %s", path)
		}
		job.progress.Declare(fi.Size())
	}

	locator := objstore.NewLocator(cfg.S3)
	key := locator.Key(path)
	job.destination.Store(locator.URI(key))

	f, err := os.Open(path)
	if err != nil {
		return errors.Annotatef(err, "open %s", path)
	}
	defer f.Close()

	job.setStatus(StatusUploading)
	location, err := store.Upload(ctx, cfg.S3.Bucket, key, f, func(n int64) {
		job.progress.Record(n)
		c.metrics.BytesUploaded(n)
		c.metrics.SetProgress(job.progress.Read())
	})
	if err != nil {
		return err
	}
	logger.Info("Uploaded file", zap.String("location", location), zap.String("destination", job.Destination()))

	if converted {
		f.Close()
		if err := os.Remove(path); err != nil {
			logger.Warn("Failed to remove converted file", zap.String("csv", path), zap.Error(err))
		}
	}
	return nil
}

func (c *Coordinator) fail(job *Job, logger *zap.Logger, err error) {
	job.failure.Store(err)
	job.setStatus(StatusFailed)
	c.metrics.JobFinished(StatusFailed.String())
	c.metrics.Error("upload")
	logger.Error("Upload failed", zap.Stringer("kind", errs.KindOf(err)), zap.Error(err))
}

// Current returns the most recently started job, nil before the first one.
func (c *Coordinator) Current() *Job {
	return c.current.Load()
}

// Job looks up a job by handle. Only the most recent job is retained.
func (c *Coordinator) Job(id string) (*Job, error) {
	job := c.current.Load()
	if job == nil || job.ID != id {
		return nil, errs.Wrap(errs.KindNotFound, "read progress", errs.ErrJobNotFound, errors.Errorf("job %q", id))
	}
	return job, nil
}

// ReadProgress returns the percent-complete of job id. An empty id reads the
// most recent job, and 0 when there is none.
func (c *Coordinator) ReadProgress(id string) (int, error) {
	if id == "" {
		if job := c.current.Load(); job != nil {
			return job.Progress(), nil
		}
		return 0, nil
	}
	job, err := c.Job(id)
	if err != nil {
		return 0, err
	}
	return job.Progress(), nil
}

// Wait blocks until the active job, if any, finishes.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}
