package objstore

import (
	"context"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/pingcap-inc/dwloader/config"
	"github.com/pingcap-inc/dwloader/pkg/errs"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// Client is the S3 side of the pipeline.
type Client struct {
	svc      s3iface.S3API
	uploader s3manageriface.UploaderAPI
}

// NewSession builds an AWS session from the s3 section of the config.
func NewSession(cfg config.S3Cfg) (*session.Session, error) {
	awsCfg := aws.NewConfig().WithRegion(cfg.Region)
	if cfg.AccessKey != "" {
		awsCfg = awsCfg.WithCredentials(credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""))
	}
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, errs.New(errs.KindConfiguration, "create aws session", errors.Trace(err))
	}
	return sess, nil
}

func NewClient(cfg config.S3Cfg) (*Client, error) {
	sess, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}
	svc := s3.New(sess)
	return NewClientWithAPI(svc, s3manager.NewUploaderWithClient(svc)), nil
}

// NewClientWithAPI wires a Client to existing S3 APIs.
func NewClientWithAPI(svc s3iface.S3API, uploader s3manageriface.UploaderAPI) *Client {
	return &Client{svc: svc, uploader: uploader}
}

// BucketExists probes bucket. Every failure is reported as ErrBucketMissing:
// a configuration error when S3 answered, a transport error otherwise.
func (c *Client) BucketExists(ctx context.Context, bucket string) error {
	if bucket == "" {
		return errs.Wrap(errs.KindConfiguration, "probe bucket", errs.ErrBucketMissing, errors.New("no bucket configured"))
	}
	_, err := c.svc.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return nil
	}
	log.Warn("Bucket probe failed", zap.String("bucket", bucket), zap.Error(err))
	if reqErr, ok := err.(awserr.RequestFailure); ok {
		switch reqErr.StatusCode() {
		case http.StatusNotFound, http.StatusForbidden, http.StatusMovedPermanently:
			return errs.Wrap(errs.KindConfiguration, "probe bucket", errs.ErrBucketMissing, errors.Annotatef(err, "bucket %s", bucket))
		}
	}
	return errs.Wrap(errs.KindTransport, "probe bucket", errs.ErrBucketMissing, errors.Annotatef(err, "bucket %s", bucket))
}

// Upload streams body to bucket/key and returns the object's location.
// onSent, when set, receives the size of every request S3 acknowledged:
// the whole object for a single PUT, one part at a time otherwise.
func (c *Client) Upload(ctx context.Context, bucket, key string, body io.Reader, onSent func(n int64)) (string, error) {
	var opts []func(*s3manager.Uploader)
	if onSent != nil {
		opts = append(opts, s3manager.WithUploaderRequestOptions(acknowledged(onSent)))
	}
	out, err := c.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	}, opts...)
	if err != nil {
		return "", errs.New(errs.KindTransport, "upload", errors.Annotatef(err, "s3://%s/%s", bucket, key))
	}
	return out.Location, nil
}

func acknowledged(onSent func(n int64)) request.Option {
	return func(r *request.Request) {
		r.Handlers.Complete.PushBack(func(r *request.Request) {
			if r.Error != nil || r.HTTPRequest == nil {
				return
			}
			switch r.Params.(type) {
			case *s3.PutObjectInput, *s3.UploadPartInput:
				onSent(r.HTTPRequest.ContentLength)
			}
		})
	}
}
