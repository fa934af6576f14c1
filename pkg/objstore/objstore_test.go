package objstore

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/aws/aws-sdk-go/service/sts/stsiface"
	"github.com/pingcap-inc/dwloader/config"
	"github.com/pingcap-inc/dwloader/pkg/errs"
	"github.com/pingcap/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

type fakeS3 struct {
	s3iface.S3API
	headErr error
	probed  []string
}

func (f *fakeS3) HeadBucketWithContext(_ aws.Context, in *s3.HeadBucketInput, _ ...request.Option) (*s3.HeadBucketOutput, error) {
	f.probed = append(f.probed, aws.StringValue(in.Bucket))
	return &s3.HeadBucketOutput{}, f.headErr
}

type fakeUploader struct {
	body   []byte
	key    string
	bucket string
	err    error
}

func (f *fakeUploader) Upload(in *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	return f.UploadWithContext(context.Background(), in, opts...)
}

func (f *fakeUploader) UploadWithContext(_ aws.Context, in *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body, f.bucket, f.key = data, aws.StringValue(in.Bucket), aws.StringValue(in.Key)
	return &s3manager.UploadOutput{Location: "https://" + f.bucket + ".s3.amazonaws.com/" + f.key}, nil
}

func TestLocator(t *testing.T) {
	l := NewLocator(config.S3Cfg{Bucket: "b", Prefix: "in"})
	require.Equal(t, "in/", l.Prefix)
	require.Equal(t, "in/sales.csv", l.Key("/tmp/x/sales.csv"))
	require.Equal(t, "s3://b/in/sales.csv", l.URI(l.Key("sales.csv")))
	require.Equal(t, "s3://b/in/sales.csv", l.Resolve("/home/u/sales.xlsx"))
	require.Equal(t, "s3://b/in/sales.csv.gz", l.Resolve("sales.csv.gz"))
	require.Equal(t, "s3://other/k.csv", l.Resolve("s3://other/k.csv"))

	bare := NewLocator(config.S3Cfg{Bucket: "b"})
	require.Equal(t, "s3://b/sales.csv", bare.URI(bare.Key("sales.csv")))
}

func TestBucketExists(t *testing.T) {
	ctx := context.Background()
	svc := &fakeS3{}
	c := NewClientWithAPI(svc, &fakeUploader{})
	require.NoError(t, c.BucketExists(ctx, "b"))
	require.Equal(t, []string{"b"}, svc.probed)

	svc.headErr = awserr.NewRequestFailure(awserr.New("NotFound", "Not Found", nil), http.StatusNotFound, "req")
	err := c.BucketExists(ctx, "b")
	require.True(t, errs.Is(err, errs.ErrBucketMissing))
	require.True(t, errs.IsKind(err, errs.KindConfiguration))

	svc.headErr = errors.New("dial tcp: i/o timeout")
	err = c.BucketExists(ctx, "b")
	require.True(t, errs.Is(err, errs.ErrBucketMissing))
	require.True(t, errs.IsKind(err, errs.KindTransport))

	err = c.BucketExists(ctx, "")
	require.True(t, errs.Is(err, errs.ErrBucketMissing))
}

func TestUpload(t *testing.T) {
	up := &fakeUploader{}
	c := NewClientWithAPI(&fakeS3{}, up)
	loc, err := c.Upload(context.Background(), "b", "in/a.csv", bytes.NewReader([]byte("id\n1\n")), nil)
	require.NoError(t, err)
	require.Equal(t, "https://b.s3.amazonaws.com/in/a.csv", loc)
	require.Equal(t, "id\n1\n", string(up.body))

	up.err = awserr.New("AccessDenied", "denied", nil)
	_, err = c.Upload(context.Background(), "b", "in/a.csv", bytes.NewReader(nil), nil)
	require.True(t, errs.IsKind(err, errs.KindTransport))
}

func TestUploadCountsAcknowledgedBytes(t *testing.T) {
	received := make(chan int64, 1)
	release := make(chan struct{})
	unblock := sync.OnceFunc(func() { close(release) })
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n, _ := io.Copy(io.Discard, r.Body)
		if r.Method == http.MethodPut {
			received <- n
			<-release
		}
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer unblock()

	c, err := NewClient(config.S3Cfg{Region: "us-east-1", AccessKey: "ak", SecretKey: "sk", Endpoint: srv.URL})
	require.NoError(t, err)

	body := bytes.Repeat([]byte("id,name\n1,a\n"), 1024)
	var sent atomic.Int64
	done := make(chan error, 1)
	go func() {
		_, err := c.Upload(context.Background(), "b", "in/a.csv", bytes.NewReader(body), func(n int64) { sent.Add(n) })
		done <- err
	}()

	// the server holds the PUT: every byte is read but none is acknowledged
	require.Equal(t, int64(len(body)), <-received)
	require.Zero(t, sent.Load())

	unblock()
	require.NoError(t, <-done)
	require.Equal(t, int64(len(body)), sent.Load())
}

type fakeSTS struct {
	stsiface.STSAPI
	calls  int
	expiry time.Time
}

func (f *fakeSTS) GetSessionToken(in *sts.GetSessionTokenInput) (*sts.GetSessionTokenOutput, error) {
	f.calls++
	return &sts.GetSessionTokenOutput{Credentials: &sts.Credentials{
		AccessKeyId:     aws.String("ASIA"),
		SecretAccessKey: aws.String("tmp-secret"),
		SessionToken:    aws.String("token"),
		Expiration:      aws.Time(f.expiry),
	}}, nil
}

func TestTemporaryCredentialsProvider(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	api := &fakeSTS{expiry: now.Add(time.Hour)}
	tp := NewTemporaryCredentialsProvider(api)
	tp.now = func() time.Time { return now }
	require.True(t, tp.IsExpired())

	v, err := tp.Retrieve()
	require.NoError(t, err)
	require.Equal(t, "ASIA", v.AccessKeyID)
	require.Equal(t, "token", v.SessionToken)
	require.False(t, tp.IsExpired())

	tp.now = func() time.Time { return now.Add(56 * time.Minute) }
	require.True(t, tp.IsExpired())
}

func TestCopyCredentialsStatic(t *testing.T) {
	creds, err := CopyCredentials(config.S3Cfg{AccessKey: "ak", SecretKey: "sk", Region: "us-east-1"})
	require.NoError(t, err)
	v, err := creds.Get()
	require.NoError(t, err)
	require.Equal(t, "ak", v.AccessKeyID)
	require.Equal(t, "sk", v.SecretAccessKey)
	require.Empty(t, v.SessionToken)
}
