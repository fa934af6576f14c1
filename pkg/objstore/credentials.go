package objstore

import (
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/aws/aws-sdk-go/service/sts/stsiface"
	"github.com/pingcap-inc/dwloader/config"
	"github.com/pingcap-inc/dwloader/pkg/errs"
	"github.com/pingcap/errors"
)

const (
	tokenRequestDurationSeconds = int64(3600) // 1 hour
	earlyExpireTime             = 5 * time.Minute
)

// TemporaryCredentialsProvider exchanges permanent keys for an STS session
// token, so COPY statements never carry the permanent secret.
type TemporaryCredentialsProvider struct {
	sts        stsiface.STSAPI
	expireTime *time.Time
	now        func() time.Time
}

func NewTemporaryCredentialsProvider(api stsiface.STSAPI) *TemporaryCredentialsProvider {
	return &TemporaryCredentialsProvider{sts: api, now: time.Now}
}

func (tp *TemporaryCredentialsProvider) Retrieve() (credentials.Value, error) {
	durationSeconds := tokenRequestDurationSeconds
	tokenOutput, err := tp.sts.GetSessionToken(&sts.GetSessionTokenInput{
		DurationSeconds: &durationSeconds,
	})
	if err != nil {
		return credentials.Value{}, errors.Annotate(err, "get sts session token")
	}

	tp.expireTime = tokenOutput.Credentials.Expiration
	return credentials.Value{
		AccessKeyID:     aws.StringValue(tokenOutput.Credentials.AccessKeyId),
		SecretAccessKey: aws.StringValue(tokenOutput.Credentials.SecretAccessKey),
		SessionToken:    aws.StringValue(tokenOutput.Credentials.SessionToken),
	}, nil
}

func (tp *TemporaryCredentialsProvider) IsExpired() bool {
	if tp.expireTime == nil {
		return true
	}
	// Token will expire 5 minutes in advance
	// to avoid the token expiring during a load
	return tp.expireTime.Before(tp.now().Add(earlyExpireTime))
}

// CopyCredentials returns the credentials embedded in COPY statements: the
// configured keys, else the AWS environment, optionally traded for STS
// session credentials.
func CopyCredentials(cfg config.S3Cfg) (*credentials.Credentials, error) {
	var base *credentials.Credentials
	if cfg.AccessKey != "" {
		base = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	} else {
		base = credentials.NewEnvCredentials()
	}
	if !cfg.UseTemporaryCredentials {
		return base, nil
	}
	sess, err := session.NewSession(aws.NewConfig().WithRegion(cfg.Region).WithCredentials(base))
	if err != nil {
		return nil, errs.New(errs.KindConfiguration, "create sts session", errors.Trace(err))
	}
	return credentials.NewCredentials(NewTemporaryCredentialsProvider(sts.New(sess))), nil
}
