package errs_test

import (
	"testing"

	"github.com/pingcap-inc/dwloader/pkg/errs"
	"github.com/pingcap/errors"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	base := errs.New(errs.KindTransport, "upload", errors.New("connection reset"))
	require.Equal(t, errs.KindTransport, errs.KindOf(base))
	require.Equal(t, errs.KindTransport, errs.KindOf(errors.Trace(base)))
	require.Equal(t, errs.KindTransport, errs.KindOf(errors.Annotate(base, "job 1")))
	require.True(t, errs.IsKind(errors.Trace(base), errs.KindTransport))
	require.False(t, errs.IsKind(nil, errs.KindTransport))
	require.Equal(t, errs.KindUnknown, errs.KindOf(errors.New("plain")))
}

func TestSQLError(t *testing.T) {
	err := errs.SQL("create table", "CREATE TABLE x (a INT)", errors.New("syntax error"))
	require.Equal(t, errs.KindSQL, err.Kind)
	require.Contains(t, err.Error(), "syntax error")
	require.Contains(t, err.Error(), "CREATE TABLE x (a INT)")
	require.Equal(t, "sql", errs.KindSQL.String())
}

func TestUnwrapSentinel(t *testing.T) {
	err := errs.New(errs.KindConfiguration, "start upload", errs.ErrBucketMissing)
	require.ErrorIs(t, err, errs.ErrBucketMissing)
}

func TestWrapKeepsSentinelAndCause(t *testing.T) {
	err := errs.Wrap(errs.KindTransport, "probe bucket", errs.ErrBucketMissing, errors.New("dial tcp: timeout"))
	require.True(t, errs.Is(err, errs.ErrBucketMissing))
	require.Contains(t, err.Error(), "dial tcp: timeout")
	require.Equal(t, errs.KindTransport, errs.KindOf(err))

	err = errs.Wrap(errs.KindConfiguration, "probe bucket", errs.ErrBucketMissing, nil)
	require.True(t, errs.Is(err, errs.ErrBucketMissing))
}
