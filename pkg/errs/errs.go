package errs

import (
	goerrors "errors"
	"fmt"

	"github.com/pingcap/errors"
)

// Kind classifies failures of the ingestion pipeline.
type Kind int

const (
	KindUnknown Kind = iota
	// KindConfiguration is a missing or invalid bucket or connection parameter.
	KindConfiguration
	// KindConversion is an unreadable or corrupt spreadsheet.
	KindConversion
	// KindTransport is an object store failure: unreachable, permission denied, network.
	KindTransport
	// KindSchema is a malformed table identifier or an unusable input file.
	KindSchema
	// KindSQL is a DDL or COPY execution failure.
	KindSQL
	// KindCapacity is a rejected upload because another job is active.
	KindCapacity
	// KindNotFound is an unknown job handle.
	KindNotFound
)

var kindNames = map[Kind]string{
	KindUnknown:       "unknown",
	KindConfiguration: "configuration",
	KindConversion:    "conversion",
	KindTransport:     "transport",
	KindSchema:        "schema",
	KindSQL:           "sql",
	KindCapacity:      "capacity",
	KindNotFound:      "not-found",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified pipeline error. Statement is only set for KindSQL.
type Error struct {
	Kind      Kind
	Op        string
	Statement string
	Err       error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Statement != "" {
		msg = fmt.Sprintf("%s (statement: %s)", msg, e.Statement)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New classifies err under kind for operation op.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf is New with a formatted cause.
func Newf(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: errors.Errorf(format, args...)}
}

// Wrap classifies cause and marks it with sentinel, so that Is(err, sentinel)
// holds while the cause's message is kept.
func Wrap(kind Kind, op string, sentinel, cause error) *Error {
	if cause == nil {
		return &Error{Kind: kind, Op: op, Err: sentinel}
	}
	return &Error{Kind: kind, Op: op, Err: goerrors.Join(sentinel, cause)}
}

// Is reports whether target is in err's chain.
func Is(err, target error) bool {
	return goerrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return goerrors.As(err, target)
}

// SQL builds a KindSQL error carrying the failing statement.
func SQL(op, statement string, err error) *Error {
	return &Error{Kind: KindSQL, Op: op, Statement: statement, Err: err}
}

// KindOf returns the kind of the first *Error found in err's cause chain.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		next := errors.Cause(err)
		if next == err {
			if u, ok := err.(interface{ Unwrap() error }); ok {
				next = u.Unwrap()
			} else {
				return KindUnknown
			}
		}
		err = next
	}
	return KindUnknown
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

var (
	// ErrBucketMissing is returned when the destination bucket fails its existence probe.
	ErrBucketMissing = errors.New("destination bucket does not exist or is not accessible")
	// ErrUploadInProgress is returned when an upload is requested while another job is active.
	ErrUploadInProgress = errors.New("an upload job is already in progress")
	// ErrJobNotFound is returned for an unknown or superseded job handle.
	ErrJobNotFound = errors.New("upload job not found")
	// ErrMalformedTableName is returned when a table name lacks its schema qualifier.
	ErrMalformedTableName = errors.New("table name must be schema-qualified as <schema>.<table>")
)
