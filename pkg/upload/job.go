package upload

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
)

type Status int32

const (
	StatusPending Status = iota
	StatusConverting
	StatusUploading
	StatusCompleted
	StatusFailed
)

var statusNames = [...]string{
	StatusPending:    "pending",
	StatusConverting: "converting",
	StatusUploading:  "uploading",
	StatusCompleted:  "completed",
	StatusFailed:     "failed",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// Done reports whether the job reached a terminal status.
func (s Status) Done() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is the state of one upload, owned by the Coordinator's goroutine and
// read concurrently through its accessors.
type Job struct {
	ID         string
	SourcePath string
	StartedAt  time.Time

	progress    Progress
	status      atomic.Int32
	destination atomic.String
	failure     atomic.Error
}

func newJob(sourcePath string, size int64) *Job {
	j := &Job{
		ID:         uuid.NewString(),
		SourcePath: sourcePath,
		StartedAt:  time.Now(),
	}
	j.progress.Declare(size)
	return j
}

func (j *Job) Status() Status {
	return Status(j.status.Load())
}

func (j *Job) setStatus(s Status) {
	j.status.Store(int32(s))
}

// Progress is the job's percent-complete.
func (j *Job) Progress() int {
	return j.progress.Read()
}

// Destination is the s3:// URI of the uploaded object, known once the upload
// starts.
func (j *Job) Destination() string {
	return j.destination.Load()
}

// Err is the failure of a StatusFailed job.
func (j *Job) Err() error {
	return j.failure.Load()
}

// JobInfo is a point-in-time copy of a Job.
type JobInfo struct {
	ID          string    `json:"job_id"`
	SourcePath  string    `json:"source_path"`
	TotalBytes  int64     `json:"total_bytes"`
	BytesSent   int64     `json:"bytes_sent"`
	Progress    int       `json:"progress"`
	Status      string    `json:"status"`
	Destination string    `json:"destination,omitempty"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
}

func (j *Job) Info() JobInfo {
	info := JobInfo{
		ID:          j.ID,
		SourcePath:  j.SourcePath,
		TotalBytes:  j.progress.Total(),
		BytesSent:   j.progress.Sent(),
		Progress:    j.progress.Read(),
		Status:      j.Status().String(),
		Destination: j.Destination(),
		StartedAt:   j.StartedAt,
	}
	if err := j.Err(); err != nil {
		info.Error = err.Error()
	}
	return info
}
