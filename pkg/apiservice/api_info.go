package apiservice

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/pingcap-inc/dwloader/pkg/upload"
	"github.com/pingcap-inc/dwloader/version"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

type ServiceStatus string

const (
	ServiceStatusRunning    ServiceStatus = "running"
	ServiceStatusFatalError ServiceStatus = "fatal_error"
)

// APIInfo tracks the service status and the last failure of each operation.
type APIInfo struct {
	errorMessages      map[string]string
	globalStatus       ServiceStatus
	globalErrorMessage string
	mu                 sync.Mutex
}

func NewAPIInfo() *APIInfo {
	return &APIInfo{
		errorMessages:      make(map[string]string),
		globalStatus:       ServiceStatusRunning,
		globalErrorMessage: "",
	}
}

func (s *APIInfo) registerRouter(router *gin.Engine, latestJob func() (upload.JobInfo, error)) {
	router.GET("/info", func(c *gin.Context) {
		job, err := latestJob()
		if err != nil {
			log.Warn("Failed to read latest job", zap.Error(err))
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.globalStatus == ServiceStatusFatalError {
			c.JSON(http.StatusOK, gin.H{
				"status":        s.globalStatus,
				"error_message": s.globalErrorMessage,
			})
			return
		}
		errorMessages := make(map[string]string, len(s.errorMessages))
		for op, msg := range s.errorMessages {
			errorMessages[op] = msg
		}
		c.JSON(http.StatusOK, gin.H{
			"status":        s.globalStatus,
			"error_message": errorMessages,
			"job":           job,
			"version":       version.NewDWLoaderVersion().SemVer(),
			"build":         version.NewDWLoaderBuildInfo(),
		})
	})
}

// SetOperationError records the last failure of op.
func (s *APIInfo) SetOperationError(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorMessages[op] = err.Error()
}

// ClearOperationError forgets the failure of op after it succeeds.
func (s *APIInfo) ClearOperationError(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.errorMessages, op)
}

func (s *APIInfo) SetGlobalStatusFatalError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.globalStatus == ServiceStatusFatalError {
		log.Warn("Ignored new fatal errors", zap.Error(err))
		return
	}
	s.globalStatus = ServiceStatusFatalError
	s.globalErrorMessage = err.Error()
}
