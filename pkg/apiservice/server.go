package apiservice

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pingcap-inc/dwloader/pkg/metrics"
	"github.com/pingcap-inc/dwloader/pkg/upload"
	"github.com/pingcap/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Backend runs the operations exposed over HTTP.
type Backend interface {
	Upload(ctx context.Context, path string) (*upload.Job, error)
	Progress(id string) (upload.JobInfo, error)
	CheckExistence(ctx context.Context, tableFQN string) (bool, int, error)
	InferSchema(path, tableName string) (string, error)
	CreateTable(ctx context.Context, ddl string) error
	BulkLoad(ctx context.Context, table, objectPath string) ([]string, error)
	ConfigJSON() ([]byte, error)
	SaveConfig(raw []byte) error
}

type APIService struct {
	APIInfo *APIInfo
	Metric  *metrics.Metrics
	backend Backend
	router  *gin.Engine
}

func New(backend Backend, metric *metrics.Metrics) *APIService {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	apiInfo := NewAPIInfo()
	apiInfo.registerRouter(r, func() (upload.JobInfo, error) { return backend.Progress("") })

	service := &APIService{
		APIInfo: apiInfo,
		Metric:  metric,
		backend: backend,
		router:  r,
	}
	service.registerRoutes(r)
	RegisterMetric(r, metric)
	return service
}

// RegisterMetric registers the metric handler.
func RegisterMetric(router *gin.Engine, metric *metrics.Metrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metric.RegisterTo(registry)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	router.GET("/metrics", func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	})
}

// Handler exposes the router, mainly for tests.
func (service *APIService) Handler() http.Handler {
	return service.router
}

// Serve serves on l until SIGINT or SIGTERM, then waits for in-flight
// requests to finish.
func (service *APIService) Serve(l net.Listener) {
	server := &http.Server{Handler: service.router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(l); err != nil && err != http.ErrServerClosed {
			service.APIInfo.SetGlobalStatusFatalError(err)
			log.Panic("Serve failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	s := <-quit
	log.Info("Received exit signal, shutting down API service ...", zap.String("signal", s.String()))

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Warn("API service shutdown failed", zap.Error(err))
	}
}
