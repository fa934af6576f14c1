package apiservice

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pingcap-inc/dwloader/pkg/errs"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

var kindStatus = map[errs.Kind]int{
	errs.KindSchema:        http.StatusBadRequest,
	errs.KindNotFound:      http.StatusNotFound,
	errs.KindCapacity:      http.StatusConflict,
	errs.KindConversion:    http.StatusUnprocessableEntity,
	errs.KindTransport:     http.StatusBadGateway,
	errs.KindConfiguration: http.StatusInternalServerError,
	errs.KindSQL:           http.StatusInternalServerError,
}

func (service *APIService) registerRoutes(router *gin.Engine) {
	router.POST("/upload_file", service.uploadFile)
	router.GET("/progress", service.progress)
	router.POST("/check_existence", service.checkExistence)
	router.POST("/get_table_schema", service.getTableSchema)
	router.POST("/create_table", service.createTable)
	router.POST("/copy_command", service.copyCommand)
	router.POST("/get_json_config", service.getJSONConfig)
	router.POST("/save_json_config", service.saveJSONConfig)
}

// fail writes err as JSON with a status derived from its kind. Server side
// failures are also recorded for /info.
func (service *APIService) fail(c *gin.Context, op string, err error) {
	kind := errs.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	body := gin.H{"error": err.Error(), "kind": kind.String()}
	var e *errs.Error
	if errs.As(err, &e) && e.Statement != "" {
		body["statement"] = e.Statement
	}
	if status >= http.StatusInternalServerError {
		service.APIInfo.SetOperationError(op, err)
		service.Metric.Error(op)
	}
	log.Warn("Request failed", zap.String("op", op), zap.Int("status", status), zap.Error(err))
	c.JSON(status, body)
}

func (service *APIService) succeed(op string) {
	service.APIInfo.ClearOperationError(op)
}

// formValues reads the named form fields, failing the request if any is
// missing.
func (service *APIService) formValues(c *gin.Context, op string, keys ...string) ([]string, bool) {
	values := make([]string, 0, len(keys))
	for _, key := range keys {
		v, ok := c.GetPostForm(key)
		if !ok || v == "" {
			service.fail(c, op, errs.Newf(errs.KindSchema, op, "form field %q is required", key))
			return nil, false
		}
		values = append(values, v)
	}
	return values, true
}

func (service *APIService) uploadFile(c *gin.Context) {
	const op = "upload_file"
	values, ok := service.formValues(c, op, "path")
	if !ok {
		return
	}
	job, err := service.backend.Upload(c.Request.Context(), values[0])
	if err != nil {
		service.fail(c, op, err)
		return
	}
	service.succeed(op)
	c.JSON(http.StatusOK, gin.H{"status": "started", "job_id": job.ID})
}

func (service *APIService) progress(c *gin.Context) {
	const op = "progress"
	info, err := service.backend.Progress(c.Query("job"))
	if err != nil {
		service.fail(c, op, err)
		return
	}
	body := gin.H{"progress": info.Progress, "status": info.Status, "job_id": info.ID}
	if info.Error != "" {
		body["error"] = info.Error
	}
	c.JSON(http.StatusOK, body)
}

func (service *APIService) checkExistence(c *gin.Context) {
	const op = "check_existence"
	values, ok := service.formValues(c, op, "tbl")
	if !ok {
		return
	}
	exists, count, err := service.backend.CheckExistence(c.Request.Context(), values[0])
	if err != nil {
		service.fail(c, op, err)
		return
	}
	service.succeed(op)
	c.JSON(http.StatusOK, gin.H{"exists": exists, "count": count})
}

func (service *APIService) getTableSchema(c *gin.Context) {
	const op = "get_table_schema"
	values, ok := service.formValues(c, op, "path", "tbl")
	if !ok {
		return
	}
	query, err := service.backend.InferSchema(values[0], values[1])
	if err != nil {
		service.fail(c, op, err)
		return
	}
	service.succeed(op)
	c.JSON(http.StatusOK, gin.H{"query": query})
}

func (service *APIService) createTable(c *gin.Context) {
	const op = "create_table"
	values, ok := service.formValues(c, op, "query")
	if !ok {
		return
	}
	if err := service.backend.CreateTable(c.Request.Context(), values[0]); err != nil {
		service.fail(c, op, err)
		return
	}
	service.succeed(op)
	c.String(http.StatusOK, "success")
}

func (service *APIService) copyCommand(c *gin.Context) {
	const op = "copy_command"
	values, ok := service.formValues(c, op, "path", "tbl")
	if !ok {
		return
	}
	notices, err := service.backend.BulkLoad(c.Request.Context(), values[1], values[0])
	if err != nil {
		service.fail(c, op, err)
		return
	}
	if notices == nil {
		notices = []string{}
	}
	service.succeed(op)
	c.JSON(http.StatusOK, gin.H{"notice": notices})
}

func (service *APIService) getJSONConfig(c *gin.Context) {
	const op = "get_json_config"
	raw, err := service.backend.ConfigJSON()
	if err != nil {
		service.fail(c, op, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": string(raw)})
}

func (service *APIService) saveJSONConfig(c *gin.Context) {
	const op = "save_json_config"
	values, ok := service.formValues(c, op, "config")
	if !ok {
		return
	}
	if err := service.backend.SaveConfig([]byte(values[0])); err != nil {
		service.fail(c, op, err)
		return
	}
	service.succeed(op)
	c.String(http.StatusOK, "success")
}
