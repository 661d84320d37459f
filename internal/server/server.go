package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docvec/internal/domain"
	"docvec/internal/logger"
	"docvec/internal/service"
)

// Ingester is the service surface the HTTP handlers call.
type Ingester interface {
	Ingest(ctx context.Context, name string, data []byte) (service.Result, error)
	Delete(ctx context.Context, input string) (int64, error)
}

// UploadResponse is the body of a successful upload.
type UploadResponse struct {
	Message    string `json:"message"`
	DocumentID string `json:"document_id"`
	Records    int    `json:"records"`
}

// DeleteRequest is the body of a delete request.
type DeleteRequest struct {
	InputStr string `json:"input_str"`
}

// MessageResponse carries a human readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse carries the failure description.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// NewRouter builds the gin engine. gatherer may be nil, in which case /metrics
// is not served.
func NewRouter(svc Ingester, gatherer prometheus.Gatherer, log logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), LoggerMiddleware(log))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, MessageResponse{Message: "Welcome to the API"})
	})
	api := r.Group("/api")
	api.POST("/upload-file/", uploadFile(svc))
	api.POST("/delete-document/", deleteDocument(svc))
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return r
}

func uploadFile(svc Ingester) gin.HandlerFunc {
	return func(c *gin.Context) {
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "multipart field \"file\" is required"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "cannot open uploaded file: " + err.Error()})
			return
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "cannot read uploaded file: " + err.Error()})
			return
		}

		name := filepath.Base(fh.Filename)
		res, err := svc.Ingest(c.Request.Context(), name, data)
		if err != nil {
			_ = c.Error(err)
			status := StatusFor(err)
			detail := err.Error()
			if status == http.StatusInternalServerError && res.Type != "" {
				detail = fmt.Sprintf("Error processing %s file: %s", strings.ToUpper(string(res.Type)), err)
			}
			c.JSON(status, ErrorResponse{Detail: detail})
			return
		}
		c.JSON(http.StatusOK, UploadResponse{
			Message:    fmt.Sprintf("%s file was uploaded and processed successfully", strings.ToUpper(string(res.Type))),
			DocumentID: res.DocumentID,
			Records:    res.Records,
		})
	}
}

func deleteDocument(svc Ingester) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DeleteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "invalid request body: " + err.Error()})
			return
		}
		n, err := svc.Delete(c.Request.Context(), req.InputStr)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Error deleting document: " + err.Error()})
			return
		}
		if n > 0 {
			c.JSON(http.StatusOK, MessageResponse{Message: fmt.Sprintf(
				"Successfully deleted %d documents with document_name or document_id: %s", n, req.InputStr)})
			return
		}
		c.JSON(http.StatusOK, MessageResponse{Message: "No documents found with document_name or document_id: " + req.InputStr})
	}
}

// StatusFor maps an ingestion error category to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDuplicateDocument):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRead):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrAugmentation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Server owns the HTTP listener.
type Server struct {
	http *http.Server
}

func New(addr string, handler http.Handler) *Server {
	return &Server{http: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	log.Info("http server stopped")
	return nil
}
