package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/groundwater-hmpi-service/internal/domain"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/ingest"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/pipeline"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/store"
)

const requestTimeout = 30 * time.Second

func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "File too large", "error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": "No file uploaded"})
		return
	}
	if !ingest.Supported(fh.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Unsupported file format"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		s.fail(c, "Upload error", err)
		return
	}
	defer f.Close()

	rows, err := ingest.ReadRows(fh.Filename, f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Unreadable file", "error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	res, err := s.svc.Ingest(ctx, filepath.Base(fh.Filename), rows)
	if err != nil {
		s.fail(c, "DB Insert Error", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  uploadMessage(fh.Filename),
		"count":    res.Count,
		"batchId":  res.BatchID,
		"filename": res.Name,
	})
}

func uploadMessage(filename string) string {
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		return "CSV uploaded & saved to DB"
	}
	return "Excel uploaded & saved to DB"
}

func (s *Server) handleNormalize(c *gin.Context) {
	rows, ok := s.decodeRows(c)
	if !ok {
		return
	}

	samples, err := s.svc.Normalize(c.Request.Context(), rows)
	if err != nil {
		s.fail(c, "Normalization error", err)
		return
	}
	s.respond(c, gin.H{
		"message": "Normalization completed",
		"count":   len(samples),
		"results": samples,
	})
}

func (s *Server) handleAnalyzeRows(c *gin.Context) {
	rows, ok := s.decodeRows(c)
	if !ok {
		return
	}

	a, err := s.svc.AnalyzeRows(c.Request.Context(), rows)
	if err != nil {
		s.fail(c, "Analysis error", err)
		return
	}
	s.respond(c, a)
}

func (s *Server) handleAnalyze(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	a, err := s.svc.Analyze(ctx)
	if err != nil {
		s.fail(c, "Analysis error", err)
		return
	}
	s.respond(c, a)
}

func (s *Server) handleAnalyzeBatch(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	a, err := s.svc.AnalyzeBatch(ctx, c.Param("batch"))
	if err != nil {
		s.fail(c, "Analysis error", err)
		return
	}
	s.respond(c, a)
}

func (s *Server) handleReport(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	report, err := s.svc.Report(ctx, c.Query("batch"))
	if errors.Is(err, pipeline.ErrNoData) {
		c.JSON(http.StatusNotFound, gin.H{"message": "No data found in database"})
		return
	}
	if err != nil {
		s.fail(c, "Report generation error", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", domain.ReportFilename))
	c.Data(http.StatusOK, domain.ReportContentType, []byte(report))
}

func (s *Server) handleListBatches(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	batches, err := s.svc.Batches(ctx)
	if err != nil {
		s.fail(c, "Unable to list batches", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": batches})
}

func (s *Server) handleDeleteBatch(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := s.svc.DeleteBatch(ctx, c.Param("batch")); err != nil {
		s.fail(c, "Delete error", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Batch deleted successfully"})
}

// decodeRows reads a JSON array of row objects from the request body. It
// writes the error response itself and reports false on failure.
func (s *Server) decodeRows(c *gin.Context) ([]domain.RawRow, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "Request too large", "error": err.Error()})
			return nil, false
		}
		s.fail(c, "Unable to read request", err)
		return nil, false
	}

	rows, err := domain.DecodeRawRows(body)
	if err != nil {
		s.fail(c, "Invalid input", err)
		return nil, false
	}
	return rows, true
}

// respond encodes v before writing the status line, so an unencodable body
// becomes a 500 instead of an empty 200.
func (s *Server) respond(c *gin.Context, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.fail(c, "Response encoding error", err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// fail maps err onto a status code and writes the standard error body.
func (s *Server) fail(c *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, ingest.ErrUnsupportedFormat):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
		message = "Batch not found"
	}

	if status == http.StatusInternalServerError {
		s.logger.Error(message, "error", err, "path", c.FullPath())
	}
	c.JSON(status, gin.H{"message": message, "error": err.Error()})
}
