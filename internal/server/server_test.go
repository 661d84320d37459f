package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvec/internal/domain"
	"docvec/internal/llm/local"
	"docvec/internal/logger"
	"docvec/internal/metrics"
	"docvec/internal/service"
	"docvec/internal/vectorstore/memory"
)

type fakeIngester struct {
	err     error
	res     service.Result
	deleted int64
	gotName string
	gotData string
}

func (f *fakeIngester) Ingest(_ context.Context, name string, data []byte) (service.Result, error) {
	f.gotName, f.gotData = name, string(data)
	return f.res, f.err
}

func (f *fakeIngester) Delete(_ context.Context, _ string) (int64, error) {
	return f.deleted, f.err
}

func setupRouter(t *testing.T, svc Ingester, gatherer prometheus.Gatherer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return NewRouter(svc, gatherer, logger.NewLogger(logger.TestConfig()))
}

func uploadRequest(t *testing.T, filename, body string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/upload-file/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestRoot(t *testing.T) {
	r := setupRouter(t, &fakeIngester{}, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Welcome to the API", decode[MessageResponse](t, w).Message)
}

func TestUploadFile(t *testing.T) {
	t.Run("Should report processed type", func(t *testing.T) {
		svc := &fakeIngester{res: service.Result{DocumentID: "doc-1", Type: domain.FileTypeCSV, Records: 3}}
		r := setupRouter(t, svc, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, uploadRequest(t, "lots.csv", "a,b\n1,2\n"))

		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[UploadResponse](t, w)
		assert.Equal(t, "CSV file was uploaded and processed successfully", resp.Message)
		assert.Equal(t, "doc-1", resp.DocumentID)
		assert.Equal(t, 3, resp.Records)
		assert.Equal(t, "lots.csv", svc.gotName)
		assert.Equal(t, "a,b\n1,2\n", svc.gotData)
	})

	t.Run("Should require file field", func(t *testing.T) {
		r := setupRouter(t, &fakeIngester{}, nil)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/upload-file/", strings.NewReader("x"))
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unsupported", domain.ErrUnsupportedFormat, http.StatusBadRequest},
		{"duplicate", fmt.Errorf("ingest csv: %w", domain.ErrDuplicateDocument), http.StatusConflict},
		{"read", fmt.Errorf("%w: csv: bad quote", domain.ErrRead), http.StatusUnprocessableEntity},
		{"augmentation", fmt.Errorf("%w: embed: timeout", domain.ErrAugmentation), http.StatusBadGateway},
		{"persistence", fmt.Errorf("%w: insert", domain.ErrPersistence), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run("Should map "+tc.name, func(t *testing.T) {
			svc := &fakeIngester{err: tc.err, res: service.Result{Type: domain.FileTypePDF}}
			r := setupRouter(t, svc, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, uploadRequest(t, "a.pdf", "%PDF"))
			assert.Equal(t, tc.status, w.Code)
			assert.NotEmpty(t, decode[ErrorResponse](t, w).Detail)
		})
	}

	t.Run("Should prefix internal errors with type", func(t *testing.T) {
		svc := &fakeIngester{err: errors.New("boom"), res: service.Result{Type: domain.FileTypeXLSX}}
		r := setupRouter(t, svc, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, uploadRequest(t, "a.xlsx", "PK"))
		assert.Equal(t, "Error processing XLSX file: boom", decode[ErrorResponse](t, w).Detail)
	})
}

func TestDeleteDocument(t *testing.T) {
	post := func(r *gin.Engine, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/delete-document/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	w := post(setupRouter(t, &fakeIngester{deleted: 4}, nil), `{"input_str":"lots.csv"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Successfully deleted 4 documents with document_name or document_id: lots.csv",
		decode[MessageResponse](t, w).Message)

	w = post(setupRouter(t, &fakeIngester{}, nil), `{"input_str":"none"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "No documents found with document_name or document_id: none", decode[MessageResponse](t, w).Message)

	w = post(setupRouter(t, &fakeIngester{}, nil), `{"input_str":""}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "No documents found with document_name or document_id: ", decode[MessageResponse](t, w).Message)

	w = post(setupRouter(t, &fakeIngester{}, nil), `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(setupRouter(t, &fakeIngester{err: domain.ErrPersistence}, nil), `{"input_str":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestUploadThenDelete(t *testing.T) {
	emb, err := local.NewEmbedder(8)
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	svc := service.NewIngestService(memory.NewStorage(), local.NewAugmenter(), emb, service.Options{
		PageChars: 5000, CSVRows: 25, XLSXRows: 10, SampleRows: 5, GroupSize: 5,
	}, metrics.New(reg))
	r := setupRouter(t, svc, reg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "lots.csv", "lot,status\nlot-1,pass\nlot-2,fail\n"))
	require.Equal(t, http.StatusOK, w.Code)
	up := decode[UploadResponse](t, w)
	assert.Equal(t, 1, up.Records)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "lots.csv", "lot,status\n"))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/delete-document/", strings.NewReader(`{"input_str":"`+up.DocumentID+`"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Contains(t, decode[MessageResponse](t, w).Message, "Successfully deleted 1 documents")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `docvec_records_written_total{type="csv"} 1`)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("other")))
	assert.Equal(t, http.StatusConflict, StatusFor(fmt.Errorf("wrap: %w", domain.ErrDuplicateDocument)))
}
