package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvec/internal/domain"
)

func TestClient_UploadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/upload-file/", r.URL.Path)
		f, fh, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		body, _ := io.ReadAll(f)
		assert.Equal(t, "lots.csv", fh.Filename)
		assert.Equal(t, "a,b\n", string(body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"CSV file was uploaded and processed successfully","document_id":"d1","records":2}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL, 0).UploadFile(context.Background(), "lots.csv", []byte("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, UploadResult{
		Message:    "CSV file was uploaded and processed successfully",
		DocumentID: "d1",
		Records:    2,
	}, res)
}

func TestClient_UploadErrorsKeepCategory(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, domain.ErrUnsupportedFormat},
		{http.StatusConflict, domain.ErrDuplicateDocument},
		{http.StatusUnprocessableEntity, domain.ErrRead},
		{http.StatusBadGateway, domain.ErrAugmentation},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"detail":"nope"}`))
		}))
		_, err := New(srv.URL, 0).Upload(context.Background(), "a.pdf", []byte("%PDF"))
		srv.Close()
		require.ErrorIs(t, err, tc.want)
		assert.Contains(t, err.Error(), "nope")
	}
}

func TestClient_UploadInternalError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	_, err := New(srv.URL, 0).Upload(context.Background(), "a.pdf", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestClient_Delete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/delete-document/", r.URL.Path)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"Successfully deleted 2 documents with document_name or document_id: ` + body["input_str"] + `"}`))
	}))
	defer srv.Close()

	msg, err := New(srv.URL+"/", 0).Delete(context.Background(), "lots.csv")
	require.NoError(t, err)
	assert.Equal(t, "Successfully deleted 2 documents with document_name or document_id: lots.csv", msg)
}
