package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"docvec/internal/domain"
)

// Client talks to a running docvec HTTP server.
type Client struct {
	http *resty.Client
}

// UploadResult is the server's answer to a successful upload.
type UploadResult struct {
	Message    string `json:"message"`
	DocumentID string `json:"document_id"`
	Records    int    `json:"records"`
}

type messageBody struct {
	Message string `json:"message"`
}

type errorBody struct {
	Detail string `json:"detail"`
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Client{http: resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0)}
}

// UploadFile posts one document as multipart field "file".
func (c *Client) UploadFile(ctx context.Context, name string, data []byte) (UploadResult, error) {
	var out UploadResult
	var fail errorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", name, bytes.NewReader(data)).
		SetResult(&out).
		SetError(&fail).
		Post("/api/upload-file/")
	if err != nil {
		return out, fmt.Errorf("client: upload %s: %w", name, err)
	}
	if resp.IsError() {
		return out, fmt.Errorf("client: upload %s: %w", name, statusError(resp.StatusCode(), fail.Detail))
	}
	return out, nil
}

// Upload satisfies the reconciler's uploader.
func (c *Client) Upload(ctx context.Context, name string, data []byte) (int, error) {
	res, err := c.UploadFile(ctx, name, data)
	return res.Records, err
}

// Delete removes every record matching input by name or id and returns the
// server's message.
func (c *Client) Delete(ctx context.Context, input string) (string, error) {
	var out messageBody
	var fail errorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"input_str": input}).
		SetResult(&out).
		SetError(&fail).
		Post("/api/delete-document/")
	if err != nil {
		return "", fmt.Errorf("client: delete %s: %w", input, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("client: delete %s: %w", input, statusError(resp.StatusCode(), fail.Detail))
	}
	return out.Message, nil
}

// statusError restores the error category the server mapped to status.
func statusError(status int, detail string) error {
	if detail == "" {
		detail = http.StatusText(status)
	}
	var category error
	switch status {
	case http.StatusBadRequest:
		category = domain.ErrUnsupportedFormat
	case http.StatusConflict:
		category = domain.ErrDuplicateDocument
	case http.StatusUnprocessableEntity:
		category = domain.ErrRead
	case http.StatusBadGateway:
		category = domain.ErrAugmentation
	default:
		return fmt.Errorf("status %d: %s", status, detail)
	}
	return fmt.Errorf("%w: status %d: %s", category, status, detail)
}
