// FilePath: internal/uploader/uploader.go
package uploader

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/itsatony/hydrohub/internal/errors"
	"github.com/itsatony/hydrohub/internal/models"
)

const uploadPath = "/cameras/{camera}/upload"

// Options configures the upload client
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
}

// Client pushes camera captures to the hub
type Client struct {
	http *resty.Client
	// used for readers, which cannot be replayed
	once *resty.Client
}

// New creates an upload client for the hub at opts.BaseURL
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	newClient := func(retries int) *resty.Client {
		return resty.New().
			SetBaseURL(opts.BaseURL).
			SetTimeout(opts.Timeout).
			SetRetryCount(retries).
			SetRetryWaitTime(1*time.Second).
			SetRetryMaxWaitTime(5*time.Second).
			SetHeader("Accept", "application/json")
	}
	return &Client{http: newClient(opts.RetryCount), once: newClient(0)}
}

// UploadFile uploads the image at path for cameraID
func (c *Client) UploadFile(ctx context.Context, cameraID, path string) (*models.UploadResult, error) {
	req := c.http.R().SetFile("image", path)
	return c.do(ctx, req, cameraID, filepath.Base(path))
}

// Upload uploads image bytes read from content under filename; it is never retried
func (c *Client) Upload(ctx context.Context, cameraID, filename string, content io.Reader) (*models.UploadResult, error) {
	req := c.once.R().SetFileReader("image", filename, content)
	return c.do(ctx, req, cameraID, filename)
}

func (c *Client) do(ctx context.Context, req *resty.Request, cameraID, filename string) (*models.UploadResult, error) {
	var result models.UploadResult
	var apiErr errors.APIError

	resp, err := req.
		SetContext(ctx).
		SetPathParam("camera", cameraID).
		SetResult(&result).
		SetError(&apiErr).
		Post(uploadPath)
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", filename, err)
	}
	if resp.IsError() {
		msg := apiErr.Message
		if msg == "" {
			msg = resp.Status()
		}
		return nil, fmt.Errorf("hub rejected %s (status %d): %s", filename, resp.StatusCode(), msg)
	}
	return &result, nil
}
