package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sticky3d/deskgeom/pkg/errors"
	"github.com/sticky3d/deskgeom/pkg/pipeline"
	"github.com/sticky3d/deskgeom/pkg/placement"
	"github.com/sticky3d/deskgeom/pkg/store"
)

// Client talks to a deskgeom server.
type Client struct {
	BaseURL  string
	HTTP     *http.Client
	Attempts int
	Delay    time.Duration
}

// NewClient returns a client with a 30s timeout and 3 attempts per call.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		HTTP:     &http.Client{Timeout: 30 * time.Second},
		Attempts: 3,
		Delay:    time.Second,
	}
}

// SolveOptions are sent as query parameters.
type SolveOptions struct {
	Align   *bool
	Refresh bool
}

func (o SolveOptions) query() string {
	q := url.Values{}
	if o.Align != nil {
		q.Set("align", strconv.FormatBool(*o.Align))
	}
	if o.Refresh {
		q.Set("refresh", "true")
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

type solveResponse struct {
	Result *pipeline.Result `json:"result"`
	Scene  string           `json:"scene"`
}

// Solve posts a TOML scene and returns the result and the solved scene.
func (c *Client) Solve(ctx context.Context, sceneTOML []byte, opts SolveOptions) (*pipeline.Result, string, error) {
	var out solveResponse
	if err := c.do(ctx, http.MethodPost, "/v1/solve"+opts.query(), "application/toml", sceneTOML, &out); err != nil {
		return nil, "", err
	}
	return out.Result, out.Scene, nil
}

// Docks lists the stored dock offsets of a scene.
func (c *Client) Docks(ctx context.Context, sceneID string) ([]store.Record, error) {
	var out []store.Record
	err := c.do(ctx, http.MethodGet, "/v1/scenes/"+url.PathEscape(sceneID)+"/docks/", "", nil, &out)
	return out, err
}

// PutDock stores an offset on the server.
func (c *Client) PutDock(ctx context.Context, sceneID, objectID string, off placement.DockOffset) (store.Record, error) {
	body, err := json.Marshal(off)
	if err != nil {
		return store.Record{}, errors.Wrap(errors.ErrCodeInternal, err, "encode offset")
	}
	var out store.Record
	err = c.do(ctx, http.MethodPut, dockPath(sceneID, objectID), "application/json", body, &out)
	return out, err
}

// DeleteDock undocks an object on the server.
func (c *Client) DeleteDock(ctx context.Context, sceneID, objectID string) error {
	return c.do(ctx, http.MethodDelete, dockPath(sceneID, objectID), "", nil, nil)
}

func dockPath(sceneID, objectID string) string {
	return "/v1/scenes/" + url.PathEscape(sceneID) + "/docks/" + url.PathEscape(objectID)
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte, out any) error {
	return Retry(ctx, c.Attempts, c.Delay, func() error {
		req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		resp, err := c.HTTP.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &RetryableError{Err: fmt.Errorf("%s %s: %w", method, path, err)}
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return &RetryableError{Err: fmt.Errorf("read response: %w", err)}
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return &RetryableError{
				Err:   fmt.Errorf("%s %s: %s", method, path, resp.Status),
				After: retryAfter(resp.Header),
			}
		}
		if resp.StatusCode >= 400 {
			var ae apiError
			if json.Unmarshal(data, &ae) == nil && ae.Error.Code != "" {
				return errors.New(errors.Code(ae.Error.Code), "%s", ae.Error.Message)
			}
			return errors.New(errors.ErrCodeInternal, "%s %s: %s", method, path, resp.Status)
		}
		if out == nil || len(data) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "decode response")
		}
		return nil
	})
}
