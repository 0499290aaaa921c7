package gateway

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

	"github.com/shandysiswandi/filebridge/internal/transfer/codec"
)

// PullRequest asks the business system for one page of export data.
type PullRequest struct {
	TaskID string
	Offset int
	Limit  int
	Params string
}

// PullPage is one page of export data plus the continuation flag.
type PullPage struct {
	Data    []codec.Row `json:"data"`
	HasMore bool        `json:"hasMore"`
}

// CallbackClient talks to the business system's callback endpoint: Push
// delivers import batches and status notifications, Pull fetches export
// pages.
type CallbackClient interface {
	Push(ctx context.Context, url, taskID, status string, data any) error
	Pull(ctx context.Context, url string, req PullRequest) (PullPage, error)
}

// HTTPCallbackClient is the production CallbackClient over plain HTTP.
type HTTPCallbackClient struct {
	client *http.Client
}

// NewHTTPCallbackClient builds a client with the given per-request timeout.
// A zero timeout defaults to 30 seconds.
func NewHTTPCallbackClient(timeout time.Duration) *HTTPCallbackClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPCallbackClient{client: &http.Client{Timeout: timeout}}
}

func (c *HTTPCallbackClient) Push(ctx context.Context, callbackURL, taskID, status string, data any) error {
	body, err := json.Marshal(map[string]any{
		"taskId": taskID,
		"status": status,
		"data":   data,
	})
	if err != nil {
		return fmt.Errorf("encode push body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("push callback: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("push callback: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *HTTPCallbackClient) Pull(ctx context.Context, callbackURL string, pull PullRequest) (PullPage, error) {
	form := url.Values{}
	form.Set("taskId", pull.TaskID)
	form.Set("offset", strconv.Itoa(pull.Offset))
	form.Set("limit", strconv.Itoa(pull.Limit))
	if pull.Params != "" {
		form.Set("callbackParams", pull.Params)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, strings.NewReader(form.Encode()))
	if err != nil {
		return PullPage{}, fmt.Errorf("build pull request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return PullPage{}, fmt.Errorf("pull callback: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return PullPage{}, fmt.Errorf("pull callback: unexpected status %d", resp.StatusCode)
	}

	var page PullPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return PullPage{}, fmt.Errorf("decode pull page: %w", err)
	}
	return page, nil
}
