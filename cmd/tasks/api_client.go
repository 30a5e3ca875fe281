package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tasker/internal/delivery/api/response"
	"tasker/internal/delivery/api/router/handler"

	"github.com/pkg/errors"
)

const apiTimeout = 15 * time.Second

// apiError is a non-2xx reply of the task API.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("task api returned %d", e.Status)
	}

	return fmt.Sprintf("task api returned %d %s: %s", e.Status, e.Code, e.Message)
}

// apiClient calls the task API with a bearer token.
type apiClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func newAPIClient(baseURL, token string) *apiClient {
	return &apiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: apiTimeout},
	}
}

type listQuery struct {
	completed *bool
	parentID  string
	rootsOnly bool
}

func (q listQuery) values() url.Values {
	values := url.Values{}
	if q.completed != nil {
		values.Set("completed", fmt.Sprint(*q.completed))
	}
	if q.parentID != "" {
		values.Set("parentId", q.parentID)
	}
	if q.rootsOnly {
		values.Set("root", "true")
	}

	return values
}

func (c *apiClient) me(ctx context.Context) (*handler.IdentityResponse, error) {
	var identity handler.IdentityResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/me", nil, &identity); err != nil {
		return nil, err
	}

	return &identity, nil
}

func (c *apiClient) listTasks(ctx context.Context, query listQuery) ([]*handler.TaskResponse, error) {
	path := "/api/v1/tasks"
	if encoded := query.values().Encode(); encoded != "" {
		path += "?" + encoded
	}

	var tasks []*handler.TaskResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}

	return tasks, nil
}

func (c *apiClient) createTask(ctx context.Context, req *handler.CreateTaskRequest) (*handler.TaskResponse, error) {
	var task handler.TaskResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/tasks", req, &task); err != nil {
		return nil, err
	}

	return &task, nil
}

func (c *apiClient) updateTask(ctx context.Context, id string, req *handler.UpdateTaskRequest) (*handler.TaskResponse, error) {
	var task handler.TaskResponse
	if err := c.do(ctx, http.MethodPatch, "/api/v1/tasks/"+url.PathEscape(id), req, &task); err != nil {
		return nil, err
	}

	return &task, nil
}

func (c *apiClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		failure := &apiError{Status: resp.StatusCode}
		var envelope response.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&envelope) == nil && envelope.Error != nil {
			failure.Code = envelope.Error.Code
			failure.Message = envelope.Error.Message
		}

		return failure
	}

	if out == nil {
		return nil
	}

	envelope := response.SuccessResponse{Data: out}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return errors.Wrap(err, "decode response")
	}

	return nil
}
