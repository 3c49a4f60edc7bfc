// Package clickup is a minimal client for the ClickUp v2 task API: list
// field definitions, task search, task reads, creates and partial writes.
package clickup

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/leadsync/internal/transport"
	"github.com/agentstation/leadsync/pkg/constants"
	"github.com/agentstation/leadsync/pkg/errors"
	"github.com/agentstation/leadsync/pkg/logging"
)

// ServiceName identifies ClickUp in errors and logs.
const ServiceName = "clickup"

// Config configures a Client.
type Config struct {
	BaseURL    string
	Token      string
	AuthScheme string        // "" (raw token), "bearer" or "none"
	Timeout    time.Duration // zero uses the transport default
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Client calls the ClickUp API.
type Client struct {
	transport *transport.Client
	logger    *zerolog.Logger
}

// New creates a Client.
func New(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = constants.DefaultBaseURL
	}
	logger := logging.OrDefault(cfg.Logger)
	opts := []transport.Option{
		transport.WithService(ServiceName),
		transport.WithLogger(logger),
		transport.WithHTTPClient(cfg.HTTPClient),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, transport.WithTimeout(cfg.Timeout))
	}
	return &Client{
		transport: transport.New(base, cfg.Token, transport.AuthForScheme(cfg.AuthScheme), opts...),
		logger:    logger,
	}
}

// ListFields returns every custom field definition accessible on the list.
func (c *Client) ListFields(ctx context.Context, listID string) ([]Field, error) {
	var resp fieldsResponse
	if err := c.transport.JSON(ctx, http.MethodGet, "/list/"+url.PathEscape(listID)+"/field", nil, nil, &resp); err != nil {
		return nil, errors.WrapResource("fetch", "fields", listID, err)
	}
	return resp.Fields, nil
}

// SearchTasks returns one page of the list's tasks matching q.
func (c *Client) SearchTasks(ctx context.Context, listID string, q TaskQuery) (*TaskPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(q.Page))
	query.Set("archived", strconv.FormatBool(q.Archived))
	if len(q.Filters) > 0 {
		filters, err := json.Marshal(q.Filters)
		if err != nil {
			return nil, errors.WrapParse("json", "custom_fields", err)
		}
		query.Set("custom_fields", string(filters))
	}

	var page TaskPage
	if err := c.transport.JSON(ctx, http.MethodGet, "/list/"+url.PathEscape(listID)+"/task", query, nil, &page); err != nil {
		return nil, errors.WrapResource("lookup", "tasks", listID, err)
	}
	return &page, nil
}

// GetTask reads one task with its current custom field values.
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	var task Task
	if err := c.transport.JSON(ctx, http.MethodGet, "/task/"+url.PathEscape(taskID), nil, nil, &task); err != nil {
		return nil, errors.WrapResource("fetch", "task", taskID, err)
	}
	return &task, nil
}

// CreateTask creates a task on the list.
func (c *Client) CreateTask(ctx context.Context, listID string, req CreateTaskRequest) (*Task, error) {
	var task Task
	if err := c.transport.JSON(ctx, http.MethodPost, "/list/"+url.PathEscape(listID)+"/task", nil, req, &task); err != nil {
		return nil, errors.WrapResource("create", "task", "", err)
	}
	return &task, nil
}

// UpdateTask writes the task's name and description.
func (c *Client) UpdateTask(ctx context.Context, taskID string, req UpdateTaskRequest) error {
	if err := c.transport.JSON(ctx, http.MethodPut, "/task/"+url.PathEscape(taskID), nil, req, nil); err != nil {
		return errors.WrapResource("update", "task", taskID, err)
	}
	return nil
}

// SetFieldValue writes one custom field. Some workspaces only expose the
// ".../value" form of the endpoint; a 404 or 405 retries there once.
func (c *Client) SetFieldValue(ctx context.Context, taskID, fieldID string, value any) error {
	path := "/task/" + url.PathEscape(taskID) + "/field/" + url.PathEscape(fieldID)
	body := setFieldRequest{Value: value}

	err := c.transport.JSON(ctx, http.MethodPost, path, nil, body, nil)
	var apiErr *errors.APIError
	if err != nil && errors.As(err, &apiErr) &&
		(apiErr.StatusCode == http.StatusNotFound || apiErr.StatusCode == http.StatusMethodNotAllowed) {
		c.logger.Debug().Str("task_id", taskID).Str("field_id", fieldID).Int("status", apiErr.StatusCode).
			Msg("retrying field write on value endpoint")
		err = c.transport.JSON(ctx, http.MethodPost, path+"/value", nil, body, nil)
	}
	if err != nil {
		return errors.WrapResource("update", "field", fieldID, err)
	}
	return nil
}

// AddComment posts a comment on the task without notifying watchers.
func (c *Client) AddComment(ctx context.Context, taskID, text string) error {
	body := commentRequest{CommentText: text, NotifyAll: false}
	if err := c.transport.JSON(ctx, http.MethodPost, "/task/"+url.PathEscape(taskID)+"/comment", nil, body, nil); err != nil {
		return errors.WrapResource("create", "comment", taskID, err)
	}
	return nil
}

// AddTag attaches a tag to the task. The tag is created on the space if it
// does not exist.
func (c *Client) AddTag(ctx context.Context, taskID, tag string) error {
	path := "/task/" + url.PathEscape(taskID) + "/tag/" + url.PathEscape(tag)
	if err := c.transport.JSON(ctx, http.MethodPost, path, nil, nil, nil); err != nil {
		return errors.WrapResource("create", "tag", tag, err)
	}
	return nil
}
