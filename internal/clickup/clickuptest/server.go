// Package clickuptest provides an in-memory ClickUp API for tests.
package clickuptest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/agentstation/leadsync/internal/clickup"
	"github.com/agentstation/leadsync/pkg/logging"
)

// Token is the API token the fake accepts.
const Token = "pk_test_token"

// Request is one call received by the fake.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   string
}

type failure struct {
	status    int
	remaining int // negative fails forever
}

// Server is a fake ClickUp API backed by in-memory lists and tasks.
type Server struct {
	*httptest.Server

	// PageSize bounds the tasks returned per search page.
	PageSize int
	// ValueEndpointOnly rejects field writes that do not use the
	// ".../value" form with 404.
	ValueEndpointOnly bool
	// IgnoreFilters makes filtered searches return no tasks, as lists
	// without a filterable email field do.
	IgnoreFilters bool
	// Delay is added to every request.
	Delay time.Duration

	mu       sync.Mutex
	fields   map[string][]clickup.Field
	tasks    map[string]*clickup.Task
	listOf   map[string]string
	order    []string
	archived map[string]bool
	comments map[string][]string
	requests []Request
	failures map[string]*failure
	nextID   int
}

// New starts a fake server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		PageSize: 100,
		fields:   make(map[string][]clickup.Field),
		tasks:    make(map[string]*clickup.Task),
		listOf:   make(map[string]string),
		archived: make(map[string]bool),
		comments: make(map[string][]string),
		failures: make(map[string]*failure),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Client returns a ClickUp client pointed at the fake.
func (s *Server) Client() *clickup.Client {
	return clickup.New(clickup.Config{
		BaseURL: s.URL,
		Token:   Token,
		Logger:  logging.NewNopLogger(),
	})
}

// AddFields registers custom field definitions on a list.
func (s *Server) AddFields(listID string, fields ...clickup.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields[listID] = append(s.fields[listID], fields...)
}

// AddTask seeds a task on a list and returns its id.
func (s *Server) AddTask(listID string, task clickup.Task) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task.ID == "" {
		task.ID = s.newID()
	}
	t := task
	s.tasks[t.ID] = &t
	s.listOf[t.ID] = listID
	s.order = append(s.order, t.ID)
	return t.ID
}

// Archive marks a task archived; unarchived searches skip it.
func (s *Server) Archive(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.archived[taskID] = true
}

// Task returns a copy of a task as the API would return it.
func (s *Server) Task(taskID string) (clickup.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return clickup.Task{}, false
	}
	return s.render(t), true
}

// Tasks returns every task on a list in creation order.
func (s *Server) Tasks(listID string) []clickup.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []clickup.Task
	for _, id := range s.order {
		if s.listOf[id] == listID {
			out = append(out, s.render(s.tasks[id]))
		}
	}
	return out
}

// Comments returns the comments posted on a task.
func (s *Server) Comments(taskID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.comments[taskID]...)
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// CountRequests counts requests with the method whose path starts with
// prefix.
func (s *Server) CountRequests(method, prefix string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, prefix) {
			n++
		}
	}
	return n
}

// Fail makes the next n requests to method+path answer status. A negative
// n fails forever.
func (s *Server) Fail(method, path string, status, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = &failure{status: status, remaining: n}
}

func (s *Server) newID() string {
	s.nextID++
	return "task" + strconv.Itoa(s.nextID)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-r.Context().Done():
			return
		}
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Body: string(body)})

	if r.Header.Get("Authorization") != Token {
		writeError(w, http.StatusUnauthorized, "Token invalid")
		return
	}
	if f, ok := s.failures[r.Method+" "+r.URL.Path]; ok && f.remaining != 0 {
		if f.remaining > 0 {
			f.remaining--
		}
		writeError(w, f.status, "injected failure")
		return
	}

	parts := strings.Split(strings.Trim(r.URL.EscapedPath(), "/"), "/")
	for i, p := range parts {
		if unescaped, err := url.PathUnescape(p); err == nil {
			parts[i] = unescaped
		}
	}
	switch {
	case len(parts) == 3 && parts[0] == "list" && parts[2] == "field" && r.Method == http.MethodGet:
		writeJSON(w, map[string]any{"fields": s.fieldsOf(parts[1])})
	case len(parts) == 3 && parts[0] == "list" && parts[2] == "task" && r.Method == http.MethodGet:
		s.search(w, r, parts[1])
	case len(parts) == 3 && parts[0] == "list" && parts[2] == "task" && r.Method == http.MethodPost:
		s.create(w, parts[1], body)
	case len(parts) == 2 && parts[0] == "task" && r.Method == http.MethodGet:
		t, ok := s.tasks[parts[1]]
		if !ok {
			writeError(w, http.StatusNotFound, "Task not found")
			return
		}
		writeJSON(w, s.render(t))
	case len(parts) == 2 && parts[0] == "task" && r.Method == http.MethodPut:
		s.update(w, parts[1], body)
	case len(parts) >= 4 && parts[0] == "task" && parts[2] == "field" && r.Method == http.MethodPost:
		valueForm := len(parts) == 5 && parts[4] == "value"
		if s.ValueEndpointOnly && !valueForm {
			writeError(w, http.StatusNotFound, "Route not found")
			return
		}
		s.setField(w, parts[1], parts[3], body)
	case len(parts) == 3 && parts[0] == "task" && parts[2] == "comment" && r.Method == http.MethodPost:
		s.comment(w, parts[1], body)
	case len(parts) == 4 && parts[0] == "task" && parts[2] == "tag" && r.Method == http.MethodPost:
		s.tag(w, parts[1], parts[3])
	default:
		writeError(w, http.StatusNotFound, "Route not found")
	}
}

func (s *Server) fieldsOf(listID string) []clickup.Field {
	out := s.fields[listID]
	if out == nil {
		out = []clickup.Field{}
	}
	return out
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, listID string) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	archived := r.URL.Query().Get("archived") == "true"

	var filters []clickup.FieldFilter
	if raw := r.URL.Query().Get("custom_fields"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &filters); err != nil {
			writeError(w, http.StatusBadRequest, "invalid custom_fields")
			return
		}
	}

	var matched []clickup.Task
	if !(len(filters) > 0 && s.IgnoreFilters) {
		for _, id := range s.order {
			if s.listOf[id] != listID || s.archived[id] != archived {
				continue
			}
			t := s.tasks[id]
			if matchesFilters(t, filters) {
				matched = append(matched, s.render(t))
			}
		}
	}

	start := page * s.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + s.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	tasks := matched[start:end]
	if tasks == nil {
		tasks = []clickup.Task{}
	}
	writeJSON(w, clickup.TaskPage{Tasks: tasks, LastPage: end >= len(matched)})
}

func matchesFilters(t *clickup.Task, filters []clickup.FieldFilter) bool {
	for _, f := range filters {
		got := t.FieldString(f.FieldID)
		if !strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(clickup.ScalarString(f.Value))) {
			return false
		}
	}
	return true
}

func (s *Server) create(w http.ResponseWriter, listID string, body []byte) {
	var req clickup.CreateTaskRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Task name invalid")
		return
	}
	t := &clickup.Task{ID: s.newID(), Name: req.Name, Description: req.Description}
	for _, tag := range req.Tags {
		t.Tags = append(t.Tags, clickup.Tag{Name: tag})
	}
	if req.Status != "" {
		t.Status = &clickup.Status{Status: req.Status}
	}
	for _, cf := range req.CustomFields {
		setValue(t, cf.ID, cf.Value)
	}
	s.tasks[t.ID] = t
	s.listOf[t.ID] = listID
	s.order = append(s.order, t.ID)
	writeJSON(w, s.render(t))
}

func (s *Server) update(w http.ResponseWriter, taskID string, body []byte) {
	t, ok := s.tasks[taskID]
	if !ok {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	var req clickup.UpdateTaskRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Name != "" {
		t.Name = req.Name
	}
	if req.Description != "" {
		t.Description = req.Description
	}
	writeJSON(w, s.render(t))
}

func (s *Server) setField(w http.ResponseWriter, taskID, fieldID string, body []byte) {
	t, ok := s.tasks[taskID]
	if !ok {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	var req struct {
		Value any `json:"value"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	setValue(t, fieldID, req.Value)
	writeJSON(w, map[string]any{})
}

func (s *Server) comment(w http.ResponseWriter, taskID string, body []byte) {
	if _, ok := s.tasks[taskID]; !ok {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	var req struct {
		CommentText string `json:"comment_text"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.comments[taskID] = append(s.comments[taskID], req.CommentText)
	writeJSON(w, map[string]any{"id": strconv.Itoa(len(s.comments[taskID]))})
}

func (s *Server) tag(w http.ResponseWriter, taskID, tag string) {
	t, ok := s.tasks[taskID]
	if !ok {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	name := tag
	for _, existing := range t.Tags {
		if existing.Name == name {
			writeJSON(w, map[string]any{})
			return
		}
	}
	t.Tags = append(t.Tags, clickup.Tag{Name: name})
	writeJSON(w, map[string]any{})
}

// render returns the task with every list field present, as the API does.
func (s *Server) render(t *clickup.Task) clickup.Task {
	out := *t
	out.Tags = append([]clickup.Tag(nil), t.Tags...)
	values := make(map[string]any, len(t.CustomFields))
	for _, cf := range t.CustomFields {
		values[cf.ID] = cf.Value
	}
	var fields []clickup.TaskField
	seen := make(map[string]bool)
	for _, def := range s.fields[s.listOf[t.ID]] {
		fields = append(fields, clickup.TaskField{
			ID: def.ID, Name: def.Name, Type: def.Type, TypeConfig: def.TypeConfig, Value: values[def.ID],
		})
		seen[def.ID] = true
	}
	var extra []string
	for id := range values {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		fields = append(fields, clickup.TaskField{ID: id, Value: values[id]})
	}
	out.CustomFields = fields
	return out
}

func setValue(t *clickup.Task, fieldID string, value any) {
	for i := range t.CustomFields {
		if t.CustomFields[i].ID == fieldID {
			t.CustomFields[i].Value = value
			return
		}
	}
	t.CustomFields = append(t.CustomFields, clickup.TaskField{ID: fieldID, Value: value})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"err": msg, "ECODE": "TEST_" + strconv.Itoa(status)})
}
