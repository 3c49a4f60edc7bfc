package clickup_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/leadsync/internal/clickup"
	"github.com/agentstation/leadsync/internal/clickup/clickuptest"
	"github.com/agentstation/leadsync/pkg/errors"
)

const listID = "901"

func TestListFields(t *testing.T) {
	srv := clickuptest.New(t)
	srv.AddFields(listID, clickup.Field{
		ID: "f-products", Name: "Produtos", Type: "labels",
		TypeConfig: clickup.TypeConfig{Options: []clickup.Option{{ID: "o1", Label: "Curso A"}, {ID: "o2", Name: "Curso B"}}},
	})

	fields, err := srv.Client().ListFields(context.Background(), listID)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "Produtos", fields[0].Name)
	assert.Equal(t, "Curso A", fields[0].TypeConfig.Options[0].DisplayLabel())
	assert.Equal(t, "Curso B", fields[0].TypeConfig.Options[1].DisplayLabel())
}

func TestSearchTasksFilterAndPaging(t *testing.T) {
	srv := clickuptest.New(t)
	srv.PageSize = 2
	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		srv.AddTask(listID, clickup.Task{Name: email, CustomFields: []clickup.TaskField{{ID: "f-email", Value: email}}})
	}
	c := srv.Client()
	ctx := context.Background()

	page, err := c.SearchTasks(ctx, listID, clickup.TaskQuery{
		Filters: []clickup.FieldFilter{{FieldID: "f-email", Operator: "=", Value: "B@X.com"}},
	})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, "b@x.com", page.Tasks[0].Name)

	first, err := c.SearchTasks(ctx, listID, clickup.TaskQuery{Page: 0})
	require.NoError(t, err)
	assert.Len(t, first.Tasks, 2)
	assert.False(t, first.LastPage)

	second, err := c.SearchTasks(ctx, listID, clickup.TaskQuery{Page: 1})
	require.NoError(t, err)
	assert.Len(t, second.Tasks, 1)
	assert.True(t, second.LastPage)

	reqs := srv.Requests()
	assert.Equal(t, `[{"field_id":"f-email","operator":"=","value":"B@X.com"}]`, reqs[0].Query.Get("custom_fields"))
	assert.Equal(t, "false", reqs[0].Query.Get("archived"))
}

func TestCreateUpdateAndPartialWrites(t *testing.T) {
	srv := clickuptest.New(t)
	c := srv.Client()
	ctx := context.Background()

	prio := 3
	task, err := c.CreateTask(ctx, listID, clickup.CreateTaskRequest{
		Name:         "Ana",
		Tags:         []string{"curso a"},
		Priority:     &prio,
		CustomFields: []clickup.FieldValues{{ID: "f-email", Value: "ana@x.com"}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, task.ID)
	assert.Equal(t, "ana@x.com", task.FieldString("f-email"))

	require.NoError(t, c.UpdateTask(ctx, task.ID, clickup.UpdateTaskRequest{Name: "Ana Maria", Description: "hello"}))
	require.NoError(t, c.SetFieldValue(ctx, task.ID, "f-amount", 12.5))
	require.NoError(t, c.AddTag(ctx, task.ID, "sp"))
	require.NoError(t, c.AddComment(ctx, task.ID, "updated"))

	got, err := c.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", got.Name)
	assert.Equal(t, "hello", got.Description)
	assert.Equal(t, []string{"curso a", "sp"}, got.TagNames())
	assert.Equal(t, "12.5", got.FieldString("f-amount"))
	assert.Equal(t, []string{"updated"}, srv.Comments(task.ID))
}

func TestSetFieldValueFallsBackToValueEndpoint(t *testing.T) {
	srv := clickuptest.New(t)
	srv.ValueEndpointOnly = true
	id := srv.AddTask(listID, clickup.Task{Name: "Ana"})

	require.NoError(t, srv.Client().SetFieldValue(context.Background(), id, "f-phone", "+5511987654321"))

	task, _ := srv.Task(id)
	assert.Equal(t, "+5511987654321", task.FieldString("f-phone"))
	assert.Equal(t, 1, srv.CountRequests(http.MethodPost, "/task/"+id+"/field/f-phone/value"))
	assert.Equal(t, 2, srv.CountRequests(http.MethodPost, "/task/"+id+"/field/"))
}

func TestSetFieldValueDoesNotRetryOtherErrors(t *testing.T) {
	srv := clickuptest.New(t)
	id := srv.AddTask(listID, clickup.Task{Name: "Ana"})
	srv.Fail(http.MethodPost, "/task/"+id+"/field/f-phone", http.StatusBadRequest, 1)

	err := srv.Client().SetFieldValue(context.Background(), id, "f-phone", "x")
	require.Error(t, err)
	assert.Equal(t, 1, srv.CountRequests(http.MethodPost, "/task/"+id+"/field/"))
}

func TestErrorsAreTyped(t *testing.T) {
	srv := clickuptest.New(t)
	c := srv.Client()
	ctx := context.Background()

	_, err := c.GetTask(ctx, "missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	srv.Fail(http.MethodGet, "/list/"+listID+"/field", http.StatusTooManyRequests, 1)
	_, err = c.ListFields(ctx, listID)
	assert.True(t, errors.IsRateLimited(err))

	bad := clickup.New(clickup.Config{BaseURL: srv.URL, Token: "wrong"})
	_, err = bad.ListFields(ctx, listID)
	assert.True(t, errors.IsAPIKeyError(err))
}

func TestTaskHelpers(t *testing.T) {
	task := &clickup.Task{CustomFields: []clickup.TaskField{
		{ID: "n", Value: float64(1234.5)},
		{ID: "s", Value: "text"},
		{ID: "l", Value: []any{"a"}},
		{ID: "empty"},
	}}
	assert.Equal(t, "1234.5", task.FieldString("n"))
	assert.Equal(t, "text", task.FieldString("s"))
	assert.Equal(t, "", task.FieldString("l"))
	_, ok := task.FieldValue("empty")
	assert.False(t, ok)
	_, ok = task.FieldValue("")
	assert.False(t, ok)
}
