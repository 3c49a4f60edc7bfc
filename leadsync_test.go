package leadsync_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/leadsync"
	"github.com/agentstation/leadsync/internal/clickup"
	"github.com/agentstation/leadsync/internal/clickup/clickuptest"
	"github.com/agentstation/leadsync/internal/server/cache"
	"github.com/agentstation/leadsync/pkg/batch"
	"github.com/agentstation/leadsync/pkg/errors"
	"github.com/agentstation/leadsync/pkg/leads"
	"github.com/agentstation/leadsync/pkg/logging"
	"github.com/agentstation/leadsync/pkg/reconcile"
)

const listID = "L1"

func newClient(t *testing.T, srv *clickuptest.Server, opts ...leadsync.Option) leadsync.Client {
	t.Helper()
	base := []leadsync.Option{
		leadsync.WithToken(clickuptest.Token),
		leadsync.WithListID(listID),
		leadsync.WithBaseURL(srv.URL),
		leadsync.WithLogger(logging.NewNopLogger()),
	}
	c, err := leadsync.New(append(base, opts...)...)
	require.NoError(t, err)
	return c
}

func seed(srv *clickuptest.Server) {
	srv.AddFields(listID,
		clickup.Field{ID: "f-email", Name: "Email", Type: "email"},
		clickup.Field{ID: "f-products", Name: "Produtos", Type: "labels", TypeConfig: clickup.TypeConfig{
			Options: []clickup.Option{{ID: "opt-a", Label: "Curso A"}},
		}},
	)
}

func TestNewRequiresTokenAndList(t *testing.T) {
	_, err := leadsync.New(leadsync.WithListID(listID))
	require.Error(t, err)
	assert.True(t, errors.IsAPIKeyError(err))

	_, err = leadsync.New(leadsync.WithToken("tok"))
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))

	c, err := leadsync.New(leadsync.WithToken("tok"), leadsync.WithListID(listID))
	require.NoError(t, err)
	assert.Equal(t, listID, c.ListID())
}

func TestOptionValidation(t *testing.T) {
	tests := []struct {
		name string
		opt  leadsync.Option
	}{
		{"zero concurrency", leadsync.WithConcurrency(0)},
		{"excess concurrency", leadsync.WithConcurrency(10_000)},
		{"zero max pages", leadsync.WithLookupMaxPages(0)},
		{"negative timeout", leadsync.WithTimeout(-time.Second)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := leadsync.New(leadsync.WithToken("tok"), leadsync.WithListID(listID), tt.opt)
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))
		})
	}
}

func TestReconcileFiresHooks(t *testing.T) {
	srv := clickuptest.New(t)
	seed(srv)
	c := newClient(t, srv)

	var mu sync.Mutex
	seen := map[reconcile.Action]int{}
	record := func(o reconcile.Outcome) {
		mu.Lock()
		defer mu.Unlock()
		seen[o.Action]++
	}
	c.OnCreated(record)
	c.OnUpdated(record)
	c.OnSkipped(record)

	ctx := context.Background()
	lead := leads.Lead{Name: "Ana", Email: "ana@example.com", Products: leads.StringList{"Curso A"}}

	first := c.Reconcile(ctx, lead)
	require.Equal(t, reconcile.ActionCreated, first.Action, first.Error)

	second := c.ReconcileAll(ctx, []leads.Lead{lead, {Email: "x@example.com"}})
	require.Len(t, second, 2)
	assert.Equal(t, reconcile.ActionUpdated, second[0].Action)
	assert.Equal(t, first.TaskID, second[0].TaskID)
	assert.Equal(t, reconcile.ActionSkipped, second[1].Action)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[reconcile.Action]int{
		reconcile.ActionCreated: 1,
		reconcile.ActionUpdated: 1,
		reconcile.ActionSkipped: 1,
	}, seen)
}

func TestLookup(t *testing.T) {
	srv := clickuptest.New(t)
	seed(srv)
	id := srv.AddTask(listID, clickup.Task{Name: "Ana", CustomFields: []clickup.TaskField{{ID: "f-email", Value: "ana@example.com"}}})
	c := newClient(t, srv)

	task, err := c.Lookup(context.Background(), "  ANA@example.com ")
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, id, task.ID)

	task, err = c.Lookup(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, task)

	task, err = c.Lookup(context.Background(), " ")
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestSchemaCache(t *testing.T) {
	srv := clickuptest.New(t)
	seed(srv)
	c := newClient(t, srv, leadsync.WithSchemaCache(cache.New(time.Minute, 2*time.Minute)))

	ctx := context.Background()
	assert.Equal(t, 2, c.Schema(ctx).Len())
	assert.Equal(t, 2, c.Schema(ctx).Len())
	assert.Equal(t, 1, srv.CountRequests("GET", "/list/"+listID+"/field"))
}

func TestCreateTaskPassThrough(t *testing.T) {
	srv := clickuptest.New(t)
	c := newClient(t, srv)

	created := 0
	c.OnCreated(func(reconcile.Outcome) { created++ })

	out := c.CreateTask(context.Background(), leads.TaskPayload{Name: "Manual", Tags: []string{"vip"}})
	require.Equal(t, reconcile.ActionCreated, out.Action, out.Error)
	task, ok := srv.Task(out.TaskID)
	require.True(t, ok)
	assert.Equal(t, "Manual", task.Name)
	assert.Equal(t, []string{"vip"}, task.TagNames())
	assert.Equal(t, 1, created)
}

func TestImport(t *testing.T) {
	srv := clickuptest.New(t)
	seed(srv)
	c := newClient(t, srv, leadsync.WithStatusColumn("estado"))

	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,email,products\nAna,ana@example.com,Curso A\n"), 0o644))

	summary, err := c.Import(context.Background(), path, batch.WithConcurrency(1))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)
	assert.Empty(t, summary.Errors)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "estado")
	assert.Len(t, srv.Tasks(listID), 1)
}
