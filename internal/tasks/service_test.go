// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

package tasks_test

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/tasknest/internal/platform/apperr"
	"github.com/tasknest/tasknest/internal/tasks"
	"github.com/tasknest/tasknest/pkg/pagination"
)

// # Fakes

type fakeTaskRepo struct {
	mu        sync.Mutex
	store     map[string]*tasks.Task
	listCalls int
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{store: make(map[string]*tasks.Task)}
}

func (r *fakeTaskRepo) Create(_ context.Context, task *tasks.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *task
	r.store[task.ID] = &clone
	return nil
}

func (r *fakeTaskRepo) FindByIDForUser(_ context.Context, id, userID string) (*tasks.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.store[id]
	if !ok || task.UserID != userID {
		return nil, apperr.NotFound("Task")
	}
	clone := *task
	return &clone, nil
}

func (r *fakeTaskRepo) List(_ context.Context, userID string, filter tasks.ListFilter, params pagination.Params) ([]tasks.Task, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++

	matched := make([]tasks.Task, 0)
	for _, task := range r.store {
		if task.UserID != userID {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.DueBefore != nil {
			if task.DueDate == nil || !task.DueDate.Before(*filter.DueBefore) {
				continue
			}
		}
		matched = append(matched, *task)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	offset := params.Offset()
	if offset > total {
		offset = total
	}
	end := offset + params.Limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *fakeTaskRepo) Update(_ context.Context, task *tasks.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.store[task.ID]
	if !ok || existing.UserID != task.UserID {
		return apperr.NotFound("Task")
	}
	clone := *task
	r.store[task.ID] = &clone
	return nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.store[id]
	if !ok || existing.UserID != userID {
		return apperr.NotFound("Task")
	}
	delete(r.store, id)
	return nil
}

func (r *fakeTaskRepo) listCallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listCalls
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *fakeNotifier) record(event string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *fakeNotifier) TaskCreated(_ context.Context, _ *tasks.Task) error {
	return n.record("task_created")
}

func (n *fakeNotifier) TaskUpdated(_ context.Context, _ *tasks.Task) error {
	return n.record("task_updated")
}

func (n *fakeNotifier) TaskDeleted(_ context.Context, _ *tasks.Task) error {
	return n.record("task_deleted")
}

func (n *fakeNotifier) recorded() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

// # Fixture

type fixture struct {
	service  *tasks.Service
	repo     *fakeTaskRepo
	notifier *fakeNotifier
	redis    *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newFakeTaskRepo()
	notifier := &fakeNotifier{}
	service := tasks.NewService(repo, tasks.NewListCache(client), notifier, time.Hour, slog.Default())

	return &fixture{service: service, repo: repo, notifier: notifier, redis: server}
}

func defaultParams() pagination.Params {
	return pagination.Params{Page: 1, Limit: 20}
}

// # Listing and the Read-Through Cache

/*
TestService_List_ReadThrough verifies the populate-then-hit cycle: the first
listing goes to the repository and fills Redis, the second identical listing
is served from the cached page.
*/
func TestService_List_ReadThrough(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), "user-1", tasks.CreateInput{Title: "Write report"})
	require.NoError(t, err)

	page, meta, err := f.service.List(context.Background(), "user-1", tasks.ListFilter{}, defaultParams())
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, 1, meta.Total)
	assert.Equal(t, 1, f.repo.listCallCount())

	again, _, err := f.service.List(context.Background(), "user-1", tasks.ListFilter{}, defaultParams())
	require.NoError(t, err)
	assert.Equal(t, page[0].ID, again[0].ID)
	assert.Equal(t, 1, f.repo.listCallCount(), "second identical listing must be a cache hit")
}

func TestService_List_DistinctFiltersUseDistinctPages(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), "user-1", tasks.CreateInput{Title: "A", Status: tasks.StatusDone})
	require.NoError(t, err)
	_, err = f.service.Create(context.Background(), "user-1", tasks.CreateInput{Title: "B"})
	require.NoError(t, err)

	all, _, err := f.service.List(context.Background(), "user-1", tasks.ListFilter{}, defaultParams())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	done, _, err := f.service.List(context.Background(), "user-1", tasks.ListFilter{Status: tasks.StatusDone}, defaultParams())
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "A", done[0].Title)

	// A filtered page never shadows the unfiltered one.
	assert.Equal(t, 2, f.repo.listCallCount())
}

func TestService_List_DueBeforeFilter(t *testing.T) {
	f := newFixture(t)

	soon := time.Now().Add(time.Hour).UTC()
	later := time.Now().Add(48 * time.Hour).UTC()

	_, err := f.service.Create(context.Background(), "user-1", tasks.CreateInput{Title: "Urgent", DueDate: &soon})
	require.NoError(t, err)
	_, err = f.service.Create(context.Background(), "user-1", tasks.CreateInput{Title: "Later", DueDate: &later})
	require.NoError(t, err)
	_, err = f.service.Create(context.Background(), "user-1", tasks.CreateInput{Title: "Undated"})
	require.NoError(t, err)

	cutoff := time.Now().Add(24 * time.Hour).UTC()
	page, meta, err := f.service.List(context.Background(), "user-1", tasks.ListFilter{DueBefore: &cutoff}, defaultParams())
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Urgent", page[0].Title)
	assert.Equal(t, 1, meta.Total)
}

/*
TestService_List_RedisDownDegrades verifies that a dead cache only costs
latency: listings fall through to the repository and still succeed.
*/
func TestService_List_RedisDownDegrades(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), "user-1", tasks.CreateInput{Title: "Survivor"})
	require.NoError(t, err)

	f.redis.Close()

	page, _, err := f.service.List(context.Background(), "user-1", tasks.ListFilter{}, defaultParams())
	require.NoError(t, err)
	assert.Len(t, page, 1)

	_, _, err = f.service.List(context.Background(), "user-1", tasks.ListFilter{}, defaultParams())
	require.NoError(t, err)
	assert.Equal(t, 2, f.repo.listCallCount(), "every listing hits the repository while Redis is down")
}

// # Mutations and Invalidation

/*
TestService_Create_InvalidatesListPages verifies that a cached listing can
never be served after a mutation acknowledged to the client: the create
drops the owner's pages, so the next listing rebuilds from the database and
includes the new task.
*/
func TestService_Create_InvalidatesListPages(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), "user-1", tasks.CreateInput{Title: "First"})
	require.NoError(t, err)

	page, _, err := f.service.List(context.Background(), "user-1", tasks.ListFilter{}, defaultParams())
	require.NoError(t, err)
	require.Len(t, page, 1)

	_, err = f.service.Create(context.Background(), "user-1", tasks.CreateInput{Title: "Second"})
	require.NoError(t, err)

	page, meta, err := f.service.List(context.Background(), "user-1", tasks.ListFilter{}, defaultParams())
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.Equal(t, 2, meta.Total)
}

func TestService_Update_InvalidatesListPages(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Create(context.Background(), "user-1", tasks.CreateInput{Title: "Draft"})
	require.NoError(t, err)

	_, _, err = f.service.List(context.Background(), "user-1", tasks.ListFilter{}, defaultParams())
	require.NoError(t, err)

	newStatus := tasks.StatusDone
	updated, err := f.service.Update(context.Background(), created.ID, "user-1", tasks.UpdateInput{Status: &newStatus})
	require.NoError(t, err)
	assert.Equal(t, tasks.StatusDone, updated.Status)

	page, _, err := f.service.List(context.Background(), "user-1", tasks.ListFilter{}, defaultParams())
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, tasks.StatusDone, page[0].Status, "listing after an acknowledged update must reflect it")
}

func TestService_Update_InvalidationFailureFailsRequest(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Create(context.Background(), "user-1", tasks.CreateInput{Title: "Doomed"})
	require.NoError(t, err)

	f.redis.Close()

	title := "Renamed"
	_, err = f.service.Update(context.Background(), created.ID, "user-1", tasks.UpdateInput{Title: &title})
	require.Error(t, err)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "SERVICE_UNAVAILABLE", appErr.Code)
}

func TestService_Delete_InvalidatesAndNotifies(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Create(context.Background(), "user-1", tasks.CreateInput{Title: "Temp"})
	require.NoError(t, err)

	_, _, err = f.service.List(context.Background(), "user-1", tasks.ListFilter{}, defaultParams())
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(context.Background(), created.ID, "user-1"))

	page, meta, err := f.service.List(context.Background(), "user-1", tasks.ListFilter{}, defaultParams())
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.Equal(t, 0, meta.Total)

	assert.Equal(t, []string{"task_created", "task_deleted"}, f.notifier.recorded())
}

// # Ownership

func TestService_Get_WrongOwnerReadsAsMissing(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Create(context.Background(), "user-1", tasks.CreateInput{Title: "Private"})
	require.NoError(t, err)

	_, err = f.service.Get(context.Background(), created.ID, "user-2")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestService_Delete_WrongOwnerLeavesTask(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Create(context.Background(), "user-1", tasks.CreateInput{Title: "Private"})
	require.NoError(t, err)

	err = f.service.Delete(context.Background(), created.ID, "user-2")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))

	still, err := f.service.Get(context.Background(), created.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Private", still.Title)
}

// # Defaults

func TestService_Create_DefaultsStatusTodo(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Create(context.Background(), "user-1", tasks.CreateInput{Title: "Fresh"})
	require.NoError(t, err)
	assert.Equal(t, tasks.StatusTodo, created.Status)
	assert.NotEmpty(t, created.ID)
}
