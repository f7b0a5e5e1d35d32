package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluefn/spind/internal/model"
	"github.com/bluefn/spind/internal/storage/sqlite"
)

func newTestRepository(t *testing.T) *sqlite.Repository {
	t.Helper()

	repo, err := sqlite.NewRepository(context.Background(), sqlite.RepositoryConfig{
		DBPath: filepath.Join(t.TempDir(), "spind.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func testTask(id, workspaceID string, createdAt time.Time) model.BuildTask {
	return model.BuildTask{
		ID:          id,
		WorkspaceID: workspaceID,
		SourceRef:   "blob://sha256:abc",
		Status:      model.TaskStatusPending,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func TestRepositoryCreateGet(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	repo := newTestRepository(t)

	now := time.Now().UTC().Truncate(time.Second)
	task := testTask("task1", "ws1", now)
	require.NoError(repo.CreateTask(ctx, task))

	err := repo.CreateTask(ctx, task)
	assert.ErrorIs(err, model.ErrAlreadyExists)

	got, err := repo.GetTask(ctx, "ws1", "task1")
	require.NoError(err)
	assert.Equal("task1", got.ID)
	assert.Equal("ws1", got.WorkspaceID)
	assert.Equal(model.TaskStatusPending, got.Status)
	assert.Equal(now, got.CreatedAt)
	assert.Nil(got.Result)
}

func TestRepositoryWorkspaceScoping(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	repo := newTestRepository(t)

	require.NoError(repo.CreateTask(ctx, testTask("task1", "ws1", time.Now().UTC())))

	_, err := repo.GetTask(ctx, "ws2", "task1")
	assert.ErrorIs(err, model.ErrNotFound)

	tasks, err := repo.ListTasks(ctx, "ws2")
	require.NoError(err)
	assert.Empty(tasks)
}

func TestRepositoryListOrdering(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	repo := newTestRepository(t)

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(repo.CreateTask(ctx, testTask("task1", "ws1", base)))
	require.NoError(repo.CreateTask(ctx, testTask("task2", "ws1", base.Add(time.Minute))))
	require.NoError(repo.CreateTask(ctx, testTask("other", "ws2", base.Add(time.Hour))))

	tasks, err := repo.ListTasks(ctx, "ws1")
	require.NoError(err)
	require.Len(tasks, 2)
	assert.Equal("task2", tasks[0].ID)
	assert.Equal("task1", tasks[1].ID)
}

func TestRepositoryUpdateRoundTrip(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	repo := newTestRepository(t)

	task := testTask("task1", "ws1", time.Now().UTC().Truncate(time.Second))
	require.NoError(repo.CreateTask(ctx, task))

	task.Status = model.TaskStatusDone
	task.Result = &model.TaskResult{
		ArtifactRef: "blob://sha256:art",
		ImageRef:    "registry.local/ws1/app:task1",
	}
	task.UpdatedAt = task.UpdatedAt.Add(time.Minute)
	require.NoError(repo.UpdateTask(ctx, task))

	got, err := repo.GetTask(ctx, "ws1", "task1")
	require.NoError(err)
	assert.Equal(model.TaskStatusDone, got.Status)
	require.NotNil(got.Result)
	assert.Equal("blob://sha256:art", got.Result.ArtifactRef)
	assert.Equal("registry.local/ws1/app:task1", got.Result.ImageRef)

	missing := testTask("nope", "ws1", time.Now().UTC())
	err = repo.UpdateTask(ctx, missing)
	assert.ErrorIs(err, model.ErrNotFound)
}

func TestRepositoryFailedTask(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	repo := newTestRepository(t)

	task := testTask("task1", "ws1", time.Now().UTC())
	require.NoError(repo.CreateTask(ctx, task))

	task.Status = model.TaskStatusFailed
	task.Error = "build failed: exit status 1"
	require.NoError(repo.UpdateTask(ctx, task))

	got, err := repo.GetTask(ctx, "ws1", "task1")
	require.NoError(err)
	assert.Equal(model.TaskStatusFailed, got.Status)
	assert.Equal("build failed: exit status 1", got.Error)
	assert.Nil(got.Result)
}

func TestRepositoryAcquireLease(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	repo := newTestRepository(t)

	require.NoError(repo.CreateTask(ctx, testTask("task1", "ws1", time.Now().UTC())))

	ok, err := repo.AcquireLease(ctx, "task1")
	require.NoError(err)
	assert.True(ok)

	ok, err = repo.AcquireLease(ctx, "task1")
	require.NoError(err)
	assert.False(ok)

	_, err = repo.AcquireLease(ctx, "missing")
	assert.ErrorIs(err, model.ErrNotFound)
}
