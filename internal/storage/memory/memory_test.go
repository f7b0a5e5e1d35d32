package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluefn/spind/internal/model"
	"github.com/bluefn/spind/internal/storage/memory"
)

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

	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(err)

	task := testTask("task1", "ws1", time.Now().UTC())
	require.NoError(repo.CreateTask(ctx, task))

	// Duplicate ids are rejected.
	err = repo.CreateTask(ctx, task)
	assert.ErrorIs(err, model.ErrAlreadyExists)

	got, err := repo.GetTask(ctx, "ws1", "task1")
	require.NoError(err)
	assert.Equal(task.ID, got.ID)
	assert.Equal(model.TaskStatusPending, got.Status)
}

func TestRepositoryWorkspaceScoping(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(err)

	require.NoError(repo.CreateTask(ctx, testTask("task1", "ws1", time.Now().UTC())))

	// The task id exists but the workspace doesn't match.
	_, err = repo.GetTask(ctx, "ws2", "task1")
	assert.ErrorIs(err, model.ErrNotFound)

	tasks, err := repo.ListTasks(ctx, "ws2")
	require.NoError(err)
	assert.Empty(tasks)
}

func TestRepositoryListOrdering(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(err)

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(repo.CreateTask(ctx, testTask("task1", "ws1", base)))
	require.NoError(repo.CreateTask(ctx, testTask("task2", "ws1", base.Add(time.Minute))))
	require.NoError(repo.CreateTask(ctx, testTask("task3", "ws1", base.Add(2*time.Minute))))
	require.NoError(repo.CreateTask(ctx, testTask("other", "ws2", base.Add(3*time.Minute))))

	tasks, err := repo.ListTasks(ctx, "ws1")
	require.NoError(err)
	require.Len(tasks, 3)
	assert.Equal("task3", tasks[0].ID)
	assert.Equal("task2", tasks[1].ID)
	assert.Equal("task1", tasks[2].ID)
}

func TestRepositoryUpdate(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(err)

	task := testTask("task1", "ws1", time.Now().UTC())
	require.NoError(repo.CreateTask(ctx, task))

	task.Status = model.TaskStatusBuilding
	require.NoError(repo.UpdateTask(ctx, task))

	got, err := repo.GetTask(ctx, "ws1", "task1")
	require.NoError(err)
	assert.Equal(model.TaskStatusBuilding, got.Status)

	// Updating a missing task fails.
	missing := testTask("nope", "ws1", time.Now().UTC())
	err = repo.UpdateTask(ctx, missing)
	assert.ErrorIs(err, model.ErrNotFound)

	// Updating from the wrong workspace fails.
	task.WorkspaceID = "ws2"
	err = repo.UpdateTask(ctx, task)
	assert.ErrorIs(err, model.ErrNotFound)
}

func TestRepositoryAcquireLease(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(err)

	require.NoError(repo.CreateTask(ctx, testTask("task1", "ws1", time.Now().UTC())))

	ok, err := repo.AcquireLease(ctx, "task1")
	require.NoError(err)
	assert.True(ok)

	// Second acquisition loses the race.
	ok, err = repo.AcquireLease(ctx, "task1")
	require.NoError(err)
	assert.False(ok)

	_, err = repo.AcquireLease(ctx, "missing")
	assert.ErrorIs(err, model.ErrNotFound)
}

func TestRepositoryReturnsCopies(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(err)

	task := testTask("task1", "ws1", time.Now().UTC())
	task.Result = &model.TaskResult{ArtifactRef: "blob://sha256:art"}
	task.Status = model.TaskStatusPending
	require.NoError(repo.CreateTask(ctx, task))

	got, err := repo.GetTask(ctx, "ws1", "task1")
	require.NoError(err)
	got.Result.ArtifactRef = "mutated"

	again, err := repo.GetTask(ctx, "ws1", "task1")
	require.NoError(err)
	assert.Equal("blob://sha256:art", again.Result.ArtifactRef)
}
