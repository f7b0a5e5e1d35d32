package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bluefn/spind/internal/model"
)

func TestTaskStatusTransitions(t *testing.T) {
	tests := map[string]struct {
		from     model.TaskStatus
		to       model.TaskStatus
		expAllow bool
	}{
		"Pending can start building.": {
			from: model.TaskStatusPending, to: model.TaskStatusBuilding, expAllow: true,
		},

		"Pending cannot jump to pushing.": {
			from: model.TaskStatusPending, to: model.TaskStatusPushing, expAllow: false,
		},

		"Pending cannot fail before building.": {
			from: model.TaskStatusPending, to: model.TaskStatusFailed, expAllow: false,
		},

		"Building can move to pushing.": {
			from: model.TaskStatusBuilding, to: model.TaskStatusPushing, expAllow: true,
		},

		"Building can fail.": {
			from: model.TaskStatusBuilding, to: model.TaskStatusFailed, expAllow: true,
		},

		"Building cannot finish directly.": {
			from: model.TaskStatusBuilding, to: model.TaskStatusDone, expAllow: false,
		},

		"Pushing can finish.": {
			from: model.TaskStatusPushing, to: model.TaskStatusDone, expAllow: true,
		},

		"Pushing can fail.": {
			from: model.TaskStatusPushing, to: model.TaskStatusFailed, expAllow: true,
		},

		"Done is terminal.": {
			from: model.TaskStatusDone, to: model.TaskStatusBuilding, expAllow: false,
		},

		"Failed is terminal.": {
			from: model.TaskStatusFailed, to: model.TaskStatusPending, expAllow: false,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			assert.Equal(test.expAllow, test.from.CanTransitionTo(test.to))
		})
	}
}

func TestTaskStatusTerminal(t *testing.T) {
	assert := assert.New(t)

	assert.False(model.TaskStatusPending.Terminal())
	assert.False(model.TaskStatusBuilding.Terminal())
	assert.False(model.TaskStatusPushing.Terminal())
	assert.True(model.TaskStatusDone.Terminal())
	assert.True(model.TaskStatusFailed.Terminal())
}

func TestBuildTaskValidate(t *testing.T) {
	validTask := func() model.BuildTask {
		return model.BuildTask{
			ID:          "01JMXYZ",
			WorkspaceID: "ws1",
			SourceRef:   "blob://sha256:abc",
			Status:      model.TaskStatusPending,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
	}

	tests := map[string]struct {
		task   func() model.BuildTask
		expErr error
	}{
		"A correct task should be valid.": {
			task: validTask,
		},

		"A task without id should not be valid.": {
			task: func() model.BuildTask {
				tk := validTask()
				tk.ID = ""
				return tk
			},
			expErr: model.ErrNotValid,
		},

		"A task without workspace should not be valid.": {
			task: func() model.BuildTask {
				tk := validTask()
				tk.WorkspaceID = ""
				return tk
			},
			expErr: model.ErrNotValid,
		},

		"A task without source ref should not be valid.": {
			task: func() model.BuildTask {
				tk := validTask()
				tk.SourceRef = ""
				return tk
			},
			expErr: model.ErrNotValid,
		},

		"A task with an unknown status should not be valid.": {
			task: func() model.BuildTask {
				tk := validTask()
				tk.Status = model.TaskStatus("sleeping")
				return tk
			},
			expErr: model.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			err := test.task().Validate()
			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
			} else {
				assert.NoError(err)
			}
		})
	}
}
