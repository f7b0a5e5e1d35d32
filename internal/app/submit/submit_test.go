package submit_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluefn/spind/internal/app/submit"
	blobfs "github.com/bluefn/spind/internal/blob/fs"
)

type recordSubmitter struct {
	err        error
	workspaces []string
	sourceRefs []string
}

func (r *recordSubmitter) Submit(ctx context.Context, workspaceID, sourceRef string) (string, error) {
	r.workspaces = append(r.workspaces, workspaceID)
	r.sourceRefs = append(r.sourceRefs, sourceRef)
	if r.err != nil {
		return "", r.err
	}
	return "task-1", nil
}

func TestServiceRun(t *testing.T) {
	tests := map[string]struct {
		submitter  *recordSubmitter
		expTaskID  string
		expErr     bool
		expSubmits int
	}{
		"Submitting a source should store it and return the task id.": {
			submitter:  &recordSubmitter{},
			expTaskID:  "task-1",
			expSubmits: 1,
		},

		"A failing submitter should fail the request.": {
			submitter:  &recordSubmitter{err: fmt.Errorf("queue full")},
			expErr:     true,
			expSubmits: 1,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			blobs, err := blobfs.NewStore(blobfs.StoreConfig{Dir: t.TempDir()})
			require.NoError(err)

			svc, err := submit.NewService(submit.ServiceConfig{
				Blobs:     blobs,
				Submitter: test.submitter,
			})
			require.NoError(err)

			taskID, err := svc.Run(context.TODO(), submit.Request{
				WorkspaceID: "ws-1",
				Source:      strings.NewReader("source archive"),
			})

			if test.expErr {
				assert.Error(err)
			} else {
				assert.NoError(err)
				assert.Equal(test.expTaskID, taskID)
			}

			require.Len(test.submitter.sourceRefs, test.expSubmits)
			assert.Equal([]string{"ws-1"}, test.submitter.workspaces)

			// The stored source must be readable back through the ref the
			// submitter received.
			rc, err := blobs.Open(context.TODO(), test.submitter.sourceRefs[0])
			require.NoError(err)
			defer rc.Close()
		})
	}
}
