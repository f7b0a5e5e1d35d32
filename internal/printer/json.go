package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/bluefn/spind/internal/model"
)

// JSONPrinter prints task and deployment information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// taskItem represents a task in the list output (subset of fields).
type taskItem struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	ImageRef  string    `json:"image_ref,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// taskListOutput represents the task list output with its count.
type taskListOutput struct {
	Tasks []taskItem `json:"tasks"`
	Count int        `json:"count"`
}

// taskOutput represents the full task status output.
type taskOutput struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	SourceRef   string    `json:"source_ref"`
	Status      string    `json:"status"`
	ArtifactRef string    `json:"artifact_ref,omitempty"`
	ImageRef    string    `json:"image_ref,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// deployOutput represents the deployment result output.
type deployOutput struct {
	AppName           string `json:"app_name"`
	Namespace         string `json:"namespace"`
	Created           bool   `json:"created"`
	ServiceName       string `json:"service_name"`
	ServiceStatus     string `json:"service_status"`
	Endpoint          string `json:"endpoint"`
	EnableAutoscaling bool   `json:"enable_autoscaling"`
	UseSpot           bool   `json:"use_spot"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintTaskList prints tasks in JSON format with a subset of fields.
func (j *JSONPrinter) PrintTaskList(tasks []model.BuildTask) error {
	items := make([]taskItem, len(tasks))
	for i, task := range tasks {
		items[i] = taskItem{
			ID:        task.ID,
			Status:    string(task.Status),
			CreatedAt: task.CreatedAt.UTC(),
		}
		if task.Result != nil {
			items[i].ImageRef = task.Result.ImageRef
		}
	}

	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(taskListOutput{Tasks: items, Count: len(items)})
}

// PrintTaskStatus prints detailed task status in JSON format.
func (j *JSONPrinter) PrintTaskStatus(task model.BuildTask) error {
	output := taskOutput{
		ID:          task.ID,
		WorkspaceID: task.WorkspaceID,
		SourceRef:   task.SourceRef,
		Status:      string(task.Status),
		Error:       task.Error,
		CreatedAt:   task.CreatedAt.UTC(),
		UpdatedAt:   task.UpdatedAt.UTC(),
	}

	if task.Result != nil {
		output.ArtifactRef = task.Result.ArtifactRef
		output.ImageRef = task.Result.ImageRef
	}

	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

// PrintDeployResult prints the deployment result in JSON format.
func (j *JSONPrinter) PrintDeployResult(result model.DeployResult) error {
	output := deployOutput{
		AppName:           result.AppName,
		Namespace:         result.Namespace,
		Created:           result.Created,
		ServiceName:       result.ServiceName,
		ServiceStatus:     string(result.ServiceStatus),
		Endpoint:          result.Endpoint,
		EnableAutoscaling: result.EnableAutoscaling,
		UseSpot:           result.UseSpot,
	}

	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	output := messageOutput{Message: msg}
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
