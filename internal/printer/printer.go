package printer

import "github.com/bluefn/spind/internal/model"

// Printer knows how to print task and deployment information in different
// formats.
type Printer interface {
	PrintTaskList(tasks []model.BuildTask) error
	PrintTaskStatus(task model.BuildTask) error
	PrintDeployResult(result model.DeployResult) error
	PrintMessage(msg string) error
}
