package printer

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/bluefn/spind/internal/model"
)

// TablePrinter prints task and deployment information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintTaskList prints tasks in a table format.
func (t *TablePrinter) PrintTaskList(tasks []model.BuildTask) error {
	if len(tasks) == 0 {
		fmt.Fprintln(t.writer, "No tasks found")
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header
	fmt.Fprintln(tw, "ID\tSTATUS\tIMAGE\tCREATED")

	// Print rows
	for _, task := range tasks {
		imageRef := ""
		if task.Result != nil {
			imageRef = task.Result.ImageRef
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", task.ID, task.Status, imageRef, TimeAgo(task.CreatedAt))
	}
	fmt.Fprintf(tw, "\nTotal: %d\n", len(tasks))

	return nil
}

// PrintTaskStatus prints detailed task status.
func (t *TablePrinter) PrintTaskStatus(task model.BuildTask) error {
	fmt.Fprintf(t.writer, "ID:         %s\n", task.ID)
	fmt.Fprintf(t.writer, "Workspace:  %s\n", task.WorkspaceID)
	fmt.Fprintf(t.writer, "Status:     %s\n", task.Status)
	fmt.Fprintf(t.writer, "Source:     %s\n", task.SourceRef)

	if task.Result != nil {
		fmt.Fprintf(t.writer, "Artifact:   %s\n", task.Result.ArtifactRef)
		fmt.Fprintf(t.writer, "Image:      %s\n", task.Result.ImageRef)
	}

	if task.Error != "" {
		fmt.Fprintf(t.writer, "Error:      %s\n", task.Error)
	}

	fmt.Fprintf(t.writer, "Created:    %s\n", FormatTimestamp(task.CreatedAt))
	fmt.Fprintf(t.writer, "Updated:    %s\n", FormatTimestamp(task.UpdatedAt))

	return nil
}

// PrintDeployResult prints the outcome of a deployment.
func (t *TablePrinter) PrintDeployResult(result model.DeployResult) error {
	action := "updated"
	if result.Created {
		action = "created"
	}

	fmt.Fprintf(t.writer, "App:          %s (%s)\n", result.AppName, action)
	fmt.Fprintf(t.writer, "Namespace:    %s\n", result.Namespace)
	fmt.Fprintf(t.writer, "Service:      %s (%s)\n", result.ServiceName, result.ServiceStatus)
	fmt.Fprintf(t.writer, "Endpoint:     %s\n", result.Endpoint)
	fmt.Fprintf(t.writer, "Autoscaling:  %t\n", result.EnableAutoscaling)
	fmt.Fprintf(t.writer, "Spot:         %t\n", result.UseSpot)

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}
