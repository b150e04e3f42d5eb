package tasks

import (
	"fmt"

	"github.com/desertthunder/feat/internal/events"
)

const (
	alreadyRunningMessage = "The tool is already running. Please wait till the tool is finished or refresh the browser to start over."
	missingInputMessage   = "No file is selected. Please select a file using the 'Browse'."
)

func alreadyRunningEvent() events.Event {
	return events.Info(events.ToolAR, alreadyRunningMessage)
}

func missingInputEvent() events.Event {
	return events.Error("File Missing", missingInputMessage)
}

func logLineEvent(line string) events.Event {
	return events.Info(events.LogTool, line+"<br>")
}

// errorReportEvent formats a failure the way the page renders it in the log pane.
func errorReportEvent(err error, stage string) events.Event {
	return events.Info(events.LogTool, fmt.Sprintf("ERROR: %v<br>Stage: %s<br><br>", err, stage))
}

func chartEvent(dataURI string) events.Event {
	return events.Info(events.ToolPhoto, dataURI)
}
