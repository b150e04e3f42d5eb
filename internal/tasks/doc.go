// Package tasks runs the external housing-loss analysis tool over a session's uploads.
//
// [ToolRunner.Run] is the server side of the page's "run tool" button. It guards against concurrent runs
// of the same session, pipes the tool's stdout to the session's event stream line by line, inlines the
// resulting chart as a base64 data URI, and archives the output tree for download.
//
// Event order for a successful run:
//
//	clearoutput, loadicon, logTool..., toolphoto (if a chart was produced), showzip
//
// A second run while one is active yields a single toolAR event; a run before any upload yields logerror.
package tasks
