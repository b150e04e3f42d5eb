// Package web renders the single page that drives an analysis session.
//
// The page posts uploads to /, starts the tool with /run and listens on /events for named events.
// It carries no styling; output is appended to a log pane as it arrives.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/desertthunder/feat/internal/events"
	"github.com/desertthunder/feat/internal/upload"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"filename": func(c upload.Category) string { return c.FileName() },
}).ParseFS(templateFS, "templates/*.html"))

// IndexData is rendered into the index page.
type IndexData struct {
	Session    string
	Categories []upload.Category
	MaxSize    string
	Events     []string
}

// NewIndexData fills in the categories and event names the page listens for.
func NewIndexData(session, maxSize string) IndexData {
	return IndexData{
		Session:    session,
		Categories: upload.Categories,
		MaxSize:    maxSize,
		Events: []string{
			events.LoadIcon, events.ClearOutput, events.LogTool, events.ToolAR,
			events.LogError, events.ToolPhoto, events.ShowZip, events.UploadComplete,
		},
	}
}

// RenderIndex writes the index page to w.
func RenderIndex(w io.Writer, data IndexData) error {
	if err := templates.ExecuteTemplate(w, "index.html", data); err != nil {
		return fmt.Errorf("failed to render index: %w", err)
	}
	return nil
}
