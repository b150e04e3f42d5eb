package web

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderIndex(t *testing.T) {
	var buf bytes.Buffer
	data := NewIndexData("0b5c7c1e-2f4e-4b61-9a55-7d7c0d8f9a10", "16 MiB")

	if err := RenderIndex(&buf, data); err != nil {
		t.Fatalf("RenderIndex() error = %v", err)
	}

	page := buf.String()
	for _, want := range []string{
		`data-session="0b5c7c1e-2f4e-4b61-9a55-7d7c0d8f9a10"`,
		"evictions.csv",
		"mortgage_foreclosures.csv",
		"tax_lien_foreclosures.csv",
		"up to 16 MiB",
		`new EventSource("/events")`,
		`source.addEventListener("toolphoto"`,
		`source.addEventListener("uploadcomplete"`,
		"uploadcomplete: () => {",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestNewIndexData(t *testing.T) {
	data := NewIndexData("s", "1 MiB")
	if len(data.Categories) != 3 {
		t.Errorf("expected 3 categories, got %d", len(data.Categories))
	}
	if len(data.Events) != 8 {
		t.Errorf("expected 8 event names, got %d", len(data.Events))
	}
}
