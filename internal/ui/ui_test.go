package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/feat/internal/models"
)

func TestSessionTable(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	first := models.NewSession(1)
	first.SetID("0b5c7c1e-2f4e-4b61-9a55-7d7c0d8f9a10")
	first.SetCreatedAt(now.Add(-2 * time.Hour))
	first.SetUpdatedAt(now.Add(-2 * time.Hour))

	second := models.NewSession(2)
	second.SetID("6f1d2c3b-4a59-4e8f-8d7c-1b2a3c4d5e6f")
	second.SetStatus(models.StatusRunning)
	second.SetCreatedAt(now.Add(-time.Minute))
	second.SetUpdatedAt(now.Add(-time.Minute))

	out := SessionTable([]*models.Session{first, second}, now)

	for _, want := range []string{
		"SESSION", "STATUS",
		first.ID(), second.ID(),
		"stopped", "running",
		"2 hours ago", "1 minute ago",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestSummary(t *testing.T) {
	tt := []struct {
		n    int
		want string
	}{
		{0, "0 sessions"},
		{1, "1 session"},
		{5, "5 sessions"},
	}

	for _, tc := range tt {
		if got := Summary(tc.n, "session"); !strings.Contains(got, tc.want) {
			t.Errorf("Summary(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestPalette(t *testing.T) {
	p := NewPalette("#000000", "#111111", "#222222", "#333333", "#444444")
	for name, fn := range map[string]func(string) string{
		"title":   p.Title,
		"success": p.Success,
		"error":   p.Error,
		"warning": p.Warning,
		"help":    p.Help,
	} {
		if got := fn("text"); !strings.Contains(got, "text") {
			t.Errorf("%s() = %q", name, got)
		}
	}
}
