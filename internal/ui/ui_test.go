package ui

import (
	"strings"
	"testing"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
)

func TestShouldUseColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	t.Setenv("CLICOLOR_FORCE", "1")
	if ShouldUseColor() {
		t.Fatal("NO_COLOR must win over CLICOLOR_FORCE")
	}

	t.Setenv("NO_COLOR", "")
	if !ShouldUseColor() {
		t.Fatal("CLICOLOR_FORCE=1 should force color")
	}

	t.Setenv("CLICOLOR_FORCE", "")
	t.Setenv("CLICOLOR", "0")
	if ShouldUseColor() {
		t.Fatal("CLICOLOR=0 should disable color")
	}
}

func TestRenderStatus(t *testing.T) {
	prev := noColor
	t.Cleanup(func() { noColor = prev })

	noColor = false
	got := RenderStatus(model.StatusCompleted)
	if !strings.Contains(got, "\x1b[38;5;114m") || !strings.Contains(got, "completed") {
		t.Fatalf("RenderStatus(completed) = %q", got)
	}
	if got := RenderStatus("bogus"); got != "bogus" {
		t.Fatalf("unknown status should be plain, got %q", got)
	}

	ForceNoColor()
	if got := RenderStatus(model.StatusPending); got != "pending" {
		t.Fatalf("no-color RenderStatus = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	for _, tc := range []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a much longer title", 10, "a much ..."},
		{"日本語のタイトルです", 6, "日本語..."},
		{"tiny", 2, "tiny"},
	} {
		if got := Truncate(tc.in, tc.n); got != tc.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
		}
	}
}
