package style

import (
	"strings"
	"testing"

	"github.com/muesli/termenv"
)

func TestSetPlain(t *testing.T) {
	renderer.SetColorProfile(termenv.TrueColor)
	t.Cleanup(func() { SetPlain(false) })

	if got := Error.Render("boom"); !strings.Contains(got, "\x1b[") {
		t.Fatalf("styled output has no escape sequence: %q", got)
	}

	SetPlain(true)
	if got := Error.Render("boom"); got != "boom" {
		t.Errorf("plain Render = %q, want %q", got, "boom")
	}

	SetPlain(false)
	if renderer.ColorProfile() != termenv.TrueColor {
		t.Errorf("profile = %v, want the saved TrueColor", renderer.ColorProfile())
	}
}

func TestBlockWraps(t *testing.T) {
	SetPlain(true)
	defer SetPlain(false)

	out := Block(20, 2).Render("a manifest problem that needs wrapping")
	lines := strings.Split(out, "\n")
	if len(lines) < 2 {
		t.Fatalf("Block did not wrap: %q", out)
	}
	for _, l := range lines {
		if !strings.HasPrefix(l, "  ") {
			t.Errorf("line %q is not indented", l)
		}
	}
}
