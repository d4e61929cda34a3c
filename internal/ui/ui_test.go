package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	prevOut, prevErr := stdout, stderr
	SetOutput(&out, &errOut)
	t.Cleanup(func() {
		SetOutput(prevOut, prevErr)
		SetColorForcing(false, false)
		SetTheme("royal")
	})
	return &out, &errOut
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		done, total, width int
		want               string
	}{
		{0, 0, 10, "░░░░░░░░░░   0%"},
		{1, 2, 10, "█████░░░░░  50%"},
		{3, 3, 5, "█████ 100%"},
		{1, 1, 2, "█████ 100%"}, // width clamps to 5
	}
	for _, tt := range tests {
		if got := ProgressBar(tt.done, tt.total, tt.width); got != tt.want {
			t.Errorf("ProgressBar(%d,%d,%d) = %q, want %q", tt.done, tt.total, tt.width, got, tt.want)
		}
	}
}

func TestColorDisabledForNonTTY(t *testing.T) {
	capture(t)
	t.Setenv("CLICOLOR_FORCE", "")
	if got := C(fgRed, "x"); got != "x" {
		t.Errorf("expected no color for buffer output, got %q", got)
	}
	SetColorForcing(true, false)
	if got := C(fgRed, "x"); got != fgRed+"x"+reset {
		t.Errorf("forced color = %q", got)
	}
	SetColorForcing(true, true)
	if got := C(fgRed, "x"); got != "x" {
		t.Errorf("disable should win, got %q", got)
	}
}

func TestPanelAlignsWideRunes(t *testing.T) {
	out, _ := capture(t)
	SetColorForcing(true, false)
	SetTheme("royal")

	Panel([]string{C(Current().Title, "Princess"), "👑 crown", "ab"})

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	w := ansi.StringWidth(lines[0])
	for i, ln := range lines {
		if got := ansi.StringWidth(ln); got != w {
			t.Errorf("line %d width %d, want %d: %q", i, got, w, ln)
		}
	}
}

func TestMonoTheme(t *testing.T) {
	out, errOut := capture(t)
	SetColorForcing(true, false)
	SetTheme("mono")

	OK("saved")
	Fail("broken")
	if out.String() != "x saved\n" {
		t.Errorf("OK = %q", out.String())
	}
	if errOut.String() != "✖ broken\n" {
		t.Errorf("Fail = %q", errOut.String())
	}

	SetTheme("royal")
	if disableColor {
		t.Error("switching away from mono should re-enable color")
	}
}

func TestUnknownThemeFallsBack(t *testing.T) {
	capture(t)
	SetTheme("sparkly")
	if Current().Name != "royal" {
		t.Errorf("theme = %q", Current().Name)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("Attend the royal ball", 10); ansi.StringWidth(got) > 10 || !strings.HasSuffix(got, "...") {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate = %q", got)
	}
}
