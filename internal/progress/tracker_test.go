package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestTrackerCountsSteps(t *testing.T) {
	var buf bytes.Buffer
	tr := New(&buf)
	tr.SetTotal(2, "Installing dependencies")
	tr.Step()
	tr.Describe("Installing dev dependencies")
	tr.Step()
	tr.Finish("Installed 5 packages")

	if tr.Current() != 2 || tr.Total() != 2 {
		t.Errorf("Current() = %d, Total() = %d, want 2/2", tr.Current(), tr.Total())
	}
	if !strings.Contains(buf.String(), "Installed 5 packages in ") {
		t.Errorf("summary missing from output: %q", buf.String())
	}
}

func TestTrackerWithoutOutput(t *testing.T) {
	tr := New(nil)
	tr.Step()
	tr.Finish("done")
	if tr.Current() != 1 {
		t.Errorf("Current() = %d, want 1", tr.Current())
	}
}

func TestTrackerAbortClearsBar(t *testing.T) {
	var buf bytes.Buffer
	tr := New(&buf)
	tr.SetTotal(2, "Installing dependencies")
	tr.Abort()

	out := buf.String()
	if !strings.HasSuffix(out, "\r") {
		t.Errorf("bar not cleared, output ends with %q", out[max(0, len(out)-20):])
	}
	if strings.Contains(out, " in ") {
		t.Errorf("Abort() printed a summary: %q", out)
	}
}
