package progress

import (
	"bytes"
	"testing"
)

func TestCIReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{Label: "Scoring rules", Out: &buf}
	r.Start(2)
	r.Update(1, "first")
	r.Update(2, "second")
	r.Finish()

	want := "Scoring rules: 2 items\n[1/2] first\n[2/2] second\nScoring rules: done\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestNewReporterUnderCI(t *testing.T) {
	t.Setenv("CI", "true")
	if _, ok := NewReporter("x").(*CIReporter); !ok {
		t.Error("expected CIReporter when CI is set")
	}
}

func TestTerminalReporterWritesToOut(t *testing.T) {
	var buf bytes.Buffer
	r := &TerminalReporter{Label: "Scoring", Out: &buf}
	r.Start(3)
	r.Update(3, "done")
	r.Finish()
	if buf.Len() == 0 {
		t.Error("expected progress output")
	}
}
