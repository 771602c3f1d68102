package progressbar

import (
	"bytes"
	"strings"
	"testing"
)

func TestProgressBar(t *testing.T) {
	var out bytes.Buffer
	p := New(&out, 10, 4)

	p.Increment()
	if p.Progress() != 0.25 {
		t.Errorf("progress: expected 0.25, got %v", p.Progress())
	}

	p.Set(100)
	if p.Progress() != 1.0 {
		t.Errorf("progress: expected clipping to 1.0, got %v", p.Progress())
	}

	p.SetStatus("best: 1.00")
	if err := p.Display(); err != nil {
		t.Fatal(err)
	}

	printed := out.String()
	if !strings.Contains(printed, "100.00%") {
		t.Errorf("display: missing percentage in %q", printed)
	}
	if !strings.Contains(printed, "best: 1.00") {
		t.Errorf("display: missing status in %q", printed)
	}
	if strings.Count(printed, "█") != 10 {
		t.Errorf("display: expected 10 filled cells in %q", printed)
	}
}

func TestProgressBarEmpty(t *testing.T) {
	p := New(&bytes.Buffer{}, 10, 0)
	if p.Progress() != 1.0 {
		t.Errorf("progress: expected 1.0 with no work, got %v",
			p.Progress())
	}
	if !strings.Contains(p.String(), "100.00%") {
		t.Errorf("string: expected a full bar with no work, got %q",
			p.String())
	}
}
