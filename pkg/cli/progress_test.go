package cli

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestSimpleProgressBasic(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "requests")

	progress.Start(4)
	progress.Update(2)
	progress.Finish()

	output := buf.String()
	if !strings.Contains(output, "(2/4 requests)") {
		t.Errorf("missing intermediate state in %q", output)
	}
	if !strings.Contains(output, "100%") || !strings.Contains(output, "(4/4 requests)") {
		t.Errorf("missing final state in %q", output)
	}
}

func TestSimpleProgressNeverMovesBack(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "docs").(*SimpleProgress)

	progress.Start(10)
	progress.Update(7)
	progress.Update(3)
	if progress.current != 7 {
		t.Errorf("current = %d, want 7", progress.current)
	}
}

func TestSimpleProgressZeroTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "")

	progress.Start(0)
	progress.Update(0)
	progress.Finish()

	if strings.TrimSpace(buf.String()) != "" {
		t.Errorf("expected no bar for zero total, got %q", buf.String())
	}
}

func TestSimpleProgressError(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "docs")

	progress.Start(100)
	progress.Error(fmt.Errorf("export interrupted"))

	output := buf.String()
	if !strings.Contains(output, "Error: export interrupted") {
		t.Errorf("unexpected output %q", output)
	}
}

func TestSimpleProgressConcurrent(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "docs")
	progress.Start(1000)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(start int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				progress.Update(int64(start*100 + j))
			}
		}(i)
	}
	wg.Wait()
	progress.Finish()

	if buf.Len() == 0 {
		t.Error("expected progress output")
	}
}

func TestNewProgressReporterNilWriter(t *testing.T) {
	progress := NewProgressReporter(nil, "docs").(*SimpleProgress)
	if progress.writer == nil {
		t.Fatal("writer should default to stderr")
	}
}
