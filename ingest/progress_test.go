package ingest

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgress_Basic(t *testing.T) {
	var buf bytes.Buffer
	progress := NewProgress(&buf, 100, 10)

	progress.Start()
	assert.True(t, progress.started, "should be started")

	progress.Add(25)
	progress.Add(25)
	progress.Add(50)

	processed, failed := progress.Counts()
	assert.Equal(t, 100, processed)
	assert.Zero(t, failed)

	elapsed := progress.Elapsed()
	assert.Greater(t, elapsed, time.Duration(0), "elapsed time should be positive")

	output := buf.String()
	assert.Contains(t, output, "100/100", "should show completion")
	assert.Contains(t, output, "100.0%", "should show 100%")
	assert.NotContains(t, output, "failed", "no failures were recorded")
}

func TestProgress_FailedChunks(t *testing.T) {
	var buf bytes.Buffer
	progress := NewProgress(&buf, 10, 5)

	progress.Start()
	progress.Add(5)
	progress.Fail(5)

	processed, failed := progress.Counts()
	assert.Equal(t, 5, processed)
	assert.Equal(t, 5, failed)

	output := buf.String()
	assert.Contains(t, output, "10/10", "failed chunks count toward completion")
	assert.Contains(t, output, "5 failed", "should report the failure count")
}

func TestProgress_Finish(t *testing.T) {
	var buf bytes.Buffer
	progress := NewProgress(&buf, 100, 10)

	progress.Start()
	progress.Add(75)
	progress.Finish()

	output := buf.String()
	assert.Contains(t, output, "75/100", "finish reports the real count")
	assert.Contains(t, output, "75.0%")
	assert.Contains(t, output, "\n", "finish should print newline")
}

func TestProgress_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	progress := NewProgress(&buf, 0, 10)

	progress.Start()
	progress.Finish()

	output := buf.String()
	assert.Contains(t, output, "0/0", "should handle zero total")
	assert.Contains(t, output, "0.0%", "zero total means zero percent")
}

func TestProgress_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	progress := NewProgress(&buf, 100, 10)

	// Should not panic when not started
	progress.Add(10)
	progress.Fail(10)
	progress.Finish()

	processed, failed := progress.Counts()
	assert.Zero(t, processed)
	assert.Zero(t, failed)
	assert.Zero(t, progress.Elapsed())
	assert.Equal(t, "", buf.String(), "should have no output when not started")
}

func TestProgress_ReportInterval(t *testing.T) {
	var buf bytes.Buffer
	progress := NewProgress(&buf, 1000, 100)

	progress.Start()

	// First update under interval - should not print
	buf.Reset()
	progress.Add(50)
	assert.Equal(t, "", buf.String(), "should not print under interval")

	// Crossing the interval - should print
	buf.Reset()
	progress.Add(50)
	assert.True(t, buf.Len() > 0, "should print at interval")

	// Failures count toward the interval too
	buf.Reset()
	progress.Fail(150)
	assert.True(t, buf.Len() > 0, "should print beyond interval")
}

func TestProgress_EstimatesRemaining(t *testing.T) {
	var buf bytes.Buffer
	progress := NewProgress(&buf, 100, 10)

	progress.Start()
	time.Sleep(10 * time.Millisecond)
	progress.Add(50)

	output := buf.String()
	assert.Contains(t, output, "chunks/s", "should show rate")
	assert.Contains(t, output, "ETA", "half-done run should carry an estimate")
}

func TestProgress_IntervalClamped(t *testing.T) {
	var buf bytes.Buffer
	progress := NewProgress(&buf, 10, 0)

	progress.Start()
	progress.Add(1)
	assert.True(t, buf.Len() > 0, "interval below one reports every chunk")
}
