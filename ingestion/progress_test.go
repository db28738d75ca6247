package ingestion

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_Finish(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10)

	tracker.Start()
	tracker.Report(75, 100)
	tracker.Finish()

	output := buf.String()
	assert.Contains(t, output, "75/100")
	assert.Contains(t, output, "75.0%")
	assert.Contains(t, output, "products/s", "should show rate")
	assert.True(t, strings.HasSuffix(output, "\n"), "finish should print newline")
	assert.Greater(t, tracker.Elapsed(), time.Duration(0))
}

func TestProgressTracker_FinishPrintsUnreportedTail(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10)

	tracker.Start()
	tracker.Report(10, 100)
	tracker.Report(14, 100)
	assert.NotContains(t, buf.String(), "14/100")

	tracker.Finish()
	assert.Contains(t, buf.String(), "14/100")
}

func TestProgressTracker_NothingVectorized(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10)

	tracker.Start()
	tracker.Finish()

	assert.Empty(t, buf.String(), "a cache hit prints no progress")
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10)

	tracker.Report(10, 100)
	tracker.Finish()

	assert.Equal(t, "", buf.String(), "should have no output when not started")
	assert.Equal(t, time.Duration(0), tracker.Elapsed())
}

func TestProgressTracker_ReportInterval(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100)

	tracker.Start()

	tracker.Report(50, 1000)
	assert.Equal(t, "", buf.String(), "should not print under interval")

	tracker.Report(100, 1000)
	assert.Contains(t, buf.String(), "100/1000")

	buf.Reset()
	tracker.Report(150, 1000)
	assert.Equal(t, "", buf.String(), "interval counts from the last print")

	tracker.Report(250, 1000)
	assert.NotEmpty(t, buf.String())
}

func TestProgressTracker_LastProductAlwaysPrints(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100)

	tracker.Start()
	tracker.Report(3, 4)
	assert.Empty(t, buf.String())

	tracker.Report(4, 4)
	assert.Contains(t, buf.String(), "4/4")
	assert.Contains(t, buf.String(), "100.0%")
}

func TestProgressTracker_NonPositiveInterval(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 0)

	tracker.Start()
	tracker.Report(1, 3)
	assert.Contains(t, buf.String(), "1/3")
}
