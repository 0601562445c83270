package components

import (
	"errors"
	"strings"
	"testing"
)

func TestNewProgressTracker(t *testing.T) {
	tracker := NewProgressTracker(80)

	if tracker.width != 80 {
		t.Errorf("Expected width 80, got %d", tracker.width)
	}
	if tracker.HasActive() {
		t.Error("Expected no active jobs")
	}
	if tracker.View() != "" {
		t.Error("Expected empty view")
	}
}

func TestUpdateTracksJob(t *testing.T) {
	tracker := NewProgressTracker(80)

	tracker.Update(Job{ChapterID: "ch-1", Label: "Ch. 1", Status: "exporting", Done: 5, Total: 10})

	if !tracker.HasActive() {
		t.Error("Expected an active job")
	}
	if !tracker.Running("ch-1") {
		t.Error("Expected ch-1 to be running")
	}
	if tracker.Running("ch-2") {
		t.Error("Expected ch-2 not to be running")
	}

	view := tracker.View()
	if !strings.Contains(view, "Ch. 1: exporting (5/10 pages)") {
		t.Errorf("Expected job line in view, got: %s", view)
	}
	if !strings.Contains(view, "█") {
		t.Error("Expected a progress bar for a running job")
	}
}

func TestCompletedJobShownOnce(t *testing.T) {
	tracker := NewProgressTracker(80)

	tracker.Update(Job{ChapterID: "ch-1", Label: "Ch. 1", Status: "exporting"})
	tracker.Update(Job{ChapterID: "ch-1", Label: "Ch. 1", Status: "complete", Path: "/tmp/ch1.epub"})

	if tracker.HasActive() {
		t.Error("Expected no active job after completion")
	}
	if !strings.Contains(tracker.View(), "/tmp/ch1.epub") {
		t.Error("Expected output path in view")
	}

	tracker.Update(Job{ChapterID: "ch-2", Label: "Ch. 2", Status: "exporting"})

	view := tracker.View()
	if strings.Contains(view, "Ch. 1") {
		t.Error("Expected completed job to be dropped on the next update")
	}
	if !strings.Contains(view, "Ch. 2") {
		t.Error("Expected new job in view")
	}
}

func TestFailedJobKept(t *testing.T) {
	tracker := NewProgressTracker(80)

	tracker.Update(Job{ChapterID: "ch-1", Label: "Ch. 1", Status: "error", Err: errors.New("download failed")})
	tracker.Update(Job{ChapterID: "ch-2", Label: "Ch. 2", Status: "exporting"})

	view := tracker.View()
	if !strings.Contains(view, "Error: download failed") {
		t.Error("Expected error details in view")
	}
	if strings.Index(view, "Ch. 1") > strings.Index(view, "Ch. 2") {
		t.Error("Expected jobs in start order")
	}
}

func TestClear(t *testing.T) {
	tracker := NewProgressTracker(80)
	for _, id := range []string{"a", "b", "c"} {
		tracker.Update(Job{ChapterID: id, Status: "exporting"})
	}

	tracker.Clear()

	if tracker.HasActive() {
		t.Error("Expected no active jobs after clear")
	}
}

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		name           string
		current, total int
		filled, empty  int
	}{
		{"half", 50, 100, 10, 10},
		{"full", 100, 100, 20, 0},
		{"over", 150, 100, 20, 0},
		{"quarter", 25, 100, 5, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := renderProgressBar(tt.current, tt.total, 20)
			if got := strings.Count(bar, "█"); got != tt.filled {
				t.Errorf("Expected %d filled, got %d", tt.filled, got)
			}
			if got := strings.Count(bar, "░"); got != tt.empty {
				t.Errorf("Expected %d empty, got %d", tt.empty, got)
			}
		})
	}
}

func TestRenderProgressBarZeroTotal(t *testing.T) {
	if bar := renderProgressBar(0, 0, 20); bar != "" {
		t.Errorf("Expected empty string for zero total, got: %s", bar)
	}
	if bar := SimpleProgress(1, 2, 0); bar != "" {
		t.Errorf("Expected empty string for zero width, got: %s", bar)
	}
}
