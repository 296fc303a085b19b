package models

import "testing"

// TestJobIsActive verifies that queued and running jobs count as active.
func TestJobIsActive(t *testing.T) {
	tests := []struct {
		name   string
		status JobStatus
		want   bool
	}{
		{name: "queued", status: JobStatusQueued, want: true},
		{name: "running", status: JobStatusRunning, want: true},
		{name: "succeeded", status: JobStatusSucceeded, want: false},
		{name: "failed", status: JobStatusFailed, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := &ScheduledJob{Status: tt.status}
			if got := j.IsActive(); got != tt.want {
				t.Errorf("ScheduledJob{Status: %q}.IsActive() = %v, want %v",
					tt.status, got, tt.want)
			}
		})
	}
}

// TestJobCalendarColor verifies the status-to-color mapping used by the
// schedule calendar.
func TestJobCalendarColor(t *testing.T) {
	tests := []struct {
		status JobStatus
		want   string
	}{
		{status: JobStatusQueued, want: "blue"},
		{status: JobStatusRunning, want: "amber"},
		{status: JobStatusSucceeded, want: "green"},
		{status: JobStatusFailed, want: "red"},
		{status: JobStatus("unknown"), want: "gray"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.CalendarColor(); got != tt.want {
				t.Errorf("CalendarColor() for %q = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}
