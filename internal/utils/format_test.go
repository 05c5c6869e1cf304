package utils

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"milliseconds", 45 * time.Millisecond, "45ms"},
		{"seconds", 1500 * time.Millisecond, "1.5s"},
		{"minutes and seconds", 2*time.Minute + 30*time.Second, "2m 30s"},
		{"whole minutes", 5 * time.Minute, "5m"},
		{"hours and minutes", time.Hour + 15*time.Minute, "1h 15m"},
		{"whole hours", 3 * time.Hour, "3h"},
		{"zero", 0, "0ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.d); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		maxLen int
		want   string
	}{
		{"short text unchanged", "DISK OK", 50, "DISK OK"},
		{"truncated with ellipsis", "CRITICAL - load average over threshold", 20, "CRITICAL - load a..."},
		{"newlines flattened", "line1\nline2", 50, "line1 line2"},
		{"tiny max", "abcdef", 3, "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateText(tt.text, tt.maxLen); got != tt.want {
				t.Errorf("TruncateText(%q, %d) = %q, want %q", tt.text, tt.maxLen, got, tt.want)
			}
		})
	}
}
