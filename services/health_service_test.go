package services

import (
	"testing"
	"time"
)

func TestWorstStatus(t *testing.T) {
	tests := []struct {
		current   string
		candidate string
		want      string
	}{
		{statusOK, statusOK, statusOK},
		{statusOK, statusDegraded, statusDegraded},
		{statusDegraded, statusOK, statusDegraded},
		{statusDegraded, statusCritical, statusCritical},
		{statusCritical, statusDegraded, statusCritical},
	}
	for _, tt := range tests {
		if got := worstStatus(tt.current, tt.candidate); got != tt.want {
			t.Errorf("worstStatus(%q, %q) = %q, want %q", tt.current, tt.candidate, got, tt.want)
		}
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{45 * time.Second, "45s"},
		{90 * time.Second, "1m 30s"},
		{26 * time.Hour, "1d 2h"},
	}
	for _, tt := range tests {
		if got := formatUptime(tt.d); got != tt.want {
			t.Errorf("formatUptime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestHTTPStatusForOverall(t *testing.T) {
	s := NewHealthService("", "")
	if got := s.HTTPStatusForOverall(statusCritical); got != 503 {
		t.Errorf("critical = %d, want 503", got)
	}
	if got := s.HTTPStatusForOverall(statusDegraded); got != 200 {
		t.Errorf("degraded = %d, want 200", got)
	}
	if got := s.HTTPStatusForOverall(statusOK); got != 200 {
		t.Errorf("ok = %d, want 200", got)
	}
}
