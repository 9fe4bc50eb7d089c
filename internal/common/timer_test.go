package common

import (
	"strings"
	"testing"
	"time"
)

func TestTimerStop(t *testing.T) {
	timer := NewTimer()
	time.Sleep(5 * time.Millisecond)
	d := timer.Stop()

	if d < 5*time.Millisecond {
		t.Fatalf("expected at least 5ms, got %v", d)
	}
	if timer.Duration() != d {
		t.Fatalf("Duration() = %v, want %v", timer.Duration(), d)
	}
}

func TestNamedTimer(t *testing.T) {
	timer := NewNamedTimer("decode")
	timer.Stop()

	if timer.Name() != "decode" {
		t.Fatalf("Name() = %q, want %q", timer.Name(), "decode")
	}
	if !strings.HasPrefix(timer.String(), "decode: ") {
		t.Fatalf("String() = %q, want decode prefix", timer.String())
	}
}

func TestUnnamedTimerString(t *testing.T) {
	timer := NewTimer()
	timer.Stop()

	if strings.Contains(timer.String(), ":") && strings.HasPrefix(timer.String(), ": ") {
		t.Fatalf("unnamed timer should not have a name prefix, got %q", timer.String())
	}
}

func TestGetMemoryStats(t *testing.T) {
	stats := GetMemoryStats()
	if stats.Sys == 0 {
		t.Fatal("expected non-zero Sys")
	}
	if stats.HeapAlloc == 0 {
		t.Fatal("expected non-zero HeapAlloc")
	}
	if !strings.Contains(stats.String(), "MiB") {
		t.Fatalf("String() = %q, want MiB units", stats.String())
	}
}
