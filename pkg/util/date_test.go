package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDateOnly(t *testing.T) {
	got, ok := ParseTime("2025-03-01")
	if !ok || got.Day() != 1 || got.Month() != time.March {
		t.Fatalf("unexpected %v %v", got, ok)
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestCycleTime(t *testing.T) {
	in := time.Date(2025, 1, 2, 3, 4, 5, 678, time.FixedZone("X", 3600))
	got := CycleTime(in, 0)
	if got.Location() != time.UTC || got.Nanosecond() != 0 || got.Hour() != 2 {
		t.Fatalf("unexpected cycle time %v", got)
	}
	if got := CycleTime(in, time.Minute); got.Second() != 0 {
		t.Fatalf("expected minute truncation, got %v", got)
	}
}

func TestFromUnixMillis(t *testing.T) {
	got := FromUnixMillis(1700000000123)
	if got.UnixMilli() != 1700000000123 || got.Location() != time.UTC {
		t.Fatalf("unexpected %v", got)
	}
}
