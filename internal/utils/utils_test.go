package utils

import (
	"testing"
	"time"
)

func TestFormatSequence(t *testing.T) {
	if got := FormatSequence("CRE", 42); got != "CRE-00042" {
		t.Errorf("Expected CRE-00042, got %s", got)
	}
	if got := FormatSequence("CLI", 123456); got != "CLI-123456" {
		t.Errorf("Expected CLI-123456, got %s", got)
	}
}

func TestLocalDate_Managua(t *testing.T) {
	loc := LoadLocation(NicaraguaTimezone)
	// 03:00 UTC is still the previous evening in Managua (UTC-6).
	instant := time.Date(2025, 3, 10, 3, 0, 0, 0, time.UTC)
	got := LocalDate(instant, loc)
	want := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestDayBounds(t *testing.T) {
	loc := LoadLocation(NicaraguaTimezone)
	start, end := DayBounds(time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC), loc)
	if !start.Equal(time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected start %s", start)
	}
	if end.Sub(start) != 24*time.Hour-time.Nanosecond {
		t.Errorf("Unexpected day length %s", end.Sub(start))
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2025, 1, 1, 23, 0, 0, 0, time.UTC)
	b := time.Date(2025, 1, 16, 1, 0, 0, 0, time.UTC)
	if got := DaysBetween(a, b); got != 15 {
		t.Errorf("Expected 15 days, got %d", got)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !CheckPassword(hash, "s3cret-pass") {
		t.Error("Expected password to match")
	}
	if CheckPassword(hash, "wrong-pass") {
		t.Error("Expected wrong password to fail")
	}
	if _, err := HashPassword("short"); err == nil {
		t.Error("Expected error for short password")
	}
	tmp, err := GenerateTemporaryPassword()
	if err != nil || len(tmp) != 12 {
		t.Errorf("Unexpected temporary password %q (%v)", tmp, err)
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2025-01-15", " 2025-01-15 ", "2025-01-15T00:00:00.000Z"} {
		got, err := ParseDate(in)
		if err != nil {
			t.Fatalf("ParseDate(%q) failed: %v", in, err)
		}
		if !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := ParseDate("15/01/2025"); err == nil {
		t.Error("Expected error for unsupported layout")
	}
}
