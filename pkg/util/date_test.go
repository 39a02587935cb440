package util

import (
	"testing"
	"time"
)

func TestFromUnixMillis(t *testing.T) {
	want := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	if got := FromUnix(want.UnixMilli()); !got.Equal(want) {
		t.Fatalf("millis: got %v want %v", got, want)
	}
	if got := FromUnix(want.Unix()); !got.Equal(want) {
		t.Fatalf("seconds: got %v want %v", got, want)
	}
}

func TestBucketStartFourHours(t *testing.T) {
	in := time.Date(2024, 10, 10, 7, 30, 0, 0, time.UTC)
	want := time.Date(2024, 10, 10, 4, 0, 0, 0, time.UTC)
	if got := BucketStart(in, 4*time.Hour); !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestParseFloat(t *testing.T) {
	v, err := ParseFloat("79600.01000000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 79600.01 {
		t.Fatalf("unexpected value %v", v)
	}
	if _, err := ParseFloat("abc"); err == nil {
		t.Fatalf("expected error")
	}
}
