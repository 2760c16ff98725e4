package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseActivityDateRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseActivityDate(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseActivityDatePlain(t *testing.T) {
	got, ok := ParseActivityDate("2024-01-02")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Year() != 2024 || got.Month() != time.January || got.Day() != 2 {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestParseActivityDateUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseActivityDate(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseActivityDateEmpty(t *testing.T) {
	if _, ok := ParseActivityDate(""); ok {
		t.Fatalf("expected not ok")
	}
}

func TestFormatSince(t *testing.T) {
	if FormatSince(nil) != "" {
		t.Fatalf("nil watermark should render empty")
	}
	w := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if FormatSince(&w) != "2024-03-01T12:00:00Z" {
		t.Fatalf("unexpected %s", FormatSince(&w))
	}
}
