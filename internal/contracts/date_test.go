package contracts

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want Date
	}{
		{"2025-04-14", NewDate(2025, time.April, 14)},
		{"01 January 2025", NewDate(2025, time.January, 1)},
		{"31 December 2024", NewDate(2024, time.December, 31)},
		{"  2025-04-07  ", NewDate(2025, time.April, 7)},
	}

	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if err != nil {
			t.Errorf("ParseDate(%q) failed: %v", tc.in, err)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("ParseDate(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "   ", "14/04/2025", "next tuesday", "2025-13-01"} {
		if _, err := ParseDate(in); err == nil {
			t.Errorf("ParseDate(%q) should fail", in)
		}
	}
}

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2025, time.March, 31)

	if got := d.AddDays(14); !got.Equal(NewDate(2025, time.April, 14)) {
		t.Errorf("AddDays(14) = %s, want 2025-04-14", got)
	}
	if got := d.AddDays(-31); !got.Equal(NewDate(2025, time.February, 28)) {
		t.Errorf("AddDays(-31) = %s, want 2025-02-28", got)
	}

	if got := d.DaysUntil(NewDate(2025, time.April, 7)); got != 7 {
		t.Errorf("DaysUntil = %d, want 7", got)
	}
	if got := NewDate(2025, time.April, 7).DaysUntil(d); got != -7 {
		t.Errorf("DaysUntil backwards = %d, want -7", got)
	}

	// Leap year boundary.
	if got := NewDate(2024, time.February, 28).AddDays(1); !got.Equal(NewDate(2024, time.February, 29)) {
		t.Errorf("leap day = %s, want 2024-02-29", got)
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2025, time.April, 14)

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `"2025-04-14"` {
		t.Errorf("marshal = %s, want \"2025-04-14\"", data)
	}

	var zero Date
	data, _ = json.Marshal(zero)
	if string(data) != "null" {
		t.Errorf("zero date marshal = %s, want null", data)
	}

	var back Date
	if err := json.Unmarshal([]byte(`"14 April 2025"`), &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !back.Equal(d) {
		t.Errorf("unmarshal = %s, want %s", back, d)
	}

	if err := json.Unmarshal([]byte(`null`), &back); err != nil {
		t.Fatalf("unmarshal null failed: %v", err)
	}
	if !back.IsZero() {
		t.Errorf("unmarshal null = %s, want zero date", back)
	}
}
