package contracts

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestRunSummaryDurationJSON(t *testing.T) {
	summary := RunSummary{
		RunDate:  NewDate(2026, time.August, 28),
		Duration: DurationMS(1500*time.Millisecond + 250*time.Microsecond),
		Errors:   []RecordError{},
	}

	data, err := json.Marshal(&summary)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"duration_ms":1500`) {
		t.Errorf("duration_ms should carry whole milliseconds, got %s", data)
	}

	var back RunSummary
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if back.Duration != DurationMS(1500*time.Millisecond) {
		t.Errorf("round-trip duration = %v, want 1.5s", time.Duration(back.Duration))
	}
	if !back.RunDate.Equal(summary.RunDate) {
		t.Errorf("round-trip run date = %s, want %s", back.RunDate, summary.RunDate)
	}
}
