package report

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/cadence-flow/cadence/internal/archive"
)

func workRecords(n, early int) []archive.WorkRecord {
	end := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	records := make([]archive.WorkRecord, n)
	for i := range records {
		records[i] = archive.WorkRecord{
			EndTime:         end,
			PlannedDuration: 1500,
			Duration:        1500,
		}
		if i < early {
			records[i].Duration = 600
			records[i].EarlyStop = true
		}
	}
	return records
}

func breakRecords(n, full int) []archive.BreakRecord {
	end := time.Date(2026, 8, 10, 12, 30, 0, 0, time.UTC)
	records := make([]archive.BreakRecord, n)
	for i := range records {
		records[i] = archive.BreakRecord{
			EndTime:         end,
			Type:            "short",
			PlannedDuration: 300,
			Duration:        120,
		}
		if i < full {
			records[i].Duration = 300
			records[i].CompletedFully = true
		}
	}
	return records
}

func TestAggregateRates(t *testing.T) {
	// 4 sessions, 3 breaks, 2 completed fully: 75% compliance, ~67%
	// completion.
	summary := Aggregate("2026-08", workRecords(4, 1), breakRecords(3, 2))

	if summary.WorkSessions != 4 || summary.BreaksTaken != 3 || summary.BreaksComplete != 2 {
		t.Fatalf("counts = %+v", summary)
	}
	if summary.ComplianceRate != 0.75 {
		t.Fatalf("compliance = %v, want 0.75", summary.ComplianceRate)
	}
	if math.Abs(summary.CompletionRate-2.0/3.0) > 1e-9 {
		t.Fatalf("completion = %v, want 2/3", summary.CompletionRate)
	}
	if summary.EarlyStops != 1 {
		t.Fatalf("early stops = %d, want 1", summary.EarlyStops)
	}
}

func TestComplianceRateCapsAtOne(t *testing.T) {
	summary := Aggregate("2026-08", workRecords(2, 0), breakRecords(5, 5))
	if summary.ComplianceRate != 1 {
		t.Fatalf("compliance = %v, want capped at 1", summary.ComplianceRate)
	}
}

func TestLowComplianceSuggestsBlockingMode(t *testing.T) {
	summary := Aggregate("2026-08", workRecords(10, 0), breakRecords(2, 2))
	feedback := strings.Join(summary.Feedback(), "\n")
	if !strings.Contains(feedback, "blocking") {
		t.Fatalf("feedback below 50%% compliance should mention blocking mode:\n%s", feedback)
	}
}

func TestEmptyPeriodFeedback(t *testing.T) {
	summary := Aggregate("2026-08", nil, nil)
	feedback := summary.Feedback()
	if len(feedback) != 1 || !strings.Contains(feedback[0], "No work sessions") {
		t.Fatalf("feedback = %v", feedback)
	}
}

func TestRenderIncludesRates(t *testing.T) {
	out := Render(Aggregate("2026-08", workRecords(4, 1), breakRecords(3, 2)))
	for _, want := range []string{"2026-08", "75%", "67%", "Work sessions"} {
		if !strings.Contains(out, want) {
			t.Fatalf("render missing %q:\n%s", want, out)
		}
	}
}
