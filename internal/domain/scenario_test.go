package domain

import "testing"

func TestScenarioSummaryStuck(t *testing.T) {
	cases := []struct {
		name   string
		counts StatusCounts
		want   bool
	}{
		{"no failures", StatusCounts{StatusPending: 1}, false},
		{"failed with nothing behind it", StatusCounts{StatusFailed: 1}, true},
		{"failed but queue still draining", StatusCounts{StatusFailed: 1, StatusQueued: 1}, false},
		{"failed but one still processing", StatusCounts{StatusFailed: 1, StatusProcessing: 1}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			summary := ScenarioSummary{Counts: c.counts}
			if got := summary.Stuck(); got != c.want {
				t.Errorf("Stuck() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestScenarioSummaryDone(t *testing.T) {
	cases := []struct {
		name   string
		counts StatusCounts
		want   bool
	}{
		{"all terminal", StatusCounts{StatusSuccess: 2, StatusFailed: 1}, true},
		{"still pending", StatusCounts{StatusPending: 1, StatusSuccess: 1}, false},
		{"still queued", StatusCounts{StatusQueued: 1}, false},
		{"still processing", StatusCounts{StatusProcessing: 1}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			summary := ScenarioSummary{Counts: c.counts}
			if got := summary.Done(); got != c.want {
				t.Errorf("Done() = %v, want %v", got, c.want)
			}
		})
	}
}
