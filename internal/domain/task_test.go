package domain

import "testing"

func TestTaskEligible(t *testing.T) {
	cases := []struct {
		name   string
		status TaskStatus
		count  int
		want   bool
	}{
		{"pending with nothing outstanding", StatusPending, 0, true},
		{"pending with outstanding deps", StatusPending, 2, false},
		{"already queued", StatusQueued, 0, false},
		{"processing", StatusProcessing, 0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			task := &Task{Status: c.status, PendingCount: c.count}
			if got := task.Eligible(); got != c.want {
				t.Errorf("Eligible() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestTaskStatusTerminal(t *testing.T) {
	terminal := []TaskStatus{StatusSuccess, StatusFailed}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	nonTerminal := []TaskStatus{StatusPending, StatusQueued, StatusProcessing}
	for _, s := range nonTerminal {
		if s.Terminal() {
			t.Errorf("expected %s to not be terminal", s)
		}
	}
}

func TestInputRefsRefsOrdersScalarsBeforeLists(t *testing.T) {
	refs := InputRefs{
		TextTaskID:    "text-1",
		SlidePromptID: "prompt-1",
		VoiceTrackID:  "voice-1",
		SlideIDs:      []string{"slide-1", "slide-2"},
	}

	got := refs.Refs()
	want := []string{"text-1", "prompt-1", "voice-1", "slide-1", "slide-2"}

	if len(got) != len(want) {
		t.Fatalf("Refs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Refs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestInputRefsRefsOmitsEmptyScalars(t *testing.T) {
	refs := InputRefs{SlideIDs: []string{"slide-1"}}
	got := refs.Refs()
	if len(got) != 1 || got[0] != "slide-1" {
		t.Errorf("Refs() = %v, want [slide-1]", got)
	}
}

func TestTaskCanRetry(t *testing.T) {
	task := &Task{}
	if !task.CanRetry(3, 1) {
		t.Error("expected retry to be allowed below the max")
	}
	if task.CanRetry(3, 3) {
		t.Error("expected retry to be refused at the max")
	}
}
