package prescription

import "testing"

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusCreated, StatusSentToLab},
		{StatusSentToLab, StatusInProgress},
		{StatusSampleCollected, StatusInProgress},
		{StatusInProgress, StatusResultsAvailable},
		{StatusResultsAvailable, StatusCompleted},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}
}

func TestCanTransition_ClosedOtherwise(t *testing.T) {
	all := []Status{StatusCreated, StatusSentToLab, StatusSampleCollected, StatusInProgress, StatusResultsAvailable, StatusCompleted}
	allowed := map[Status]Status{
		StatusCreated:          StatusSentToLab,
		StatusSentToLab:        StatusInProgress,
		StatusSampleCollected:  StatusInProgress,
		StatusInProgress:       StatusResultsAvailable,
		StatusResultsAvailable: StatusCompleted,
	}
	for _, from := range all {
		for _, to := range all {
			want := allowed[from] == to
			if got := CanTransition(from, to); got != want {
				t.Errorf("%s -> %s: got %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestCanTransition_CompletedIsTerminal(t *testing.T) {
	for _, to := range []Status{StatusCreated, StatusSentToLab, StatusInProgress, StatusResultsAvailable} {
		if CanTransition(StatusCompleted, to) {
			t.Errorf("COMPLETED must not transition to %s", to)
		}
	}
}
