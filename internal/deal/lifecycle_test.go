package deal

import (
	"testing"

	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/models"
)

func TestForwardEdges(t *testing.T) {
	legal := [][2]string{
		{models.StatusDraft, models.StatusInProgress},
		{models.StatusInProgress, models.StatusDocsSent},
		{models.StatusDocsSent, models.StatusSigned},
		{models.StatusSigned, models.StatusClosed},
	}
	for _, e := range legal {
		if !CanTransition(e[0], e[1]) {
			t.Errorf("%s -> %s should be legal", e[0], e[1])
		}
	}
}

func TestLostReachableFromAnyNonTerminal(t *testing.T) {
	for _, from := range []string{models.StatusDraft, models.StatusInProgress, models.StatusDocsSent, models.StatusSigned} {
		if !CanTransition(from, models.StatusLost) {
			t.Errorf("%s -> Lost should be legal", from)
		}
	}
	if CanTransition(models.StatusClosed, models.StatusLost) {
		t.Error("Closed -> Lost should be illegal")
	}
	if CanTransition(models.StatusLost, models.StatusLost) {
		t.Error("Lost -> Lost should be illegal")
	}
}

func TestNoRegressionNoSkipNoSelfLoop(t *testing.T) {
	illegal := [][2]string{
		{models.StatusSigned, models.StatusInProgress}, // backward
		{models.StatusInProgress, models.StatusDraft},  // backward
		{models.StatusDraft, models.StatusDocsSent},    // skip
		{models.StatusInProgress, models.StatusSigned}, // skip
		{models.StatusDraft, models.StatusClosed},      // Closed only from Signed
		{models.StatusLost, models.StatusInProgress},   // out of terminal
		{models.StatusClosed, models.StatusSigned},     // out of terminal
		{models.StatusDraft, models.StatusDraft},       // self loop
	}
	for _, e := range illegal {
		if CanTransition(e[0], e[1]) {
			t.Errorf("%s -> %s should be illegal", e[0], e[1])
		}
	}
}

func TestStageLabels(t *testing.T) {
	want := map[string]string{
		models.StatusDraft:      "Initial",
		models.StatusInProgress: "Viewing",
		models.StatusDocsSent:   "Negotiation",
		models.StatusSigned:     "MOU",
		models.StatusClosed:     "Done",
		models.StatusLost:       "Lost",
	}
	for status, label := range want {
		if got := StageLabel(status); got != label {
			t.Errorf("StageLabel(%s) = %q, want %q", status, got, label)
		}
	}
}

func TestValidStatus(t *testing.T) {
	if ValidStatus("Negotiating") {
		t.Error("unknown status accepted")
	}
	if !ValidStatus(models.StatusDocsSent) {
		t.Error("DocsSent rejected")
	}
}
