package deal

import "github.com/Saleslift/AgentVerifyAgent-sub002/internal/models"

// forward holds the single legal next step per status. Everything else
// except "any non-terminal -> Lost" is rejected: transitions are strictly
// forward so the audit trail stays monotonic for reporting. A backward
// move (e.g. Signed -> InProgress) must fail loudly, never no-op.
var forward = map[string]string{
	models.StatusDraft:      models.StatusInProgress,
	models.StatusInProgress: models.StatusDocsSent,
	models.StatusDocsSent:   models.StatusSigned,
	models.StatusSigned:     models.StatusClosed,
}

var stageLabels = map[string]string{
	models.StatusDraft:      "Initial",
	models.StatusInProgress: "Viewing",
	models.StatusDocsSent:   "Negotiation",
	models.StatusSigned:     "MOU",
	models.StatusClosed:     "Done",
	models.StatusLost:       "Lost",
}

// ValidStatus reports whether s names a lifecycle status at all.
func ValidStatus(s string) bool {
	_, ok := stageLabels[s]
	return ok
}

// CanTransition reports whether from -> to is a legal edge. A deal can
// be lost at any stage before it is closed; self-loops are illegal.
func CanTransition(from, to string) bool {
	if to == models.StatusLost {
		return !models.IsTerminal(from)
	}
	return forward[from] == to
}

// StageLabel derives the display label for a status. Pure function,
// never stored.
func StageLabel(status string) string {
	return stageLabels[status]
}
