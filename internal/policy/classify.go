package policy

import (
	"strings"

	"github.com/wardenhq/warden/internal/extract"
)

// ActionType is the category assigned to an incoming request.
type ActionType string

const (
	ActionScheduleMeeting ActionType = "SCHEDULE_MEETING"
	ActionShareData       ActionType = "SHARE_DATA"
	ActionSpendMoney      ActionType = "SPEND_MONEY"
	ActionUnknown         ActionType = "UNKNOWN"
)

// Classify assigns an action type to a request. Rules run in fixed order and
// the first match wins, so a request mixing meeting and sharing vocabulary
// classifies as a meeting. No side effects.
func Classify(requestText string) ActionType {
	t := extract.Normalize(requestText)

	if containsAny(t, vocab.Classify.Meeting) {
		return ActionScheduleMeeting
	}
	if containsAny(t, vocab.Classify.ShareVerbs) && containsAny(t, vocab.Classify.DataNouns) {
		return ActionShareData
	}
	if containsAny(t, vocab.Classify.Spend) || strings.Contains(t, "$") {
		return ActionSpendMoney
	}
	return ActionUnknown
}
