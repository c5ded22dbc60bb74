package policy

import (
	"strings"

	"github.com/wardenhq/warden/internal/constraint"
	"github.com/wardenhq/warden/internal/extract"
)

// ParseError codes surfaced to the caller alongside a corrective example.
const (
	ParseCodeUnrecognized      = "unrecognized"
	ParseCodeUnparseableTime   = "unparseable-time"
	ParseCodeUnparseableAmount = "unparseable-amount"
)

// ParseError reports that a declaration could not be turned into a
// constraint. Always recoverable by rephrasing; never a system fault.
type ParseError struct {
	Code    string
	Message string
}

func (e *ParseError) Error() string {
	return e.Message
}

const unrecognizedMessage = "Unrecognized constraint. Supported examples:\n" +
	"1) No meetings after 9pm\n" +
	"2) Budget cap $1000\n" +
	"3) Never share datasets with external contractors"

// ParseConstraint turns a free-text declaration into a typed constraint, or
// fails with a *ParseError carrying a corrective example. The three rule
// families are mutually exclusive and checked in fixed order; the first
// match wins. Pure: persistence is the caller's job.
func ParseConstraint(rawText string) (constraint.Constraint, error) {
	raw := strings.TrimSpace(rawText)
	t := extract.Normalize(raw)

	// 1) No meetings after HOUR
	if (strings.Contains(t, "meeting") || strings.Contains(t, "call")) && strings.Contains(t, "after") {
		hour, ok := extract.AfterHour(t)
		if !ok {
			return constraint.Constraint{}, &ParseError{
				Code:    ParseCodeUnparseableTime,
				Message: "Could not parse the time. Example: 'No meetings after 9pm'.",
			}
		}
		return constraint.New(constraint.KindNoMeetingsAfterHour, constraint.SeverityHard, raw,
			constraint.MeetingCurfew{Hour: hour})
	}

	// 2) Budget cap $X
	if (strings.Contains(t, "budget") && strings.Contains(t, "cap")) ||
		(strings.Contains(t, "max") && strings.Contains(t, "budget")) ||
		(strings.Contains(t, "spend") && strings.Contains(t, "max")) {
		amount, ok := extract.DeclaredAmount(t)
		if !ok {
			return constraint.Constraint{}, &ParseError{
				Code:    ParseCodeUnparseableAmount,
				Message: "Could not parse the amount. Example: 'Budget cap $1000'.",
			}
		}
		return constraint.New(constraint.KindBudgetCap, constraint.SeverityHard, raw,
			constraint.SpendingLimit{MaxAmount: amount})
	}

	// 3) Never share data with externals
	if containsAny(t, vocab.Declare.ShareVerbs) &&
		containsAny(t, vocab.Declare.DataNouns) &&
		extract.MentionsExternalParty(t) {
		bannedParty := "external"
		if strings.Contains(t, "contractor") {
			bannedParty = "contractor"
		}
		return constraint.New(constraint.KindNoSharingWithExternals, constraint.SeverityHard, raw,
			constraint.SharingBan{BannedParty: bannedParty})
	}

	return constraint.Constraint{}, &ParseError{
		Code:    ParseCodeUnrecognized,
		Message: unrecognizedMessage,
	}
}
