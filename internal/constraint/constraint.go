// Package constraint defines the typed constraint model and the stable
// record shape that crosses the memory-service boundary.
//
// The three constraint kinds form a closed set. Each kind carries exactly
// one params type; a Constraint with a missing or malformed required param
// cannot be constructed through this package.
package constraint

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind is the closed set of recognized constraint types.
type Kind string

const (
	KindNoMeetingsAfterHour    Kind = "NO_MEETINGS_AFTER_HOUR"
	KindBudgetCap              Kind = "BUDGET_CAP"
	KindNoSharingWithExternals Kind = "NO_SHARING_WITH_EXTERNALS"
)

// Valid reports whether k is one of the recognized kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindNoMeetingsAfterHour, KindBudgetCap, KindNoSharingWithExternals:
		return true
	}
	return false
}

// Severity of a constraint. Every parser-produced constraint is currently HARD.
type Severity string

const (
	SeverityHard Severity = "HARD"
	SeveritySoft Severity = "SOFT"
)

// Params is implemented by exactly one type per Kind.
type Params interface {
	isParams()
}

// MeetingCurfew is the params shape for NO_MEETINGS_AFTER_HOUR. The allowed
// interval is [0, Hour).
type MeetingCurfew struct {
	Hour int
}

// SpendingLimit is the params shape for BUDGET_CAP.
type SpendingLimit struct {
	MaxAmount float64
}

// SharingBan is the params shape for NO_SHARING_WITH_EXTERNALS.
type SharingBan struct {
	BannedParty string
}

func (MeetingCurfew) isParams() {}
func (SpendingLimit) isParams() {}
func (SharingBan) isParams()    {}

// Constraint is a persistent rule a user has declared. Immutable once
// created; the memory service is the source of truth for its existence and
// the graph mirrors it for explainability.
type Constraint struct {
	ID        string
	Kind      Kind
	Severity  Severity
	Text      string
	Params    Params
	CreatedAt time.Time
}

// NewID returns a fresh constraint identifier ("c-" + 8 hex chars).
func NewID() string {
	return "c-" + shortHex(8)
}

// NewActionID returns a fresh action identifier ("a-" + 10 hex chars).
func NewActionID() string {
	return "a-" + shortHex(10)
}

func shortHex(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

// New builds a constraint of the given kind, validating that params match.
func New(kind Kind, severity Severity, text string, params Params) (Constraint, error) {
	switch kind {
	case KindNoMeetingsAfterHour:
		p, ok := params.(MeetingCurfew)
		if !ok {
			return Constraint{}, fmt.Errorf("constraint %s requires MeetingCurfew params, got %T", kind, params)
		}
		if p.Hour < 0 || p.Hour > 23 {
			return Constraint{}, fmt.Errorf("constraint %s requires an hour in 0-23, got %d", kind, p.Hour)
		}
	case KindBudgetCap:
		if _, ok := params.(SpendingLimit); !ok {
			return Constraint{}, fmt.Errorf("constraint %s requires SpendingLimit params, got %T", kind, params)
		}
	case KindNoSharingWithExternals:
		p, ok := params.(SharingBan)
		if !ok {
			return Constraint{}, fmt.Errorf("constraint %s requires SharingBan params, got %T", kind, params)
		}
		if p.BannedParty == "" {
			return Constraint{}, fmt.Errorf("constraint %s requires a banned party", kind)
		}
	default:
		return Constraint{}, fmt.Errorf("unknown constraint kind %q", kind)
	}

	return Constraint{
		ID:        NewID(),
		Kind:      kind,
		Severity:  severity,
		Text:      text,
		Params:    params,
		CreatedAt: time.Now().UTC(),
	}, nil
}
