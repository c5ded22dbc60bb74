package policy

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wardenhq/warden/internal/constraint"
	"github.com/wardenhq/warden/internal/extract"
)

// maxAlternatives caps the remediation suggestion list on a blocked decision.
const maxAlternatives = 5

// Action is a single classified request, recorded for audit regardless of
// the evaluation outcome.
type Action struct {
	ID        string
	Type      ActionType
	Text      string
	Timestamp time.Time
}

// TimeWindow is the allowed interval [StartHour, EndHour) attached to a
// meeting-curfew constraint in an explanation.
type TimeWindow struct {
	StartHour int `json:"startHour"`
	EndHour   int `json:"endHour"`
}

// BannedResource is the banned counterparty category attached to a
// sharing-ban constraint in an explanation.
type BannedResource struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// Explanation is one violated constraint joined with its satellite detail,
// as returned by the fact store's explainability query.
type Explanation struct {
	ConstraintID   string          `json:"constraint_id"`
	Type           string          `json:"type"`
	Severity       string          `json:"severity"`
	Text           string          `json:"text"`
	Params         map[string]any  `json:"params"`
	TimeWindow     *TimeWindow     `json:"time_window,omitempty"`
	BannedResource *BannedResource `json:"banned_resource,omitempty"`
}

// Decision is the outcome of evaluating one action request.
type Decision struct {
	OK           bool          `json:"ok"`
	ActionID     string        `json:"action_id"`
	ActionType   ActionType    `json:"action_type"`
	Message      string        `json:"message"`
	Violations   []Explanation `json:"violations"`
	Alternatives []string      `json:"alternatives"`
}

// FactStore is the graph backend the engine records actions and violations
// in and reads explanations from.
type FactStore interface {
	RecordAction(ctx context.Context, userID string, action Action) error
	RecordViolation(ctx context.Context, actionID, constraintID, reason string) error
	ExplainViolations(ctx context.Context, userID, actionID string) ([]Explanation, error)
}

// Engine evaluates classified actions against a user's constraints. Given
// the same constraint list and request text it always produces the same
// decision and the same ordered alternatives (modulo the fresh action id).
type Engine struct {
	facts FactStore
	now   func() time.Time
}

// NewEngine builds an engine on the given fact store.
func NewEngine(facts FactStore) *Engine {
	return &Engine{facts: facts, now: func() time.Time { return time.Now().UTC() }}
}

type violation struct {
	constraintID string
	reason       string
}

// Evaluate classifies the request, records the action, matches it against
// the supplied constraint records, and materializes any violations before
// deciding. The action is recorded whether or not the request is approved;
// either the action and all its violation edges are written, or an error is
// returned and no decision exists.
func (e *Engine) Evaluate(ctx context.Context, userID, requestText string, records []constraint.Record) (*Decision, error) {
	ctx, span := tracer.Start(ctx, "policy.evaluate",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	actionType := Classify(requestText)
	action := Action{
		ID:        constraint.NewActionID(),
		Type:      actionType,
		Text:      requestText,
		Timestamp: e.now(),
	}
	span.SetAttributes(
		attribute.String("action.id", action.ID),
		attribute.String("action.type", string(actionType)),
	)

	if err := e.facts.RecordAction(ctx, userID, action); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("recording action %s: %w", action.ID, err)
	}

	for i := range records {
		records[i] = records[i].Normalize()
	}
	violations, alternatives := match(actionType, requestText, records)

	if len(violations) == 0 {
		span.SetStatus(codes.Ok, "approved")
		return &Decision{
			OK:           true,
			ActionID:     action.ID,
			ActionType:   actionType,
			Message:      "Approved: no constraint violations detected.",
			Violations:   []Explanation{},
			Alternatives: []string{},
		}, nil
	}

	for _, v := range violations {
		if err := e.facts.RecordViolation(ctx, action.ID, v.constraintID, v.reason); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("recording violation of %s: %w", v.constraintID, err)
		}
	}

	explained, err := e.facts.ExplainViolations(ctx, userID, action.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("explaining violations for %s: %w", action.ID, err)
	}

	span.SetAttributes(attribute.Int("policy.violations", len(violations)))
	return &Decision{
		OK:           false,
		ActionID:     action.ID,
		ActionType:   actionType,
		Message:      "Blocked: request violates one or more persistent constraints.",
		Violations:   explained,
		Alternatives: dedupe(alternatives, maxAlternatives),
	}, nil
}

// match applies the single type-specific rule for the classified action.
// Every matching constraint of the relevant kind produces an independent
// violation. The sharing rule deliberately ignores the constraint's
// banned_party value: any external-party mention violates every sharing ban
// on file.
func match(actionType ActionType, requestText string, records []constraint.Record) ([]violation, []string) {
	var (
		violations   []violation
		alternatives []string
	)

	switch actionType {
	case ActionScheduleMeeting:
		reqHour, ok := extract.FirstHour(requestText)
		if !ok {
			break
		}
		for _, rec := range records {
			if rec.Type != string(constraint.KindNoMeetingsAfterHour) {
				continue
			}
			maxHour := rec.Hour(21)
			if reqHour > maxHour {
				violations = append(violations, violation{
					constraintID: rec.ID,
					reason:       fmt.Sprintf("Requested meeting at %d:00 exceeds allowed end hour %d:00", reqHour, maxHour),
				})
				alternatives = append(alternatives, meetingAlternatives(maxHour)...)
			}
		}

	case ActionShareData:
		if !extract.MentionsExternalParty(requestText) {
			break
		}
		for _, rec := range records {
			if rec.Type != string(constraint.KindNoSharingWithExternals) {
				continue
			}
			violations = append(violations, violation{
				constraintID: rec.ID,
				reason:       "Request involves external/contractor sharing, which is prohibited",
			})
			alternatives = append(alternatives, sharingAlternatives()...)
		}

	case ActionSpendMoney:
		amount, ok := extract.Amount(requestText)
		if !ok {
			break
		}
		for _, rec := range records {
			if rec.Type != string(constraint.KindBudgetCap) {
				continue
			}
			cap := rec.MaxAmount()
			if cap > 0 && amount > cap {
				violations = append(violations, violation{
					constraintID: rec.ID,
					reason:       fmt.Sprintf("Requested spend $%.2f exceeds budget cap $%.2f", amount, cap),
				})
				alternatives = append(alternatives, budgetAlternatives(cap)...)
			}
		}
	}

	return violations, alternatives
}

// meetingAlternatives suggests reschedules that respect the curfew. No
// calendar integration; 20:00 is the default late-evening suggestion.
func meetingAlternatives(maxHour int) []string {
	safeHour := maxHour
	if safeHour > 20 {
		safeHour = 20
	}
	return []string{
		fmt.Sprintf("Schedule it at %d:00 (8pm) instead of after %d:00.", safeHour, maxHour),
		"Schedule it tomorrow at 8:00pm.",
		"If it must be late, ask for an explicit exception/override first.",
	}
}

func sharingAlternatives() []string {
	return []string{
		"Share a redacted/synthetic dataset instead of the full customer dataset.",
		"Share only aggregated metrics or schema, not raw records.",
		"Route the request through an approved internal channel or get written approval.",
	}
}

func budgetAlternatives(cap float64) []string {
	return []string{
		fmt.Sprintf("Reduce scope to stay within the $%.0f budget cap.", cap),
		"Request approval to increase budget (one-time exception).",
		"Split the purchase into phases or use a lower-cost alternative.",
	}
}

// dedupe removes exact duplicates preserving first-seen order, capped at max.
func dedupe(items []string, max int) []string {
	out := make([]string, 0, max)
	seen := make(map[string]struct{}, len(items))
	for _, s := range items {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if len(out) == max {
			break
		}
	}
	return out
}
