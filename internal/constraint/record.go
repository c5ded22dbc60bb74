package constraint

import (
	"encoding/json"
	"fmt"
)

// Record is the stable constraint shape persisted across the memory-service
// boundary: {id, type, severity, text, params}.
type Record struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Severity string         `json:"severity"`
	Text     string         `json:"text"`
	Params   map[string]any `json:"params"`
}

// Record converts a typed constraint to its boundary shape.
func (c Constraint) Record() Record {
	params := map[string]any{}
	switch p := c.Params.(type) {
	case MeetingCurfew:
		params["hour"] = p.Hour
	case SpendingLimit:
		params["max_amount"] = p.MaxAmount
	case SharingBan:
		params["banned_party"] = p.BannedParty
	}
	return Record{
		ID:       c.ID,
		Type:     string(c.Kind),
		Severity: string(c.Severity),
		Text:     c.Text,
		Params:   params,
	}
}

// DecodeRecord builds a Record from a loosely-shaped map, tolerating the
// identifier under "id", "constraint_id", or "constraintId", a missing
// severity (defaults to HARD), and a missing params object (defaults to
// empty). Stored records from older writers all normalize through here.
func DecodeRecord(m map[string]any) Record {
	rec := Record{
		Severity: string(SeverityHard),
		Params:   map[string]any{},
	}
	for _, key := range []string{"id", "constraint_id", "constraintId"} {
		if v, ok := m[key].(string); ok && v != "" {
			rec.ID = v
			break
		}
	}
	if v, ok := m["type"].(string); ok {
		rec.Type = v
	}
	if v, ok := m["severity"].(string); ok && v != "" {
		rec.Severity = v
	}
	if v, ok := m["text"].(string); ok {
		rec.Text = v
	}
	if v, ok := m["params"].(map[string]any); ok && v != nil {
		rec.Params = v
	}
	return rec
}

// Normalize applies the tolerant defaults in place on an already-decoded
// record (missing severity -> HARD, nil params -> empty map).
func (r Record) Normalize() Record {
	if r.Severity == "" {
		r.Severity = string(SeverityHard)
	}
	if r.Params == nil {
		r.Params = map[string]any{}
	}
	return r
}

// Hour returns params.hour, or def when absent or malformed.
func (r Record) Hour(def int) int {
	if v, ok := numericParam(r.Params, "hour"); ok {
		return int(v)
	}
	return def
}

// MaxAmount returns params.max_amount, or 0 when absent or malformed.
func (r Record) MaxAmount() float64 {
	if v, ok := numericParam(r.Params, "max_amount"); ok {
		return v
	}
	return 0
}

// BannedParty returns params.banned_party, or def when absent.
func (r Record) BannedParty(def string) string {
	if v, ok := r.Params["banned_party"].(string); ok && v != "" {
		return v
	}
	return def
}

func numericParam(params map[string]any, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Typed converts a Record back into a typed Constraint, applying the same
// lenient defaults the evaluator uses (hour 21, banned party "external").
// Fails only when the type itself is not one of the recognized kinds.
func (r Record) Typed() (Constraint, error) {
	r = r.Normalize()
	kind := Kind(r.Type)
	var params Params
	switch kind {
	case KindNoMeetingsAfterHour:
		params = MeetingCurfew{Hour: r.Hour(21)}
	case KindBudgetCap:
		params = SpendingLimit{MaxAmount: r.MaxAmount()}
	case KindNoSharingWithExternals:
		params = SharingBan{BannedParty: r.BannedParty("external")}
	default:
		return Constraint{}, fmt.Errorf("unknown constraint type %q in record %s", r.Type, r.ID)
	}
	return Constraint{
		ID:       r.ID,
		Kind:     kind,
		Severity: Severity(r.Severity),
		Text:     r.Text,
		Params:   params,
	}, nil
}
