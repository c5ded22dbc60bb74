package graph

import (
	"encoding/json"
	"fmt"

	"github.com/wardenhq/warden/internal/policy"
)

// timeWindowID keys a TimeWindow node by its end hour, so every curfew
// constraint with the same hour shares one node.
func timeWindowID(hour int) string {
	return fmt.Sprintf("tw-0-%d", hour)
}

// resourceID keys a Resource node by the normalized party name.
func resourceID(party string) string {
	return "party-" + party
}

// explanationFromRow maps one result row of the explainability query onto
// the engine's Explanation shape. A row has satellite columns only when the
// constraint type mandates the satellite; absent columns come back nil.
func explanationFromRow(row map[string]any) policy.Explanation {
	ex := policy.Explanation{
		ConstraintID: asString(row["constraint_id"]),
		Type:         asString(row["type"]),
		Severity:     asString(row["severity"]),
		Text:         asString(row["text"]),
		Params:       map[string]any{},
	}
	if s := asString(row["params_json"]); s != "" {
		_ = json.Unmarshal([]byte(s), &ex.Params)
	}
	if endHour, ok := asInt(row["endHour"]); ok {
		startHour, _ := asInt(row["startHour"])
		ex.TimeWindow = &policy.TimeWindow{StartHour: startHour, EndHour: endHour}
	}
	if name := asString(row["bannedName"]); name != "" {
		ex.BannedResource = &policy.BannedResource{
			Kind: asString(row["bannedKind"]),
			Name: name,
		}
	}
	return ex
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asInt accepts the integer shapes the bolt protocol can deliver.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case int:
		return n, true
	case float64:
		return int(n), true
	}
	return 0, false
}
