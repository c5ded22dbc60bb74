package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSatelliteKeys(t *testing.T) {
	assert.Equal(t, "tw-0-21", timeWindowID(21))
	assert.Equal(t, "tw-0-21", timeWindowID(21), "same hour shares one node")
	assert.Equal(t, "party-contractor", resourceID("contractor"))
}

func TestExplanationFromRowWithTimeWindow(t *testing.T) {
	ex := explanationFromRow(map[string]any{
		"constraint_id": "c-1",
		"type":          "NO_MEETINGS_AFTER_HOUR",
		"severity":      "HARD",
		"text":          "No meetings after 9pm",
		"params_json":   `{"hour":21}`,
		"startHour":     int64(0),
		"endHour":       int64(21),
		"bannedKind":    nil,
		"bannedName":    nil,
	})

	assert.Equal(t, "c-1", ex.ConstraintID)
	assert.Equal(t, float64(21), ex.Params["hour"]) // JSON numbers decode as float64
	require.NotNil(t, ex.TimeWindow)
	assert.Equal(t, 0, ex.TimeWindow.StartHour)
	assert.Equal(t, 21, ex.TimeWindow.EndHour)
	assert.Nil(t, ex.BannedResource)
}

func TestExplanationFromRowWithResource(t *testing.T) {
	ex := explanationFromRow(map[string]any{
		"constraint_id": "c-2",
		"type":          "NO_SHARING_WITH_EXTERNALS",
		"severity":      "HARD",
		"text":          "Never share datasets with external contractors",
		"params_json":   `{"banned_party":"contractor"}`,
		"startHour":     nil,
		"endHour":       nil,
		"bannedKind":    "party",
		"bannedName":    "contractor",
	})

	assert.Nil(t, ex.TimeWindow)
	require.NotNil(t, ex.BannedResource)
	assert.Equal(t, "party", ex.BannedResource.Kind)
	assert.Equal(t, "contractor", ex.BannedResource.Name)
}

func TestExplanationFromRowWithoutSatellite(t *testing.T) {
	ex := explanationFromRow(map[string]any{
		"constraint_id": "c-3",
		"type":          "BUDGET_CAP",
		"severity":      "HARD",
		"text":          "Budget cap $1000",
		"params_json":   `{"max_amount":1000}`,
	})

	assert.Nil(t, ex.TimeWindow)
	assert.Nil(t, ex.BannedResource)
	assert.Equal(t, float64(1000), ex.Params["max_amount"])
}

func TestExplanationFromRowTolerantOfBadParams(t *testing.T) {
	ex := explanationFromRow(map[string]any{
		"constraint_id": "c-4",
		"type":          "BUDGET_CAP",
		"params_json":   "not-json",
	})
	assert.NotNil(t, ex.Params)
	assert.Empty(t, ex.Params)
}
