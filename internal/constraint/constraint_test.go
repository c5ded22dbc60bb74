package constraint

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesParamsShape(t *testing.T) {
	c, err := New(KindNoMeetingsAfterHour, SeverityHard, "no meetings after 9pm", MeetingCurfew{Hour: 21})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(c.ID, "c-"))
	assert.Equal(t, KindNoMeetingsAfterHour, c.Kind)

	_, err = New(KindNoMeetingsAfterHour, SeverityHard, "bad", SpendingLimit{MaxAmount: 10})
	assert.Error(t, err)

	_, err = New(KindNoMeetingsAfterHour, SeverityHard, "bad", MeetingCurfew{Hour: 25})
	assert.Error(t, err)

	_, err = New(KindNoSharingWithExternals, SeverityHard, "bad", SharingBan{})
	assert.Error(t, err)

	_, err = New(Kind("SOMETHING_ELSE"), SeverityHard, "bad", MeetingCurfew{Hour: 9})
	assert.Error(t, err)
}

func TestRecordRoundTrip(t *testing.T) {
	c, err := New(KindBudgetCap, SeverityHard, "Budget cap $1000", SpendingLimit{MaxAmount: 1000})
	require.NoError(t, err)

	rec := c.Record()
	assert.Equal(t, "BUDGET_CAP", rec.Type)
	assert.Equal(t, "HARD", rec.Severity)
	assert.Equal(t, 1000.0, rec.Params["max_amount"])

	back, err := rec.Typed()
	require.NoError(t, err)
	assert.Equal(t, c.ID, back.ID)
	assert.Equal(t, SpendingLimit{MaxAmount: 1000}, back.Params)
}

func TestDecodeRecordTolerance(t *testing.T) {
	rec := DecodeRecord(map[string]any{
		"constraint_id": "c-12345678",
		"type":          "NO_MEETINGS_AFTER_HOUR",
		"text":          "no meetings after 9pm",
	})
	assert.Equal(t, "c-12345678", rec.ID)
	assert.Equal(t, "HARD", rec.Severity)
	assert.NotNil(t, rec.Params)
	assert.Equal(t, 21, rec.Hour(21))

	rec = DecodeRecord(map[string]any{
		"constraintId": "c-abc",
		"type":         "BUDGET_CAP",
		"severity":     "SOFT",
		"params":       map[string]any{"max_amount": json.Number("1500")},
	})
	assert.Equal(t, "c-abc", rec.ID)
	assert.Equal(t, "SOFT", rec.Severity)
	assert.Equal(t, 1500.0, rec.MaxAmount())
}

func TestTypedAppliesLenientDefaults(t *testing.T) {
	c, err := Record{ID: "c-1", Type: "NO_MEETINGS_AFTER_HOUR"}.Typed()
	require.NoError(t, err)
	assert.Equal(t, MeetingCurfew{Hour: 21}, c.Params)

	c, err = Record{ID: "c-2", Type: "NO_SHARING_WITH_EXTERNALS"}.Typed()
	require.NoError(t, err)
	assert.Equal(t, SharingBan{BannedParty: "external"}, c.Params)

	_, err = Record{ID: "c-3", Type: "SOMETHING"}.Typed()
	assert.Error(t, err)
}

func TestValidateRecordJSON(t *testing.T) {
	valid := `{"id":"c-1","type":"BUDGET_CAP","severity":"HARD","text":"Budget cap $1000","params":{"max_amount":1000}}`
	assert.NoError(t, ValidateRecordJSON([]byte(valid)))

	missingParam := `{"id":"c-1","type":"NO_MEETINGS_AFTER_HOUR","text":"x","params":{}}`
	assert.Error(t, ValidateRecordJSON([]byte(missingParam)))

	badType := `{"id":"c-1","type":"NO_FUN","text":"x","params":{}}`
	assert.Error(t, ValidateRecordJSON([]byte(badType)))

	badHour := `{"id":"c-1","type":"NO_MEETINGS_AFTER_HOUR","text":"x","params":{"hour":99}}`
	assert.Error(t, ValidateRecordJSON([]byte(badHour)))
}

func TestIDShapes(t *testing.T) {
	cid := NewID()
	aid := NewActionID()
	assert.Len(t, cid, 10) // "c-" + 8 hex
	assert.Len(t, aid, 12) // "a-" + 10 hex
	assert.NotEqual(t, NewID(), NewID())
}
