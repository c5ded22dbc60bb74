package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want ActionType
	}{
		{"schedule a call at 10pm", ActionScheduleMeeting},
		{"book a room for the team", ActionScheduleMeeting},
		{"invite the design group", ActionScheduleMeeting},
		{"export the customer dataset to our contractor", ActionShareData},
		{"upload the csv to the portal", ActionShareData},
		{"buy a license for $1500", ActionSpendMoney},
		{"spend less this quarter", ActionSpendMoney},
		{"$99 subscription", ActionSpendMoney},
		{"water the office plants", ActionUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.text), tt.text)
	}
}

func TestClassifyFirstRuleWins(t *testing.T) {
	// Mixed meeting and sharing vocabulary classifies as a meeting.
	assert.Equal(t, ActionScheduleMeeting, Classify("schedule a meeting to share the dataset"))

	// Share verbs without a data noun fall through to spend/unknown.
	assert.Equal(t, ActionUnknown, Classify("send regards to the team lead"))
}
