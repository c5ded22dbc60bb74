package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "no meetings after 9pm", Normalize("  No   Meetings\tAfter 9PM "))
	assert.Equal(t, "", Normalize("   "))

	// Idempotent
	once := Normalize("Budget  CAP   $1000")
	assert.Equal(t, once, Normalize(once))
}

func TestAfterHour(t *testing.T) {
	tests := []struct {
		text string
		hour int
		ok   bool
	}{
		{"no meetings after 9pm", 21, true},
		{"no calls after 10 p.m.", 22, true},
		{"No meetings after 12am", 0, true},
		{"no meetings after 12pm", 12, true},
		{"no meetings after 21:00", 21, true},
		{"no meetings after 21", 21, true},
		{"no meetings after 7am", 7, true},
		{"meeting at 9pm", 0, false},     // no "after" qualifier
		{"no meetings after 25", 0, false}, // out of range
		{"no meetings, please", 0, false},
	}
	for _, tt := range tests {
		h, ok := AfterHour(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		if tt.ok {
			assert.Equal(t, tt.hour, h, tt.text)
		}
	}
}

func TestAfterHourPrefersMeridiem(t *testing.T) {
	// "after 9pm" must not be read as bare 24h "after 9".
	h, ok := AfterHour("no meetings after 9pm")
	assert.True(t, ok)
	assert.Equal(t, 21, h)
}

func TestFirstHour(t *testing.T) {
	tests := []struct {
		text string
		hour int
		ok   bool
	}{
		{"schedule a call at 10pm", 22, true},
		{"schedule a call at 10:30pm", 22, true},
		{"book a meeting at 8 a.m.", 8, true},
		{"meeting at 21:00 with the team", 21, true},
		{"meeting sometime soon", 0, false},
		{"invite 30 people", 0, false}, // bare number without colon is not a time
	}
	for _, tt := range tests {
		h, ok := FirstHour(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		if tt.ok {
			assert.Equal(t, tt.hour, h, tt.text)
		}
	}
}

func TestAmount(t *testing.T) {
	amt, ok := Amount("buy a license for $1500")
	assert.True(t, ok)
	assert.Equal(t, 1500.0, amt)

	amt, ok = Amount("pay $ 1,200.50 today")
	assert.True(t, ok)
	assert.Equal(t, 1200.50, amt)

	// The action-side extractor does not accept labeled bare numbers.
	_, ok = Amount("spend max 1200")
	assert.False(t, ok)

	_, ok = Amount("buy a license")
	assert.False(t, ok)
}

func TestDeclaredAmount(t *testing.T) {
	amt, ok := DeclaredAmount("budget cap $1000")
	assert.True(t, ok)
	assert.Equal(t, 1000.0, amt)

	amt, ok = DeclaredAmount("budget cap 1000")
	assert.True(t, ok)
	assert.Equal(t, 1000.0, amt)

	amt, ok = DeclaredAmount("max: 1,200")
	assert.True(t, ok)
	assert.Equal(t, 1200.0, amt)

	_, ok = DeclaredAmount("keep the budget low")
	assert.False(t, ok)
}

func TestMentionsExternalParty(t *testing.T) {
	assert.True(t, MentionsExternalParty("export the dataset to our contractor"))
	assert.True(t, MentionsExternalParty("send it to a Third  Party"))
	assert.True(t, MentionsExternalParty("forward to the 3rd party vendor"))
	assert.False(t, MentionsExternalParty("export the customer dataset internally"))
}
