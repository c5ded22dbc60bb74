// Package extract implements the pure text extractors that the constraint
// parser and the policy engine share: normalization, hour-of-day extraction,
// money amounts, and external-party detection.
//
// Hour extraction deliberately has two entry points with different priority
// order. AfterHour requires an explicit "after" qualifier and is used when
// parsing constraint declarations ("no meetings after 9pm"). FirstHour takes
// the first bare clock mention and is used when evaluating action requests
// ("schedule a call at 10pm").
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)

	// after 9pm / after 9 p.m.
	afterMeridiemRe = regexp.MustCompile(`\bafter\s+(\d{1,2})\s*(a\.?m\.?|p\.?m\.?)\b`)
	// after 21:00 / after 21
	afterClockRe = regexp.MustCompile(`\bafter\s+(\d{1,2})(?::\d{2})?\b`)

	// 10:30pm / 10pm / 9 p.m.
	meridiemRe = regexp.MustCompile(`\b(\d{1,2})(?::\d{2})?\s*(a\.?m\.?|p\.?m\.?)\b`)
	// 21:00
	clockRe = regexp.MustCompile(`\b(\d{1,2}):\d{2}\b`)

	// $1,200.50
	dollarRe = regexp.MustCompile(`\$\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)
	// cap 1000 / max: 1200 / maximum=900
	labeledAmountRe = regexp.MustCompile(`\b(?:cap|max(?:imum)?)\s*[:=]?\s*([0-9][0-9,]*(?:\.[0-9]+)?)\b`)
)

// externalParties marks a counterparty as outside the organization.
var externalParties = []string{"contractor", "external", "third party", "3rd party", "vendor"}

// Normalize lowercases, trims, and collapses internal whitespace runs to a
// single space. Idempotent.
func Normalize(s string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(strings.ToLower(s)), " ")
}

// AfterHour extracts the hour of an "after HOUR" phrase in 24h form.
// Meridiem phrasing ("after 9pm") wins over a bare clock ("after 21:00",
// "after 21"). Returns ok=false when no qualified hour is present or the
// derived hour falls outside 0-23.
func AfterHour(text string) (int, bool) {
	t := Normalize(text)

	if m := afterMeridiemRe.FindStringSubmatch(t); m != nil {
		if h, ok := meridiemHour(m[1], m[2]); ok {
			return h, true
		}
	}
	if m := afterClockRe.FindStringSubmatch(t); m != nil {
		if h, ok := clockHour(m[1]); ok {
			return h, true
		}
	}
	return 0, false
}

// FirstHour extracts the first clock mention in 24h form, with no "after"
// requirement. Meridiem phrasing wins over a bare HH:MM mention.
func FirstHour(text string) (int, bool) {
	t := Normalize(text)

	if m := meridiemRe.FindStringSubmatch(t); m != nil {
		if h, ok := meridiemHour(m[1], m[2]); ok {
			return h, true
		}
	}
	if m := clockRe.FindStringSubmatch(t); m != nil {
		if h, ok := clockHour(m[1]); ok {
			return h, true
		}
	}
	return 0, false
}

// Amount extracts a $-prefixed amount ("$1,200.50"). Used on action
// requests, where an unlabeled bare number is too ambiguous to trust.
func Amount(text string) (float64, bool) {
	t := Normalize(text)
	if m := dollarRe.FindStringSubmatch(t); m != nil {
		return parseAmount(m[1])
	}
	return 0, false
}

// DeclaredAmount extracts an amount from a constraint declaration. Prefers a
// $-prefixed token, then falls back to a labeled number ("budget cap 1000",
// "max 1200").
func DeclaredAmount(text string) (float64, bool) {
	t := Normalize(text)
	if m := dollarRe.FindStringSubmatch(t); m != nil {
		return parseAmount(m[1])
	}
	if m := labeledAmountRe.FindStringSubmatch(t); m != nil {
		return parseAmount(m[1])
	}
	return 0, false
}

// MentionsExternalParty reports whether the text names a third party
// (contractor, external, third party, 3rd party, vendor).
func MentionsExternalParty(text string) bool {
	t := Normalize(text)
	for _, w := range externalParties {
		if strings.Contains(t, w) {
			return true
		}
	}
	return false
}

func meridiemHour(digits, meridiem string) (int, bool) {
	h, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	switch strings.ReplaceAll(meridiem, ".", "") {
	case "pm":
		if h != 12 {
			h += 12
		}
	case "am":
		if h == 12 {
			h = 0
		}
	}
	if h < 0 || h > 23 {
		return 0, false
	}
	return h, true
}

func clockHour(digits string) (int, bool) {
	h, err := strconv.Atoi(digits)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	return h, true
}

func parseAmount(digits string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(digits, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
