// Package phone canonicalizes user-entered phone numbers into WhatsApp
// channel identifiers. A channel identifier is the digits of the number in
// international form followed by the "@c.us" suffix.
package phone

import "strings"

const (
	// countryCode is prepended in place of the domestic trunk prefix "0".
	countryCode = "972"

	// channelSuffix marks a WhatsApp individual-chat address.
	channelSuffix = "@c.us"
)

// Canonicalize converts raw user input into a channel identifier. It never
// fails: garbage input produces a best-effort identifier rather than an
// error, and the function is idempotent for canonical and near-canonical
// input.
//
// Known limitation: numbers that carry neither a leading "0" nor a "+"
// (and do not already start with the country code) pass through with only
// whitespace and suffix handling. The resulting identifier may not be a
// valid international number; callers display what the user saved.
func Canonicalize(raw string) string {
	s := stripWhitespace(raw)

	s = strings.TrimPrefix(s, "+")

	if strings.HasPrefix(s, "0") {
		s = countryCode + s[1:]
	}

	if !strings.HasSuffix(s, channelSuffix) {
		s += channelSuffix
	}

	return s
}

// DisplayNumber strips the channel suffix for display and editing. Settings
// screens show the bare number; Canonicalize restores the suffix on save.
func DisplayNumber(chatID string) string {
	return strings.TrimSuffix(chatID, channelSuffix)
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\v', '\f', ' ':
			return -1
		}
		return r
	}, s)
}
