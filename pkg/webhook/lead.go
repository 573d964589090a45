// Package webhook receives inbound lead events and dispatches rendered
// notifications to the outbound messaging gateway.
//
// The inbound route carries the account's secret token as a path segment.
// That is the whole authorization model: the token is a bearer capability,
// chosen deliberately so third-party form builders can integrate with a
// plain URL and no auth handshake. The token must be treated as a secret.
package webhook

import (
	"encoding/json"
	"fmt"
	"strings"
)

// LeadEvent is the raw field map submitted by an external form. Shapes vary
// wildly between form builders, so nothing here is trusted or required.
type LeadEvent map[string]any

// nameAliases and telAliases are the field names recognized for the two
// template placeholders, checked in order. Matching is case-insensitive.
var (
	nameAliases = []string{"name", "full_name", "fullname", "firstname"}
	telAliases  = []string{"tel", "phone", "phone_number", "phonenumber", "mobile"}
)

// ParseLead decodes a JSON body into a LeadEvent. Unknown fields are kept
// (and ignored downstream); a non-object body is rejected.
func ParseLead(body []byte) (LeadEvent, error) {
	if len(body) == 0 {
		return LeadEvent{}, nil
	}

	var lead LeadEvent
	if err := json.Unmarshal(body, &lead); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return lead, nil
}

// Fields extracts the template substitution fields from the lead. Missing
// or non-string values yield empty strings; dispatch never fails on a
// malformed lead.
func (l LeadEvent) Fields() map[string]string {
	return map[string]string{
		"name": l.first(nameAliases),
		"tel":  l.first(telAliases),
	}
}

// first returns the first alias present with a usable value.
func (l LeadEvent) first(aliases []string) string {
	if len(l) == 0 {
		return ""
	}

	lowered := make(map[string]any, len(l))
	for k, v := range l {
		lowered[strings.ToLower(k)] = v
	}

	for _, alias := range aliases {
		v, ok := lowered[alias]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case string:
			if val != "" {
				return val
			}
		case float64:
			// Form builders sometimes send numbers unquoted.
			return fmt.Sprintf("%.0f", val)
		}
	}
	return ""
}
