// Package messaging renders user-defined notification templates against
// lead data. Rendering is pure and total: missing fields substitute as
// empty strings and malformed templates are delivered as-is.
package messaging

import "strings"

// DefaultTemplate is the built-in message used when an account has not
// customized its template. Hebrew, right-to-left, with emoji; must survive
// rendering byte-for-byte outside the placeholders.
const DefaultTemplate = "🎉 קיבלת ליד חדש 🎉\nשם: {{name}}\nטלפון: {{tel}}"

// Placeholders recognized by Render. Anything else of the form {{...}} is
// left verbatim so a typo in a custom template is visible in the delivered
// message instead of silently disappearing.
var placeholders = []string{"name", "tel"}

// Render substitutes lead fields into template. Substitution is literal,
// single-pass, and non-recursive: a field value containing "{{name}}" is
// not expanded again. An empty template falls back to DefaultTemplate.
func Render(template string, fields map[string]string) string {
	if template == "" {
		template = DefaultTemplate
	}

	pairs := make([]string, 0, len(placeholders)*2)
	for _, p := range placeholders {
		pairs = append(pairs, "{{"+p+"}}", fields[p])
	}

	return strings.NewReplacer(pairs...).Replace(template)
}
