package policy

import "regexp"

type redactionRule struct {
	pattern *regexp.Regexp
	marker  string
}

// Card numbers are matched before phone numbers so long digit runs are not
// reported as phones.
var redactionRules = []redactionRule{
	{regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`), "[REDACTED_EMAIL]"},
	{regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`), "[REDACTED_CARD]"},
	{regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`), "[REDACTED_PHONE]"},
}

// RedactPII masks contact and payment details before a transcript is archived.
func RedactPII(input string) (redacted string, changed bool) {
	out := input
	for _, rule := range redactionRules {
		next := rule.pattern.ReplaceAllString(out, rule.marker)
		if next != out {
			changed = true
		}
		out = next
	}
	return out, changed
}
