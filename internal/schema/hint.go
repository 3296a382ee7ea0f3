package schema

import "regexp"

var (
	uuidPattern  = regexp.MustCompile(`^(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	isoPattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}([T ]\d{2}:\d{2}(:\d{2})?(\.\d+)?(Z|[+-]\d{2}:?\d{2})?)?$`)
	urlPattern   = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)
	slugPattern  = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)+$`)
	hexPattern   = regexp.MustCompile(`^(?i)[0-9a-f]{8,}$`)
	b64Pattern   = regexp.MustCompile(`^[A-Za-z0-9+/_-]{16,}={0,2}$`)
)

// DetectFormatHint inspects a string value and, if it matches a known shape,
// returns the matching hint. Neither the learner, the generator nor the
// drift detector calls it, so learned descriptors carry no hint.
func DetectFormatHint(s string) FormatHint {
	switch {
	case uuidPattern.MatchString(s):
		return HintUUID
	case emailPattern.MatchString(s):
		return HintEmail
	case isoPattern.MatchString(s):
		return HintISODate
	case urlPattern.MatchString(s):
		return HintURL
	case hexPattern.MatchString(s):
		return HintHex
	case slugPattern.MatchString(s):
		return HintSlug
	case len(s) >= 16 && b64Pattern.MatchString(s):
		return HintBase64
	default:
		return HintNone
	}
}
