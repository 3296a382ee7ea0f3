// Package drift implements the Drift Detector: a lockstep walk between a
// stored response descriptor and a freshly learned one, producing scored
// Issues and a plain-English narration per field.
package drift

import (
	"fmt"
	"strings"

	"github.com/mimicgate/mimicgate/internal/domain"
	"github.com/mimicgate/mimicgate/internal/schema"
)

const (
	weightBreaking = 40.0
	weightWarning  = 15.0
	weightInfo     = 3.0

	// minObservationCount gates drift detection to avoid early-learning
	// noise: a descriptor seen fewer than this many times hasn't
	// stabilized enough to compare against.
	minObservationCount = 3
)

// Compare walks stored and next in lockstep and returns the Issues found.
// It runs unconditionally; callers gate on stored.Count >= minObservationCount
// via Eligible.
func Compare(stored, next *schema.Descriptor) []domain.Issue {
	var issues []domain.Issue
	compare(stored, next, "$", &issues)
	return issues
}

// Eligible reports whether the stored descriptor has enough observations
// to compare against without early-learning noise.
func Eligible(stored *schema.Descriptor) bool {
	return stored != nil && stored.Count >= minObservationCount
}

func compare(stored, next *schema.Descriptor, path string, issues *[]domain.Issue) {
	if stored == nil || next == nil {
		return
	}

	if stored.Kind != next.Kind {
		addIssue(issues, path, domain.IssueTypeChanged, domain.SeverityBreaking)
		return
	}

	if stored.Kind == schema.KindString && stored.Hint != next.Hint && next.Hint != schema.HintNone && stored.Hint != schema.HintNone {
		addIssue(issues, path, domain.IssueTypeChanged, domain.SeverityWarning)
	}

	if stored.Kind != schema.KindObject {
		return
	}

	for field := range stored.Required {
		if _, ok := next.Fields[field]; !ok {
			addIssue(issues, joinPath(path, field), domain.IssueMissing, domain.SeverityBreaking)
		}
	}
	for field := range next.Fields {
		if _, ok := stored.Fields[field]; !ok {
			addIssue(issues, joinPath(path, field), domain.IssueAdded, domain.SeverityInfo)
		}
	}
	for field, storedChild := range stored.Fields {
		if nextChild, ok := next.Fields[field]; ok {
			compare(storedChild, nextChild, joinPath(path, field), issues)
		}
	}
}

func addIssue(issues *[]domain.Issue, path string, kind domain.IssueKind, severity domain.Severity) {
	*issues = append(*issues, domain.Issue{
		Path:      path,
		Kind:      kind,
		Severity:  severity,
		Narration: narrate(path, kind, severity),
	})
}

func joinPath(parent, field string) string {
	if parent == "$" {
		return field
	}
	return parent + "." + field
}

// Score computes the 0-100 drift severity from a set of issues.
func Score(issues []domain.Issue) float64 {
	var breaking, warning, info int
	for _, i := range issues {
		switch i.Severity {
		case domain.SeverityBreaking:
			breaking++
		case domain.SeverityWarning:
			warning++
		case domain.SeverityInfo:
			info++
		}
	}
	score := weightBreaking*float64(breaking) + weightWarning*float64(warning) + weightInfo*float64(info)
	if score > 100 {
		score = 100
	}
	return score
}

// fieldContext maps a field-name substring to a human domain description,
// used to make narrations concrete instead of generic.
var fieldContext = []struct {
	pattern string
	context string
}{
	{"email", "email addresses"},
	{"avatar", "user profile images"},
	{"name", "display names"},
	{"uuid", "unique identifiers"},
	{"id", "unique identifiers"},
	{"token", "authentication tokens"},
	{"price", "pricing information"},
	{"amount", "monetary values"},
	{"total", "totals and aggregates"},
	{"status", "status tracking"},
	{"created", "creation timestamps"},
	{"updated", "update timestamps"},
	{"url", "links and URLs"},
	{"phone", "phone numbers"},
	{"address", "addresses"},
	{"role", "user permissions"},
	{"count", "counts and quantities"},
	{"items", "list items"},
	{"error", "error handling"},
	{"message", "messaging"},
	{"description", "descriptions"},
	{"title", "titles and headings"},
}

func contextFor(field string) string {
	lower := strings.ToLower(field)
	for _, fc := range fieldContext {
		if strings.Contains(lower, fc.pattern) {
			return fc.context
		}
	}
	return ""
}

func narrate(path string, kind domain.IssueKind, severity domain.Severity) string {
	field := lastSegment(path)
	ctx := contextFor(field)

	var headline, impact, action string
	switch kind {
	case domain.IssueMissing:
		headline = fmt.Sprintf("the %q field has been removed from the response", field)
		impact = "any consumer reading this field will now see it absent or nil"
		action = "add a null-check or make the field optional in downstream models"
	case domain.IssueAdded:
		headline = fmt.Sprintf("a new %q field has appeared in the response", field)
		impact = "typically safe, but may indicate an in-progress API change"
		action = "consider updating downstream types to include the new field"
	case domain.IssueTypeChanged:
		if severity == domain.SeverityBreaking {
			headline = fmt.Sprintf("the %q field changed type", field)
			impact = "strict type checks or serialization on this field will fail"
			action = "update the field's type in downstream models and check its call sites"
		} else {
			headline = fmt.Sprintf("the %q field's format hint changed", field)
			impact = "parsing that relies on the old format may behave unexpectedly"
			action = "verify downstream parsing still matches the new format"
		}
	default:
		headline = fmt.Sprintf("the %q field changed", field)
	}

	sentence := headline
	if ctx != "" {
		sentence += fmt.Sprintf(" (related to %s)", ctx)
	}
	sentence += fmt.Sprintf("; %s. Recommended: %s.", impact, action)
	return sentence
}

func lastSegment(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}
