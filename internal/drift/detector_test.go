package drift

import (
	"testing"

	"github.com/mimicgate/mimicgate/internal/domain"
	"github.com/mimicgate/mimicgate/internal/jsonval"
	"github.com/mimicgate/mimicgate/internal/schema"
)

func TestMissingFieldIsBreaking(t *testing.T) {
	var stored *schema.Descriptor
	for i := 0; i < 10; i++ {
		stored = schema.Merge(stored, schema.Infer(jsonval.Object(map[string]jsonval.Value{
			"a": jsonval.Number(1),
			"b": jsonval.Number(2),
		})))
	}
	next := schema.Infer(jsonval.Object(map[string]jsonval.Value{"a": jsonval.Number(1)}))

	if !Eligible(stored) {
		t.Fatal("expected stored descriptor to be eligible after 10 observations")
	}

	issues := Compare(stored, next)
	found := false
	for _, i := range issues {
		if i.Path == "b" && i.Kind == domain.IssueMissing && i.Severity == domain.SeverityBreaking {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a breaking missing issue at path 'b', got %+v", issues)
	}

	score := Score(issues)
	if score < 40 {
		t.Errorf("expected score >= 40 for one breaking issue, got %v", score)
	}
}

func TestNewFieldIsInfo(t *testing.T) {
	stored := schema.Infer(jsonval.Object(map[string]jsonval.Value{"a": jsonval.Number(1)}))
	next := schema.Infer(jsonval.Object(map[string]jsonval.Value{"a": jsonval.Number(1), "b": jsonval.Number(2)}))

	issues := Compare(stored, next)
	if len(issues) != 1 || issues[0].Kind != domain.IssueAdded || issues[0].Severity != domain.SeverityInfo {
		t.Fatalf("expected a single info-level added issue, got %+v", issues)
	}
}

func TestTypeChangeIsBreaking(t *testing.T) {
	stored := schema.Infer(jsonval.Object(map[string]jsonval.Value{"a": jsonval.String("x")}))
	next := schema.Infer(jsonval.Object(map[string]jsonval.Value{"a": jsonval.Number(1)}))

	issues := Compare(stored, next)
	if len(issues) != 1 || issues[0].Kind != domain.IssueTypeChanged || issues[0].Severity != domain.SeverityBreaking {
		t.Fatalf("expected a breaking type_changed issue, got %+v", issues)
	}
}

func TestEligibleGatesOnObservationCount(t *testing.T) {
	stored := schema.Infer(jsonval.Object(map[string]jsonval.Value{"a": jsonval.Number(1)}))
	if Eligible(stored) {
		t.Error("a descriptor observed once should not be eligible for drift comparison")
	}
}

func TestScoreCapsAt100(t *testing.T) {
	issues := make([]domain.Issue, 10)
	for i := range issues {
		issues[i] = domain.Issue{Severity: domain.SeverityBreaking}
	}
	if got := Score(issues); got != 100 {
		t.Errorf("Score() = %v, want 100", got)
	}
}
