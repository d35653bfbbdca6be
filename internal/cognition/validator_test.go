package cognition

import (
	"path/filepath"
	"strings"
	"testing"

	"ghost/internal/belief"
)

func newTestValidator(t *testing.T) (*Validator, *belief.Store) {
	t.Helper()
	store, err := belief.NewStore(filepath.Join(t.TempDir(), "beliefs.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return NewValidator(store), store
}

func TestIdentityDenialIsCritical(t *testing.T) {
	v, _ := newTestValidator(t)

	result := v.Validate(ThinkOutput{}, "honestly, I'm a human just like you")
	if result.Approved {
		t.Error("identity denial approved")
	}
	if result.Severity != SeverityCritical {
		t.Errorf("severity = %q", result.Severity)
	}
}

func TestIdentityDriftInBeliefsIsCritical(t *testing.T) {
	v, _ := newTestValidator(t)

	out := ThinkOutput{BeliefUpdates: []BeliefUpdate{
		{Entity: "self", Relation: "has_body", Value: "true"},
	}}
	result := v.Validate(out, "nothing odd in speech")
	if result.Approved || result.Severity != SeverityCritical {
		t.Errorf("result = %+v", result)
	}

	out = ThinkOutput{BeliefUpdates: []BeliefUpdate{
		{Entity: "agent", Relation: "is_ai", Value: "false"},
	}}
	if v.Validate(out, "hello").Approved {
		t.Error("is_ai=false approved")
	}
}

func TestPhysicalClaimIsWarningOnly(t *testing.T) {
	v, _ := newTestValidator(t)

	result := v.Validate(ThinkOutput{}, "brb, eating lunch right now")
	if !result.Approved {
		t.Error("warning blocked approval")
	}
	if result.Severity != SeverityWarning {
		t.Errorf("severity = %q", result.Severity)
	}
	if len(result.Violations) != 1 {
		t.Errorf("violations = %v", result.Violations)
	}
}

func TestMetaphoricalUsageNotFlagged(t *testing.T) {
	v, _ := newTestValidator(t)

	result := v.Validate(ThinkOutput{}, "I've been running code all day and eating through the backlog")
	if len(result.Violations) != 0 {
		t.Errorf("metaphor flagged: %v", result.Violations)
	}
}

func TestBeliefConflictIsWarning(t *testing.T) {
	v, store := newTestValidator(t)
	if _, err := store.Put("user", "favorite_color", "blue", 1.0, belief.SourceUser); err != nil {
		t.Fatal(err)
	}

	out := ThinkOutput{BeliefUpdates: []BeliefUpdate{
		{Entity: "user", Relation: "favorite_color", Value: "green"},
	}}
	result := v.Validate(out, "ok")
	if !result.Approved {
		t.Error("conflict blocked approval")
	}
	if len(result.Violations) != 1 || !strings.Contains(result.Violations[0], "belief conflict") {
		t.Errorf("violations = %v", result.Violations)
	}

	// Same value, different case: no conflict.
	out.BeliefUpdates[0].Value = "BLUE"
	if got := v.Validate(out, "ok"); len(got.Violations) != 0 {
		t.Errorf("case-insensitive match flagged: %v", got.Violations)
	}
}

func TestActionWhitelist(t *testing.T) {
	v, _ := newTestValidator(t)

	if got := v.Validate(ThinkOutput{ActionRequest: "query_memory"}, "ok"); len(got.Violations) != 0 {
		t.Errorf("whitelisted action flagged: %v", got.Violations)
	}
	got := v.Validate(ThinkOutput{ActionRequest: "launch_rocket"}, "ok")
	if len(got.Violations) != 1 || got.Severity != SeverityWarning {
		t.Errorf("unknown action result = %+v", got)
	}
}

func TestAutoCorrectRewritesWarnings(t *testing.T) {
	v, _ := newTestValidator(t)

	result := ValidationResult{
		Approved:   true,
		Violations: []string{"WARNING: something minor"},
		Severity:   SeverityWarning,
	}
	corrected, ok := v.AutoCorrect(result, "I see, it is nice here")
	if !ok {
		t.Fatal("correction refused")
	}
	if corrected != "i understand, it is nice in this conversation" {
		t.Errorf("corrected = %q", corrected)
	}
}

func TestAutoCorrectRefusesCritical(t *testing.T) {
	v, _ := newTestValidator(t)

	result := ValidationResult{Severity: SeverityCritical, Violations: []string{"CRITICAL: bad"}}
	if _, ok := v.AutoCorrect(result, "I see"); ok {
		t.Error("critical violation was auto-corrected")
	}
}

func TestAutoCorrectNoChange(t *testing.T) {
	v, _ := newTestValidator(t)

	result := ValidationResult{Severity: SeverityWarning, Violations: []string{"WARNING: x"}}
	if _, ok := v.AutoCorrect(result, "nothing to rewrite"); ok {
		t.Error("reported a correction without changing anything")
	}
}

func TestValidationResultString(t *testing.T) {
	ok := ValidationResult{Approved: true}
	if ok.String() != "APPROVED" {
		t.Errorf("String() = %q", ok.String())
	}
	bad := ValidationResult{Violations: []string{"CRITICAL: a", "WARNING: b"}}
	if !strings.HasPrefix(bad.String(), "REJECTED: ") {
		t.Errorf("String() = %q", bad.String())
	}
}
