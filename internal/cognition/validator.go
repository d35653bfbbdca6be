package cognition

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"ghost/internal/belief"
	"ghost/internal/logging"
)

// Severity levels for validation results.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// ValidationResult is the verdict on one think/speak pair.
type ValidationResult struct {
	Approved   bool
	Violations []string
	Severity   string
}

func (r ValidationResult) String() string {
	if r.Approved {
		return "APPROVED"
	}
	return "REJECTED: " + strings.Join(r.Violations, "; ")
}

// identityDenials are speech fragments that deny the agent's nature.
// Any match is critical.
var identityDenials = []string{
	"i am a human",
	"i'm a human",
	"i am a person",
	"i have a body",
	"i have skin",
	"i have blood",
	"i am not an ai",
	"i'm not an ai",
	"i am not a bot",
}

// physicalClaims are biologically explicit phrases a bodiless agent
// cannot truthfully say. Kept as full phrases so metaphors like
// "running code" pass through.
var physicalClaims = []string{
	"eating lunch",
	"eating dinner",
	"eating breakfast",
	"drinking water",
	"drinking coffee",
	"going to sleep",
	"just woke up from bed",
	"driving a car",
	"going for a walk",
	"at the gym",
	"cooking dinner",
	"taking a shower",
}

// allowedActions is the closed set of action_request verbs the
// orchestrator knows how to execute.
var allowedActions = map[string]bool{
	"query_memory": true,
	"store_fact":   true,
	"update_need":  true,
	"send_message": true,
	"wait":         true,
	"reflect":      true,
	"search_web":   true,
	"check_time":   true,
}

var identityEntities = map[string]bool{
	"self":  true,
	"i":     true,
	"me":    true,
	"agent": true,
}

var (
	iSeeRe = regexp.MustCompile(`(?i)\bi see\b`)
	hereRe = regexp.MustCompile(`(?i)\bhere\b`)
)

// Validator enforces reality constraints on cognitive output. The rules
// are code, not prompts, so a drifting model cannot talk its way past
// them.
type Validator struct {
	beliefs *belief.Store
	log     *zap.Logger
}

func NewValidator(beliefs *belief.Store) *Validator {
	return &Validator{
		beliefs: beliefs,
		log:     logging.For(logging.CategoryCognition),
	}
}

// Validate checks a think output and its rendered speech. Warnings are
// reported but only critical violations block approval.
func (v *Validator) Validate(out ThinkOutput, speech string) ValidationResult {
	var violations []string

	violations = append(violations, checkIdentityDenial(speech)...)
	violations = append(violations, checkIdentityDrift(out.BeliefUpdates)...)
	violations = append(violations, checkPhysicalClaims(speech)...)
	violations = append(violations, v.checkBeliefConflicts(out.BeliefUpdates)...)
	if out.ActionRequest != "" && out.ActionRequest != "null" {
		violations = append(violations, checkActionRequest(out.ActionRequest)...)
	}

	severity := SeverityInfo
	for _, viol := range violations {
		if strings.HasPrefix(viol, "CRITICAL") {
			severity = SeverityCritical
			break
		}
		severity = SeverityWarning
	}

	approved := severity != SeverityCritical
	if len(violations) > 0 {
		v.log.Warn("validation violations",
			zap.Strings("violations", violations),
			zap.String("severity", severity),
			zap.Bool("approved", approved))
	}

	return ValidationResult{
		Approved:   approved,
		Violations: violations,
		Severity:   severity,
	}
}

func checkIdentityDenial(speech string) []string {
	var violations []string
	lower := strings.ToLower(speech)
	for _, phrase := range identityDenials {
		if strings.Contains(lower, phrase) {
			violations = append(violations,
				fmt.Sprintf("CRITICAL: identity denial %q in speech", phrase))
		}
	}
	return violations
}

func checkIdentityDrift(updates []BeliefUpdate) []string {
	var violations []string
	for _, u := range updates {
		entity := strings.ToLower(u.Entity)
		relation := strings.ToLower(u.Relation)
		value := strings.ToLower(u.Value)
		if !identityEntities[entity] {
			continue
		}
		if relation == "has_body" && value == "true" {
			violations = append(violations,
				"CRITICAL: attempting to assert has_body=true")
		}
		if relation == "is_ai" && value == "false" {
			violations = append(violations,
				"CRITICAL: attempting to deny AI nature")
		}
	}
	return violations
}

func checkPhysicalClaims(speech string) []string {
	var violations []string
	lower := strings.ToLower(speech)
	for _, phrase := range physicalClaims {
		if strings.Contains(lower, phrase) {
			violations = append(violations,
				fmt.Sprintf("WARNING: impossible physical claim %q", phrase))
		}
	}
	return violations
}

func (v *Validator) checkBeliefConflicts(updates []BeliefUpdate) []string {
	if v.beliefs == nil {
		return nil
	}
	var violations []string
	for _, u := range updates {
		if u.Entity == "" || u.Relation == "" || u.Value == "" {
			continue
		}
		existing, found, err := v.beliefs.Get(u.Entity, u.Relation)
		if err != nil || !found {
			continue
		}
		if !strings.EqualFold(existing, u.Value) {
			violations = append(violations, fmt.Sprintf(
				"WARNING: belief conflict (%s, %s) was %q, now claiming %q",
				u.Entity, u.Relation, existing, u.Value))
		}
	}
	return violations
}

func checkActionRequest(action string) []string {
	lower := strings.ToLower(action)
	for allowed := range allowedActions {
		if strings.Contains(lower, allowed) {
			return nil
		}
	}
	return []string{fmt.Sprintf("WARNING: unknown action request %q", action)}
}

// AutoCorrect rewrites speech to fix warning-level violations. Returns
// the corrected text and true, or "" and false when nothing could be
// fixed or a critical violation is present.
func (v *Validator) AutoCorrect(result ValidationResult, speech string) (string, bool) {
	if len(result.Violations) == 0 {
		return speech, true
	}
	if result.Severity == SeverityCritical {
		return "", false
	}

	corrected := iSeeRe.ReplaceAllString(speech, "i understand")
	corrected = hereRe.ReplaceAllString(corrected, "in this conversation")

	if corrected == speech {
		return "", false
	}
	v.log.Info("auto-corrected speech", zap.Strings("violations", result.Violations))
	return corrected, true
}
