package validation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/joseph-ayodele/policy-extract/constants"
	"github.com/joseph-ayodele/policy-extract/internal/entity"
)

const (
	// PremiumTolerance absorbs rounding between basic + taxes and final premium.
	PremiumTolerance = 2.0
	// DaysPerMonth approximates a calendar month for tenure checks.
	DaysPerMonth = 30.44
	// TenureToleranceMonths is the allowed drift between computed and declared tenure.
	TenureToleranceMonths = 1
)

// Rule inspects a record and returns zero or more findings. Rules must be
// total: malformed input degrades to neutral values, never a panic.
type Rule func(rec entity.Record) []entity.Finding

// Engine runs its rules in order and accumulates every finding.
type Engine struct {
	rules []Rule
}

// NewEngine returns an engine running rules in the given order.
func NewEngine(rules ...Rule) *Engine {
	return &Engine{rules: rules}
}

// DefaultRules is the policy rule set in priority order.
func DefaultRules() []Rule {
	return []Rule{
		RequiredFields(constants.RequiredFields...),
		PremiumArithmetic,
		DateOrdering,
		TenureConsistency,
	}
}

var defaultEngine = NewEngine(DefaultRules()...)

// Validate runs the default rule set.
func Validate(rec entity.Record) []entity.Finding {
	return defaultEngine.Validate(rec)
}

// Validate runs every rule; the result is nil when nothing was found.
func (e *Engine) Validate(rec entity.Record) []entity.Finding {
	var out []entity.Finding
	for _, rule := range e.rules {
		out = append(out, rule(rec)...)
	}
	return out
}

// RequiredFields flags each listed field that is blank after trimming.
func RequiredFields(fields ...constants.FieldName) Rule {
	return func(rec entity.Record) []entity.Finding {
		var out []entity.Finding
		for _, f := range fields {
			if strings.TrimSpace(rec.Get(f)) == "" {
				out = append(out, entity.FieldFinding(f, fmt.Sprintf("%s is missing", f), constants.SeverityError))
			}
		}
		return out
	}
}

// PremiumArithmetic checks basic + taxes against final premium.
func PremiumArithmetic(rec entity.Record) []entity.Finding {
	basic := ParseAmount(rec.Get(constants.FieldBasicPremium))
	taxes := ParseAmount(rec.Get(constants.FieldTaxes))
	final := ParseAmount(rec.Get(constants.FieldFinalPremium))
	if final <= 0 || math.Abs(basic+taxes-final) <= PremiumTolerance {
		return nil
	}
	msg := fmt.Sprintf("Premium Math Error: %s + %s != %s",
		formatAmount(basic), formatAmount(taxes), formatAmount(final))
	return []entity.Finding{entity.CrossFieldFinding(msg, constants.SeverityError)}
}

// DateOrdering requires the policy to start strictly before it ends.
func DateOrdering(rec entity.Record) []entity.Finding {
	start, okStart := ParseDate(rec.Get(constants.FieldPolicyStartDate))
	end, okEnd := ParseDate(rec.Get(constants.FieldPolicyEndDate))
	if !okStart || !okEnd || start.Before(end) {
		return nil
	}
	return []entity.Finding{entity.CrossFieldFinding("Start date must be before end date", constants.SeverityError)}
}

// TenureConsistency compares the declared tenure with the policy period.
// The month length is approximate, so mismatches are warnings.
func TenureConsistency(rec entity.Record) []entity.Finding {
	start, okStart := ParseDate(rec.Get(constants.FieldPolicyStartDate))
	end, okEnd := ParseDate(rec.Get(constants.FieldPolicyEndDate))
	declared := ParseTenure(rec.Get(constants.FieldTenureMonths))
	if !okStart || !okEnd || declared <= 0 {
		return nil
	}
	computed := ElapsedMonths(start, end)
	if abs(computed-declared) <= TenureToleranceMonths {
		return nil
	}
	msg := fmt.Sprintf("Tenure mismatch: Calculated %dm vs Extracted %dm", computed, declared)
	return []entity.Finding{entity.FieldFinding(constants.FieldTenureMonths, msg, constants.SeverityWarning)}
}

// ElapsedMonths is the absolute day distance divided by DaysPerMonth,
// rounded to the nearest integer. Unix seconds are used because a
// time.Duration cannot span more than about 292 years.
func ElapsedMonths(a, b time.Time) int {
	days := math.Abs(float64(b.Unix()-a.Unix()) / 86400)
	return int(math.Round(days / DaysPerMonth))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
