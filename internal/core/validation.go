package core

// validation.go checks raw user inputs against the field registry before any
// SQL parameter is built.
//
// Validation is total: every applicable error is collected and returned
// together so the UI can surface all problems at once. A required-but-empty
// field short-circuits further checks on that field only.

import (
	"fmt"
	"strings"
	"time"
)

// dateLayout is the wire format for date inputs (ISO-8601 date).
const dateLayout = "2006-01-02"

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Message
}

// ValidationResult contains the ordered errors from validating one input set.
// Empty means valid.
type ValidationResult struct {
	Errors []ValidationError `json:"errors"`
}

// Valid reports whether the input set passed all checks.
func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Messages returns the error texts in field order.
func (r ValidationResult) Messages() []string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return msgs
}

func (r *ValidationResult) add(field, message string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message})
}

// ValidateInputs checks every field the data source declares, in declaration
// order, and returns all errors found. An unknown source yields a single
// uniform error so callers can render it like any other problem.
func ValidateInputs(sourceKey string, inputs InputSet) ValidationResult {
	var result ValidationResult

	defs, ok := SourceFields(sourceKey)
	if !ok {
		result.add("", fmt.Sprintf("Unknown data source: %s", sourceKey))
		return result
	}

	for _, def := range defs {
		validateField(def, inputs, &result)
	}

	return result
}

func validateField(def FieldDef, inputs InputSet, result *ValidationResult) {
	switch def.Kind {
	case FieldDateRange:
		validateDateRange(def, inputs, result)
	case FieldSelect:
		validateSelect(def, inputs[def.Name], result)
	default:
		validateText(def, inputs[def.Name], result)
	}
}

func validateText(def FieldDef, value string, result *ValidationResult) {
	value = strings.TrimSpace(value)

	if value == "" {
		if def.Required {
			result.add(def.Name, fmt.Sprintf("%s is required", def.Label))
		}
		return
	}

	if !def.Numeric {
		return
	}

	tokens := splitTokens(value)

	if def.MultiValue {
		if def.MaxValues > 0 && len(tokens) > def.MaxValues {
			result.add(def.Name, fmt.Sprintf("You can enter at most %d values for %s", def.MaxValues, def.Label))
		}
		for _, tok := range tokens {
			if !allDigits(tok) {
				result.add(def.Name, fmt.Sprintf("%s must be numeric", def.Label))
				break
			}
		}
		return
	}

	if len(tokens) > 1 {
		result.add(def.Name, fmt.Sprintf("You can only enter one %s", def.Label))
		return
	}
	if len(tokens) == 1 && !allDigits(tokens[0]) {
		result.add(def.Name, fmt.Sprintf("%s must be numeric", def.Label))
	}
}

func validateSelect(def FieldDef, value string, result *ValidationResult) {
	if value == "" {
		if def.Required {
			result.add(def.Name, fmt.Sprintf("%s is required", def.Label))
		}
		return
	}

	for _, opt := range def.Options {
		if opt == value {
			return
		}
	}
	result.add(def.Name, fmt.Sprintf("Invalid %s: %s", def.Label, value))
}

func validateDateRange(def FieldDef, inputs InputSet, result *ValidationResult) {
	startRaw := strings.TrimSpace(inputs["start_date"])
	endRaw := strings.TrimSpace(inputs["end_date"])

	if startRaw == "" || endRaw == "" {
		if def.Required {
			result.add(def.Name, "Both start and end dates are required")
		}
		return
	}

	start, err := time.Parse(dateLayout, startRaw)
	if err != nil {
		result.add(def.Name, fmt.Sprintf("Invalid start date: %s (use YYYY-MM-DD)", startRaw))
		return
	}
	end, err := time.Parse(dateLayout, endRaw)
	if err != nil {
		result.add(def.Name, fmt.Sprintf("Invalid end date: %s (use YYYY-MM-DD)", endRaw))
		return
	}

	if start.After(end) {
		result.add(def.Name, "Start date cannot be after end date")
		return
	}

	// Cross-field rule: the allowed span shrinks as more storefronts are
	// requested. The tiers come from the field definition, not from code.
	if len(def.SpanTiers) == 0 {
		return
	}
	storefronts := len(splitTokens(inputs["storefront_ids"]))
	if storefronts == 0 {
		return
	}

	maxDays := spanLimit(def.SpanTiers, storefronts)
	days := int(end.Sub(start).Hours() / 24)
	if days > maxDays {
		result.add(def.Name, fmt.Sprintf(
			"With %d storefront(s), the maximum allowed period is %d days. Please select a shorter date range.",
			storefronts, maxDays))
	}
}

// spanLimit returns the day cap for the given storefront count. Tiers are
// evaluated in order; a tier with MaxStorefronts == 0 matches any count.
func spanLimit(tiers []SpanTier, storefronts int) int {
	for _, tier := range tiers {
		if tier.MaxStorefronts == 0 || storefronts <= tier.MaxStorefronts {
			return tier.MaxDays
		}
	}
	return tiers[len(tiers)-1].MaxDays
}

// splitTokens splits a comma-separated value, trimming whitespace and
// dropping empty tokens.
func splitTokens(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
