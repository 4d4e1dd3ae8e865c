// Package api provides the HTTP interface of the concordance service.
package api

import (
	"fmt"
	"strings"

	"github.com/gcbaptista/imagination-concordance/config"
	"github.com/gcbaptista/imagination-concordance/model"
)

const (
	maxQueryLength    = 500
	maxSelectedValues = 5000
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// SearchRequest is the body of POST /api/search. Omitted years fall back to
// the configured bounds.
type SearchRequest struct {
	Query      string   `json:"query"`
	Categories []string `json:"categories"`
	Authors    []string `json:"authors"`
	YearMin    *int     `json:"year_min"`
	YearMax    *int     `json:"year_max"`
}

// Criteria converts the request into search criteria.
func (r SearchRequest) Criteria(filters config.FilterSettings) model.SearchCriteria {
	criteria := model.SearchCriteria{
		Query:      strings.TrimSpace(r.Query),
		Categories: r.Categories,
		Authors:    r.Authors,
		YearMin:    filters.YearMin,
		YearMax:    filters.YearMax,
	}
	if r.YearMin != nil {
		criteria.YearMin = *r.YearMin
	}
	if r.YearMax != nil {
		criteria.YearMax = *r.YearMax
	}
	return criteria
}

// ValidateSearchRequest validates a search request body
func ValidateSearchRequest(req *SearchRequest, filters config.FilterSettings, features config.FeatureSettings) *ValidationResult {
	result := &ValidationResult{Valid: true}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		result.AddError("query", "Please enter a search term")
	} else if len(query) > maxQueryLength {
		result.AddError("query", fmt.Sprintf("Query cannot be longer than %d characters", maxQueryLength))
	}

	validateSelection(result, "categories", req.Categories)
	validateSelection(result, "authors", req.Authors)

	if features.YearFilter {
		criteria := req.Criteria(filters)
		if criteria.YearMin > criteria.YearMax {
			result.AddError("year_min", fmt.Sprintf("Start year %d is after end year %d", criteria.YearMin, criteria.YearMax))
		}
	}

	return result
}

func validateSelection(result *ValidationResult, field string, values []string) {
	if len(values) > maxSelectedValues {
		result.AddError(field, fmt.Sprintf("Cannot select more than %d values", maxSelectedValues))
		return
	}
	for i, v := range values {
		if strings.TrimSpace(v) == "" {
			result.AddError(fmt.Sprintf("%s[%d]", field, i), "Selected value cannot be empty")
		}
	}
}

// ValidateIdentifier validates a record identifier path parameter
func ValidateIdentifier(identifier string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if identifier == "" {
		result.AddError("identifier", "Identifier is required")
		return result
	}

	if strings.TrimSpace(identifier) != identifier {
		result.AddError("identifier", "Identifier cannot have leading or trailing whitespace")
	}

	return result
}
