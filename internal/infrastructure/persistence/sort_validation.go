package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// InstallmentSortFields contains allowed sort fields for payment installments
var InstallmentSortFields = map[string]bool{
	"created_at":         true,
	"updated_at":         true,
	"description":        true,
	"amount":             true,
	"due_date":           true,
	"payment_date":       true,
	"status":             true,
	"installment_number": true,
}

// PlanSortFields contains allowed sort fields for recurring billing plans
var PlanSortFields = map[string]bool{
	"created_at":  true,
	"updated_at":  true,
	"description": true,
	"amount":      true,
	"start_date":  true,
	"status":      true,
}

// CashFlowSortFields contains allowed sort fields for ledger entries
var CashFlowSortFields = map[string]bool{
	"created_at": true,
	"date":       true,
	"amount":     true,
	"category":   true,
	"type":       true,
}
