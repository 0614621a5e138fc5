package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes the sort order to ASC or DESC, defaulting to DESC.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when whitelisted, otherwise defaultField.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

var AccountSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"code":       true,
	"name":       true,
	"kind":       true,
}

var InvoiceSortFields = map[string]bool{
	"created_at":       true,
	"issued_at":        true,
	"number":           true,
	"total_amount":     true,
	"remaining_amount": true,
	"status":           true,
}

var PaymentSortFields = map[string]bool{
	"created_at": true,
	"paid_at":    true,
	"amount":     true,
	"status":     true,
}

var AdjustmentSortFields = map[string]bool{
	"created_at": true,
	"amount":     true,
}

// orderClause builds a safe ORDER BY from a whitelisted field. id breaks ties
// so pages stay stable when timestamps collide.
func orderClause(field, dir string, allowed map[string]bool, defaultField string) string {
	return ValidateSortField(field, allowed, defaultField) + " " + ValidateSortOrder(dir) + ", id " + ValidateSortOrder(dir)
}
