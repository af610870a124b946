package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "DESC"},
		{"asc", "ASC"},
		{"  ASC ", "ASC"},
		{"desc", "DESC"},
		{"ASC; DROP TABLE payment_installments;--", "DESC"},
	}

	for _, tt := range tests {
		t.Run("order "+tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	t.Run("accepts whitelisted field", func(t *testing.T) {
		assert.Equal(t, "due_date", ValidateSortField(" due_date ", InstallmentSortFields, "created_at"))
	})

	t.Run("falls back on empty field", func(t *testing.T) {
		assert.Equal(t, "date", ValidateSortField("", CashFlowSortFields, "date"))
	})

	t.Run("rejects injection payloads", func(t *testing.T) {
		payloads := []string{
			"due_date; DROP TABLE cash_flow_entries;--",
			"amount' OR '1'='1",
			"status UNION SELECT * FROM recurring_billing_plans",
			"CASE WHEN 1=1 THEN amount ELSE status END",
		}
		for _, payload := range payloads {
			assert.Equal(t, "created_at", ValidateSortField(payload, PlanSortFields, "created_at"), payload)
		}
	})

	t.Run("whitelists share timestamp fields", func(t *testing.T) {
		for name, fields := range map[string]map[string]bool{
			"installments": InstallmentSortFields,
			"plans":        PlanSortFields,
			"cash_flow":    CashFlowSortFields,
		} {
			assert.True(t, fields["created_at"], name)
		}
	})
}
