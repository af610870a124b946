package billing

import (
	"time"

	"github.com/backoffice/ledger/internal/domain/billing"
)

// Settings tunes the billing services
type Settings struct {
	LedgerCategory string        // category of booked income entries
	CopySuffix     string        // appended to duplicated descriptions
	PaymentLockTTL time.Duration // lifetime of the per-payment mark-paid lock
}

// DefaultSettings returns the settings used when none are configured
func DefaultSettings() Settings {
	return Settings{
		LedgerCategory: billing.DefaultLedgerCategory,
		CopySuffix:     " (Cópia)",
		PaymentLockTTL: 30 * time.Second,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.LedgerCategory == "" {
		s.LedgerCategory = d.LedgerCategory
	}
	if s.CopySuffix == "" {
		s.CopySuffix = d.CopySuffix
	}
	if s.PaymentLockTTL <= 0 {
		s.PaymentLockTTL = d.PaymentLockTTL
	}
	return s
}
