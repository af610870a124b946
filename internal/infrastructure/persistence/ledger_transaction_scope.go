package persistence

import (
	"context"

	appbilling "github.com/backoffice/ledger/internal/application/billing"
	"github.com/backoffice/ledger/internal/domain/billing"
	"gorm.io/gorm"
)

// GormTransactionScope implements appbilling.TransactionScope using GORM transactions.
// Every repository handed to fn shares one transaction; an error from fn rolls all writes back.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appbilling.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormRepositories(tx))
	})
}

// Atomic is true for database transactions.
func (s *GormTransactionScope) Atomic() bool {
	return true
}

// GormRepositories builds ledger repositories over one *gorm.DB, which may be a transaction.
type GormRepositories struct {
	db *gorm.DB
}

// NewGormRepositories creates repositories bound to db.
func NewGormRepositories(db *gorm.DB) *GormRepositories {
	return &GormRepositories{db: db}
}

func (r *GormRepositories) Installments() billing.InstallmentRepository {
	return NewGormInstallmentRepository(r.db)
}

func (r *GormRepositories) Plans() billing.PlanRepository {
	return NewGormPlanRepository(r.db)
}

func (r *GormRepositories) CashFlow() billing.CashFlowRepository {
	return NewGormCashFlowRepository(r.db)
}

// NewNoOpTransactionScope wires the non-transactional scope to GORM repositories
// for deployments running with transactional writes disabled.
func NewNoOpTransactionScope(db *gorm.DB) *appbilling.NoOpTransactionScope {
	return appbilling.NewNoOpTransactionScope(
		NewGormInstallmentRepository(db),
		NewGormPlanRepository(db),
		NewGormCashFlowRepository(db),
	)
}

var (
	_ appbilling.TransactionScope = (*GormTransactionScope)(nil)
	_ appbilling.Repositories     = (*GormRepositories)(nil)
)
