package persistence

import (
	"context"
	"errors"

	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/backoffice/ledger/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCashFlowRepository implements billing.CashFlowRepository using GORM.
// Entries are never updated or deleted.
type GormCashFlowRepository struct {
	db *gorm.DB
}

// NewGormCashFlowRepository creates a new GormCashFlowRepository
func NewGormCashFlowRepository(db *gorm.DB) *GormCashFlowRepository {
	return &GormCashFlowRepository{db: db}
}

// FindAll lists ledger entries matching the filter, oldest first by default
func (r *GormCashFlowRepository) FindAll(ctx context.Context, filter billing.CashFlowFilter) ([]*billing.CashFlowEntry, error) {
	query := r.db.WithContext(ctx).Model(&models.CashFlowEntryModel{})
	if filter.PaymentID != nil {
		query = query.Where("payment_id = ?", *filter.PaymentID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.From != nil {
		query = query.Where("date >= ?", billing.NormalizeDate(*filter.From))
	}
	if filter.To != nil {
		query = query.Where("date <= ?", billing.NormalizeDate(*filter.To))
	}
	if filter.OrderBy != "" {
		field := ValidateSortField(filter.OrderBy, CashFlowSortFields, "date")
		query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
	} else {
		query = query.Order("date ASC")
	}
	query = query.Order("created_at ASC").Order("id ASC")

	var rows []models.CashFlowEntryModel
	if err := paginate(query, filter.Filter).Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]*billing.CashFlowEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}

// Insert appends an entry. A second entry for the same payment id is
// rejected by the unique index and reported as billing.ErrAlreadyBooked.
func (r *GormCashFlowRepository) Insert(ctx context.Context, entry *billing.CashFlowEntry) error {
	model := models.CashFlowEntryModelFromDomain(entry)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_id"}},
			DoNothing: true,
		}).
		Create(model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return billing.ErrAlreadyBooked
		}
		return result.Error
	}
	if result.RowsAffected == 0 && entry.PaymentID != nil {
		return billing.ErrAlreadyBooked
	}
	return nil
}

var _ billing.CashFlowRepository = (*GormCashFlowRepository)(nil)
