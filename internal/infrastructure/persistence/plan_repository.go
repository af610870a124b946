package persistence

import (
	"context"
	"errors"

	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/backoffice/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPlanRepository implements billing.PlanRepository using GORM
type GormPlanRepository struct {
	db *gorm.DB
}

// NewGormPlanRepository creates a new GormPlanRepository
func NewGormPlanRepository(db *gorm.DB) *GormPlanRepository {
	return &GormPlanRepository{db: db}
}

// FindByID finds a plan by its ID
func (r *GormPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.RecurringBillingPlan, error) {
	var model models.RecurringBillingPlanModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySeries finds the oldest plan whose description equals the series base
func (r *GormPlanRepository) FindBySeries(ctx context.Context, clientID uuid.UUID, baseDescription string) (*billing.RecurringBillingPlan, error) {
	var model models.RecurringBillingPlanModel
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND description = ?", clientID, baseDescription).
		Order("created_at ASC, id ASC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists plans matching the filter
func (r *GormPlanRepository) FindAll(ctx context.Context, filter billing.PlanFilter) ([]*billing.RecurringBillingPlan, error) {
	query := r.db.WithContext(ctx).Model(&models.RecurringBillingPlanModel{})
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	field := ValidateSortField(filter.OrderBy, PlanSortFields, "created_at")
	query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir)).Order("id ASC")

	var rows []models.RecurringBillingPlanModel
	if err := paginate(query, filter.Filter).Find(&rows).Error; err != nil {
		return nil, err
	}
	plans := make([]*billing.RecurringBillingPlan, len(rows))
	for i := range rows {
		plans[i] = rows[i].ToDomain()
	}
	return plans, nil
}

// Save creates or updates a plan
func (r *GormPlanRepository) Save(ctx context.Context, plan *billing.RecurringBillingPlan) error {
	return r.db.WithContext(ctx).Save(models.RecurringBillingPlanModelFromDomain(plan)).Error
}

var _ billing.PlanRepository = (*GormPlanRepository)(nil)
