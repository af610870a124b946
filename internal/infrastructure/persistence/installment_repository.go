package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/backoffice/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInstallmentRepository implements billing.InstallmentRepository using GORM
type GormInstallmentRepository struct {
	db *gorm.DB
}

// NewGormInstallmentRepository creates a new GormInstallmentRepository
func NewGormInstallmentRepository(db *gorm.DB) *GormInstallmentRepository {
	return &GormInstallmentRepository{db: db}
}

// FindByID finds an installment by its ID
func (r *GormInstallmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.PaymentInstallment, error) {
	var model models.PaymentInstallmentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists installments matching the filter
func (r *GormInstallmentRepository) FindAll(ctx context.Context, filter billing.InstallmentFilter) ([]*billing.PaymentInstallment, error) {
	var rows []models.PaymentInstallmentModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.PaymentInstallmentModel{}), filter)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return installmentsToDomain(rows), nil
}

// Save creates or updates an installment
func (r *GormInstallmentRepository) Save(ctx context.Context, installment *billing.PaymentInstallment) error {
	return r.db.WithContext(ctx).Save(models.PaymentInstallmentModelFromDomain(installment)).Error
}

// SaveBatch saves installments one by one in order, stopping at the first failure
func (r *GormInstallmentRepository) SaveBatch(ctx context.Context, installments []*billing.PaymentInstallment) error {
	for _, installment := range installments {
		if err := r.Save(ctx, installment); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes an installment
func (r *GormInstallmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PaymentInstallmentModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindPaidWithoutCashFlowEntry lists paid installments that have no ledger entry
func (r *GormInstallmentRepository) FindPaidWithoutCashFlowEntry(ctx context.Context) ([]*billing.PaymentInstallment, error) {
	var rows []models.PaymentInstallmentModel
	err := r.db.WithContext(ctx).
		Where("status = ?", billing.PaymentStatusPaid).
		Where("NOT EXISTS (SELECT 1 FROM cash_flow_entries c WHERE c.payment_id = payment_installments.id)").
		Order("payment_date ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return installmentsToDomain(rows), nil
}

func (r *GormInstallmentRepository) applyFilter(query *gorm.DB, filter billing.InstallmentFilter) *gorm.DB {
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.DescriptionPrefix != "" {
		query = query.Where(`description LIKE ? ESCAPE '\'`, escapeLike(filter.DescriptionPrefix)+"%")
	}
	if filter.TotalInstallments != nil {
		query = query.Where("total_installments = ?", *filter.TotalInstallments)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.SeriesOnly {
		query = query.Where("installment_number IS NOT NULL")
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", billing.NormalizeDate(*filter.DueFrom))
	}
	if filter.DueTo != nil {
		query = query.Where("due_date <= ?", billing.NormalizeDate(*filter.DueTo))
	}

	if filter.OrderBy != "" {
		field := ValidateSortField(filter.OrderBy, InstallmentSortFields, "due_date")
		query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir)).Order("id ASC")
	} else {
		query = query.Order("installment_number ASC, due_date ASC, id ASC")
	}

	return paginate(query, filter.Filter)
}

// paginate applies limit and offset only when a page size was requested.
// Series resolution passes a zero filter and must see every row.
func paginate(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if !filter.Paged() {
		return query
	}
	return query.Limit(filter.PageSize).Offset(filter.Offset())
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE wildcards so the value matches literally
func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}

func installmentsToDomain(rows []models.PaymentInstallmentModel) []*billing.PaymentInstallment {
	result := make([]*billing.PaymentInstallment, len(rows))
	for i := range rows {
		result[i] = rows[i].ToDomain()
	}
	return result
}

var _ billing.InstallmentRepository = (*GormInstallmentRepository)(nil)
