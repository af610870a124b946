package billing

import (
	"context"
	"time"

	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/backoffice/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PlanService manages recurring billing plans and their whole-series operations
type PlanService struct {
	scope     TransactionScope
	ledger    *LedgerSynchronizer
	locker    shared.Locker
	publisher shared.EventPublisher
	settings  Settings
	logger    *zap.Logger
}

// NewPlanService creates a new PlanService
func NewPlanService(
	scope TransactionScope,
	ledger *LedgerSynchronizer,
	locker shared.Locker,
	publisher shared.EventPublisher,
	settings Settings,
	logger *zap.Logger,
) *PlanService {
	return &PlanService{
		scope:     scope,
		ledger:    ledger,
		locker:    locker,
		publisher: publisher,
		settings:  settings.withDefaults(),
		logger:    logger,
	}
}

// CreatePlan stores a plan and its full series of pending installments.
// A client cannot have two plans (or stray installments) with the same base
// description, since the series would be indistinguishable.
func (s *PlanService) CreatePlan(ctx context.Context, input CreatePlanInput) (*PlanDetail, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "plan", "create",
		telemetry.ID(telemetry.AttrClientID, input.ClientID),
		telemetry.AttrAmount.String(input.Amount.String()),
	)
	defer span.End()

	plan, err := billing.NewRecurringBillingPlan(billing.PlanParams{
		ClientID:      input.ClientID,
		Description:   input.Description,
		Amount:        input.Amount,
		Installments:  input.Installments,
		DueDay:        input.DueDay,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		PaymentMethod: input.PaymentMethod,
		EmailTemplate: input.EmailTemplate,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	installments := plan.GenerateInstallments()

	err = s.scope.Execute(ctx, func(repos Repositories) error {
		existing, err := findSeriesPlan(ctx, repos, plan.ClientID, plan.Description)
		if err != nil {
			return err
		}
		if existing != nil {
			return billing.NewValidationError("client already has a plan described %q", plan.Description)
		}
		stray, err := listSeriesCandidates(ctx, repos, plan.ClientID, plan.Description, nil)
		if err != nil {
			return err
		}
		if billing.ResolvePlanSeries(plan, stray).Len() > 0 {
			return billing.NewValidationError("client already has installments described %q", plan.Description)
		}

		if err := repos.Plans().Save(ctx, plan); err != nil {
			return billing.NewStoreError("insert plan", err)
		}
		if err := repos.Installments().SaveBatch(ctx, installments); err != nil {
			return billing.NewStoreError("insert plan installments", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("plan created",
		zap.String("plan_id", plan.ID.String()),
		zap.String("client_id", plan.ClientID.String()),
		zap.Int("installments", plan.Installments),
	)
	return &PlanDetail{Plan: plan, Installments: installments}, nil
}

// GetPlan returns the plan with its freshly resolved series
func (s *PlanService) GetPlan(ctx context.Context, id uuid.UUID) (*PlanDetail, error) {
	var detail *PlanDetail
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		plan, err := loadPlan(ctx, repos, id)
		if err != nil {
			return err
		}
		series, err := resolvePlanSeries(ctx, repos, plan)
		if err != nil {
			return err
		}
		detail = &PlanDetail{Plan: plan, Installments: series.Members}
		return nil
	})
	return detail, err
}

// CancelPlan cancels the plan and every sibling that is not paid
func (s *PlanService) CancelPlan(ctx context.Context, id uuid.UUID) (*PlanDetail, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "plan", "cancel", telemetry.ID(telemetry.AttrPlanID, id))
	defer span.End()

	var (
		detail    *PlanDetail
		events    []shared.DomainEvent
		cancelled int
	)
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		plan, err := loadPlan(ctx, repos, id)
		if err != nil {
			return err
		}
		if err := plan.Cancel(); err != nil {
			return err
		}
		series, err := resolvePlanSeries(ctx, repos, plan)
		if err != nil {
			return err
		}

		if err := repos.Plans().Save(ctx, plan); err != nil {
			return billing.NewStoreError("update plan status", err)
		}
		changed := make([]*billing.PaymentInstallment, 0, series.Len())
		for _, m := range series.Members {
			if m.Cancel() {
				changed = append(changed, m)
			}
		}
		if len(changed) > 0 {
			if err := repos.Installments().SaveBatch(ctx, changed); err != nil {
				return billing.NewStoreError("cancel plan installments", err)
			}
		}
		cancelled = len(changed)
		detail = &PlanDetail{Plan: plan, Installments: series.Members}
		events = plan.PullDomainEvents()
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("plan cancelled",
		zap.String("plan_id", id.String()),
		zap.Int("installments_cancelled", cancelled),
	)
	publishEvents(ctx, s.publisher, s.logger, events)
	return detail, nil
}

// MarkPlanPaid settles every open sibling and closes the plan. Each sibling
// gets at most one ledger entry. A plan with no siblings is booked once under
// its own id. Cancelled siblings are left alone.
func (s *PlanService) MarkPlanPaid(ctx context.Context, id uuid.UUID, paymentDate time.Time) (*PlanSettlementResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "plan", "mark_paid", telemetry.ID(telemetry.AttrPlanID, id))
	defer span.End()

	if paymentDate.IsZero() {
		return nil, billing.NewValidationError("payment_date is required when status is paid")
	}

	var (
		result *PlanSettlementResult
		events []shared.DomainEvent
	)
	err := withPaymentLock(ctx, s.locker, id, s.settings.PaymentLockTTL, s.logger, func() error {
		return s.scope.Execute(ctx, func(repos Repositories) error {
			events = nil
			plan, err := loadPlan(ctx, repos, id)
			if err != nil {
				return err
			}
			if plan.Status == billing.PlanStatusCancelled {
				return billing.NewValidationError("plan %s is cancelled and cannot be paid", plan.ID)
			}
			series, err := resolvePlanSeries(ctx, repos, plan)
			if err != nil {
				return err
			}
			result = &PlanSettlementResult{Plan: plan}

			if series.IsEmpty() {
				booked, err := s.ledger.SyncPlan(ctx, repos, plan, paymentDate)
				if err != nil {
					return err
				}
				if booked {
					result.LedgerBooked++
				}
			}

			for _, m := range series.Members {
				if m.Status == billing.PaymentStatusCancelled {
					result.SkippedCancel++
					continue
				}
				// each member also takes its own payment lock so a concurrent
				// single mark-paid on it waits for the plan settlement
				err := withPaymentLock(ctx, s.locker, m.ID, s.settings.PaymentLockTTL, s.logger, func() error {
					if m.IsPaid() {
						result.AlreadyPaid++
					} else {
						if _, err := m.MarkPaid(paymentDate); err != nil {
							return err
						}
						if err := repos.Installments().Save(ctx, m); err != nil {
							return billing.NewStoreError("update installment status", err)
						}
						result.Settled++
						events = append(events, m.PullDomainEvents()...)
					}
					booked, err := s.ledger.SyncInstallment(ctx, repos, m)
					if err != nil {
						return err
					}
					if booked {
						result.LedgerBooked++
					}
					return nil
				})
				if err != nil {
					return err
				}
			}

			if err := plan.MarkPaid(); err != nil {
				return err
			}
			if err := repos.Plans().Save(ctx, plan); err != nil {
				return billing.NewStoreError("update plan status", err)
			}
			return nil
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("plan settled",
		zap.String("plan_id", id.String()),
		zap.Int("settled", result.Settled),
		zap.Int("already_paid", result.AlreadyPaid),
		zap.Int("ledger_booked", result.LedgerBooked),
	)
	publishEvents(ctx, s.publisher, s.logger, events)
	return result, nil
}
