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

// PaymentStatusService applies status transitions and edits to single installments
type PaymentStatusService struct {
	scope     TransactionScope
	ledger    *LedgerSynchronizer
	locker    shared.Locker
	publisher shared.EventPublisher
	settings  Settings
	logger    *zap.Logger
}

// NewPaymentStatusService creates a new PaymentStatusService.
// locker and publisher may be nil.
func NewPaymentStatusService(
	scope TransactionScope,
	ledger *LedgerSynchronizer,
	locker shared.Locker,
	publisher shared.EventPublisher,
	settings Settings,
	logger *zap.Logger,
) *PaymentStatusService {
	return &PaymentStatusService{
		scope:     scope,
		ledger:    ledger,
		locker:    locker,
		publisher: publisher,
		settings:  settings.withDefaults(),
		logger:    logger,
	}
}

// MarkPaid settles an installment and books its income.
//
// Calling it again on a paid installment does not touch the installment and
// books nothing new; it only inserts the ledger entry if a previous call
// stopped between the two writes.
func (s *PaymentStatusService) MarkPaid(ctx context.Context, id uuid.UUID, paymentDate time.Time) (*MarkPaidResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment_status", "mark_paid",
		telemetry.ID(telemetry.AttrInstallmentID, id),
	)
	defer span.End()

	if paymentDate.IsZero() {
		err := billing.NewValidationError("payment_date is required when status is paid")
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		result *MarkPaidResult
		events []shared.DomainEvent
	)
	err := withPaymentLock(ctx, s.locker, id, s.settings.PaymentLockTTL, s.logger, func() error {
		return s.scope.Execute(ctx, func(repos Repositories) error {
			inst, err := loadInstallment(ctx, repos, id)
			if err != nil {
				return err
			}

			if !inst.IsPaid() {
				if _, err := inst.MarkPaid(paymentDate); err != nil {
					return err
				}
				if err := repos.Installments().Save(ctx, inst); err != nil {
					return billing.NewStoreError("update installment status", err)
				}
			}

			booked, err := s.ledger.SyncInstallment(ctx, repos, inst)
			if err != nil {
				return err
			}
			result = &MarkPaidResult{Installment: inst, LedgerBooked: booked}
			events = inst.PullDomainEvents()
			return nil
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("mark paid failed", zap.String("installment_id", id.String()), zap.Error(err))
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.AttrLedgerBooked.Bool(result.LedgerBooked))
	publishEvents(ctx, s.publisher, s.logger, events)
	return result, nil
}

// ChangeStatus moves an installment to a new status.
// paymentDate and paidAmount are only consulted for paid and partially_paid.
func (s *PaymentStatusService) ChangeStatus(ctx context.Context, id uuid.UUID, status billing.PaymentStatus, patch billing.InstallmentPatch) (*UpdateResult, error) {
	patch.Status = &status
	return s.UpdateInstallment(ctx, id, patch)
}

// UpdateInstallment applies a partial edit. The whole resulting record is
// validated before any write; a transition into paid books the ledger.
func (s *PaymentStatusService) UpdateInstallment(ctx context.Context, id uuid.UUID, patch billing.InstallmentPatch) (*UpdateResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment_status", "update_installment",
		telemetry.ID(telemetry.AttrInstallmentID, id),
	)
	defer span.End()
	if patch.Status != nil {
		telemetry.SetAttributes(span, telemetry.AttrStatus.String(string(*patch.Status)))
	}

	var (
		result *UpdateResult
		events []shared.DomainEvent
	)
	err := withPaymentLock(ctx, s.locker, id, s.settings.PaymentLockTTL, s.logger, func() error {
		return s.scope.Execute(ctx, func(repos Repositories) error {
			inst, err := loadInstallment(ctx, repos, id)
			if err != nil {
				return err
			}
			realized, err := inst.ApplyPatch(patch)
			if err != nil {
				return err
			}
			if err := repos.Installments().Save(ctx, inst); err != nil {
				return billing.NewStoreError("update installment", err)
			}

			result = &UpdateResult{Installment: inst}
			if realized {
				booked, err := s.ledger.SyncInstallment(ctx, repos, inst)
				if err != nil {
					return err
				}
				result.LedgerBooked = booked
			}
			events = inst.PullDomainEvents()
			return nil
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		if billing.IsValidationError(err) {
			s.logger.Info("installment edit rejected", zap.String("installment_id", id.String()), zap.Error(err))
		} else {
			s.logger.Error("installment edit failed", zap.String("installment_id", id.String()), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("installment updated",
		zap.String("installment_id", id.String()),
		zap.String("status", result.Installment.Status.String()),
		zap.Bool("ledger_booked", result.LedgerBooked),
	)
	publishEvents(ctx, s.publisher, s.logger, events)
	return result, nil
}
