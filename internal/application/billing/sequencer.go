package billing

import (
	"context"

	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/backoffice/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InstallmentSequencer keeps series numbering contiguous across deletes
type InstallmentSequencer struct {
	scope     TransactionScope
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewInstallmentSequencer creates a new InstallmentSequencer
func NewInstallmentSequencer(scope TransactionScope, publisher shared.EventPublisher, logger *zap.Logger) *InstallmentSequencer {
	return &InstallmentSequencer{
		scope:     scope,
		publisher: publisher,
		logger:    logger,
	}
}

// DeleteInstallment deletes an installment and renumbers its remaining siblings.
//
// With a non-atomic scope the delete cannot be undone once stored: a failure
// while renumbering is reported on the result (NeedsResequence plus a warning)
// instead of as an error. Renumbering always recomputes 1..N from a fresh
// resolution, so the next delete or a ResequenceSeries call heals the series.
func (s *InstallmentSequencer) DeleteInstallment(ctx context.Context, id uuid.UUID) (*DeleteResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sequencer", "delete_installment",
		telemetry.ID(telemetry.AttrInstallmentID, id),
	)
	defer span.End()

	var (
		result *DeleteResult
		events []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		result = &DeleteResult{InstallmentID: id}
		events = nil

		target, err := loadInstallment(ctx, repos, id)
		if err != nil {
			return err
		}

		if !target.IsInSeries() {
			if err := repos.Installments().Delete(ctx, id); err != nil {
				return billing.NewStoreError("delete installment", err)
			}
			events = append(events, billing.NewInstallmentDeletedEvent(target))
			return nil
		}
		result.WasInSeries = true

		resolution, err := resolveSeries(ctx, repos, target, s.logger)
		if err != nil {
			return err
		}
		if resolution.violation != nil {
			result.Warnings = append(result.Warnings, resolution.violation.Error())
		}

		if err := repos.Installments().Delete(ctx, id); err != nil {
			return billing.NewStoreError("delete installment", err)
		}
		events = append(events, billing.NewInstallmentDeletedEvent(target))

		remaining := resolution.series.Without(id)
		result.RemainingCount = remaining.Len()

		changed, planID, err := applyRenumber(ctx, repos, remaining)
		result.Renumbered = len(changed)
		result.PlanID = planID
		if err != nil {
			if s.scope.Atomic() {
				return err
			}
			result.NeedsResequence = true
			result.Warnings = append(result.Warnings, "installment deleted but series renumbering failed: "+err.Error())
			s.logger.Error("series renumbering failed after delete",
				zap.String("installment_id", id.String()),
				zap.String("base_description", remaining.BaseDescription),
				zap.Error(err),
			)
			return nil
		}
		if len(changed) > 0 {
			events = append(events, billing.NewSeriesRenumberedEvent(derefID(planID), remaining, changed))
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.AttrSeriesSize.Int(result.RemainingCount),
		telemetry.AttrRenumbered.Int(result.Renumbered),
	)
	s.logger.Info("installment deleted",
		zap.String("installment_id", id.String()),
		zap.Bool("in_series", result.WasInSeries),
		zap.Int("remaining", result.RemainingCount),
		zap.Int("renumbered", result.Renumbered),
		zap.Bool("needs_resequence", result.NeedsResequence),
	)
	publishEvents(ctx, s.publisher, s.logger, events)
	return result, nil
}

// ResequenceSeries repairs the series containing the given installment.
// Siblings are resolved by client and base description only, so members left
// with a stale total by an interrupted renumber are included.
func (s *InstallmentSequencer) ResequenceSeries(ctx context.Context, id uuid.UUID) (*ResequenceResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sequencer", "resequence_series",
		telemetry.ID(telemetry.AttrInstallmentID, id),
	)
	defer span.End()

	var (
		result *ResequenceResult
		events []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		events = nil
		anchor, err := loadInstallment(ctx, repos, id)
		if err != nil {
			return err
		}
		if !anchor.IsInSeries() {
			return billing.NewValidationError("installment %s is not part of a series", id)
		}

		series, err := resolveSeriesLoose(ctx, repos, anchor)
		if err != nil {
			return err
		}
		result = &ResequenceResult{
			BaseDescription: series.BaseDescription,
			Total:           series.Len(),
			WasConsistent:   series.CheckConsistency() == nil,
		}

		changed, planID, err := applyRenumber(ctx, repos, series)
		result.Renumbered = len(changed)
		result.PlanID = planID
		if err != nil {
			return err
		}
		if len(changed) > 0 {
			events = append(events, billing.NewSeriesRenumberedEvent(derefID(planID), series, changed))
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("series resequenced",
		zap.String("installment_id", id.String()),
		zap.String("base_description", result.BaseDescription),
		zap.Int("total", result.Total),
		zap.Int("renumbered", result.Renumbered),
		zap.Bool("was_consistent", result.WasConsistent),
	)
	publishEvents(ctx, s.publisher, s.logger, events)
	return result, nil
}

func derefID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}
