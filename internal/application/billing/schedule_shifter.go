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

// ScheduleShifter propagates plan start date changes to sibling due dates
type ScheduleShifter struct {
	scope     TransactionScope
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewScheduleShifter creates a new ScheduleShifter
func NewScheduleShifter(scope TransactionScope, publisher shared.EventPublisher, logger *zap.Logger) *ScheduleShifter {
	return &ScheduleShifter{
		scope:     scope,
		publisher: publisher,
		logger:    logger,
	}
}

// PreviewStartDateChange computes the day offset and sibling count that the
// user has to confirm before due dates are moved. Nothing is written.
func (s *ScheduleShifter) PreviewStartDateChange(ctx context.Context, planID uuid.UUID, newStart time.Time) (*ShiftPreview, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "schedule_shifter", "preview",
		telemetry.ID(telemetry.AttrPlanID, planID),
	)
	defer span.End()

	if newStart.IsZero() {
		return nil, billing.NewValidationError("start_date is required")
	}

	var preview *ShiftPreview
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		plan, err := loadPlan(ctx, repos, planID)
		if err != nil {
			return err
		}
		series, err := resolvePlanSeries(ctx, repos, plan)
		if err != nil {
			return err
		}
		offset := billing.DaysBetween(newStart, plan.StartDate)
		preview = &ShiftPreview{
			PlanID:               plan.ID,
			OldStartDate:         plan.StartDate,
			NewStartDate:         billing.NormalizeDate(newStart),
			DayOffset:            offset,
			SiblingCount:         series.Len(),
			RequiresConfirmation: offset != 0 && series.Len() > 0,
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.AttrDayOffset.Int(preview.DayOffset),
		telemetry.AttrSeriesSize.Int(preview.SiblingCount),
	)
	return preview, nil
}

// ApplyStartDateChange stores the plan's new start date and, when confirmed,
// moves every sibling due date by the same number of calendar days.
// The start date is persisted whether or not the shift is confirmed. A plan
// without generated installments needs no confirmation.
func (s *ScheduleShifter) ApplyStartDateChange(ctx context.Context, input ApplyStartDateInput) (*ShiftResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "schedule_shifter", "apply",
		telemetry.ID(telemetry.AttrPlanID, input.PlanID),
	)
	defer span.End()

	if input.NewStartDate.IsZero() {
		return nil, billing.NewValidationError("start_date is required")
	}

	var (
		result *ShiftResult
		events []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		events = nil
		plan, err := loadPlan(ctx, repos, input.PlanID)
		if err != nil {
			return err
		}
		if input.OldStartDate != nil && !billing.NormalizeDate(*input.OldStartDate).Equal(plan.StartDate) {
			return billing.NewConcurrencyConflict("plan %s start date is %s, not %s",
				plan.ID, plan.StartDate.Format(time.DateOnly), input.OldStartDate.Format(time.DateOnly))
		}

		offset, err := plan.ChangeStartDate(input.NewStartDate)
		if err != nil {
			return err
		}
		result = &ShiftResult{Plan: plan, DayOffset: offset}
		if offset == 0 {
			return nil
		}

		series, err := resolvePlanSeries(ctx, repos, plan)
		if err != nil {
			return err
		}
		result.SiblingCount = series.Len()

		if err := repos.Plans().Save(ctx, plan); err != nil {
			return billing.NewStoreError("update plan start date", err)
		}

		if series.IsEmpty() || !input.ConfirmShift {
			return nil
		}

		series.ShiftDueDates(offset)
		if err := repos.Installments().SaveBatch(ctx, series.Members); err != nil {
			return billing.NewStoreError("shift sibling due dates", err)
		}
		result.Shifted = true
		events = append(events, billing.NewPlanScheduleShiftedEvent(plan, offset, series.Len()))
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.AttrDayOffset.Int(result.DayOffset),
		telemetry.AttrSeriesSize.Int(result.SiblingCount),
		telemetry.AttrShifted.Bool(result.Shifted),
	)
	s.logger.Info("plan start date changed",
		zap.String("plan_id", input.PlanID.String()),
		zap.Int("day_offset", result.DayOffset),
		zap.Int("siblings", result.SiblingCount),
		zap.Bool("shifted", result.Shifted),
	)
	publishEvents(ctx, s.publisher, s.logger, events)
	return result, nil
}
