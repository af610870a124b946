package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func loadInstallment(ctx context.Context, repos Repositories, id uuid.UUID) (*billing.PaymentInstallment, error) {
	inst, err := repos.Installments().FindByID(ctx, id)
	if err != nil {
		if billing.IsNotFound(err) {
			return nil, billing.NewNotFoundError("installment", id)
		}
		return nil, billing.NewStoreError("load installment", err)
	}
	return inst, nil
}

func loadPlan(ctx context.Context, repos Repositories, id uuid.UUID) (*billing.RecurringBillingPlan, error) {
	plan, err := repos.Plans().FindByID(ctx, id)
	if err != nil {
		if billing.IsNotFound(err) {
			return nil, billing.NewNotFoundError("plan", id)
		}
		return nil, billing.NewStoreError("load plan", err)
	}
	return plan, nil
}

// findSeriesPlan returns the plan owning a series, or nil when the series has none
func findSeriesPlan(ctx context.Context, repos Repositories, clientID uuid.UUID, base string) (*billing.RecurringBillingPlan, error) {
	plan, err := repos.Plans().FindBySeries(ctx, clientID, base)
	if err != nil {
		if billing.IsNotFound(err) {
			return nil, nil
		}
		return nil, billing.NewStoreError("load plan for series", err)
	}
	return plan, nil
}

func listSeriesCandidates(ctx context.Context, repos Repositories, clientID uuid.UUID, base string, total *int) ([]*billing.PaymentInstallment, error) {
	items, err := repos.Installments().FindAll(ctx, billing.InstallmentFilter{
		ClientID:          &clientID,
		DescriptionPrefix: base,
		TotalInstallments: total,
		SeriesOnly:        true,
	})
	if err != nil {
		return nil, billing.NewStoreError("list series installments", err)
	}
	return items, nil
}

// seriesResolution is a freshly resolved series plus the inconsistency that
// forced a loose re-resolution, if any
type seriesResolution struct {
	series    *billing.Series
	violation error
}

// resolveSeries resolves the siblings of anchor by client, base description
// and total. When the result is not contiguous the series is re-resolved
// ignoring totals, so members stranded by an interrupted renumber are picked up
// again and the caller's renumber heals them.
func resolveSeries(ctx context.Context, repos Repositories, anchor *billing.PaymentInstallment, logger *zap.Logger) (*seriesResolution, error) {
	candidates, err := listSeriesCandidates(ctx, repos, anchor.ClientID, anchor.BaseDescription(), anchor.TotalInstallments)
	if err != nil {
		return nil, err
	}
	series := billing.ResolveSeries(anchor, candidates, true)
	violation := series.CheckConsistency()
	if violation == nil {
		return &seriesResolution{series: series}, nil
	}

	logger.Warn("inconsistent series, re-resolving without total",
		zap.String("client_id", anchor.ClientID.String()),
		zap.String("base_description", series.BaseDescription),
		zap.Int("members", series.Len()),
		zap.Error(violation),
	)
	loose, err := resolveSeriesLoose(ctx, repos, anchor)
	if err != nil {
		return nil, err
	}
	return &seriesResolution{series: loose, violation: violation}, nil
}

func resolveSeriesLoose(ctx context.Context, repos Repositories, anchor *billing.PaymentInstallment) (*billing.Series, error) {
	candidates, err := listSeriesCandidates(ctx, repos, anchor.ClientID, anchor.BaseDescription(), nil)
	if err != nil {
		return nil, err
	}
	return billing.ResolveSeries(anchor, candidates, false), nil
}

func resolvePlanSeries(ctx context.Context, repos Repositories, plan *billing.RecurringBillingPlan) (*billing.Series, error) {
	candidates, err := listSeriesCandidates(ctx, repos, plan.ClientID, billing.BaseDescription(plan.Description), nil)
	if err != nil {
		return nil, err
	}
	return billing.ResolvePlanSeries(plan, candidates), nil
}

// applyRenumber renumbers series, persists the changed members and syncs the
// plan's installment count. Returns the changed members and the plan id, if any.
func applyRenumber(ctx context.Context, repos Repositories, series *billing.Series) ([]*billing.PaymentInstallment, *uuid.UUID, error) {
	changed := series.Renumber()
	if len(changed) > 0 {
		if err := repos.Installments().SaveBatch(ctx, changed); err != nil {
			return nil, nil, billing.NewStoreError("renumber series", err)
		}
	}

	plan, err := findSeriesPlan(ctx, repos, series.ClientID, series.BaseDescription)
	if err != nil || plan == nil {
		return changed, nil, err
	}
	if plan.SetInstallmentCount(series.Len()) {
		if err := repos.Plans().Save(ctx, plan); err != nil {
			return changed, &plan.ID, billing.NewStoreError("update plan installment count", err)
		}
	}
	return changed, &plan.ID, nil
}

func publishEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, events []shared.DomainEvent) {
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Error("failed to publish billing events", zap.Int("count", len(events)), zap.Error(err))
	}
}

func paymentLockKey(id uuid.UUID) string {
	return fmt.Sprintf("billing:payment-lock:%s", id)
}

// withPaymentLock serializes settlement of one payment id across callers
func withPaymentLock(ctx context.Context, locker shared.Locker, id uuid.UUID, ttl time.Duration, logger *zap.Logger, fn func() error) error {
	if locker == nil {
		return fn()
	}
	key := paymentLockKey(id)
	ok, err := locker.Acquire(ctx, key, ttl)
	if err != nil {
		return billing.NewStoreError("acquire payment lock", err)
	}
	if !ok {
		return billing.NewConcurrencyConflict("payment %s is being settled by another request", id)
	}
	defer func() {
		if err := locker.Release(context.WithoutCancel(ctx), key); err != nil {
			logger.Warn("failed to release payment lock", zap.String("key", key), zap.Error(err))
		}
	}()
	return fn()
}
