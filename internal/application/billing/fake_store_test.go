package billing

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errInjected = errors.New("injected store failure")

// fakeStore is an in-memory ledger store. Records are copied on the way in
// and out so services cannot mutate stored state without a write.
type fakeStore struct {
	mu           sync.Mutex
	installments map[uuid.UUID]*billing.PaymentInstallment
	plans        map[uuid.UUID]*billing.RecurringBillingPlan
	entries      []*billing.CashFlowEntry

	// failAfter[op] = n lets op succeed n more times, then fail every call
	failAfter map[string]int
	calls     map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		installments: map[uuid.UUID]*billing.PaymentInstallment{},
		plans:        map[uuid.UUID]*billing.RecurringBillingPlan{},
		failAfter:    map[string]int{},
		calls:        map[string]int{},
	}
}

func (s *fakeStore) failOn(op string, after int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAfter[op] = after
}

func (s *fakeStore) heal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAfter = map[string]int{}
}

// check must be called with mu held
func (s *fakeStore) check(op string) error {
	s.calls[op]++
	n, ok := s.failAfter[op]
	if !ok {
		return nil
	}
	if n <= 0 {
		return errInjected
	}
	s.failAfter[op] = n - 1
	return nil
}

func cloneInstallment(p *billing.PaymentInstallment) *billing.PaymentInstallment {
	c := *p
	c.ClearDomainEvents()
	if p.PaymentDate != nil {
		d := *p.PaymentDate
		c.PaymentDate = &d
	}
	if p.InstallmentNumber != nil {
		n := *p.InstallmentNumber
		c.InstallmentNumber = &n
	}
	if p.TotalInstallments != nil {
		t := *p.TotalInstallments
		c.TotalInstallments = &t
	}
	if p.PaidAmount != nil {
		a := *p.PaidAmount
		c.PaidAmount = &a
	}
	return &c
}

func clonePlan(p *billing.RecurringBillingPlan) *billing.RecurringBillingPlan {
	c := *p
	c.ClearDomainEvents()
	if p.EndDate != nil {
		e := *p.EndDate
		c.EndDate = &e
	}
	return &c
}

func cloneEntry(e *billing.CashFlowEntry) *billing.CashFlowEntry {
	c := *e
	if e.PaymentID != nil {
		id := *e.PaymentID
		c.PaymentID = &id
	}
	return &c
}

type fakeSnapshot struct {
	installments map[uuid.UUID]*billing.PaymentInstallment
	plans        map[uuid.UUID]*billing.RecurringBillingPlan
	entries      []*billing.CashFlowEntry
}

func (s *fakeStore) snapshot() fakeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := fakeSnapshot{
		installments: make(map[uuid.UUID]*billing.PaymentInstallment, len(s.installments)),
		plans:        make(map[uuid.UUID]*billing.RecurringBillingPlan, len(s.plans)),
	}
	for id, p := range s.installments {
		snap.installments[id] = cloneInstallment(p)
	}
	for id, p := range s.plans {
		snap.plans[id] = clonePlan(p)
	}
	for _, e := range s.entries {
		snap.entries = append(snap.entries, cloneEntry(e))
	}
	return snap
}

func (s *fakeStore) restore(snap fakeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.installments = snap.installments
	s.plans = snap.plans
	s.entries = snap.entries
}

// test accessors

func (s *fakeStore) seedInstallments(items ...*billing.PaymentInstallment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range items {
		s.installments[p.ID] = cloneInstallment(p)
	}
}

func (s *fakeStore) seedPlan(p *billing.RecurringBillingPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[p.ID] = clonePlan(p)
}

func (s *fakeStore) installment(id uuid.UUID) *billing.PaymentInstallment {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.installments[id]
	if !ok {
		return nil
	}
	return cloneInstallment(p)
}

func (s *fakeStore) plan(id uuid.UUID) *billing.RecurringBillingPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok {
		return nil
	}
	return clonePlan(p)
}

func (s *fakeStore) entriesFor(paymentID uuid.UUID) []*billing.CashFlowEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*billing.CashFlowEntry
	for _, e := range s.entries {
		if e.PaymentID != nil && *e.PaymentID == paymentID {
			out = append(out, cloneEntry(e))
		}
	}
	return out
}

func (s *fakeStore) seriesOf(clientID uuid.UUID, base string) []*billing.PaymentInstallment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*billing.PaymentInstallment
	for _, p := range s.installments {
		if p.ClientID == clientID && p.IsInSeries() && p.BaseDescription() == base {
			out = append(out, cloneInstallment(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].InstallmentNumber < *out[j].InstallmentNumber })
	return out
}

// Repositories

func (s *fakeStore) Installments() billing.InstallmentRepository { return (*fakeInstallmentRepo)(s) }
func (s *fakeStore) Plans() billing.PlanRepository               { return (*fakePlanRepo)(s) }
func (s *fakeStore) CashFlow() billing.CashFlowRepository        { return (*fakeCashFlowRepo)(s) }

type fakeInstallmentRepo fakeStore

func (r *fakeInstallmentRepo) FindByID(_ context.Context, id uuid.UUID) (*billing.PaymentInstallment, error) {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("installment.find"); err != nil {
		return nil, err
	}
	p, ok := s.installments[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneInstallment(p), nil
}

func (r *fakeInstallmentRepo) FindAll(_ context.Context, f billing.InstallmentFilter) ([]*billing.PaymentInstallment, error) {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("installment.find_all"); err != nil {
		return nil, err
	}
	var out []*billing.PaymentInstallment
	for _, p := range s.installments {
		if f.ClientID != nil && p.ClientID != *f.ClientID {
			continue
		}
		if f.DescriptionPrefix != "" && !strings.HasPrefix(p.Description, f.DescriptionPrefix) {
			continue
		}
		if f.TotalInstallments != nil && (p.TotalInstallments == nil || *p.TotalInstallments != *f.TotalInstallments) {
			continue
		}
		if f.SeriesOnly && !p.IsInSeries() {
			continue
		}
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, p.Status) {
			continue
		}
		out = append(out, cloneInstallment(p))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsInSeries() && b.IsInSeries() && *a.InstallmentNumber != *b.InstallmentNumber {
			return *a.InstallmentNumber < *b.InstallmentNumber
		}
		return a.DueDate.Before(b.DueDate)
	})
	return out, nil
}

func containsStatus(list []billing.PaymentStatus, s billing.PaymentStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (r *fakeInstallmentRepo) Save(_ context.Context, p *billing.PaymentInstallment) error {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("installment.save"); err != nil {
		return err
	}
	s.installments[p.ID] = cloneInstallment(p)
	return nil
}

func (r *fakeInstallmentRepo) SaveBatch(ctx context.Context, items []*billing.PaymentInstallment) error {
	for _, p := range items {
		if err := r.Save(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeInstallmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("installment.delete"); err != nil {
		return err
	}
	if _, ok := s.installments[id]; !ok {
		return shared.ErrNotFound
	}
	delete(s.installments, id)
	return nil
}

func (r *fakeInstallmentRepo) FindPaidWithoutCashFlowEntry(_ context.Context) ([]*billing.PaymentInstallment, error) {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	booked := map[uuid.UUID]bool{}
	for _, e := range s.entries {
		if e.PaymentID != nil {
			booked[*e.PaymentID] = true
		}
	}
	var out []*billing.PaymentInstallment
	for _, p := range s.installments {
		if p.Status == billing.PaymentStatusPaid && !booked[p.ID] {
			out = append(out, cloneInstallment(p))
		}
	}
	return out, nil
}

type fakePlanRepo fakeStore

func (r *fakePlanRepo) FindByID(_ context.Context, id uuid.UUID) (*billing.RecurringBillingPlan, error) {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return clonePlan(p), nil
}

func (r *fakePlanRepo) FindBySeries(_ context.Context, clientID uuid.UUID, base string) (*billing.RecurringBillingPlan, error) {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.plans {
		if p.ClientID == clientID && p.Description == base {
			return clonePlan(p), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakePlanRepo) FindAll(_ context.Context, f billing.PlanFilter) ([]*billing.RecurringBillingPlan, error) {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*billing.RecurringBillingPlan
	for _, p := range s.plans {
		if f.ClientID != nil && p.ClientID != *f.ClientID {
			continue
		}
		if f.Status != nil && p.Status != *f.Status {
			continue
		}
		out = append(out, clonePlan(p))
	}
	return out, nil
}

func (r *fakePlanRepo) Save(_ context.Context, p *billing.RecurringBillingPlan) error {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("plan.save"); err != nil {
		return err
	}
	s.plans[p.ID] = clonePlan(p)
	return nil
}

type fakeCashFlowRepo fakeStore

func (r *fakeCashFlowRepo) FindAll(_ context.Context, f billing.CashFlowFilter) ([]*billing.CashFlowEntry, error) {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("cashflow.find_all"); err != nil {
		return nil, err
	}
	var out []*billing.CashFlowEntry
	for _, e := range s.entries {
		if f.PaymentID != nil && (e.PaymentID == nil || *e.PaymentID != *f.PaymentID) {
			continue
		}
		if f.Type != nil && e.Type != *f.Type {
			continue
		}
		if f.From != nil && e.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && e.Date.After(*f.To) {
			continue
		}
		out = append(out, cloneEntry(e))
	}
	return out, nil
}

func (r *fakeCashFlowRepo) Insert(_ context.Context, e *billing.CashFlowEntry) error {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("cashflow.insert"); err != nil {
		return err
	}
	if e.PaymentID != nil {
		for _, existing := range s.entries {
			if existing.PaymentID != nil && *existing.PaymentID == *e.PaymentID {
				return billing.ErrAlreadyBooked
			}
		}
	}
	s.entries = append(s.entries, cloneEntry(e))
	return nil
}

// fakeScope runs fn against the fake store; when atomic it restores the
// pre-call snapshot on error like a rolled back transaction.
type fakeScope struct {
	store  *fakeStore
	atomic bool
}

func (f *fakeScope) Execute(_ context.Context, fn func(repos Repositories) error) error {
	if !f.atomic {
		return fn(f.store)
	}
	snap := f.store.snapshot()
	if err := fn(f.store); err != nil {
		f.store.restore(snap)
		return err
	}
	return nil
}

func (f *fakeScope) Atomic() bool { return f.atomic }

// recordingPublisher keeps published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

type testEnv struct {
	store     *fakeStore
	scope     *fakeScope
	publisher *recordingPublisher
	services  *Services
}

func newTestEnv(atomic bool) *testEnv {
	store := newFakeStore()
	scope := &fakeScope{store: store, atomic: atomic}
	publisher := &recordingPublisher{}
	return &testEnv{
		store:     store,
		scope:     scope,
		publisher: publisher,
		services:  NewServices(scope, nil, publisher, DefaultSettings(), zap.NewNop()),
	}
}
