package billing

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var seriesSuffixPattern = regexp.MustCompile(`\s*\(\d+/\d+\)\s*$`)

// BaseDescription strips a trailing "(i/N)" suffix from a description
func BaseDescription(description string) string {
	return strings.TrimSpace(seriesSuffixPattern.ReplaceAllString(description, ""))
}

// SeriesDescription formats "{base} (i/N)"
func SeriesDescription(base string, number, total int) string {
	return fmt.Sprintf("%s (%d/%d)", base, number, total)
}

// Series is an ordered set of sibling installments of one plan
type Series struct {
	ClientID        uuid.UUID
	BaseDescription string
	Members         []*PaymentInstallment
}

// Len returns the number of members
func (s *Series) Len() int {
	return len(s.Members)
}

// IsEmpty reports whether the series has no members
func (s *Series) IsEmpty() bool {
	return len(s.Members) == 0
}

// IDs returns member ids in series order
func (s *Series) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Members))
	for _, m := range s.Members {
		ids = append(ids, m.ID)
	}
	return ids
}

// ResolveSeries narrows store candidates down to the siblings of anchor.
//
// The store is queried by client and description prefix, which may also match
// longer descriptions ("Rent" vs "Rent garage"); candidates are kept only when
// their own base description is identical. When matchTotal is set the members
// must also share anchor's total_installments. Members are sorted by
// installment number, ties broken by due date then id.
func ResolveSeries(anchor *PaymentInstallment, candidates []*PaymentInstallment, matchTotal bool) *Series {
	base := anchor.BaseDescription()
	series := &Series{
		ClientID:        anchor.ClientID,
		BaseDescription: base,
	}
	for _, c := range candidates {
		if c == nil || !c.IsInSeries() {
			continue
		}
		if c.ClientID != anchor.ClientID || c.BaseDescription() != base {
			continue
		}
		if matchTotal && !sameTotal(c.TotalInstallments, anchor.TotalInstallments) {
			continue
		}
		series.Members = append(series.Members, c)
	}
	sortMembers(series.Members)
	return series
}

// ResolvePlanSeries selects the installments generated for a plan
func ResolvePlanSeries(plan *RecurringBillingPlan, candidates []*PaymentInstallment) *Series {
	base := BaseDescription(plan.Description)
	series := &Series{
		ClientID:        plan.ClientID,
		BaseDescription: base,
	}
	for _, c := range candidates {
		if c == nil || !c.IsInSeries() {
			continue
		}
		if c.ClientID != plan.ClientID || c.BaseDescription() != base {
			continue
		}
		series.Members = append(series.Members, c)
	}
	sortMembers(series.Members)
	return series
}

// Without returns a copy of the series without the member with the given id
func (s *Series) Without(id uuid.UUID) *Series {
	out := &Series{ClientID: s.ClientID, BaseDescription: s.BaseDescription}
	for _, m := range s.Members {
		if m.ID == id {
			continue
		}
		out.Members = append(out.Members, m)
	}
	return out
}

// CheckConsistency verifies numbers are exactly 1..N and every member carries
// total N. A failure means the series was read mid-mutation or a previous
// renumber did not complete.
func (s *Series) CheckConsistency() error {
	n := len(s.Members)
	seen := make(map[int]bool, n)
	for _, m := range s.Members {
		num := *m.InstallmentNumber
		if seen[num] {
			return NewInvariantViolation("series %q has duplicate installment number %d", s.BaseDescription, num)
		}
		seen[num] = true
		if m.TotalInstallments == nil || *m.TotalInstallments != n {
			return NewInvariantViolation("series %q has %d members but installment %s carries total %s",
				s.BaseDescription, n, m.ID, intPtrString(m.TotalInstallments))
		}
	}
	for i := 1; i <= n; i++ {
		if !seen[i] {
			return NewInvariantViolation("series %q is missing installment number %d", s.BaseDescription, i)
		}
	}
	return nil
}

// Renumber assigns contiguous numbers 1..N in current order, sets total N on
// every member and rewrites descriptions. It returns the members whose stored
// state changed. Numbering is always recomputed from scratch so re-running it
// converges.
func (s *Series) Renumber() []*PaymentInstallment {
	total := len(s.Members)
	changed := make([]*PaymentInstallment, 0, total)
	for i, m := range s.Members {
		if m.assignSeriesPosition(s.BaseDescription, i+1, total) {
			changed = append(changed, m)
		}
	}
	return changed
}

// ShiftDueDates moves every member's due date by days calendar days
func (s *Series) ShiftDueDates(days int) {
	if days == 0 {
		return
	}
	for _, m := range s.Members {
		m.ShiftDueDate(days)
	}
}

func sortMembers(members []*PaymentInstallment) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if *a.InstallmentNumber != *b.InstallmentNumber {
			return *a.InstallmentNumber < *b.InstallmentNumber
		}
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		return a.ID.String() < b.ID.String()
	})
}

func sameTotal(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func intPtrString(v *int) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%d", *v)
}

// NormalizeDate truncates t to midnight UTC of its calendar day
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateLayout is the calendar date format used on the wire
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, NewValidationError("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}

// DaysBetween returns the signed number of calendar days from `from` to `to`
func DaysBetween(to, from time.Time) int {
	return int(NormalizeDate(to).Sub(NormalizeDate(from)).Hours() / 24)
}

// AddDays adds calendar days, never calendar months
func AddDays(t time.Time, days int) time.Time {
	return NormalizeDate(t).AddDate(0, 0, days)
}

// dueDateInMonth returns dueDay of the month `offset` months after ref,
// clamped to that month's last day.
func dueDateInMonth(ref time.Time, dueDay, offset int) time.Time {
	first := time.Date(ref.Year(), ref.Month()+time.Month(offset), 1, 0, 0, 0, 0, time.UTC)
	lastDay := first.AddDate(0, 1, -1).Day()
	day := dueDay
	if day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}
