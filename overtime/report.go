/*
report.go - Per-user reporting over a date range

PURPOSE:
  Groups requests whose date falls inside an inclusive period by owner
  NIK and summarizes counts plus total approved hours. Only approved
  requests contribute hours; pending and rejected contribute zero.

  Reports are pure snapshot reads: given the same underlying request
  set they always produce the same output, and they take no locks.

SEE ALSO:
  - service.go: Write path the reports observe
*/
package overtime

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// UserSummary is one user's totals inside the reporting period.
type UserSummary struct {
	NIK              NIK
	Name             string
	TotalRequests    int
	ApprovedRequests int
	RejectedRequests int
	PendingRequests  int
	TotalHours       decimal.Decimal // approved hours only
}

// Statistics is the organization-wide roll-up of the same period.
type Statistics struct {
	TotalRequests    int
	ApprovedRequests int
	RejectedRequests int
	PendingRequests  int
	TotalHours       decimal.Decimal
}

// Reporter builds summaries from the request store.
type Reporter struct {
	Requests RequestStore
}

// NewReporter creates a reporter over the given store.
func NewReporter(requests RequestStore) *Reporter {
	return &Reporter{Requests: requests}
}

// GenerateReport returns per-user summaries for requests whose date
// falls within [from, to], both YYYY-MM-DD inclusive, ordered by NIK.
func (rp *Reporter) GenerateReport(ctx context.Context, from, to string) ([]UserSummary, error) {
	start, end, err := parsePeriod(from, to)
	if err != nil {
		return nil, err
	}

	all, err := rp.Requests.ListRequests(ctx)
	if err != nil {
		return nil, err
	}

	byNIK := make(map[NIK]*UserSummary)
	for _, req := range all {
		if !inPeriod(req.Date, start, end) {
			continue
		}
		sum, ok := byNIK[req.OwnerNIK]
		if !ok {
			sum = &UserSummary{NIK: req.OwnerNIK, Name: req.OwnerName, TotalHours: decimal.Zero}
			byNIK[req.OwnerNIK] = sum
		}
		tally(&sum.TotalRequests, &sum.ApprovedRequests, &sum.RejectedRequests, &sum.PendingRequests, &sum.TotalHours, req)
	}

	out := make([]UserSummary, 0, len(byNIK))
	for _, sum := range byNIK {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NIK < out[j].NIK })
	return out, nil
}

// GenerateStatistics returns the organization-wide totals for the period.
func (rp *Reporter) GenerateStatistics(ctx context.Context, from, to string) (Statistics, error) {
	start, end, err := parsePeriod(from, to)
	if err != nil {
		return Statistics{}, err
	}

	all, err := rp.Requests.ListRequests(ctx)
	if err != nil {
		return Statistics{}, err
	}

	stats := Statistics{TotalHours: decimal.Zero}
	for _, req := range all {
		if !inPeriod(req.Date, start, end) {
			continue
		}
		tally(&stats.TotalRequests, &stats.ApprovedRequests, &stats.RejectedRequests, &stats.PendingRequests, &stats.TotalHours, req)
	}
	return stats, nil
}

func tally(total, approved, rejected, pending *int, hours *decimal.Decimal, req OvertimeRequest) {
	*total++
	switch req.Status {
	case StatusApproved:
		*approved++
		*hours = hours.Add(req.Duration)
	case StatusRejected:
		*rejected++
	case StatusPending:
		*pending++
	}
}

func parsePeriod(from, to string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return time.Time{}, time.Time{}, &ValidationError{Field: "from", Message: fmt.Sprintf("malformed date %q", from)}
	}
	end, err := time.Parse("2006-01-02", to)
	if err != nil {
		return time.Time{}, time.Time{}, &ValidationError{Field: "to", Message: fmt.Sprintf("malformed date %q", to)}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, &ValidationError{Field: "to", Message: "period end before start"}
	}
	return start, end, nil
}

func inPeriod(date string, start, end time.Time) bool {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return false
	}
	return !d.Before(start) && !d.After(end)
}
