// internal/derive/schedule.go
//
// Time-based derivations: SLA queue ordering and document expiry buckets.

package derive

import (
	"math"
	"sort"
	"time"

	"github.com/kingrea/opsdeck/internal/entity"
)

// ExpiryBucket classifies how much of a validity window remains.
type ExpiryBucket string

const (
	BucketExpired  ExpiryBucket = "expired"
	BucketWithin30 ExpiryBucket = "within_30"
	BucketWithin60 ExpiryBucket = "within_60"
	BucketWithin90 ExpiryBucket = "within_90"
	BucketValid    ExpiryBucket = "valid"
)

// ExpiryBuckets returns the buckets in escalation order, soonest first.
func ExpiryBuckets() []ExpiryBucket {
	return []ExpiryBucket{BucketExpired, BucketWithin30, BucketWithin60, BucketWithin90, BucketValid}
}

// DaysUntil counts the whole days remaining before end, rounding partial
// days up so "expires tomorrow morning" still reads as one day left.
func DaysUntil(end, now time.Time) int {
	return int(math.Ceil(end.Sub(now).Hours() / 24))
}

// ClassifyExpiry buckets a validity end date. Upper bounds are inclusive:
// exactly 30 days out is still within_30. Anything strictly in the past
// is expired, even when the ceiling rounds the remainder up to zero days.
func ClassifyExpiry(end, now time.Time) ExpiryBucket {
	if end.Before(now) {
		return BucketExpired
	}
	days := DaysUntil(end, now)
	switch {
	case days <= 30:
		return BucketWithin30
	case days <= 60:
		return BucketWithin60
	case days <= 90:
		return BucketWithin90
	default:
		return BucketValid
	}
}

// Overdue reports whether a deadline has passed. A nil deadline is never
// overdue.
func Overdue(due *time.Time, now time.Time) bool {
	return due != nil && due.Before(now)
}

// Urgent is a record that carries a severity and an optional deadline.
type Urgent interface {
	UrgencyRank() int
	DueAt() *time.Time
}

// SortByUrgency orders items by severity rank (critical first), breaking
// ties by ascending due time so the most overdue work within a severity
// surfaces first. Records without a deadline sort after dated ones of the
// same severity. The sort is stable with respect to input order beyond
// that, and the input slice is left untouched.
func SortByUrgency[E Urgent](items []E) []E {
	out := make([]E, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].UrgencyRank(), out[j].UrgencyRank()
		if ri != rj {
			return ri < rj
		}
		di, dj := out[i].DueAt(), out[j].DueAt()
		switch {
		case di == nil && dj == nil:
			return false
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.Before(*dj)
		}
	})
	return out
}

// ExpiryGroup is one bucket of records sharing an expiry classification.
type ExpiryGroup[E any] struct {
	Bucket ExpiryBucket
	Items  []E
}

// GroupByExpiry partitions records by the classification of the date
// selected by endOf, in escalation order. Records with no date at all go
// to the valid bucket; a missing document is chased through status, not
// through the expiry report.
func GroupByExpiry[E any](items []E, endOf func(E) *time.Time, now time.Time) []ExpiryGroup[E] {
	order := ExpiryBuckets()
	index := make(map[ExpiryBucket]int, len(order))
	groups := make([]ExpiryGroup[E], len(order))
	for i, b := range order {
		index[b] = i
		groups[i] = ExpiryGroup[E]{Bucket: b}
	}
	for _, item := range items {
		bucket := BucketValid
		if end := endOf(item); end != nil {
			bucket = ClassifyExpiry(*end, now)
		}
		i := index[bucket]
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

// TicketURow adapts a ticket to the urgency ordering.
type TicketURow struct {
	entity.Ticket
}

// UrgencyRank implements Urgent.
func (r TicketURow) UrgencyRank() int { return r.Urgency.Rank() }

// DueAt implements Urgent.
func (r TicketURow) DueAt() *time.Time { return r.SLADueAt }

// SortTickets orders tickets for the SLA queue.
func SortTickets(tickets []entity.Ticket) []entity.Ticket {
	rows := make([]TicketURow, len(tickets))
	for i, t := range tickets {
		rows[i] = TicketURow{t}
	}
	sorted := SortByUrgency(rows)
	out := make([]entity.Ticket, len(sorted))
	for i, r := range sorted {
		out[i] = r.Ticket
	}
	return out
}
