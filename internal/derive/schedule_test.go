package derive

import (
	"testing"
	"time"

	"github.com/kingrea/opsdeck/internal/entity"
)

var scheduleNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func TestClassifyExpiryBoundaries(t *testing.T) {
	cases := []struct {
		name string
		end  time.Time
		want ExpiryBucket
	}{
		{"one second past is expired", scheduleNow.Add(-time.Second), BucketExpired},
		{"a week ago is expired", scheduleNow.Add(-7 * 24 * time.Hour), BucketExpired},
		{"exactly 30 days is within_30", scheduleNow.Add(30 * 24 * time.Hour), BucketWithin30},
		{"31 days is within_60", scheduleNow.Add(31 * 24 * time.Hour), BucketWithin60},
		{"exactly 60 days is within_60", scheduleNow.Add(60 * 24 * time.Hour), BucketWithin60},
		{"exactly 90 days is within_90", scheduleNow.Add(90 * 24 * time.Hour), BucketWithin90},
		{"91 days is valid", scheduleNow.Add(91 * 24 * time.Hour), BucketValid},
	}
	for _, tc := range cases {
		if got := ClassifyExpiry(tc.end, scheduleNow); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestDaysUntilRoundsPartialDaysUp(t *testing.T) {
	end := scheduleNow.Add(25 * time.Hour)
	if got := DaysUntil(end, scheduleNow); got != 2 {
		t.Fatalf("expected 25h to read as 2 days, got %d", got)
	}
	end = scheduleNow.Add(24 * time.Hour)
	if got := DaysUntil(end, scheduleNow); got != 1 {
		t.Fatalf("expected exactly 24h to read as 1 day, got %d", got)
	}
}

func TestOverdue(t *testing.T) {
	past := scheduleNow.Add(-time.Minute)
	future := scheduleNow.Add(time.Minute)
	if !Overdue(&past, scheduleNow) {
		t.Fatal("past deadline should be overdue")
	}
	if Overdue(&future, scheduleNow) {
		t.Fatal("future deadline should not be overdue")
	}
	if Overdue(nil, scheduleNow) {
		t.Fatal("nil deadline should never be overdue")
	}
}

func TestSortTicketsByUrgencyThenDue(t *testing.T) {
	due := func(d time.Duration) *time.Time { t := scheduleNow.Add(d); return &t }
	tickets := []entity.Ticket{
		{ID: "t-low", Urgency: entity.UrgencyLow, SLADueAt: due(time.Hour)},
		{ID: "t-crit", Urgency: entity.UrgencyCritical, SLADueAt: due(48 * time.Hour)},
		{ID: "t-high", Urgency: entity.UrgencyHigh, SLADueAt: due(-2 * time.Hour)},
	}
	sorted := SortTickets(tickets)
	want := []string{"t-crit", "t-high", "t-low"}
	for i, id := range want {
		if sorted[i].ID != id {
			t.Fatalf("position %d: expected %q, got %q", i, id, sorted[i].ID)
		}
	}
	// The input must be left untouched.
	if tickets[0].ID != "t-low" {
		t.Fatal("SortTickets mutated its input")
	}
}

func TestSortTicketsBreaksTiesByAscendingDue(t *testing.T) {
	due := func(d time.Duration) *time.Time { t := scheduleNow.Add(d); return &t }
	tickets := []entity.Ticket{
		{ID: "later", Urgency: entity.UrgencyHigh, SLADueAt: due(72 * time.Hour)},
		{ID: "none", Urgency: entity.UrgencyHigh},
		{ID: "sooner", Urgency: entity.UrgencyHigh, SLADueAt: due(time.Hour)},
	}
	sorted := SortTickets(tickets)
	want := []string{"sooner", "later", "none"}
	for i, id := range want {
		if sorted[i].ID != id {
			t.Fatalf("position %d: expected %q, got %q", i, id, sorted[i].ID)
		}
	}
}

func TestGroupByExpiryEscalationOrder(t *testing.T) {
	at := func(d time.Duration) *time.Time { t := scheduleNow.Add(d); return &t }
	partners := []entity.Partner{
		{ID: "p-valid", InsuranceExpiresAt: at(200 * 24 * time.Hour)},
		{ID: "p-expired", InsuranceExpiresAt: at(-24 * time.Hour)},
		{ID: "p-soon", InsuranceExpiresAt: at(10 * 24 * time.Hour)},
		{ID: "p-nodocs"},
	}
	groups := GroupByExpiry(partners, func(p entity.Partner) *time.Time {
		return p.NextExpiry()
	}, scheduleNow)

	order := ExpiryBuckets()
	for i, g := range groups {
		if g.Bucket != order[i] {
			t.Fatalf("group %d: expected bucket %q, got %q", i, order[i], g.Bucket)
		}
	}
	byBucket := map[ExpiryBucket][]entity.Partner{}
	for _, g := range groups {
		byBucket[g.Bucket] = g.Items
	}
	if len(byBucket[BucketExpired]) != 1 || byBucket[BucketExpired][0].ID != "p-expired" {
		t.Fatalf("expired bucket wrong: %+v", byBucket[BucketExpired])
	}
	if len(byBucket[BucketWithin30]) != 1 || byBucket[BucketWithin30][0].ID != "p-soon" {
		t.Fatalf("within_30 bucket wrong: %+v", byBucket[BucketWithin30])
	}
	if len(byBucket[BucketValid]) != 2 {
		t.Fatalf("valid bucket should hold the far-out and the undocumented partner: %+v", byBucket[BucketValid])
	}
}
