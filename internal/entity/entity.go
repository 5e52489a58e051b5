// internal/entity/entity.go
//
// Domain records tracked by the dashboard boards. Every kind follows the
// same shape: a server-assigned identifier, a closed status enumeration
// rendered in a fixed stage order, an optional assignee, creation/update
// timestamps, and kind-specific deadline fields used only for derived
// bucketing. Records are plain values; all mutation goes through typed
// patches applied by the store.

package entity

import (
	"fmt"
	"strings"
	"time"
)

// Note is one entry in an entity's append-only comment thread. Notes are
// immutable once created and always rendered most-recent-first.
type Note struct {
	ID        string    `json:"id"`
	EntityID  string    `json:"entity_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// TeamMember is an assignable operator, loaded from the project config.
type TeamMember struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// Urgency ranks facility tickets for queue ordering.
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyLow      Urgency = "low"
)

var urgencyRanks = map[Urgency]int{
	UrgencyCritical: 0,
	UrgencyHigh:     1,
	UrgencyMedium:   2,
	UrgencyLow:      3,
}

// Rank returns the sort rank for the urgency; unknown values sort last.
func (u Urgency) Rank() int {
	if rank, ok := urgencyRanks[u]; ok {
		return rank
	}
	return len(urgencyRanks)
}

// ParseUrgency validates a wire-format urgency value.
func ParseUrgency(raw string) (Urgency, error) {
	u := Urgency(strings.TrimSpace(strings.ToLower(raw)))
	if _, ok := urgencyRanks[u]; !ok {
		return "", fmt.Errorf("entity: unknown urgency %q", raw)
	}
	return u, nil
}

// parseStatus resolves raw against a fixed stage order. An unrecognized
// value is a contract violation, never a valid state.
func parseStatus[S ~string](raw string, order []S) (S, error) {
	candidate := S(strings.TrimSpace(strings.ToLower(raw)))
	for _, s := range order {
		if s == candidate {
			return s, nil
		}
	}
	var zero S
	return zero, fmt.Errorf("entity: unknown status %q", raw)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}
