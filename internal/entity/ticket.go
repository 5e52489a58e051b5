// internal/entity/ticket.go
//
// Facility tickets carry an urgency and an SLA due time. The queue view
// sorts by urgency rank first and due time second so the most overdue
// critical work surfaces regardless of creation order.

package entity

import "time"

// TicketStatus is a facility ticket state.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketWaiting    TicketStatus = "waiting"
	TicketResolved   TicketStatus = "resolved"
)

// TicketStates returns the ticket states in display order.
func TicketStates() []TicketStatus {
	return []TicketStatus{TicketOpen, TicketInProgress, TicketWaiting, TicketResolved}
}

// ParseTicketStatus validates a wire-format ticket status.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	return parseStatus(raw, TicketStates())
}

// Ticket is one facility maintenance request.
type Ticket struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Facility   string       `json:"facility"`
	Urgency    Urgency      `json:"urgency"`
	Status     TicketStatus `json:"status"`
	AssignedTo string       `json:"assigned_to"`
	SLADueAt   *time.Time   `json:"sla_due_at,omitempty"`
	NotesCount int          `json:"notes_count"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// EntityID implements store.Record.
func (t Ticket) EntityID() string { return t.ID }

// Stamped returns a copy with UpdatedAt set.
func (t Ticket) Stamped(now time.Time) Ticket {
	t.UpdatedAt = now
	return t
}

// StatusKey reports the ticket state for grouping.
func (t Ticket) StatusKey() string { return string(t.Status) }

// SearchText lists the fields matched by the free-text filter.
func (t Ticket) SearchText() []string {
	return []string{t.Title, t.Facility}
}

// Facet exposes exact-match filter dimensions.
func (t Ticket) Facet(key string) string {
	switch key {
	case "status":
		return string(t.Status)
	case "facility":
		return t.Facility
	case "urgency":
		return string(t.Urgency)
	case "assigned_to":
		return t.AssignedTo
	}
	return ""
}

// TicketPatch is a partial update; nil fields are preserved on apply.
type TicketPatch struct {
	Status     *TicketStatus `json:"status,omitempty"`
	Urgency    *Urgency      `json:"urgency,omitempty"`
	AssignedTo *string       `json:"assigned_to,omitempty"`
	SLADueAt   *time.Time    `json:"sla_due_at,omitempty"`
	NotesCount *int          `json:"notes_count,omitempty"`
}

// Apply shallow-merges the patch into the ticket.
func (p TicketPatch) Apply(t Ticket) Ticket {
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Urgency != nil {
		t.Urgency = *p.Urgency
	}
	if p.AssignedTo != nil {
		t.AssignedTo = *p.AssignedTo
	}
	if p.SLADueAt != nil {
		t.SLADueAt = cloneTime(p.SLADueAt)
	}
	if p.NotesCount != nil {
		t.NotesCount = *p.NotesCount
	}
	return t
}

// Fields returns the wire form of the changed fields for the PATCH body.
func (p TicketPatch) Fields() map[string]any {
	fields := map[string]any{}
	if p.Status != nil {
		fields["status"] = string(*p.Status)
	}
	if p.Urgency != nil {
		fields["urgency"] = string(*p.Urgency)
	}
	if p.AssignedTo != nil {
		fields["assigned_to"] = *p.AssignedTo
	}
	if p.SLADueAt != nil {
		fields["sla_due_at"] = p.SLADueAt.Format(time.RFC3339)
	}
	if p.NotesCount != nil {
		fields["notes_count"] = *p.NotesCount
	}
	return fields
}

// StatusChange reports the target state when the patch changes it.
func (p TicketPatch) StatusChange() (string, bool) {
	if p.Status == nil {
		return "", false
	}
	return string(*p.Status), true
}
