// internal/entity/lead.go
//
// Sales leads move through a fixed pipeline from intake to won/lost. The
// pipeline board groups leads by stage; the stage order here is the render
// order, not a transition constraint (policy plugins can add one).

package entity

import "time"

// LeadStatus is a stage in the sales pipeline.
type LeadStatus string

const (
	LeadNew       LeadStatus = "new"
	LeadContacted LeadStatus = "contacted"
	LeadQualified LeadStatus = "qualified"
	LeadProposal  LeadStatus = "proposal"
	LeadWon       LeadStatus = "won"
	LeadLost      LeadStatus = "lost"
)

// LeadStages returns the pipeline stages in display order.
func LeadStages() []LeadStatus {
	return []LeadStatus{LeadNew, LeadContacted, LeadQualified, LeadProposal, LeadWon, LeadLost}
}

// ParseLeadStatus validates a wire-format lead status.
func ParseLeadStatus(raw string) (LeadStatus, error) {
	return parseStatus(raw, LeadStages())
}

// Lead is one sales prospect captured by the intake wizard.
type Lead struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Company        string     `json:"company"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Source         string     `json:"source"`
	ProjectType    string     `json:"project_type"`
	EstimatedValue int64      `json:"estimated_value"`
	Status         LeadStatus `json:"status"`
	AssignedTo     string     `json:"assigned_to"`
	NextActionAt   *time.Time `json:"next_action_date,omitempty"`
	NotesCount     int        `json:"notes_count"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// EntityID implements store.Record.
func (l Lead) EntityID() string { return l.ID }

// Stamped returns a copy with UpdatedAt set.
func (l Lead) Stamped(t time.Time) Lead {
	l.UpdatedAt = t
	return l
}

// StatusKey reports the pipeline stage for grouping.
func (l Lead) StatusKey() string { return string(l.Status) }

// SearchText lists the fields matched by the free-text filter.
func (l Lead) SearchText() []string {
	return []string{l.Name, l.Company, l.Email, l.ProjectType}
}

// Facet exposes exact-match filter dimensions.
func (l Lead) Facet(key string) string {
	switch key {
	case "status":
		return string(l.Status)
	case "source":
		return l.Source
	case "assigned_to":
		return l.AssignedTo
	}
	return ""
}

// LeadPatch is a partial update; nil fields are preserved on apply.
type LeadPatch struct {
	Status       *LeadStatus `json:"status,omitempty"`
	AssignedTo   *string     `json:"assigned_to,omitempty"`
	NextActionAt *time.Time  `json:"next_action_date,omitempty"`
	NotesCount   *int        `json:"notes_count,omitempty"`
}

// Apply shallow-merges the patch into the lead.
func (p LeadPatch) Apply(l Lead) Lead {
	if p.Status != nil {
		l.Status = *p.Status
	}
	if p.AssignedTo != nil {
		l.AssignedTo = *p.AssignedTo
	}
	if p.NextActionAt != nil {
		l.NextActionAt = cloneTime(p.NextActionAt)
	}
	if p.NotesCount != nil {
		l.NotesCount = *p.NotesCount
	}
	return l
}

// Fields returns the wire form of the changed fields for the PATCH body.
func (p LeadPatch) Fields() map[string]any {
	fields := map[string]any{}
	if p.Status != nil {
		fields["status"] = string(*p.Status)
	}
	if p.AssignedTo != nil {
		fields["assigned_to"] = *p.AssignedTo
	}
	if p.NextActionAt != nil {
		fields["next_action_date"] = p.NextActionAt.Format(time.RFC3339)
	}
	if p.NotesCount != nil {
		fields["notes_count"] = *p.NotesCount
	}
	return fields
}

// StatusChange reports the target stage when the patch moves the pipeline.
func (p LeadPatch) StatusChange() (string, bool) {
	if p.Status == nil {
		return "", false
	}
	return string(*p.Status), true
}
