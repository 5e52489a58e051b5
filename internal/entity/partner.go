// internal/entity/partner.go
//
// Partners are subcontractors going through prequalification. Their
// compliance documents (insurance, trade license) have validity windows;
// the board buckets partners by days remaining so renewals are chased
// before coverage lapses.

package entity

import "time"

// PartnerStatus is a prequalification state.
type PartnerStatus string

const (
	PartnerPending  PartnerStatus = "pending"
	PartnerApproved PartnerStatus = "approved"
	PartnerBlocked  PartnerStatus = "blocked"
)

// PartnerStates returns the prequalification states in display order.
func PartnerStates() []PartnerStatus {
	return []PartnerStatus{PartnerPending, PartnerApproved, PartnerBlocked}
}

// ParsePartnerStatus validates a wire-format partner status.
func ParsePartnerStatus(raw string) (PartnerStatus, error) {
	return parseStatus(raw, PartnerStates())
}

// Partner is one subcontractor under prequalification.
type Partner struct {
	ID                 string        `json:"id"`
	Company            string        `json:"company"`
	Contact            string        `json:"contact"`
	Email              string        `json:"email"`
	Trade              string        `json:"trade"`
	Status             PartnerStatus `json:"status"`
	AssignedTo         string        `json:"assigned_to"`
	InsuranceExpiresAt *time.Time    `json:"insurance_expires_at,omitempty"`
	LicenseExpiresAt   *time.Time    `json:"license_expires_at,omitempty"`
	InviteURL          string        `json:"invite_url,omitempty"`
	NotesCount         int           `json:"notes_count"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// EntityID implements store.Record.
func (p Partner) EntityID() string { return p.ID }

// Stamped returns a copy with UpdatedAt set.
func (p Partner) Stamped(now time.Time) Partner {
	p.UpdatedAt = now
	return p
}

// StatusKey reports the prequalification state for grouping.
func (p Partner) StatusKey() string { return string(p.Status) }

// SearchText lists the fields matched by the free-text filter.
func (p Partner) SearchText() []string {
	return []string{p.Company, p.Contact, p.Trade}
}

// Facet exposes exact-match filter dimensions.
func (p Partner) Facet(key string) string {
	switch key {
	case "status":
		return string(p.Status)
	case "trade":
		return p.Trade
	case "assigned_to":
		return p.AssignedTo
	}
	return ""
}

// NextExpiry returns the earliest of the partner's document expiry dates.
func (p Partner) NextExpiry() *time.Time {
	earliest := p.InsuranceExpiresAt
	if earliest == nil || (p.LicenseExpiresAt != nil && p.LicenseExpiresAt.Before(*earliest)) {
		earliest = p.LicenseExpiresAt
	}
	return cloneTime(earliest)
}

// PartnerPatch is a partial update; nil fields are preserved on apply.
type PartnerPatch struct {
	Status             *PartnerStatus `json:"status,omitempty"`
	AssignedTo         *string        `json:"assigned_to,omitempty"`
	InsuranceExpiresAt *time.Time     `json:"insurance_expires_at,omitempty"`
	LicenseExpiresAt   *time.Time     `json:"license_expires_at,omitempty"`
	InviteURL          *string        `json:"invite_url,omitempty"`
	NotesCount         *int           `json:"notes_count,omitempty"`
}

// Apply shallow-merges the patch into the partner.
func (pp PartnerPatch) Apply(p Partner) Partner {
	if pp.Status != nil {
		p.Status = *pp.Status
	}
	if pp.AssignedTo != nil {
		p.AssignedTo = *pp.AssignedTo
	}
	if pp.InsuranceExpiresAt != nil {
		p.InsuranceExpiresAt = cloneTime(pp.InsuranceExpiresAt)
	}
	if pp.LicenseExpiresAt != nil {
		p.LicenseExpiresAt = cloneTime(pp.LicenseExpiresAt)
	}
	if pp.InviteURL != nil {
		p.InviteURL = *pp.InviteURL
	}
	if pp.NotesCount != nil {
		p.NotesCount = *pp.NotesCount
	}
	return p
}

// Fields returns the wire form of the changed fields for the PATCH body.
func (pp PartnerPatch) Fields() map[string]any {
	fields := map[string]any{}
	if pp.Status != nil {
		fields["status"] = string(*pp.Status)
	}
	if pp.AssignedTo != nil {
		fields["assigned_to"] = *pp.AssignedTo
	}
	if pp.InsuranceExpiresAt != nil {
		fields["insurance_expires_at"] = pp.InsuranceExpiresAt.Format(time.RFC3339)
	}
	if pp.LicenseExpiresAt != nil {
		fields["license_expires_at"] = pp.LicenseExpiresAt.Format(time.RFC3339)
	}
	if pp.InviteURL != nil {
		fields["invite_url"] = *pp.InviteURL
	}
	if pp.NotesCount != nil {
		fields["notes_count"] = *pp.NotesCount
	}
	return fields
}

// StatusChange reports the target state when the patch changes it.
func (pp PartnerPatch) StatusChange() (string, bool) {
	if pp.Status == nil {
		return "", false
	}
	return string(*pp.Status), true
}
