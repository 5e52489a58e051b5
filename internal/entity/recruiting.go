// internal/entity/recruiting.go
//
// Recruiting tracks two record kinds: job postings (published to an
// external job board through an opaque sync stub) and applications moving
// through the hiring funnel.

package entity

import "time"

// JobStatus is a posting state.
type JobStatus string

const (
	JobDraft  JobStatus = "draft"
	JobOpen   JobStatus = "open"
	JobClosed JobStatus = "closed"
)

// JobStates returns the posting states in display order.
func JobStates() []JobStatus {
	return []JobStatus{JobDraft, JobOpen, JobClosed}
}

// ParseJobStatus validates a wire-format job status.
func ParseJobStatus(raw string) (JobStatus, error) {
	return parseStatus(raw, JobStates())
}

// SyncState mirrors the job board integration's opaque publish status.
// It is display-only and never part of the cache consistency contract.
type SyncState string

const (
	SyncNotSynced SyncState = "not_synced"
	SyncSynced    SyncState = "synced"
	SyncError     SyncState = "error"
)

// Job is one open position.
type Job struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Location   string    `json:"location"`
	Status     JobStatus `json:"status"`
	BoardSync  SyncState `json:"board_sync"`
	ExternalID string    `json:"external_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// EntityID implements store.Record.
func (j Job) EntityID() string { return j.ID }

// Stamped returns a copy with UpdatedAt set.
func (j Job) Stamped(now time.Time) Job {
	j.UpdatedAt = now
	return j
}

// StatusKey reports the posting state for grouping.
func (j Job) StatusKey() string { return string(j.Status) }

// SearchText lists the fields matched by the free-text filter.
func (j Job) SearchText() []string {
	return []string{j.Title, j.Location}
}

// Facet exposes exact-match filter dimensions.
func (j Job) Facet(key string) string {
	switch key {
	case "status":
		return string(j.Status)
	case "location":
		return j.Location
	}
	return ""
}

// JobPatch is a partial update; nil fields are preserved on apply.
type JobPatch struct {
	Status     *JobStatus `json:"status,omitempty"`
	BoardSync  *SyncState `json:"board_sync,omitempty"`
	ExternalID *string    `json:"external_id,omitempty"`
}

// Apply shallow-merges the patch into the job.
func (p JobPatch) Apply(j Job) Job {
	if p.Status != nil {
		j.Status = *p.Status
	}
	if p.BoardSync != nil {
		j.BoardSync = *p.BoardSync
	}
	if p.ExternalID != nil {
		j.ExternalID = *p.ExternalID
	}
	return j
}

// Fields returns the wire form of the changed fields for the PATCH body.
func (p JobPatch) Fields() map[string]any {
	fields := map[string]any{}
	if p.Status != nil {
		fields["status"] = string(*p.Status)
	}
	if p.BoardSync != nil {
		fields["board_sync"] = string(*p.BoardSync)
	}
	if p.ExternalID != nil {
		fields["external_id"] = *p.ExternalID
	}
	return fields
}

// StatusChange reports the target state when the patch changes it.
func (p JobPatch) StatusChange() (string, bool) {
	if p.Status == nil {
		return "", false
	}
	return string(*p.Status), true
}

// ApplicationStatus is a stage in the hiring funnel.
type ApplicationStatus string

const (
	ApplicationApplied   ApplicationStatus = "applied"
	ApplicationScreening ApplicationStatus = "screening"
	ApplicationInterview ApplicationStatus = "interview"
	ApplicationOffer     ApplicationStatus = "offer"
	ApplicationHired     ApplicationStatus = "hired"
	ApplicationRejected  ApplicationStatus = "rejected"
)

// ApplicationStages returns the funnel stages in display order.
func ApplicationStages() []ApplicationStatus {
	return []ApplicationStatus{
		ApplicationApplied,
		ApplicationScreening,
		ApplicationInterview,
		ApplicationOffer,
		ApplicationHired,
		ApplicationRejected,
	}
}

// ParseApplicationStatus validates a wire-format application status.
func ParseApplicationStatus(raw string) (ApplicationStatus, error) {
	return parseStatus(raw, ApplicationStages())
}

// Application is one candidate's progress against a job posting.
type Application struct {
	ID         string            `json:"id"`
	JobID      string            `json:"job_id"`
	JobTitle   string            `json:"job_title"`
	Candidate  string            `json:"candidate"`
	Email      string            `json:"email"`
	Status     ApplicationStatus `json:"status"`
	AssignedTo string            `json:"assigned_to"`
	NotesCount int               `json:"notes_count"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// EntityID implements store.Record.
func (a Application) EntityID() string { return a.ID }

// Stamped returns a copy with UpdatedAt set.
func (a Application) Stamped(now time.Time) Application {
	a.UpdatedAt = now
	return a
}

// StatusKey reports the funnel stage for grouping.
func (a Application) StatusKey() string { return string(a.Status) }

// SearchText lists the fields matched by the free-text filter.
func (a Application) SearchText() []string {
	return []string{a.Candidate, a.Email, a.JobTitle}
}

// Facet exposes exact-match filter dimensions.
func (a Application) Facet(key string) string {
	switch key {
	case "status":
		return string(a.Status)
	case "job_id":
		return a.JobID
	case "assigned_to":
		return a.AssignedTo
	}
	return ""
}

// ApplicationPatch is a partial update; nil fields are preserved on apply.
type ApplicationPatch struct {
	Status     *ApplicationStatus `json:"status,omitempty"`
	AssignedTo *string            `json:"assigned_to,omitempty"`
	NotesCount *int               `json:"notes_count,omitempty"`
}

// Apply shallow-merges the patch into the application.
func (p ApplicationPatch) Apply(a Application) Application {
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.AssignedTo != nil {
		a.AssignedTo = *p.AssignedTo
	}
	if p.NotesCount != nil {
		a.NotesCount = *p.NotesCount
	}
	return a
}

// Fields returns the wire form of the changed fields for the PATCH body.
func (p ApplicationPatch) Fields() map[string]any {
	fields := map[string]any{}
	if p.Status != nil {
		fields["status"] = string(*p.Status)
	}
	if p.AssignedTo != nil {
		fields["assigned_to"] = *p.AssignedTo
	}
	if p.NotesCount != nil {
		fields["notes_count"] = *p.NotesCount
	}
	return fields
}

// StatusChange reports the target stage when the patch changes it.
func (p ApplicationPatch) StatusChange() (string, bool) {
	if p.Status == nil {
		return "", false
	}
	return string(*p.Status), true
}
