// cmd/opsdeck-api/main.go
//
// A seeded in-memory backend for local development. It implements the
// JSON envelope contract the dashboard client speaks: every response is
// {success, <payload>, error}. Records live in mutex-guarded maps and
// reset on restart.
//
// Run it, then point the dashboard at it (the default config already
// does): opsdeck-api --addr :8787

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/opsdeck/internal/entity"
)

// record is a raw entity; keeping it as a map makes PATCH a plain merge.
type record map[string]any

type collection struct {
	order    []string
	byID     map[string]record
	notes    map[string][]entity.Note
	idStub   string
	statuses map[string]bool
}

type server struct {
	mu          sync.Mutex
	collections map[string]*collection
}

func main() {
	addr := flag.String("addr", ":8787", "listen address")
	flag.Parse()

	srv := newServer()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/", srv.route)

	log.Printf("opsdeck-api listening on %s", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		fmt.Fprintf(os.Stderr, "opsdeck-api: %v\n", err)
		os.Exit(1)
	}
}

func newServer() *server {
	s := &server{collections: map[string]*collection{
		"leads":        newCollection("lead", entity.LeadStages()),
		"tickets":      newCollection("tkt", entity.TicketStates()),
		"partners":     newCollection("sub", entity.PartnerStates()),
		"jobs":         newCollection("job", entity.JobStates()),
		"applications": newCollection("app", entity.ApplicationStages()),
	}}
	s.seed()
	return s
}

func newCollection[S ~string](idStub string, statuses []S) *collection {
	allowed := make(map[string]bool, len(statuses))
	for _, status := range statuses {
		allowed[string(status)] = true
	}
	return &collection{
		byID:     map[string]record{},
		notes:    map[string][]entity.Note{},
		idStub:   idStub,
		statuses: allowed,
	}
}

// route dispatches /api/{kind}[/{id}[/notes|/invite]].
func (s *server) route(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/"), "/"), "/")
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[parts[0]]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown collection %q", parts[0]))
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		s.list(w, col)
	case len(parts) == 1 && r.Method == http.MethodPost:
		s.create(w, r, col)
	case len(parts) == 2 && r.Method == http.MethodPatch:
		s.patch(w, r, col, parts[1])
	case len(parts) == 3 && parts[2] == "notes" && r.Method == http.MethodGet:
		s.listNotes(w, col, parts[1])
	case len(parts) == 3 && parts[2] == "notes" && r.Method == http.MethodPost:
		s.addNote(w, r, col, parts[1])
	case len(parts) == 3 && parts[2] == "invite" && r.Method == http.MethodPost:
		s.invite(w, col, parts[1])
	default:
		writeError(w, http.StatusMethodNotAllowed, "unsupported operation")
	}
}

func (s *server) list(w http.ResponseWriter, col *collection) {
	items := make([]record, 0, len(col.order))
	for _, id := range col.order {
		items = append(items, col.byID[id])
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "entities": items})
}

func (s *server) create(w http.ResponseWriter, r *http.Request, col *collection) {
	var body record
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if status, ok := body["status"].(string); ok && !col.statuses[status] {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("unknown status %q", status))
		return
	}
	id := fmt.Sprintf("%s-%s", col.idStub, uuid.NewString()[:8])
	now := time.Now().UTC().Format(time.RFC3339)
	body["id"] = id
	body["created_at"] = now
	body["updated_at"] = now
	if _, ok := body["notes_count"]; !ok {
		body["notes_count"] = 0
	}
	col.byID[id] = body
	col.order = append(col.order, id)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "entity": body})
}

func (s *server) patch(w http.ResponseWriter, r *http.Request, col *collection, id string) {
	rec, ok := col.byID[id]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no record %q", id))
		return
	}
	var fields record
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if status, ok := fields["status"].(string); ok && !col.statuses[status] {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("unknown status %q", status))
		return
	}
	for key, value := range fields {
		if key == "id" || key == "created_at" {
			continue
		}
		rec[key] = value
	}
	rec["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "entity": rec})
}

func (s *server) listNotes(w http.ResponseWriter, col *collection, id string) {
	if _, ok := col.byID[id]; !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no record %q", id))
		return
	}
	notes := col.notes[id]
	if notes == nil {
		notes = []entity.Note{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "notes": notes})
}

func (s *server) addNote(w http.ResponseWriter, r *http.Request, col *collection, id string) {
	rec, ok := col.byID[id]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no record %q", id))
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.Content) == "" {
		writeError(w, http.StatusUnprocessableEntity, "note content must not be blank")
		return
	}
	note := entity.Note{
		ID:        "note-" + uuid.NewString()[:8],
		Author:    "demo",
		Content:   body.Content,
		CreatedAt: time.Now().UTC(),
	}
	col.notes[id] = append([]entity.Note{note}, col.notes[id]...)
	rec["notes_count"] = len(col.notes[id])
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "note": note})
}

func (s *server) invite(w http.ResponseWriter, col *collection, id string) {
	if _, ok := col.byID[id]; !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no record %q", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"invite": map[string]any{
			"url":        "https://uploads.opsdeck.local/d/" + uuid.NewString(),
			"expires_at": time.Now().UTC().Add(72 * time.Hour).Format(time.RFC3339),
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}

// seed loads demo data so the dashboard has something to show.
func (s *server) seed() {
	now := time.Now().UTC()
	in := func(d time.Duration) *time.Time { t := now.Add(d); return &t }

	seedInto(s.collections["leads"], []entity.Lead{
		{ID: "lead-1001", Name: "Harbor View Condos", Company: "Meridian Development", Email: "bids@meridiandev.com", Phone: "555-0142", Source: "website", ProjectType: "multifamily", EstimatedValue: 2400000, Status: entity.LeadNew, AssignedTo: "mvasquez", NextActionAt: in(48 * time.Hour), CreatedAt: now.Add(-72 * time.Hour), UpdatedAt: now.Add(-3 * time.Hour)},
		{ID: "lead-1002", Name: "Eastside Clinic Remodel", Company: "Ridgeline Health", Email: "facilities@ridgelinehealth.org", Phone: "555-0177", Source: "referral", ProjectType: "tenant improvement", EstimatedValue: 610000, Status: entity.LeadContacted, AssignedTo: "dcole", CreatedAt: now.Add(-240 * time.Hour), UpdatedAt: now.Add(-24 * time.Hour)},
		{ID: "lead-1003", Name: "Depot Street Warehouse", Company: "Carraway Logistics", Email: "ops@carraway.io", Phone: "555-0168", Source: "event", ProjectType: "industrial", EstimatedValue: 1850000, Status: entity.LeadProposal, AssignedTo: "mvasquez", NextActionAt: in(-24 * time.Hour), CreatedAt: now.Add(-720 * time.Hour), UpdatedAt: now.Add(-48 * time.Hour)},
	})

	seedInto(s.collections["tickets"], []entity.Ticket{
		{ID: "tkt-2001", Title: "HVAC down in bay 3", Facility: "North Yard", Urgency: entity.UrgencyCritical, Status: entity.TicketOpen, AssignedTo: "dcole", SLADueAt: in(-2 * time.Hour), CreatedAt: now.Add(-26 * time.Hour), UpdatedAt: now.Add(-26 * time.Hour)},
		{ID: "tkt-2002", Title: "Crane inspection renewal", Facility: "Main Shop", Urgency: entity.UrgencyHigh, Status: entity.TicketInProgress, AssignedTo: "mvasquez", SLADueAt: in(36 * time.Hour), CreatedAt: now.Add(-80 * time.Hour), UpdatedAt: now.Add(-6 * time.Hour)},
		{ID: "tkt-2003", Title: "Replace dock lighting", Facility: "North Yard", Urgency: entity.UrgencyLow, Status: entity.TicketWaiting, SLADueAt: in(200 * time.Hour), CreatedAt: now.Add(-100 * time.Hour), UpdatedAt: now.Add(-100 * time.Hour)},
	})

	seedInto(s.collections["partners"], []entity.Partner{
		{ID: "sub-3001", Company: "Voltline Electric", Contact: "R. Okafor", Email: "rokafor@voltline.com", Trade: "electrical", Status: entity.PartnerApproved, AssignedTo: "mvasquez", InsuranceExpiresAt: in(20 * 24 * time.Hour), LicenseExpiresAt: in(300 * 24 * time.Hour), CreatedAt: now.Add(-2000 * time.Hour), UpdatedAt: now.Add(-40 * time.Hour)},
		{ID: "sub-3002", Company: "Cascade Plumbing Co", Contact: "J. Reyes", Email: "jreyes@cascadeplumb.com", Trade: "plumbing", Status: entity.PartnerPending, InsuranceExpiresAt: in(-5 * 24 * time.Hour), CreatedAt: now.Add(-400 * time.Hour), UpdatedAt: now.Add(-400 * time.Hour)},
		{ID: "sub-3003", Company: "Summit Roofing", Contact: "A. Marsh", Email: "amarsh@summitroof.com", Trade: "roofing", Status: entity.PartnerApproved, InsuranceExpiresAt: in(85 * 24 * time.Hour), LicenseExpiresAt: in(50 * 24 * time.Hour), CreatedAt: now.Add(-3000 * time.Hour), UpdatedAt: now.Add(-200 * time.Hour)},
	})

	seedInto(s.collections["jobs"], []entity.Job{
		{ID: "job-4001", Title: "Site Superintendent", Location: "Tacoma, WA", Status: entity.JobOpen, BoardSync: entity.SyncNotSynced, CreatedAt: now.Add(-300 * time.Hour), UpdatedAt: now.Add(-300 * time.Hour)},
		{ID: "job-4002", Title: "Project Engineer", Location: "Tacoma, WA", Status: entity.JobOpen, BoardSync: entity.SyncSynced, ExternalID: "jb-7f3a02c1", CreatedAt: now.Add(-600 * time.Hour), UpdatedAt: now.Add(-100 * time.Hour)},
		{ID: "job-4003", Title: "Estimator", Location: "Remote", Status: entity.JobDraft, BoardSync: entity.SyncNotSynced, CreatedAt: now.Add(-50 * time.Hour), UpdatedAt: now.Add(-50 * time.Hour)},
	})

	seedInto(s.collections["applications"], []entity.Application{
		{ID: "app-5001", Candidate: "T. Nguyen", Email: "tnguyen@example.com", JobID: "job-4002", JobTitle: "Project Engineer", Status: entity.ApplicationInterview, AssignedTo: "dcole", CreatedAt: now.Add(-150 * time.Hour), UpdatedAt: now.Add(-20 * time.Hour)},
		{ID: "app-5002", Candidate: "S. Whitfield", Email: "swhitfield@example.com", JobID: "job-4002", JobTitle: "Project Engineer", Status: entity.ApplicationApplied, CreatedAt: now.Add(-30 * time.Hour), UpdatedAt: now.Add(-30 * time.Hour)},
		{ID: "app-5003", Candidate: "L. Baptiste", Email: "lbaptiste@example.com", JobID: "job-4001", JobTitle: "Site Superintendent", Status: entity.ApplicationScreening, AssignedTo: "mvasquez", CreatedAt: now.Add(-90 * time.Hour), UpdatedAt: now.Add(-45 * time.Hour)},
	})
}

// seedInto round-trips typed seeds through JSON so the stored shape is
// exactly what the client sees.
func seedInto[E any](col *collection, items []E) {
	for _, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			continue
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		id, _ := rec["id"].(string)
		if id == "" {
			id = fmt.Sprintf("%s-%s", col.idStub, uuid.NewString()[:8])
			rec["id"] = id
		}
		col.byID[id] = rec
		col.order = append(col.order, id)
	}
}
