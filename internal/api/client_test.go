package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kingrea/opsdeck/internal/entity"
)

func TestResourceListDecodesEnvelope(t *testing.T) {
	var gotPath, gotAuth, gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"entities": []map[string]any{
				{"id": "l1", "name": "Harbor View", "status": "new"},
				{"id": "l2", "name": "Depot Street", "status": "contacted"},
			},
		})
	}))
	defer server.Close()

	client := New(server.URL, "sekrit")
	leads := NewResource[entity.Lead](client, "leads")
	items, err := leads.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(items) != 2 || items[0].ID != "l1" || items[1].Status != entity.LeadContacted {
		t.Fatalf("unexpected decode: %+v", items)
	}
	if gotPath != "/api/leads" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer sekrit" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotRequestID == "" {
		t.Fatal("every request must carry a request id")
	}
}

func TestResourcePatchSendsOnlyChangedFields(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"entity":  map[string]any{"id": "l1", "status": "contacted"},
		})
	}))
	defer server.Close()

	leads := NewResource[entity.Lead](New(server.URL, ""), "leads")
	updated, err := leads.Patch(context.Background(), "l1", map[string]any{"status": "contacted"})
	if err != nil {
		t.Fatalf("Patch returned error: %v", err)
	}
	if updated == nil || updated.Status != entity.LeadContacted {
		t.Fatalf("unexpected entity: %+v", updated)
	}
	if len(gotBody) != 1 || gotBody["status"] != "contacted" {
		t.Fatalf("unexpected body: %+v", gotBody)
	}
}

func TestRejectionEnvelopeBecomesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "transition not allowed"})
	}))
	defer server.Close()

	leads := NewResource[entity.Lead](New(server.URL, ""), "leads")
	_, err := leads.Patch(context.Background(), "l1", map[string]any{"status": "won"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsRejection(err) {
		t.Fatalf("expected a definitive rejection, got %T: %v", err, err)
	}
}

func TestSuccessFalseWithOKStatusIsStillRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "validation failed"})
	}))
	defer server.Close()

	leads := NewResource[entity.Lead](New(server.URL, ""), "leads")
	_, err := leads.List(context.Background())
	if !IsRejection(err) {
		t.Fatalf("expected rejection, got %v", err)
	}
}

func TestTransportErrorIsNotRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // refuse connections

	leads := NewResource[entity.Lead](New(server.URL, ""), "leads")
	_, err := leads.List(context.Background())
	if err == nil {
		t.Fatal("expected error from closed server")
	}
	if IsRejection(err) {
		t.Fatal("a transport failure must not read as a definitive rejection")
	}
}

func TestAddNoteDecodesStoredNote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"note": map[string]any{
				"id":      "note-1",
				"author":  "mvasquez",
				"content": body["content"],
			},
		})
	}))
	defer server.Close()

	leads := NewResource[entity.Lead](New(server.URL, ""), "leads")
	note, err := leads.AddNote(context.Background(), "l1", "walked the site")
	if err != nil {
		t.Fatalf("AddNote returned error: %v", err)
	}
	if note.ID != "note-1" || note.Content != "walked the site" {
		t.Fatalf("unexpected note: %+v", note)
	}
}

func TestInviteRequiresLinkInResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/partners/sub-1/invite" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"invite":  map[string]any{"url": "https://uploads.example.com/d/abc"},
		})
	}))
	defer server.Close()

	client := New(server.URL, "")
	invite, err := client.Invite(context.Background(), "partners", "sub-1")
	if err != nil {
		t.Fatalf("Invite returned error: %v", err)
	}
	if invite.URL != "https://uploads.example.com/d/abc" {
		t.Fatalf("unexpected invite: %+v", invite)
	}
}
