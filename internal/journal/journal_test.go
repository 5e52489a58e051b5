package journal

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestAppendAndTail(t *testing.T) {
	j, err := New(filepath.Join(t.TempDir(), "logs", "journal.log"))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	j.Append(LevelInfo, "leads l1 staged status")
	j.Append(LevelWarn, "leads l1 status rejected, snapshot restored")
	j.Append(LevelInfo, "leads l1 note appended")

	tail := j.Tail(2)
	if len(tail) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(tail))
	}
	if !strings.Contains(tail[0], "snapshot restored") {
		t.Fatalf("unexpected first tail line: %q", tail[0])
	}
	if !strings.Contains(tail[1], "note appended") {
		t.Fatalf("unexpected last tail line: %q", tail[1])
	}
	if !strings.Contains(tail[0], "WARN") {
		t.Fatalf("level missing from entry: %q", tail[0])
	}
}

func TestTailBeforeFirstAppend(t *testing.T) {
	j, err := New(filepath.Join(t.TempDir(), "journal.log"))
	if err != nil {
		t.Fatal(err)
	}
	if lines := j.Tail(5); lines != nil {
		t.Fatalf("expected no lines before first append, got %v", lines)
	}
}

func TestNilJournalIsSafe(t *testing.T) {
	var j *Journal
	j.Append(LevelInfo, "ignored")
	if j.Tail(3) != nil {
		t.Fatal("nil journal should tail nothing")
	}
	if j.Path() != "" {
		t.Fatal("nil journal should have no path")
	}
}
