package plugins

import (
	"os"
	"path/filepath"
	"testing"
)

const ticketsPolicyGo = `package policies

func PolicyDefinitions() ([]map[string]any, error) {
	return []map[string]any{
		{
			"kind": "tickets",
			"transitions": []map[string]any{
				{"from": "open", "to": []string{"in_progress", "waiting"}},
				{"from": "in_progress", "to": []string{"waiting", "resolved"}},
			},
		},
	}, nil
}
`

func TestLoadGoDefinitionDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tickets.go"), []byte(ticketsPolicyGo), 0644); err != nil {
		t.Fatal(err)
	}
	defs, err := LoadGoDefinitionDir(dir)
	if err != nil {
		t.Fatalf("LoadGoDefinitionDir returned error: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("expected 1 definition, got %d", len(defs))
	}
	def := defs[0].Definition
	if def.Kind != "tickets" || len(def.Transitions) != 2 {
		t.Fatalf("unexpected definition: %+v", def)
	}

	policy := Compile([]PolicyDefinition{def})
	if err := policy.Allow("tickets", "open", "resolved"); err == nil {
		t.Fatal("open -> resolved should be forbidden by the rule set")
	}
	if err := policy.Allow("tickets", "in_progress", "resolved"); err != nil {
		t.Fatalf("listed transition should pass: %v", err)
	}
}

func TestLoadGoDefinitionDirRejectsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.go"), []byte("package policies\nfunc nope() {"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadGoDefinitionDir(dir); err == nil {
		t.Fatal("expected an interpreter error for a broken file")
	}
}

func TestLoadGoDefinitionDirMissingIsEmpty(t *testing.T) {
	defs, err := LoadGoDefinitionDir(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if defs != nil {
		t.Fatalf("expected no definitions, got %+v", defs)
	}
}
