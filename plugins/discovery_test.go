package plugins

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/opsdeck/internal/config"
)

func policyTestConfig(t *testing.T) *config.Config {
	t.Helper()
	projectDir := t.TempDir()
	if err := config.InitOpsdeckDir(projectDir); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestLoadTransitionPolicyDefaultsToAllowAll(t *testing.T) {
	cfg := policyTestConfig(t)
	policy, files, err := LoadTransitionPolicy(cfg)
	if err != nil {
		t.Fatalf("LoadTransitionPolicy returned error: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected no rule files, got %d", len(files))
	}
	if err := policy.Allow("leads", "won", "new"); err != nil {
		t.Fatalf("empty policies dir must allow everything: %v", err)
	}
}

func TestLoadTransitionPolicyCompilesYAMLRules(t *testing.T) {
	cfg := policyTestConfig(t)
	path := filepath.Join(cfg.PoliciesDir(), "leads.yaml")
	if err := os.WriteFile(path, []byte(leadsPolicyYAML), 0644); err != nil {
		t.Fatal(err)
	}
	policy, files, err := LoadTransitionPolicy(cfg)
	if err != nil {
		t.Fatalf("LoadTransitionPolicy returned error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 rule file, got %d", len(files))
	}
	if err := policy.Allow("leads", "new", "won"); err == nil {
		t.Fatal("compiled rules not enforced")
	}
	if err := policy.Allow("leads", "new", "contacted"); err != nil {
		t.Fatalf("listed transition should pass: %v", err)
	}
}

func TestLoadTransitionPolicyRejectsDuplicateKinds(t *testing.T) {
	cfg := policyTestConfig(t)
	for _, name := range []string{"a.yaml", "b.yaml"} {
		if err := os.WriteFile(filepath.Join(cfg.PoliciesDir(), name), []byte(leadsPolicyYAML), 0644); err != nil {
			t.Fatal(err)
		}
	}
	_, _, err := LoadTransitionPolicy(cfg)
	if err == nil || !strings.Contains(err.Error(), "duplicate rule set") {
		t.Fatalf("expected duplicate-kind error, got %v", err)
	}
}

func TestLoadTransitionPolicyNilConfigAllowsAll(t *testing.T) {
	policy, _, err := LoadTransitionPolicy(nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := policy.Allow("anything", "a", "b"); err != nil {
		t.Fatalf("nil config must allow everything: %v", err)
	}
}
