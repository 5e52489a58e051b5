package plugins

import (
	"fmt"
	"strings"

	"github.com/kingrea/opsdeck/internal/board"
)

// PolicyDefinition describes a transition rule set loaded from the
// project's policies directory.
//
// The struct mirrors the on-disk schema under .opsdeck/policies/*.yaml and
// is intentionally narrow so the dashboard can validate a rule set before
// wiring it in front of the mutation path.
type PolicyDefinition struct {
	Kind        string           `json:"kind" yaml:"kind"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Transitions []TransitionRule `json:"transitions" yaml:"transitions"`
}

// TransitionRule lists the stages reachable from one origin stage. An
// empty To list makes the origin terminal.
type TransitionRule struct {
	From string   `json:"from" yaml:"from"`
	To   []string `json:"to" yaml:"to"`
}

// Normalized returns a trimmed, lowercased copy of the definition.
func (def PolicyDefinition) Normalized() PolicyDefinition {
	clone := PolicyDefinition{
		Kind:        strings.ToLower(strings.TrimSpace(def.Kind)),
		Description: strings.TrimSpace(def.Description),
	}
	if len(def.Transitions) > 0 {
		clone.Transitions = make([]TransitionRule, len(def.Transitions))
		for i, rule := range def.Transitions {
			normalized := TransitionRule{From: strings.ToLower(strings.TrimSpace(rule.From))}
			for _, to := range rule.To {
				trimmed := strings.ToLower(strings.TrimSpace(to))
				if trimmed == "" {
					continue
				}
				normalized.To = append(normalized.To, trimmed)
			}
			clone.Transitions[i] = normalized
		}
	}
	return clone
}

// Validate ensures the rule set is well-formed.
func (def PolicyDefinition) Validate() error {
	normalized := def.Normalized()
	if normalized.Kind == "" {
		return fmt.Errorf("policy: kind is required")
	}
	if len(normalized.Transitions) == 0 {
		return fmt.Errorf("policy %s: at least one transition rule is required", normalized.Kind)
	}
	seen := map[string]bool{}
	for i, rule := range normalized.Transitions {
		if rule.From == "" {
			return fmt.Errorf("policy %s: transitions[%d]: from is required", normalized.Kind, i)
		}
		if seen[rule.From] {
			return fmt.Errorf("policy %s: duplicate rule for %s", normalized.Kind, rule.From)
		}
		seen[rule.From] = true
	}
	return nil
}

// CompiledPolicy is the rule sets from the policies directory, compiled
// into the board.Policy interface. Kinds without a rule set — and origin
// stages without a rule — stay permissive, so a partial policy never
// blocks boards it does not mention.
type CompiledPolicy struct {
	kinds map[string]map[string]map[string]bool
}

// Compile builds a policy from validated definitions.
func Compile(defs []PolicyDefinition) *CompiledPolicy {
	compiled := &CompiledPolicy{kinds: map[string]map[string]map[string]bool{}}
	for _, def := range defs {
		normalized := def.Normalized()
		rules, ok := compiled.kinds[normalized.Kind]
		if !ok {
			rules = map[string]map[string]bool{}
			compiled.kinds[normalized.Kind] = rules
		}
		for _, rule := range normalized.Transitions {
			targets := map[string]bool{}
			for _, to := range rule.To {
				targets[to] = true
			}
			rules[rule.From] = targets
		}
	}
	return compiled
}

// Allow implements board.Policy.
func (p *CompiledPolicy) Allow(kind, from, to string) error {
	rules, ok := p.kinds[strings.ToLower(kind)]
	if !ok {
		return nil
	}
	targets, ok := rules[strings.ToLower(from)]
	if !ok {
		return nil
	}
	if from == to {
		// Re-setting the current status is always an idempotent touch.
		return nil
	}
	if !targets[strings.ToLower(to)] {
		return board.Forbid(kind, from, to)
	}
	return nil
}

// Kinds returns the entity kinds the policy constrains.
func (p *CompiledPolicy) Kinds() []string {
	out := make([]string, 0, len(p.kinds))
	for kind := range p.kinds {
		out = append(out, kind)
	}
	return out
}
