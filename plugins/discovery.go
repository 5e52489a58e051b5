package plugins

import (
	"fmt"

	"github.com/kingrea/opsdeck/internal/board"
	"github.com/kingrea/opsdeck/internal/config"
)

// LoadTransitionPolicy discovers YAML and Go rule sets under
// .opsdeck/policies and compiles them into one board policy. With no rule
// files present the returned policy allows every transition, matching the
// engine's default.
func LoadTransitionPolicy(cfg *config.Config) (board.Policy, []DefinitionFile, error) {
	if cfg == nil {
		return board.AllowAll(), nil, nil
	}
	files, err := loadAllDefinitionFiles(cfg.PoliciesDir())
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return board.AllowAll(), nil, nil
	}
	seen := make(map[string]string)
	defs := make([]PolicyDefinition, 0, len(files))
	for _, file := range files {
		def := file.Definition
		if existing, ok := seen[def.Kind]; ok {
			return nil, nil, fmt.Errorf("policy: duplicate rule set for kind %s (%s and %s)", def.Kind, existing, file.Path)
		}
		seen[def.Kind] = file.Path
		defs = append(defs, def)
	}
	return Compile(defs), files, nil
}

func loadAllDefinitionFiles(dir string) ([]DefinitionFile, error) {
	yamlDefs, err := LoadDefinitionDir(dir)
	if err != nil {
		return nil, err
	}
	goDefs, err := LoadGoDefinitionDir(dir)
	if err != nil {
		return nil, err
	}
	return append(yamlDefs, goDefs...), nil
}
