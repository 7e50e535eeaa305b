package yamlfile

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mguerin/docpilot/internal/core/domain"
)

// Source loads classification override rules from a YAML file, the rule
// backend used by the command line runner where no database is involved.
type Source struct {
	path string
}

func New(path string) *Source {
	return &Source{path: path}
}

type rulesFile struct {
	Rules []domain.ClassificationRule `yaml:"rules"`
}

func (s *Source) ListEnabledRules(ctx context.Context) ([]domain.ClassificationRule, error) {
	if s.path == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}

	enabled := make([]domain.ClassificationRule, 0, len(file.Rules))
	for _, rule := range file.Rules {
		if rule.Enabled {
			enabled = append(enabled, rule)
		}
	}
	return enabled, nil
}
