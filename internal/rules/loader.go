package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/clearform/assurance-backend/internal/data/repos"
	types "github.com/clearform/assurance-backend/internal/domain"
	"github.com/clearform/assurance-backend/internal/platform/dbctx"
	"github.com/clearform/assurance-backend/internal/platform/logger"
)

type seedFile struct {
	Rules []seedRule `yaml:"rules"`
}

type seedRule struct {
	Module    string `yaml:"module"`
	Factor    string `yaml:"factor"`
	Threshold int    `yaml:"threshold"`
	Title     string `yaml:"title"`
	Text      string `yaml:"text"`
	Priority  string `yaml:"priority"`
}

// Parse reads a rule library seed document into library entries,
// validating each entry before anything touches the database.
func Parse(raw []byte) ([]*types.TriggerRule, error) {
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rule library: %w", err)
	}

	seen := map[string]bool{}
	out := make([]*types.TriggerRule, 0, len(f.Rules))
	for i, r := range f.Rules {
		if r.Module == "" {
			return nil, fmt.Errorf("rule %d: missing module", i)
		}
		if r.Threshold < 1 || r.Threshold > 2 {
			return nil, fmt.Errorf("rule %d (%s): threshold must be 1 or 2, got %d", i, r.Module, r.Threshold)
		}
		if r.Title == "" || r.Text == "" {
			return nil, fmt.Errorf("rule %d (%s): missing title or text", i, r.Module)
		}
		switch r.Priority {
		case types.PriorityHigh, types.PriorityMedium, types.PriorityLow:
		case "":
			r.Priority = types.PriorityMedium
		default:
			return nil, fmt.Errorf("rule %d (%s): unknown priority %q", i, r.Module, r.Priority)
		}
		key := r.Module + "\x00" + r.Factor
		if seen[key] {
			return nil, fmt.Errorf("rule %d: duplicate entry for %s/%s", i, r.Module, r.Factor)
		}
		seen[key] = true

		out = append(out, &types.TriggerRule{
			SourceModuleKey:        r.Module,
			SourceFactorKey:        r.Factor,
			TriggerRatingThreshold: r.Threshold,
			Title:                  r.Title,
			DefaultText:            r.Text,
			DefaultPriority:        r.Priority,
			Active:                 true,
		})
	}
	return out, nil
}

// SeedFromFile loads the library seed at path and upserts it. Missing
// file is not an error when the path came from a default: deployments
// can run without a seed and manage the library through the API.
func SeedFromFile(dbc dbctx.Context, repo repos.TriggerRuleRepo, path string, log *logger.Logger) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("rule library seed not found, skipping", "path", path)
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read rule library %q: %w", path, err)
	}

	parsed, err := Parse(raw)
	if err != nil {
		return 0, err
	}
	if len(parsed) == 0 {
		return 0, nil
	}
	if err := repo.Upsert(dbc, parsed); err != nil {
		return 0, fmt.Errorf("failed to seed rule library: %w", err)
	}
	log.Info("rule library seeded", "rules", len(parsed), "path", path)
	return len(parsed), nil
}
