package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/abdidvp/shelfready/internal/domain"
)

// FileName is the checklist file looked up when no path is configured.
const FileName = ".shelfready.yaml"

// YAMLLoader reads checklist templates from YAML files.
type YAMLLoader struct{}

func New() *YAMLLoader { return &YAMLLoader{} }

// Load reads the checklist at path, or FileName inside path when path is a
// directory. A missing file yields the default checklist.
func (l *YAMLLoader) Load(path string) (domain.ChecklistTemplate, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, FileName)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.DefaultChecklist(), nil
		}
		return domain.ChecklistTemplate{}, err
	}

	var tmpl domain.ChecklistTemplate
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return domain.ChecklistTemplate{}, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}

	// Validate the raw file so typos are reported against what the user wrote.
	if err := tmpl.Validate(); err != nil {
		return domain.ChecklistTemplate{}, fmt.Errorf("invalid %s: %w", filepath.Base(path), err)
	}
	return mergeTemplate(domain.DefaultChecklist(), tmpl), nil
}

// mergeTemplate overlays a user checklist on the defaults. Rules are matched
// by key and explicit (non-zero) fields win; rules the defaults lack are
// appended in file order.
func mergeTemplate(base, override domain.ChecklistTemplate) domain.ChecklistTemplate {
	result := domain.ChecklistTemplate{Rules: append([]domain.RuleTemplate(nil), base.Rules...)}
	index := make(map[domain.RuleKey]int, len(result.Rules))
	for i, r := range result.Rules {
		index[r.Key] = i
	}

	for _, r := range override.Rules {
		i, ok := index[r.Key]
		if !ok {
			index[r.Key] = len(result.Rules)
			result.Rules = append(result.Rules, r)
			continue
		}
		merged := result.Rules[i]
		if r.Label != "" {
			merged.Label = r.Label
		}
		if r.Config != nil {
			merged.Config = r.Config
		}
		if r.Enabled != nil {
			merged.Enabled = r.Enabled
		}
		if r.Weight != 0 {
			merged.Weight = r.Weight
		}
		if r.FixType != "" {
			merged.FixType = r.FixType
		}
		if r.TargetField != "" {
			merged.TargetField = r.TargetField
		}
		result.Rules[i] = merged
	}

	if len(base.FixDefaults)+len(override.FixDefaults) > 0 {
		result.FixDefaults = make(map[domain.RuleKey]domain.FixConfig)
		for k, v := range base.FixDefaults {
			result.FixDefaults[k] = v
		}
		for k, v := range override.FixDefaults {
			result.FixDefaults[k] = result.FixDefaults[k].Merge(v)
		}
	}
	return result
}
