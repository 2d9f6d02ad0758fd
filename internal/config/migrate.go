package config

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/papapumpkin/comet/internal/semver"
)

// rawConfig captures every configuration shape this tool has ever written.
// Legacy files carried a string strategy with top-level branch names, and
// projects with separate dev/stable versions, no history, and a single
// project-wide version regex applied to plain version-file paths.
type rawConfig struct {
	Strategy            yaml.Node    `yaml:"strategy"`
	Repo                string       `yaml:"repo"`
	Workspace           string       `yaml:"workspace"`
	StableBranch        string       `yaml:"stable_branch"`
	DevelopmentBranch   string       `yaml:"development_branch"`
	ReleaseBranchPrefix string       `yaml:"release_branch_prefix"`
	Projects            []rawProject `yaml:"projects"`
}

type rawProject struct {
	Path          string      `yaml:"path"`
	Version       string      `yaml:"version"`
	DevVersion    string      `yaml:"dev_version"`
	StableVersion string      `yaml:"stable_version"`
	VersionRegex  string      `yaml:"version_regex"`
	VersionFiles  []yaml.Node `yaml:"version_files"`
	History       *History    `yaml:"history"`
}

// migrate produces the canonical configuration from any known raw shape.
// It is pure: no I/O, no mutation of the input. The second result reports
// whether a legacy shape was converted, in which case the caller should
// persist the canonical form.
func migrate(raw rawConfig) (Config, bool, error) {
	var cfg Config
	migrated := false

	cfg.Repo = raw.Repo
	cfg.Workspace = raw.Workspace

	switch raw.Strategy.Kind {
	case yaml.ScalarNode:
		// Legacy string strategy with top-level branch names.
		var model string
		if err := raw.Strategy.Decode(&model); err != nil {
			return Config{}, false, &ValidationError{Field: "strategy", Err: err}
		}
		cfg.Strategy = Strategy{
			DevelopmentModel: DevelopmentModel{
				Type: model,
				Options: BranchOptions{
					StableBranch:        raw.StableBranch,
					DevelopmentBranch:   raw.DevelopmentBranch,
					ReleaseBranchPrefix: raw.ReleaseBranchPrefix,
				},
			},
			CommitsFormat: CommitsFormat{Type: FormatConventionalCommit},
		}
		migrated = true
	case yaml.MappingNode:
		if err := raw.Strategy.Decode(&cfg.Strategy); err != nil {
			return Config{}, false, &ValidationError{Field: "strategy", Err: err}
		}
	case 0:
		return Config{}, false, &ValidationError{Field: "strategy", Err: ErrMissingField}
	default:
		return Config{}, false, &ValidationError{
			Field: "strategy",
			Err:   fmt.Errorf("unexpected YAML node kind %d", raw.Strategy.Kind),
		}
	}
	if cfg.Strategy.CommitsFormat.Type == "" {
		cfg.Strategy.CommitsFormat.Type = FormatConventionalCommit
	}

	for _, rp := range raw.Projects {
		project, projectMigrated, err := migrateProject(rp)
		if err != nil {
			return Config{}, false, err
		}
		migrated = migrated || projectMigrated
		cfg.Projects = append(cfg.Projects, project)
	}

	return cfg, migrated, nil
}

func migrateProject(rp rawProject) (Project, bool, error) {
	migrated := false

	p := Project{Path: rp.Path, Version: rp.Version}
	if p.Version == "" && rp.DevVersion != "" {
		// Legacy dual-version project: the development version becomes the
		// single tracked version; the stable version is recoverable from
		// tags and is dropped.
		p.Version = rp.DevVersion
		migrated = true
	}
	if p.Version == "" && rp.StableVersion != "" {
		p.Version = rp.StableVersion
		migrated = true
	}

	if rp.History != nil {
		p.History = *rp.History
	} else {
		p.History = History{NextReleaseType: semver.NoChange.String()}
		migrated = true
	}

	for _, node := range rp.VersionFiles {
		switch node.Kind {
		case yaml.ScalarNode:
			// Legacy plain path, optionally paired with the project-wide
			// version_regex. That regex was a literal prefix in front of the
			// version, so it becomes a one-group edit capturing the prefix
			// and consuming the version after it.
			var path string
			if err := node.Decode(&path); err != nil {
				return Project{}, false, &ValidationError{ProjectPath: rp.Path, Field: "version_files", Err: err}
			}
			regex := ""
			if rp.VersionRegex != "" {
				regex = "(" + regexp.QuoteMeta(rp.VersionRegex) + ")" + semver.Pattern
			}
			p.VersionFiles = append(p.VersionFiles, VersionFile{Path: path, Regex: regex})
			migrated = true
		default:
			var vf VersionFile
			if err := node.Decode(&vf); err != nil {
				return Project{}, false, &ValidationError{ProjectPath: rp.Path, Field: "version_files", Err: err}
			}
			p.VersionFiles = append(p.VersionFiles, vf)
		}
	}

	return p, migrated, nil
}
