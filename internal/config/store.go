package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/papapumpkin/comet/internal/semver"
)

// Store loads, validates, and persists one .comet.yml file. Mutations are
// applied in memory; Write flushes them in a single serialization at the
// end of a flow.
type Store struct {
	path string
	cfg  Config
	log  *slog.Logger
}

// Load reads and validates the configuration file, migrating legacy shapes
// to the canonical one. When a migration happened the canonical form is
// written back immediately so the tracked file converges.
func Load(path string, log *slog.Logger) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigMissing, path)
		}
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	cfg, migrated, err := migrate(raw)
	if err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	s := &Store{path: path, cfg: cfg, log: log}
	if migrated {
		log.Info("migrated legacy configuration format", "path", path)
		if err := s.Write(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// New wraps an in-memory configuration, for scaffolding a fresh file.
func New(path string, cfg Config, log *slog.Logger) (*Store, error) {
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &Store{path: path, cfg: cfg, log: log}, nil
}

// Validate checks the canonical configuration shape: supported strategy
// types, branch names, and well-formed project records.
func Validate(cfg *Config) error {
	model := cfg.Strategy.DevelopmentModel
	if model.Type != ModelGitflow {
		return &ValidationError{Field: "strategy.development_model.type",
			Err: fmt.Errorf("%w: %q", ErrUnknownStrategy, model.Type)}
	}
	if cfg.Strategy.CommitsFormat.Type != FormatConventionalCommit {
		return &ValidationError{Field: "strategy.commits_format.type",
			Err: fmt.Errorf("%w: %q", ErrUnknownCommitsFormat, cfg.Strategy.CommitsFormat.Type)}
	}
	for field, value := range map[string]string{
		"strategy.development_model.options.stable_branch":         model.Options.StableBranch,
		"strategy.development_model.options.development_branch":    model.Options.DevelopmentBranch,
		"strategy.development_model.options.release_branch_prefix": model.Options.ReleaseBranchPrefix,
		"repo":      cfg.Repo,
		"workspace": cfg.Workspace,
	} {
		if value == "" {
			return &ValidationError{Field: field, Err: ErrMissingField}
		}
	}
	if len(cfg.Projects) == 0 {
		return &ValidationError{Field: "projects", Err: ErrMissingField}
	}

	seen := make(map[string]bool, len(cfg.Projects))
	for i := range cfg.Projects {
		p := &cfg.Projects[i]
		if p.Path == "" {
			return &ValidationError{Field: "projects.path", Err: ErrMissingField}
		}
		p.Path = filepath.Clean(p.Path)
		if seen[p.Path] {
			return &ValidationError{ProjectPath: p.Path, Field: "path", Err: ErrDuplicateProject}
		}
		seen[p.Path] = true

		if _, err := semver.Parse(p.Version); err != nil {
			return &ValidationError{ProjectPath: p.Path, Field: "version", Err: err}
		}
		if _, err := p.History.Severity(); err != nil {
			return &ValidationError{ProjectPath: p.Path, Field: "history.next_release_type", Err: err}
		}
		for _, edit := range p.FileEdits() {
			if _, err := semver.CompileEdit(edit); err != nil {
				return &ValidationError{ProjectPath: p.Path, Field: "version_files", Err: err}
			}
		}
	}
	return nil
}

// Path returns the configuration file path.
func (s *Store) Path() string {
	return s.path
}

// Branches returns the configured gitflow branch options.
func (s *Store) Branches() BranchOptions {
	return s.cfg.Branches()
}

// Projects returns the managed projects in configured order.
func (s *Store) Projects() []Project {
	out := make([]Project, len(s.cfg.Projects))
	copy(out, s.cfg.Projects)
	return out
}

func (s *Store) project(path string) (*Project, error) {
	path = filepath.Clean(path)
	for i := range s.cfg.Projects {
		if s.cfg.Projects[i].Path == path {
			return &s.cfg.Projects[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownProject, path)
}

// ProjectVersion returns the tracked version for a project path.
func (s *Store) ProjectVersion(path string) (string, error) {
	p, err := s.project(path)
	if err != nil {
		return "", err
	}
	return p.Version, nil
}

// UpdateProjectVersion sets the tracked version for a project path in
// memory.
func (s *Store) UpdateProjectVersion(path, version string) error {
	p, err := s.project(path)
	if err != nil {
		return err
	}
	if _, err := semver.Parse(version); err != nil {
		return err
	}
	p.Version = version
	return nil
}

// ProjectHistory returns the recorded bump history for a project path.
func (s *Store) ProjectHistory(path string) (History, error) {
	p, err := s.project(path)
	if err != nil {
		return History{}, err
	}
	return p.History, nil
}

// UpdateProjectHistory records the bump history for a project path in
// memory.
func (s *Store) UpdateProjectHistory(path string, history History) error {
	p, err := s.project(path)
	if err != nil {
		return err
	}
	p.History = history
	return nil
}

// Write serializes the configuration back to its file.
func (s *Store) Write() error {
	data, err := yaml.Marshal(&s.cfg)
	if err != nil {
		return fmt.Errorf("serializing configuration: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("writing configuration: %w", err)
	}
	s.log.Debug("configuration written", "path", s.path)
	return nil
}
