// Package config loads the optional YAML runtime configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/thiagokokada/gitrun/internal/git/backend"
)

// Config tunes how git is executed. Zero values keep the executor defaults.
type Config struct {
	// GitPath is the git executable; empty means "git" from PATH.
	GitPath string `yaml:"git_path,omitempty"`
	// KillGrace is a Go duration such as "2s".
	KillGrace string `yaml:"kill_grace,omitempty"`
	// Env holds extra KEY=VALUE pairs for every git child.
	Env           []string `yaml:"env,omitempty"`
	MinGitVersion string   `yaml:"min_git_version,omitempty"`
}

var versionPattern = regexp.MustCompile(`^\d+\.\d+(\.\d+)?$`)

func Default() Config {
	return Config{
		KillGrace:     backend.DefaultKillGrace.String(),
		MinGitVersion: backend.MinGitVersion(),
	}
}

// DefaultPath is $XDG_CONFIG_HOME/gitrun/config.yaml (or the platform
// equivalent).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "gitrun", "config.yaml"), nil
}

// Load reads path over the defaults. An empty path tries DefaultPath and
// falls back to Default when that file does not exist.
func Load(path string) (Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		cfg, err := Load(p)
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return cfg, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.KillGrace != "" {
		if d, err := time.ParseDuration(c.KillGrace); err != nil {
			errs = append(errs, fmt.Errorf("kill_grace: %w", err))
		} else if d <= 0 {
			errs = append(errs, fmt.Errorf("kill_grace: must be positive, got %s", c.KillGrace))
		}
	}
	for _, kv := range c.Env {
		if k, _, ok := strings.Cut(kv, "="); !ok || k == "" {
			errs = append(errs, fmt.Errorf("env: %q is not KEY=VALUE", kv))
		}
	}
	if c.MinGitVersion != "" && !versionPattern.MatchString(c.MinGitVersion) {
		errs = append(errs, fmt.Errorf("min_git_version: %q is not major.minor[.patch]", c.MinGitVersion))
	}
	return errors.Join(errs...)
}

// Options converts the config into executor options. Call Validate first;
// malformed durations are skipped here.
func (c Config) Options() []backend.Option {
	opts := []backend.Option{backend.WithGitPath(c.GitPath)}
	if d, err := time.ParseDuration(c.KillGrace); err == nil {
		opts = append(opts, backend.WithKillGrace(d))
	}
	if len(c.Env) > 0 {
		opts = append(opts, backend.WithEnv(c.Env...))
	}
	if c.MinGitVersion != "" {
		opts = append(opts, backend.WithMinGitVersion(c.MinGitVersion))
	}
	return opts
}

// Marshal renders the config as YAML, e.g. for "gitrun config".
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
