// Package config loads and merges the three scope configuration files
// into one effective configuration.
//
// Scopes, least to most authoritative:
//
//	user          ~/.skillset/config.yaml
//	project.local <cwd>/.skillset/config.local.yaml
//	project       <cwd>/.skillset/config.yaml
//
// Map-valued keys merge key-by-key; scalars take the most authoritative
// explicit value. Missing files are fine; a present file that fails to
// parse is fatal and the error names the path.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/outfitter-dev/skillset/internal/skills"
)

// ErrInvalid marks a present-but-unparsable config file.
var ErrInvalid = errors.New("invalid config")

// Resolution modes.
const (
	ModeWarn   = "warn"
	ModeStrict = "strict"
)

// Matching thresholds applied when config leaves them unset.
const (
	DefaultMinScore        = 0.6
	DefaultAmbiguityMargin = 0.15
	DefaultMaxSuggestions  = 3
)

// Output controls how resolved skill content is assembled. Fields are
// pointers so an explicit zero is distinguishable from unset.
type Output struct {
	MaxLines      *int  `yaml:"max_lines"`
	IncludeLayout *bool `yaml:"include_layout"`
}

// Rules holds policy knobs. rules.unresolved is a synonym for mode
// (error means strict); an explicit mode in the same scope wins.
type Rules struct {
	Unresolved string `yaml:"unresolved"`
}

// Matching holds the fuzzy-match thresholds. Pointers again: a margin
// of zero (always take the top candidate) is a valid setting.
type Matching struct {
	MinScore        *float64 `yaml:"min_score"`
	AmbiguityMargin *float64 `yaml:"ambiguity_margin"`
	MaxSuggestions  *int     `yaml:"max_suggestions"`
}

// Cache holds cache tuning.
type Cache struct {
	TTLSeconds *int `yaml:"ttl_seconds"`
}

// File is the on-disk shape of one scope document.
type File struct {
	Mode             string            `yaml:"mode"`
	Sigil            string            `yaml:"sigil"`
	Mappings         map[string]string `yaml:"mappings"`
	NamespaceAliases map[string]string `yaml:"namespaceAliases"`
	ScanRoots        map[string]string `yaml:"scanRoots"`
	Excludes         []string          `yaml:"excludes"`
	Output           *Output           `yaml:"output"`
	Rules            *Rules            `yaml:"rules"`
	Matching         *Matching         `yaml:"matching"`
	Cache            *Cache            `yaml:"cache"`
}

// Effective is the merged configuration one invocation runs with. It is
// built fresh from disk every time and never persisted.
type Effective struct {
	Mode             string
	Sigil            string
	Mappings         map[string]string
	NamespaceAliases map[string]string
	ScanRoots        []skills.ScanRoot
	Excludes         []string
	MaxLines         int
	IncludeLayout    bool
	MinScore         float64
	AmbiguityMargin  float64
	MaxSuggestions   int
	CacheTTL         time.Duration
}

// UserDir returns the absolute path to ~/.skillset/.
func UserDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".skillset"), nil
}

// CachePath returns the absolute path of the index snapshot file.
func CachePath() (string, error) {
	dir, err := UserDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache", "index.json"), nil
}

// ScopePaths returns the three scope file paths for cwd, least to most
// authoritative.
func ScopePaths(cwd string) (user, local, project string, err error) {
	dir, err := UserDir()
	if err != nil {
		return "", "", "", err
	}
	user = filepath.Join(dir, "config.yaml")
	local = filepath.Join(cwd, ".skillset", "config.local.yaml")
	project = filepath.Join(cwd, ".skillset", "config.yaml")
	return user, local, project, nil
}

// LoadEffective builds the effective configuration for cwd. Environment
// variables (optionally sourced from ~/.skillset/.env) override every
// file scope for the few keys they cover.
func LoadEffective(cwd string) (*Effective, error) {
	userPath, localPath, projectPath, err := ScopePaths(cwd)
	if err != nil {
		return nil, err
	}

	eff := defaults(cwd)
	for _, path := range []string{userPath, localPath, projectPath} {
		f, err := loadScope(path)
		if err != nil {
			return nil, err
		}
		if f != nil {
			apply(eff, f, path)
		}
	}
	if err := applyEnv(eff); err != nil {
		return nil, err
	}
	return eff, nil
}

// defaults returns the zero-config effective configuration: warn mode,
// standard sigil, the conventional scan roots, stock thresholds.
func defaults(cwd string) *Effective {
	eff := &Effective{
		Mode:             ModeWarn,
		Sigil:            "$",
		Mappings:         map[string]string{},
		NamespaceAliases: map[string]string{},
		MinScore:         DefaultMinScore,
		AmbiguityMargin:  DefaultAmbiguityMargin,
		MaxSuggestions:   DefaultMaxSuggestions,
		CacheTTL:         3600 * time.Second,
	}
	roots := map[string]string{
		skills.NamespaceProject: filepath.Join(cwd, ".skillset", "skills"),
	}
	if dir, err := UserDir(); err == nil {
		roots[skills.NamespaceUser] = filepath.Join(dir, "skills")
		roots[skills.NamespacePlugin] = filepath.Join(dir, "plugins")
	}
	eff.ScanRoots = sortedRoots(roots)
	return eff
}

// loadScope reads one scope file. A missing file yields (nil, nil); a
// present file that does not parse is an ErrInvalid naming the path.
func loadScope(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: invalid YAML in %s: %v", ErrInvalid, path, err)
	}
	if f.Mode != "" && f.Mode != ModeWarn && f.Mode != ModeStrict {
		return nil, fmt.Errorf("%w: unknown mode %q in %s", ErrInvalid, f.Mode, path)
	}
	return &f, nil
}

// apply overlays one scope onto eff. Callers apply scopes in ascending
// precedence, so the last writer wins for scalars.
func apply(eff *Effective, f *File, path string) {
	if f.Rules != nil && f.Rules.Unresolved != "" && f.Mode == "" {
		switch f.Rules.Unresolved {
		case "error":
			eff.Mode = ModeStrict
		case "warn":
			eff.Mode = ModeWarn
		}
	}
	if f.Mode != "" {
		eff.Mode = f.Mode
	}
	if f.Sigil != "" {
		eff.Sigil = f.Sigil
	}
	for k, v := range f.Mappings {
		eff.Mappings[k] = v
	}
	for k, v := range f.NamespaceAliases {
		eff.NamespaceAliases[k] = v
	}
	if len(f.ScanRoots) > 0 {
		merged := map[string]string{}
		for _, r := range eff.ScanRoots {
			merged[r.Namespace] = r.Path
		}
		base := filepath.Dir(filepath.Dir(path))
		for ns, p := range f.ScanRoots {
			merged[ns] = expandRelative(base, p)
		}
		eff.ScanRoots = sortedRoots(merged)
	}
	for _, pat := range f.Excludes {
		if !containsString(eff.Excludes, pat) {
			eff.Excludes = append(eff.Excludes, pat)
		}
	}
	if f.Output != nil {
		if f.Output.MaxLines != nil {
			eff.MaxLines = *f.Output.MaxLines
		}
		if f.Output.IncludeLayout != nil {
			eff.IncludeLayout = *f.Output.IncludeLayout
		}
	}
	if f.Matching != nil {
		if f.Matching.MinScore != nil {
			eff.MinScore = *f.Matching.MinScore
		}
		if f.Matching.AmbiguityMargin != nil {
			eff.AmbiguityMargin = *f.Matching.AmbiguityMargin
		}
		if f.Matching.MaxSuggestions != nil {
			eff.MaxSuggestions = *f.Matching.MaxSuggestions
		}
	}
	if f.Cache != nil && f.Cache.TTLSeconds != nil {
		eff.CacheTTL = time.Duration(*f.Cache.TTLSeconds) * time.Second
	}
}

// expandRelative expands a leading ~ and resolves relative paths
// against the directory holding the scope's .skillset dir.
func expandRelative(base, p string) string {
	if len(p) > 0 && p[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[1:])
		}
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func sortedRoots(m map[string]string) []skills.ScanRoot {
	out := make([]skills.ScanRoot, 0, len(m))
	for ns, p := range m {
		out = append(out, skills.ScanRoot{Namespace: ns, Path: p})
	}
	sort.Slice(out, func(i, j int) bool {
		if a, b := skills.NamespaceRank(out[i].Namespace), skills.NamespaceRank(out[j].Namespace); a != b {
			return a < b
		}
		return out[i].Namespace < out[j].Namespace
	})
	return out
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
