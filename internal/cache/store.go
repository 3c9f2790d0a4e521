// Package cache persists the skill index between invocations.
//
// The snapshot is a single JSON file replaced atomically on re-index.
// Staleness and corruption are never fatal: both trigger a rebuild.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/outfitter-dev/skillset/internal/skills"
)

// SnapshotVersion is bumped whenever the on-disk format changes. A
// mismatch is treated the same as a corrupt file.
const SnapshotVersion = 1

// DefaultTTL is the freshness window applied when config leaves
// cache.ttl_seconds unset.
const DefaultTTL = 3600 * time.Second

// Snapshot is the persisted index state. Skills are keyed by ref.
type Snapshot struct {
	Version     int                     `json:"version"`
	BuildID     string                  `json:"build_id"`
	GeneratedAt int64                   `json:"generatedAt"`
	TTLSeconds  int                     `json:"ttlSeconds"`
	Skills      map[string]skills.Skill `json:"skills"`
	Collisions  []skills.Collision      `json:"collisions,omitempty"`
	Skipped     []skills.SkippedRoot    `json:"skipped,omitempty"`
}

// Age returns how old the snapshot is relative to now.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(s.GeneratedAt))
}

// Builder produces a fresh index when the store needs one.
type Builder func(ctx context.Context) (*skills.IndexResult, error)

// Store owns the cache file. Construct one per invocation and thread it
// through; there is no package-level state.
type Store struct {
	path    string
	builder Builder
	now     func() time.Time
}

// NewStore returns a store over the snapshot file at path.
func NewStore(path string, builder Builder) *Store {
	return &Store{path: path, builder: builder, now: time.Now}
}

// Load returns the persisted snapshot if it is fresh within maxAge.
// An absent, corrupt, version-mismatched, or expired snapshot triggers
// a rebuild which is saved before being returned.
func (s *Store) Load(ctx context.Context, maxAge time.Duration) (*Snapshot, error) {
	if snap, err := s.read(); err == nil {
		if s.now().Sub(time.UnixMilli(snap.GeneratedAt)) <= maxAge {
			return snap, nil
		}
	}
	return s.Rebuild(ctx, maxAge)
}

// LoadStale returns the last good snapshot regardless of age. Used as
// the deadline fallback so an expired index beats a blocked rebuild.
func (s *Store) LoadStale() (*Snapshot, error) {
	return s.read()
}

// Rebuild runs the builder and atomically installs the fresh snapshot.
func (s *Store) Rebuild(ctx context.Context, ttl time.Duration) (*Snapshot, error) {
	res, err := s.builder(ctx)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		Version:     SnapshotVersion,
		BuildID:     uuid.NewString(),
		GeneratedAt: s.now().UnixMilli(),
		TTLSeconds:  int(ttl / time.Second),
		Skills:      res.Skills,
		Collisions:  res.Collisions,
		Skipped:     res.Skipped,
	}
	if err := s.Save(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Invalidate forces the next Load to rebuild.
func (s *Store) Invalidate() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot remove cache %s: %w", s.path, err)
	}
	return nil
}

// Save writes the snapshot with a temp-file-plus-rename replace, under
// a file lock so concurrent invocations cannot race the rename.
func (s *Store) Save(snap *Snapshot) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create cache dir %s: %w", dir, err)
	}

	l := flock.New(s.path + ".lock")
	if err := l.Lock(); err != nil {
		return fmt.Errorf("cannot lock cache %s: %w", s.path, err)
	}
	defer func() { _ = l.Unlock() }()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal snapshot: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, ".index-*.json")
	if err != nil {
		return fmt.Errorf("cannot create temp cache file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("cannot write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("cannot install cache %s: %w", s.path, err)
	}
	return nil
}

// read loads and validates the snapshot file. Any failure is reported
// as an error and treated by callers the same as an absent file.
func (s *Store) read() (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("corrupt cache %s: %w", s.path, err)
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("cache version mismatch: got %d want %d", snap.Version, SnapshotVersion)
	}
	// The ref is the map key on disk; restore it on each skill.
	for ref, sk := range snap.Skills {
		sk.Ref = ref
		snap.Skills[ref] = sk
	}
	return &snap, nil
}
