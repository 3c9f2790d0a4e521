package inject

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/outfitter-dev/skillset/internal/cache"
	"github.com/outfitter-dev/skillset/internal/config"
	"github.com/outfitter-dev/skillset/internal/skills"
)

func testCfg(root string) *config.Effective {
	return &config.Effective{
		Mode:             config.ModeWarn,
		Sigil:            "$",
		Mappings:         map[string]string{},
		NamespaceAliases: map[string]string{},
		ScanRoots:        []skills.ScanRoot{{Namespace: skills.NamespaceProject, Path: root}},
		MinScore:         config.DefaultMinScore,
		AmbiguityMargin:  config.DefaultAmbiguityMargin,
		MaxSuggestions:   config.DefaultMaxSuggestions,
		CacheTTL:         time.Hour,
	}
}

func testStore(t *testing.T, cfg *config.Effective) *cache.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.json")
	return cache.NewStore(path, func(_ context.Context) (*skills.IndexResult, error) {
		return skills.BuildIndex(cfg.ScanRoots, cfg.Excludes)
	})
}

func writeSkill(t *testing.T, root, dir, content string) {
	t.Helper()
	full := filepath.Join(root, dir)
	if err := os.MkdirAll(full, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(full, "SKILL.md"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRun_EndToEndResolvesAndInjects(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "ship", "---\nname: ship\ndescription: Release the thing\n---\n\nRun the release checklist.\n")

	cfg := testCfg(root)
	in := New(cfg, testStore(t, cfg))

	result, err := in.Run(context.Background(), "Use $ship to release")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("unexpected exit code %d", result.ExitCode)
	}
	if len(result.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", result.Diagnostics)
	}
	if !strings.Contains(result.Text, "Run the release checklist.") {
		t.Fatalf("injected text missing content:\n%s", result.Text)
	}
	if strings.Contains(result.Text, "description: Release the thing") {
		t.Fatalf("front-matter leaked into injected text:\n%s", result.Text)
	}
	if got := strings.Count(result.Text, "<!-- skill: project:ship -->"); got != 1 {
		t.Fatalf("expected exactly one block, got %d", got)
	}
}

func TestRun_RepeatedRefInjectedOnce(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "ship", "---\nname: ship\n---\nbody\n")

	cfg := testCfg(root)
	in := New(cfg, testStore(t, cfg))

	result, err := in.Run(context.Background(), "$ship then $ship again")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := strings.Count(result.Text, "<!-- skill: project:ship -->"); got != 1 {
		t.Fatalf("expected one block, got %d:\n%s", got, result.Text)
	}
}

func TestRun_StrictModeFailsOnUnmatched(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "ship", "---\nname: ship\n---\nbody\n")

	cfg := testCfg(root)
	cfg.Mode = config.ModeStrict
	in := New(cfg, testStore(t, cfg))

	result, err := in.Run(context.Background(), "$unknown-thing")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ExitCode == 0 {
		t.Fatal("strict mode should report failure")
	}
	if result.Text != "" {
		t.Fatalf("strict failure must not return output, got:\n%s", result.Text)
	}
	if len(result.Diagnostics) != 1 || result.Diagnostics[0].Kind != DiagUnmatched {
		t.Fatalf("unexpected diagnostics: %v", result.Diagnostics)
	}
	if result.Diagnostics[0].Alias != "unknown-thing" {
		t.Fatalf("diagnostic alias = %q", result.Diagnostics[0].Alias)
	}
}

func TestRun_NoTokensIsNoop(t *testing.T) {
	cfg := testCfg(t.TempDir())
	in := New(cfg, testStore(t, cfg))

	result, err := in.Run(context.Background(), "plain prompt with no references")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Text != "" || len(result.Diagnostics) != 0 || result.ExitCode != 0 {
		t.Fatalf("expected empty injection, got %+v", result)
	}
}

func TestRun_DeadlineFallsBackToStaleSnapshot(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "ship", "---\nname: ship\n---\nbody\n")

	cfg := testCfg(root)
	path := filepath.Join(t.TempDir(), "index.json")

	// Seed a last-good snapshot, then make the builder hang so any
	// rebuild can only finish after the deadline.
	seed := cache.NewStore(path, func(_ context.Context) (*skills.IndexResult, error) {
		return skills.BuildIndex(cfg.ScanRoots, nil)
	})
	snap, err := seed.Rebuild(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	stale := *snap
	stale.GeneratedAt = time.Now().Add(-24 * time.Hour).UnixMilli()
	if err := seed.Save(&stale); err != nil {
		t.Fatalf("save stale: %v", err)
	}

	blocked := cache.NewStore(path, func(ctx context.Context) (*skills.IndexResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result, err := New(cfg, blocked).Run(ctx, "Use $ship now")
	if err != nil {
		t.Fatalf("Run should fall back, got %v", err)
	}
	if !strings.Contains(result.Text, "<!-- skill: project:ship -->") {
		t.Fatalf("stale snapshot not used:\n%s", result.Text)
	}
	found := false
	for _, d := range result.Diagnostics {
		if d.Kind == DiagCache {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a cache diagnostic, got %v", result.Diagnostics)
	}
	if result.ExitCode != 0 {
		t.Fatalf("stale fallback is advisory, exit code = %d", result.ExitCode)
	}
}

func TestRun_MappingOverridesName(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "deploy", "---\nname: deploy\n---\nreal deploy\n")
	writeSkill(t, root, "pinned", "---\nname: pinned\n---\npinned body\n")

	cfg := testCfg(root)
	cfg.Mappings["deploy"] = "project:pinned"
	in := New(cfg, testStore(t, cfg))

	result, err := in.Run(context.Background(), "$deploy")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(result.Text, "pinned body") || strings.Contains(result.Text, "real deploy") {
		t.Fatalf("mapping not honored:\n%s", result.Text)
	}
}
