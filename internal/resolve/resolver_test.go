package resolve

import (
	"reflect"
	"testing"

	"github.com/outfitter-dev/skillset/internal/cache"
	"github.com/outfitter-dev/skillset/internal/config"
	"github.com/outfitter-dev/skillset/internal/skills"
	"github.com/outfitter-dev/skillset/internal/token"
)

func testCfg() *config.Effective {
	return &config.Effective{
		Mode:             config.ModeWarn,
		Sigil:            "$",
		Mappings:         map[string]string{},
		NamespaceAliases: map[string]string{},
		MinScore:         config.DefaultMinScore,
		AmbiguityMargin:  config.DefaultAmbiguityMargin,
		MaxSuggestions:   config.DefaultMaxSuggestions,
	}
}

func testSnap(sks ...skills.Skill) *cache.Snapshot {
	m := make(map[string]skills.Skill, len(sks))
	for _, sk := range sks {
		m[sk.Ref] = sk
	}
	return &cache.Snapshot{Version: cache.SnapshotVersion, Skills: m}
}

func tok(namespace, alias string) token.Token {
	return token.Token{Namespace: namespace, Alias: alias}
}

func TestResolve_ExactNameMatch(t *testing.T) {
	snap := testSnap(
		skills.Skill{Ref: "project:ship", Name: "ship", Path: "/p/ship/SKILL.md"},
		skills.Skill{Ref: "project:review", Name: "review", Path: "/p/review/SKILL.md"},
	)
	res := Resolve(tok("", "ship"), snap, testCfg())
	if res.Kind != KindResolved {
		t.Fatalf("expected resolved, got %v", res.Kind)
	}
	if res.Skill.Ref != "project:ship" {
		t.Fatalf("unexpected skill: %q", res.Skill.Ref)
	}
}

func TestResolve_ExactMatchIsCaseInsensitive(t *testing.T) {
	snap := testSnap(skills.Skill{Ref: "project:ship", Name: "Ship"})
	res := Resolve(tok("", "SHIP"), snap, testCfg())
	if res.Kind != KindResolved || res.Skill.Ref != "project:ship" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestResolve_MappingBeatsExactMatch(t *testing.T) {
	snap := testSnap(
		skills.Skill{Ref: "project:deploy", Name: "deploy"},
		skills.Skill{Ref: "user:pinned", Name: "pinned"},
	)
	cfg := testCfg()
	cfg.Mappings["deploy"] = "user:pinned"

	res := Resolve(tok("", "deploy"), snap, cfg)
	if res.Kind != KindResolved {
		t.Fatalf("expected resolved, got %v", res.Kind)
	}
	if res.Skill.Ref != "user:pinned" {
		t.Fatalf("mapping should win over exact match, got %q", res.Skill.Ref)
	}
}

func TestResolve_MappingToMissingRefIsUnmatched(t *testing.T) {
	snap := testSnap(skills.Skill{Ref: "project:deploy", Name: "deploy"})
	cfg := testCfg()
	cfg.Mappings["deploy"] = "user:gone"

	res := Resolve(tok("", "deploy"), snap, cfg)
	if res.Kind != KindUnmatched {
		t.Fatalf("pinned-but-missing mapping should be unmatched, got %v", res.Kind)
	}
	if len(res.Suggestions) != 0 {
		t.Fatalf("mapping misses carry no suggestions, got %v", res.Suggestions)
	}
}

func TestResolve_QualifiedMappingWins(t *testing.T) {
	snap := testSnap(
		skills.Skill{Ref: "user:a", Name: "a"},
		skills.Skill{Ref: "project:b", Name: "b"},
	)
	cfg := testCfg()
	cfg.Mappings["x"] = "user:a"
	cfg.Mappings["project:x"] = "project:b"

	if res := Resolve(tok("project", "x"), snap, cfg); res.Skill.Ref != "project:b" {
		t.Fatalf("qualified mapping should win, got %+v", res)
	}
	if res := Resolve(tok("", "x"), snap, cfg); res.Skill.Ref != "user:a" {
		t.Fatalf("bare mapping should apply, got %+v", res)
	}
}

func TestResolve_NamespaceRestrictsPool(t *testing.T) {
	snap := testSnap(
		skills.Skill{Ref: "project:ship", Name: "ship"},
		skills.Skill{Ref: "user:ship", Name: "ship"},
	)
	res := Resolve(tok("user", "ship"), snap, testCfg())
	if res.Kind != KindResolved || res.Skill.Ref != "user:ship" {
		t.Fatalf("namespace constraint ignored: %+v", res)
	}
}

func TestResolve_NamespaceAliasTranslated(t *testing.T) {
	snap := testSnap(
		skills.Skill{Ref: "project:ship", Name: "ship"},
		skills.Skill{Ref: "user:ship", Name: "ship"},
	)
	cfg := testCfg()
	cfg.NamespaceAliases["u"] = "user"

	res := Resolve(tok("u", "ship"), snap, cfg)
	if res.Kind != KindResolved || res.Skill.Ref != "user:ship" {
		t.Fatalf("namespace alias not translated: %+v", res)
	}
}

func TestResolve_FuzzyMatch(t *testing.T) {
	snap := testSnap(
		skills.Skill{Ref: "project:ship", Name: "ship"},
		skills.Skill{Ref: "project:review", Name: "review"},
	)
	res := Resolve(tok("", "shipp"), snap, testCfg())
	if res.Kind != KindResolved {
		t.Fatalf("expected fuzzy resolution, got %+v", res)
	}
	if res.Skill.Ref != "project:ship" {
		t.Fatalf("unexpected skill: %q", res.Skill.Ref)
	}
}

func TestResolve_AmbiguousWithinMargin(t *testing.T) {
	snap := testSnap(
		skills.Skill{Ref: "project:deploy-prod", Name: "deploy-prod"},
		skills.Skill{Ref: "project:deploy-staging", Name: "deploy-staging"},
	)
	cfg := testCfg()
	cfg.MinScore = 0.4 // both candidates clear the bar

	res := Resolve(tok("", "deploy"), snap, cfg)
	if res.Kind != KindAmbiguous {
		t.Fatalf("expected ambiguous, got %+v", res)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("expected both candidates, got %v", res.Candidates)
	}
	// deploy-prod scores higher (shorter edit distance), so it leads.
	if res.Candidates[0].Skill.Ref != "project:deploy-prod" {
		t.Fatalf("unexpected candidate order: %v", res.Candidates)
	}
	if res.Candidates[0].Score < res.Candidates[1].Score {
		t.Fatalf("candidates not sorted by score")
	}
}

func TestResolve_ExactTieIsAmbiguousAlphabetical(t *testing.T) {
	snap := testSnap(
		skills.Skill{Ref: "project:fmt-b", Name: "fmt"},
		skills.Skill{Ref: "project:fmt-a", Name: "fmt"},
	)
	res := Resolve(tok("", "fmt"), snap, testCfg())
	if res.Kind != KindAmbiguous {
		t.Fatalf("expected ambiguous, got %+v", res)
	}
	if res.Candidates[0].Skill.Ref != "project:fmt-a" || res.Candidates[1].Skill.Ref != "project:fmt-b" {
		t.Fatalf("tied candidates not in alphabetical order: %v", res.Candidates)
	}
}

func TestResolve_NamespacePriorityBreaksTies(t *testing.T) {
	snap := testSnap(
		skills.Skill{Ref: "user:fmt", Name: "fmt"},
		skills.Skill{Ref: "project:fmt", Name: "fmt"},
		skills.Skill{Ref: "plugin:tools/fmt", Name: "fmt"},
	)
	res := Resolve(tok("", "fmt"), snap, testCfg())
	if res.Kind != KindAmbiguous {
		t.Fatalf("expected ambiguous, got %+v", res)
	}
	got := []string{}
	for _, c := range res.Candidates {
		got = append(got, c.Skill.Ref)
	}
	want := []string{"project:fmt", "user:fmt", "plugin:tools/fmt"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestResolve_UnmatchedWithSuggestions(t *testing.T) {
	snap := testSnap(
		skills.Skill{Ref: "project:ship", Name: "ship"},
		skills.Skill{Ref: "project:review", Name: "review"},
		skills.Skill{Ref: "user:deploy", Name: "deploy"},
		skills.Skill{Ref: "user:test", Name: "test"},
	)
	res := Resolve(tok("", "zzzz-unrelated"), snap, testCfg())
	if res.Kind != KindUnmatched {
		t.Fatalf("expected unmatched, got %+v", res)
	}
	if len(res.Suggestions) > config.DefaultMaxSuggestions {
		t.Fatalf("too many suggestions: %v", res.Suggestions)
	}
	for i := 1; i < len(res.Suggestions); i++ {
		if res.Suggestions[i-1].Score < res.Suggestions[i].Score {
			t.Fatalf("suggestions not sorted by score: %v", res.Suggestions)
		}
	}
}

func TestResolve_Deterministic(t *testing.T) {
	snap := testSnap(
		skills.Skill{Ref: "project:deploy-prod", Name: "deploy-prod"},
		skills.Skill{Ref: "project:deploy-staging", Name: "deploy-staging"},
		skills.Skill{Ref: "user:deploy-canary", Name: "deploy-canary"},
	)
	cfg := testCfg()
	cfg.MinScore = 0.3

	first := Resolve(tok("", "deploy"), snap, cfg)
	for i := 0; i < 10; i++ {
		if got := Resolve(tok("", "deploy"), snap, cfg); !reflect.DeepEqual(got, first) {
			t.Fatalf("resolution not deterministic:\n%+v\n%+v", first, got)
		}
	}
}

func TestSimilarity(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"ship", "ship", 1},
		{"", "", 1},
		{"abc", "xyz", 0},
	}
	for _, c := range cases {
		if got := similarity(c.a, c.b); got != c.want {
			t.Fatalf("similarity(%q, %q) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
	if got := similarity("deploy", "deploy-prod"); got <= 0.5 || got >= 0.6 {
		t.Fatalf("similarity(deploy, deploy-prod) = %v, want ~0.545", got)
	}
}
