package inject

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/outfitter-dev/skillset/internal/cache"
	"github.com/outfitter-dev/skillset/internal/config"
	"github.com/outfitter-dev/skillset/internal/resolve"
	"github.com/outfitter-dev/skillset/internal/skills"
	"github.com/outfitter-dev/skillset/internal/token"
)

// Injection is the outcome of one injectPrompt call. ExitCode is zero
// unless strict mode turned diagnostics into a failure.
type Injection struct {
	Text        string       `json:"text"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
	ExitCode    int          `json:"exitCode"`
}

// Injector wires the pipeline together. Construct one per invocation
// and thread it through; there are no ambient singletons.
type Injector struct {
	cfg   *config.Effective
	store *cache.Store
}

// New returns an injector over the given configuration and cache store.
func New(cfg *config.Effective, store *cache.Store) *Injector {
	return &Injector{cfg: cfg, store: store}
}

// Run resolves every invocation token in rawText and assembles the
// injected context. The context bounds the whole pass; if a cache
// rebuild overruns the deadline, the last good snapshot is used and a
// diagnostic recorded instead of blocking the agent turn.
func (in *Injector) Run(ctx context.Context, rawText string) (*Injection, error) {
	toks := token.Tokenize(rawText, token.Options{Sigil: in.cfg.Sigil})
	if len(toks) == 0 {
		return &Injection{}, nil
	}

	snap, cacheDiag, err := in.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	outcomes := make([]resolve.Result, len(toks))
	for i, tok := range toks {
		outcomes[i] = resolve.Resolve(tok, snap, in.cfg)
	}

	contents := make(map[string]string)
	for _, res := range outcomes {
		if res.Kind != resolve.KindResolved {
			continue
		}
		if _, ok := contents[res.Skill.Ref]; ok {
			continue
		}
		b, err := os.ReadFile(res.Skill.Path)
		if err != nil {
			continue // Format reports the missing ref
		}
		_, body := skills.SplitFrontmatter(string(b))
		contents[res.Skill.Ref] = body
	}

	text, diags := Format(toks, outcomes, contents, FormatOptions{
		Mode:          in.cfg.Mode,
		MaxLines:      in.cfg.MaxLines,
		IncludeLayout: in.cfg.IncludeLayout,
	})
	if cacheDiag != nil {
		diags = append(diags, *cacheDiag)
	}

	out := &Injection{Text: text, Diagnostics: diags}
	if in.cfg.Mode == config.ModeStrict && hasBlocking(diags) {
		out.Text = ""
		out.ExitCode = 1
	}
	return out, nil
}

// loadSnapshot loads the index, rebuilding when stale. The rebuild runs
// under the caller's deadline; on overrun the last good snapshot wins
// over blocking.
func (in *Injector) loadSnapshot(ctx context.Context) (*cache.Snapshot, *Diagnostic, error) {
	type loaded struct {
		snap *cache.Snapshot
		err  error
	}
	ch := make(chan loaded, 1)
	go func() {
		snap, err := in.store.Load(ctx, in.cfg.CacheTTL)
		ch <- loaded{snap, err}
	}()

	select {
	case l := <-ch:
		return l.snap, nil, l.err
	case <-ctx.Done():
		snap, err := in.store.LoadStale()
		if err != nil {
			return nil, nil, fmt.Errorf("index rebuild exceeded deadline and no cached snapshot exists: %w", ctx.Err())
		}
		age := snap.Age(time.Now()).Round(time.Second)
		return snap, &Diagnostic{
			Kind:    DiagCache,
			Message: fmt.Sprintf("index rebuild exceeded deadline; using snapshot from %s ago", age),
		}, nil
	}
}

// hasBlocking reports whether any diagnostic should fail a strict-mode
// pass. The cache-staleness note is advisory in either mode.
func hasBlocking(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Kind != DiagCache {
			return true
		}
	}
	return false
}
