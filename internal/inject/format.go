// Package inject assembles resolved skill content into the context
// block handed to the agent, and drives the whole resolution pipeline
// behind a single entry point.
package inject

import (
	"fmt"
	"strings"

	"github.com/outfitter-dev/skillset/internal/config"
	"github.com/outfitter-dev/skillset/internal/resolve"
	"github.com/outfitter-dev/skillset/internal/token"
)

// Diagnostic kinds.
const (
	DiagAmbiguous = "ambiguous"
	DiagUnmatched = "unmatched"
	DiagCache     = "cache"
	DiagRead      = "read"
)

// Diagnostic reports one non-fatal problem from a resolution pass.
type Diagnostic struct {
	Kind       string   `json:"kind"`
	Alias      string   `json:"alias,omitempty"`
	Candidates []string `json:"candidates,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// FormatOptions controls content assembly.
type FormatOptions struct {
	Mode          string
	MaxLines      int
	IncludeLayout bool
}

// Format walks tokens in original order and appends each resolved
// skill's document once, on first occurrence of its ref. Ambiguous and
// unmatched outcomes contribute diagnostics instead of content. In
// strict mode any diagnostic suppresses the output entirely: the
// injection is all-or-nothing.
func Format(toks []token.Token, outcomes []resolve.Result, contents map[string]string, opts FormatOptions) (string, []Diagnostic) {
	var blocks []string
	var diags []Diagnostic
	seen := make(map[string]bool)

	for i, tok := range toks {
		res := outcomes[i]
		switch res.Kind {
		case resolve.KindResolved:
			if seen[res.Skill.Ref] {
				continue
			}
			seen[res.Skill.Ref] = true
			body, ok := contents[res.Skill.Ref]
			if !ok {
				diags = append(diags, Diagnostic{
					Kind:    DiagRead,
					Alias:   tok.Alias,
					Message: fmt.Sprintf("cannot read skill document %s", res.Skill.Path),
				})
				continue
			}
			blocks = append(blocks, renderBlock(res, body, opts))
		case resolve.KindAmbiguous:
			diags = append(diags, Diagnostic{
				Kind:       DiagAmbiguous,
				Alias:      tok.Alias,
				Candidates: candidateRefs(res.Candidates),
			})
		case resolve.KindUnmatched:
			diags = append(diags, Diagnostic{
				Kind:       DiagUnmatched,
				Alias:      tok.Alias,
				Candidates: candidateRefs(res.Suggestions),
			})
		}
	}

	if opts.Mode == config.ModeStrict && len(diags) > 0 {
		return "", diags
	}
	return strings.Join(blocks, "\n\n"), diags
}

func renderBlock(res resolve.Result, body string, opts FormatOptions) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<!-- skill: %s -->\n", res.Skill.Ref)
	header := "## " + res.Skill.Name
	if res.Skill.Description != "" {
		header += " — " + res.Skill.Description
	}
	b.WriteString(header + "\n")
	if opts.IncludeLayout {
		fmt.Fprintf(&b, "Source: %s\n", res.Skill.Path)
	}
	b.WriteString("\n")
	b.WriteString(clampLines(strings.TrimSpace(body), opts.MaxLines))
	fmt.Fprintf(&b, "\n<!-- end skill: %s -->", res.Skill.Ref)
	return b.String()
}

// clampLines truncates body to max lines with an explicit marker, so a
// shortened document is never mistaken for a complete one. max <= 0
// means no limit.
func clampLines(body string, max int) string {
	if max <= 0 {
		return body
	}
	lines := strings.Split(body, "\n")
	if len(lines) <= max {
		return body
	}
	kept := lines[:max]
	return strings.Join(kept, "\n") + fmt.Sprintf("\n… (%d lines truncated)", len(lines)-max)
}

func candidateRefs(cands []resolve.Candidate) []string {
	if len(cands) == 0 {
		return nil
	}
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Skill.Ref
	}
	return out
}
