package resolve

import (
	"sort"

	"github.com/outfitter-dev/skillset/internal/cache"
	"github.com/outfitter-dev/skillset/internal/config"
	"github.com/outfitter-dev/skillset/internal/skills"
	"github.com/outfitter-dev/skillset/internal/token"
)

// Resolve maps one token to its outcome. It is deterministic: map
// traversals are sorted before any tie-break depends on them.
func Resolve(tok token.Token, snap *cache.Snapshot, cfg *config.Effective) Result {
	// An explicit mapping always wins, even over an exact name match,
	// and is never reported ambiguous. A mapping that points at a ref
	// missing from the index is a miss, not a fall-through: the user
	// pinned the alias, so guessing something else would be worse.
	if ref, ok := lookupMapping(tok, cfg.Mappings); ok {
		if sk, ok := snap.Skills[ref]; ok {
			return Result{Kind: KindResolved, Alias: tok.Alias, Skill: sk}
		}
		return Result{Kind: KindUnmatched, Alias: tok.Alias}
	}

	pool := candidatePool(tok, snap, cfg)
	alias := fold(tok.Alias)

	// Exact match on the display name or the ref's name component.
	var exact []skills.Skill
	for _, sk := range pool {
		if fold(sk.Name) == alias || fold(skills.RefName(sk.Ref)) == alias {
			exact = append(exact, sk)
		}
	}
	if len(exact) == 1 {
		return Result{Kind: KindResolved, Alias: tok.Alias, Skill: exact[0]}
	}
	if len(exact) > 1 {
		cands := make([]Candidate, len(exact))
		for i, sk := range exact {
			cands[i] = Candidate{Skill: sk, Score: 1}
		}
		sortCandidates(cands)
		return Result{Kind: KindAmbiguous, Alias: tok.Alias, Candidates: cands}
	}

	// Fuzzy match over the pool.
	var scored []Candidate
	for _, sk := range pool {
		score := similarity(alias, fold(sk.Name))
		if s := similarity(alias, fold(skills.RefName(sk.Ref))); s > score {
			score = s
		}
		scored = append(scored, Candidate{Skill: sk, Score: score})
	}
	sortCandidates(scored)

	var surviving []Candidate
	for _, c := range scored {
		if c.Score >= cfg.MinScore {
			surviving = append(surviving, c)
		}
	}

	if len(surviving) == 0 {
		n := cfg.MaxSuggestions
		if n > len(scored) {
			n = len(scored)
		}
		return Result{Kind: KindUnmatched, Alias: tok.Alias, Suggestions: scored[:n]}
	}
	if len(surviving) == 1 || surviving[0].Score-surviving[1].Score >= cfg.AmbiguityMargin {
		return Result{Kind: KindResolved, Alias: tok.Alias, Skill: surviving[0].Skill}
	}

	var within []Candidate
	for _, c := range surviving {
		if surviving[0].Score-c.Score < cfg.AmbiguityMargin {
			within = append(within, c)
		}
	}
	return Result{Kind: KindAmbiguous, Alias: tok.Alias, Candidates: within}
}

// lookupMapping checks the namespace-qualified key first, then the bare
// alias.
func lookupMapping(tok token.Token, mappings map[string]string) (string, bool) {
	if tok.Namespace != "" {
		if ref, ok := mappings[tok.Namespace+":"+tok.Alias]; ok {
			return ref, true
		}
	}
	if ref, ok := mappings[tok.Alias]; ok {
		return ref, true
	}
	return "", false
}

// candidatePool returns the skills the token may resolve to, sorted by
// ref. An explicit namespace (possibly translated through
// namespaceAliases) restricts the pool; otherwise every indexed skill
// is eligible.
func candidatePool(tok token.Token, snap *cache.Snapshot, cfg *config.Effective) []skills.Skill {
	ns := tok.Namespace
	if ns != "" {
		if mapped, ok := cfg.NamespaceAliases[ns]; ok {
			ns = mapped
		}
	}

	refs := make([]string, 0, len(snap.Skills))
	for ref := range snap.Skills {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	var pool []skills.Skill
	for _, ref := range refs {
		if ns != "" && skills.RefNamespace(ref) != ns {
			continue
		}
		pool = append(pool, snap.Skills[ref])
	}
	return pool
}

// sortCandidates orders by score descending, then namespace priority
// (project, user, plugin), then alphabetical ref.
func sortCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		ni := skills.NamespaceRank(skills.RefNamespace(cands[i].Skill.Ref))
		nj := skills.NamespaceRank(skills.RefNamespace(cands[j].Skill.Ref))
		if ni != nj {
			return ni < nj
		}
		return cands[i].Skill.Ref < cands[j].Skill.Ref
	})
}
