// Package resolve maps invocation tokens to indexed skills.
//
// Resolution is a pure function of (token, index snapshot, effective
// config): explicit mappings win outright, then exact name matches,
// then fuzzy matching with deterministic tie-breaking. Ambiguity and
// misses are data, not errors.
package resolve

import "github.com/outfitter-dev/skillset/internal/skills"

// Kind tags a resolution outcome.
type Kind int

const (
	// KindResolved means exactly one skill was determined.
	KindResolved Kind = iota
	// KindAmbiguous means two or more skills tied within the margin.
	KindAmbiguous
	// KindUnmatched means no candidate cleared the minimum threshold.
	KindUnmatched
)

func (k Kind) String() string {
	switch k {
	case KindResolved:
		return "resolved"
	case KindAmbiguous:
		return "ambiguous"
	case KindUnmatched:
		return "unmatched"
	default:
		return "unknown"
	}
}

// Candidate pairs a skill with its similarity score for the queried alias.
type Candidate struct {
	Skill skills.Skill
	Score float64
}

// Result is the tagged outcome of resolving one token.
//   - KindResolved: Skill is set.
//   - KindAmbiguous: Candidates holds every skill within the margin of
//     the top score, in tie-break order.
//   - KindUnmatched: Suggestions holds best-effort hints, possibly empty.
type Result struct {
	Kind        Kind
	Alias       string
	Skill       skills.Skill
	Candidates  []Candidate
	Suggestions []Candidate
}
