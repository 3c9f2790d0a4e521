// Package skills implements discovery of SKILL.md documents under the
// configured scan roots and the namespaced reference scheme used to
// address them.
//
// A skill lives in its own directory and is identified by a ref of one
// of three shapes:
//
//	project:<name>
//	user:<name>
//	plugin:<pluginName>/<name>
package skills

import "strings"

// Namespace kinds, in resolution priority order.
const (
	NamespaceProject = "project"
	NamespaceUser    = "user"
	NamespacePlugin  = "plugin"
)

// Skill is one discovered skill document. Instances are immutable after
// a scan pass; a re-index replaces the whole set.
type Skill struct {
	Ref         string `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Path        string `json:"path"`
}

// Collision records a skill document that lost a ref conflict during a
// scan pass. The winner is always the lexicographically smallest path.
type Collision struct {
	Ref    string `json:"ref"`
	Winner string `json:"winner"`
	Loser  string `json:"loser"`
}

// ScanRoot is one configured skill source directory.
type ScanRoot struct {
	Namespace string
	Path      string
}

// MakeRef builds a skill ref. plugin is only used for the plugin namespace.
func MakeRef(namespace, plugin, name string) string {
	if namespace == NamespacePlugin {
		return NamespacePlugin + ":" + plugin + "/" + name
	}
	return namespace + ":" + name
}

// RefNamespace returns the namespace part of a ref, or "" if the ref is
// not namespaced.
func RefNamespace(ref string) string {
	ns, _, ok := strings.Cut(ref, ":")
	if !ok {
		return ""
	}
	return ns
}

// RefName returns the bare name component of a ref: the part after the
// namespace, and for plugin refs after the plugin segment as well.
func RefName(ref string) string {
	_, rest, ok := strings.Cut(ref, ":")
	if !ok {
		return ref
	}
	if i := strings.LastIndexByte(rest, '/'); i >= 0 {
		return rest[i+1:]
	}
	return rest
}

// NamespaceRank orders namespaces for tie-breaking: project before user
// before plugin; anything unknown sorts last.
func NamespaceRank(ns string) int {
	switch ns {
	case NamespaceProject:
		return 0
	case NamespaceUser:
		return 1
	case NamespacePlugin:
		return 2
	default:
		return 3
	}
}
