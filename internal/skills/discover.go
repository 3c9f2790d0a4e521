package skills

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNoScanRoots is returned when not a single configured scan root
// could be read. Missing individual roots are skipped, not fatal.
var ErrNoScanRoots = errors.New("no scan root reachable")

// maxWalkDepth bounds directory recursion so a pathological tree (or a
// symlink cycle the real-path set misses) cannot hang a scan.
const maxWalkDepth = 32

// SkippedRoot records a configured root that could not be scanned.
type SkippedRoot struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// IndexResult is the outcome of one full scan pass over all roots.
type IndexResult struct {
	Skills     map[string]Skill
	Collisions []Collision
	Skipped    []SkippedRoot
}

type candidate struct {
	ref  string
	path string
}

// BuildIndex walks every scan root and collects all files named exactly
// SKILL.md into a fresh skill set. The result replaces any previous
// index wholesale. Excludes are doublestar globs matched against the
// document path relative to its root.
func BuildIndex(roots []ScanRoot, excludes []string) (*IndexResult, error) {
	var candidates []candidate
	var skipped []SkippedRoot
	usable := 0

	for _, root := range roots {
		found, err := walkRoot(root, excludes)
		if err != nil {
			skipped = append(skipped, SkippedRoot{Path: root.Path, Reason: err.Error()})
			continue
		}
		usable++
		candidates = append(candidates, found...)
	}

	if usable == 0 {
		return nil, fmt.Errorf("%w: checked %d root(s)", ErrNoScanRoots, len(roots))
	}

	// Sort by (ref, path) so collision resolution is a pure function of
	// the candidate set: the lexicographically smallest path wins.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].ref != candidates[j].ref {
			return candidates[i].ref < candidates[j].ref
		}
		return candidates[i].path < candidates[j].path
	})

	out := &IndexResult{Skills: make(map[string]Skill, len(candidates)), Skipped: skipped}
	for _, c := range candidates {
		if winner, ok := out.Skills[c.ref]; ok {
			out.Collisions = append(out.Collisions, Collision{
				Ref:    c.ref,
				Winner: winner.Path,
				Loser:  c.path,
			})
			continue
		}
		out.Skills[c.ref] = loadSkill(c.ref, c.path)
	}
	return out, nil
}

// walkRoot finds every SKILL.md under root using an explicit stack with
// a depth guard and a visited-real-path set against symlink cycles.
func walkRoot(root ScanRoot, excludes []string) ([]candidate, error) {
	info, err := os.Stat(root.Path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", root.Path)
	}

	type frame struct {
		dir   string
		depth int
	}
	stack := []frame{{dir: root.Path}}
	visited := make(map[string]bool)
	var out []candidate

	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if fr.depth > maxWalkDepth {
			continue
		}

		real, err := filepath.EvalSymlinks(fr.dir)
		if err != nil {
			continue
		}
		if visited[real] {
			continue
		}
		visited[real] = true

		entries, err := os.ReadDir(fr.dir)
		if err != nil {
			if fr.depth == 0 {
				return nil, err
			}
			continue
		}
		for _, e := range entries {
			full := filepath.Join(fr.dir, e.Name())
			if e.IsDir() || isSymlinkDir(full, e) {
				stack = append(stack, frame{dir: full, depth: fr.depth + 1})
				continue
			}
			if e.Name() != "SKILL.md" {
				continue
			}
			if excluded(root.Path, full, excludes) {
				continue
			}
			ref, ok := refForPath(root, full)
			if !ok {
				continue
			}
			out = append(out, candidate{ref: ref, path: full})
		}
	}
	return out, nil
}

func isSymlinkDir(full string, e os.DirEntry) bool {
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && info.IsDir()
}

func excluded(rootPath, full string, excludes []string) bool {
	rel, err := filepath.Rel(rootPath, full)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pat := range excludes {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// refForPath derives the skill ref for a SKILL.md path. Project and
// user skills are named after the document's directory. Plugin skills
// are additionally qualified by the top-level directory under the root,
// which is the plugin's name.
func refForPath(root ScanRoot, docPath string) (string, bool) {
	dir := filepath.Dir(docPath)
	name := filepath.Base(dir)

	if root.Namespace != NamespacePlugin {
		return MakeRef(root.Namespace, "", name), true
	}

	rel, err := filepath.Rel(root.Path, dir)
	if err != nil || rel == "." {
		// A SKILL.md directly in the plugin root has no owning plugin.
		return "", false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	return MakeRef(NamespacePlugin, parts[0], name), true
}

// loadSkill reads and parses one document. Unreadable or malformed
// documents degrade to directory-name metadata rather than failing the
// scan.
func loadSkill(ref, path string) Skill {
	dirName := filepath.Base(filepath.Dir(path))
	b, err := os.ReadFile(path)
	if err != nil {
		return Skill{Ref: ref, Name: dirName, Path: path}
	}
	name, desc := extractMeta(string(b), dirName)
	return Skill{Ref: ref, Name: name, Description: desc, Path: path}
}
