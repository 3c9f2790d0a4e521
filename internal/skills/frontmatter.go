package skills

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// SplitFrontmatter separates a document's leading YAML metadata block
// from its body. Headers come back lowercased with string values only;
// a document without front-matter yields empty headers and the content
// unchanged.
func SplitFrontmatter(content string) (map[string]string, string) {
	s := strings.TrimPrefix(content, "\ufeff")
	if !strings.HasPrefix(s, "---") {
		return map[string]string{}, content
	}

	parts := strings.SplitN(s, "---", 3)
	if len(parts) < 3 {
		return map[string]string{}, content
	}

	fmText := strings.TrimSpace(parts[1])
	body := strings.TrimPrefix(parts[2], "\n")

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(fmText), &raw); err != nil {
		return map[string]string{}, content
	}

	out := make(map[string]string)
	for k, v := range raw {
		if sv, ok := v.(string); ok {
			out[strings.ToLower(k)] = sv
		}
	}
	return out, body
}

// extractMeta derives a skill's display name and description from its
// document. The chain is front-matter, then the first heading (name) or
// first paragraph line (description), then the owning directory's name.
// A document that defeats every strategy still yields a usable skill.
func extractMeta(content, dirName string) (name, description string) {
	h, body := SplitFrontmatter(content)

	name = strings.TrimSpace(h["name"])
	description = strings.TrimSpace(h["description"])

	if name == "" {
		name = firstHeading(body)
	}
	if name == "" {
		name = dirName
	}
	if description == "" {
		description = firstParagraphLine(body)
	}
	return name, description
}

func firstHeading(body string) string {
	for _, ln := range strings.Split(body, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		if strings.HasPrefix(ln, "#") {
			return strings.TrimSpace(strings.TrimLeft(ln, "# "))
		}
		return ""
	}
	return ""
}

func firstParagraphLine(body string) string {
	for _, ln := range strings.Split(body, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		if strings.HasPrefix(ln, "#") {
			continue
		}
		return ln
	}
	return ""
}
