// Package token extracts skill invocation tokens from raw prompt text.
//
// An invocation is a sigil (default "$") followed by an optional
// namespace prefix and an alias, e.g. "$ship" or "$project:deploy".
// Text inside fenced code blocks or inline code spans never produces
// tokens.
package token

import "strings"

// Options configures the lexical front-end. The sigil is a string so
// multi-character conventions ("w/") work without forking the scanner.
type Options struct {
	Sigil        string
	NamespaceSep byte
}

// DefaultSigil is the invocation prefix used when Options.Sigil is empty.
const DefaultSigil = "$"

// Token is one parsed invocation found in prompt text.
type Token struct {
	Raw       string
	Namespace string
	Alias     string
	Start     int
	End       int
}

func (o Options) sigil() string {
	if o.Sigil == "" {
		return DefaultSigil
	}
	return o.Sigil
}

func (o Options) sep() byte {
	if o.NamespaceSep == 0 {
		return ':'
	}
	return o.NamespaceSep
}

// Tokenize scans text left to right and returns every invocation token
// in first-occurrence order. It is a pure function of its inputs.
func Tokenize(text string, opts Options) []Token {
	sigil := opts.sigil()
	sep := opts.sep()

	var out []Token
	inFence := false
	inSpan := false
	lineBlank := true // only whitespace seen on the current line so far

	i := 0
	for i < len(text) {
		c := text[i]

		if c == '\n' {
			inSpan = false
			lineBlank = true
			i++
			continue
		}

		if c == '`' {
			if lineBlank && strings.HasPrefix(text[i:], "```") {
				inFence = !inFence
				for i < len(text) && text[i] != '\n' {
					i++
				}
				continue
			}
			if !inFence {
				inSpan = !inSpan
			}
			lineBlank = false
			i++
			continue
		}

		if c == ' ' || c == '\t' || c == '\r' {
			i++
			continue
		}

		if !inFence && !inSpan && strings.HasPrefix(text[i:], sigil) && boundaryBefore(text, i) {
			if tok, next, ok := matchToken(text, i, sigil, sep); ok {
				out = append(out, tok)
				lineBlank = false
				i = next
				continue
			}
		}

		lineBlank = false
		i++
	}
	return out
}

// boundaryBefore reports whether position i starts the text or follows
// whitespace. This keeps sigils embedded in URLs and paths from
// producing tokens.
func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	switch text[i-1] {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

func matchToken(text string, start int, sigil string, sep byte) (Token, int, bool) {
	i := start + len(sigil)
	seg1, end1 := scanIdent(text, i)
	if seg1 == "" {
		return Token{}, 0, false
	}

	namespace := ""
	alias := seg1
	end := end1
	if end1 < len(text) && text[end1] == sep && !strings.ContainsRune(seg1, '/') {
		if seg2, end2 := scanIdent(text, end1+1); seg2 != "" {
			namespace = seg1
			alias = seg2
			end = end2
		}
	}

	// A trailing dash, underscore, or slash before punctuation or end of
	// line is treated as prose, not part of the alias.
	for alias != "" {
		last := alias[len(alias)-1]
		if last != '-' && last != '_' && last != '/' {
			break
		}
		alias = alias[:len(alias)-1]
		end--
	}
	if alias == "" {
		return Token{}, 0, false
	}

	return Token{
		Raw:       text[start:end],
		Namespace: namespace,
		Alias:     alias,
		Start:     start,
		End:       end,
	}, end, true
}

func scanIdent(text string, i int) (string, int) {
	start := i
	for i < len(text) && isIdentByte(text[i]) {
		i++
	}
	return text[start:i], i
}

func isIdentByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '/':
		return true
	}
	return false
}
