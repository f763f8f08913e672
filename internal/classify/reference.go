package classify

import (
	"strings"
	"unicode/utf8"
)

// SplitRefFromRoot separates a citation glued to the end of a root line,
// e.g. "vande gurun (SB 1.2.3)". Suffix patterns are tried in order and
// stripping repeats until none match, so the result is stable under a
// second call. A root left shorter than the minimum length is dropped.
func (c *Classifier) SplitRefFromRoot(line string) (root, ref string) {
	root = line
	var refs []string

	for root != "" {
		start, end, ok := c.matchTrailingRef(root)
		if !ok {
			break
		}
		refs = append([]string{strings.TrimSpace(root[start:end])}, refs...)
		root = strings.TrimSpace(root[:start] + root[end:])
	}

	if len(refs) == 0 {
		return line, ""
	}
	if utf8.RuneCountInString(root) < c.minRootLength {
		root = ""
	}
	return root, strings.Join(refs, " ")
}

// matchTrailingRef returns the span of the first pattern's first group
// (or whole match) in s. Empty matches are ignored.
func (c *Classifier) matchTrailingRef(s string) (start, end int, ok bool) {
	for _, re := range c.trailingRefs {
		loc := re.FindStringSubmatchIndex(s)
		if loc == nil {
			continue
		}
		start, end = loc[0], loc[1]
		if len(loc) >= 4 && loc[2] >= 0 {
			start, end = loc[2], loc[3]
		}
		if end > start {
			return start, end, true
		}
	}
	return 0, 0, false
}

// CleanRootLine removes a trailing footnote marker such as "(12)".
func (c *Classifier) CleanRootLine(line string) string {
	if c.footnote == nil {
		return strings.TrimSpace(line)
	}
	return strings.TrimSpace(c.footnote.ReplaceAllString(line, ""))
}
