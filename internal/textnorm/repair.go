package textnorm

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	reLowerUpper   = regexp.MustCompile(`([a-z])(\p{Lu})`)
	reSemicolon    = regexp.MustCompile(`;([a-zA-Z])`)
	reDashes       = regexp.MustCompile(`[—–−]`)
	reDashSpacing  = regexp.MustCompile(`\s*—\s*`)
	reSentenceJoin = regexp.MustCompile(`([a-z])\.([A-Z])`)
	reVolume       = regexp.MustCompile(`(?i)(vol\.)(\d)`)
	reLeadingI     = regexp.MustCompile(`^I([a-z])`)
	reQuotedI      = regexp.MustCompile(`([“"'\s])I([a-z])`)
)

// repairExploded collapses runs of three or more single lowercase letters
// ("k r s n a" -> "krsna"). A run right after a word ending in "I" starts
// one letter later, so "I a m" is left alone.
func repairExploded(s string) string {
	words := strings.Fields(s)
	out := make([]string, 0, len(words))

	for i := 0; i < len(words); {
		lead, trail, ok := splitLetter(words[i])
		if !ok || trail != "" {
			out = append(out, words[i])
			i++
			continue
		}

		j := i + 1
		for j < len(words) {
			l, t, ok := splitLetter(words[j])
			if !ok || l != "" {
				break
			}
			j++
			if t != "" {
				break
			}
		}

		start := i
		if lead == "" && i > 0 && strings.HasSuffix(words[i-1], "I") {
			start = i + 1
		}
		if j-start >= 3 {
			out = append(out, words[i:start]...)
			out = append(out, strings.Join(words[start:j], ""))
		} else {
			out = append(out, words[i:j]...)
		}
		i = j
	}
	return strings.Join(out, " ")
}

// splitLetter reports whether w is one lowercase ASCII letter wrapped only
// in punctuation, returning the punctuation on either side.
func splitLetter(w string) (lead, trail string, ok bool) {
	idx := -1
	for i, r := range w {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if idx >= 0 || r < 'a' || r > 'z' {
				return "", "", false
			}
			idx = i
		}
	}
	if idx < 0 {
		return "", "", false
	}
	return w[:idx], w[idx+1:], true
}

// repairBoundaries splits words glued at a case change, after a semicolon,
// or listed in the glued-bigram table. Whitespace is collapsed.
func (n *Normalizer) repairBoundaries(s string) string {
	s = reLowerUpper.ReplaceAllString(s, "$1 $2")
	s = reSemicolon.ReplaceAllString(s, "; $1")

	words := strings.Fields(s)
	for i, w := range words {
		words[i] = n.splitGlued(w)
	}
	return strings.Join(words, " ")
}

const (
	leadPunct  = `“‘"'(`
	trailPunct = `.,;:!?”’"')`
)

func (n *Normalizer) splitGlued(w string) string {
	core := strings.TrimLeft(w, leadPunct)
	lead := w[:len(w)-len(core)]
	trimmed := strings.TrimRight(core, trailPunct)
	trail := core[len(trimmed):]

	fixed, ok := n.glued[strings.ToLower(trimmed)]
	if !ok {
		return w
	}
	if r, _ := utf8.DecodeRuneInString(trimmed); unicode.IsUpper(r) {
		f, size := utf8.DecodeRuneInString(fixed)
		fixed = string(unicode.ToUpper(f)) + fixed[size:]
	}
	return lead + fixed + trail
}

// isBlob reports whether a line looks like a whole sentence with its spaces
// lost: long, with almost no spaces.
func (n *Normalizer) isBlob(s string) bool {
	spaces := strings.Count(s, " ")
	letters := utf8.RuneCountInString(s) - spaces
	return letters > n.blobMinLength && spaces < n.blobMaxSpaces
}

// repairBlob re-inserts spaces around known target-language words.
func (n *Normalizer) repairBlob(s string) string {
	s = reLeadingI.ReplaceAllString(s, "I $1")
	s = reQuotedI.ReplaceAllString(s, "${1}I $2")
	for _, c := range n.compounds {
		s = strings.ReplaceAll(s, c.From, c.To)
	}
	for _, k := range n.keywords {
		s = spaceAfter(spaceBefore(s, k), k)
	}
	return n.repairBoundaries(s)
}

// spaceBefore inserts a space before each occurrence of k that directly
// follows a lowercase ASCII letter.
func spaceBefore(s, k string) string {
	var b strings.Builder
	i := 0
	for {
		j := strings.Index(s[i:], k)
		if j < 0 {
			break
		}
		j += i
		b.WriteString(s[i:j])
		if j > 0 && isLowerASCII(s[j-1]) {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		i = j + len(k)
	}
	b.WriteString(s[i:])
	return b.String()
}

// spaceAfter inserts a space after each occurrence of k that is directly
// followed by a lowercase ASCII letter.
func spaceAfter(s, k string) string {
	var b strings.Builder
	i := 0
	for {
		j := strings.Index(s[i:], k)
		if j < 0 {
			break
		}
		end := i + j + len(k)
		b.WriteString(s[i:end])
		if end < len(s) && isLowerASCII(s[end]) {
			b.WriteByte(' ')
		}
		i = end
	}
	b.WriteString(s[i:])
	return b.String()
}

func isLowerASCII(c byte) bool {
	return c >= 'a' && c <= 'z'
}

// normalizeDashes unifies dash variants to an em dash with single spaces and
// repairs glued boundaries in the gloss after the first separator.
func (n *Normalizer) normalizeDashes(s string) string {
	s = reDashes.ReplaceAllString(s, "—")
	s = reDashSpacing.ReplaceAllString(s, " — ")
	left, right, ok := strings.Cut(s, "—")
	if !ok {
		return s
	}
	return strings.TrimSpace(left) + " — " + n.repairBoundaries(strings.TrimSpace(right))
}
