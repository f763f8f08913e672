// Package audit looks for segmentation anomalies in stored records: verses
// with no root text, ghosts with neither body nor reference, legacy font
// encoding that escaped the remap, references glued into the root, and
// liturgical titles that leaked onto the end of a body.
package audit

import (
	"strings"
	"unicode/utf8"

	"github.com/jackzampolin/versemill/internal/config"
	"github.com/jackzampolin/versemill/internal/types"
)

// Check names, usable with Only.
const (
	CheckMissingRoot     = "missing_root"
	CheckMissingBody     = "missing_body"
	CheckDirtyEncoding   = "dirty_encoding"
	CheckMergedReference = "merged_reference"
	CheckLeakedTitle     = "leaked_title"
	CheckWordForWord     = "word_for_word_sample"
)

// DefaultMergedMarkers are substrings that betray a reference left in root text.
var DefaultMergedMarkers = []string{"SB ", "CC ", " p.", "Vol."}

// Finding is one flagged record.
type Finding struct {
	CanonicalID string `json:"canonical_id" yaml:"canonical_id"`
	Excerpt     string `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
}

// Check is the result of one audit rule. Findings holds at most the sample
// size; Count is the full number of matches.
type Check struct {
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Count       int       `json:"count" yaml:"count"`
	Findings    []Finding `json:"findings,omitempty" yaml:"findings,omitempty"`
	// Informational checks are samples, not problems.
	Informational bool `json:"informational,omitempty" yaml:"informational,omitempty"`
}

// Stats counts populated fields across all audited records.
type Stats struct {
	Records     int `json:"records" yaml:"records"`
	Root        int `json:"root" yaml:"root"`
	Body        int `json:"body" yaml:"body"`
	Reference   int `json:"reference" yaml:"reference"`
	WordForWord int `json:"word_for_word" yaml:"word_for_word"`
	Commentary  int `json:"commentary" yaml:"commentary"`
}

// Report is the full audit output.
type Report struct {
	Book   string  `json:"book" yaml:"book"`
	Stats  Stats   `json:"stats" yaml:"stats"`
	Checks []Check `json:"checks" yaml:"checks"`
}

// Problems is the number of flagged records across non-informational checks.
func (r Report) Problems() int {
	n := 0
	for _, c := range r.Checks {
		if !c.Informational {
			n += c.Count
		}
	}
	return n
}

type rule struct {
	name          string
	description   string
	informational bool
	match         func(rec types.VerseRecord) (excerpt string, ok bool)
}

// Auditor runs the audit rules over a record set.
type Auditor struct {
	rules  []rule
	sample int
	only   map[string]bool
}

// Option customises an Auditor.
type Option func(*Auditor)

// WithSample caps the findings listed per check.
func WithSample(n int) Option {
	return func(a *Auditor) { a.sample = n }
}

// Only restricts the audit to the named checks.
func Only(names ...string) Option {
	return func(a *Auditor) {
		if len(names) == 0 {
			return
		}
		a.only = map[string]bool{}
		for _, n := range names {
			a.only[n] = true
		}
	}
}

// New builds an Auditor. Dirty characters are the sources of the diacritic
// remap table; title keywords come from the same tables the segmenter uses.
func New(tables config.Tables, opts ...Option) *Auditor {
	dirty := make([]string, 0, len(tables.Diacritics))
	for _, r := range tables.Diacritics {
		dirty = append(dirty, r.From)
	}
	titles := tables.TitleKeywords

	a := &Auditor{sample: 20}
	a.rules = []rule{
		{
			name:        CheckMissingRoot,
			description: "verses without root text",
			match: func(rec types.VerseRecord) (string, bool) {
				return "", utf8.RuneCountInString(strings.TrimSpace(rec.Root)) < 2
			},
		},
		{
			name:        CheckMissingBody,
			description: "verses with neither translation nor reference",
			match: func(rec types.VerseRecord) (string, bool) {
				return "", utf8.RuneCountInString(rec.Body) < 2 && utf8.RuneCountInString(rec.Reference) < 2
			},
		},
		{
			name:        CheckDirtyEncoding,
			description: "root text with unconverted legacy font characters",
			match: func(rec types.VerseRecord) (string, bool) {
				return rec.Root, containsAny(rec.Root, dirty)
			},
		},
		{
			name:        CheckMergedReference,
			description: "root text with a reference glued on",
			match: func(rec types.VerseRecord) (string, bool) {
				return tail(rec.Root, 30), containsAny(rec.Root, DefaultMergedMarkers)
			},
		},
		{
			name:        CheckLeakedTitle,
			description: "bodies ending in a leaked title",
			match: func(rec types.VerseRecord) (string, bool) {
				for _, k := range titles {
					if strings.HasSuffix(rec.Body, k) {
						return tail(rec.Body, 50), true
					}
				}
				return "", false
			},
		},
		{
			name:          CheckWordForWord,
			description:   "word-for-word sample; should read like a glossary",
			informational: true,
			match: func(rec types.VerseRecord) (string, bool) {
				if rec.WordForWord == "" {
					return "", false
				}
				return head(rec.WordForWord, 50) + "...", true
			},
		},
	}

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run audits recs, which should all belong to book.
func (a *Auditor) Run(book string, recs []types.VerseRecord) Report {
	report := Report{Book: book}

	for _, rec := range recs {
		report.Stats.Records++
		if rec.Root != "" {
			report.Stats.Root++
		}
		if rec.Body != "" {
			report.Stats.Body++
		}
		if rec.Reference != "" {
			report.Stats.Reference++
		}
		if rec.WordForWord != "" {
			report.Stats.WordForWord++
		}
		if rec.Commentary != "" {
			report.Stats.Commentary++
		}
	}

	for _, r := range a.rules {
		if a.only != nil && !a.only[r.name] {
			continue
		}
		check := Check{Name: r.name, Description: r.description, Informational: r.informational}
		for _, rec := range recs {
			excerpt, ok := r.match(rec)
			if !ok {
				continue
			}
			check.Count++
			if a.sample <= 0 || len(check.Findings) < a.sample {
				check.Findings = append(check.Findings, Finding{CanonicalID: rec.CanonicalID, Excerpt: excerpt})
			}
		}
		report.Checks = append(report.Checks, check)
	}
	return report
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func head(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
