// Package classify tags normalized lines as root verse, reference,
// word-for-word gloss, or translation.
//
// Each line is scored by independent predicates (Signals). The final tag
// comes from an ordered rule list, so the priority between competing
// signals is explicit and a line never gets more than one tag.
package classify

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jackzampolin/versemill/internal/config"
	"github.com/jackzampolin/versemill/internal/types"
)

// Signals are the predicate results for one line, after suppression:
// Reference suppresses WordForWord, and WordForWord suppresses TranslationStart.
type Signals struct {
	HasDiacritics    bool `json:"has_diacritics" yaml:"has_diacritics"`
	FunctionWords    bool `json:"function_words" yaml:"function_words"`
	Reference        bool `json:"reference" yaml:"reference"`
	WordForWord      bool `json:"word_for_word" yaml:"word_for_word"`
	TranslationStart bool `json:"translation_start" yaml:"translation_start"`
}

// Classification is the tag for a line plus the signals that produced it.
type Classification struct {
	Class   types.LineClass `json:"class" yaml:"class"`
	Signals Signals         `json:"signals" yaml:"signals"`
}

type rule struct {
	class types.LineClass
	match func(Signals) bool
}

// rules are evaluated in order; the first match wins, otherwise ROOT.
var rules = []rule{
	{types.ClassTranslation, func(s Signals) bool { return s.TranslationStart }},
	{types.ClassReference, func(s Signals) bool { return s.Reference }},
	{types.ClassWordForWord, func(s Signals) bool { return s.WordForWord }},
}

// Config configures a Classifier.
type Config struct {
	Tables     config.Tables
	Thresholds config.Thresholds
	Patterns   config.Patterns
	Logger     *slog.Logger
}

// Classifier assigns a LineClass to normalized lines. It holds no per-line
// state and is safe for concurrent use.
type Classifier struct {
	rootLetters   string
	functionWords map[string]bool
	densityWords  map[string]bool
	starters      []string
	quotes        []string
	sources       *regexp.Regexp
	citations     []string
	honorifics    []string
	trailingRefs  []*regexp.Regexp
	footnote      *regexp.Regexp

	referenceMax     int
	honorificMax     int
	densityThreshold float64
	densityMinWords  int
	minRootLength    int

	logger *slog.Logger
}

// New builds a Classifier from the tables, thresholds and patterns in cfg.
func New(cfg Config) (*Classifier, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Classifier{
		rootLetters:      cfg.Tables.RootLetters,
		functionWords:    wordSet(cfg.Tables.FunctionWords),
		densityWords:     wordSet(cfg.Tables.DensityWords),
		starters:         cfg.Tables.SentenceStarters,
		quotes:           cfg.Tables.QuoteOpeners,
		citations:        cfg.Tables.CitationPrefixes,
		honorifics:       cfg.Tables.Honorifics,
		referenceMax:     cfg.Thresholds.ReferenceMaxLength,
		honorificMax:     cfg.Thresholds.HonorificMaxLength,
		densityThreshold: cfg.Thresholds.DensityThreshold,
		densityMinWords:  cfg.Thresholds.DensityMinWords,
		minRootLength:    cfg.Thresholds.MinRootLength,
		logger:           logger,
	}

	if len(cfg.Tables.ReferenceSources) > 0 {
		re, err := regexp.Compile(sourcePattern(cfg.Tables.ReferenceSources))
		if err != nil {
			return nil, fmt.Errorf("reference sources: %w", err)
		}
		c.sources = re
	}

	for i, p := range cfg.Patterns.TrailingReferences {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("trailing reference %d: %w", i, err)
		}
		c.trailingRefs = append(c.trailingRefs, re)
	}

	if cfg.Patterns.FootnoteMarker != "" {
		re, err := regexp.Compile(cfg.Patterns.FootnoteMarker)
		if err != nil {
			return nil, fmt.Errorf("footnote marker: %w", err)
		}
		c.footnote = re
	}

	return c, nil
}

// sourcePattern builds one case-insensitive, word-bounded alternation from
// source abbreviations. A trailing "." (as in "Vol.") ends the match itself.
func sourcePattern(sources []string) string {
	alts := make([]string, 0, len(sources))
	for _, s := range sources {
		alt := `\b` + regexp.QuoteMeta(s)
		if r, _ := utf8.DecodeLastRuneInString(s); isWordRune(r) {
			alt += `\b`
		}
		alts = append(alts, alt)
	}
	return `(?i)(?:` + strings.Join(alts, "|") + `)`
}

func wordSet(list []string) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, w := range list {
		set[strings.ToLower(w)] = true
	}
	return set
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// words splits a line into lowercase word tokens, dropping punctuation.
func words(line string) []string {
	return strings.FieldsFunc(strings.ToLower(line), func(r rune) bool {
		return !isWordRune(r)
	})
}

// Classify tags a normalized line. raw is the original line and is only
// consulted for its indentation.
func (c *Classifier) Classify(line, raw string) Classification {
	sig, fired := c.signals(line, raw)

	class := types.ClassRoot
	for _, r := range rules {
		if r.match(sig) {
			class = r.class
			break
		}
	}

	if fired > 1 {
		c.logger.Debug("ambiguous line",
			"line", line,
			"class", class.String(),
			"reference", sig.Reference,
			"word_for_word", sig.WordForWord,
			"translation_start", sig.TranslationStart)
	}
	return Classification{Class: class, Signals: sig}
}

// signals evaluates every predicate and applies suppression. fired counts
// the structural predicates that matched before suppression.
func (c *Classifier) signals(line, raw string) (Signals, int) {
	var s Signals
	s.HasDiacritics = c.HasDiacritics(line)
	s.FunctionWords = c.ContainsFunctionWords(line)
	s.Reference = c.IsReference(line)
	w2w := c.isWordForWord(line, s.FunctionWords)
	start := c.isTranslationStart(line, raw, s.FunctionWords, s.HasDiacritics)

	fired := 0
	for _, b := range []bool{s.Reference, w2w, start} {
		if b {
			fired++
		}
	}

	s.WordForWord = w2w && !s.Reference
	s.TranslationStart = start && !s.WordForWord
	return s, fired
}

// HasDiacritics reports whether line contains a transliteration letter
// that never occurs in plain English.
func (c *Classifier) HasDiacritics(line string) bool {
	return c.rootLetters != "" && strings.ContainsAny(line, c.rootLetters)
}

// ContainsFunctionWords reports whether any word of line is a target-language
// closed-class word.
func (c *Classifier) ContainsFunctionWords(line string) bool {
	for _, w := range words(line) {
		if c.functionWords[w] {
			return true
		}
	}
	return false
}

// IsReference reports whether line is a citation of a scriptural source:
// a citation prefix, a source abbreviation with a number or slash, or a
// short line naming an author by honorific.
func (c *Classifier) IsReference(line string) bool {
	n := utf8.RuneCountInString(line)
	if n > c.referenceMax {
		return false
	}
	for _, p := range c.citations {
		if strings.Contains(line, p) {
			return true
		}
	}
	if c.sources != nil && c.sources.MatchString(line) && strings.ContainsAny(line, "0123456789/") {
		return true
	}
	if n < c.honorificMax {
		for _, h := range c.honorifics {
			if strings.Contains(line, h) {
				return true
			}
		}
	}
	return false
}

// isWordForWord reports the gloss shape "term — meaning; term — meaning".
func (c *Classifier) isWordForWord(line string, functionWords bool) bool {
	semicolon := strings.Contains(line, ";")
	dash := strings.Contains(line, "—") || (strings.Contains(line, "-") && semicolon)
	return dash && (functionWords || semicolon)
}

func (c *Classifier) isTranslationStart(line, raw string, functionWords, diacritics bool) bool {
	for _, q := range c.quotes {
		if strings.HasPrefix(line, q) {
			return true
		}
	}
	for _, s := range c.starters {
		if strings.HasPrefix(line, s) {
			return true
		}
	}
	if diacritics && !functionWords {
		return false
	}
	if (strings.HasPrefix(raw, "  ") || strings.HasPrefix(raw, "\t")) && functionWords {
		return true
	}

	tokens := words(line)
	if len(tokens) <= c.densityMinWords {
		return false
	}
	hits := 0
	for _, w := range tokens {
		if c.densityWords[w] {
			hits++
		}
	}
	return float64(hits)/float64(len(tokens)) > c.densityThreshold
}
