// Package types provides shared types used across multiple packages.
// This package has no dependencies on other versemill packages to avoid import cycles.
package types

import (
	"strconv"
	"strings"
)

// RawLine is one physical line of extracted text, unmodified.
// Leading indentation is kept because it is a classification signal.
type RawLine struct {
	Text string `json:"text" yaml:"text"`
	Page int    `json:"page" yaml:"page"`
}

// Page is the ordered line stream of a single page, left column then right column.
type Page struct {
	Number int       `json:"number" yaml:"number"`
	Lines  []RawLine `json:"lines" yaml:"lines"`
}

// LineClass is the structural tag assigned to a normalized line.
type LineClass int

const (
	// ClassRoot is source-language verse text.
	ClassRoot LineClass = iota
	// ClassReference is a citation to a scriptural source.
	ClassReference
	// ClassWordForWord is a gloss line pairing source terms with meanings.
	ClassWordForWord
	// ClassTranslation is target-language prose.
	ClassTranslation
)

func (c LineClass) String() string {
	switch c {
	case ClassRoot:
		return "ROOT"
	case ClassReference:
		return "REFERENCE"
	case ClassWordForWord:
		return "WORD_FOR_WORD"
	case ClassTranslation:
		return "TRANSLATION"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the class by name in JSON and YAML output.
func (c LineClass) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// VerseRecord is the structured output for one verse block.
// Empty string fields are stored as absent.
type VerseRecord struct {
	CanonicalID string `json:"canonical_id" yaml:"canonical_id"`
	Book        string `json:"book" yaml:"book"`
	VerseRef    string `json:"verse_ref" yaml:"verse_ref"`
	Nums        [3]int `json:"nums" yaml:"nums"`
	Root        string `json:"root,omitempty" yaml:"root,omitempty"`
	Reference   string `json:"reference,omitempty" yaml:"reference,omitempty"`
	WordForWord string `json:"word_for_word,omitempty" yaml:"word_for_word,omitempty"`
	Body        string `json:"body,omitempty" yaml:"body,omitempty"`
	Commentary  string `json:"commentary,omitempty" yaml:"commentary,omitempty"`
	Topic       string `json:"topic,omitempty" yaml:"topic,omitempty"`
	Page        int    `json:"page,omitempty" yaml:"page,omitempty"`
	RunID       string `json:"run_id,omitempty" yaml:"run_id,omitempty"`
}

// Empty reports whether the record has neither root text nor a translation body.
// Such records are never emitted.
func (r VerseRecord) Empty() bool {
	return r.Root == "" && r.Body == ""
}

// CanonicalID builds the stable record key for a verse in a book, e.g. "SLK_1.1".
func CanonicalID(acronym, ref string) string {
	return acronym + "_" + ref
}

// ParseVerseNums splits a dotted verse reference into up to three numeric
// components. Missing or non-numeric components are zero.
func ParseVerseNums(ref string) [3]int {
	var nums [3]int
	for i, part := range strings.SplitN(ref, ".", 3) {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		nums[i] = n
	}
	return nums
}
