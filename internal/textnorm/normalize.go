// Package textnorm repairs OCR artifacts in a single extracted line.
//
// Normalization is a fixed sequence of repairs: exploded words, glued word
// boundaries, space-less blobs, dash separators, legacy diacritics and
// whitespace. The sequence is repeated until the text stops changing, so
// Normalize is idempotent.
package textnorm

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/jackzampolin/versemill/internal/config"
)

// maxRounds bounds the repeat-until-stable loop. Real lines settle in two.
const maxRounds = 5

// Normalizer applies the repair pipeline using injected tables.
// It is safe for concurrent use.
type Normalizer struct {
	remap     *strings.Replacer
	glued     map[string]string
	compounds []config.Replacement
	keywords  []string
	noise     []string

	noiseMinLength int
	blobMinLength  int
	blobMaxSpaces  int

	cache *lru.Cache[string, string]
}

// New builds a Normalizer from the lexical tables and thresholds.
// A cache size of zero disables memoisation.
func New(tables config.Tables, th config.Thresholds) (*Normalizer, error) {
	if err := config.CheckDiacritics(tables.Diacritics); err != nil {
		return nil, err
	}

	pairs := make([]string, 0, len(tables.Diacritics)*2)
	for _, r := range tables.Diacritics {
		pairs = append(pairs, r.From, r.To)
	}

	glued := make(map[string]string, len(tables.GluedBigrams))
	for _, r := range tables.GluedBigrams {
		glued[strings.ToLower(r.From)] = r.To
	}

	// Longest first so a short keyword never splits a longer one ("her" in "master").
	keywords := make([]string, 0, len(tables.BlobKeywords))
	for _, k := range tables.BlobKeywords {
		if k != "" {
			keywords = append(keywords, k)
		}
	}
	sort.SliceStable(keywords, func(i, j int) bool {
		return len(keywords[i]) > len(keywords[j])
	})

	noise := make([]string, len(tables.NoiseKeywords))
	for i, k := range tables.NoiseKeywords {
		noise[i] = strings.ToLower(k)
	}

	n := &Normalizer{
		remap:          strings.NewReplacer(pairs...),
		glued:          glued,
		compounds:      tables.BlobCompounds,
		keywords:       keywords,
		noise:          noise,
		noiseMinLength: th.NoiseMinLength,
		blobMinLength:  th.BlobMinLength,
		blobMaxSpaces:  th.BlobMaxSpaces,
	}

	if th.CacheSize > 0 {
		cache, err := lru.New[string, string](th.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create normalizer cache: %w", err)
		}
		n.cache = cache
	}
	return n, nil
}

// Normalize returns the repaired form of raw. It never fails; empty or
// whitespace-only input yields "".
func (n *Normalizer) Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	if n.cache != nil {
		if v, ok := n.cache.Get(raw); ok {
			return v
		}
	}

	text := norm.NFC.String(raw)
	for range maxRounds {
		next := n.round(text)
		if next == text {
			break
		}
		text = next
	}

	if n.cache != nil {
		n.cache.Add(raw, text)
	}
	return text
}

// round runs every repair stage once, in order.
func (n *Normalizer) round(text string) string {
	text = repairExploded(text)
	text = n.repairBoundaries(text)
	if n.isBlob(text) {
		text = n.repairBlob(text)
	}
	text = n.normalizeDashes(text)
	text = n.remap.Replace(text)
	text = reSentenceJoin.ReplaceAllString(text, "$1. $2")
	text = reVolume.ReplaceAllString(text, "$1 $2")
	return collapse(text)
}

// IsNoise reports whether a stripped line is page furniture (running
// headers, folios, index entries) rather than content.
func (n *Normalizer) IsNoise(line string) bool {
	lower := strings.ToLower(strings.TrimSpace(line))
	if utf8.RuneCountInString(lower) < n.noiseMinLength {
		return true
	}
	for _, k := range n.noise {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
