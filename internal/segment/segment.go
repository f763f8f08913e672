// Package segment splits the raw lines of one verse block into root text,
// reference, word-for-word gloss, translation and commentary.
package segment

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jackzampolin/versemill/internal/classify"
	"github.com/jackzampolin/versemill/internal/config"
	"github.com/jackzampolin/versemill/internal/types"
)

// State is the position of the segmenter within a verse block.
type State int

const (
	// InRoot is the initial state: source-language verse lines.
	InRoot State = iota
	// InRefOrGloss follows the first reference or gloss line.
	InRefOrGloss
	// InTranslation is terminal for the block.
	InTranslation
)

func (s State) String() string {
	switch s {
	case InRoot:
		return "IN_ROOT"
	case InRefOrGloss:
		return "IN_REF_OR_W2W"
	case InTranslation:
		return "IN_TRANSLATION"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Buffer names the output field a line was routed to.
type Buffer string

const (
	BufferRoot        Buffer = "root"
	BufferReference   Buffer = "reference"
	BufferWordForWord Buffer = "word_for_word"
	BufferBody        Buffer = "body"
	BufferSkipped     Buffer = "skipped"
)

// Normalizer repairs a raw line.
type Normalizer interface {
	Normalize(raw string) string
}

// Classifier tags a normalized line and splits root-line suffixes.
type Classifier interface {
	Classify(line, raw string) classify.Classification
	SplitRefFromRoot(line string) (root, ref string)
	CleanRootLine(line string) string
}

// Segments is the structured content of one verse block.
type Segments struct {
	Root        string `json:"root" yaml:"root"`
	Reference   string `json:"reference" yaml:"reference"`
	WordForWord string `json:"word_for_word" yaml:"word_for_word"`
	Body        string `json:"body" yaml:"body"`
	Commentary  string `json:"commentary" yaml:"commentary"`
}

// Empty reports whether the block produced neither root text nor a body.
func (s Segments) Empty() bool {
	return s.Root == "" && s.Body == ""
}

// Step records one routing decision, for tracing and characterization tests.
type Step struct {
	Raw    string          `json:"raw" yaml:"raw"`
	Line   string          `json:"line" yaml:"line"`
	Class  types.LineClass `json:"class" yaml:"class"`
	State  State           `json:"state" yaml:"state"`
	Buffer Buffer          `json:"buffer" yaml:"buffer"`
}

// Config configures a Segmenter.
type Config struct {
	Normalizer Normalizer
	Classifier Classifier
	Tables     config.Tables
	Thresholds config.Thresholds
	Patterns   config.Patterns
	Logger     *slog.Logger
}

// Segmenter runs the per-block state machine. It keeps no state between
// calls, so one instance serves every block of a document.
type Segmenter struct {
	norm   Normalizer
	class  Classifier
	logger *slog.Logger

	titleKeywords  []string
	titlePrefixes  []string
	titleMax       int
	titlePrefixMax int
	editorialNote  *regexp.Regexp
}

// New creates a Segmenter.
func New(cfg Config) (*Segmenter, error) {
	if cfg.Normalizer == nil || cfg.Classifier == nil {
		return nil, errors.New("segment: normalizer and classifier are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Segmenter{
		norm:           cfg.Normalizer,
		class:          cfg.Classifier,
		logger:         logger,
		titleKeywords:  cfg.Tables.TitleKeywords,
		titlePrefixes:  cfg.Tables.TitlePrefixes,
		titleMax:       cfg.Thresholds.TitleMaxLength,
		titlePrefixMax: cfg.Thresholds.TitlePrefixMaxLength,
	}
	if cfg.Patterns.EditorialNote != "" {
		re, err := regexp.Compile(cfg.Patterns.EditorialNote)
		if err != nil {
			return nil, fmt.Errorf("editorial note pattern: %w", err)
		}
		if re.NumSubexp() < 1 {
			return nil, errors.New("editorial note pattern must capture the note text")
		}
		s.editorialNote = re
	}
	return s, nil
}

// Segment routes every line of a block and returns the joined fields.
func (s *Segmenter) Segment(lines []types.RawLine) Segments {
	seg, _ := s.run(lines, false)
	return seg
}

// Trace is Segment plus the decision made for each line.
func (s *Segmenter) Trace(lines []types.RawLine) (Segments, []Step) {
	return s.run(lines, true)
}

type buffers struct {
	root, ref, gloss, body []string
}

func (b *buffers) add(buf Buffer, line string) {
	switch buf {
	case BufferRoot:
		b.root = append(b.root, line)
	case BufferReference:
		b.ref = append(b.ref, line)
	case BufferWordForWord:
		b.gloss = append(b.gloss, line)
	case BufferBody:
		b.body = append(b.body, line)
	}
}

func (s *Segmenter) run(lines []types.RawLine, trace bool) (Segments, []Step) {
	var (
		b     buffers
		steps []Step
		state = InRoot
	)

	for _, raw := range lines {
		line := s.norm.Normalize(raw.Text)
		if line == "" {
			continue
		}
		c := s.class.Classify(line, raw.Text)

		var routed Buffer
		state, routed = s.route(state, line, c, &b)

		if trace {
			steps = append(steps, Step{Raw: raw.Text, Line: line, Class: c.Class, State: state, Buffer: routed})
		}
	}

	return s.finish(b), steps
}

// route applies one transition of the block state machine and appends the
// line (or its fragments) to the chosen buffer.
func (s *Segmenter) route(state State, line string, c classify.Classification, b *buffers) (State, Buffer) {
	switch state {
	case InRoot:
		switch c.Class {
		case types.ClassTranslation:
			b.add(BufferBody, line)
			return InTranslation, BufferBody
		case types.ClassReference:
			b.add(BufferReference, line)
			return InRefOrGloss, BufferReference
		case types.ClassWordForWord:
			b.add(BufferWordForWord, line)
			return InRefOrGloss, BufferWordForWord
		default:
			root, ref := s.class.SplitRefFromRoot(s.class.CleanRootLine(line))
			if root != "" {
				b.add(BufferRoot, root)
			}
			if ref != "" {
				b.add(BufferReference, ref)
			}
			if root == "" && ref == "" {
				return InRoot, BufferSkipped
			}
			if root == "" {
				return InRoot, BufferReference
			}
			return InRoot, BufferRoot
		}

	case InRefOrGloss:
		switch c.Class {
		case types.ClassTranslation:
			b.add(BufferBody, line)
			return InTranslation, BufferBody
		case types.ClassWordForWord:
			b.add(BufferWordForWord, line)
			return InRefOrGloss, BufferWordForWord
		case types.ClassReference:
			b.add(BufferReference, line)
			return InRefOrGloss, BufferReference
		}
		// Root text sandwiched between reference and gloss lines.
		if c.Signals.HasDiacritics && !c.Signals.FunctionWords {
			b.add(BufferRoot, s.class.CleanRootLine(line))
			return InRefOrGloss, BufferRoot
		}
		b.add(BufferBody, line)
		return InTranslation, BufferBody

	default:
		// Footnoted root fragment inside the translation.
		if c.Signals.HasDiacritics && !c.Signals.FunctionWords && strings.Contains(line, "(") {
			b.add(BufferRoot, s.class.CleanRootLine(line))
			return InTranslation, BufferRoot
		}
		if c.Signals.Reference {
			b.add(BufferReference, line)
			return InTranslation, BufferReference
		}
		b.add(BufferBody, line)
		return InTranslation, BufferBody
	}
}

// finish pops leaked titles, extracts the editorial note and joins buffers.
func (s *Segmenter) finish(b buffers) Segments {
	body := b.body
	for len(body) > 0 && s.IsTitleLine(body[len(body)-1]) {
		s.logger.Debug("dropping leaked title", "line", body[len(body)-1])
		body = body[:len(body)-1]
	}

	seg := Segments{
		Root:        strings.Join(b.root, "\n"),
		Reference:   strings.Join(b.ref, " "),
		WordForWord: strings.Join(b.gloss, "\n"),
	}

	full := strings.Join(body, "\n")
	if s.editorialNote != nil {
		if m := s.editorialNote.FindStringSubmatch(full); m != nil {
			seg.Commentary = strings.TrimSpace(m[1])
			full = strings.ReplaceAll(full, m[0], "")
		}
	}
	seg.Body = strings.TrimSpace(full)
	return seg
}

// IsTitleLine reports whether line looks like a liturgical title that leaked
// in from a page break: short, not a sentence, with a title keyword.
func (s *Segmenter) IsTitleLine(line string) bool {
	n := utf8.RuneCountInString(line)
	if n > s.titleMax || strings.HasSuffix(line, ".") {
		return false
	}
	for _, k := range s.titleKeywords {
		if strings.Contains(line, k) {
			return true
		}
	}
	if n < s.titlePrefixMax {
		for _, p := range s.titlePrefixes {
			if strings.HasPrefix(line, p) {
				return true
			}
		}
	}
	return false
}
