package segment

import (
	"strings"
	"testing"

	"github.com/jackzampolin/versemill/internal/classify"
	"github.com/jackzampolin/versemill/internal/config"
	"github.com/jackzampolin/versemill/internal/textnorm"
	"github.com/jackzampolin/versemill/internal/types"
)

func newTestSegmenter(t *testing.T) *Segmenter {
	t.Helper()
	cfg := config.DefaultConfig()

	norm, err := textnorm.New(cfg.Tables, cfg.Thresholds)
	if err != nil {
		t.Fatalf("textnorm.New: %v", err)
	}
	cls, err := classify.New(classify.Config{Tables: cfg.Tables, Thresholds: cfg.Thresholds, Patterns: cfg.Patterns})
	if err != nil {
		t.Fatalf("classify.New: %v", err)
	}
	seg, err := New(Config{
		Normalizer: norm,
		Classifier: cls,
		Tables:     cfg.Tables,
		Thresholds: cfg.Thresholds,
		Patterns:   cfg.Patterns,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return seg
}

func rawLines(texts ...string) []types.RawLine {
	lines := make([]types.RawLine, len(texts))
	for i, text := range texts {
		lines[i] = types.RawLine{Text: text, Page: 10}
	}
	return lines
}

func TestSegment(t *testing.T) {
	s := newTestSegmenter(t)

	tests := []struct {
		name  string
		lines []string
		want  Segments
	}{
		{
			name: "root gloss reference translation",
			lines: []string{
				"anyābhilāṣitā-śūnyaṁ",
				"jñāna — knowledge; karma — action — both aimed at impersonal goals",
				"(BRS 1.1.11)",
				"I offer my respectful obeisances unto the lotus feet.",
			},
			want: Segments{
				Root:        "anyābhilāṣitā-śūnyaṁ",
				Reference:   "(BRS 1.1.11)",
				WordForWord: "jñāna — knowledge; karma — action — both aimed at impersonal goals",
				Body:        "I offer my respectful obeisances unto the lotus feet.",
			},
		},
		{
			name:  "blob translation",
			lines: []string{"Ioffermyrespectfulobeisancestothelotusfeet"},
			want:  Segments{Body: "I offer my respectful obeisances to the lotus feet"},
		},
		{
			name: "multi-line root",
			lines: []string{
				"vande gurun",
				"śrī-kṛṣṇa-caitanya",
				"I offer my obeisances.",
			},
			want: Segments{
				Root: "vande gurun\nśrī-kṛṣṇa-caitanya",
				Body: "I offer my obeisances.",
			},
		},
		{
			name: "trailing reference split from root",
			lines: []string{
				"vande gurun 12.M.45",
				"I offer my obeisances.",
			},
			want: Segments{
				Root:      "vande gurun",
				Reference: "12.M.45",
				Body:      "I offer my obeisances.",
			},
		},
		{
			name: "footnote marker removed",
			lines: []string{
				"vande gurun (3)",
				"I offer my obeisances.",
			},
			want: Segments{
				Root: "vande gurun",
				Body: "I offer my obeisances.",
			},
		},
		{
			name: "root between reference lines",
			lines: []string{
				"(SB 1.2.3)",
				"kṛṣṇa-prema",
				"This is the meaning.",
			},
			want: Segments{
				Root:      "kṛṣṇa-prema",
				Reference: "(SB 1.2.3)",
				Body:      "This is the meaning.",
			},
		},
		{
			name: "plain line after reference starts translation",
			lines: []string{
				"(SB 1.2.3)",
				"he went forth alone",
				"and then returned",
			},
			want: Segments{
				Reference: "(SB 1.2.3)",
				Body:      "he went forth alone\nand then returned",
			},
		},
		{
			name: "footnoted root fragment inside translation",
			lines: []string{
				"I offer my obeisances.",
				"śrī-kṛṣṇa (12)",
				"More text here.",
			},
			want: Segments{
				Root: "śrī-kṛṣṇa",
				Body: "I offer my obeisances.\nMore text here.",
			},
		},
		{
			name: "reference inside translation",
			lines: []string{
				"I offer my obeisances.",
				"SB 1.2.3",
			},
			want: Segments{
				Reference: "SB 1.2.3",
				Body:      "I offer my obeisances.",
			},
		},
		{
			name: "leaked titles popped",
			lines: []string{
				"vande gurun",
				"I offer my obeisances to the spiritual master, who opened my eyes",
				"with the torchlight of knowledge.",
				"Guru Pranama",
				"Astaka",
			},
			want: Segments{
				Root: "vande gurun",
				Body: "I offer my obeisances to the spiritual master, who opened my eyes\nwith the torchlight of knowledge.",
			},
		},
		{
			name: "editorial note",
			lines: []string{
				"The Lord is kind.",
				"[Editorial note: see the appendix.]",
			},
			want: Segments{
				Body:       "The Lord is kind.",
				Commentary: "Editorial note: see the appendix.",
			},
		},
		{
			name:  "blank lines ignored",
			lines: []string{"   ", "", "vande gurun"},
			want:  Segments{Root: "vande gurun"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Segment(rawLines(tt.lines...))
			if got != tt.want {
				t.Errorf("Segment() =\n%#v\nwant\n%#v", got, tt.want)
			}
		})
	}
}

func TestSegment_Empty(t *testing.T) {
	s := newTestSegmenter(t)

	if got := s.Segment(nil); !got.Empty() {
		t.Errorf("empty block should be empty, got %#v", got)
	}

	got := s.Segment(rawLines("(BRS 1.1.11)"))
	if !got.Empty() {
		t.Errorf("reference-only block should be empty, got %#v", got)
	}
	if got.Reference != "(BRS 1.1.11)" {
		t.Errorf("reference should still be collected, got %q", got.Reference)
	}
}

func TestTrace(t *testing.T) {
	s := newTestSegmenter(t)

	_, steps := s.Trace(rawLines(
		"anyābhilāṣitā-śūnyaṁ",
		"jñāna — knowledge; karma — action",
		"(BRS 1.1.11)",
		"I offer my respectful obeisances unto the lotus feet.",
	))

	want := []struct {
		class  types.LineClass
		state  State
		buffer Buffer
	}{
		{types.ClassRoot, InRoot, BufferRoot},
		{types.ClassWordForWord, InRefOrGloss, BufferWordForWord},
		{types.ClassReference, InRefOrGloss, BufferReference},
		{types.ClassTranslation, InTranslation, BufferBody},
	}

	if len(steps) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(steps))
	}
	for i, w := range want {
		if steps[i].Class != w.class || steps[i].State != w.state || steps[i].Buffer != w.buffer {
			t.Errorf("step %d = %s/%s/%s, want %s/%s/%s", i,
				steps[i].Class, steps[i].State, steps[i].Buffer, w.class, w.state, w.buffer)
		}
	}
}

// A gloss line that lost its spaces trips both the blob trigger and the
// gloss shape. Normalization runs first, so it stays a gloss.
func TestSegment_GlossBlob(t *testing.T) {
	s := newTestSegmenter(t)

	seg, steps := s.Trace(rawLines(
		"vande gurun",
		"jñāna—knowledge;karma—actionbothaimedatimpersonalgoals",
	))

	if steps[1].Class != types.ClassWordForWord {
		t.Errorf("expected WORD_FOR_WORD, got %s", steps[1].Class)
	}
	if !strings.HasPrefix(seg.WordForWord, "jñāna — knowledge; karma — ") {
		t.Errorf("unexpected gloss %q", seg.WordForWord)
	}
}

// No line lands in both the root and the translation buffer.
func TestSegment_RootTranslationBoundary(t *testing.T) {
	s := newTestSegmenter(t)

	seg := s.Segment(rawLines(
		"vande gurun",
		"śrī-kṛṣṇa",
		"I offer my obeisances.",
		"He is merciful.",
	))

	for _, root := range strings.Split(seg.Root, "\n") {
		if strings.Contains(seg.Body, root) {
			t.Errorf("root line %q also in body", root)
		}
	}
	if !strings.HasPrefix(seg.Body, "I offer my obeisances.") {
		t.Errorf("body should start at the boundary line, got %q", seg.Body)
	}
	if !strings.HasSuffix(seg.Root, "śrī-kṛṣṇa") {
		t.Errorf("root should end at the boundary, got %q", seg.Root)
	}
}

func TestIsTitleLine(t *testing.T) {
	s := newTestSegmenter(t)

	tests := []struct {
		line string
		want bool
	}{
		{"Astaka", true},
		{"Śrī Guru Astaka", true},
		{"Guru Pranama", true},
		{"Śrīla Prabhupāda", true},
		{"Guru Pranama.", false},
		{"Hello there", false},
		{"This line mentions Tattva but is far too long to be a leaked title from a page break", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := s.IsTitleLine(tt.line); got != tt.want {
				t.Errorf("IsTitleLine(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestNew_RequiresCollaborators(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error without normalizer and classifier")
	}
}

func TestNew_EditorialNotePattern(t *testing.T) {
	cfg := config.DefaultConfig()
	norm, err := textnorm.New(cfg.Tables, cfg.Thresholds)
	if err != nil {
		t.Fatalf("textnorm.New: %v", err)
	}
	cls, err := classify.New(classify.Config{Tables: cfg.Tables, Thresholds: cfg.Thresholds, Patterns: cfg.Patterns})
	if err != nil {
		t.Fatalf("classify.New: %v", err)
	}

	tests := []struct {
		name    string
		pattern string
		wantErr bool
	}{
		{"default", cfg.Patterns.EditorialNote, false},
		{"disabled", "", false},
		{"does not compile", `\[(`, true},
		{"no capture group", `\[Editor's note:.*?\]`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patterns := cfg.Patterns
			patterns.EditorialNote = tt.pattern
			_, err := New(Config{
				Normalizer: norm,
				Classifier: cls,
				Tables:     cfg.Tables,
				Thresholds: cfg.Thresholds,
				Patterns:   patterns,
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
