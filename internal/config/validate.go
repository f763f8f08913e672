package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidConfig is returned (wrapped) for any config that fails validation.
var ErrInvalidConfig = errors.New("invalid config")

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("schema.json", bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("failed to add config schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("schema.json")
	})
	return schema, schemaErr
}

// Validate checks cfg against the embedded JSON schema, then checks what the
// schema cannot express: regex syntax, capture groups, and table shape.
func Validate(cfg *Config) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	var errs []error
	if cfg.Extract.LastPage != 0 && cfg.Extract.LastPage < cfg.Extract.FirstPage {
		errs = append(errs, fmt.Errorf("extract.last_page %d is before first_page %d", cfg.Extract.LastPage, cfg.Extract.FirstPage))
	}
	if cfg.Extract.MarginBottom <= cfg.Extract.MarginTop {
		errs = append(errs, errors.New("extract.margin_bottom must be greater than margin_top"))
	}

	if re, err := regexp.Compile(cfg.Patterns.VerseMarker); err != nil {
		errs = append(errs, fmt.Errorf("patterns.verse_marker: %w", err))
	} else if re.NumSubexp() < 1 {
		errs = append(errs, errors.New("patterns.verse_marker must capture the verse number"))
	}
	if _, err := regexp.Compile(cfg.Patterns.ChapterHeader); err != nil {
		errs = append(errs, fmt.Errorf("patterns.chapter_header: %w", err))
	}
	for i, p := range cfg.Patterns.TrailingReferences {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("patterns.trailing_references[%d]: %w", i, err))
		}
	}
	if cfg.Patterns.EditorialNote != "" {
		if re, err := regexp.Compile(cfg.Patterns.EditorialNote); err != nil {
			errs = append(errs, fmt.Errorf("patterns.editorial_note: %w", err))
		} else if re.NumSubexp() < 1 {
			errs = append(errs, errors.New("patterns.editorial_note must capture the note text"))
		}
	}
	if cfg.Patterns.FootnoteMarker != "" {
		if _, err := regexp.Compile(cfg.Patterns.FootnoteMarker); err != nil {
			errs = append(errs, fmt.Errorf("patterns.footnote_marker: %w", err))
		}
	}
	if err := CheckDiacritics(cfg.Tables.Diacritics); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// CheckDiacritics rejects remap tables that would not be a fixed point: a
// duplicate source, or a target that contains a source. ASCII targets are
// fine; the normalizer repeats its stages until the line is stable.
func CheckDiacritics(table []Replacement) error {
	sources := make(map[string]bool, len(table))
	for _, r := range table {
		if sources[r.From] {
			return fmt.Errorf("tables.diacritics: duplicate source %q", r.From)
		}
		sources[r.From] = true
	}
	for _, r := range table {
		for src := range sources {
			if strings.Contains(r.To, src) {
				return fmt.Errorf("tables.diacritics: target %q of %q contains source %q", r.To, r.From, src)
			}
		}
	}
	return nil
}
