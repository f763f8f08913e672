package config

import "net/url"

// Config holds versemill configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Book       BookConfig     `mapstructure:"book" yaml:"book" json:"book"`
	Tables     Tables         `mapstructure:"tables" yaml:"tables" json:"tables"`
	Thresholds Thresholds     `mapstructure:"thresholds" yaml:"thresholds" json:"thresholds"`
	Patterns   Patterns       `mapstructure:"patterns" yaml:"patterns" json:"patterns"`
	Extract    ExtractConfig  `mapstructure:"extract" yaml:"extract" json:"extract"`
	Store      StoreConfig    `mapstructure:"store" yaml:"store" json:"store"`
	Postgres   PostgresConfig `mapstructure:"postgres" yaml:"postgres" json:"postgres"`
	Log        LogConfig      `mapstructure:"log" yaml:"log" json:"log"`
}

// BookConfig identifies the document being scanned.
type BookConfig struct {
	// Acronym prefixes every canonical id (e.g. "SLK" -> "SLK_1.1").
	Acronym string `mapstructure:"acronym" yaml:"acronym" json:"acronym"`
	Title   string `mapstructure:"title" yaml:"title" json:"title"`
	// InitialTopic tags verses that appear before the first chapter header.
	InitialTopic string `mapstructure:"initial_topic" yaml:"initial_topic" json:"initial_topic"`
}

// Replacement is a single from -> to substitution.
// Kept as a list rather than a map because viper lowercases map keys.
type Replacement struct {
	From string `mapstructure:"from" yaml:"from" json:"from"`
	To   string `mapstructure:"to" yaml:"to" json:"to"`
}

// Tables are the lexical inputs of the normalizer and classifier.
type Tables struct {
	Diacritics       []Replacement `mapstructure:"diacritics" yaml:"diacritics" json:"diacritics"`
	GluedBigrams     []Replacement `mapstructure:"glued_bigrams" yaml:"glued_bigrams" json:"glued_bigrams"`
	BlobCompounds    []Replacement `mapstructure:"blob_compounds" yaml:"blob_compounds" json:"blob_compounds"`
	BlobKeywords     []string      `mapstructure:"blob_keywords" yaml:"blob_keywords" json:"blob_keywords"`
	NoiseKeywords    []string      `mapstructure:"noise_keywords" yaml:"noise_keywords" json:"noise_keywords"`
	RootLetters      string        `mapstructure:"root_letters" yaml:"root_letters" json:"root_letters"`
	FunctionWords    []string      `mapstructure:"function_words" yaml:"function_words" json:"function_words"`
	DensityWords     []string      `mapstructure:"density_words" yaml:"density_words" json:"density_words"`
	SentenceStarters []string      `mapstructure:"sentence_starters" yaml:"sentence_starters" json:"sentence_starters"`
	QuoteOpeners     []string      `mapstructure:"quote_openers" yaml:"quote_openers" json:"quote_openers"`
	ReferenceSources []string      `mapstructure:"reference_sources" yaml:"reference_sources" json:"reference_sources"`
	CitationPrefixes []string      `mapstructure:"citation_prefixes" yaml:"citation_prefixes" json:"citation_prefixes"`
	Honorifics       []string      `mapstructure:"honorifics" yaml:"honorifics" json:"honorifics"`
	TitleKeywords    []string      `mapstructure:"title_keywords" yaml:"title_keywords" json:"title_keywords"`
	TitlePrefixes    []string      `mapstructure:"title_prefixes" yaml:"title_prefixes" json:"title_prefixes"`
}

// Thresholds are the numeric tunables of the heuristics.
type Thresholds struct {
	NoiseMinLength       int     `mapstructure:"noise_min_length" yaml:"noise_min_length" json:"noise_min_length"`
	BlobMinLength        int     `mapstructure:"blob_min_length" yaml:"blob_min_length" json:"blob_min_length"`
	BlobMaxSpaces        int     `mapstructure:"blob_max_spaces" yaml:"blob_max_spaces" json:"blob_max_spaces"`
	ReferenceMaxLength   int     `mapstructure:"reference_max_length" yaml:"reference_max_length" json:"reference_max_length"`
	HonorificMaxLength   int     `mapstructure:"honorific_max_length" yaml:"honorific_max_length" json:"honorific_max_length"`
	DensityThreshold     float64 `mapstructure:"density_threshold" yaml:"density_threshold" json:"density_threshold"`
	DensityMinWords      int     `mapstructure:"density_min_words" yaml:"density_min_words" json:"density_min_words"`
	TitleMaxLength       int     `mapstructure:"title_max_length" yaml:"title_max_length" json:"title_max_length"`
	TitlePrefixMaxLength int     `mapstructure:"title_prefix_max_length" yaml:"title_prefix_max_length" json:"title_prefix_max_length"`
	MinRootLength        int     `mapstructure:"min_root_length" yaml:"min_root_length" json:"min_root_length"`
	MinTopicLength       int     `mapstructure:"min_topic_length" yaml:"min_topic_length" json:"min_topic_length"`
	CacheSize            int     `mapstructure:"cache_size" yaml:"cache_size" json:"cache_size"`
}

// Patterns are the regular expressions driving marker detection.
// All use RE2 syntax.
type Patterns struct {
	VerseMarker        string   `mapstructure:"verse_marker" yaml:"verse_marker" json:"verse_marker"`
	ChapterHeader      string   `mapstructure:"chapter_header" yaml:"chapter_header" json:"chapter_header"`
	TrailingReferences []string `mapstructure:"trailing_references" yaml:"trailing_references" json:"trailing_references"`
	EditorialNote      string   `mapstructure:"editorial_note" yaml:"editorial_note" json:"editorial_note"`
	FootnoteMarker     string   `mapstructure:"footnote_marker" yaml:"footnote_marker" json:"footnote_marker"`
}

// ExtractConfig controls page text extraction.
type ExtractConfig struct {
	// FirstPage is 1-based; front matter before it is never read.
	FirstPage int `mapstructure:"first_page" yaml:"first_page" json:"first_page"`
	// LastPage of 0 means the last page of the document.
	LastPage     int     `mapstructure:"last_page" yaml:"last_page" json:"last_page"`
	MarginTop    float64 `mapstructure:"margin_top" yaml:"margin_top" json:"margin_top"`
	MarginBottom float64 `mapstructure:"margin_bottom" yaml:"margin_bottom" json:"margin_bottom"`
	Workers      int     `mapstructure:"workers" yaml:"workers" json:"workers"`
	Pdftotext    string  `mapstructure:"pdftotext" yaml:"pdftotext" json:"pdftotext"`
	Layout       bool    `mapstructure:"layout" yaml:"layout" json:"layout"`
}

// StoreConfig selects and configures the record sink.
type StoreConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver" json:"driver"` // "sqlite", "postgres", "memory"
	// DSN supports ${ENV_VAR} syntax. Empty means {home}/versemill.db for sqlite.
	DSN           string `mapstructure:"dsn" yaml:"dsn" json:"dsn"`
	RetryAttempts int    `mapstructure:"retry_attempts" yaml:"retry_attempts" json:"retry_attempts"`
	RetryDelayMS  int    `mapstructure:"retry_delay_ms" yaml:"retry_delay_ms" json:"retry_delay_ms"`
}

// PostgresConfig holds the postgres container configuration used by `versemill db`.
type PostgresConfig struct {
	// ContainerName is the Docker container name (default: versemill-postgres)
	ContainerName string `mapstructure:"container_name" yaml:"container_name" json:"container_name"`
	Image         string `mapstructure:"image" yaml:"image" json:"image"`
	Port          string `mapstructure:"port" yaml:"port" json:"port"`
	User          string `mapstructure:"user" yaml:"user" json:"user"`
	Password      string `mapstructure:"password" yaml:"password" json:"password"`
	Database      string `mapstructure:"database" yaml:"database" json:"database"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`    // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format" json:"format"` // text, json
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Book: BookConfig{
			Acronym:      "SLK",
			Title:        "Śrī Ślokāmṛtam",
			InitialTopic: "Introduction",
		},
		Tables:     DefaultTables(),
		Thresholds: DefaultThresholds(),
		Patterns:   DefaultPatterns(),
		Extract: ExtractConfig{
			FirstPage:    1,
			MarginTop:    0.06,
			MarginBottom: 0.94,
			Workers:      4,
			Pdftotext:    "pdftotext",
		},
		Store: StoreConfig{
			Driver:        "sqlite",
			RetryAttempts: 3,
			RetryDelayMS:  200,
		},
		Postgres: PostgresConfig{
			ContainerName: "versemill-postgres",
			Image:         "postgres:17-alpine",
			Port:          "5433",
			User:          "versemill",
			Password:      "${VERSEMILL_PG_PASSWORD}",
			Database:      "versemill",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// PostgresPassword resolves the container password. An unset variable
// falls back to the user name.
func (c *Config) PostgresPassword() string {
	if password := ResolveEnvVars(c.Postgres.Password); password != "" {
		return password
	}
	return c.Postgres.User
}

// PostgresDSN builds a connection string for the managed postgres container.
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Postgres.User, c.PostgresPassword()),
		Host:     "127.0.0.1:" + c.Postgres.Port,
		Path:     "/" + c.Postgres.Database,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
