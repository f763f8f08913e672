package config

// DefaultTables returns the lexical tables tuned for Balarama-encoded
// Gaudiya devotional anthologies with English translations.
func DefaultTables() Tables {
	return Tables{
		// Sources never appear as targets and targets are never ASCII, so
		// the remap is a fixed point. Balarama "ñ" (ṣ) is left alone because
		// it collides with IAST ñ.
		Diacritics: []Replacement{
			{"ä", "ā"}, {"é", "ī"}, {"ü", "ū"}, {"å", "ṛ"}, {"è", "ṝ"},
			{"ì", "ṅ"}, {"ï", "ñ"}, {"ö", "ṭ"}, {"ò", "ḍ"}, {"ë", "ṇ"},
			{"ç", "ś"}, {"à", "ṁ"}, {"ù", "ḥ"},
			{"â", "t"}, {"î", "i"}, {"û", "u"},
			{"Ä", "Ā"}, {"É", "Ī"}, {"Ü", "Ū"}, {"Å", "Ṛ"}, {"È", "Ṝ"},
			{"Ì", "Ṅ"}, {"Ï", "Ñ"}, {"Ö", "Ṭ"}, {"Ò", "Ḍ"}, {"Ë", "Ṇ"},
			{"Ç", "Ś"}, {"À", "Ṁ"}, {"Ù", "Ḥ"},
		},
		GluedBigrams: []Replacement{
			{"ofthe", "of the"},
			{"tothe", "to the"},
			{"inthe", "in the"},
			{"byme", "by me"},
			{"forme", "for me"},
			{"ofmy", "of my"},
			{"tomy", "to my"},
			{"offermy", "offer my"},
			{"lotusfeet", "lotus feet"},
			{"thelotus", "the lotus"},
			{"respectfulobeisances", "respectful obeisances"},
			{"iscalled", "is called"},
			{"offerpranama", "offer pranama"},
			{"feetof", "feet of"},
		},
		BlobCompounds: []Replacement{
			{"tothelotus", "to the lotus"},
			{"inthe", "in the"},
		},
		BlobKeywords: []string{
			"respectful", "obeisances", "spiritual", "master", "offer", "lotus",
			"unto", "feet", "that", "with", "your", "the", "and", "are", "his", "her",
		},
		NoiseKeywords: []string{"page", "index", "contents", "slokamrtam"},
		RootLetters:   "āīūṛṝṅñṭḍṇśṣṁḥĀĪŪṚṜṄÑṬḌṆŚṢṀḤ",
		FunctionWords: []string{
			"the", "of", "to", "and", "is", "in", "that", "with", "are", "my", "your",
			"his", "her", "me", "us", "we", "but", "for", "by", "from", "this", "have",
			"not", "be", "so", "one", "mercy", "heart", "soul", "feet", "lotus", "love",
			"holy", "name", "sins", "fallen", "life", "giver", "desire", "please",
			"respectful", "obeisances", "spiritual", "master",
		},
		DensityWords: []string{"the", "of", "to", "and", "is", "in", "my", "your"},
		SentenceStarters: []string{
			"I offer", "All glories", "O Lord", "He who", "Although", "My dear",
			"I am", "You are", "As a", "Strictly", "The", "This", "That", "Do not",
		},
		QuoteOpeners: []string{"“", `"`},
		ReferenceSources: []string{
			"SB", "CC", "Bg", "Veda", "Purana", "Upanisad", "Gita", "Stava",
			"Vidagdha", "Vol.", "Sermons", "Nectar", "Candramrta", "Karnamrta",
		},
		CitationPrefixes: []string{"(SGG", "(BR"},
		Honorifics:       []string{"Thakura", "Gosvami"},
		TitleKeywords: []string{
			"Pranama", "Tattva", "Vandana", "Lila", "Astaka", "Gita", "Stotram",
			"Samasta", "Vijñapti", "Kirtana", "Rasa-tattva", "Deva!", "Bhavantam",
		},
		TitlePrefixes: []string{"Çré", "Śrī"},
	}
}

// DefaultThresholds returns the numeric tunables.
func DefaultThresholds() Thresholds {
	return Thresholds{
		NoiseMinLength:       2,
		BlobMinLength:        40,
		BlobMaxSpaces:        3,
		ReferenceMaxLength:   120,
		HonorificMaxLength:   70,
		DensityThreshold:     0.15,
		DensityMinWords:      3,
		TitleMaxLength:       70,
		TitlePrefixMaxLength: 50,
		MinRootLength:        3,
		MinTopicLength:       3,
		CacheSize:            4096,
	}
}

// DefaultPatterns returns the marker and suffix expressions.
func DefaultPatterns() Patterns {
	return Patterns{
		VerseMarker:   `^\s*(\d+\.\d+)\s*$`,
		ChapterHeader: `(?i)^(?:Chapter|SAMBANDHA|ABHIDHEYA|PRAYOJANA)\s*\d*\s*[-–]?\s*(?P<label>.*)`,
		TrailingReferences: []string{
			`(?i)(\([A-Z]+\s*p\.\s*\d+[\.\d]*\))$`,
			`(?i)(\(SGG.*\))$`,
			`(?i)(\([A-Z]{2,}\s*[\d\.]+\s*(?:pt)?.*\))$`,
			`(?i)(\d+\.[A-Z]\.\d+(?:\([a-z]\))?)$`,
			`(?i)(\(.*\)\s*siddha.*)$`,
			`(?i)(\[.*philosophy\).+\])$`,
		},
		EditorialNote:  `(?is)\[(Editorial\s*note:.*?)\]`,
		FootnoteMarker: `\s*\(\d+\)$`,
	}
}
