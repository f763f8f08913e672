package scanner

import "github.com/jackzampolin/versemill/internal/types"

func page(n int, texts ...string) types.Page {
	p := types.Page{Number: n}
	for _, text := range texts {
		p.Lines = append(p.Lines, types.RawLine{Text: text, Page: n})
	}
	return p
}

// sampleDocument is two columns' worth of lines in reading order.
func sampleDocument() []types.Page {
	return []types.Page{
		page(9,
			"Preface text before any verse",
			"SAMBANDHA",
			"1.1",
			"anyābhilāṣitā-śūnyaṁ",
			"jñāna — knowledge; karma — action — both aimed at impersonal goals",
			"(BRS 1.1.11)",
			"I offer my respectful obeisances unto the lotus feet.",
			"Page 9",
		),
		page(10,
			" 1.2 ",
			"Ioffermyrespectfulobeisancestothelotusfeet",
			"Astaka",
			"PRAYOJANA: 45",
			"ABHIDHEYA - The Process",
			"2.1",
			"(SB 1.2.3)",
		),
	}
}
