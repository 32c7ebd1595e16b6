package wiki

import "strings"

// BuildQuery assembles a CirrusSearch srsearch string that prioritizes
// article text. searchIn selects the index targets ("text", "title" or
// "both"); variants are alternate spellings of the term (TeX macros for
// glyph terms) searched literally in wikitext.
//
// Body matches are always ordered ahead of title matches: the text
// clauses come first, and per-document match order is determined later by
// the DOM walk, which only ever visits body text.
func BuildQuery(term, searchIn string, variants []string) string {
	q := quote(term)

	var clauses []string
	if searchIn == "text" || searchIn == "both" {
		clauses = append(clauses, "insource:"+q) // literal in wikitext
		clauses = append(clauses, q)             // plain text index
	}
	if searchIn == "title" || searchIn == "both" {
		clauses = append(clauses, "intitle:"+q)
	}
	for _, v := range variants {
		if v == term {
			continue
		}
		clauses = append(clauses, "insource:"+quote(v))
	}

	// Dedup while keeping first-seen order so the query is deterministic.
	seen := make(map[string]bool, len(clauses))
	uniq := clauses[:0]
	for _, c := range clauses {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		uniq = append(uniq, c)
	}
	if len(uniq) == 0 {
		return q
	}
	return strings.Join(uniq, " OR ")
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
