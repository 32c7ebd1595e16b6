// Package mathmap expands mathematical glyphs into their TeX macro
// equivalents so a text search can also hit articles that typeset the
// symbol instead of using the raw character.
package mathmap

// variants maps a glyph to the TeX macros Wikipedia articles typically
// use in <math> wikitext for that glyph.
var variants = map[rune][]string{
	'∫': {`\int`},
	'∮': {`\oint`},
	'∑': {`\sum`},
	'∏': {`\prod`},
	'√': {`\sqrt`},
	'∞': {`\infty`},
	'≈': {`\approx`},
	'≃': {`\simeq`},
	'≅': {`\cong`},
	'≤': {`\le`, `\leq`},
	'≥': {`\ge`, `\geq`},
	'→': {`\to`, `\rightarrow`},
	'←': {`\leftarrow`},
	'↦': {`\mapsto`},
	'∈': {`\in`},
	'∉': {`\notin`},
	'∩': {`\cap`},
	'∪': {`\cup`},
	'⊂': {`\subset`},
	'⊆': {`\subseteq`},
	'⊃': {`\supset`},
	'⊇': {`\supseteq`},
	'∂': {`\partial`},
	'∇': {`\nabla`},
	'±': {`\pm`},
	'×': {`\times`},
	'·': {`\cdot`},
	'≠': {`\ne`, `\neq`},
	'∼': {`\sim`},
	'≡': {`\equiv`},
	'⊕': {`\oplus`},
	'⊗': {`\otimes`},
	'π': {`\pi`},
	'α': {`\alpha`},
	'β': {`\beta`},
	'γ': {`\gamma`},
	'δ': {`\delta`},
	'λ': {`\lambda`},
	'μ': {`\mu`},
	'σ': {`\sigma`},
	'φ': {`\phi`, `\varphi`},
	'θ': {`\theta`},
}

// Variants returns the TeX macros mapped to a single glyph, or nil when
// the glyph has no mapping.
func Variants(glyph rune) []string {
	return variants[glyph]
}

// Expand returns the term followed by the TeX variants of every mapped
// glyph it contains. When enabled is false, or no glyph in the term is
// mapped, the result is just the original term.
func Expand(term string, enabled bool) []string {
	out := []string{term}
	if !enabled {
		return out
	}
	seen := map[string]bool{term: true}
	for _, r := range term {
		for _, v := range variants[r] {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}
