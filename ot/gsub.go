package ot

// Payload structures for GSUB subtables. All slices are indexed by coverage
// index unless stated otherwise.

// SingleSubst replaces one glyph with one glyph. Format 1 adds a constant
// delta to the glyph index (modulo 65536), format 2 substitutes from a
// per-coverage-index array.
type SingleSubst struct {
	Delta       int16        // format 1
	Substitutes []GlyphIndex // format 2
}

// Substitute returns the replacement for glyph g at coverage index inx.
func (s *SingleSubst) Substitute(g GlyphIndex, inx int, format uint16) (GlyphIndex, bool) {
	switch format {
	case 1:
		return GlyphIndex(uint16(g) + uint16(s.Delta)), true
	case 2:
		if inx >= 0 && inx < len(s.Substitutes) {
			return s.Substitutes[inx], true
		}
	}
	return g, false
}

// MultipleSubst replaces one glyph with a sequence of glyphs, growing the
// glyph run. The OpenType spec disallows empty sequences.
type MultipleSubst struct {
	Sequences [][]GlyphIndex
}

// AlternateSubst offers a set of alternate glyphs per covered glyph; the
// caller selects one by index.
type AlternateSubst struct {
	Alternates [][]GlyphIndex
}

// LigatureSubst collapses a matched glyph sequence into one ligature glyph,
// shrinking the glyph run. LigatureSets is indexed by the coverage index of
// the first glyph; within a set, rules are tried in order and the first
// full match wins, so fonts list longer ligatures first.
type LigatureSubst struct {
	LigatureSets [][]LigatureRule
}

// LigatureRule matches the first (covered) glyph followed by Components and
// produces Ligature.
type LigatureRule struct {
	Ligature   GlyphIndex   // resulting ligature glyph
	Components []GlyphIndex // glyphs following the first, in match order
}

/// ReverseChainSubst is the GSUB type 8 payload: single substitution applied
// walking the glyph run backwards, with coverage-based backtrack and
// lookahead context. Substitutes is indexed by coverage index.
type ReverseChainSubst struct {
	Backtrack   []Coverage
	Lookahead   []Coverage
	Substitutes []GlyphIndex
}

// --- Contextual rules (shared between GSUB and GPOS) ----------------------

// SequenceRule is one rule of a sequence-context or chained-sequence-context
// rule set. Backtrack, Input and Lookahead hold glyph indices for format 1
// subtables and glyph classes for format 2; the owning subtable's format
// decides the interpretation. Input excludes the first glyph, which is the
// coverage (or class) anchor of the rule set.
//
// Plain (non-chained) contexts leave Backtrack and Lookahead empty.
type SequenceRule struct {
	Backtrack []uint16 // nearest-first, matched right-to-left before the input window
	Input     []uint16 // second input glyph onward, matched left-to-right
	Lookahead []uint16 // matched left-to-right after the input window
	Records   []SequenceLookupRecord
}

// SequenceContext is the payload of GSUB type 5 and GPOS type 7 subtables.
//
// Format 1 keys rule sets by the coverage index of the first input glyph,
// format 2 by its class, format 3 stores a single implicit rule as inline
// per-position coverages.
type SequenceContext struct {
	RuleSets [][]SequenceRule // formats 1 and 2; nil entries are empty sets
	ClassDef ClassDefinitions // format 2

	InputCoverages []Coverage             // format 3
	Records        []SequenceLookupRecord // format 3
}

// ChainedContext is the payload of GSUB type 6 and GPOS type 8 subtables.
// Layout follows SequenceContext, with backtrack/lookahead context added.
type ChainedContext struct {
	RuleSets          [][]SequenceRule // formats 1 and 2
	BacktrackClassDef ClassDefinitions // format 2
	InputClassDef     ClassDefinitions // format 2
	LookaheadClassDef ClassDefinitions // format 2

	BacktrackCoverages []Coverage // format 3, nearest-first
	InputCoverages     []Coverage // format 3
	LookaheadCoverages []Coverage // format 3
	Records            []SequenceLookupRecord
}
