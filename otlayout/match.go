package otlayout

import "github.com/npillmayer/otshaping/ot"

// Sequence matching against the buffer. Uniform semantics across all rule
// formats: the input sequence is matched left-to-right beyond the anchor
// glyph, backtrack right-to-left ending immediately before the input
// window, lookahead left-to-right starting immediately after it. A glyph
// index of 0 or a position outside the buffer fails the whole rule; there
// are no partial matches. Matching never mutates the buffer.

// skipGlyph reports whether the active lookup's flags filter out glyph g.
// Without a GDEF table nothing is skipped.
func skipGlyph(ctx *applyCtx, g ot.GlyphIndex) bool {
	if ctx.gdef == nil || ctx.lookup == nil {
		return false
	}
	class := ctx.gdef.GlyphClassDef.Lookup(g)
	switch {
	case ctx.flag&ot.LookupFlagIgnoreBaseGlyphs != 0 && class == ot.GDefGlyphClassBase:
		return true
	case ctx.flag&ot.LookupFlagIgnoreLigatures != 0 && class == ot.GDefGlyphClassLigature:
		return true
	case ctx.flag&ot.LookupFlagIgnoreMarks != 0 && class == ot.GDefGlyphClassMark:
		return true
	}
	if class == ot.GDefGlyphClassMark {
		if matype := uint16(ctx.flag&ot.LookupFlagMarkAttachTypeMask) >> 8; matype != 0 {
			if ctx.gdef.MarkAttachClassDef.Lookup(g) != int(matype) {
				return true
			}
		}
	}
	return false
}

// nextMatchable returns the first non-skipped position >= pos.
func nextMatchable(ctx *applyCtx, pos int) (int, bool) {
	for i := pos; i < ctx.buf.Len(); i++ {
		if !skipGlyph(ctx, ctx.buf.At(i)) {
			return i, true
		}
	}
	return 0, false
}

// prevMatchable returns the first non-skipped position <= pos.
func prevMatchable(ctx *applyCtx, pos int) (int, bool) {
	for i := pos; i >= 0; i-- {
		if !skipGlyph(ctx, ctx.buf.At(i)) {
			return i, true
		}
	}
	return 0, false
}

// matchValue tests one position against a rule element: a literal glyph, a
// class, or a coverage table.
type matchValue struct {
	glyph ot.GlyphIndex
	class int
	cov   *ot.Coverage
	mode  matchMode
}

type matchMode uint8

const (
	matchGlyph matchMode = iota
	matchClass
	matchCoverage
)

func (mv matchValue) matches(classDef ot.ClassDefinitions, g ot.GlyphIndex) bool {
	if g == 0 {
		return false
	}
	switch mv.mode {
	case matchGlyph:
		return g == mv.glyph
	case matchClass:
		return classDef.Lookup(g) == mv.class
	case matchCoverage:
		return mv.cov.Contains(g)
	}
	return false
}

func glyphValues(glyphs []uint16) []matchValue {
	out := make([]matchValue, len(glyphs))
	for i, g := range glyphs {
		out[i] = matchValue{mode: matchGlyph, glyph: ot.GlyphIndex(g)}
	}
	return out
}

func classValues(classes []uint16) []matchValue {
	out := make([]matchValue, len(classes))
	for i, c := range classes {
		out[i] = matchValue{mode: matchClass, class: int(c)}
	}
	return out
}

func coverageValues(covs []ot.Coverage) []matchValue {
	out := make([]matchValue, len(covs))
	for i := range covs {
		out[i] = matchValue{mode: matchCoverage, cov: &covs[i]}
	}
	return out
}

// matchSequenceForward matches values left-to-right starting at pos,
// skipping filtered glyphs. It returns the matched positions.
func matchSequenceForward(ctx *applyCtx, pos int, classDef ot.ClassDefinitions, values []matchValue) ([]int, bool) {
	positions := make([]int, 0, len(values))
	cur := pos
	for _, mv := range values {
		mpos, ok := nextMatchable(ctx, cur)
		if !ok {
			return nil, false
		}
		if !mv.matches(classDef, ctx.buf.At(mpos)) {
			return nil, false
		}
		positions = append(positions, mpos)
		cur = mpos + 1
	}
	return positions, true
}

// matchSequenceBackward matches values right-to-left, starting immediately
// before pos. Values are ordered nearest-first, as backtrack sequences are
// stored.
func matchSequenceBackward(ctx *applyCtx, pos int, classDef ot.ClassDefinitions, values []matchValue) bool {
	cur := pos - 1
	for _, mv := range values {
		mpos, ok := prevMatchable(ctx, cur)
		if !ok || cur < 0 {
			return false
		}
		if !mv.matches(classDef, ctx.buf.At(mpos)) {
			return false
		}
		cur = mpos - 1
	}
	return true
}

// matchInput matches the input sequence of a rule: the anchor glyph at pos
// is already matched by coverage (or class), values cover the second input
// glyph onward. Returns all input positions including pos.
func matchInput(ctx *applyCtx, pos int, classDef ot.ClassDefinitions, values []matchValue) ([]int, bool) {
	rest, ok := matchSequenceForward(ctx, pos+1, classDef, values)
	if !ok {
		return nil, false
	}
	positions := make([]int, 0, len(rest)+1)
	positions = append(positions, pos)
	positions = append(positions, rest...)
	return positions, true
}

// matchChained matches a chained rule around anchor position pos: input
// first, then backtrack before the input window and lookahead after it.
func matchChained(ctx *applyCtx, pos int,
	backtrackDef, inputDef, lookaheadDef ot.ClassDefinitions,
	backtrack, input, lookahead []matchValue) ([]int, bool) {

	inputPos, ok := matchInput(ctx, pos, inputDef, input)
	if !ok {
		return nil, false
	}
	if len(backtrack) > 0 && !matchSequenceBackward(ctx, inputPos[0], backtrackDef, backtrack) {
		return nil, false
	}
	if len(lookahead) > 0 {
		last := inputPos[len(inputPos)-1]
		if _, ok := matchSequenceForward(ctx, last+1, lookaheadDef, lookahead); !ok {
			return nil, false
		}
	}
	return inputPos, true
}
