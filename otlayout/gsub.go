package otlayout

import "github.com/npillmayer/otshaping/ot"

// Appliers for GSUB subtables. Common signature: try the subtable at slot
// pos; report the position to continue at, whether the subtable matched,
// and the structural edit if the slot count changed.

// applySingleSubst handles GSUB type 1, formats 1 (delta) and 2
// (per-coverage-index substitute).
func applySingleSubst(ctx *applyCtx, sub *ot.LookupSubtable, pos int) (int, bool, *EditSpan, error) {
	g := ctx.buf.At(pos)
	inx := sub.Coverage.Index(g)
	if inx < 0 {
		return pos, false, nil, nil
	}
	repl, ok := sub.Single.Substitute(g, inx, sub.Format)
	if !ok {
		return pos, false, nil, nil
	}
	ctx.buf.Set(pos, repl)
	return pos + 1, true, nil, nil
}

// applyMultipleSubst handles GSUB type 2: one glyph becomes a sequence,
// growing the buffer. An empty sequence would delete the glyph, which the
// format prohibits; such rules do not match.
func applyMultipleSubst(ctx *applyCtx, sub *ot.LookupSubtable, pos int) (int, bool, *EditSpan, error) {
	inx := sub.Coverage.Index(ctx.buf.At(pos))
	if inx < 0 || inx >= len(sub.Multiple.Sequences) {
		return pos, false, nil, nil
	}
	seq := sub.Multiple.Sequences[inx]
	if len(seq) == 0 {
		return pos, false, nil, nil
	}
	edit := ctx.buf.ReplaceGlyphs(pos, pos+1, seq)
	return pos + len(seq), true, edit, nil
}

// applyAlternateSubst handles GSUB type 3: the alternate at the selection
// index of the apply context replaces the glyph. Selection defaults to the
// first alternate.
func applyAlternateSubst(ctx *applyCtx, sub *ot.LookupSubtable, pos int) (int, bool, *EditSpan, error) {
	inx := sub.Coverage.Index(ctx.buf.At(pos))
	if inx < 0 || inx >= len(sub.Alternate.Alternates) {
		return pos, false, nil, nil
	}
	alternates := sub.Alternate.Alternates[inx]
	if len(alternates) == 0 {
		return pos, false, nil, nil
	}
	choice := ctx.alt
	if choice < 0 || choice >= len(alternates) {
		choice = 0
	}
	ctx.buf.Set(pos, alternates[choice])
	return pos + 1, true, nil, nil
}

// applyLigatureSubst handles GSUB type 4: a matched glyph sequence
// collapses into one ligature glyph, shrinking the buffer. Rules of a set
// are tried in order, first full match wins.
func applyLigatureSubst(ctx *applyCtx, sub *ot.LookupSubtable, pos int) (int, bool, *EditSpan, error) {
	inx := sub.Coverage.Index(ctx.buf.At(pos))
	if inx < 0 || inx >= len(sub.Ligature.LigatureSets) {
		return pos, false, nil, nil
	}
	for _, rule := range sub.Ligature.LigatureSets[inx] {
		positions, ok := matchLigatureComponents(ctx, pos, rule.Components)
		if !ok {
			continue
		}
		last := pos
		if len(positions) > 0 {
			last = positions[len(positions)-1]
		}
		edit := ctx.buf.ReplaceGlyphs(pos, last+1, []ot.GlyphIndex{rule.Ligature})
		return pos + 1, true, edit, nil
	}
	return pos, false, nil, nil
}

// matchLigatureComponents matches the components following the covered
// first glyph, honoring the lookup's skip filter.
func matchLigatureComponents(ctx *applyCtx, pos int, components []ot.GlyphIndex) ([]int, bool) {
	positions := make([]int, 0, len(components))
	cur := pos + 1
	for _, comp := range components {
		mpos, ok := nextMatchable(ctx, cur)
		if !ok || comp == 0 || ctx.buf.At(mpos) != comp {
			return nil, false
		}
		positions = append(positions, mpos)
		cur = mpos + 1
	}
	return positions, true
}

// applySequenceContext handles GSUB type 5 and GPOS type 7, formats 1-3.
// On a matched rule the nested lookup records run recursively through the
// regular application contract.
func applySequenceContext(ctx *applyCtx, sub *ot.LookupSubtable, pos int) (int, bool, *EditSpan, error) {
	sq := sub.SeqContext
	var positions []int
	var records []ot.SequenceLookupRecord
	stopAtFirst := true

	switch sub.Format {
	case 1:
		inx := sub.Coverage.Index(ctx.buf.At(pos))
		if inx < 0 || inx >= len(sq.RuleSets) {
			return pos, false, nil, nil
		}
		for _, rule := range sq.RuleSets[inx] {
			if p, ok := matchInput(ctx, pos, ot.ClassDefinitions{}, glyphValues(rule.Input)); ok {
				positions, records = p, rule.Records
				break
			}
		}
	case 2:
		if !sub.Coverage.Contains(ctx.buf.At(pos)) {
			return pos, false, nil, nil
		}
		class := sq.ClassDef.Lookup(ctx.buf.At(pos))
		if class < 0 || class >= len(sq.RuleSets) {
			return pos, false, nil, nil
		}
		for _, rule := range sq.RuleSets[class] {
			if p, ok := matchInput(ctx, pos, sq.ClassDef, classValues(rule.Input)); ok {
				positions, records = p, rule.Records
				break
			}
		}
	case 3:
		// No rule set: the coverage run is the single implicit rule, and
		// all records aggregate before reporting.
		if !sq.InputCoverages[0].Contains(ctx.buf.At(pos)) {
			return pos, false, nil, nil
		}
		if p, ok := matchInput(ctx, pos, ot.ClassDefinitions{}, coverageValues(sq.InputCoverages[1:])); ok {
			positions, records = p, sq.Records
			stopAtFirst = false
		}
	}
	if positions == nil {
		return pos, false, nil, nil
	}
	return finishContextMatch(ctx, pos, positions, records, stopAtFirst)
}

// applyChainedContext handles GSUB type 6 and GPOS type 8, formats 1-3.
func applyChainedContext(ctx *applyCtx, sub *ot.LookupSubtable, pos int) (int, bool, *EditSpan, error) {
	ch := sub.ChainContext
	var positions []int
	var records []ot.SequenceLookupRecord
	stopAtFirst := true
	none := ot.ClassDefinitions{}

	switch sub.Format {
	case 1:
		inx := sub.Coverage.Index(ctx.buf.At(pos))
		if inx < 0 || inx >= len(ch.RuleSets) {
			return pos, false, nil, nil
		}
		for _, rule := range ch.RuleSets[inx] {
			p, ok := matchChained(ctx, pos, none, none, none,
				glyphValues(rule.Backtrack), glyphValues(rule.Input), glyphValues(rule.Lookahead))
			if ok {
				positions, records = p, rule.Records
				break
			}
		}
	case 2:
		if !sub.Coverage.Contains(ctx.buf.At(pos)) {
			return pos, false, nil, nil
		}
		class := ch.InputClassDef.Lookup(ctx.buf.At(pos))
		if class < 0 || class >= len(ch.RuleSets) {
			return pos, false, nil, nil
		}
		for _, rule := range ch.RuleSets[class] {
			p, ok := matchChained(ctx, pos, ch.BacktrackClassDef, ch.InputClassDef, ch.LookaheadClassDef,
				classValues(rule.Backtrack), classValues(rule.Input), classValues(rule.Lookahead))
			if ok {
				positions, records = p, rule.Records
				break
			}
		}
	case 3:
		if !ch.InputCoverages[0].Contains(ctx.buf.At(pos)) {
			return pos, false, nil, nil
		}
		p, ok := matchChained(ctx, pos, none, none, none,
			coverageValues(ch.BacktrackCoverages),
			coverageValues(ch.InputCoverages[1:]),
			coverageValues(ch.LookaheadCoverages))
		if ok {
			positions, records = p, ch.Records
			stopAtFirst = false
		}
	}
	if positions == nil {
		return pos, false, nil, nil
	}
	return finishContextMatch(ctx, pos, positions, records, stopAtFirst)
}

// finishContextMatch runs the nested lookups of a matched contextual rule
// and computes the continuation position past the input window.
func finishContextMatch(ctx *applyCtx, pos int, positions []int, records []ot.SequenceLookupRecord, stopAtFirst bool) (int, bool, *EditSpan, error) {
	lenBefore := ctx.buf.Len()
	applied, err := applySequenceLookupRecords(ctx, positions, records, stopAtFirst)
	if err != nil {
		return pos, false, nil, err
	}
	if !applied {
		return pos, false, nil, nil
	}
	last := positions[len(positions)-1]
	delta := ctx.buf.Len() - lenBefore
	next := last + 1 + delta
	if next <= pos {
		next = pos + 1
	}
	var edit *EditSpan
	if delta != 0 {
		edit = &EditSpan{From: pos, To: last + 1, Len: last + 1 - pos + delta}
	}
	return next, true, edit, nil
}

// applyReverseChainSubst handles GSUB type 8: single substitution with
// coverage context, driven by a right-to-left walk. The slot count never
// changes, so previously matched lookahead positions stay valid.
func applyReverseChainSubst(ctx *applyCtx, sub *ot.LookupSubtable, pos int) (int, bool, *EditSpan, error) {
	rc := sub.ReverseChain
	inx := sub.Coverage.Index(ctx.buf.At(pos))
	if inx < 0 || inx >= len(rc.Substitutes) {
		return pos, false, nil, nil
	}
	if len(rc.Backtrack) > 0 && !matchSequenceBackward(ctx, pos, ot.ClassDefinitions{}, coverageValues(rc.Backtrack)) {
		return pos, false, nil, nil
	}
	if len(rc.Lookahead) > 0 {
		if _, ok := matchSequenceForward(ctx, pos+1, ot.ClassDefinitions{}, coverageValues(rc.Lookahead)); !ok {
			return pos, false, nil, nil
		}
	}
	ctx.buf.Set(pos, rc.Substitutes[inx])
	return pos + 1, true, nil, nil
}
