package ot

import "fmt"

// parseGSubSubtable decodes one GSUB subtable of the given lookup type.
// depth counts extension indirections.
func parseGSubSubtable(lookupType uint16, seg binarySegm, depth int) (*LookupSubtable, error) {
	if depth > MaxExtensionDepth {
		return nil, invalidFontFile("GSubExtension",
			fmt.Sprintf("extension nesting deeper than %d", MaxExtensionDepth))
	}
	var sub *LookupSubtable
	var err error
	switch lookupType {
	case GSubLookupSingle:
		sub, err = parseSingleSubst(seg)
	case GSubLookupMultiple:
		sub, err = parseMultipleSubst(seg)
	case GSubLookupAlternate:
		sub, err = parseAlternateSubst(seg)
	case GSubLookupLigature:
		sub, err = parseLigatureSubst(seg)
	case GSubLookupContext:
		sub, err = parseSequenceContext(seg)
	case GSubLookupChainedCtx:
		sub, err = parseChainedContext(seg)
	case GSubLookupExtension:
		return parseExtension(seg, depth, TagGSub)
	case GSubLookupReverseChain:
		sub, err = parseReverseChainSubst(seg)
	default:
		return nil, invalidFontFile("GSub",
			fmt.Sprintf("lookup type %d, expected 1..8", lookupType))
	}
	if err != nil {
		return nil, err
	}
	sub.Type = lookupType
	return sub, nil
}

// parseExtension resolves an extension subtable (GSUB type 7, GPOS type 9):
// a 32-bit offset to the wrapped subtable plus its real lookup type.
func parseExtension(seg binarySegm, depth int, table Tag) (*LookupSubtable, error) {
	format, err := seg.u16(0)
	if err != nil {
		return nil, malformedFont("Extension", "extension subtable truncated")
	}
	if format != 1 {
		return nil, invalidFontFile("Extension",
			fmt.Sprintf("extension format %d, expected 1", format))
	}
	extType := seg.U16(2)
	extOffset, err := seg.u32(4)
	if err != nil {
		return nil, malformedFont("Extension", "extension offset truncated")
	}
	target := link32{base: seg, offset: extOffset}.Jump()
	if target.Size() == 0 {
		return nil, malformedFont("Extension",
			fmt.Sprintf("extension offset %d outside subtable", extOffset))
	}
	if table == TagGSub {
		if extType == GSubLookupExtension {
			return nil, invalidFontFile("Extension", "extension subtable wraps another extension")
		}
		return parseGSubSubtable(extType, target, depth+1)
	}
	if extType == GPosLookupExtension {
		return nil, invalidFontFile("Extension", "extension subtable wraps another extension")
	}
	return parseGPosSubtable(extType, target, depth+1)
}

func parseSingleSubst(seg binarySegm) (*LookupSubtable, error) {
	format, err := seg.u16(0)
	if err != nil {
		return nil, malformedFont("SingleSubst", "subtable truncated")
	}
	sub := &LookupSubtable{Format: format, Single: &SingleSubst{}}
	if sub.Coverage, err = parseCoverageAt(seg, 2, seg); err != nil {
		return nil, err
	}
	switch format {
	case 1:
		delta, err := seg.u16(4)
		if err != nil {
			return nil, malformedFont("SingleSubst", "delta glyph id truncated")
		}
		sub.Single.Delta = int16(delta)
	case 2:
		count := int(seg.U16(4))
		if sub.Single.Substitutes, err = seg.glyphs16(6, count); err != nil {
			return nil, malformedFont("SingleSubst",
				fmt.Sprintf("truncated substitute array of %d glyphs", count))
		}
	default:
		return nil, invalidFontFile("SingleSubst",
			fmt.Sprintf("single substitution format %d, expected 1 or 2", format))
	}
	return sub, nil
}

func parseMultipleSubst(seg binarySegm) (*LookupSubtable, error) {
	format, err := seg.u16(0)
	if err != nil {
		return nil, malformedFont("MultipleSubst", "subtable truncated")
	}
	if format != 1 {
		return nil, invalidFontFile("MultipleSubst",
			fmt.Sprintf("multiple substitution format %d, expected 1", format))
	}
	sub := &LookupSubtable{Format: format, Multiple: &MultipleSubst{}}
	if sub.Coverage, err = parseCoverageAt(seg, 2, seg); err != nil {
		return nil, err
	}
	count := int(seg.U16(4))
	sub.Multiple.Sequences = make([][]GlyphIndex, count)
	for i := 0; i < count; i++ {
		l, err := parseLink16(seg, 6+i*2, seg)
		if err != nil || l.IsNull() {
			return nil, malformedFont("MultipleSubst", fmt.Sprintf("sequence %d offset unreadable", i))
		}
		sequence := l.Jump()
		glyphCount := int(sequence.U16(0))
		if sub.Multiple.Sequences[i], err = sequence.glyphs16(2, glyphCount); err != nil {
			return nil, malformedFont("MultipleSubst",
				fmt.Sprintf("sequence %d truncated at %d glyphs", i, glyphCount))
		}
	}
	return sub, nil
}

func parseAlternateSubst(seg binarySegm) (*LookupSubtable, error) {
	format, err := seg.u16(0)
	if err != nil {
		return nil, malformedFont("AlternateSubst", "subtable truncated")
	}
	if format != 1 {
		return nil, invalidFontFile("AlternateSubst",
			fmt.Sprintf("alternate substitution format %d, expected 1", format))
	}
	sub := &LookupSubtable{Format: format, Alternate: &AlternateSubst{}}
	if sub.Coverage, err = parseCoverageAt(seg, 2, seg); err != nil {
		return nil, err
	}
	count := int(seg.U16(4))
	sub.Alternate.Alternates = make([][]GlyphIndex, count)
	for i := 0; i < count; i++ {
		l, err := parseLink16(seg, 6+i*2, seg)
		if err != nil || l.IsNull() {
			return nil, malformedFont("AlternateSubst", fmt.Sprintf("alternate set %d offset unreadable", i))
		}
		set := l.Jump()
		glyphCount := int(set.U16(0))
		if sub.Alternate.Alternates[i], err = set.glyphs16(2, glyphCount); err != nil {
			return nil, malformedFont("AlternateSubst",
				fmt.Sprintf("alternate set %d truncated at %d glyphs", i, glyphCount))
		}
	}
	return sub, nil
}

func parseLigatureSubst(seg binarySegm) (*LookupSubtable, error) {
	format, err := seg.u16(0)
	if err != nil {
		return nil, malformedFont("LigatureSubst", "subtable truncated")
	}
	if format != 1 {
		return nil, invalidFontFile("LigatureSubst",
			fmt.Sprintf("ligature substitution format %d, expected 1", format))
	}
	sub := &LookupSubtable{Format: format, Ligature: &LigatureSubst{}}
	if sub.Coverage, err = parseCoverageAt(seg, 2, seg); err != nil {
		return nil, err
	}
	setCount := int(seg.U16(4))
	sub.Ligature.LigatureSets = make([][]LigatureRule, setCount)
	for i := 0; i < setCount; i++ {
		l, err := parseLink16(seg, 6+i*2, seg)
		if err != nil || l.IsNull() {
			return nil, malformedFont("LigatureSubst", fmt.Sprintf("ligature set %d offset unreadable", i))
		}
		set := l.Jump()
		ligCount := int(set.U16(0))
		rules := make([]LigatureRule, 0, ligCount)
		for j := 0; j < ligCount; j++ {
			ll, err := parseLink16(set, 2+j*2, set)
			if err != nil || ll.IsNull() {
				return nil, malformedFont("LigatureSubst",
					fmt.Sprintf("ligature %d of set %d offset unreadable", j, i))
			}
			rule, err := parseLigatureRule(ll.Jump())
			if err != nil {
				return nil, err
			}
			rules = append(rules, rule)
		}
		sub.Ligature.LigatureSets[i] = rules
	}
	return sub, nil
}

// parseLigatureRule decodes one ligature: the resulting glyph, a component
// count, and componentCount-1 component glyphs (the first component is the
// covered glyph).
func parseLigatureRule(seg binarySegm) (LigatureRule, error) {
	if seg.Size() < 4 {
		return LigatureRule{}, malformedFont("LigatureSubst", "ligature table truncated")
	}
	lig := GlyphIndex(seg.U16(0))
	compCount := int(seg.U16(2))
	if compCount < 1 {
		return LigatureRule{}, malformedFont("LigatureSubst",
			fmt.Sprintf("ligature with component count %d", compCount))
	}
	components, err := seg.glyphs16(4, compCount-1)
	if err != nil {
		return LigatureRule{}, malformedFont("LigatureSubst",
			fmt.Sprintf("truncated component array of %d glyphs", compCount-1))
	}
	return LigatureRule{Ligature: lig, Components: components}, nil
}

func parseReverseChainSubst(seg binarySegm) (*LookupSubtable, error) {
	format, err := seg.u16(0)
	if err != nil {
		return nil, malformedFont("ReverseChainSubst", "subtable truncated")
	}
	if format != 1 {
		return nil, invalidFontFile("ReverseChainSubst",
			fmt.Sprintf("reverse chaining format %d, expected 1", format))
	}
	sub := &LookupSubtable{Format: format, ReverseChain: &ReverseChainSubst{}}
	rcs := sub.ReverseChain
	if sub.Coverage, err = parseCoverageAt(seg, 2, seg); err != nil {
		return nil, err
	}
	pos := 4
	if rcs.Backtrack, pos, err = parseCountedCoverageRun(seg, pos, seg); err != nil {
		return nil, err
	}
	if rcs.Lookahead, pos, err = parseCountedCoverageRun(seg, pos, seg); err != nil {
		return nil, err
	}
	glyphCount := int(seg.U16(pos))
	if rcs.Substitutes, err = seg.glyphs16(pos+2, glyphCount); err != nil {
		return nil, malformedFont("ReverseChainSubst",
			fmt.Sprintf("truncated substitute array of %d glyphs", glyphCount))
	}
	if glyphCount != sub.Coverage.Count() {
		return nil, malformedFont("ReverseChainSubst",
			fmt.Sprintf("substitute count %d does not match coverage of %d glyphs",
				glyphCount, sub.Coverage.Count()))
	}
	return sub, nil
}
