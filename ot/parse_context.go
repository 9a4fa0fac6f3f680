package ot

import "fmt"

// Decoding of sequence-context and chained-sequence-context subtables.
// GSUB types 5/6 and GPOS types 7/8 share these layouts bit for bit, so one
// decoder serves both tables.

// parseSequenceContext decodes formats 1-3 of a (non-chained) sequence
// context subtable. seg starts at the subtable.
func parseSequenceContext(seg binarySegm) (*LookupSubtable, error) {
	format, err := seg.u16(0)
	if err != nil {
		return nil, malformedFont("SequenceContext", "subtable truncated")
	}
	sub := &LookupSubtable{Format: format, SeqContext: &SequenceContext{}}
	ctx := sub.SeqContext
	switch format {
	case 1:
		if sub.Coverage, err = parseCoverageAt(seg, 2, seg); err != nil {
			return nil, err
		}
		if ctx.RuleSets, err = parseRuleSets(seg, 4, seg, false); err != nil {
			return nil, err
		}
	case 2:
		if sub.Coverage, err = parseCoverageAt(seg, 2, seg); err != nil {
			return nil, err
		}
		if ctx.ClassDef, err = parseClassDefAt(seg, 4, seg); err != nil {
			return nil, err
		}
		if ctx.RuleSets, err = parseRuleSets(seg, 6, seg, false); err != nil {
			return nil, err
		}
	case 3:
		glyphCount := int(seg.U16(2))
		recordCount := int(seg.U16(4))
		if glyphCount == 0 {
			return nil, malformedFont("SequenceContext", "format 3 with empty input sequence")
		}
		if ctx.InputCoverages, err = parseCoverageRun(seg, 6, glyphCount, seg); err != nil {
			return nil, err
		}
		if ctx.Records, err = parseSequenceLookupRecords(seg, 6+glyphCount*2, recordCount); err != nil {
			return nil, err
		}
		sub.Coverage = ctx.InputCoverages[0]
	default:
		return nil, invalidFontFile("SequenceContext",
			fmt.Sprintf("sequence context format %d, expected 1, 2 or 3", format))
	}
	return sub, nil
}

// parseChainedContext decodes formats 1-3 of a chained sequence context
// subtable.
func parseChainedContext(seg binarySegm) (*LookupSubtable, error) {
	format, err := seg.u16(0)
	if err != nil {
		return nil, malformedFont("ChainedContext", "subtable truncated")
	}
	sub := &LookupSubtable{Format: format, ChainContext: &ChainedContext{}}
	ctx := sub.ChainContext
	switch format {
	case 1:
		if sub.Coverage, err = parseCoverageAt(seg, 2, seg); err != nil {
			return nil, err
		}
		if ctx.RuleSets, err = parseRuleSets(seg, 4, seg, true); err != nil {
			return nil, err
		}
	case 2:
		if sub.Coverage, err = parseCoverageAt(seg, 2, seg); err != nil {
			return nil, err
		}
		if ctx.BacktrackClassDef, err = parseClassDefAt(seg, 4, seg); err != nil {
			return nil, err
		}
		if ctx.InputClassDef, err = parseClassDefAt(seg, 6, seg); err != nil {
			return nil, err
		}
		if ctx.LookaheadClassDef, err = parseClassDefAt(seg, 8, seg); err != nil {
			return nil, err
		}
		if ctx.RuleSets, err = parseRuleSets(seg, 10, seg, true); err != nil {
			return nil, err
		}
	case 3:
		pos := 2
		if ctx.BacktrackCoverages, pos, err = parseCountedCoverageRun(seg, pos, seg); err != nil {
			return nil, err
		}
		if ctx.InputCoverages, pos, err = parseCountedCoverageRun(seg, pos, seg); err != nil {
			return nil, err
		}
		if len(ctx.InputCoverages) == 0 {
			return nil, malformedFont("ChainedContext", "format 3 with empty input sequence")
		}
		if ctx.LookaheadCoverages, pos, err = parseCountedCoverageRun(seg, pos, seg); err != nil {
			return nil, err
		}
		recordCount := int(seg.U16(pos))
		if ctx.Records, err = parseSequenceLookupRecords(seg, pos+2, recordCount); err != nil {
			return nil, err
		}
		sub.Coverage = ctx.InputCoverages[0]
	default:
		return nil, invalidFontFile("ChainedContext",
			fmt.Sprintf("chained context format %d, expected 1, 2 or 3", format))
	}
	return sub, nil
}

// parseRuleSets reads a uint16 count at b[offset] followed by rule-set
// offsets. A NULL offset yields a nil set, legal for class-keyed sets with
// no rules for that class.
func parseRuleSets(b binarySegm, offset int, base binarySegm, chained bool) ([][]SequenceRule, error) {
	count := int(b.U16(offset))
	sets := make([][]SequenceRule, count)
	for i := 0; i < count; i++ {
		l, err := parseLink16(b, offset+2+i*2, base)
		if err != nil {
			return nil, malformedFont("RuleSet", fmt.Sprintf("truncated rule set offsets at %d of %d", i, count))
		}
		if l.IsNull() {
			continue
		}
		set, err := parseRuleSet(l.Jump(), chained)
		if err != nil {
			return nil, err
		}
		sets[i] = set
	}
	return sets, nil
}

func parseRuleSet(seg binarySegm, chained bool) ([]SequenceRule, error) {
	count, err := seg.u16(0)
	if err != nil {
		return nil, malformedFont("RuleSet", "rule set truncated")
	}
	rules := make([]SequenceRule, 0, count)
	for i := 0; i < int(count); i++ {
		l, err := parseLink16(seg, 2+i*2, seg)
		if err != nil || l.IsNull() {
			return nil, malformedFont("RuleSet", fmt.Sprintf("rule %d offset unreadable", i))
		}
		rule, err := parseRule(l.Jump(), chained)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// parseRule decodes one rule. Non-chained layout is
// (glyphCount, seqLookupCount, input[glyphCount-1], records); chained layout
// is (backtrackCount, backtrack[], inputCount, input[inputCount-1],
// lookaheadCount, lookahead[], seqLookupCount, records).
func parseRule(seg binarySegm, chained bool) (SequenceRule, error) {
	rule := SequenceRule{}
	pos := 0
	var err error
	if chained {
		if rule.Backtrack, pos, err = parseUint16Run(seg, pos, 0); err != nil {
			return rule, malformedFont("SequenceRule", "truncated backtrack sequence")
		}
		if rule.Input, pos, err = parseUint16Run(seg, pos, 1); err != nil {
			return rule, malformedFont("SequenceRule", "truncated input sequence")
		}
		if rule.Lookahead, pos, err = parseUint16Run(seg, pos, 0); err != nil {
			return rule, malformedFont("SequenceRule", "truncated lookahead sequence")
		}
		recordCount := int(seg.U16(pos))
		if rule.Records, err = parseSequenceLookupRecords(seg, pos+2, recordCount); err != nil {
			return rule, err
		}
		return rule, nil
	}
	glyphCount := int(seg.U16(0))
	recordCount := int(seg.U16(2))
	if glyphCount < 1 {
		return rule, malformedFont("SequenceRule", "rule with empty input sequence")
	}
	input, err := seg.glyphs16(4, glyphCount-1)
	if err != nil {
		return rule, malformedFont("SequenceRule", "truncated input sequence")
	}
	rule.Input = glyphsToUint16(input)
	if rule.Records, err = parseSequenceLookupRecords(seg, 4+(glyphCount-1)*2, recordCount); err != nil {
		return rule, err
	}
	return rule, nil
}

// parseUint16Run reads a uint16 count at seg[pos] and count-minus values
// following it. minus is 1 for input sequences, whose first glyph is
// implicit in the coverage anchor.
func parseUint16Run(seg binarySegm, pos, minus int) ([]uint16, int, error) {
	count := int(seg.U16(pos))
	if count < minus {
		return nil, pos, errBufferBounds
	}
	n := count - minus
	values, err := seg.view(pos+2, n*2)
	if err != nil {
		return nil, pos, err
	}
	run := make([]uint16, n)
	for i := range run {
		run[i] = u16(values[i*2:])
	}
	return run, pos + 2 + n*2, nil
}

// parseSequenceLookupRecords reads n (sequenceIndex, lookupListIndex)
// records at seg[offset].
func parseSequenceLookupRecords(seg binarySegm, offset, n int) ([]SequenceLookupRecord, error) {
	data, err := seg.view(offset, n*4)
	if err != nil {
		return nil, malformedFont("SequenceLookupRecords",
			fmt.Sprintf("truncated record array of %d entries", n))
	}
	records := make([]SequenceLookupRecord, n)
	for i := range records {
		records[i] = SequenceLookupRecord{
			SequenceIndex:   u16(data[i*4:]),
			LookupListIndex: u16(data[i*4+2:]),
		}
	}
	return records, nil
}

// parseCoverageRun reads n Offset16 coverage links at b[offset] and decodes
// each coverage table.
func parseCoverageRun(b binarySegm, offset, n int, base binarySegm) ([]Coverage, error) {
	coverages := make([]Coverage, n)
	for i := 0; i < n; i++ {
		cov, err := parseCoverageAt(b, offset+i*2, base)
		if err != nil {
			return nil, err
		}
		coverages[i] = cov
	}
	return coverages, nil
}

// parseCountedCoverageRun reads a uint16 count followed by that many
// coverage links, returning the next read position.
func parseCountedCoverageRun(b binarySegm, offset int, base binarySegm) ([]Coverage, int, error) {
	count := int(b.U16(offset))
	coverages, err := parseCoverageRun(b, offset+2, count, base)
	if err != nil {
		return nil, offset, err
	}
	return coverages, offset + 2 + count*2, nil
}

func glyphsToUint16(glyphs []GlyphIndex) []uint16 {
	run := make([]uint16, len(glyphs))
	for i, g := range glyphs {
		run[i] = uint16(g)
	}
	return run
}
