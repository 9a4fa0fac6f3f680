package ot

import "fmt"

// parseGPosSubtable decodes one GPOS subtable of the given lookup type.
// depth counts extension indirections.
func parseGPosSubtable(lookupType uint16, seg binarySegm, depth int) (*LookupSubtable, error) {
	if depth > MaxExtensionDepth {
		return nil, invalidFontFile("GPosExtension",
			fmt.Sprintf("extension nesting deeper than %d", MaxExtensionDepth))
	}
	var sub *LookupSubtable
	var err error
	switch lookupType {
	case GPosLookupSingle:
		sub, err = parseSinglePos(seg)
	case GPosLookupPair:
		sub, err = parsePairPos(seg)
	case GPosLookupCursive:
		sub, err = parseCursivePos(seg)
	case GPosLookupMarkToBase:
		sub, err = parseMarkBasePos(seg)
	case GPosLookupMarkToLig:
		sub, err = parseMarkLigPos(seg)
	case GPosLookupMarkToMark:
		sub, err = parseMarkMarkPos(seg)
	case GPosLookupContext:
		sub, err = parseSequenceContext(seg)
	case GPosLookupChainedCtx:
		sub, err = parseChainedContext(seg)
	case GPosLookupExtension:
		return parseExtension(seg, depth, TagGPos)
	default:
		return nil, invalidFontFile("GPos",
			fmt.Sprintf("lookup type %d, expected 1..9", lookupType))
	}
	if err != nil {
		return nil, err
	}
	sub.Type = lookupType
	return sub, nil
}

// parseValueRecord reads a value record at seg[offset] with the fields
// declared in format, returning the next read position.
func parseValueRecord(seg binarySegm, offset int, format ValueFormat) (ValueRecord, int, error) {
	data, err := seg.view(offset, format.Size())
	if err != nil {
		return ValueRecord{}, offset, malformedFont("ValueRecord", "truncated value record")
	}
	vr := ValueRecord{}
	pos := 0
	read := func() uint16 {
		v := u16(data[pos:])
		pos += 2
		return v
	}
	if format&ValueFormatXPlacement != 0 {
		vr.XPlacement = int16(read())
	}
	if format&ValueFormatYPlacement != 0 {
		vr.YPlacement = int16(read())
	}
	if format&ValueFormatXAdvance != 0 {
		vr.XAdvance = int16(read())
	}
	if format&ValueFormatYAdvance != 0 {
		vr.YAdvance = int16(read())
	}
	if format&ValueFormatXPlaDevice != 0 {
		vr.XPlaDevice = read()
	}
	if format&ValueFormatYPlaDevice != 0 {
		vr.YPlaDevice = read()
	}
	if format&ValueFormatXAdvDevice != 0 {
		vr.XAdvDevice = read()
	}
	if format&ValueFormatYAdvDevice != 0 {
		vr.YAdvDevice = read()
	}
	return vr, offset + pos, nil
}

// parseAnchor decodes an anchor table. A NULL link yields nil.
func parseAnchor(l link16) (*Anchor, error) {
	if l.IsNull() {
		return nil, nil
	}
	seg := l.Jump()
	format, err := seg.u16(0)
	if err != nil {
		return nil, malformedFont("Anchor", "anchor table truncated")
	}
	if seg.Size() < 6 {
		return nil, malformedFont("Anchor", "anchor table truncated")
	}
	a := &Anchor{Format: format, X: int16(seg.U16(2)), Y: int16(seg.U16(4))}
	switch format {
	case 1:
	case 2:
		point, err := seg.u16(6)
		if err != nil {
			return nil, malformedFont("Anchor", "anchor point truncated")
		}
		a.AnchorPoint = point
	case 3:
		if seg.Size() < 10 {
			return nil, malformedFont("Anchor", "device table offsets truncated")
		}
		a.XDeviceTable = seg.U16(6)
		a.YDeviceTable = seg.U16(8)
	default:
		return nil, invalidFontFile("Anchor",
			fmt.Sprintf("anchor format %d, expected 1, 2 or 3", format))
	}
	return a, nil
}

func parseSinglePos(seg binarySegm) (*LookupSubtable, error) {
	format, err := seg.u16(0)
	if err != nil {
		return nil, malformedFont("SinglePos", "subtable truncated")
	}
	sub := &LookupSubtable{Format: format, SinglePos: &SinglePos{}}
	if sub.Coverage, err = parseCoverageAt(seg, 2, seg); err != nil {
		return nil, err
	}
	sub.SinglePos.ValueFormat = ValueFormat(seg.U16(4))
	switch format {
	case 1:
		if sub.SinglePos.Value, _, err = parseValueRecord(seg, 6, sub.SinglePos.ValueFormat); err != nil {
			return nil, err
		}
	case 2:
		count := int(seg.U16(6))
		sub.SinglePos.Values = make([]ValueRecord, count)
		pos := 8
		for i := 0; i < count; i++ {
			if sub.SinglePos.Values[i], pos, err = parseValueRecord(seg, pos, sub.SinglePos.ValueFormat); err != nil {
				return nil, err
			}
		}
	default:
		return nil, invalidFontFile("SinglePos",
			fmt.Sprintf("single positioning format %d, expected 1 or 2", format))
	}
	return sub, nil
}

func parsePairPos(seg binarySegm) (*LookupSubtable, error) {
	format, err := seg.u16(0)
	if err != nil {
		return nil, malformedFont("PairPos", "subtable truncated")
	}
	sub := &LookupSubtable{Format: format, PairPos: &PairPos{}}
	pp := sub.PairPos
	if sub.Coverage, err = parseCoverageAt(seg, 2, seg); err != nil {
		return nil, err
	}
	pp.ValueFormat1 = ValueFormat(seg.U16(4))
	pp.ValueFormat2 = ValueFormat(seg.U16(6))
	switch format {
	case 1:
		setCount := int(seg.U16(8))
		pp.PairSets = make([][]PairValueRecord, setCount)
		for i := 0; i < setCount; i++ {
			l, err := parseLink16(seg, 10+i*2, seg)
			if err != nil || l.IsNull() {
				return nil, malformedFont("PairPos", fmt.Sprintf("pair set %d offset unreadable", i))
			}
			if pp.PairSets[i], err = parsePairSet(l.Jump(), pp.ValueFormat1, pp.ValueFormat2); err != nil {
				return nil, err
			}
		}
	case 2:
		if pp.ClassDef1, err = parseClassDefAt(seg, 8, seg); err != nil {
			return nil, err
		}
		if pp.ClassDef2, err = parseClassDefAt(seg, 10, seg); err != nil {
			return nil, err
		}
		pp.Class1Count = seg.U16(12)
		pp.Class2Count = seg.U16(14)
		pp.ClassRecords = make([][]PairValue, pp.Class1Count)
		pos := 16
		for c1 := 0; c1 < int(pp.Class1Count); c1++ {
			row := make([]PairValue, pp.Class2Count)
			for c2 := 0; c2 < int(pp.Class2Count); c2++ {
				if row[c2].Value1, pos, err = parseValueRecord(seg, pos, pp.ValueFormat1); err != nil {
					return nil, err
				}
				if row[c2].Value2, pos, err = parseValueRecord(seg, pos, pp.ValueFormat2); err != nil {
					return nil, err
				}
			}
			pp.ClassRecords[c1] = row
		}
	default:
		return nil, invalidFontFile("PairPos",
			fmt.Sprintf("pair positioning format %d, expected 1 or 2", format))
	}
	return sub, nil
}

func parsePairSet(seg binarySegm, f1, f2 ValueFormat) ([]PairValueRecord, error) {
	count, err := seg.u16(0)
	if err != nil {
		return nil, malformedFont("PairPos", "pair set truncated")
	}
	records := make([]PairValueRecord, count)
	pos := 2
	for i := range records {
		g, err := seg.u16(pos)
		if err != nil {
			return nil, malformedFont("PairPos", fmt.Sprintf("pair value record %d truncated", i))
		}
		records[i].SecondGlyph = GlyphIndex(g)
		pos += 2
		if records[i].Value1, pos, err = parseValueRecord(seg, pos, f1); err != nil {
			return nil, err
		}
		if records[i].Value2, pos, err = parseValueRecord(seg, pos, f2); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func parseCursivePos(seg binarySegm) (*LookupSubtable, error) {
	format, err := seg.u16(0)
	if err != nil {
		return nil, malformedFont("CursivePos", "subtable truncated")
	}
	if format != 1 {
		return nil, invalidFontFile("CursivePos",
			fmt.Sprintf("cursive positioning format %d, expected 1", format))
	}
	sub := &LookupSubtable{Format: format, CursivePos: &CursivePos{}}
	cp := sub.CursivePos
	if sub.Coverage, err = parseCoverageAt(seg, 2, seg); err != nil {
		return nil, err
	}
	count := int(seg.U16(4))
	cp.Entry = make([]*Anchor, count)
	cp.Exit = make([]*Anchor, count)
	for i := 0; i < count; i++ {
		entry, err := parseLink16(seg, 6+i*4, seg)
		if err != nil {
			return nil, malformedFont("CursivePos", fmt.Sprintf("entry/exit record %d truncated", i))
		}
		exit, err := parseLink16(seg, 8+i*4, seg)
		if err != nil {
			return nil, malformedFont("CursivePos", fmt.Sprintf("entry/exit record %d truncated", i))
		}
		if cp.Entry[i], err = parseAnchor(entry); err != nil {
			return nil, err
		}
		if cp.Exit[i], err = parseAnchor(exit); err != nil {
			return nil, err
		}
	}
	return sub, nil
}

// parseMarkArray decodes a mark array: per mark, a class and an anchor with
// its offset relative to the mark array itself.
func parseMarkArray(seg binarySegm) ([]MarkRecord, error) {
	count, err := seg.u16(0)
	if err != nil {
		return nil, malformedFont("MarkArray", "mark array truncated")
	}
	marks := make([]MarkRecord, count)
	for i := range marks {
		rec, err := seg.view(2+i*4, 4)
		if err != nil {
			return nil, malformedFont("MarkArray", fmt.Sprintf("mark record %d truncated", i))
		}
		marks[i].Class = u16(rec)
		anchor, err := parseAnchor(link16{base: seg, offset: u16(rec[2:])})
		if err != nil {
			return nil, err
		}
		if anchor == nil {
			return nil, malformedFont("MarkArray", fmt.Sprintf("mark record %d without anchor", i))
		}
		marks[i].Anchor = *anchor
	}
	return marks, nil
}

// parseAnchorMatrix decodes a base-array-like structure: a uint16 row count
// followed by rows of classCount anchor offsets, relative to the matrix
// segment. NULL offsets yield nil anchors.
func parseAnchorMatrix(seg binarySegm, classCount int, section string) ([][]*Anchor, error) {
	count, err := seg.u16(0)
	if err != nil {
		return nil, malformedFont(section, "anchor matrix truncated")
	}
	rows := make([][]*Anchor, count)
	for i := range rows {
		row := make([]*Anchor, classCount)
		for c := 0; c < classCount; c++ {
			l, err := parseLink16(seg, 2+(i*classCount+c)*2, seg)
			if err != nil {
				return nil, malformedFont(section, fmt.Sprintf("anchor offset [%d][%d] truncated", i, c))
			}
			if row[c], err = parseAnchor(l); err != nil {
				return nil, err
			}
		}
		rows[i] = row
	}
	return rows, nil
}

func parseMarkBasePos(seg binarySegm) (*LookupSubtable, error) {
	format, err := seg.u16(0)
	if err != nil {
		return nil, malformedFont("MarkBasePos", "subtable truncated")
	}
	if format != 1 {
		return nil, invalidFontFile("MarkBasePos",
			fmt.Sprintf("mark-to-base format %d, expected 1", format))
	}
	sub := &LookupSubtable{Format: format, MarkBasePos: &MarkBasePos{}}
	mb := sub.MarkBasePos
	if mb.MarkCoverage, err = parseCoverageAt(seg, 2, seg); err != nil {
		return nil, err
	}
	sub.Coverage = mb.MarkCoverage
	if mb.BaseCoverage, err = parseCoverageAt(seg, 4, seg); err != nil {
		return nil, err
	}
	mb.ClassCount = seg.U16(6)
	markLink, err := parseLink16(seg, 8, seg)
	if err != nil || markLink.IsNull() {
		return nil, malformedFont("MarkBasePos", "mark array offset unreadable")
	}
	if mb.Marks, err = parseMarkArray(markLink.Jump()); err != nil {
		return nil, err
	}
	baseLink, err := parseLink16(seg, 10, seg)
	if err != nil || baseLink.IsNull() {
		return nil, malformedFont("MarkBasePos", "base array offset unreadable")
	}
	if mb.BaseAnchors, err = parseAnchorMatrix(baseLink.Jump(), int(mb.ClassCount), "MarkBasePos"); err != nil {
		return nil, err
	}
	return sub, nil
}

func parseMarkLigPos(seg binarySegm) (*LookupSubtable, error) {
	format, err := seg.u16(0)
	if err != nil {
		return nil, malformedFont("MarkLigPos", "subtable truncated")
	}
	if format != 1 {
		return nil, invalidFontFile("MarkLigPos",
			fmt.Sprintf("mark-to-ligature format %d, expected 1", format))
	}
	sub := &LookupSubtable{Format: format, MarkLigPos: &MarkLigPos{}}
	ml := sub.MarkLigPos
	if ml.MarkCoverage, err = parseCoverageAt(seg, 2, seg); err != nil {
		return nil, err
	}
	sub.Coverage = ml.MarkCoverage
	if ml.LigatureCoverage, err = parseCoverageAt(seg, 4, seg); err != nil {
		return nil, err
	}
	ml.ClassCount = seg.U16(6)
	markLink, err := parseLink16(seg, 8, seg)
	if err != nil || markLink.IsNull() {
		return nil, malformedFont("MarkLigPos", "mark array offset unreadable")
	}
	if ml.Marks, err = parseMarkArray(markLink.Jump()); err != nil {
		return nil, err
	}
	arrLink, err := parseLink16(seg, 10, seg)
	if err != nil || arrLink.IsNull() {
		return nil, malformedFont("MarkLigPos", "ligature array offset unreadable")
	}
	ligArray := arrLink.Jump()
	ligCount, err := ligArray.u16(0)
	if err != nil {
		return nil, malformedFont("MarkLigPos", "ligature array truncated")
	}
	ml.LigatureAnchors = make([][][]*Anchor, ligCount)
	for i := 0; i < int(ligCount); i++ {
		l, err := parseLink16(ligArray, 2+i*2, ligArray)
		if err != nil || l.IsNull() {
			return nil, malformedFont("MarkLigPos", fmt.Sprintf("ligature attach %d offset unreadable", i))
		}
		if ml.LigatureAnchors[i], err = parseAnchorMatrix(l.Jump(), int(ml.ClassCount), "MarkLigPos"); err != nil {
			return nil, err
		}
	}
	return sub, nil
}

func parseMarkMarkPos(seg binarySegm) (*LookupSubtable, error) {
	format, err := seg.u16(0)
	if err != nil {
		return nil, malformedFont("MarkMarkPos", "subtable truncated")
	}
	if format != 1 {
		return nil, invalidFontFile("MarkMarkPos",
			fmt.Sprintf("mark-to-mark format %d, expected 1", format))
	}
	sub := &LookupSubtable{Format: format, MarkMarkPos: &MarkMarkPos{}}
	mm := sub.MarkMarkPos
	if mm.Mark1Coverage, err = parseCoverageAt(seg, 2, seg); err != nil {
		return nil, err
	}
	sub.Coverage = mm.Mark1Coverage
	if mm.Mark2Coverage, err = parseCoverageAt(seg, 4, seg); err != nil {
		return nil, err
	}
	mm.ClassCount = seg.U16(6)
	markLink, err := parseLink16(seg, 8, seg)
	if err != nil || markLink.IsNull() {
		return nil, malformedFont("MarkMarkPos", "mark1 array offset unreadable")
	}
	if mm.Mark1s, err = parseMarkArray(markLink.Jump()); err != nil {
		return nil, err
	}
	mark2Link, err := parseLink16(seg, 10, seg)
	if err != nil || mark2Link.IsNull() {
		return nil, malformedFont("MarkMarkPos", "mark2 array offset unreadable")
	}
	if mm.Mark2Anchors, err = parseAnchorMatrix(mark2Link.Jump(), int(mm.ClassCount), "MarkMarkPos"); err != nil {
		return nil, err
	}
	return sub, nil
}
