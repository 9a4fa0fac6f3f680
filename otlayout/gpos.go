package otlayout

import "github.com/npillmayer/otshaping/ot"

// Appliers for GPOS subtables. Positioning never changes the slot count;
// every applier returns a nil EditSpan. Adjustments accumulate into the
// buffer's positioning state, except mark attachment, which overwrites the
// mark's offset with the computed anchor alignment.

// applyValueRecord adds a value record's adjustments to a slot.
func applyValueRecord(buf *Buffer, pos int, format ot.ValueFormat, v *ot.ValueRecord) {
	if format == 0 {
		return
	}
	p := buf.PosAt(pos)
	if p == nil {
		return
	}
	if format&ot.ValueFormatXPlacement != 0 {
		p.XOffset += int32(v.XPlacement)
	}
	if format&ot.ValueFormatYPlacement != 0 {
		p.YOffset += int32(v.YPlacement)
	}
	if format&ot.ValueFormatXAdvance != 0 {
		p.XAdvance += int32(v.XAdvance)
	}
	if format&ot.ValueFormatYAdvance != 0 {
		p.YAdvance += int32(v.YAdvance)
	}
}

// applySinglePos handles GPOS type 1, formats 1 (one record for all covered
// glyphs) and 2 (one record per coverage index).
func applySinglePos(ctx *applyCtx, sub *ot.LookupSubtable, pos int) (int, bool, *EditSpan, error) {
	inx := sub.Coverage.Index(ctx.buf.At(pos))
	if inx < 0 {
		return pos, false, nil, nil
	}
	sp := sub.SinglePos
	v := &sp.Value
	if sub.Format == 2 {
		if inx >= len(sp.Values) {
			return pos, false, nil, nil
		}
		v = &sp.Values[inx]
	}
	applyValueRecord(ctx.buf, pos, sp.ValueFormat, v)
	return pos + 1, true, nil, nil
}

// applyPairPos handles GPOS type 2. The second glyph of the pair is the
// next slot the lookup flags do not skip. When the second value record is
// empty the pair does not consume the second glyph, so chained pairs like
// kerning triples work.
func applyPairPos(ctx *applyCtx, sub *ot.LookupSubtable, pos int) (int, bool, *EditSpan, error) {
	first := ctx.buf.At(pos)
	inx := sub.Coverage.Index(first)
	if inx < 0 {
		return pos, false, nil, nil
	}
	spos, ok := nextMatchable(ctx, pos+1)
	if !ok {
		return pos, false, nil, nil
	}
	second := ctx.buf.At(spos)
	if second == 0 {
		return pos, false, nil, nil
	}
	pp := sub.PairPos
	var pv *ot.PairValue

	switch sub.Format {
	case 1:
		if inx >= len(pp.PairSets) {
			return pos, false, nil, nil
		}
		for i := range pp.PairSets[inx] {
			if pp.PairSets[inx][i].SecondGlyph == second {
				pv = &pp.PairSets[inx][i].PairValue
				break
			}
		}
	case 2:
		c1 := pp.ClassDef1.Lookup(first)
		c2 := pp.ClassDef2.Lookup(second)
		if c1 < len(pp.ClassRecords) && c2 < len(pp.ClassRecords[c1]) {
			pv = &pp.ClassRecords[c1][c2]
		}
	}
	if pv == nil {
		return pos, false, nil, nil
	}
	applyValueRecord(ctx.buf, pos, pp.ValueFormat1, &pv.Value1)
	if pp.ValueFormat2 != 0 {
		applyValueRecord(ctx.buf, spos, pp.ValueFormat2, &pv.Value2)
		return spos + 1, true, nil, nil
	}
	return spos, true, nil, nil
}

// applyCursivePos handles GPOS type 3: align the exit anchor of the glyph
// at pos with the entry anchor of the following glyph. Left-to-right runs
// only; the exit glyph's advance shrinks or grows to meet the entry point,
// and the entry glyph records its attachment.
func applyCursivePos(ctx *applyCtx, sub *ot.LookupSubtable, pos int) (int, bool, *EditSpan, error) {
	cp := sub.CursivePos
	inx := sub.Coverage.Index(ctx.buf.At(pos))
	if inx < 0 || inx >= len(cp.Exit) || cp.Exit[inx] == nil {
		return pos, false, nil, nil
	}
	npos, ok := nextMatchable(ctx, pos+1)
	if !ok {
		return pos, false, nil, nil
	}
	ninx := sub.Coverage.Index(ctx.buf.At(npos))
	if ninx < 0 || ninx >= len(cp.Entry) || cp.Entry[ninx] == nil {
		return pos, false, nil, nil
	}
	exit, entry := cp.Exit[inx], cp.Entry[ninx]
	p := ctx.buf.PosAt(pos)
	np := ctx.buf.PosAt(npos)
	if p == nil || np == nil {
		return pos, false, nil, nil
	}
	// The exit glyph's advance ends at its exit anchor; the entry glyph
	// shifts so its entry anchor sits on that point.
	p.XAdvance += int32(exit.X) - int32(entry.X)
	np.YOffset += int32(exit.Y) - int32(entry.Y)
	np.AttachedTo = int32(pos)
	np.Attach = AttachCursive
	return npos, true, nil, nil
}

// markAttach aligns a mark's anchor with a base anchor and records the
// attachment. The offset is overwritten, not accumulated: re-running a mark
// lookup yields the same position.
func markAttach(buf *Buffer, markPos, basePos int, markAnchor, baseAnchor *ot.Anchor, kind AttachKind, class uint16) {
	mp := buf.PosAt(markPos)
	if mp == nil {
		return
	}
	mp.XOffset = int32(baseAnchor.X) - int32(markAnchor.X)
	mp.YOffset = int32(baseAnchor.Y) - int32(markAnchor.Y)
	mp.AttachedTo = int32(basePos)
	mp.Attach = kind
	mp.MarkClass = class
}

// applyMarkBasePos handles GPOS type 4: the glyph at pos must be a covered
// mark; the base is the nearest preceding non-skipped glyph in the base
// coverage.
func applyMarkBasePos(ctx *applyCtx, sub *ot.LookupSubtable, pos int) (int, bool, *EditSpan, error) {
	mb := sub.MarkBasePos
	minx := mb.MarkCoverage.Index(ctx.buf.At(pos))
	if minx < 0 || minx >= len(mb.Marks) {
		return pos, false, nil, nil
	}
	bpos, ok := prevMatchable(ctx, pos-1)
	if !ok {
		return pos, false, nil, nil
	}
	binx := mb.BaseCoverage.Index(ctx.buf.At(bpos))
	if binx < 0 || binx >= len(mb.BaseAnchors) {
		return pos, false, nil, nil
	}
	mark := mb.Marks[minx]
	if int(mark.Class) >= len(mb.BaseAnchors[binx]) {
		return pos, false, nil, nil
	}
	base := mb.BaseAnchors[binx][mark.Class]
	if base == nil {
		return pos, false, nil, nil
	}
	markAttach(ctx.buf, pos, bpos, &mark.Anchor, base, AttachMarkToBase, mark.Class)
	return pos + 1, true, nil, nil
}

// applyMarkLigPos handles GPOS type 5. Without cluster bookkeeping the mark
// attaches to the ligature's last component, which is where trailing marks
// belong after ligation.
func applyMarkLigPos(ctx *applyCtx, sub *ot.LookupSubtable, pos int) (int, bool, *EditSpan, error) {
	ml := sub.MarkLigPos
	minx := ml.MarkCoverage.Index(ctx.buf.At(pos))
	if minx < 0 || minx >= len(ml.Marks) {
		return pos, false, nil, nil
	}
	lpos, ok := prevMatchable(ctx, pos-1)
	if !ok {
		return pos, false, nil, nil
	}
	linx := ml.LigatureCoverage.Index(ctx.buf.At(lpos))
	if linx < 0 || linx >= len(ml.LigatureAnchors) {
		return pos, false, nil, nil
	}
	attach := ml.LigatureAnchors[linx]
	if len(attach) == 0 {
		return pos, false, nil, nil
	}
	mark := ml.Marks[minx]
	row := attach[len(attach)-1]
	if int(mark.Class) >= len(row) || row[mark.Class] == nil {
		return pos, false, nil, nil
	}
	markAttach(ctx.buf, pos, lpos, &mark.Anchor, row[mark.Class], AttachMarkToLigature, mark.Class)
	return pos + 1, true, nil, nil
}

// applyMarkMarkPos handles GPOS type 6: a mark attaches to a preceding
// mark of the same attachment group (e.g. stacked diacritics). The
// preceding mark is found without skipping marks, whatever the lookup
// flags say, since both members of the pair are marks.
func applyMarkMarkPos(ctx *applyCtx, sub *ot.LookupSubtable, pos int) (int, bool, *EditSpan, error) {
	mm := sub.MarkMarkPos
	minx := mm.Mark1Coverage.Index(ctx.buf.At(pos))
	if minx < 0 || minx >= len(mm.Mark1s) {
		return pos, false, nil, nil
	}
	if pos == 0 {
		return pos, false, nil, nil
	}
	m2pos := pos - 1
	m2inx := mm.Mark2Coverage.Index(ctx.buf.At(m2pos))
	if m2inx < 0 || m2inx >= len(mm.Mark2Anchors) {
		return pos, false, nil, nil
	}
	mark := mm.Mark1s[minx]
	row := mm.Mark2Anchors[m2inx]
	if int(mark.Class) >= len(row) || row[mark.Class] == nil {
		return pos, false, nil, nil
	}
	markAttach(ctx.buf, pos, m2pos, &mark.Anchor, row[mark.Class], AttachMarkToMark, mark.Class)
	return pos + 1, true, nil, nil
}
