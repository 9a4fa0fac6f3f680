package otlayout

import (
	"testing"

	"github.com/npillmayer/otshaping/ot"
)

// Binary fixtures for lookup application tests. Subtable fragments are
// assembled bottom-up with tb, a builder with patchable offset slots, and
// wrapped into a complete GSUB or GPOS blob for ot.ParseLayoutTable.

type tb struct {
	b []byte
}

func (t *tb) u16(vals ...uint16) *tb {
	for _, v := range vals {
		t.b = append(t.b, byte(v>>8), byte(v))
	}
	return t
}

// slot appends a zero offset word and returns its byte position for a
// later patch.
func (t *tb) slot() int {
	pos := len(t.b)
	t.u16(0)
	return pos
}

func (t *tb) patch(slot int, v uint16) {
	t.b[slot] = byte(v >> 8)
	t.b[slot+1] = byte(v)
}

// child patches slot with the current length and appends data, making data
// a subtable at an offset relative to the builder's start.
func (t *tb) child(slot int, data []byte) *tb {
	t.patch(slot, uint16(len(t.b)))
	t.b = append(t.b, data...)
	return t
}

func (t *tb) bytes() []byte {
	return t.b
}

func bw16(vals ...uint16) []byte {
	return (&tb{}).u16(vals...).bytes()
}

// --- Shared table fragments -----------------------------------------------

func covF1(glyphs ...uint16) []byte {
	return (&tb{}).u16(1, uint16(len(glyphs))).u16(glyphs...).bytes()
}

// covF2 takes (start, end, startCoverageIndex) triples.
func covF2(ranges ...[3]uint16) []byte {
	t := (&tb{}).u16(2, uint16(len(ranges)))
	for _, r := range ranges {
		t.u16(r[0], r[1], r[2])
	}
	return t.bytes()
}

// classDefF2 takes (start, end, class) triples.
func classDefF2(ranges ...[3]uint16) []byte {
	t := (&tb{}).u16(2, uint16(len(ranges)))
	for _, r := range ranges {
		t.u16(r[0], r[1], r[2])
	}
	return t.bytes()
}

// --- GSUB subtables -------------------------------------------------------

func singleSubstF1(delta uint16, cov []byte) []byte {
	t := &tb{}
	t.u16(1)
	c := t.slot()
	t.u16(delta)
	t.child(c, cov)
	return t.bytes()
}

func singleSubstF2(cov []byte, substitutes ...uint16) []byte {
	t := &tb{}
	t.u16(2)
	c := t.slot()
	t.u16(uint16(len(substitutes))).u16(substitutes...)
	t.child(c, cov)
	return t.bytes()
}

// multipleSubst also serves alternate substitution, the layouts agree.
func multipleSubst(cov []byte, seqs ...[]uint16) []byte {
	t := &tb{}
	t.u16(1)
	c := t.slot()
	t.u16(uint16(len(seqs)))
	slots := make([]int, len(seqs))
	for i := range seqs {
		slots[i] = t.slot()
	}
	t.child(c, cov)
	for i, seq := range seqs {
		t.child(slots[i], (&tb{}).u16(uint16(len(seq))).u16(seq...).bytes())
	}
	return t.bytes()
}

type ligRule struct {
	lig   uint16
	comps []uint16 // glyphs following the first
}

func ligatureSubst(cov []byte, sets ...[]ligRule) []byte {
	t := &tb{}
	t.u16(1)
	c := t.slot()
	t.u16(uint16(len(sets)))
	setSlots := make([]int, len(sets))
	for i := range sets {
		setSlots[i] = t.slot()
	}
	t.child(c, cov)
	for i, set := range sets {
		s := &tb{}
		s.u16(uint16(len(set)))
		ruleSlots := make([]int, len(set))
		for j := range set {
			ruleSlots[j] = s.slot()
		}
		for j, r := range set {
			s.child(ruleSlots[j], (&tb{}).u16(r.lig, uint16(len(r.comps)+1)).u16(r.comps...).bytes())
		}
		t.child(setSlots[i], s.bytes())
	}
	return t.bytes()
}

// ctxRule is a non-chained rule: input holds the second glyph (or class)
// onward, recs holds flattened (sequenceIndex, lookupIndex) pairs.
type ctxRule struct {
	input []uint16
	recs  []uint16
}

func ctxRuleBytes(r ctxRule) []byte {
	return (&tb{}).
		u16(uint16(len(r.input)+1), uint16(len(r.recs)/2)).
		u16(r.input...).
		u16(r.recs...).
		bytes()
}

func ruleSetBytes(rules []ctxRule) []byte {
	t := &tb{}
	t.u16(uint16(len(rules)))
	slots := make([]int, len(rules))
	for i := range rules {
		slots[i] = t.slot()
	}
	for i, r := range rules {
		t.child(slots[i], ctxRuleBytes(r))
	}
	return t.bytes()
}

func seqContextF1(cov []byte, ruleSets ...[]ctxRule) []byte {
	t := &tb{}
	t.u16(1)
	c := t.slot()
	t.u16(uint16(len(ruleSets)))
	slots := make([]int, len(ruleSets))
	for i := range ruleSets {
		slots[i] = t.slot()
	}
	t.child(c, cov)
	for i, rs := range ruleSets {
		t.child(slots[i], ruleSetBytes(rs))
	}
	return t.bytes()
}

func seqContextF2(cov, classDef []byte, ruleSets ...[]ctxRule) []byte {
	t := &tb{}
	t.u16(2)
	c := t.slot()
	cd := t.slot()
	t.u16(uint16(len(ruleSets)))
	slots := make([]int, len(ruleSets))
	for i := range ruleSets {
		slots[i] = t.slot()
	}
	t.child(c, cov)
	t.child(cd, classDef)
	for i, rs := range ruleSets {
		t.child(slots[i], ruleSetBytes(rs))
	}
	return t.bytes()
}

func seqContextF3(recs []uint16, inputCovs ...[]byte) []byte {
	t := &tb{}
	t.u16(3, uint16(len(inputCovs)), uint16(len(recs)/2))
	slots := make([]int, len(inputCovs))
	for i := range inputCovs {
		slots[i] = t.slot()
	}
	t.u16(recs...)
	for i, cov := range inputCovs {
		t.child(slots[i], cov)
	}
	return t.bytes()
}

// chainRule is a chained rule: backtrack nearest-first, input from the
// second glyph onward.
type chainRule struct {
	backtrack []uint16
	input     []uint16
	lookahead []uint16
	recs      []uint16
}

func chainRuleBytes(r chainRule) []byte {
	return (&tb{}).
		u16(uint16(len(r.backtrack))).u16(r.backtrack...).
		u16(uint16(len(r.input) + 1)).u16(r.input...).
		u16(uint16(len(r.lookahead))).u16(r.lookahead...).
		u16(uint16(len(r.recs) / 2)).u16(r.recs...).
		bytes()
}

func chainRuleSetBytes(rules []chainRule) []byte {
	t := &tb{}
	t.u16(uint16(len(rules)))
	slots := make([]int, len(rules))
	for i := range rules {
		slots[i] = t.slot()
	}
	for i, r := range rules {
		t.child(slots[i], chainRuleBytes(r))
	}
	return t.bytes()
}

func chainContextF1(cov []byte, ruleSets ...[]chainRule) []byte {
	t := &tb{}
	t.u16(1)
	c := t.slot()
	t.u16(uint16(len(ruleSets)))
	slots := make([]int, len(ruleSets))
	for i := range ruleSets {
		slots[i] = t.slot()
	}
	t.child(c, cov)
	for i, rs := range ruleSets {
		t.child(slots[i], chainRuleSetBytes(rs))
	}
	return t.bytes()
}

func chainContextF2(cov, btDef, inDef, laDef []byte, ruleSets ...[]chainRule) []byte {
	t := &tb{}
	t.u16(2)
	c := t.slot()
	bt := t.slot()
	in := t.slot()
	la := t.slot()
	t.u16(uint16(len(ruleSets)))
	slots := make([]int, len(ruleSets))
	for i := range ruleSets {
		slots[i] = t.slot()
	}
	t.child(c, cov)
	t.child(bt, btDef)
	t.child(in, inDef)
	t.child(la, laDef)
	for i, rs := range ruleSets {
		t.child(slots[i], chainRuleSetBytes(rs))
	}
	return t.bytes()
}

func chainContextF3(btCovs, inCovs, laCovs [][]byte, recs []uint16) []byte {
	t := &tb{}
	t.u16(3)
	appendRun := func(covs [][]byte) []int {
		t.u16(uint16(len(covs)))
		slots := make([]int, len(covs))
		for i := range covs {
			slots[i] = t.slot()
		}
		return slots
	}
	btSlots := appendRun(btCovs)
	inSlots := appendRun(inCovs)
	laSlots := appendRun(laCovs)
	t.u16(uint16(len(recs) / 2)).u16(recs...)
	for i, cov := range btCovs {
		t.child(btSlots[i], cov)
	}
	for i, cov := range inCovs {
		t.child(inSlots[i], cov)
	}
	for i, cov := range laCovs {
		t.child(laSlots[i], cov)
	}
	return t.bytes()
}

func reverseChainSubst(cov []byte, btCovs, laCovs [][]byte, substitutes ...uint16) []byte {
	t := &tb{}
	t.u16(1)
	c := t.slot()
	t.u16(uint16(len(btCovs)))
	btSlots := make([]int, len(btCovs))
	for i := range btCovs {
		btSlots[i] = t.slot()
	}
	t.u16(uint16(len(laCovs)))
	laSlots := make([]int, len(laCovs))
	for i := range laCovs {
		laSlots[i] = t.slot()
	}
	t.u16(uint16(len(substitutes))).u16(substitutes...)
	t.child(c, cov)
	for i, bc := range btCovs {
		t.child(btSlots[i], bc)
	}
	for i, lc := range laCovs {
		t.child(laSlots[i], lc)
	}
	return t.bytes()
}

func extensionSubst(extType uint16, wrapped []byte) []byte {
	t := &tb{}
	t.u16(1, extType)
	// 32-bit offset to the wrapped subtable, which follows directly.
	t.u16(0, 8)
	t.b = append(t.b, wrapped...)
	return t.bytes()
}

// --- GPOS subtables -------------------------------------------------------

// Value formats used across the positioning fixtures.
const (
	vfXPlacement = 0x0001
	vfYPlacement = 0x0002
	vfXAdvance   = 0x0004
)

func singlePosF1(cov []byte, vf uint16, value ...uint16) []byte {
	t := &tb{}
	t.u16(1)
	c := t.slot()
	t.u16(vf).u16(value...)
	t.child(c, cov)
	return t.bytes()
}

func singlePosF2(cov []byte, vf uint16, values ...[]uint16) []byte {
	t := &tb{}
	t.u16(2)
	c := t.slot()
	t.u16(vf, uint16(len(values)))
	for _, v := range values {
		t.u16(v...)
	}
	t.child(c, cov)
	return t.bytes()
}

// pairPosF1 takes pre-assembled pair sets: count followed by
// (secondGlyph, value1 fields, value2 fields) records.
func pairPosF1(cov []byte, vf1, vf2 uint16, pairSets ...[]byte) []byte {
	t := &tb{}
	t.u16(1)
	c := t.slot()
	t.u16(vf1, vf2, uint16(len(pairSets)))
	slots := make([]int, len(pairSets))
	for i := range pairSets {
		slots[i] = t.slot()
	}
	t.child(c, cov)
	for i, ps := range pairSets {
		t.child(slots[i], ps)
	}
	return t.bytes()
}

// pairPosF2 takes the class matrix as flattened value fields, row-major
// over class1 x class2.
func pairPosF2(cov, cd1, cd2 []byte, vf1, vf2, c1n, c2n uint16, matrix ...uint16) []byte {
	t := &tb{}
	t.u16(2)
	c := t.slot()
	t.u16(vf1, vf2)
	d1 := t.slot()
	d2 := t.slot()
	t.u16(c1n, c2n).u16(matrix...)
	t.child(c, cov)
	t.child(d1, cd1)
	t.child(d2, cd2)
	return t.bytes()
}

func anchorBytes(x, y uint16) []byte {
	return bw16(1, x, y)
}

// cursivePos takes per-coverage-index (entry, exit) anchor pairs; nil means
// no anchor.
func cursivePos(cov []byte, entryExit ...[2][]byte) []byte {
	t := &tb{}
	t.u16(1)
	c := t.slot()
	t.u16(uint16(len(entryExit)))
	slots := make([][2]int, len(entryExit))
	for i := range entryExit {
		slots[i] = [2]int{t.slot(), t.slot()}
	}
	t.child(c, cov)
	for i, ee := range entryExit {
		for k := 0; k < 2; k++ {
			if ee[k] != nil {
				t.child(slots[i][k], ee[k])
			}
		}
	}
	return t.bytes()
}

type markRec struct {
	class  uint16
	anchor []byte
}

func markArrayBytes(marks ...markRec) []byte {
	t := &tb{}
	t.u16(uint16(len(marks)))
	slots := make([]int, len(marks))
	for i, m := range marks {
		t.u16(m.class)
		slots[i] = t.slot()
	}
	for i, m := range marks {
		t.child(slots[i], m.anchor)
	}
	return t.bytes()
}

// anchorMatrixBytes lays out rows of classCount anchors; nil means NULL.
func anchorMatrixBytes(classCount int, rows ...[]([]byte)) []byte {
	t := &tb{}
	t.u16(uint16(len(rows)))
	slots := make([][]int, len(rows))
	for i := range rows {
		slots[i] = make([]int, classCount)
		for c := 0; c < classCount; c++ {
			slots[i][c] = t.slot()
		}
	}
	for i, row := range rows {
		for c := 0; c < classCount; c++ {
			if c < len(row) && row[c] != nil {
				t.child(slots[i][c], row[c])
			}
		}
	}
	return t.bytes()
}

// markBasePos also serves mark-to-mark, the layouts agree.
func markBasePos(markCov, baseCov []byte, classCount uint16, marks, baseMatrix []byte) []byte {
	t := &tb{}
	t.u16(1)
	mc := t.slot()
	bc := t.slot()
	t.u16(classCount)
	ma := t.slot()
	ba := t.slot()
	t.child(mc, markCov)
	t.child(bc, baseCov)
	t.child(ma, marks)
	t.child(ba, baseMatrix)
	return t.bytes()
}

func markLigPos(markCov, ligCov []byte, classCount uint16, marks []byte, ligAttach ...[]byte) []byte {
	t := &tb{}
	t.u16(1)
	mc := t.slot()
	lc := t.slot()
	t.u16(classCount)
	ma := t.slot()
	la := t.slot()
	t.child(mc, markCov)
	t.child(lc, ligCov)
	t.child(ma, marks)

	arr := &tb{}
	arr.u16(uint16(len(ligAttach)))
	slots := make([]int, len(ligAttach))
	for i := range ligAttach {
		slots[i] = arr.slot()
	}
	for i, att := range ligAttach {
		arr.child(slots[i], att)
	}
	t.child(la, arr.bytes())
	return t.bytes()
}

// --- Table assembly -------------------------------------------------------

func lookupTable(ltype, flags uint16, subtables ...[]byte) []byte {
	t := &tb{}
	t.u16(ltype, flags, uint16(len(subtables)))
	slots := make([]int, len(subtables))
	for i := range subtables {
		slots[i] = t.slot()
	}
	for i, sub := range subtables {
		t.child(slots[i], sub)
	}
	return t.bytes()
}

// layoutTableBytes wraps lookup tables into a layout table blob with empty
// script and feature lists.
func layoutTableBytes(lookups ...[]byte) []byte {
	t := &tb{}
	t.u16(1, 0)
	so := t.slot()
	fo := t.slot()
	lo := t.slot()
	t.child(so, bw16(0))
	t.child(fo, bw16(0))

	ll := &tb{}
	ll.u16(uint16(len(lookups)))
	slots := make([]int, len(lookups))
	for i := range lookups {
		slots[i] = ll.slot()
	}
	for i, lk := range lookups {
		ll.child(slots[i], lk)
	}
	t.child(lo, ll.bytes())
	return t.bytes()
}

func gsubTable(t *testing.T, lookups ...[]byte) *ot.LayoutTable {
	t.Helper()
	table, err := ot.ParseLayoutTable(ot.TagGSub, layoutTableBytes(lookups...))
	if err != nil {
		t.Fatalf("fixture does not parse: %v", err)
	}
	return table
}

func gposTable(t *testing.T, lookups ...[]byte) *ot.LayoutTable {
	t.Helper()
	table, err := ot.ParseLayoutTable(ot.TagGPos, layoutTableBytes(lookups...))
	if err != nil {
		t.Fatalf("fixture does not parse: %v", err)
	}
	return table
}

// gdefClasses builds a GDEF table via a font container and returns its
// decoded form. ranges are (start, end, glyphClass) triples.
func gdefClasses(t *testing.T, ranges ...[3]uint16) *ot.GDefTable {
	t.Helper()
	g := &tb{}
	g.u16(1, 0)
	gc := g.slot()
	g.u16(0, 0, 0) // attach list, ligature carets, mark attach classes
	g.child(gc, classDefF2(ranges...))
	gdefData := g.bytes()

	font := &tb{}
	font.b = append(font.b, 0x00, 0x01, 0x00, 0x00)
	font.u16(1, 0, 0, 0)
	font.b = append(font.b, []byte("GDEF")...)
	font.u16(0, 0) // checksum
	offset := len(font.b) + 8
	font.u16(0, uint16(offset), 0, uint16(len(gdefData)))
	font.b = append(font.b, gdefData...)
	otf, err := ot.Parse(font.bytes())
	if err != nil {
		t.Fatalf("GDEF fixture does not parse: %v", err)
	}
	if otf.GDef() == nil {
		t.Fatal("GDEF fixture without decoded table")
	}
	return otf.GDef()
}
