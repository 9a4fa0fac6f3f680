package otlayout

import (
	"errors"
	"testing"

	"github.com/npillmayer/otshaping/ot"
)

func glyphsEqual(t *testing.T, buf *Buffer, want ...ot.GlyphIndex) {
	t.Helper()
	if len(buf.Glyphs()) != len(want) {
		t.Fatalf("expected %d glyphs, have %v", len(want), buf.Glyphs())
	}
	for i, g := range want {
		if buf.At(i) != g {
			t.Fatalf("expected glyphs %v, have %v", want, buf.Glyphs())
		}
	}
}

func TestSingleSubstDelta(t *testing.T) {
	table := gsubTable(t, lookupTable(ot.GSubLookupSingle, 0,
		singleSubstF1(1, covF1(10, 11))))
	buf := NewBuffer([]ot.GlyphIndex{10, 11, 12})
	applied, err := ApplyLookupAcross(table, 0, 0, buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !applied {
		t.Fatal("expected the lookup to apply")
	}
	glyphsEqual(t, buf, 11, 12, 12)
}

func TestSingleSubstArray(t *testing.T) {
	table := gsubTable(t, lookupTable(ot.GSubLookupSingle, 0,
		singleSubstF2(covF1(10, 11), 80, 90)))
	buf := NewBuffer([]ot.GlyphIndex{11, 10, 7})
	if _, err := ApplyLookupAcross(table, 0, 0, buf, nil); err != nil {
		t.Fatal(err)
	}
	glyphsEqual(t, buf, 90, 80, 7)
}

func TestSingleSubstNotdefNeverMatches(t *testing.T) {
	table := gsubTable(t, lookupTable(ot.GSubLookupSingle, 0,
		singleSubstF1(1, covF1(10))))
	buf := NewBuffer([]ot.GlyphIndex{0, 10})
	next, ok, _, err := ApplyLookup(table, 0, buf, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ok || next != 0 {
		t.Error("glyph 0 must not match any lookup")
	}
}

func TestMultipleSubst(t *testing.T) {
	table := gsubTable(t, lookupTable(ot.GSubLookupMultiple, 0,
		multipleSubst(covF1(5), []uint16{7, 8, 9})))
	buf := NewBuffer([]ot.GlyphIndex{5, 6})
	next, ok, edit, err := ApplyLookup(table, 0, buf, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected the subtable to match")
	}
	glyphsEqual(t, buf, 7, 8, 9, 6)
	if next != 3 {
		t.Errorf("expected continuation at 3, got %d", next)
	}
	if edit == nil || edit.From != 0 || edit.To != 1 || edit.Len != 3 {
		t.Errorf("unexpected edit %+v", edit)
	}
}

func TestMultipleSubstEmptySequence(t *testing.T) {
	table := gsubTable(t, lookupTable(ot.GSubLookupMultiple, 0,
		multipleSubst(covF1(5), []uint16{})))
	buf := NewBuffer([]ot.GlyphIndex{5})
	_, ok, _, err := ApplyLookup(table, 0, buf, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("a rule deleting its glyph must not match")
	}
	glyphsEqual(t, buf, 5)
}

func TestAlternateSubstSelection(t *testing.T) {
	table := gsubTable(t, lookupTable(ot.GSubLookupAlternate, 0,
		multipleSubst(covF1(5), []uint16{20, 21})))
	buf := NewBuffer([]ot.GlyphIndex{5})
	if _, _, _, err := ApplyLookup(table, 0, buf, 0, &ApplyOptions{AlternateIndex: 1}); err != nil {
		t.Fatal(err)
	}
	glyphsEqual(t, buf, 21)

	// Out-of-range selection falls back to the first alternate.
	buf = NewBuffer([]ot.GlyphIndex{5})
	if _, _, _, err := ApplyLookup(table, 0, buf, 0, &ApplyOptions{AlternateIndex: 7}); err != nil {
		t.Fatal(err)
	}
	glyphsEqual(t, buf, 20)
}

func ligaLookup() []byte {
	// f=1 i=2 fi=3 ffi=4, longest ligature first
	return lookupTable(ot.GSubLookupLigature, 0,
		ligatureSubst(covF1(1),
			[]ligRule{
				{lig: 4, comps: []uint16{1, 2}},
				{lig: 3, comps: []uint16{2}},
			}))
}

func TestLigatureSubst(t *testing.T) {
	table := gsubTable(t, ligaLookup())
	buf := NewBuffer([]ot.GlyphIndex{1, 1, 2, 5})
	next, ok, edit, err := ApplyLookup(table, 0, buf, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected the ligature to match")
	}
	glyphsEqual(t, buf, 4, 5)
	if next != 1 {
		t.Errorf("expected continuation at 1, got %d", next)
	}
	if edit == nil || edit.From != 0 || edit.To != 3 || edit.Len != 1 {
		t.Errorf("unexpected edit %+v", edit)
	}
}

func TestLigatureFirstFullMatchWins(t *testing.T) {
	table := gsubTable(t, ligaLookup())
	buf := NewBuffer([]ot.GlyphIndex{1, 2, 9})
	_, ok, _, err := ApplyLookup(table, 0, buf, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected the shorter ligature to match")
	}
	glyphsEqual(t, buf, 3, 9)
}

func TestLigatureSkipsMarks(t *testing.T) {
	gdef := gdefClasses(t, [3]uint16{30, 30, ot.GDefGlyphClassMark})
	table := gsubTable(t, lookupTable(ot.GSubLookupLigature, uint16(ot.LookupFlagIgnoreMarks),
		ligatureSubst(covF1(1), []ligRule{{lig: 3, comps: []uint16{2}}})))
	buf := NewBuffer([]ot.GlyphIndex{1, 30, 2})
	_, ok, _, err := ApplyLookup(table, 0, buf, 0, &ApplyOptions{GDef: gdef})
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected the ligature to match across the mark")
	}
	glyphsEqual(t, buf, 3)
}

// Format 1, 2 and 3 renditions of one contextual rule: glyph 10 followed by
// glyph 11 runs a single substitution (delta +100) on the anchor.
func seqContextTables(t *testing.T) map[string]*ot.LayoutTable {
	single := lookupTable(ot.GSubLookupSingle, 0,
		singleSubstF1(100, covF2([3]uint16{10, 12, 0})))

	f1 := gsubTable(t, lookupTable(ot.GSubLookupContext, 0,
		seqContextF1(covF1(10),
			[]ctxRule{{input: []uint16{11}, recs: []uint16{0, 1}}})),
		single)

	classes := classDefF2([3]uint16{10, 10, 1}, [3]uint16{11, 11, 2})
	f2 := gsubTable(t, lookupTable(ot.GSubLookupContext, 0,
		seqContextF2(covF1(10), classes,
			[]ctxRule{}, // class 0
			[]ctxRule{{input: []uint16{2}, recs: []uint16{0, 1}}})),
		single)

	f3 := gsubTable(t, lookupTable(ot.GSubLookupContext, 0,
		seqContextF3([]uint16{0, 1}, covF1(10), covF1(11))),
		single)

	return map[string]*ot.LayoutTable{"format1": f1, "format2": f2, "format3": f3}
}

func TestSequenceContextFormatsAgree(t *testing.T) {
	for name, table := range seqContextTables(t) {
		t.Run(name, func(t *testing.T) {
			buf := NewBuffer([]ot.GlyphIndex{10, 11, 12})
			next, ok, _, err := ApplyLookup(table, 0, buf, 0, nil)
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				t.Fatal("expected the context rule to match")
			}
			glyphsEqual(t, buf, 110, 11, 12)
			if next != 2 {
				t.Errorf("expected continuation past the input window at 2, got %d", next)
			}
		})
	}
}

func TestSequenceContextNoPartialMatch(t *testing.T) {
	for name, table := range seqContextTables(t) {
		t.Run(name, func(t *testing.T) {
			buf := NewBuffer([]ot.GlyphIndex{10, 12}) // second input glyph missing
			_, ok, _, err := ApplyLookup(table, 0, buf, 0, nil)
			if err != nil {
				t.Fatal(err)
			}
			if ok {
				t.Error("rule must fail as a whole when any input glyph mismatches")
			}
			glyphsEqual(t, buf, 10, 12)
		})
	}
}

// Format 1, 2 and 3 renditions of one chained rule: glyph 10 with backtrack
// 9 and lookahead 12 bumps the second input glyph 11 by one.
func chainContextTables(t *testing.T) map[string]*ot.LayoutTable {
	single := lookupTable(ot.GSubLookupSingle, 0,
		singleSubstF1(1, covF1(11)))

	f1 := gsubTable(t, lookupTable(ot.GSubLookupChainedCtx, 0,
		chainContextF1(covF1(10),
			[]chainRule{{
				backtrack: []uint16{9},
				input:     []uint16{11},
				lookahead: []uint16{12},
				recs:      []uint16{1, 1},
			}})),
		single)

	classes := classDefF2(
		[3]uint16{9, 9, 1}, [3]uint16{10, 10, 2},
		[3]uint16{11, 11, 3}, [3]uint16{12, 12, 4})
	f2 := gsubTable(t, lookupTable(ot.GSubLookupChainedCtx, 0,
		chainContextF2(covF1(10), classes, classes, classes,
			[]chainRule{}, []chainRule{},
			[]chainRule{{
				backtrack: []uint16{1},
				input:     []uint16{3},
				lookahead: []uint16{4},
				recs:      []uint16{1, 1},
			}})),
		single)

	f3 := gsubTable(t, lookupTable(ot.GSubLookupChainedCtx, 0,
		chainContextF3(
			[][]byte{covF1(9)},
			[][]byte{covF1(10), covF1(11)},
			[][]byte{covF1(12)},
			[]uint16{1, 1})),
		single)

	return map[string]*ot.LayoutTable{"format1": f1, "format2": f2, "format3": f3}
}

func TestChainedContextFormatsAgree(t *testing.T) {
	for name, table := range chainContextTables(t) {
		t.Run(name, func(t *testing.T) {
			buf := NewBuffer([]ot.GlyphIndex{9, 10, 11, 12})
			next, ok, _, err := ApplyLookup(table, 0, buf, 1, nil)
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				t.Fatal("expected the chained rule to match")
			}
			glyphsEqual(t, buf, 9, 10, 12, 12)
			if next != 3 {
				t.Errorf("expected continuation at 3, got %d", next)
			}
		})
	}
}

func TestChainedContextBacktrackRequired(t *testing.T) {
	for name, table := range chainContextTables(t) {
		t.Run(name, func(t *testing.T) {
			buf := NewBuffer([]ot.GlyphIndex{10, 11, 12}) // no backtrack glyph
			applied, err := ApplyLookupAcross(table, 0, 0, buf, nil)
			if err != nil {
				t.Fatal(err)
			}
			if applied {
				t.Error("rule must not match without its backtrack context")
			}
			glyphsEqual(t, buf, 10, 11, 12)
		})
	}
}

func TestChainedContextNestedLigature(t *testing.T) {
	liga := ligaLookup()
	table := gsubTable(t, lookupTable(ot.GSubLookupChainedCtx, 0,
		chainContextF3(nil,
			[][]byte{covF1(1), covF1(2)},
			nil,
			[]uint16{0, 1})),
		liga)
	buf := NewBuffer([]ot.GlyphIndex{1, 2, 7})
	next, ok, edit, err := ApplyLookup(table, 0, buf, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected the chained rule to match")
	}
	glyphsEqual(t, buf, 3, 7)
	if next != 1 {
		t.Errorf("expected continuation at 1 after the buffer shrank, got %d", next)
	}
	if edit == nil || edit.From != 0 || edit.To != 2 || edit.Len != 1 {
		t.Errorf("unexpected edit %+v", edit)
	}
}

func TestReverseChainSubst(t *testing.T) {
	table := gsubTable(t, lookupTable(ot.GSubLookupReverseChain, 0,
		reverseChainSubst(covF1(6), nil, [][]byte{covF1(7, 16)}, 16)))
	buf := NewBuffer([]ot.GlyphIndex{5, 6, 6, 7})
	applied, err := ApplyLookupAcross(table, 0, 0, buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !applied {
		t.Fatal("expected the reverse chain to apply")
	}
	// Right-to-left walk: the rightmost 6 matches first, then serves as
	// lookahead context for the next one.
	glyphsEqual(t, buf, 5, 16, 16, 7)
}

func TestExtensionLookup(t *testing.T) {
	table := gsubTable(t, lookupTable(ot.GSubLookupExtension, 0,
		extensionSubst(ot.GSubLookupSingle, singleSubstF1(1, covF1(10)))))
	buf := NewBuffer([]ot.GlyphIndex{10})
	lookup, err := table.Lookups.Lookup(0)
	if err != nil {
		t.Fatal(err)
	}
	subs, err := lookup.Subtables()
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 1 || subs[0].Type != ot.GSubLookupSingle {
		t.Fatalf("expected extension to resolve to a single substitution, got type %d", subs[0].Type)
	}
	if _, err := ApplyLookupAcross(table, 0, 0, buf, nil); err != nil {
		t.Fatal(err)
	}
	glyphsEqual(t, buf, 11)
}

func TestNestedLookupDepthCap(t *testing.T) {
	// Lookup 0 invokes itself through its sequence lookup record.
	table := gsubTable(t, lookupTable(ot.GSubLookupContext, 0,
		seqContextF3([]uint16{0, 0}, covF1(10))))
	buf := NewBuffer([]ot.GlyphIndex{10})
	_, _, _, err := ApplyLookup(table, 0, buf, 0, nil)
	if !errors.Is(err, ot.ErrInvalidFontFile) {
		t.Fatalf("expected invalid-font-file error for cyclic lookup nesting, got %v", err)
	}
}

func TestApplyLookupOutOfRangeIndex(t *testing.T) {
	table := gsubTable(t, ligaLookup())
	buf := NewBuffer([]ot.GlyphIndex{1, 2})
	_, _, _, err := ApplyLookup(table, 5, buf, 0, nil)
	if !errors.Is(err, ot.ErrInvalidFontFile) {
		t.Fatalf("expected invalid-font-file error, got %v", err)
	}
}

func TestApplyLookupAcrossFeatureGate(t *testing.T) {
	table := gsubTable(t, lookupTable(ot.GSubLookupSingle, 0,
		singleSubstF1(1, covF1(10))))
	buf := NewBuffer([]ot.GlyphIndex{10, 10, 10})
	buf.AssignFeature(1, 2, ot.T("test"))
	applied, err := ApplyLookupAcross(table, 0, ot.T("test"), buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !applied {
		t.Fatal("expected the gated slot to apply")
	}
	glyphsEqual(t, buf, 10, 11, 10)
}
