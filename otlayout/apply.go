package otlayout

import (
	"fmt"
	"sync/atomic"

	"github.com/npillmayer/otshaping/ot"
)

// applyCtx carries the state of one lookup application: the owning layout
// table, the active lookup with its filtering flags, the buffer under
// mutation, and the nesting depth of recursive lookup invocation.
type applyCtx struct {
	table  *ot.LayoutTable
	lookup *ot.Lookup
	flag   ot.LookupFlag
	gdef   *ot.GDefTable
	buf    *Buffer
	alt    int // alternate selection index
	depth  int // nested lookup depth
}

// ApplyOptions configures lookup application.
type ApplyOptions struct {
	GDef           *ot.GDefTable // glyph classifications for lookup-flag filtering, may be nil
	AlternateIndex int           // selection index for alternate substitution
}

var defaultAlternate atomic.Int32

// SetDefaultAlternateIndex sets the process-wide alternate selection index
// used when ApplyOptions carries none, returning the previous value.
func SetDefaultAlternateIndex(i int) int {
	return int(defaultAlternate.Swap(int32(i)))
}

// DefaultAlternateIndex returns the process-wide alternate selection index.
func DefaultAlternateIndex() int {
	return int(defaultAlternate.Load())
}

// ApplyLookup applies the lookup with the given lookup-list index to buf at
// slot pos. It returns the position to continue at and whether a subtable
// matched. Subtables are tried in order, first match wins. An out-of-range
// lookup index or excessive nesting fails with an invalid-font-file error.
func ApplyLookup(t *ot.LayoutTable, lookupIndex int, buf *Buffer, pos int, opts *ApplyOptions) (int, bool, *EditSpan, error) {
	lookup, err := t.Lookups.Lookup(lookupIndex)
	if err != nil {
		return pos, false, nil, err
	}
	ctx := newApplyCtx(t, buf, opts)
	return ctx.applyLookupAt(lookup, pos)
}

// ApplyLookupAcross applies one lookup across the whole buffer. When
// featureTag is nonzero, only slots eligible for that feature participate.
// It reports whether any slot matched.
func ApplyLookupAcross(t *ot.LayoutTable, lookupIndex int, featureTag ot.Tag, buf *Buffer, opts *ApplyOptions) (bool, error) {
	lookup, err := t.Lookups.Lookup(lookupIndex)
	if err != nil {
		return false, err
	}
	ctx := newApplyCtx(t, buf, opts)
	return ctx.applyLookupRun(lookup, featureTag)
}

// ApplyFeature applies all lookups of a feature across the buffer, in
// lookup-list order. At each slot, only slots whose assigned feature tag
// equals the feature's tag participate. After a match the walk continues
// past the glyphs consumed or produced.
func ApplyFeature(t *ot.LayoutTable, feat *ot.Feature, buf *Buffer, opts *ApplyOptions) (bool, error) {
	if feat == nil {
		return false, nil
	}
	ctx := newApplyCtx(t, buf, opts)
	anyApplied := false
	for _, li := range feat.LookupIndices() {
		lookup, err := t.Lookups.Lookup(int(li))
		if err != nil {
			return anyApplied, err
		}
		applied, err := ctx.applyLookupRun(lookup, feat.Tag)
		if err != nil {
			return anyApplied, err
		}
		anyApplied = anyApplied || applied
	}
	return anyApplied, nil
}

func newApplyCtx(t *ot.LayoutTable, buf *Buffer, opts *ApplyOptions) *applyCtx {
	ctx := &applyCtx{table: t, buf: buf, alt: DefaultAlternateIndex()}
	if opts != nil {
		ctx.gdef = opts.GDef
		ctx.alt = opts.AlternateIndex
	}
	if t.TableTag == ot.TagGPos {
		buf.EnsurePos()
	}
	return ctx
}

// applyLookupRun walks the buffer and applies one lookup at every eligible
// slot. Reverse chaining substitution walks right-to-left, everything else
// left-to-right.
func (ctx *applyCtx) applyLookupRun(lookup *ot.Lookup, featureTag ot.Tag) (bool, error) {
	if ctx.table.TableTag == ot.TagGSub && lookup.Type == ot.GSubLookupReverseChain {
		return ctx.applyLookupRunBackward(lookup, featureTag)
	}
	applied := false
	pos := 0
	for pos < ctx.buf.Len() {
		if featureTag != 0 && !ctx.buf.HasFeature(pos, featureTag) {
			pos++
			continue
		}
		next, ok, _, err := ctx.applyLookupAt(lookup, pos)
		if err != nil {
			return applied, err
		}
		if !ok {
			pos++
			continue
		}
		applied = true
		if next <= pos {
			next = pos + 1
		}
		pos = next
	}
	return applied, nil
}

// applyLookupRunBackward drives reverse chaining substitution: the buffer
// is walked from its end, and matches never change the slot count.
func (ctx *applyCtx) applyLookupRunBackward(lookup *ot.Lookup, featureTag ot.Tag) (bool, error) {
	applied := false
	for pos := ctx.buf.Len() - 1; pos >= 0; pos-- {
		if featureTag != 0 && !ctx.buf.HasFeature(pos, featureTag) {
			continue
		}
		_, ok, _, err := ctx.applyLookupAt(lookup, pos)
		if err != nil {
			return applied, err
		}
		applied = applied || ok
	}
	return applied, nil
}

// applyLookupAt tries the lookup's subtables at slot pos, in order. The
// first subtable that matches wins; its result is returned.
func (ctx *applyCtx) applyLookupAt(lookup *ot.Lookup, pos int) (int, bool, *EditSpan, error) {
	subtables, err := lookup.Subtables()
	if err != nil {
		return pos, false, nil, err
	}
	prevLookup, prevFlag := ctx.lookup, ctx.flag
	ctx.lookup, ctx.flag = lookup, lookup.Flags
	defer func() { ctx.lookup, ctx.flag = prevLookup, prevFlag }()

	if pos < 0 || pos >= ctx.buf.Len() || ctx.buf.At(pos) == 0 {
		return pos, false, nil, nil
	}
	if skipGlyph(ctx, ctx.buf.At(pos)) {
		return pos, false, nil, nil
	}
	for _, sub := range subtables {
		next, ok, edit, err := ctx.dispatch(sub, pos)
		if err != nil {
			return pos, false, nil, err
		}
		if ok {
			return next, true, edit, nil
		}
	}
	return pos, false, nil, nil
}

// dispatch routes a subtable to its applier based on the effective lookup
// type and format, selected once at load time.
func (ctx *applyCtx) dispatch(sub *ot.LookupSubtable, pos int) (int, bool, *EditSpan, error) {
	switch ctx.table.TableTag {
	case ot.TagGSub:
		switch sub.Type {
		case ot.GSubLookupSingle:
			return applySingleSubst(ctx, sub, pos)
		case ot.GSubLookupMultiple:
			return applyMultipleSubst(ctx, sub, pos)
		case ot.GSubLookupAlternate:
			return applyAlternateSubst(ctx, sub, pos)
		case ot.GSubLookupLigature:
			return applyLigatureSubst(ctx, sub, pos)
		case ot.GSubLookupContext:
			return applySequenceContext(ctx, sub, pos)
		case ot.GSubLookupChainedCtx:
			return applyChainedContext(ctx, sub, pos)
		case ot.GSubLookupReverseChain:
			return applyReverseChainSubst(ctx, sub, pos)
		}
	case ot.TagGPos:
		switch sub.Type {
		case ot.GPosLookupSingle:
			return applySinglePos(ctx, sub, pos)
		case ot.GPosLookupPair:
			return applyPairPos(ctx, sub, pos)
		case ot.GPosLookupCursive:
			return applyCursivePos(ctx, sub, pos)
		case ot.GPosLookupMarkToBase:
			return applyMarkBasePos(ctx, sub, pos)
		case ot.GPosLookupMarkToLig:
			return applyMarkLigPos(ctx, sub, pos)
		case ot.GPosLookupMarkToMark:
			return applyMarkMarkPos(ctx, sub, pos)
		case ot.GPosLookupContext:
			return applySequenceContext(ctx, sub, pos)
		case ot.GPosLookupChainedCtx:
			return applyChainedContext(ctx, sub, pos)
		}
	}
	// Extension indirection is resolved at decode time, so an unknown type
	// here means a decoder bug rather than font damage.
	tracer().Errorf("no applier for %s lookup type %d", ctx.table.TableTag, sub.Type)
	return pos, false, nil, nil
}

// applySequenceLookupRecords invokes the nested lookups of a matched
// contextual rule. Each record applies one lookup at a matched input
// position; edits re-map the remaining positions. With stopAtFirst, the
// first record that changes the buffer ends processing.
//
// Nesting depth is bounded: fonts may reference lookups in cycles, and the
// format guarantees no acyclicity.
func applySequenceLookupRecords(ctx *applyCtx, inputPos []int, records []ot.SequenceLookupRecord, stopAtFirst bool) (bool, error) {
	if len(inputPos) == 0 || len(records) == 0 {
		return false, nil
	}
	if ctx.depth+1 > ot.MaxNestedLookupDepth {
		return false, ot.InvalidFont("SequenceLookupRecords",
			fmt.Sprintf("lookup nesting deeper than %d, lookup cycle suspected", ot.MaxNestedLookupDepth))
	}
	positions := make([]int, len(inputPos))
	copy(positions, inputPos)

	applied := false
	for _, rec := range records {
		seq := int(rec.SequenceIndex)
		if seq < 0 || seq >= len(positions) || positions[seq] < 0 {
			continue
		}
		target := positions[seq]
		if target >= ctx.buf.Len() {
			continue
		}
		lookup, err := ctx.table.Lookups.Lookup(int(rec.LookupListIndex))
		if err != nil {
			return applied, err
		}
		nested := &applyCtx{
			table: ctx.table,
			gdef:  ctx.gdef,
			buf:   ctx.buf,
			alt:   ctx.alt,
			depth: ctx.depth + 1,
		}
		_, ok, edit, err := nested.applyLookupAt(lookup, target)
		if err != nil {
			return applied, err
		}
		if !ok {
			continue
		}
		applied = true
		if edit != nil {
			remapPositions(positions, edit)
		}
		if stopAtFirst {
			break
		}
	}
	return applied, nil
}

// remapPositions adjusts match positions after a structural edit. Positions
// inside a vanished range are invalidated.
func remapPositions(positions []int, edit *EditSpan) {
	delta := edit.Len - (edit.To - edit.From)
	for i, p := range positions {
		switch {
		case p < 0:
		case p >= edit.To:
			positions[i] = p + delta
		case p >= edit.From:
			if edit.Len == 0 {
				positions[i] = -1
			} else {
				positions[i] = edit.From
			}
		}
	}
}
