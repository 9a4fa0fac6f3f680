package ot

import (
	"fmt"
	"iter"
	"sync"
)

// GSUB lookup types.
const (
	GSubLookupSingle       = 1
	GSubLookupMultiple     = 2
	GSubLookupAlternate    = 3
	GSubLookupLigature     = 4
	GSubLookupContext      = 5
	GSubLookupChainedCtx   = 6
	GSubLookupExtension    = 7
	GSubLookupReverseChain = 8
)

// GPOS lookup types.
const (
	GPosLookupSingle      = 1
	GPosLookupPair        = 2
	GPosLookupCursive     = 3
	GPosLookupMarkToBase  = 4
	GPosLookupMarkToLig   = 5
	GPosLookupMarkToMark  = 6
	GPosLookupContext     = 7
	GPosLookupChainedCtx  = 8
	GPosLookupExtension   = 9
)

// Depth ceilings for adversarial fonts. The format guarantees neither
// acyclic lookup nesting nor flat extension indirection.
const (
	MaxExtensionDepth    = 16
	MaxNestedLookupDepth = 8
)

// LookupList is the decoded lookup list of a layout table. Lookup tables
// are decoded eagerly, their subtables lazily on first access.
//
// Features and contextual rule records reference lookups by index into this
// list; Lookup validates indices and fails with ErrInvalidFontFile for
// out-of-range values instead of silently skipping, so corrupt fonts are
// not mistaken for merely unshaped text.
type LookupList struct {
	tableTag Tag
	lookups  []*Lookup
}

// Len returns the number of lookups in the list.
func (ll *LookupList) Len() int {
	if ll == nil {
		return 0
	}
	return len(ll.lookups)
}

// Lookup returns lookup i. An out-of-range index is a font-logic error.
func (ll *LookupList) Lookup(i int) (*Lookup, error) {
	if ll == nil || i < 0 || i >= len(ll.lookups) {
		return nil, invalidFontFile("LookupList",
			fmt.Sprintf("lookup index %d outside list of %d lookups", i, ll.Len()))
	}
	return ll.lookups[i], nil
}

// Range iterates over (index, lookup) pairs in list order.
func (ll *LookupList) Range() iter.Seq2[int, *Lookup] {
	return func(yield func(int, *Lookup) bool) {
		if ll == nil {
			return
		}
		for i, l := range ll.lookups {
			if !yield(i, l) {
				return
			}
		}
	}
}

// Lookup is one lookup table: a semantic type, filtering flags and an
// ordered list of subtables which application tries in order, first match
// wins.
type Lookup struct {
	Type             uint16     // lookup type, per owning table's namespace
	Flags            LookupFlag // glyph filtering flags
	MarkFilteringSet uint16     // only meaningful with LookupFlagUseMarkFilteringSet

	tableTag  Tag
	data      binarySegm // lookup table segment
	offsets   []uint16   // subtable offsets, relative to data
	once      sync.Once
	subtables []*LookupSubtable
	err       error
}

// Subtables decodes (once) and returns the lookup's subtables in order.
// A decoding failure is sticky: every call reports the same error.
func (l *Lookup) Subtables() ([]*LookupSubtable, error) {
	l.once.Do(func() {
		l.subtables, l.err = l.decodeSubtables()
	})
	return l.subtables, l.err
}

// SubtableCount returns the number of subtables without forcing a decode.
func (l *Lookup) SubtableCount() int {
	return len(l.offsets)
}

// RightToLeft reports the cursive right-to-left flag.
func (l *Lookup) RightToLeft() bool {
	return l.Flags&LookupFlagRightToLeft != 0
}

// LookupSubtable is one decoded subtable: a tagged variant selected at load
// time by the (lookup type, format) pair. Exactly one payload field is set;
// contextual and chained-contextual payloads are shared between GSUB and
// GPOS, which encode them identically.
//
// Immutable once loaded.
type LookupSubtable struct {
	Type     uint16 // effective lookup type, extension indirection resolved
	Format   uint16
	Coverage Coverage // primary coverage; unused by context format 3

	Single       *SingleSubst
	Multiple     *MultipleSubst
	Alternate    *AlternateSubst
	Ligature     *LigatureSubst
	ReverseChain *ReverseChainSubst

	SinglePos   *SinglePos
	PairPos     *PairPos
	CursivePos  *CursivePos
	MarkBasePos *MarkBasePos
	MarkLigPos  *MarkLigPos
	MarkMarkPos *MarkMarkPos

	SeqContext   *SequenceContext
	ChainContext *ChainedContext
}

func (l *Lookup) decodeSubtables() ([]*LookupSubtable, error) {
	subtables := make([]*LookupSubtable, 0, len(l.offsets))
	for i, off := range l.offsets {
		seg := link16{base: l.data, offset: off}.Jump()
		if seg.Size() == 0 {
			return nil, tableError(malformedFont("Lookup",
				fmt.Sprintf("subtable %d offset %d outside lookup segment", i, off)), l.tableTag)
		}
		var sub *LookupSubtable
		var err error
		switch l.tableTag {
		case TagGSub:
			sub, err = parseGSubSubtable(l.Type, seg, 0)
		case TagGPos:
			sub, err = parseGPosSubtable(l.Type, seg, 0)
		default:
			err = invalidFontFile("Lookup", fmt.Sprintf("lookups not defined for table %s", l.tableTag))
		}
		if err != nil {
			return nil, tableError(err, l.tableTag)
		}
		subtables = append(subtables, sub)
	}
	return subtables, nil
}

// parseLookupList decodes the lookup list at b[offset]. Subtable payloads
// stay undecoded until first use.
func parseLookupList(tableTag Tag, b binarySegm, offset uint16) (*LookupList, error) {
	seg := link16{base: b, offset: offset}.Jump()
	if seg.Size() == 0 {
		return nil, malformedFont("LookupList", fmt.Sprintf("lookup list offset %d outside table", offset))
	}
	count, err := seg.u16(0)
	if err != nil {
		return nil, malformedFont("LookupList", "truncated lookup count")
	}
	if int(count) > MaxLookupCount {
		return nil, malformedFont("LookupList", fmt.Sprintf("lookup count %d exceeds limit %d", count, MaxLookupCount))
	}
	ll := &LookupList{tableTag: tableTag, lookups: make([]*Lookup, 0, count)}
	for i := 0; i < int(count); i++ {
		off, err := seg.u16(2 + i*2)
		if err != nil {
			return nil, malformedFont("LookupList", fmt.Sprintf("truncated offset array at lookup %d", i))
		}
		lookup, err := parseLookup(tableTag, link16{base: seg, offset: off}.Jump())
		if err != nil {
			return nil, err
		}
		ll.lookups = append(ll.lookups, lookup)
	}
	return ll, nil
}

func parseLookup(tableTag Tag, seg binarySegm) (*Lookup, error) {
	if seg.Size() < 6 {
		return nil, malformedFont("Lookup", "lookup table header truncated")
	}
	l := &Lookup{
		Type:     seg.U16(0),
		Flags:    LookupFlag(seg.U16(2)),
		tableTag: tableTag,
		data:     seg,
	}
	subCount := int(seg.U16(4))
	offsets := make([]uint16, 0, subCount)
	for i := 0; i < subCount; i++ {
		off, err := seg.u16(6 + i*2)
		if err != nil {
			return nil, malformedFont("Lookup", fmt.Sprintf("truncated subtable offsets, have %d of %d", i, subCount))
		}
		offsets = append(offsets, off)
	}
	l.offsets = offsets
	if l.Flags&LookupFlagUseMarkFilteringSet != 0 {
		mfs, err := seg.u16(6 + subCount*2)
		if err != nil {
			return nil, malformedFont("Lookup", "mark filtering set truncated")
		}
		l.MarkFilteringSet = mfs
	}
	return l, nil
}
