package ot

import "sort"

// LayoutTable is a decoded GSUB or GPOS table: scripts, features and
// lookups. Immutable after load.
type LayoutTable struct {
	TableTag Tag // TagGSub or TagGPos
	Scripts  *ScriptList
	Features *FeatureList
	Lookups  *LookupList
	header   layoutHeader
	data     binarySegm
	errs     errorCollector
}

// Errors returns the non-fatal issues collected while decoding the table.
func (t *LayoutTable) Errors() []FontError {
	return t.errs.errors
}

// Warnings returns the warnings collected while decoding the table.
func (t *LayoutTable) Warnings() []FontWarning {
	return t.errs.warnings
}

// layoutHeader is the shared GSUB/GPOS header. Version 1.1 adds a 32-bit
// feature-variations offset which we locate but do not interpret.
type layoutHeader struct {
	versionHeader
	offsets layoutHeader11
}

type versionHeader struct {
	Major uint16
	Minor uint16
}

// layoutHeader11 holds the offsets of the four top-level sections.
// FeatureVariationsOffset is zero for version 1.0 tables.
type layoutHeader11 struct {
	ScriptListOffset        uint16
	FeatureListOffset       uint16
	LookupListOffset        uint16
	FeatureVariationsOffset uint32
}

// Lookup flags, a bit field in every lookup table.
type LookupFlag uint16

const (
	LookupFlagRightToLeft         LookupFlag = 0x0001 // cursive attachment, RTL runs
	LookupFlagIgnoreBaseGlyphs    LookupFlag = 0x0002
	LookupFlagIgnoreLigatures     LookupFlag = 0x0004
	LookupFlagIgnoreMarks         LookupFlag = 0x0008
	LookupFlagUseMarkFilteringSet LookupFlag = 0x0010
	LookupFlagMarkAttachTypeMask  LookupFlag = 0xFF00
)

// GDEF glyph classes, as produced by a GDEF glyph-class definition table.
const (
	GDefGlyphClassBase      = 1
	GDefGlyphClassLigature  = 2
	GDefGlyphClassMark      = 3
	GDefGlyphClassComponent = 4
)

// GDefTable carries the glyph classifications GSUB/GPOS lookups filter by.
type GDefTable struct {
	GlyphClassDef      ClassDefinitions
	MarkAttachClassDef ClassDefinitions
}

// SequenceLookupRecord names a nested lookup to invoke at a matched input
// position: apply lookup LookupListIndex at input position SequenceIndex.
type SequenceLookupRecord struct {
	SequenceIndex   uint16
	LookupListIndex uint16
}

// --- Coverage -------------------------------------------------------------

// Coverage is a set of glyph indices with a dense index: every covered
// glyph maps to a coverage index, used as a subscript into parallel
// per-glyph data arrays (substitutes, anchors, rule sets).
//
// Format 1 stores a sorted glyph list, format 2 sorted glyph ranges with a
// running start index. Both are queried by binary search.
type Coverage struct {
	Format uint16
	glyphs []GlyphIndex    // format 1
	ranges []coverageRange // format 2
}

type coverageRange struct {
	start, end GlyphIndex // inclusive
	startIndex uint16     // coverage index of start
}

// Index returns the coverage index of glyph g, or -1 if g is not covered.
// Glyph 0 is never covered.
func (c Coverage) Index(g GlyphIndex) int {
	if g == 0 {
		return -1
	}
	switch c.Format {
	case 1:
		i := sort.Search(len(c.glyphs), func(i int) bool { return c.glyphs[i] >= g })
		if i < len(c.glyphs) && c.glyphs[i] == g {
			return i
		}
	case 2:
		i := sort.Search(len(c.ranges), func(i int) bool { return c.ranges[i].end >= g })
		if i < len(c.ranges) && g >= c.ranges[i].start {
			return int(c.ranges[i].startIndex) + int(g-c.ranges[i].start)
		}
	}
	return -1
}

// Contains reports coverage membership of glyph g.
func (c Coverage) Contains(g GlyphIndex) bool {
	return c.Index(g) >= 0
}

// Count returns the number of covered glyphs.
func (c Coverage) Count() int {
	switch c.Format {
	case 1:
		return len(c.glyphs)
	case 2:
		n := 0
		for _, r := range c.ranges {
			n += int(r.end-r.start) + 1
		}
		return n
	}
	return 0
}

// --- Class definitions ----------------------------------------------------

// ClassDefinitions partitions glyph indices into small integer classes.
// Format 1 stores one class value per glyph of a contiguous range, format 2
// stores (start, end, class) ranges. Glyphs not listed belong to class 0,
// and glyph 0 always resolves to class 0.
type ClassDefinitions struct {
	Format     uint16
	startGlyph GlyphIndex   // format 1
	classes    []uint16     // format 1
	ranges     []classRange // format 2
}

type classRange struct {
	start, end GlyphIndex // inclusive
	class      uint16
}

// Lookup returns the class of glyph g, defaulting to 0.
func (cd ClassDefinitions) Lookup(g GlyphIndex) int {
	if g == 0 {
		return 0
	}
	switch cd.Format {
	case 1:
		if g >= cd.startGlyph && int(g-cd.startGlyph) < len(cd.classes) {
			return int(cd.classes[g-cd.startGlyph])
		}
	case 2:
		i := sort.Search(len(cd.ranges), func(i int) bool { return cd.ranges[i].end >= g })
		if i < len(cd.ranges) && g >= cd.ranges[i].start {
			return int(cd.ranges[i].class)
		}
	}
	return 0
}

// --- Scripts and language systems ----------------------------------------

// ScriptList maps script tags to script tables.
type ScriptList struct {
	scripts map[Tag]*Script
	tags    []Tag // storage order
}

// Script is a script table: a default language system plus specific
// language systems keyed by tag.
type Script struct {
	Tag     Tag
	deflt   *LangSys
	langSys map[Tag]*LangSys
}

// LangSys names the features applicable for one script/language
// combination: an optional required feature plus an ordered feature list,
// both as indices into the feature list.
type LangSys struct {
	required uint16 // 0xFFFF if none
	features []uint16
}

// Tags returns the script tags in storage order.
func (sl *ScriptList) Tags() []Tag {
	return sl.tags
}

// Script returns the script table for tag, or nil.
func (sl *ScriptList) Script(tag Tag) *Script {
	if sl == nil {
		return nil
	}
	return sl.scripts[tag]
}

// DefaultLangSys returns the script's default language system, or nil.
func (s *Script) DefaultLangSys() *LangSys {
	if s == nil {
		return nil
	}
	return s.deflt
}

// LangSys returns the language system for tag, or nil.
func (s *Script) LangSys(tag Tag) *LangSys {
	if s == nil {
		return nil
	}
	return s.langSys[tag]
}

// LangSysTags returns the tags of the script's specific language systems.
func (s *Script) LangSysTags() []Tag {
	tags := make([]Tag, 0, len(s.langSys))
	for t := range s.langSys {
		tags = append(tags, t)
	}
	return tags
}

// RequiredFeatureIndex returns the index of the mandatory feature, if any.
func (l *LangSys) RequiredFeatureIndex() (uint16, bool) {
	if l == nil || l.required == 0xFFFF {
		return 0, false
	}
	return l.required, true
}

// FeatureIndices returns the indices of the optional features, in storage
// order.
func (l *LangSys) FeatureIndices() []uint16 {
	if l == nil {
		return nil
	}
	return l.features
}

// --- Features -------------------------------------------------------------

// FeatureList is the ordered list of features of a layout table. Records
// are sorted alphabetically by tag at the binary level; application order
// is nevertheless determined by lookup indices, never by tag order.
type FeatureList struct {
	features []*Feature
}

// Feature is one feature record: its tag and the lookups it activates, as
// indices into the lookup list. Index order matters.
type Feature struct {
	Tag           Tag
	lookupIndices []uint16
}

// Len returns the number of features.
func (fl *FeatureList) Len() int {
	if fl == nil {
		return 0
	}
	return len(fl.features)
}

// Get returns feature record i, or nil for an out-of-range index.
func (fl *FeatureList) Get(i int) *Feature {
	if fl == nil || i < 0 || i >= len(fl.features) {
		return nil
	}
	return fl.features[i]
}

// Find returns the first feature with the given tag, together with its
// index, or (nil, -1). Fonts may legally carry several records with the
// same tag; LangSys feature indices disambiguate.
func (fl *FeatureList) Find(tag Tag) (*Feature, int) {
	if fl == nil {
		return nil, -1
	}
	for i, f := range fl.features {
		if f.Tag == tag {
			return f, i
		}
	}
	return nil, -1
}

// LookupCount returns the number of lookups the feature activates.
func (f *Feature) LookupCount() int {
	if f == nil {
		return 0
	}
	return len(f.lookupIndices)
}

// LookupIndex returns the i-th lookup-list index of the feature.
func (f *Feature) LookupIndex(i int) int {
	if f == nil || i < 0 || i >= len(f.lookupIndices) {
		return -1
	}
	return int(f.lookupIndices[i])
}

// LookupIndices returns all lookup-list indices of the feature in order.
func (f *Feature) LookupIndices() []uint16 {
	if f == nil {
		return nil
	}
	return f.lookupIndices
}
