package ot

// Payload structures for GPOS subtables, plus the value-record and anchor
// building blocks they share.

// ValueFormat is the bit mask declaring which fields a ValueRecord carries
// in its binary form.
type ValueFormat uint16

const (
	ValueFormatXPlacement ValueFormat = 0x0001
	ValueFormatYPlacement ValueFormat = 0x0002
	ValueFormatXAdvance   ValueFormat = 0x0004
	ValueFormatYAdvance   ValueFormat = 0x0008
	ValueFormatXPlaDevice ValueFormat = 0x0010
	ValueFormatYPlaDevice ValueFormat = 0x0020
	ValueFormatXAdvDevice ValueFormat = 0x0040
	ValueFormatYAdvDevice ValueFormat = 0x0080
)

// Size returns the byte size of a value record with this format.
func (f ValueFormat) Size() int {
	size := 0
	for bit := ValueFormat(1); bit <= ValueFormatYAdvDevice; bit <<= 1 {
		if f&bit != 0 {
			size += 2
		}
	}
	return size
}

// ValueRecord is a positioning adjustment in font design units. Placement
// moves the glyph, advance changes the distance to the next glyph. Device
// table offsets are decoded but not applied.
type ValueRecord struct {
	XPlacement int16
	YPlacement int16
	XAdvance   int16
	YAdvance   int16
	XPlaDevice uint16
	YPlaDevice uint16
	XAdvDevice uint16
	YAdvDevice uint16
}

// Anchor is an attachment point on a glyph, in design units. Formats 2
// (contour point) and 3 (device corrections) carry extra data that refines
// the coordinates on some rasterizers; X and Y remain authoritative here.
type Anchor struct {
	Format       uint16
	X, Y         int16
	AnchorPoint  uint16 // format 2
	XDeviceTable uint16 // format 3
	YDeviceTable uint16 // format 3
}

// MarkRecord assigns a mark glyph to a mark class and an anchor.
type MarkRecord struct {
	Class  uint16
	Anchor Anchor
}

// SinglePos adjusts a single glyph. Format 1 applies one value to every
// covered glyph, format 2 one value per coverage index.
type SinglePos struct {
	ValueFormat ValueFormat
	Value       ValueRecord   // format 1
	Values      []ValueRecord // format 2
}

// PairPos adjusts two adjacent glyphs. Format 1 enumerates explicit second
// glyphs per first glyph, format 2 classifies both glyphs and indexes a
// class matrix.
type PairPos struct {
	ValueFormat1 ValueFormat
	ValueFormat2 ValueFormat

	PairSets [][]PairValueRecord // format 1, indexed by coverage index

	ClassDef1    ClassDefinitions  // format 2, first glyph
	ClassDef2    ClassDefinitions  // format 2, second glyph
	Class1Count  uint16            // format 2
	Class2Count  uint16            // format 2
	ClassRecords [][]PairValue     // format 2, [class1][class2]
}

// PairValueRecord adjusts the pair (covered glyph, SecondGlyph).
type PairValueRecord struct {
	SecondGlyph GlyphIndex
	PairValue
}

// PairValue is the two-sided adjustment of a glyph pair.
type PairValue struct {
	Value1 ValueRecord
	Value2 ValueRecord
}

// CursivePos joins adjacent glyphs of a connected script: the exit anchor
// of one glyph is aligned with the entry anchor of the next. Entry/exit
// slices are indexed by coverage index; a nil entry means no anchor.
type CursivePos struct {
	Entry []*Anchor
	Exit  []*Anchor
}

// MarkBasePos attaches mark glyphs to base glyphs. BaseAnchors is indexed
// by base coverage index, then by mark class; nil means no anchor for that
// class.
type MarkBasePos struct {
	MarkCoverage Coverage // mark glyphs; the subtable's primary coverage
	BaseCoverage Coverage
	ClassCount   uint16
	Marks        []MarkRecord
	BaseAnchors  [][]*Anchor
}

// MarkLigPos attaches mark glyphs to ligature components. Per ligature, one
// anchor matrix [component][mark class].
type MarkLigPos struct {
	MarkCoverage     Coverage
	LigatureCoverage Coverage
	ClassCount       uint16
	Marks            []MarkRecord
	LigatureAnchors  [][][]*Anchor
}

// MarkMarkPos attaches mark glyphs to other marks (e.g. stacked vowel
// signs). Mark2Anchors is indexed by mark2 coverage index, then mark class.
type MarkMarkPos struct {
	Mark1Coverage Coverage
	Mark2Coverage Coverage
	ClassCount    uint16
	Mark1s        []MarkRecord
	Mark2Anchors  [][]*Anchor
}
