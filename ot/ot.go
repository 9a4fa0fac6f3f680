/*
Package ot decodes the OpenType advanced-typography tables GSUB and GPOS:
scripts, features, lookups, coverage and class-definition tables, and the
family of substitution and positioning subtable formats.

Decoding is strict. Structural damage (truncated arrays, offsets beyond a
table's segment) fails with ErrMalformedFont; semantic violations (an
unknown subtable format, a lookup index beyond the lookup list) fail with
ErrInvalidFontFile. There are no partially decoded tables.

All decoded tables are immutable after load and may be shared read-only by
concurrent shaping requests.

This package deliberately does not interpret cmap, glyph outlines or font
metrics; it consumes glyph indices and produces substituted glyph indices
and positioning deltas in font design units.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package ot

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'otshaping.ot'.
func tracer() tracing.Trace {
	return tracing.Select("otshaping.ot")
}

// GlyphIndex is a glyph's index within a font. Glyph index 0 is reserved
// for "notdef" and never matches any coverage or class based rule.
type GlyphIndex uint16

// Tag is a 4-byte identifier for scripts, languages, features and tables,
// compared by exact byte value.
type Tag uint32

// T creates a tag from a (4-byte) string. Shorter strings are padded with
// blanks, longer strings are truncated.
func T(s string) Tag {
	switch len(s) {
	case 0:
		return 0
	case 1:
		s = s + "   "
	case 2:
		s = s + "  "
	case 3:
		s = s + " "
	}
	return MakeTag([]byte(s[:4]))
}

// MakeTag creates a tag from the first 4 bytes of b.
func MakeTag(b []byte) Tag {
	if len(b) < 4 {
		padded := make([]byte, 4)
		copy(padded, b)
		for i := len(b); i < 4; i++ {
			padded[i] = ' '
		}
		b = padded
	}
	return Tag(u32(b))
}

// String returns the tag as a 4-character string.
func (t Tag) String() string {
	return string([]byte{
		byte(t >> 24 & 0xff),
		byte(t >> 16 & 0xff),
		byte(t >> 8 & 0xff),
		byte(t & 0xff),
	})
}

// Tags used throughout layout-table navigation.
var (
	// DFLT is the default script tag.
	DFLT = T("DFLT")
	// DefaultLanguage is the default language-system tag.
	DefaultLanguage = T("dflt")
	// TagGSub identifies the glyph-substitution table.
	TagGSub = T("GSUB")
	// TagGPos identifies the glyph-positioning table.
	TagGPos = T("GPOS")
	// TagGDef identifies the glyph-definitions table.
	TagGDef = T("GDEF")
)

// Table directory and header sanity limits. Fonts exceeding these are not
// fonts, they are attacks.
const (
	MaxTableCount   = 512  // table directory entries
	MaxScriptCount  = 500  // scripts per layout table
	MaxFeatureCount = 2000 // features per layout table
	MaxLookupCount  = 3000 // lookups per layout table
)

// Font is a decoded font file: the raw binary plus the located and decoded
// advanced-typography tables. The binary must not change after parsing.
type Font struct {
	Binary []byte          // raw font bytes
	Header FontHeader      // font file header
	tables map[Tag]tableRecord
	gsub   *LayoutTable
	gpos   *LayoutTable
	gdef   *GDefTable
}

// FontHeader is the first segment of a font file, identifying the container
// flavor and the table count.
type FontHeader struct {
	FontType   uint32 // 0x00010000, 'OTTO' or 'true'
	TableCount uint16
}

// tableRecord locates a table's segment within the font binary.
type tableRecord struct {
	offset uint32
	length uint32
}

// TableTags returns the tags of all tables present in the font, in
// directory order.
func (f *Font) TableTags() []Tag {
	tags := make([]Tag, 0, len(f.tables))
	for tag := range f.tables {
		tags = append(tags, tag)
	}
	return tags
}

// TableData returns the raw segment of table tag, or nil if the font does
// not contain it.
func (f *Font) TableData(tag Tag) []byte {
	rec, ok := f.tables[tag]
	if !ok {
		return nil
	}
	return f.Binary[rec.offset : rec.offset+rec.length]
}

// GSub returns the decoded GSUB table, or nil.
func (f *Font) GSub() *LayoutTable {
	return f.gsub
}

// GPos returns the decoded GPOS table, or nil.
func (f *Font) GPos() *LayoutTable {
	return f.gpos
}

// GDef returns the decoded GDEF table, or nil.
func (f *Font) GDef() *GDefTable {
	return f.gdef
}
