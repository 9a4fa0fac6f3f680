package otshaping

import (
	"golang.org/x/image/font/sfnt"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"

	"github.com/npillmayer/otshaping/ot"
	"github.com/npillmayer/otshaping/otlayout"
	"github.com/npillmayer/otshaping/otquery"
	"github.com/npillmayer/otshaping/otshape"
)

// FromBinary parses raw OpenType bytes and returns a decoded font with its
// layout tables.
//
// The input is expected to contain a complete single-font SFNT stream. It
// must not change after parsing for the font to be usable.
func FromBinary(data []byte) (*ot.Font, error) {
	return ot.Parse(data)
}

// FamilyName extracts family and subfamily names from a font's `name`
// table.
//
// Returned values are empty if no matching records exist or if records
// cannot be decoded by the current name-table reader.
func FamilyName(f *ot.Font) (family, subfamily string) {
	return otquery.FamilyNames(f)
}

// GlyphRun maps text to glyph indices through a font's character map. Runes
// without a glyph map to .notdef (glyph 0).
func GlyphRun(sf *ScalableFont, text string) []ot.GlyphIndex {
	if sf == nil || sf.SFNT == nil {
		return nil
	}
	var buf sfnt.Buffer
	glyphs := make([]ot.GlyphIndex, 0, len(text))
	for _, r := range text {
		gid, err := sf.SFNT.GlyphIndex(&buf, r)
		if err != nil {
			gid = 0
		}
		glyphs = append(glyphs, ot.GlyphIndex(gid))
	}
	return glyphs
}

// ShapeLatinText shapes UTF-8 text as one left-to-right run in “Latin”
// (i.e., Western) script.
//
// It shapes with script `Latn` and language `en` and returns the shaped
// glyph buffer. If sf is nil or text is empty, it does nothing.
//
// This is a convenience API for a very common use-case of short pieces of
// Western text. Clients who need more control over shaping, such as shaping
// multiple runs or using different scripts and languages, use package
// otshape directly.
func ShapeLatinText(sf *ScalableFont, text string) (*otlayout.Buffer, error) {
	if sf == nil || text == "" {
		return nil, nil
	}
	otf, err := FromBinary(sf.Binary)
	if err != nil {
		return nil, err
	}
	params := otshape.Params{
		Font:      otf,
		Direction: bidi.LeftToRight,
		Script:    language.MustParseScript("Latn"),
		Language:  language.English,
	}
	return otshape.Shape(params, GlyphRun(sf, text))
}
