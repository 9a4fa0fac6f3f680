package otquery

import (
	"github.com/npillmayer/otshaping/ot"
	"golang.org/x/image/font/sfnt"
)

// --- Font Information -------------------------------------------------

// FontMetricsInfo contains selected metric information for a font.
type FontMetricsInfo struct {
	UnitsPerEm      sfnt.Units // ad-hoc units per em
	Ascent, Descent sfnt.Units // ascender and descender
	MaxAdvance      sfnt.Units // maximum advance width value in 'hmtx' table
	LineGap         sfnt.Units // typographic line gap
}

// GlyphMetricsInfo contains metric information for a glyph.
type GlyphMetricsInfo struct {
	Advance  sfnt.Units // advance width
	LSB, RSB sfnt.Units // side bearings
}

// FontSupportsScript returns a tuple (script-tag, language-tag) for a given
// input of a script tag and a language tag. If the language has no special
// support in the font, DFLT will be returned. If the script has no support
// in the font, DFLT will be returned for the script.
func FontSupportsScript(otf *ot.Font, scr ot.Tag, lang ot.Tag) (ot.Tag, ot.Tag) {
	if otf == nil {
		return 0, 0
	}
	gsub := otf.GSub()
	if gsub == nil || gsub.Scripts == nil {
		return ot.DFLT, ot.DFLT
	}
	script := gsub.Scripts.Script(scr)
	if script == nil {
		tracer().Infof("cannot find script %s in font", scr.String())
		return ot.DFLT, ot.DFLT
	}
	tracer().Debugf("script %s is contained in GSUB", scr.String())
	if script.LangSys(lang) != nil {
		return scr, lang
	}
	return scr, ot.DFLT
}

const hheaTableSize = 36

// FontMetrics retrieves selected metrics of a font, from table 'hhea' with
// an 'OS/2' fallback for ascent and descent.
func FontMetrics(otf *ot.Font) FontMetricsInfo {
	metrics := FontMetricsInfo{}
	if otf == nil {
		return metrics
	}
	if b := otf.TableData(ot.T("hhea")); len(b) >= hheaTableSize {
		metrics.Ascent = sfnt.Units(i16(b[4:6]))
		metrics.Descent = sfnt.Units(i16(b[6:8]))
		metrics.LineGap = sfnt.Units(i16(b[8:10]))
		metrics.MaxAdvance = sfnt.Units(u16(b[10:12]))
	}
	if metrics.Ascent == 0 && metrics.Descent == 0 {
		if b := otf.TableData(ot.T("OS/2")); len(b) >= 72 {
			tracer().Debugf("OS/2")
			a := sfnt.Units(i16(b[68:70])) // sTypoAscender
			if a > metrics.Ascent {
				tracer().Debugf("override of ascent: %d -> %d", metrics.Ascent, a)
				metrics.Ascent = a
			}
			d := sfnt.Units(i16(b[70:72])) // sTypoDescender
			if d < metrics.Descent {
				tracer().Debugf("override of descent: %d -> %d", metrics.Descent, d)
				metrics.Descent = d
			}
		}
	}
	if head, ok := HeadInfo(otf); ok {
		metrics.UnitsPerEm = sfnt.Units(head.UnitsPerEm)
	}
	return metrics
}

// --- Glyph Routines --------------------------------------------------------

// GlyphMetrics retrieves horizontal metrics for a given glyph from table
// 'hmtx'. Glyphs beyond the table's metric count share the last advance
// width, per the hmtx layout.
func GlyphMetrics(otf *ot.Font, gid ot.GlyphIndex) GlyphMetricsInfo {
	metrics := GlyphMetricsInfo{}
	if otf == nil {
		return metrics
	}
	hhea := otf.TableData(ot.T("hhea"))
	hmtx := otf.TableData(ot.T("hmtx"))
	if len(hhea) < hheaTableSize || hmtx == nil {
		return metrics
	}
	numH := int(u16(hhea[34:36]))
	if numH == 0 {
		return metrics
	}
	g := int(gid)
	if g < numH {
		if (g+1)*4 > len(hmtx) {
			return metrics
		}
		metrics.Advance = sfnt.Units(u16(hmtx[g*4 : g*4+2]))
		metrics.LSB = sfnt.Units(i16(hmtx[g*4+2 : g*4+4]))
		return metrics
	}
	// Monospaced tail: last advance width, per-glyph side bearings.
	if numH*4 > len(hmtx) {
		return metrics
	}
	metrics.Advance = sfnt.Units(u16(hmtx[(numH-1)*4 : (numH-1)*4+2]))
	off := numH*4 + (g-numH)*2
	if off+2 <= len(hmtx) {
		metrics.LSB = sfnt.Units(i16(hmtx[off : off+2]))
	}
	return metrics
}
