package otshape

import (
	"golang.org/x/text/unicode/bidi"

	"github.com/npillmayer/otshaping/ot"
	"github.com/npillmayer/otshaping/otlayout"
)

// Shape runs the shaping pipeline over a run of glyph indices: a
// script-specific shaper stamps feature eligibility onto the slots, then
// the active GSUB lookups substitute and the active GPOS lookups position,
// each table's lookups in lookup-list order. The returned buffer holds the
// shaped glyphs and, when the font has a GPOS table, their positioning
// state.
//
// Shaping is left-to-right. Right-to-left runs must be reordered by the
// caller before shaping; cursive attachment for right-to-left scripts is
// not yet implemented.
func Shape(params Params, glyphs []ot.GlyphIndex) (*otlayout.Buffer, error) {
	if params.Font == nil {
		return nil, errShaper("no font given")
	}
	if params.Direction == bidi.RightToLeft {
		tracer().Infof("right-to-left run shaped with left-to-right rules")
	}
	buf := otlayout.NewBuffer(glyphs)
	if buf.Len() == 0 {
		return buf, nil
	}

	shaper := ShaperFor(params.Script, params.Features)
	shaper.AssignFeatures(buf, 0, buf.Len())

	p := newPlan(&params, buf)
	opts := &otlayout.ApplyOptions{
		GDef:           params.Font.GDef(),
		AlternateIndex: alternateArg(params.Features),
	}
	if err := p.gsub.run(buf, opts); err != nil {
		return buf, err
	}
	if err := p.gpos.run(buf, opts); err != nil {
		return buf, err
	}
	return buf, nil
}

// alternateArg extracts the selection index for alternate substitution
// from the caller's feature ranges, falling back to the package default.
func alternateArg(features []FeatureRange) int {
	for _, fr := range features {
		if fr.Feature == ot.T("aalt") && fr.On {
			return fr.Arg
		}
	}
	return otlayout.DefaultAlternateIndex()
}
