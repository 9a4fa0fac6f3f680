package otshape

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"

	"github.com/npillmayer/otshaping/ot"
	"github.com/npillmayer/otshaping/otlayout"
)

// Params collects shaping parameters.
type Params struct {
	Font      *ot.Font        // font whose GSUB/GPOS drive the shaping
	Direction bidi.Direction  // writing direction
	Script    language.Script // 4-letter ISO 15924 script identifier
	Language  language.Tag    // BCP 47 language tag
	Features  []FeatureRange  // OpenType features to turn on or off
}

// FeatureRange tells a shaper to turn a certain OpenType feature on or off
// for a run of glyph slots. Start==End==0 means the whole run.
type FeatureRange struct {
	Feature    ot.Tag // 4-letter feature tag
	Arg        int    // optional argument for this feature
	On         bool   // turn it on or off?
	Start, End int    // slot range to apply the feature for
}

// covers reports whether the range includes slot i of a run of n slots.
func (fr FeatureRange) covers(i, n int) bool {
	if fr.Start == 0 && fr.End == 0 {
		return true
	}
	end := fr.End
	if end > n {
		end = n
	}
	return i >= fr.Start && i < end
}

// Shaper assigns feature eligibility to glyph slots before any lookup
// executes. Different scripts enable different default feature sets.
type Shaper interface {
	// AssignFeatures marks slots [index,index+count) of coll with the
	// feature tags eligible there.
	AssignFeatures(coll *otlayout.Buffer, index, count int)
}

// BaseShaper is the common shaper behavior: a set of default feature tags
// stamped onto every slot, refined by caller-provided feature ranges.
// Script-specific shapers embed it and set their defaults.
type BaseShaper struct {
	Defaults []ot.Tag       // features on for every slot of the run
	Ranges   []FeatureRange // caller overrides, applied after the defaults
}

// AssignFeatures stamps the default features onto slots [index,index+count),
// then walks the caller's feature ranges in order. A later range overrides
// an earlier one for the slots it covers; turning a feature off removes
// nothing already matched, it only withholds the tag.
func (s *BaseShaper) AssignFeatures(coll *otlayout.Buffer, index, count int) {
	n := coll.Len()
	for i := index; i < index+count && i < n; i++ {
		for _, tag := range s.Defaults {
			if s.enabledAt(tag, i, n, true) {
				coll.AssignFeature(i, i+1, tag)
			}
		}
		for _, fr := range s.Ranges {
			if fr.On && fr.covers(i, n) && !coll.HasFeature(i, fr.Feature) {
				coll.AssignFeature(i, i+1, fr.Feature)
			}
		}
	}
}

// enabledAt decides whether a default feature is active at slot i, taking
// caller ranges into account. The last covering range wins.
func (s *BaseShaper) enabledAt(tag ot.Tag, i, n int, deflt bool) bool {
	on := deflt
	for _, fr := range s.Ranges {
		if fr.Feature == tag && fr.covers(i, n) {
			on = fr.On
		}
	}
	return on
}

// LatinShaper is the default shaper for Latin-like horizontal scripts:
// standard ligatures and kerning are on unless the caller turns them off.
type LatinShaper struct {
	BaseShaper
}

// CursiveShaper covers connected scripts (Arabic, Syriac, N'Ko, Mongolian):
// the contextual forms and required ligatures that make joining work are
// mandatory and cannot be turned off by a caller range.
type CursiveShaper struct {
	BaseShaper
	mandatory []ot.Tag
}

// AssignFeatures stamps the base features, then forces the mandatory
// joining features onto every slot.
func (s *CursiveShaper) AssignFeatures(coll *otlayout.Buffer, index, count int) {
	s.BaseShaper.AssignFeatures(coll, index, count)
	for _, tag := range s.mandatory {
		coll.AssignFeature(index, index+count, tag)
	}
}

// cursiveScripts are the ISO 15924 codes of scripts shaped by
// CursiveShaper.
var cursiveScripts = map[string]bool{
	"Arab": true,
	"Syrc": true,
	"Nkoo": true,
	"Mong": true,
	"Phlp": true,
	"Mand": true,
}

// ShaperFor selects a shaper for a script. Unknown scripts fall back to the
// Latin defaults, which are harmless for fonts without the default
// features.
func ShaperFor(script language.Script, features []FeatureRange) Shaper {
	if cursiveScripts[script.String()] {
		return &CursiveShaper{
			BaseShaper: BaseShaper{
				Defaults: []ot.Tag{ot.T("liga"), ot.T("kern"), ot.T("mark"), ot.T("mkmk"), ot.T("curs")},
				Ranges:   features,
			},
			mandatory: []ot.Tag{ot.T("isol"), ot.T("init"), ot.T("medi"), ot.T("fina"), ot.T("rlig"), ot.T("calt")},
		}
	}
	return &LatinShaper{
		BaseShaper: BaseShaper{
			Defaults: []ot.Tag{ot.T("liga"), ot.T("kern"), ot.T("mark"), ot.T("mkmk")},
			Ranges:   features,
		},
	}
}

// otScriptTags maps ISO 15924 codes to OpenType script tags where the two
// disagree. For everything else the OT tag is the lowercased ISO code.
var otScriptTags = map[string]string{
	"Laoo": "lao ",
	"Nkoo": "nko ",
	"Vaii": "vai ",
	"Yiii": "yi  ",
	"Hira": "kana",
	"Hrkt": "kana",
}

// otScriptTag converts an ISO 15924 script identifier to the OpenType
// script tag used in layout-table script lists.
func otScriptTag(script language.Script) ot.Tag {
	s := script.String()
	if t, ok := otScriptTags[s]; ok {
		return ot.T(t)
	}
	if len(s) != 4 {
		return ot.DFLT
	}
	return ot.T(strings.ToLower(s))
}
