package otshape

import (
	"sort"

	"golang.org/x/text/language"

	"github.com/npillmayer/otshaping/ot"
	"github.com/npillmayer/otshaping/otlayout"
)

// plan is the compiled shaping program for one request: the lookups to run
// against GSUB and GPOS, each gated on a feature tag, ordered by
// lookup-list index. Feature-record order in the font never determines
// application order.
type plan struct {
	gsub *tablePlan
	gpos *tablePlan
}

// tablePlan is the per-table half of a plan.
type tablePlan struct {
	table *ot.LayoutTable
	steps []planStep
}

// planStep runs lookup lookupInx across the buffer, gated on tag. A zero
// tag means ungated: required features apply to every slot.
type planStep struct {
	lookupInx int
	tag       ot.Tag
}

// newPlan resolves (script, language) against the font's layout tables and
// selects the features active for this run. A feature participates when the
// language system lists it and at least one buffer slot is eligible for its
// tag; the required feature always participates, ungated.
func newPlan(params *Params, buf *otlayout.Buffer) *plan {
	p := &plan{}
	active := activeTags(buf)
	if gsub := params.Font.GSub(); gsub != nil {
		p.gsub = newTablePlan(gsub, params, active)
	}
	if gpos := params.Font.GPos(); gpos != nil {
		p.gpos = newTablePlan(gpos, params, active)
	}
	return p
}

func newTablePlan(t *ot.LayoutTable, params *Params, active map[ot.Tag]bool) *tablePlan {
	tp := &tablePlan{table: t}
	langSys := resolveLangSys(t, otScriptTag(params.Script), LanguageTagForLanguage(params.Language, language.Low))
	if langSys == nil {
		return tp
	}
	if req, ok := langSys.RequiredFeatureIndex(); ok {
		if feat := t.Features.Get(int(req)); feat != nil {
			tp.addFeature(feat, 0)
		}
	}
	for _, finx := range langSys.FeatureIndices() {
		feat := t.Features.Get(int(finx))
		if feat == nil || !active[feat.Tag] {
			continue
		}
		tp.addFeature(feat, feat.Tag)
	}
	sort.SliceStable(tp.steps, func(i, j int) bool {
		return tp.steps[i].lookupInx < tp.steps[j].lookupInx
	})
	return tp
}

func (tp *tablePlan) addFeature(feat *ot.Feature, tag ot.Tag) {
	for _, li := range feat.LookupIndices() {
		tp.steps = append(tp.steps, planStep{lookupInx: int(li), tag: tag})
	}
}

// run executes the plan's steps in order. Lookup indices have not been
// range-checked against this table yet; an out-of-range index surfaces
// here as an invalid-font-file error.
func (tp *tablePlan) run(buf *otlayout.Buffer, opts *otlayout.ApplyOptions) error {
	if tp == nil {
		return nil
	}
	for _, step := range tp.steps {
		if _, err := otlayout.ApplyLookupAcross(tp.table, step.lookupInx, step.tag, buf, opts); err != nil {
			return err
		}
	}
	return nil
}

// resolveLangSys finds the language system for (script, lang), falling back
// to the script's default language system and to the DFLT script.
func resolveLangSys(t *ot.LayoutTable, script, lang ot.Tag) *ot.LangSys {
	s := t.Scripts.Script(script)
	if s == nil {
		s = t.Scripts.Script(ot.DFLT)
	}
	if s == nil {
		return nil
	}
	if lang != 0 && lang != ot.DefaultLanguage {
		if ls := s.LangSys(lang); ls != nil {
			return ls
		}
	}
	return s.DefaultLangSys()
}

// activeTags collects the union of feature tags assigned to buffer slots.
func activeTags(buf *otlayout.Buffer) map[ot.Tag]bool {
	tags := make(map[ot.Tag]bool)
	for i := 0; i < buf.Len(); i++ {
		for _, t := range buf.FeaturesAt(i) {
			tags[t] = true
		}
	}
	return tags
}
