package ot

import "fmt"

// Parse decodes a font binary: the file header, the table directory, and
// the advanced-typography tables GSUB, GPOS and GDEF if present. The byte
// slice is kept referenced and must not change afterwards.
//
// Tables other than the layout tables are located but not interpreted; the
// container surface (cmap, metrics, outlines) is the business of other
// packages.
func Parse(data []byte) (*Font, error) {
	b := binarySegm(data)
	version, err := b.u32(0)
	if err != nil {
		return nil, malformedFont("FontHeader", "font binary too small for header")
	}
	switch version {
	case 0x00010000, 0x4f54544f, 0x74727565: // sfnt 1.0, 'OTTO', 'true'
	default:
		return nil, invalidFontFile("FontHeader", fmt.Sprintf("unrecognized font version 0x%08x", version))
	}
	tableCount, err := b.u16(4)
	if err != nil {
		return nil, malformedFont("FontHeader", "truncated table directory header")
	}
	if int(tableCount) > MaxTableCount {
		return nil, malformedFont("FontHeader", fmt.Sprintf("table count %d exceeds limit %d", tableCount, MaxTableCount))
	}
	font := &Font{
		Binary: data,
		Header: FontHeader{FontType: version, TableCount: tableCount},
		tables: make(map[Tag]tableRecord, tableCount),
	}
	for i := 0; i < int(tableCount); i++ {
		rec, err := b.view(12+i*16, 16)
		if err != nil {
			return nil, malformedFont("TableDirectory", fmt.Sprintf("truncated at record %d of %d", i, tableCount))
		}
		tag := Tag(u32(rec))
		offset, length := u32(rec[8:]), u32(rec[12:])
		end, ovfl := checkedAddInt(int(offset), int(length))
		if ovfl || end > len(data) {
			return nil, malformedFont("TableDirectory",
				fmt.Sprintf("table %s exceeds font binary: offset %d length %d", tag, offset, length))
		}
		font.tables[tag] = tableRecord{offset: offset, length: length}
	}
	if err := parseLayoutTables(font); err != nil {
		return nil, err
	}
	return font, nil
}

// ParseLayoutTable decodes a standalone GSUB or GPOS table blob. tag must
// be TagGSub or TagGPos. Offsets within the blob are relative to its start,
// per OpenType convention.
func ParseLayoutTable(tag Tag, data []byte) (*LayoutTable, error) {
	if tag != TagGSub && tag != TagGPos {
		return nil, invalidFontFile("LayoutTable", fmt.Sprintf("%s is not a layout table", tag))
	}
	t, err := parseLayoutTable(tag, data)
	return t, tableError(err, tag)
}

func parseLayoutTables(font *Font) error {
	for _, tag := range []Tag{TagGSub, TagGPos} {
		data := font.TableData(tag)
		if data == nil {
			continue
		}
		t, err := parseLayoutTable(tag, data)
		if err != nil {
			return tableError(err, tag)
		}
		if tag == TagGSub {
			font.gsub = t
		} else {
			font.gpos = t
		}
	}
	if data := font.TableData(TagGDef); data != nil {
		gdef, err := parseGDef(data)
		if err != nil {
			return tableError(err, TagGDef)
		}
		font.gdef = gdef
	}
	return nil
}

func parseLayoutTable(tag Tag, data []byte) (*LayoutTable, error) {
	b := binarySegm(data)
	t := &LayoutTable{TableTag: tag, data: b}
	if err := parseLayoutHeader(t, b); err != nil {
		return nil, err
	}
	var err error
	if t.Scripts, err = parseScriptList(b, t.header.offsets.ScriptListOffset); err != nil {
		return nil, err
	}
	if t.Features, err = parseFeatureList(b, t.header.offsets.FeatureListOffset); err != nil {
		return nil, err
	}
	if t.Lookups, err = parseLookupList(tag, b, t.header.offsets.LookupListOffset); err != nil {
		return nil, err
	}
	// Cross-check feature lookup indices now so corrupt fonts fail at load,
	// not in the middle of shaping.
	for i := 0; i < t.Features.Len(); i++ {
		f := t.Features.Get(i)
		for _, li := range f.LookupIndices() {
			if int(li) >= t.Lookups.Len() {
				return nil, invalidFontFile("FeatureList",
					fmt.Sprintf("feature %s references lookup %d outside list of %d lookups",
						f.Tag, li, t.Lookups.Len()))
			}
		}
	}
	if t.header.offsets.FeatureVariationsOffset != 0 {
		t.errs.addWarning(tag, "feature variations present but not interpreted",
			t.header.offsets.FeatureVariationsOffset)
	}
	// A script without any language system selects no features; usable, but
	// worth surfacing through Errors().
	for _, stag := range t.Scripts.Tags() {
		s := t.Scripts.Script(stag)
		if s.DefaultLangSys() == nil && len(s.LangSysTags()) == 0 {
			t.errs.addError(tag, "ScriptList",
				fmt.Sprintf("script %s has no language system", stag), SeverityMajor, 0)
		}
	}
	tracer().Debugf("%s: %d scripts, %d features, %d lookups", tag,
		len(t.Scripts.Tags()), t.Features.Len(), t.Lookups.Len())
	return t, nil
}

// parseLayoutHeader reads the version header and the section offsets of a
// GSUB/GPOS table. Versions 1.0 and 1.1 are understood.
func parseLayoutHeader(t *LayoutTable, b binarySegm) error {
	h := layoutHeader{}
	var err error
	if h.Major, err = b.u16(0); err != nil {
		return malformedFont("LayoutHeader", "truncated version header")
	}
	if h.Minor, err = b.u16(2); err != nil {
		return malformedFont("LayoutHeader", "truncated version header")
	}
	if h.Major != 1 || h.Minor > 1 {
		return invalidFontFile("LayoutHeader",
			fmt.Sprintf("unsupported layout table version %d.%d", h.Major, h.Minor))
	}
	seg, err := b.view(4, 6)
	if err != nil {
		return malformedFont("LayoutHeader", "truncated section offsets")
	}
	h.offsets.ScriptListOffset = u16(seg)
	h.offsets.FeatureListOffset = u16(seg[2:])
	h.offsets.LookupListOffset = u16(seg[4:])
	if h.Minor == 1 {
		fv, err := b.u32(10)
		if err != nil {
			return malformedFont("LayoutHeader", "truncated feature variations offset")
		}
		h.offsets.FeatureVariationsOffset = fv
	}
	for _, off := range []uint16{h.offsets.ScriptListOffset, h.offsets.FeatureListOffset, h.offsets.LookupListOffset} {
		if int(off) >= len(b) {
			return malformedFont("LayoutHeader", fmt.Sprintf("section offset %d outside table of size %d", off, len(b)))
		}
	}
	t.header = h
	return nil
}

// --- Script list ----------------------------------------------------------

func parseScriptList(b binarySegm, offset uint16) (*ScriptList, error) {
	base := link16{base: b, offset: offset}.Jump()
	if base.Size() == 0 {
		return nil, malformedFont("ScriptList", "script list offset outside table")
	}
	m, err := parseTagRecordMap16(base, 0, base, "ScriptList")
	if err != nil {
		return nil, malformedFont("ScriptList", "truncated script records")
	}
	if m.Len() > MaxScriptCount {
		return nil, malformedFont("ScriptList", fmt.Sprintf("script count %d exceeds limit %d", m.Len(), MaxScriptCount))
	}
	sl := &ScriptList{scripts: make(map[Tag]*Script, m.Len())}
	for tag, l := range m.Range() {
		script, err := parseScript(tag, l.Jump())
		if err != nil {
			return nil, err
		}
		sl.scripts[tag] = script
		sl.tags = append(sl.tags, tag)
	}
	return sl, nil
}

func parseScript(tag Tag, seg binarySegm) (*Script, error) {
	if seg.Size() == 0 {
		return nil, malformedFont("Script", fmt.Sprintf("script %s offset outside script list", tag))
	}
	s := &Script{Tag: tag, langSys: make(map[Tag]*LangSys)}
	defOff, err := seg.u16(0)
	if err != nil {
		return nil, malformedFont("Script", "truncated script table")
	}
	if defOff != 0 {
		ls, err := parseLangSys(link16{base: seg, offset: defOff}.Jump())
		if err != nil {
			return nil, err
		}
		s.deflt = ls
	}
	m, err := parseTagRecordMap16(seg, 2, seg, "LangSysList")
	if err != nil {
		return nil, malformedFont("Script", fmt.Sprintf("script %s: truncated lang-sys records", tag))
	}
	for lsTag, l := range m.Range() {
		ls, err := parseLangSys(l.Jump())
		if err != nil {
			return nil, err
		}
		s.langSys[lsTag] = ls
	}
	return s, nil
}

func parseLangSys(seg binarySegm) (*LangSys, error) {
	if seg.Size() < 6 {
		return nil, malformedFont("LangSys", "lang-sys table truncated")
	}
	required := seg.U16(2)
	count := int(seg.U16(4))
	features, err := seg.view(6, count*2)
	if err != nil {
		return nil, malformedFont("LangSys", fmt.Sprintf("truncated feature index array of %d entries", count))
	}
	ls := &LangSys{required: required, features: make([]uint16, count)}
	for i := range ls.features {
		ls.features[i] = u16(features[i*2:])
	}
	return ls, nil
}

// --- Feature list ---------------------------------------------------------

/// parseFeatureList decodes the feature list: a (tag, offset) record array,
// then each feature's lookup indices. All offsets are read before the
// feature tables are visited, keeping seeks within each table monotonic.
func parseFeatureList(b binarySegm, offset uint16) (*FeatureList, error) {
	base := link16{base: b, offset: offset}.Jump()
	if base.Size() == 0 {
		return nil, malformedFont("FeatureList", "feature list offset outside table")
	}
	m, err := parseTagRecordMap16(base, 0, base, "FeatureList")
	if err != nil {
		return nil, malformedFont("FeatureList", "truncated feature records")
	}
	if m.Len() > MaxFeatureCount {
		return nil, malformedFont("FeatureList", fmt.Sprintf("feature count %d exceeds limit %d", m.Len(), MaxFeatureCount))
	}
	fl := &FeatureList{features: make([]*Feature, 0, m.Len())}
	links := make([]link16, 0, m.Len())
	tags := make([]Tag, 0, m.Len())
	for tag, l := range m.Range() {
		tags = append(tags, tag)
		links = append(links, l)
	}
	for i, l := range links {
		seg := l.Jump()
		if seg.Size() < 4 {
			return nil, malformedFont("FeatureList", fmt.Sprintf("feature %s table truncated", tags[i]))
		}
		count := int(seg.U16(2))
		indices, err := seg.view(4, count*2)
		if err != nil {
			return nil, malformedFont("FeatureList",
				fmt.Sprintf("feature %s: truncated lookup index array of %d entries", tags[i], count))
		}
		f := &Feature{Tag: tags[i], lookupIndices: make([]uint16, count)}
		for j := range f.lookupIndices {
			f.lookupIndices[j] = u16(indices[j*2:])
		}
		fl.features = append(fl.features, f)
	}
	return fl, nil
}

// --- Coverage and class definitions ---------------------------------------

// parseCoverage decodes a coverage table. Formats 1 and 2 exist; anything
// else would make all downstream per-coverage data unreadable, hence the
// hard failure.
func parseCoverage(seg binarySegm) (Coverage, error) {
	format, err := seg.u16(0)
	if err != nil {
		return Coverage{}, malformedFont("Coverage", "coverage table truncated")
	}
	switch format {
	case 1:
		glyphArr, err := viewArray16(seg[2:], 2)
		if err != nil {
			return Coverage{}, malformedFont("Coverage", "truncated glyph array")
		}
		glyphs := make([]GlyphIndex, glyphArr.Len())
		for i := range glyphs {
			glyphs[i] = GlyphIndex(u16(glyphArr.Get(i)))
		}
		return Coverage{Format: 1, glyphs: glyphs}, nil
	case 2:
		rangeArr, err := viewArray16(seg[2:], 6)
		if err != nil {
			return Coverage{}, malformedFont("Coverage", "truncated range records")
		}
		ranges := make([]coverageRange, rangeArr.Len())
		for i := range ranges {
			rec := rangeArr.Get(i)
			ranges[i] = coverageRange{
				start:      GlyphIndex(u16(rec)),
				end:        GlyphIndex(u16(rec[2:])),
				startIndex: u16(rec[4:]),
			}
			if ranges[i].end < ranges[i].start {
				return Coverage{}, malformedFont("Coverage",
					fmt.Sprintf("range %d runs backwards: %d..%d", i, ranges[i].start, ranges[i].end))
			}
		}
		return Coverage{Format: 2, ranges: ranges}, nil
	}
	return Coverage{}, invalidFontFile("Coverage",
		fmt.Sprintf("coverage format %d, expected 1 or 2", format))
}

// parseCoverageAt resolves an Offset16 at b[offset] relative to base and
// decodes the coverage table there.
func parseCoverageAt(b binarySegm, offset int, base binarySegm) (Coverage, error) {
	l, err := parseLink16(b, offset, base)
	if err != nil {
		return Coverage{}, malformedFont("Coverage", "coverage offset truncated")
	}
	seg := l.Jump()
	if seg.Size() == 0 {
		return Coverage{}, malformedFont("Coverage", fmt.Sprintf("coverage offset %d outside subtable", l.offset))
	}
	return parseCoverage(seg)
}

// parseClassDef decodes a class definition table, formats 1 and 2.
func parseClassDef(seg binarySegm) (ClassDefinitions, error) {
	format, err := seg.u16(0)
	if err != nil {
		return ClassDefinitions{}, malformedFont("ClassDef", "class definition table truncated")
	}
	switch format {
	case 1:
		if seg.Size() < 6 {
			return ClassDefinitions{}, malformedFont("ClassDef", "format 1 header truncated")
		}
		start := GlyphIndex(seg.U16(2))
		count := int(seg.U16(4))
		values, err := seg.view(6, count*2)
		if err != nil {
			return ClassDefinitions{}, malformedFont("ClassDef",
				fmt.Sprintf("truncated class value array of %d entries", count))
		}
		cd := ClassDefinitions{Format: 1, startGlyph: start, classes: make([]uint16, count)}
		for i := range cd.classes {
			cd.classes[i] = u16(values[i*2:])
		}
		return cd, nil
	case 2:
		rangeArr, err := viewArray16(seg[2:], 6)
		if err != nil {
			return ClassDefinitions{}, malformedFont("ClassDef", "truncated class range records")
		}
		ranges := make([]classRange, rangeArr.Len())
		for i := range ranges {
			rec := rangeArr.Get(i)
			ranges[i] = classRange{
				start: GlyphIndex(u16(rec)),
				end:   GlyphIndex(u16(rec[2:])),
				class: u16(rec[4:]),
			}
			if ranges[i].end < ranges[i].start {
				return ClassDefinitions{}, malformedFont("ClassDef",
					fmt.Sprintf("range %d runs backwards: %d..%d", i, ranges[i].start, ranges[i].end))
			}
		}
		return ClassDefinitions{Format: 2, ranges: ranges}, nil
	}
	return ClassDefinitions{}, invalidFontFile("ClassDef",
		fmt.Sprintf("class definition format %d, expected 1 or 2", format))
}

// parseClassDefAt resolves an Offset16 at b[offset] relative to base and
// decodes the class definition there. A NULL offset yields the empty class
// definition, which maps every glyph to class 0.
func parseClassDefAt(b binarySegm, offset int, base binarySegm) (ClassDefinitions, error) {
	l, err := parseLink16(b, offset, base)
	if err != nil {
		return ClassDefinitions{}, malformedFont("ClassDef", "class definition offset truncated")
	}
	if l.IsNull() {
		return ClassDefinitions{}, nil
	}
	seg := l.Jump()
	if seg.Size() == 0 {
		return ClassDefinitions{}, malformedFont("ClassDef",
			fmt.Sprintf("class definition offset %d outside subtable", l.offset))
	}
	return parseClassDef(seg)
}

// --- GDEF ----------------------------------------------------------------

// parseGDef decodes the glyph classifications of a GDEF table. Other GDEF
// sections (attachment points, ligature carets, mark glyph sets) are
// skipped.
func parseGDef(data []byte) (*GDefTable, error) {
	b := binarySegm(data)
	if b.Size() < 12 {
		return nil, malformedFont("GDef", "GDEF header truncated")
	}
	major, minor := b.U16(0), b.U16(2)
	if major != 1 {
		return nil, invalidFontFile("GDef", fmt.Sprintf("unsupported GDEF version %d.%d", major, minor))
	}
	gdef := &GDefTable{}
	var err error
	if gdef.GlyphClassDef, err = parseClassDefAt(b, 4, b); err != nil {
		return nil, err
	}
	if gdef.MarkAttachClassDef, err = parseClassDefAt(b, 10, b); err != nil {
		return nil, err
	}
	return gdef, nil
}
