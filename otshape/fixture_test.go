package otshape

import (
	"testing"

	"github.com/npillmayer/otshaping/ot"
)

// Synthetic font fixtures for shaping tests: small GSUB/GPOS blobs wrapped
// into an sfnt container, assembled with a big-endian builder with
// patchable offset slots.

type tb struct {
	b []byte
}

func (t *tb) u16(vals ...uint16) *tb {
	for _, v := range vals {
		t.b = append(t.b, byte(v>>8), byte(v))
	}
	return t
}

func (t *tb) tag(s string) *tb {
	t.b = append(t.b, []byte(s)[:4]...)
	return t
}

func (t *tb) slot() int {
	pos := len(t.b)
	t.u16(0)
	return pos
}

func (t *tb) patch(slot int, v uint16) {
	t.b[slot] = byte(v >> 8)
	t.b[slot+1] = byte(v)
}

func (t *tb) child(slot int, data []byte) *tb {
	t.patch(slot, uint16(len(t.b)))
	t.b = append(t.b, data...)
	return t
}

func covF1(glyphs ...uint16) []byte {
	return (&tb{}).u16(1, uint16(len(glyphs))).u16(glyphs...).b
}

func singleSubstLookup(delta uint16, cov []byte) []byte {
	sub := &tb{}
	sub.u16(1)
	c := sub.slot()
	sub.u16(delta)
	sub.child(c, cov)

	lk := &tb{}
	lk.u16(1, 0, 1) // type single, no flags, one subtable
	s := lk.slot()
	lk.child(s, sub.b)
	return lk.b
}

// ligatureLookup matches first followed by comps and produces lig.
func ligatureLookup(first uint16, comps []uint16, lig uint16) []byte {
	rule := (&tb{}).u16(lig, uint16(len(comps)+1)).u16(comps...)
	set := &tb{}
	set.u16(1)
	r := set.slot()
	set.child(r, rule.b)

	sub := &tb{}
	sub.u16(1)
	c := sub.slot()
	sub.u16(1)
	s := sub.slot()
	sub.child(c, covF1(first))
	sub.child(s, set.b)

	lk := &tb{}
	lk.u16(4, 0, 1)
	o := lk.slot()
	lk.child(o, sub.b)
	return lk.b
}

// neg yields the two's-complement uint16 encoding of a negative value;
// a constant conversion like neg(-50) would not compile.
func neg(v int16) uint16 {
	return uint16(v)
}

// pairKernLookup kerns the pair (first, second) by xAdvance on the first
// glyph.
func pairKernLookup(first, second, xAdvance uint16) []byte {
	pairSet := (&tb{}).u16(1, second, xAdvance).b
	sub := &tb{}
	sub.u16(1)
	c := sub.slot()
	sub.u16(0x0004, 0, 1) // ValueFormat1 XAdvance, empty ValueFormat2
	ps := sub.slot()
	sub.child(c, covF1(first))
	sub.child(ps, pairSet)

	lk := &tb{}
	lk.u16(2, 0, 1)
	o := lk.slot()
	lk.child(o, sub.b)
	return lk.b
}

type langSysSpec struct {
	tag      string // empty marks the default language system
	required uint16 // 0xFFFF for none
	features []uint16
}

type scriptSpec struct {
	tag     string
	langSys []langSysSpec
}

type featureSpec struct {
	tag     string
	lookups []uint16
}

func langSysBytes(ls langSysSpec) []byte {
	return (&tb{}).u16(0, ls.required, uint16(len(ls.features))).u16(ls.features...).b
}

func scriptBytes(s scriptSpec) []byte {
	t := &tb{}
	deflt := t.slot()
	var named []langSysSpec
	for _, ls := range s.langSys {
		if ls.tag != "" {
			named = append(named, ls)
		}
	}
	t.u16(uint16(len(named)))
	slots := make([]int, len(named))
	for i, ls := range named {
		t.tag(ls.tag)
		slots[i] = t.slot()
	}
	for _, ls := range s.langSys {
		if ls.tag == "" {
			t.child(deflt, langSysBytes(ls))
		}
	}
	for i, ls := range named {
		t.child(slots[i], langSysBytes(ls))
	}
	return t.b
}

func layoutTableBytes(scripts []scriptSpec, features []featureSpec, lookups ...[]byte) []byte {
	t := &tb{}
	t.u16(1, 0)
	so := t.slot()
	fo := t.slot()
	lo := t.slot()

	sl := &tb{}
	sl.u16(uint16(len(scripts)))
	sslots := make([]int, len(scripts))
	for i, s := range scripts {
		sl.tag(s.tag)
		sslots[i] = sl.slot()
	}
	for i, s := range scripts {
		sl.child(sslots[i], scriptBytes(s))
	}
	t.child(so, sl.b)

	fl := &tb{}
	fl.u16(uint16(len(features)))
	fslots := make([]int, len(features))
	for i, f := range features {
		fl.tag(f.tag)
		fslots[i] = fl.slot()
	}
	for i, f := range features {
		fl.child(fslots[i], (&tb{}).u16(0, uint16(len(f.lookups))).u16(f.lookups...).b)
	}
	t.child(fo, fl.b)

	ll := &tb{}
	ll.u16(uint16(len(lookups)))
	lslots := make([]int, len(lookups))
	for i := range lookups {
		lslots[i] = ll.slot()
	}
	for i, lk := range lookups {
		ll.child(lslots[i], lk)
	}
	t.child(lo, ll.b)
	return t.b
}

// fontBytes wraps layout table blobs into an sfnt container.
func fontBytes(tables map[string][]byte) []byte {
	var tags []string
	for tag := range tables {
		tags = append(tags, tag)
	}
	for i := 1; i < len(tags); i++ {
		for j := i; j > 0 && tags[j] < tags[j-1]; j-- {
			tags[j], tags[j-1] = tags[j-1], tags[j]
		}
	}
	t := &tb{}
	t.b = append(t.b, 0x00, 0x01, 0x00, 0x00)
	t.u16(uint16(len(tags)), 0, 0, 0)
	offset := 12 + 16*len(tags)
	var body []byte
	for _, tag := range tags {
		data := tables[tag]
		t.tag(tag)
		t.u16(0, 0) // checksum
		t.u16(uint16(offset>>16), uint16(offset))
		t.u16(uint16(len(data)>>16), uint16(len(data)))
		body = append(body, data...)
		offset += len(data)
	}
	t.b = append(t.b, body...)
	return t.b
}

func parseFont(t *testing.T, tables map[string][]byte) *ot.Font {
	t.Helper()
	otf, err := ot.Parse(fontBytes(tables))
	if err != nil {
		t.Fatalf("font fixture does not parse: %v", err)
	}
	return otf
}

// latinLigaKernFont is a font whose GSUB ligates f(1)+i(2) into fi(3) under
// 'liga', and whose GPOS kerns the pair (3, 4) by -50 under 'kern'.
func latinLigaKernFont(t *testing.T) *ot.Font {
	t.Helper()
	gsub := layoutTableBytes(
		[]scriptSpec{{tag: "latn", langSys: []langSysSpec{{required: 0xFFFF, features: []uint16{0}}}}},
		[]featureSpec{{tag: "liga", lookups: []uint16{0}}},
		ligatureLookup(1, []uint16{2}, 3))
	gpos := layoutTableBytes(
		[]scriptSpec{{tag: "latn", langSys: []langSysSpec{{required: 0xFFFF, features: []uint16{0}}}}},
		[]featureSpec{{tag: "kern", lookups: []uint16{0}}},
		pairKernLookup(3, 4, neg(-50)))
	return parseFont(t, map[string][]byte{"GSUB": gsub, "GPOS": gpos})
}
