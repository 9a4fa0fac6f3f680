package otquery

import (
	"testing"

	"github.com/npillmayer/otshaping/ot"
	"golang.org/x/image/font/sfnt"
)

func TestHeadInfo(t *testing.T) {
	otf := fontWithTables(t, map[string][]byte{
		"head": headTable(1000, -100, -200, 1100, 900),
	})
	info, ok := HeadInfo(otf)
	if !ok {
		t.Fatal("expected head table to decode")
	}
	if info.MajorVersion != 1 || info.MinorVersion != 0 {
		t.Errorf("unexpected version %d.%d", info.MajorVersion, info.MinorVersion)
	}
	if info.MagicNumber != 0x5F0F3CF5 {
		t.Errorf("unexpected magic number %#x", info.MagicNumber)
	}
	if info.UnitsPerEm != 1000 {
		t.Errorf("expected 1000 units per em, got %d", info.UnitsPerEm)
	}
	if info.XMin != -100 || info.YMin != -200 || info.XMax != 1100 || info.YMax != 900 {
		t.Errorf("unexpected bounding box (%d,%d)-(%d,%d)",
			info.XMin, info.YMin, info.XMax, info.YMax)
	}
}

func TestHeadInfoMissingOrShort(t *testing.T) {
	otf := fontWithTables(t, map[string][]byte{"maxp": bw32(0x00005000)})
	if _, ok := HeadInfo(otf); ok {
		t.Error("expected failure for a font without a head table")
	}
	otf = fontWithTables(t, map[string][]byte{"head": make([]byte, 10)})
	if _, ok := HeadInfo(otf); ok {
		t.Error("expected failure for a truncated head table")
	}
}

func TestMaxPInfo(t *testing.T) {
	otf := fontWithTables(t, map[string][]byte{
		"maxp": concat(bw32(0x00005000), bw(42)),
	})
	info, ok := MaxPInfo(otf)
	if !ok {
		t.Fatal("expected maxp table to decode")
	}
	if info.NumGlyphs != 42 {
		t.Errorf("expected 42 glyphs, got %d", info.NumGlyphs)
	}
	if info.HasExtendedProfile {
		t.Error("version 0.5 has no TrueType profile")
	}
}

func TestMaxPInfoExtendedProfile(t *testing.T) {
	otf := fontWithTables(t, map[string][]byte{
		"maxp": concat(bw32(0x00010000), bw(100),
			bw(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13)),
	})
	info, ok := MaxPInfo(otf)
	if !ok {
		t.Fatal("expected maxp table to decode")
	}
	if info.NumGlyphs != 100 {
		t.Errorf("expected 100 glyphs, got %d", info.NumGlyphs)
	}
	if !info.HasExtendedProfile {
		t.Fatal("expected TrueType profile fields")
	}
	if info.MaxPoints != 1 || info.MaxZones != 5 || info.MaxComponentDepth != 13 {
		t.Errorf("unexpected profile fields: %+v", info)
	}
}

func TestFontMetrics(t *testing.T) {
	otf := fontWithTables(t, map[string][]byte{
		"head": headTable(2048, 0, 0, 0, 0),
		"hhea": hheaTable(800, -200, 90, 1500, 2),
	})
	m := FontMetrics(otf)
	if m.UnitsPerEm != 2048 {
		t.Errorf("expected 2048 units per em, got %d", m.UnitsPerEm)
	}
	if m.Ascent != 800 || m.Descent != -200 {
		t.Errorf("expected ascent 800 / descent -200, got %d / %d", m.Ascent, m.Descent)
	}
	if m.LineGap != 90 || m.MaxAdvance != 1500 {
		t.Errorf("unexpected line gap %d or max advance %d", m.LineGap, m.MaxAdvance)
	}
}

func TestFontMetricsOS2Fallback(t *testing.T) {
	os2 := concat(make([]byte, 68), bw(750, neg(-250)), make([]byte, 10))
	otf := fontWithTables(t, map[string][]byte{
		"hhea": hheaTable(0, 0, 0, 0, 1),
		"OS/2": os2,
	})
	m := FontMetrics(otf)
	if m.Ascent != 750 || m.Descent != -250 {
		t.Errorf("expected OS/2 typo metrics 750 / -250, got %d / %d", m.Ascent, m.Descent)
	}
}

func TestGlyphMetrics(t *testing.T) {
	hmtx := bw(500, 10, 600, neg(-20), 30)
	otf := fontWithTables(t, map[string][]byte{
		"hhea": hheaTable(800, -200, 0, 1500, 2),
		"hmtx": hmtx,
	})
	cases := []struct {
		gid     ot.GlyphIndex
		advance sfnt.Units
		lsb     sfnt.Units
	}{
		{0, 500, 10},
		{1, 600, -20},
		{2, 600, 30}, // beyond numHMetrics: last advance, own side bearing
	}
	for _, c := range cases {
		m := GlyphMetrics(otf, c.gid)
		if m.Advance != c.advance || m.LSB != c.lsb {
			t.Errorf("glyph %d: expected advance %d / lsb %d, got %d / %d",
				c.gid, c.advance, c.lsb, m.Advance, m.LSB)
		}
	}
}

func TestFamilyNames(t *testing.T) {
	otf := fontWithTables(t, map[string][]byte{
		"name": nameTable(
			nameRec{3, 1, 1, "Test Family"},
			nameRec{3, 1, 2, "Regular"},
			nameRec{1, 0, 1, "Mac Entry"}, // Macintosh platform is skipped
		),
	})
	family, subfamily := FamilyNames(otf)
	if family != "Test Family" || subfamily != "Regular" {
		t.Errorf("expected (Test Family, Regular), got (%s, %s)", family, subfamily)
	}
}

func TestNamesRangeEarlyStop(t *testing.T) {
	otf := fontWithTables(t, map[string][]byte{
		"name": nameTable(
			nameRec{0, 3, 4, "Full Name"},
			nameRec{3, 1, 5, "Version 1.0"},
		),
	})
	var seen int
	for range NamesRange(otf) {
		seen++
		break
	}
	if seen != 1 {
		t.Errorf("expected iteration to stop after one record, got %d", seen)
	}
}

// gsubScripts is a layout table with a 'latn' script carrying a default
// and a 'DEU ' language system, and empty feature and lookup lists.
func gsubScripts() []byte {
	return concat(
		bw(1, 0, 10, 40, 42),
		bw(1), []byte("latn"), bw(8),
		bw(10, 1), []byte("DEU "), bw(16),
		bw(0, 0xFFFF, 0),
		bw(0, 0xFFFF, 0),
		bw(0),
		bw(0),
	)
}

func TestFontSupportsScript(t *testing.T) {
	otf := fontWithTables(t, map[string][]byte{"GSUB": gsubScripts()})
	cases := []struct {
		scr, lang   string
		wantS, want string
	}{
		{"latn", "DEU ", "latn", "DEU "},
		{"latn", "ENG ", "latn", "DFLT"},
		{"grek", "ELL ", "DFLT", "DFLT"},
	}
	for _, c := range cases {
		s, l := FontSupportsScript(otf, ot.T(c.scr), ot.T(c.lang))
		if s != ot.T(c.wantS) || l != ot.T(c.want) {
			t.Errorf("(%s, %s): expected (%s, %s), got (%s, %s)",
				c.scr, c.lang, c.wantS, c.want, s.String(), l.String())
		}
	}
}
