package otquery

import (
	"testing"

	"github.com/npillmayer/otshaping/ot"
)

// Test fonts are assembled from raw big-endian table blobs wrapped into an
// sfnt container; otquery reads the table bytes directly, so no layout
// decoding is involved except for the script-support queries.

func bw(vals ...uint16) []byte {
	b := make([]byte, 0, 2*len(vals))
	for _, v := range vals {
		b = append(b, byte(v>>8), byte(v))
	}
	return b
}

func bw32(vals ...uint32) []byte {
	b := make([]byte, 0, 4*len(vals))
	for _, v := range vals {
		b = append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
	return b
}

// neg yields the two's-complement uint16 encoding of a negative value;
// a constant conversion like uint16(int16(-250)) would not compile.
func neg(v int16) uint16 {
	return uint16(v)
}

func concat(chunks ...[]byte) []byte {
	var b []byte
	for _, c := range chunks {
		b = append(b, c...)
	}
	return b
}

func fontWithTables(t *testing.T, tables map[string][]byte) *ot.Font {
	t.Helper()
	var tags []string
	for tag := range tables {
		tags = append(tags, tag)
	}
	for i := 1; i < len(tags); i++ {
		for j := i; j > 0 && tags[j] < tags[j-1]; j-- {
			tags[j], tags[j-1] = tags[j-1], tags[j]
		}
	}
	header := concat(bw32(0x00010000), bw(uint16(len(tags)), 0, 0, 0))
	offset := 12 + 16*len(tags)
	var dir, body []byte
	for _, tag := range tags {
		data := tables[tag]
		dir = append(dir, tag[:4]...)
		dir = append(dir, bw32(0, uint32(offset), uint32(len(data)))...)
		body = append(body, data...)
		offset += len(data)
	}
	otf, err := ot.Parse(concat(header, dir, body))
	if err != nil {
		t.Fatalf("font fixture does not parse: %v", err)
	}
	return otf
}

// headTable builds a 'head' table with the given units-per-em and bounding
// box, all other fields fixed.
func headTable(unitsPerEm uint16, xMin, yMin, xMax, yMax int16) []byte {
	return concat(
		bw(1, 0),         // version
		bw32(0x00010000), // fontRevision
		bw32(0xB1B0AFBA), // checkSumAdjustment
		bw32(0x5F0F3CF5), // magicNumber
		bw(0, unitsPerEm),
		make([]byte, 16), // created, modified
		bw(uint16(xMin), uint16(yMin), uint16(xMax), uint16(yMax)),
		bw(0, 8),    // macStyle, lowestRecPPEM
		bw(2, 0, 0), // fontDirectionHint, indexToLocFormat, glyphDataFormat
	)
}

// hheaTable builds a 'hhea' table; only the fields otquery reads carry
// meaningful values.
func hheaTable(ascent, descent, lineGap int16, maxAdvance, numHMetrics uint16) []byte {
	return concat(
		bw(1, 0),
		bw(uint16(ascent), uint16(descent), uint16(lineGap), maxAdvance),
		make([]byte, 22),
		bw(numHMetrics),
	)
}

// utf16be encodes an ASCII string as UTF-16BE for name-table storage.
func utf16be(s string) []byte {
	b := make([]byte, 0, 2*len(s))
	for i := 0; i < len(s); i++ {
		b = append(b, 0, s[i])
	}
	return b
}

type nameRec struct {
	platform, encoding, nameID uint16
	value                      string
}

func nameTable(recs ...nameRec) []byte {
	storageOff := 6 + 12*len(recs)
	var records, storage []byte
	for _, r := range recs {
		val := utf16be(r.value)
		records = append(records, bw(r.platform, r.encoding, 0, r.nameID,
			uint16(len(val)), uint16(len(storage)))...)
		storage = append(storage, val...)
	}
	return concat(bw(0, uint16(len(recs)), uint16(storageOff)), records, storage)
}
