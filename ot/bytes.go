package ot

import (
	"errors"
	"fmt"
	"iter"
)

var errBufferBounds = errors.New("buffer bounds violated")

func u16(b []byte) uint16 {
	_ = b[1]
	return uint16(b[0])<<8 | uint16(b[1])
}

func u32(b []byte) uint32 {
	_ = b[3]
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// binarySegm is a segment of font binary data. All multi-byte values in
// OpenType fonts are big-endian.
type binarySegm []byte

// Size returns the byte size of the segment.
func (b binarySegm) Size() int {
	return len(b)
}

// Bytes returns the segment as a byte slice.
func (b binarySegm) Bytes() []byte {
	return b
}

// U16 returns the uint16 at byte position i, or 0 if out of bounds.
func (b binarySegm) U16(i int) uint16 {
	if i < 0 || i+1 >= len(b) {
		return 0
	}
	return u16(b[i:])
}

// U32 returns the uint32 at byte position i, or 0 if out of bounds.
func (b binarySegm) U32(i int) uint32 {
	if i < 0 || i+3 >= len(b) {
		return 0
	}
	return u32(b[i:])
}

// Glyphs interprets the complete segment as a run of glyph indices.
func (b binarySegm) Glyphs() []GlyphIndex {
	glyphs := make([]GlyphIndex, len(b)/2)
	for i := range glyphs {
		glyphs[i] = GlyphIndex(u16(b[i*2:]))
	}
	return glyphs
}

// view returns a sub-segment [offset, offset+n), checking bounds.
func (b binarySegm) view(offset, n int) (binarySegm, error) {
	if offset < 0 || n < 0 || offset+n > len(b) {
		return binarySegm{}, errBufferBounds
	}
	return b[offset : offset+n], nil
}

// u16 returns the uint16 at byte position i, checking bounds.
func (b binarySegm) u16(i int) (uint16, error) {
	if i < 0 || i+1 >= len(b) {
		return 0, errBufferBounds
	}
	return u16(b[i:]), nil
}

// u32 returns the uint32 at byte position i, checking bounds.
func (b binarySegm) u32(i int) (uint32, error) {
	if i < 0 || i+3 >= len(b) {
		return 0, errBufferBounds
	}
	return u32(b[i:]), nil
}

// glyphs16 reads n glyph indices starting at byte position offset.
func (b binarySegm) glyphs16(offset, n int) ([]GlyphIndex, error) {
	size, ovfl := checkedMulInt(n, 2)
	if ovfl {
		return nil, errBufferBounds
	}
	seg, err := b.view(offset, size)
	if err != nil {
		return nil, err
	}
	return seg.Glyphs(), nil
}

// --- Cursor reader --------------------------------------------------------

// Reader is a cursor-based big-endian reader over a table segment. Reads
// advance the cursor; Seek positions it absolutely, relative to the start of
// the segment. Reading past the end of the segment fails with a
// malformed-font error rather than yielding zero values.
//
// Offsets stored inside OpenType tables are relative to the start of the
// table that owns them. Callers create one Reader per table segment and use
// Seek with table-relative offsets.
type Reader struct {
	data binarySegm
	pos  int
}

// NewReader creates a reader over a byte blob, cursor at position 0.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Pos returns the current cursor position.
func (r *Reader) Pos() int {
	return r.pos
}

// Size returns the total size of the underlying segment.
func (r *Reader) Size() int {
	return len(r.data)
}

// Seek positions the cursor absolutely. Seeking beyond the segment end
// fails with a malformed-font error.
func (r *Reader) Seek(offset int) error {
	if offset < 0 || offset > len(r.data) {
		return malformedFont("Reader", fmt.Sprintf("seek to %d outside segment of size %d", offset, len(r.data)))
	}
	r.pos = offset
	return nil
}

// ReadUint16 reads a big-endian uint16 and advances the cursor.
func (r *Reader) ReadUint16() (uint16, error) {
	v, err := r.data.u16(r.pos)
	if err != nil {
		return 0, malformedFont("Reader", fmt.Sprintf("uint16 read at %d beyond segment of size %d", r.pos, len(r.data)))
	}
	r.pos += 2
	return v, nil
}

// ReadInt16 reads a big-endian int16 and advances the cursor.
func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

// ReadUint32 reads a big-endian uint32 and advances the cursor.
func (r *Reader) ReadUint32() (uint32, error) {
	v, err := r.data.u32(r.pos)
	if err != nil {
		return 0, malformedFont("Reader", fmt.Sprintf("uint32 read at %d beyond segment of size %d", r.pos, len(r.data)))
	}
	r.pos += 4
	return v, nil
}

// ReadOffset16 reads an Offset16 value. A zero offset means NULL.
func (r *Reader) ReadOffset16() (uint16, error) {
	return r.ReadUint16()
}

// ReadTag reads a 4-byte tag.
func (r *Reader) ReadTag() (Tag, error) {
	v, err := r.ReadUint32()
	return Tag(v), err
}

// ReadUint16Array reads n consecutive uint16 values.
func (r *Reader) ReadUint16Array(n int) ([]uint16, error) {
	if n < 0 {
		return nil, malformedFont("Reader", fmt.Sprintf("negative array count %d", n))
	}
	size, ovfl := checkedMulInt(n, 2)
	if ovfl {
		return nil, malformedFont("Reader", fmt.Sprintf("array count %d overflows", n))
	}
	seg, err := r.data.view(r.pos, size)
	if err != nil {
		return nil, malformedFont("Reader", fmt.Sprintf("array of %d uint16 at %d beyond segment of size %d",
			n, r.pos, len(r.data)))
	}
	r.pos += size
	values := make([]uint16, n)
	for i := range values {
		values[i] = u16(seg[i*2:])
	}
	return values, nil
}

// --- Links ----------------------------------------------------------------

// link16 is an Offset16 relative to a base segment. Jumping a link yields
// the sub-segment starting at base+offset.
type link16 struct {
	base   binarySegm
	offset uint16
}

func (l link16) IsNull() bool {
	return l.offset == 0 || len(l.base) == 0
}

// Jump resolves the link to the target segment. A dead link yields an empty
// segment, which subsequent bounds-checked reads will reject.
func (l link16) Jump() binarySegm {
	if l.IsNull() || int(l.offset) >= len(l.base) {
		return binarySegm{}
	}
	return l.base[l.offset:]
}

// link32 is an Offset32 relative to a base segment; extension subtables use
// 32-bit offsets.
type link32 struct {
	base   binarySegm
	offset uint32
}

func (l link32) IsNull() bool {
	return l.offset == 0 || len(l.base) == 0
}

func (l link32) Jump() binarySegm {
	if l.IsNull() || l.offset >= uint32(len(l.base)) {
		return binarySegm{}
	}
	return l.base[l.offset:]
}

// parseLink16 reads an Offset16 at b[offset] and binds it to base.
func parseLink16(b binarySegm, offset int, base binarySegm) (link16, error) {
	v, err := b.u16(offset)
	if err != nil {
		return link16{}, err
	}
	return link16{base: base, offset: v}, nil
}

// --- Record arrays --------------------------------------------------------

// array is a view on a run of fixed-size binary records.
type array struct {
	recordSize int
	length     int
	loc        binarySegm
}

// viewArray16 interprets b as a uint16 count followed by count records of
// size recordSize each.
func viewArray16(b binarySegm, recordSize int) (array, error) {
	if recordSize <= 0 {
		return array{}, errBufferBounds
	}
	n, err := b.u16(0)
	if err != nil {
		return array{}, err
	}
	size, ovfl := checkedMulInt(int(n), recordSize)
	if ovfl {
		return array{}, errBufferBounds
	}
	loc, err := b.view(2, size)
	if err != nil {
		return array{}, err
	}
	return array{recordSize: recordSize, length: int(n), loc: loc}, nil
}

// Len returns the number of records.
func (a array) Len() int {
	return a.length
}

// Get returns record i, or an empty segment for an out-of-range index.
func (a array) Get(i int) binarySegm {
	if i < 0 || i >= a.length {
		return binarySegm{}
	}
	return a.loc[i*a.recordSize : (i+1)*a.recordSize]
}

// All iterates over the records in order.
func (a array) All() iter.Seq2[int, binarySegm] {
	return func(yield func(int, binarySegm) bool) {
		for i := 0; i < a.length; i++ {
			if !yield(i, a.Get(i)) {
				return
			}
		}
	}
}

// tagRecordMap16 is a map of tags to Offset16 links, stored as a uint16
// count followed by 6-byte (Tag, Offset16) records sorted by tag.
// ScriptList and FeatureList are laid out this way.
type tagRecordMap16 struct {
	name    string
	base    binarySegm
	records array
}

// parseTagRecordMap16 reads a tag record map at b[offset], with link offsets
// relative to base.
func parseTagRecordMap16(b binarySegm, offset int, base binarySegm, name string) (tagRecordMap16, error) {
	if offset > 0 {
		var err error
		if b, err = b.view(offset, len(b)-offset); err != nil {
			return tagRecordMap16{}, err
		}
	}
	records, err := viewArray16(b, 6)
	if err != nil {
		return tagRecordMap16{}, err
	}
	return tagRecordMap16{name: name, base: base, records: records}, nil
}

// Len returns the number of tag records.
func (m tagRecordMap16) Len() int {
	return m.records.Len()
}

// Get returns the tag and link of record i.
func (m tagRecordMap16) Get(i int) (Tag, link16) {
	rec := m.records.Get(i)
	if rec.Size() < 6 {
		return 0, link16{}
	}
	return Tag(u32(rec[0:4])), link16{base: m.base, offset: u16(rec[4:6])}
}

// LookupTag finds the record for a given tag. Records are sorted by tag, but
// with typical counts below a few dozen a linear scan is fine.
func (m tagRecordMap16) LookupTag(tag Tag) link16 {
	for i := 0; i < m.records.Len(); i++ {
		if t, l := m.Get(i); t == tag {
			return l
		}
	}
	return link16{}
}

// Tags returns all tags of the map in storage order.
func (m tagRecordMap16) Tags() []Tag {
	tags := make([]Tag, 0, m.Len())
	for i := 0; i < m.Len(); i++ {
		t, _ := m.Get(i)
		tags = append(tags, t)
	}
	return tags
}

// Range iterates over (tag, link) pairs in storage order.
func (m tagRecordMap16) Range() iter.Seq2[Tag, link16] {
	return func(yield func(Tag, link16) bool) {
		for i := 0; i < m.Len(); i++ {
			t, l := m.Get(i)
			if !yield(t, l) {
				return
			}
		}
	}
}

// --- Checked arithmetic ---------------------------------------------------

const maxInt = int(^uint(0) >> 1)

// checkedMulInt multiplies two non-negative ints, flagging overflow.
func checkedMulInt(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, true
	}
	if a != 0 && b > maxInt/a {
		return 0, true
	}
	return a * b, false
}

// checkedAddInt adds two non-negative ints, flagging overflow.
func checkedAddInt(a, b int) (int, bool) {
	if a < 0 || b < 0 || a > maxInt-b {
		return 0, true
	}
	return a + b, false
}
