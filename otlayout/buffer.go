package otlayout

import "github.com/npillmayer/otshaping/ot"

// Buffer is the mutable glyph collection of one shaping request: per slot a
// glyph index, the feature tag assigned to the slot, and, once positioning
// runs, accumulated positioning deltas.
//
// All mutation is slot-indexed and in place. Substitution changes the slot
// count; every structural edit is expressed as "replace range [i,j) with m
// slots" and reported as an EditSpan, so callers re-map positions instead of
// trusting stale indices. A Buffer is not safe for concurrent use.
type Buffer struct {
	glyphs   []ot.GlyphIndex
	features []featureSet // per-slot eligible feature tags, nil = none
	pos      []PosItem    // nil until EnsurePos
}

// featureSet is the small set of feature tags a slot is eligible for.
// Runs carry a handful of features at most, so a slice beats a map.
type featureSet []ot.Tag

func (fs featureSet) has(t ot.Tag) bool {
	for _, f := range fs {
		if f == t {
			return true
		}
	}
	return false
}

func (fs featureSet) clone() featureSet {
	if fs == nil {
		return nil
	}
	c := make(featureSet, len(fs))
	copy(c, fs)
	return c
}

// PosItem is the accumulated positioning state of one slot, in font design
// units at the font's native unitsPerEm scale. Advances adjust the distance
// to the next glyph; offsets move the glyph itself.
type PosItem struct {
	XAdvance int32
	YAdvance int32
	XOffset  int32
	YOffset  int32

	// Attachment state, set by cursive and mark lookups.
	AttachedTo int32 // slot index of the base glyph, -1 if unattached
	Attach     AttachKind
	MarkClass  uint16
}

// AttachKind tells what kind of attachment produced a slot's offset.
type AttachKind uint8

const (
	AttachNone AttachKind = iota
	AttachCursive
	AttachMarkToBase
	AttachMarkToLigature
	AttachMarkToMark
)

// EditSpan describes a structural buffer edit: the range [From,To) was
// replaced by Len slots. Contextual lookups use it to re-map match
// positions after nested substitutions.
type EditSpan struct {
	From int
	To   int
	Len  int
}

// NewBuffer creates a buffer over a run of glyph indices. The slice is
// copied; the caller keeps ownership of its argument.
func NewBuffer(glyphs []ot.GlyphIndex) *Buffer {
	b := &Buffer{
		glyphs:   make([]ot.GlyphIndex, len(glyphs)),
		features: make([]featureSet, len(glyphs)),
	}
	copy(b.glyphs, glyphs)
	return b
}

// Len returns the number of slots.
func (b *Buffer) Len() int {
	return len(b.glyphs)
}

// At returns the glyph at slot i, or 0 for an out-of-range index.
func (b *Buffer) At(i int) ot.GlyphIndex {
	if i < 0 || i >= len(b.glyphs) {
		return 0
	}
	return b.glyphs[i]
}

// Set writes glyph g at slot i.
func (b *Buffer) Set(i int, g ot.GlyphIndex) {
	if i >= 0 && i < len(b.glyphs) {
		b.glyphs[i] = g
	}
}

// Glyphs returns the backing glyph slice. Treat as read-only.
func (b *Buffer) Glyphs() []ot.GlyphIndex {
	return b.glyphs
}

// HasFeature reports whether slot i is eligible for feature tag t.
func (b *Buffer) HasFeature(i int, t ot.Tag) bool {
	if i < 0 || i >= len(b.features) {
		return false
	}
	return b.features[i].has(t)
}

// FeaturesAt returns the feature tags slot i is eligible for. Treat as
// read-only.
func (b *Buffer) FeaturesAt(i int) []ot.Tag {
	if i < 0 || i >= len(b.features) {
		return nil
	}
	return b.features[i]
}

// AssignFeature marks slots [i,j) as eligible for feature tag t. A slot
// may carry several tags; assigning a tag twice is a no-op.
func (b *Buffer) AssignFeature(i, j int, t ot.Tag) {
	i = max(i, 0)
	j = min(j, len(b.features))
	for k := i; k < j; k++ {
		if !b.features[k].has(t) {
			b.features[k] = append(b.features[k], t)
		}
	}
}

// EnsurePos materializes the positioning buffer, with all slots unattached.
func (b *Buffer) EnsurePos() {
	if b.pos != nil {
		return
	}
	b.pos = make([]PosItem, len(b.glyphs))
	for i := range b.pos {
		b.pos[i].AttachedTo = -1
	}
}

// PosAt returns the positioning state of slot i for mutation. EnsurePos
// must have run; out-of-range indices yield nil.
func (b *Buffer) PosAt(i int) *PosItem {
	if b.pos == nil || i < 0 || i >= len(b.pos) {
		return nil
	}
	return &b.pos[i]
}

// Positions returns the positioning buffer, nil if positioning never ran.
func (b *Buffer) Positions() []PosItem {
	return b.pos
}

// ReplaceGlyphs replaces slot range [i,j) with the given glyphs and returns
// the edit. New slots inherit the feature tags of slot i, so a multiple
// substitution keeps its feature eligibility across the expansion.
// Positioning state in the replaced range is discarded.
func (b *Buffer) ReplaceGlyphs(i, j int, repl []ot.GlyphIndex) *EditSpan {
	if i < 0 {
		i = 0
	}
	if j > len(b.glyphs) {
		j = len(b.glyphs)
	}
	if j < i {
		j = i
	}
	var inherited featureSet
	if i < len(b.features) {
		inherited = b.features[i]
	}

	glyphs := make([]ot.GlyphIndex, 0, len(b.glyphs)-(j-i)+len(repl))
	glyphs = append(glyphs, b.glyphs[:i]...)
	glyphs = append(glyphs, repl...)
	glyphs = append(glyphs, b.glyphs[j:]...)
	b.glyphs = glyphs

	features := make([]featureSet, 0, len(glyphs))
	features = append(features, b.features[:i]...)
	for range repl {
		features = append(features, inherited.clone())
	}
	features = append(features, b.features[j:]...)
	b.features = features

	if b.pos != nil {
		pos := make([]PosItem, 0, len(glyphs))
		pos = append(pos, b.pos[:i]...)
		for range repl {
			pos = append(pos, PosItem{AttachedTo: -1})
		}
		pos = append(pos, b.pos[j:]...)
		b.pos = pos
	}
	return &EditSpan{From: i, To: j, Len: len(repl)}
}

// InsertGlyphs inserts glyphs before slot i.
func (b *Buffer) InsertGlyphs(i int, glyphs []ot.GlyphIndex) *EditSpan {
	return b.ReplaceGlyphs(i, i, glyphs)
}

// DeleteGlyphs removes slot range [i,j).
func (b *Buffer) DeleteGlyphs(i, j int) *EditSpan {
	return b.ReplaceGlyphs(i, j, nil)
}
