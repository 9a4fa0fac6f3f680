/*
Package otlayout applies OpenType layout lookups to glyph runs: the
substitution lookups of GSUB (ligatures, contextual swaps, alternates,
multiple substitution) and the positioning lookups of GPOS (kerning, cursive
joins, mark attachment).

Decoded tables come from package ot and are shared read-only; each shaping
request owns one Buffer, which lookups rewrite in place. Substitution may
change the buffer length, positioning never does. Positioning adjustments
accumulate additively, except mark attachment, which sets a mark's offset
absolutely relative to its base.

A lookup failing to match is the normal "no applicable rule" outcome, not an
error. Errors surface only for font-logic violations: a rule referencing a
lookup index outside the lookup list, or lookup nesting exceeding the depth
ceiling.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otlayout

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'otshaping.layout'.
func tracer() tracing.Trace {
	return tracing.Select("otshaping.layout")
}
