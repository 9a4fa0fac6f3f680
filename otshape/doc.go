/*
Package otshape orchestrates OpenType shaping over decoded layout tables.

The package API is centered around [Shape] and [ShaperFor]:
  - callers provide shaping parameters ([Params]),
  - a script-specific [Shaper] assigns feature eligibility to glyph slots,
  - GSUB lookups substitute, GPOS lookups position, in lookup-list order.

Shaping is synchronous and single-threaded; decoded tables are immutable
and may be shared across concurrent Shape calls, each call working on its
own glyph buffer.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otshape

import (
	"fmt"

	"github.com/npillmayer/otshaping/ot"
	"github.com/npillmayer/schuko/tracing"
)

// NOTDEF is the glyph index for OpenType ".notdef".
const NOTDEF = ot.GlyphIndex(0)

// tracer returns a trace sink for the otshape package namespace.
func tracer() tracing.Trace {
	return tracing.Select("otshaping.shape")
}

// errShaper wraps a message as a user-facing shaping error.
func errShaper(x string) error {
	return fmt.Errorf("OpenType text shaping: %s", x)
}
