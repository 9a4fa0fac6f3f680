/*
Package otshaping provides OpenType glyph substitution and positioning.

The module is split into layers:

▪︎ ot decodes the binary GSUB, GPOS and GDEF tables into immutable
in-memory structures.

▪︎ otlayout applies decoded lookups to a mutable glyph buffer.

▪︎ otshape orchestrates shaping runs: feature assignment per script,
then substitution, then positioning.

This root package ties the layers together for the common case: load a
font, map text to glyph indices, shape.

# Links

OpenType explained:
https://docs.microsoft.com/en-us/typography/opentype/

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otshaping

import (
	"github.com/npillmayer/otshaping/internal/fontload"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/font/sfnt"
)

// tracer writes to trace with key 'otshaping'
func tracer() tracing.Trace {
	return tracing.Select("otshaping")
}

// ScalableFont is an internal representation of an outline-font of type
// TTF of OTF.
type ScalableFont struct {
	Fontname string
	Filepath string     // file path
	Binary   []byte     // raw data
	SFNT     *sfnt.Font // the font's container
}

// LoadOpenTypeFont loads an OpenType font (TTF or OTF) from a file.
func LoadOpenTypeFont(fontfile string) (*ScalableFont, error) {
	f, err := fontload.LoadOpenTypeFont(fontfile)
	if err != nil {
		return nil, err
	}
	return &ScalableFont{
		Fontname: f.Fontname,
		Filepath: fontfile,
		Binary:   f.Binary,
		SFNT:     f.SFNT,
	}, nil
}

// ParseOpenTypeFont loads an OpenType font (TTF or OTF) from memory.
func ParseOpenTypeFont(fbytes []byte) (*ScalableFont, error) {
	f, err := fontload.ParseOpenTypeFont(fbytes)
	if err != nil {
		return nil, err
	}
	tracer().Debugf("loaded and parsed SFNT %s", f.Fontname)
	return &ScalableFont{
		Fontname: f.Fontname,
		Binary:   f.Binary,
		SFNT:     f.SFNT,
	}, nil
}
