/*
Package otquery answers questions about fonts: metric information, name
records, script support. Queries decode the raw table bytes on every call;
callers caching results is the intended usage.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otquery

import "github.com/npillmayer/schuko/tracing"

// tracer returns a trace sink for the otquery package namespace.
func tracer() tracing.Trace {
	return tracing.Select("otshaping.query")
}

func u16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])<<0
}

func i16(b []byte) int16 {
	return int16(b[0])<<8 | int16(b[1])<<0
}
