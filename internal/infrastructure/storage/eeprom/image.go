package eeprom

import (
	"bytes"
	"fmt"

	"accessterm/internal/domain/settings"
)

// Size of the emulated EEPROM region. Only the first settings.LayoutSize bytes are used.
const Size = 512

const erased = 0xFF

// Encode lays the record out as fixed-offset, zero-padded fields.
func Encode(rec settings.Record) []byte {
	buf := make([]byte, settings.LayoutSize)
	for _, f := range settings.Fields() {
		v := settings.Truncate(f, rec.Get(f))
		copy(buf[f.Offset():f.Offset()+f.Capacity()], v)
	}
	return buf
}

// Decode reads a record from an image of at least settings.LayoutSize bytes.
// A field ends at its first NUL byte or at its capacity; a field that starts with an
// erased byte (0xFF, factory-fresh flash) reads as empty.
func Decode(image []byte) (settings.Record, error) {
	if len(image) < settings.LayoutSize {
		return settings.Record{}, fmt.Errorf("%w: %d bytes, need %d", ErrShortImage, len(image), settings.LayoutSize)
	}

	var rec settings.Record
	for _, f := range settings.Fields() {
		raw := image[f.Offset() : f.Offset()+f.Capacity()]
		if raw[0] == erased {
			continue
		}
		if i := bytes.IndexByte(raw, 0); i >= 0 {
			raw = raw[:i]
		}
		rec = rec.With(f, string(raw))
	}
	return rec, nil
}
