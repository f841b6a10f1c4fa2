package classfile

import (
	"encoding/binary"
	"unicode/utf8"
)

// decoder walks a byte slice. The first failure sticks, later reads return
// zero values.
type decoder struct {
	data []byte
	pos  int
	base int
	err  *FormatError
}

func newDecoder(data []byte, base int) *decoder {
	return &decoder{data: data, base: base}
}

func (d *decoder) fail(reason Reason, detail string) {
	if d.err == nil {
		d.err = &FormatError{Reason: reason, Offset: d.base + d.pos, Detail: detail}
	}
}

func (d *decoder) need(n int) bool {
	if d.err != nil {
		return false
	}
	if n < 0 || len(d.data)-d.pos < n {
		d.fail(ReasonTruncated, "")
		return false
	}
	return true
}

func (d *decoder) u1() uint8 {
	if !d.need(1) {
		return 0
	}
	v := d.data[d.pos]
	d.pos++
	return v
}

func (d *decoder) u2() uint16 {
	if !d.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(d.data[d.pos:])
	d.pos += 2
	return v
}

func (d *decoder) u4() uint32 {
	if !d.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(d.data[d.pos:])
	d.pos += 4
	return v
}

func (d *decoder) bytes(n int) []byte {
	if !d.need(n) {
		return nil
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b
}

func (d *decoder) skip(n int) {
	if d.need(n) {
		d.pos += n
	}
}

// sub returns a decoder over the next n bytes and advances past them.
func (d *decoder) sub(n int) *decoder {
	start := d.pos
	b := d.bytes(n)
	return newDecoder(b, d.base+start)
}

func (d *decoder) remaining() int {
	return len(d.data) - d.pos
}

func (d *decoder) offset() int {
	return d.base + d.pos
}

// decodeModifiedUTF8 decodes the JVM's modified UTF-8: NUL is encoded in
// two bytes and supplementary characters as surrogate pairs.
func decodeModifiedUTF8(b []byte) string {
	buf := make([]byte, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c&0x80 == 0:
			buf = append(buf, c)
			i++
		case c&0xE0 == 0xC0 && i+1 < len(b):
			r := rune(c&0x1F)<<6 | rune(b[i+1]&0x3F)
			buf = utf8.AppendRune(buf, r)
			i += 2
		case c&0xF0 == 0xE0 && i+2 < len(b):
			r := rune(c&0x0F)<<12 | rune(b[i+1]&0x3F)<<6 | rune(b[i+2]&0x3F)
			i += 3
			if r >= 0xD800 && r <= 0xDBFF && i+2 < len(b) && b[i] == 0xED {
				low := rune(b[i]&0x0F)<<12 | rune(b[i+1]&0x3F)<<6 | rune(b[i+2]&0x3F)
				if low >= 0xDC00 && low <= 0xDFFF {
					r = 0x10000 + (r-0xD800)<<10 + (low - 0xDC00)
					i += 3
				}
			}
			buf = utf8.AppendRune(buf, r)
		default:
			buf = utf8.AppendRune(buf, utf8.RuneError)
			i++
		}
	}
	return string(buf)
}
