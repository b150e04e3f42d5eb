// Package encoding implements the standard base64 encoding (RFC 4648, padded)
// used to inline chart images into data URIs.
package encoding

import (
	"fmt"
	"io"
)

// Alphabet is the standard base64 alphabet. [Pad] fills short final groups.
const (
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
	Pad      = '='
)

// DefaultMIME is used by [DataURI] when no media type is given.
const DefaultMIME = "image/png"

// EncodedLen returns the length of the encoding of n bytes.
func EncodedLen(n int) int {
	return (n + 2) / 3 * 4
}

// Encode returns the padded base64 encoding of src.
//
// Empty input yields the empty string.
func Encode(src []byte) string {
	if len(src) == 0 {
		return ""
	}
	return string(Append(make([]byte, 0, EncodedLen(len(src))), src))
}

// Append appends the encoding of src to dst and returns the extended slice.
func Append(dst, src []byte) []byte {
	full := len(src) / 3 * 3
	for i := 0; i < full; i += 3 {
		b0, b1, b2 := src[i], src[i+1], src[i+2]
		dst = append(dst,
			Alphabet[b0>>2],
			Alphabet[(b0&0x3)<<4|b1>>4],
			Alphabet[(b1&0xF)<<2|b2>>6],
			Alphabet[b2&0x3F],
		)
	}

	switch rest := src[full:]; len(rest) {
	case 1:
		b0 := rest[0]
		dst = append(dst, Alphabet[b0>>2], Alphabet[(b0&0x3)<<4], Pad, Pad)
	case 2:
		b0, b1 := rest[0], rest[1]
		dst = append(dst, Alphabet[b0>>2], Alphabet[(b0&0x3)<<4|b1>>4], Alphabet[(b1&0xF)<<2], Pad)
	}

	return dst
}

// DataURIPrefix returns the "data:<mime>;base64," header of a data URI, defaulting to [DefaultMIME].
func DataURIPrefix(mime string) string {
	if mime == "" {
		mime = DefaultMIME
	}
	return "data:" + mime + ";base64,"
}

// DataURI returns src as a base64 data URI with the given media type.
func DataURI(mime string, src []byte) string {
	return DataURIPrefix(mime) + Encode(src)
}

// Encoder is a streaming [io.WriteCloser] that writes the encoding of everything written to it.
//
// Complete 3-byte groups are flushed on each Write; up to two trailing bytes are held until Close.
type Encoder struct {
	w      io.Writer
	buf    [3]byte
	nbuf   int
	out    []byte
	err    error
	closed bool
}

// NewEncoder returns an [Encoder] writing to w. Callers must Close it to flush the padded tail.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Write encodes p. The returned count is always len(p) unless the underlying writer fails.
func (e *Encoder) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	if e.closed {
		return 0, fmt.Errorf("encoding: write after close")
	}

	n := len(p)

	if e.nbuf > 0 {
		for len(p) > 0 && e.nbuf < 3 {
			e.buf[e.nbuf] = p[0]
			e.nbuf++
			p = p[1:]
		}
		if e.nbuf < 3 {
			return n, nil
		}
		e.out = Append(e.out[:0], e.buf[:])
		e.nbuf = 0
		if e.err = e.flush(); e.err != nil {
			return 0, e.err
		}
	}

	full := len(p) / 3 * 3
	if full > 0 {
		e.out = Append(e.out[:0], p[:full])
		if e.err = e.flush(); e.err != nil {
			return 0, e.err
		}
	}

	e.nbuf = copy(e.buf[:], p[full:])
	return n, nil
}

// Close writes the final, possibly padded, group. Closing twice is a no-op.
func (e *Encoder) Close() error {
	if e.closed || e.err != nil {
		return e.err
	}
	e.closed = true

	if e.nbuf == 0 {
		return nil
	}
	e.out = Append(e.out[:0], e.buf[:e.nbuf])
	e.nbuf = 0
	e.err = e.flush()
	return e.err
}

func (e *Encoder) flush() error {
	if _, err := e.w.Write(e.out); err != nil {
		return fmt.Errorf("encoding: %w", err)
	}
	return nil
}
