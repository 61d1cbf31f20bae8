// MIT License
//
// # Copyright (c) 2025 Jimmy Fjällid
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package ndr implements the subset of the Network Data Representation
// (C706 chapter 14, MS-RPCE 2.2.5) used by the DCE/RPC client: a little-endian
// byte cursor with NDR alignment, pointer, array and string primitives.
//
// A Cursor is single use. It holds the read/write position and the referent
// id sequence of exactly one message and must not be shared between calls.
package ndr

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/jfjallid/golog"
)

var (
	log = golog.Get("github.com/jfjallid/go-msrpc/ndr")
	le  = binary.LittleEndian
)

// First referent id handed out in a message. Every following non-null
// pointer gets the previous id + 4.
const FirstReferentId uint32 = 0x00020000

var (
	ErrEndOfStream   = errors.New("ndr: end of stream")
	ErrNilBuffer     = errors.New("ndr: nil buffer")
	ErrStringTooLong = errors.New("ndr: string too long")
)

type Cursor struct {
	buf   []byte
	pos   int
	refId uint32
}

// NewCursor wraps buf for decoding. Writes are also allowed and grow the
// buffer when they pass its end. The capacity is clipped so growing always
// reallocates and never touches the caller's memory past len(buf).
func NewCursor(buf []byte) (*Cursor, error) {
	if buf == nil {
		return nil, ErrNilBuffer
	}
	return &Cursor{buf: buf[:len(buf):len(buf)], refId: FirstReferentId}, nil
}

// NewWriter returns an empty cursor for encoding with room for capacity
// bytes before it has to reallocate.
func NewWriter(capacity int) *Cursor {
	if capacity < 0 {
		capacity = 0
	}
	return &Cursor{buf: make([]byte, 0, capacity), refId: FirstReferentId}
}

func (c *Cursor) Position() int {
	return c.pos
}

// SetPosition moves the cursor to an absolute offset. Moving past the end is
// allowed, the next read fails and the next write zero fills the gap.
func (c *Cursor) SetPosition(pos int) error {
	if pos < 0 {
		return fmt.Errorf("ndr: invalid position %d", pos)
	}
	c.pos = pos
	return nil
}

// Len returns the number of bytes available to read or written so far.
func (c *Cursor) Len() int {
	return len(c.buf)
}

func (c *Cursor) Remaining() int {
	if c.pos >= len(c.buf) {
		return 0
	}
	return len(c.buf) - c.pos
}

// Serialize returns a copy of exactly the bytes written.
func (c *Cursor) Serialize() []byte {
	out := make([]byte, len(c.buf))
	copy(out, c.buf)
	return out
}

// reserve makes sure n bytes are writable at off and returns that window.
func (c *Cursor) reserve(off, n int) []byte {
	if end := off + n; end > len(c.buf) {
		if end > cap(c.buf) {
			grown := make([]byte, end, 2*end)
			copy(grown, c.buf)
			c.buf = grown
		} else {
			// Bytes between the old length and cap may hold stale data
			old := len(c.buf)
			c.buf = c.buf[:end]
			clear(c.buf[old:end])
		}
	}
	return c.buf[off : off+n]
}

func (c *Cursor) window(off, n int) ([]byte, error) {
	if off < 0 || n < 0 || off+n > len(c.buf) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d: %w", ErrEndOfStream, n, off, len(c.buf), io.ErrUnexpectedEOF)
	}
	return c.buf[off : off+n], nil
}

func (c *Cursor) next(n int) ([]byte, error) {
	b, err := c.window(c.pos, n)
	if err != nil {
		return nil, err
	}
	c.pos += n
	return b, nil
}

// Align moves to the next 4-byte boundary, zero filling any byte that has
// not been written yet. Use it when encoding.
func (c *Cursor) Align() {
	aligned := (3 + c.pos) &^ 3
	if aligned > len(c.buf) {
		c.reserve(c.pos, aligned-c.pos)
	}
	c.pos = aligned
}

// AlignRead skips the padding up to the next 4-byte boundary of a received
// message. The padding must be present, it is never synthesized.
func (c *Cursor) AlignRead() error {
	aligned := (3 + c.pos) &^ 3
	if aligned > len(c.buf) {
		err := fmt.Errorf("%w: padding to offset %d, have %d", ErrEndOfStream, aligned, len(c.buf))
		log.Errorln(err)
		return err
	}
	c.pos = aligned
	return nil
}

func (c *Cursor) Skip(n int) error {
	_, err := c.next(n)
	return err
}

func (c *Cursor) PutByte(v byte) {
	c.reserve(c.pos, 1)[0] = v
	c.pos++
}

func (c *Cursor) PutShort(v uint16) {
	le.PutUint16(c.reserve(c.pos, 2), v)
	c.pos += 2
}

func (c *Cursor) PutInt(v uint32) {
	le.PutUint32(c.reserve(c.pos, 4), v)
	c.pos += 4
}

func (c *Cursor) PutLong(v uint64) {
	le.PutUint64(c.reserve(c.pos, 8), v)
	c.pos += 8
}

func (c *Cursor) PutBytes(b []byte) {
	copy(c.reserve(c.pos, len(b)), b)
	c.pos += len(b)
}

func (c *Cursor) GetByte() (byte, error) {
	b, err := c.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Cursor) GetShort() (uint16, error) {
	b, err := c.next(2)
	if err != nil {
		return 0, err
	}
	return le.Uint16(b), nil
}

func (c *Cursor) GetInt() (uint32, error) {
	b, err := c.next(4)
	if err != nil {
		return 0, err
	}
	return le.Uint32(b), nil
}

func (c *Cursor) GetLong() (uint64, error) {
	b, err := c.next(8)
	if err != nil {
		return 0, err
	}
	return le.Uint64(b), nil
}

// GetBytes returns a copy of the next n bytes.
func (c *Cursor) GetBytes(n int) ([]byte, error) {
	b, err := c.next(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// Indexed variants. They neither read nor move the position and are meant
// for backpatching length fields once the rest of a message is known.

func (c *Cursor) PutByteAt(idx int, v byte) {
	c.reserve(idx, 1)[0] = v
}

func (c *Cursor) PutShortAt(idx int, v uint16) {
	le.PutUint16(c.reserve(idx, 2), v)
}

func (c *Cursor) PutIntAt(idx int, v uint32) {
	le.PutUint32(c.reserve(idx, 4), v)
}

func (c *Cursor) GetByteAt(idx int) (byte, error) {
	b, err := c.window(idx, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Cursor) GetShortAt(idx int) (uint16, error) {
	b, err := c.window(idx, 2)
	if err != nil {
		return 0, err
	}
	return le.Uint16(b), nil
}

func (c *Cursor) GetIntAt(idx int) (uint32, error) {
	b, err := c.window(idx, 4)
	if err != nil {
		return 0, err
	}
	return le.Uint32(b), nil
}
