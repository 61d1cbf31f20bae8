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
package ndr

import (
	"fmt"
	"unicode/utf16"
)

// PutWString writes a conformant varying wide string: MaxCount, Offset=0,
// ActualCount, the UTF-16LE code units, an optional null terminator and
// alignment padding. MaxCount always equals ActualCount.
func (c *Cursor) PutWString(s string, nullTerminate bool) {
	units := utf16.Encode([]rune(s))
	if nullTerminate {
		units = append(units, 0)
	}
	c.PutInt(uint32(len(units)))
	c.PutInt(0)
	c.PutInt(uint32(len(units)))
	for _, u := range units {
		c.PutShort(u)
	}
	c.Align()
}

// GetWString reads what PutWString writes. With nullTerminated the string
// ends at the first zero code unit, the remaining declared units are still
// consumed.
func (c *Cursor) GetWString(nullTerminated bool) (string, error) {
	// MaxCount
	if _, err := c.GetInt(); err != nil {
		return "", err
	}
	// Offset. Elements before the offset are not transmitted.
	if _, err := c.GetInt(); err != nil {
		return "", err
	}
	actualCount, err := c.GetInt()
	if err != nil {
		return "", err
	}
	if uint64(actualCount)*2 > maxArraySize {
		err = fmt.Errorf("ndr: string of %d characters exceeds limit", actualCount)
		log.Errorln(err)
		return "", err
	}
	raw, err := c.next(int(actualCount) * 2)
	if err != nil {
		return "", err
	}
	units := make([]uint16, 0, actualCount)
	for i := 0; i < len(raw); i += 2 {
		u := le.Uint16(raw[i:])
		if nullTerminated && u == 0 {
			break
		}
		units = append(units, u)
	}
	if err = c.AlignRead(); err != nil {
		return "", err
	}
	return string(utf16.Decode(units)), nil
}

// PutString writes an RPC_UNICODE_STRING with its deferred buffer inline:
// Length (u16), MaximumLength (u16), referent id, then the conformant
// varying string. Length never counts the terminator, MaximumLength does.
// Nothing is written when the byte lengths do not fit in 16 bits.
func (c *Cursor) PutString(s string, nullTerminate bool) error {
	chars := len(utf16.Encode([]rune(s)))
	maxBytes := chars * 2
	if nullTerminate {
		maxBytes += 2
	}
	if maxBytes > 0xffff {
		err := fmt.Errorf("%w: string of %d characters exceeds the 65535 byte length field", ErrStringTooLong, chars)
		log.Errorln(err)
		return err
	}
	c.PutShort(uint16(chars * 2))
	c.PutShort(uint16(maxBytes))
	c.PutReferentID()
	c.PutWString(s, nullTerminate)
	return nil
}

// GetString reads what PutString writes. A null buffer pointer yields "".
func (c *Cursor) GetString(nullTerminated bool) (string, error) {
	// Length and MaximumLength are advisory, the varying part carries the count
	if err := c.Skip(4); err != nil {
		return "", err
	}
	id, err := c.GetReferentID()
	if err != nil {
		return "", err
	}
	if id == 0 {
		return "", nil
	}
	return c.GetWString(nullTerminated)
}

// PutStringRef writes a pointer to an RPC_UNICODE_STRING. nil is a null
// pointer.
func (c *Cursor) PutStringRef(s *string, nullTerminate bool) error {
	return PutXRef(c, s, func(c *Cursor, s string) error {
		return c.PutString(s, nullTerminate)
	})
}

func (c *Cursor) GetStringRef(nullTerminated bool) (*string, error) {
	return GetXRef(c, func(c *Cursor) (string, error) {
		return c.GetString(nullTerminated)
	})
}

// PutWStringRef writes a unique pointer to a wide string ([string, unique]
// wchar_t*). An empty string is sent as a null pointer.
func (c *Cursor) PutWStringRef(s string, nullTerminate bool) {
	if s == "" {
		c.PutNull()
		return
	}
	c.PutReferentID()
	c.PutWString(s, nullTerminate)
}

func (c *Cursor) GetWStringRef(nullTerminated bool) (string, error) {
	v, err := GetXRef(c, func(c *Cursor) (string, error) {
		return c.GetWString(nullTerminated)
	})
	if err != nil || v == nil {
		return "", err
	}
	return *v, nil
}
