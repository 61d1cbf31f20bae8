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

import "fmt"

// Upper bound for arrays materialized by GetByteArray. Anything larger is
// treated as a corrupt count rather than allocated.
const maxArraySize = 1 << 24

// PutEmptyArray writes the header of a conformant varying array that carries
// no elements: MaxCount, Offset=0, ActualCount=0.
func (c *Cursor) PutEmptyArray(maxCount uint32) {
	c.PutInt(maxCount)
	c.PutInt(0)
	c.PutInt(0)
}

// PutByteArray writes b as a conformant varying byte array. No padding
// follows the elements, the next field aligns itself.
func (c *Cursor) PutByteArray(b []byte) {
	c.PutInt(uint32(len(b)))
	c.PutInt(0)
	c.PutInt(uint32(len(b)))
	c.PutBytes(b)
}

// GetByteArray reads a conformant varying byte array. MaxCount is discarded.
// The result has room for Offset+ActualCount bytes with the transmitted
// elements placed after the first Offset bytes, which stay zero. The cursor
// is left directly after the last element.
func (c *Cursor) GetByteArray() ([]byte, error) {
	if _, err := c.GetInt(); err != nil {
		return nil, err
	}
	offset, err := c.GetInt()
	if err != nil {
		return nil, err
	}
	actualCount, err := c.GetInt()
	if err != nil {
		return nil, err
	}
	total := uint64(offset) + uint64(actualCount)
	if total > maxArraySize {
		err = fmt.Errorf("ndr: conformant array of %d bytes (offset %d, actual count %d) exceeds limit %d", total, offset, actualCount, maxArraySize)
		log.Errorln(err)
		return nil, err
	}
	data, err := c.next(int(actualCount))
	if err != nil {
		return nil, err
	}
	out := make([]byte, total)
	copy(out[offset:], data)
	return out, nil
}
