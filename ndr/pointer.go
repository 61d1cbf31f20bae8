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

// PutReferentID writes the next referent id of this message and returns it.
func (c *Cursor) PutReferentID() uint32 {
	id := c.refId
	c.refId += 4
	c.PutInt(id)
	return id
}

// GetReferentID reads a pointer's referent id. Zero is a null pointer. Ids
// are not tracked, so two pointers with the same id decode independently.
func (c *Cursor) GetReferentID() (uint32, error) {
	return c.GetInt()
}

// PutNull writes a null pointer.
func (c *Cursor) PutNull() {
	c.PutInt(0)
}

// PutXRef writes a pointer whose referent directly follows it: the next
// referent id, the value and alignment padding. A nil value is a null
// pointer and only writes four zero bytes.
func PutXRef[T any](c *Cursor, v *T, put func(*Cursor, T) error) error {
	if v == nil {
		c.PutNull()
		return nil
	}
	c.PutReferentID()
	if err := put(c, *v); err != nil {
		return err
	}
	c.Align()
	return nil
}

// GetXRef mirrors PutXRef. A zero referent id returns nil.
func GetXRef[T any](c *Cursor, get func(*Cursor) (T, error)) (*T, error) {
	id, err := c.GetReferentID()
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, nil
	}
	v, err := get(c)
	if err != nil {
		return nil, err
	}
	if err = c.AlignRead(); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Cursor) PutIntRef(v *uint32) {
	// put never fails for scalars
	_ = PutXRef(c, v, func(c *Cursor, v uint32) error {
		c.PutInt(v)
		return nil
	})
}

func (c *Cursor) GetIntRef() (*uint32, error) {
	return GetXRef(c, (*Cursor).GetInt)
}
