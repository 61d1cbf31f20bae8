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

// FillFunc encodes or decodes the referent of one pointer. Pointers embedded
// in that referent are registered on d and are handled right after the
// referent itself.
type FillFunc func(c *Cursor, d *Deferrer) error

// Deferrer implements NDR pointer deferral as two passes over a
// structure. Pass one walks the fixed part and records, per embedded pointer,
// whether a referent follows (ReadPointer/WritePointer). Pass two, Flush,
// visits the recorded referents in the order their pointers were met.
type Deferrer struct {
	pending []FillFunc
}

// Defer queues fill for the deferred region.
func (d *Deferrer) Defer(fill FillFunc) {
	d.pending = append(d.pending, fill)
}

// Pending returns the number of queued referents.
func (d *Deferrer) Pending() int {
	return len(d.pending)
}

// Flush runs the queued fills in order. Each fill gets its own nested
// Deferrer which is flushed before the next sibling, giving the depth-first
// order NDR uses for referents of referents.
func (d *Deferrer) Flush(c *Cursor) error {
	for len(d.pending) > 0 {
		fill := d.pending[0]
		d.pending = d.pending[1:]
		nested := &Deferrer{}
		if err := fill(c, nested); err != nil {
			return err
		}
		if err := nested.Flush(c); err != nil {
			return err
		}
	}
	return nil
}

// ReadPointer reads an embedded pointer's referent id. When it is non-null,
// fill is deferred and true is returned.
func ReadPointer(c *Cursor, d *Deferrer, fill FillFunc) (bool, error) {
	id, err := c.GetReferentID()
	if err != nil {
		return false, err
	}
	if id == 0 {
		return false, nil
	}
	d.Defer(fill)
	return true, nil
}

// WritePointer writes an embedded pointer. A present pointer gets the next
// referent id and its referent is deferred, an absent one is written as null.
func WritePointer(c *Cursor, d *Deferrer, present bool, fill FillFunc) {
	if !present {
		c.PutNull()
		return
	}
	c.PutReferentID()
	d.Defer(fill)
}
