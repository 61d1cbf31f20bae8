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
package mssrvs

import (
	"fmt"

	"github.com/jfjallid/go-msrpc/dcerpc"
	"github.com/jfjallid/go-msrpc/ndr"
)

type RPCCon struct {
	*dcerpc.ServiceBind
}

// Returned to clients calling the NetShareEnumAll request
type NetShare struct {
	Name    string
	Comment string
	Type    string
	TypeId  uint32
	Hidden  bool
}

type ShareInfo1 struct {
	Name    string
	Type    uint32
	Comment string
}

/*
	typedef struct _SHARE_INFO_1_CONTAINER {
	  DWORD EntriesRead;
	  [size_is(EntriesRead)] LPSHARE_INFO_1 Buffer;
	} SHARE_INFO_1_CONTAINER;
*/
type ShareInfoContainer1 struct {
	EntriesRead uint32
	Buffer      []ShareInfo1
}

/*
	typedef struct _SHARE_ENUM_STRUCT {
	  DWORD Level;
	  [switch_is(Level)] SHARE_ENUM_UNION ShareInfo;
	} SHARE_ENUM_STRUCT;

Only level 1 is implemented, so the union arm is always a container 1.
*/
type NetShareEnum struct {
	Level     uint32
	ShareInfo *ShareInfoContainer1
}

type NetShareEnumAllRequest struct {
	ServerName   string
	InfoStruct   *NetShareEnum
	MaxBuffer    uint32
	ResumeHandle *uint32
}

type NetShareEnumAllResponse struct {
	InfoStruct   *NetShareEnum
	TotalEntries uint32
	ResumeHandle *uint32
	WindowsError uint32
}

func (self *NetShareEnumAllRequest) MarshalBinary() (ret []byte, err error) {
	log.Debugln("In MarshalBinary for NetShareEnumAllRequest")
	if self.InfoStruct == nil || self.InfoStruct.Level != 1 {
		err = fmt.Errorf("Not yet implemented support for marshalling a NetShareEnumAllRequest other than level 1")
		log.Errorln(err)
		return
	}
	ctr := self.InfoStruct.ShareInfo
	if ctr != nil && ctr.EntriesRead > 0 {
		err = fmt.Errorf("Not yet implemented support for specifying ShareInfo1 array items")
		log.Errorln(err)
		return
	}

	c := ndr.NewWriter(128)
	c.PutWStringRef(self.ServerName, true)

	// InfoStruct is a top level [ref] pointer, so no referent id
	c.PutInt(self.InfoStruct.Level)
	// Union discriminator
	c.PutInt(self.InfoStruct.Level)
	d := &ndr.Deferrer{}
	ndr.WritePointer(c, d, true, func(c *ndr.Cursor, d *ndr.Deferrer) error {
		c.PutInt(0)
		// Buffer
		c.PutNull()
		return nil
	})
	if err = d.Flush(c); err != nil {
		log.Errorln(err)
		return
	}

	c.PutInt(self.MaxBuffer)
	resume := self.ResumeHandle
	if resume == nil {
		resume = new(uint32)
	}
	c.PutIntRef(resume)
	return c.Serialize(), nil
}

func (self *NetShareEnumAllResponse) UnmarshalBinary(buf []byte) (err error) {
	log.Debugln("In UnmarshalBinary for NetShareEnumAllResponse")
	c, err := ndr.NewCursor(buf)
	if err != nil {
		log.Errorln(err)
		return
	}
	self.InfoStruct = &NetShareEnum{}
	if self.InfoStruct.Level, err = c.GetInt(); err != nil {
		log.Errorln(err)
		return
	}
	// Union discriminator repeats the level
	if err = c.Skip(4); err != nil {
		log.Errorln(err)
		return
	}
	if self.InfoStruct.Level != 1 {
		return fmt.Errorf("NOT IMPLEMENTED NetShareEnumAllResponse with ShareInfo level %d", self.InfoStruct.Level)
	}

	d := &ndr.Deferrer{}
	_, err = ndr.ReadPointer(c, d, func(c *ndr.Cursor, d *ndr.Deferrer) error {
		ctr, err := readShareInfoContainer1(c, d)
		self.InfoStruct.ShareInfo = ctr
		return err
	})
	if err == nil {
		err = d.Flush(c)
	}
	if err != nil {
		log.Errorln(err)
		return
	}

	if self.TotalEntries, err = c.GetInt(); err != nil {
		log.Errorln(err)
		return
	}
	if self.ResumeHandle, err = c.GetIntRef(); err != nil {
		log.Errorln(err)
		return
	}
	if self.WindowsError, err = c.GetInt(); err != nil {
		log.Errorln(err)
		return
	}
	return nil
}

// readShareInfoContainer1 decodes the container. The array and its strings
// are referents, queued on d in wire order.
func readShareInfoContainer1(c *ndr.Cursor, d *ndr.Deferrer) (ctr *ShareInfoContainer1, err error) {
	ctr = &ShareInfoContainer1{}
	if ctr.EntriesRead, err = c.GetInt(); err != nil {
		return
	}
	_, err = ndr.ReadPointer(c, d, func(c *ndr.Cursor, d *ndr.Deferrer) error {
		maxCount, err := c.GetInt()
		if err != nil {
			return err
		}
		if maxCount < ctr.EntriesRead {
			return fmt.Errorf("ShareInfo1 array has room for %d entries but %d were read", maxCount, ctr.EntriesRead)
		}
		if int(ctr.EntriesRead)*12 > c.Remaining() {
			return fmt.Errorf("%w: %d ShareInfo1 entries do not fit in %d bytes", ndr.ErrEndOfStream, ctr.EntriesRead, c.Remaining())
		}
		ctr.Buffer = make([]ShareInfo1, ctr.EntriesRead)
		for i := range ctr.Buffer {
			item := &ctr.Buffer[i]
			if _, err = ndr.ReadPointer(c, d, wideStringFill(&item.Name)); err != nil {
				return err
			}
			if item.Type, err = c.GetInt(); err != nil {
				return err
			}
			if _, err = ndr.ReadPointer(c, d, wideStringFill(&item.Comment)); err != nil {
				return err
			}
		}
		return nil
	})
	return
}

func wideStringFill(dst *string) ndr.FillFunc {
	return func(c *ndr.Cursor, _ *ndr.Deferrer) (err error) {
		*dst, err = c.GetWString(true)
		return
	}
}
