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
package mslsad

import (
	"fmt"

	"github.com/jfjallid/go-msrpc/ndr"
)

// MS-LSAD Opnum 0
type LsarCloseReq struct {
	ObjectHandle []byte
}

type LsarCloseRes struct {
	ObjectHandle []byte
	ReturnCode   uint32
}

// MS-LSAD Opnum 44
type LsarOpenPolicy2Req struct {
	SystemName       string
	ObjectAttributes LsaprObjectAttributes
	DesiredAccess    uint32
}

// MS-LSAD Opnum 44
type LsarOpenPolicy2Res struct {
	PolicyHandle []byte
	ReturnCode   uint32
}

// MS-LSAD Section 2.2.2.4
// Every field but the quality of service is ignored by the server and sent
// as zero or NULL.
type LsaprObjectAttributes struct {
	Length                   uint32
	Attributes               uint32
	SecurityQualityOfService SecurityQualityOfService
}

// MS-LSAD Section 2.2.3.7
type SecurityQualityOfService struct {
	Length              uint32
	ImpersonationLevel  uint16
	ContextTrackingMode uint8
	EffectiveOnly       uint8
}

func putHandle(c *ndr.Cursor, handle []byte) error {
	if len(handle) != policyHandleLen {
		return fmt.Errorf("Invalid handle of %d bytes, expected %d", len(handle), policyHandleLen)
	}
	c.PutBytes(handle)
	return nil
}

func (self *LsarCloseReq) MarshalBinary() (res []byte, err error) {
	log.Debugln("In MarshalBinary for LsarCloseReq")
	c := ndr.NewWriter(policyHandleLen)
	if err = putHandle(c, self.ObjectHandle); err != nil {
		log.Errorln(err)
		return
	}
	return c.Serialize(), nil
}

func (self *LsarCloseRes) UnmarshalBinary(buf []byte) (err error) {
	log.Debugln("In UnmarshalBinary for LsarCloseRes")
	c, err := ndr.NewCursor(buf)
	if err != nil {
		return
	}
	if self.ObjectHandle, err = c.GetBytes(policyHandleLen); err != nil {
		log.Errorln(err)
		return
	}
	self.ReturnCode, err = c.GetInt()
	return
}

func (self *SecurityQualityOfService) marshal(c *ndr.Cursor) {
	c.PutInt(self.Length)
	c.PutShort(self.ImpersonationLevel)
	c.PutByte(self.ContextTrackingMode)
	c.PutByte(self.EffectiveOnly)
}

func (self *LsaprObjectAttributes) marshal(c *ndr.Cursor) {
	c.PutInt(self.Length)
	// RootDirectory
	c.PutNull()
	// ObjectName
	c.PutNull()
	c.PutInt(self.Attributes)
	// SecurityDescriptor
	c.PutNull()
	d := &ndr.Deferrer{}
	ndr.WritePointer(c, d, true, func(c *ndr.Cursor, _ *ndr.Deferrer) error {
		self.SecurityQualityOfService.marshal(c)
		return nil
	})
	// Never fails, the fill only writes scalars
	_ = d.Flush(c)
}

func (self *LsarOpenPolicy2Req) MarshalBinary() (res []byte, err error) {
	log.Debugln("In MarshalBinary for LsarOpenPolicy2Req")
	c := ndr.NewWriter(64)
	c.PutWStringRef(self.SystemName, true)
	self.ObjectAttributes.marshal(c)
	c.PutInt(self.DesiredAccess)
	return c.Serialize(), nil
}

func (self *LsarOpenPolicy2Res) UnmarshalBinary(buf []byte) (err error) {
	log.Debugln("In UnmarshalBinary for LsarOpenPolicy2Res")
	c, err := ndr.NewCursor(buf)
	if err != nil {
		return
	}
	if self.PolicyHandle, err = c.GetBytes(policyHandleLen); err != nil {
		err = fmt.Errorf("Buffer to small for LsarOpenPolicy2Res: %w", err)
		log.Errorln(err)
		return
	}
	if self.ReturnCode, err = c.GetInt(); err != nil {
		log.Errorln(err)
		return
	}
	return
}
