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
package dcerpc

import (
	"errors"
	"fmt"

	"github.com/jfjallid/go-msrpc/ndr"
)

// Defined in C706 (DCE 1.1: Remote Procedure Call) section 12.6.3.1 as "common fields"
type Header struct {
	MajorVersion   byte // rpc_vers
	MinorVersion   byte // rpc_vers_minor
	Type           PDUType
	Flags          PFCFlags
	Representation [4]byte // NDR data representation
	FragLength     uint16
	AuthLength     uint16
	CallId         uint32
}

func newHeader(pduType PDUType, flags PFCFlags, callId uint32) Header {
	return Header{
		MajorVersion:   RPCVersionMajor,
		MinorVersion:   RPCVersionMinor,
		Type:           pduType,
		Flags:          flags,
		Representation: DataRepresentation,
		CallId:         callId,
	}
}

func (self *Header) marshal(c *ndr.Cursor) error {
	if !self.Type.Valid() {
		err := fmt.Errorf("%w: cannot marshal header with PDU type %d", ErrInvalidState, uint8(self.Type))
		log.Errorln(err)
		return err
	}
	if self.Flags == 0 {
		err := fmt.Errorf("%w: cannot marshal %s header without pfc flags", ErrInvalidState, self.Type)
		log.Errorln(err)
		return err
	}
	// Version and data representation are fixed, whatever the caller set
	self.MajorVersion = RPCVersionMajor
	self.MinorVersion = RPCVersionMinor
	self.Representation = DataRepresentation
	c.PutByte(self.MajorVersion)
	c.PutByte(self.MinorVersion)
	c.PutByte(byte(self.Type))
	c.PutByte(byte(self.Flags))
	c.PutBytes(self.Representation[:])
	c.PutShort(self.FragLength)
	// Authentication is not supported so there is never an auth verifier
	c.PutShort(0)
	c.PutInt(self.CallId)
	return nil
}

func (self *Header) unmarshal(c *ndr.Cursor) (err error) {
	if self.MajorVersion, err = c.GetByte(); err != nil {
		return
	}
	if self.MinorVersion, err = c.GetByte(); err != nil {
		return
	}
	if self.MajorVersion != RPCVersionMajor || self.MinorVersion != RPCVersionMinor {
		err = fmt.Errorf("%w: received version %d.%d, require %d.%d", ErrVersionMismatch, self.MajorVersion, self.MinorVersion, RPCVersionMajor, RPCVersionMinor)
		log.Errorln(err)
		return
	}
	b, err := c.GetByte()
	if err != nil {
		return
	}
	self.Type = PDUType(b)
	if !self.Type.Valid() {
		err = fmt.Errorf("%w: %d", ErrUnknownPDUType, b)
		log.Errorln(err)
		return
	}
	if b, err = c.GetByte(); err != nil {
		return
	}
	self.Flags = PFCFlags(b)

	label, err := c.GetBytes(4)
	if err != nil {
		return
	}
	copy(self.Representation[:], label)
	switch {
	case label[0] != DataRepresentation[0]:
		err = fmt.Errorf("%w: integer and character format 0x%02x, only little-endian ASCII is supported", ErrInvalidNDRLabel, label[0])
	case label[1] != DataRepresentation[1]:
		err = fmt.Errorf("%w: floating point format 0x%02x, only IEEE is supported", ErrInvalidNDRLabel, label[1])
	case label[2] != 0 || label[3] != 0:
		err = fmt.Errorf("%w: reserved bytes 0x%02x%02x are not zero", ErrInvalidNDRLabel, label[2], label[3])
	}
	if err != nil {
		log.Errorln(err)
		return
	}

	if self.FragLength, err = c.GetShort(); err != nil {
		return
	}
	if self.AuthLength, err = c.GetShort(); err != nil {
		return
	}
	self.CallId, err = c.GetInt()
	return
}

// MarshalBinary encodes a header that is not followed by a body, so
// FragLength is always HeaderLen.
func (self *Header) MarshalBinary() ([]byte, error) {
	return marshalPDU(self, nil)
}

func (self *Header) UnmarshalBinary(buf []byte) error {
	c, err := ndr.NewCursor(buf)
	if err != nil {
		return err
	}
	return self.unmarshal(c)
}

// marshalPDU writes the header followed by body and backpatches FragLength
// with the total length of the PDU.
func marshalPDU(h *Header, body func(c *ndr.Cursor) error) ([]byte, error) {
	c := ndr.NewWriter(int(MaxXmitFrag))
	if err := h.marshal(c); err != nil {
		return nil, err
	}
	if body != nil {
		if err := body(c); err != nil {
			log.Errorln(err)
			return nil, err
		}
	}
	if c.Len() > 0xffff {
		err := fmt.Errorf("%w: %s PDU of %d bytes does not fit in one fragment", ErrFragmented, h.Type, c.Len())
		log.Errorln(err)
		return nil, err
	}
	h.FragLength = uint16(c.Len())
	h.AuthLength = 0
	c.PutShortAt(8, h.FragLength)
	return c.Serialize(), nil
}

// readFrame decodes the header of buf and checks that the whole fragment is
// present. The returned cursor is limited to the fragment and positioned
// after the header.
func readFrame(buf []byte) (*Header, *ndr.Cursor, error) {
	c, err := ndr.NewCursor(buf)
	if err != nil {
		return nil, nil, err
	}
	h := &Header{}
	if err = h.unmarshal(c); err != nil {
		if errors.Is(err, ndr.ErrEndOfStream) {
			err = fmt.Errorf("%w: %d bytes is less than a PDU header: %w", ErrIncompleteFrame, len(buf), err)
			log.Errorln(err)
		}
		return nil, nil, err
	}
	if int(h.FragLength) < HeaderLen || int(h.FragLength) > len(buf) {
		err = fmt.Errorf("%w: fragment length %d with %d bytes received", ErrIncompleteFrame, h.FragLength, len(buf))
		log.Errorln(err)
		return nil, nil, err
	}
	if int(h.AuthLength) > int(h.FragLength)-HeaderLen {
		err = fmt.Errorf("%w: auth length %d exceeds fragment length %d", ErrIncompleteFrame, h.AuthLength, h.FragLength)
		log.Errorln(err)
		return nil, nil, err
	}
	c, err = ndr.NewCursor(buf[:h.FragLength])
	if err != nil {
		return nil, nil, err
	}
	if err = c.SetPosition(HeaderLen); err != nil {
		return nil, nil, err
	}
	return h, c, nil
}
