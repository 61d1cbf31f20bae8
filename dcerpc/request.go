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
	"fmt"

	"github.com/google/uuid"
	"github.com/jfjallid/go-msrpc/ndr"
)

// C706 Section 12.6.4.9
type RequestReq struct { // 24 + optional object uuid + len of Buffer
	Header
	// AllocHint is an optional field useful for hinting required space when
	// sending fragmented requests. Always the stub length here.
	AllocHint uint32
	ContextId uint16
	Opnum     uint16
	// Only present on the wire if PfcObjectUUID is set in the header flags
	Object *uuid.UUID
	Buffer []byte
}

// C706 Section 12.6.4.10
type RequestRes struct {
	Header
	AllocHint   uint32
	ContextId   uint16
	CancelCount byte
	Reserved    byte
	Buffer      []byte // Stub data
}

// C706 Section 12.6.4.7 with the trailing reserved field of MS-RPCE 2.2.2.11
type Fault struct {
	Header
	AllocHint   uint32
	ContextId   uint16
	CancelCount byte
	FaultFlags  byte
	Status      uint32
}

// Common fault status codes, C706 Appendix E and MS-RPCE 3.1.1.5.5
const (
	NcaOpRangeError       uint32 = 0x1c010002
	NcaUnkIf              uint32 = 0x1c010003
	NcaWrongBootTime      uint32 = 0x1c010006
	NcaYouCrashed         uint32 = 0x1c010009
	NcaProtoError         uint32 = 0x1c01000b
	NcaOutArgsTooBig      uint32 = 0x1c010013
	NcaServerTooBusy      uint32 = 0x1c010014
	NcaUnsupportedType    uint32 = 0x1c010017
	NcaInvalidPresContext uint32 = 0x1c00001c
	NcaUnsupportedAuthn   uint32 = 0x1c00001d
	NcaInvalidChecksum    uint32 = 0x1c00001e
	NcaInvalidCrc         uint32 = 0x1c00001f
	RpcAccessDenied       uint32 = 0x00000005
	RpcInvalidHandle      uint32 = 0x00000006
	RpcBadStubData        uint32 = 0x000006f7
)

var FaultStatusMap = map[uint32]string{
	NcaOpRangeError:       "nca_op_rng_error",
	NcaUnkIf:              "nca_unk_if",
	NcaWrongBootTime:      "nca_wrong_boot_time",
	NcaYouCrashed:         "nca_s_you_crashed",
	NcaProtoError:         "nca_proto_error",
	NcaOutArgsTooBig:      "nca_out_args_too_big",
	NcaServerTooBusy:      "nca_server_too_busy",
	NcaUnsupportedType:    "nca_unsupported_type",
	NcaInvalidPresContext: "nca_invalid_pres_context_id",
	NcaUnsupportedAuthn:   "nca_unsupported_authn_level",
	NcaInvalidChecksum:    "nca_invalid_checksum",
	NcaInvalidCrc:         "nca_invalid_crc",
	RpcAccessDenied:       "access denied",
	RpcInvalidHandle:      "invalid handle",
	RpcBadStubData:        "rpc_x_bad_stub_data",
}

func (self *Fault) Error() string {
	name, ok := FaultStatusMap[self.Status]
	if !ok {
		name = "unknown status"
	}
	return fmt.Sprintf("dcerpc: fault 0x%08x (%s)", self.Status, name)
}

func NewRequestReq(callId uint32, contextId, opnum uint16, stub []byte) *RequestReq {
	buf := make([]byte, len(stub))
	copy(buf, stub)
	return &RequestReq{
		Header:    newHeader(PDURequest, PfcFirstFrag|PfcLastFrag, callId),
		AllocHint: uint32(len(stub)),
		ContextId: contextId,
		Opnum:     opnum,
		Buffer:    buf,
	}
}

// NewObjectRequestReq returns a request carrying an object uuid.
func NewObjectRequestReq(callId uint32, contextId, opnum uint16, object uuid.UUID, stub []byte) *RequestReq {
	req := NewRequestReq(callId, contextId, opnum, stub)
	req.Object = &object
	req.Flags |= PfcObjectUUID
	return req
}

func (self *RequestReq) MarshalBinary() ([]byte, error) {
	log.Debugln("In MarshalBinary for RequestReq")
	if self.Type != PDURequest {
		return nil, fmt.Errorf("%w: RequestReq with PDU type %s", ErrInvalidState, self.Type)
	}
	if self.Flags.Has(PfcObjectUUID) != (self.Object != nil) {
		return nil, fmt.Errorf("%w: object uuid flag does not match the object field", ErrInvalidState)
	}
	return marshalPDU(&self.Header, func(c *ndr.Cursor) error {
		c.PutInt(self.AllocHint)
		c.PutShort(self.ContextId)
		c.PutShort(self.Opnum)
		if self.Object != nil {
			c.PutUUID(*self.Object)
		}
		c.PutBytes(self.Buffer)
		return nil
	})
}

// Decoders returns the PDU types accepted in reply to a request.
func (self *RequestReq) Decoders() Decoders {
	return Decoders{
		PDUResponse: decodeResponse,
		PDUFault:    decodeFault,
	}
}

func decodeResponse(h *Header, c *ndr.Cursor) (res PDU, err error) {
	log.Debugln("In decodeResponse")
	stubLen := int(h.FragLength) - int(h.AuthLength) - ResponseLen
	if stubLen < 0 {
		err = fmt.Errorf("%w: response fragment length %d leaves no room for the stub", ErrIncompleteFrame, h.FragLength)
		log.Errorln(err)
		return
	}
	r := &RequestRes{Header: *h}
	if r.AllocHint, err = c.GetInt(); err != nil {
		return
	}
	if r.ContextId, err = c.GetShort(); err != nil {
		return
	}
	if r.CancelCount, err = c.GetByte(); err != nil {
		return
	}
	if r.Reserved, err = c.GetByte(); err != nil {
		return
	}
	if r.Buffer, err = c.GetBytes(stubLen); err != nil {
		return
	}
	return r, nil
}

func decodeFault(h *Header, c *ndr.Cursor) (res PDU, err error) {
	log.Debugln("In decodeFault")
	f := &Fault{Header: *h}
	if f.AllocHint, err = c.GetInt(); err != nil {
		return
	}
	if f.ContextId, err = c.GetShort(); err != nil {
		return
	}
	if f.CancelCount, err = c.GetByte(); err != nil {
		return
	}
	if f.FaultFlags, err = c.GetByte(); err != nil {
		return
	}
	if f.Status, err = c.GetInt(); err != nil {
		return
	}
	return f, nil
}

func (self *RequestRes) PDUHeader() *Header { return &self.Header }
func (self *Fault) PDUHeader() *Header { return &self.Header }
