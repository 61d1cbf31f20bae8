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
	"sync/atomic"

	"github.com/google/uuid"
)

// Transporter sends one complete PDU and returns the next PDU received.
type Transporter interface {
	Transceive(pkt []byte) ([]byte, error)
}

type ServiceBind struct {
	// callId always contains the last used value, so call Add(1) first
	callId     *atomic.Uint32
	t          Transporter
	contextId  uint16
	assocGroup uint32
	iface      SyntaxId
	// Negotiated in the bind_ack
	maxFragTransmitSize uint16 // Max size of fragment the server accepts
	maxFragReceiveSize  uint16 // Max size of fragment server should send
	secAddr             string
}

// Bind negotiates a presentation context for iface over t. A bind_nak or a
// rejected context is returned as an error.
func Bind(t Transporter, iface SyntaxId) (bind *ServiceBind, err error) {
	log.Debugln("In Bind")
	sb := &ServiceBind{
		callId: &atomic.Uint32{},
		t:      t,
		iface:  iface,
	}
	req := NewBindReq(sb.callId.Add(1), sb.contextId, iface)
	pdu, err := sb.transceive(req, req.CallId, req.Decoders())
	if err != nil {
		return
	}
	switch res := pdu.(type) {
	case *BindNak:
		log.Errorln(res)
		return nil, res
	case *BindAck:
		if err = checkContextResults(res, iface); err != nil {
			return
		}
		sb.assocGroup = res.AssocGroup
		sb.maxFragTransmitSize = res.MaxRecvFrag
		sb.maxFragReceiveSize = res.MaxXmitFrag
		sb.secAddr = res.SecAddr
		log.Debugf("Bound to %s on context %d, assoc group 0x%x\n", iface, sb.contextId, sb.assocGroup)
	}
	return sb, nil
}

func checkContextResults(ack *BindAck, iface SyntaxId) error {
	if len(ack.Results) == 0 {
		err := fmt.Errorf("%w: %s acknowledged without a context result", ErrBindRejected, ack.Type)
		log.Errorln(err)
		return err
	}
	if ack.Results[0].Result != ResultAcceptance {
		err := fmt.Errorf("%w: server did not accept %s: %s", ErrBindRejected, iface, ack.Results[0])
		log.Errorln(err)
		return err
	}
	return nil
}

// AlterContext adds iface as a new presentation context on the existing
// association. Later requests are sent on that context.
func (sb *ServiceBind) AlterContext(iface SyntaxId) (err error) {
	log.Debugln("In AlterContext")
	contextId := sb.contextId + 1
	req := NewAlterContextReq(sb.callId.Add(1), sb.assocGroup, contextId, iface)
	pdu, err := sb.transceive(req, req.CallId, req.Decoders())
	if err != nil {
		return
	}
	switch res := pdu.(type) {
	case *Fault:
		log.Errorln(res)
		return res
	case *BindAck:
		if err = checkContextResults(res, iface); err != nil {
			return
		}
	}
	sb.contextId = contextId
	sb.iface = iface
	return nil
}

// MakeRequest calls operation opnum with the NDR encoded stub and returns
// the stub of the response. A fault PDU is returned as a *Fault error.
func (sb *ServiceBind) MakeRequest(opnum uint16, stub []byte) (result []byte, err error) {
	log.Debugln("In MakeRequest")
	return sb.request(NewRequestReq(sb.callId.Add(1), sb.contextId, opnum, stub))
}

// MakeObjectRequest is MakeRequest for calls directed at a specific object.
func (sb *ServiceBind) MakeObjectRequest(opnum uint16, object uuid.UUID, stub []byte) (result []byte, err error) {
	log.Debugln("In MakeObjectRequest")
	return sb.request(NewObjectRequestReq(sb.callId.Add(1), sb.contextId, opnum, object, stub))
}

func (sb *ServiceBind) request(req *RequestReq) (result []byte, err error) {
	limit := int(sb.maxFragTransmitSize)
	if limit == 0 {
		limit = int(MaxXmitFrag)
	}
	size := RequestLen + len(req.Buffer)
	if req.Object != nil {
		size += 16
	}
	if size > limit {
		err = fmt.Errorf("%w: request of %d bytes exceeds the max fragment size %d", ErrFragmented, size, limit)
		log.Errorln(err)
		return
	}
	pdu, err := sb.transceive(req, req.CallId, req.Decoders())
	if err != nil {
		return
	}
	switch res := pdu.(type) {
	case *Fault:
		log.Errorln(res)
		return nil, res
	case *RequestRes:
		if !res.Flags.Has(PfcLastFrag) {
			err = fmt.Errorf("%w: response to opnum %d is not a last fragment", ErrFragmented, req.Opnum)
			log.Errorln(err)
			return
		}
		return res.Buffer, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedPDUType, pdu)
}

type binaryMarshaler interface {
	MarshalBinary() ([]byte, error)
}

func (sb *ServiceBind) transceive(req binaryMarshaler, callId uint32, decoders Decoders) (PDU, error) {
	buf, err := req.MarshalBinary()
	if err != nil {
		log.Errorln(err)
		return nil, err
	}
	resBuf, err := sb.t.Transceive(buf)
	if err != nil {
		log.Errorln(err)
		return nil, err
	}
	return Dispatch(resBuf, callId, decoders)
}

// ContextId returns the presentation context requests are sent on.
func (sb *ServiceBind) ContextId() uint16 {
	return sb.contextId
}

// Interface returns the abstract syntax of the current presentation context.
func (sb *ServiceBind) Interface() SyntaxId {
	return sb.iface
}

// SecondaryAddress returns the server endpoint reported in the bind_ack.
func (sb *ServiceBind) SecondaryAddress() string {
	return sb.secAddr
}

// IsFault reports whether err is a fault PDU with the given status.
func IsFault(err error, status uint32) bool {
	var f *Fault
	return errors.As(err, &f) && f.Status == status
}
