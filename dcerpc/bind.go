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

	"github.com/jfjallid/go-msrpc/ndr"
)

/*
C706 Section 12.6.3.1

	typedef struct {
	  p_context_id_t p_cont_id;
	  u_int8 n_transfer_syn;               // number of items
	  u_int8 reserved;                     // alignment pad, m.b.z.
	  p_syntax_id_t abstract_syntax;       // transfer syntax list
	  p_syntax_id_t [size_is(n_transfer_syn)] transfer_syntaxes[];
	} p_cont_elem_t;
*/
type ContextItem struct {
	Id             uint16
	AbstractSyntax SyntaxId
	TransferSyntax []SyntaxId
}

// C706 Section 12.6.4.3 (bind) and 12.6.4.1 (alter_context)
type BindReq struct {
	Header
	MaxXmitFrag uint16
	MaxRecvFrag uint16
	AssocGroup  uint32 // A value of 0 means a request for a new association group
	Contexts    []ContextItem
}

// C706 12.6.3.1 p_cont_def_result_t
type ContextResult uint16

const (
	ResultAcceptance         ContextResult = 0
	ResultUserRejection      ContextResult = 1
	ResultProviderRejection  ContextResult = 2
	ResultNegotiateAck       ContextResult = 3 // MS-RPCE 2.2.2.4
	ReasonNotSpecified       uint16        = 0
	ReasonAbstractNotSupport uint16        = 1
	ReasonTransferNotSupport uint16        = 2
	ReasonLocalLimitExceeded uint16        = 3
)

var ContextResultMap = map[ContextResult]string{
	ResultAcceptance:        "acceptance",
	ResultUserRejection:     "user rejection",
	ResultProviderRejection: "provider rejection",
	ResultNegotiateAck:      "negotiate ack",
}

var ProviderReasonMap = map[uint16]string{
	ReasonNotSpecified:       "reason not specified",
	ReasonAbstractNotSupport: "abstract syntax not supported",
	ReasonTransferNotSupport: "proposed transfer syntaxes not supported",
	ReasonLocalLimitExceeded: "local limit exceeded",
}

/*
C706 12.6.3.1

	typedef struct {
	  p_cont_def_result_t result;
	  p_provider_reason_t reason; // only relevant if result != acceptance
	  p_syntax_id_t transfer_syntax; // tr syntax selected 0 if result not accepted
	} p_result_t;
*/
type ContextResItem struct {
	Result         ContextResult
	Reason         uint16
	TransferSyntax SyntaxId
}

func (self ContextResItem) String() string {
	if self.Result == ResultAcceptance {
		return fmt.Sprintf("%s of %s", ContextResultMap[self.Result], self.TransferSyntax)
	}
	return fmt.Sprintf("%s (%s)", ContextResultMap[self.Result], ProviderReasonMap[self.Reason])
}

// C706 Section 12.6.4.4 (bind_ack) and 12.6.4.2 (alter_context_resp)
type BindAck struct {
	Header
	MaxXmitFrag uint16
	MaxRecvFrag uint16
	AssocGroup  uint32
	SecAddr     string // Secondary address, the server's endpoint. Empty for alter_context_resp
	Results     []ContextResItem
}

// C706 Section 12.6.4.5 bind_nak reject reasons
const (
	RejectReasonNotSpecified          uint16 = 0
	RejectTemporaryCongestion         uint16 = 1
	RejectLocalLimitExceeded          uint16 = 2
	RejectCalledPaddrUnknown          uint16 = 3
	RejectProtocolVersionNotSupported uint16 = 4
	RejectDefaultContextNotSupported  uint16 = 5
	RejectUserDataNotReadable         uint16 = 6
	RejectNoPsapAvailable             uint16 = 7
	RejectAuthenticationTypeUnknown   uint16 = 8
	RejectInvalidChecksum             uint16 = 9
)

var RejectReasonMap = map[uint16]string{
	RejectReasonNotSpecified:          "reason not specified",
	RejectTemporaryCongestion:         "temporary congestion",
	RejectLocalLimitExceeded:          "local limit exceeded",
	RejectCalledPaddrUnknown:          "called paddr unknown",
	RejectProtocolVersionNotSupported: "protocol version not supported",
	RejectDefaultContextNotSupported:  "default context not supported",
	RejectUserDataNotReadable:         "user data not readable",
	RejectNoPsapAvailable:             "no psap available",
	RejectAuthenticationTypeUnknown:   "authentication type not recognized",
	RejectInvalidChecksum:             "invalid checksum",
}

type Version struct {
	Major byte
	Minor byte
}

// C706 Section 12.6.4.5 (bind_nak)
type BindNak struct {
	Header
	RejectReason uint16
	Versions     []Version // Protocol versions supported by the server
}

func (self *BindNak) Error() string {
	reason, ok := RejectReasonMap[self.RejectReason]
	if !ok {
		reason = fmt.Sprintf("reason %d", self.RejectReason)
	}
	return fmt.Sprintf("dcerpc: bind rejected: %s", reason)
}

func (self *BindNak) Unwrap() error {
	return ErrBindRejected
}

// NewBindReq returns a bind request proposing iface over NDR as the single
// presentation context with the given id.
func NewBindReq(callId uint32, contextId uint16, iface SyntaxId) *BindReq {
	return newBindReq(PDUBind, callId, 0, contextId, iface)
}

// NewAlterContextReq returns a request adding iface as a new presentation
// context on an existing association.
func NewAlterContextReq(callId, assocGroup uint32, contextId uint16, iface SyntaxId) *BindReq {
	return newBindReq(PDUAlterContext, callId, assocGroup, contextId, iface)
}

func newBindReq(pduType PDUType, callId, assocGroup uint32, contextId uint16, iface SyntaxId) *BindReq {
	return &BindReq{
		Header:      newHeader(pduType, PfcFirstFrag|PfcLastFrag, callId),
		MaxXmitFrag: MaxXmitFrag,
		MaxRecvFrag: MaxRecvFrag,
		AssocGroup:  assocGroup,
		Contexts: []ContextItem{
			{
				Id:             contextId,
				AbstractSyntax: iface,
				TransferSyntax: []SyntaxId{TransferSyntaxNDR},
			},
		},
	}
}

func (self *BindReq) MarshalBinary() ([]byte, error) {
	log.Debugln("In MarshalBinary for BindReq")
	if self.Type != PDUBind && self.Type != PDUAlterContext {
		return nil, fmt.Errorf("%w: BindReq with PDU type %s", ErrInvalidState, self.Type)
	}
	if len(self.Contexts) == 0 || len(self.Contexts) > 0xff {
		return nil, fmt.Errorf("%w: bind with %d presentation contexts", ErrInvalidState, len(self.Contexts))
	}
	return marshalPDU(&self.Header, func(c *ndr.Cursor) error {
		c.PutShort(self.MaxXmitFrag)
		c.PutShort(self.MaxRecvFrag)
		c.PutInt(self.AssocGroup)
		c.PutByte(byte(len(self.Contexts)))
		c.PutByte(0)  // Reserved
		c.PutShort(0) // Reserved2
		for _, item := range self.Contexts {
			if len(item.TransferSyntax) == 0 || len(item.TransferSyntax) > 0xff {
				return fmt.Errorf("%w: context %d with %d transfer syntaxes", ErrInvalidState, item.Id, len(item.TransferSyntax))
			}
			c.PutShort(item.Id)
			c.PutByte(byte(len(item.TransferSyntax)))
			c.PutByte(0) // Reserved
			item.AbstractSyntax.marshal(c)
			for _, ts := range item.TransferSyntax {
				ts.marshal(c)
			}
		}
		return nil
	})
}

// Decoders returns the PDU types accepted in reply to this request.
func (self *BindReq) Decoders() Decoders {
	if self.Type == PDUAlterContext {
		return Decoders{
			PDUAlterContextResp: decodeBindAck,
			PDUFault:            decodeFault,
		}
	}
	return Decoders{
		PDUBindAck: decodeBindAck,
		PDUBindNak: decodeBindNak,
	}
}

func decodeBindAck(h *Header, c *ndr.Cursor) (res PDU, err error) {
	log.Debugln("In decodeBindAck")
	ack := &BindAck{Header: *h}
	if ack.MaxXmitFrag, err = c.GetShort(); err != nil {
		return
	}
	if ack.MaxRecvFrag, err = c.GetShort(); err != nil {
		return
	}
	if ack.AssocGroup, err = c.GetInt(); err != nil {
		return
	}
	secAddrLen, err := c.GetShort()
	if err != nil {
		return
	}
	secAddr, err := c.GetBytes(int(secAddrLen))
	if err != nil {
		return
	}
	// Secondary address is a null terminated ASCII string
	for len(secAddr) > 0 && secAddr[len(secAddr)-1] == 0 {
		secAddr = secAddr[:len(secAddr)-1]
	}
	ack.SecAddr = string(secAddr)
	if err = c.AlignRead(); err != nil {
		return
	}

	count, err := c.GetByte()
	if err != nil {
		return
	}
	if err = c.Skip(3); err != nil { // Reserved
		return
	}
	ack.Results = make([]ContextResItem, count)
	for i := range ack.Results {
		item := &ack.Results[i]
		var v uint16
		if v, err = c.GetShort(); err != nil {
			return
		}
		item.Result = ContextResult(v)
		if item.Reason, err = c.GetShort(); err != nil {
			return
		}
		if item.TransferSyntax, err = readSyntaxId(c); err != nil {
			return
		}
	}
	return ack, nil
}

func decodeBindNak(h *Header, c *ndr.Cursor) (res PDU, err error) {
	log.Debugln("In decodeBindNak")
	nak := &BindNak{Header: *h}
	if nak.RejectReason, err = c.GetShort(); err != nil {
		return
	}
	// The list of supported versions is optional
	if c.Remaining() == 0 {
		return nak, nil
	}
	count, err := c.GetByte()
	if err != nil {
		return
	}
	nak.Versions = make([]Version, 0, count)
	for i := 0; i < int(count); i++ {
		var v Version
		if v.Major, err = c.GetByte(); err != nil {
			return
		}
		if v.Minor, err = c.GetByte(); err != nil {
			return
		}
		nak.Versions = append(nak.Versions, v)
	}
	return nak, nil
}

func (self *BindAck) PDUHeader() *Header { return &self.Header }
func (self *BindNak) PDUHeader() *Header { return &self.Header }
