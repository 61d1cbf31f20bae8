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

// Package dcerpc implements the client side of the connection-oriented
// DCE/RPC protocol (C706 chapter 12, MS-RPCE): PDU framing, the bind
// handshake and request/response calls correlated by call id.
//
// Fragmented PDUs are not supported. Every request is sent as a single
// fragment and every reply must fit in one fragment.
package dcerpc

import (
	"fmt"
	"strings"

	"github.com/jfjallid/golog"
)

var log = golog.Get("github.com/jfjallid/go-msrpc/dcerpc")

const (
	RPCVersionMajor byte = 5
	RPCVersionMinor byte = 0

	HeaderLen   = 16
	RequestLen  = 24 // Header + alloc hint, context id and opnum
	ResponseLen = 24

	MaxXmitFrag uint16 = 4096
	MaxRecvFrag uint16 = 4096
)

// NDR data representation label: little-endian integers, ASCII characters
// and IEEE floating point.
var DataRepresentation = [4]byte{0x10, 0x00, 0x00, 0x00}

// C706 Section 12.6.3.1 PDU types
type PDUType uint8

const (
	PDURequest          PDUType = 0
	PDUPing             PDUType = 1
	PDUResponse         PDUType = 2
	PDUFault            PDUType = 3
	PDUWorking          PDUType = 4
	PDUNoCall           PDUType = 5
	PDUReject           PDUType = 6
	PDUAck              PDUType = 7
	PDUClCancel         PDUType = 8
	PDUFack             PDUType = 9
	PDUCancelAck        PDUType = 10
	PDUBind             PDUType = 11
	PDUBindAck          PDUType = 12
	PDUBindNak          PDUType = 13
	PDUAlterContext     PDUType = 14
	PDUAlterContextResp PDUType = 15
	PDUShutdown         PDUType = 17
	PDUCoCancel         PDUType = 18
	PDUOrphaned         PDUType = 19
)

var pduTypeNames = map[PDUType]string{
	PDURequest:          "REQUEST",
	PDUPing:             "PING",
	PDUResponse:         "RESPONSE",
	PDUFault:            "FAULT",
	PDUWorking:          "WORKING",
	PDUNoCall:           "NOCALL",
	PDUReject:           "REJECT",
	PDUAck:              "ACK",
	PDUClCancel:         "CL_CANCEL",
	PDUFack:             "FACK",
	PDUCancelAck:        "CANCEL_ACK",
	PDUBind:             "BIND",
	PDUBindAck:          "BIND_ACK",
	PDUBindNak:          "BIND_NAK",
	PDUAlterContext:     "ALTER_CONTEXT",
	PDUAlterContextResp: "ALTER_CONTEXT_RESP",
	PDUShutdown:         "SHUTDOWN",
	PDUCoCancel:         "CO_CANCEL",
	PDUOrphaned:         "ORPHANED",
}

func (t PDUType) Valid() bool {
	_, ok := pduTypeNames[t]
	return ok
}

func (t PDUType) String() string {
	if name, ok := pduTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("PDUType(%d)", uint8(t))
}

// C706 Section 12.6.3.1 pfc_flags
type PFCFlags uint8

const (
	PfcFirstFrag     PFCFlags = 0x01
	PfcLastFrag      PFCFlags = 0x02
	PfcPendingCancel PFCFlags = 0x04
	PfcReserved      PFCFlags = 0x08
	PfcConcMpx       PFCFlags = 0x10
	PfcDidNotExecute PFCFlags = 0x20
	PfcMaybe         PFCFlags = 0x40
	PfcObjectUUID    PFCFlags = 0x80
)

var pfcFlagNames = []struct {
	flag PFCFlags
	name string
}{
	{PfcFirstFrag, "FIRST_FRAG"},
	{PfcLastFrag, "LAST_FRAG"},
	{PfcPendingCancel, "PENDING_CANCEL"},
	{PfcReserved, "RESERVED_1"},
	{PfcConcMpx, "CONC_MPX"},
	{PfcDidNotExecute, "DID_NOT_EXECUTE"},
	{PfcMaybe, "MAYBE"},
	{PfcObjectUUID, "OBJECT_UUID"},
}

func (f PFCFlags) Has(flag PFCFlags) bool {
	return f&flag == flag
}

func (f PFCFlags) String() string {
	var names []string
	for _, item := range pfcFlagNames {
		if f.Has(item.flag) {
			names = append(names, item.name)
		}
	}
	return strings.Join(names, "|")
}
