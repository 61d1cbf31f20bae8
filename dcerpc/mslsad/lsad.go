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

// Package mslsad implements a few operations of the Local Security Authority
// remote protocols (MS-LSAD and MS-LSAT): opening and closing a policy
// handle, resolving the caller's name and translating SIDs to names.
package mslsad

import (
	"fmt"

	"github.com/jfjallid/go-msrpc/dcerpc"
	"github.com/jfjallid/golog"
)

var log = golog.Get("github.com/jfjallid/go-msrpc/dcerpc/mslsad")

const (
	MSRPCLsaRpcPipe = "lsarpc"
)

// Local Security Authority (Domain Policy) Remote Protocol (lsarpc) Operations
const (
	LsarClose       uint16 = 0  // This method closes an open handle.
	LsarOpenPolicy2 uint16 = 44 // This method opens a context handle to the RPC server.
)

// MS-LSAD Section 2.2.3.5
const (
	LsaSecurityAnonymous      uint16 = 0
	LsaSecurityIdentification uint16 = 1
	LsaSecurityImpersonation  uint16 = 2
	LsaSecurityDelegation     uint16 = 3
)

const (
	StatusSuccess              uint32 = 0x0 // The operation completed successfully
	StatusSomeNotMapped        uint32 = 0x00000107
	StatusInvalidHandle        uint32 = 0xC0000008
	StatusInvalidParameter     uint32 = 0xC000000D // One of the function parameters is not valid.
	StatusAccessDenied         uint32 = 0xC0000022 // Access is denied
	StatusObjectNameNotFound   uint32 = 0xC0000034
	StatusNoneMapped           uint32 = 0xC0000073
	StatusInvalidSID           uint32 = 0xC0000078
	StatusNotSupported         uint32 = 0xC00000BB
	StatusTrustedDomainFailure uint32 = 0xC000018C
)

var ResponseCodeMap = map[uint32]error{
	StatusSomeNotMapped:        fmt.Errorf("Some of the SIDs could not be translated"),
	StatusAccessDenied:         fmt.Errorf("Access is denied"),
	StatusInvalidParameter:     fmt.Errorf("One of the function parameters is not valid."),
	StatusInvalidSID:           fmt.Errorf("The security identifier is not valid"),
	StatusInvalidHandle:        fmt.Errorf("PolicyHandle is not a valid handle."),
	StatusObjectNameNotFound:   fmt.Errorf("No value has been set for this policy."),
	StatusNoneMapped:           fmt.Errorf("None of the SIDs could be translated"),
	StatusNotSupported:         fmt.Errorf("The operation is not supported for this object."),
	StatusTrustedDomainFailure: fmt.Errorf("The trust relationship with a domain failed"),
}

// MS-LSAD Section 2.2.1.1 ACCESS_MASK for all objects
const (
	Delete         uint32 = 0x00010000
	ReadControl    uint32 = 0x00020000
	WriteDac       uint32 = 0x00040000
	WriteOwner     uint32 = 0x00080000
	MaximumAllowed uint32 = 0x02000000
	GenericAll     uint32 = 0x10000000
	GenericExecute uint32 = 0x20000000
)

// Context handles are 20 opaque bytes
const policyHandleLen = 20

type RPCCon struct {
	*dcerpc.ServiceBind
}

func NewRPCCon(sb *dcerpc.ServiceBind) *RPCCon {
	return &RPCCon{sb}
}

// Bind binds the lsarpc interface over t.
func Bind(t dcerpc.Transporter) (*RPCCon, error) {
	sb, err := dcerpc.Bind(t, dcerpc.InterfaceLsaRpc)
	if err != nil {
		return nil, err
	}
	return NewRPCCon(sb), nil
}

func statusError(op string, code uint32) error {
	status, found := ResponseCodeMap[code]
	if !found {
		return fmt.Errorf("Received unknown LSAD return code for %s response: 0x%x", op, code)
	}
	return status
}

func (sb *RPCCon) LsarOpenPolicy2(systemName string) (policyHandle []byte, err error) {
	log.Debugln("In LsarOpenPolicy2")

	innerReq := LsarOpenPolicy2Req{
		SystemName: systemName,
		ObjectAttributes: LsaprObjectAttributes{
			Length: 24,
			SecurityQualityOfService: SecurityQualityOfService{
				Length:              12,
				ImpersonationLevel:  LsaSecurityImpersonation,
				ContextTrackingMode: 1,
			},
		},
		DesiredAccess: MaximumAllowed,
	}

	innerBuf, err := innerReq.MarshalBinary()
	if err != nil {
		log.Errorln(err)
		return
	}

	buffer, err := sb.MakeRequest(LsarOpenPolicy2, innerBuf)
	if err != nil {
		return
	}

	var resp LsarOpenPolicy2Res
	err = resp.UnmarshalBinary(buffer)
	if err != nil {
		log.Errorln(err)
		return
	}
	if resp.ReturnCode != StatusSuccess {
		err = statusError("LsarOpenPolicy2", resp.ReturnCode)
		log.Errorln(err)
		return
	}

	policyHandle = resp.PolicyHandle
	return
}

func (sb *RPCCon) LsarCloseHandle(handle []byte) (err error) {
	log.Debugln("In LsarCloseHandle")

	innerReq := LsarCloseReq{
		ObjectHandle: handle,
	}

	innerBuf, err := innerReq.MarshalBinary()
	if err != nil {
		log.Errorln(err)
		return
	}

	buffer, err := sb.MakeRequest(LsarClose, innerBuf)
	if err != nil {
		return
	}

	var resp LsarCloseRes
	err = resp.UnmarshalBinary(buffer)
	if err != nil {
		log.Errorln(err)
		return
	}
	if resp.ReturnCode != StatusSuccess {
		err = statusError("LsarCloseHandle", resp.ReturnCode)
		log.Errorln(err)
		return
	}
	return
}
