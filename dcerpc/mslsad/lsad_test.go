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
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/jfjallid/go-msrpc/dcerpc"
	"github.com/jfjallid/go-msrpc/msdtyp"
)

const (
	policyHandleHex = "0000000013d8cd7a32dac447a2d2e1094606f710"
	bindAckHex      = "05000c031000000044000000" + "01000000" + "b810b810" + "d7540000" + "0d00" +
		"5c706970655c6c73617270630000" + "01000000" + "00000000" +
		"045d888aeb1cc9119fe808002b104860" + "02000000"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestLsarOpenPolicy2Req(t *testing.T) {
	pkt := mustHex(t, "00000000"+"18000000"+"00000000"+"00000000"+"00000000"+"00000000"+
		"00000200"+"0c000000"+"0200"+"01"+"00"+"00000002")
	req := LsarOpenPolicy2Req{
		SystemName: "",
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
	buf, err := req.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(pkt, buf) {
		t.Fatalf("MarshalBinary = %x, want %x", buf, pkt)
	}
}

func TestLsarOpenPolicy2Res(t *testing.T) {
	var res LsarOpenPolicy2Res
	if err := res.UnmarshalBinary(mustHex(t, policyHandleHex+"00000000")); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(res.PolicyHandle, mustHex(t, policyHandleHex)) {
		t.Errorf("PolicyHandle = %x", res.PolicyHandle)
	}
	if res.ReturnCode != StatusSuccess {
		t.Errorf("ReturnCode = 0x%x", res.ReturnCode)
	}
	if err := res.UnmarshalBinary(mustHex(t, policyHandleHex)); err == nil {
		t.Error("missing return code: expected error")
	}
}

func TestLsarCloseHandleReq(t *testing.T) {
	pkt := mustHex(t, policyHandleHex)
	req := LsarCloseReq{ObjectHandle: pkt}
	buf, err := req.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(pkt, buf) {
		t.Fatalf("MarshalBinary = %x, want %x", buf, pkt)
	}
	req.ObjectHandle = pkt[:16]
	if _, err = req.MarshalBinary(); err == nil {
		t.Error("short handle: expected error")
	}
}

func TestParseLookupSids(t *testing.T) {
	if _, err := parseLookupSids(nil); err == nil {
		t.Error("no SIDs: expected error")
	}
	if _, err := parseLookupSids([]string{"S-1-5-32-544", "not-a-sid"}); !errors.Is(err, msdtyp.ErrMalformedSID) {
		t.Errorf("invalid SID: error = %v, want ErrMalformedSID", err)
	}
	list, err := parseLookupSids([]string{"S-1-5-32-544", "S-1-5-21-1004336348-1177238915-682003330-512"})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d SIDs, want 2", len(list))
	}
}

func TestLsarLookupSids2NoInput(t *testing.T) {
	// Validation happens before the connection is used
	rpccon := NewRPCCon(nil)
	if _, err := rpccon.LsarLookupSids2(LsapLookupWksta, nil); err == nil {
		t.Error("expected error")
	}
}

func TestSidNameUseString(t *testing.T) {
	if s := SidTypeAlias.String(); s != "SidTypeAlias" {
		t.Errorf("String() = %s", s)
	}
	if s := SidNameUse(42).String(); s != "SidNameUse(42)" {
		t.Errorf("String() = %s", s)
	}
}

// fakeTransport acknowledges the bind and answers requests by opnum with
// a response or fault PDU.
type fakeTransport struct {
	t      *testing.T
	stubs  map[uint16][]byte
	faults map[uint16]uint32
	opnums []uint16
}

func (f *fakeTransport) Transceive(pkt []byte) ([]byte, error) {
	callId := binary.LittleEndian.Uint32(pkt[12:])
	if dcerpc.PDUType(pkt[2]) == dcerpc.PDUBind {
		ack := mustHex(f.t, bindAckHex)
		binary.LittleEndian.PutUint32(ack[12:], callId)
		return ack, nil
	}
	opnum := binary.LittleEndian.Uint16(pkt[22:])
	f.opnums = append(f.opnums, opnum)
	var res []byte
	if status, ok := f.faults[opnum]; ok {
		res = mustHex(f.t, "05000303100000000000000000000000"+"00000000"+"0000"+"00"+"00")
		res = binary.LittleEndian.AppendUint32(res, status)
		res = append(res, 0, 0, 0, 0)
	} else {
		stub := f.stubs[opnum]
		res = mustHex(f.t, "05000203100000000000000000000000"+"00000000"+"0000"+"00"+"00")
		binary.LittleEndian.PutUint32(res[16:], uint32(len(stub)))
		res = append(res, stub...)
	}
	binary.LittleEndian.PutUint16(res[8:], uint16(len(res)))
	binary.LittleEndian.PutUint32(res[12:], callId)
	return res, nil
}

func TestRPCConOpenAndClosePolicy(t *testing.T) {
	tr := &fakeTransport{t: t, stubs: map[uint16][]byte{
		LsarOpenPolicy2: mustHex(t, policyHandleHex+"00000000"),
		LsarClose:       mustHex(t, strings.Repeat("00", 20)+"00000000"),
	}}
	rpccon, err := Bind(tr)
	if err != nil {
		t.Fatal(err)
	}
	handle, err := rpccon.LsarOpenPolicy2("")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(handle, mustHex(t, policyHandleHex)) {
		t.Errorf("handle = %x", handle)
	}
	if err = rpccon.LsarCloseHandle(handle); err != nil {
		t.Fatal(err)
	}
	if len(tr.opnums) != 2 || tr.opnums[0] != LsarOpenPolicy2 || tr.opnums[1] != LsarClose {
		t.Errorf("opnums = %v", tr.opnums)
	}
}

func TestRPCConOpenPolicyAccessDenied(t *testing.T) {
	tr := &fakeTransport{t: t, stubs: map[uint16][]byte{
		LsarOpenPolicy2: mustHex(t, strings.Repeat("00", 20)+"220000c0"),
	}}
	rpccon, err := Bind(tr)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = rpccon.LsarOpenPolicy2(""); err != ResponseCodeMap[StatusAccessDenied] {
		t.Errorf("error = %v, want access denied", err)
	}
}

func TestRPCConGetUserNameFault(t *testing.T) {
	tr := &fakeTransport{t: t, faults: map[uint16]uint32{LsarGetUserName: dcerpc.RpcAccessDenied}}
	rpccon, err := Bind(tr)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err = rpccon.LsarGetUserName(); !dcerpc.IsFault(err, dcerpc.RpcAccessDenied) {
		t.Errorf("error = %v, want access denied fault", err)
	}
}

func TestRPCConLookupSids2OpenPolicyFault(t *testing.T) {
	tr := &fakeTransport{t: t, faults: map[uint16]uint32{LsarOpenPolicy2: dcerpc.RpcAccessDenied}}
	rpccon, err := Bind(tr)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = rpccon.LsarLookupSids2(LsapLookupWksta, []string{"S-1-5-32-544"}); !dcerpc.IsFault(err, dcerpc.RpcAccessDenied) {
		t.Errorf("error = %v, want access denied fault", err)
	}
	if len(tr.opnums) != 1 {
		t.Errorf("opnums = %v, want only LsarOpenPolicy2", tr.opnums)
	}
}

func TestRPCConGetUserName(t *testing.T) {
	// UserName, then DomainName behind two unique pointers, then status
	stub := "00000200" + "1a001a0004000200" +
		"0d000000000000000d000000" + "410064006d0069006e006900730074007200610074006f0072000000" +
		"08000200" + "0c000200" + "0c000c0010000200" +
		"060000000000000006000000" + "53004b0059004e0045005400" +
		"00000000"
	tr := &fakeTransport{t: t, stubs: map[uint16][]byte{LsarGetUserName: mustHex(t, stub)}}
	rpccon, err := Bind(tr)
	if err != nil {
		t.Fatal(err)
	}
	user, domain, err := rpccon.LsarGetUserName()
	if err != nil {
		t.Fatal(err)
	}
	if user != "Administrator" || domain != "SKYNET" {
		t.Errorf("LsarGetUserName = %q, %q, want %q, %q", user, domain, "Administrator", "SKYNET")
	}
}

func TestRPCConLookupSids2(t *testing.T) {
	stub := "00000200" + "02000000" + "04000200" + "20000000" +
		// Referenced domains
		"02000000" +
		"0e000e00080002000c000200" +
		"0c000c001000020014000200" +
		"070000000000000007000000" + "4200550049004c00540049004e000000" +
		"01000000" + "0101000000000005" + "20000000" +
		"060000000000000006000000" + "53004b0059004e0045005400" +
		"04000000" + "0104000000000005" + "15000000dcf4dc3b833d2b46828ba628" +
		// Translated names
		"02000000" + "18000200" + "02000000" +
		"04000000" + "1c001c001c000200" + "00000000" + "00000000" +
		"02000000" + "1a001a0020000200" + "01000000" + "00000000" +
		"0e000000000000000e000000" + "410064006d0069006e006900730074007200610074006f0072007300" +
		"0d000000000000000d000000" + "44006f006d00610069006e002000410064006d0069006e0073000000" +
		// MappedCount, status
		"02000000" + "00000000"
	tr := &fakeTransport{t: t, stubs: map[uint16][]byte{
		LsarOpenPolicy2: mustHex(t, policyHandleHex+"00000000"),
		LsarLookupSids2: mustHex(t, stub),
		LsarClose:       mustHex(t, strings.Repeat("00", 20)+"00000000"),
	}}
	rpccon, err := Bind(tr)
	if err != nil {
		t.Fatal(err)
	}
	sids := []string{"S-1-5-32-544", "S-1-5-21-1004336348-1177238915-682003330-512"}
	res, err := rpccon.LsarLookupSids2(LsapLookupWksta, sids)
	if err != nil {
		t.Fatal(err)
	}
	if res.ReturnCode != StatusSuccess {
		t.Errorf("ReturnCode = 0x%x", res.ReturnCode)
	}

	domains := []DomainTranslation{
		{Name: "BUILTIN", Sid: "S-1-5-32"},
		{Name: "SKYNET", Sid: "S-1-5-21-1004336348-1177238915-682003330"},
	}
	if len(res.ReferencedDomains) != len(domains) {
		t.Fatalf("got %d referenced domains, want %d", len(res.ReferencedDomains), len(domains))
	}
	for i, want := range domains {
		if res.ReferencedDomains[i] != want {
			t.Errorf("domain %d = %+v, want %+v", i, res.ReferencedDomains[i], want)
		}
	}

	names := []SidNameTranslation{
		{Use: SidTypeAlias, Name: "Administrators", Sid: sids[0], DomainIndex: 0},
		{Use: SidTypeGroup, Name: "Domain Admins", Sid: sids[1], DomainIndex: 1},
	}
	if len(res.TranslatedNames) != len(names) {
		t.Fatalf("got %d names, want %d", len(res.TranslatedNames), len(names))
	}
	for i, want := range names {
		if res.TranslatedNames[i] != want {
			t.Errorf("name %d = %+v, want %+v", i, res.TranslatedNames[i], want)
		}
	}

	want := []uint16{LsarOpenPolicy2, LsarLookupSids2, LsarClose}
	if len(tr.opnums) != len(want) {
		t.Fatalf("opnums = %v, want %v", tr.opnums, want)
	}
	for i := range want {
		if tr.opnums[i] != want[i] {
			t.Errorf("opnums = %v, want %v", tr.opnums, want)
			break
		}
	}
}
