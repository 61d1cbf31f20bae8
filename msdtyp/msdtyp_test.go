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
package msdtyp

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"slices"
	"testing"

	"github.com/google/uuid"
	"github.com/jfjallid/go-msrpc/ndr"
)

// Owner S-1-5-18, DACL granting Everyone 0x001f01ff
const sdHex = "01000480" + "30000000" + "00000000" + "00000000" + "14000000" +
	"02001c00" + "01000000" +
	"00001400" + "ff011f00" + "010100000000000100000000" +
	"010100000000000512000000"

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func mustSID(t *testing.T, s string) *SID {
	t.Helper()
	sid, err := ConvertStrToSID(s)
	if err != nil {
		t.Fatal(err)
	}
	return sid
}

func TestReadSID(t *testing.T) {
	pkt := mustHex(t, "010500000000000515000000010000000200000003000000f4010000")
	c, _ := ndr.NewCursor(pkt)
	sid, err := ReadSID(c)
	if err != nil {
		t.Fatal(err)
	}
	if sid.String() != "S-1-5-21-1-2-3-500" {
		t.Errorf("SID = %s", sid)
	}
	if sid.Size() != len(pkt) || c.Position() != len(pkt) {
		t.Errorf("Size = %d, position = %d, want %d", sid.Size(), c.Position(), len(pkt))
	}
	if sid.RelativeID() != DomainAdminRid {
		t.Errorf("RelativeID = %d", sid.RelativeID())
	}
	buf, err := sid.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, pkt) {
		t.Errorf("MarshalBinary = %x, want %x", buf, pkt)
	}
}

func TestSIDStringRoundTrip(t *testing.T) {
	sids := []*SID{
		{Revision: 1, IdentifierAuthority: [6]byte{0, 0, 0, 0, 0, 5}, SubAuthorities: []uint32{18}},
		{Revision: 1, IdentifierAuthority: [6]byte{0, 0, 0, 0, 0, 5}, SubAuthorities: []uint32{21, 3623811015, 3361044348, 30300820, 1013}},
		{Revision: 1, IdentifierAuthority: [6]byte{0, 0, 0xff, 0xff, 0xff, 0xff}, SubAuthorities: []uint32{0xffffffff}},
		{Revision: 1, IdentifierAuthority: [6]byte{1, 2, 3, 4, 5, 6}, SubAuthorities: []uint32{7, 8}},
	}
	for _, sid := range sids {
		s := sid.String()
		back, err := ConvertStrToSID(s)
		if err != nil {
			t.Fatalf("ConvertStrToSID(%q): %v", s, err)
		}
		if !back.Equal(sid) {
			t.Errorf("ConvertStrToSID(%q) = %+v, want %+v", s, back, sid)
		}
	}
	if s := sids[3].String(); s != "S-1-0x010203040506-7-8" {
		t.Errorf("hex authority = %s", s)
	}
	if sid := mustSID(t, "S-1-0x5-18"); sid.String() != "S-1-5-18" {
		t.Errorf("hex input = %s", sid)
	}
}

func TestConvertStrToSIDMalformed(t *testing.T) {
	for _, s := range []string{"", "S", "S-1", "X-1-5-18", "S-1-5-abc", "S-x-5-18", "S-1-0xzz-1", "S-1-5-99999999999", "S-1-5-1-2-3-4-5-6-7-8-9-10-11-12-13-14-15-16"} {
		if _, err := ConvertStrToSID(s); !errors.Is(err, ErrMalformedSID) {
			t.Errorf("ConvertStrToSID(%q) error = %v, want ErrMalformedSID", s, err)
		}
	}
}

func TestResolveRelativeID(t *testing.T) {
	domain := mustSID(t, "S-1-5-21-1-2-3")
	admin := domain.ResolveRelativeID(DomainAdminRid)
	if admin.String() != "S-1-5-21-1-2-3-500" {
		t.Errorf("ResolveRelativeID = %s", admin)
	}
	if domain.String() != "S-1-5-21-1-2-3" {
		t.Errorf("domain SID modified to %s", domain)
	}
	if name, ok := mustSID(t, "S-1-5-32-544").WellKnownName(); !ok || name != "BUILTIN\\Administrators" {
		t.Errorf("WellKnownName = %q, %v", name, ok)
	}
}

func TestReadACLValidation(t *testing.T) {
	tests := []struct {
		name string
		pkt  string
	}{
		{"revision 3", "03000800" + "00000000"},
		{"revision 0", "00000800" + "00000000"},
		{"sbz1", "02010800" + "00000000"},
		{"sbz2", "02000800" + "00000100"},
	}
	for _, tt := range tests {
		c, _ := ndr.NewCursor(mustHex(t, tt.pkt))
		if _, err := ReadACL(c); !errors.Is(err, ErrMalformedACL) {
			t.Errorf("%s: error = %v, want ErrMalformedACL", tt.name, err)
		}
	}

	for _, rev := range []string{"02", "04"} {
		c, _ := ndr.NewCursor(mustHex(t, rev+"000800"+"00000000"))
		acl, err := ReadACL(c)
		if err != nil {
			t.Errorf("revision %s: %v", rev, err)
			continue
		}
		if len(acl.Aces) != 0 {
			t.Errorf("revision %s: %d ACEs", rev, len(acl.Aces))
		}
	}
}

func TestReadACLAceCount(t *testing.T) {
	ace := "00001400" + "ff011f00" + "010100000000000100000000"
	// AclSize is wrong on purpose, the count decides
	pkt := mustHex(t, "02000800"+"03000000"+ace+ace+ace)
	c, _ := ndr.NewCursor(pkt)
	acl, err := ReadACL(c)
	if err != nil {
		t.Fatal(err)
	}
	if len(acl.Aces) != 3 {
		t.Fatalf("decoded %d ACEs, want 3", len(acl.Aces))
	}
	for _, a := range acl.Aces {
		if a.Sid.String() != "S-1-1-0" || a.Mask != 0x001f01ff {
			t.Errorf("ACE = %+v", a)
		}
	}
	if c.Position() != len(pkt) {
		t.Errorf("position = %d, want %d", c.Position(), len(pkt))
	}
}

func TestACEObjectRoundTrip(t *testing.T) {
	a := &ACE{
		Header:      ACEHeader{Type: AccessAllowedObjectAceType, Flags: ContainerInheritAce},
		Mask:        0x00000100,
		ObjectFlags: AceObjectTypePresent,
		ObjectType:  uuid.MustParse("00299570-246d-11d0-a768-00aa006e0529"),
		Sid:         *mustSID(t, "S-1-5-11"),
	}
	buf, err := a.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if len(buf) != 40 || a.Header.Size != 40 {
		t.Fatalf("object ACE size = %d (header %d), want 40", len(buf), a.Header.Size)
	}
	var back ACE
	if err = back.UnmarshalBinary(buf); err != nil {
		t.Fatal(err)
	}
	if back.ObjectType != a.ObjectType || back.InheritedObjectType != uuid.Nil || !back.Sid.Equal(&a.Sid) {
		t.Errorf("round trip = %+v, want %+v", back, *a)
	}
}

func TestACEApplicationData(t *testing.T) {
	a := &ACE{
		Header:          ACEHeader{Type: AccessAllowedCallbackAceType},
		Mask:            0x1,
		Sid:             *mustSID(t, "S-1-1-0"),
		ApplicationData: []byte("artx"),
	}
	buf, err := a.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	c, _ := ndr.NewCursor(append(buf, 0xff, 0xff, 0xff, 0xff))
	back, err := ReadACE(c)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(back.ApplicationData, []byte("artx")) {
		t.Errorf("ApplicationData = %x", back.ApplicationData)
	}
	if c.Position() != len(buf) {
		t.Errorf("position = %d, want %d", c.Position(), len(buf))
	}

	// Size smaller than its SID
	short := append([]byte(nil), buf...)
	binary.LittleEndian.PutUint16(short[2:], 12)
	c, _ = ndr.NewCursor(short)
	if _, err = ReadACE(c); !errors.Is(err, ErrMalformedACL) {
		t.Errorf("short ACE: error = %v", err)
	}
}

func TestSecurityDescriptorVector(t *testing.T) {
	pkt := mustHex(t, sdHex)
	var sd SecurityDescriptor
	if err := sd.UnmarshalBinary(pkt); err != nil {
		t.Fatal(err)
	}
	if sd.Owner == nil || sd.Owner.String() != "S-1-5-18" {
		t.Errorf("Owner = %v", sd.Owner)
	}
	if sd.Group != nil || sd.Sacl != nil {
		t.Errorf("Group = %v, Sacl = %v", sd.Group, sd.Sacl)
	}
	if sd.Dacl == nil || len(sd.Dacl.Aces) != 1 {
		t.Fatalf("Dacl = %+v", sd.Dacl)
	}
	perms := sd.Dacl.Permissions()
	if perms.NumAce != 1 || perms.Entries[0].Sid != "S-1-1-0" || perms.Entries[0].AceType != "AccessAllowed" {
		t.Errorf("Permissions = %+v", perms)
	}

	out := &SecurityDescriptor{Owner: sd.Owner, Dacl: &ACL{Aces: sd.Dacl.Aces}}
	buf, err := out.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, pkt) {
		t.Errorf("MarshalBinary = %x, want %x", buf, pkt)
	}
}

func TestSecurityDescriptorRelativeOffsets(t *testing.T) {
	prefix := []byte{0xaa, 0xbb, 0xcc, 0xdd}
	pkt := append(append(prefix, mustHex(t, sdHex)...), 0xee)
	c, _ := ndr.NewCursor(pkt)
	if err := c.SetPosition(len(prefix)); err != nil {
		t.Fatal(err)
	}
	sd, err := ReadSecurityDescriptor(c)
	if err != nil {
		t.Fatal(err)
	}
	if sd.Owner.String() != "S-1-5-18" || sd.Dacl.Aces[0].Sid.String() != "S-1-1-0" {
		t.Errorf("descriptor = %+v", sd)
	}
	// The owner is the last field, so the cursor ends right after it
	if c.Position() != len(pkt)-1 {
		t.Errorf("position = %d, want %d", c.Position(), len(pkt)-1)
	}
}

func TestSecurityDescriptorAnyOrder(t *testing.T) {
	// Owner right after the header, DACL after the owner
	pkt := mustHex(t, "01000480"+"14000000"+"00000000"+"00000000"+"20000000"+
		"010100000000000512000000"+
		"02001c00"+"01000000"+
		"00001400"+"ff011f00"+"010100000000000100000000")
	c, _ := ndr.NewCursor(pkt)
	sd, err := ReadSecurityDescriptor(c)
	if err != nil {
		t.Fatal(err)
	}
	if sd.Owner.String() != "S-1-5-18" || len(sd.Dacl.Aces) != 1 {
		t.Errorf("descriptor = %+v", sd)
	}
	if c.Position() != len(pkt) {
		t.Errorf("position = %d, want %d", c.Position(), len(pkt))
	}
}

func TestSecurityDescriptorControlOffsets(t *testing.T) {
	header := func(control uint16, owner, group, sacl, dacl uint32) []byte {
		c := ndr.NewWriter(20)
		c.PutByte(1)
		c.PutByte(0)
		c.PutShort(control)
		c.PutInt(owner)
		c.PutInt(group)
		c.PutInt(sacl)
		c.PutInt(dacl)
		return c.Serialize()
	}
	tests := []struct {
		name string
		pkt  []byte
	}{
		{"negative owner without OD", header(SecurityDescriptorFlagSR, 0xffffffff, 0, 0, 0)},
		{"negative group without GD", header(SecurityDescriptorFlagSR, 0, 0xfffffff0, 0, 0)},
		{"SP with zero offset", header(SecurityDescriptorFlagSP, 0, 0, 0, 0)},
		{"SP with negative offset", header(SecurityDescriptorFlagSP, 0, 0, 0x80000000, 0)},
		{"SACL offset without SP", header(0, 0, 0, 20, 0)},
		{"DP with zero offset", header(SecurityDescriptorFlagDP, 0, 0, 0, 0)},
		{"DACL offset without DP", header(0, 0, 0, 0, 20)},
		{"revision 2", append([]byte{2}, header(0, 0, 0, 0, 0)[1:]...)},
	}
	for _, tt := range tests {
		var sd SecurityDescriptor
		if err := sd.UnmarshalBinary(tt.pkt); !errors.Is(err, ErrMalformedSecurityDescriptor) {
			t.Errorf("%s: error = %v, want ErrMalformedSecurityDescriptor", tt.name, err)
		}
	}

	var sd SecurityDescriptor
	err := sd.UnmarshalBinary(header(SecurityDescriptorFlagOD|SecurityDescriptorFlagGD, 0, 0, 0, 0))
	if err != nil {
		t.Fatalf("OD|GD descriptor: %v", err)
	}
	if sd.Owner != nil || sd.Group != nil || sd.Sacl != nil || sd.Dacl != nil {
		t.Errorf("OD|GD descriptor = %+v", sd)
	}
	// A negative owner offset is tolerated when the owner is defaulted
	err = sd.UnmarshalBinary(header(SecurityDescriptorFlagOD, 0xffffffff, 0, 0, 0))
	if err != nil || sd.Owner != nil {
		t.Errorf("OD with negative offset: %v, %+v", err, sd)
	}
}

func TestSecurityDescriptorZeroOwnerOffset(t *testing.T) {
	// Self-relative, DACL present, no owner or group and neither defaulted
	pkt := mustHex(t, "01000480"+"00000000"+"00000000"+"00000000"+"14000000"+"0200080000000000")
	var sd SecurityDescriptor
	if err := sd.UnmarshalBinary(pkt); err != nil {
		t.Fatal(err)
	}
	if sd.Owner != nil || sd.Group != nil {
		t.Errorf("Owner = %v, Group = %v, want nil", sd.Owner, sd.Group)
	}
	if sd.Control&(SecurityDescriptorFlagOD|SecurityDescriptorFlagGD) != 0 {
		t.Errorf("Control = 0x%04x", sd.Control)
	}
	if sd.Dacl == nil || len(sd.Dacl.Aces) != 0 {
		t.Errorf("Dacl = %+v, want an empty ACL", sd.Dacl)
	}
}

func TestSecurityDescriptorRoundTrip(t *testing.T) {
	in := &SecurityDescriptor{
		Control: SecurityDescriptorFlagPD,
		Owner:   mustSID(t, "S-1-5-32-544"),
		Group:   mustSID(t, "S-1-5-21-1-2-3-513"),
		Sacl: &ACL{Aces: []ACE{{
			Header: ACEHeader{Type: SystemAuditAceType, Flags: FailedAccessAceFlag},
			Mask:   0x00010000,
			Sid:    *mustSID(t, "S-1-1-0"),
		}}},
		Dacl: &ACL{Revision: AclRevisionDS, Aces: []ACE{
			{Header: ACEHeader{Type: AccessAllowedAceType, Flags: ObjectInheritAce | ContainerInheritAce}, Mask: 0x001f01ff, Sid: *mustSID(t, "S-1-5-18")},
			{Header: ACEHeader{Type: AccessDeniedAceType}, Mask: 0x00040000, Sid: *mustSID(t, "S-1-5-32-546")},
		}},
	}
	buf, err := in.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	want := SecurityDescriptorFlagSR | SecurityDescriptorFlagSP | SecurityDescriptorFlagDP | SecurityDescriptorFlagPD
	if in.Control != want {
		t.Errorf("Control = 0x%04x, want 0x%04x", in.Control, want)
	}
	if in.OffsetSacl != 20 || in.OffsetDacl <= in.OffsetSacl || in.OffsetOwner <= in.OffsetDacl || in.OffsetGroup <= in.OffsetOwner {
		t.Errorf("offsets owner %d group %d sacl %d dacl %d", in.OffsetOwner, in.OffsetGroup, in.OffsetSacl, in.OffsetDacl)
	}

	var out SecurityDescriptor
	if err = out.UnmarshalBinary(buf); err != nil {
		t.Fatal(err)
	}
	if !out.Owner.Equal(in.Owner) || !out.Group.Equal(in.Group) {
		t.Errorf("owner %s group %s", out.Owner, out.Group)
	}
	if out.Dacl.Revision != AclRevisionDS || len(out.Dacl.Aces) != 2 || len(out.Sacl.Aces) != 1 {
		t.Fatalf("ACLs = %+v / %+v", out.Sacl, out.Dacl)
	}
	if out.Dacl.Aces[1].Sid.String() != "S-1-5-32-546" || out.Sacl.Aces[0].Header.Flags != FailedAccessAceFlag {
		t.Errorf("ACEs = %+v / %+v", out.Sacl.Aces, out.Dacl.Aces)
	}
	if int(out.Dacl.AclSize) != 8+20+24 {
		t.Errorf("AclSize = %d", out.Dacl.AclSize)
	}
}

func TestParseAccessMask(t *testing.T) {
	got := ParseAccessMask(0x001f01ff)
	want := []string{AccessMaskSynchronize, AccessMaskWriteOwner, AccessMaskWriteDACL, AccessMaskReadControl, AccessMaskDelete, "SPECIFIC_RIGHTS(0x01ff)"}
	if !slices.Equal(got, want) {
		t.Errorf("ParseAccessMask = %v, want %v", got, want)
	}
	if got = ParseAccessMask(0x40000000); !slices.Equal(got, []string{AccessMaskGenericWrite}) {
		t.Errorf("ParseAccessMask(GENERIC_WRITE) = %v", got)
	}
	if s := ParseAceFlags(ObjectInheritAce | ContainerInheritAce); s != "ObjectInheritAce|ContainerInheritAce" {
		t.Errorf("ParseAceFlags = %s", s)
	}
}
