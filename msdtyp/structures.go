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

// Package msdtyp implements the self-relative security structures of
// MS-DTYP: SID, ACE, ACL and SECURITY_DESCRIPTOR.
package msdtyp

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jfjallid/go-msrpc/ndr"
	"github.com/jfjallid/golog"
)

var log = golog.Get("github.com/jfjallid/go-msrpc/msdtyp")

var (
	ErrMalformedSID                = errors.New("msdtyp: malformed SID")
	ErrMalformedACL                = errors.New("msdtyp: malformed ACL")
	ErrMalformedSecurityDescriptor = errors.New("msdtyp: malformed security descriptor")
)

// MS-DTYP Section 2.4.6 Security_Descriptor Control Flag
const (
	SecurityDescriptorFlagOD uint16 = 0x0001 // Owner Default
	SecurityDescriptorFlagGD uint16 = 0x0002 // Group Default
	SecurityDescriptorFlagDP uint16 = 0x0004 // DACL Present
	SecurityDescriptorFlagDD uint16 = 0x0008 // DACL Defaulted
	SecurityDescriptorFlagSP uint16 = 0x0010 // SACL Present
	SecurityDescriptorFlagSD uint16 = 0x0020 // SACL Defaulted
	SecurityDescriptorFlagDT uint16 = 0x0040 // DACL Trusted
	SecurityDescriptorFlagSS uint16 = 0x0080 // Server Security
	SecurityDescriptorFlagDC uint16 = 0x0100 // DACL Computed Inheritance Required
	SecurityDescriptorFlagSC uint16 = 0x0200 // SACL Computed Inheritance Required
	SecurityDescriptorFlagDI uint16 = 0x0400 // DACL Auto-Inherited
	SecurityDescriptorFlagSI uint16 = 0x0800 // SACL Auto-Inherited
	SecurityDescriptorFlagPD uint16 = 0x1000 // DACL Protected
	SecurityDescriptorFlagPS uint16 = 0x2000 // SACL Protected
	SecurityDescriptorFlagPM uint16 = 0x4000 // RM Control Valid
	SecurityDescriptorFlagSR uint16 = 0x8000 // Self-Relative
)

const (
	SecurityDescriptorRevision byte = 1
	AclRevision                byte = 2
	AclRevisionDS              byte = 4
	securityDescriptorLen           = 20
	aclHeaderLen                    = 8
	aceHeaderLen                    = 4
	maxSubAuthorities               = 15
)

// MS-DTYP Section 2.4.4.1 ACE_HEADER
// AceType
const (
	AccessAllowedAceType               byte = 0x00
	AccessDeniedAceType                byte = 0x01
	SystemAuditAceType                 byte = 0x02
	SystemAlarmAceType                 byte = 0x03
	AccessAllowedCompoundAceType       byte = 0x04
	AccessAllowedObjectAceType         byte = 0x05
	AccessDeniedObjectAceType          byte = 0x06
	SystemAuditObjectAceType           byte = 0x07
	SystemAlarmObjectAceType           byte = 0x08
	AccessAllowedCallbackAceType       byte = 0x09
	AccessDeniedCallbackAceType        byte = 0x0a
	AccessAllowedCallbackObjectAceType byte = 0x0b
	AccessDeniedCallbackObjectAceType  byte = 0x0c
	SystemAuditCallbackAceType         byte = 0x0d
	SystemAlarmCallbackAceType         byte = 0x0e
	SystemAuditCallbackObjectAceType   byte = 0x0f
	SystemAlarmCallbackObjectAceType   byte = 0x10
	SystemMandatoryLabelAceType        byte = 0x11
	SystemResourceAttributeAceType     byte = 0x12
	SystemScopedPolicyIdAceType        byte = 0x13
)

var AceTypeMap = map[byte]string{
	AccessAllowedAceType:               "AccessAllowed",
	AccessDeniedAceType:                "AccessDenied",
	SystemAuditAceType:                 "SystemAudit",
	SystemAlarmAceType:                 "SystemAlarm",
	AccessAllowedCompoundAceType:       "AccessAllowedCompound",
	AccessAllowedObjectAceType:         "AccessAllowedObject",
	AccessDeniedObjectAceType:          "AccessDeniedObject",
	SystemAuditObjectAceType:           "SystemAuditObject",
	SystemAlarmObjectAceType:           "SystemAlarmObject",
	AccessAllowedCallbackAceType:       "AccessAllowedCallback",
	AccessDeniedCallbackAceType:        "AccessDeniedCallback",
	AccessAllowedCallbackObjectAceType: "AccessAllowedCallbackObject",
	AccessDeniedCallbackObjectAceType:  "AccessDeniedCallbackObject",
	SystemAuditCallbackAceType:         "SystemAuditCallback",
	SystemAlarmCallbackAceType:         "SystemAlarmCallback",
	SystemAuditCallbackObjectAceType:   "SystemAuditCallbackObject",
	SystemAlarmCallbackObjectAceType:   "SystemAlarmCallbackObject",
	SystemMandatoryLabelAceType:        "SystemMandatoryLabel",
	SystemResourceAttributeAceType:     "SystemResourceAttribute",
	SystemScopedPolicyIdAceType:        "SystemScopedPolicyId",
}

// AceFlags
const (
	ObjectInheritAce        byte = 0x01 // Noncontainer child objects inherit the ACE as an effective ACE
	ContainerInheritAce     byte = 0x02 // Child objects that are containers, such as directories, inherit the ACE as an effective ACE. The inherited ACE is inheritable unless the NO_PROPAGATE_INHERIT_ACE bit flag is also set.
	NoPropagateInheritAce   byte = 0x04 // Ace is only inherited to direct child objects
	InheritOnlyAce          byte = 0x08 // Ace does not control access to the object to which it is attached
	InheritedAce            byte = 0x10 // The ACE was inherited
	SuccessfulAccessAceFlag byte = 0x40 // Generate audit messages for successful access attempts in SACL
	FailedAccessAceFlag     byte = 0x80 // Generate audit messages for failed access attempts in SACL
	DefaultAceFlag          byte = 0x02 // ContainerInheritAce
)

// MS-DTYP Section 2.4.4.3 ACCESS_ALLOWED_OBJECT_ACE Flags
const (
	AceObjectTypePresent          uint32 = 0x1
	AceInheritedObjectTypePresent uint32 = 0x2
)

// MS-DTYP Section 2.4.2.2 SID
type SID struct {
	Revision            byte
	IdentifierAuthority [6]byte // Big-endian
	SubAuthorities      []uint32
}

// MS-DTYP Section 2.4.4.1 ACE_HEADER
type ACEHeader struct {
	Type  byte
	Flags byte
	Size  uint16 // Includes the header
}

// MS-DTYP Section 2.4.4 ACE. The object fields are only used by the object
// ACE types. Bytes that follow the SID inside the ACE, such as the condition
// of a callback ACE, are kept in ApplicationData.
type ACE struct {
	Header              ACEHeader
	Mask                uint32
	ObjectFlags         uint32
	ObjectType          uuid.UUID
	InheritedObjectType uuid.UUID
	Sid                 SID
	ApplicationData     []byte
}

// MS-DTYP Section 2.4.5 ACL
type ACL struct {
	Revision byte
	Sbz1     byte
	AclSize  uint16 // Advisory, recomputed on Write
	Sbz2     uint16
	Aces     []ACE
}

// MS-DTYP Section 2.4.6 SECURITY_DESCRIPTOR in self-relative form. Offsets
// are relative to the start of the descriptor.
type SecurityDescriptor struct {
	Revision    byte
	Sbz1        byte
	Control     uint16
	OffsetOwner uint32
	OffsetGroup uint32
	OffsetSacl  uint32
	OffsetDacl  uint32
	Owner       *SID
	Group       *SID
	Sacl        *ACL
	Dacl        *ACL
}

// Size returns the encoded length of the SID.
func (self *SID) Size() int {
	return 8 + 4*len(self.SubAuthorities)
}

func ReadSID(c *ndr.Cursor) (s *SID, err error) {
	s = &SID{}
	if s.Revision, err = c.GetByte(); err != nil {
		return nil, err
	}
	count, err := c.GetByte()
	if err != nil {
		return nil, err
	}
	if count > maxSubAuthorities {
		err = fmt.Errorf("%w: %d sub authorities, at most %d allowed", ErrMalformedSID, count, maxSubAuthorities)
		log.Errorln(err)
		return nil, err
	}
	auth, err := c.GetBytes(6)
	if err != nil {
		return nil, err
	}
	copy(s.IdentifierAuthority[:], auth)
	s.SubAuthorities = make([]uint32, count)
	for i := range s.SubAuthorities {
		if s.SubAuthorities[i], err = c.GetInt(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (self *SID) Write(c *ndr.Cursor) error {
	if len(self.SubAuthorities) > maxSubAuthorities {
		err := fmt.Errorf("%w: %d sub authorities, at most %d allowed", ErrMalformedSID, len(self.SubAuthorities), maxSubAuthorities)
		log.Errorln(err)
		return err
	}
	c.PutByte(self.Revision)
	c.PutByte(byte(len(self.SubAuthorities)))
	c.PutBytes(self.IdentifierAuthority[:])
	for _, sub := range self.SubAuthorities {
		c.PutInt(sub)
	}
	return nil
}

func (self *SID) MarshalBinary() ([]byte, error) {
	c := ndr.NewWriter(self.Size())
	if err := self.Write(c); err != nil {
		return nil, err
	}
	return c.Serialize(), nil
}

func (self *SID) UnmarshalBinary(buf []byte) error {
	c, err := ndr.NewCursor(buf)
	if err != nil {
		return err
	}
	s, err := ReadSID(c)
	if err != nil {
		return err
	}
	*self = *s
	return nil
}

func isObjectAce(aceType byte) bool {
	switch aceType {
	case AccessAllowedObjectAceType, AccessDeniedObjectAceType,
		SystemAuditObjectAceType, SystemAlarmObjectAceType,
		AccessAllowedCallbackObjectAceType, AccessDeniedCallbackObjectAceType,
		SystemAuditCallbackObjectAceType, SystemAlarmCallbackObjectAceType:
		return true
	}
	return false
}

// ReadACE reads one ACE and leaves the cursor at the end of it as given by
// the size in the ACE header.
func ReadACE(c *ndr.Cursor) (a *ACE, err error) {
	start := c.Position()
	a = &ACE{}
	if a.Header.Type, err = c.GetByte(); err != nil {
		return nil, err
	}
	if a.Header.Flags, err = c.GetByte(); err != nil {
		return nil, err
	}
	if a.Header.Size, err = c.GetShort(); err != nil {
		return nil, err
	}
	end := start + int(a.Header.Size)
	if a.Header.Size < aceHeaderLen+4 {
		err = fmt.Errorf("%w: %s ACE of size %d", ErrMalformedACL, AceTypeMap[a.Header.Type], a.Header.Size)
		log.Errorln(err)
		return nil, err
	}
	if a.Mask, err = c.GetInt(); err != nil {
		return nil, err
	}
	if a.Header.Type != AccessAllowedCompoundAceType {
		if isObjectAce(a.Header.Type) {
			if a.ObjectFlags, err = c.GetInt(); err != nil {
				return nil, err
			}
			if a.ObjectFlags&AceObjectTypePresent != 0 {
				if a.ObjectType, err = c.GetUUID(); err != nil {
					return nil, err
				}
			}
			if a.ObjectFlags&AceInheritedObjectTypePresent != 0 {
				if a.InheritedObjectType, err = c.GetUUID(); err != nil {
					return nil, err
				}
			}
		}
		var sid *SID
		if sid, err = ReadSID(c); err != nil {
			return nil, err
		}
		a.Sid = *sid
	}
	if c.Position() > end {
		err = fmt.Errorf("%w: %s ACE content of %d bytes exceeds its size %d", ErrMalformedACL, AceTypeMap[a.Header.Type], c.Position()-start, a.Header.Size)
		log.Errorln(err)
		return nil, err
	}
	if n := end - c.Position(); n > 0 {
		if a.ApplicationData, err = c.GetBytes(n); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Write encodes the ACE padded to a multiple of 4 bytes and updates
// Header.Size.
func (self *ACE) Write(c *ndr.Cursor) error {
	start := c.Position()
	c.PutByte(self.Header.Type)
	c.PutByte(self.Header.Flags)
	c.PutShort(0) // Size
	c.PutInt(self.Mask)
	if self.Header.Type != AccessAllowedCompoundAceType {
		if isObjectAce(self.Header.Type) {
			c.PutInt(self.ObjectFlags)
			if self.ObjectFlags&AceObjectTypePresent != 0 {
				c.PutUUID(self.ObjectType)
			}
			if self.ObjectFlags&AceInheritedObjectTypePresent != 0 {
				c.PutUUID(self.InheritedObjectType)
			}
		}
		if err := self.Sid.Write(c); err != nil {
			return err
		}
	}
	c.PutBytes(self.ApplicationData)
	for (c.Position()-start)%4 != 0 {
		c.PutByte(0)
	}
	size := c.Position() - start
	if size > 0xffff {
		return fmt.Errorf("%w: ACE of %d bytes", ErrMalformedACL, size)
	}
	self.Header.Size = uint16(size)
	c.PutShortAt(start+2, self.Header.Size)
	return nil
}

func (self *ACE) MarshalBinary() ([]byte, error) {
	c := ndr.NewWriter(64)
	if err := self.Write(c); err != nil {
		return nil, err
	}
	return c.Serialize(), nil
}

func (self *ACE) UnmarshalBinary(buf []byte) error {
	c, err := ndr.NewCursor(buf)
	if err != nil {
		return err
	}
	a, err := ReadACE(c)
	if err != nil {
		return err
	}
	*self = *a
	return nil
}

// ReadACL reads an ACL header followed by the number of ACEs it declares.
// AclSize is not used to bound the read.
func ReadACL(c *ndr.Cursor) (p *ACL, err error) {
	p = &ACL{}
	if p.Revision, err = c.GetByte(); err != nil {
		return nil, err
	}
	if p.Revision != AclRevision && p.Revision != AclRevisionDS {
		err = fmt.Errorf("%w: revision %d, require %d or %d", ErrMalformedACL, p.Revision, AclRevision, AclRevisionDS)
		log.Errorln(err)
		return nil, err
	}
	if p.Sbz1, err = c.GetByte(); err != nil {
		return nil, err
	}
	if p.Sbz1 != 0 {
		err = fmt.Errorf("%w: sbz1 is 0x%02x, require 0", ErrMalformedACL, p.Sbz1)
		log.Errorln(err)
		return nil, err
	}
	if p.AclSize, err = c.GetShort(); err != nil {
		return nil, err
	}
	count, err := c.GetShort()
	if err != nil {
		return nil, err
	}
	if p.Sbz2, err = c.GetShort(); err != nil {
		return nil, err
	}
	if p.Sbz2 != 0 {
		err = fmt.Errorf("%w: sbz2 is 0x%04x, require 0", ErrMalformedACL, p.Sbz2)
		log.Errorln(err)
		return nil, err
	}
	p.Aces = make([]ACE, 0, count)
	for i := 0; i < int(count); i++ {
		var a *ACE
		if a, err = ReadACE(c); err != nil {
			log.Errorf("Failed to read ACE %d of %d: %v\n", i+1, count, err)
			return nil, err
		}
		p.Aces = append(p.Aces, *a)
	}
	return p, nil
}

// Write encodes the ACL and updates AclSize. A zero Revision is written as
// AclRevision.
func (self *ACL) Write(c *ndr.Cursor) error {
	if self.Revision == 0 {
		self.Revision = AclRevision
	}
	if self.Revision != AclRevision && self.Revision != AclRevisionDS {
		return fmt.Errorf("%w: revision %d, require %d or %d", ErrMalformedACL, self.Revision, AclRevision, AclRevisionDS)
	}
	if len(self.Aces) > 0xffff {
		return fmt.Errorf("%w: %d ACEs", ErrMalformedACL, len(self.Aces))
	}
	start := c.Position()
	c.PutByte(self.Revision)
	c.PutByte(0)  // Sbz1
	c.PutShort(0) // AclSize
	c.PutShort(uint16(len(self.Aces)))
	c.PutShort(0) // Sbz2
	for i := range self.Aces {
		if err := self.Aces[i].Write(c); err != nil {
			return err
		}
	}
	size := c.Position() - start
	if size > 0xffff {
		return fmt.Errorf("%w: ACL of %d bytes", ErrMalformedACL, size)
	}
	self.AclSize = uint16(size)
	c.PutShortAt(start+2, self.AclSize)
	return nil
}

func (self *ACL) MarshalBinary() ([]byte, error) {
	c := ndr.NewWriter(aclHeaderLen + 32*len(self.Aces))
	if err := self.Write(c); err != nil {
		return nil, err
	}
	return c.Serialize(), nil
}

func (self *ACL) UnmarshalBinary(buf []byte) error {
	c, err := ndr.NewCursor(buf)
	if err != nil {
		return err
	}
	p, err := ReadACL(c)
	if err != nil {
		return err
	}
	*self = *p
	return nil
}

func sdError(format string, a ...any) error {
	err := fmt.Errorf("%w: "+format, append([]any{ErrMalformedSecurityDescriptor}, a...)...)
	log.Errorln(err)
	return err
}

// checkAclOffset validates that an ACL offset is set exactly when its
// present bit is.
func checkAclOffset(name string, control, flag uint16, offset uint32) error {
	if control&flag != 0 {
		if int32(offset) <= 0 {
			return sdError("%s present but its offset is %d", name, int32(offset))
		}
	} else if offset != 0 {
		return sdError("%s not present but its offset is %d, require 0", name, int32(offset))
	}
	return nil
}

// ReadSecurityDescriptor reads a self-relative security descriptor starting
// at the cursor position. Owner, group and the ACLs are located through
// their offsets and may appear in any order. The cursor is left after the
// furthest byte read.
func ReadSecurityDescriptor(c *ndr.Cursor) (sd *SecurityDescriptor, err error) {
	start := c.Position()
	sd = &SecurityDescriptor{}
	if sd.Revision, err = c.GetByte(); err != nil {
		return nil, err
	}
	if sd.Revision != SecurityDescriptorRevision {
		return nil, sdError("revision %d, require %d", sd.Revision, SecurityDescriptorRevision)
	}
	if sd.Sbz1, err = c.GetByte(); err != nil {
		return nil, err
	}
	if sd.Control, err = c.GetShort(); err != nil {
		return nil, err
	}
	for _, field := range []*uint32{&sd.OffsetOwner, &sd.OffsetGroup, &sd.OffsetSacl, &sd.OffsetDacl} {
		if *field, err = c.GetInt(); err != nil {
			return nil, err
		}
	}

	// Offset 0 with OD/GD clear means no owner or group. Windows writes
	// descriptors like that, so only a negative offset is rejected.
	if int32(sd.OffsetOwner) < 0 && sd.Control&SecurityDescriptorFlagOD == 0 {
		return nil, sdError("owner offset is %d and owner defaulted is not set", int32(sd.OffsetOwner))
	}
	if int32(sd.OffsetGroup) < 0 && sd.Control&SecurityDescriptorFlagGD == 0 {
		return nil, sdError("group offset is %d and group defaulted is not set", int32(sd.OffsetGroup))
	}
	if err = checkAclOffset("SACL", sd.Control, SecurityDescriptorFlagSP, sd.OffsetSacl); err != nil {
		return nil, err
	}
	if err = checkAclOffset("DACL", sd.Control, SecurityDescriptorFlagDP, sd.OffsetDacl); err != nil {
		return nil, err
	}

	furthest := c.Position()
	seek := func(offset uint32) error {
		return c.SetPosition(start + int(offset))
	}
	readSID := func(offset uint32) (*SID, error) {
		if err := seek(offset); err != nil {
			return nil, err
		}
		sidStart := c.Position()
		s, err := ReadSID(c)
		if err != nil {
			return nil, err
		}
		// Realign relative to the SID itself
		end := sidStart + (s.Size()+3)&^3
		if end > c.Len() {
			end = c.Position()
		}
		if err = c.SetPosition(end); err != nil {
			return nil, err
		}
		furthest = max(furthest, end)
		return s, nil
	}
	readACL := func(offset uint32) (*ACL, error) {
		if err := seek(offset); err != nil {
			return nil, err
		}
		p, err := ReadACL(c)
		if err != nil {
			return nil, err
		}
		furthest = max(furthest, c.Position())
		return p, nil
	}

	if int32(sd.OffsetOwner) > 0 {
		if sd.Owner, err = readSID(sd.OffsetOwner); err != nil {
			log.Errorln(err)
			return nil, err
		}
	}
	if int32(sd.OffsetGroup) > 0 {
		if sd.Group, err = readSID(sd.OffsetGroup); err != nil {
			log.Errorln(err)
			return nil, err
		}
	}
	if sd.Control&SecurityDescriptorFlagSP != 0 {
		if sd.Sacl, err = readACL(sd.OffsetSacl); err != nil {
			log.Errorln(err)
			return nil, err
		}
	}
	if sd.Control&SecurityDescriptorFlagDP != 0 {
		if sd.Dacl, err = readACL(sd.OffsetDacl); err != nil {
			log.Errorln(err)
			return nil, err
		}
	}
	if err = c.SetPosition(furthest); err != nil {
		return nil, err
	}
	return sd, nil
}

// Write encodes the descriptor in self-relative form at the cursor position.
// The SACL, DACL, owner and group follow the header in that order. Offsets
// and the SR, SP and DP control bits are derived from what is present.
func (self *SecurityDescriptor) Write(c *ndr.Cursor) error {
	start := c.Position()
	self.Revision = SecurityDescriptorRevision
	self.Control |= SecurityDescriptorFlagSR
	self.Control &^= SecurityDescriptorFlagSP | SecurityDescriptorFlagDP
	self.OffsetOwner, self.OffsetGroup, self.OffsetSacl, self.OffsetDacl = 0, 0, 0, 0

	// Header is written last
	if err := c.SetPosition(start + securityDescriptorLen); err != nil {
		return err
	}
	offset := func() uint32 {
		return uint32(c.Position() - start)
	}
	if self.Sacl != nil {
		self.Control |= SecurityDescriptorFlagSP
		self.OffsetSacl = offset()
		if err := self.Sacl.Write(c); err != nil {
			log.Errorln(err)
			return err
		}
	}
	if self.Dacl != nil {
		self.Control |= SecurityDescriptorFlagDP
		self.OffsetDacl = offset()
		if err := self.Dacl.Write(c); err != nil {
			log.Errorln(err)
			return err
		}
	}
	if self.Owner != nil {
		self.OffsetOwner = offset()
		if err := self.Owner.Write(c); err != nil {
			log.Errorln(err)
			return err
		}
	}
	if self.Group != nil {
		self.OffsetGroup = offset()
		if err := self.Group.Write(c); err != nil {
			log.Errorln(err)
			return err
		}
	}
	end := c.Position()

	if err := c.SetPosition(start); err != nil {
		return err
	}
	c.PutByte(self.Revision)
	c.PutByte(self.Sbz1)
	c.PutShort(self.Control)
	c.PutInt(self.OffsetOwner)
	c.PutInt(self.OffsetGroup)
	c.PutInt(self.OffsetSacl)
	c.PutInt(self.OffsetDacl)
	return c.SetPosition(end)
}

func (self *SecurityDescriptor) MarshalBinary() ([]byte, error) {
	c := ndr.NewWriter(128)
	if err := self.Write(c); err != nil {
		return nil, err
	}
	return c.Serialize(), nil
}

func (self *SecurityDescriptor) UnmarshalBinary(buf []byte) error {
	c, err := ndr.NewCursor(buf)
	if err != nil {
		return err
	}
	sd, err := ReadSecurityDescriptor(c)
	if err != nil {
		return err
	}
	*self = *sd
	return nil
}
