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
	"encoding/binary"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

const (
	AccessMaskGenericRead          = "GENERIC_READ"
	AccessMaskGenericWrite         = "GENERIC_WRITE"
	AccessMaskGenericExecute       = "GENERIC_EXECUTE"
	AccessMaskGenericAll           = "GENERIC_ALL"
	AccessMaskMaximumAllowed       = "MAXIMUM_ALLOWED"
	AccessMaskAccessSystemSecurity = "ACCESS_SYSTEM_SECURITY"
	AccessMaskSynchronize          = "SYNCHRONIZE"
	AccessMaskWriteOwner           = "WRITE_OWNER"
	AccessMaskWriteDACL            = "WRITE_DACL"
	AccessMaskReadControl          = "READ_CONTROL"
	AccessMaskDelete               = "DELETE"
)

// MS-DTYP Section 2.4.3 ACCESS_MASK, highest bit first
var accessMaskBits = []struct {
	bit  uint32
	name string
}{
	{0x80000000, AccessMaskGenericRead},
	{0x40000000, AccessMaskGenericWrite},
	{0x20000000, AccessMaskGenericExecute},
	{0x10000000, AccessMaskGenericAll},
	{0x02000000, AccessMaskMaximumAllowed},
	{0x01000000, AccessMaskAccessSystemSecurity},
	{0x00100000, AccessMaskSynchronize},
	{0x00080000, AccessMaskWriteOwner},
	{0x00040000, AccessMaskWriteDACL},
	{0x00020000, AccessMaskReadControl},
	{0x00010000, AccessMaskDelete},
}

var aceFlagBits = []struct {
	flag byte
	name string
}{
	{ObjectInheritAce, "ObjectInheritAce"},
	{ContainerInheritAce, "ContainerInheritAce"},
	{NoPropagateInheritAce, "NoPropagateInheritAce"},
	{InheritOnlyAce, "InheritOnlyAce"},
	{InheritedAce, "InheritedAce"},
	{SuccessfulAccessAceFlag, "SuccessfulAccessAce"},
	{FailedAccessAceFlag, "FailedAccessAce"},
}

// MS-DTYP Section 2.4.2.4 Well-Known SID Structures
var WellKnownSIDs = map[string]string{
	"S-1-0-0":      "Nobody",
	"S-1-1-0":      "Everyone",
	"S-1-2-0":      "Local",
	"S-1-3-0":      "Creator Owner",
	"S-1-3-1":      "Creator Group",
	"S-1-3-4":      "Owner Rights",
	"S-1-5-2":      "Network",
	"S-1-5-4":      "Interactive",
	"S-1-5-6":      "Service",
	"S-1-5-7":      "Anonymous Logon",
	"S-1-5-9":      "Enterprise Domain Controllers",
	"S-1-5-10":     "Principal Self",
	"S-1-5-11":     "Authenticated Users",
	"S-1-5-18":     "Local System",
	"S-1-5-19":     "Local Service",
	"S-1-5-20":     "Network Service",
	"S-1-5-32-544": "BUILTIN\\Administrators",
	"S-1-5-32-545": "BUILTIN\\Users",
	"S-1-5-32-546": "BUILTIN\\Guests",
	"S-1-5-32-547": "BUILTIN\\Power Users",
	"S-1-5-32-548": "BUILTIN\\Account Operators",
	"S-1-5-32-549": "BUILTIN\\Server Operators",
	"S-1-5-32-550": "BUILTIN\\Print Operators",
	"S-1-5-32-551": "BUILTIN\\Backup Operators",
	"S-1-5-32-555": "BUILTIN\\Remote Desktop Users",
	"S-1-16-4096":  "Low Mandatory Level",
	"S-1-16-8192":  "Medium Mandatory Level",
	"S-1-16-12288": "High Mandatory Level",
	"S-1-16-16384": "System Mandatory Level",
}

// Well-known relative ids of domain accounts and groups
const (
	DomainAdminRid       uint32 = 500
	DomainGuestRid       uint32 = 501
	DomainKrbtgtRid      uint32 = 502
	DomainAdminsGroupRid uint32 = 512
	DomainUsersGroupRid  uint32 = 513
	DomainComputersRid   uint32 = 515
	DomainControllersRid uint32 = 516
	EnterpriseAdminsRid  uint32 = 519
)

type AcePermissions struct {
	AceType        string
	AceFlags       byte
	AceFlagStrings string
	Permissions    []string
	Sid            string
}

type AclPermissions struct {
	NumAce  uint32
	Entries []AcePermissions
}

// Authority returns the 48-bit identifier authority.
func (self *SID) Authority() uint64 {
	a := self.IdentifierAuthority
	return uint64(binary.BigEndian.Uint16(a[:2]))<<32 | uint64(binary.BigEndian.Uint32(a[2:]))
}

func (self *SID) String() string {
	return ConvertSIDtoStr(self)
}

// RelativeID returns the last sub authority, or 0 for a SID without any.
func (self *SID) RelativeID() uint32 {
	if len(self.SubAuthorities) == 0 {
		return 0
	}
	return self.SubAuthorities[len(self.SubAuthorities)-1]
}

// ResolveRelativeID returns a new SID with rid appended, such as a domain
// SID resolved to one of its accounts.
func (self *SID) ResolveRelativeID(rid uint32) *SID {
	subs := make([]uint32, len(self.SubAuthorities), len(self.SubAuthorities)+1)
	copy(subs, self.SubAuthorities)
	return &SID{
		Revision:            self.Revision,
		IdentifierAuthority: self.IdentifierAuthority,
		SubAuthorities:      append(subs, rid),
	}
}

func (self *SID) Equal(other *SID) bool {
	if self == nil || other == nil {
		return self == other
	}
	return self.Revision == other.Revision &&
		self.IdentifierAuthority == other.IdentifierAuthority &&
		slices.Equal(self.SubAuthorities, other.SubAuthorities)
}

// WellKnownName returns the name of a well-known SID.
func (self *SID) WellKnownName() (string, bool) {
	name, ok := WellKnownSIDs[self.String()]
	return name, ok
}

// ConvertSIDtoStr renders S-{revision}-{authority}-{sub1}-...-{subN}. The
// authority is decimal when its top two bytes are zero and 0x followed by
// 12 hex digits otherwise.
func ConvertSIDtoStr(sid *SID) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "S-%d-", sid.Revision)
	a := sid.IdentifierAuthority
	if a[0] == 0 && a[1] == 0 {
		sb.WriteString(strconv.FormatUint(uint64(binary.BigEndian.Uint32(a[2:])), 10))
	} else {
		fmt.Fprintf(&sb, "0x%012X", sid.Authority())
	}
	for _, sub := range sid.SubAuthorities {
		sb.WriteByte('-')
		sb.WriteString(strconv.FormatUint(uint64(sub), 10))
	}
	return sb.String()
}

// ConvertStrToSID parses the string form produced by ConvertSIDtoStr. The
// authority may be decimal or 0x prefixed hex.
func ConvertStrToSID(s string) (sid *SID, err error) {
	parts := strings.Split(s, "-")
	if len(parts) < 3 || parts[0] != "S" {
		err = fmt.Errorf("%w: %q does not have the form S-R-I-S...", ErrMalformedSID, s)
		log.Errorln(err)
		return nil, err
	}
	if len(parts)-3 > maxSubAuthorities {
		err = fmt.Errorf("%w: %q has %d sub authorities, at most %d allowed", ErrMalformedSID, s, len(parts)-3, maxSubAuthorities)
		log.Errorln(err)
		return nil, err
	}
	sid = &SID{}
	rev, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		err = fmt.Errorf("%w: revision %q: %w", ErrMalformedSID, parts[1], err)
		log.Errorln(err)
		return nil, err
	}
	sid.Revision = byte(rev)

	var auth uint64
	if hexAuth, ok := strings.CutPrefix(strings.ToLower(parts[2]), "0x"); ok {
		auth, err = strconv.ParseUint(hexAuth, 16, 48)
	} else {
		auth, err = strconv.ParseUint(parts[2], 10, 48)
	}
	if err != nil {
		err = fmt.Errorf("%w: authority %q: %w", ErrMalformedSID, parts[2], err)
		log.Errorln(err)
		return nil, err
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], auth)
	copy(sid.IdentifierAuthority[:], buf[2:])

	sid.SubAuthorities = make([]uint32, 0, len(parts)-3)
	for _, part := range parts[3:] {
		sub, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			err = fmt.Errorf("%w: sub authority %q: %w", ErrMalformedSID, part, err)
			log.Errorln(err)
			return nil, err
		}
		sid.SubAuthorities = append(sid.SubAuthorities, uint32(sub))
	}
	return sid, nil
}

// ParseAccessMask names the generic and standard rights set in mask.
// Object specific rights are summarized as one hex value.
func ParseAccessMask(mask uint32) (perms []string) {
	for _, item := range accessMaskBits {
		if mask&item.bit != 0 {
			perms = append(perms, item.name)
		}
	}
	if specific := mask & 0xffff; specific != 0 {
		perms = append(perms, fmt.Sprintf("SPECIFIC_RIGHTS(0x%04x)", specific))
	}
	return
}

func ParseAceFlags(flags byte) string {
	var names []string
	for _, item := range aceFlagBits {
		if flags&item.flag != 0 {
			names = append(names, item.name)
		}
	}
	return strings.Join(names, "|")
}

func (a ACE) Permissions() AcePermissions {
	return AcePermissions{
		Sid:            a.Sid.String(),
		Permissions:    ParseAccessMask(a.Mask),
		AceType:        AceTypeMap[a.Header.Type],
		AceFlags:       a.Header.Flags,
		AceFlagStrings: ParseAceFlags(a.Header.Flags),
	}
}

func (self *ACL) Permissions() AclPermissions {
	acePerms := make([]AcePermissions, 0, len(self.Aces))
	for _, item := range self.Aces {
		acePerms = append(acePerms, item.Permissions())
	}
	return AclPermissions{
		NumAce:  uint32(len(self.Aces)),
		Entries: acePerms,
	}
}
