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
	"fmt"

	"github.com/jfjallid/mstypes"
	"github.com/jfjallid/ndr"
)

// MS-LSAT opnum 45
type LsarGetUserNameReq struct {
	SystemName string                     `ndr:"toppointer,fullpointer,conformant,varying"`
	UserName   *mstypes.PRPCUnicodeString `ndr:"toppointer"` // Top-level ref ptr, so can never be NULL
	DomainName *mstypes.PRPCUnicodeString `ndr:"toppointer,fullpointer"`
}

// MS-LSAT opnum 45
type LsarGetUserNameRes struct {
	UserName   *mstypes.PRPCUnicodeString `ndr:"toppointer"` // Top-level ref ptr, so can never be NULL
	DomainName *mstypes.PRPCUnicodeString `ndr:"toppointer,fullpointer"`
	ReturnCode uint32
}

//NTSTATUS LsarLookupSids2(
//[in] LSAPR_HANDLE PolicyHandle,
//[in] PLSAPR_SID_ENUM_BUFFER SidEnumBuffer,
//[out] PLSAPR_REFERENCED_DOMAIN_LIST* ReferencedDomains,
//[in, out] PLSAPR_TRANSLATED_NAMES_EX TranslatedNames,
//[in] LSAP_LOOKUP_LEVEL LookupLevel,
//[in, out] unsigned long* MappedCount,
//[in] unsigned long LookupOptions,
//[in] unsigned long ClientRevision
//);

// MS-LSAT opnum 57
type LsarLookupSids2Req struct {
	PolicyHandle    []byte
	SidEnumBuffer   LsaprSidEnumBuffer     `ndr:"toppointer"`
	TranslatedNames LsaprTranslatedNamesEx `ndr:"toppointer"`
	LookupLevel     LsapLookupLevel
	MappedCount     uint32 `ndr:"toppointer"`
	LookupOptions   uint32 // Must be 0
	ClientRevision  uint32
}

// MS-LSAT opnum 57
type LsarLookupSids2Res struct {
	ReferencedDomains PlsaprReferencedDomainList `ndr:"toppointer"`
	TranslatedNames   LsaprTranslatedNamesEx     `ndr:"toppointer"`
	MappedCount       uint32                     `ndr:"toppointer"`
	ReturnCode        uint32
}

type LsaprSidInformation struct {
	Sid mstypes.RPCSID `ndr:"pointer"`
}

type LsaprSidEnumBuffer struct {
	Entries uint32
	SidInfo []LsaprSidInformation `ndr:"pointer,conformant"`
}

type LsaprTranslatedNameEx struct {
	Use         SidNameUse
	Name        mstypes.RPCUnicodeString
	DomainIndex int32
	Flags       uint32
}

type LsaprTranslatedNamesEx struct {
	Entries uint32
	Names   []LsaprTranslatedNameEx `ndr:"pointer,conformant"`
}

type LsaprTrustInformation struct {
	Name mstypes.RPCUnicodeString
	Sid  mstypes.RPCSID `ndr:"pointer"`
}

type LsaprReferencedDomainList struct {
	Entries    uint32
	Domains    []LsaprTrustInformation `ndr:"pointer,conformant"`
	MaxEntries uint32                  // This field MUST be ignored. The content is unspecified
}

type PlsaprReferencedDomainList struct {
	LsaprReferencedDomainList `ndr:"pointer"`
}

// Client struct
type DomainTranslation struct {
	Name string
	Sid  string
}

// Client struct
type SidNameTranslation struct {
	Use         SidNameUse
	Name        string
	Sid         string
	DomainIndex int32
	Flags       uint32
}

// Client struct
type SidTranslations struct {
	ReferencedDomains []DomainTranslation
	TranslatedNames   []SidNameTranslation
	ReturnCode        uint32
}

func encode(name string, v any) (b []byte, err error) {
	enc := ndr.NewEncoder(bytes.NewBuffer([]byte{}), false)
	enc.SetEndianness(binary.LittleEndian)
	b, err = enc.Encode(v)
	if err != nil {
		err = fmt.Errorf("error marshaling %s: %v", name, err)
	}
	return
}

func decode(name string, b []byte, v any) (err error) {
	dec := ndr.NewDecoder(bytes.NewReader(b), false)
	err = dec.Decode(v)
	if err != nil {
		err = fmt.Errorf("error unmarshaling %s: %v", name, err)
	}
	return
}

func (self *LsarGetUserNameReq) Marshal() ([]byte, error) {
	return encode("LsarGetUserNameReq", self)
}

func (self *LsarGetUserNameRes) Unmarshal(b []byte) error {
	return decode("LsarGetUserNameRes", b, self)
}

func (self *LsarLookupSids2Req) Marshal() ([]byte, error) {
	return encode("LsarLookupSids2Req", self)
}

func (self *LsarLookupSids2Res) Unmarshal(b []byte) error {
	return decode("LsarLookupSids2Res", b, self)
}
