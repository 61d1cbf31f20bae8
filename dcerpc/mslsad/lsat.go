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
	"fmt"

	"github.com/jfjallid/go-msrpc/msdtyp"
	"github.com/jfjallid/mstypes"
)

// MS-LSAT Operations
const (
	LsarGetUserName uint16 = 45
	LsarLookupSids2 uint16 = 57
)

// MS-LSAT Section 2.2.13 SID_NAME_USE
type SidNameUse uint32

const (
	SidTypeUser SidNameUse = iota + 1
	SidTypeGroup
	SidTypeDomain
	SidTypeAlias
	SidTypeWellKnownGroup
	SidTypeDeletedAccount
	SidTypeInvalid
	SidTypeUnknown
	SidTypeComputer
	SidTypeLabel
)

var SidNameUseMap = map[SidNameUse]string{
	SidTypeUser:           "SidTypeUser",
	SidTypeGroup:          "SidTypeGroup",
	SidTypeDomain:         "SidTypeDomain",
	SidTypeAlias:          "SidTypeAlias",
	SidTypeWellKnownGroup: "SidTypeWellKnownGroup",
	SidTypeDeletedAccount: "SidTypeDeletedAccount",
	SidTypeInvalid:        "SidTypeInvalid",
	SidTypeUnknown:        "SidTypeUnknown",
	SidTypeComputer:       "SidTypeComputer",
	SidTypeLabel:          "SidTypeLabel",
}

func (s SidNameUse) String() string {
	if name, ok := SidNameUseMap[s]; ok {
		return name
	}
	return fmt.Sprintf("SidNameUse(%d)", uint32(s))
}

// MS-LSAT Section 2.2.16 LSAP_LOOKUP_LEVEL
type LsapLookupLevel uint32

const (
	LsapLookupWksta LsapLookupLevel = iota + 1
	LsapLookupPDC
	LsapLookupTDL
	LsapLookupGC
	LsapLookupXForestReferral
	LsapLookupXForestResolve
	LsapLookupRODCReferralToFullDC
)

// LsarLookupSids2 accepts at most this many SIDs per call
const maxLookupSids = 20480

func (sb *RPCCon) LsarGetUserName() (username, domain string, err error) {
	log.Debugln("In LsarGetUserName")

	innerReq := LsarGetUserNameReq{
		SystemName: "",
		UserName:   &mstypes.PRPCUnicodeString{},
		DomainName: &mstypes.PRPCUnicodeString{Data: &mstypes.RPCUnicodeString{}},
	}

	innerBuf, err := innerReq.Marshal()
	if err != nil {
		log.Errorln(err)
		return
	}

	buffer, err := sb.MakeRequest(LsarGetUserName, innerBuf)
	if err != nil {
		return
	}

	if len(buffer) < 12 {
		return "", "", fmt.Errorf("Server response to LsarGetUserName was too small. Expected at atleast 12 bytes")
	}

	resp := LsarGetUserNameRes{
		UserName:   &mstypes.PRPCUnicodeString{Data: &mstypes.RPCUnicodeString{}},
		DomainName: &mstypes.PRPCUnicodeString{Data: &mstypes.RPCUnicodeString{}},
	}
	err = resp.Unmarshal(buffer)
	if err != nil {
		log.Errorln(err)
		return
	}
	if resp.ReturnCode != StatusSuccess {
		err = statusError("LsarGetUserName", resp.ReturnCode)
		log.Errorln(err)
		return
	}
	username = resp.UserName.Data.String()
	domain = resp.DomainName.Data.String()
	return
}

// parseLookupSids validates every SID string before anything is sent.
func parseLookupSids(sids []string) (sidList []LsaprSidInformation, err error) {
	if len(sids) == 0 {
		err = fmt.Errorf("Must specify atleast one SID to lookup")
		return
	}
	if len(sids) > maxLookupSids {
		err = fmt.Errorf("Cannot lookup more than %d SIDs in one request", maxLookupSids)
		return
	}
	for _, sidStr := range sids {
		if _, err = msdtyp.ConvertStrToSID(sidStr); err != nil {
			return nil, err
		}
		var sid *mstypes.RPCSID
		sid, err = mstypes.ConvertStrToSID(sidStr)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", msdtyp.ErrMalformedSID, sidStr, err)
		}
		sidList = append(sidList, LsaprSidInformation{Sid: *sid})
	}
	return
}

// LsarLookupSids2 translates sids to account names. The policy handle is
// opened and closed around the lookup. A partial translation is not an
// error, ReturnCode tells whether every SID was mapped.
func (sb *RPCCon) LsarLookupSids2(level LsapLookupLevel, sids []string) (res SidTranslations, err error) {
	log.Debugln("In LsarLookupSids2")
	sidList, err := parseLookupSids(sids)
	if err != nil {
		log.Errorln(err)
		return
	}

	policyHandle, err := sb.LsarOpenPolicy2("")
	if err != nil {
		log.Errorln(err)
		return
	}
	defer sb.LsarCloseHandle(policyHandle)

	innerReq := LsarLookupSids2Req{
		PolicyHandle: policyHandle,
		SidEnumBuffer: LsaprSidEnumBuffer{
			Entries: uint32(len(sidList)),
			SidInfo: sidList,
		},
		TranslatedNames: LsaprTranslatedNamesEx{},
		LookupLevel:     level,
	}

	innerBuf, err := innerReq.Marshal()
	if err != nil {
		log.Errorln(err)
		return
	}

	buffer, err := sb.MakeRequest(LsarLookupSids2, innerBuf)
	if err != nil {
		return
	}

	if len(buffer) < 36 {
		return SidTranslations{}, fmt.Errorf("Server response to LsarLookupSids2 was too small. Expected at atleast 36 bytes")
	}

	resp := LsarLookupSids2Res{}
	err = resp.Unmarshal(buffer)
	if err != nil {
		log.Errorln(err)
		return
	}

	if resp.MappedCount > 0 {
		for _, item := range resp.ReferencedDomains.Domains {
			res.ReferencedDomains = append(res.ReferencedDomains, DomainTranslation{Name: item.Name.Value, Sid: item.Sid.String()})
		}
		for i, item := range resp.TranslatedNames.Names {
			if i >= len(sids) {
				break
			}
			res.TranslatedNames = append(res.TranslatedNames, SidNameTranslation{Use: item.Use, Name: item.Name.Value, Sid: sids[i], DomainIndex: item.DomainIndex, Flags: item.Flags})
		}
	}
	res.ReturnCode = resp.ReturnCode
	switch resp.ReturnCode {
	case StatusSuccess, StatusSomeNotMapped:
	case StatusTrustedDomainFailure:
		log.Errorln("LsarLookupSids2 error STATUS_TRUSTED_DOMAIN_FAILURE")
	default:
		err = statusError("LsarLookupSids2", resp.ReturnCode)
		log.Errorln(err)
	}
	return
}
