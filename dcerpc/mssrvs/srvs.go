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

// Package mssrvs implements the share enumeration of the Server Service
// Remote Protocol (MS-SRVS) on top of a dcerpc.ServiceBind. Requests and
// responses are encoded by hand with the ndr cursor.
package mssrvs

import (
	"fmt"
	"strings"

	"github.com/jfjallid/go-msrpc/dcerpc"
	"github.com/jfjallid/golog"
)

var log = golog.Get("github.com/jfjallid/go-msrpc/dcerpc/mssrvs")

const (
	MSRPCSrvSvcPipe = "srvsvc"
)

// MSRPC Server Service (srvsvc) Operations
const (
	SrvSvcOpNetShareEnumAll uint16 = 15
)

const (
	StypeDisktree    uint32 = 0x00000000 // Disk drive
	StypePrintq      uint32 = 0x00000001 // Print queue
	StypeDevice      uint32 = 0x00000002 // Communication device
	StypeIPC         uint32 = 0x00000003 // Interprocess communication (IPC)
	StypeClusterFS   uint32 = 0x02000000 // A cluster share
	StypeClusterSOFS uint32 = 0x04000000 // A Scale-Out cluster share
	StypeClusterDFS  uint32 = 0x08000000 // A DFS share in a cluster
	StypeSpecial     uint32 = 0x80000000 // IPC$, ADMIN$ and the administrative drive shares such as C$
	StypeTemporary   uint32 = 0x40000000 // Not persisted when the file server restarts
)

var ShareTypeMap = map[uint32]string{
	StypeDisktree:    "Disk Drive",
	StypePrintq:      "Print Queue",
	StypeDevice:      "Communication Device",
	StypeIPC:         "IPC",
	StypeClusterFS:   "Cluster Share",
	StypeClusterSOFS: "Scale-Out cluster share",
	StypeClusterDFS:  "DFS Share in cluster",
	StypeSpecial:     "Hidden",
	StypeTemporary:   "Temp",
}

// Checked in order, the cluster flags win over the base type
var shareTypeOrder = []uint32{
	StypeClusterDFS,
	StypeClusterSOFS,
	StypeClusterFS,
	StypeIPC,
	StypeDevice,
	StypePrintq,
}

const ErrorSuccess uint32 = 0

// MS-SRVS Response codes from 2.2.2.10 Common Error Codes
const (
	SRVSErrorFileNotFound      uint32 = 2
	SRVSErrorAccessDenied      uint32 = 5
	SRVSErrorNotSupported      uint32 = 50
	SRVSErrorInvalidParameter  uint32 = 87
	SRVSErrorInvalidLevel      uint32 = 124
	SRVSErrorMoreData          uint32 = 234
	SRVSNERRBufTooSmall        uint32 = 2123
	SRVSNERRNetNameNotFound    uint32 = 2310
	SRVSNERRClientNameNotFound uint32 = 2312
	SRVSNERRInvalidComputer    uint32 = 2351
)

var SRVSResponseCodeMap = map[uint32]error{
	SRVSErrorFileNotFound:      fmt.Errorf("The system cannot find the file specified"),
	SRVSErrorAccessDenied:      fmt.Errorf("The user does not have access to the requested information"),
	SRVSErrorNotSupported:      fmt.Errorf("The request is not supported"),
	SRVSErrorInvalidParameter:  fmt.Errorf("One or more of the specified parameters is invalid"),
	SRVSErrorInvalidLevel:      fmt.Errorf("The value that is specified for the level parameter is invalid"),
	SRVSErrorMoreData:          fmt.Errorf("More entries are available. Specify a large enough buffer to receive all entries"),
	SRVSNERRBufTooSmall:        fmt.Errorf("The client request succeeded. More entries are available. The buffer size that is specified by PreferedMaximumLength was too small to fit even a single entry"),
	SRVSNERRNetNameNotFound:    fmt.Errorf("The share name does not exist"),
	SRVSNERRClientNameNotFound: fmt.Errorf("A session does not exist with the computer name"),
	SRVSNERRInvalidComputer:    fmt.Errorf("The computer name is not valid"),
}

func NewRPCCon(sb *dcerpc.ServiceBind) *RPCCon {
	return &RPCCon{ServiceBind: sb}
}

// Bind binds the srvsvc interface over t.
func Bind(t dcerpc.Transporter) (*RPCCon, error) {
	sb, err := dcerpc.Bind(t, dcerpc.InterfaceSrvSvc)
	if err != nil {
		return nil, err
	}
	return NewRPCCon(sb), nil
}

func NewNetShareEnumAllRequest(serverName string) *NetShareEnumAllRequest {
	return &NetShareEnumAllRequest{
		ServerName: serverName,
		InfoStruct: &NetShareEnum{
			Level:     1,
			ShareInfo: &ShareInfoContainer1{},
		},
		MaxBuffer: 0xffffffff,
	}
}

func (sb *RPCCon) NetShareEnumAll(host string) (res []NetShare, err error) {
	log.Debugln("In NetShareEnumAll")
	netReq := NewNetShareEnumAllRequest(host)
	netBuf, err := netReq.MarshalBinary()
	if err != nil {
		log.Errorln(err)
		return
	}

	buffer, err := sb.MakeRequest(SrvSvcOpNetShareEnumAll, netBuf)
	if err != nil {
		log.Errorln(err)
		return
	}

	var response NetShareEnumAllResponse
	err = response.UnmarshalBinary(buffer)
	if err != nil {
		log.Errorln(err)
		return
	}

	if response.WindowsError != ErrorSuccess {
		responseCode, found := SRVSResponseCodeMap[response.WindowsError]
		if !found {
			err = fmt.Errorf("NetShareEnumAll returned unknown error code: 0x%x", response.WindowsError)
			log.Errorln(err)
			return
		}
		log.Debugf("NetShareEnumAll return error: %v\n", responseCode)
		return nil, responseCode
	}

	ctr := response.InfoStruct.ShareInfo
	if ctr == nil {
		return nil, nil
	}
	res = make([]NetShare, len(ctr.Buffer))
	for i, item := range ctr.Buffer {
		res[i] = NetShare{Name: item.Name, Comment: item.Comment}
		res[i].Type, res[i].TypeId, res[i].Hidden = ParseShareType(item.Type)
	}
	return res, nil
}

// ParseShareType names a share type value such as "IPC_Hidden" and returns
// the base type it was classified as.
func ParseShareType(value uint32) (name string, typeId uint32, hidden bool) {
	typeId = StypeDisktree
	for _, t := range shareTypeOrder {
		if value&t == t {
			typeId = t
			break
		}
	}
	parts := []string{ShareTypeMap[typeId]}
	if value&StypeSpecial == StypeSpecial {
		parts = append(parts, ShareTypeMap[StypeSpecial])
		hidden = true
	} else if value&StypeTemporary == StypeTemporary {
		parts = append(parts, ShareTypeMap[StypeTemporary])
	}
	return strings.Join(parts, "_"), typeId, hidden
}
