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

	"github.com/google/uuid"
	"github.com/jfjallid/go-msrpc/ndr"
)

// C706 Section 12.6.3.1 p_syntax_id_t
type SyntaxId struct {
	UUID         uuid.UUID
	MajorVersion uint16
	MinorVersion uint16
}

func mustSyntax(s string, major, minor uint16) SyntaxId {
	return SyntaxId{UUID: uuid.MustParse(s), MajorVersion: major, MinorVersion: minor}
}

// ParseSyntaxId builds an interface identifier from its textual uuid.
func ParseSyntaxId(s string, major, minor uint16) (SyntaxId, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		log.Errorln(err)
		return SyntaxId{}, fmt.Errorf("invalid interface uuid %q: %w", s, err)
	}
	return SyntaxId{UUID: u, MajorVersion: major, MinorVersion: minor}, nil
}

var (
	InterfaceWinReg   = mustSyntax("338cd001-2244-31f1-aaaa-900038001003", 1, 0)
	InterfaceSrvSvc   = mustSyntax("4b324fc8-1670-01d3-1278-5a47bf6ee188", 3, 0)
	InterfaceLsaRpc   = mustSyntax("12345778-1234-abcd-ef00-0123456789ab", 0, 0)
	InterfaceSamr     = mustSyntax("12345778-1234-abcd-ef00-0123456789ac", 1, 0)
	InterfaceSvcCtl   = mustSyntax("367abb81-9844-35f1-ad32-98f038001003", 2, 0)
	TransferSyntaxNDR = mustSyntax("8a885d04-1ceb-11c9-9fe8-08002b104860", 2, 0)
)

func (s SyntaxId) String() string {
	return fmt.Sprintf("%s v%d.%d", s.UUID, s.MajorVersion, s.MinorVersion)
}

func (s SyntaxId) marshal(c *ndr.Cursor) {
	c.PutUUID(s.UUID)
	c.PutShort(s.MajorVersion)
	c.PutShort(s.MinorVersion)
}

func readSyntaxId(c *ndr.Cursor) (s SyntaxId, err error) {
	if s.UUID, err = c.GetUUID(); err != nil {
		return
	}
	if s.MajorVersion, err = c.GetShort(); err != nil {
		return
	}
	s.MinorVersion, err = c.GetShort()
	return
}
