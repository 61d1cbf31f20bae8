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

	"github.com/jfjallid/go-msrpc/ndr"
)

// PDU is a decoded protocol data unit.
type PDU interface {
	PDUHeader() *Header
}

// DecodeFunc decodes the body of a PDU. c is positioned right after the
// header and limited to the fragment.
type DecodeFunc func(h *Header, c *ndr.Cursor) (PDU, error)

// Decoders maps the PDU types a caller is prepared to receive to their
// decoders. Each outstanding request supplies its own table.
type Decoders map[PDUType]DecodeFunc

// Dispatch decodes buf as the reply to the call with id callId. It fails
// with ErrCallIdMismatch when the reply belongs to another call and with
// ErrUnsupportedPDUType when decoders has no entry for the received type.
func Dispatch(buf []byte, callId uint32, decoders Decoders) (PDU, error) {
	h, c, err := readFrame(buf)
	if err != nil {
		return nil, err
	}
	if h.CallId != callId {
		err = fmt.Errorf("%w: sent %d and received %d", ErrCallIdMismatch, callId, h.CallId)
		log.Errorln(err)
		return nil, err
	}
	decode, ok := decoders[h.Type]
	if !ok || decode == nil {
		err = fmt.Errorf("%w: %s", ErrUnsupportedPDUType, h.Type)
		log.Errorln(err)
		return nil, err
	}
	pdu, err := decode(h, c)
	if err != nil {
		err = fmt.Errorf("failed to decode %s PDU: %w", h.Type, err)
		log.Errorln(err)
		return nil, err
	}
	return pdu, nil
}
