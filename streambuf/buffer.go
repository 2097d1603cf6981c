/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package streambuf reassembles inbound byte chunks into discrete application messages.
//
// Two modes are supported: Raw, where every chunk is a message, and Json, where the buffer
// accumulates bytes across chunks and, after every append, attempts to decode the
// accumulated bytes as one JSON document; a successful decode emits the buffer as a single
// message and resets it.
//
// Because detection is by successful parse rather than an explicit delimiter, a stream of
// whitespace-separated top-level JSON scalars is ambiguous: the decoder emits as soon as the
// first prefix of the buffer parses, which is not always the boundary a producer intended
// (e.g. "1" then " 2" parses as two messages "1" and "2", but "null null" parses as one
// message "null" followed by a second, unwanted parse attempt on " null"). Producers that
// need unambiguous message boundaries should prefer Raw with explicit length framing.
package streambuf

import (
	"bytes"
	"encoding/json"
	"sync"

	bufrc "github.com/mrtnetwork/net-sdk/ioutils/bufferReadCloser"
	"github.com/mrtnetwork/net-sdk/sdk"
)

// StreamBuffer is a per-transport decoder; Add is called once per inbound chunk and returns
// zero or more fully reassembled messages (zero for Json while a document is incomplete, one
// for Raw always, one for Json exactly when the accumulated buffer just became valid JSON).
type StreamBuffer struct {
	mu       sync.Mutex
	encoding sdk.Encoding
	raw      *bytes.Buffer
	acc      bufrc.Buffer
}

// New returns a StreamBuffer configured for the given encoding.
func New(encoding sdk.Encoding) *StreamBuffer {
	raw := bytes.NewBuffer(make([]byte, 0))
	return &StreamBuffer{
		encoding: encoding,
		raw:      raw,
		acc:      bufrc.NewBuffer(raw, nil),
	}
}

// Add appends one inbound chunk and returns every message the chunk completed. In Json mode
// a single chunk may complete zero, one, or several messages (e.g. a chunk that supplies the
// rest of one document and the entirety of the next); bytes are examined one at a time, in
// the order the original algorithm this package is grounded on does, so a chunk that
// straddles a document boundary never merges two documents into one message.
func (s *StreamBuffer) Add(chunk []byte) [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.encoding == sdk.EncodingRaw {
		out := make([]byte, len(chunk))
		copy(out, chunk)
		return [][]byte{out}
	}

	var msgs [][]byte

	for _, b := range chunk {
		_ = s.acc.WriteByte(b)

		if s.raw.Len() == 0 {
			continue
		}

		var probe interface{}
		if err := json.Unmarshal(s.raw.Bytes(), &probe); err != nil {
			continue
		}

		out := make([]byte, s.raw.Len())
		copy(out, s.raw.Bytes())
		msgs = append(msgs, out)

		_ = s.acc.Close()
		s.raw = bytes.NewBuffer(make([]byte, 0))
		s.acc = bufrc.NewBuffer(s.raw, nil)
	}

	return msgs
}

// TryCurrentBuffer validates buf against the declared encoding in one shot, used for HTTP
// responses where the whole body is available at once rather than arriving chunk by chunk.
// On failure to parse as JSON it demotes to Raw and reports so in the returned encoding.
func TryCurrentBuffer(buf []byte, encoding sdk.Encoding) ([]byte, sdk.Encoding) {
	if encoding != sdk.EncodingJson {
		return buf, sdk.EncodingRaw
	}

	var probe interface{}
	if err := json.Unmarshal(buf, &probe); err != nil {
		return buf, sdk.EncodingRaw
	}

	return buf, sdk.EncodingJson
}
