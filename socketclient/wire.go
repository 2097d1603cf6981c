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

package socketclient

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	"github.com/mrtnetwork/net-sdk/netstream"
)

// readResult is what one wire.readMessage call produced: either a message, graceful closure
// (done), or a transport error.
type readResult struct {
	data []byte
	done bool
	err  error
}

// wire is the byte-level transport a Client drives; rawWire and wsWire adapt netstream.Stream
// and *websocket.Conn respectively to the same shape, so Client's connect/send/read loop does
// not need to know which protocol is underneath.
type wire interface {
	readMessage() readResult
	writeMessage(data []byte) error
	closeGraceful() error
}

// rawWire reads fixed-size chunks off a plain (or TLS) byte stream, exactly like a raw TCP
// socket with no message framing of its own.
type rawWire struct {
	stream netstream.Stream
}

const rawReadChunk = 4096

func (w rawWire) readMessage() readResult {
	buf := make([]byte, rawReadChunk)
	n, err := w.stream.Read(buf)

	if n > 0 {
		return readResult{data: append([]byte(nil), buf[:n]...)}
	}

	if err == nil {
		return readResult{}
	}

	if errors.Is(err, io.EOF) || isResetOrBrokenPipe(err) {
		return readResult{done: true}
	}

	return readResult{err: err}
}

func (w rawWire) writeMessage(data []byte) error {
	_, err := w.stream.Write(data)
	return err
}

func (w rawWire) closeGraceful() error {
	return w.stream.Close()
}

// wsWire speaks the WebSocket framing over an already-established (and, where configured,
// already TLS-wrapped) stream; the handshake itself runs inside dialWebSocket.
type wsWire struct {
	conn *websocket.Conn
}

func (w wsWire) readMessage() readResult {
	msgType, data, err := w.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
			errors.Is(err, io.EOF) {
			return readResult{done: true}
		}
		return readResult{err: err}
	}

	if msgType != websocket.BinaryMessage && msgType != websocket.TextMessage {
		return readResult{}
	}

	return readResult{data: data}
}

func (w wsWire) writeMessage(data []byte) error {
	return w.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (w wsWire) closeGraceful() error {
	_ = w.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return w.conn.Close()
}

// dialWebSocket performs the client handshake over an already-dialed stream, mirroring
// websocket.Dialer but without letting the websocket package manage TLS or Tor itself.
func dialWebSocket(stream netstream.Stream, rawURL string, header map[string][]string) (*websocket.Conn, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.NewClient(stream, u, http.Header(header), 0, 0)
	if err != nil {
		return nil, err
	}

	return conn, nil
}
