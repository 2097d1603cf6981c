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

// Package socketclient is the raw-TCP / WebSocket client stack: one Client owns at most one
// lazy connection, a single background reader, and fans every inbound message out to any
// number of subscribers through a broadcaster.
package socketclient

import (
	"sync"

	"github.com/mrtnetwork/net-sdk/certificates"
	liberr "github.com/mrtnetwork/net-sdk/errors"
	"github.com/mrtnetwork/net-sdk/netstream"
	"github.com/mrtnetwork/net-sdk/sdk"
)

// Client is the Socket/WebSocket transport's client stack.
type Client struct {
	mu      sync.Mutex
	cfg     sdk.NetConfig
	tlsBase certificates.TLSConfig
	wire    wire
	bc      *broadcaster
}

// New returns a Client for cfg. No connection is opened until the first Send or Subscribe.
func New(cfg sdk.NetConfig, tlsBase certificates.TLSConfig) *Client {
	return &Client{cfg: cfg, tlsBase: tlsBase, bc: newBroadcaster()}
}

func verifyModeFor(mode sdk.TlsMode) certificates.VerifyMode {
	if mode == sdk.TlsModeDangerous {
		return certificates.VerifyModeDangerous
	}
	return certificates.VerifyModeSafe
}

// connect ensures a wire exists, dialing (and, for WebSocket, handshaking) if necessary. The
// background reader it starts clears c.wire on exit, so the next Send or Subscribe call
// redials rather than writing to a dead connection.
func (c *Client) connect() liberr.Error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.wire != nil {
		return nil
	}

	verify := verifyModeFor(c.cfg.TlsMode)

	stream, dErr := netstream.Dial(c.cfg, c.tlsBase, verify)
	if dErr != nil {
		return ErrorConnect.Error(dErr)
	}

	var w wire
	if c.cfg.Protocol == sdk.ProtocolWebSocket {
		header := make(map[string][]string, len(c.cfg.Http.Headers))
		for _, h := range c.cfg.Http.Headers {
			header[h.Key] = append(header[h.Key], h.Value)
		}

		conn, wsErr := dialWebSocket(stream, c.cfg.Addr.Url, header)
		if wsErr != nil {
			_ = stream.Close()
			return ErrorConnect.Error(wsErr)
		}
		w = wsWire{conn: conn}
	} else {
		w = rawWire{stream: stream}
	}

	c.wire = w
	go c.readLoop(w)

	return nil
}

// readLoop publishes every inbound message to the broadcaster, then exactly one terminal
// event (Done on a clean close, Err on a transport failure), and clears c.wire so the next
// Send reconnects instead of writing to a dead wire.
func (c *Client) readLoop(w wire) {
	for {
		res := w.readMessage()

		if res.err != nil {
			c.bc.publish(Event{Err: ErrorSocket.Error(res.err)})
			break
		}
		if res.done {
			c.bc.publish(Event{Done: true})
			break
		}
		if res.data != nil {
			c.bc.publish(Event{Data: res.data})
		}
	}

	c.mu.Lock()
	if c.wire == w {
		c.wire = nil
	}
	c.mu.Unlock()
}

// Send writes data to the connection, dialing first if none is open.
func (c *Client) Send(data []byte) liberr.Error {
	if err := c.connect(); err != nil {
		return err
	}

	c.mu.Lock()
	w := c.wire
	c.mu.Unlock()

	if w == nil {
		return ErrorSend.Error(nil)
	}

	if err := w.writeMessage(data); err != nil {
		return ErrorSend.Error(err)
	}

	return nil
}

// Subscribe dials first if necessary, then returns a fresh channel of every inbound event
// plus an unsubscribe func. Multiple subscribers may be registered concurrently; each sees
// every event independently.
func (c *Client) Subscribe() (<-chan Event, func(), liberr.Error) {
	if err := c.connect(); err != nil {
		return nil, nil, err
	}

	ch, unsubscribe := c.bc.subscribe()
	return ch, unsubscribe, nil
}

// Close gracefully tears down the live connection, if any. The background reader observes
// the close, publishes a terminal Done event, and clears c.wire on its own.
func (c *Client) Close() {
	c.mu.Lock()
	w := c.wire
	c.mu.Unlock()

	if w != nil {
		_ = w.closeGraceful()
	}
}
