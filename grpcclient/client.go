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

// Package grpcclient is the gRPC client stack: one Client owns a lazy channel and speaks a
// schema-free "raw bytes" codec, since the core has no protobuf definitions for the services
// it relays requests to. Only unary and server-streaming calls are supported.
package grpcclient

import (
	"context"
	"io"
	"net"
	"strings"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/mrtnetwork/net-sdk/certificates"
	liberr "github.com/mrtnetwork/net-sdk/errors"
	"github.com/mrtnetwork/net-sdk/netstream"
	"github.com/mrtnetwork/net-sdk/sdk"
)

// eventBuffer bounds how many undelivered stream events a fan-out goroutine will hold before
// blocking on the consumer; it does not need to match any other component's buffer size.
const eventBuffer = 32

// StreamEvent is one message a Stream's background reader publishes. Exactly one of Data,
// Done or Err is meaningful; Done is the terminal "no more messages" signal and Err is a
// terminal transport failure. The reader goroutine exits after either.
type StreamEvent struct {
	Data []byte
	Done bool
	Err  liberr.Error
}

// StreamHandle is returned by Stream: Events carries every message and the terminal event,
// Cancel aborts the RPC and stops the background reader early.
type StreamHandle struct {
	Events <-chan StreamEvent
	Cancel context.CancelFunc
}

// Client is the gRPC transport's client stack.
type Client struct {
	mu      sync.Mutex
	cfg     sdk.NetConfig
	tlsBase certificates.TLSConfig
	conn    *grpc.ClientConn
}

// New returns a Client for cfg. No channel is created until the first Unary or Stream call.
func New(cfg sdk.NetConfig, tlsBase certificates.TLSConfig) *Client {
	return &Client{cfg: cfg, tlsBase: tlsBase}
}

// Close tears down the lazily created channel, if any.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func verifyModeFor(mode sdk.TlsMode) certificates.VerifyMode {
	if mode == sdk.TlsModeDangerous {
		return certificates.VerifyModeDangerous
	}
	return certificates.VerifyModeSafe
}

// ensureConn returns the lazily created channel, nudging it to (re)connect when its last
// observed state was not Ready. The stream factory (and, inside it, the TLS handshake, if
// any) runs once per dial attempt inside the context dialer below.
func (c *Client) ensureConn() (*grpc.ClientConn, liberr.Error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		switch c.conn.GetState() {
		case connectivity.Shutdown:
			c.conn = nil
		case connectivity.TransientFailure, connectivity.Idle:
			c.conn.Connect()
		}
	}

	if c.conn == nil {
		conn, err := c.dial()
		if err != nil {
			return nil, err
		}
		c.conn = conn
	}

	return c.conn, nil
}

func (c *Client) dial() (*grpc.ClientConn, liberr.Error) {
	verify := verifyModeFor(c.cfg.TlsMode)
	cfg := c.cfg

	dialer := func(ctx context.Context, _ string) (net.Conn, error) {
		stream, err := netstream.Dial(cfg, c.tlsBase, verify)
		if err != nil {
			return nil, err
		}
		return stream, nil
	}

	conn, dErr := grpc.NewClient(
		cfg.Addr.HostPort(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(dialer),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	)
	if dErr != nil {
		return nil, ErrorConnect.Error(dErr)
	}

	return conn, nil
}

// Unary performs one round-trip and returns the raw response bytes.
func (c *Client) Unary(ctx context.Context, methodPath string, payload []byte) ([]byte, liberr.Error) {
	if methodPath == "" {
		return nil, ErrorInvalidRequest.Error(nil)
	}

	conn, err := c.ensureConn()
	if err != nil {
		return nil, err
	}

	in := Bytes(payload)
	var out Bytes

	if cErr := conn.Invoke(ctx, methodPath, &in, &out, grpc.CallContentSubtype(codecName)); cErr != nil {
		return nil, ErrorSend.Error(cErr)
	}

	return []byte(out), nil
}

// Stream opens a server-streaming RPC: the request side sends payload once then closes; a
// background goroutine publishes every response message, then a terminal Done or Err event,
// to the returned handle's Events channel.
func (c *Client) Stream(ctx context.Context, methodPath string, payload []byte) (*StreamHandle, liberr.Error) {
	if methodPath == "" {
		return nil, ErrorInvalidRequest.Error(nil)
	}

	conn, err := c.ensureConn()
	if err != nil {
		return nil, err
	}

	sctx, cancel := context.WithCancel(ctx)

	desc := &grpc.StreamDesc{StreamName: streamName(methodPath), ServerStreams: true}
	cs, sErr := conn.NewStream(sctx, desc, methodPath, grpc.CallContentSubtype(codecName))
	if sErr != nil {
		cancel()
		return nil, ErrorConnect.Error(sErr)
	}

	in := Bytes(payload)
	if sErr := cs.SendMsg(&in); sErr != nil {
		cancel()
		return nil, ErrorSend.Error(sErr)
	}
	if sErr := cs.CloseSend(); sErr != nil {
		cancel()
		return nil, ErrorSend.Error(sErr)
	}

	events := make(chan StreamEvent, eventBuffer)

	go func() {
		defer close(events)

		for {
			var out Bytes
			rErr := cs.RecvMsg(&out)

			if rErr == io.EOF {
				publish(sctx, events, StreamEvent{Done: true})
				return
			}

			if rErr != nil {
				if st, ok := status.FromError(rErr); ok && st.Code() == codes.OK {
					publish(sctx, events, StreamEvent{Done: true})
					return
				}
				publish(sctx, events, StreamEvent{Err: ErrorStream.Error(rErr)})
				return
			}

			publish(sctx, events, StreamEvent{Data: append([]byte(nil), out...)})
		}
	}()

	return &StreamHandle{Events: events, Cancel: cancel}, nil
}

func publish(ctx context.Context, events chan<- StreamEvent, ev StreamEvent) {
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}

func streamName(methodPath string) string {
	if i := strings.LastIndex(methodPath, "/"); i >= 0 {
		return methodPath[i+1:]
	}
	return methodPath
}
