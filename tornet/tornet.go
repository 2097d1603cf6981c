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

// Package tornet is the process-wide, initialize-once anonymizing-overlay capability.
//
// There is exactly one Tor client per process, modeled here as a SOCKS5 proxy dialer: the
// conventional way to reach the Tor network from a Go process is through a locally running
// Tor daemon's SOCKS5 port (traditionally 127.0.0.1:9050), so "bootstrap the Tor client" is
// represented as "prepare the cache/state directories and the SOCKS5 dialer", and "connect
// through Tor" is "dial through that SOCKS5 proxy".
package tornet

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"

	"golang.org/x/net/proxy"

	libatm "github.com/mrtnetwork/net-sdk/atomic"
	liberr "github.com/mrtnetwork/net-sdk/errors"
	"github.com/mrtnetwork/net-sdk/logger"
)

// DefaultSocksAddr is the conventional local address of a running Tor daemon's SOCKS5 port.
const DefaultSocksAddr = "127.0.0.1:9050"

type state struct {
	cacheDir string
	stateDir string
	dialer   proxy.Dialer
}

var (
	mu        sync.Mutex
	bootstrap = libatm.NewValue[*state]()
)

// Inited reports whether Init has completed successfully. It never fails.
func Inited() bool {
	return bootstrap.Load() != nil
}

// Init idempotently bootstraps the process-wide Tor singleton: it creates cacheDir and
// stateDir (if missing) and prepares the SOCKS5 dialer used by every subsequent Connect.
// Concurrent callers observe the result of whichever call wins the race; later callers with
// a different configuration do not re-bootstrap.
func Init(cacheDir, stateDir string) liberr.Error {
	mu.Lock()
	defer mu.Unlock()

	if bootstrap.Load() != nil {
		return nil
	}

	if cacheDir == "" || stateDir == "" {
		return ErrorInvalidConfig.Error(nil)
	}

	if err := os.MkdirAll(cacheDir, 0o700); err != nil {
		return ErrorInvalidConfig.Error(err)
	}
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return ErrorInvalidConfig.Error(err)
	}

	dialer, err := proxy.SOCKS5("tcp", DefaultSocksAddr, nil, proxy.Direct)
	if err != nil {
		return ErrorBootstrapFailed.Error(err)
	}

	bootstrap.Store(&state{
		cacheDir: cacheDir,
		stateDir: stateDir,
		dialer:   dialer,
	})

	logger.Default().Info().FieldAdd("cache_dir", cacheDir).FieldAdd("state_dir", stateDir).
		Log("tor singleton bootstrapped")

	return nil
}

// Connect opens a byte stream to host:port routed through the bootstrapped Tor client. It
// fails with ErrorNotInitialized if Init has not completed successfully.
func Connect(host string, port uint16) (net.Conn, liberr.Error) {
	s := bootstrap.Load()
	if s == nil {
		return nil, ErrorNotInitialized.Error(nil)
	}

	addr := net.JoinHostPort(host, strconv.FormatUint(uint64(port), 10))

	conn, err := s.dialer.Dial("tcp", addr)
	if err != nil {
		return nil, ErrorNetError.Error(fmt.Errorf("dial %s via tor: %w", addr, err))
	}

	return conn, nil
}

// reset is a test-only escape hatch that clears the bootstrap state, since Init is otherwise
// permanently idempotent for the lifetime of the process.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	bootstrap.Store(nil)
}
