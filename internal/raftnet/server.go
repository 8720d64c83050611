/*
 * Copyright (c) 2026 The robot-software Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package raftnet wires the synchronous internal/raft core to a TCP
transport: a Server accepts inbound connections and decodes framed
messages onto a channel the node's inbound loop drains into
Replica.Process, and TCPSender implements raft.Sender by dialing out
per message. Both sides speak the internal/raftwire framing, optionally
compressed (internal/raftcompress) and optionally wrapped in TLS
(self-signed certs via GenerateSelfSignedCert).
*/
package raftnet

import (
	"crypto/tls"
	"net"
	"sync"
	"time"

	"github.com/trigrass2/robot-software/internal/raft"
	"github.com/trigrass2/robot-software/internal/raftcompress"
	"github.com/trigrass2/robot-software/internal/raftwire"
)

// connDeadline bounds how long a Server will wait on an idle
// connection before dropping it; peers reconnect per message, so
// idle connections are unexpected but not fatal.
const connDeadline = 10 * time.Second

// Server accepts framed Raft messages on a TCP listener and delivers
// them to Inbound. It owns no Replica: the embedder drains Inbound
// and calls Replica.Process itself, keeping the core single-threaded.
type Server[Op any] struct {
	listener  net.Listener
	codec     *raftwire.Codec[Op]
	tlsConfig *tls.Config
	logger    warner

	Inbound chan raft.Message[Op]

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewServer builds a Server bound to addr. A nil tlsConfig accepts
// plaintext connections.
func NewServer[Op any](addr string, compress raftcompress.Config, tlsConfig *tls.Config, logger warner) (*Server[Op], error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	codec, err := raftwire.NewCodec[Op](compress)
	if err != nil {
		ln.Close()
		return nil, err
	}

	if logger == nil {
		logger = noopWarner{}
	}

	s := &Server[Op]{
		listener:  ln,
		codec:     codec,
		tlsConfig: tlsConfig,
		logger:    logger,
		Inbound:   make(chan raft.Message[Op], 256),
		stopCh:    make(chan struct{}),
	}

	s.wg.Add(1)
	go s.acceptLoop()

	return s, nil
}

// Addr returns the address the server is actually bound to, useful
// when the configured address used an ephemeral port.
func (s *Server[Op]) Addr() net.Addr {
	return s.listener.Addr()
}

// Stop closes the listener and waits for in-flight connections to
// finish. Inbound is left open; draining it after Stop returns will
// simply starve, which is fine for a shutting-down process.
func (s *Server[Op]) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.listener.Close()
	})
	s.wg.Wait()
}

func (s *Server[Op]) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
				s.logger.Warnf("raftnet: accept: %v", err)
				continue
			}
		}

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server[Op]) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	if s.tlsConfig != nil {
		tlsConn := tls.Server(conn, s.tlsConfig)
		tlsConn.SetDeadline(time.Now().Add(connDeadline))
		if err := tlsConn.Handshake(); err != nil {
			s.logger.Warnf("raftnet: tls handshake from %s: %v", conn.RemoteAddr(), err)
			return
		}
		conn = tlsConn
	}

	conn.SetReadDeadline(time.Now().Add(connDeadline))
	msg, err := s.codec.ReadMessage(conn)
	if err != nil {
		s.logger.Warnf("raftnet: read from %s: %v", conn.RemoteAddr(), err)
		return
	}

	select {
	case s.Inbound <- msg:
	case <-s.stopCh:
	}
}
