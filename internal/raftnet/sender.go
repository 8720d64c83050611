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

package raftnet

import (
	"crypto/tls"
	"net"
	"time"

	"github.com/trigrass2/robot-software/internal/raft"
	"github.com/trigrass2/robot-software/internal/raftcompress"
	"github.com/trigrass2/robot-software/internal/raftwire"
)

// DialTimeout bounds how long a TCPSender waits to establish a
// connection before giving up on that send.
const DialTimeout = 500 * time.Millisecond

// TCPSender implements raft.Sender[Op] by dialing addr fresh for
// every message and writing one framed message, mirroring the
// source's one-shot-connection-per-RPC style rather than a
// persistent connection pool. Send never blocks the caller: the dial
// and write happen on a detached goroutine, matching the protocol's
// tolerance for arbitrary loss of sent messages.
type TCPSender[Op any] struct {
	addr      string
	codec     *raftwire.Codec[Op]
	tlsConfig *tls.Config
	logger    warner
}

type warner interface {
	Warnf(format string, args ...interface{})
}

type noopWarner struct{}

func (noopWarner) Warnf(string, ...interface{}) {}

// NewTCPSender builds a sender that delivers to addr using the given
// compression configuration. A nil tlsConfig sends in plaintext.
func NewTCPSender[Op any](addr string, compress raftcompress.Config, tlsConfig *tls.Config, logger warner) (*TCPSender[Op], error) {
	codec, err := raftwire.NewCodec[Op](compress)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = noopWarner{}
	}
	return &TCPSender[Op]{addr: addr, codec: codec, tlsConfig: tlsConfig, logger: logger}, nil
}

// Send implements raft.Sender[Op].
func (s *TCPSender[Op]) Send(msg raft.Message[Op]) {
	go s.sendSync(msg)
}

func (s *TCPSender[Op]) sendSync(msg raft.Message[Op]) {
	conn, err := net.DialTimeout("tcp", s.addr, DialTimeout)
	if err != nil {
		s.logger.Warnf("raftnet: dial %s: %v", s.addr, err)
		return
	}
	defer conn.Close()

	if s.tlsConfig != nil {
		tlsConn := tls.Client(conn, s.tlsConfig)
		tlsConn.SetDeadline(time.Now().Add(2 * time.Second))
		if err := tlsConn.Handshake(); err != nil {
			s.logger.Warnf("raftnet: tls handshake with %s: %v", s.addr, err)
			return
		}
		conn = tlsConn
	}

	conn.SetDeadline(time.Now().Add(2 * time.Second))
	if err := s.codec.WriteMessage(conn, msg); err != nil {
		s.logger.Warnf("raftnet: write to %s: %v", s.addr, err)
	}
}
