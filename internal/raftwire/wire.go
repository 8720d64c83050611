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
Package raftwire implements the binary framing used to carry raft
Messages over a net.Conn.

Frame Format:
=============

	+--------+--------+--------+--------+--------+--------+...
	| Magic  | Version| Flags  |  Algo  |    Length (4B)   | Payload...
	+--------+--------+--------+--------+--------+--------+...

	- Magic (1 byte): 0xAF
	- Version (1 byte): wire format version, currently 0x01
	- Flags (1 byte): reserved, currently always 0x00
	- Algo (1 byte): raftcompress.Algorithm the payload is encoded with
	- Length (4 bytes, big-endian): length of Payload
	- Payload: the compressed, JSON-encoded Message[Op]

The header accepts a zero-length payload, but ReadMessage reports such
a frame as a JSON decode error: WriteMessage never produces one, since
every Message encodes to a non-empty JSON object.
*/
package raftwire

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"

	"github.com/trigrass2/robot-software/internal/raft"
	"github.com/trigrass2/robot-software/internal/raftcompress"
)

const (
	magicByte   byte = 0xAF
	wireVersion byte = 0x01
	headerSize       = 8
	// MaxFrameSize bounds a single frame's payload to guard against a
	// corrupt length field turning into an unbounded allocation.
	MaxFrameSize = 64 * 1024 * 1024
)

var (
	ErrInvalidMagic   = errors.New("raftwire: invalid frame magic byte")
	ErrInvalidVersion = errors.New("raftwire: unsupported frame version")
	ErrFrameTooLarge  = errors.New("raftwire: frame exceeds maximum size")
)

type header struct {
	magic   byte
	version byte
	flags   byte
	algo    raftcompress.Algorithm
	length  uint32
}

func writeHeader(w io.Writer, h header) error {
	buf := make([]byte, headerSize)
	buf[0] = h.magic
	buf[1] = h.version
	buf[2] = h.flags
	buf[3] = byte(h.algo)
	binary.BigEndian.PutUint32(buf[4:], h.length)
	_, err := w.Write(buf)
	return err
}

func readHeader(r io.Reader) (header, error) {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return header{}, err
	}
	h := header{
		magic:   buf[0],
		version: buf[1],
		flags:   buf[2],
		algo:    raftcompress.Algorithm(buf[3]),
		length:  binary.BigEndian.Uint32(buf[4:]),
	}
	if h.magic != magicByte {
		return header{}, ErrInvalidMagic
	}
	if h.version != wireVersion {
		return header{}, ErrInvalidVersion
	}
	if h.length > MaxFrameSize {
		return header{}, ErrFrameTooLarge
	}
	return h, nil
}

// Codec encodes and decodes raft Messages to and from framed bytes,
// applying the configured compression to the JSON payload.
type Codec[Op any] struct {
	compress *raftcompress.Codec
}

// NewCodec builds a Codec using the given compression configuration.
func NewCodec[Op any](cfg raftcompress.Config) (*Codec[Op], error) {
	c, err := raftcompress.NewCodec(cfg)
	if err != nil {
		return nil, err
	}
	return &Codec[Op]{compress: c}, nil
}

// WriteMessage frames and writes msg to w.
func (c *Codec[Op]) WriteMessage(w io.Writer, msg raft.Message[Op]) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	algo, encoded, err := c.compress.Compress(payload)
	if err != nil {
		return err
	}

	if err := writeHeader(w, header{
		magic:   magicByte,
		version: wireVersion,
		algo:    algo,
		length:  uint32(len(encoded)),
	}); err != nil {
		return err
	}

	if len(encoded) == 0 {
		return nil
	}
	_, err = w.Write(encoded)
	return err
}

// ReadMessage reads one framed Message from r.
func (c *Codec[Op]) ReadMessage(r io.Reader) (raft.Message[Op], error) {
	var msg raft.Message[Op]

	h, err := readHeader(r)
	if err != nil {
		return msg, err
	}

	encoded := make([]byte, h.length)
	if h.length > 0 {
		if _, err := io.ReadFull(r, encoded); err != nil {
			return msg, err
		}
	}

	payload, err := c.compress.Decompress(h.algo, encoded)
	if err != nil {
		return msg, err
	}

	if err := json.Unmarshal(payload, &msg); err != nil {
		return msg, err
	}
	return msg, nil
}
