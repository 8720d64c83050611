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

package raftwire

import (
	"bytes"
	"testing"

	"github.com/trigrass2/robot-software/internal/raft"
	"github.com/trigrass2/robot-software/internal/raftcompress"
)

func TestRoundTripUncompressed(t *testing.T) {
	codec, err := NewCodec[string](raftcompress.Config{Algorithm: raftcompress.AlgorithmNone})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	msg := raft.Message[string]{
		Type:         raft.MsgAppendEntriesRequest,
		Term:         5,
		FromID:       1,
		LeaderCommit: 3,
		Entries: []raft.LogEntry[string]{
			{Operation: "set x=1", Term: 5, Index: 4},
		},
		Count: 1,
	}

	var buf bytes.Buffer
	if err := codec.WriteMessage(&buf, msg); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	got, err := codec.ReadMessage(&buf)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}

	if got.Type != msg.Type || got.Term != msg.Term || got.FromID != msg.FromID {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, msg)
	}
	if len(got.Entries) != 1 || got.Entries[0].Operation != "set x=1" {
		t.Fatalf("entries round trip mismatch: %+v", got.Entries)
	}
}

func TestRoundTripCompressed(t *testing.T) {
	codec, err := NewCodec[string](raftcompress.Config{Algorithm: raftcompress.AlgorithmZstd, MinSize: 1})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	entries := make([]raft.LogEntry[string], 0, 200)
	for i := 0; i < 200; i++ {
		entries = append(entries, raft.LogEntry[string]{Operation: "payload-filler-text", Term: 2, Index: raft.Index(i + 1)})
	}
	msg := raft.Message[string]{Type: raft.MsgAppendEntriesRequest, Entries: entries, Count: len(entries)}

	var buf bytes.Buffer
	if err := codec.WriteMessage(&buf, msg); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	got, err := codec.ReadMessage(&buf)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if len(got.Entries) != len(entries) {
		t.Fatalf("got %d entries, want %d", len(got.Entries), len(entries))
	}
}

func TestReadMessageRejectsBadMagic(t *testing.T) {
	codec, err := NewCodec[string](raftcompress.Config{Algorithm: raftcompress.AlgorithmNone})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	buf := bytes.NewBuffer([]byte{0x00, wireVersion, 0x00, 0x00, 0, 0, 0, 0})
	if _, err := codec.ReadMessage(buf); err != ErrInvalidMagic {
		t.Fatalf("ReadMessage() error = %v, want ErrInvalidMagic", err)
	}
}

func TestReadMessageRejectsOversizedFrame(t *testing.T) {
	codec, err := NewCodec[string](raftcompress.Config{Algorithm: raftcompress.AlgorithmNone})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	buf := &bytes.Buffer{}
	h := header{magic: magicByte, version: wireVersion, length: MaxFrameSize + 1}
	if err := writeHeader(buf, h); err != nil {
		t.Fatalf("writeHeader: %v", err)
	}
	if _, err := codec.ReadMessage(buf); err != ErrFrameTooLarge {
		t.Fatalf("ReadMessage() error = %v, want ErrFrameTooLarge", err)
	}
}
