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
	"testing"
	"time"

	"github.com/trigrass2/robot-software/internal/raft"
	"github.com/trigrass2/robot-software/internal/raftcompress"
)

func TestSendDeliversToServer(t *testing.T) {
	server, err := NewServer[string]("127.0.0.1:0", raftcompress.DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	defer server.Stop()

	sender, err := NewTCPSender[string](server.Addr().String(), raftcompress.DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("NewTCPSender: %v", err)
	}

	want := raft.Message[string]{Type: raft.MsgVoteRequest, Term: 7, FromID: 2, LastLogIndex: 3, LastLogTerm: 2}
	sender.Send(want)

	select {
	case got := <-server.Inbound:
		if got.Type != want.Type || got.Term != want.Term || got.FromID != want.FromID {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message delivery")
	}
}

func TestSendToUnreachableAddressDoesNotPanic(t *testing.T) {
	sender, err := NewTCPSender[string]("127.0.0.1:1", raftcompress.DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("NewTCPSender: %v", err)
	}
	sender.Send(raft.Message[string]{Type: raft.MsgVoteRequest})
	time.Sleep(50 * time.Millisecond)
}
