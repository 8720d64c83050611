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

package raft

// MessageType tags which of the four RPC payloads a Message carries.
type MessageType byte

const (
	MsgVoteRequest MessageType = iota
	MsgVoteReply
	MsgAppendEntriesRequest
	MsgAppendEntriesReply
)

func (t MessageType) String() string {
	switch t {
	case MsgVoteRequest:
		return "VoteRequest"
	case MsgVoteReply:
		return "VoteReply"
	case MsgAppendEntriesRequest:
		return "AppendEntriesRequest"
	case MsgAppendEntriesReply:
		return "AppendEntriesReply"
	default:
		return "Unknown"
	}
}

// Message is a value type carrying exactly one of the four Raft RPC
// payloads, selected by Type. A freshly constructed Message (the zero
// value) has Type == MsgVoteRequest and every other field zeroed, so
// unused payload fields are deterministic without explicit clearing.
//
// Only the fields relevant to Type are meaningful; the rest carry
// their zero value. Of Entries, only the first Count are meaningful.
type Message[Op any] struct {
	Type   MessageType
	Term   Term
	FromID NodeID

	// VoteRequest
	LastLogIndex Index
	LastLogTerm  Term

	// VoteReply
	VoteGranted bool

	// AppendEntriesRequest
	Count              int
	LeaderCommit       Index
	PreviousEntryTerm  Term
	PreviousEntryIndex Index
	Entries            []LogEntry[Op]

	// AppendEntriesReply
	Success   bool
	LastIndex Index
}
