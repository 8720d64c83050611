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

// Sender is the embedder-supplied transmit capability for a Peer. Send
// must be non-blocking from the replica's point of view: it may
// enqueue or drop, but it must not wait on I/O. The protocol tolerates
// arbitrary loss, reordering, and duplication of sent messages, so a
// Sender is free to do any of those internally.
type Sender[Op any] interface {
	Send(msg Message[Op])
}

// Peer holds per-peer book-keeping the leader needs to replicate
// correctly, plus the Sender capability used to reach it. A Peer's
// Log is never owned here: the Log belongs exclusively to the Replica.
// The peer array itself is owned by the embedder and must outlive the
// Replica referencing it.
type Peer[Op any] struct {
	ID         NodeID
	MatchIndex Index
	NextIndex  Index
	Sender     Sender[Op]
}
