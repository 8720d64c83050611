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

import "sort"

// Replica holds all mutable consensus state for one node. It is not
// safe for concurrent use: Process, Tick, and Replicate must be
// serialized by the caller. Replica performs no locking and has no
// suspension points of its own.
type Replica[Op any] struct {
	id    NodeID
	peers []*Peer[Op]

	term      Term
	votedFor  NodeID // 0 = none
	voteCount int
	state     NodeState

	heartbeatTimer int
	electionTimer  int
	timing         Timing

	log         *Log[Op]
	commitIndex Index

	sm   StateMachine[Op]
	warn warner
	rng  RandSource
}

// NewReplica constructs a Replica for node id, with peers borrowed for
// the replica's lifetime (not owned), a capacity-bound Log, and the
// user StateMachine committed entries are applied to. Initial role is
// Follower, term 0, commit index 0, with the election timer armed at
// timing.ElectionTimeoutMax so a freshly constructed cluster doesn't
// immediately stampede into an election. A zero-value timing is
// replaced with DefaultTiming.
func NewReplica[Op any](sm StateMachine[Op], id NodeID, peers []*Peer[Op], logCapacity int, timing Timing, logger warner, rng RandSource) *Replica[Op] {
	if logger == nil {
		logger = noopWarner{}
	}
	if rng == nil {
		rng = defaultRandSource{}
	}
	if timing == (Timing{}) {
		timing = DefaultTiming()
	}
	return &Replica[Op]{
		id:             id,
		peers:          peers,
		term:           0,
		votedFor:       0,
		state:          Follower,
		heartbeatTimer: 0,
		electionTimer:  timing.ElectionTimeoutMax,
		timing:         timing,
		log:            NewLog[Op](logCapacity, logger),
		commitIndex:    0,
		sm:             sm,
		warn:           logger,
		rng:            rng,
	}
}

// ID returns the replica's own node id.
func (r *Replica[Op]) ID() NodeID { return r.id }

// State returns the current role.
func (r *Replica[Op]) State() NodeState { return r.state }

// Term returns the current term.
func (r *Replica[Op]) Term() Term { return r.term }

// CommitIndex returns the current commit index.
func (r *Replica[Op]) CommitIndex() Index { return r.commitIndex }

// Log exposes the owned log for inspection (tests, diagnostics). It is
// not safe to mutate directly.
func (r *Replica[Op]) Log() *Log[Op] { return r.log }

func (r *Replica[Op]) findPeer(id NodeID) *Peer[Op] {
	for _, p := range r.peers {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Process handles one inbound message and returns (reply, true) when a
// reply should be sent back to msg.FromID, or (zero-value, false)
// otherwise. err is non-nil only for out-of-protocol conditions
// (unknown message type, unregistered peer id) — protocol rejections
// such as a denied vote or a stale term are encoded in the reply.
func (r *Replica[Op]) Process(msg Message[Op]) (Message[Op], bool, error) {
	switch msg.Type {
	case MsgVoteRequest:
		return r.processVoteRequest(msg), true, nil
	case MsgVoteReply:
		return r.processVoteReply(msg)
	case MsgAppendEntriesRequest:
		return r.processAppendEntriesRequest(msg), true, nil
	case MsgAppendEntriesReply:
		return r.processAppendEntriesReply(msg)
	default:
		return Message[Op]{}, false, errUnknownMessageType(msg.Type)
	}
}

// processVoteRequest evaluates a candidate's request and always
// produces a VoteReply.
func (r *Replica[Op]) processVoteRequest(msg Message[Op]) Message[Op] {
	reply := Message[Op]{
		Type:        MsgVoteReply,
		FromID:      r.id,
		VoteGranted: false,
	}

	validCandidate := msg.Term > r.term &&
		r.log.LastIndex() <= msg.LastLogIndex &&
		r.log.LastTerm() <= msg.LastLogTerm
	sameCandidate := msg.Term == r.term && msg.FromID == r.votedFor

	if validCandidate || sameCandidate {
		reply.VoteGranted = true
		r.term = msg.Term
		r.votedFor = msg.FromID
		r.state = Follower
	}

	// The reply carries msg.Term, not the (possibly now-updated) own
	// term: equal on the grant path, and left as the requester's term
	// on rejection too (see DESIGN.md).
	reply.Term = msg.Term
	return reply
}

// processVoteReply counts votes while campaigning. No duplicate-vote
// guard is applied: a replayed VoteReply from the same peer within an
// election can inflate voteCount (see DESIGN.md).
func (r *Replica[Op]) processVoteReply(msg Message[Op]) (Message[Op], bool, error) {
	if r.state != Candidate {
		return Message[Op]{}, false, nil
	}

	if msg.VoteGranted {
		r.voteCount++
		// Majority including self-vote: total votes are voteCount+1,
		// so the threshold is 2*voteCount >= the count of the *other*
		// peers.
		if 2*r.voteCount >= len(r.peers) {
			r.becomeLeader()
		}
	} else if msg.Term > r.term {
		r.term = msg.Term
		r.state = Follower
		r.votedFor = 0
		r.resetElectionTimer()
	}

	return Message[Op]{}, false, nil
}

// processAppendEntriesRequest merges a leader's entries into the
// local log and advances the commit index, always replying.
func (r *Replica[Op]) processAppendEntriesRequest(msg Message[Op]) Message[Op] {
	r.resetElectionTimer()

	if msg.Term > r.term {
		r.state = Follower
		r.term = msg.Term
	}

	reply := Message[Op]{
		Type:   MsgAppendEntriesReply,
		FromID: r.id,
	}

	if msg.Term < r.term {
		reply.Success = false
		return reply
	}

	if msg.PreviousEntryIndex > 0 && msg.PreviousEntryTerm > 0 {
		if _, found := r.log.FindEntry(msg.PreviousEntryTerm, msg.PreviousEntryIndex); !found {
			reply.Success = false
			return reply
		}
	}

	count := msg.Count
	if count > len(msg.Entries) {
		count = len(msg.Entries)
	}
	r.log.Merge(msg.Entries[:count])

	if msg.LeaderCommit > r.commitIndex {
		newCommit := msg.LeaderCommit
		if r.log.LastIndex() < newCommit {
			newCommit = r.log.LastIndex()
		}
		r.commitLogEntries(r.commitIndex, newCommit)
		r.commitIndex = newCommit
	}

	reply.Success = true
	reply.LastIndex = r.log.LastIndex()
	return reply
}

// processAppendEntriesReply updates the peer's replication state and
// commits any entry now safely held by a majority.
func (r *Replica[Op]) processAppendEntriesReply(msg Message[Op]) (Message[Op], bool, error) {
	peer := r.findPeer(msg.FromID)
	if peer == nil {
		return Message[Op]{}, false, errPeerNotFound(msg.FromID)
	}

	if msg.Success {
		peer.MatchIndex = msg.LastIndex
		peer.NextIndex = msg.LastIndex + 1

		newCommit := r.findSafeIndex()
		r.commitLogEntries(r.commitIndex, newCommit)
		r.commitIndex = newCommit
	} else {
		// Monotone back-off; may go non-positive. No floor is applied
		// here — callers that want the canonical clamp at 1 must do
		// it themselves (see DESIGN.md).
		peer.NextIndex--
	}

	return Message[Op]{}, false, nil
}

// Tick advances time by one unit. Leaders run the heartbeat timer;
// everyone else runs the election timer.
func (r *Replica[Op]) Tick() {
	if r.state == Leader {
		r.tickHeartbeat()
	} else {
		r.tickElection()
	}
}

func (r *Replica[Op]) tickHeartbeat() {
	if r.heartbeatTimer > 0 {
		r.heartbeatTimer--
		return
	}

	for _, peer := range r.peers {
		msg := Message[Op]{
			Type:         MsgAppendEntriesRequest,
			FromID:       r.id,
			Term:         r.term,
			LeaderCommit: r.commitIndex,
		}

		nextIndex := peer.NextIndex
		for j := 0; j < r.log.Size(); j++ {
			entry := r.log.At(j)
			if entry.Index >= nextIndex {
				for k := j; k < r.log.Size(); k++ {
					msg.Entries = append(msg.Entries, r.log.At(k))
					msg.Count++
				}
				break
			}
			msg.PreviousEntryTerm = entry.Term
			msg.PreviousEntryIndex = entry.Index
		}

		peer.Sender.Send(msg)
	}

	r.heartbeatTimer = r.timing.HeartbeatPeriod - 1
}

func (r *Replica[Op]) tickElection() {
	if r.electionTimer > 0 {
		r.electionTimer--
		return
	}

	r.StartElection()
	r.resetElectionTimer()
}

func (r *Replica[Op]) resetElectionTimer() {
	span := r.timing.ElectionTimeoutMax - r.timing.ElectionTimeoutMin
	r.electionTimer = r.timing.ElectionTimeoutMin + r.rng.Intn(span)
}

// StartElection transitions to Candidate, increments the term, votes
// for self, and broadcasts a VoteRequest to every peer. A no-op if
// already Leader.
func (r *Replica[Op]) StartElection() {
	if r.state == Leader {
		return
	}

	r.state = Candidate
	r.term++
	r.voteCount = 0
	r.votedFor = r.id

	msg := Message[Op]{
		Type:         MsgVoteRequest,
		Term:         r.term,
		FromID:       r.id,
		LastLogIndex: r.log.LastIndex(),
		LastLogTerm:  r.log.LastTerm(),
	}

	for _, peer := range r.peers {
		peer.Sender.Send(msg)
	}
}

// becomeLeader transitions to Leader and initializes per-peer
// replication state. NextIndex is set to LastIndex() without the
// canonical +1: a fresh leader resends its own last entry once before
// the AppendEntries reply path corrects it (see DESIGN.md).
func (r *Replica[Op]) becomeLeader() {
	r.state = Leader
	for _, peer := range r.peers {
		peer.NextIndex = r.log.LastIndex()
		peer.MatchIndex = 0
	}
}

// BecomeLeader is exported for testing and bootstrap.
func (r *Replica[Op]) BecomeLeader() {
	r.becomeLeader()
}

// Replicate appends a new entry for operation at the current term and
// the next log index. No leader check is performed: callers are
// responsible for only replicating on the leader.
// TODO: forward to the current leader instead when called on a
// follower.
func (r *Replica[Op]) Replicate(operation Op) {
	r.log.Append(LogEntry[Op]{
		Operation: operation,
		Term:      r.term,
		Index:     r.log.LastIndex() + 1,
	})
}

// findSafeIndex returns the highest index N such that a majority of
// peers have MatchIndex >= N and some log entry exists with index N
// and the current term. The current-term check keeps a leader from
// committing a prior-term entry by replica count alone (Raft paper
// §§5.3-5.4). It sorts the peer slice in place by MatchIndex
// descending, an observable side effect.
func (r *Replica[Op]) findSafeIndex() Index {
	sort.Slice(r.peers, func(i, j int) bool {
		return r.peers[i].MatchIndex > r.peers[j].MatchIndex
	})

	median := len(r.peers)/2 - 1
	if median < 0 {
		median = 0
	}
	n := r.peers[median].MatchIndex

	for i := 0; i < r.log.Size(); i++ {
		e := r.log.At(i)
		if e.Index == n && e.Term == r.term {
			return n
		}
	}

	return r.commitIndex
}

// commitLogEntries applies every entry whose index lies in
// (old, new] to the state machine, in index order, skipping entries
// already committed.
func (r *Replica[Op]) commitLogEntries(old, newIndex Index) {
	i := 0
	for ; i < r.log.Size() && r.log.At(i).Index <= old; i++ {
	}

	commit := old
	for ; commit < newIndex && i < r.log.Size(); commit, i = commit+1, i+1 {
		r.sm.Apply(r.log.At(i).Operation)
	}
}
