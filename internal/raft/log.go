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

// LogEntry is a single operation tagged with the term and index it was
// appended under. It is immutable after append until truncated away by
// KeepUntil or Merge.
type LogEntry[Op any] struct {
	Operation Op
	Term      Term
	Index     Index
}

// warner receives a message when a capacity-exhaustion event occurs.
// It is satisfied by *logging.Logger; kept as a minimal interface here
// so internal/raft has no dependency on internal/logging's concrete
// type.
type warner interface {
	Warnf(format string, args ...interface{})
}

// noopWarner discards warnings; used when a Log is constructed without
// a logger.
type noopWarner struct{}

func (noopWarner) Warnf(string, ...interface{}) {}

// Log is a fixed-capacity, ordered sequence of LogEntry values.
// Entries are stored with strictly increasing Index. It never grows
// past its construction-time capacity: an Append past capacity drops
// the entry and emits a warning, so the log never allocates beyond
// its fixed storage.
type Log[Op any] struct {
	entries  []LogEntry[Op]
	capacity int
	warn     warner
}

// NewLog constructs an empty Log with the given fixed capacity. A nil
// logger is replaced with a no-op warner.
func NewLog[Op any](capacity int, logger warner) *Log[Op] {
	if logger == nil {
		logger = noopWarner{}
	}
	return &Log[Op]{
		entries:  make([]LogEntry[Op], 0, capacity),
		capacity: capacity,
		warn:     logger,
	}
}

// Size returns the number of entries currently stored.
func (l *Log[Op]) Size() int {
	return len(l.entries)
}

// Capacity returns the construction-time capacity.
func (l *Log[Op]) Capacity() int {
	return l.capacity
}

// Append adds entry at the end of the log. If the log is already at
// capacity, the entry is dropped and a warning is emitted; the log is
// left unchanged. This is safe because Append is only ever invoked
// from leader-side client replication or follower-side merge, both of
// which can be re-sent by the caller.
func (l *Log[Op]) Append(entry LogEntry[Op]) {
	if len(l.entries) >= l.capacity {
		l.warn.Warnf("log is already full (capacity=%d)", l.capacity)
		return
	}
	l.entries = append(l.entries, entry)
}

// At returns the entry stored at storage position i (not log Index).
func (l *Log[Op]) At(i int) LogEntry[Op] {
	return l.entries[i]
}

// LastIndex returns the Index of the last stored entry, or 0 if the
// log is empty.
func (l *Log[Op]) LastIndex() Index {
	if len(l.entries) == 0 {
		return 0
	}
	return l.entries[len(l.entries)-1].Index
}

// LastTerm returns the Term of the last stored entry, or 0 if the log
// is empty.
func (l *Log[Op]) LastTerm() Term {
	if len(l.entries) == 0 {
		return 0
	}
	return l.entries[len(l.entries)-1].Term
}

// FindEntry returns the entry matching both term and index, and
// whether it was found. It is a linear scan.
func (l *Log[Op]) FindEntry(term Term, index Index) (LogEntry[Op], bool) {
	for _, e := range l.entries {
		if e.Index == index && e.Term == term {
			return e, true
		}
	}
	return LogEntry[Op]{}, false
}

// KeepUntil truncates the log so that exactly the first n entries
// remain, discarding any suffix. Used for conflict resolution.
func (l *Log[Op]) KeepUntil(n int) {
	l.entries = l.entries[:n]
}

// removeConflictingEntries discards a conflicting suffix: for each
// new entry, if any stored entry shares its Index but has a strictly
// smaller Term, the log is truncated to keep only the entries before
// the conflict and scanning stops. Truncation triggers only on a
// strictly smaller stored term, not on any term mismatch as canonical
// Raft would; see DESIGN.md.
func (l *Log[Op]) removeConflictingEntries(newEntries []LogEntry[Op]) {
	for i := 0; i < l.Size(); i++ {
		for _, ne := range newEntries {
			if ne.Index == l.entries[i].Index && l.entries[i].Term < ne.Term {
				l.KeepUntil(i)
				return
			}
		}
	}
}

// Merge reconciles newEntries into the log: it first discards any
// conflicting suffix (removeConflictingEntries), then appends every
// newEntries[j] whose Index is beyond the (possibly now-truncated)
// LastIndex, in the order received.
func (l *Log[Op]) Merge(newEntries []LogEntry[Op]) {
	l.removeConflictingEntries(newEntries)

	for _, e := range newEntries {
		if e.Index > l.LastIndex() {
			l.Append(e)
		}
	}
}
