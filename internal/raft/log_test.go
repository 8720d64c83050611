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

import "testing"

type countingWarner struct{ n int }

func (w *countingWarner) Warnf(string, ...interface{}) { w.n++ }

func TestLogAppendRespectsCapacity(t *testing.T) {
	warn := &countingWarner{}
	log := NewLog[string](3, warn)

	for i := 1; i <= 3; i++ {
		log.Append(LogEntry[string]{Operation: "op", Term: 1, Index: Index(i)})
	}
	if log.Size() != 3 {
		t.Fatalf("expected size 3, got %d", log.Size())
	}

	// Fourth append on a full log is dropped without corrupting state.
	log.Append(LogEntry[string]{Operation: "dropped", Term: 1, Index: 4})
	if log.Size() != 3 {
		t.Fatalf("expected size to remain 3 after overflow, got %d", log.Size())
	}
	if warn.n != 1 {
		t.Fatalf("expected exactly one warning, got %d", warn.n)
	}
}

func TestLogLastIndexAndTermEmpty(t *testing.T) {
	log := NewLog[string](4, nil)
	if log.LastIndex() != 0 {
		t.Errorf("expected LastIndex 0 on empty log, got %d", log.LastIndex())
	}
	if log.LastTerm() != 0 {
		t.Errorf("expected LastTerm 0 on empty log, got %d", log.LastTerm())
	}
}

func TestLogFindEntry(t *testing.T) {
	log := NewLog[string](4, nil)
	log.Append(LogEntry[string]{Operation: "a", Term: 1, Index: 1})
	log.Append(LogEntry[string]{Operation: "b", Term: 2, Index: 2})

	if _, ok := log.FindEntry(1, 1); !ok {
		t.Error("expected to find entry at term=1,index=1")
	}
	if _, ok := log.FindEntry(1, 2); ok {
		t.Error("did not expect a match for term=1,index=2")
	}
}

func TestLogMergeTruncatesOnStrictlySmallerTerm(t *testing.T) {
	log := NewLog[string](5, nil)
	log.Append(LogEntry[string]{Operation: "a", Term: 1, Index: 1})
	log.Append(LogEntry[string]{Operation: "b", Term: 1, Index: 2})
	log.Append(LogEntry[string]{Operation: "c", Term: 1, Index: 3})

	// Incoming entry at index=2 has a higher term than the stored
	// entry: the stored suffix from index 2 onward is discarded and
	// replaced.
	log.Merge([]LogEntry[string]{
		{Operation: "b2", Term: 2, Index: 2},
		{Operation: "c2", Term: 2, Index: 3},
	})

	if log.Size() != 3 {
		t.Fatalf("expected size 3 after merge, got %d", log.Size())
	}
	if log.At(1).Operation != "b2" || log.At(1).Term != 2 {
		t.Errorf("expected entry 1 replaced with b2/term 2, got %+v", log.At(1))
	}
}

func TestLogMergeDoesNotTruncateOnEqualOrGreaterStoredTerm(t *testing.T) {
	log := NewLog[string](5, nil)
	log.Append(LogEntry[string]{Operation: "a", Term: 2, Index: 1})

	// Incoming entry shares index 1 but with a term not strictly
	// greater than the stored term: no truncation happens. Canonical
	// Raft would truncate on any mismatch; this log only truncates
	// when the stored term is strictly smaller (see DESIGN.md).
	log.Merge([]LogEntry[string]{
		{Operation: "a-conflict", Term: 1, Index: 1},
	})

	if log.Size() != 1 {
		t.Fatalf("expected size 1, got %d", log.Size())
	}
	if log.At(0).Operation != "a" {
		t.Errorf("expected original entry preserved, got %+v", log.At(0))
	}
}

func TestLogMergeAppendsNewEntriesBeyondLastIndex(t *testing.T) {
	log := NewLog[string](5, nil)
	log.Append(LogEntry[string]{Operation: "a", Term: 1, Index: 1})

	log.Merge([]LogEntry[string]{
		{Operation: "a", Term: 1, Index: 1},
		{Operation: "b", Term: 1, Index: 2},
	})

	if log.Size() != 2 {
		t.Fatalf("expected size 2, got %d", log.Size())
	}
	if log.LastIndex() != 2 {
		t.Errorf("expected last index 2, got %d", log.LastIndex())
	}
}

func TestLogKeepUntil(t *testing.T) {
	log := NewLog[string](5, nil)
	log.Append(LogEntry[string]{Operation: "a", Term: 1, Index: 1})
	log.Append(LogEntry[string]{Operation: "b", Term: 1, Index: 2})
	log.Append(LogEntry[string]{Operation: "c", Term: 1, Index: 3})

	log.KeepUntil(1)

	if log.Size() != 1 {
		t.Fatalf("expected size 1, got %d", log.Size())
	}
	if log.LastIndex() != 1 {
		t.Errorf("expected last index 1, got %d", log.LastIndex())
	}
}
