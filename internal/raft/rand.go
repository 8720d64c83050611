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

import "math/rand"

// RandSource is the process-wide uniform integer source the election
// timer draws from. Tests can seed or replace it to make election
// timing deterministic.
type RandSource interface {
	// Intn returns a uniform random value in [0, n).
	Intn(n int) int
}

// defaultRandSource wraps math/rand's default source.
type defaultRandSource struct{}

func (defaultRandSource) Intn(n int) int {
	return rand.Intn(n)
}

// NewSeededRandSource returns a RandSource seeded deterministically,
// for use in tests that need reproducible election timing.
func NewSeededRandSource(seed int64) RandSource {
	return &seededRandSource{r: rand.New(rand.NewSource(seed))}
}

type seededRandSource struct {
	r *rand.Rand
}

func (s *seededRandSource) Intn(n int) int {
	return s.r.Intn(n)
}
