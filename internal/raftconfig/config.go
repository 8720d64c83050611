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

// Package raftconfig holds the validated configuration for one
// raftnode process: its own identity, its peers, the timing
// parameters handed to the replica, and the transport options for
// raftnet.
package raftconfig

import (
	"fmt"
	"time"

	"github.com/trigrass2/robot-software/internal/raftcompress"
)

// PeerConfig identifies one other cluster member and its network
// address.
type PeerConfig struct {
	ID   int    `json:"id"`
	Addr string `json:"addr"`
}

// Config is the full configuration for a raftnode process.
type Config struct {
	NodeID int          `json:"node_id"`
	Listen string       `json:"listen"`
	Peers  []PeerConfig `json:"peers"`

	// TickInterval is the wall-clock duration of one Tick() call,
	// i.e. the unit HeartbeatPeriod and ElectionTimeoutMin/Max below
	// are counted in.
	TickInterval time.Duration `json:"tick_interval"`

	// HeartbeatPeriod, ElectionTimeoutMin, and ElectionTimeoutMax are
	// the tick-counted tuning parameters handed to raft.NewReplica as
	// a raft.Timing. They default to 10, 100, and 500 ticks and are
	// runtime-configurable per process.
	HeartbeatPeriod    int `json:"heartbeat_period"`
	ElectionTimeoutMin int `json:"election_timeout_min"`
	ElectionTimeoutMax int `json:"election_timeout_max"`

	LogCapacity int `json:"log_capacity"`

	Compression     raftcompress.Algorithm `json:"compression"`
	MinCompressSize int                    `json:"min_compress_size"`

	TLSEnabled  bool   `json:"tls_enabled"`
	TLSCertPath string `json:"tls_cert_path"`
	TLSKeyPath  string `json:"tls_key_path"`

	DiscoveryEnabled bool   `json:"discovery_enabled"`
	ClusterName      string `json:"cluster_name"`

	LogLevel string `json:"log_level"`
	JSONLogs bool   `json:"json_logs"`
}

// Default returns a Config with sensible single-node-friendly
// defaults; callers still must set NodeID, Listen, and Peers.
func Default() Config {
	return Config{
		TickInterval:       10 * time.Millisecond,
		HeartbeatPeriod:    10,
		ElectionTimeoutMin: 100,
		ElectionTimeoutMax: 500,
		LogCapacity:        1024,
		Compression:        raftcompress.AlgorithmNone,
		MinCompressSize:    256,
		ClusterName:        "raftnode",
		LogLevel:           "info",
	}
}

// Validate checks the configuration for internal consistency,
// returning the first problem found.
func (c Config) Validate() error {
	if c.NodeID <= 0 {
		return fmt.Errorf("raftconfig: node_id must be positive, got %d", c.NodeID)
	}
	if c.Listen == "" {
		return fmt.Errorf("raftconfig: listen address is required")
	}
	if c.LogCapacity <= 0 {
		return fmt.Errorf("raftconfig: log_capacity must be positive, got %d", c.LogCapacity)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("raftconfig: tick_interval must be positive, got %s", c.TickInterval)
	}
	if c.HeartbeatPeriod <= 0 {
		return fmt.Errorf("raftconfig: heartbeat_period must be positive, got %d", c.HeartbeatPeriod)
	}
	if c.ElectionTimeoutMin <= 0 {
		return fmt.Errorf("raftconfig: election_timeout_min must be positive, got %d", c.ElectionTimeoutMin)
	}
	if c.ElectionTimeoutMax <= c.ElectionTimeoutMin {
		return fmt.Errorf("raftconfig: election_timeout_max (%d) must be greater than election_timeout_min (%d)", c.ElectionTimeoutMax, c.ElectionTimeoutMin)
	}
	seen := make(map[int]bool, len(c.Peers))
	for _, p := range c.Peers {
		if p.ID == c.NodeID {
			return fmt.Errorf("raftconfig: peer id %d collides with this node's own id", p.ID)
		}
		if p.Addr == "" {
			return fmt.Errorf("raftconfig: peer %d has an empty address", p.ID)
		}
		if seen[p.ID] {
			return fmt.Errorf("raftconfig: duplicate peer id %d", p.ID)
		}
		seen[p.ID] = true
	}
	if c.TLSEnabled && (c.TLSCertPath == "" || c.TLSKeyPath == "") {
		return fmt.Errorf("raftconfig: tls_enabled requires both tls_cert_path and tls_key_path")
	}
	return nil
}
