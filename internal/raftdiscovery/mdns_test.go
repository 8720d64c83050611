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

package raftdiscovery

import (
	"net"
	"testing"

	"github.com/hashicorp/mdns"
)

func TestParseEntryFiltersByCluster(t *testing.T) {
	entry := &mdns.ServiceEntry{
		AddrV4:     net.ParseIP("10.0.0.5"),
		Port:       7001,
		InfoFields: []string{"cluster=prod", "node_id=3"},
	}

	if _, ok := parseEntry(entry, "staging"); ok {
		t.Fatal("expected entry from a different cluster to be filtered out")
	}

	peer, ok := parseEntry(entry, "prod")
	if !ok {
		t.Fatal("expected matching cluster entry to parse")
	}
	if peer.NodeID != 3 || peer.Addr != "10.0.0.5:7001" {
		t.Fatalf("unexpected peer: %+v", peer)
	}
}

func TestParseEntryRejectsMissingIPv4(t *testing.T) {
	entry := &mdns.ServiceEntry{
		Port:       7001,
		InfoFields: []string{"cluster=prod", "node_id=3"},
	}
	if _, ok := parseEntry(entry, "prod"); ok {
		t.Fatal("expected entry without an IPv4 address to be rejected")
	}
}
