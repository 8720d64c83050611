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

package raftconfig

import "testing"

func validConfig() Config {
	c := Default()
	c.NodeID = 1
	c.Listen = "127.0.0.1:7001"
	c.Peers = []PeerConfig{
		{ID: 2, Addr: "127.0.0.1:7002"},
		{ID: 3, Addr: "127.0.0.1:7003"},
	}
	return c
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidateRejectsMissingNodeID(t *testing.T) {
	c := validConfig()
	c.NodeID = 0
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for missing node id")
	}
}

func TestValidateRejectsMissingListen(t *testing.T) {
	c := validConfig()
	c.Listen = ""
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for missing listen address")
	}
}

func TestValidateRejectsSelfAsPeer(t *testing.T) {
	c := validConfig()
	c.Peers = append(c.Peers, PeerConfig{ID: c.NodeID, Addr: "127.0.0.1:9"})
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for peer id colliding with own node id")
	}
}

func TestValidateRejectsDuplicatePeerIDs(t *testing.T) {
	c := validConfig()
	c.Peers = append(c.Peers, PeerConfig{ID: 2, Addr: "127.0.0.1:9999"})
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for duplicate peer id")
	}
}

func TestValidateRejectsIncompleteTLS(t *testing.T) {
	c := validConfig()
	c.TLSEnabled = true
	c.TLSCertPath = "cert.pem"
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for tls enabled without a key path")
	}
}

func TestValidateRejectsNonPositiveLogCapacity(t *testing.T) {
	c := validConfig()
	c.LogCapacity = 0
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for non-positive log capacity")
	}
}

func TestValidateRejectsNonPositiveHeartbeatPeriod(t *testing.T) {
	c := validConfig()
	c.HeartbeatPeriod = 0
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for non-positive heartbeat period")
	}
}

func TestValidateRejectsNonPositiveElectionTimeoutMin(t *testing.T) {
	c := validConfig()
	c.ElectionTimeoutMin = 0
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for non-positive election timeout min")
	}
}

func TestValidateRejectsElectionTimeoutMaxNotGreaterThanMin(t *testing.T) {
	c := validConfig()
	c.ElectionTimeoutMax = c.ElectionTimeoutMin
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for election timeout max equal to min")
	}
}
