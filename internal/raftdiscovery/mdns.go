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

/*
Package raftdiscovery advertises and discovers raftnode peers on the
local network segment using mDNS, for clusters that bootstrap without
a fixed, pre-shared peer list.

Advertised nodes register an instance under the
"_raftnode._tcp" service type; the instance name carries the node's
id and the TXT record carries its cluster name, so a node joining
late can distinguish peers belonging to a different cluster
advertising on the same segment.
*/
package raftdiscovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

const serviceType = "_raftnode._tcp"

// DiscoveredPeer is one node found on the network.
type DiscoveredPeer struct {
	NodeID      int
	ClusterName string
	Addr        string
}

// Advertiser keeps a node's mDNS registration alive until Shutdown is
// called.
type Advertiser struct {
	server *mdns.Server
}

// Advertise registers nodeID, listening on host:port, as a member of
// clusterName. The returned Advertiser must be shut down when the
// node stops. A host that is a literal IP is advertised as the
// service address; otherwise (an empty or wildcard host) mDNS falls
// back to the interface addresses it resolves itself.
func Advertise(nodeID int, clusterName, host string, port int) (*Advertiser, error) {
	instance := fmt.Sprintf("raftnode-%d", nodeID)

	info := []string{
		"cluster=" + clusterName,
		"node_id=" + strconv.Itoa(nodeID),
	}

	var ips []net.IP
	if ip := net.ParseIP(host); ip != nil && !ip.IsUnspecified() {
		ips = []net.IP{ip}
	}

	service, err := mdns.NewMDNSService(instance, serviceType, "", "", port, ips, info)
	if err != nil {
		return nil, fmt.Errorf("raftdiscovery: build service record: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("raftdiscovery: start mdns server: %w", err)
	}

	return &Advertiser{server: server}, nil
}

// Shutdown withdraws the node's mDNS registration.
func (a *Advertiser) Shutdown() error {
	return a.server.Shutdown()
}

// Discover browses the network for clusterName members for the given
// timeout and returns every peer found, deduplicated by address.
func Discover(clusterName string, timeout time.Duration) ([]DiscoveredPeer, error) {
	entriesCh := make(chan *mdns.ServiceEntry, 32)
	done := make(chan []DiscoveredPeer, 1)

	go func() {
		seen := make(map[string]bool)
		var peers []DiscoveredPeer
		for entry := range entriesCh {
			peer, ok := parseEntry(entry, clusterName)
			if !ok {
				continue
			}
			if seen[peer.Addr] {
				continue
			}
			seen[peer.Addr] = true
			peers = append(peers, peer)
		}
		done <- peers
	}()

	params := mdns.DefaultParams(serviceType)
	params.Entries = entriesCh
	params.Timeout = timeout

	if err := mdns.Query(params); err != nil {
		close(entriesCh)
		return nil, fmt.Errorf("raftdiscovery: query: %w", err)
	}
	close(entriesCh)

	return <-done, nil
}

func parseEntry(entry *mdns.ServiceEntry, clusterName string) (DiscoveredPeer, bool) {
	var cluster string
	var nodeID int
	for _, field := range entry.InfoFields {
		if v, found := strings.CutPrefix(field, "cluster="); found {
			cluster = v
		}
		if v, found := strings.CutPrefix(field, "node_id="); found {
			nodeID, _ = strconv.Atoi(v)
		}
	}

	if cluster != clusterName {
		return DiscoveredPeer{}, false
	}

	addr := entry.AddrV4
	if addr == nil {
		return DiscoveredPeer{}, false
	}

	return DiscoveredPeer{
		NodeID:      nodeID,
		ClusterName: cluster,
		Addr:        fmt.Sprintf("%s:%d", addr.String(), entry.Port),
	}, true
}
