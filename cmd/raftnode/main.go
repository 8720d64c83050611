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
raftnode runs one replica of an embedded key/value store replicated
with internal/raft. It owns the process-level concerns the core
itself does not: timer cadence, wire transport, peer discovery, and
an interactive console for issuing replicated commands.

Usage:

	raftnode --config cluster.json
	raftnode --node-id 1 --listen :7001 --peers 2=127.0.0.1:7002,3=127.0.0.1:7003
*/
package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/trigrass2/robot-software/internal/logging"
	"github.com/trigrass2/robot-software/internal/raft"
	"github.com/trigrass2/robot-software/internal/raftcompress"
	"github.com/trigrass2/robot-software/internal/raftconfig"
	"github.com/trigrass2/robot-software/internal/raftdiscovery"
	"github.com/trigrass2/robot-software/internal/raftnet"
	"github.com/trigrass2/robot-software/internal/raftstore"
	"github.com/trigrass2/robot-software/pkg/cli"
)

const version = "1.0.0"

func main() {
	cfg, err := loadConfig()
	if err != nil {
		cli.NewCLIError("Failed to load configuration").WithDetail(err.Error()).Exit()
	}

	logging.SetGlobalLevel(logging.ParseLevel(cfg.LogLevel))
	logging.SetJSONMode(cfg.JSONLogs)
	logger := logging.NewLogger(fmt.Sprintf("node-%d", cfg.NodeID))

	node, err := newNode(cfg, logger)
	if err != nil {
		cli.NewCLIError("Failed to start node").WithDetail(err.Error()).Exit()
	}
	defer node.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return node.runTickLoop(ctx) })
	g.Go(func() error { return node.runInboundLoop(ctx) })
	g.Go(func() error { return node.runConsole(ctx) })

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("node exited with error", "error", err.Error())
		os.Exit(1)
	}
}

func loadConfig() (raftconfig.Config, error) {
	cfg := raftconfig.Default()

	var (
		configPath = flag.String("config", "", "path to a JSON cluster configuration file")
		nodeID     = flag.Int("node-id", 0, "this node's id")
		listen     = flag.String("listen", "", "address to listen on, e.g. :7001")
		peersFlag  = flag.String("peers", "", "comma-separated id=addr pairs, e.g. 2=host:7002,3=host:7003")
		compress   = flag.String("compression", "none", "entry compression: none, lz4, snappy, zstd")
		tlsEnabled = flag.Bool("tls", false, "wrap peer traffic in TLS using a self-signed certificate")
		certPath   = flag.String("cert", "", "TLS certificate path (generated if missing)")
		keyPath    = flag.String("key", "", "TLS private key path (generated if missing)")
		discover   = flag.Bool("discover", false, "advertise and discover peers via mDNS")
		cluster    = flag.String("cluster", "raftnode", "cluster name used for mDNS discovery")
		heartbeat  = flag.Int("heartbeat-period", 0, "leader heartbeat period in ticks (0 = use config/default)")
		electMin   = flag.Int("election-timeout-min", 0, "minimum election timeout in ticks (0 = use config/default)")
		electMax   = flag.Int("election-timeout-max", 0, "maximum election timeout in ticks (0 = use config/default)")
		logLevel   = flag.String("log-level", "info", "debug, info, warn, or error")
		jsonLogs   = flag.Bool("json-logs", false, "emit line-delimited JSON logs")
		showVer    = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVer {
		fmt.Printf("raftnode %s\n", version)
		os.Exit(0)
	}

	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	// Flags override the config file only when explicitly set, so a
	// file-configured value survives a bare flag default.
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if *nodeID != 0 {
		cfg.NodeID = *nodeID
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *peersFlag != "" {
		peers, err := parsePeers(*peersFlag)
		if err != nil {
			return cfg, err
		}
		cfg.Peers = peers
	}

	if set["compression"] {
		algo, err := raftcompress.ParseAlgorithm(*compress)
		if err != nil {
			return cfg, err
		}
		cfg.Compression = algo
	}
	if set["tls"] {
		cfg.TLSEnabled = *tlsEnabled
	}
	if *certPath != "" {
		cfg.TLSCertPath = *certPath
	}
	if *keyPath != "" {
		cfg.TLSKeyPath = *keyPath
	}
	if set["discover"] {
		cfg.DiscoveryEnabled = *discover
	}
	if set["cluster"] {
		cfg.ClusterName = *cluster
	}
	if *heartbeat != 0 {
		cfg.HeartbeatPeriod = *heartbeat
	}
	if *electMin != 0 {
		cfg.ElectionTimeoutMin = *electMin
	}
	if *electMax != 0 {
		cfg.ElectionTimeoutMax = *electMax
	}
	if set["log-level"] {
		cfg.LogLevel = *logLevel
	}
	if set["json-logs"] {
		cfg.JSONLogs = *jsonLogs
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func parsePeers(s string) ([]raftconfig.PeerConfig, error) {
	var peers []raftconfig.PeerConfig
	for _, part := range strings.Split(s, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid peer entry %q, expected id=addr", part)
		}
		id, err := strconv.Atoi(kv[0])
		if err != nil {
			return nil, fmt.Errorf("invalid peer id in %q: %w", part, err)
		}
		peers = append(peers, raftconfig.PeerConfig{ID: id, Addr: kv[1]})
	}
	return peers, nil
}

// node bundles one replica with its transport and state machine.
type node struct {
	cfg     raftconfig.Config
	logger  *logging.Logger
	mu      sync.Mutex
	replica *raft.Replica[raftstore.Command]
	store   *raftstore.KVStore
	server  *raftnet.Server[raftstore.Command]
	senders map[raft.NodeID]raft.Sender[raftstore.Command]

	advertiser *raftdiscovery.Advertiser
	printer    *message.Printer
}

func newNode(cfg raftconfig.Config, logger *logging.Logger) (*node, error) {
	compressCfg := raftcompress.Config{Algorithm: cfg.Compression, MinSize: cfg.MinCompressSize}

	var tlsConfig *tls.Config
	if cfg.TLSEnabled {
		tc, err := setupTLS(cfg)
		if err != nil {
			return nil, err
		}
		tlsConfig = tc
	}

	server, err := raftnet.NewServer[raftstore.Command](cfg.Listen, compressCfg, tlsConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("start listener: %w", err)
	}

	peers := make([]*raft.Peer[raftstore.Command], 0, len(cfg.Peers))
	senders := make(map[raft.NodeID]raft.Sender[raftstore.Command], len(cfg.Peers))
	for _, p := range cfg.Peers {
		sender, err := raftnet.NewTCPSender[raftstore.Command](p.Addr, compressCfg, tlsConfig, logger)
		if err != nil {
			server.Stop()
			return nil, fmt.Errorf("build sender for peer %d: %w", p.ID, err)
		}
		peer := &raft.Peer[raftstore.Command]{ID: raft.NodeID(p.ID), Sender: sender}
		peers = append(peers, peer)
		senders[raft.NodeID(p.ID)] = sender
	}

	store := raftstore.NewKVStore()
	timing := raft.Timing{
		HeartbeatPeriod:    cfg.HeartbeatPeriod,
		ElectionTimeoutMin: cfg.ElectionTimeoutMin,
		ElectionTimeoutMax: cfg.ElectionTimeoutMax,
	}
	replica := raft.NewReplica[raftstore.Command](store, raft.NodeID(cfg.NodeID), peers, cfg.LogCapacity, timing, logger, nil)

	n := &node{
		cfg:     cfg,
		logger:  logger,
		replica: replica,
		store:   store,
		server:  server,
		senders: senders,
		printer: message.NewPrinter(language.English),
	}

	if cfg.DiscoveryEnabled {
		if err := n.startDiscovery(); err != nil {
			logger.Warn("mDNS setup failed, continuing with static peers", "error", err.Error())
		}
	}

	return n, nil
}

func (n *node) startDiscovery() error {
	host, portStr, err := splitHostPort(n.cfg.Listen)
	if err != nil {
		return err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return err
	}
	adv, err := raftdiscovery.Advertise(n.cfg.NodeID, n.cfg.ClusterName, host, port)
	if err != nil {
		return err
	}
	n.advertiser = adv
	return nil
}

func splitHostPort(addr string) (host, port string, err error) {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 {
		return "", "", fmt.Errorf("invalid listen address %q", addr)
	}
	return addr[:idx], addr[idx+1:], nil
}

func (n *node) Close() {
	if n.advertiser != nil {
		n.advertiser.Shutdown()
	}
	n.server.Stop()
}

func (n *node) runTickLoop(ctx context.Context) error {
	ticker := time.NewTicker(n.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n.mu.Lock()
			n.replica.Tick()
			n.mu.Unlock()
		}
	}
}

func (n *node) runInboundLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-n.server.Inbound:
			n.mu.Lock()
			reply, hasReply, err := n.replica.Process(msg)
			n.mu.Unlock()

			if err != nil {
				n.logger.Warn("error processing inbound message", "error", err.Error())
				continue
			}
			if !hasReply {
				continue
			}
			if sender, ok := n.senders[msg.FromID]; ok {
				sender.Send(reply)
			}
		}
	}
}

func (n *node) runConsole(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf("raftnode(%d)> ", n.cfg.NodeID),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		// No interactive terminal (e.g. running under a supervisor):
		// fall back to blocking until shutdown instead of failing the
		// whole node over a missing console.
		<-ctx.Done()
		return nil
	}
	defer rl.Close()

	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == io.EOF || err == readline.ErrInterrupt {
				return nil
			}
			return nil
		}
		n.handleCommand(strings.TrimSpace(line))
	}
}

func (n *node) handleCommand(line string) {
	if line == "" {
		return
	}
	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "help", "?":
		n.printHelp()
	case "status":
		n.printStatus()
	case "peers":
		n.printPeers()
	case "get":
		n.cmdGet(args)
	case "put":
		n.cmdReplicate(raftstore.CommandPut, args, 2)
	case "append":
		n.cmdReplicate(raftstore.CommandAppend, args, 2)
	case "delete":
		n.cmdReplicate(raftstore.CommandDelete, args, 1)
	case "discover":
		n.cmdDiscover()
	case "reset-store":
		n.cmdResetStore()
	case "quit", "exit":
		cli.PrintInfo("shutting down")
		os.Exit(0)
	default:
		cli.ErrInvalidCommand(cmd).Print()
	}
}

func (n *node) printHelp() {
	h := cli.NewHelpFormatter("raftnode", version)
	h.AddCommand(cli.Command{Name: "status", Description: "show this node's role, term, and commit index"})
	h.AddCommand(cli.Command{Name: "peers", Description: "list configured peers"})
	h.AddCommand(cli.Command{Name: "get", Description: "read a key", Usage: "get <key>"})
	h.AddCommand(cli.Command{Name: "put", Description: "replicate a key/value write", Usage: "put <key> <value>"})
	h.AddCommand(cli.Command{Name: "append", Description: "replicate an append to a key", Usage: "append <key> <value>"})
	h.AddCommand(cli.Command{Name: "delete", Description: "replicate a key deletion", Usage: "delete <key>"})
	h.AddCommand(cli.Command{Name: "discover", Description: "search for peers advertising on this cluster name over mDNS"})
	h.AddCommand(cli.Command{Name: "reset-store", Description: "wipe this node's local state machine (does not touch the log)"})
	h.AddCommand(cli.Command{Name: "quit", Description: "exit the console"})
	h.PrintUsage()
}

func (n *node) printStatus() {
	n.mu.Lock()
	state := n.replica.State()
	currentTerm := n.replica.Term()
	commit := n.replica.CommitIndex()
	logSize := n.replica.Log().Size()
	n.mu.Unlock()

	if _, _, err := term.GetSize(int(os.Stdout.Fd())); err != nil {
		// Not attached to a terminal (piped output, CI); the box still
		// renders fine at its default width.
		n.logger.Debug("terminal size unavailable", "error", err.Error())
	}

	cli.Box(fmt.Sprintf("node %d", n.cfg.NodeID), fmt.Sprintf(
		"role:         %s\nterm:         %s\ncommit index: %s\nlog entries:  %s",
		roleLabel(state), n.printer.Sprintf("%d", int(currentTerm)), n.printer.Sprintf("%d", int(commit)), n.printer.Sprintf("%d", logSize),
	))
}

// roleLabel color-codes a node's role for the status box: green while
// leading, yellow mid-election, cyan otherwise.
func roleLabel(state raft.NodeState) string {
	switch state {
	case raft.Leader:
		return cli.Success(state.String())
	case raft.Candidate:
		return cli.Warning(state.String())
	default:
		return cli.Info(state.String())
	}
}

func (n *node) printPeers() {
	t := cli.NewTable("ID", "Address")
	for _, p := range n.cfg.Peers {
		t.AddRow(strconv.Itoa(p.ID), p.Addr)
	}
	t.Print()
}

func (n *node) cmdGet(args []string) {
	if len(args) < 1 {
		cli.ErrMissingArgument("key", "get <key>").Print()
		return
	}
	v, ok := n.store.Get(args[0])
	if !ok {
		cli.PrintWarning("key %q not found", args[0])
		return
	}
	fmt.Println(v)
}

func (n *node) cmdReplicate(kind raftstore.CommandKind, args []string, want int) {
	if len(args) < want {
		arg, usage := "key/value", "put <key> <value>"
		switch kind {
		case raftstore.CommandAppend:
			usage = "append <key> <value>"
		case raftstore.CommandDelete:
			arg, usage = "key", "delete <key>"
		}
		cli.ErrMissingArgument(arg, usage).Print()
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.replica.State() != raft.Leader {
		cli.ErrNotLeader(n.cfg.NodeID).Print()
		return
	}

	value := ""
	if want > 1 {
		value = strings.Join(args[1:], " ")
	}
	n.replica.Replicate(raftstore.Command{Kind: kind, Key: args[0], Value: value})
	cli.PrintSuccess("replicated")
}

func (n *node) cmdDiscover() {
	spin := cli.NewSpinner(fmt.Sprintf("searching for %q peers", n.cfg.ClusterName))
	spin.Start()
	peers, err := raftdiscovery.Discover(n.cfg.ClusterName, 2*time.Second)
	if err != nil {
		spin.StopWithError(err.Error())
		return
	}
	spin.StopWithSuccess(fmt.Sprintf("found %d peer(s)", len(peers)))

	t := cli.NewTable("Node ID", "Address")
	for _, p := range peers {
		t.AddRow(strconv.Itoa(p.NodeID), p.Addr)
	}
	t.Print()
}

func (n *node) cmdResetStore() {
	if !cli.ConfirmDestructive(
		"This clears every key in this node's local state machine. Other nodes are unaffected.",
		n.cfg.ClusterName,
	) {
		cli.PrintInfo("aborted")
		return
	}

	n.mu.Lock()
	n.store.Reset()
	n.mu.Unlock()
	cli.PrintSuccess("local state machine cleared")
}

// setupTLS ensures a self-signed certificate exists at the configured
// paths and loads it into a tls.Config shared by the server and every
// outbound peer sender.
func setupTLS(cfg raftconfig.Config) (*tls.Config, error) {
	certCfg := raftnet.DefaultCertConfig()
	if err := raftnet.EnsureCertificates(cfg.TLSCertPath, cfg.TLSKeyPath, certCfg); err != nil {
		return nil, err
	}
	return raftnet.LoadTLSConfig(cfg.TLSCertPath, cfg.TLSKeyPath)
}
