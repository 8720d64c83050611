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

package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DEBUG, "DEBUG"},
		{INFO, "INFO"},
		{WARN, "WARN"},
		{ERROR, "ERROR"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("Level.String() = %v, want %v", got, tt.expected)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"DEBUG", DEBUG},
		{"debug", DEBUG},
		{"INFO", INFO},
		{"info", INFO},
		{"WARN", WARN},
		{"warn", WARN},
		{"WARNING", WARN}, // accepted synonym, per the original firmware's WARNING severity
		{"ERROR", ERROR},
		{"error", ERROR},
		{"unknown", INFO}, // default
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestLoggerTextOutput(t *testing.T) {
	var buf bytes.Buffer
	SetGlobalOutput(&buf)
	SetGlobalLevel(DEBUG)
	SetJSONMode(false)

	logger := NewLogger("node-1")
	logger.Info("became leader", "term", "3")

	output := buf.String()
	if !strings.Contains(output, "[INFO ]") {
		t.Errorf("Expected [INFO ] in output, got: %s", output)
	}
	if !strings.Contains(output, "[node-1]") {
		t.Errorf("Expected [node-1] in output, got: %s", output)
	}
	if !strings.Contains(output, "became leader") {
		t.Errorf("Expected 'became leader' in output, got: %s", output)
	}
	if !strings.Contains(output, "term=3") {
		t.Errorf("Expected 'term=3' in output, got: %s", output)
	}
}

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	SetGlobalOutput(&buf)
	SetGlobalLevel(DEBUG)
	SetJSONMode(true)

	logger := NewLogger("node-1")
	logger.Info("vote granted", "candidate", "2", "term", "4")

	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON output: %v", err)
	}

	if entry.Level != "INFO" {
		t.Errorf("Expected level INFO, got: %s", entry.Level)
	}
	if entry.Component != "node-1" {
		t.Errorf("Expected component 'node-1', got: %s", entry.Component)
	}
	if entry.Message != "vote granted" {
		t.Errorf("Expected message 'vote granted', got: %s", entry.Message)
	}
	if entry.Fields["candidate"] != "2" || entry.Fields["term"] != "4" {
		t.Errorf("Expected fields candidate=2 term=4, got: %v", entry.Fields)
	}

	// Reset to text mode
	SetJSONMode(false)
}

func TestLogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetGlobalOutput(&buf)
	SetGlobalLevel(WARN)
	SetJSONMode(false)

	logger := NewLogger("node-1")
	logger.Debug("tick")
	logger.Info("heartbeat sent")
	logger.Warn("log is already full")
	logger.Error("peer not found")

	output := buf.String()
	if strings.Contains(output, "tick") {
		t.Error("DEBUG message should be filtered out")
	}
	if strings.Contains(output, "heartbeat sent") {
		t.Error("INFO message should be filtered out")
	}
	if !strings.Contains(output, "log is already full") {
		t.Error("WARN message should be present")
	}
	if !strings.Contains(output, "peer not found") {
		t.Error("ERROR message should be present")
	}

	// Reset level
	SetGlobalLevel(INFO)
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	SetGlobalOutput(&buf)
	SetGlobalLevel(DEBUG)
	SetJSONMode(false)

	logger := NewLogger("node-1")
	replicaLogger := logger.With("role", "leader", "commit_index", "7")
	replicaLogger.Info("applied entry")

	output := buf.String()
	if !strings.Contains(output, "role=leader") {
		t.Errorf("Expected 'role=leader' in output, got: %s", output)
	}
	if !strings.Contains(output, "commit_index=7") {
		t.Errorf("Expected 'commit_index=7' in output, got: %s", output)
	}
}

// TestWarnfSatisfiesWarnerContract exercises the Warnf method internal/raft's
// warner interface requires: internal/raft/log.go calls it, printf-style,
// when Append drops an entry on a full log.
func TestWarnfSatisfiesWarnerContract(t *testing.T) {
	var buf bytes.Buffer
	SetGlobalOutput(&buf)
	SetGlobalLevel(DEBUG)
	SetJSONMode(false)

	logger := NewLogger("node-1")
	logger.Warnf("log is already full (capacity=%d)", 10)

	output := buf.String()
	if !strings.Contains(output, "[WARN ]") {
		t.Errorf("Expected [WARN ] in output, got: %s", output)
	}
	if !strings.Contains(output, "log is already full (capacity=10)") {
		t.Errorf("Expected formatted capacity message in output, got: %s", output)
	}
}
