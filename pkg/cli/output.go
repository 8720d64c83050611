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

package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
)

// Table renders the console's peer listings (configured peers,
// mDNS-discovered peers) as an aligned, tab-stopped table. Unlike a
// generic reporting table, raftnode's console only ever prints peer
// rows as human-readable text, so there is no output-format switch
// here.
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable creates a new table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(values ...string) {
	t.rows = append(t.rows, values)
}

// Print renders the table to stdout.
func (t *Table) Print() {
	if len(t.rows) == 0 {
		fmt.Println("(no peers)")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	if len(t.headers) > 0 {
		headerLine := strings.Join(t.headers, "\t")
		fmt.Fprintln(w, colorize(Bold, headerLine))

		seps := make([]string, len(t.headers))
		for i, h := range t.headers {
			seps[i] = strings.Repeat("─", len(h))
		}
		fmt.Fprintln(w, strings.Join(seps, "\t"))
	}

	for _, row := range t.rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	w.Flush()
	fmt.Printf("\n(%d peer(s))\n", len(t.rows))
}

// Box prints title/content in a bordered panel, used by the status
// command to show a node's role, term, commit index, and log size.
// Width is computed with visibleLen rather than len so that a
// color-coded role (e.g. the green "LEADER" printStatus prints) pads
// correctly despite its embedded ANSI escape codes.
func Box(title, content string) {
	lines := strings.Split(content, "\n")
	maxLen := visibleLen(title)
	for _, line := range lines {
		if l := visibleLen(line); l > maxLen {
			maxLen = l
		}
	}

	width := maxLen + 4
	fmt.Println("╔" + strings.Repeat("═", width) + "╗")
	fmt.Printf("║  %s%s  ║\n", colorize(Bold, title), strings.Repeat(" ", maxLen-visibleLen(title)))
	fmt.Println("╠" + strings.Repeat("═", width) + "╣")
	for _, line := range lines {
		fmt.Printf("║  %s%s  ║\n", line, strings.Repeat(" ", maxLen-visibleLen(line)))
	}
	fmt.Println("╚" + strings.Repeat("═", width) + "╝")
}

// visibleLen returns the byte width of s as it will appear once ANSI
// escape sequences (e.g. the color codes colorize wraps text in) are
// stripped from the terminal's perspective.
func visibleLen(s string) int {
	n := 0
	inEscape := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == 0x1b:
			inEscape = true
		case inEscape:
			if s[i] == 'm' {
				inEscape = false
			}
		default:
			n++
		}
	}
	return n
}

