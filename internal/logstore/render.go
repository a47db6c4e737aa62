package logstore

import (
	"fmt"
	"strings"
)

// Default hard caps for output surfaced into the agent's context.
const (
	DefaultMaxLines = 200
	DefaultMaxBytes = 50 * 1024
)

// Caps bounds how much captured output may be surfaced to the agent.
type Caps struct {
	MaxLines int
	MaxBytes int
}

func (c Caps) normalized() Caps {
	if c.MaxLines <= 0 {
		c.MaxLines = DefaultMaxLines
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = DefaultMaxBytes
	}
	return c
}

// Render produces the agent-facing text for a tail snapshot: both
// streams, ANSI-stripped, truncated from the tail to the configured
// caps, with an elision note pointing at the full log file. Bounding
// context growth is the goal, not hiding information.
func Render(snap Snapshot, caps Caps) string {
	var b strings.Builder
	b.WriteString(renderStream("stdout", snap.StdoutLines, snap.StdoutDropped, snap.StdoutDroppedBytes, snap.StdoutPath, caps))
	if len(snap.StderrLines) > 0 || snap.StderrDropped > 0 {
		b.WriteString("\n")
		b.WriteString(renderStream("stderr", snap.StderrLines, snap.StderrDropped, snap.StderrDroppedBytes, snap.StderrPath, caps))
	}
	return b.String()
}

func renderStream(label string, lines []string, ringDropped, ringDroppedBytes int, path string, caps Caps) string {
	caps = caps.normalized()

	stripped := make([]string, len(lines))
	ansiSeen := false
	for i, l := range lines {
		s, had := StripANSI(l)
		stripped[i] = s
		ansiSeen = ansiSeen || had
	}

	elidedLines := ringDropped
	elidedBytes := ringDroppedBytes
	if over := len(stripped) - caps.MaxLines; over > 0 {
		for _, l := range stripped[:over] {
			elidedBytes += len(l) + 1
		}
		elidedLines += over
		stripped = stripped[over:]
	}
	// Enforce the byte cap from the tail: drop oldest surviving lines
	// until the rendered body fits.
	total := 0
	for _, l := range stripped {
		total += len(l) + 1
	}
	for len(stripped) > 0 && total > caps.MaxBytes {
		elidedBytes += len(stripped[0]) + 1
		elidedLines++
		total -= len(stripped[0]) + 1
		stripped = stripped[1:]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- %s ---\n", label)
	if elidedLines > 0 {
		fmt.Fprintf(&b, "[%d earlier lines elided (%d bytes); full log: %s]\n",
			elidedLines, elidedBytes, path)
	}
	for _, l := range stripped {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	if ansiSeen {
		b.WriteString("[ANSI escape sequences were stripped from this output]\n")
	}
	return b.String()
}
