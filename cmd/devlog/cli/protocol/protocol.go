// Package protocol finds, validates and rewrites the delimited instruction
// block that the devlog tooling owns inside an agent instructions file. Any
// content the host file has outside the markers is inviolate.
package protocol

import (
	"fmt"
	"strings"
)

// Block delimiters, each on its own line. Matched by exact (trimmed) line
// equality, so a mangled marker like "<!-- BD_PROTOCOL_END missing -->" does
// not close a block.
const (
	StartMarker = "<!-- BD_PROTOCOL_START -->"
	EndMarker   = "<!-- BD_PROTOCOL_END -->"
)

// State classifies the protocol block inside a host file.
type State int

const (
	// Absent means neither marker appears in the file.
	Absent State = iota
	// Current means a well-formed block whose content already matches.
	Current
	// Outdated means a well-formed block with different content.
	Outdated
	// Malformed means the markers are inconsistent: duplicated start,
	// missing end, or an end with no start.
	Malformed
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Current:
		return "current"
	case Outdated:
		return "outdated"
	case Malformed:
		return "malformed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MalformedBlockError reports inconsistent block markers. The block is never
// repaired automatically: guessing intent risks deleting user content around
// the markers.
type MalformedBlockError struct {
	Reason string
	Line   int // 1-based line of the offending marker
}

func (e *MalformedBlockError) Error() string {
	return fmt.Sprintf("malformed protocol block at line %d: %s", e.Line, e.Reason)
}

// span locates a well-formed block within the file's lines.
type span struct {
	start, end int // line indexes of the markers, inclusive
	found      bool
}

// scanState is the three-state line scan over the host file: before the start
// marker, inside the block, after the end marker.
type scanState int

const (
	beforeStart scanState = iota
	insideBlock
	afterEnd
)

func scan(lines []string) (span, *MalformedBlockError) {
	var sp span
	state := beforeStart

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		isStart := trimmed == StartMarker
		isEnd := trimmed == EndMarker

		switch state {
		case beforeStart:
			if isEnd {
				return sp, &MalformedBlockError{Reason: "end marker without start marker", Line: i + 1}
			}
			if isStart {
				sp.start = i
				state = insideBlock
			}
		case insideBlock:
			if isStart {
				return sp, &MalformedBlockError{Reason: "start marker repeated before end marker", Line: i + 1}
			}
			if isEnd {
				sp.end = i
				sp.found = true
				state = afterEnd
			}
		case afterEnd:
			if isStart || isEnd {
				return sp, &MalformedBlockError{Reason: "duplicate protocol block", Line: i + 1}
			}
		}
	}

	if state == insideBlock {
		return sp, &MalformedBlockError{Reason: "start marker without end marker", Line: sp.start + 1}
	}
	return sp, nil
}

// Detect reports the block's state for the given desired content. It is a
// pure read used to decide whether a mutation is needed at all.
func Detect(text, content string) State {
	lines := splitLines(text)
	sp, malformed := scan(lines)
	if malformed != nil {
		return Malformed
	}
	if !sp.found {
		return Absent
	}
	if normalize(innerContent(lines, sp)) == normalize(content) {
		return Current
	}
	return Outdated
}

// Upsert returns text with the block set to content.
//
//   - absent: the block (both markers) is appended at the end of the file and
//     everything above it is unchanged.
//   - present and equal: the input is returned byte-identical.
//   - present and different: only the span between and including the markers
//     is replaced.
//   - malformed markers: a MalformedBlockError, never a best-effort fix.
func Upsert(text, content string) (string, error) {
	lines := splitLines(text)
	sp, malformed := scan(lines)
	if malformed != nil {
		return "", malformed
	}

	block := render(content)

	if !sp.found {
		if text == "" {
			return block, nil
		}
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		return text + "\n" + block, nil
	}

	if normalize(innerContent(lines, sp)) == normalize(content) {
		return text, nil
	}

	var b strings.Builder
	b.WriteString(strings.Join(lines[:sp.start], ""))
	b.WriteString(block)
	b.WriteString(strings.Join(lines[sp.end+1:], ""))
	return b.String(), nil
}

// Content returns the current inner content of a well-formed block, and
// whether a block was found. Malformed markers report found=false.
func Content(text string) (string, bool) {
	lines := splitLines(text)
	sp, malformed := scan(lines)
	if malformed != nil || !sp.found {
		return "", false
	}
	return normalize(innerContent(lines, sp)), true
}

func render(content string) string {
	return StartMarker + "\n" + normalize(content) + "\n" + EndMarker + "\n"
}

func innerContent(lines []string, sp span) string {
	return strings.Join(lines[sp.start+1:sp.end], "")
}

func normalize(s string) string {
	return strings.Trim(s, "\n")
}

func splitLines(text string) []string {
	lines := strings.SplitAfter(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
