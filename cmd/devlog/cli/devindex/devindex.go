// Package devindex parses and renders the devlog index document.
//
// The index is treated as a structured log, not as general markdown: one
// prose header followed by exactly one table, and the table must be the last
// element in the file. Anything after the final row means a previous writer
// appended in the wrong place, and is reported as corruption rather than
// repaired.
package devindex

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCorruptIndex is the umbrella error for a malformed existing index.
// TrailingContentError and MalformedRowError both match it via errors.Is.
// An index with no table at all is NOT corrupt; it is the distinct
// "not yet initialized" state reported by Index.HasTable.
var ErrCorruptIndex = errors.New("corrupt devlog index")

// TrailingContentError reports non-whitespace content after the table.
type TrailingContentError struct {
	Line    int    // 1-based line number of the offending content
	Content string // the offending line, trimmed
}

func (e *TrailingContentError) Error() string {
	return fmt.Sprintf("content after devlog index table at line %d: %q", e.Line, e.Content)
}

func (e *TrailingContentError) Unwrap() error { return ErrCorruptIndex }

// MalformedRowError reports a table row with the wrong column count.
type MalformedRowError struct {
	Line    int
	Columns int
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed devlog index row at line %d: %d columns, want %d", e.Line, e.Columns, columnCount)
}

func (e *MalformedRowError) Unwrap() error { return ErrCorruptIndex }

const columnCount = 4

// Row is one entry in the index table.
type Row struct {
	Subject    string
	Problems   string
	Date       string
	DevlogLink string

	// raw is the original line, kept so Render reproduces the document
	// byte for byte. Empty for rows created via Append.
	raw string
}

// Index is a parsed devlog index document.
type Index struct {
	// Header is everything before the table, verbatim. When HasTable is
	// false it is the entire document.
	Header string
	// HasTable reports whether the document contains a table at all.
	// A table-less document is the expected "not yet initialized" state.
	HasTable bool
	Rows     []Row

	headLine  string // verbatim table header line
	delimLine string // verbatim delimiter line
	trailing  string // whitespace-only content after the last row, verbatim
}

// Parse scans text top-down for the first markdown table. Everything before
// it is header content, preserved verbatim. Everything after the table's last
// row must be whitespace-only, otherwise a TrailingContentError names the
// offending line. Rows are parsed positionally by the four fixed columns.
func Parse(text string) (*Index, error) {
	lines := strings.SplitAfter(text, "\n")
	// SplitAfter leaves a phantom empty element when text ends with a newline.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	idx := &Index{}

	tableStart := -1
	for i := 0; i+1 < len(lines); i++ {
		if isTableLine(lines[i]) && isDelimiterLine(lines[i+1]) {
			tableStart = i
			break
		}
	}

	if tableStart < 0 {
		idx.Header = text
		return idx, nil
	}

	idx.HasTable = true
	idx.Header = strings.Join(lines[:tableStart], "")
	idx.headLine = lines[tableStart]
	idx.delimLine = lines[tableStart+1]

	pos := tableStart + 2
	for ; pos < len(lines); pos++ {
		line := lines[pos]
		if !isTableLine(line) {
			break
		}
		row, err := parseRow(line, pos+1)
		if err != nil {
			return nil, err
		}
		idx.Rows = append(idx.Rows, row)
	}

	// The table must be the final element: only whitespace may follow.
	for i := pos; i < len(lines); i++ {
		if trimmed := strings.TrimSpace(lines[i]); trimmed != "" {
			return nil, &TrailingContentError{Line: i + 1, Content: trimmed}
		}
	}
	idx.trailing = strings.Join(lines[pos:], "")

	return idx, nil
}

// Render is the exact inverse of Parse: the header is reproduced verbatim and
// the rows are appended as a markdown table, so the table stays the last
// element of the document.
func (idx *Index) Render() string {
	if !idx.HasTable {
		return idx.Header
	}

	var b strings.Builder
	b.WriteString(idx.Header)
	b.WriteString(idx.headLine)
	b.WriteString(idx.delimLine)
	for _, row := range idx.Rows {
		if row.raw != "" {
			b.WriteString(row.raw)
			continue
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", row.Subject, row.Problems, row.Date, row.DevlogLink)
	}
	b.WriteString(idx.trailing)
	return b.String()
}

// Append adds a row at the table's tail. The index must have a table.
func (idx *Index) Append(row Row) error {
	if !idx.HasTable {
		return errors.New("devlog index has no table to append to")
	}
	// A final row parsed from a file without a trailing newline would glue the
	// new row onto it; terminate it first.
	if n := len(idx.Rows); n > 0 {
		if raw := idx.Rows[n-1].raw; raw != "" && !strings.HasSuffix(raw, "\n") {
			idx.Rows[n-1].raw = raw + "\n"
		}
	}
	row.raw = ""
	idx.Rows = append(idx.Rows, row)
	return nil
}

// LinkTargets returns the filenames referenced by the rows' devlog links.
// Links are markdown style "[label](target)"; bare filenames are returned
// as-is.
func (idx *Index) LinkTargets() []string {
	targets := make([]string, 0, len(idx.Rows))
	for _, row := range idx.Rows {
		link := strings.TrimSpace(row.DevlogLink)
		if open := strings.LastIndexByte(link, '('); open >= 0 && strings.HasSuffix(link, ")") {
			link = link[open+1 : len(link)-1]
		}
		if link != "" {
			targets = append(targets, link)
		}
	}
	return targets
}

func isTableLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "|")
}

func isDelimiterLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "|") {
		return false
	}
	seen := false
	for _, r := range trimmed {
		switch r {
		case '|', ':', ' ':
		case '-':
			seen = true
		default:
			return false
		}
	}
	return seen
}

// parseRow splits a table line into the four fixed columns. lineNum is
// 1-based, for error reporting.
func parseRow(line string, lineNum int) (Row, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(line), "|")
	trimmed = strings.TrimPrefix(trimmed, "|")
	cells := strings.Split(trimmed, "|")
	if len(cells) != columnCount {
		return Row{}, &MalformedRowError{Line: lineNum, Columns: len(cells)}
	}
	return Row{
		Subject:    strings.TrimSpace(cells[0]),
		Problems:   strings.TrimSpace(cells[1]),
		Date:       strings.TrimSpace(cells[2]),
		DevlogLink: strings.TrimSpace(cells[3]),
		raw:        line,
	}, nil
}
