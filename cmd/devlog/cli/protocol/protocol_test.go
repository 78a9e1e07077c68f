package protocol

import (
	"errors"
	"strings"
	"testing"
)

const blockContent = `## Devlog Protocol

Read the index before starting work.`

func wellFormed(content string) string {
	return StartMarker + "\n" + content + "\n" + EndMarker + "\n"
}

func TestDetect_Absent(t *testing.T) {
	if got := Detect("# My rules\n\nDo things.\n", blockContent); got != Absent {
		t.Errorf("Detect() = %v, want Absent", got)
	}
}

func TestDetect_Current(t *testing.T) {
	text := "# My rules\n\n" + wellFormed(blockContent)
	if got := Detect(text, blockContent); got != Current {
		t.Errorf("Detect() = %v, want Current", got)
	}
}

func TestDetect_Outdated(t *testing.T) {
	text := "# My rules\n\n" + wellFormed("old protocol text")
	if got := Detect(text, blockContent); got != Outdated {
		t.Errorf("Detect() = %v, want Outdated", got)
	}
}

func TestDetect_Malformed(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"end without start", EndMarker + "\nsome text\n"},
		{"start without end", StartMarker + "\nsome text\n"},
		{"repeated start", StartMarker + "\n" + StartMarker + "\n" + EndMarker + "\n"},
		{"duplicate block", wellFormed("a") + wellFormed("b")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Detect(tc.text, blockContent); got != Malformed {
				t.Errorf("Detect() = %v, want Malformed", got)
			}
		})
	}
}

func TestDetect_MangledMarkerDoesNotClose(t *testing.T) {
	// An end marker with extra words is ordinary text, so the block never
	// closes and the file is malformed, not silently accepted.
	text := StartMarker + "\ntext\n<!-- BD_PROTOCOL_END modified -->\n"
	if got := Detect(text, blockContent); got != Malformed {
		t.Errorf("Detect() = %v, want Malformed", got)
	}
}

func TestUpsert_AppendsWhenAbsent(t *testing.T) {
	before := "# My rules\n\nKeep tests green.\n"
	got, err := Upsert(before, blockContent)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if !strings.HasPrefix(got, before) {
		t.Error("existing content was altered")
	}
	if !strings.HasSuffix(got, EndMarker+"\n") {
		t.Error("block was not appended at the end of the file")
	}
	if Detect(got, blockContent) != Current {
		t.Error("appended block does not detect as Current")
	}
}

func TestUpsert_AppendHandlesMissingFinalNewline(t *testing.T) {
	got, err := Upsert("# My rules", blockContent)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if !strings.HasPrefix(got, "# My rules\n") {
		t.Errorf("unexpected prefix: %q", got)
	}
	if Detect(got, blockContent) != Current {
		t.Error("appended block does not detect as Current")
	}
}

func TestUpsert_EmptyFile(t *testing.T) {
	got, err := Upsert("", blockContent)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if Detect(got, blockContent) != Current {
		t.Error("block in fresh file does not detect as Current")
	}
}

func TestUpsert_NoOpWhenCurrent(t *testing.T) {
	text := "# My rules\n\n" + wellFormed(blockContent)
	got, err := Upsert(text, blockContent)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if got != text {
		t.Error("Upsert() rewrote a file that was already current")
	}
}

func TestUpsert_ReplacesOnlyTheSpan(t *testing.T) {
	before := "# Personal rules\n\nNever force push.\n\n"
	after := "\n## More rules\n\nTabs, not spaces.\n"
	text := before + wellFormed("old protocol text") + after

	got, err := Upsert(text, blockContent)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if !strings.HasPrefix(got, before) {
		t.Error("content before the block was altered")
	}
	if !strings.HasSuffix(got, after) {
		t.Error("content after the block was altered")
	}
	if Detect(got, blockContent) != Current {
		t.Error("replaced block does not detect as Current")
	}
	if strings.Contains(got, "old protocol text") {
		t.Error("old block content survived the replacement")
	}
}

func TestUpsert_MalformedIsNeverRepaired(t *testing.T) {
	text := "intro\n" + EndMarker + "\ntrailer\n"
	_, err := Upsert(text, blockContent)
	if err == nil {
		t.Fatal("expected error for malformed markers")
	}
	var malformed *MalformedBlockError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedBlockError, got %T", err)
	}
	if malformed.Line != 2 {
		t.Errorf("Line = %d, want 2", malformed.Line)
	}
}

func TestContent(t *testing.T) {
	text := "# My rules\n\n" + wellFormed(blockContent)
	got, ok := Content(text)
	if !ok {
		t.Fatal("Content() did not find the block")
	}
	if got != blockContent {
		t.Errorf("Content() = %q, want %q", got, blockContent)
	}

	if _, ok := Content("no block here\n"); ok {
		t.Error("Content() reported a block in a file without one")
	}
}

func TestUpsert_Idempotent(t *testing.T) {
	first, err := Upsert("# My rules\n", blockContent)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	second, err := Upsert(first, blockContent)
	if err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}
	if second != first {
		t.Error("second Upsert() changed bytes")
	}
}

func TestDiff(t *testing.T) {
	out := Diff("line one\nline two\n", "line one\nline 2\n")
	if !strings.Contains(out, "- line two") {
		t.Errorf("diff missing removal: %q", out)
	}
	if !strings.Contains(out, "+ line 2") {
		t.Errorf("diff missing addition: %q", out)
	}
	if !strings.Contains(out, "  line one") {
		t.Errorf("diff missing unchanged line: %q", out)
	}
}
