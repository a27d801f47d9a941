package logbook

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestTailReturnsRecentLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.log")
	book, err := New(path)
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	for i := 0; i < 5; i++ {
		book.Event(KindSession, "entry-%d", i)
	}
	lines := book.Tail(3)
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	for idx, want := range []string{"entry-2", "entry-3", "entry-4"} {
		if !strings.Contains(lines[idx], want) {
			t.Fatalf("line %d = %q, missing %s", idx, lines[idx], want)
		}
	}
}

func TestEventRecordsKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	book, err := New(path)
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	book.Event(KindViolation, "switch to %s denied", "otherproj")
	lines := book.Tail(1)
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(lines))
	}
	if !strings.Contains(lines[0], "VIOLATION") {
		t.Fatalf("line = %q, missing kind", lines[0])
	}
	if !strings.Contains(lines[0], "otherproj") {
		t.Fatalf("line = %q, missing message", lines[0])
	}
}

func TestNilLogbookIsSafe(t *testing.T) {
	var book *Logbook
	book.Event(KindPolicy, "ignored")
	if lines := book.Tail(5); lines != nil {
		t.Fatalf("Tail on nil = %v, want nil", lines)
	}
}
