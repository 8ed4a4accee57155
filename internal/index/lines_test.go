package index

import (
	"strings"
	"testing"
)

func consume(t *Tracker, s string) []string {
	var out []string
	for _, l := range t.Consume([]byte(s)) {
		out = append(out, string(l))
	}
	return out
}

func TestConsume_SplitsCompleteLines(t *testing.T) {
	tr := NewTracker()

	got := consume(tr, "one\ntwo\r\n\nthree\n")

	want := []string{"one", "two", "", "three"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("lines = %q, want %q", got, want)
	}
	if tr.Offset() != 17 {
		t.Fatalf("Offset = %d, want 17", tr.Offset())
	}
	if tr.Pending() != 0 {
		t.Fatalf("Pending = %d, want 0", tr.Pending())
	}
}

func TestConsume_HoldsBackPartialLine(t *testing.T) {
	tr := NewTracker()

	if got := consume(tr, "first\nsec"); len(got) != 1 || got[0] != "first" {
		t.Fatalf("first read = %q, want [first]", got)
	}
	if tr.Pending() != 3 {
		t.Fatalf("Pending = %d, want 3", tr.Pending())
	}
	if tr.Offset() != 9 {
		t.Fatalf("Offset = %d, want 9", tr.Offset())
	}

	if got := consume(tr, "ond"); len(got) != 0 {
		t.Fatalf("unterminated continuation returned %q", got)
	}

	got := consume(tr, "\nthird\n")
	if strings.Join(got, "|") != "second|third" {
		t.Fatalf("lines = %q, want [second third]", got)
	}
	if tr.Pending() != 0 {
		t.Fatalf("Pending = %d, want 0", tr.Pending())
	}
}

func TestConsume_RecordsLineStarts(t *testing.T) {
	tr := NewTracker()
	consume(tr, "ab\nc")
	consume(tr, "de\n\nxyz\n")

	tests := []struct {
		line int
		want int64
	}{
		{0, 0}, {1, 3}, {2, 7}, {3, 8}, {4, -1}, {-1, -1},
	}
	for _, tt := range tests {
		if got := tr.ByteOffset(tt.line); got != tt.want {
			t.Errorf("ByteOffset(%d) = %d, want %d", tt.line, got, tt.want)
		}
	}
	if tr.LineCount() != 4 {
		t.Fatalf("LineCount = %d, want 4", tr.LineCount())
	}
}

func TestConsume_ByteAtATimeMatchesWholeRead(t *testing.T) {
	const text = "alpha\r\nbeta\n\ngamma delta\nepsilon"

	whole := NewTracker()
	want := consume(whole, text)

	split := NewTracker()
	var got []string
	for i := 0; i < len(text); i++ {
		got = append(got, consume(split, text[i:i+1])...)
	}

	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("byte-wise lines = %q, want %q", got, want)
	}
	if split.Offset() != whole.Offset() || split.Pending() != whole.Pending() {
		t.Fatalf("byte-wise offset/pending = %d/%d, want %d/%d",
			split.Offset(), split.Pending(), whole.Offset(), whole.Pending())
	}
}

func TestReset(t *testing.T) {
	tr := NewTracker()
	consume(tr, "a\nb")

	tr.Reset()

	if tr.Offset() != 0 || tr.Pending() != 0 || tr.LineCount() != 0 {
		t.Fatalf("after Reset offset=%d pending=%d lines=%d", tr.Offset(), tr.Pending(), tr.LineCount())
	}
	if got := consume(tr, "x\n"); len(got) != 1 || got[0] != "x" {
		t.Fatalf("after Reset lines = %q, want [x]", got)
	}
}
