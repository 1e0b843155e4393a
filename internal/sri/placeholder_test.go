package sri

import (
	"strings"
	"testing"
)

func TestPlaceholderLengthDependsOnlyOnAlgorithms(t *testing.T) {
	e := mustEngine(t, "sha256", "sha384")

	short := e.Placeholder("7")
	long := e.Placeholder("vendors~main~admin")
	if len(short) != len(long) {
		t.Fatalf("placeholder length varies with chunk id: %d vs %d", len(short), len(long))
	}
	if len(short) != e.IntegrityLen() {
		t.Fatalf("placeholder length %d != integrity length %d", len(short), e.IntegrityLen())
	}
	if short == long {
		t.Fatal("distinct chunk ids produced identical placeholders")
	}
}

func TestPlaceholderMatchesIntegrityShape(t *testing.T) {
	e := mustEngine(t, "sha384")
	token := e.Placeholder("main")
	if !strings.HasPrefix(token, "sha384-") {
		t.Fatalf("placeholder missing algorithm prefix: %q", token)
	}
	if !strings.Contains(token, placeholderMark) {
		t.Fatalf("placeholder missing marker: %q", token)
	}
}

func TestLocateAbsent(t *testing.T) {
	e := mustEngine(t, "sha256")
	content := []byte("console.log('no children here');")
	if off := Locate(content, e.Placeholder("0")); off != -1 {
		t.Fatalf("Locate on clean content = %d, want -1", off)
	}
}

func TestReplaceKeepsLaterOffsets(t *testing.T) {
	e := mustEngine(t, "sha256")
	p1 := e.Placeholder("1")
	p2 := e.Placeholder("2")
	content := []byte("load(" + p1 + ");load(" + p2 + ");")

	wantP2 := Locate(content, p2)
	if wantP2 < 0 {
		t.Fatal("p2 not found before replacement")
	}

	off := Locate(content, p1)
	if off < 0 {
		t.Fatal("p1 not found")
	}
	repl := e.Integrity([]byte("child one"))
	ReplaceAt(content, off, repl)

	if got := Locate(content, p2); got != wantP2 {
		t.Fatalf("p2 offset shifted after replacing p1: %d -> %d", wantP2, got)
	}
	if Locate(content, p1) != -1 {
		t.Fatal("p1 still present after replacement")
	}
	if !strings.Contains(string(content), "load("+repl+")") {
		t.Fatalf("replacement not in place: %q", content)
	}
}
