package registry

import (
	"errors"
	"testing"

	"sealant/internal/bundle"
	"sealant/internal/diag"
	"sealant/internal/sri"
)

func testEngine(t *testing.T) *sri.Engine {
	t.Helper()
	e, err := sri.NewEngine([]string{"sha256"})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e
}

func TestRecordFirstWriterWins(t *testing.T) {
	r := New(testEngine(t))

	if !r.Record("main.js", "sha256-AAAA") {
		t.Fatal("first Record returned false")
	}
	if r.Record("main.js", "sha256-BBBB") {
		t.Fatal("second Record for same key returned true")
	}
	if got, ok := r.Lookup("main.js"); !ok || got != "sha256-AAAA" {
		t.Fatalf("Lookup = %q, %v; want first digest", got, ok)
	}
}

func TestRecordRejectsEmpty(t *testing.T) {
	r := New(testEngine(t))
	if r.Record("", "sha256-AAAA") || r.Record("x.js", "") {
		t.Fatal("Record accepted empty key or digest")
	}
}

func TestRehashSwapsBothDirections(t *testing.T) {
	e := testEngine(t)
	r := New(e)

	old := e.Integrity([]byte("before"))
	r.Record("app.js", old)

	renamed := []byte("after recompression")
	newDigest, ok := r.Rehash(old, renamed)
	if !ok {
		t.Fatal("Rehash returned not-found for known digest")
	}
	if want := e.Integrity(renamed); newDigest != want {
		t.Fatalf("Rehash digest = %q, want %q", newDigest, want)
	}
	if got, ok := r.Lookup("app.js"); !ok || got != newDigest {
		t.Fatalf("forward map not updated: %q, %v", got, ok)
	}
	// the old digest no longer owns the asset
	if _, ok := r.Rehash(old, renamed); ok {
		t.Fatal("stale digest still resolves after rehash")
	}
}

func TestRehashWithSharedDigestRetargetsFirstRecorder(t *testing.T) {
	e := testEngine(t)
	r := New(e)

	shared := e.Integrity([]byte("identical bytes"))
	r.Record("a.js", shared)
	r.Record("b.js", shared)

	renamed := []byte("a.js after rename")
	newDigest, ok := r.Rehash(shared, renamed)
	if !ok {
		t.Fatal("Rehash returned not-found for known digest")
	}
	if got, _ := r.Lookup("a.js"); got != newDigest {
		t.Fatalf("first recorder not retargeted: %q", got)
	}
	if got, _ := r.Lookup("b.js"); got != shared {
		t.Fatalf("second recorder mutated: %q", got)
	}
	// the new digest stays rehashable, owned by the retargeted asset
	again, ok := r.Rehash(newDigest, []byte("renamed twice"))
	if !ok {
		t.Fatal("retargeted digest lost its reverse entry")
	}
	if got, _ := r.Lookup("a.js"); got != again {
		t.Fatalf("second rehash updated wrong asset: %q", got)
	}
}

func TestRehashNoOpCases(t *testing.T) {
	r := New(testEngine(t))
	r.Record("a.js", "sha256-AAAA")

	if _, ok := r.Rehash("sha256-UNKNOWN", []byte("x")); ok {
		t.Fatal("Rehash succeeded for unknown digest")
	}
	if _, ok := r.Rehash("sha256-AAAA"); ok {
		t.Fatal("Rehash succeeded with zero buffers")
	}
	if _, ok := r.Rehash("sha256-AAAA", []byte("x"), []byte("y")); ok {
		t.Fatal("Rehash succeeded with two buffers")
	}
	if got, _ := r.Lookup("a.js"); got != "sha256-AAAA" {
		t.Fatalf("no-op rehash mutated the registry: %q", got)
	}
}

func TestFillMissingRecordsUnvisitedAssets(t *testing.T) {
	e := testEngine(t)
	r := New(e)
	r.Record("seen.js", e.Integrity([]byte("seen")))

	assets := map[string]*bundle.Asset{
		"seen.js":   {Name: "seen.js", Content: []byte("seen")},
		"orphan.js": {Name: "orphan.js", Content: []byte("orphan")},
	}
	filled := r.FillMissing(assets, nil, diag.NopReporter{})
	if filled != 1 {
		t.Fatalf("filled = %d, want 1", filled)
	}
	if got, ok := r.Lookup("orphan.js"); !ok || got != e.Integrity([]byte("orphan")) {
		t.Fatalf("orphan digest = %q, %v", got, ok)
	}
	if len(assets["orphan.js"].Integrity) != 1 {
		t.Fatalf("orphan fingerprint list = %v", assets["orphan.js"].Integrity)
	}
	if len(assets["seen.js"].Integrity) != 0 {
		t.Fatal("already-recorded asset got an extra fingerprint")
	}
}

func TestFillMissingSkipsUnreadableAsset(t *testing.T) {
	r := New(testEngine(t))
	bag := diag.NewBag(5)
	assets := map[string]*bundle.Asset{
		"gone.js": {Name: "gone.js"},
	}
	read := func(string) ([]byte, error) {
		return nil, errors.New("deleted by a later step")
	}

	filled := r.FillMissing(assets, read, diag.BagReporter{Bag: bag})
	if filled != 0 {
		t.Fatalf("filled = %d, want 0", filled)
	}
	if _, ok := r.Lookup("gone.js"); ok {
		t.Fatal("unreadable asset was recorded")
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.FillUnreadableAsset {
		t.Fatalf("expected one FillUnreadableAsset diagnostic, got %v", bag.Items())
	}
	if bag.Items()[0].Severity != diag.SevInfo {
		t.Fatalf("unreadable asset severity = %v, want info", bag.Items()[0].Severity)
	}
}

func TestFillMissingSkipsContentlessAssetWithoutReader(t *testing.T) {
	r := New(testEngine(t))
	bag := diag.NewBag(5)
	assets := map[string]*bundle.Asset{
		"ghost.js": {Name: "ghost.js"},
	}

	filled := r.FillMissing(assets, nil, diag.BagReporter{Bag: bag})
	if filled != 0 {
		t.Fatalf("filled = %d, want 0", filled)
	}
	// the empty-content digest must not stand in for bytes never seen
	if got, ok := r.Lookup("ghost.js"); ok {
		t.Fatalf("contentless asset recorded %q", got)
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.FillUnreadableAsset {
		t.Fatalf("expected one FillUnreadableAsset diagnostic, got %v", bag.Items())
	}
}
