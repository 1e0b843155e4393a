package patch

import (
	"strings"
	"testing"

	"sealant/internal/bundle"
	"sealant/internal/chunkgraph"
	"sealant/internal/diag"
	"sealant/internal/registry"
	"sealant/internal/sri"
)

type fixture struct {
	patcher *Patcher
	snap    *bundle.Snapshot
	graph   *chunkgraph.Graph
	bag     *diag.Bag
}

// newFixture builds a snapshot whose assets embed placeholders for every
// child edge, the way a bundler's emitted runtime would.
func newFixture(t *testing.T, chunks []bundle.Chunk) *fixture {
	t.Helper()
	engine, err := sri.NewEngine([]string{"sha256"})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	snap := &bundle.Snapshot{
		Chunks: chunks,
		Assets: make(map[string]*bundle.Asset),
	}
	for _, c := range chunks {
		var b strings.Builder
		b.WriteString("/* chunk " + c.ID + " */")
		for _, child := range c.Children {
			b.WriteString("load(" + engine.Placeholder(child) + ");")
		}
		for _, f := range c.Files {
			snap.Assets[f] = &bundle.Asset{Name: f, Content: []byte(b.String())}
		}
	}

	bag := diag.NewBag(20)
	graph := chunkgraph.Build(snap, diag.BagReporter{Bag: bag})
	return &fixture{
		patcher: &Patcher{
			Graph:    &graph,
			Snapshot: snap,
			Engine:   engine,
			Hasher:   engine,
			Registry: registry.New(engine),
			Reporter: diag.NewDedupReporter(diag.BagReporter{Bag: bag}),
		},
		snap:  snap,
		graph: &graph,
		bag:   bag,
	}
}

func (f *fixture) content(name string) string {
	return string(f.snap.Assets[name].Content)
}

func (f *fixture) hasCode(code diag.Code) bool {
	for _, d := range f.bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestEagerAcyclicResolvesAllPlaceholders(t *testing.T) {
	f := newFixture(t, []bundle.Chunk{
		{ID: "entry", Files: []string{"entry.js"}, Children: []string{"a", "b"}},
		{ID: "a", Files: []string{"a.js"}, Children: []string{"leaf"}},
		{ID: "b", Files: []string{"b.js"}, Children: []string{"leaf"}},
		{ID: "leaf", Files: []string{"leaf.js"}},
	})

	stats := f.patcher.RunEager()
	if stats.PlaceholdersUnresolved != 0 {
		t.Fatalf("acyclic graph left %d placeholders unresolved", stats.PlaceholdersUnresolved)
	}
	if stats.PlaceholdersResolved != 4 {
		t.Fatalf("resolved = %d, want 4", stats.PlaceholdersResolved)
	}
	if stats.AssetsHashed != 4 {
		t.Fatalf("assets hashed = %d, want 4 (diamond chunk hashed once)", stats.AssetsHashed)
	}
	for _, name := range []string{"entry.js", "a.js", "b.js"} {
		if strings.Contains(f.content(name), placeholderMark) {
			t.Fatalf("placeholder left in %s: %q", name, f.content(name))
		}
	}

	// the parent embeds exactly the digest recorded for the child asset
	leafDigest, ok := f.patcher.Registry.Lookup("leaf.js")
	if !ok {
		t.Fatal("leaf.js not recorded")
	}
	if !strings.Contains(f.content("a.js"), "load("+leafDigest+")") {
		t.Fatalf("a.js does not embed leaf digest: %q", f.content("a.js"))
	}
}

// placeholderMark mirrors the marker the codec embeds in tokens; the
// patcher must leave none of them behind on an acyclic graph.
const placeholderMark = "SEALANTSRIPH"

func TestEagerChildDigestComputedAfterItsOwnSubstitution(t *testing.T) {
	// entry -> mid -> leaf: mid's digest must cover mid's content with
	// leaf's digest already substituted in.
	f := newFixture(t, []bundle.Chunk{
		{ID: "entry", Files: []string{"entry.js"}, Children: []string{"mid"}},
		{ID: "mid", Files: []string{"mid.js"}, Children: []string{"leaf"}},
		{ID: "leaf", Files: []string{"leaf.js"}},
	})
	f.patcher.RunEager()

	midDigest, _ := f.patcher.Registry.Lookup("mid.js")
	recomputed := f.patcher.Engine.Integrity(f.snap.Assets["mid.js"].Content)
	if midDigest != recomputed {
		t.Fatalf("recorded mid digest %q does not match final content digest %q", midDigest, recomputed)
	}
	if !strings.Contains(f.content("entry.js"), midDigest) {
		t.Fatal("entry does not embed mid's final digest")
	}
}

func TestEagerCycleToleratedWithWarning(t *testing.T) {
	f := newFixture(t, []bundle.Chunk{
		{ID: "a", Files: []string{"a.js"}, Children: []string{"b"}},
		{ID: "b", Files: []string{"b.js"}, Children: []string{"a"}},
	})

	stats := f.patcher.RunEager()
	if stats.PlaceholdersUnresolved == 0 {
		t.Fatal("cycle should leave at least one placeholder unresolved")
	}
	if !f.hasCode(diag.PatchUnresolvedCycle) {
		t.Fatalf("expected PatchUnresolvedCycle diagnostic, got %v", f.bag.Items())
	}
	// both assets still get their own digest recorded
	for _, name := range []string{"a.js", "b.js"} {
		if _, ok := f.patcher.Registry.Lookup(name); !ok {
			t.Fatalf("%s not recorded despite the cycle", name)
		}
	}
}

func TestEagerFingerprintAppendedNotOverwritten(t *testing.T) {
	f := newFixture(t, []bundle.Chunk{
		{ID: "solo", Files: []string{"solo.js"}},
	})
	f.snap.Assets["solo.js"].Integrity = []string{"earlier-pass"}

	f.patcher.RunEager()
	got := f.snap.Assets["solo.js"].Integrity
	if len(got) != 2 || got[0] != "earlier-pass" {
		t.Fatalf("fingerprints = %v, want earlier value preserved and new appended", got)
	}
}

func TestEagerHotUpdateWarning(t *testing.T) {
	f := newFixture(t, []bundle.Chunk{
		{ID: "hot", Files: []string{"hot.js"}},
	})
	f.snap.Assets["hot.js"].Content = []byte("webpackHotUpdate('hot', {});")

	f.patcher.RunEager()
	if !f.hasCode(diag.PatchHotUpdateFragile) {
		t.Fatal("expected hot-update warning")
	}
}

func TestNameHazardWarningSuppressedByAllowRehash(t *testing.T) {
	chunks := []bundle.Chunk{
		{ID: "main", Files: []string{"main.3f8a9c0d12ef4411.js"}},
	}

	f := newFixture(t, chunks)
	f.patcher.RunEager()
	if !f.hasCode(diag.PatchNonDeterministicName) {
		t.Fatal("expected content-hashed-name warning")
	}

	f = newFixture(t, chunks)
	f.patcher.AllowRehash = true
	f.patcher.RunEager()
	if f.hasCode(diag.PatchNonDeterministicName) {
		t.Fatal("warning emitted despite AllowRehash")
	}
}

func TestLazyEmitsRuntimeManifest(t *testing.T) {
	f := newFixture(t, []bundle.Chunk{
		{ID: "entry", Files: []string{"entry.js"}, Children: []string{"a"}},
		{ID: "a", Files: []string{"a.js"}, Children: []string{"b"}},
		{ID: "b", Files: []string{"b.js"}, Children: []string{"a"}},
	})
	cond := chunkgraph.Decompose(f.graph)

	stats := f.patcher.RunLazy(cond)
	if stats.PlaceholdersResolved != 0 {
		t.Fatal("lazy mode must not substitute placeholders")
	}
	if stats.ManifestsEmitted != 3 {
		t.Fatalf("manifests emitted = %d, want 3", stats.ManifestsEmitted)
	}

	// the entry publishes a's final digest
	aDigest, _ := f.patcher.Registry.Lookup("a.js")
	entry := f.content("entry.js")
	if !strings.Contains(entry, runtimeTableGlobal) {
		t.Fatalf("entry missing runtime table snippet: %q", entry)
	}
	if !strings.Contains(entry, `"a":"`+aDigest+`"`) {
		t.Fatalf("entry manifest missing a's digest: %q", entry)
	}

	// inside the cycle the peers publish null entries
	if !strings.Contains(f.content("a.js"), `"b":null`) {
		t.Fatalf("a.js manifest should carry null for in-cycle peer: %q", f.content("a.js"))
	}
	if !strings.Contains(f.content("b.js"), `"a":null`) {
		t.Fatalf("b.js manifest should carry null for in-cycle peer: %q", f.content("b.js"))
	}

	// every chunk's digest is recorded, cycle included
	for _, name := range []string{"entry.js", "a.js", "b.js"} {
		digest, ok := f.patcher.Registry.Lookup(name)
		if !ok {
			t.Fatalf("%s not recorded", name)
		}
		if recomputed := f.patcher.Engine.Integrity(f.snap.Assets[name].Content); digest != recomputed {
			t.Fatalf("%s digest %q does not cover final content (manifest included)", name, digest)
		}
	}
}

func TestManifestSnippetDeterministic(t *testing.T) {
	d := "sha256-AAAA"
	entries := map[string]*string{"b": nil, "a": &d}
	first := manifestSnippet(entries)
	second := manifestSnippet(entries)
	if first != second {
		t.Fatalf("snippet not deterministic: %q vs %q", first, second)
	}
	if !strings.Contains(first, `{"a":"sha256-AAAA","b":null}`) {
		t.Fatalf("snippet keys not sorted: %q", first)
	}
}
