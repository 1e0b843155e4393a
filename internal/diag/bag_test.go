package diag

import "testing"

func TestBagRespectsCap(t *testing.T) {
	bag := NewBag(2)
	for i := 0; i < 2; i++ {
		if !bag.Add(Diagnostic{Severity: SevWarning, Code: TagMissingDigest}) {
			t.Fatalf("Add %d rejected below cap", i)
		}
	}
	if bag.Add(Diagnostic{Severity: SevWarning, Code: TagMissingDigest}) {
		t.Fatal("Add accepted a diagnostic beyond the cap")
	}
	if bag.Len() != 2 {
		t.Fatalf("Len = %d, want 2", bag.Len())
	}
}

func TestBagCapAboveSixteenBits(t *testing.T) {
	const max = 70000
	bag := NewBag(max)
	if bag.Cap() != max {
		t.Fatalf("Cap = %d, want %d", bag.Cap(), max)
	}
	for i := 0; i < max; i++ {
		if !bag.Add(Diagnostic{Severity: SevInfo, Code: FillUnreadableAsset}) {
			t.Fatalf("Add rejected at %d, below cap %d", i, max)
		}
	}
	if bag.Add(Diagnostic{Severity: SevInfo, Code: FillUnreadableAsset}) {
		t.Fatal("Add accepted a diagnostic beyond the cap")
	}
}

func TestBagMergeGrowsCap(t *testing.T) {
	a := NewBag(1)
	a.Add(Diagnostic{Severity: SevError, Code: GraphMissingChunk})
	b := NewBag(2)
	b.Add(Diagnostic{Severity: SevWarning, Code: GraphMissingAsset})
	b.Add(Diagnostic{Severity: SevWarning, Code: GraphDuplicateChunk})

	a.Merge(b)
	if a.Len() != 3 {
		t.Fatalf("Len after merge = %d, want 3", a.Len())
	}
	if a.Cap() < 3 {
		t.Fatalf("Cap after merge = %d, want >= 3", a.Cap())
	}
}

func TestBagSortOrder(t *testing.T) {
	bag := NewBag(4)
	bag.Add(Diagnostic{Severity: SevInfo, Code: FillUnreadableAsset, Primary: Ref{Asset: "b.js"}})
	bag.Add(Diagnostic{Severity: SevWarning, Code: TagMissingDigest, Primary: Ref{Asset: "a.js"}})
	bag.Add(Diagnostic{Severity: SevError, Code: GraphMissingAsset, Primary: Ref{Asset: "a.js"}})
	bag.Sort()

	items := bag.Items()
	if items[0].Primary.Asset != "a.js" || items[0].Severity != SevError {
		t.Fatalf("first after sort = %v", items[0])
	}
	if items[1].Primary.Asset != "a.js" || items[1].Severity != SevWarning {
		t.Fatalf("second after sort = %v", items[1])
	}
	if items[2].Primary.Asset != "b.js" {
		t.Fatalf("third after sort = %v", items[2])
	}
}
