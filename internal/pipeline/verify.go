package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"sealant/internal/dcache"
	"sealant/internal/sri"
)

// Mismatch is one asset whose bytes no longer match its recorded
// integrity. Got is empty when the file could not be read at all.
type Mismatch struct {
	Name string
	Want string
	Got  string
}

// Verify re-hashes every recorded asset under dir and compares against
// the records written by a seal run. File hashing fans out across CPUs;
// results are returned sorted by asset name.
func Verify(ctx context.Context, dir string, records *dcache.Records) ([]Mismatch, error) {
	engine, err := sri.NewEngine(records.Algorithms)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(records.Entries))
	for name := range records.Entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var mu sync.Mutex
	var mismatches []Mismatch

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, name := range names {
		name := name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			want := records.Entries[name]
			got := ""
			content, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
			if err == nil {
				got = engine.Integrity(content)
			}
			if got != want {
				mu.Lock()
				mismatches = append(mismatches, Mismatch{Name: name, Want: want, Got: got})
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(mismatches, func(i, j int) bool { return mismatches[i].Name < mismatches[j].Name })
	return mismatches, nil
}
