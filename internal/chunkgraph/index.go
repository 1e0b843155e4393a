// Package chunkgraph snapshots the bundler's chunk topology into a dense
// graph and orders it for digest propagation: a depth-first walk for
// eager hashing, strongly connected components for lazy hashing.
package chunkgraph

import (
	"sort"

	"sealant/internal/bundle"
)

type ChunkID uint32

type Index struct {
	NameToID map[string]ChunkID
	IDToName []string
}

// BuildIndex collects unique chunk ids (declared and referenced as
// children), sorts them and hands out dense ids in order.
func BuildIndex(chunks []bundle.Chunk) Index {
	uniq := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		if c.ID != "" {
			uniq[c.ID] = struct{}{}
		}
		for _, child := range c.Children {
			if child == "" {
				continue
			}
			uniq[child] = struct{}{}
		}
	}

	names := make([]string, 0, len(uniq))
	for name := range uniq {
		names = append(names, name)
	}
	sort.Strings(names)

	nameToID := make(map[string]ChunkID, len(names))
	for i, name := range names {
		nameToID[name] = ChunkID(i)
	}

	return Index{
		NameToID: nameToID,
		IDToName: names,
	}
}
