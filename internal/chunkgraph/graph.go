package chunkgraph

import (
	"fmt"
	"slices"

	"sealant/internal/bundle"
	"sealant/internal/diag"
)

// SyntheticAssetName is the per-chunk asset key used when a chunk
// produced zero files, so placeholder bookkeeping stays consistent
// instead of erroring.
func SyntheticAssetName(chunkID string) string {
	return "chunk:" + chunkID
}

type Graph struct {
	Idx     Index
	Edges   [][]ChunkID // Edges[from] = runtime children
	Files   [][]string  // Files[id] = asset keys produced by the chunk
	Present []bool      // chunk actually declared, not only referenced
}

// Name returns the bundler-side id for a dense chunk id.
func (g *Graph) Name(id ChunkID) string {
	return g.Idx.IDToName[int(id)]
}

// Build snapshots the bundler's chunk collection into a Graph.
// Irregularities (duplicate chunks, children that were never declared,
// files without a matching asset) are reported and tolerated.
func Build(snap *bundle.Snapshot, reporter diag.Reporter) Graph {
	idx := BuildIndex(snap.Chunks)
	nodeCount := len(idx.IDToName)
	g := Graph{
		Idx:     idx,
		Edges:   make([][]ChunkID, nodeCount),
		Files:   make([][]string, nodeCount),
		Present: make([]bool, nodeCount),
	}

	for _, chunk := range snap.Chunks {
		if chunk.ID == "" {
			continue
		}
		id, ok := idx.NameToID[chunk.ID]
		if !ok {
			// cannot happen, the index is built from the same chunks
			continue
		}
		if g.Present[int(id)] {
			if reporter != nil {
				reporter.Report(
					diag.GraphDuplicateChunk,
					diag.SevWarning,
					diag.Ref{Chunk: chunk.ID},
					fmt.Sprintf("duplicate chunk %q in bundle metadata", chunk.ID),
					nil,
				)
			}
			continue
		}
		g.Present[int(id)] = true

		files := make([]string, 0, len(chunk.Files))
		for _, name := range chunk.Files {
			if name == "" {
				continue
			}
			if _, ok := snap.Asset(name); !ok && reporter != nil {
				reporter.Report(
					diag.GraphMissingAsset,
					diag.SevWarning,
					diag.Ref{Asset: name, Chunk: chunk.ID},
					fmt.Sprintf("chunk %q names file %q but no such asset exists", chunk.ID, name),
					nil,
				)
			}
			files = append(files, name)
		}
		if len(files) == 0 {
			files = append(files, SyntheticAssetName(chunk.ID))
		}
		g.Files[int(id)] = files

		seen := make(map[ChunkID]struct{}, len(chunk.Children))
		for _, child := range chunk.Children {
			if child == "" {
				continue
			}
			toID, ok := idx.NameToID[child]
			if !ok {
				continue
			}
			if _, dup := seen[toID]; dup {
				continue
			}
			seen[toID] = struct{}{}
			g.Edges[int(id)] = append(g.Edges[int(id)], toID)
		}
		if len(g.Edges[int(id)]) > 1 {
			slices.Sort(g.Edges[int(id)])
		}
	}

	for from := range g.Edges {
		if !g.Present[from] {
			continue
		}
		for _, to := range g.Edges[from] {
			if !g.Present[int(to)] && reporter != nil {
				reporter.Report(
					diag.GraphMissingChunk,
					diag.SevWarning,
					diag.Ref{Chunk: idx.IDToName[from]},
					fmt.Sprintf("chunk %q loads unknown chunk %q", idx.IDToName[from], idx.IDToName[int(to)]),
					nil,
				)
			}
		}
	}

	return g
}
