package patch

import (
	"fmt"

	"sealant/internal/chunkgraph"
	"sealant/internal/diag"
	"sealant/internal/sri"
)

// RunEager processes chunks depth-first, children before parents, and
// substitutes child digests into parent content in place. A chunk is
// marked visited before its children are walked, which both handles
// diamond-shaped sharing (each chunk processed once) and terminates on
// cycles; the substitution a cycle makes impossible is skipped and
// reported rather than failing the build.
func (p *Patcher) RunEager() Stats {
	var stats Stats
	visited := make([]bool, len(p.Graph.Edges))

	var visit func(id chunkgraph.ChunkID)
	visit = func(id chunkgraph.ChunkID) {
		if visited[int(id)] {
			return
		}
		visited[int(id)] = true
		for _, child := range p.Graph.Edges[int(id)] {
			if p.Graph.Present[int(child)] {
				visit(child)
			}
		}
		p.patchChunkEager(id, &stats)
	}

	for i := range p.Graph.Edges {
		if p.Graph.Present[i] {
			visit(chunkgraph.ChunkID(i))
		}
	}
	return stats
}

func (p *Patcher) patchChunkEager(id chunkgraph.ChunkID, stats *Stats) {
	chunkName := p.Graph.Name(id)
	for _, file := range p.Graph.Files[int(id)] {
		asset, ok := p.Snapshot.Asset(file)
		if !ok {
			continue
		}
		p.checkNameHazard(file)
		p.checkHotUpdateHazard(asset, chunkName)

		for _, child := range p.Graph.Edges[int(id)] {
			childName := p.Graph.Name(child)
			token := p.Engine.Placeholder(childName)
			off := sri.Locate(asset.Content, token)
			if off < 0 {
				continue
			}
			digest, known := p.chunkDigest(child)
			if !known {
				// every remaining occurrence is equally unresolvable
				stats.PlaceholdersUnresolved++
				p.Reporter.Report(
					diag.PatchUnresolvedCycle,
					diag.SevWarning,
					diag.Ref{Asset: file, Chunk: chunkName},
					fmt.Sprintf("chunk %q loads chunk %q in a cycle; its integrity hash cannot be embedded at build time", chunkName, childName),
					nil,
				)
				continue
			}
			for off >= 0 {
				sri.ReplaceAt(asset.Content, off, digest)
				asset.Dirty = true
				stats.PlaceholdersResolved++
				off = sri.Locate(asset.Content, token)
			}
		}

		p.finalizeAsset(asset, stats)
	}
}
