package patch

import (
	"encoding/json"
	"sort"
	"strings"

	"sealant/internal/bundle"
	"sealant/internal/chunkgraph"
)

// runtimeTableGlobal is the global the injected chunk-loading code reads
// child hashes from at load time.
const runtimeTableGlobal = "self.__SEALANT_HASHES__"

// RunLazy walks strongly connected components dependencies-first. No
// digest is substituted into content; instead each chunk publishes a
// manifest of its direct children into the runtime hash table. Children
// in earlier components get their final digest; children inside the same
// component get a null entry, filled at runtime by whichever chunk of
// the component runs first (dependents processed later do carry the
// final digests of every component member).
func (p *Patcher) RunLazy(cond *chunkgraph.Condensation) Stats {
	var stats Stats
	for _, comp := range cond.Components {
		// finalize every member's content before any member is hashed
		for _, id := range comp.Members {
			p.emitChunkManifest(id, cond, &stats)
		}
		for _, id := range comp.Members {
			chunkName := p.Graph.Name(id)
			for _, file := range p.Graph.Files[int(id)] {
				asset, ok := p.Snapshot.Asset(file)
				if !ok {
					continue
				}
				p.checkNameHazard(file)
				p.checkHotUpdateHazard(asset, chunkName)
				p.finalizeAsset(asset, &stats)
			}
		}
	}
	return stats
}

// emitChunkManifest appends the runtime-table snippet for the chunk's
// direct children to the chunk's first available asset.
func (p *Patcher) emitChunkManifest(id chunkgraph.ChunkID, cond *chunkgraph.Condensation, stats *Stats) {
	children := p.Graph.Edges[int(id)]
	if len(children) == 0 {
		return
	}

	entries := make(map[string]*string, len(children))
	for _, child := range children {
		if !p.Graph.Present[int(child)] {
			continue
		}
		name := p.Graph.Name(child)
		if cond.SameComponent(id, child) {
			entries[name] = nil
			continue
		}
		if digest, ok := p.chunkDigest(child); ok {
			d := digest
			entries[name] = &d
		}
	}
	if len(entries) == 0 {
		return
	}

	var asset *bundle.Asset
	for _, file := range p.Graph.Files[int(id)] {
		if a, ok := p.Snapshot.Asset(file); ok {
			asset = a
			break
		}
	}
	if asset == nil {
		return
	}

	asset.Content = append(asset.Content, []byte(manifestSnippet(entries))...)
	asset.Dirty = true
	stats.ManifestsEmitted++
}

// manifestSnippet renders the Object.assign call merging the chunk's
// child entries into the global table. Keys are emitted sorted so the
// snippet, and therefore the asset digest, is deterministic.
func manifestSnippet(entries map[string]*string) string {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("\n;")
	b.WriteString(runtimeTableGlobal)
	b.WriteString(" = Object.assign(")
	b.WriteString(runtimeTableGlobal)
	b.WriteString(" || {}, {")
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		key, _ := json.Marshal(name)
		b.Write(key)
		b.WriteByte(':')
		if digest := entries[name]; digest != nil {
			value, _ := json.Marshal(*digest)
			b.Write(value)
		} else {
			b.WriteString("null")
		}
	}
	b.WriteString("});\n")
	return b.String()
}
