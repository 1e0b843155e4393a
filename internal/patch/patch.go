// Package patch walks the chunk graph in dependency order, computes each
// asset's digest and resolves placeholder tokens: in-place substitution
// in eager mode, a runtime hash table in lazy mode.
package patch

import (
	"bytes"
	"fmt"
	"regexp"

	"sealant/internal/bundle"
	"sealant/internal/chunkgraph"
	"sealant/internal/diag"
	"sealant/internal/registry"
	"sealant/internal/sri"
)

// Mode selects how child digests reach chunk-loading code.
type Mode string

const (
	// ModeEager substitutes child digests into parent content at build
	// time. True cycles cannot be fully resolved in this mode.
	ModeEager Mode = "eager"
	// ModeLazy emits a runtime chunk-id -> digest table instead of
	// literal substitution.
	ModeLazy Mode = "lazy"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeEager, ModeLazy:
		return Mode(s), nil
	case "":
		return ModeEager, nil
	}
	return "", fmt.Errorf("invalid hash mode %q (expected eager|lazy)", s)
}

// Stats counts what a patch pass did.
type Stats struct {
	AssetsHashed           int
	PlaceholdersResolved   int
	PlaceholdersUnresolved int
	ManifestsEmitted       int
}

// Patcher drives digest computation and placeholder resolution over one
// build's graph. All fields are required except AllowRehash.
type Patcher struct {
	Graph    *chunkgraph.Graph
	Snapshot *bundle.Snapshot
	Engine   *sri.Engine
	Hasher   sri.Hasher
	Registry *registry.Registry
	Reporter diag.Reporter

	// AllowRehash declares that the caller supports Registry.Rehash for
	// renamed assets, silencing the content-hashed-filename warning.
	AllowRehash bool
}

var hotUpdateMarkers = [][]byte{
	[]byte("webpackHotUpdate"),
	[]byte("hotUpdateChunk"),
}

// hashSegmentRe matches filename segments that look like an embedded
// content hash (e.g. main.3f8a9c0d12ef4411.js).
var hashSegmentRe = regexp.MustCompile(`(^|[._-])[0-9a-f]{16,}([._-]|$)`)

// chunkDigest returns the recorded digest standing for a chunk: the
// digest of its first recorded asset file.
func (p *Patcher) chunkDigest(id chunkgraph.ChunkID) (string, bool) {
	for _, file := range p.Graph.Files[int(id)] {
		if digest, ok := p.Registry.Lookup(file); ok {
			return digest, true
		}
	}
	return "", false
}

// finalizeAsset computes the asset's digest from its current (already
// patched) content, records it and extends the asset's fingerprints.
func (p *Patcher) finalizeAsset(asset *bundle.Asset, stats *Stats) {
	digest := p.Hasher.Integrity(asset.Content)
	if p.Registry.Record(asset.Name, digest) {
		asset.AddIntegrity(digest)
		stats.AssetsHashed++
	}
}

func (p *Patcher) checkNameHazard(name string) {
	if p.AllowRehash {
		return
	}
	if hashSegmentRe.MatchString(name) {
		p.Reporter.Report(
			diag.PatchNonDeterministicName,
			diag.SevWarning,
			diag.Ref{Asset: name},
			fmt.Sprintf("asset %q carries a content hash in its name; a later rename will invalidate its integrity record unless re-hashing is enabled", name),
			nil,
		)
	}
}

func (p *Patcher) checkHotUpdateHazard(asset *bundle.Asset, chunkName string) {
	for _, marker := range hotUpdateMarkers {
		if bytes.Contains(asset.Content, marker) {
			p.Reporter.Report(
				diag.PatchHotUpdateFragile,
				diag.SevWarning,
				diag.Ref{Asset: asset.Name, Chunk: chunkName},
				fmt.Sprintf("hot-update code detected in %q; combining hot module replacement with subresource integrity is fragile", asset.Name),
				nil,
			)
			return
		}
	}
}
