// Package registry keeps the per-build bidirectional mapping between
// asset keys and their computed integrity strings.
package registry

import (
	"errors"
	"fmt"
	"sort"

	"sealant/internal/bundle"
	"sealant/internal/diag"
)

// errNoReader marks an asset whose bytes are gone and cannot be loaded:
// no snapshot content and no reader to fall back on. Hashing nothing
// would record the empty-content digest for bytes nobody ever saw.
var errNoReader = errors.New("no content and no reader")

// Registry owns the forward (asset -> digest) and reverse (digest ->
// asset) indexes. Processing is single-threaded; the first-writer-wins
// rule of Record is the invariant that keeps double-processing harmless.
type Registry struct {
	hasher  Hasher
	forward map[string]string
	reverse map[string]string
}

// Hasher computes an integrity string for content. Satisfied by
// sri.Engine and by the disk-cache wrapper.
type Hasher interface {
	Integrity(content []byte) string
}

// New returns an empty registry bound to a hasher. One registry lives
// for exactly one build's hash-emission phase.
func New(hasher Hasher) *Registry {
	return &Registry{
		hasher:  hasher,
		forward: make(map[string]string),
		reverse: make(map[string]string),
	}
}

// Record inserts the mapping only if assetKey is not already present.
// Returns true if the record was written. The reverse index is
// first-writer-wins as well: when two assets share identical content,
// the digest stays owned by whichever asset recorded it first, so a
// later Rehash of that digest retargets the owner instead of leaving a
// forward entry the reverse index no longer knows.
func (r *Registry) Record(assetKey, digest string) bool {
	if assetKey == "" || digest == "" {
		return false
	}
	if _, ok := r.forward[assetKey]; ok {
		return false
	}
	r.forward[assetKey] = digest
	if _, ok := r.reverse[digest]; !ok {
		r.reverse[digest] = assetKey
	}
	return true
}

// Lookup returns the digest recorded for assetKey.
func (r *Registry) Lookup(assetKey string) (string, bool) {
	digest, ok := r.forward[assetKey]
	return digest, ok
}

// Rehash revises a record by the identity of its old digest: a later
// step renamed or recompressed the asset after it was fingerprinted.
// Both directions are swapped atomically. Returns ("", false) when the
// old digest is unknown or when not exactly one content buffer is
// supplied; re-hashing is defined only for single-buffer recomputation.
func (r *Registry) Rehash(oldDigest string, contents ...[]byte) (string, bool) {
	if len(contents) != 1 {
		return "", false
	}
	assetKey, ok := r.reverse[oldDigest]
	if !ok {
		return "", false
	}
	newDigest := r.hasher.Integrity(contents[0])
	delete(r.reverse, oldDigest)
	r.forward[assetKey] = newDigest
	r.reverse[newDigest] = assetKey
	return newDigest, true
}

// Len returns the number of recorded assets.
func (r *Registry) Len() int {
	return len(r.forward)
}

// Records returns a copy of the forward index.
func (r *Registry) Records() map[string]string {
	out := make(map[string]string, len(r.forward))
	for k, v := range r.forward {
		out[k] = v
	}
	return out
}

// FillMissing records a digest for every asset the graph walk never
// visited (assets with no chunk association). Assets whose content is
// gone are skipped best-effort: a later build step deleting an
// intermediate file is routine, so only an info diagnostic is emitted.
func (r *Registry) FillMissing(assets map[string]*bundle.Asset, read func(name string) ([]byte, error), reporter diag.Reporter) int {
	names := make([]string, 0, len(assets))
	for name := range assets {
		names = append(names, name)
	}
	sort.Strings(names)

	filled := 0
	for _, name := range names {
		if _, ok := r.forward[name]; ok {
			continue
		}
		asset := assets[name]
		content := asset.Content
		if content == nil {
			var loaded []byte
			err := errNoReader
			if read != nil {
				loaded, err = read(name)
			}
			if err != nil {
				if reporter != nil {
					reporter.Report(
						diag.FillUnreadableAsset,
						diag.SevInfo,
						diag.Ref{Asset: name},
						fmt.Sprintf("asset %q has no readable content, integrity not recorded", name),
						nil,
					)
				}
				continue
			}
			content = loaded
		}
		digest := r.hasher.Integrity(content)
		if r.Record(name, digest) {
			asset.AddIntegrity(digest)
			filled++
		}
	}
	return filled
}
